package cli

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/GriffinCanCode/screenrec/internal/output"
	"github.com/GriffinCanCode/screenrec/internal/preview"
	"github.com/GriffinCanCode/screenrec/internal/server"
)

// Serve timeouts
const (
	ReadTimeout     = 10 * time.Second
	ShutdownTimeout = 5 * time.Second
)

func NewServeCmd(deps *Dependencies) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP/WebSocket control server",
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := output.NewFormatter(cmd.OutOrStdout())
			if addr == "" {
				addr = deps.Config.HTTPAddr
			}
			if err := deps.Encoder.Check(); err != nil {
				formatter.Warning(err.Error())
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			surface := preview.NewSurface(deps.Config.PreviewRate)
			ctrl, err := deps.newController(ctx, controllerOptions{preview: surface})
			if err != nil {
				return err
			}

			var opts []server.Option
			var health *server.Health
			if deps.Config.GRPCAddr != "" {
				lis, err := net.Listen("tcp", deps.Config.GRPCAddr)
				if err != nil {
					_ = ctrl.Close()
					return err
				}
				health = server.NewHealth()
				opts = append(opts, server.WithHealth(health))
				go func() {
					slog.Info("health server starting", "grpc", deps.Config.GRPCAddr)
					if err := health.Serve(lis); err != nil {
						slog.Error("health server error", "error", err)
					}
				}()
			}

			srv := server.New(ctrl, surface, opts...)

			// WriteTimeout stays unset so /ws connections can live on.
			httpServer := &http.Server{
				Addr:        addr,
				Handler:     srv.Handler(),
				ReadTimeout: ReadTimeout,
			}

			errCh := make(chan error, 1)
			go func() {
				slog.Info("control server starting", "http", addr)
				if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()
			formatter.Serving(addr)

			var serveErr error
			select {
			case <-ctx.Done():
			case serveErr = <-errCh:
			}

			slog.Info("shutting down...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
			defer cancel()

			if err := httpServer.Shutdown(shutdownCtx); err != nil {
				slog.Error("http shutdown error", "error", err)
			}
			srv.Close()
			if health != nil {
				health.Stop()
			}
			_ = ctrl.Close()
			slog.Info("shutdown complete")
			return serveErr
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "HTTP listen address (defaults to http_addr)")

	return cmd
}
