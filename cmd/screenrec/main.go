// screenrec - pick a window or screen, record it, save it as WebM
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/GriffinCanCode/screenrec/internal/capture"
	"github.com/GriffinCanCode/screenrec/internal/cli"
	"github.com/GriffinCanCode/screenrec/internal/config"
	"github.com/GriffinCanCode/screenrec/internal/logging"
	"github.com/GriffinCanCode/screenrec/internal/media"
	"github.com/GriffinCanCode/screenrec/internal/output"
)

func main() {
	if err := run(); err != nil {
		formatter := output.NewFormatter(os.Stderr)
		formatter.Error(err.Error())
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// Setup structured logging
	logger, closer := logging.Setup(logging.Options{Level: cfg.LogLevel, File: cfg.LogFile})
	defer func(c io.Closer) { _ = c.Close() }(closer)
	logger.Debug("config loaded", "file", config.FilePath(), "headless", cfg.Headless, "save_target", cfg.SaveTarget)

	deps := &cli.Dependencies{
		Config:   cfg,
		Platform: capture.New(),
		Encoder:  media.NewFFmpegEncoder(cfg.FFmpegPath, cfg.FrameRate),
	}

	return cli.NewRootCmd(deps).Execute()
}
