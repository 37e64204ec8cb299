package trace

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
)

// UnaryServerInterceptor lifts trace metadata from incoming calls into the
// handler's context.
func UnaryServerInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		ctx = WithContext(ctx, fromIncoming(ctx))
		Logger(ctx).Debug("grpc call", "method", info.FullMethod)
		return handler(ctx, req)
	}
}

func fromIncoming(ctx context.Context) Context {
	m := map[string]string{}
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		for _, key := range []string{TraceIDKey, SpanIDKey} {
			if v := md.Get(key); len(v) > 0 {
				m[key] = v[0]
			}
		}
	}
	return FromMap(m)
}
