package grpc

import (
	"context"
	"strings"
	"time"

	"github.com/dmitrijs2005/lip/internal/common"
	"github.com/dmitrijs2005/lip/internal/logging"
	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

var requestIDKey = strings.ToLower(common.RequestIDHeaderName)

func (s *Server) recoverInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp any, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			logging.From(ctx, s.logger).Error(ctx, "panic", "method", info.FullMethod, "reason", rec)
			err = status.Error(codes.Internal, "internal error")
		}
	}()
	return handler(ctx, req)
}

// loggingInterceptor attaches a request-scoped logger, taking the request id
// from metadata or making one up.
func (s *Server) loggingInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	var rid string
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if v := md.Get(requestIDKey); len(v) > 0 {
			rid = v[0]
		}
	}
	if rid == "" {
		rid = uuid.NewString()
	}

	l := s.logger.With("request_id", rid)
	ctx = logging.Into(ctx, l)

	start := time.Now()
	resp, err := handler(ctx, req)

	l.Info(ctx, "grpc",
		"method", info.FullMethod,
		"code", status.Code(err).String(),
		"dur", time.Since(start),
	)
	return resp, err
}
