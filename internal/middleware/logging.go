package middleware

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"connectrpc.com/connect"
)

// LoggingInterceptor writes one log line per RPC with the procedure, actor,
// result code and duration. Install it after ActorInterceptor so the actor is
// known.
func LoggingInterceptor() connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			start := time.Now()
			resp, err := next(ctx, req)

			level, code := rpcOutcome(err)
			attrs := []any{
				"procedure", req.Spec().Procedure,
				"code", code,
				"actor", GetActor(ctx),
				"duration_ms", time.Since(start).Milliseconds(),
			}
			if err != nil {
				attrs = append(attrs, "error", errorMessage(err))
			}
			slog.Log(ctx, level, "RPC finished", attrs...)

			return resp, err
		}
	}
}

// rpcOutcome picks the log level for an RPC result. Caller mistakes
// (not found, invalid argument, ...) are warnings; internal and uncoded
// errors are errors.
func rpcOutcome(err error) (slog.Level, string) {
	if err == nil {
		return slog.LevelInfo, "ok"
	}
	var connectErr *connect.Error
	if !errors.As(err, &connectErr) {
		return slog.LevelError, connect.CodeUnknown.String()
	}
	switch connectErr.Code() {
	case connect.CodeInternal, connect.CodeUnknown, connect.CodeDataLoss, connect.CodeUnavailable:
		return slog.LevelError, connectErr.Code().String()
	default:
		return slog.LevelWarn, connectErr.Code().String()
	}
}

// errorMessage drops the code prefix connect adds to Error().
func errorMessage(err error) string {
	var connectErr *connect.Error
	if errors.As(err, &connectErr) {
		return connectErr.Message()
	}
	return err.Error()
}
