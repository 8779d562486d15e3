package middleware

import (
	"context"

	"connectrpc.com/connect"

	"github.com/mmynk/esplit/internal/calculator"
	"github.com/mmynk/esplit/internal/rpc"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

// ActorKey is the context key for the display name of whoever made the request.
const ActorKey contextKey = "actor"

// GetActor returns the actor name from the context, or "Someone".
func GetActor(ctx context.Context) string {
	if actor, ok := ctx.Value(ActorKey).(string); ok && actor != "" {
		return actor
	}
	return calculator.ActorName("", "")
}

// WithActor returns a copy of ctx carrying the actor name.
func WithActor(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, ActorKey, actor)
}

// ActorInterceptor resolves the actor from the X-Actor-Name and X-Actor-Email
// headers and stores it in the request context. Requests without either
// header are attributed to "Someone".
func ActorInterceptor() connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			actor := calculator.ActorName(
				req.Header().Get(rpc.ActorNameHeader),
				req.Header().Get(rpc.ActorEmailHeader),
			)
			return next(WithActor(ctx, actor), req)
		}
	}
}
