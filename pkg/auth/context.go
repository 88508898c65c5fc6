package auth

import "context"

type contextKey string

const operatorKey contextKey = "operator"

func WithOperator(ctx context.Context, operator string) context.Context {
	return context.WithValue(ctx, operatorKey, operator)
}

// OperatorFromContext returns the authenticated operator, or "" when the
// request was not authenticated.
func OperatorFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(operatorKey).(string); ok {
		return v
	}
	return ""
}
