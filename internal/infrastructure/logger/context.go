package logger

import "context"

type ctxKey int

const requestIDKey ctxKey = iota

// ContextWithRequestID stashes the request ID in the context so it can travel
// down into layers that only see a context.Context, like the GORM logger
func ContextWithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// GetRequestID reads the request ID from the context, or "" when absent
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}
