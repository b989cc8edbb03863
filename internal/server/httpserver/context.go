package httpserver

import "context"

type ctxKey string

const userIDKey ctxKey = "userID"

// WithUser returns a context carrying the authenticated user id.
func WithUser(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// UserFromContext extracts the authenticated user id set by the
// authentication gate. ok is false for unauthenticated requests.
func UserFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(userIDKey).(int64)
	return id, ok
}
