package utils

import (
	"context"
)

type contextKey string

const ContextUserIDKey contextKey = "userID"

func GetUserIDFromContext(ctx context.Context) (int64, bool) {
	userID := ctx.Value(ContextUserIDKey)
	id, ok := userID.(int64)
	return id, ok
}
