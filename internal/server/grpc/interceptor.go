// Package grpc provides the authentication interceptor for gRPC hosts
// embedding the auth layer.
package grpc

import (
	"context"
	"fmt"
	"regexp"
	"strconv"

	"github.com/dmitrijs2005/authgate/internal/common"
	"github.com/dmitrijs2005/authgate/internal/server/services"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

type ctxKey string

const userIDKey ctxKey = "userID"

// Authenticator is the verification entry point the interceptor calls.
type Authenticator interface {
	VerifyAndRotate(ctx context.Context, userID int64, tokenString string) (*services.Session, error)
}

// Same framing as the HTTP authorization header.
var authHeaderPattern = regexp.MustCompile(`^Bearer: (.*):([0-9]*)$`)

// WithUser returns a context carrying the authenticated user id.
func WithUser(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// UserFromContext extracts the authenticated user id. ok is false for
// unauthenticated requests.
func UserFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(userIDKey).(int64)
	return id, ok
}

// UnaryAuthInterceptor gates unary calls the same way the HTTP middleware
// gates requests: no authorization metadata passes through unauthenticated,
// a malformed value stops the call with Unauthenticated, a failed
// verification stops it with PermissionDenied, and an admitted call carries
// the user id in its context plus the rotated header in the response
// metadata.
func UnaryAuthInterceptor(auth Authenticator) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {

		var header string
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			values := md.Get(common.AuthorizationHeaderName)
			if len(values) > 0 {
				header = values[0]
			}
		}

		if header == "" {
			return handler(ctx, req)
		}

		m := authHeaderPattern.FindStringSubmatch(header)
		if m == nil {
			return nil, status.Error(codes.Unauthenticated, "malformed authorization metadata")
		}

		userID, err := strconv.ParseInt(m[2], 10, 64)
		if err != nil {
			return nil, status.Error(codes.Unauthenticated, "malformed authorization metadata")
		}

		session, err := auth.VerifyAndRotate(ctx, userID, m[1])
		if err != nil {
			return nil, status.Error(codes.PermissionDenied, "forbidden")
		}

		// Response metadata carries the replacement for the spent token.
		// SetHeader fails only outside a server stream (e.g. direct calls
		// in tests), which is safe to ignore.
		_ = grpc.SetHeader(ctx, metadata.Pairs(
			common.AuthorizationHeaderName,
			fmt.Sprintf("Bearer: %s:%d", session.Token, session.UserID),
		))

		return handler(WithUser(ctx, userID), req)
	}
}
