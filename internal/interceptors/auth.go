package interceptors

import (
	"context"
	"strings"

	"github.com/umalmyha/inquiries/internal/auth"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// AuthUnaryInterceptor verifies bearer token from authorization metadata and puts its subject to context.
// Without validator every call is served as anonymous session.
func AuthUnaryInterceptor(validator *auth.JwtValidator, applicables ...UnaryInterceptorApplicable) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, h grpc.UnaryHandler) (any, error) {
		if validator == nil || !isUnaryInterceptorApplicable(info, applicables...) {
			return h(ctx, req)
		}

		headers, ok := metadata.FromIncomingContext(ctx)
		if !ok {
			return nil, status.Error(codes.Unauthenticated, "no auth info provided")
		}

		authHdr := headers.Get("authorization")
		if len(authHdr) == 0 {
			return nil, status.Error(codes.Unauthenticated, "authorization header is missing")
		}

		token := strings.TrimSpace(strings.TrimPrefix(authHdr[0], "Bearer"))
		userID, err := validator.Verify(token)
		if err != nil {
			return nil, status.Errorf(codes.Unauthenticated, "invalid access token provided - %v", err)
		}

		return h(auth.WithUserID(ctx, userID), req)
	}
}
