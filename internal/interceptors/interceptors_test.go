package interceptors

import (
	"context"
	"crypto/ed25519"
	"errors"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/umalmyha/inquiries/internal/auth"
	inqErrors "github.com/umalmyha/inquiries/internal/errors"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

const testMethod = "/inquiries.v1.FeatureFlagService/GetFlags"

func TestErrorUnaryInterceptor(t *testing.T) {
	assert := assert.New(t)

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	interceptor := ErrorUnaryInterceptor(logger)
	info := &grpc.UnaryServerInfo{FullMethod: testMethod}

	tests := []struct {
		name string
		err  error
		code codes.Code
	}{
		{name: "entry not found", err: inqErrors.NewEntryNotFoundErr("inquiry is not loaded"), code: codes.NotFound},
		{name: "business error", err: inqErrors.NewBusinessErr("keys", "unknown feature flag"), code: codes.FailedPrecondition},
		{name: "too many requests", err: echo.NewHTTPError(http.StatusTooManyRequests), code: codes.ResourceExhausted},
		{name: "safe mode", err: echo.NewHTTPError(http.StatusServiceUnavailable, "maintenance"), code: codes.Unavailable},
		{name: "grpc status", err: status.Error(codes.Unauthenticated, "no token"), code: codes.Unauthenticated},
		{name: "unexpected", err: errors.New("boom"), code: codes.Internal},
	}

	for _, tt := range tests {
		_, err := interceptor(context.Background(), nil, info, func(context.Context, any) (any, error) {
			return nil, tt.err
		})
		assert.Equal(tt.code, status.Code(err), tt.name)
	}

	res, err := interceptor(context.Background(), nil, info, func(context.Context, any) (any, error) {
		return "ok", nil
	})
	assert.NoError(err, "successful call must stay successful")
	assert.Equal("ok", res)
}

func TestAuthUnaryInterceptor(t *testing.T) {
	assert := assert.New(t)

	publicKey, privateKey, err := ed25519.GenerateKey(nil)
	assert.NoError(err)

	token, err := auth.NewJwtIssuer("test-issuer", jwt.SigningMethodEdDSA, time.Minute, privateKey).Sign("user-1", time.Now())
	assert.NoError(err)

	validator := auth.NewJwtValidator("test-issuer", jwt.SigningMethodEdDSA, publicKey)
	info := &grpc.UnaryServerInfo{FullMethod: testMethod}

	var seenUserID string
	handler := func(ctx context.Context, _ any) (any, error) {
		seenUserID, _ = auth.UserIDFromContext(ctx)
		return nil, nil
	}

	interceptor := AuthUnaryInterceptor(validator)

	_, err = interceptor(context.Background(), nil, info, handler)
	assert.Equal(codes.Unauthenticated, status.Code(err), "metadata is missing")

	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs("authorization", "Bearer broken"))
	_, err = interceptor(ctx, nil, info, handler)
	assert.Equal(codes.Unauthenticated, status.Code(err), "token is broken")

	ctx = metadata.NewIncomingContext(context.Background(), metadata.Pairs("authorization", "Bearer "+token.Signed))
	_, err = interceptor(ctx, nil, info, handler)
	assert.NoError(err)
	assert.Equal("user-1", seenUserID, "token subject must be put to context")

	skipping := AuthUnaryInterceptor(validator, UnaryApplicableForService("inquiries.v1.InquiryService"))
	_, err = skipping(context.Background(), nil, info, handler)
	assert.NoError(err, "interceptor must not apply to other services")

	anonymous := AuthUnaryInterceptor(nil)
	seenUserID = ""
	_, err = anonymous(context.Background(), nil, info, handler)
	assert.NoError(err, "anonymous sessions must pass through")
	assert.Empty(seenUserID)
}

func TestUnaryApplicableForService(t *testing.T) {
	assert := assert.New(t)

	applicable := UnaryApplicableForService("inquiries.v1.FeatureFlagService")

	assert.True(applicable(&grpc.UnaryServerInfo{FullMethod: testMethod}))
	assert.False(applicable(&grpc.UnaryServerInfo{FullMethod: "/inquiries.v1.InquiryService/GetState"}))
	assert.False(applicable(&grpc.UnaryServerInfo{FullMethod: "/inquiries.v1.FeatureFlagServiceAdmin/GetFlags"}), "service must match exactly")
	assert.False(applicable(&grpc.UnaryServerInfo{FullMethod: "/other.inquiries.v1.FeatureFlagService/GetFlags"}))

	assert.True(isUnaryInterceptorApplicable(&grpc.UnaryServerInfo{FullMethod: testMethod}), "no conditions means every call")
	assert.False(isUnaryInterceptorApplicable(&grpc.UnaryServerInfo{FullMethod: testMethod}, applicable, UnaryApplicableForService("inquiries.v1.InquiryService")))
}
