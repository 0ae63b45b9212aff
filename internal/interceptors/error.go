package interceptors

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	inqErrors "github.com/umalmyha/inquiries/internal/errors"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func httpToGrpcCode(s int) codes.Code {
	switch s {
	case http.StatusBadRequest:
		return codes.FailedPrecondition
	case http.StatusUnauthorized:
		return codes.Unauthenticated
	case http.StatusForbidden:
		return codes.PermissionDenied
	case http.StatusNotFound:
		return codes.NotFound
	case http.StatusTooManyRequests:
		return codes.ResourceExhausted
	case http.StatusServiceUnavailable:
		return codes.Unavailable
	default:
		return codes.Internal
	}
}

// ErrorUnaryInterceptor converts error retrieved from handler to gRPC error with corresponding code
func ErrorUnaryInterceptor(logger logrus.FieldLogger, applicables ...UnaryInterceptorApplicable) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, h grpc.UnaryHandler) (any, error) {
		if !isUnaryInterceptorApplicable(info, applicables...) {
			return h(ctx, req)
		}

		res, err := h(ctx, req)
		if err == nil {
			return res, nil
		}
		logger.WithError(err).WithField("method", info.FullMethod).Error("error occurred on grpc request processing")

		if _, ok := status.FromError(err); ok { // it is already grpc status error
			return nil, err
		}

		code := codes.Internal

		var echoErr *echo.HTTPError
		var businessErr *inqErrors.BusinessErr
		var notFoundErr *inqErrors.EntryNotFoundErr
		switch {
		case errors.As(err, &echoErr):
			code = httpToGrpcCode(echoErr.Code)
		case errors.As(err, &businessErr):
			code = codes.FailedPrecondition
		case errors.As(err, &notFoundErr):
			code = codes.NotFound
		}

		if code == codes.Internal {
			return nil, status.Error(code, "Internal server error")
		}
		return nil, status.Error(code, err.Error())
	}
}
