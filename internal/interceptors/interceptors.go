package interceptors

import (
	"strings"

	"google.golang.org/grpc"
)

// UnaryInterceptorApplicable decides whether interceptor handles the call
type UnaryInterceptorApplicable func(*grpc.UnaryServerInfo) bool

// isUnaryInterceptorApplicable requires every fn to agree, no fns means any call
func isUnaryInterceptorApplicable(info *grpc.UnaryServerInfo, fns ...UnaryInterceptorApplicable) bool {
	for _, fn := range fns {
		if !fn(info) {
			return false
		}
	}
	return true
}

// UnaryApplicableForService matches calls of fully qualified service svc, e.g. inquiries.v1.InquiryService
func UnaryApplicableForService(svc string) UnaryInterceptorApplicable {
	return func(info *grpc.UnaryServerInfo) bool {
		return serviceOf(info.FullMethod) == svc
	}
}

// serviceOf extracts service from /package.service/method
func serviceOf(fullMethod string) string {
	name := strings.TrimPrefix(fullMethod, "/")
	if i := strings.LastIndex(name, "/"); i >= 0 {
		return name[:i]
	}
	return name
}
