package handlers

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/umalmyha/inquiries/internal/auth"
	"github.com/umalmyha/inquiries/internal/service"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const (
	FeatureFlagServiceName = "inquiries.v1.FeatureFlagService"
	InquiryServiceName     = "inquiries.v1.InquiryService"

	GetFlagsMethod = "/" + FeatureFlagServiceName + "/GetFlags"
	GetStateMethod = "/" + InquiryServiceName + "/GetState"
)

// FeatureFlagServiceServer serves feature flags over gRPC
type FeatureFlagServiceServer interface {
	GetFlags(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
}

// InquiryServiceServer serves inquiries state over gRPC
type InquiryServiceServer interface {
	GetState(context.Context, *wrapperspb.BoolValue) (*structpb.Struct, error)
}

// FeatureFlagServiceDesc describes inquiries.v1.FeatureFlagService
var FeatureFlagServiceDesc = grpc.ServiceDesc{
	ServiceName: FeatureFlagServiceName,
	HandlerType: (*FeatureFlagServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "GetFlags",
			Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
				in := new(wrapperspb.StringValue)
				if err := dec(in); err != nil {
					return nil, err
				}

				h := func(ctx context.Context, req any) (any, error) {
					return srv.(FeatureFlagServiceServer).GetFlags(ctx, req.(*wrapperspb.StringValue))
				}
				if interceptor == nil {
					return h(ctx, in)
				}
				return interceptor(ctx, in, &grpc.UnaryServerInfo{Server: srv, FullMethod: GetFlagsMethod}, h)
			},
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "inquiries/v1/inquiries.proto",
}

// InquiryServiceDesc describes inquiries.v1.InquiryService
var InquiryServiceDesc = grpc.ServiceDesc{
	ServiceName: InquiryServiceName,
	HandlerType: (*InquiryServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "GetState",
			Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
				in := new(wrapperspb.BoolValue)
				if err := dec(in); err != nil {
					return nil, err
				}

				h := func(ctx context.Context, req any) (any, error) {
					return srv.(InquiryServiceServer).GetState(ctx, req.(*wrapperspb.BoolValue))
				}
				if interceptor == nil {
					return h(ctx, in)
				}
				return interceptor(ctx, in, &grpc.UnaryServerInfo{Server: srv, FullMethod: GetStateMethod}, h)
			},
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "inquiries/v1/inquiries.proto",
}

// RegisterFeatureFlagServiceServer registers feature flags service on gRPC server
func RegisterFeatureFlagServiceServer(s grpc.ServiceRegistrar, srv FeatureFlagServiceServer) {
	s.RegisterService(&FeatureFlagServiceDesc, srv)
}

// RegisterInquiryServiceServer registers inquiry service on gRPC server
func RegisterInquiryServiceServer(s grpc.ServiceRegistrar, srv InquiryServiceServer) {
	s.RegisterService(&InquiryServiceDesc, srv)
}

// FlagGrpcHandler is gRPC handler for feature flags service
type FlagGrpcHandler struct {
	flags FlagProvider
}

// NewFlagGrpcHandler builds new FlagGrpcHandler
func NewFlagGrpcHandler(flags FlagProvider) *FlagGrpcHandler {
	return &FlagGrpcHandler{flags: flags}
}

// GetFlags evaluates flags for authenticated user, requested user id is used only for anonymous calls
func (h *FlagGrpcHandler) GetFlags(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		userID = req.GetValue()
	}

	state := h.flags.Fetch(ctx, service.FetchOptions{UserID: userID})
	return toStruct(state)
}

// InquiryGrpcHandler is gRPC handler for inquiry service
type InquiryGrpcHandler struct {
	store service.InquiryStore
}

// NewInquiryGrpcHandler builds new InquiryGrpcHandler
func NewInquiryGrpcHandler(store service.InquiryStore) *InquiryGrpcHandler {
	return &InquiryGrpcHandler{store: store}
}

// GetState fetches inquiries and returns state
func (h *InquiryGrpcHandler) GetState(ctx context.Context, req *wrapperspb.BoolValue) (*structpb.Struct, error) {
	h.store.Fetch(ctx, req.GetValue())
	return toStruct(h.store.State())
}

// toStruct keeps field names of json representation
func toStruct(v any) (*structpb.Struct, error) {
	encoded, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode response - %w", err)
	}

	var fields map[string]any
	if err := json.Unmarshal(encoded, &fields); err != nil {
		return nil, fmt.Errorf("failed to decode response - %w", err)
	}
	return structpb.NewStruct(fields)
}
