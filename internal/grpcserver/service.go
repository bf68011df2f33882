package grpcserver

import (
	"context"

	"google.golang.org/grpc"

	"jobboard/review-service/internal/review"
)

// ─── Messages ─────────────────────────────────────────────────────────────────

// FilterRequest narrows ListApplications and GetStats.
type FilterRequest struct {
	CandidateID string `json:"candidateId,omitempty"`
	CompanyID   string `json:"companyId,omitempty"`
	JobID       string `json:"jobId,omitempty"`
	Status      string `json:"status,omitempty"`
	Query       string `json:"q,omitempty"`
}

// ListApplicationsResponse carries the matching applications.
type ListApplicationsResponse struct {
	Applications []review.Application `json:"applications"`
}

// UpdateStatusRequest asks for one status transition.
type UpdateStatusRequest struct {
	ApplicationID string `json:"applicationId"`
	Status        string `json:"status"`
}

// ReviewServer is the server API of review.ReviewService.
type ReviewServer interface {
	ListApplications(context.Context, *FilterRequest) (*ListApplicationsResponse, error)
	UpdateApplicationStatus(context.Context, *UpdateStatusRequest) (*review.Application, error)
	GetStats(context.Context, *FilterRequest) (*review.Stats, error)
}

const serviceName = "review.ReviewService"

// ServiceDesc describes review.ReviewService for grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*ReviewServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "ListApplications", Handler: listApplicationsHandler},
		{MethodName: "UpdateApplicationStatus", Handler: updateApplicationStatusHandler},
		{MethodName: "GetStats", Handler: getStatsHandler},
	},
	Streams: []grpc.StreamDesc{},
}

func listApplicationsHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(FilterRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ReviewServer).ListApplications(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + serviceName + "/ListApplications"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ReviewServer).ListApplications(ctx, req.(*FilterRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func updateApplicationStatusHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(UpdateStatusRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ReviewServer).UpdateApplicationStatus(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + serviceName + "/UpdateApplicationStatus"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ReviewServer).UpdateApplicationStatus(ctx, req.(*UpdateStatusRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func getStatsHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(FilterRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ReviewServer).GetStats(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + serviceName + "/GetStats"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ReviewServer).GetStats(ctx, req.(*FilterRequest))
	}
	return interceptor(ctx, in, info, handler)
}

// ─── Client ───────────────────────────────────────────────────────────────────

// Client calls review.ReviewService over the JSON codec.
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient wraps an established connection.
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func (c *Client) invoke(ctx context.Context, method string, in, out any, opts []grpc.CallOption) error {
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(codecName)}, opts...)
	return c.cc.Invoke(ctx, "/"+serviceName+"/"+method, in, out, opts...)
}

// ListApplications calls ReviewService.ListApplications.
func (c *Client) ListApplications(ctx context.Context, in *FilterRequest, opts ...grpc.CallOption) (*ListApplicationsResponse, error) {
	out := new(ListApplicationsResponse)
	if err := c.invoke(ctx, "ListApplications", in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateApplicationStatus calls ReviewService.UpdateApplicationStatus.
func (c *Client) UpdateApplicationStatus(ctx context.Context, in *UpdateStatusRequest, opts ...grpc.CallOption) (*review.Application, error) {
	out := new(review.Application)
	if err := c.invoke(ctx, "UpdateApplicationStatus", in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

// GetStats calls ReviewService.GetStats.
func (c *Client) GetStats(ctx context.Context, in *FilterRequest, opts ...grpc.CallOption) (*review.Stats, error) {
	out := new(review.Stats)
	if err := c.invoke(ctx, "GetStats", in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}
