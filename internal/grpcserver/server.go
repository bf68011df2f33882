// Package grpcserver implements the review.ReviewService gRPC server.
//
// It delegates all business logic to review.Service and handles
// only the gRPC transport concerns: metadata extraction, error mapping,
// and filter conversion. Messages travel as JSON (content subtype "json").
package grpcserver

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"jobboard/review-service/internal/review"
)

// Server implements ReviewServer.
type Server struct {
	svc *review.Service
}

var _ ReviewServer = (*Server)(nil)

// NewServer constructs a gRPC Server backed by the given review.Service.
func NewServer(svc *review.Service) *Server {
	return &Server{svc: svc}
}

// New builds a grpc.Server with the review service and the standard health
// service registered.
func New(svc *review.Service, logger *slog.Logger) *grpc.Server {
	gs := grpc.NewServer(grpc.ChainUnaryInterceptor(loggingInterceptor(logger)))
	gs.RegisterService(&ServiceDesc, NewServer(svc))

	hs := health.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	hs.SetServingStatus(serviceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(gs, hs)
	return gs
}

// ─── RPC implementations ──────────────────────────────────────────────────────

// ListApplications returns the applications matching the request filter.
func (s *Server) ListApplications(ctx context.Context, req *FilterRequest) (*ListApplicationsResponse, error) {
	f, err := toFilter(req)
	if err != nil {
		return nil, toGRPCError(err)
	}

	apps, err := s.svc.ListApplications(ctx, f)
	if err != nil {
		return nil, toGRPCError(err)
	}
	return &ListApplicationsResponse{Applications: apps}, nil
}

// UpdateApplicationStatus transitions an application to a new status.
func (s *Server) UpdateApplicationStatus(ctx context.Context, req *UpdateStatusRequest) (*review.Application, error) {
	if req.ApplicationID == "" {
		return nil, status.Error(codes.InvalidArgument, "applicationId is required")
	}
	app, err := s.svc.Transition(ctx, req.ApplicationID, review.Status(req.Status))
	if err != nil {
		return nil, toGRPCError(err)
	}
	return &app, nil
}

// GetStats aggregates the applications matching the request filter.
func (s *Server) GetStats(ctx context.Context, req *FilterRequest) (*review.Stats, error) {
	f, err := toFilter(req)
	if err != nil {
		return nil, toGRPCError(err)
	}

	stats, err := s.svc.Stats(ctx, f)
	if err != nil {
		return nil, toGRPCError(err)
	}
	return &stats, nil
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

func toFilter(req *FilterRequest) (review.Filter, error) {
	f := review.Filter{
		CandidateID: req.CandidateID,
		CompanyID:   req.CompanyID,
		JobID:       req.JobID,
		Query:       req.Query,
	}
	if req.Status != "" {
		st, err := review.NormalizeStatus(req.Status)
		if err != nil {
			return review.Filter{}, &review.ValidationError{Msg: err.Error()}
		}
		f.Status = st
	}
	return f, nil
}

// requestIDFromCtx extracts the x-request-id value forwarded by the gateway
// via gRPC metadata. Empty when absent.
func requestIDFromCtx(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	if vals := md.Get("x-request-id"); len(vals) > 0 {
		return vals[0]
	}
	return ""
}

func loggingInterceptor(logger *slog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		logger.Debug("grpc call",
			"method", info.FullMethod,
			"code", status.Code(err).String(),
			"requestId", requestIDFromCtx(ctx),
			"duration", time.Since(start),
		)
		return resp, err
	}
}

// toGRPCError maps domain errors to gRPC status errors.
func toGRPCError(err error) error {
	if errors.Is(err, review.ErrNotFound) {
		return status.Error(codes.NotFound, err.Error())
	}
	var ve *review.ValidationError
	if errors.As(err, &ve) {
		return status.Error(codes.InvalidArgument, ve.Msg)
	}
	return status.Error(codes.Internal, "internal server error")
}
