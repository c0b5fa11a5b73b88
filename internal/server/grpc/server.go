// Package grpcserver exposes the intake gRPC API handlers.
package grpcserver

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	intakev1 "github.com/and161185/intakedesk/internal/api/intakev1"
	"github.com/and161185/intakedesk/internal/convert"
	"github.com/and161185/intakedesk/internal/errs"
	"github.com/and161185/intakedesk/internal/model"
	"github.com/and161185/intakedesk/internal/service"
)

// Server wires services into gRPC handlers. Handlers other than Register
// and Login expect AuthUnary/AuthStream to have put the user id in the context.
type Server struct {
	intakev1.UnimplementedIntakeServer
	auth    service.AuthService
	records service.RecordService
	log     *zap.Logger
}

// New constructs a gRPC server with injected services.
func New(auth service.AuthService, records service.RecordService, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{auth: auth, records: records, log: log}
}

// Interceptors returns the interceptor chain the handlers rely on.
func Interceptors(log *zap.Logger, signKey []byte) []grpc.ServerOption {
	return []grpc.ServerOption{
		grpc.ChainUnaryInterceptor(RecoverUnary(log), LoggingUnary(log), AuthUnary(signKey)),
		grpc.ChainStreamInterceptor(RecoverStream(log), LoggingStream(log), AuthStream(signKey)),
	}
}

// toStatus maps domain errors to gRPC status codes.
func toStatus(op string, err error) error {
	switch {
	case errors.Is(err, errs.ErrNotFound):
		return status.Error(codes.NotFound, "not found")
	case errors.Is(err, errs.ErrUnauthorized):
		return status.Error(codes.Unauthenticated, "bad credentials")
	case errors.Is(err, errs.ErrUnauthenticated):
		return status.Error(codes.Unauthenticated, "no auth")
	case errors.Is(err, errs.ErrRateLimited):
		return status.Error(codes.ResourceExhausted, "rate limited")
	case errors.Is(err, errs.ErrAlreadyExists):
		return status.Error(codes.AlreadyExists, "already exists")
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, op+": canceled")
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, op+": deadline exceeded")
	case strings.HasPrefix(err.Error(), "validation:"):
		return status.Error(codes.InvalidArgument, err.Error())
	default:
		return status.Errorf(codes.Internal, "%s: %v", op, err)
	}
}

// --- Auth ---

// Register creates a new user account.
func (s *Server) Register(ctx context.Context, req *structpb.Struct) (*wrapperspb.StringValue, error) {
	c, err := convert.FromProtoCredentials(req)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	if c.Username == "" || c.Password == "" {
		return nil, status.Error(codes.InvalidArgument, "empty username/password")
	}
	id, err := s.auth.Register(ctx, service.Registration{
		Username: c.Username, Password: c.Password, DisplayName: c.DisplayName, Email: c.Email,
	})
	if err != nil {
		return nil, toStatus("register", err)
	}
	return wrapperspb.String(id), nil
}

// Login authenticates a user and returns the session and profile.
func (s *Server) Login(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	c, err := convert.FromProtoCredentials(req)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	tok, u, err := s.auth.LoginWithIP(ctx, c.Username, c.Password, peerAddr(ctx))
	if err != nil {
		return nil, toStatus("login", err)
	}
	return convert.ToProtoSession(tok, u), nil
}

// --- Records ---

// SaveRecord persists a record and returns its id.
func (s *Server) SaveRecord(ctx context.Context, req *structpb.Struct) (*wrapperspb.StringValue, error) {
	owner, ok := UserIDFromCtx(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "no auth")
	}
	rec, err := convert.FromProtoRecord(req)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "bad record: %v", err)
	}
	id, err := s.records.Persist(ctx, owner, rec)
	if err != nil {
		return nil, toStatus("save record", err)
	}
	return wrapperspb.String(id), nil
}

// GetRecord returns one record.
func (s *Server) GetRecord(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	owner, ok := UserIDFromCtx(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "no auth")
	}
	rec, err := s.records.Get(ctx, owner, req.GetValue())
	if err != nil {
		return nil, toStatus("get record", err)
	}
	return convert.ToProtoRecord(rec), nil
}

// DeleteRecord removes one record.
func (s *Server) DeleteRecord(ctx context.Context, req *wrapperspb.StringValue) (*emptypb.Empty, error) {
	owner, ok := UserIDFromCtx(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "no auth")
	}
	if err := s.records.Delete(ctx, owner, req.GetValue()); err != nil {
		return nil, toStatus("delete record", err)
	}
	return &emptypb.Empty{}, nil
}

// ListRecords runs a one-shot search.
func (s *Server) ListRecords(ctx context.Context, req *wrapperspb.StringValue) (*structpb.ListValue, error) {
	owner, ok := UserIDFromCtx(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "no auth")
	}
	recs, err := s.records.Query(ctx, owner, req.GetValue())
	if err != nil {
		return nil, toStatus("list records", err)
	}
	return convert.ToProtoRecords(recs), nil
}

// WatchRecords streams the result set of a search until the client goes away.
func (s *Server) WatchRecords(req *wrapperspb.StringValue, stream grpc.ServerStreamingServer[structpb.ListValue]) error {
	ctx := stream.Context()
	owner, ok := UserIDFromCtx(ctx)
	if !ok {
		return status.Error(codes.Unauthenticated, "no auth")
	}
	err := s.records.Watch(ctx, owner, req.GetValue(), func(recs []model.Record) error {
		return stream.Send(convert.ToProtoRecords(recs))
	})
	if err == nil || ctx.Err() != nil {
		// client cancelled; nothing to report
		return nil
	}
	s.log.Warn("watch ended", zap.String("owner", owner.String()), zap.Error(err))
	return toStatus("watch records", err)
}
