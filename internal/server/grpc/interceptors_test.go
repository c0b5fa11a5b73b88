package grpcserver

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap/zaptest"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"

	intakev1 "github.com/and161185/intakedesk/internal/api/intakev1"
)

type fakeAddr struct{}

func (fakeAddr) Network() string { return "tcp" }
func (fakeAddr) String() string  { return "127.0.0.1:12345" }

func TestLoggingUnary_Passthrough(t *testing.T) {
	t.Parallel()

	ic := LoggingUnary(zaptest.NewLogger(t))
	ctx := peer.NewContext(context.Background(), &peer.Peer{Addr: fakeAddr{}})
	info := &grpc.UnaryServerInfo{FullMethod: intakev1.Intake_GetRecord_FullMethodName}

	resp, err := ic(ctx, "req", info, func(context.Context, any) (any, error) { return "ok", nil })
	if err != nil || resp.(string) != "ok" {
		t.Fatalf("unexpected result: %v, %v", resp, err)
	}

	wantErr := errors.New("boom")
	_, err = ic(ctx, "req", info, func(context.Context, any) (any, error) { return nil, wantErr })
	if !errors.Is(err, wantErr) {
		t.Fatalf("want original error, got: %v", err)
	}
}

func TestRecoverUnary_CatchesPanic(t *testing.T) {
	t.Parallel()

	ic := RecoverUnary(zaptest.NewLogger(t))
	info := &grpc.UnaryServerInfo{FullMethod: "/x.Service/Panic"}

	_, err := ic(context.Background(), "req", info, func(context.Context, any) (any, error) { panic("oh no") })
	if st, ok := status.FromError(err); !ok || st.Code() != codes.Internal {
		t.Fatalf("want codes.Internal, got: %v", err)
	}

	resp, err := ic(context.Background(), "req", info, func(context.Context, any) (any, error) { return 42, nil })
	if err != nil || resp.(int) != 42 {
		t.Fatalf("passthrough: %v, %v", resp, err)
	}
}

type fakeStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (f fakeStream) Context() context.Context { return f.ctx }

func TestRecoverAndLoggingStream(t *testing.T) {
	t.Parallel()

	log := zaptest.NewLogger(t)
	info := &grpc.StreamServerInfo{FullMethod: intakev1.Intake_WatchRecords_FullMethodName, IsServerStream: true}
	ss := fakeStream{ctx: context.Background()}

	err := RecoverStream(log)(nil, ss, info, func(any, grpc.ServerStream) error { panic("stream") })
	if status.Code(err) != codes.Internal {
		t.Fatalf("want codes.Internal, got %v", err)
	}
	start := time.Now()
	err = LoggingStream(log)(nil, ss, info, func(any, grpc.ServerStream) error {
		time.Sleep(2 * time.Millisecond)
		return status.Error(codes.NotFound, "x")
	})
	if status.Code(err) != codes.NotFound || time.Since(start) < 2*time.Millisecond {
		t.Fatalf("logging stream must pass the handler result through: %v", err)
	}
}

func TestAuthUnary(t *testing.T) {
	t.Parallel()

	key := []byte("k")
	ic := AuthUnary(key)
	id := uuid.Must(uuid.NewV4())
	var seen uuid.UUID
	h := func(ctx context.Context, _ any) (any, error) {
		seen, _ = UserIDFromCtx(ctx)
		return "ok", nil
	}

	login := &grpc.UnaryServerInfo{FullMethod: intakev1.Intake_Login_FullMethodName}
	if _, err := ic(context.Background(), nil, login, h); err != nil {
		t.Fatalf("login must be public: %v", err)
	}
	health := &grpc.UnaryServerInfo{FullMethod: "/grpc.health.v1.Health/Check"}
	if _, err := ic(context.Background(), nil, health, h); err != nil {
		t.Fatalf("other services pass through: %v", err)
	}

	get := &grpc.UnaryServerInfo{FullMethod: intakev1.Intake_GetRecord_FullMethodName}
	if _, err := ic(context.Background(), nil, get, h); status.Code(err) != codes.Unauthenticated {
		t.Fatalf("want Unauthenticated, got %v", err)
	}
	if _, err := ic(ctxAuth("Bearer "+jwtFor(t, id.String(), key, time.Minute)), nil, get, h); err != nil {
		t.Fatalf("authorized call: %v", err)
	}
	if seen != id {
		t.Fatalf("user id not propagated: %s", seen)
	}
}

func TestAuthStream(t *testing.T) {
	t.Parallel()

	key := []byte("k")
	id := uuid.Must(uuid.NewV4())
	info := &grpc.StreamServerInfo{FullMethod: intakev1.Intake_WatchRecords_FullMethodName, IsServerStream: true}

	err := AuthStream(key)(nil, fakeStream{ctx: context.Background()}, info, func(any, grpc.ServerStream) error { return nil })
	if status.Code(err) != codes.Unauthenticated {
		t.Fatalf("want Unauthenticated, got %v", err)
	}

	ss := fakeStream{ctx: ctxAuth("Bearer " + jwtFor(t, id.String(), key, time.Minute))}
	err = AuthStream(key)(nil, ss, info, func(_ any, s grpc.ServerStream) error {
		if got, ok := UserIDFromCtx(s.Context()); !ok || got != id {
			t.Errorf("stream ctx user: %s %v", got, ok)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("authorized stream: %v", err)
	}
}
