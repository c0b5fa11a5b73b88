// Package client is the intake shell's record store adapter: a gRPC client
// of the intake service that keeps the login session and maps transport
// errors back to domain errors.
package client

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/wrapperspb"

	intakev1 "github.com/and161185/intakedesk/internal/api/intakev1"
	"github.com/and161185/intakedesk/internal/convert"
	"github.com/and161185/intakedesk/internal/errs"
	"github.com/and161185/intakedesk/internal/model"
)

// Options configure the transport of Dial.
type Options struct {
	CACert    string // PEM bundle used to verify the server; system roots when empty
	Insecure  bool   // TLS without certificate verification (dev)
	Plaintext bool   // no TLS at all, for a server started with --insecure
}

type bearerCreds struct {
	token  string
	secure bool
}

func (b bearerCreds) GetRequestMetadata(context.Context, ...string) (map[string]string, error) {
	return map[string]string{"authorization": "Bearer " + b.token}, nil
}
func (b bearerCreds) RequireTransportSecurity() bool { return b.secure }

func loadTLS(caPath string, skipVerify bool) (credentials.TransportCredentials, error) {
	if skipVerify {
		return credentials.NewTLS(&tls.Config{InsecureSkipVerify: true}), nil
	}
	if caPath == "" {
		return credentials.NewClientTLSFromCert(nil, ""), nil
	}
	pem, err := os.ReadFile(caPath)
	if err != nil {
		return nil, err
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(pem) {
		return nil, errors.New("bad CA cert")
	}
	return credentials.NewTLS(&tls.Config{RootCAs: pool}), nil
}

// Client talks to the intake service on behalf of one user.
type Client struct {
	rpc    *intakev1.IntakeClient
	conn   io.Closer
	file   *SessionFile
	secure bool
	now    func() time.Time

	mu      sync.RWMutex
	session *model.Session
}

// New builds a client over an existing connection. file may be nil, in which
// case the session lives only in memory. secure must be true when cc uses TLS.
func New(cc grpc.ClientConnInterface, file *SessionFile, secure bool) *Client {
	c := &Client{rpc: intakev1.NewIntakeClient(cc), file: file, secure: secure, now: time.Now}
	if cl, ok := cc.(io.Closer); ok {
		c.conn = cl
	}
	return c
}

// Dial connects to addr. The connection is established lazily on first call.
func Dial(addr string, o Options, file *SessionFile) (*Client, error) {
	creds := insecure.NewCredentials()
	if !o.Plaintext {
		tlsCreds, err := loadTLS(o.CACert, o.Insecure)
		if err != nil {
			return nil, err
		}
		creds = tlsCreds
	}
	cc, err := grpc.NewClient(addr, grpc.WithTransportCredentials(creds))
	if err != nil {
		return nil, err
	}
	return New(cc, file, !o.Plaintext), nil
}

// Close releases the connection.
func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

// Session returns the active session or nil when logged out.
func (c *Client) Session() *model.Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.session == nil {
		return nil
	}
	s := *c.session
	return &s
}

// Restore resumes a session saved by a previous Login.
func (c *Client) Restore() (*model.Session, error) {
	if c.file == nil {
		return nil, ErrNoSession
	}
	s, err := c.file.Load()
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.session = s
	c.mu.Unlock()
	return c.Session(), nil
}

// Register creates a staff account and returns its id.
func (c *Client) Register(ctx context.Context, cred convert.Credentials) (string, error) {
	out, err := c.rpc.Register(ctx, convert.ToProtoCredentials(cred))
	if err != nil {
		return "", mapErr(err)
	}
	return out.GetValue(), nil
}

// Login authenticates and stores the session.
func (c *Client) Login(ctx context.Context, username, password string) (*model.Session, error) {
	resp, err := c.rpc.Login(ctx, convert.ToProtoCredentials(convert.Credentials{Username: username, Password: password}))
	if status.Code(err) == codes.Unauthenticated {
		return nil, errs.ErrUnauthorized
	}
	if err != nil {
		return nil, mapErr(err)
	}
	s, err := convert.FromProtoSession(resp)
	if err != nil {
		return nil, fmt.Errorf("login response: %w", err)
	}
	if c.file != nil {
		if err := c.file.Save(s); err != nil {
			return nil, fmt.Errorf("save session: %w", err)
		}
	}
	c.mu.Lock()
	c.session = &s
	c.mu.Unlock()
	return c.Session(), nil
}

// Logout forgets the session locally.
func (c *Client) Logout() error {
	c.mu.Lock()
	c.session = nil
	c.mu.Unlock()
	if c.file == nil {
		return nil
	}
	return c.file.Clear()
}

func (c *Client) callOpts() ([]grpc.CallOption, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.session == nil || c.now().After(c.session.ExpiresAt) {
		return nil, errs.ErrUnauthenticated
	}
	return []grpc.CallOption{grpc.PerRPCCredentials(bearerCreds{token: c.session.AccessToken, secure: c.secure})}, nil
}

// Persist creates or updates r and returns its id.
func (c *Client) Persist(ctx context.Context, r model.Record) (string, error) {
	opts, err := c.callOpts()
	if err != nil {
		return "", err
	}
	out, err := c.rpc.SaveRecord(ctx, convert.ToProtoRecord(r), opts...)
	if err != nil {
		return "", mapErr(err)
	}
	return out.GetValue(), nil
}

// Delete removes a record.
func (c *Client) Delete(ctx context.Context, id string) error {
	opts, err := c.callOpts()
	if err != nil {
		return err
	}
	_, err = c.rpc.DeleteRecord(ctx, wrapperspb.String(id), opts...)
	return mapErr(err)
}

// Get fetches one record.
func (c *Client) Get(ctx context.Context, id string) (model.Record, error) {
	opts, err := c.callOpts()
	if err != nil {
		return model.Record{}, err
	}
	out, err := c.rpc.GetRecord(ctx, wrapperspb.String(id), opts...)
	if err != nil {
		return model.Record{}, mapErr(err)
	}
	return convert.FromProtoRecord(out)
}

// Query returns the records matching term; "" lists all.
func (c *Client) Query(ctx context.Context, term string) ([]model.Record, error) {
	opts, err := c.callOpts()
	if err != nil {
		return nil, err
	}
	out, err := c.rpc.ListRecords(ctx, wrapperspb.String(term), opts...)
	if err != nil {
		return nil, mapErr(err)
	}
	return convert.FromProtoRecords(out)
}

// Watch streams the result set for term to fn: once immediately and again
// after every change. It blocks until ctx is done (returning ctx.Err()) or
// the stream fails.
func (c *Client) Watch(ctx context.Context, term string, fn func([]model.Record)) error {
	opts, err := c.callOpts()
	if err != nil {
		return err
	}
	stream, err := c.rpc.WatchRecords(ctx, wrapperspb.String(term), opts...)
	if err != nil {
		return mapErr(err)
	}
	for {
		list, err := stream.Recv()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return mapErr(err)
		}
		recs, err := convert.FromProtoRecords(list)
		if err != nil {
			return err
		}
		fn(recs)
	}
}

// mapErr turns gRPC status errors into domain errors.
func mapErr(err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	switch st.Code() {
	case codes.Unauthenticated:
		return fmt.Errorf("%w: %s", errs.ErrUnauthenticated, st.Message())
	case codes.NotFound:
		return errs.ErrNotFound
	case codes.AlreadyExists:
		return errs.ErrAlreadyExists
	case codes.ResourceExhausted:
		return errs.ErrRateLimited
	case codes.InvalidArgument:
		return errors.New(st.Message())
	case codes.Canceled:
		return context.Canceled
	case codes.DeadlineExceeded:
		return context.DeadlineExceeded
	default:
		return err
	}
}
