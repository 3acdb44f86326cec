package client

import (
	"context"
	"net"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dmitrijs2005/cashcare/internal/common"
	pb "github.com/dmitrijs2005/cashcare/internal/proto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

type fakeServer struct {
	pb.UnimplementedAuthServiceServer

	mu        sync.Mutex
	access    string // the only access token accepted
	refresh   string
	refreshes atomic.Int32
	loggedOut atomic.Bool
	whoamiErr error
}

func (f *fakeServer) Login(_ context.Context, req *pb.LoginRequest) (*pb.TokenPair, error) {
	if req.Password != "pw" {
		return nil, status.Error(codes.Unauthenticated, "authentication failed")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return &pb.TokenPair{AccessToken: f.access, RefreshToken: f.refresh}, nil
}

func (f *fakeServer) Register(_ context.Context, req *pb.RegisterRequest) (*pb.RegisterResponse, error) {
	switch req.Email {
	case "taken@example.com":
		return nil, status.Error(codes.AlreadyExists, "already exists")
	case "":
		return nil, status.Error(codes.InvalidArgument, "validation error: invalid email")
	}
	return &pb.RegisterResponse{UserID: "u1"}, nil
}

func (f *fakeServer) Refresh(_ context.Context, token string) (*pb.TokenPair, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if token != f.refresh {
		return nil, status.Error(codes.Unauthenticated, "authentication failed")
	}
	n := f.refreshes.Add(1)
	f.access = "access-" + string(rune('a'+n))
	f.refresh = "refresh-" + string(rune('a'+n))
	return &pb.TokenPair{AccessToken: f.access, RefreshToken: f.refresh}, nil
}

func (f *fakeServer) Logout(_ context.Context, token string) error {
	f.loggedOut.Store(true)
	return nil
}

func (f *fakeServer) WhoAmI(ctx context.Context) (*pb.Profile, error) {
	if f.whoamiErr != nil {
		return nil, f.whoamiErr
	}
	md, _ := metadata.FromIncomingContext(ctx)
	vals := md.Get(common.AuthorizationHeaderName)
	f.mu.Lock()
	want := common.BearerPrefix + f.access
	f.mu.Unlock()
	if len(vals) != 1 || vals[0] != want {
		return nil, status.Error(codes.Unauthenticated, common.ErrTokenExpired.Error())
	}
	return &pb.Profile{UserID: "u1", Email: "a@example.com"}, nil
}

func newTestClient(t *testing.T, f *fakeServer) *GRPCClient {
	t.Helper()

	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer()
	pb.RegisterAuthServiceServer(srv, f)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	c, err := NewGRPCClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }))
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestLoginAndWhoAmI(t *testing.T) {
	f := &fakeServer{access: "access-0", refresh: "refresh-0"}
	c := newTestClient(t, f)
	ctx := context.Background()

	_, err := c.WhoAmI(ctx)
	assert.ErrorIs(t, err, ErrNotLoggedIn)

	_, err = c.Login(ctx, "a@example.com", []byte("bad"))
	assert.ErrorIs(t, err, ErrUnauthorized)

	var saved []*pb.TokenPair
	c.OnTokens(func(p *pb.TokenPair) { saved = append(saved, p) })

	pair, err := c.Login(ctx, "a@example.com", []byte("pw"))
	require.NoError(t, err)
	assert.Equal(t, "access-0", pair.AccessToken)
	require.Len(t, saved, 1)

	p, err := c.WhoAmI(ctx)
	require.NoError(t, err)
	assert.Equal(t, "u1", p.UserID)
	assert.Zero(t, f.refreshes.Load())
}

func TestWhoAmI_RefreshesExpiredAccessToken(t *testing.T) {
	f := &fakeServer{access: "access-0", refresh: "refresh-0"}
	c := newTestClient(t, f)

	var saved []*pb.TokenPair
	c.OnTokens(func(p *pb.TokenPair) { saved = append(saved, p) })
	c.SetTokens(&pb.TokenPair{AccessToken: "stale", RefreshToken: "refresh-0"})

	p, err := c.WhoAmI(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "u1", p.UserID)
	assert.Equal(t, int32(1), f.refreshes.Load())

	require.Len(t, saved, 2)
	assert.Equal(t, "refresh-b", saved[1].RefreshToken)
}

func TestWhoAmI_ConcurrentCallsRefreshOnce(t *testing.T) {
	f := &fakeServer{access: "access-0", refresh: "refresh-0"}
	c := newTestClient(t, f)
	c.SetTokens(&pb.TokenPair{AccessToken: "stale", RefreshToken: "refresh-0"})

	const n = 16
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = c.WhoAmI(context.Background())
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, int32(1), f.refreshes.Load())
}

func TestWhoAmI_OtherAuthErrorsDoNotRefresh(t *testing.T) {
	f := &fakeServer{
		access: "access-0", refresh: "refresh-0",
		whoamiErr: status.Error(codes.Unauthenticated, "invalid token"),
	}
	c := newTestClient(t, f)
	c.SetTokens(&pb.TokenPair{AccessToken: "forged", RefreshToken: "refresh-0"})

	_, err := c.WhoAmI(context.Background())
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Zero(t, f.refreshes.Load())
}

func TestWhoAmI_RefreshRejected(t *testing.T) {
	f := &fakeServer{access: "access-0", refresh: "refresh-0"}
	c := newTestClient(t, f)
	c.SetTokens(&pb.TokenPair{AccessToken: "stale", RefreshToken: "revoked"})

	_, err := c.WhoAmI(context.Background())
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestRefreshAndLogout(t *testing.T) {
	f := &fakeServer{access: "access-0", refresh: "refresh-0"}
	c := newTestClient(t, f)
	ctx := context.Background()

	_, err := c.Refresh(ctx)
	assert.ErrorIs(t, err, ErrNotLoggedIn)
	assert.ErrorIs(t, c.Logout(ctx), ErrNotLoggedIn)

	_, err = c.Login(ctx, "a@example.com", []byte("pw"))
	require.NoError(t, err)

	pair, err := c.Refresh(ctx)
	require.NoError(t, err)
	assert.Equal(t, "refresh-b", pair.RefreshToken)

	require.NoError(t, c.Logout(ctx))
	assert.True(t, f.loggedOut.Load())
	assert.Empty(t, c.current().RefreshToken)
}

func TestRegister(t *testing.T) {
	c := newTestClient(t, &fakeServer{})
	ctx := context.Background()

	id, err := c.Register(ctx, &pb.RegisterRequest{Email: "new@example.com", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, "u1", id)

	_, err = c.Register(ctx, &pb.RegisterRequest{Email: "taken@example.com"})
	assert.ErrorIs(t, err, ErrAlreadyExists)

	_, err = c.Register(ctx, &pb.RegisterRequest{})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestMapError(t *testing.T) {
	tests := []struct {
		code codes.Code
		want error
	}{
		{codes.Unauthenticated, ErrUnauthorized},
		{codes.PermissionDenied, ErrUnauthorized},
		{codes.Unavailable, ErrUnavailable},
		{codes.DeadlineExceeded, ErrUnavailable},
		{codes.AlreadyExists, ErrAlreadyExists},
		{codes.InvalidArgument, ErrInvalidInput},
		{codes.ResourceExhausted, ErrRateLimited},
	}
	for _, tt := range tests {
		assert.ErrorIs(t, mapError(status.Error(tt.code, "x")), tt.want, tt.code.String())
	}
	assert.NoError(t, mapError(nil))
	assert.ErrorContains(t, mapError(status.Error(codes.Internal, "x")), "rpc error")
}

func TestUnavailableServer(t *testing.T) {
	c, err := NewGRPCClient("passthrough:///127.0.0.1:1")
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err = c.Login(ctx, "a@example.com", []byte("pw"))
	assert.ErrorIs(t, err, ErrUnavailable)
}
