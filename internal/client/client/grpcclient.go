package client

import (
	"context"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/cashcare/internal/common"
	pb "github.com/dmitrijs2005/cashcare/internal/proto"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

type GRPCClient struct {
	conn   *grpc.ClientConn
	client *pb.AuthServiceClient

	mu       sync.Mutex // guards tokens and onTokens
	refresh  sync.Mutex // serializes rotations
	tokens   pb.TokenPair
	onTokens func(pair *pb.TokenPair)
}

var _ Client = (*GRPCClient)(nil)

// NewGRPCClient connects to endpoint. Extra dial options are appended
// after the defaults, which is how tests plug in a bufconn dialer.
func NewGRPCClient(endpoint string, opts ...grpc.DialOption) (*GRPCClient, error) {
	c := &GRPCClient{}

	opts = append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(c.accessTokenInterceptor),
	}, opts...)

	conn, err := grpc.NewClient(endpoint, opts...)
	if err != nil {
		return nil, err
	}
	c.conn = conn
	c.client = pb.NewAuthServiceClient(conn)
	return c, nil
}

func withAccessToken(ctx context.Context, token string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	md.Set(common.AuthorizationHeaderName, common.BearerPrefix+token)
	return metadata.NewOutgoingContext(ctx, md)
}

// needsAuth lists the methods that carry the access token.
var needsAuth = map[string]bool{
	pb.AuthService_WhoAmI_FullMethodName: true,
}

func (c *GRPCClient) accessTokenInterceptor(
	ctx context.Context,
	method string,
	req, reply any,
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {
	if !needsAuth[method] {
		return invoker(ctx, method, req, reply, cc, opts...)
	}

	access := c.current().AccessToken
	err := invoker(withAccessToken(ctx, access), method, req, reply, cc, opts...)
	if !isExpired(err) {
		return err
	}

	if rerr := c.refreshAfter(ctx, access); rerr != nil {
		return rerr
	}
	return invoker(withAccessToken(ctx, c.current().AccessToken), method, req, reply, cc, opts...)
}

// isExpired reports the server's signal that the access token is stale.
// Other Unauthenticated errors (bad signature, malformed) never trigger a
// refresh.
func isExpired(err error) bool {
	st, ok := status.FromError(err)
	return ok && st.Code() == codes.Unauthenticated && st.Message() == common.ErrTokenExpired.Error()
}

// refreshAfter rotates the refresh token unless another call already did so
// since stale was the access token in use.
func (c *GRPCClient) refreshAfter(ctx context.Context, stale string) error {
	c.refresh.Lock()
	defer c.refresh.Unlock()

	if c.current().AccessToken != stale {
		return nil
	}
	_, err := c.rotate(ctx)
	return err
}

func (c *GRPCClient) rotate(ctx context.Context) (*pb.TokenPair, error) {
	refresh := c.current().RefreshToken
	if refresh == "" {
		return nil, ErrNotLoggedIn
	}
	pair, err := c.client.Refresh(ctx, refresh)
	if err != nil {
		return nil, mapError(err)
	}
	c.SetTokens(pair)
	return pair, nil
}

func (c *GRPCClient) Register(ctx context.Context, req *pb.RegisterRequest) (string, error) {
	resp, err := c.client.Register(ctx, req)
	if err != nil {
		return "", mapError(err)
	}
	return resp.UserID, nil
}

func (c *GRPCClient) Login(ctx context.Context, email string, password []byte) (*pb.TokenPair, error) {
	pair, err := c.client.Login(ctx, &pb.LoginRequest{Email: email, Password: string(password)})
	if err != nil {
		return nil, mapError(err)
	}
	c.SetTokens(pair)
	return pair, nil
}

// Refresh rotates the refresh token explicitly.
func (c *GRPCClient) Refresh(ctx context.Context) (*pb.TokenPair, error) {
	c.refresh.Lock()
	defer c.refresh.Unlock()
	return c.rotate(ctx)
}

// Logout revokes the refresh token on the server and forgets the pair.
// The pair is forgotten even if the server call fails.
func (c *GRPCClient) Logout(ctx context.Context) error {
	refresh := c.current().RefreshToken
	if refresh == "" {
		return ErrNotLoggedIn
	}
	err := c.client.Logout(ctx, refresh)
	c.SetTokens(&pb.TokenPair{})
	return mapError(err)
}

func (c *GRPCClient) WhoAmI(ctx context.Context) (*pb.Profile, error) {
	if t := c.current(); t.AccessToken == "" && t.RefreshToken == "" {
		return nil, ErrNotLoggedIn
	}
	p, err := c.client.WhoAmI(ctx)
	if err != nil {
		return nil, mapError(err)
	}
	return p, nil
}

func (c *GRPCClient) SetTokens(pair *pb.TokenPair) {
	c.mu.Lock()
	c.tokens = *pair
	fn := c.onTokens
	c.mu.Unlock()

	if fn != nil {
		snapshot := *pair
		fn(&snapshot)
	}
}

func (c *GRPCClient) OnTokens(fn func(pair *pb.TokenPair)) {
	c.mu.Lock()
	c.onTokens = fn
	c.mu.Unlock()
}

func (c *GRPCClient) current() pb.TokenPair {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tokens
}

func (c *GRPCClient) Close() error {
	return c.conn.Close()
}

func mapError(err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	switch st.Code() {
	case codes.Unauthenticated, codes.PermissionDenied:
		return ErrUnauthorized
	case codes.Unavailable, codes.DeadlineExceeded:
		return ErrUnavailable
	case codes.AlreadyExists:
		return ErrAlreadyExists
	case codes.InvalidArgument:
		return fmt.Errorf("%w: %s", ErrInvalidInput, st.Message())
	case codes.ResourceExhausted:
		return ErrRateLimited
	default:
		return fmt.Errorf("rpc error: %w", err)
	}
}
