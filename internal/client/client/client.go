package client

import (
	"context"

	pb "github.com/dmitrijs2005/cashcare/internal/proto"
)

// Client is the API the CLI services use.
type Client interface {
	Register(ctx context.Context, req *pb.RegisterRequest) (string, error)
	Login(ctx context.Context, email string, password []byte) (*pb.TokenPair, error)
	Refresh(ctx context.Context) (*pb.TokenPair, error)
	Logout(ctx context.Context) error
	WhoAmI(ctx context.Context) (*pb.Profile, error)

	// SetTokens installs a previously saved pair.
	SetTokens(pair *pb.TokenPair)
	// OnTokens registers fn to be called whenever the pair changes.
	OnTokens(fn func(pair *pb.TokenPair))
	Close() error
}
