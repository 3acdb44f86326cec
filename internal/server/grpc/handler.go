package grpc

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/cashcare/internal/common"
	pb "github.com/dmitrijs2005/cashcare/internal/proto"
	"github.com/dmitrijs2005/cashcare/internal/server/services"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	msgAuthFailed   = "authentication failed"
	msgInvalidToken = "invalid token"
)

// authErrors all collapse to msgAuthFailed on Login, Refresh and Logout.
var authErrors = []error{
	common.ErrInvalidCredentials,
	common.ErrInvalidToken,
	common.ErrRefreshTokenExpired,
	common.ErrTokenReuseDetected,
}

func (s *GRPCServer) Register(ctx context.Context, req *pb.RegisterRequest) (*pb.RegisterResponse, error) {
	user, err := s.auth.Register(ctx, services.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
		Phone:    req.Phone,
	})
	if err != nil {
		return nil, s.toStatus(ctx, "register", err)
	}
	return &pb.RegisterResponse{UserID: user.ID}, nil
}

func (s *GRPCServer) Login(ctx context.Context, req *pb.LoginRequest) (*pb.TokenPair, error) {
	pair, err := s.auth.Login(ctx, req.Email, req.Password)
	if err != nil {
		return nil, s.toStatus(ctx, "login", err)
	}
	return tokenPair(pair), nil
}

func (s *GRPCServer) Refresh(ctx context.Context, refreshToken string) (*pb.TokenPair, error) {
	pair, err := s.auth.Refresh(ctx, refreshToken)
	if err != nil {
		return nil, s.toStatus(ctx, "refresh", err)
	}
	return tokenPair(pair), nil
}

func (s *GRPCServer) Logout(ctx context.Context, refreshToken string) error {
	if err := s.auth.Logout(ctx, refreshToken); err != nil {
		return s.toStatus(ctx, "logout", err)
	}
	return nil
}

func (s *GRPCServer) WhoAmI(ctx context.Context) (*pb.Profile, error) {
	userID, ok := UserIDFromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, msgInvalidToken)
	}
	user, err := s.auth.Profile(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, status.Error(codes.Unauthenticated, msgInvalidToken)
		}
		return nil, s.toStatus(ctx, "whoami", err)
	}
	return &pb.Profile{UserID: user.ID, Email: user.Email, Name: user.Name, Phone: user.Phone}, nil
}

func tokenPair(p *services.TokenPair) *pb.TokenPair {
	return &pb.TokenPair{
		AccessToken:      p.AccessToken,
		AccessExpiresAt:  p.AccessExpiresAt,
		RefreshToken:     p.RefreshToken,
		RefreshExpiresAt: p.RefreshExpiresAt,
	}
}

// toStatus maps a service error to a gRPC status. Authentication failures
// share one message; the precise reason only reaches the log.
func (s *GRPCServer) toStatus(ctx context.Context, op string, err error) error {
	for _, target := range authErrors {
		if errors.Is(err, target) {
			s.logger.Info(ctx, "authentication failed", "op", op, "reason", err)
			return status.Error(codes.Unauthenticated, msgAuthFailed)
		}
	}

	switch {
	case errors.Is(err, common.ErrorValidation):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, common.ErrorAlreadyExists):
		return status.Error(codes.AlreadyExists, "already exists")
	case errors.Is(err, common.ErrorRateLimited):
		return status.Error(codes.ResourceExhausted, "too many attempts")
	}

	s.logger.Error(ctx, "request failed", "op", op, "error", err)
	return status.Error(codes.Internal, "internal error")
}
