package proto

import (
	"fmt"
	"time"

	"google.golang.org/protobuf/types/known/structpb"
)

type RegisterRequest struct {
	Email    string
	Password string
	Name     string
	Phone    string
}

type RegisterResponse struct {
	UserID string
}

type LoginRequest struct {
	Email    string
	Password string
}

// TokenPair is returned by Login and Refresh.
type TokenPair struct {
	AccessToken      string
	AccessExpiresAt  time.Time
	RefreshToken     string
	RefreshExpiresAt time.Time
}

type Profile struct {
	UserID string
	Email  string
	Name   string
	Phone  string
}

func (r *RegisterRequest) toStruct() *structpb.Struct {
	return fields("email", r.Email, "password", r.Password, "name", r.Name, "phone", r.Phone)
}

func registerRequestFrom(s *structpb.Struct) *RegisterRequest {
	return &RegisterRequest{
		Email:    str(s, "email"),
		Password: str(s, "password"),
		Name:     str(s, "name"),
		Phone:    str(s, "phone"),
	}
}

func (r *RegisterResponse) toStruct() *structpb.Struct {
	return fields("user_id", r.UserID)
}

func registerResponseFrom(s *structpb.Struct) *RegisterResponse {
	return &RegisterResponse{UserID: str(s, "user_id")}
}

func (r *LoginRequest) toStruct() *structpb.Struct {
	return fields("email", r.Email, "password", r.Password)
}

func loginRequestFrom(s *structpb.Struct) *LoginRequest {
	return &LoginRequest{Email: str(s, "email"), Password: str(s, "password")}
}

func (p *TokenPair) toStruct() *structpb.Struct {
	return fields(
		"access_token", p.AccessToken,
		"access_expires_at", p.AccessExpiresAt.UTC().Format(time.RFC3339),
		"refresh_token", p.RefreshToken,
		"refresh_expires_at", p.RefreshExpiresAt.UTC().Format(time.RFC3339),
	)
}

func tokenPairFrom(s *structpb.Struct) (*TokenPair, error) {
	accessExp, err := timestamp(s, "access_expires_at")
	if err != nil {
		return nil, err
	}
	refreshExp, err := timestamp(s, "refresh_expires_at")
	if err != nil {
		return nil, err
	}
	return &TokenPair{
		AccessToken:      str(s, "access_token"),
		AccessExpiresAt:  accessExp,
		RefreshToken:     str(s, "refresh_token"),
		RefreshExpiresAt: refreshExp,
	}, nil
}

func (p *Profile) toStruct() *structpb.Struct {
	return fields("user_id", p.UserID, "email", p.Email, "name", p.Name, "phone", p.Phone)
}

func profileFrom(s *structpb.Struct) *Profile {
	return &Profile{
		UserID: str(s, "user_id"),
		Email:  str(s, "email"),
		Name:   str(s, "name"),
		Phone:  str(s, "phone"),
	}
}

// fields builds a struct of string values from key, value pairs.
func fields(kv ...string) *structpb.Struct {
	s := &structpb.Struct{Fields: make(map[string]*structpb.Value, len(kv)/2)}
	for i := 0; i+1 < len(kv); i += 2 {
		s.Fields[kv[i]] = structpb.NewStringValue(kv[i+1])
	}
	return s
}

func str(s *structpb.Struct, key string) string {
	return s.GetFields()[key].GetStringValue()
}

func timestamp(s *structpb.Struct, key string) (time.Time, error) {
	raw := str(s, key)
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("decode %s: %w", key, err)
	}
	return t, nil
}
