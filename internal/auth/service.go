package auth

import (
	"context"
	"crypto/rsa"
	"fmt"
	"strings"

	"clinic-booking/internal/configs"
	"clinic-booking/internal/database"

	"github.com/google/uuid"
)

// Authenticator determines the methods available to users get authenticated.
type Authenticator interface {

	// Authenticate authenticates a user by its credentials and returns a JWT tokens, otherwise an error.
	Authenticate(ctx context.Context, credentials Credentials) (*Tokens, error)
}

// Authorizer determines the methods used to authorize a user to perform some action.
type Authorizer interface {

	// ValidateToken validates the given access token, returning the user associated to it.
	ValidateToken(ctx context.Context, token string) (*User, error)

	// RefreshTokens generates new tokens based on the given refresh token.
	RefreshTokens(ctx context.Context, tokens Tokens) (*Tokens, error)

	// GetAuthenticatedUser gets the authenticated user associated to context.
	GetAuthenticatedUser(ctx context.Context) (User, error)
}

type Service interface {
	Authenticator
	Authorizer
}

type defaultService struct {
	repository Repository
	privateKey rsa.PrivateKey
}

// NewService creates a new auth service.
func NewService(config configs.Config, dbConn database.Connection) Service {
	return &defaultService{
		privateKey: config.PrivateKey(),
		repository: newRepository(dbConn),
	}
}

func (d defaultService) Authenticate(ctx context.Context, credentials Credentials) (*Tokens, error) {
	if err := credentials.Validate(); err != nil {
		return nil, err
	}
	user, err := d.repository.FindUserByEmail(ctx, credentials.Email)
	if err != nil {
		return nil, fmt.Errorf("an unexpected error occurred: %w", err)
	}
	if user == nil {
		return nil, NewUnauthorizedError("unknown user")
	}
	valid, err := d.repository.CheckUserPassword(ctx, credentials.Email, credentials.Password)
	if err != nil {
		return nil, fmt.Errorf("an unexpected error occurred: %w", err)
	}
	if !valid {
		return nil, NewUnauthorizedError("wrong password")
	}
	return GenerateTokens(d.privateKey, *user)
}

// userFromToken verifies the token and loads its subject, which must still be active.
func (d defaultService) userFromToken(ctx context.Context, token, wantType string) (*User, error) {
	claims, err := ParseToken(token, d.privateKey.PublicKey)
	if err != nil {
		return nil, NewUnauthorizedError(err.Error())
	}
	if claims.Type != wantType {
		return nil, NewUnauthorizedError("unexpected token type")
	}
	subject, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, NewUnauthorizedError("invalid subject")
	}
	user, err := d.repository.FindUserByUUID(ctx, subject)
	if err != nil {
		return nil, fmt.Errorf("an unexpected error occurred: %w", err)
	}
	if user == nil {
		return nil, NewUnauthorizedError("unknown user")
	}
	return user, nil
}

func (d defaultService) ValidateToken(ctx context.Context, token string) (*User, error) {
	return d.userFromToken(ctx, strings.TrimPrefix(token, "Bearer "), AccessTokenType)
}

func (d defaultService) RefreshTokens(ctx context.Context, tokens Tokens) (*Tokens, error) {
	if err := tokens.Validate(); err != nil {
		return nil, err
	}
	user, err := d.userFromToken(ctx, tokens.RefreshToken, RefreshTokenType)
	if err != nil {
		return nil, err
	}
	return GenerateTokens(d.privateKey, *user)
}

func (d defaultService) GetAuthenticatedUser(ctx context.Context) (User, error) {
	user, isUser := ctx.Value(UserContextKey).(User)
	if !isUser {
		return User{}, NewUnauthorizedError("no user in context")
	}
	return user, nil
}
