// Package service implements authentication: credential checks, JWT access
// tokens, and rotating opaque refresh tokens.
package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"karpet_crm_backend/internal/auth/password"
	"karpet_crm_backend/internal/auth/repository"
	"karpet_crm_backend/internal/auth/token"
	"karpet_crm_backend/platform/apperr"
	"karpet_crm_backend/platform/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenExpired       = errors.New("token expired")
	ErrTokenInvalid       = errors.New("token invalid")
)

const accessTokenType = "access"

// TokenPair is an access JWT plus its rotating refresh token.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

type Service struct {
	repo *repository.Repository
	cfg  config.AuthServiceConfig
}

func New(repo *repository.Repository, cfg config.AuthServiceConfig) *Service {
	return &Service{repo: repo, cfg: cfg}
}

// SignIn checks credentials and issues a token pair.
func (s *Service) SignIn(ctx context.Context, email, plainPassword string) (TokenPair, repository.User, error) {
	user, err := s.repo.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return TokenPair{}, repository.User{}, ErrInvalidCredentials
	}

	if err := password.Compare(user.PasswordHash, plainPassword); err != nil {
		return TokenPair{}, repository.User{}, ErrInvalidCredentials
	}

	pair, err := s.issueTokens(ctx, user)
	return pair, user, err
}

// Refresh rotates a refresh token and issues a fresh pair. The presented
// token is revoked whether or not it is still valid.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (TokenPair, repository.User, error) {
	hash := token.HashSHA256(refreshToken)
	userID, expiresAt, err := s.repo.GetRefreshToken(ctx, hash)
	if err != nil {
		return TokenPair{}, repository.User{}, ErrTokenInvalid
	}

	_ = s.repo.RevokeRefreshToken(ctx, hash)
	if time.Now().After(expiresAt) {
		return TokenPair{}, repository.User{}, ErrTokenExpired
	}

	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return TokenPair{}, repository.User{}, ErrTokenInvalid
	}

	pair, err := s.issueTokens(ctx, user)
	return pair, user, err
}

// SignOut revokes a refresh token.
func (s *Service) SignOut(ctx context.Context, refreshToken string) error {
	return s.repo.RevokeRefreshToken(ctx, token.HashSHA256(refreshToken))
}

// ChangePassword verifies the current password, stores the new hash, and
// revokes every refresh token of the user.
func (s *Service) ChangePassword(ctx context.Context, userID uuid.UUID, current, next string) error {
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return apperr.NotFound("user not found")
	}

	if err := password.Compare(user.PasswordHash, current); err != nil {
		return apperr.Unauthorized("current password is incorrect")
	}

	hash, err := password.Hash(next)
	if err != nil {
		return err
	}
	if err := s.repo.UpdatePassword(ctx, userID, hash); err != nil {
		return err
	}

	_ = s.repo.RevokeAllRefreshTokens(ctx, userID)
	return nil
}

// RegisterUserParams creates a new account, admin-only.
type RegisterUserParams struct {
	BranchID *uuid.UUID
	Name     string
	Email    string
	Password string
	Role     string
}

// RegisterUser creates an account with a hashed password.
func (s *Service) RegisterUser(ctx context.Context, params RegisterUserParams) (repository.User, error) {
	hash, err := password.Hash(params.Password)
	if err != nil {
		return repository.User{}, err
	}

	return s.repo.CreateUser(ctx, repository.CreateUserParams{
		BranchID:     params.BranchID,
		Name:         params.Name,
		Email:        strings.ToLower(strings.TrimSpace(params.Email)),
		PasswordHash: hash,
		Role:         params.Role,
	})
}

// ListUsers returns active accounts, optionally scoped to a branch.
func (s *Service) ListUsers(ctx context.Context, branchID *uuid.UUID) ([]repository.User, error) {
	return s.repo.ListUsers(ctx, branchID)
}

func (s *Service) issueTokens(ctx context.Context, user repository.User) (TokenPair, error) {
	accessToken, err := s.signJWT(user)
	if err != nil {
		return TokenPair{}, err
	}

	refreshToken, err := token.GenerateRandomToken(48)
	if err != nil {
		return TokenPair{}, err
	}

	hash := token.HashSHA256(refreshToken)
	expiresAt := time.Now().Add(s.cfg.GetRefreshTokenTTL())
	if err := s.repo.CreateRefreshToken(ctx, user.ID, hash, expiresAt); err != nil {
		return TokenPair{}, err
	}

	return TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

func (s *Service) signJWT(user repository.User) (string, error) {
	claims := jwt.MapClaims{
		"sub":   user.ID.String(),
		"type":  accessTokenType,
		"roles": []string{user.Role},
		"exp":   time.Now().Add(s.cfg.GetAccessTokenTTL()).Unix(),
		"iat":   time.Now().Unix(),
	}
	if user.BranchID != nil {
		claims["branchId"] = user.BranchID.String()
	}

	obj := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return obj.SignedString([]byte(s.cfg.GetJWTAccessSecret()))
}
