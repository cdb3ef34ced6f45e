package service

import (
	"testing"
	"time"

	"karpet_crm_backend/internal/auth/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type stubConfig struct{}

func (stubConfig) GetJWTAccessSecret() string        { return "test-access-secret" }
func (stubConfig) GetJWTRefreshSecret() string       { return "test-refresh-secret" }
func (stubConfig) GetAccessTokenTTL() time.Duration  { return 15 * time.Minute }
func (stubConfig) GetRefreshTokenTTL() time.Duration { return 30 * 24 * time.Hour }

func TestSignJWT_ClaimsAndSignature(t *testing.T) {
	svc := New(nil, stubConfig{})
	branchID := uuid.New()
	user := repository.User{
		ID:       uuid.New(),
		BranchID: &branchID,
		Role:     "sales",
	}

	signed, err := svc.signJWT(user)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	parsed, err := jwt.Parse(signed, func(*jwt.Token) (interface{}, error) {
		return []byte("test-access-secret"), nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		t.Fatalf("token must verify against the access secret: %v", err)
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		t.Fatal("expected map claims")
	}
	if claims["sub"] != user.ID.String() {
		t.Fatalf("expected sub %s, got %v", user.ID, claims["sub"])
	}
	if claims["type"] != "access" {
		t.Fatalf("expected access token type, got %v", claims["type"])
	}
	if claims["branchId"] != branchID.String() {
		t.Fatalf("expected branchId claim %s, got %v", branchID, claims["branchId"])
	}
	roles, ok := claims["roles"].([]interface{})
	if !ok || len(roles) != 1 || roles[0] != "sales" {
		t.Fatalf("expected roles [sales], got %v", claims["roles"])
	}
}

func TestSignJWT_AdminWithoutBranchOmitsBranchClaim(t *testing.T) {
	svc := New(nil, stubConfig{})
	user := repository.User{ID: uuid.New(), Role: "admin"}

	signed, err := svc.signJWT(user)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	parsed, err := jwt.Parse(signed, func(*jwt.Token) (interface{}, error) {
		return []byte("test-access-secret"), nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	claims := parsed.Claims.(jwt.MapClaims)
	if _, ok := claims["branchId"]; ok {
		t.Fatal("branchless user must not carry a branchId claim")
	}
}
