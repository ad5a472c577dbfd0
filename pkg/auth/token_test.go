package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/lromeroa/grocerly-backend/pkg/config"
	"github.com/lromeroa/grocerly-backend/pkg/enums"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "test-secret",
		Issuer:            "grocerly",
		ExpirationMinutes: 60,
	}
}

func TestMintAndParseAccessToken(t *testing.T) {
	actorID := uuid.New()
	token, err := MintAccessToken(testJWTConfig(), time.Now(), AccessTokenPayload{
		ActorID:   actorID,
		ActorType: enums.ActorTypeCustomer,
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}

	claims, err := ParseAccessToken(testJWTConfig(), token)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if claims.ActorID != actorID {
		t.Fatalf("unexpected actor id %s", claims.ActorID)
	}
	if claims.ActorType != enums.ActorTypeCustomer {
		t.Fatalf("unexpected actor type %s", claims.ActorType)
	}
	if claims.ID == "" {
		t.Fatal("expected a generated jti")
	}
}

func TestMintAccessTokenRejectsInvalidActorType(t *testing.T) {
	_, err := MintAccessToken(testJWTConfig(), time.Now(), AccessTokenPayload{
		ActorID:   uuid.New(),
		ActorType: "robot",
	})
	if err == nil {
		t.Fatal("expected invalid actor type to error")
	}
}

func TestParseAccessTokenRejectsWrongIssuer(t *testing.T) {
	cfg := testJWTConfig()
	token, err := MintAccessToken(cfg, time.Now(), AccessTokenPayload{
		ActorID:   uuid.New(),
		ActorType: enums.ActorTypeAdmin,
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}

	other := cfg
	other.Issuer = "someone-else"
	if _, err := ParseAccessToken(other, token); err == nil {
		t.Fatal("expected issuer mismatch to error")
	}
}
