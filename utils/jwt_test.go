package utils

import (
	"blobvault/config"
	"os"
	"testing"
	"time"
)

func TestMain(m *testing.M) {
	config.InitConfig()
	os.Exit(m.Run())
}

func TestAccessTokenRoundtrip(t *testing.T) {
	token, err := IssueAccessToken("access-1", true, time.Hour)
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}
	claims, err := VerifyAccessToken(token)
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if claims.AccessID != "access-1" {
		t.Fatalf("expect access-1, got %s", claims.AccessID)
	}
	if !claims.Admin {
		t.Fatal("expect the admin flag to round-trip")
	}
	if claims.Nonce == "" {
		t.Fatal("expect a nonce")
	}
}

func TestExpiredTokenRejected(t *testing.T) {
	token, err := IssueAccessToken("access-1", false, -time.Minute)
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}
	if _, err := VerifyAccessToken(token); err == nil {
		t.Fatal("expect expired token to fail verification")
	}
}

func TestTokenKindsNotInterchangeable(t *testing.T) {
	accessToken, err := IssueAccessToken("access-1", false, time.Hour)
	if err != nil {
		t.Fatalf("issue access failed: %v", err)
	}
	uploadToken, err := IssueUploadToken("photos/cat.png", time.Hour)
	if err != nil {
		t.Fatalf("issue upload failed: %v", err)
	}

	if _, err := VerifySignedToken(accessToken); err == nil {
		t.Fatal("access token accepted as signed token")
	}
	if _, err := VerifyUploadToken(accessToken); err == nil {
		t.Fatal("access token accepted as upload token")
	}
	if _, err := VerifyAccessToken(uploadToken); err == nil {
		t.Fatal("upload token accepted as access token")
	}
}

func TestSignedTokenRoundtrip(t *testing.T) {
	token, err := IssueSignedToken(42, time.Hour)
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}
	claims, err := VerifySignedToken(token)
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if claims.ObjectID != 42 {
		t.Fatalf("expect object id 42, got %d", claims.ObjectID)
	}
}

func TestUploadFingerprintStable(t *testing.T) {
	token, err := IssueUploadToken("docs/report.txt", time.Hour)
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}
	claims, err := VerifyUploadToken(token)
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if claims.Fingerprint() != claims.Fingerprint() {
		t.Fatal("fingerprint is not deterministic")
	}

	again, err := VerifyUploadToken(token)
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if claims.Fingerprint() != again.Fingerprint() {
		t.Fatal("same token must map to the same staging fingerprint")
	}

	other, err := IssueUploadToken("docs/other.txt", time.Hour)
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}
	otherClaims, err := VerifyUploadToken(other)
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if claims.Fingerprint() == otherClaims.Fingerprint() {
		t.Fatal("different keys must not collide on fingerprint")
	}
}
