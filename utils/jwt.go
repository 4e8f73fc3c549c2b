package utils

import (
	"blobvault/config"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// Token kinds. Every capability token carries its kind so an upload token can
// never be replayed as an access token and vice versa.
const (
	TokenKindAccess = "access"
	TokenKindSigned = "signed"
	TokenKindUpload = "upload"
)

var errInvalidToken = errors.New("invalid token")

type AccessClaims struct {
	Kind     string `json:"knd"`
	Nonce    string `json:"nonce"`
	AccessID string `json:"access_id"`
	// Admin is informational; authorization re-fetches the principal row.
	Admin bool `json:"admin"`
	jwt.RegisteredClaims
}

type SignedClaims struct {
	Kind     string `json:"knd"`
	Nonce    string `json:"nonce"`
	ObjectID uint64 `json:"object_id"`
	jwt.RegisteredClaims
}

type UploadClaims struct {
	Kind  string `json:"knd"`
	Nonce string `json:"nonce"`
	Key   string `json:"key"`
	jwt.RegisteredClaims
}

// Fingerprint identifies the upload session's staging directory. The same
// issued token always yields the same fingerprint; timestamps are hashed
// big-endian so the value does not depend on the host architecture.
func (c *UploadClaims) Fingerprint() string {
	hasher := sha256.New()
	var buf [8]byte
	if c.ExpiresAt != nil {
		binary.BigEndian.PutUint64(buf[:], uint64(c.ExpiresAt.Unix()))
		hasher.Write(buf[:])
	}
	if c.IssuedAt != nil {
		binary.BigEndian.PutUint64(buf[:], uint64(c.IssuedAt.Unix()))
		hasher.Write(buf[:])
	}
	hasher.Write([]byte(c.Issuer))
	hasher.Write([]byte(c.Key))
	return hex.EncodeToString(hasher.Sum(nil))
}

func registeredClaims(ttl time.Duration) jwt.RegisteredClaims {
	now := time.Now()
	return jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		IssuedAt:  jwt.NewNumericDate(now),
		Issuer:    config.AppConfig.JWTIssuer,
	}
}

func signToken(claims jwt.Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(config.AppConfig.JWTSecret))
}

// IssueAccessToken creates a bearer token for a validated principal.
func IssueAccessToken(accessID string, admin bool, ttl time.Duration) (string, error) {
	return signToken(&AccessClaims{
		Kind:             TokenKindAccess,
		Nonce:            RandomSecret(64),
		AccessID:         accessID,
		Admin:            admin,
		RegisteredClaims: registeredClaims(ttl),
	})
}

// IssueSignedToken creates a download token bound to one object id.
func IssueSignedToken(objectID uint64, ttl time.Duration) (string, error) {
	return signToken(&SignedClaims{
		Kind:             TokenKindSigned,
		Nonce:            RandomSecret(64),
		ObjectID:         objectID,
		RegisteredClaims: registeredClaims(ttl),
	})
}

// IssueUploadToken creates an upload-session token for a destination key.
func IssueUploadToken(key string, ttl time.Duration) (string, error) {
	return signToken(&UploadClaims{
		Kind:             TokenKindUpload,
		Nonce:            RandomSecret(64),
		Key:              key,
		RegisteredClaims: registeredClaims(ttl),
	})
}

// parseClaims runs the shared signature+expiry verification step.
func parseClaims(tokenString string, claims jwt.Claims) error {
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errInvalidToken
		}
		return []byte(config.AppConfig.JWTSecret), nil
	})
	if err != nil {
		return err
	}
	if !token.Valid {
		return errInvalidToken
	}
	return nil
}

// VerifyAccessToken parses and validates an access token.
func VerifyAccessToken(tokenString string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if err := parseClaims(tokenString, claims); err != nil {
		return nil, err
	}
	if claims.Kind != TokenKindAccess {
		return nil, errInvalidToken
	}
	return claims, nil
}

// VerifySignedToken parses and validates a signed-download token.
func VerifySignedToken(tokenString string) (*SignedClaims, error) {
	claims := &SignedClaims{}
	if err := parseClaims(tokenString, claims); err != nil {
		return nil, err
	}
	if claims.Kind != TokenKindSigned {
		return nil, errInvalidToken
	}
	return claims, nil
}

// VerifyUploadToken parses and validates an upload-session token.
func VerifyUploadToken(tokenString string) (*UploadClaims, error) {
	claims := &UploadClaims{}
	if err := parseClaims(tokenString, claims); err != nil {
		return nil, err
	}
	if claims.Kind != TokenKindUpload {
		return nil, errInvalidToken
	}
	return claims, nil
}
