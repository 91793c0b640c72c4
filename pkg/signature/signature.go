// Package signature issues and verifies time-boxed download tokens.
// A token is the base64url encoding of "fileId:userId:expiryMillis:sig"
// where sig is the hex HMAC-SHA256 of the first three fields. The
// transport layer exchanges a valid token for bytes; this package only
// covers signing and verification.
package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Signer creates and verifies signed download tokens
type Signer struct {
	secret []byte
}

// NewSigner creates a signer with the given HMAC secret
func NewSigner(secret string) *Signer {
	return &Signer{secret: []byte(secret)}
}

// Sign issues a token for fileID/userID valid until expiresAt
func (s *Signer) Sign(fileID, userID uuid.UUID, expiresAt time.Time) string {
	payload := fmt.Sprintf("%s:%s:%d", fileID, userID, expiresAt.UnixMilli())
	token := payload + ":" + s.mac(payload)
	return base64.URLEncoding.EncodeToString([]byte(token))
}

// Verify checks a token's signature and expiry, returning the ids it carries
func (s *Signer) Verify(token string, now time.Time) (fileID, userID uuid.UUID, err error) {
	raw, err := base64.URLEncoding.DecodeString(token)
	if err != nil {
		return uuid.Nil, uuid.Nil, fmt.Errorf("malformed token: %w", err)
	}

	parts := strings.Split(string(raw), ":")
	if len(parts) != 4 {
		return uuid.Nil, uuid.Nil, fmt.Errorf("malformed token")
	}

	payload := strings.Join(parts[:3], ":")
	if !hmac.Equal([]byte(s.mac(payload)), []byte(parts[3])) {
		return uuid.Nil, uuid.Nil, fmt.Errorf("invalid signature")
	}

	expiryMillis, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		return uuid.Nil, uuid.Nil, fmt.Errorf("malformed expiry: %w", err)
	}
	if now.After(time.UnixMilli(expiryMillis)) {
		return uuid.Nil, uuid.Nil, fmt.Errorf("token expired")
	}

	fileID, err = uuid.Parse(parts[0])
	if err != nil {
		return uuid.Nil, uuid.Nil, fmt.Errorf("malformed file id: %w", err)
	}
	userID, err = uuid.Parse(parts[1])
	if err != nil {
		return uuid.Nil, uuid.Nil, fmt.Errorf("malformed user id: %w", err)
	}
	return fileID, userID, nil
}

func (s *Signer) mac(payload string) string {
	h := hmac.New(sha256.New, s.secret)
	h.Write([]byte(payload))
	return hex.EncodeToString(h.Sum(nil))
}
