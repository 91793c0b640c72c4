package signature

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignVerify_RoundTrip(t *testing.T) {
	signer := NewSigner("test-secret")
	fileID := uuid.New()
	userID := uuid.New()
	now := time.Now()

	token := signer.Sign(fileID, userID, now.Add(15*time.Minute))

	gotFile, gotUser, err := signer.Verify(token, now)
	require.NoError(t, err)
	assert.Equal(t, fileID, gotFile)
	assert.Equal(t, userID, gotUser)
}

func TestVerify_RejectsExpiredToken(t *testing.T) {
	signer := NewSigner("test-secret")
	now := time.Now()

	token := signer.Sign(uuid.New(), uuid.New(), now.Add(-time.Minute))

	_, _, err := signer.Verify(token, now)
	assert.ErrorContains(t, err, "expired")
}

func TestVerify_RejectsTamperedToken(t *testing.T) {
	signer := NewSigner("test-secret")
	now := time.Now()
	fileID := uuid.New()

	token := signer.Sign(fileID, uuid.New(), now.Add(time.Minute))

	// Swap the file id for another one, keeping the original signature
	raw, err := base64.URLEncoding.DecodeString(token)
	require.NoError(t, err)
	parts := strings.Split(string(raw), ":")
	parts[0] = uuid.New().String()
	forged := base64.URLEncoding.EncodeToString([]byte(strings.Join(parts, ":")))

	_, _, err = signer.Verify(forged, now)
	assert.ErrorContains(t, err, "invalid signature")
}

func TestVerify_RejectsWrongSecret(t *testing.T) {
	now := time.Now()
	token := NewSigner("secret-a").Sign(uuid.New(), uuid.New(), now.Add(time.Minute))

	_, _, err := NewSigner("secret-b").Verify(token, now)
	assert.Error(t, err)
}

func TestVerify_RejectsGarbage(t *testing.T) {
	signer := NewSigner("test-secret")

	_, _, err := signer.Verify("not-base64!!!", time.Now())
	assert.Error(t, err)

	_, _, err = signer.Verify(base64.URLEncoding.EncodeToString([]byte("a:b")), time.Now())
	assert.Error(t, err)
}
