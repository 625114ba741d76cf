package webhook

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestVerifySignature_HexHMAC(t *testing.T) {
	payload := []byte(`{"id":"evt_1"}`)
	now := time.Now()
	sig := Sign(SchemeHexHMAC, payload, "top-secret", now)

	assert.True(t, VerifySignature(SchemeHexHMAC, payload, sig, "top-secret", now))
	assert.True(t, VerifySignature(SchemeHexHMAC, payload, " "+sig+" ", "top-secret", now), "surrounding whitespace is ignored")
	assert.False(t, VerifySignature(SchemeHexHMAC, payload, sig, "other-secret", now))
	assert.False(t, VerifySignature(SchemeHexHMAC, []byte(`{"id":"evt_2"}`), sig, "top-secret", now))
	assert.False(t, VerifySignature(SchemeHexHMAC, payload, "not-hex", "top-secret", now))
	assert.False(t, VerifySignature(SchemeHexHMAC, payload, "", "top-secret", now))
}

func TestVerifySignature_EmptySecretNeverVerifies(t *testing.T) {
	payload := []byte(`{}`)
	sig := Sign(SchemeHexHMAC, payload, "", time.Now())
	assert.False(t, VerifySignature(SchemeHexHMAC, payload, sig, "", time.Now()))
}

func TestVerifySignature_Timestamped(t *testing.T) {
	payload := []byte(`{"id":"evt_1","type":"subscription.activated"}`)
	signedAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	sig := Sign(SchemeTimestamped, payload, "whsec", signedAt)

	assert.True(t, VerifySignature(SchemeTimestamped, payload, sig, "whsec", signedAt.Add(time.Minute)))
	assert.False(t, VerifySignature(SchemeTimestamped, payload, sig, "whsec", signedAt.Add(10*time.Minute)), "stale signature")
	assert.False(t, VerifySignature(SchemeTimestamped, payload, sig, "whsec", signedAt.Add(-10*time.Minute)), "future signature")
	assert.False(t, VerifySignature(SchemeTimestamped, payload, "v1=abcdef", "whsec", signedAt), "missing timestamp")
	assert.False(t, VerifySignature(SchemeHexHMAC, payload, sig, "whsec", signedAt), "scheme mismatch")
}

func TestVerifySignature_TimestampedAcceptsAnyV1(t *testing.T) {
	payload := []byte(`{"id":"evt_1"}`)
	now := time.Unix(1_700_000_000, 0)
	valid := Sign(SchemeTimestamped, payload, "whsec", now)

	// Providers send one v1 per active secret during rotation.
	header := valid + ",v1=00ff"
	assert.True(t, VerifySignature(SchemeTimestamped, payload, header, "whsec", now))
}

func TestVerifySignature_UnknownScheme(t *testing.T) {
	assert.False(t, VerifySignature(Scheme("md5"), []byte("x"), "abc", "secret", time.Now()))
}
