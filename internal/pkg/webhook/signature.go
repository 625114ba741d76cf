package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"hash"
	"strconv"
	"strings"
	"time"
)

// Scheme selects how a provider signs its request bodies.
type Scheme string

const (
	// SchemeHexHMAC is a hex HMAC-SHA256 of the raw body.
	SchemeHexHMAC Scheme = "hex-hmac-sha256"
	// SchemeTimestamped is "t=<unix>,v1=<hex>" where v1 signs "<unix>.<body>".
	SchemeTimestamped Scheme = "timestamped-hmac-sha256"
)

// DefaultSignatureTolerance bounds the age of a timestamped signature.
const DefaultSignatureTolerance = 5 * time.Minute

// VerifySignature checks signatureHeader against payload for the given scheme.
// An empty secret never verifies.
func VerifySignature(scheme Scheme, payload []byte, signatureHeader, secret string, now time.Time) bool {
	sig := strings.TrimSpace(signatureHeader)
	secret = strings.TrimSpace(secret)
	if sig == "" || secret == "" {
		return false
	}

	switch scheme {
	case SchemeHexHMAC:
		decoded, err := hex.DecodeString(strings.ToLower(sig))
		if err != nil {
			return false
		}
		return verifyHMAC(payload, decoded, []byte(secret), sha256.New)
	case SchemeTimestamped:
		return verifyTimestamped(payload, sig, secret, now, DefaultSignatureTolerance)
	default:
		return false
	}
}

func verifyTimestamped(payload []byte, header, secret string, now time.Time, tolerance time.Duration) bool {
	var ts string
	var candidates []string
	for _, part := range strings.Split(header, ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		switch k {
		case "t":
			ts = v
		case "v1":
			candidates = append(candidates, v)
		}
	}
	if ts == "" || len(candidates) == 0 {
		return false
	}

	unix, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return false
	}
	age := now.Sub(time.Unix(unix, 0))
	if age < -tolerance || age > tolerance {
		return false
	}

	signed := make([]byte, 0, len(ts)+1+len(payload))
	signed = append(signed, ts...)
	signed = append(signed, '.')
	signed = append(signed, payload...)

	for _, c := range candidates {
		decoded, err := hex.DecodeString(strings.ToLower(c))
		if err != nil {
			continue
		}
		if verifyHMAC(signed, decoded, []byte(secret), sha256.New) {
			return true
		}
	}
	return false
}

func verifyHMAC(payload, expectedSig, secret []byte, hashFunc func() hash.Hash) bool {
	mac := hmac.New(hashFunc, secret)
	mac.Write(payload)
	return hmac.Equal(mac.Sum(nil), expectedSig)
}

// Sign produces a header value for scheme. Used by tests and local tooling.
func Sign(scheme Scheme, payload []byte, secret string, now time.Time) string {
	switch scheme {
	case SchemeTimestamped:
		ts := strconv.FormatInt(now.Unix(), 10)
		mac := hmac.New(sha256.New, []byte(secret))
		mac.Write([]byte(ts + "."))
		mac.Write(payload)
		return "t=" + ts + ",v1=" + hex.EncodeToString(mac.Sum(nil))
	default:
		mac := hmac.New(sha256.New, []byte(secret))
		mac.Write(payload)
		return hex.EncodeToString(mac.Sum(nil))
	}
}
