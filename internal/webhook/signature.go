package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

const (
	SignatureHeader = "X-Datagen-Signature"
	TimestampHeader = "X-Datagen-Timestamp"
	EventHeader     = "X-Datagen-Event"

	// DefaultMaxSkew bounds how old a signed timestamp may be before the
	// signature is rejected as a possible replay.
	DefaultMaxSkew = 5 * time.Minute
)

// Sign computes the hex HMAC-SHA256 of "<timestamp>.<payload>" with the
// shared secret. Binding the timestamp into the signed material prevents a
// captured delivery from being replayed later.
func Sign(secret string, timestamp int64, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.", timestamp)
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify recomputes the signature and compares it in constant time.
// A timestamp outside maxSkew of now fails verification.
func Verify(secret string, timestamp int64, payload []byte, signature string, maxSkew time.Duration) bool {
	ts := time.Unix(timestamp, 0)
	skew := time.Since(ts)
	if skew < 0 {
		skew = -skew
	}
	if skew > maxSkew {
		return false
	}

	expected := Sign(secret, timestamp, payload)
	return hmac.Equal([]byte(expected), []byte(signature))
}
