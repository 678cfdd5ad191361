// Package signature proves that inbound webhook requests originated from the
// expected provider before any handler reads or writes state. Verification is
// pure: callers pass the raw request body exactly as received, since JSON
// re-encoding breaks byte-for-byte signature checks.
package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DefaultClockTolerance bounds how far a timestamped signature may drift from
// the verifier's clock before the request is considered stale.
const DefaultClockTolerance = 300 * time.Second

var (
	ErrMissingSignature    = errors.New("signature header missing")
	ErrBadFormat           = errors.New("signature header malformed")
	ErrStaleTimestamp      = errors.New("signature timestamp outside tolerance")
	ErrMismatch            = errors.New("signature mismatch")
	ErrMisconfiguredSecret = errors.New("signing secret not configured")
)

// VerifyBodyHMAC checks a plain HMAC-SHA256 over the raw body, base64 encoded.
// Used by the payment provider. Fails closed when the secret is absent.
func VerifyBodyHMAC(secret string, header string, body []byte) error {
	if secret == "" {
		return ErrMisconfiguredSecret
	}
	header = strings.TrimSpace(header)
	if header == "" {
		return ErrMissingSignature
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(expected), []byte(header)) {
		return ErrMismatch
	}
	return nil
}

// VerifyTimestampedHMAC checks a "t=<unix>,v1=<hex>" header where the signed
// message is "{t}.{raw_body}" and the digest is lowercase hex HMAC-SHA256.
// Used by the scheduling provider. A zero tolerance falls back to
// DefaultClockTolerance.
func VerifyTimestampedHMAC(secret string, header string, body []byte, now time.Time, tolerance time.Duration) error {
	if secret == "" {
		return ErrMisconfiguredSecret
	}
	header = strings.TrimSpace(header)
	if header == "" {
		return ErrMissingSignature
	}
	if tolerance <= 0 {
		tolerance = DefaultClockTolerance
	}

	timestamp, provided, err := parseTimestampedHeader(header)
	if err != nil {
		return err
	}

	drift := now.Sub(time.Unix(timestamp, 0))
	if drift < 0 {
		drift = -drift
	}
	if drift > tolerance {
		return ErrStaleTimestamp
	}

	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.", timestamp)
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(expected), []byte(provided)) {
		return ErrMismatch
	}
	return nil
}

func parseTimestampedHeader(header string) (int64, string, error) {
	var timestampPart, signaturePart string
	for _, pair := range strings.Split(header, ",") {
		key, value, found := strings.Cut(strings.TrimSpace(pair), "=")
		if !found {
			return 0, "", ErrBadFormat
		}
		switch key {
		case "t":
			timestampPart = value
		case "v1":
			signaturePart = value
		}
	}
	if timestampPart == "" || signaturePart == "" {
		return 0, "", ErrBadFormat
	}
	timestamp, err := strconv.ParseInt(timestampPart, 10, 64)
	if err != nil {
		return 0, "", ErrBadFormat
	}
	return timestamp, strings.ToLower(signaturePart), nil
}
