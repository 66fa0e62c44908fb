package mercadopago

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strconv"
	"time"

	"github.com/BosskingGM/office-gama/internal/core/ports"
)

var _ ports.WebhookValidator = (*WebhookValidator)(nil)

var (
	tsRegex = regexp.MustCompile(`ts=([^,]+)`)
	v1Regex = regexp.MustCompile(`v1=([^,]+)`)
)

// WebhookValidator validates payment confirmation signatures.
type WebhookValidator struct {
	tolerance time.Duration
	now       func() time.Time
}

// NewWebhookValidator creates a validator that rejects signatures older or
// newer than tolerance. A zero tolerance disables the timestamp check.
func NewWebhookValidator(tolerance time.Duration) *WebhookValidator {
	return &WebhookValidator{tolerance: tolerance, now: time.Now}
}

// ValidateSignature validates the x-signature header.
//
// The header contains: ts=<unix seconds>,v1=<signature>
// The signature is hex HMAC-SHA256 of: <ts>.<raw body>
func (v *WebhookValidator) ValidateSignature(xSignature string, payload []byte, secret string) bool {
	if xSignature == "" || secret == "" {
		return false
	}

	ts, hash := parseSignatureHeader(xSignature)
	if ts == "" || hash == "" {
		return false
	}

	if v.tolerance > 0 {
		sec, err := strconv.ParseInt(ts, 10, 64)
		if err != nil {
			return false
		}
		age := v.now().Sub(time.Unix(sec, 0))
		if age > v.tolerance || age < -v.tolerance {
			return false
		}
	}

	expectedHash := calculateHMAC(buildManifest(ts, payload), secret)

	// Compare signatures (constant-time comparison)
	return hmac.Equal([]byte(hash), []byte(expectedHash))
}

// SignPayload produces a header value accepted by ValidateSignature.
func SignPayload(payload []byte, secret string, at time.Time) string {
	ts := strconv.FormatInt(at.Unix(), 10)
	return "ts=" + ts + ",v1=" + calculateHMAC(buildManifest(ts, payload), secret)
}

// parseSignatureHeader extracts ts and v1 values from x-signature header.
func parseSignatureHeader(header string) (ts, hash string) {
	if m := tsRegex.FindStringSubmatch(header); len(m) > 1 {
		ts = m[1]
	}
	if m := v1Regex.FindStringSubmatch(header); len(m) > 1 {
		hash = m[1]
	}
	return ts, hash
}

func buildManifest(ts string, payload []byte) []byte {
	manifest := make([]byte, 0, len(ts)+1+len(payload))
	manifest = append(manifest, ts...)
	manifest = append(manifest, '.')
	return append(manifest, payload...)
}

// calculateHMAC computes HMAC-SHA256 of the manifest.
func calculateHMAC(manifest []byte, secret string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write(manifest)
	return hex.EncodeToString(h.Sum(nil))
}
