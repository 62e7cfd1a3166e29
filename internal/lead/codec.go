package lead

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"strings"

	"github.com/rotisserie/eris"
)

var (
	// ErrNotConfigured means the shared signing secret is unset. Callers
	// treat this as service-unavailable, not as an authentication failure.
	ErrNotConfigured = eris.New("lead: signing secret not configured")

	// ErrBadSignature means the supplied signature does not match.
	ErrBadSignature = eris.New("lead: signature mismatch")

	// ErrInvalidPayload covers every malformed-token shape: bad base64, bad
	// JSON, wrong segment count, failed decryption, missing required fields.
	// Decode failures are deliberately indistinguishable to the caller.
	ErrInvalidPayload = eris.New("lead: invalid payload")
)

// Codec signs, verifies and decodes lead tokens with a shared secret.
type Codec struct {
	secret string
}

// NewCodec returns a Codec using the given shared secret. An empty secret is
// allowed at construction; operations fail closed with ErrNotConfigured.
func NewCodec(secret string) *Codec {
	return &Codec{secret: secret}
}

// Sign computes the hex HMAC-SHA256 of token+timestamp.
func (c *Codec) Sign(token, timestamp string) (string, error) {
	if c.secret == "" {
		return "", ErrNotConfigured
	}
	mac := hmac.New(sha256.New, []byte(c.secret))
	mac.Write([]byte(token + timestamp))
	return hex.EncodeToString(mac.Sum(nil)), nil
}

// Verify checks sig against the expected HMAC for token+timestamp. It must be
// called before Decode or Open so no unauthenticated input is ever parsed.
func (c *Codec) Verify(token, timestamp, sig string) error {
	want, err := c.Sign(token, timestamp)
	if err != nil {
		return err
	}
	if sig == "" || !hmac.Equal([]byte(want), []byte(sig)) {
		return ErrBadSignature
	}
	return nil
}

// Decode parses a plaintext token: base64url-encoded JSON. The submission
// must carry a non-empty email and name.
func (c *Codec) Decode(token string) (*Submission, error) {
	raw, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(token, "="))
	if err != nil {
		return nil, ErrInvalidPayload
	}
	var sub Submission
	if err := json.Unmarshal(raw, &sub); err != nil {
		return nil, ErrInvalidPayload
	}
	if strings.TrimSpace(sub.Email) == "" || strings.TrimSpace(sub.Name) == "" {
		return nil, ErrInvalidPayload
	}
	return &sub, nil
}

// Encode produces a plaintext token for sub.
func (c *Codec) Encode(sub *Submission) (string, error) {
	raw, err := json.Marshal(sub)
	if err != nil {
		return "", eris.Wrap(err, "lead: encode submission")
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}
