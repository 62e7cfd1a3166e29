package lead

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"strings"

	"github.com/rotisserie/eris"
)

// sealedVersion is the only accepted sealed-token version. Unknown versions
// are rejected as ErrInvalidPayload.
const sealedVersion = "v1"

// IsSealed reports whether token uses the encrypted format
// "v1.<iv>.<ciphertext>.<tag>".
func IsSealed(token string) bool {
	return strings.HasPrefix(token, sealedVersion+".")
}

// key derives the AES-256 key from the shared secret via a one-way digest.
func (c *Codec) key() []byte {
	sum := sha256.Sum256([]byte(c.secret))
	return sum[:]
}

// Seal encrypts sub into a sealed token. The segments (version, IV,
// ciphertext, GCM tag) are each base64url-encoded and joined with dots.
func (c *Codec) Seal(sub *Submission) (string, error) {
	if c.secret == "" {
		return "", ErrNotConfigured
	}
	raw, err := json.Marshal(sub)
	if err != nil {
		return "", eris.Wrap(err, "lead: marshal submission")
	}

	block, err := aes.NewCipher(c.key())
	if err != nil {
		return "", eris.Wrap(err, "lead: init cipher")
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", eris.Wrap(err, "lead: init gcm")
	}

	iv := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(iv); err != nil {
		return "", eris.Wrap(err, "lead: generate iv")
	}

	sealed := gcm.Seal(nil, iv, raw, nil)
	tagAt := len(sealed) - gcm.Overhead()
	enc := base64.RawURLEncoding

	return strings.Join([]string{
		sealedVersion,
		enc.EncodeToString(iv),
		enc.EncodeToString(sealed[:tagAt]),
		enc.EncodeToString(sealed[tagAt:]),
	}, "."), nil
}

// Open decrypts a sealed token and applies the same required-field check as
// Decode. Every malformed shape, including an auth-tag mismatch, yields
// ErrInvalidPayload.
func (c *Codec) Open(token string) (*Submission, error) {
	if c.secret == "" {
		return nil, ErrNotConfigured
	}

	parts := strings.Split(token, ".")
	if len(parts) != 4 || parts[0] != sealedVersion {
		return nil, ErrInvalidPayload
	}

	enc := base64.RawURLEncoding
	iv, err := enc.DecodeString(parts[1])
	if err != nil {
		return nil, ErrInvalidPayload
	}
	ciphertext, err := enc.DecodeString(parts[2])
	if err != nil {
		return nil, ErrInvalidPayload
	}
	tag, err := enc.DecodeString(parts[3])
	if err != nil {
		return nil, ErrInvalidPayload
	}

	block, err := aes.NewCipher(c.key())
	if err != nil {
		return nil, eris.Wrap(err, "lead: init cipher")
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, eris.Wrap(err, "lead: init gcm")
	}
	if len(iv) != gcm.NonceSize() || len(tag) != gcm.Overhead() {
		return nil, ErrInvalidPayload
	}

	raw, err := gcm.Open(nil, iv, append(ciphertext, tag...), nil)
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
