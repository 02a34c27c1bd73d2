package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

const (
	// SignatureHeader carries the hex HMAC-SHA256 of the raw webhook body.
	SignatureHeader = "Signature"

	// TestSignature is accepted in place of a real signature when the
	// verifier is built with the test bypass enabled (never in production).
	TestSignature = "esl-test-signature"
)

type SignatureVerifier struct {
	secret          []byte
	allowTestBypass bool
}

func NewSignatureVerifier(secret string, allowTestBypass bool) *SignatureVerifier {
	return &SignatureVerifier{
		secret:          []byte(secret),
		allowTestBypass: allowTestBypass,
	}
}

// Sign returns the signature the gateway would send for body.
func (v *SignatureVerifier) Sign(body []byte) string {
	mac := hmac.New(sha256.New, v.secret)
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func (v *SignatureVerifier) Verify(signature string, body []byte) error {
	signature = strings.TrimSpace(signature)
	if signature == "" {
		return ErrMissingSignature
	}

	if v.allowTestBypass && signature == TestSignature {
		return nil
	}

	if len(v.secret) == 0 {
		return ErrInvalidSignature
	}

	got, err := hex.DecodeString(strings.ToLower(signature))
	if err != nil {
		return ErrInvalidSignature
	}

	mac := hmac.New(sha256.New, v.secret)
	mac.Write(body)
	if !hmac.Equal(got, mac.Sum(nil)) {
		return ErrInvalidSignature
	}
	return nil
}
