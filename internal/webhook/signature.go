package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// SignatureHeader carries the HMAC of the request body.
const SignatureHeader = "X-Signature-256"

const signaturePrefix = "sha256="

// Sign calculates the header value for body.
func Sign(body []byte, secret string) string {
	hash := hmac.New(sha256.New, []byte(secret))
	hash.Write(body)
	return signaturePrefix + hex.EncodeToString(hash.Sum(nil))
}

// Verify checks a header value produced by Sign.
func Verify(body []byte, secret, signature string) bool {
	if !strings.HasPrefix(signature, signaturePrefix) {
		return false
	}
	actualMAC, err := hex.DecodeString(signature[len(signaturePrefix):])
	if err != nil || len(actualMAC) != sha256.Size {
		return false
	}

	var expectedMAC []byte
	{ // Calculate expected MAC.
		hash := hmac.New(sha256.New, []byte(secret))
		hash.Write(body)
		expectedMAC = hash.Sum(nil)
	}

	return hmac.Equal(actualMAC, expectedMAC)
}
