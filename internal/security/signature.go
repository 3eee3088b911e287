package security

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"strings"
)

func ComputeBodyHash(body []byte) string {
	sum := sha256.Sum256(body)
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// ComputeSignature signs a queued job so the worker only executes jobs that
// were produced by a console sharing the signing secret.
func ComputeSignature(secret string, jobID string, jobType string, brain string, body []byte) string {
	data := strings.Join([]string{
		jobID,
		strings.ToLower(jobType),
		brain,
		ComputeBodyHash(body),
	}, "\n")

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(data))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

func ValidateSignature(secret string, signature string, jobID string, jobType string, brain string, body []byte) bool {
	expected := ComputeSignature(secret, jobID, jobType, brain, body)
	return hmac.Equal([]byte(signature), []byte(expected))
}
