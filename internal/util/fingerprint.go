package util

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/gin-gonic/gin"
)

// Fingerprint derives a stable pseudo-identity for an anonymous caller from
// the client IP and user agent. The proxy header is preferred over
// X-Forwarded-For; missing fields fall back to "unknown". This is a
// deterrent, not a security boundary: anyone who controls their headers can
// mint fingerprints. Strong identity goes through the session path.
func Fingerprint(c *gin.Context) string {
	ip := c.GetHeader("CF-Connecting-IP")
	if ip == "" {
		ip = c.GetHeader("X-Forwarded-For")
	}
	if ip == "" {
		ip = "unknown"
	}
	userAgent := c.Request.UserAgent()
	if userAgent == "" {
		userAgent = "unknown"
	}

	sum := sha256.Sum256([]byte(ip + ":" + userAgent))
	return hex.EncodeToString(sum[:])
}
