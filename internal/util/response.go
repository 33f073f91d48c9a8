package util

import "github.com/gin-gonic/gin"

// JSON writes a success payload as-is.
func JSON(c *gin.Context, status int, data interface{}) {
	c.JSON(status, data)
}

// Error writes the uniform error envelope. Never include stack traces or
// internal identifiers in msg.
func Error(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{"error": msg})
}
