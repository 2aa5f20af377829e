package utils

import "github.com/gin-gonic/gin"

// RespondWithError aborts the request with a JSON error body.
func RespondWithError(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"error": message})
}

// RespondWithReason is RespondWithError plus a machine-readable reason.
func RespondWithReason(c *gin.Context, status int, reason, message string) {
	c.AbortWithStatusJSON(status, gin.H{"error": message, "reason": reason})
}
