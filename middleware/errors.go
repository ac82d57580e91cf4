package middleware

import "github.com/gin-gonic/gin"

func abortWithError(c *gin.Context, status int, title, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"status":  "error",
		"error":   title,
		"message": message,
	})
}
