package handler

import "github.com/gin-gonic/gin"

// respondError writes the common error envelope. extra fields are merged in.
func respondError(c *gin.Context, status int, title, message string, extra gin.H) {
	body := gin.H{
		"status":  "error",
		"error":   title,
		"message": message,
	}
	for k, v := range extra {
		body[k] = v
	}
	c.AbortWithStatusJSON(status, body)
}

// firstN returns at most n leading elements, never nil.
func firstN[T any](items []T, n int) []T {
	if len(items) > n {
		items = items[:n]
	}
	out := make([]T, len(items))
	copy(out, items)
	return out
}
