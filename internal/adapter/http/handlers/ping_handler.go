package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Ping reports liveness along with the registered payment providers.
func Ping(providers []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong", "providers": providers})
	}
}
