package routes

import (
	"payment_gateway/internal/adapter/http/handlers"

	"github.com/gin-gonic/gin"
)

func addPingRoutes(rg *gin.RouterGroup, providers []string) {
	rg.GET("/ping", handlers.Ping(providers))
}
