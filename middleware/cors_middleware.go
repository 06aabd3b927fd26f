package middleware

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"financials/config"
)

func CORS(cfg *config.ConfigManager) gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowOrigins:     cfg.GetConfig().FrontendUrls,
		AllowMethods:     []string{"GET", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	})
}
