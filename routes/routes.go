package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"financials/client"
	"financials/config"
	"financials/controller"
	"financials/middleware"
	"financials/service"
	"financials/storage"
)

func SetupRouter(cfg *config.ConfigManager) *gin.Engine {
	r := gin.New()

	r.Use(middleware.RecoveryMiddleware)
	r.Use(middleware.ZerologMiddleware())
	r.Use(middleware.CORS(cfg))
	r.Use(middleware.RateLimiter(cfg))

	// --- 1. Clients ---
	baseClient := client.NewBaseClient(cfg.GetConfig())

	store, err := storage.NewStore(cfg.GetConfig().CacheDir)
	if err != nil {
		log.Fatal().Err(err).Msg("could not create cache directory")
	}

	// --- 2. Services (Dependency Injection) ---
	yahooSvc := service.NewYahooService(cfg, baseClient, store)
	googleSvc := service.NewGoogleService(cfg, baseClient, store)
	ftSvc := service.NewFTService(cfg, baseClient, store)
	coinbaseSvc := service.NewCoinbaseService(cfg, baseClient, store)

	financialsSvc := service.NewFinancialsService(yahooSvc, googleSvc, ftSvc, coinbaseSvc)

	// --- 3. Routes & Controllers ---
	api := r.Group("/api")
	{
		// Health Check
		controller.NewHealthController().RegisterRoutes(api)

		// Quote Endpoints
		controller.NewFinancialsController(financialsSvc).RegisterRoutes(api)
	}

	return r
}
