// internal/api/api.go
package api

import (
	"strings"
	"time"

	"github.com/andresuchdata/quotemanager/internal/api/handlers"
	"github.com/andresuchdata/quotemanager/internal/api/middleware"
	"github.com/andresuchdata/quotemanager/internal/metrics"
	"github.com/andresuchdata/quotemanager/internal/service"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type Services struct {
	CatalogService *service.CatalogService
	QuoteService   *service.QuoteService
	Metrics        *metrics.Metrics
}

func NewRouter(services *Services, allowedOrigins []string) *gin.Engine {
	router := gin.New()

	router.Use(middleware.RequestID())
	router.Use(middleware.Logger())
	router.Use(middleware.Recovery())
	if services != nil && services.Metrics != nil {
		router.Use(middleware.Metrics(services.Metrics))
	}

	defaultOrigins := []string{"http://localhost:3000", "http://127.0.0.1:3000"}
	corsConfig := cors.Config{
		AllowOrigins:     defaultOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(allowedOrigins) > 0 {
		normalizedOrigins, allowAll := normalizeAllowedOrigins(allowedOrigins)
		if allowAll {
			corsConfig.AllowOrigins = nil
			corsConfig.AllowOriginFunc = func(origin string) bool { return true }
		} else if len(normalizedOrigins) > 0 {
			corsConfig.AllowOrigins = normalizedOrigins
		}
	}
	router.Use(cors.New(corsConfig))

	apiGroup := router.Group("/api/v1")

	if services == nil {
		return router
	}

	if services.Metrics != nil {
		apiGroup.GET("/metrics", gin.WrapH(services.Metrics.Handler()))
	}

	if services.CatalogService != nil && services.QuoteService != nil {
		catalogHandler := handlers.NewCatalogHandler(services.CatalogService, services.QuoteService.Engine())
		quoteHandler := handlers.NewQuoteHandler(services.QuoteService)

		apiGroup.GET("/health", catalogHandler.Health)

		catalogGroup := apiGroup.Group("/catalog")
		{
			catalogGroup.GET("", catalogHandler.Status)
			catalogGroup.POST("/refresh", catalogHandler.Refresh)
		}

		materialGroup := apiGroup.Group("/materials")
		{
			materialGroup.GET("", catalogHandler.ListMaterials)
			materialGroup.GET("/reorder", catalogHandler.ReorderAlerts)
		}

		productGroup := apiGroup.Group("/products")
		{
			productGroup.GET("", catalogHandler.ListProducts)
			productGroup.GET("/:id/cost", quoteHandler.ProductCost)
			productGroup.GET("/:id/producible", quoteHandler.Producible)
		}

		quoteGroup := apiGroup.Group("/quotes")
		{
			quoteGroup.POST("/cost", quoteHandler.QuoteCost)
			quoteGroup.POST("/shopping-list", quoteHandler.ShoppingList)
		}

		apiGroup.GET("/shopping-list/export", quoteHandler.ExportShoppingList)
		apiGroup.POST("/shopping-list/export", quoteHandler.ExportShoppingList)
	}

	return router
}

func normalizeAllowedOrigins(origins []string) ([]string, bool) {
	var (
		parsed   []string
		allowAll bool
	)
	for _, origin := range origins {
		for _, part := range strings.Split(origin, ",") {
			trimmed := strings.TrimSpace(part)
			if trimmed == "" {
				continue
			}
			if trimmed == "*" {
				allowAll = true
				continue
			}
			parsed = append(parsed, trimmed)
		}
	}
	return parsed, allowAll
}
