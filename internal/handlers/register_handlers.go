package handlers

import (
	"github.com/SscSPs/recon_engine/cmd/docs"
	portssvc "github.com/SscSPs/recon_engine/internal/core/ports/services"
	"github.com/SscSPs/recon_engine/internal/middleware"
	"github.com/SscSPs/recon_engine/internal/platform/config"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"github.com/ulule/limiter/v3"
)

// RegisterRoutes sets up all application routes, injecting dependencies using interfaces.
// lim may be nil to disable rate limiting.
func RegisterRoutes(
	r *gin.Engine,
	cfg *config.Config,
	services *portssvc.ServiceContainer,
	lim *limiter.Limiter,
) {
	// Add health check route
	r.GET("/health", getHealth)

	setupAPIV1Routes(r, services, lim)

	// Swagger routes (typically public or conditionally available)
	setupSwaggerRoutes(r, cfg)
}

// setupAPIV1Routes configures the /api/v1 group and delegates to specific entity route registrations
func setupAPIV1Routes(
	r *gin.Engine,
	service *portssvc.ServiceContainer,
	lim *limiter.Limiter,
) {
	v1 := r.Group("/api/v1")
	if lim != nil {
		v1.Use(middleware.RateLimit(lim))
	}

	RegisterReconciliationRoutes(v1, service.Reconciliation)
	if service.ReferenceRate != nil {
		RegisterReferenceRateRoutes(v1, service.ReferenceRate)
	}
}

// setupSwaggerRoutes configures the swagger documentation routes
func setupSwaggerRoutes(r *gin.Engine, cfg *config.Config) {
	if cfg.IsProduction {
		//no swagger in prod
		return
	}
	docs.SwaggerInfo.BasePath = "/api/v1"
	swagger := r.Group("/swagger")
	swagger.GET("/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
}
