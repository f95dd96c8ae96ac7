package api

import (
	"github.com/Lukita-it/buscador-semantico/internal/api/handler"
	"github.com/Lukita-it/buscador-semantico/internal/api/middleware"
	"github.com/Lukita-it/buscador-semantico/internal/logger"
	"github.com/gin-gonic/gin"
)

// SearchLogStore is the search log persistence used by the API.
type SearchLogStore interface {
	handler.SearchLogWriter
	handler.SearchLogReader
}

// Services groups what the routes depend on. Enricher and SearchLogs are
// optional and must be left as untyped nil when absent.
type Services struct {
	Search     handler.Searcher
	Enricher   handler.Enricher
	SearchLogs SearchLogStore
}

// RouterConfig holds HTTP-level settings.
type RouterConfig struct {
	Mode   string
	CORS   middleware.CORSConfig
	Logger *logger.Logger
}

// SetupRouter configures the Gin router with all routes
func SetupRouter(svc *Services, cfg *RouterConfig) *gin.Engine {
	switch cfg.Mode {
	case "release":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}

	log := cfg.Logger
	if log == nil {
		log = logger.GetDefault()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.LoggerMiddleware(log))
	r.Use(middleware.CORS(cfg.CORS))

	healthHandler := handler.NewHealthHandler()
	var searchLogs handler.SearchLogWriter
	if svc.SearchLogs != nil {
		searchLogs = svc.SearchLogs
	}
	searchHandler := handler.NewSearchHandler(svc.Search, svc.Enricher, searchLogs)

	r.GET("/", healthHandler.Root)
	r.GET("/health", healthHandler.Health)
	r.POST("/search", searchHandler.Search)

	if svc.SearchLogs != nil {
		adminHandler := handler.NewAdminHandler(svc.SearchLogs)
		admin := r.Group("/admin")
		{
			admin.GET("/searches", adminHandler.RecentSearches)
		}
	}

	return r
}
