package httpt

import (
	"net/http"
	"slices"

	"salesnotifier/internal/config"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// corsMiddleware answers preflight requests for browser clients.
// A "*" among the origins allows any origin.
func corsMiddleware(cfg config.CORS) gin.HandlerFunc {
	corsCfg := cors.Config{
		AllowMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions,
		},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Accept", _requestIDHeader},
		ExposeHeaders:    []string{"Content-Length", _requestIDHeader},
		AllowCredentials: cfg.AllowCredentials,
		MaxAge:           cfg.MaxAge,
	}

	if slices.Contains(cfg.AllowOrigins, "*") {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.AllowOrigins
	}

	return cors.New(corsCfg)
}
