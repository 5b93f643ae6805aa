package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/gossips-social/gossips-hub/internal/auth"
	"github.com/gossips-social/gossips-hub/internal/config"
	"github.com/gossips-social/gossips-hub/internal/hub"
	"github.com/gossips-social/gossips-hub/internal/store"
)

// NewServer builds the HTTP server: REST routes plus the realtime
// gateway endpoint.
func NewServer(h *hub.Hub, authService *auth.Service, st store.Store, cfg *config.Config, logger *zerolog.Logger) *stdhttp.Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery(), LoggerMiddleware(logger))

	router.GET("/health", func(c *gin.Context) {
		c.String(stdhttp.StatusOK, "ok")
	})

	apiHandlers := NewAPIHandlers(authService, logger)
	messageHandlers := NewMessageHandlers(st, logger)
	followHandlers := NewFollowHandlers(h, st, logger)

	api := router.Group("/api")
	api.POST("/register", apiHandlers.Register)
	api.POST("/login", apiHandlers.Login)

	authed := api.Group("", AuthMiddleware(authService, logger))
	authed.GET("/conversations", messageHandlers.ListConversations)
	authed.GET("/messages/:userID", messageHandlers.ListMessages)
	authed.POST("/follow/:userID", followHandlers.Follow)
	authed.POST("/follow/:userID/accept", followHandlers.Accept)
	authed.DELETE("/follow/:userID", followHandlers.Unfollow)

	router.GET("/ws", gin.WrapH(NewWSHandler(h, authService, logger)))

	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}
