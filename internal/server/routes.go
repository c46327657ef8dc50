package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/cors"

	"github.com/gofast/gofast/internal/config"
	"github.com/gofast/gofast/internal/rendezvous"
)

// New builds the HTTP surface of the signaling service.
func New(hub *rendezvous.Hub, cfg *config.ServerConfig) http.Handler {
	gin.SetMode(cfg.GinMode)

	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())

	r.GET("/health", healthCheckHandler)
	r.GET("/stats", statsHandler(hub))
	r.GET("/ws", ServeWs(hub, cfg))

	return cors.New(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet},
	}).Handler(r)
}

func healthCheckHandler(c *gin.Context) {
	c.String(http.StatusOK, "Signaling server is healthy.")
}

// StatsResponse is the body of GET /stats.
type StatsResponse struct {
	Open    int `json:"open"`
	Matched int `json:"matched"`
	Clients int `json:"clients"`
}

func statsHandler(hub *rendezvous.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		s := hub.Registry.Stats()
		c.JSON(http.StatusOK, StatsResponse{
			Open:    s.Open,
			Matched: s.Matched,
			Clients: hub.Clients(),
		})
	}
}

// ServeWs upgrades the request and hands the socket to the hub.
func ServeWs(hub *rendezvous.Hub, cfg *config.ServerConfig) gin.HandlerFunc {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  64 * 1024, // 64 KB
		WriteBufferSize: 64 * 1024, // 64 KB
		CheckOrigin: func(r *http.Request) bool {
			return cfg.AllowsOrigin(r.Header.Get("Origin"))
		},
	}

	return func(c *gin.Context) {
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			slog.Warn("failed to upgrade connection", "addr", c.Request.RemoteAddr, "err", err)
			return
		}

		client := rendezvous.NewClient(hub, conn, cfg.SendBuffer)
		if !hub.Register(client) {
			conn.Close()
			return
		}

		// Start the client's read and write pumps in separate goroutines.
		// These methods will handle the client's lifecycle
		go client.WritePump()
		go client.ReadPump()
	}
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		slog.Debug("http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}
