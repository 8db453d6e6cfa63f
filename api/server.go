package api

import (
	"net/http"

	"github.com/aurios-ai/aurios/auth"
	"github.com/aurios-ai/aurios/internal/slogging"
	"github.com/aurios-ai/aurios/ws"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"
)

// Server wires the HTTP surface: auth, CRUD stores and the realtime
// registry.
type Server struct {
	authService *auth.Service
	registry    *ws.Registry
	logger      *slogging.Logger

	tenants       *TenantStore
	users         *UserStore
	agents        *AgentStore
	conversations *ConversationStore

	upgrader websocket.Upgrader
}

// NewServer builds a server over the given database, auth service and
// connection registry.
func NewServer(db *gorm.DB, authService *auth.Service, registry *ws.Registry) *Server {
	return &Server{
		authService:   authService,
		registry:      registry,
		logger:        slogging.Get(),
		tenants:       NewTenantStore(db),
		users:         NewUserStore(db),
		agents:        NewAgentStore(db),
		conversations: NewConversationStore(db),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// Conversations exposes the conversation store so the boot path can hand
// it to the realtime registry as its MessageSink.
func (s *Server) Conversations() *ConversationStore {
	return s.conversations
}

// RegisterRoutes mounts every endpoint on the router.
func (s *Server) RegisterRoutes(r *gin.Engine) {
	r.GET("/healthz", s.GetHealthz)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.POST("/auth/login", s.PostLogin)

	authorized := r.Group("/", auth.Middleware(s.authService))
	{
		authorized.POST("/auth/logout", s.PostLogout)
		authorized.GET("/auth/me", s.GetMe)

		authorized.GET("/ws", s.HandleWebSocket)

		apiGroup := authorized.Group("/api")
		{
			apiGroup.GET("/agents", s.ListAgents)
			apiGroup.GET("/agents/:id", s.GetAgent)
			apiGroup.POST("/agents", auth.RequireAdmin(), s.CreateAgent)
			apiGroup.PUT("/agents/:id", auth.RequireAdmin(), s.UpdateAgent)
			apiGroup.DELETE("/agents/:id", auth.RequireAdmin(), s.DeleteAgent)

			apiGroup.GET("/conversations", s.ListConversations)
			apiGroup.POST("/conversations", s.CreateConversation)
			apiGroup.GET("/conversations/:id", s.GetConversation)
			apiGroup.DELETE("/conversations/:id", s.DeleteConversation)
			apiGroup.GET("/conversations/:id/messages", s.ListConversationMessages)
		}

		admin := authorized.Group("/admin", auth.RequireAdmin())
		{
			admin.GET("/tenants", s.ListTenants)
			admin.POST("/tenants", s.CreateTenant)
			admin.GET("/tenants/:id", s.GetTenant)
			admin.DELETE("/tenants/:id", s.DeleteTenant)

			admin.GET("/users", s.ListUsers)
			admin.POST("/users", s.CreateUser)
			admin.GET("/users/:id", s.GetUser)
			admin.PUT("/users/:id", s.UpdateUser)
			admin.DELETE("/users/:id", s.DeleteUser)

			admin.GET("/connections", s.GetConnectionStats)
		}
	}
}

// GetHealthz reports process liveness.
func (s *Server) GetHealthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// GetConnectionStats reports realtime registry occupancy.
func (s *Server) GetConnectionStats(c *gin.Context) {
	c.JSON(http.StatusOK, s.registry.GetStats())
}
