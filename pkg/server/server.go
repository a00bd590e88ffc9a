// Package server implements the OpenBoard server: the REST API, the
// realtime gateway endpoint, and the operational surface around them.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/openboard/openboard/pkg/auth"
	"github.com/openboard/openboard/pkg/datastore"
	"github.com/openboard/openboard/pkg/model"
	"github.com/openboard/openboard/pkg/realtime"
)

// Dependencies holds external dependencies for the server.
// Server assumes ownership of Store and will Close() it on shutdown.
type Dependencies struct {
	Store datastore.DataProviderFactory
}

// Server is the main OpenBoard server.
type Server struct {
	cfg         Config
	store       datastore.DataProviderFactory
	auth        *auth.Service
	registry    *realtime.Registry
	broadcaster *realtime.Broadcaster
	gatekeeper  *realtime.Gatekeeper
	metrics     *Metrics
	router      *gin.Engine
	httpSrv     *http.Server
	ctx         context.Context
	cancel      context.CancelFunc
}

// New creates a new Server instance.
func New(cfg Config, deps Dependencies) (*Server, error) {
	tokens, err := auth.NewService(cfg.JWTSecret, cfg.TokenTTL)
	if err != nil {
		return nil, fmt.Errorf("server: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		cfg:     cfg,
		store:   deps.Store,
		auth:    tokens,
		metrics: NewMetrics(),
		ctx:     ctx,
		cancel:  cancel,
	}

	s.registry = realtime.NewRegistry()
	s.broadcaster = realtime.NewBroadcaster(s.registry, s.metrics)
	s.gatekeeper = realtime.NewGatekeeper(
		tokens,
		deps.Store.NonTx(),
		deps.Store.NonTx(),
		s.registry,
		s.broadcaster,
		s.metrics,
		realtime.GatekeeperConfig{
			AdmissionTimeout: cfg.AdmissionTimeout,
			IdleTimeout:      cfg.IdleTimeout,
			WriteTimeout:     cfg.WriteTimeout,
		},
	)

	gin.SetMode(gin.ReleaseMode)
	s.router = gin.New()
	s.router.Use(gin.Recovery(), s.requestLogger())
	s.routes()
	return s, nil
}

// Router exposes the HTTP handler, mainly for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// Registry returns the realtime room registry.
func (s *Server) Registry() *realtime.Registry {
	return s.registry
}

// Metrics returns the server metrics.
func (s *Server) Metrics() *Metrics {
	return s.metrics
}

func (s *Server) routes() {
	s.router.GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, "ok\n")
	})
	s.router.GET("/metrics", gin.WrapF(s.handleMetrics))

	s.router.GET("/ws/boards/:id", s.handleBoardSocket)

	api := s.router.Group("/api")
	api.POST("/auth/register", s.handleRegister)
	api.POST("/auth/login", s.handleLogin)

	authed := api.Group("", s.authRequired())
	authed.GET("/boards", s.handleListBoards)
	authed.POST("/boards", s.handleCreateBoard)
	authed.GET("/boards/:id", s.handleGetBoard)
	authed.PUT("/boards/:id", s.handleUpdateBoard)
	authed.DELETE("/boards/:id", s.handleDeleteBoard)
	authed.POST("/boards/:id/members", s.handleAddMember)
	authed.DELETE("/boards/:id/members/:userID", s.handleRemoveMember)
	authed.GET("/boards/:id/lists", s.handleListLists)
	authed.POST("/boards/:id/lists", s.handleCreateList)
	authed.PUT("/lists/:id", s.handleUpdateList)
	authed.DELETE("/lists/:id", s.handleDeleteList)
	authed.GET("/lists/:id/cards", s.handleListCards)
	authed.POST("/lists/:id/cards", s.handleCreateCard)
	authed.PUT("/cards/:id", s.handleUpdateCard)
	authed.DELETE("/cards/:id", s.handleDeleteCard)
	authed.POST("/push-tokens", s.handleCreatePushToken)
}

// requestLogger logs one line per request at debug level.
func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		slog.Debug("http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start).Truncate(time.Microsecond),
		)
	}
}

const userKey = "openboard.user"

// authRequired resolves the bearer token to a stored user or aborts with 401.
func (s *Server) authRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}
		email, err := s.auth.ValidateToken(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		user, err := s.store.NonTx().GetUserByEmail(email)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "lookup user"})
			return
		}
		if user == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unknown user"})
			return
		}
		c.Set(userKey, user)
		c.Next()
	}
}

func currentUser(c *gin.Context) *model.User {
	return c.MustGet(userKey).(*model.User)
}

// idParam parses a numeric path parameter; on failure it writes a 400 and
// reports false.
func idParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid %s", name)})
		return 0, false
	}
	return id, true
}

// requireBoard loads a board and checks the user may access it. On failure
// it has already written the response (404 unknown, 403 no access).
func (s *Server) requireBoard(c *gin.Context, boardID int64, user *model.User) (*model.Board, bool) {
	board, err := s.store.NonTx().GetBoard(boardID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "load board"})
		return nil, false
	}
	if board == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "board not found"})
		return nil, false
	}
	ok, err := s.store.NonTx().IsBoardAccessible(boardID, user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "check access"})
		return nil, false
	}
	if !ok {
		c.JSON(http.StatusForbidden, gin.H{"error": "no access to this board"})
		return nil, false
	}
	return board, true
}

// handleBoardSocket hands the connection to the realtime gatekeeper, which
// performs its own admission checks before upgrading.
func (s *Server) handleBoardSocket(c *gin.Context) {
	boardID, ok := idParam(c, "id")
	if !ok {
		return
	}
	s.gatekeeper.Serve(c.Writer, c.Request, boardID)
}
