package devserver

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"taskmaster/internal/domain"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	authRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "devserver_auth_requests_total",
			Help: "Total auth requests seen by the rate limiter",
		},
		[]string{"endpoint"},
	)
	authBlocked = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "devserver_auth_blocked_total",
			Help: "Total auth requests blocked by the rate limiter",
		},
		[]string{"endpoint"},
	)
)

func init() {
	prometheus.MustRegister(authRequests)
	prometheus.MustRegister(authBlocked)
}

// Server implements the Task Master API surface for local development: the
// auth endpoints plus the bearer-gated task collection.
type Server struct {
	store  *Store
	secret []byte

	rlMu      sync.Mutex
	rlClients map[string]*clientInfo
}

func NewServer(jwtSecret string) *Server {
	return &Server{
		store:     NewStore(),
		secret:    []byte(jwtSecret),
		rlClients: make(map[string]*clientInfo),
	}
}

// RegisterRoutes mounts the API on the given engine.
func (s *Server) RegisterRoutes(r *gin.Engine) {
	api := r.Group("/api")

	auth := api.Group("/auth")
	auth.Use(s.rateLimit(20, time.Minute))
	auth.POST("/register", s.register)
	auth.POST("/login", s.login)

	tasks := api.Group("/tasks")
	tasks.Use(s.authRequired())
	tasks.GET("", s.listTasks)
	tasks.POST("", s.createTask)
	tasks.PUT("/:id", s.updateTask)
	tasks.DELETE("/:id", s.deleteTask)
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Server) register(c *gin.Context) {
	var req credentialsRequest
	if err := c.BindJSON(&req); err != nil || req.Username == "" || req.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "username and password are required"})
		return
	}

	if err := s.store.CreateUser(req.Username, req.Password); err != nil {
		c.JSON(http.StatusConflict, gin.H{"message": "username already taken"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Registration successful!"})
}

func (s *Server) login(c *gin.Context) {
	var req credentialsRequest
	if err := c.BindJSON(&req); err != nil || req.Username == "" || req.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "username and password are required"})
		return
	}

	if err := s.store.Authenticate(req.Username, req.Password); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "invalid username or password"})
		return
	}

	token, err := s.generateJWT(req.Username)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "token generation failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token, "message": "Login successful!"})
}

func (s *Server) listTasks(c *gin.Context) {
	username := c.GetString("username")
	c.JSON(http.StatusOK, s.store.ListTasks(username))
}

func (s *Server) createTask(c *gin.Context) {
	username := c.GetString("username")

	draft, ok := bindDraft(c)
	if !ok {
		return
	}

	c.JSON(http.StatusCreated, s.store.CreateTask(username, draft))
}

func (s *Server) updateTask(c *gin.Context) {
	username := c.GetString("username")

	draft, ok := bindDraft(c)
	if !ok {
		return
	}

	task, err := s.store.UpdateTask(username, c.Param("id"), draft)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "task not found"})
		return
	}
	c.JSON(http.StatusOK, task)
}

func (s *Server) deleteTask(c *gin.Context) {
	username := c.GetString("username")

	if err := s.store.DeleteTask(username, c.Param("id")); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "task not found"})
		return
	}
	c.Status(http.StatusNoContent)
}

// bindDraft decodes and validates the task payload. The server stays
// authoritative over what it persists; the client pre-check is advisory.
func bindDraft(c *gin.Context) (domain.TaskDraft, bool) {
	var draft domain.TaskDraft
	if err := c.BindJSON(&draft); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "bad request"})
		return domain.TaskDraft{}, false
	}
	if err := draft.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return domain.TaskDraft{}, false
	}
	return draft, true
}

func (s *Server) authRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "missing bearer token"})
			return
		}

		username, err := s.parseJWT(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "invalid token"})
			return
		}

		c.Set("username", username)
		c.Next()
	}
}

type clientInfo struct {
	last  time.Time
	count int
}

// rateLimit blocks clients that send more than maxRequests per window.
func (s *Server) rateLimit(maxRequests int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		authRequests.WithLabelValues(c.FullPath()).Inc()

		s.rlMu.Lock()
		ci, ok := s.rlClients[ip]
		if !ok {
			s.rlClients[ip] = &clientInfo{last: time.Now(), count: 1}
			s.rlMu.Unlock()
			c.Next()
			return
		}

		now := time.Now()
		if now.Sub(ci.last) > window {
			ci.last = now
			ci.count = 1
			s.rlMu.Unlock()
			c.Next()
			return
		}

		ci.count++
		count := ci.count
		s.rlMu.Unlock()

		if count > maxRequests {
			authBlocked.WithLabelValues(c.FullPath()).Inc()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"message": "rate limit exceeded"})
			return
		}

		c.Next()
	}
}
