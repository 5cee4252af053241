package api

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/iulianpascalau/social-metrics/common"
	"github.com/iulianpascalau/social-metrics/orchestrator"
	"github.com/multiversx/mx-chain-core-go/core/check"
	logger "github.com/multiversx/mx-chain-logger-go"
)

var log = logger.GetOrCreate("api")

// IntegrationPayload represents the incoming JSON body on /api/integrations
type IntegrationPayload struct {
	CompanyID    string `json:"companyId"`
	Platform     string `json:"platform"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresAt    int64  `json:"expiresAt"`
}

// GroupResponse is the per-group slice of a metrics response
type GroupResponse struct {
	State           string                     `json:"state"`
	Data            *common.NormalizedResponse `json:"data,omitempty"`
	Error           string                     `json:"error,omitempty"`
	ServedFromCache bool                       `json:"servedFromCache,omitempty"`
	LastFetchedAt   int64                      `json:"lastFetchedAt,omitempty"`
}

// ArgsWebServer defines the web server arguments
type ArgsWebServer struct {
	ServiceKeyApi  string
	AuthUsername   string
	AuthPassword   string
	ListenAddress  string
	Orchestrator   Orchestrator
	Integrations   IntegrationsManager
	GeneralHandler func(http.Handler) http.Handler
}

type server struct {
	router         *gin.Engine
	httpServer     *http.Server
	orchestrator   Orchestrator
	integrations   IntegrationsManager
	serviceKey     string
	username       string
	password       string
	listenAddr     string
	jwtSecret      []byte
	generalHandler func(http.Handler) http.Handler
	wg             sync.WaitGroup
}

// NewServer initializes the Gin engine and mounts all routes
func NewServer(args ArgsWebServer) (*server, error) {
	if check.IfNil(args.Orchestrator) {
		return nil, errors.New("nil orchestrator")
	}
	if check.IfNil(args.Integrations) {
		return nil, errors.New("nil integrations manager")
	}
	if args.GeneralHandler == nil {
		return nil, errors.New("nil http handler")
	}

	// Derive JWT secret from ServiceApiKey + random salt
	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}

	h := hmac.New(sha256.New, []byte(args.ServiceKeyApi))
	h.Write(salt)
	jwtSecret := h.Sum(nil)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	router.Use(gin.Recovery())

	s := &server{
		router:         router,
		orchestrator:   args.Orchestrator,
		integrations:   args.Integrations,
		serviceKey:     args.ServiceKeyApi,
		username:       args.AuthUsername,
		password:       args.AuthPassword,
		listenAddr:     args.ListenAddress,
		generalHandler: args.GeneralHandler,
		jwtSecret:      jwtSecret,
	}

	s.setupRoutes()
	return s, nil
}

func (s *server) setupRoutes() {
	api := s.router.Group("/api")

	// Frontend authentication
	api.POST("/auth/login", s.handleLogin)

	// Integration management, guarded by the service API key
	admin := api.Group("/integrations")
	admin.Use(s.authAPIKey())
	{
		admin.POST("", s.handleUpsertIntegration)
		admin.DELETE("/:companyId/:platform", s.handleDeleteIntegration)
	}

	// Protected frontend endpoints
	protected := api.Group("/companies")
	protected.Use(s.authJWT())
	{
		protected.GET("/:companyId/platforms/:platform/resources/:resourceId/metrics", s.handleGetMetrics)
		protected.GET("/:companyId/platforms/:platform/resources/:resourceId/metrics/stream", s.handleStreamMetrics)
	}
}

// Start listens and serves connections
func (s *server) Start() {
	handler := s.generalHandler(s.router)

	s.httpServer = &http.Server{
		Addr:    s.listenAddr,
		Handler: handler,
	}

	ln, err := net.Listen("tcp", s.listenAddr)
	if err != nil {
		log.Error("failed to listen", "error", err)
		return
	}
	s.listenAddr = ln.Addr().String()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		log.Info("starting HTTP server", "address", s.listenAddr)

		err := s.httpServer.Serve(ln)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "error", err)
		}
	}()
}

// Address returns the actual listen address
func (s *server) Address() string {
	return s.listenAddr
}

// Close gracefully stops the server
func (s *server) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			return err
		}
	}
	s.wg.Wait()
	return nil
}

// --- Middlewares ---

func (s *server) authAPIKey() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader("X-Api-Key")
		if key != s.serviceKey {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}
		c.Next()
	}
}

// VERY basic JWT implementation for frontend session based on HS256
func (s *server) authJWT() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			c.Abort()
			return
		}

		tokenStr := strings.TrimPrefix(authHeader, "Bearer ")
		parts := strings.Split(tokenStr, ".")
		if len(parts) != 3 {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			c.Abort()
			return
		}

		// Verify signature
		message := parts[0] + "." + parts[1]
		sig, err := base64.RawURLEncoding.DecodeString(parts[2])
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token sign"})
			c.Abort()
			return
		}

		macd := hmac.New(sha256.New, s.jwtSecret)
		macd.Write([]byte(message))
		expectedSig := macd.Sum(nil)

		if !hmac.Equal(sig, expectedSig) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}

		// Verify expiration
		var claims struct {
			Exp int64 `json:"exp"`
		}
		payloadBytes, err := base64.RawURLEncoding.DecodeString(parts[1])
		if err == nil {
			_ = json.Unmarshal(payloadBytes, &claims)
		}

		if time.Now().Unix() > claims.Exp {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "token expired"})
			c.Abort()
			return
		}

		c.Next()
	}
}

// --- Handlers ---

func (s *server) handleLogin(c *gin.Context) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	if req.Username != s.username || req.Password != s.password {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	// Generate basic JWT (Header.Payload.Signature)
	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"HS256","typ":"JWT"}`))
	claims := fmt.Sprintf(`{"sub":"%s","exp":%d}`, req.Username, time.Now().Add(24*time.Hour).Unix())
	payload := base64.RawURLEncoding.EncodeToString([]byte(claims))

	msg := header + "." + payload
	macd := hmac.New(sha256.New, s.jwtSecret)
	macd.Write([]byte(msg))
	sig := base64.RawURLEncoding.EncodeToString(macd.Sum(nil))

	token := msg + "." + sig
	c.JSON(http.StatusOK, gin.H{"token": token})
}

func (s *server) requestFromParams(c *gin.Context) (orchestrator.Request, bool) {
	platform := common.Platform(c.Param("platform"))
	if !common.IsKnownPlatform(platform) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown platform"})
		return orchestrator.Request{}, false
	}

	groups := make([]string, 0)
	for _, group := range strings.Split(c.Query("groups"), ",") {
		group = strings.TrimSpace(group)
		if len(group) > 0 {
			groups = append(groups, group)
		}
	}
	if len(groups) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no metric groups requested"})
		return orchestrator.Request{}, false
	}

	return orchestrator.Request{
		CompanyID:  c.Param("companyId"),
		Platform:   platform,
		ResourceID: c.Param("resourceId"),
		Groups:     groups,
		TimeRange: common.TimeRange{
			Since: parseUnixParam(c.Query("since")),
			Until: parseUnixParam(c.Query("until")),
		},
	}, true
}

func parseUnixParam(value string) int64 {
	if len(value) == 0 {
		return 0
	}

	var parsed int64
	_, err := fmt.Sscanf(value, "%d", &parsed)
	if err != nil {
		return 0
	}

	return parsed
}

// handleGetMetrics starts (or joins) a progressive fetch session and answers
// once every group reached a terminal state. Groups that failed upstream but
// had a cached fallback are reported as succeeded with servedFromCache set.
func (s *server) handleGetMetrics(c *gin.Context) {
	request, ok := s.requestFromParams(c)
	if !ok {
		return
	}

	session, err := s.orchestrator.StartSession(request)
	if err != nil {
		if errors.Is(err, orchestrator.ErrUnknownPlatform) || errors.Is(err, orchestrator.ErrNoGroups) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	select {
	case <-session.Done():
	case <-c.Request.Context().Done():
		// the session keeps running so its write-through still lands
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"companyId":  request.CompanyID,
		"platform":   request.Platform,
		"resourceId": request.ResourceID,
		"complete":   true,
		"groups":     groupResponses(session.CurrentState()),
	})
}

// handleStreamMetrics delivers the same session as server-sent events: one
// snapshot, then one event per group state change, then a terminal complete
// event, so the UI can fill in each metric group as it resolves
func (s *server) handleStreamMetrics(c *gin.Context) {
	request, ok := s.requestFromParams(c)
	if !ok {
		return
	}

	session, err := s.orchestrator.StartSession(request)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	events := session.Subscribe()

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")

	c.SSEvent("state", groupResponses(session.CurrentState()))
	c.Writer.Flush()

	c.Stream(func(w io.Writer) bool {
		event, stillOpen := <-events
		if !stillOpen {
			c.SSEvent("complete", groupResponses(session.CurrentState()))
			return false
		}
		if event.SessionComplete {
			c.SSEvent("complete", groupResponses(session.CurrentState()))
			return false
		}

		c.SSEvent("group", gin.H{
			"group":           event.Group,
			"state":           string(event.State),
			"data":            event.Data,
			"error":           errString(event.Err),
			"servedFromCache": event.ServedFromCache,
			"lastFetchedAt":   event.LastFetchedAt,
		})
		return true
	})
}

func (s *server) handleUpsertIntegration(c *gin.Context) {
	var payload IntegrationPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	platform := common.Platform(payload.Platform)
	if !common.IsKnownPlatform(platform) || len(payload.CompanyID) == 0 || len(payload.AccessToken) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	err := s.integrations.UpsertIntegration(c.Request.Context(), common.Credential{
		CompanyID:    payload.CompanyID,
		Platform:     platform,
		AccessToken:  payload.AccessToken,
		RefreshToken: payload.RefreshToken,
		ExpiresAt:    payload.ExpiresAt,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (s *server) handleDeleteIntegration(c *gin.Context) {
	platform := common.Platform(c.Param("platform"))
	if !common.IsKnownPlatform(platform) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown platform"})
		return
	}

	err := s.integrations.DeleteIntegration(c.Request.Context(), c.Param("companyId"), platform)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func groupResponses(state map[string]orchestrator.GroupResult) map[string]GroupResponse {
	out := make(map[string]GroupResponse, len(state))
	for name, result := range state {
		out[name] = GroupResponse{
			State:           string(result.State),
			Data:            result.Data,
			Error:           errString(result.Err),
			ServedFromCache: result.ServedFromCache,
			LastFetchedAt:   result.LastFetchedAt,
		}
	}

	return out
}

func errString(err error) string {
	if err == nil {
		return ""
	}

	return err.Error()
}
