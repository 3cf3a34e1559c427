package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"episodic/internal/dialogue"
	"episodic/internal/logging"
	"episodic/internal/notifications"
	"episodic/internal/pipeline"
	"episodic/internal/podcast"
	"episodic/internal/progress"
)

// Generator runs one generation attempt.
type Generator interface {
	Generate(ctx context.Context, params podcast.GenerationParams, token *pipeline.CancelToken, listeners ...progress.Listener) (pipeline.Result, error)
}

// Library reads and writes persisted artifacts.
type Library interface {
	pipeline.Persister
	ListPodcasts(ctx context.Context) ([]podcast.Podcast, error)
	ListSeries(ctx context.Context) ([]podcast.Series, error)
	GetPodcast(ctx context.Context, id string) (*podcast.Podcast, error)
	GetSeries(ctx context.Context, id string) (*podcast.Series, []podcast.Podcast, error)
}

// Dependencies wires the server to the domain components.
type Dependencies struct {
	Engine    *dialogue.Engine
	Generator Generator
	Library   Library
	Notifier  notifications.Service
	Logger    *slog.Logger
	// Token, when set, is required as a bearer token on every request.
	Token string
	// Now overrides the clock.
	Now func() time.Time
}

// Server serves the HTTP API.
type Server struct {
	deps   Dependencies
	logger *slog.Logger
	now    func() time.Time
	router *gin.Engine

	base   context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu       sync.Mutex
	sessions map[string]*session
}

// session pairs a conversation with its single generation slot.
type session struct {
	conv *dialogue.Conversation
	slot *semaphore.Weighted

	mu      sync.Mutex
	current *generation
}

func (s *session) latest() *generation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// New constructs a server. Close must be called to stop background generations.
func New(deps Dependencies) *Server {
	gin.SetMode(gin.ReleaseMode)
	if deps.Notifier == nil {
		deps.Notifier = notifications.NewService(nil)
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	base, cancel := context.WithCancel(context.Background())
	s := &Server{
		deps:     deps,
		logger:   logging.NewComponentLogger(deps.Logger, "api"),
		now:      now,
		base:     base,
		cancel:   cancel,
		sessions: make(map[string]*session),
	}
	s.router = s.routes()
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())

	r.GET("/api/health", s.handleHealth)

	authed := r.Group("/api", bearerAuth(s.deps.Token))
	conversations := authed.Group("/conversations")
	conversations.POST("", s.handleCreateConversation)
	conversations.GET("/:id", s.handleGetConversation)
	conversations.POST("/:id/replies", s.handleReply)
	conversations.POST("/:id/approve", s.handleApprove)
	conversations.POST("/:id/modify", s.handleModify)
	conversations.POST("/:id/single", s.handleSwitchToSingle)
	conversations.GET("/:id/params", s.handleParams)
	conversations.POST("/:id/generation", s.handleStartGeneration)
	conversations.GET("/:id/generation", s.handleGetGeneration)
	conversations.POST("/:id/generation/cancel", s.handleCancelGeneration)
	conversations.GET("/:id/generation/events", s.handleGenerationEvents)

	library := authed.Group("/library")
	library.GET("/podcasts", s.handleListPodcasts)
	library.GET("/podcasts/:id", s.handleGetPodcast)
	library.GET("/series", s.handleListSeries)
	library.GET("/series/:id", s.handleGetSeries)
	return r
}

// Serve listens on bind until ctx is cancelled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, bind string) error {
	bind = strings.TrimSpace(bind)
	if bind == "" {
		return errors.New("api bind address is required")
	}
	listener, err := net.Listen("tcp", bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	server := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Serve(listener)
	}()
	s.logger.Info("api server listening",
		logging.String(logging.FieldEventType, "api_listen"),
		logging.String("address", listener.Addr().String()),
	)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("api serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = server.Shutdown(shutdownCtx)
	return nil
}

// Close cancels in-flight generations and waits for them to finish.
func (s *Server) Close() {
	s.mu.Lock()
	for _, sess := range s.sessions {
		if g := sess.latest(); g != nil {
			g.token.Cancel()
		}
	}
	s.mu.Unlock()
	s.cancel()
	s.wg.Wait()
}

func (s *Server) lookup(id string) (*session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", errConversationNotFound, id)
	}
	return sess, nil
}

func (s *Server) register(conv *dialogue.Conversation) *session {
	sess := &session{conv: conv, slot: semaphore.NewWeighted(1)}
	s.mu.Lock()
	s.sessions[conv.ID()] = sess
	s.mu.Unlock()
	return sess
}

// startGeneration launches an attempt in the background. It fails with
// errGenerationInFlight while the previous attempt holds the slot.
func (s *Server) startGeneration(sess *session, params podcast.GenerationParams) (*generation, error) {
	if s.deps.Generator == nil {
		return nil, errors.New("generation is not configured")
	}
	if !sess.slot.TryAcquire(1) {
		return nil, errGenerationInFlight
	}
	g := newGeneration(uuid.NewString(), sess.conv.ID(), params, s.now())
	sess.mu.Lock()
	sess.current = g
	sess.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer sess.slot.Release(1)
		s.runGeneration(g)
	}()
	return g, nil
}

func (s *Server) runGeneration(g *generation) {
	ctx := s.base
	result, err := s.deps.Generator.Generate(ctx, g.params, g.token, g)
	if err == nil && s.deps.Library != nil {
		if perr := result.Persist(ctx, s.deps.Library); perr != nil {
			logging.ErrorWithContext(s.logger, "failed to persist generation", "library_save_failed",
				logging.String(logging.FieldConversationID, g.conversationID),
				logging.Error(perr),
			)
			err = perr
		}
	}
	g.finish(result, err, s.now())
	s.notify(ctx, g, result, err)
}

func (s *Server) notify(ctx context.Context, g *generation, result pipeline.Result, err error) {
	var nerr error
	switch {
	case err == nil:
		nerr = s.deps.Notifier.NotifyGenerationCompleted(ctx, notifications.Outcome{
			Topic:           g.params.Topic,
			Title:           result.Title(),
			Episodes:        len(result.Artifacts()),
			DurationSeconds: result.DurationSeconds(),
		})
	case g.status().State == GenerationCancelled:
		nerr = s.deps.Notifier.NotifyGenerationCancelled(ctx, g.params.Topic)
	default:
		nerr = s.deps.Notifier.NotifyGenerationFailed(ctx, g.params.Topic, err)
	}
	if nerr != nil {
		logging.WarnWithContext(s.logger, "notification failed", "notification_failed",
			logging.Error(nerr),
			logging.String(logging.FieldImpact, "generation outcome not pushed"),
		)
	}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := s.now()
		c.Next()
		s.logger.Debug("api request",
			logging.String(logging.FieldEventType, "api_request"),
			logging.String("method", c.Request.Method),
			logging.String("path", c.FullPath()),
			logging.Int("status", c.Writer.Status()),
			logging.Duration("elapsed", s.now().Sub(start)),
		)
	}
}

// bearerAuth requires "Authorization: Bearer <token>" (or an access_token
// query parameter) when token is set.
func bearerAuth(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token == "" {
			c.Next()
			return
		}
		auth := c.GetHeader("Authorization")
		supplied := strings.TrimPrefix(auth, "Bearer ")
		if !strings.HasPrefix(auth, "Bearer ") {
			// Browsers cannot set headers on WebSocket upgrades.
			supplied = c.Query("access_token")
		}
		if supplied == "" || supplied != token {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
			return
		}
		c.Next()
	}
}
