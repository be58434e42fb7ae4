package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/phishscan/phishscan/internal/history"
	"github.com/phishscan/phishscan/internal/model"
	"github.com/phishscan/phishscan/internal/predict"
)

// requestTimeout bounds one prediction request end to end, covering WHOIS,
// DNS, and the optional content fetch.
const requestTimeout = 30 * time.Second

// Server wires the prediction pipeline into a gin HTTP engine.
type Server struct {
	engine    *gin.Engine
	predictor *predict.Predictor
	store     *history.Store
	logger    *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithHistoryStore enables prediction persistence and the history endpoint.
func WithHistoryStore(store *history.Store) Option {
	return func(s *Server) {
		s.store = store
	}
}

// WithLogger sets the logger for request traces.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// New creates a Server around the given predictor.
func New(predictor *predict.Predictor, opts ...Option) *Server {
	s := &Server{predictor: predictor}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	engine.GET("/healthz", s.handleHealth)

	api := engine.Group("/api/v1")
	api.GET("/predict", s.handlePredictGET)
	api.POST("/predict", s.handlePredictPOST)
	api.GET("/history", s.handleHistory)

	s.engine = engine
	return s
}

// Handler returns the HTTP handler, primarily for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves the API until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	s.logger.Info("serving prediction API", "addr", addr)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// handleHealth reports liveness. It deliberately does not load the model:
// a missing artifact set is a degraded state, not a dead process.
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// predictRequest is the POST /api/v1/predict body.
type predictRequest struct {
	URL          string `json:"url" binding:"required"`
	FetchContent bool   `json:"fetch_content"`
}

// handlePredictGET classifies the URL in the "url" query parameter.
// "fetch=true" enables content fetching.
func (s *Server) handlePredictGET(c *gin.Context) {
	rawURL := c.Query("url")
	if rawURL == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing url parameter"})
		return
	}
	s.servePrediction(c, rawURL, c.Query("fetch") == "true")
}

// handlePredictPOST classifies the URL in the JSON body.
func (s *Server) handlePredictPOST(c *gin.Context) {
	var req predictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: url is required"})
		return
	}
	s.servePrediction(c, req.URL, req.FetchContent)
}

// servePrediction runs the pipeline and writes the result. Prediction
// failures are part of the result contract and return 200 with the error
// field set; only malformed requests produce 4xx.
func (s *Server) servePrediction(c *gin.Context, rawURL string, fetchContent bool) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	result := s.predictor.Predict(ctx, rawURL, fetchContent)

	if s.store != nil {
		if _, err := s.store.SavePrediction(ctx, &result); err != nil {
			// Persistence is best effort; the caller still gets the verdict.
			s.logger.Warn("save prediction", "error", err)
		}
	}

	c.JSON(http.StatusOK, result)
}

// historyResponse is the GET /api/v1/history body.
type historyResponse struct {
	Predictions []model.PredictionResult `json:"predictions"`
}

// handleHistory lists recent predictions, newest first.
func (s *Server) handleHistory(c *gin.Context) {
	if s.store == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "history persistence is not enabled"})
		return
	}

	limit := 20
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit parameter"})
			return
		}
		limit = parsed
	}

	records, err := s.store.ListRecent(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "history query failed"})
		return
	}

	resp := historyResponse{Predictions: make([]model.PredictionResult, 0, len(records))}
	for _, rec := range records {
		resp.Predictions = append(resp.Predictions, rec.Result)
	}
	c.JSON(http.StatusOK, resp)
}
