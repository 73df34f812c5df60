package classifierstub

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/goliatone/go-creditform/pkg/openapi"
	"github.com/goliatone/go-creditform/pkg/schema"
	"github.com/goliatone/go-creditform/pkg/validation"
)

type predictRequest struct {
	UserInput map[string]any `json:"user_input"`
}

type predictResponse struct {
	PredictedCreditScore string `json:"predicted_credit_score"`
}

type errorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// Option configures the stub server.
type Option func(*Server)

// WithLogger sets the request and application logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithRegistry registers the stub's collectors on reg and serves it on
// /metrics.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(s *Server) {
		if reg != nil {
			s.registry = reg
		}
	}
}

// WithClassifier replaces RuleTree.
func WithClassifier(c Classifier) Option {
	return func(s *Server) {
		if c != nil {
			s.classifier = c
		}
	}
}

// WithSchema validates incoming user_input against s instead of the
// built-in schema.
func WithSchema(sc schema.Schema) Option {
	return func(s *Server) {
		s.engine = validation.New(sc)
	}
}

// Server is a local stand-in for the credit score classifier.
type Server struct {
	logger      *zap.Logger
	registry    *prometheus.Registry
	classifier  Classifier
	engine      *validation.Engine
	predictions *prometheus.CounterVec
	handler     *gin.Engine
}

// New builds the stub and its routes.
func New(opts ...Option) (*Server, error) {
	s := &Server{
		logger:     zap.NewNop(),
		classifier: RuleTree{},
		engine:     validation.New(schema.CreditScore()),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.registry == nil {
		s.registry = prometheus.NewRegistry()
	}

	s.predictions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "classifierstub",
		Name:      "predictions_total",
		Help:      "Predictions served, by score class.",
	}, []string{"score"})
	if err := s.registry.Register(s.predictions); err != nil {
		return nil, fmt.Errorf("classifierstub: register metrics: %w", err)
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(ginzap.Ginzap(s.logger, time.RFC3339, true))
	router.Use(ginzap.RecoveryWithZap(s.logger, true))

	router.POST(openapi.DefaultPath, s.predict)
	router.GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, "online")
	})
	router.GET("/openapi.yaml", func(c *gin.Context) {
		c.Data(http.StatusOK, "application/yaml", openapi.DefaultContract())
	})
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})))

	s.handler = router
	return s, nil
}

// Handler exposes the router, mainly for httptest.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Run serves on addr until ctx is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("classifier stub listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) predict(c *gin.Context) {
	var req predictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "request body must be JSON with a user_input object"})
		return
	}
	if req.UserInput == nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "user_input is required"})
		return
	}

	res := s.engine.Validate(stringify(req.UserInput))
	if !res.Valid() {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid user_input", Fields: res.Errors.Messages()})
		return
	}

	features, err := Encode(res.Payload)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	score := s.classifier.Predict(features)
	s.predictions.WithLabelValues(score).Inc()
	s.logger.Debug("prediction", zap.String("score", score), zap.Any("features", features))
	c.JSON(http.StatusOK, predictResponse{PredictedCreditScore: score})
}

func stringify(in map[string]any) map[string]string {
	out := make(map[string]string, len(in))
	for key, value := range in {
		switch v := value.(type) {
		case string:
			out[key] = v
		case float64:
			out[key] = strconv.FormatFloat(v, 'f', -1, 64)
		case bool:
			out[key] = strconv.FormatBool(v)
		case nil:
		default:
			out[key] = fmt.Sprint(v)
		}
	}
	return out
}
