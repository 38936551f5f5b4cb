package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"purchase-verdict/internal/ai"
	"purchase-verdict/internal/catalog"
	"purchase-verdict/internal/engine"
	"purchase-verdict/internal/signal"
	"purchase-verdict/internal/store"
	"purchase-verdict/internal/verdict"
)

// Config defines server dependencies.
type Config struct {
	DBPath          string
	ModelConfigPath string
	VendorSeedPath  string
	AllowedOrigins  []string
	SilentDB        bool
	AIConfig        ai.Config
	DisableAI       bool
	Strategy        string
}

// holdDuration is how long a hold verdict asks the user to wait.
const holdDuration = 24 * time.Hour

// Server wires HTTP handlers with persistence and the evaluation pipeline.
type Server struct {
	db             *store.Database
	catalog        *catalog.Service
	evaluator      *verdict.Evaluator
	modelCfg       engine.ModelConfig
	strategyName   string
	judgeEnabled   bool
	embedEnabled   bool
	allowedOrigins []string
}

// NewServer constructs the API server.
func NewServer(cfg Config) (*Server, error) {
	if cfg.DBPath == "" {
		return nil, errors.New("db path required")
	}
	db, err := store.Open(cfg.DBPath, cfg.SilentDB)
	if err != nil {
		return nil, err
	}

	modelCfg := engine.DefaultModelConfig()
	if path := strings.TrimSpace(cfg.ModelConfigPath); path != "" {
		modelCfg, err = engine.LoadModelConfig(path)
		if err != nil {
			return nil, err
		}
		logrus.WithField("version", modelCfg.Version).Info("loaded model config")
	}

	vendorCatalog := catalog.NewService(db)
	if path := strings.TrimSpace(cfg.VendorSeedPath); path != "" {
		if count, err := vendorCatalog.LoadFromCSV(path); err != nil {
			logrus.WithError(err).Warn("load vendor catalog")
		} else {
			logrus.WithField("vendors", count).Info("loaded vendor catalog")
		}
	}

	var invoker *ai.Invoker
	judgeEnabled := false
	if cfg.DisableAI {
		logrus.Info("judge disabled via configuration; deterministic fallback only")
	} else if client, err := ai.NewClient(cfg.AIConfig); err == nil {
		invoker = ai.NewInvoker(client, engine.NewOverridePolicy(modelCfg))
		judgeEnabled = true
	} else if errors.Is(err, ai.ErrDisabled) {
		logrus.Info("no judge credential configured; deterministic fallback only")
	} else {
		return nil, err
	}

	var embedder signal.Embedder
	embedEnabled := false
	if !cfg.DisableAI {
		if client, err := ai.NewEmbeddingsClient(cfg.AIConfig); err == nil {
			embedder = client
			embedEnabled = true
		} else if !errors.Is(err, ai.ErrDisabled) {
			return nil, err
		}
	}

	assembler := signal.NewAssembler(db, vendorCatalog, embedder)
	strategy := engine.SelectStrategy(modelCfg, cfg.Strategy)
	evaluator := verdict.NewEvaluator(assembler, invoker, strategy, modelCfg)

	return &Server{
		db:             db,
		catalog:        vendorCatalog,
		evaluator:      evaluator,
		modelCfg:       modelCfg,
		strategyName:   strategy.Name(),
		judgeEnabled:   judgeEnabled,
		embedEnabled:   embedEnabled,
		allowedOrigins: cfg.AllowedOrigins,
	}, nil
}

// Close releases the underlying database handle.
func (s *Server) Close() error {
	return s.db.Close()
}

// Router configures gin routes.
func (s *Server) Router() *gin.Engine {
	r := gin.Default()

	corsCfg := cors.DefaultConfig()
	corsCfg.AllowCredentials = true
	if len(s.allowedOrigins) == 0 {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = s.allowedOrigins
	}
	corsCfg.AllowHeaders = []string{"Origin", "Content-Type", "Accept"}
	corsCfg.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	r.Use(cors.New(corsCfg))

	r.GET("/api/healthz", s.handleHealth)
	r.GET("/api/config", s.handleConfig)

	api := r.Group("/api")
	{
		api.POST("/users", s.handleUpsertUser)
		api.POST("/evaluate", s.handleEvaluate)
		api.GET("/verdicts", s.handleListVerdicts)
		api.GET("/verdicts/:id", s.handleGetVerdict)
		api.POST("/feedback", s.handleFeedback)
		api.GET("/vendors/match", s.handleMatchVendor)
	}

	return r
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleConfig(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"model_version":     s.modelCfg.Version,
		"strategy":          s.strategyName,
		"judge_enabled":     s.judgeEnabled,
		"embedding_enabled": s.embedEnabled,
		"vendor_catalog":    s.catalog.Count(),
	})
}

func (s *Server) handleUpsertUser(c *gin.Context) {
	var req UserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.renderError(c, http.StatusBadRequest, err)
		return
	}
	user := &store.User{
		Email:        req.Email,
		DisplayName:  strings.TrimSpace(req.DisplayName),
		WeeklyBudget: req.WeeklyBudget,
	}
	user.SetCoreValues(req.CoreValues)
	user.SetOnboardingAnswers(req.Onboarding)
	if err := s.db.UpsertUser(user); err != nil {
		s.renderError(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": user.ID, "email": user.Email})
}

func (s *Server) handleEvaluate(c *gin.Context) {
	var req EvaluateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.renderError(c, http.StatusBadRequest, err)
		return
	}

	result := s.evaluator.Evaluate(c.Request.Context(), verdict.Request{
		UserID:   req.UserID,
		Purchase: req.PurchaseInput(),
	})

	record := &store.Verdict{
		PublicID:      uuid.NewString(),
		UserID:        req.UserID,
		Title:         req.Title,
		Price:         req.Price,
		Category:      req.Category,
		Vendor:        req.Vendor,
		Justification: req.Justification,
		IsImportant:   req.IsImportant,
		Outcome:       string(result.Outcome),
		Confidence:    result.Confidence,
		Algorithm:     result.Reasoning.Algorithm,
	}
	record.SetReasoning(result.Reasoning)
	if result.Outcome == engine.OutcomeHold {
		release := time.Now().Add(holdDuration)
		record.HoldReleaseAt = &release
	}
	if err := s.db.SaveVerdict(record); err != nil {
		logrus.WithError(err).Warn("persist verdict")
	}

	c.JSON(http.StatusOK, FromModel(*record))
}

func (s *Server) handleListVerdicts(c *gin.Context) {
	userID, err := parseUintParam(c.Query("user_id"))
	if err != nil || userID == 0 {
		s.renderError(c, http.StatusBadRequest, errors.New("user_id query parameter required"))
		return
	}
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	verdicts, total, err := s.db.ListVerdicts(userID, offset, limit)
	if err != nil {
		s.renderError(c, http.StatusInternalServerError, err)
		return
	}
	items := make([]VerdictDTO, 0, len(verdicts))
	for _, v := range verdicts {
		items = append(items, FromModel(v))
	}
	c.JSON(http.StatusOK, VerdictsResponse{Items: items, Total: total})
}

func (s *Server) handleGetVerdict(c *gin.Context) {
	record, err := s.db.VerdictByPublicID(c.Param("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.renderError(c, http.StatusNotFound, errors.New("verdict not found"))
			return
		}
		s.renderError(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, FromModel(*record))
}

func (s *Server) handleFeedback(c *gin.Context) {
	var req FeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.renderError(c, http.StatusBadRequest, err)
		return
	}
	feedback := &store.Feedback{
		PurchaseID: req.PurchaseID,
		UserID:     req.UserID,
		Label:      req.Label,
		Checkpoint: strings.TrimSpace(req.Checkpoint),
	}
	if err := s.db.CreateFeedback(feedback); err != nil {
		s.renderError(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": feedback.ID})
}

func (s *Server) handleMatchVendor(c *gin.Context) {
	name := strings.TrimSpace(c.Query("name"))
	if name == "" {
		s.renderError(c, http.StatusBadRequest, errors.New("name query parameter required"))
		return
	}
	match, err := s.catalog.Match(name, c.Query("category"))
	if err != nil {
		s.renderError(c, http.StatusInternalServerError, err)
		return
	}
	if match == nil {
		c.JSON(http.StatusOK, gin.H{"matched": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"matched": true, "vendor": match})
}

func (s *Server) renderError(c *gin.Context, status int, err error) {
	logrus.WithError(err).WithField("path", c.FullPath()).Warn("request failed")
	c.JSON(status, gin.H{"error": err.Error()})
}

func parseUintParam(value string) (uint, error) {
	parsed, err := strconv.ParseUint(strings.TrimSpace(value), 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(parsed), nil
}
