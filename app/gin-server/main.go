package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/yoockh/intervue/config"
	"github.com/yoockh/intervue/internal/analysis"
	"github.com/yoockh/intervue/internal/api/handlers"
	"github.com/yoockh/intervue/internal/api/middleware"
	"github.com/yoockh/intervue/internal/api/routes"
	"github.com/yoockh/intervue/internal/cache"
	"github.com/yoockh/intervue/internal/events"
	"github.com/yoockh/intervue/internal/locks"
	"github.com/yoockh/intervue/internal/logger"
	"github.com/yoockh/intervue/internal/metrics"
	"github.com/yoockh/intervue/internal/providers/llm"
	"github.com/yoockh/intervue/internal/providers/stt"
	mongorepo "github.com/yoockh/intervue/internal/repositories/mongo"
	pgrepo "github.com/yoockh/intervue/internal/repositories/postgres"
	"github.com/yoockh/intervue/internal/services"
	"github.com/yoockh/intervue/internal/storage"
	"github.com/yoockh/intervue/internal/turn"
	"github.com/yoockh/intervue/internal/utils"
	"github.com/yoockh/intervue/internal/workers"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	l := logger.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Init MongoDB
	mongoClient, err := config.InitMongo(ctx, cfg)
	if err != nil {
		l.WithError(err).Fatal("MongoDB init error")
	}
	defer func() { _ = mongoClient.Disconnect(context.Background()) }()
	mdb := mongoClient.Database(cfg.MongoDB)
	if err := config.EnsureMongoIndexes(ctx, mdb); err != nil {
		l.WithError(err).Warn("mongo index creation failed")
	}
	l.Info("MongoDB connected")

	// Init PostgreSQL
	pg, err := config.InitPostgres(cfg)
	if err != nil {
		l.WithError(err).Fatal("PostgreSQL init error")
	}
	l.Info("PostgreSQL connected")

	// Init Redis
	rdb, err := config.InitRedis(ctx, cfg)
	if err != nil {
		l.WithError(err).Fatal("Redis init error")
	}
	defer rdb.Close()
	l.Info("Redis connected")

	metrics.Register(prometheus.DefaultRegisterer)

	model, err := buildLLM(ctx, cfg, l)
	if err != nil {
		l.WithError(err).Fatal("LLM provider init error")
	}
	defer model.Close()

	var speech stt.Provider
	if cfg.STTEnabled {
		gs, err := stt.NewGoogleSpeech(ctx)
		if err != nil {
			l.WithError(err).Fatal("speech client init error")
		}
		defer gs.Close()
		speech = gs
	}

	var gcs *storage.GCSStore
	if cfg.GCSBucket != "" {
		gcs, err = storage.NewGCSStore(ctx, cfg.GCSBucket)
		if err != nil {
			l.WithError(err).Fatal("GCS client init error")
		}
		defer gcs.Close()
	}

	interviewRepo := mongorepo.NewInterviewRepo(mdb)
	userRepo := pgrepo.NewUserRepo(pg)
	turnLogRepo := pgrepo.NewTurnLogRepo(pg)

	locker := locks.NewRedisLocker(rdb, locks.Options{TTL: cfg.TurnLockTTL})
	publisher := events.NewRedisPublisher(rdb)
	queue := workers.NewAnalysisQueue(rdb, cfg.AnalysisStream)

	tokens := utils.TokenConfig{
		Secret:   cfg.JWTSecret,
		Issuer:   cfg.JWTIssuer,
		Audience: cfg.JWTAudience,
		TTL:      cfg.JWTTTL,
	}

	interviewDeps := services.InterviewServiceDeps{
		Repo:      interviewRepo,
		Questions: turn.NewQuestionGenerator(model, cfg.AnalysisTimeout, l),
		Cache:     cache.NewRedisQuestionCache(rdb),
		CacheTTL:  cfg.QuestionCacheTTL,
		Locker:    locker,
		Events:    publisher,
		Logger:    l,
	}
	if gcs != nil {
		interviewDeps.Uploader = gcs
		interviewDeps.Signer = gcs
	}
	interviewSvc := services.NewInterviewService(interviewDeps)

	turnSvc := services.NewTurnService(services.TurnServiceDeps{
		Repo: interviewRepo,
		Engine: turn.NewEngine(model, turn.Config{
			LLMTimeout:       cfg.LLMCallTimeout,
			WindowSize:       cfg.DecisionWindow,
			ShortAnswerRunes: cfg.ShortAnswerThreshold,
		}, l),
		Locker:   locker,
		TurnLogs: turnLogRepo,
		STT:      speech,
		Events:   publisher,
		Logger:   l,
	})

	analysisSvc := services.NewAnalysisService(services.AnalysisServiceDeps{
		Repo:      interviewRepo,
		LLM:       model,
		Finalizer: analysis.NewFinalizer(model, cfg.AnalysisTimeout, l),
		Queue:     queue,
		Events:    publisher,
		Timeout:   cfg.AnalysisTimeout,
		Logger:    l,
	})

	pool := &workers.AnalysisWorkerPool{
		Redis:      rdb,
		Runner:     analysisSvc,
		NumWorkers: cfg.AnalysisWorkers,
		Logger:     l,
		Stream:     cfg.AnalysisStream,
		Group:      cfg.AnalysisGroup,
	}
	if err := pool.Start(ctx); err != nil {
		l.WithError(err).Fatal("analysis worker pool start error")
	}

	if !cfg.IsDev() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(l))

	routes.RegisterRoutes(r, routes.Deps{
		Tokens:    tokens,
		Auth:      handlers.NewAuthHandler(services.NewAuthService(userRepo, tokens)),
		Interview: handlers.NewInterviewHandler(interviewSvc, cfg.MaxUploadBytes()),
		Turn:      handlers.NewTurnHandler(turnSvc, services.NewTurnLogService(interviewRepo, turnLogRepo), cfg.MaxUploadBytes()),
		Analysis:  handlers.NewAnalysisHandler(analysisSvc),
		WS:        handlers.NewWSHandler(interviewSvc, turnSvc, publisher, cfg.WSAllowedOrigins),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		l.WithField("port", cfg.Port).Info("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.WithError(err).Fatal("http server error")
		}
	}()

	<-ctx.Done()
	l.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ServerShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		l.WithError(err).Error("http server shutdown error")
	}
}

// buildLLM picks the configured provider and wraps it with metrics and retries.
func buildLLM(ctx context.Context, cfg config.Config, l *logrus.Logger) (llm.Provider, error) {
	var (
		base llm.Provider
		err  error
	)
	switch cfg.LLMProvider {
	case "vertex":
		base, err = llm.NewVertexGemini(ctx, llm.VertexConfig{
			ProjectID:   cfg.VertexProjectID,
			Location:    cfg.VertexLocation,
			Model:       cfg.VertexModel,
			Temperature: cfg.LLMTemperature,
			MaxTokens:   int32(cfg.LLMMaxTokens),
		})
	case "openai":
		base, err = llm.NewOpenAICompat(llm.OpenAICompatConfig{
			APIKey:      cfg.OpenAIAPIKey,
			BaseURL:     cfg.OpenAIBaseURL,
			Model:       cfg.OpenAIModel,
			Temperature: cfg.LLMTemperature,
			MaxTokens:   cfg.LLMMaxTokens,
		})
	case "groq", "":
		base, err = llm.NewOpenAICompat(llm.OpenAICompatConfig{
			APIKey:      cfg.GroqAPIKey,
			BaseURL:     cfg.GroqBaseURL,
			Model:       cfg.GroqModel,
			Temperature: cfg.LLMTemperature,
			MaxTokens:   cfg.LLMMaxTokens,
		})
	default:
		return nil, errors.New("unknown LLM_PROVIDER " + cfg.LLMProvider)
	}
	if err != nil {
		return nil, err
	}

	return llm.WithRetry(llm.WithInstrumentation(base, l), llm.RetryConfig{
		MaxAttempts: cfg.LLMMaxRetries + 1,
	}), nil
}
