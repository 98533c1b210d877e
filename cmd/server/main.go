package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/codegate/api/internal/app"
	"github.com/codegate/api/internal/config"
	"github.com/codegate/api/internal/infra/http"
	"github.com/codegate/api/internal/infra/http/handler"
	"github.com/codegate/api/internal/infra/http/routes"
	"github.com/codegate/api/internal/infra/jobs"
	"github.com/codegate/api/internal/infra/llm"
	"github.com/codegate/api/internal/infra/notification"
	"github.com/codegate/api/internal/infra/postgres"
	"github.com/codegate/api/internal/infra/redis"
	"github.com/codegate/api/internal/infra/shannon"
	"github.com/codegate/api/internal/infra/staticanalysis"
	"github.com/codegate/api/pkg/domain/scan"
	"github.com/codegate/api/pkg/domain/vulnerability"
	"github.com/codegate/api/pkg/logger"
	"github.com/codegate/api/pkg/migrations"
	"github.com/codegate/api/pkg/validator"
)

var (
	migrate       = flag.Bool("migrate", false, "Run pending database migrations before starting")
	migrationsDir = flag.String("migrations-dir", "migrations", "Directory containing migration files")
)

func main() {
	flag.Parse()
	os.Exit(run())
}

func run() int {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log := logger.NewDefault()
		log.Error("failed to load configuration", "error", err)
		return 1
	}

	log := initLogger(cfg)
	log.Info("starting application", "app", cfg.App.Name, "env", cfg.App.Env)

	// Infrastructure
	db, err := postgres.New(&cfg.Database)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		return 1
	}
	defer closeWithLog(db, "database", log)
	log.Info("database connected")

	if *migrate {
		runner := migrations.NewRunner(db.DB, *migrationsDir)
		if err := runner.Up(ctx); err != nil {
			log.Error("failed to run migrations", "error", err)
			return 1
		}
		log.Info("migrations applied")
	}

	redisClient, err := redis.New(&cfg.Redis, log)
	if err != nil {
		log.Error("failed to connect to redis", "error", err)
		return 1
	}
	defer closeWithLog(redisClient, "redis", log)

	// Repositories
	scanRepo := postgres.NewScanRepository(db)
	findingRepo := postgres.NewFindingRepository(db)
	scoreRepo := postgres.NewDomainScoreRepository(db)
	radarRepo := postgres.NewRadarRepository(db)
	ruleRepo := postgres.NewGovernanceRuleRepository(db)
	log.Info("repositories initialized")

	// Validators
	provider, err := llm.NewProvider(cfg.AI)
	if err != nil {
		log.Error("failed to initialize AI provider", "error", err)
		return 1
	}
	aiValidator := app.NewAIValidator(provider, cfg.AI.MaxTokens, log)

	exploitValidator := shannon.NewClient(cfg.Shannon, log)
	analyzer := staticanalysis.NewAnalyzer(log)

	// Job queue
	jobClient := jobs.NewClient(jobs.ClientConfig{
		RedisAddr:     cfg.Redis.Addr(),
		RedisPassword: cfg.Redis.Password,
		RedisDB:       cfg.Redis.DB,
	}, log)
	defer closeWithLog(jobClient, "job client", log)

	// Services
	scoring := scan.DefaultScoreConfig()
	scoring.CriticalBlockCount = cfg.Scan.CriticalBlockCount
	scoring.MinSecureCodingScore = cfg.Scan.MinSecureCodingScore

	scanService := app.NewScanService(
		scanRepo, findingRepo, analyzer, aiValidator, exploitValidator, log,
		app.WithMaxParallelScans(cfg.Scan.MaxParallelScans),
		app.WithValidationConcurrency(cfg.Scan.ValidationConcurrency),
		app.WithFusionConfig(vulnerability.FusionConfig{
			AgreementBoost:        cfg.Scan.FusionBoost,
			AIOnlyMultiplier:      cfg.Scan.AIOnlyMultiplier,
			ShannonOnlyMultiplier: cfg.Scan.ShannonOnlyMultiplier,
		}),
		app.WithScoreConfig(scoring),
	)
	scanQueue := app.NewScanQueue(scanService, cfg.Scan.MaxConcurrent, log)

	radarService := app.NewRadarService(scoreRepo, radarRepo, jobClient, log,
		app.WithDecayPolicy(decayWindow(cfg), cfg.Radar.DecayFactor),
	)
	radarService.SetCache(redis.NewRadarCache(redisClient, 0, log))

	governanceService := app.NewGovernanceService(ruleRepo, radarRepo, scanRepo, findingRepo, log)
	governanceService.SetRadarEnqueuer(jobClient)
	governanceService.SetMinSecureCodingScore(cfg.Scan.MinSecureCodingScore)
	if cfg.Notification.OwnerWebhookURL != "" {
		governanceService.SetOwnerNotifier(notification.NewWebhookNotifier(cfg.Notification, log))
	}
	log.Info("services initialized")

	// Background worker
	worker := jobs.NewWorker(jobs.WorkerConfig{
		RedisAddr:     cfg.Redis.Addr(),
		RedisPassword: cfg.Redis.Password,
		RedisDB:       cfg.Redis.DB,
		Concurrency:   cfg.Worker.Concurrency,
	}, radarService, governanceService, log)

	if err := worker.Start(); err != nil {
		log.Error("failed to start job worker", "error", err)
		return 1
	}
	defer worker.Stop()

	// Maintenance scheduler
	scheduler := jobs.NewScheduler(jobClient, log)
	if err := scheduler.ScheduleRadarDecay(cfg.Radar.DecaySchedule); err != nil {
		log.Error("failed to schedule radar decay", "error", err)
		return 1
	}
	scheduler.Start()
	defer scheduler.Stop()

	// HTTP server
	v := validator.New()
	handlers := routes.Handlers{
		Health: handler.NewHealthHandler(
			handler.WithDatabase(db),
			handler.WithRedis(redisClient),
			handler.WithExploitValidator(exploitValidator),
		),
		Scan:          handler.NewScanHandler(scanQueue, scanService, v, log),
		Vulnerability: handler.NewVulnerabilityHandler(scanService, v, log),
		Radar:         handler.NewRadarHandler(radarService, jobClient, v, log),
		Governance:    handler.NewGovernanceHandler(governanceService, v, log),
	}

	server := http.NewServer(cfg, log)
	routes.Register(server.Router(), handlers)

	go func() {
		if err := server.Start(); err != nil {
			log.Error("server error", "error", err)
		}
	}()
	log.Info("application started", "http_addr", cfg.Server.Addr())

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", "error", err)
		return 1
	}

	log.Info("application stopped")
	return 0
}

// decayWindow converts the configured staleness window to a duration.
func decayWindow(cfg *config.Config) time.Duration {
	return time.Duration(cfg.Radar.DecayAfterDays) * 24 * time.Hour
}

func initLogger(cfg *config.Config) *logger.Logger {
	if cfg.App.Debug && !cfg.IsProduction() {
		return logger.NewDevelopment()
	}
	return logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})
}

type closer interface {
	Close() error
}

func closeWithLog(c closer, name string, log *logger.Logger) {
	if err := c.Close(); err != nil {
		log.Error("failed to close "+name, "error", err)
	}
}
