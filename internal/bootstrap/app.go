package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/DEVector-it/mythai.github.io/internal/ai"
	"github.com/DEVector-it/mythai.github.io/internal/config"
	"github.com/DEVector-it/mythai.github.io/internal/model"
	"github.com/DEVector-it/mythai.github.io/internal/plan"
	databaseClient "github.com/DEVector-it/mythai.github.io/internal/platform/database"
	rabbitmqClient "github.com/DEVector-it/mythai.github.io/internal/platform/rabbitmq"
	redisClient "github.com/DEVector-it/mythai.github.io/internal/platform/redis"
	"github.com/DEVector-it/mythai.github.io/internal/repository"
	"github.com/DEVector-it/mythai.github.io/internal/stream"
	"github.com/DEVector-it/mythai.github.io/internal/worker"
)

// App holds the long-lived pieces of the process: configuration,
// connections, the LLM provider and the background journal worker.
// Request-scoped wiring happens in the HTTP router.
type App struct {
	Config        *config.Config
	Logger        *zap.Logger
	Database      *gorm.DB
	Redis         *redis.Client
	MQConn        *amqp.Connection
	JournalWorker *worker.TurnJournalWorker
	Provider      ai.Provider
	Plans         *plan.Registry
	Sessions      *stream.Registry

	StartedAt time.Time
}

func New(ctx context.Context, logger *zap.Logger) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config failed: %w", err)
	}

	db, err := databaseClient.New(ctx, cfg.Database.Driver, cfg.DatabaseDSN())
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(
		&model.User{},
		&model.Chat{},
		&model.Message{},
		&model.Setting{},
		&model.TurnRecord{},
	); err != nil {
		return nil, fmt.Errorf("auto migrate tables failed: %w", err)
	}

	if err := seed(db, cfg, logger); err != nil {
		return nil, err
	}

	var redisCli *redis.Client
	if cfg.Redis.Enabled && cfg.Redis.Addr != "" {
		redisCli, err = redisClient.New(ctx, redisClient.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			PoolSize: cfg.Redis.PoolSize,
		})
		if err != nil {
			return nil, err
		}
	} else {
		logger.Warn("redis disabled, history cache is off")
	}

	var mqConn *amqp.Connection
	var journalWorker *worker.TurnJournalWorker
	if cfg.RabbitMQ.Enabled && cfg.RabbitMQ.URL != "" {
		mqConn, err = rabbitmqClient.New(ctx, cfg.RabbitMQ.URL, cfg.RabbitMQ.TurnJournalQueue)
		if err != nil {
			return nil, err
		}
		turnRecordRepo := repository.NewTurnRecordRepository(db)
		journalWorker = worker.NewTurnJournalWorker(mqConn, turnRecordRepo, cfg.RabbitMQ.TurnJournalQueue, logger)
		if err := journalWorker.Start(ctx); err != nil {
			return nil, fmt.Errorf("start journal worker failed: %w", err)
		}
	} else {
		logger.Warn("rabbitmq disabled, turn journal is off")
	}

	provider, err := newProvider(ctx, cfg)
	if err != nil {
		return nil, err
	}

	return &App{
		Config:        cfg,
		Logger:        logger,
		Database:      db,
		Redis:         redisCli,
		MQConn:        mqConn,
		JournalWorker: journalWorker,
		Provider:      provider,
		Plans:         newPlanRegistry(cfg),
		Sessions:      stream.NewRegistry(),
		StartedAt:     time.Now(),
	}, nil
}

func newProvider(ctx context.Context, cfg *config.Config) (ai.Provider, error) {
	switch cfg.LLM.Provider {
	case "openai":
		return ai.NewOpenAIProvider(cfg.LLM.BaseURL, cfg.LLM.APIKey), nil
	case "gemini", "":
		provider, err := ai.NewGeminiProvider(ctx, cfg.LLM.GeminiAPIKey)
		if err != nil {
			return nil, fmt.Errorf("init gemini provider failed: %w", err)
		}
		return provider, nil
	default:
		return nil, fmt.Errorf("unsupported llm provider %q", cfg.LLM.Provider)
	}
}

func newPlanRegistry(cfg *config.Config) *plan.Registry {
	tiers := make(map[string]plan.Plan, len(cfg.Plans.Tiers))
	for id, tier := range cfg.Plans.Tiers {
		tiers[id] = plan.Plan{
			DailyLimit: tier.DailyLimit,
			Models:     tier.Models,
		}
	}
	return plan.NewRegistry(tiers)
}

// seed creates the initial admin account and the announcement row on
// first boot. Both are skipped once present, so redeploys never clobber
// changes made through the admin API.
func seed(db *gorm.DB, cfg *config.Config, logger *zap.Logger) error {
	userRepo := repository.NewUserRepository(db)
	settingRepo := repository.NewSettingRepository(db)

	existing, err := userRepo.GetByUsername(cfg.Seed.AdminUsername)
	if err != nil {
		return err
	}
	if existing == nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(cfg.Seed.AdminPassword), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("hash seed admin password failed: %w", err)
		}
		admin := &model.User{
			ID:            uuid.NewString(),
			Username:      cfg.Seed.AdminUsername,
			PasswordHash:  string(hash),
			Role:          model.RoleAdmin,
			Plan:          cfg.Plans.Upgrade,
			LastResetDate: time.Now().Format("2006-01-02"),
		}
		if err := userRepo.Create(admin); err != nil {
			return err
		}
		logger.Info("seeded admin account", zap.String("username", admin.Username))
	}

	hasAnnouncement, err := settingRepo.Has(model.SettingAnnouncement)
	if err != nil {
		return err
	}
	if !hasAnnouncement {
		if err := settingRepo.Set(model.SettingAnnouncement, cfg.Seed.Announcement); err != nil {
			return err
		}
	}
	return nil
}

func (a *App) Close() error {
	var closeErr error
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			closeErr = err
		}
	}
	if a.JournalWorker != nil {
		a.JournalWorker.Close()
	}
	if a.MQConn != nil {
		if err := a.MQConn.Close(); err != nil {
			closeErr = err
		}
	}
	if a.Database != nil {
		sqlDB, err := a.Database.DB()
		if err == nil {
			if err := sqlDB.Close(); err != nil {
				closeErr = err
			}
		}
	}
	return closeErr
}
