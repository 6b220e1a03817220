package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"agentboard/internal/agent"
	"agentboard/internal/config"
	"agentboard/internal/metrics"
	"agentboard/internal/model"
	mysqlClient "agentboard/internal/platform/mysql"
	rabbitmqClient "agentboard/internal/platform/rabbitmq"
	redisClient "agentboard/internal/platform/redis"
	"agentboard/internal/repository"
	"agentboard/internal/worker"
)

type App struct {
	Config        *config.Config
	MySQL         *gorm.DB
	Redis         *redis.Client
	MQConn        *amqp.Connection
	AgentClient   *agent.Client
	Metrics       *metrics.Collector
	Registry      *prometheus.Registry
	MessageWorker *worker.MessagePersistWorker

	StartedAt time.Time

	closers []func()
}

// RegisterCloser queues fn to run at the start of Close, before the shared
// clients are torn down.
func (a *App) RegisterCloser(fn func()) {
	a.closers = append(a.closers, fn)
}

func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config failed: %w", err)
	}

	mysqlDB, err := mysqlClient.New(ctx, cfg.MySQL)
	if err != nil {
		return nil, err
	}
	if err := mysqlDB.AutoMigrate(&model.User{}, &model.Session{}, &model.Message{}, &model.Project{}); err != nil {
		return nil, fmt.Errorf("auto migrate tables failed: %w", err)
	}

	redisCli, err := redisClient.New(ctx, cfg.Redis)
	if err != nil {
		return nil, err
	}

	mqConn, err := rabbitmqClient.New(ctx, cfg.RabbitMQ)
	if err != nil {
		return nil, err
	}

	agentClient := agent.NewClient(agent.Config{
		BaseURL: cfg.Agent.BaseURL,
		AppName: cfg.Agent.AppName,
		Timeout: time.Duration(cfg.Agent.TimeoutSeconds) * time.Second,
	})

	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	messageRepo := repository.NewMessageRepository(mysqlDB)
	sessionRepo := repository.NewSessionRepository(mysqlDB)
	userRepo := repository.NewUserRepository(mysqlDB)
	messageWorker := worker.NewMessagePersistWorker(mqConn, messageRepo, sessionRepo, userRepo, cfg.RabbitMQ.MessagePersistQueue)
	if err := messageWorker.Start(ctx); err != nil {
		return nil, fmt.Errorf("start message worker failed: %w", err)
	}

	return &App{
		Config:        cfg,
		MySQL:         mysqlDB,
		Redis:         redisCli,
		MQConn:        mqConn,
		AgentClient:   agentClient,
		Metrics:       collector,
		Registry:      registry,
		MessageWorker: messageWorker,
		StartedAt:     time.Now(),
	}, nil
}

func (a *App) Close() error {
	var closeErr error
	for _, fn := range a.closers {
		fn()
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			closeErr = err
		}
	}
	if a.MessageWorker != nil {
		a.MessageWorker.Close()
	}
	if a.MQConn != nil {
		if err := a.MQConn.Close(); err != nil {
			closeErr = err
		}
	}
	if a.MySQL != nil {
		sqlDB, err := a.MySQL.DB()
		if err == nil {
			if err := sqlDB.Close(); err != nil {
				closeErr = err
			}
		}
	}
	return closeErr
}
