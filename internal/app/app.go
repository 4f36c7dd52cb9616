package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"neuralflux/config"
	aiconfig "neuralflux/internal/config"
	"neuralflux/internal/cache"
	"neuralflux/internal/messaging"
	"neuralflux/internal/metrics"
	"neuralflux/internal/repository"
	"neuralflux/internal/service"
	"neuralflux/internal/transport/ws"
)

const connectTimeout = 10 * time.Second

// App holds the connected backing stores and every service of the server
type App struct {
	Mongo *mongo.Client
	Redis *redis.Client

	QuestionRepo    repository.QuestionRepo
	GameRecordRepo  repository.GameRecordRepo
	PlayerStatsRepo repository.PlayerStatsRepo
	SessionCache    cache.SessionCache
	PlayerCache     cache.PlayerCache
	Leaderboard     cache.LeaderboardCache
	Publisher       *messaging.EventPublisher

	Registry *prometheus.Registry
	Metrics  *metrics.Metrics
	Tuning   *aiconfig.Tuning

	Gateway  *service.AIGateway
	Scoring  *service.ScoringService
	Stats    *service.StatsService
	Sessions *service.SessionService
	WSHub    *ws.Hub
}

// New connects MongoDB, Redis and the optional broker and wires the services
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	tuning, err := aiconfig.LoadTuning(cfg.GameConfigPath)
	if err != nil {
		return nil, err
	}

	mongoClient, err := ConnectMongo(ctx, cfg.MongoURI)
	if err != nil {
		return nil, err
	}
	rdb, err := ConnectRedis(ctx, cfg.RedisAddr)
	if err != nil {
		_ = mongoClient.Disconnect(ctx)
		return nil, err
	}
	publisher, err := messaging.NewEventPublisher(cfg.AMQPURL, logger)
	if err != nil {
		_ = rdb.Close()
		_ = mongoClient.Disconnect(ctx)
		return nil, err
	}

	db := mongoClient.Database(cfg.MongoDB)
	a := &App{
		Mongo:           mongoClient,
		Redis:           rdb,
		QuestionRepo:    repository.NewQuestionRepo(db),
		GameRecordRepo:  repository.NewGameRecordRepo(db),
		PlayerStatsRepo: repository.NewPlayerStatsRepo(db),
		SessionCache:    cache.NewSessionCache(rdb),
		PlayerCache:     cache.NewPlayerCache(rdb),
		Leaderboard:     cache.NewLeaderboardCache(rdb),
		Publisher:       publisher,
		Registry:        prometheus.NewRegistry(),
		Tuning:          tuning,
	}

	if err := a.GameRecordRepo.EnsureIndexes(ctx); err != nil {
		logger.Warn("failed to ensure game record indexes", zap.Error(err))
	}

	a.Registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	a.Metrics = metrics.New(a.Registry)

	aiCfg := aiconfig.DefaultAIConfig()
	a.Gateway = service.NewAIGateway(aiCfg, logger, a.Metrics)
	a.Scoring = service.NewScoringService(a.Gateway, a.QuestionRepo, tuning.Scoring, logger, a.Metrics)
	a.Stats = service.NewStatsService(a.GameRecordRepo, a.PlayerStatsRepo, a.PlayerCache, a.Leaderboard, publisher, logger, a.Metrics)
	a.Sessions = service.NewSessionService(a.Scoring, tuning.Game, a.Stats, a.SessionCache, logger, a.Metrics)

	// Hub implements service.Broadcaster
	a.WSHub = ws.NewHub(logger)
	a.Sessions.SetBroadcaster(a.WSHub)

	if aiCfg.IsEnabled() {
		logger.Info("oracle configured", zap.String("model", aiCfg.Model), zap.String("url", aiCfg.BaseURL))
	} else {
		logger.Warn("ORACLE_API_KEY not set, using question bank and heuristic scoring")
	}
	return a, nil
}

// NewOffline wires only the scoring pipeline, for commands that need no stores
func NewOffline(cfg *config.Config, logger *zap.Logger) (*service.ScoringService, error) {
	tuning, err := aiconfig.LoadTuning(cfg.GameConfigPath)
	if err != nil {
		return nil, err
	}
	m := metrics.NewNop()
	gateway := service.NewAIGateway(aiconfig.DefaultAIConfig(), logger, m)
	return service.NewScoringService(gateway, nil, tuning.Scoring, logger, m), nil
}

// Close ends live sessions and releases every connection
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if err := a.Sessions.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("sessions: %w", err))
	}
	a.WSHub.Close()
	if err := a.Publisher.Close(); err != nil {
		errs = append(errs, fmt.Errorf("publisher: %w", err))
	}
	if err := a.Redis.Close(); err != nil {
		errs = append(errs, fmt.Errorf("redis: %w", err))
	}
	if err := a.Mongo.Disconnect(ctx); err != nil {
		errs = append(errs, fmt.Errorf("mongo: %w", err))
	}
	return errors.Join(errs...)
}

// ConnectMongo dials MongoDB and verifies the connection
func ConnectMongo(ctx context.Context, uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}
	return client, nil
}

// ConnectRedis dials Redis and verifies the connection
func ConnectRedis(ctx context.Context, addr string) (*redis.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	rdb := redis.NewClient(&redis.Options{Addr: addr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}
	return rdb, nil
}
