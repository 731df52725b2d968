package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"clubnet/internal/adapters/httpapi"
	"clubnet/internal/adapters/identity"
	"clubnet/internal/adapters/repo"
	"clubnet/internal/domain"
	"clubnet/internal/infra/cache"
	"clubnet/internal/infra/config"
	"clubnet/internal/infra/db"
	httpinfra "clubnet/internal/infra/http"
	applog "clubnet/internal/infra/log"
	"clubnet/internal/infra/metrics"
	"clubnet/internal/infra/queue"
	"clubnet/internal/usecase/directory"
	"clubnet/internal/usecase/engagement"
	"clubnet/internal/usecase/feed"
	"clubnet/internal/usecase/notifications"
	"clubnet/internal/usecase/profiles"
	"clubnet/internal/usecase/stories"
)

func main() {
	cfg := config.Load()
	logger := applog.NewLogger(cfg.AppEnv, "api")

	metrics.MustRegister(prometheus.DefaultRegisterer)

	pool, err := db.Connect(cfg.PGDSN)
	if err != nil {
		logger.Fatal().Err(err).Msg("api: нет подключения к БД")
	}
	defer pool.Close()

	repoAdapter := repo.NewPostgres(pool)

	identityClient, err := identity.New(cfg.Identity.BaseURL,
		identity.WithTimeout(time.Duration(cfg.Identity.Timeout)*time.Second))
	if err != nil {
		logger.Fatal().Err(err).Msg("api: не удалось создать клиент шлюза идентификации")
	}

	var redisClient *redis.Client
	var unreadCache domain.Cache
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		unreadCache = cache.NewRedis(redisClient)
	}

	var events domain.EventQueue
	switch cfg.Queues.Backend {
	case "rabbitmq":
		rabbitQueue, err := queue.NewRabbitEventQueue(cfg.Queues.AMQPURL, cfg.Queues.Engagement)
		if err != nil {
			logger.Fatal().Err(err).Msg("api: не удалось инициализировать очередь RabbitMQ")
		}
		defer rabbitQueue.Close()
		events = rabbitQueue
	case "redis":
		if redisClient == nil {
			logger.Warn().Msg("api: REDIS_ADDR не задан, события вовлечения не публикуются")
			break
		}
		events = queue.NewRedisEventQueue(redisClient, cfg.Queues.Engagement)
	default:
		logger.Warn().Str("backend", cfg.Queues.Backend).Msg("api: неизвестный бэкенд очереди, события не публикуются")
	}

	profilesSvc := profiles.NewService(repoAdapter)
	feedSvc := feed.NewService(repoAdapter, repoAdapter, cfg.Feed.DefaultLimit, cfg.Feed.MaxLimit)
	engagementSvc := engagement.NewService(repoAdapter, repoAdapter, events,
		logger.With().Str("component", "engagement").Logger())
	storiesSvc := stories.NewService(repoAdapter, time.Duration(cfg.Stories.TTLHours)*time.Hour)
	notificationsSvc := notifications.NewService(repoAdapter, unreadCache)
	directorySvc := directory.NewService(repoAdapter)

	server := httpinfra.NewServer(logger)
	handler := httpapi.NewHandler(profilesSvc, feedSvc, engagementSvc, storiesSvc, notificationsSvc, directorySvc,
		logger.With().Str("component", "httpapi").Logger())
	handler.Register(server.Router, identityClient)

	go func() {
		if err := server.Start(":" + strconv.Itoa(cfg.Port)); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("api: HTTP сервер остановлен")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGTERM, syscall.SIGINT)
	<-stop
	logger.Info().Msg("api: остановка")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = server.Shutdown(ctx)
}
