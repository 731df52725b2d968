package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"clubnet/internal/adapters/repo"
	"clubnet/internal/domain"
	"clubnet/internal/infra/cache"
	"clubnet/internal/infra/config"
	"clubnet/internal/infra/db"
	applog "clubnet/internal/infra/log"
	"clubnet/internal/infra/metrics"
	"clubnet/internal/infra/queue"
	"clubnet/internal/usecase/notifications"
	"clubnet/internal/usecase/profiles"
)

func main() {
	cfg := config.Load()
	logger := applog.NewLogger(cfg.AppEnv, "notifier")

	metrics.MustRegister(prometheus.DefaultRegisterer)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics.StartServer(ctx, logger.With().Str("component", "metrics").Logger(), ":9090")

	pool, err := db.Connect(cfg.PGDSN)
	if err != nil {
		logger.Fatal().Err(err).Msg("notifier: нет подключения к БД")
	}
	defer pool.Close()

	var redisClient *redis.Client
	var unreadCache domain.Cache
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		unreadCache = cache.NewRedis(redisClient)
	}

	repoAdapter := repo.NewPostgres(pool)
	notificationsSvc := notifications.NewService(repoAdapter, unreadCache)
	profilesSvc := profiles.NewService(repoAdapter)

	var events domain.EventQueue
	switch cfg.Queues.Backend {
	case "rabbitmq":
		rabbitQueue, err := queue.NewRabbitEventQueue(cfg.Queues.AMQPURL, cfg.Queues.Engagement)
		if err != nil {
			logger.Fatal().Err(err).Msg("notifier: не удалось инициализировать очередь RabbitMQ")
		}
		defer rabbitQueue.Close()
		events = rabbitQueue
	case "redis":
		if redisClient == nil {
			logger.Fatal().Msg("notifier: не указан адрес Redis (REDIS_ADDR)")
		}
		events = queue.NewRedisEventQueue(redisClient, cfg.Queues.Engagement)
	default:
		logger.Fatal().Str("backend", cfg.Queues.Backend).Msg("notifier: неизвестный бэкенд очереди")
	}

	logger.Info().Str("queue", cfg.Queues.Engagement).Msg("notifier: запущен")
	runLoop(ctx, logger, events, notificationsSvc, profilesSvc)
	logger.Info().Msg("notifier: остановка")
}

func runLoop(ctx context.Context, logger zerolog.Logger, events domain.EventQueue, notificationsSvc *notifications.Service, profilesSvc *profiles.Service) {
	for {
		event, ack, err := events.Receive(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			logger.Error().Err(err).Msg("notifier: ошибка чтения очереди")
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
			continue
		}
		if err := handleEvent(ctx, notificationsSvc, profilesSvc, event); err != nil {
			metrics.EngagementEventsTotal.WithLabelValues("handle_error").Inc()
			logger.Error().Err(err).Str("event_id", event.ID).Msg("notifier: событие не обработано")
			_ = ack(false)
			continue
		}
		metrics.EngagementEventsTotal.WithLabelValues("handled").Inc()
		_ = ack(true)
	}
}

// handleEvent превращает событие вовлечения в уведомление получателю.
func handleEvent(ctx context.Context, notificationsSvc *notifications.Service, profilesSvc *profiles.Service, event domain.EngagementEvent) error {
	actorName := "кто-то"
	if actor, err := profilesSvc.Get(ctx, event.ActorID); err == nil {
		actorName = actor.Username
	}

	var title, body string
	switch event.Type {
	case domain.NotificationTypeLike:
		title = "Новый лайк"
		body = fmt.Sprintf("%s оценил вашу публикацию", actorName)
	case domain.NotificationTypeFollow:
		title = "Новый подписчик"
		body = fmt.Sprintf("%s подписался на вас", actorName)
	default:
		title = "Новое событие"
		body = fmt.Sprintf("%s взаимодействовал с вашим профилем", actorName)
	}

	_, err := notificationsSvc.Create(ctx, event.RecipientID, title, body, event.Type)
	return err
}
