package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"clubnet/internal/adapters/repo"
	"clubnet/internal/infra/cache"
	"clubnet/internal/infra/config"
	"clubnet/internal/infra/db"
	applog "clubnet/internal/infra/log"
	"clubnet/internal/infra/metrics"
	"clubnet/internal/usecase/stories"
)

const sweepLockKey = "stories:sweep"

const (
	defaultSweepInterval = 30 * time.Minute
	defaultLockTTL       = 60 * time.Second
)

// sweepInterval переводит конфиг в период уборки; неположительное
// значение заменяется периодом по умолчанию, иначе тикер паникует.
func sweepInterval(minutes int) time.Duration {
	if minutes <= 0 {
		return defaultSweepInterval
	}
	return time.Duration(minutes) * time.Minute
}

// sweepLockTTL переводит конфиг в срок жизни замка.
func sweepLockTTL(seconds int) time.Duration {
	if seconds <= 0 {
		return defaultLockTTL
	}
	return time.Duration(seconds) * time.Second
}

func main() {
	cfg := config.Load()
	logger := applog.NewLogger(cfg.AppEnv, "sweeper")

	metrics.MustRegister(prometheus.DefaultRegisterer)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics.StartServer(ctx, logger.With().Str("component", "metrics").Logger(), ":9091")

	pool, err := db.Connect(cfg.PGDSN)
	if err != nil {
		logger.Fatal().Err(err).Msg("sweeper: нет подключения к БД")
	}
	defer pool.Close()

	var locker *cache.RedisCache
	if cfg.RedisAddr != "" {
		locker = cache.NewRedis(redis.NewClient(&redis.Options{Addr: cfg.RedisAddr}))
	} else {
		logger.Warn().Msg("sweeper: Redis не настроен, блокировка между экземплярами отключена")
	}

	storiesSvc := stories.NewService(repo.NewPostgres(pool), time.Duration(cfg.Stories.TTLHours)*time.Hour)

	interval := sweepInterval(cfg.Stories.SweepMinutes)
	lockTTL := sweepLockTTL(cfg.Stories.SweepLockSecs)

	logger.Info().Dur("interval", interval).Msg("sweeper: запущен")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	sweep(ctx, logger, storiesSvc, locker, lockTTL)
	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("sweeper: остановка")
			return
		case <-ticker.C:
			sweep(ctx, logger, storiesSvc, locker, lockTTL)
		}
	}
}

// sweep удаляет просроченные истории; при настроенном Redis проход выполняет только один экземпляр.
func sweep(ctx context.Context, logger zerolog.Logger, svc *stories.Service, locker *cache.RedisCache, lockTTL time.Duration) {
	run := func() error {
		deleted, err := svc.Sweep(ctx)
		if err != nil {
			return err
		}
		if deleted > 0 {
			logger.Info().Int64("deleted", deleted).Msg("sweeper: просроченные истории удалены")
		}
		return nil
	}

	var err error
	if locker != nil {
		err = locker.Once(sweepLockKey, lockTTL, run)
	} else {
		err = run()
	}
	if err != nil {
		logger.Error().Err(err).Msg("sweeper: проход не удался")
	}
}
