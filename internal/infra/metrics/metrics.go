package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

var (
	PostsCreatedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "posts_created_total",
		Help: "Количество созданных постов",
	})
	PostsDeletedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "posts_deleted_total",
		Help: "Количество удалённых постов",
	})
	LikesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "likes_total",
		Help: "Количество операций лайка и отмены лайка",
	}, []string{"action"})
	SavesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "saved_posts_total",
		Help: "Количество операций сохранения и отмены сохранения поста",
	}, []string{"action"})
	StoriesCreatedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "stories_created_total",
		Help: "Количество созданных историй",
	})
	StoriesSweptTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "stories_swept_total",
		Help: "Количество удалённых просроченных историй",
	})
	NotificationsCreatedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "notifications_created_total",
		Help: "Количество созданных уведомлений",
	}, []string{"type"})
	EngagementEventsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "engagement_events_total",
		Help: "Количество событий вовлечения по статусу обработки",
	}, []string{"status"})

	NetworkRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "network_request_duration_seconds",
		Help:    "Длительность сетевых запросов",
		Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
	}, []string{"component", "operation", "target", "status"})

	NetworkRequestTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "network_request_total",
		Help: "Количество сетевых запросов",
	}, []string{"component", "operation", "target", "status"})
)

// MustRegister регистрирует метрики.
func MustRegister(registerer prometheus.Registerer) {
	registerer.MustRegister(
		PostsCreatedTotal,
		PostsDeletedTotal,
		LikesTotal,
		SavesTotal,
		StoriesCreatedTotal,
		StoriesSweptTotal,
		NotificationsCreatedTotal,
		EngagementEventsTotal,
		NetworkRequestDuration,
		NetworkRequestTotal,
	)
}

// ObserveNetworkRequest записывает длительность и статус сетевого запроса.
func ObserveNetworkRequest(component, operation, target string, start time.Time, err error) {
	if component == "" {
		component = "unknown"
	}
	if operation == "" {
		operation = "unknown"
	}
	if target == "" {
		target = "unknown"
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	duration := time.Since(start).Seconds()
	NetworkRequestDuration.WithLabelValues(component, operation, target, status).Observe(duration)
	NetworkRequestTotal.WithLabelValues(component, operation, target, status).Inc()
}

// StartServer запускает HTTP сервер с эндпоинтом /metrics.
func StartServer(ctx context.Context, logger zerolog.Logger, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Str("addr", addr).Msg("metrics: сервер остановился с ошибкой")
		}
	}()
}
