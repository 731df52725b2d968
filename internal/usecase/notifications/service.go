package notifications

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"clubnet/internal/domain"
	"clubnet/internal/infra/metrics"
)

// unreadCacheTTL ограничивает время жизни кэшированного счётчика непрочитанных.
const unreadCacheTTL = 30 * time.Second

// Service управляет уведомлениями пользователей.
type Service struct {
	repo  domain.NotificationRepo
	cache domain.Cache
}

// NewService создаёт сервис уведомлений. Кэш может быть nil —
// тогда счётчик непрочитанных всегда читается из хранилища.
func NewService(repo domain.NotificationRepo, cache domain.Cache) *Service {
	return &Service{repo: repo, cache: cache}
}

func unreadKey(userID uuid.UUID) string {
	return "notifications:unread:" + userID.String()
}

// Запись, меняющая число непрочитанных, сбрасывает кэшированный счётчик получателя.
func (s *Service) invalidateUnread(userID uuid.UUID) {
	if s.cache != nil {
		_ = s.cache.Del(unreadKey(userID))
	}
}

// Create сохраняет уведомление; пустой тип заменяется общим.
func (s *Service) Create(ctx context.Context, recipientID uuid.UUID, title, body, typ string) (domain.Notification, error) {
	if recipientID == uuid.Nil {
		return domain.Notification{}, fmt.Errorf("%w: пустой получатель", domain.ErrInvalid)
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return domain.Notification{}, fmt.Errorf("%w: пустой заголовок", domain.ErrInvalid)
	}
	typ = strings.TrimSpace(typ)
	if typ == "" {
		typ = domain.NotificationTypeGeneral
	}
	notification := domain.Notification{
		ID:          uuid.New(),
		RecipientID: recipientID,
		Title:       title,
		Body:        body,
		Type:        typ,
	}
	created, err := s.repo.CreateNotification(ctx, notification)
	if err != nil {
		return domain.Notification{}, fmt.Errorf("создание уведомления: %w", err)
	}
	metrics.NotificationsCreatedTotal.WithLabelValues(created.Type).Inc()
	s.invalidateUnread(created.RecipientID)
	return created, nil
}

// List возвращает уведомления пользователя, новые первыми.
func (s *Service) List(ctx context.Context, userID uuid.UUID) ([]domain.Notification, error) {
	return s.repo.ListNotifications(ctx, userID)
}

// MarkRead помечает уведомление прочитанным; повторная отметка безвредна.
func (s *Service) MarkRead(ctx context.Context, notificationID uuid.UUID) error {
	if err := s.repo.MarkRead(ctx, notificationID); err != nil {
		return fmt.Errorf("отметка уведомления: %w", err)
	}
	return nil
}

// MarkAllRead помечает все непрочитанные уведомления пользователя и
// возвращает число затронутых.
func (s *Service) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	affected, err := s.repo.MarkAllRead(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("массовая отметка уведомлений: %w", err)
	}
	s.invalidateUnread(userID)
	return affected, nil
}

// UnreadCount возвращает число непрочитанных уведомлений. Значение
// кэшируется на короткий TTL; одиночная отметка MarkRead кэш не сбрасывает,
// её эффект виден не позже истечения TTL.
func (s *Service) UnreadCount(ctx context.Context, userID uuid.UUID) (int, error) {
	if s.cache != nil {
		if raw, err := s.cache.Get(unreadKey(userID)); err == nil {
			if count, err := strconv.Atoi(string(raw)); err == nil {
				return count, nil
			}
		}
	}
	count, err := s.repo.CountUnread(ctx, userID)
	if err != nil {
		return 0, err
	}
	if s.cache != nil {
		_ = s.cache.Set(unreadKey(userID), []byte(strconv.Itoa(count)), unreadCacheTTL)
	}
	return count, nil
}
