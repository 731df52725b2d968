package stories

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"clubnet/internal/domain"
	"clubnet/internal/infra/metrics"
)

// DefaultTTL — время жизни истории по умолчанию.
const DefaultTTL = 24 * time.Hour

// Service реализует бизнес-логику эфемерных историй.
// Истечение — предикат времени чтения, а не фоновое состояние.
type Service struct {
	repo domain.StoryRepo
	ttl  time.Duration
	now  func() time.Time
}

// NewService создаёт сервис историй; неположительный ttl заменяется DefaultTTL.
func NewService(repo domain.StoryRepo, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Service{repo: repo, ttl: ttl, now: time.Now}
}

// Create публикует историю со сроком жизни от момента создания.
func (s *Service) Create(ctx context.Context, userID uuid.UUID, mediaURL string) (domain.Story, error) {
	mediaURL = strings.TrimSpace(mediaURL)
	if mediaURL == "" {
		return domain.Story{}, fmt.Errorf("%w: пустая ссылка на медиа", domain.ErrInvalid)
	}
	if userID == uuid.Nil {
		return domain.Story{}, fmt.Errorf("%w: пустой идентификатор пользователя", domain.ErrInvalid)
	}
	now := s.now().UTC()
	story := domain.Story{
		ID:        uuid.New(),
		AuthorID:  userID,
		MediaURL:  mediaURL,
		ExpiresAt: now.Add(s.ttl),
	}
	created, err := s.repo.CreateStory(ctx, story)
	if err != nil {
		return domain.Story{}, fmt.Errorf("сохранение истории: %w", err)
	}
	metrics.StoriesCreatedTotal.Inc()
	return created, nil
}

// Active возвращает все непросроченные истории, новые первыми.
func (s *Service) Active(ctx context.Context) ([]domain.Story, error) {
	return s.repo.ListActiveStories(ctx, s.now().UTC())
}

// ForUser возвращает непросроченные истории одного автора.
func (s *Service) ForUser(ctx context.Context, userID uuid.UUID) ([]domain.Story, error) {
	return s.repo.ListUserStories(ctx, userID, s.now().UTC())
}

// Delete удаляет историю автора; просроченную — тоже, без ошибки.
func (s *Service) Delete(ctx context.Context, storyID, requesterID uuid.UUID) error {
	story, err := s.repo.GetStory(ctx, storyID)
	if err != nil {
		return fmt.Errorf("получение истории: %w", err)
	}
	if story.AuthorID != requesterID {
		return fmt.Errorf("%w: история принадлежит другому пользователю", domain.ErrForbidden)
	}
	if err := s.repo.DeleteStory(ctx, storyID); err != nil {
		return fmt.Errorf("удаление истории: %w", err)
	}
	return nil
}

// Sweep удаляет просроченные истории из хранилища. Корректность чтений
// от этой уборки не зависит — фильтр по expires_at работает всегда.
func (s *Service) Sweep(ctx context.Context) (int64, error) {
	deleted, err := s.repo.DeleteExpired(ctx, s.now().UTC())
	if err != nil {
		return 0, fmt.Errorf("уборка историй: %w", err)
	}
	metrics.StoriesSweptTotal.Add(float64(deleted))
	return deleted, nil
}
