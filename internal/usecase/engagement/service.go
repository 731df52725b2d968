package engagement

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"clubnet/internal/domain"
	"clubnet/internal/infra/metrics"
)

// Service ведёт факты лайков и закладок и держит счётчик лайков
// согласованным с фактами.
type Service struct {
	ledger domain.EngagementRepo
	posts  domain.FeedRepo
	queue  domain.EventQueue
	log    zerolog.Logger
	now    func() time.Time
}

// NewService создаёт сервис вовлечения. Очередь событий может быть nil —
// тогда события не публикуются.
func NewService(ledger domain.EngagementRepo, posts domain.FeedRepo, queue domain.EventQueue, logger zerolog.Logger) *Service {
	return &Service{ledger: ledger, posts: posts, queue: queue, log: logger, now: time.Now}
}

// Like проставляет лайк: факт и инкремент счётчика применяются как одно целое.
// Повторный лайк возвращает ErrConflict, счётчик при этом не меняется.
func (s *Service) Like(ctx context.Context, userID, postID uuid.UUID) error {
	if userID == uuid.Nil || postID == uuid.Nil {
		return fmt.Errorf("%w: пустой идентификатор", domain.ErrInvalid)
	}
	if err := s.ledger.LikePost(ctx, userID, postID); err != nil {
		return fmt.Errorf("лайк поста: %w", err)
	}
	metrics.LikesTotal.WithLabelValues("like").Inc()
	s.publishLikeEvent(ctx, userID, postID)
	return nil
}

// Событие вовлечения публикуется после успешного лайка и не влияет на его исход.
func (s *Service) publishLikeEvent(ctx context.Context, userID, postID uuid.UUID) {
	if s.queue == nil {
		return
	}
	post, err := s.posts.GetPost(ctx, postID)
	if err != nil {
		s.log.Warn().Err(err).Str("post_id", postID.String()).Msg("событие лайка: пост недоступен")
		return
	}
	if post.AuthorID == userID {
		return
	}
	event := domain.EngagementEvent{
		ID:          uuid.NewString(),
		Type:        domain.NotificationTypeLike,
		ActorID:     userID,
		RecipientID: post.AuthorID,
		PostID:      postID,
		OccurredAt:  s.now().UTC(),
	}
	if err := s.queue.Publish(ctx, event); err != nil {
		metrics.EngagementEventsTotal.WithLabelValues("publish_error").Inc()
		s.log.Warn().Err(err).Str("post_id", postID.String()).Msg("событие лайка: публикация не удалась")
		return
	}
	metrics.EngagementEventsTotal.WithLabelValues("published").Inc()
}

// Unlike снимает лайк; отсутствие факта — ErrNotFound, счётчик не меняется.
func (s *Service) Unlike(ctx context.Context, userID, postID uuid.UUID) error {
	if userID == uuid.Nil || postID == uuid.Nil {
		return fmt.Errorf("%w: пустой идентификатор", domain.ErrInvalid)
	}
	if err := s.ledger.UnlikePost(ctx, userID, postID); err != nil {
		return fmt.Errorf("снятие лайка: %w", err)
	}
	metrics.LikesTotal.WithLabelValues("unlike").Inc()
	return nil
}

// IsLiked сообщает, лайкнул ли пользователь пост; отсутствие факта — false.
func (s *Service) IsLiked(ctx context.Context, userID, postID uuid.UUID) (bool, error) {
	return s.ledger.IsLiked(ctx, userID, postID)
}

// Save добавляет пост в закладки; закладка не влияет на счётчики поста.
func (s *Service) Save(ctx context.Context, userID, postID uuid.UUID) error {
	if userID == uuid.Nil || postID == uuid.Nil {
		return fmt.Errorf("%w: пустой идентификатор", domain.ErrInvalid)
	}
	if err := s.ledger.SavePost(ctx, userID, postID); err != nil {
		return fmt.Errorf("сохранение закладки: %w", err)
	}
	metrics.SavesTotal.WithLabelValues("save").Inc()
	return nil
}

// Unsave убирает пост из закладок.
func (s *Service) Unsave(ctx context.Context, userID, postID uuid.UUID) error {
	if userID == uuid.Nil || postID == uuid.Nil {
		return fmt.Errorf("%w: пустой идентификатор", domain.ErrInvalid)
	}
	if err := s.ledger.UnsavePost(ctx, userID, postID); err != nil {
		return fmt.Errorf("удаление закладки: %w", err)
	}
	metrics.SavesTotal.WithLabelValues("unsave").Inc()
	return nil
}

// IsSaved сообщает, есть ли пост в закладках пользователя.
func (s *Service) IsSaved(ctx context.Context, userID, postID uuid.UUID) (bool, error) {
	return s.ledger.IsSaved(ctx, userID, postID)
}

// SavedPosts возвращает закладки пользователя с данными авторов, свежие первыми.
func (s *Service) SavedPosts(ctx context.Context, userID uuid.UUID) ([]domain.Post, error) {
	return s.ledger.ListSavedPosts(ctx, userID)
}
