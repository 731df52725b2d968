package feed

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"clubnet/internal/domain"
	"clubnet/internal/infra/metrics"
)

// Service реализует бизнес-логику ленты постов.
type Service struct {
	posts        domain.FeedRepo
	profiles     domain.ProfileRepo
	defaultLimit int
	maxLimit     int
}

// NewService создаёт сервис ленты.
func NewService(posts domain.FeedRepo, profiles domain.ProfileRepo, defaultLimit, maxLimit int) *Service {
	return &Service{posts: posts, profiles: profiles, defaultLimit: defaultLimit, maxLimit: maxLimit}
}

// DefaultLimit возвращает размер окна ленты по умолчанию.
func (s *Service) DefaultLimit() int {
	return s.defaultLimit
}

// CreatePost публикует пост; автор обязан существовать, контент — быть непустым.
func (s *Service) CreatePost(ctx context.Context, userID uuid.UUID, content, mediaURL string) (domain.Post, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return domain.Post{}, fmt.Errorf("%w: пустой контент поста", domain.ErrInvalid)
	}
	author, err := s.profiles.GetProfile(ctx, userID)
	if err != nil {
		return domain.Post{}, fmt.Errorf("получение автора: %w", err)
	}
	post := domain.Post{
		ID:       uuid.New(),
		AuthorID: author.ID,
		Content:  content,
		MediaURL: strings.TrimSpace(mediaURL),
	}
	created, err := s.posts.CreatePost(ctx, post)
	if err != nil {
		return domain.Post{}, fmt.Errorf("сохранение поста: %w", err)
	}
	created.Author = author
	metrics.PostsCreatedTotal.Inc()
	return created, nil
}

// GetPost возвращает пост с данными автора.
func (s *Service) GetPost(ctx context.Context, postID uuid.UUID) (domain.Post, error) {
	return s.posts.GetPost(ctx, postID)
}

// ListPosts возвращает окно ленты [offset, offset+limit), новые первыми.
// Нулевая ширина окна — пустой результат, а не ошибка.
func (s *Service) ListPosts(ctx context.Context, limit, offset int) ([]domain.Post, error) {
	if limit < 0 || offset < 0 {
		return nil, fmt.Errorf("%w: отрицательная пагинация", domain.ErrInvalid)
	}
	if limit == 0 {
		return []domain.Post{}, nil
	}
	if s.maxLimit > 0 && limit > s.maxLimit {
		limit = s.maxLimit
	}
	return s.posts.ListPosts(ctx, limit, offset)
}

// DeletePost удаляет пост автора вместе со всеми фактами лайков и закладок.
func (s *Service) DeletePost(ctx context.Context, postID, requesterID uuid.UUID) error {
	post, err := s.posts.GetPost(ctx, postID)
	if err != nil {
		return fmt.Errorf("получение поста: %w", err)
	}
	if post.AuthorID != requesterID {
		return fmt.Errorf("%w: пост принадлежит другому пользователю", domain.ErrForbidden)
	}
	if err := s.posts.DeletePost(ctx, postID); err != nil {
		return fmt.Errorf("удаление поста: %w", err)
	}
	metrics.PostsDeletedTotal.Inc()
	return nil
}
