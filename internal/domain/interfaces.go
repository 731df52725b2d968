package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ProfileRepo управляет профилями пользователей.
type ProfileRepo interface {
	CreateProfile(ctx context.Context, profile Profile) (Profile, error)
	GetProfile(ctx context.Context, userID uuid.UUID) (Profile, error)
	GetProfileByUsername(ctx context.Context, username string) (Profile, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, update ProfileUpdate) (Profile, error)
}

// FeedRepo управляет постами ленты.
type FeedRepo interface {
	CreatePost(ctx context.Context, post Post) (Post, error)
	GetPost(ctx context.Context, postID uuid.UUID) (Post, error)
	ListPosts(ctx context.Context, limit, offset int) ([]Post, error)
	// DeletePost удаляет пост и каскадно все факты лайков и закладок по нему.
	DeletePost(ctx context.Context, postID uuid.UUID) error
}

// EngagementRepo ведёт факты лайков и закладок и согласованный счётчик лайков поста.
// LikePost и UnlikePost применяют факт и счётчик одной транзакцией.
type EngagementRepo interface {
	LikePost(ctx context.Context, userID, postID uuid.UUID) error
	UnlikePost(ctx context.Context, userID, postID uuid.UUID) error
	IsLiked(ctx context.Context, userID, postID uuid.UUID) (bool, error)
	SavePost(ctx context.Context, userID, postID uuid.UUID) error
	UnsavePost(ctx context.Context, userID, postID uuid.UUID) error
	IsSaved(ctx context.Context, userID, postID uuid.UUID) (bool, error)
	ListSavedPosts(ctx context.Context, userID uuid.UUID) ([]Post, error)
}

// StoryRepo управляет историями.
type StoryRepo interface {
	CreateStory(ctx context.Context, story Story) (Story, error)
	GetStory(ctx context.Context, storyID uuid.UUID) (Story, error)
	ListActiveStories(ctx context.Context, now time.Time) ([]Story, error)
	ListUserStories(ctx context.Context, userID uuid.UUID, now time.Time) ([]Story, error)
	DeleteStory(ctx context.Context, storyID uuid.UUID) error
	// DeleteExpired удаляет просроченные истории и возвращает число удалённых строк.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// NotificationRepo управляет уведомлениями пользователя.
type NotificationRepo interface {
	CreateNotification(ctx context.Context, notification Notification) (Notification, error)
	ListNotifications(ctx context.Context, userID uuid.UUID) ([]Notification, error)
	MarkRead(ctx context.Context, notificationID uuid.UUID) error
	MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error)
	CountUnread(ctx context.Context, userID uuid.UUID) (int, error)
}

// DirectoryRepo отдаёт справочник округов и клубов.
type DirectoryRepo interface {
	ListDistricts(ctx context.Context) ([]District, error)
	GetDistrict(ctx context.Context, districtID uuid.UUID) (District, error)
	SearchDistricts(ctx context.Context, term string) ([]District, error)
	ListClubs(ctx context.Context) ([]Club, error)
	ListClubsByDistrict(ctx context.Context, districtID uuid.UUID) ([]Club, error)
	GetClub(ctx context.Context, clubID uuid.UUID) (Club, error)
	SearchClubs(ctx context.Context, term string) ([]Club, error)
}

// Identity описывает внешний шлюз идентификации: по токену возвращает
// стабильный идентификатор пользователя. Ядро не работает с паролями и сессиями.
type Identity interface {
	Authenticate(ctx context.Context, token string) (uuid.UUID, error)
}

// Cache используется для простых TTL-хранилищ и распределённых замков.
type Cache interface {
	Once(key string, ttl time.Duration, fn func() error) error
	Set(key string, value []byte, ttl time.Duration) error
	Get(key string) ([]byte, error)
	Del(key string) error
}
