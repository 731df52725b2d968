package domain

import (
	"time"

	"github.com/google/uuid"
)

// Profile описывает профиль пользователя соцсети.
type Profile struct {
	ID         uuid.UUID
	Username   string
	FullName   string
	AvatarURL  string
	DistrictID *uuid.UUID
	District   *District
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// ProfileUpdate содержит частичное обновление профиля: nil-поле остаётся нетронутым.
// DistrictID со значением uuid.Nil снимает привязку к округу.
type ProfileUpdate struct {
	FullName   *string
	AvatarURL  *string
	DistrictID *uuid.UUID
}

// District описывает округ, к которому относятся профили и клубы.
type District struct {
	ID        uuid.UUID
	Name      string
	Location  string
	CreatedAt time.Time
}

// Club описывает клуб внутри округа.
type Club struct {
	ID         uuid.UUID
	Name       string
	Location   string
	DistrictID *uuid.UUID
	District   *District
	CreatedAt  time.Time
}

// Post представляет публикацию в ленте.
// LikesCount — производное значение: всегда равно числу фактов лайка по посту.
type Post struct {
	ID         uuid.UUID
	AuthorID   uuid.UUID
	Author     Profile
	Content    string
	MediaURL   string
	LikesCount int
	CreatedAt  time.Time
}

// Story представляет эфемерную медиапубликацию с временем жизни.
type Story struct {
	ID        uuid.UUID
	AuthorID  uuid.UUID
	Author    Profile
	MediaURL  string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Active сообщает, видна ли история в указанный момент времени.
func (s Story) Active(now time.Time) bool {
	return now.Before(s.ExpiresAt)
}

// Notification описывает уведомление пользователя.
type Notification struct {
	ID          uuid.UUID
	RecipientID uuid.UUID
	Title       string
	Body        string
	Type        string
	IsRead      bool
	CreatedAt   time.Time
}

// Типы уведомлений.
const (
	NotificationTypeGeneral = "general"
	NotificationTypeLike    = "like"
	NotificationTypeFollow  = "follow"
)
