package profiles

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"clubnet/internal/domain"
)

// Service управляет профилями пользователей.
type Service struct {
	repo domain.ProfileRepo
}

// NewService создаёт сервис профилей.
func NewService(repo domain.ProfileRepo) *Service {
	return &Service{repo: repo}
}

// Create заводит профиль при первой регистрации: идентификатор выдан шлюзом
// идентификации, пустое полное имя заменяется именем пользователя.
func (s *Service) Create(ctx context.Context, userID uuid.UUID, username, fullName string) (domain.Profile, error) {
	if userID == uuid.Nil {
		return domain.Profile{}, fmt.Errorf("%w: пустой идентификатор пользователя", domain.ErrInvalid)
	}
	username = strings.TrimSpace(username)
	if username == "" {
		return domain.Profile{}, fmt.Errorf("%w: пустое имя пользователя", domain.ErrInvalid)
	}
	fullName = strings.TrimSpace(fullName)
	if fullName == "" {
		fullName = username
	}
	profile := domain.Profile{ID: userID, Username: username, FullName: fullName}
	created, err := s.repo.CreateProfile(ctx, profile)
	if err != nil {
		return domain.Profile{}, fmt.Errorf("создание профиля: %w", err)
	}
	return created, nil
}

// Get возвращает профиль с округом.
func (s *Service) Get(ctx context.Context, userID uuid.UUID) (domain.Profile, error) {
	return s.repo.GetProfile(ctx, userID)
}

// GetByUsername возвращает профиль по точному имени пользователя.
func (s *Service) GetByUsername(ctx context.Context, username string) (domain.Profile, error) {
	return s.repo.GetProfileByUsername(ctx, username)
}

// Update применяет частичное обновление профиля; менять профиль может только владелец.
func (s *Service) Update(ctx context.Context, callerID, userID uuid.UUID, update domain.ProfileUpdate) (domain.Profile, error) {
	if callerID != userID {
		return domain.Profile{}, fmt.Errorf("%w: профиль принадлежит другому пользователю", domain.ErrForbidden)
	}
	updated, err := s.repo.UpdateProfile(ctx, userID, update)
	if err != nil {
		return domain.Profile{}, fmt.Errorf("обновление профиля: %w", err)
	}
	return updated, nil
}
