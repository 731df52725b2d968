package profiles

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"

	"clubnet/internal/domain"
)

type stubProfileRepo struct {
	byID       map[uuid.UUID]domain.Profile
	byUsername map[string]uuid.UUID
}

func newStubProfileRepo() *stubProfileRepo {
	return &stubProfileRepo{byID: map[uuid.UUID]domain.Profile{}, byUsername: map[string]uuid.UUID{}}
}

func (s *stubProfileRepo) CreateProfile(_ context.Context, profile domain.Profile) (domain.Profile, error) {
	if _, ok := s.byID[profile.ID]; ok {
		return domain.Profile{}, fmt.Errorf("%w: profiles_pkey", domain.ErrConflict)
	}
	if _, ok := s.byUsername[profile.Username]; ok {
		return domain.Profile{}, fmt.Errorf("%w: profiles_username_key", domain.ErrConflict)
	}
	s.byID[profile.ID] = profile
	s.byUsername[profile.Username] = profile.ID
	return profile, nil
}

func (s *stubProfileRepo) GetProfile(_ context.Context, userID uuid.UUID) (domain.Profile, error) {
	profile, ok := s.byID[userID]
	if !ok {
		return domain.Profile{}, domain.ErrNotFound
	}
	return profile, nil
}

func (s *stubProfileRepo) GetProfileByUsername(_ context.Context, username string) (domain.Profile, error) {
	id, ok := s.byUsername[username]
	if !ok {
		return domain.Profile{}, domain.ErrNotFound
	}
	return s.byID[id], nil
}

func (s *stubProfileRepo) UpdateProfile(_ context.Context, userID uuid.UUID, update domain.ProfileUpdate) (domain.Profile, error) {
	profile, ok := s.byID[userID]
	if !ok {
		return domain.Profile{}, domain.ErrNotFound
	}
	if update.FullName != nil {
		profile.FullName = *update.FullName
	}
	if update.AvatarURL != nil {
		profile.AvatarURL = *update.AvatarURL
	}
	if update.DistrictID != nil {
		if *update.DistrictID == uuid.Nil {
			profile.DistrictID = nil
		} else {
			id := *update.DistrictID
			profile.DistrictID = &id
		}
	}
	s.byID[userID] = profile
	return profile, nil
}

func TestCreateProfile(t *testing.T) {
	service := NewService(newStubProfileRepo())
	alice := uuid.New()

	profile, err := service.Create(context.Background(), alice, " alice ", "")
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if profile.Username != "alice" {
		t.Fatalf("ожидали обрезанное имя пользователя, получили %q", profile.Username)
	}
	if profile.FullName != "alice" {
		t.Fatalf("пустое полное имя должно заменяться именем пользователя")
	}
}

func TestCreateProfileValidation(t *testing.T) {
	service := NewService(newStubProfileRepo())
	ctx := context.Background()

	_, err := service.Create(ctx, uuid.Nil, "alice", "")
	if !errors.Is(err, domain.ErrInvalid) {
		t.Fatalf("ожидали ErrInvalid для пустого идентификатора, получили %v", err)
	}
	_, err = service.Create(ctx, uuid.New(), "   ", "")
	if !errors.Is(err, domain.ErrInvalid) {
		t.Fatalf("ожидали ErrInvalid для пустого имени, получили %v", err)
	}
}

func TestCreateProfileDuplicateUsername(t *testing.T) {
	service := NewService(newStubProfileRepo())
	ctx := context.Background()

	if _, err := service.Create(ctx, uuid.New(), "alice", "Алиса"); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	_, err := service.Create(ctx, uuid.New(), "alice", "Другая Алиса")
	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("ожидали ErrConflict, получили %v", err)
	}
}

func TestUpdateProfileForbidden(t *testing.T) {
	repo := newStubProfileRepo()
	service := NewService(repo)
	ctx := context.Background()
	alice, bob := uuid.New(), uuid.New()

	if _, err := service.Create(ctx, alice, "alice", ""); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}

	name := "Боб"
	_, err := service.Update(ctx, bob, alice, domain.ProfileUpdate{FullName: &name})
	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("ожидали ErrForbidden, получили %v", err)
	}
	profile, _ := service.Get(ctx, alice)
	if profile.FullName != "alice" {
		t.Fatalf("чужое обновление не должно применяться")
	}
}

func TestUpdateProfilePartial(t *testing.T) {
	repo := newStubProfileRepo()
	service := NewService(repo)
	ctx := context.Background()
	alice := uuid.New()
	district := uuid.New()

	if _, err := service.Create(ctx, alice, "alice", "Алиса"); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}

	avatar := "https://cdn.example/a.jpg"
	updated, err := service.Update(ctx, alice, alice, domain.ProfileUpdate{AvatarURL: &avatar, DistrictID: &district})
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if updated.FullName != "Алиса" {
		t.Fatalf("нетронутое поле не должно меняться")
	}
	if updated.AvatarURL != avatar {
		t.Fatalf("ожидали новый аватар")
	}
	if updated.DistrictID == nil || *updated.DistrictID != district {
		t.Fatalf("ожидали привязку к округу")
	}

	clear := uuid.Nil
	updated, err = service.Update(ctx, alice, alice, domain.ProfileUpdate{DistrictID: &clear})
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if updated.DistrictID != nil {
		t.Fatalf("нулевой идентификатор должен снимать привязку к округу")
	}
}

func TestGetByUsername(t *testing.T) {
	service := NewService(newStubProfileRepo())
	ctx := context.Background()
	alice := uuid.New()

	if _, err := service.Create(ctx, alice, "alice", ""); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}

	profile, err := service.GetByUsername(ctx, "alice")
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if profile.ID != alice {
		t.Fatalf("ожидали профиль Алисы")
	}

	_, err = service.GetByUsername(ctx, "bob")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("ожидали ErrNotFound, получили %v", err)
	}
}
