package directory

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"clubnet/internal/domain"
)

// Service отдаёт справочник округов и клубов.
type Service struct {
	repo domain.DirectoryRepo
}

// NewService создаёт сервис справочника.
func NewService(repo domain.DirectoryRepo) *Service {
	return &Service{repo: repo}
}

// Districts возвращает все округа.
func (s *Service) Districts(ctx context.Context) ([]domain.District, error) {
	return s.repo.ListDistricts(ctx)
}

// District возвращает округ по идентификатору.
func (s *Service) District(ctx context.Context, districtID uuid.UUID) (domain.District, error) {
	return s.repo.GetDistrict(ctx, districtID)
}

// SearchDistricts ищет округа; пустой запрос отдаёт полный список.
func (s *Service) SearchDistricts(ctx context.Context, term string) ([]domain.District, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return s.repo.ListDistricts(ctx)
	}
	return s.repo.SearchDistricts(ctx, term)
}

// Clubs возвращает все клубы с округами.
func (s *Service) Clubs(ctx context.Context) ([]domain.Club, error) {
	return s.repo.ListClubs(ctx)
}

// ClubsByDistrict возвращает клубы одного округа.
func (s *Service) ClubsByDistrict(ctx context.Context, districtID uuid.UUID) ([]domain.Club, error) {
	return s.repo.ListClubsByDistrict(ctx, districtID)
}

// Club возвращает клуб по идентификатору.
func (s *Service) Club(ctx context.Context, clubID uuid.UUID) (domain.Club, error) {
	return s.repo.GetClub(ctx, clubID)
}

// SearchClubs ищет клубы; пустой запрос отдаёт полный список.
func (s *Service) SearchClubs(ctx context.Context, term string) ([]domain.Club, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return s.repo.ListClubs(ctx)
	}
	return s.repo.SearchClubs(ctx, term)
}
