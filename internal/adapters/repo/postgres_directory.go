package repo

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"clubnet/internal/domain"
	"clubnet/internal/infra/metrics"
)

func scanDistrict(row pgx.Row) (domain.District, error) {
	var (
		district domain.District
		location sql.NullString
	)
	if err := row.Scan(&district.ID, &district.Name, &location, &district.CreatedAt); err != nil {
		return domain.District{}, err
	}
	if location.Valid {
		district.Location = location.String
	}
	return district, nil
}

const clubColumns = `c.id, c.name, c.location, c.district_id, c.created_at,
       d.id, d.name, d.location, d.created_at`

func scanClub(row pgx.Row) (domain.Club, error) {
	var (
		club       domain.Club
		location   sql.NullString
		districtID uuid.NullUUID
		dID        uuid.NullUUID
		dName      sql.NullString
		dLocation  sql.NullString
		dCreated   sql.NullTime
	)
	err := row.Scan(&club.ID, &club.Name, &location, &districtID, &club.CreatedAt,
		&dID, &dName, &dLocation, &dCreated)
	if err != nil {
		return domain.Club{}, err
	}
	if location.Valid {
		club.Location = location.String
	}
	if districtID.Valid {
		id := districtID.UUID
		club.DistrictID = &id
	}
	if dID.Valid {
		district := domain.District{ID: dID.UUID, Name: dName.String, CreatedAt: dCreated.Time}
		if dLocation.Valid {
			district.Location = dLocation.String
		}
		club.District = &district
	}
	return club, nil
}

// ListDistricts возвращает все округа по имени.
func (p *Postgres) ListDistricts(ctx context.Context) ([]domain.District, error) {
	return p.queryDistricts(ctx, "districts_list", `
SELECT id, name, location, created_at FROM districts ORDER BY name
`)
}

// SearchDistricts ищет округа по имени или расположению без учёта регистра.
func (p *Postgres) SearchDistricts(ctx context.Context, term string) ([]domain.District, error) {
	return p.queryDistricts(ctx, "districts_search", `
SELECT id, name, location, created_at FROM districts
WHERE name ILIKE '%' || $1 || '%' OR location ILIKE '%' || $1 || '%'
ORDER BY name
`, term)
}

func (p *Postgres) queryDistricts(ctx context.Context, op, query string, args ...any) ([]domain.District, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	rows, err := p.pool.Query(ctx, query, args...)
	metrics.ObserveNetworkRequest("postgres", op, "districts", start, err)
	if err != nil {
		return nil, translateErr(err)
	}
	defer rows.Close()

	var districts []domain.District
	for rows.Next() {
		district, err := scanDistrict(rows)
		if err != nil {
			return nil, translateErr(err)
		}
		districts = append(districts, district)
	}
	if err := rows.Err(); err != nil {
		return nil, translateErr(err)
	}
	return districts, nil
}

// GetDistrict возвращает округ по идентификатору.
func (p *Postgres) GetDistrict(ctx context.Context, districtID uuid.UUID) (domain.District, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	row := p.pool.QueryRow(ctx, `
SELECT id, name, location, created_at FROM districts WHERE id = $1
`, districtID)
	district, err := scanDistrict(row)
	metrics.ObserveNetworkRequest("postgres", "districts_get", "districts", start, err)
	if err != nil {
		return domain.District{}, translateErr(err)
	}
	return district, nil
}

// ListClubs возвращает все клубы с округами по имени.
func (p *Postgres) ListClubs(ctx context.Context) ([]domain.Club, error) {
	return p.queryClubs(ctx, "clubs_list", `
SELECT `+clubColumns+`
FROM clubs c LEFT JOIN districts d ON d.id = c.district_id
ORDER BY c.name
`)
}

// ListClubsByDistrict возвращает клубы одного округа.
func (p *Postgres) ListClubsByDistrict(ctx context.Context, districtID uuid.UUID) ([]domain.Club, error) {
	return p.queryClubs(ctx, "clubs_list_by_district", `
SELECT `+clubColumns+`
FROM clubs c LEFT JOIN districts d ON d.id = c.district_id
WHERE c.district_id = $1
ORDER BY c.name
`, districtID)
}

// SearchClubs ищет клубы по имени или расположению без учёта регистра.
func (p *Postgres) SearchClubs(ctx context.Context, term string) ([]domain.Club, error) {
	return p.queryClubs(ctx, "clubs_search", `
SELECT `+clubColumns+`
FROM clubs c LEFT JOIN districts d ON d.id = c.district_id
WHERE c.name ILIKE '%' || $1 || '%' OR c.location ILIKE '%' || $1 || '%'
ORDER BY c.name
`, term)
}

func (p *Postgres) queryClubs(ctx context.Context, op, query string, args ...any) ([]domain.Club, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	rows, err := p.pool.Query(ctx, query, args...)
	metrics.ObserveNetworkRequest("postgres", op, "clubs", start, err)
	if err != nil {
		return nil, translateErr(err)
	}
	defer rows.Close()

	var clubs []domain.Club
	for rows.Next() {
		club, err := scanClub(rows)
		if err != nil {
			return nil, translateErr(err)
		}
		clubs = append(clubs, club)
	}
	if err := rows.Err(); err != nil {
		return nil, translateErr(err)
	}
	return clubs, nil
}

// GetClub возвращает клуб с округом по идентификатору.
func (p *Postgres) GetClub(ctx context.Context, clubID uuid.UUID) (domain.Club, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	row := p.pool.QueryRow(ctx, `
SELECT `+clubColumns+`
FROM clubs c LEFT JOIN districts d ON d.id = c.district_id
WHERE c.id = $1
`, clubID)
	club, err := scanClub(row)
	metrics.ObserveNetworkRequest("postgres", "clubs_get", "clubs", start, err)
	if err != nil {
		return domain.Club{}, translateErr(err)
	}
	return club, nil
}
