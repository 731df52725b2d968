package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"clubnet/internal/domain"
	"clubnet/internal/infra/metrics"
)

// Postgres реализует репозитории ядра на основе pgxpool.
type Postgres struct {
	pool *pgxpool.Pool
}

var (
	_ domain.ProfileRepo      = (*Postgres)(nil)
	_ domain.FeedRepo         = (*Postgres)(nil)
	_ domain.EngagementRepo   = (*Postgres)(nil)
	_ domain.StoryRepo        = (*Postgres)(nil)
	_ domain.NotificationRepo = (*Postgres)(nil)
	_ domain.DirectoryRepo    = (*Postgres)(nil)
)

// NewPostgres создаёт адаптер БД.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func (p *Postgres) connCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, 5*time.Second)
}

// Коды ошибок Postgres, которые ядро переводит в свою таксономию.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// translateErr переводит ошибку хранилища в вид из таксономии ядра.
func translateErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return fmt.Errorf("%w: %s", domain.ErrConflict, pgErr.ConstraintName)
		case pgForeignKeyViolation:
			return fmt.Errorf("%w: %s", domain.ErrNotFound, pgErr.ConstraintName)
		}
	}
	return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
}

const profileColumns = `p.id, p.username, p.full_name, p.avatar_url, p.district_id, p.created_at, p.updated_at`

func scanProfile(row pgx.Row, withDistrict bool) (domain.Profile, error) {
	var (
		profile    domain.Profile
		avatar     sql.NullString
		districtID uuid.NullUUID
	)
	dests := []any{&profile.ID, &profile.Username, &profile.FullName, &avatar, &districtID, &profile.CreatedAt, &profile.UpdatedAt}
	var (
		dID       uuid.NullUUID
		dName     sql.NullString
		dLocation sql.NullString
		dCreated  sql.NullTime
	)
	if withDistrict {
		dests = append(dests, &dID, &dName, &dLocation, &dCreated)
	}
	if err := row.Scan(dests...); err != nil {
		return domain.Profile{}, err
	}
	if avatar.Valid {
		profile.AvatarURL = avatar.String
	}
	if districtID.Valid {
		id := districtID.UUID
		profile.DistrictID = &id
	}
	if withDistrict && dID.Valid {
		district := domain.District{ID: dID.UUID, Name: dName.String, CreatedAt: dCreated.Time}
		if dLocation.Valid {
			district.Location = dLocation.String
		}
		profile.District = &district
	}
	return profile, nil
}

// CreateProfile сохраняет новый профиль.
func (p *Postgres) CreateProfile(ctx context.Context, profile domain.Profile) (domain.Profile, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	err := p.pool.QueryRow(ctx, `
INSERT INTO profiles (id, username, full_name)
VALUES ($1, $2, $3)
RETURNING created_at, updated_at
`, profile.ID, profile.Username, profile.FullName).Scan(&profile.CreatedAt, &profile.UpdatedAt)
	metrics.ObserveNetworkRequest("postgres", "profiles_insert", "profiles", start, err)
	if err != nil {
		return domain.Profile{}, translateErr(err)
	}
	return profile, nil
}

// GetProfile возвращает профиль с привязанным округом.
func (p *Postgres) GetProfile(ctx context.Context, userID uuid.UUID) (domain.Profile, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	row := p.pool.QueryRow(ctx, `
SELECT `+profileColumns+`, d.id, d.name, d.location, d.created_at
FROM profiles p LEFT JOIN districts d ON d.id = p.district_id
WHERE p.id = $1
`, userID)
	profile, err := scanProfile(row, true)
	metrics.ObserveNetworkRequest("postgres", "profiles_get", "profiles", start, err)
	if err != nil {
		return domain.Profile{}, translateErr(err)
	}
	return profile, nil
}

// GetProfileByUsername возвращает профиль по точному имени пользователя.
func (p *Postgres) GetProfileByUsername(ctx context.Context, username string) (domain.Profile, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	row := p.pool.QueryRow(ctx, `
SELECT `+profileColumns+`, d.id, d.name, d.location, d.created_at
FROM profiles p LEFT JOIN districts d ON d.id = p.district_id
WHERE p.username = $1
`, username)
	profile, err := scanProfile(row, true)
	metrics.ObserveNetworkRequest("postgres", "profiles_get_by_username", "profiles", start, err)
	if err != nil {
		return domain.Profile{}, translateErr(err)
	}
	return profile, nil
}

// UpdateProfile применяет частичное обновление: NULL-аргумент оставляет поле как есть,
// нулевой uuid в district_id снимает привязку.
func (p *Postgres) UpdateProfile(ctx context.Context, userID uuid.UUID, update domain.ProfileUpdate) (domain.Profile, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	var districtArg any
	clearDistrict := false
	if update.DistrictID != nil {
		if *update.DistrictID == uuid.Nil {
			clearDistrict = true
		} else {
			districtArg = *update.DistrictID
		}
	}

	start := time.Now()
	row := p.pool.QueryRow(ctx, `
UPDATE profiles SET
    full_name = COALESCE($2, full_name),
    avatar_url = COALESCE($3, avatar_url),
    district_id = CASE WHEN $5 THEN NULL ELSE COALESCE($4, district_id) END,
    updated_at = now()
WHERE id = $1
RETURNING id, username, full_name, avatar_url, district_id, created_at, updated_at
`, userID, update.FullName, update.AvatarURL, districtArg, clearDistrict)
	profile, err := scanProfile(row, false)
	metrics.ObserveNetworkRequest("postgres", "profiles_update", "profiles", start, err)
	if err != nil {
		return domain.Profile{}, translateErr(err)
	}
	return profile, nil
}
