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

const storyColumns = `s.id, s.user_id, s.media_url, s.created_at, s.expires_at,
       pr.id, pr.username, pr.full_name, pr.avatar_url`

func scanStory(row pgx.Row) (domain.Story, error) {
	var (
		story  domain.Story
		avatar sql.NullString
	)
	err := row.Scan(&story.ID, &story.AuthorID, &story.MediaURL, &story.CreatedAt, &story.ExpiresAt,
		&story.Author.ID, &story.Author.Username, &story.Author.FullName, &avatar)
	if err != nil {
		return domain.Story{}, err
	}
	if avatar.Valid {
		story.Author.AvatarURL = avatar.String
	}
	return story, nil
}

// CreateStory сохраняет историю с заранее вычисленным временем истечения.
func (p *Postgres) CreateStory(ctx context.Context, story domain.Story) (domain.Story, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	err := p.pool.QueryRow(ctx, `
INSERT INTO stories (id, user_id, media_url, expires_at)
VALUES ($1, $2, $3, $4)
RETURNING created_at
`, story.ID, story.AuthorID, story.MediaURL, story.ExpiresAt).Scan(&story.CreatedAt)
	metrics.ObserveNetworkRequest("postgres", "stories_insert", "stories", start, err)
	if err != nil {
		return domain.Story{}, translateErr(err)
	}
	return story, nil
}

// GetStory возвращает историю независимо от её состояния.
func (p *Postgres) GetStory(ctx context.Context, storyID uuid.UUID) (domain.Story, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	row := p.pool.QueryRow(ctx, `
SELECT `+storyColumns+`
FROM stories s JOIN profiles pr ON pr.id = s.user_id
WHERE s.id = $1
`, storyID)
	story, err := scanStory(row)
	metrics.ObserveNetworkRequest("postgres", "stories_get", "stories", start, err)
	if err != nil {
		return domain.Story{}, translateErr(err)
	}
	return story, nil
}

// ListActiveStories возвращает непросроченные истории, новые первыми.
func (p *Postgres) ListActiveStories(ctx context.Context, now time.Time) ([]domain.Story, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	rows, err := p.pool.Query(ctx, `
SELECT `+storyColumns+`
FROM stories s JOIN profiles pr ON pr.id = s.user_id
WHERE s.expires_at > $1
ORDER BY s.created_at DESC
`, now)
	metrics.ObserveNetworkRequest("postgres", "stories_list_active", "stories", start, err)
	if err != nil {
		return nil, translateErr(err)
	}
	defer rows.Close()
	return collectStories(rows)
}

// ListUserStories возвращает непросроченные истории одного автора.
func (p *Postgres) ListUserStories(ctx context.Context, userID uuid.UUID, now time.Time) ([]domain.Story, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	rows, err := p.pool.Query(ctx, `
SELECT `+storyColumns+`
FROM stories s JOIN profiles pr ON pr.id = s.user_id
WHERE s.user_id = $1 AND s.expires_at > $2
ORDER BY s.created_at DESC
`, userID, now)
	metrics.ObserveNetworkRequest("postgres", "stories_list_user", "stories", start, err)
	if err != nil {
		return nil, translateErr(err)
	}
	defer rows.Close()
	return collectStories(rows)
}

func collectStories(rows pgx.Rows) ([]domain.Story, error) {
	var stories []domain.Story
	for rows.Next() {
		story, err := scanStory(rows)
		if err != nil {
			return nil, translateErr(err)
		}
		stories = append(stories, story)
	}
	if err := rows.Err(); err != nil {
		return nil, translateErr(err)
	}
	return stories, nil
}

// DeleteStory удаляет историю, в том числе уже просроченную.
func (p *Postgres) DeleteStory(ctx context.Context, storyID uuid.UUID) error {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	res, err := p.pool.Exec(ctx, `DELETE FROM stories WHERE id = $1`, storyID)
	metrics.ObserveNetworkRequest("postgres", "stories_delete", "stories", start, err)
	if err != nil {
		return translateErr(err)
	}
	if res.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// DeleteExpired удаляет просроченные истории и возвращает число удалённых строк.
func (p *Postgres) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	res, err := p.pool.Exec(ctx, `DELETE FROM stories WHERE expires_at <= $1`, now)
	metrics.ObserveNetworkRequest("postgres", "stories_delete_expired", "stories", start, err)
	if err != nil {
		return 0, translateErr(err)
	}
	return res.RowsAffected(), nil
}
