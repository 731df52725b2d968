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

const postColumns = `po.id, po.user_id, po.content, po.media_url, po.likes_count, po.created_at,
       pr.id, pr.username, pr.full_name, pr.avatar_url`

func scanPost(row pgx.Row) (domain.Post, error) {
	var (
		post   domain.Post
		media  sql.NullString
		avatar sql.NullString
	)
	err := row.Scan(&post.ID, &post.AuthorID, &post.Content, &media, &post.LikesCount, &post.CreatedAt,
		&post.Author.ID, &post.Author.Username, &post.Author.FullName, &avatar)
	if err != nil {
		return domain.Post{}, err
	}
	if media.Valid {
		post.MediaURL = media.String
	}
	if avatar.Valid {
		post.Author.AvatarURL = avatar.String
	}
	return post, nil
}

// CreatePost сохраняет пост с нулевым счётчиком лайков.
func (p *Postgres) CreatePost(ctx context.Context, post domain.Post) (domain.Post, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	var media any
	if post.MediaURL != "" {
		media = post.MediaURL
	}

	start := time.Now()
	err := p.pool.QueryRow(ctx, `
INSERT INTO posts (id, user_id, content, media_url)
VALUES ($1, $2, $3, $4)
RETURNING likes_count, created_at
`, post.ID, post.AuthorID, post.Content, media).Scan(&post.LikesCount, &post.CreatedAt)
	metrics.ObserveNetworkRequest("postgres", "posts_insert", "posts", start, err)
	if err != nil {
		return domain.Post{}, translateErr(err)
	}
	return post, nil
}

// GetPost возвращает пост с краткими данными автора.
func (p *Postgres) GetPost(ctx context.Context, postID uuid.UUID) (domain.Post, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	row := p.pool.QueryRow(ctx, `
SELECT `+postColumns+`
FROM posts po JOIN profiles pr ON pr.id = po.user_id
WHERE po.id = $1
`, postID)
	post, err := scanPost(row)
	metrics.ObserveNetworkRequest("postgres", "posts_get", "posts", start, err)
	if err != nil {
		return domain.Post{}, translateErr(err)
	}
	return post, nil
}

// ListPosts возвращает окно ленты, новые первыми; равные метки времени
// упорядочены по убыванию идентификатора для детерминизма.
func (p *Postgres) ListPosts(ctx context.Context, limit, offset int) ([]domain.Post, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	rows, err := p.pool.Query(ctx, `
SELECT `+postColumns+`
FROM posts po JOIN profiles pr ON pr.id = po.user_id
ORDER BY po.created_at DESC, po.id DESC
LIMIT $1 OFFSET $2
`, limit, offset)
	metrics.ObserveNetworkRequest("postgres", "posts_list", "posts", start, err)
	if err != nil {
		return nil, translateErr(err)
	}
	defer rows.Close()

	var posts []domain.Post
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, translateErr(err)
		}
		posts = append(posts, post)
	}
	if err := rows.Err(); err != nil {
		return nil, translateErr(err)
	}
	return posts, nil
}

// DeletePost удаляет пост вместе с фактами лайков и закладок одной транзакцией.
func (p *Postgres) DeletePost(ctx context.Context, postID uuid.UUID) error {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	tx, err := p.pool.BeginTx(ctx, pgx.TxOptions{})
	metrics.ObserveNetworkRequest("postgres", "begin_tx", "posts", start, err)
	if err != nil {
		return translateErr(err)
	}
	defer tx.Rollback(ctx)

	start = time.Now()
	_, err = tx.Exec(ctx, `DELETE FROM likes WHERE post_id = $1`, postID)
	metrics.ObserveNetworkRequest("postgres", "likes_delete_by_post", "likes", start, err)
	if err != nil {
		return translateErr(err)
	}

	start = time.Now()
	_, err = tx.Exec(ctx, `DELETE FROM saved_posts WHERE post_id = $1`, postID)
	metrics.ObserveNetworkRequest("postgres", "saved_posts_delete_by_post", "saved_posts", start, err)
	if err != nil {
		return translateErr(err)
	}

	start = time.Now()
	res, err := tx.Exec(ctx, `DELETE FROM posts WHERE id = $1`, postID)
	metrics.ObserveNetworkRequest("postgres", "posts_delete", "posts", start, err)
	if err != nil {
		return translateErr(err)
	}
	if res.RowsAffected() == 0 {
		return domain.ErrNotFound
	}

	start = time.Now()
	err = tx.Commit(ctx)
	metrics.ObserveNetworkRequest("postgres", "commit", "posts", start, err)
	return translateErr(err)
}
