package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"clubnet/internal/domain"
	"clubnet/internal/infra/metrics"
)

// LikePost вставляет факт лайка и инкрементирует счётчик поста одной транзакцией.
// Повторный лайк той же пары завершается ErrConflict; UPDATE строки поста
// сериализует конкурентные изменения счётчика по конкретному посту.
func (p *Postgres) LikePost(ctx context.Context, userID, postID uuid.UUID) error {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	tx, err := p.pool.BeginTx(ctx, pgx.TxOptions{})
	metrics.ObserveNetworkRequest("postgres", "begin_tx", "likes", start, err)
	if err != nil {
		return translateErr(err)
	}
	defer tx.Rollback(ctx)

	start = time.Now()
	_, err = tx.Exec(ctx, `INSERT INTO likes (user_id, post_id) VALUES ($1, $2)`, userID, postID)
	metrics.ObserveNetworkRequest("postgres", "likes_insert", "likes", start, err)
	if err != nil {
		return translateErr(err)
	}

	start = time.Now()
	res, err := tx.Exec(ctx, `UPDATE posts SET likes_count = likes_count + 1 WHERE id = $1`, postID)
	metrics.ObserveNetworkRequest("postgres", "posts_inc_likes", "posts", start, err)
	if err != nil {
		return translateErr(err)
	}
	if res.RowsAffected() == 0 {
		return domain.ErrNotFound
	}

	start = time.Now()
	err = tx.Commit(ctx)
	metrics.ObserveNetworkRequest("postgres", "commit", "likes", start, err)
	return translateErr(err)
}

// UnlikePost удаляет факт лайка и декрементирует счётчик, не опуская его ниже нуля.
func (p *Postgres) UnlikePost(ctx context.Context, userID, postID uuid.UUID) error {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	tx, err := p.pool.BeginTx(ctx, pgx.TxOptions{})
	metrics.ObserveNetworkRequest("postgres", "begin_tx", "likes", start, err)
	if err != nil {
		return translateErr(err)
	}
	defer tx.Rollback(ctx)

	start = time.Now()
	res, err := tx.Exec(ctx, `DELETE FROM likes WHERE user_id = $1 AND post_id = $2`, userID, postID)
	metrics.ObserveNetworkRequest("postgres", "likes_delete", "likes", start, err)
	if err != nil {
		return translateErr(err)
	}
	if res.RowsAffected() == 0 {
		return domain.ErrNotFound
	}

	start = time.Now()
	_, err = tx.Exec(ctx, `UPDATE posts SET likes_count = GREATEST(likes_count - 1, 0) WHERE id = $1`, postID)
	metrics.ObserveNetworkRequest("postgres", "posts_dec_likes", "posts", start, err)
	if err != nil {
		return translateErr(err)
	}

	start = time.Now()
	err = tx.Commit(ctx)
	metrics.ObserveNetworkRequest("postgres", "commit", "likes", start, err)
	return translateErr(err)
}

// IsLiked проверяет наличие факта лайка; отсутствие — это false, а не ошибка.
func (p *Postgres) IsLiked(ctx context.Context, userID, postID uuid.UUID) (bool, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	var exists bool
	start := time.Now()
	err := p.pool.QueryRow(ctx, `
SELECT EXISTS(SELECT 1 FROM likes WHERE user_id = $1 AND post_id = $2)
`, userID, postID).Scan(&exists)
	metrics.ObserveNetworkRequest("postgres", "likes_exists", "likes", start, err)
	if err != nil {
		return false, translateErr(err)
	}
	return exists, nil
}

// SavePost добавляет пост в закладки пользователя; счётчики поста не трогаются.
func (p *Postgres) SavePost(ctx context.Context, userID, postID uuid.UUID) error {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	_, err := p.pool.Exec(ctx, `INSERT INTO saved_posts (user_id, post_id) VALUES ($1, $2)`, userID, postID)
	metrics.ObserveNetworkRequest("postgres", "saved_posts_insert", "saved_posts", start, err)
	return translateErr(err)
}

// UnsavePost убирает пост из закладок.
func (p *Postgres) UnsavePost(ctx context.Context, userID, postID uuid.UUID) error {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	res, err := p.pool.Exec(ctx, `DELETE FROM saved_posts WHERE user_id = $1 AND post_id = $2`, userID, postID)
	metrics.ObserveNetworkRequest("postgres", "saved_posts_delete", "saved_posts", start, err)
	if err != nil {
		return translateErr(err)
	}
	if res.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// IsSaved проверяет наличие закладки.
func (p *Postgres) IsSaved(ctx context.Context, userID, postID uuid.UUID) (bool, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	var exists bool
	start := time.Now()
	err := p.pool.QueryRow(ctx, `
SELECT EXISTS(SELECT 1 FROM saved_posts WHERE user_id = $1 AND post_id = $2)
`, userID, postID).Scan(&exists)
	metrics.ObserveNetworkRequest("postgres", "saved_posts_exists", "saved_posts", start, err)
	if err != nil {
		return false, translateErr(err)
	}
	return exists, nil
}

// ListSavedPosts возвращает закладки пользователя, свежесохранённые первыми.
func (p *Postgres) ListSavedPosts(ctx context.Context, userID uuid.UUID) ([]domain.Post, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	rows, err := p.pool.Query(ctx, `
SELECT `+postColumns+`
FROM saved_posts sp
JOIN posts po ON po.id = sp.post_id
JOIN profiles pr ON pr.id = po.user_id
WHERE sp.user_id = $1
ORDER BY sp.created_at DESC
`, userID)
	metrics.ObserveNetworkRequest("postgres", "saved_posts_list", "saved_posts", start, err)
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
