package repo

import (
	"context"
	"time"

	"github.com/google/uuid"

	"clubnet/internal/domain"
	"clubnet/internal/infra/metrics"
)

// CreateNotification сохраняет уведомление в непрочитанном состоянии.
func (p *Postgres) CreateNotification(ctx context.Context, notification domain.Notification) (domain.Notification, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	err := p.pool.QueryRow(ctx, `
INSERT INTO notifications (id, user_id, title, body, type)
VALUES ($1, $2, $3, $4, $5)
RETURNING is_read, created_at
`, notification.ID, notification.RecipientID, notification.Title, notification.Body, notification.Type).Scan(&notification.IsRead, &notification.CreatedAt)
	metrics.ObserveNetworkRequest("postgres", "notifications_insert", "notifications", start, err)
	if err != nil {
		return domain.Notification{}, translateErr(err)
	}
	return notification, nil
}

// ListNotifications возвращает уведомления пользователя, новые первыми.
func (p *Postgres) ListNotifications(ctx context.Context, userID uuid.UUID) ([]domain.Notification, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	rows, err := p.pool.Query(ctx, `
SELECT id, user_id, title, body, type, is_read, created_at
FROM notifications
WHERE user_id = $1
ORDER BY created_at DESC
`, userID)
	metrics.ObserveNetworkRequest("postgres", "notifications_list", "notifications", start, err)
	if err != nil {
		return nil, translateErr(err)
	}
	defer rows.Close()

	var notifications []domain.Notification
	for rows.Next() {
		var n domain.Notification
		if err := rows.Scan(&n.ID, &n.RecipientID, &n.Title, &n.Body, &n.Type, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, translateErr(err)
		}
		notifications = append(notifications, n)
	}
	if err := rows.Err(); err != nil {
		return nil, translateErr(err)
	}
	return notifications, nil
}

// MarkRead помечает уведомление прочитанным; повторная отметка — без эффекта.
func (p *Postgres) MarkRead(ctx context.Context, notificationID uuid.UUID) error {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	res, err := p.pool.Exec(ctx, `UPDATE notifications SET is_read = true WHERE id = $1`, notificationID)
	metrics.ObserveNetworkRequest("postgres", "notifications_mark_read", "notifications", start, err)
	if err != nil {
		return translateErr(err)
	}
	if res.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// MarkAllRead помечает все непрочитанные уведомления пользователя одним UPDATE.
func (p *Postgres) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	res, err := p.pool.Exec(ctx, `
UPDATE notifications SET is_read = true WHERE user_id = $1 AND is_read = false
`, userID)
	metrics.ObserveNetworkRequest("postgres", "notifications_mark_all_read", "notifications", start, err)
	if err != nil {
		return 0, translateErr(err)
	}
	return res.RowsAffected(), nil
}

// CountUnread считает непрочитанные уведомления пользователя.
func (p *Postgres) CountUnread(ctx context.Context, userID uuid.UUID) (int, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	var count int
	start := time.Now()
	err := p.pool.QueryRow(ctx, `
SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND is_read = false
`, userID).Scan(&count)
	metrics.ObserveNetworkRequest("postgres", "notifications_count_unread", "notifications", start, err)
	if err != nil {
		return 0, translateErr(err)
	}
	return count, nil
}
