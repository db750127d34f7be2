package repos

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/wz-hub/a-stock-scanner/internal/contracts"
	"github.com/wz-hub/a-stock-scanner/pkg/database"
)

// NotificationRepository implements contracts.NotificationRepository
type NotificationRepository struct {
	db *database.DB
}

// NewNotificationRepository creates a new notification repository
func NewNotificationRepository(db *database.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// Record upserts the push outcome for (scan_date, channel)
func (r *NotificationRepository) Record(ctx context.Context, rec contracts.NotificationRecord) error {
	sentAt := rec.SentAt
	if sentAt.IsZero() {
		sentAt = time.Now()
	}

	query, args, err := r.db.Builder().
		Insert("notification_records").
		Columns("scan_date", "channel", "status", "message", "sent_at").
		Values(dateArg(rec.ScanDate), rec.Channel, rec.Status, rec.Message, timeArg(sentAt)).
		Suffix(`ON CONFLICT (scan_date, channel) DO UPDATE SET
			status = excluded.status,
			message = excluded.message,
			sent_at = excluded.sent_at`).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build notification insert: %w", err)
	}

	if _, err := r.db.SQL.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to record notification: %w", err)
	}
	return nil
}

// Get returns the record for (scanDate, channel) or contracts.ErrNotFound
func (r *NotificationRepository) Get(ctx context.Context, scanDate time.Time, channel string) (*contracts.NotificationRecord, error) {
	query, args, err := r.db.Builder().
		Select("scan_date", "channel", "status", "message", "sent_at").
		From("notification_records").
		Where(sq.Eq{"scan_date": dateArg(scanDate), "channel": channel}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build notification query: %w", err)
	}

	var rec contracts.NotificationRecord
	err = r.db.SQL.QueryRowContext(ctx, query, args...).
		Scan(&rec.ScanDate, &rec.Channel, &rec.Status, &rec.Message, &rec.SentAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, contracts.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read notification: %w", err)
	}
	rec.ScanDate = scannedDate(rec.ScanDate)
	return &rec, nil
}
