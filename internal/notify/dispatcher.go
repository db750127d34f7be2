package notify

import (
	"context"
	"errors"
	"time"

	"github.com/wz-hub/a-stock-scanner/internal/contracts"
	"github.com/wz-hub/a-stock-scanner/pkg/logger"
)

// Dispatcher pushes run summaries and records every attempt
// ⭐ SSOT: notification_records is written only here
type Dispatcher struct {
	notifier    Notifier
	records     contracts.NotificationRepository
	instruments contracts.InstrumentRepository
	topN        int
	now         func() time.Time
	logger      *logger.Logger
}

// NewDispatcher creates a new Dispatcher; instruments may be nil
func NewDispatcher(n Notifier, records contracts.NotificationRepository, instruments contracts.InstrumentRepository, topN int, log *logger.Logger) *Dispatcher {
	return &Dispatcher{
		notifier:    n,
		records:     records,
		instruments: instruments,
		topN:        topN,
		now:         time.Now,
		logger:      log.WithModule("notify"),
	}
}

// AlreadySent reports whether this scan date was pushed on this channel
func (d *Dispatcher) AlreadySent(ctx context.Context, scanDate time.Time) (bool, error) {
	rec, err := d.records.Get(ctx, scanDate, d.notifier.Channel())
	if errors.Is(err, contracts.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return rec.Status == contracts.NotificationSent, nil
}

// NotifyRun renders and sends summary. Failures come back as
// *contracts.NotificationError and never touch scan results.
func (d *Dispatcher) NotifyRun(ctx context.Context, summary *contracts.RunSummary) error {
	channel := d.notifier.Channel()
	msg := BuildMessage(summary, d.topN, d.names(ctx))

	sendErr := d.notifier.Send(ctx, msg)

	rec := contracts.NotificationRecord{
		ScanDate: summary.ScanDate,
		Channel:  channel,
		Status:   contracts.NotificationSent,
		Message:  msg.Markdown,
		SentAt:   d.now(),
	}
	if sendErr != nil {
		rec.Status = contracts.NotificationFailed
	}
	if err := d.records.Record(ctx, rec); err != nil {
		d.logger.WithError(err).Warn("Failed to record notification")
	}

	log := d.logger.WithFields(map[string]interface{}{
		"channel":   channel,
		"scan_date": contracts.FormatDate(summary.ScanDate),
		"signals":   summary.TotalSignals(),
	})
	if sendErr != nil {
		log.WithError(sendErr).Error("Notification failed")
		return &contracts.NotificationError{Channel: channel, Err: sendErr}
	}
	log.Info("Notification sent")
	return nil
}

func (d *Dispatcher) names(ctx context.Context) map[string]string {
	if d.instruments == nil {
		return nil
	}
	list, err := d.instruments.List(ctx, true)
	if err != nil {
		d.logger.WithError(err).Warn("Failed to load instrument names")
		return nil
	}
	names := make(map[string]string, len(list))
	for _, inst := range list {
		names[inst.Code] = inst.Name
	}
	return names
}
