package notify

import (
	"context"

	"github.com/sirupsen/logrus"
)

// LogPresenter writes notifications to the log. It backs deployments
// without a message broker and local development.
type LogPresenter struct {
	cfg Config
}

func NewLogPresenter(cfg Config) *LogPresenter {
	return &LogPresenter{cfg: cfg}
}

func (p *LogPresenter) Show(ctx context.Context, reminderID int64, text string) error {
	logrus.WithFields(logrus.Fields{
		"reminder_id": reminderID,
		"title":       p.cfg.Title,
	}).Infof("Notification: %s", text)
	return nil
}

func (p *LogPresenter) Withdraw(ctx context.Context, reminderID int64) error {
	logrus.WithField("reminder_id", reminderID).Info("Notification withdrawn")
	return nil
}
