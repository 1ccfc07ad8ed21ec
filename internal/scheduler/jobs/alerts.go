package jobs

import (
	"context"

	"github.com/wonny/screener/backend/internal/alerts"
	"github.com/wonny/screener/backend/internal/session"
	"github.com/wonny/screener/backend/pkg/logger"
)

// AlertChecker compares a user's watchlist targets against latest prices
type AlertChecker interface {
	Check(ctx context.Context, userID int) ([]alerts.Alert, error)
}

// SessionSource reports the signed-in user, if any
type SessionSource interface {
	Current() (session.Session, bool)
}

// AlertCheckJob polls the signed-in user's watchlists for near-target prices
type AlertCheckJob struct {
	checker  AlertChecker
	sessions SessionSource
	schedule string
	notify   func(alerts.Alert)
	logger   *logger.Logger
}

// NewAlertCheckJob creates an alert job. notify is called once per alert found.
func NewAlertCheckJob(checker AlertChecker, sessions SessionSource, schedule string, notify func(alerts.Alert), log *logger.Logger) *AlertCheckJob {
	return &AlertCheckJob{
		checker:  checker,
		sessions: sessions,
		schedule: schedule,
		notify:   notify,
		logger:   log,
	}
}

func (j *AlertCheckJob) Name() string     { return "alert_check" }
func (j *AlertCheckJob) Schedule() string { return j.schedule }

// Run checks once. Without a session there is nobody to alert and the run is a no-op.
func (j *AlertCheckJob) Run(ctx context.Context) error {
	s, ok := j.sessions.Current()
	if !ok || s.UserID == 0 {
		j.logger.WithField("job", j.Name()).Debug("No active session, skipped")
		return nil
	}

	found, err := j.checker.Check(ctx, s.UserID)
	if err != nil {
		return err
	}

	for _, a := range found {
		if j.notify != nil {
			j.notify(a)
		}
	}

	j.logger.WithFields(map[string]interface{}{
		"job":     j.Name(),
		"user_id": s.UserID,
		"alerts":  len(found),
	}).Info("Alert check complete")

	return nil
}
