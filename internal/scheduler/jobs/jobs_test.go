package jobs

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/screener/backend/internal/alerts"
	"github.com/wonny/screener/backend/internal/enrich"
	"github.com/wonny/screener/backend/internal/session"
	"github.com/wonny/screener/backend/pkg/logger"
)

type fakeRefresher struct{ err error }

func (f fakeRefresher) Refresh(ctx context.Context) error { return f.err }

func TestSnapshotRefreshJob(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantErr bool
	}{
		{"success", nil, false},
		{"already running", enrich.ErrRefreshInProgress, false},
		{"upstream failure", errors.New("stock list: 503"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job := NewSnapshotRefreshJob(fakeRefresher{err: tt.err}, "0 */10 * * * *", logger.Nop())
			assert.Equal(t, "snapshot_refresh", job.Name())
			assert.Equal(t, "0 */10 * * * *", job.Schedule())

			err := job.Run(context.Background())
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

type fakeSessions struct {
	s  session.Session
	ok bool
}

func (f fakeSessions) Current() (session.Session, bool) { return f.s, f.ok }

type fakeChecker struct {
	userID int
	alerts []alerts.Alert
	err    error
}

func (f *fakeChecker) Check(ctx context.Context, userID int) ([]alerts.Alert, error) {
	f.userID = userID
	return f.alerts, f.err
}

func TestAlertCheckJob_NoSession(t *testing.T) {
	checker := &fakeChecker{}
	job := NewAlertCheckJob(checker, fakeSessions{}, "@every 5m", nil, logger.Nop())

	require.NoError(t, job.Run(context.Background()))
	assert.Zero(t, checker.userID)
}

func TestAlertCheckJob_NotifiesEachAlert(t *testing.T) {
	found := []alerts.Alert{
		{Symbol: "THYAO", Target: decimal.NewFromInt(300), Price: decimal.NewFromFloat(301.5)},
		{Symbol: "ASELS", Target: decimal.NewFromInt(60), Price: decimal.NewFromFloat(59.8)},
	}
	checker := &fakeChecker{alerts: found}

	var got []string
	job := NewAlertCheckJob(checker, fakeSessions{s: session.Session{UserID: 7}, ok: true}, "@every 5m",
		func(a alerts.Alert) { got = append(got, a.Symbol) }, logger.Nop())

	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, 7, checker.userID)
	assert.Equal(t, []string{"THYAO", "ASELS"}, got)
	assert.Equal(t, "alert_check", job.Name())
}

func TestAlertCheckJob_CheckError(t *testing.T) {
	checker := &fakeChecker{err: errors.New("watchlist service down")}
	job := NewAlertCheckJob(checker, fakeSessions{s: session.Session{UserID: 7}, ok: true}, "@every 5m", nil, logger.Nop())

	assert.Error(t, job.Run(context.Background()))
}
