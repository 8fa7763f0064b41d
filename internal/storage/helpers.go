package storage

import (
	"database/sql"
	"errors"

	"github.com/swingworks/swingsense/internal/swing"
)

func closeWithError(cl interface{ Close() error }, err *error) {
	if cErr := cl.Close(); cErr != nil && *err == nil {
		*err = cErr
	}
}

// rollbackWithError is deferred around transactions: it undoes the tx on the
// error path but stays silent after a successful commit, where Rollback
// reports sql.ErrTxDone.
func rollbackWithError(rb interface{ Rollback() error }, err *error) {
	if cErr := rb.Rollback(); cErr != nil && !errors.Is(cErr, sql.ErrTxDone) && *err == nil {
		*err = cErr
	}
}

func toSwingData(sessionID int64, a *swing.Analytics) *SwingData {
	var impact sql.NullTime
	if !a.ImpactTime.IsZero() {
		impact.Time = a.ImpactTime.UTC()
		impact.Valid = true
	}

	return &SwingData{
		SessionID:          sessionID,
		StartTime:          a.StartTime.UTC(),
		ImpactTime:         impact,
		BackswingMs:        a.BackswingDuration.Milliseconds(),
		DownswingMs:        a.DownswingDuration.Milliseconds(),
		TotalMs:            a.TotalDuration.Milliseconds(),
		TempoRatio:         a.TempoRatio(),
		PeakAccel:          a.PeakAccel,
		PeakRotation:       a.PeakRotation,
		ImpactDetected:     a.ImpactDetected,
		ImpactDeceleration: a.ImpactDeceleration,
		HandSpeed:          a.PeakHandSpeed,
		ClubheadSpeed:      a.ClubheadSpeed,
		SwingPath:          string(a.Path),
		SwingType:          string(a.Type),
	}
}
