package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
)

var sqlBuilder = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question)

// swingQuery holds the filters a swing listing can apply.
type swingQuery struct {
	minTempo  *float64
	maxTempo  *float64
	minPeak   *float64
	swingType *string
	startTime *time.Time
	endTime   *time.Time
	limit     uint64
}

// SwingOption configures a swing listing query.
type SwingOption func(*swingQuery)

// WithMinTempo excludes swings with a tempo ratio below t.
func WithMinTempo(t float64) SwingOption {
	return func(q *swingQuery) { q.minTempo = &t }
}

// WithMaxTempo excludes swings with a tempo ratio above t.
func WithMaxTempo(t float64) SwingOption {
	return func(q *swingQuery) { q.maxTempo = &t }
}

// WithMinPeakAccel excludes swings whose peak acceleration is below g.
func WithMinPeakAccel(g float64) SwingOption {
	return func(q *swingQuery) { q.minPeak = &g }
}

// WithSwingType restricts results to one classified swing type.
func WithSwingType(t string) SwingOption {
	return func(q *swingQuery) { q.swingType = &t }
}

// WithTimeRange restricts results to swings started within [start, end].
func WithTimeRange(start, end time.Time) SwingOption {
	return func(q *swingQuery) {
		q.startTime = &start
		q.endTime = &end
	}
}

// WithLimit caps the number of returned swings.
func WithLimit(n uint64) SwingOption {
	return func(q *swingQuery) { q.limit = n }
}

// Swings returns a session's swings ordered by start time, with optional
// filtering.
func (s *Store) Swings(ctx context.Context, sessionID int64, opts ...SwingOption) (swings []SwingData, err error) {
	var q swingQuery
	for _, opt := range opts {
		opt(&q)
	}

	db, err := s.getReadDB()
	if err != nil {
		err = fmt.Errorf("getting read connection: %w", err)
		return
	}

	query := sqlBuilder.Select(
		"id", "session_id", "start_time", "impact_time", "backswing_ms",
		"downswing_ms", "total_ms", "tempo_ratio", "peak_accel", "peak_rotation",
		"impact_detected", "impact_decel", "hand_speed", "clubhead_speed",
		"swing_path", "swing_type",
	).From("swings").Where(squirrel.Eq{"session_id": sessionID})

	if q.minTempo != nil {
		query = query.Where(squirrel.GtOrEq{"tempo_ratio": *q.minTempo})
	}
	if q.maxTempo != nil {
		query = query.Where(squirrel.LtOrEq{"tempo_ratio": *q.maxTempo})
	}
	if q.minPeak != nil {
		query = query.Where(squirrel.GtOrEq{"peak_accel": *q.minPeak})
	}
	if q.swingType != nil {
		query = query.Where(squirrel.Eq{"swing_type": *q.swingType})
	}
	if q.startTime != nil {
		query = query.Where(squirrel.GtOrEq{"start_time": q.startTime.UTC()})
	}
	if q.endTime != nil {
		query = query.Where(squirrel.LtOrEq{"start_time": q.endTime.UTC()})
	}

	query = query.OrderBy("start_time")
	if q.limit > 0 {
		query = query.Limit(q.limit)
	}

	sqlStr, args, err := query.ToSql()
	if err != nil {
		err = fmt.Errorf("building query: %w", err)
		return
	}

	rows, err := db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		err = fmt.Errorf("querying swings: %w", err)
		return
	}
	defer closeWithError(rows, &err)

	for rows.Next() {
		var sw SwingData
		if err = rows.Scan(
			&sw.ID,
			&sw.SessionID,
			&sw.StartTime,
			&sw.ImpactTime,
			&sw.BackswingMs,
			&sw.DownswingMs,
			&sw.TotalMs,
			&sw.TempoRatio,
			&sw.PeakAccel,
			&sw.PeakRotation,
			&sw.ImpactDetected,
			&sw.ImpactDeceleration,
			&sw.HandSpeed,
			&sw.ClubheadSpeed,
			&sw.SwingPath,
			&sw.SwingType,
		); err != nil {
			err = fmt.Errorf("scanning swing: %w", err)
			return
		}
		swings = append(swings, sw)
	}
	err = rows.Err()
	return
}
