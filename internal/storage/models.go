package storage

import (
	"database/sql"
	"time"
)

// SessionData is a practice session row.
type SessionData struct {
	ID         int64
	StartTime  time.Time
	DeviceType string
	DeviceID   string
	Config     sql.NullString
}

// SwingData is a completed swing row.
type SwingData struct {
	ID                 int64
	SessionID          int64
	StartTime          time.Time
	ImpactTime         sql.NullTime
	BackswingMs        int64
	DownswingMs        int64
	TotalMs            int64
	TempoRatio         float64
	PeakAccel          float64
	PeakRotation       float64
	ImpactDetected     bool
	ImpactDeceleration float64
	HandSpeed          float64
	ClubheadSpeed      float64
	SwingPath          string
	SwingType          string
}

// TailSample is one point of a swing's retained motion tail.
type TailSample struct {
	Seq      int
	Accel    float64
	Rotation float64
}
