package storage

import (
	_ "embed"
)

const (
	insertSessionSQL = `
INSERT INTO sessions (
                      start_time,
                      device_type,
                      device_id,
                      config)
VALUES (CURRENT_TIMESTAMP, ?, ?, ?)`

	selectSessionSQL = `
SELECT
    id,
    start_time,
    device_type,
    device_id,
    config
FROM sessions
WHERE
    id = ?`

	selectSessionsSQL = `
SELECT
    id,
    start_time,
    device_type,
    device_id,
    config
FROM sessions
ORDER BY start_time`

	insertSwingSQL = `
INSERT INTO swings (session_id,
                    start_time,
                    impact_time,
                    backswing_ms,
                    downswing_ms,
                    total_ms,
                    tempo_ratio,
                    peak_accel,
                    peak_rotation,
                    impact_detected,
                    impact_decel,
                    hand_speed,
                    clubhead_speed,
                    swing_path,
                    swing_type)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	insertSwingSampleSQL = `
INSERT INTO swing_samples (swing_id,
                           seq,
                           accel,
                           rotation)
VALUES `

	selectSwingSamplesSQL = `
SELECT
    seq,
    accel,
    rotation
FROM swing_samples
WHERE
    swing_id = ?
ORDER BY seq`

	initIndexesSQL = `
CREATE INDEX IF NOT EXISTS idx_swings_session ON swings (session_id, start_time);
CREATE INDEX IF NOT EXISTS idx_swing_samples_swing ON swing_samples (swing_id, seq);`
)

//go:embed schema.sql
var schemaSQL string
