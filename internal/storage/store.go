// Package storage persists practice sessions and completed swings to a
// per-session SQLite database.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	_ "github.com/mattn/go-sqlite3"

	"github.com/swingworks/swingsense/internal/swing"
)

// Store handles database operations. Write and read connections are opened
// lazily and independently; writes run in WAL mode, reads open the file
// read-only.
type Store struct {
	dbPath string

	writeDB     *sql.DB
	writeDBOnce sync.Once
	writeDBErr  error

	readDB     *sql.DB
	readDBOnce sync.Once
	readDBErr  error

	closeOnce sync.Once
	closeErr  error
}

// New creates a store backed by the SQLite database at dbPath. The file and
// schema are created on first write.
func New(dbPath string) *Store {
	return &Store{dbPath: dbPath}
}

func runSQLCommand(db *sql.DB, sql string) error {
	_, err := db.Exec(sql)
	return err
}

func (s *Store) getWriteDB() (*sql.DB, error) {
	s.writeDBOnce.Do(func() {
		db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?%s", s.dbPath, "_journal_mode=WAL&_synchronous=NORMAL"))
		if err != nil {
			s.writeDBErr = fmt.Errorf("opening write connection: %w", err)
			return
		}

		if err = runSQLCommand(db, schemaSQL); err != nil {
			_ = db.Close()
			s.writeDBErr = fmt.Errorf("initializing schema: %w", err)
			return
		}

		s.writeDB = db
	})

	return s.writeDB, s.writeDBErr
}

func (s *Store) getReadDB() (*sql.DB, error) {
	s.readDBOnce.Do(func() {
		db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?%s", s.dbPath, "mode=ro"))
		if err != nil {
			s.readDBErr = fmt.Errorf("opening read connection: %w", err)
			return
		}
		s.readDB = db
	})

	return s.readDB, s.readDBErr
}

// CreateSession creates a new practice session and returns its ID. Config
// may be a string, []byte, or any JSON-serializable value.
func (s *Store) CreateSession(ctx context.Context, deviceType, deviceID string, config any) (sessionID int64, err error) {
	var configData sql.NullString

	if config != nil {
		switch c := config.(type) {
		case string:
			configData.Valid = true
			configData.String = c

		case []byte:
			configData.Valid = true
			configData.String = string(c)

		default:
			var p []byte
			if p, err = json.Marshal(config); err != nil {
				err = fmt.Errorf("marshaling config: %w", err)
				return
			}

			configData.Valid = true
			configData.String = string(p)
		}
	}

	db, err := s.getWriteDB()
	if err != nil {
		err = fmt.Errorf("getting write connection: %w", err)
		return
	}

	stmt, err := db.PrepareContext(ctx, insertSessionSQL)
	if err != nil {
		err = fmt.Errorf("preparing statement: %w", err)
		return
	}
	defer closeWithError(stmt, &err)

	result, err := stmt.ExecContext(ctx, deviceType, deviceID, configData)
	if err != nil {
		err = fmt.Errorf("inserting session: %w", err)
		return
	}

	sessionID, err = result.LastInsertId()
	if err != nil {
		err = fmt.Errorf("getting session ID: %w", err)
	}
	return
}

// Session returns a session by its ID.
func (s *Store) Session(ctx context.Context, id int64) (session *SessionData, err error) {
	db, err := s.getReadDB()
	if err != nil {
		err = fmt.Errorf("getting read connection: %w", err)
		return
	}

	stmt, err := db.PrepareContext(ctx, selectSessionSQL)
	if err != nil {
		err = fmt.Errorf("preparing statement: %w", err)
		return
	}
	defer closeWithError(stmt, &err)

	var sess SessionData
	if err = stmt.QueryRowContext(ctx, id).Scan(&sess.ID, &sess.StartTime, &sess.DeviceType, &sess.DeviceID, &sess.Config); err != nil {
		err = fmt.Errorf("scanning session: %w", err)
		return
	}
	return &sess, nil
}

// Sessions returns all sessions ordered by start time.
func (s *Store) Sessions(ctx context.Context) (sessions []*SessionData, err error) {
	db, err := s.getReadDB()
	if err != nil {
		err = fmt.Errorf("getting read connection: %w", err)
		return
	}

	rows, err := db.QueryContext(ctx, selectSessionsSQL)
	if err != nil {
		err = fmt.Errorf("querying sessions: %w", err)
		return
	}
	defer closeWithError(rows, &err)

	for rows.Next() {
		var sess SessionData
		if err = rows.Scan(&sess.ID, &sess.StartTime, &sess.DeviceType, &sess.DeviceID, &sess.Config); err != nil {
			err = fmt.Errorf("scanning session: %w", err)
			return
		}
		sessions = append(sessions, &sess)
	}
	return
}

// StoreSwing saves a completed swing's analytics and returns the swing ID.
func (s *Store) StoreSwing(ctx context.Context, sessionID int64, a *swing.Analytics) (swingID int64, err error) {
	db, err := s.getWriteDB()
	if err != nil {
		err = fmt.Errorf("getting write connection: %w", err)
		return
	}

	stmt, err := db.PrepareContext(ctx, insertSwingSQL)
	if err != nil {
		err = fmt.Errorf("preparing statement: %w", err)
		return
	}
	defer closeWithError(stmt, &err)

	data := toSwingData(sessionID, a)

	result, err := stmt.ExecContext(
		ctx,
		data.SessionID,
		data.StartTime,
		data.ImpactTime,
		data.BackswingMs,
		data.DownswingMs,
		data.TotalMs,
		data.TempoRatio,
		data.PeakAccel,
		data.PeakRotation,
		data.ImpactDetected,
		data.ImpactDeceleration,
		data.HandSpeed,
		data.ClubheadSpeed,
		data.SwingPath,
		data.SwingType,
	)
	if err != nil {
		err = fmt.Errorf("inserting swing: %w", err)
		return
	}

	swingID, err = result.LastInsertId()
	if err != nil {
		err = fmt.Errorf("getting swing ID: %w", err)
	}
	return
}

// StoreSwingTail saves a chunk of a swing's retained motion tail in a
// single transaction. startSeq is the sequence number of the first point, so
// a long tail can be written in several batches. The accel and rotation
// slices must have equal length.
func (s *Store) StoreSwingTail(ctx context.Context, swingID int64, startSeq int, accel, rotation []float64) (err error) {
	if len(accel) == 0 {
		return
	}
	if len(accel) != len(rotation) {
		return fmt.Errorf("tail length mismatch: %d accel vs %d rotation", len(accel), len(rotation))
	}

	db, err := s.getWriteDB()
	if err != nil {
		return fmt.Errorf("getting write connection: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer rollbackWithError(tx, &err)

	values := make([]interface{}, 0, len(accel)*4)
	valuesPlaceholder := "(?, ?, ?, ?)"

	var sb strings.Builder
	sb.WriteString(insertSwingSampleSQL)

	for i := range accel {
		values = append(values, swingID, startSeq+i, accel[i], rotation[i])
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(valuesPlaceholder)
	}

	if _, err = tx.ExecContext(ctx, sb.String(), values...); err != nil {
		return fmt.Errorf("batch inserting tail samples: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	return nil
}

// SwingTail returns a swing's retained motion tail ordered by sequence.
func (s *Store) SwingTail(ctx context.Context, swingID int64) (samples []TailSample, err error) {
	db, err := s.getReadDB()
	if err != nil {
		err = fmt.Errorf("getting read connection: %w", err)
		return
	}

	rows, err := db.QueryContext(ctx, selectSwingSamplesSQL, swingID)
	if err != nil {
		err = fmt.Errorf("querying tail samples: %w", err)
		return
	}
	defer closeWithError(rows, &err)

	for rows.Next() {
		var ts TailSample
		if err = rows.Scan(&ts.Seq, &ts.Accel, &ts.Rotation); err != nil {
			err = fmt.Errorf("scanning tail sample: %w", err)
			return
		}
		samples = append(samples, ts)
	}
	return
}

// Close releases both database connections. Indexes are created on close so
// bulk writes during the session stay cheap. Safe to call multiple times.
func (s *Store) Close() error {
	s.closeOnce.Do(func() {
		var writeErr, readErr error

		if s.writeDB != nil {
			_ = runSQLCommand(s.writeDB, initIndexesSQL)

			writeErr = s.writeDB.Close()
			s.writeDB = nil
		}

		if s.readDB != nil {
			readErr = s.readDB.Close()
			s.readDB = nil
		}

		switch {
		case writeErr != nil && readErr != nil:
			s.closeErr = errors.Join(writeErr, readErr)
		case writeErr != nil:
			s.closeErr = writeErr
		case readErr != nil:
			s.closeErr = readErr
		}
	})

	return s.closeErr
}
