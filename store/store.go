// Package store persists serialized tempo maps in SQLite, keyed by track. Every save adds a revision; loading a track
// returns its latest revision.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/gruntwork-io/go-commons/errors"
	"github.com/robmorgan/tempomap/audio"
	"github.com/robmorgan/tempomap/beats"
	"github.com/robmorgan/tempomap/logger"
	"github.com/sirupsen/logrus"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS beats (
	id TEXT PRIMARY KEY,
	track_id TEXT NOT NULL,
	version TEXT NOT NULL,
	sub_version TEXT NOT NULL,
	sample_rate REAL NOT NULL,
	data BLOB NOT NULL,
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_beats_track ON beats(track_id, created_at);
`

// Record describes one stored revision of a track's tempo map.
type Record struct {
	ID         uuid.UUID
	TrackID    string
	Version    string
	SubVersion string
	SampleRate audio.SampleRate
	Data       []byte
	CreatedAt  time.Time
}

// Beats decodes the stored bytes.
func (r Record) Beats() (*beats.Beats, error) {
	return beats.FromByteArray(r.SampleRate, r.Version, r.SubVersion, r.Data)
}

// NotFoundError is returned when a track has no stored tempo map.
type NotFoundError struct {
	TrackID string
}

func (err NotFoundError) Error() string {
	return fmt.Sprintf("no beats stored for track %q", err.TrackID)
}

// Store wraps the SQL database with tempo map specific methods.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens (and if needed creates) the database at path.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.WithStackTrace(err)
	}
	// SQLite allows a single writer; serialize access through one connection.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, errors.WithStackTrace(err)
	}

	logger.GetProjectLogger().WithFields(logrus.Fields{"path": path}).Debug("Opened beats store")
	return &Store{db: db, now: time.Now}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save stores b as the newest revision for trackID and returns the revision id.
func (s *Store) Save(ctx context.Context, trackID string, b *beats.Beats) (uuid.UUID, error) {
	id := uuid.New()
	data := b.ToByteArray()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO beats (id, track_id, version, sub_version, sample_rate, data, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id.String(), trackID, b.Version(), b.SubVersion(), b.SampleRate().Value(), data, s.now().UnixNano(),
	)
	if err != nil {
		return uuid.Nil, errors.WithStackTrace(err)
	}

	logger.GetProjectLogger().WithFields(logrus.Fields{
		"track_id":  trackID,
		"id":        id,
		"version":   b.Version(),
		"num_bytes": len(data),
	}).Info("Saved beats")
	return id, nil
}

// Load returns the latest tempo map stored for trackID.
func (s *Store) Load(ctx context.Context, trackID string) (*beats.Beats, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, track_id, version, sub_version, sample_rate, data, created_at FROM beats
		WHERE track_id = ? ORDER BY created_at DESC, rowid DESC LIMIT 1`,
		trackID,
	)
	record, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, NotFoundError{TrackID: trackID}
	}
	if err != nil {
		return nil, errors.WithStackTrace(err)
	}

	b, err := record.Beats()
	if err != nil {
		return nil, errors.WithStackTrace(err)
	}
	return b, nil
}

// History returns every stored revision for trackID, newest first.
func (s *Store) History(ctx context.Context, trackID string) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, track_id, version, sub_version, sample_rate, data, created_at FROM beats
		WHERE track_id = ? ORDER BY created_at DESC, rowid DESC`,
		trackID,
	)
	if err != nil {
		return nil, errors.WithStackTrace(err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, errors.WithStackTrace(err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.WithStackTrace(err)
	}
	return records, nil
}

// Delete removes every revision stored for trackID. It returns the number of removed revisions.
func (s *Store) Delete(ctx context.Context, trackID string) (int64, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM beats WHERE track_id = ?`, trackID)
	if err != nil {
		return 0, errors.WithStackTrace(err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, errors.WithStackTrace(err)
	}
	return n, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(row scanner) (Record, error) {
	var (
		record     Record
		id         string
		sampleRate float64
		createdAt  int64
	)
	err := row.Scan(&id, &record.TrackID, &record.Version, &record.SubVersion, &sampleRate, &record.Data, &createdAt)
	if err != nil {
		return Record{}, err
	}

	record.ID, err = uuid.Parse(id)
	if err != nil {
		return Record{}, err
	}
	record.SampleRate = audio.SampleRate(sampleRate)
	record.CreatedAt = time.Unix(0, createdAt)
	return record, nil
}
