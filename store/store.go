package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/teranos/cspace/db"
	"github.com/teranos/cspace/errors"
	"github.com/teranos/cspace/logger"
	"github.com/teranos/cspace/space"
)

// Query constants
const (
	InsertSnapshotQuery = `
		INSERT OR IGNORE INTO snapshots (cid, space_id, format, record)
		VALUES (?, ?, ?, ?)`

	HeadQuery = `
		SELECT head_cid FROM spaces WHERE id = ?`

	UpsertSpaceQuery = `
		INSERT INTO spaces (id, name, head_cid, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			head_cid = excluded.head_cid,
			updated_at = excluded.updated_at`

	InsertHistoryQuery = `
		INSERT INTO space_history (space_id, cid) VALUES (?, ?)`

	LoadHeadQuery = `
		SELECT s.record FROM spaces sp
		JOIN snapshots s ON s.cid = sp.head_cid
		WHERE sp.id = ?`

	LoadSnapshotQuery = `
		SELECT record FROM snapshots WHERE cid = ?`

	ListQuery = `
		SELECT id, name, head_cid, updated_at FROM spaces ORDER BY name, id`

	HistoryQuery = `
		SELECT seq, cid, saved_at FROM space_history WHERE space_id = ? ORDER BY seq`

	DeleteHistoryQuery = `
		DELETE FROM space_history WHERE space_id = ?`

	DeleteSpaceQuery = `
		DELETE FROM spaces WHERE id = ?`

	DeleteSnapshotsQuery = `
		DELETE FROM snapshots WHERE space_id = ?`
)

// Head is the latest stored state of one space.
type Head struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CID       CID       `json:"cid"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Entry is one head move in a space's history.
type Entry struct {
	Seq     int64     `json:"seq"`
	CID     CID       `json:"cid"`
	SavedAt time.Time `json:"saved_at"`
}

// SpaceStore saves and loads spaces.
type SpaceStore struct {
	db     *sql.DB
	logger *zap.SugaredLogger
}

// New returns a store over a migrated database. A nil logger uses the
// "store" component logger.
func New(conn *sql.DB, l *zap.SugaredLogger) *SpaceStore {
	if l == nil {
		l = logger.ComponentLogger("store")
	}
	return &SpaceStore{db: conn, logger: l}
}

// Save snapshots sp and moves its head to the snapshot. Saving a space whose
// head already has the same content changes nothing.
func (s *SpaceStore) Save(ctx context.Context, sp *space.Space) (CID, error) {
	record, err := Encode(sp)
	if err != nil {
		return "", err
	}
	cid := ComputeCID(record)
	id := sp.ID().String()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", errors.Wrap(db.Classify(err), "begin save")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, InsertSnapshotQuery, string(cid), id, FormatVersion, record); err != nil {
		return "", errors.Wrapf(db.Classify(err), "insert snapshot %s", cid)
	}

	var head string
	switch err := tx.QueryRowContext(ctx, HeadQuery, id).Scan(&head); {
	case err == nil && CID(head) == cid:
		if err := tx.Commit(); err != nil {
			return "", errors.Wrap(db.Classify(err), "commit save")
		}
		s.logger.Debugw("Space unchanged", logger.FieldSpaceID, id, logger.FieldSnapshot, cid.String())
		return cid, nil
	case err != nil && !errors.Is(err, sql.ErrNoRows):
		return "", errors.Wrapf(db.Classify(err), "read head of %s", id)
	}

	if _, err := tx.ExecContext(ctx, UpsertSpaceQuery, id, sp.Name(), string(cid)); err != nil {
		return "", errors.Wrapf(db.Classify(err), "move head of %s", id)
	}
	if _, err := tx.ExecContext(ctx, InsertHistoryQuery, id, string(cid)); err != nil {
		return "", errors.Wrapf(db.Classify(err), "record history of %s", id)
	}
	if err := tx.Commit(); err != nil {
		return "", errors.Wrap(db.Classify(err), "commit save")
	}

	s.logger.Infow("Space saved",
		logger.FieldSpaceID, id,
		logger.FieldSpaceName, sp.Name(),
		logger.FieldSnapshot, cid.String(),
		"bytes", len(record))
	return cid, nil
}

// Load returns the head snapshot of a space.
func (s *SpaceStore) Load(ctx context.Context, id uuid.UUID, opts ...space.Option) (*space.Space, error) {
	var record []byte
	err := s.db.QueryRowContext(ctx, LoadHeadQuery, id.String()).Scan(&record)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.NotFoundf("space %s", id)
	}
	if err != nil {
		return nil, errors.Wrapf(db.Classify(err), "load space %s", id)
	}
	return Decode(record, opts...)
}

// LoadSnapshot returns the space stored under cid. The record is rehashed
// and must match its address.
func (s *SpaceStore) LoadSnapshot(ctx context.Context, cid CID, opts ...space.Option) (*space.Space, error) {
	var record []byte
	err := s.db.QueryRowContext(ctx, LoadSnapshotQuery, string(cid)).Scan(&record)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.NotFoundf("snapshot %s", cid)
	}
	if err != nil {
		return nil, errors.Wrapf(db.Classify(err), "load snapshot %s", cid)
	}
	if got := ComputeCID(record); got != cid {
		return nil, errors.Newf("snapshot %s is corrupt: content hashes to %s", cid, got)
	}
	return Decode(record, opts...)
}

// List returns the head of every stored space, by name.
func (s *SpaceStore) List(ctx context.Context) ([]Head, error) {
	rows, err := s.db.QueryContext(ctx, ListQuery)
	if err != nil {
		return nil, errors.Wrap(db.Classify(err), "list spaces")
	}
	defer rows.Close()

	var out []Head
	for rows.Next() {
		var h Head
		var id, cid string
		if err := rows.Scan(&id, &h.Name, &cid, &h.UpdatedAt); err != nil {
			return nil, errors.Wrap(err, "scan space")
		}
		if h.ID, err = uuid.Parse(id); err != nil {
			return nil, errors.Wrapf(err, "stored space id %q", id)
		}
		h.CID = CID(cid)
		out = append(out, h)
	}
	return out, errors.Wrap(rows.Err(), "list spaces")
}

// History returns every head move of a space, oldest first.
func (s *SpaceStore) History(ctx context.Context, id uuid.UUID) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, HistoryQuery, id.String())
	if err != nil {
		return nil, errors.Wrapf(db.Classify(err), "history of %s", id)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var cid string
		if err := rows.Scan(&e.Seq, &cid, &e.SavedAt); err != nil {
			return nil, errors.Wrap(err, "scan history")
		}
		e.CID = CID(cid)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrapf(err, "history of %s", id)
	}
	if len(out) == 0 {
		return nil, errors.NotFoundf("space %s", id)
	}
	return out, nil
}

// Delete removes a space with its history and snapshots.
func (s *SpaceStore) Delete(ctx context.Context, id uuid.UUID) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(db.Classify(err), "begin delete")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, DeleteHistoryQuery, id.String()); err != nil {
		return errors.Wrapf(db.Classify(err), "delete history of %s", id)
	}
	res, err := tx.ExecContext(ctx, DeleteSpaceQuery, id.String())
	if err != nil {
		return errors.Wrapf(db.Classify(err), "delete space %s", id)
	}
	if n, err := res.RowsAffected(); err != nil {
		return errors.Wrap(err, "delete space")
	} else if n == 0 {
		return errors.NotFoundf("space %s", id)
	}
	if _, err := tx.ExecContext(ctx, DeleteSnapshotsQuery, id.String()); err != nil {
		return errors.Wrapf(db.Classify(err), "delete snapshots of %s", id)
	}
	if err := tx.Commit(); err != nil {
		return errors.Wrap(db.Classify(err), "commit delete")
	}
	logger.DBInfow("Space deleted", logger.FieldSpaceID, id.String())
	return nil
}
