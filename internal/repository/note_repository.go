package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/collab-notes/internal/model"
)

// NoteRepo persists notes and their share lists.  Shares live in the
// note_shares table, which carries no unique constraint: appending the same
// user twice produces two rows, matching the service's non-deduplicating
// share semantics.
type NoteRepo struct{ DB *sql.DB }

func NewNoteRepo(db *sql.DB) *NoteRepo { return &NoteRepo{DB: db} }

// Create inserts a note and fills in its id and timestamps.
func (r *NoteRepo) Create(ctx context.Context, n *model.Note) error {
	now := time.Now().UTC().Truncate(time.Second)
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO notes (title, content, owner_id, created_at, updated_at) VALUES (?,?,?,?,?)",
		n.Title, n.Content, n.OwnerID, now, now)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	n.ID = uint64(id)
	n.CreatedAt = now
	n.UpdatedAt = now
	if n.SharedWith == nil {
		n.SharedWith = []uint64{}
	}
	return nil
}

// GetByID fetches a note with its share list.
func (r *NoteRepo) GetByID(ctx context.Context, id uint64) (model.Note, error) {
	var n model.Note
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,title,content,owner_id,created_at,updated_at FROM notes WHERE id=? LIMIT 1",
		id).Scan(&n.ID, &n.Title, &n.Content, &n.OwnerID, &n.CreatedAt, &n.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Note{}, ErrNoteNotFound
		}
		return model.Note{}, err
	}
	n.SharedWith, err = r.loadShares(ctx, n.ID)
	return n, err
}

// ListForUser returns notes the user owns or that are shared with them.
// Ordering by creation time is for determinism only; the API contract does
// not promise an order.
func (r *NoteRepo) ListForUser(ctx context.Context, userID uint64) ([]model.Note, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT DISTINCT n.id, n.title, n.content, n.owner_id, n.created_at, n.updated_at
		FROM notes n
		LEFT JOIN note_shares s ON s.note_id = n.id
		WHERE n.owner_id = ? OR s.user_id = ?
		ORDER BY n.created_at, n.id`,
		userID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	notes := []model.Note{}
	for rows.Next() {
		var n model.Note
		if err := rows.Scan(&n.ID, &n.Title, &n.Content, &n.OwnerID, &n.CreatedAt, &n.UpdatedAt); err != nil {
			return nil, err
		}
		notes = append(notes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range notes {
		shares, err := r.loadShares(ctx, notes[i].ID)
		if err != nil {
			return nil, err
		}
		notes[i].SharedWith = shares
	}
	return notes, nil
}

// Update persists title, content and updated_at for an existing note.
func (r *NoteRepo) Update(ctx context.Context, n *model.Note) error {
	n.UpdatedAt = time.Now().UTC().Truncate(time.Second)
	_, err := r.DB.ExecContext(ctx,
		"UPDATE notes SET title=?, content=?, updated_at=? WHERE id=?",
		n.Title, n.Content, n.UpdatedAt, n.ID)
	return err
}

// Delete removes a note and its share rows.
func (r *NoteRepo) Delete(ctx context.Context, id uint64) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM note_shares WHERE note_id=?", id); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM notes WHERE id=?", id)
	if err != nil {
		return err
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return ErrNoteNotFound
	}
	return tx.Commit()
}

// AddShare appends a share row without deduplication or a users lookup.
func (r *NoteRepo) AddShare(ctx context.Context, noteID, userID uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO note_shares (note_id, user_id) VALUES (?,?)",
		noteID, userID)
	return err
}

func (r *NoteRepo) loadShares(ctx context.Context, noteID uint64) ([]uint64, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT user_id FROM note_shares WHERE note_id=? ORDER BY id", noteID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	shares := []uint64{}
	for rows.Next() {
		var uid uint64
		if err := rows.Scan(&uid); err != nil {
			return nil, err
		}
		shares = append(shares, uid)
	}
	return shares, rows.Err()
}
