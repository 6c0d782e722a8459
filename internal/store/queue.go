package store

import (
	"database/sql"
	"time"

	dbutil "github.com/jdelattre/localwave/internal/db"
	"github.com/jdelattre/localwave/internal/media"
)

// queueRow is one durable queue entry. Positions are implicit: rows are
// always written back as a contiguous 0..n-1 sequence.
type queueRow struct {
	trackID int64
	addedAt int64
}

func readQueue(tx *sql.Tx) ([]queueRow, error) {
	rows, err := tx.Query(`SELECT track_id, added_at FROM queue_items ORDER BY position`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []queueRow
	for rows.Next() {
		var r queueRow
		if err := rows.Scan(&r.trackID, &r.addedAt); err != nil {
			return nil, err
		}
		items = append(items, r)
	}
	return items, rows.Err()
}

// writeQueue replaces the whole table with items, renumbered 0..n-1.
// Combined with WithTx this gives the all-or-nothing guarantee for queue
// rewrites: a crash mid-mutation leaves the previous queue intact.
func writeQueue(tx *sql.Tx, items []queueRow) error {
	if _, err := tx.Exec(`DELETE FROM queue_items`); err != nil {
		return err
	}

	stmt, err := tx.Prepare(`INSERT INTO queue_items (track_id, position, added_at) VALUES (?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, item := range items {
		if _, err := stmt.Exec(item.trackID, i, item.addedAt); err != nil {
			return err
		}
	}
	return nil
}

// ReplaceQueue replaces the durable queue with trackIDs in order.
func (s *Store) ReplaceQueue(trackIDs []int64) error {
	now := time.Now().UnixMilli()
	items := make([]queueRow, len(trackIDs))
	for i, id := range trackIDs {
		items[i] = queueRow{trackID: id, addedAt: now}
	}
	return dbutil.WithTx(s.db, func(tx *sql.Tx) error {
		return writeQueue(tx, items)
	})
}

// QueueTrackIDs returns the queued track ids in queue order.
func (s *Store) QueueTrackIDs() ([]int64, error) {
	rows, err := s.db.Query(`SELECT track_id FROM queue_items ORDER BY position`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// QueuePositions returns the raw stored positions in order; used to verify
// the contiguity invariant.
func (s *Store) QueuePositions() ([]int, error) {
	rows, err := s.db.Query(`SELECT position FROM queue_items ORDER BY position`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var positions []int
	for rows.Next() {
		var p int
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		positions = append(positions, p)
	}
	return positions, rows.Err()
}

// QueueTracks returns the queued tracks resolved against the library, in
// queue order.
func (s *Store) QueueTracks() ([]media.Track, error) {
	rows, err := s.db.Query(`
		SELECT ` + trackColumns + `
		FROM tracks t
		INNER JOIN queue_items qi ON t.id = qi.track_id
		ORDER BY qi.position
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanTracks(rows)
}
