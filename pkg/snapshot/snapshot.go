// Package snapshot persists exported flow diagrams.
//
// A Record wraps a wire.Snapshot with identity and timestamps so diagrams
// can be listed, reloaded, and overwritten. The Store interface supports
// several backends:
//   - memory: in-process storage for development/testing
//   - file: JSON files in a config directory for CLI use
//   - redis: Redis-backed storage for multi-instance deployments
//   - mongo: MongoDB-backed storage with queryable metadata
//
// # Usage
//
// Create a store:
//
//	// Development
//	store := snapshot.NewMemoryStore()
//
//	// CLI
//	store, err := snapshot.NewFileStore("") // ~/.config/flowgrid/snapshots/
//
//	// Production
//	store := snapshot.NewRedisStore(rdb)
//
// Save and reload a diagram:
//
//	rec := snapshot.NewRecord("pipeline", editor.Export())
//	if err := store.Set(ctx, rec); err != nil {
//	    return err
//	}
//	rec, err := store.Get(ctx, rec.ID)
package snapshot

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/flowgrid/flowgrid/pkg/errors"
	"github.com/flowgrid/flowgrid/pkg/wire"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New(errors.ErrCodeSnapshotNotFound, "snapshot not found")

// Record is a stored diagram with identity and timestamps.
type Record struct {
	ID        string        `json:"id" bson:"_id"`
	Name      string        `json:"name" bson:"name"`
	CreatedAt time.Time     `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time     `json:"updated_at" bson:"updated_at"`
	Snapshot  wire.Snapshot `json:"snapshot" bson:"snapshot"`
}

// Info is the listing view of a record, without the diagram payload.
type Info struct {
	ID        string    `json:"id" bson:"_id"`
	Name      string    `json:"name" bson:"name"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

// info strips the payload for listings.
func (r *Record) info() Info {
	return Info{ID: r.ID, Name: r.Name, CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt}
}

// NewRecord creates a record around an exported snapshot with a fresh id.
func NewRecord(name string, snap *wire.Snapshot) *Record {
	now := time.Now().UTC()
	return &Record{
		ID:        uuid.NewString(),
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
		Snapshot:  *snap,
	}
}

// sortInfos orders listings newest first, with the id as tiebreaker so
// the order is stable for records sharing a timestamp.
func sortInfos(infos []Info) {
	sort.Slice(infos, func(i, j int) bool {
		if !infos[i].UpdatedAt.Equal(infos[j].UpdatedAt) {
			return infos[i].UpdatedAt.After(infos[j].UpdatedAt)
		}
		return infos[i].ID < infos[j].ID
	})
}

// Store is the interface for snapshot storage backends.
type Store interface {
	// Get retrieves a record by id.
	// Returns ErrNotFound if the record doesn't exist.
	Get(ctx context.Context, id string) (*Record, error)

	// Set stores a record, overwriting any record with the same id.
	// UpdatedAt is refreshed on every call.
	Set(ctx context.Context, rec *Record) error

	// Delete removes a record. Deleting a missing record is not an error.
	Delete(ctx context.Context, id string) error

	// List returns metadata for every stored record, newest first.
	List(ctx context.Context) ([]Info, error)
}
