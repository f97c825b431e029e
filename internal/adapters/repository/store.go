// Package repository keeps completed acquisition runs so their dataset
// write can be retried without acquiring again.
package repository

import (
	"context"
	"time"

	"github.com/juraj-juraj/BRIA-project/internal/domain/model"
)

// Record is a stored run and the outcome of its dataset write.
type Record struct {
	Run        model.Run
	Path       string
	Written    bool
	WriteError string
	UpdatedAt  time.Time
}

// Store provides read/write access to completed runs.
type Store interface {
	// Save stores run, replacing any run with the same id.
	Save(ctx context.Context, run model.Run) error

	// Get returns the record for id or ErrNotFound.
	Get(ctx context.Context, id string) (Record, error)

	// List returns all records ordered by run start time.
	List(ctx context.Context) ([]Record, error)

	// MarkWritten records a successful dataset write to path.
	MarkWritten(ctx context.Context, id, path string) error

	// MarkWriteFailed records a failed dataset write.
	MarkWriteFailed(ctx context.Context, id string, cause error) error
}
