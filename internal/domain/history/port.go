package history

import "context"

// Repository port (interface for persistence). Append is the only mutation.
type Repository interface {
	Append(ctx context.Context, r *Record) error
	// List returns records for an identity, most recent first.
	List(ctx context.Context, identity string, limit int) ([]*Record, error)
}
