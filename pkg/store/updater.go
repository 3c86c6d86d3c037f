package store

import (
	"context"
	"fmt"

	"github.com/acme/taskmanager/pkg/apperrors"
)

// UpdateTarget is the part of a Store the Updater needs.
type UpdateTarget interface {
	IDColumn() string
	UpdateSet(ctx context.Context, c Criteria, assignments Assignments) (int64, error)
}

// Updater applies sparse patches of type P to rows identified by ID.
type Updater[P Partial, ID comparable] struct {
	target UpdateTarget
}

// NewUpdater returns an Updater writing through target.
func NewUpdater[P Partial, ID comparable](target UpdateTarget) *Updater[P, ID] {
	return &Updater[P, ID]{target: target}
}

// ApplyPartial writes only the present attributes of patch to the row with
// id. It returns the affected-row count as reported by the store; 0 means no
// row matched and is not an error here.
func (u *Updater[P, ID]) ApplyPartial(ctx context.Context, id ID, patch P) (int64, error) {
	idColumn := u.target.IDColumn()

	assignments := BuildAssignments(idColumn, patch)
	if len(assignments) == 0 {
		return 0, fmt.Errorf("%w: nothing to update", apperrors.ErrInvalidArgument)
	}

	return u.target.UpdateSet(ctx, Where(idColumn).Is(id), assignments)
}
