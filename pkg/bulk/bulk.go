// Package bulk validates id lists for operator commands that act on many rows.
package bulk

import (
	"fmt"

	"github.com/google/uuid"

	pkgerrors "github.com/angelmondragon/shopfront-backend/pkg/errors"
)

// DefaultMaxIDs caps a single bulk command.
const DefaultMaxIDs = 100

// Result reports how many rows changed and which requested ids did not exist.
type Result struct {
	Updated    int64       `json:"updated"`
	MissingIDs []uuid.UUID `json:"missing_ids"`
}

// NormalizeIDs drops duplicates while keeping order and enforces 1..max ids.
func NormalizeIDs(ids []uuid.UUID, max int) ([]uuid.UUID, error) {
	if max <= 0 {
		max = DefaultMaxIDs
	}
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if id == uuid.Nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "ids must be valid uuids")
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	if len(out) == 0 || len(out) > max {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("between 1 and %d ids are required", max)).
			WithDetails(map[string]any{"received": len(out), "max": max})
	}
	return out, nil
}

// Missing returns the requested ids absent from existing, in request order.
func Missing(requested, existing []uuid.UUID) []uuid.UUID {
	found := make(map[uuid.UUID]struct{}, len(existing))
	for _, id := range existing {
		found[id] = struct{}{}
	}
	out := []uuid.UUID{}
	for _, id := range requested {
		if _, ok := found[id]; !ok {
			out = append(out, id)
		}
	}
	return out
}
