package types

import (
	"bytes"
	"encoding/json"

	"github.com/google/uuid"
)

// Nullable tracks whether a JSON field was present and, if so, whether it was
// null. PATCH handlers use it to tell "leave alone" from "clear".
type Nullable[T any] struct {
	Set   bool
	Value *T
}

// UnmarshalJSON implements json.Unmarshaler.
func (n *Nullable[T]) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil
	}

	n.Set = true
	if bytes.Equal(trimmed, []byte("null")) {
		n.Value = nil
		return nil
	}

	var parsed T
	if err := json.Unmarshal(trimmed, &parsed); err != nil {
		return err
	}
	n.Value = &parsed
	return nil
}

// Apply writes the field into dst when it was present in the payload.
func (n Nullable[T]) Apply(dst **T) {
	if !n.Set {
		return
	}
	if n.Value == nil {
		*dst = nil
		return
	}
	v := *n.Value
	*dst = &v
}

// NullableUUID is the common case for optional foreign keys.
type NullableUUID = Nullable[uuid.UUID]
