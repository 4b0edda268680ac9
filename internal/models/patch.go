package models

import (
	"bytes"
	"encoding/json"
)

// Optional is a JSON field that remembers whether it was present and whether it was null.
//
// The zero value is "absent".
type Optional[T any] struct {
	Present bool
	Null    bool
	Value   T
}

// Some returns a present, non-null Optional.
func Some[T any](v T) Optional[T] {
	return Optional[T]{Present: true, Value: v}
}

// Null returns a present Optional holding JSON null.
func Null[T any]() Optional[T] {
	return Optional[T]{Present: true, Null: true}
}

// IsSet reports whether the field carries a value, i.e. it is present and not null.
func (o Optional[T]) IsSet() bool {
	return o.Present && !o.Null
}

// Get returns the value and whether it is set.
func (o Optional[T]) Get() (T, bool) {
	return o.Value, o.IsSet()
}

// UnmarshalJSON is only invoked for keys present in the document.
func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Present = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.Null = true
		var zero T
		o.Value = zero
		return nil
	}
	o.Null = false
	return json.Unmarshal(data, &o.Value)
}

// MarshalJSON writes null for absent and null fields.
func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if !o.IsSet() {
		return []byte("null"), nil
	}
	return json.Marshal(o.Value)
}

// UserPatch is a partial update to a [User]. Absent and null fields mean "no change".
//
// Identity and creation time are not part of the type and cannot be patched.
type UserPatch struct {
	Username     Optional[string] `json:"username"`
	FirstName    Optional[string] `json:"first_name"`
	LastName     Optional[string] `json:"last_name"`
	Email        Optional[string] `json:"email"`
	PasswordHash Optional[string] `json:"-"`
}

// IsEmpty reports whether no field carries a value.
func (p UserPatch) IsEmpty() bool {
	return !p.Username.IsSet() && !p.FirstName.IsSet() && !p.LastName.IsSet() &&
		!p.Email.IsSet() && !p.PasswordHash.IsSet()
}

// Apply writes the set fields onto u and reports whether anything changed.
func (p UserPatch) Apply(u *User) bool {
	changed := false
	set := func(dst *string, o Optional[string]) {
		if v, ok := o.Get(); ok && *dst != v {
			*dst = v
			changed = true
		}
	}
	set(&u.Username, p.Username)
	set(&u.FirstName, p.FirstName)
	set(&u.LastName, p.LastName)
	set(&u.Email, p.Email)
	set(&u.PasswordHash, p.PasswordHash)
	return changed
}
