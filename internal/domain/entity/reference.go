package entity

import (
	"encoding/json"
	"errors"
)

// Reference points at another record either by id alone or together with the
// loaded record. Consumers branch on Resolved instead of inspecting the
// payload shape.
type Reference[T any] struct {
	id       string
	value    *T
	resolved bool
}

func RefID[T any](id string) Reference[T] {
	return Reference[T]{id: id}
}

func Resolved[T any](id string, value *T) Reference[T] {
	if value == nil {
		return RefID[T](id)
	}
	return Reference[T]{id: id, value: value, resolved: true}
}

func (r Reference[T]) ID() string { return r.id }

func (r Reference[T]) Resolved() bool { return r.resolved }

// Value returns the loaded record and true when the reference is resolved.
func (r Reference[T]) Value() (*T, bool) {
	return r.value, r.resolved
}

// MarshalJSON writes the full record when resolved and the bare id otherwise.
func (r Reference[T]) MarshalJSON() ([]byte, error) {
	if r.resolved {
		return json.Marshal(r.value)
	}
	return json.Marshal(r.id)
}

// UnmarshalJSON accepts only the id form; resolution is a server-side concern.
func (r *Reference[T]) UnmarshalJSON(data []byte) error {
	var id string
	if err := json.Unmarshal(data, &id); err != nil {
		return errors.New("reference must be an id string")
	}
	*r = RefID[T](id)
	return nil
}
