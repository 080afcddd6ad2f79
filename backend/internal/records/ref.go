// ============================================================================
// backend/internal/records/ref.go
// Dual-shape entity references (bare id or embedded document)
// ============================================================================

package records

import (
	"bytes"
	"encoding/json"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

// referable is implemented by entities that can sit behind a Ref.
type referable interface {
	refKey() string
	refName() string
}

// Ref is a reference to an entity that arrives either as a bare id (unresolved)
// or as a fully embedded entity (resolved). The zero value is an absent reference.
type Ref[T any] struct {
	id    string
	value *T
}

// SubjectRef references a Subject.
type SubjectRef = Ref[Subject]

// ClassRef references a Class.
type ClassRef = Ref[Class]

// RefTo returns an unresolved reference to id.
func RefTo[T any](id string) Ref[T] {
	return Ref[T]{id: id}
}

// Embed returns a resolved reference holding v.
func Embed[T any](v T) Ref[T] {
	id, _ := identity(v)
	return Ref[T]{id: id, value: &v}
}

// ID returns the referenced id in either shape.
func (r Ref[T]) ID() string {
	return r.id
}

// IsZero reports whether the reference is absent.
func (r Ref[T]) IsZero() bool {
	return r.id == "" && r.value == nil
}

// Resolved returns a copy of the embedded entity, if any.
func (r Ref[T]) Resolved() (T, bool) {
	if r.value == nil {
		var zero T
		return zero, false
	}
	return *r.value, true
}

func (r Ref[T]) String() string {
	if r.value != nil {
		_, name := identity(*r.value)
		return fmt.Sprintf("%s(%s)", r.id, name)
	}
	return r.id
}

func identity[T any](v T) (id, name string) {
	if e, ok := any(v).(referable); ok {
		return e.refKey(), e.refName()
	}
	return "", ""
}

// fromDecoded keeps a decoded object as resolved only when it carries a name,
// an object holding just an id is still a bare reference.
func fromDecoded[T any](v T) Ref[T] {
	id, name := identity(v)
	if name == "" {
		return RefTo[T](id)
	}
	return Embed(v)
}

// ============================================================================
// JSON
// ============================================================================

func (r Ref[T]) MarshalJSON() ([]byte, error) {
	switch {
	case r.value != nil:
		return json.Marshal(r.value)
	case r.id == "":
		return []byte("null"), nil
	default:
		return json.Marshal(r.id)
	}
}

func (r *Ref[T]) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*r = Ref[T]{}
		return nil
	}

	if data[0] == '"' {
		var id string
		if err := json.Unmarshal(data, &id); err != nil {
			return fmt.Errorf("decode reference id: %w", err)
		}
		*r = RefTo[T](id)
		return nil
	}

	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("decode embedded reference: %w", err)
	}
	*r = fromDecoded(v)
	return nil
}

// ============================================================================
// BSON
// ============================================================================

func (r Ref[T]) MarshalBSONValue() (bsontype.Type, []byte, error) {
	switch {
	case r.value != nil:
		return bson.MarshalValue(r.value)
	case r.id == "":
		return bsontype.Null, nil, nil
	default:
		return bson.MarshalValue(r.id)
	}
}

func (r *Ref[T]) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	raw := bson.RawValue{Type: t, Value: data}

	switch t {
	case bsontype.Null, bsontype.Undefined:
		*r = Ref[T]{}
	case bsontype.String:
		*r = RefTo[T](raw.StringValue())
	case bsontype.ObjectID:
		*r = RefTo[T](raw.ObjectID().Hex())
	case bsontype.EmbeddedDocument:
		var v T
		if err := raw.Unmarshal(&v); err != nil {
			return fmt.Errorf("decode embedded reference: %w", err)
		}
		*r = fromDecoded(v)
	default:
		return fmt.Errorf("cannot decode %s into a reference", t)
	}
	return nil
}
