package store

import (
	"context"
	"fmt"
	"time"
)

// Triple is one semantic statement about a subject. Objects are literals
// (string, bool, int64, float64, time.Time) or IRI reference strings.
type Triple struct {
	// Subject identifies the resource this triple describes
	Subject string `json:"subject"`

	// Predicate is the IRI naming the relation
	Predicate string `json:"predicate"`

	// Object carries the literal value or IRI reference
	Object any `json:"object"`

	// Lang is the language tag for language-tagged literals
	Lang string `json:"lang,omitempty"`

	// Datatype is an optional datatype IRI hint for the object value
	Datatype string `json:"datatype,omitempty"`

	// Index carries the zero-based position for ordered-list elements.
	// nil for every other collection kind.
	Index *int `json:"index,omitempty"`
}

// Key returns a comparable identity for the triple, used for diffing.
// Index participates: moving a list element is a remove plus an add.
func (t Triple) Key() string {
	idx := ""
	if t.Index != nil {
		idx = fmt.Sprintf("%d", *t.Index)
	}
	obj := t.Object
	if tm, ok := obj.(time.Time); ok {
		obj = tm.UTC().Format(time.RFC3339Nano)
	}
	return fmt.Sprintf("%s|%s|%v|%s|%s|%s", t.Subject, t.Predicate, obj, t.Lang, t.Datatype, idx)
}

// Store is the collaborator contract the mapping engine persists through.
// Implementations must treat an unknown subject as empty, not as an error.
type Store interface {
	// LoadTriples returns all triples with the given subject.
	// An absent subject yields an empty slice.
	LoadTriples(ctx context.Context, subject string) ([]Triple, error)

	// ApplyDiff atomically removes then adds the given triples for one
	// subject. A concurrent modification surfaces as ErrStoreConflict;
	// on any error the subject's stored state is unchanged.
	ApplyDiff(ctx context.Context, subject string, add, remove []Triple) error

	// Exists reports whether any triple exists for the identifier.
	// Used by identifier generation for uniqueness checks.
	Exists(ctx context.Context, identifier string) (bool, error)

	// DeleteAll removes every triple with the given subject.
	DeleteAll(ctx context.Context, subject string) error
}
