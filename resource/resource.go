package resource

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/c360/semmodel/errors"
	"github.com/c360/semmodel/model"
	"github.com/c360/semmodel/schema"
	"github.com/c360/semmodel/store"
)

// State is a resource's position in its lifecycle.
type State int

const (
	// StateTransient means the resource exists only in memory.
	StateTransient State = iota
	// StatePersisted means at least one save reached the store.
	StatePersisted
	// StateDetached means the resource was deleted and is unusable.
	StateDetached
)

// String returns the lifecycle state name.
func (s State) String() string {
	switch s {
	case StateTransient:
		return "transient"
	case StatePersisted:
		return "persisted"
	case StateDetached:
		return "detached"
	default:
		return "unknown"
	}
}

// Resource is a typed object backed by triples. It is not safe for
// concurrent use; callers owning a resource across goroutines must
// serialize access themselves.
type Resource struct {
	mapper *Mapper
	table  *model.EffectiveTable

	identifier string
	state      State

	values        map[string]any
	persisted     map[string]any
	dirty         map[string]bool
	typesAsserted bool
}

func newResource(m *Mapper, table *model.EffectiveTable, identifier string) *Resource {
	return &Resource{
		mapper:     m,
		table:      table,
		identifier: identifier,
		state:      StateTransient,
		values:     make(map[string]any),
		persisted:  make(map[string]any),
		dirty:      make(map[string]bool),
	}
}

// Identifier returns the resource's IRI.
func (r *Resource) Identifier() string {
	return r.identifier
}

// ModelName returns the name of the model this resource conforms to.
func (r *Resource) ModelName() string {
	return r.table.ModelName()
}

// State returns the lifecycle state.
func (r *Resource) State() State {
	return r.state
}

// IsDirty reports whether unsaved attribute changes exist.
func (r *Resource) IsDirty() bool {
	return len(r.dirty) > 0
}

func (r *Resource) checkAttached(operation string) error {
	if r.state != StateDetached {
		return nil
	}
	return errors.WrapFatal(
		fmt.Errorf("%s: %w", r.identifier, errors.ErrDetachedResource),
		"Resource", operation, "lifecycle check")
}

// Get returns the current value of an attribute, or nil when unset.
// Write-only attributes cannot be read back.
func (r *Resource) Get(name string) (any, error) {
	if err := r.checkAttached("Get"); err != nil {
		return nil, err
	}
	def, err := r.table.Lookup(name)
	if err != nil {
		return nil, err
	}
	if def.WriteOnly {
		return nil, errors.WrapInvalid(
			fmt.Errorf("attribute %q: %w", name, errors.ErrWriteOnly),
			"Resource", "Get", "access check")
	}
	return cloneValue(r.values[name]), nil
}

// Set validates and assigns an attribute value. A nil value clears the
// attribute. Read-only attributes accept writes only before the first
// save.
func (r *Resource) Set(name string, value any) error {
	if err := r.checkAttached("Set"); err != nil {
		return err
	}
	def, err := r.table.Lookup(name)
	if err != nil {
		return err
	}

	checked, err := r.mapper.validator.CheckWrite(def, value, r.state == StatePersisted)
	if err != nil {
		if r.mapper.metrics != nil {
			r.mapper.metrics.RecordValidationFailure(r.ModelName(), name)
		}
		return err
	}

	if checked == nil {
		delete(r.values, name)
	} else {
		r.values[name] = checked
	}
	r.dirty[name] = true
	return nil
}

// Add appends a value to a set or list attribute. Adding an element a set
// already contains is a no-op for the stored state.
func (r *Resource) Add(name string, value any) error {
	def, current, err := r.collectionSlice(name, "Add")
	if err != nil {
		return err
	}
	if def.Kind != schema.KindSet && def.Kind != schema.KindList {
		return kindErr(name, def.Kind, "Add")
	}
	return r.Set(name, append(current, value))
}

// Remove deletes every element equal to value from a set or list
// attribute. Removing an absent element is an error.
func (r *Resource) Remove(name string, value any) error {
	def, current, err := r.collectionSlice(name, "Remove")
	if err != nil {
		return err
	}
	if def.Kind != schema.KindSet && def.Kind != schema.KindList {
		return kindErr(name, def.Kind, "Remove")
	}

	target, err := r.mapper.validator.Coerce(def, value)
	if err != nil {
		return err
	}
	next := make([]any, 0, len(current))
	removed := false
	for _, e := range current {
		if e == target {
			removed = true
			continue
		}
		next = append(next, e)
	}
	if !removed {
		return errors.WrapInvalid(
			fmt.Errorf("attribute %q has no element %v", name, value),
			"Resource", "Remove", "element lookup")
	}
	if len(next) == 0 {
		return r.Set(name, nil)
	}
	return r.Set(name, next)
}

// InsertAt inserts a value at a position in a list attribute. Position
// len(list) appends.
func (r *Resource) InsertAt(name string, index int, value any) error {
	def, current, err := r.collectionSlice(name, "InsertAt")
	if err != nil {
		return err
	}
	if def.Kind != schema.KindList {
		return kindErr(name, def.Kind, "InsertAt")
	}
	if index < 0 || index > len(current) {
		return indexErr(name, index, len(current), "InsertAt")
	}

	next := make([]any, 0, len(current)+1)
	next = append(next, current[:index]...)
	next = append(next, value)
	next = append(next, current[index:]...)
	return r.Set(name, next)
}

// RemoveAt removes the element at a position in a list attribute.
func (r *Resource) RemoveAt(name string, index int) error {
	def, current, err := r.collectionSlice(name, "RemoveAt")
	if err != nil {
		return err
	}
	if def.Kind != schema.KindList {
		return kindErr(name, def.Kind, "RemoveAt")
	}
	if index < 0 || index >= len(current) {
		return indexErr(name, index, len(current), "RemoveAt")
	}

	next := make([]any, 0, len(current)-1)
	next = append(next, current[:index]...)
	next = append(next, current[index+1:]...)
	if len(next) == 0 {
		return r.Set(name, nil)
	}
	return r.Set(name, next)
}

// SetLang assigns the literal for one language tag in a language map
// attribute.
func (r *Resource) SetLang(name, tag, literal string) error {
	current, err := r.langMap(name, "SetLang")
	if err != nil {
		return err
	}

	next := make(map[string]string, len(current)+1)
	for k, v := range current {
		next[k] = v
	}
	next[tag] = literal
	return r.Set(name, next)
}

// RemoveLang drops one language tag from a language map attribute.
func (r *Resource) RemoveLang(name, tag string) error {
	current, err := r.langMap(name, "RemoveLang")
	if err != nil {
		return err
	}
	if _, ok := current[tag]; !ok {
		return errors.WrapInvalid(
			fmt.Errorf("attribute %q has no entry for tag %q", name, tag),
			"Resource", "RemoveLang", "tag lookup")
	}

	next := make(map[string]string, len(current))
	for k, v := range current {
		if k != tag {
			next[k] = v
		}
	}
	if len(next) == 0 {
		return r.Set(name, nil)
	}
	return r.Set(name, next)
}

func (r *Resource) collectionSlice(name, operation string) (schema.AttributeDefinition, []any, error) {
	if err := r.checkAttached(operation); err != nil {
		return schema.AttributeDefinition{}, nil, err
	}
	def, err := r.table.Lookup(name)
	if err != nil {
		return schema.AttributeDefinition{}, nil, err
	}
	current, _ := r.values[name].([]any)
	return def, current, nil
}

func (r *Resource) langMap(name, operation string) (map[string]string, error) {
	if err := r.checkAttached(operation); err != nil {
		return nil, err
	}
	def, err := r.table.Lookup(name)
	if err != nil {
		return nil, err
	}
	if def.Kind != schema.KindLangMap {
		return nil, kindErr(name, def.Kind, operation)
	}
	current, _ := r.values[name].(map[string]string)
	return current, nil
}

func kindErr(name string, kind schema.Kind, operation string) error {
	return errors.WrapInvalid(
		fmt.Errorf("attribute %q has container %s: %w", name, kind, errors.ErrTypeMismatch),
		"Resource", operation, "container check")
}

func indexErr(name string, index, length int, operation string) error {
	return errors.WrapInvalid(
		fmt.Errorf("index %d out of range for attribute %q (length %d)", index, name, length),
		"Resource", operation, "bounds check")
}

// Save validates required attributes and applies the minimal triple diff
// to the store. On any store failure the resource's state, values and
// dirty set are left untouched so the call can be retried.
func (r *Resource) Save(ctx context.Context) error {
	if err := r.checkAttached("Save"); err != nil {
		return err
	}
	start := time.Now()
	modelName := r.ModelName()

	for _, def := range r.table.Attributes() {
		if err := r.mapper.validator.CheckRequired(def, r.values[def.Name]); err != nil {
			if r.mapper.metrics != nil {
				r.mapper.metrics.RecordValidationFailure(modelName, def.Name)
			}
			return err
		}
	}

	diff := r.pendingDiff()
	if !r.typesAsserted {
		diff.Add = append(typeTriples(r.identifier, r.table.ClassIRIs()), diff.Add...)
	}

	if !diff.Empty() {
		if err := r.mapper.store.ApplyDiff(ctx, r.identifier, diff.Add, diff.Remove); err != nil {
			if r.mapper.metrics != nil && stderrors.Is(err, errors.ErrStoreConflict) {
				r.mapper.metrics.RecordStoreConflict()
			}
			return errors.WrapTransient(err, "Resource", "Save", "diff application")
		}
	}

	for name := range r.dirty {
		if value, ok := r.values[name]; ok {
			r.persisted[name] = cloneValue(value)
		} else {
			delete(r.persisted, name)
		}
	}
	r.dirty = make(map[string]bool)
	r.typesAsserted = true
	r.state = StatePersisted

	if r.mapper.metrics != nil {
		r.mapper.metrics.RecordResourceOp(modelName, "save")
		r.mapper.metrics.RecordTriples(modelName, len(diff.Add), len(diff.Remove))
		r.mapper.metrics.RecordSaveDuration(modelName, time.Since(start))
	}
	r.mapper.logger.Debug("resource saved", "model", modelName,
		"identifier", r.identifier, "added", len(diff.Add), "removed", len(diff.Remove))
	return nil
}

// pendingDiff encodes the dirty attributes before and after and diffs
// the two triple sets.
func (r *Resource) pendingDiff() TripleDiff {
	var before, after []store.Triple
	for _, def := range r.table.Attributes() {
		if !r.dirty[def.Name] {
			continue
		}
		before = append(before, encodeAttribute(r.identifier, def, r.persisted[def.Name])...)
		after = append(after, encodeAttribute(r.identifier, def, r.values[def.Name])...)
	}
	return diffTriples(before, after)
}

// Delete removes every triple for the resource and detaches it. A
// transient resource detaches without touching the store.
func (r *Resource) Delete(ctx context.Context) error {
	if err := r.checkAttached("Delete"); err != nil {
		return err
	}

	if r.state == StatePersisted {
		if err := r.mapper.store.DeleteAll(ctx, r.identifier); err != nil {
			return errors.WrapTransient(err, "Resource", "Delete", "triple removal")
		}
	}

	r.state = StateDetached
	r.values = nil
	r.persisted = nil
	r.dirty = nil

	if r.mapper.metrics != nil {
		r.mapper.metrics.RecordResourceOp(r.ModelName(), "delete")
	}
	r.mapper.logger.Debug("resource deleted", "model", r.ModelName(), "identifier", r.identifier)
	return nil
}

// Refresh re-reads the stored state and overwrites every attribute that
// has no pending local change. Dirty attributes keep their local value.
func (r *Resource) Refresh(ctx context.Context) error {
	if err := r.checkAttached("Refresh"); err != nil {
		return err
	}
	if r.state != StatePersisted {
		return errors.WrapInvalid(
			fmt.Errorf("resource %s was never saved", r.identifier),
			"Resource", "Refresh", "lifecycle check")
	}

	triples, err := r.mapper.store.LoadTriples(ctx, r.identifier)
	if err != nil {
		return errors.WrapTransient(err, "Resource", "Refresh", "triple load")
	}
	values, err := decodeAttributes(r.table, r.mapper.validator, triples)
	if err != nil {
		return err
	}

	for _, def := range r.table.Attributes() {
		if r.dirty[def.Name] {
			continue
		}
		if value, ok := values[def.Name]; ok {
			r.values[def.Name] = value
			r.persisted[def.Name] = cloneValue(value)
		} else {
			delete(r.values, def.Name)
			delete(r.persisted, def.Name)
		}
	}

	if r.mapper.metrics != nil {
		r.mapper.metrics.RecordResourceOp(r.ModelName(), "refresh")
	}
	return nil
}

// Call invokes a named operation registered for this resource's model.
func (r *Resource) Call(ctx context.Context, opName string, args ...any) (any, error) {
	if err := r.checkAttached("Call"); err != nil {
		return nil, err
	}
	op, err := r.mapper.registry.Operation(r.ModelName(), opName)
	if err != nil {
		return nil, err
	}
	return op(ctx, r, args...)
}

// Field is one entry of a resource's external representation.
type Field struct {
	Name  string
	Value any
}

// AsExternalRepresentation returns the resource's visible state in a
// stable order: identifier, class IRIs, then attributes as declared.
// Write-only and unset attributes are omitted, as is the identifier of
// a skolemized blank node.
func (r *Resource) AsExternalRepresentation() ([]Field, error) {
	if err := r.checkAttached("AsExternalRepresentation"); err != nil {
		return nil, err
	}

	fields := make([]Field, 0, r.table.Len()+2)
	if !model.IsBlankNode(r.identifier) {
		fields = append(fields, Field{Name: "id", Value: r.identifier})
	}
	if classIRIs := r.table.ClassIRIs(); len(classIRIs) > 0 {
		fields = append(fields, Field{Name: "types", Value: classIRIs})
	}
	for _, def := range r.table.Attributes() {
		if def.WriteOnly {
			continue
		}
		value, ok := r.values[def.Name]
		if !ok {
			continue
		}
		fields = append(fields, Field{Name: def.Name, Value: cloneValue(value)})
	}
	return fields, nil
}

// MarshalJSON serializes the external representation as a JSON object
// with keys in representation order.
func (r *Resource) MarshalJSON() ([]byte, error) {
	fields, err := r.AsExternalRepresentation()
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(f.Name)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(f.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// cloneValue copies collection values so callers cannot mutate internal
// state without going through Set.
func cloneValue(value any) any {
	switch v := value.(type) {
	case []any:
		out := make([]any, len(v))
		copy(out, v)
		return out
	case map[string]string:
		out := make(map[string]string, len(v))
		for k, e := range v {
			out[k] = e
		}
		return out
	default:
		return value
	}
}
