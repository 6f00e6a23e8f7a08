package resource

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/semmodel/errors"
	"github.com/c360/semmodel/model"
	"github.com/c360/semmodel/schema"
	"github.com/c360/semmodel/store"
	"github.com/c360/semmodel/testutil"
	"github.com/c360/semmodel/vocabulary"
)

const personClass = "http://xmlns.com/foaf/0.1/Person"

func personDefinition() model.Definition {
	return model.Definition{
		Name:     "Person",
		ClassIRI: personClass,
		Attributes: []schema.AttributeDefinition{
			{Name: "name", Predicate: "http://xmlns.com/foaf/0.1/name",
				Kind: schema.KindAtomic, Datatype: vocabulary.XSDString, Required: true},
			{Name: "age", Predicate: "http://example.org/vocab#age",
				Kind: schema.KindAtomic, Datatype: vocabulary.XSDInteger},
			{Name: "emails", Predicate: "http://xmlns.com/foaf/0.1/mbox",
				Kind: schema.KindSet, Datatype: vocabulary.XSDString},
			{Name: "steps", Predicate: "http://example.org/vocab#steps",
				Kind: schema.KindList, Datatype: vocabulary.XSDInteger},
			{Name: "bio", Predicate: "http://example.org/vocab#bio",
				Kind: schema.KindLangMap},
			{Name: "created", Predicate: "http://example.org/vocab#created",
				Kind: schema.KindAtomic, Datatype: vocabulary.XSDDateTime, ReadOnly: true},
			{Name: "password", Predicate: "http://example.org/vocab#password",
				Kind: schema.KindAtomic, Datatype: vocabulary.XSDString, WriteOnly: true},
			{Name: "homepage", Predicate: "http://xmlns.com/foaf/0.1/homepage",
				Kind: schema.KindAtomic, Datatype: vocabulary.IDType},
		},
		IRITemplate: "http://example.org/person/{id}",
		Generation:  model.GenerationCounter,
	}
}

func personMapper(t *testing.T) (*Mapper, *store.MemoryStore) {
	t.Helper()
	reg := model.NewRegistry()
	require.NoError(t, reg.Register(personDefinition()))
	st := store.NewMemoryStore()
	return NewMapper(reg, st), st
}

func TestSaveLoadRoundTripAllKinds(t *testing.T) {
	ctx := context.Background()
	m, st := personMapper(t)

	r, err := m.New(ctx, "Person")
	require.NoError(t, err)
	assert.Equal(t, StateTransient, r.State())

	require.NoError(t, r.Set("name", "Ada"))
	require.NoError(t, r.Set("age", 36))
	require.NoError(t, r.Set("emails", []any{"ada@example.org", "lovelace@example.org"}))
	require.NoError(t, r.Set("steps", []any{3, 1, 2}))
	require.NoError(t, r.Set("bio", map[string]string{"en": "mathematician", "fr": "mathématicienne"}))
	require.NoError(t, r.Set("created", "2026-08-29T10:30:00Z"))
	require.NoError(t, r.Set("homepage", "http://example.org/ada"))

	require.NoError(t, r.Save(ctx))
	assert.Equal(t, StatePersisted, r.State())
	assert.False(t, r.IsDirty())

	loaded, err := m.Load(ctx, r.Identifier(), "Person")
	require.NoError(t, err)
	assert.Equal(t, StatePersisted, loaded.State())

	name, err := loaded.Get("name")
	require.NoError(t, err)
	assert.Equal(t, "Ada", name)

	age, err := loaded.Get("age")
	require.NoError(t, err)
	assert.Equal(t, int64(36), age)

	emails, err := loaded.Get("emails")
	require.NoError(t, err)
	assert.ElementsMatch(t, []any{"ada@example.org", "lovelace@example.org"}, emails)

	steps, err := loaded.Get("steps")
	require.NoError(t, err)
	assert.Equal(t, []any{int64(3), int64(1), int64(2)}, steps)

	bio, err := loaded.Get("bio")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"en": "mathematician", "fr": "mathématicienne"}, bio)

	created, err := loaded.Get("created")
	require.NoError(t, err)
	want, _ := time.Parse(time.RFC3339, "2026-08-29T10:30:00Z")
	assert.Equal(t, want, created)

	homepage, err := loaded.Get("homepage")
	require.NoError(t, err)
	assert.Equal(t, "http://example.org/ada", homepage)

	// One rdf:type triple rides along with the first save.
	triples, err := st.LoadTriples(ctx, r.Identifier())
	require.NoError(t, err)
	typeCount := 0
	for _, tr := range triples {
		if tr.Predicate == vocabulary.RDFType {
			typeCount++
			assert.Equal(t, personClass, tr.Object)
		}
	}
	assert.Equal(t, 1, typeCount)
}

func TestRequiredCheckedOnlyAtSave(t *testing.T) {
	ctx := context.Background()
	m, _ := personMapper(t)

	r, err := m.New(ctx, "Person")
	require.NoError(t, err)

	// Building up state without the required attribute is fine.
	require.NoError(t, r.Set("age", 10))

	err = r.Save(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrRequiredMissing)
	assert.Equal(t, StateTransient, r.State())

	require.NoError(t, r.Set("name", "Ada"))
	require.NoError(t, r.Save(ctx))
}

func TestIdempotentSaveSkipsStore(t *testing.T) {
	ctx := context.Background()
	reg := model.NewRegistry()
	require.NoError(t, reg.Register(personDefinition()))
	rec := testutil.NewScriptedStore()
	m := NewMapper(reg, rec)

	r, err := m.New(ctx, "Person")
	require.NoError(t, err)
	require.NoError(t, r.Set("name", "Ada"))

	require.NoError(t, r.Save(ctx))
	require.NoError(t, r.Save(ctx))
	assert.Equal(t, 1, rec.ApplyCalls)

	// Rewriting the same value still produces no store round-trip.
	require.NoError(t, r.Set("name", "Ada"))
	require.NoError(t, r.Save(ctx))
	assert.Equal(t, 1, rec.ApplyCalls)
}

func TestSaveAppliesMinimalDiff(t *testing.T) {
	ctx := context.Background()
	reg := model.NewRegistry()
	require.NoError(t, reg.Register(personDefinition()))
	rec := testutil.NewScriptedStore()
	m := NewMapper(reg, rec)

	r, err := m.New(ctx, "Person")
	require.NoError(t, err)
	require.NoError(t, r.Set("name", "Ada"))
	require.NoError(t, r.Set("age", 36))
	require.NoError(t, r.Save(ctx))

	require.NoError(t, r.Set("age", 37))
	require.NoError(t, r.Save(ctx))

	require.Len(t, rec.LastAdd, 1)
	require.Len(t, rec.LastRemove, 1)
	assert.Equal(t, int64(37), rec.LastAdd[0].Object)
	assert.Equal(t, int64(36), rec.LastRemove[0].Object)
	assert.Equal(t, "http://example.org/vocab#age", rec.LastAdd[0].Predicate)
}

func TestSaveFailureLeavesResourceRetryable(t *testing.T) {
	ctx := context.Background()
	reg := model.NewRegistry()
	require.NoError(t, reg.Register(personDefinition()))
	flaky := testutil.NewScriptedStore()
	flaky.FailNextApply(errors.ErrStoreUnavailable)
	m := NewMapper(reg, flaky)

	r, err := m.New(ctx, "Person")
	require.NoError(t, err)
	require.NoError(t, r.Set("name", "Ada"))

	err = r.Save(ctx)
	require.Error(t, err)
	assert.Equal(t, StateTransient, r.State())
	assert.True(t, r.IsDirty())

	// Same call succeeds once the store recovers.
	require.NoError(t, r.Save(ctx))
	assert.Equal(t, StatePersisted, r.State())
	assert.False(t, r.IsDirty())
}

func TestReadOnlyAfterFirstSave(t *testing.T) {
	ctx := context.Background()
	m, _ := personMapper(t)

	r, err := m.New(ctx, "Person")
	require.NoError(t, err)
	require.NoError(t, r.Set("name", "Ada"))
	require.NoError(t, r.Set("created", "2026-01-01T00:00:00Z"))
	require.NoError(t, r.Save(ctx))

	err = r.Set("created", "2026-02-01T00:00:00Z")
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrReadOnly)
}

func TestWriteOnlyStoredButNeverRead(t *testing.T) {
	ctx := context.Background()
	m, st := personMapper(t)

	r, err := m.New(ctx, "Person")
	require.NoError(t, err)
	require.NoError(t, r.Set("name", "Ada"))
	require.NoError(t, r.Set("password", "hunter2"))
	require.NoError(t, r.Save(ctx))

	_, err = r.Get("password")
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrWriteOnly)

	// The value reaches the store even though reads are refused.
	triples, err := st.LoadTriples(ctx, r.Identifier())
	require.NoError(t, err)
	found := false
	for _, tr := range triples {
		if tr.Predicate == "http://example.org/vocab#password" {
			found = true
			assert.Equal(t, "hunter2", tr.Object)
		}
	}
	assert.True(t, found)

	data, err := r.MarshalJSON()
	require.NoError(t, err)
	assert.NotContains(t, string(data), "hunter2")
	assert.NotContains(t, string(data), "password")
}

func TestListMutatorsPreserveOrder(t *testing.T) {
	ctx := context.Background()
	m, _ := personMapper(t)

	r, err := m.New(ctx, "Person")
	require.NoError(t, err)
	require.NoError(t, r.Set("name", "Ada"))
	require.NoError(t, r.Set("steps", []any{1, 2, 3}))
	require.NoError(t, r.Save(ctx))

	require.NoError(t, r.InsertAt("steps", 0, 0))
	require.NoError(t, r.RemoveAt("steps", 2))
	require.NoError(t, r.Add("steps", 9))
	require.NoError(t, r.Save(ctx))

	loaded, err := m.Load(ctx, r.Identifier(), "Person")
	require.NoError(t, err)
	steps, err := loaded.Get("steps")
	require.NoError(t, err)
	assert.Equal(t, []any{int64(0), int64(1), int64(3), int64(9)}, steps)
}

func TestListIndexBounds(t *testing.T) {
	ctx := context.Background()
	m, _ := personMapper(t)

	r, err := m.New(ctx, "Person")
	require.NoError(t, err)
	require.NoError(t, r.Set("steps", []any{1}))

	require.Error(t, r.InsertAt("steps", 5, 9))
	require.Error(t, r.InsertAt("steps", -1, 9))
	require.Error(t, r.RemoveAt("steps", 1))

	// List-only mutators reject other containers.
	err = r.InsertAt("emails", 0, "x@example.org")
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrTypeMismatch)
}

func TestSetMutators(t *testing.T) {
	ctx := context.Background()
	m, _ := personMapper(t)

	r, err := m.New(ctx, "Person")
	require.NoError(t, err)

	require.NoError(t, r.Add("emails", "a@example.org"))
	require.NoError(t, r.Add("emails", "b@example.org"))
	require.NoError(t, r.Add("emails", "a@example.org"))

	emails, err := r.Get("emails")
	require.NoError(t, err)
	assert.Len(t, emails, 2)

	require.NoError(t, r.Remove("emails", "a@example.org"))
	emails, err = r.Get("emails")
	require.NoError(t, err)
	assert.Equal(t, []any{"b@example.org"}, emails)

	err = r.Remove("emails", "missing@example.org")
	require.Error(t, err)
	assert.True(t, errors.IsInvalid(err))

	// Removing the last element clears the attribute entirely.
	require.NoError(t, r.Remove("emails", "b@example.org"))
	emails, err = r.Get("emails")
	require.NoError(t, err)
	assert.Nil(t, emails)
}

func TestLanguageMapMutators(t *testing.T) {
	ctx := context.Background()
	m, _ := personMapper(t)

	r, err := m.New(ctx, "Person")
	require.NoError(t, err)
	require.NoError(t, r.Set("name", "Ada"))

	require.NoError(t, r.SetLang("bio", "en", "mathematician"))
	require.NoError(t, r.SetLang("bio", "en-GB", "mathematician"))
	require.NoError(t, r.Save(ctx))

	err = r.SetLang("bio", "not a tag", "nope")
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrTypeMismatch)

	require.NoError(t, r.RemoveLang("bio", "en-GB"))
	err = r.RemoveLang("bio", "de")
	require.Error(t, err)
	assert.True(t, errors.IsInvalid(err))

	require.NoError(t, r.Save(ctx))
	loaded, err := m.Load(ctx, r.Identifier(), "Person")
	require.NoError(t, err)
	bio, err := loaded.Get("bio")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"en": "mathematician"}, bio)

	// Language-only mutators reject other containers.
	err = r.SetLang("name", "en", "Ada")
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrTypeMismatch)
}

func TestDeleteDetaches(t *testing.T) {
	ctx := context.Background()
	m, st := personMapper(t)

	r, err := m.New(ctx, "Person")
	require.NoError(t, err)
	require.NoError(t, r.Set("name", "Ada"))
	require.NoError(t, r.Save(ctx))
	identifier := r.Identifier()

	require.NoError(t, r.Delete(ctx))
	assert.Equal(t, StateDetached, r.State())
	assert.Equal(t, 0, st.TripleCount(identifier))

	err = r.Set("name", "Eve")
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrDetachedResource)
	assert.True(t, errors.IsFatal(err))

	_, err = r.Get("name")
	assert.ErrorIs(t, err, errors.ErrDetachedResource)
	assert.ErrorIs(t, r.Save(ctx), errors.ErrDetachedResource)
	assert.ErrorIs(t, r.Delete(ctx), errors.ErrDetachedResource)
	assert.ErrorIs(t, r.Refresh(ctx), errors.ErrDetachedResource)
}

func TestDeleteTransientSkipsStore(t *testing.T) {
	ctx := context.Background()
	reg := model.NewRegistry()
	require.NoError(t, reg.Register(personDefinition()))
	rec := testutil.NewScriptedStore()
	m := NewMapper(reg, rec)

	r, err := m.New(ctx, "Person")
	require.NoError(t, err)
	require.NoError(t, r.Delete(ctx))
	assert.Equal(t, StateDetached, r.State())
	assert.Equal(t, 0, rec.ApplyCalls)
}

func TestLoadUnknownSubject(t *testing.T) {
	ctx := context.Background()
	m, _ := personMapper(t)

	_, err := m.Load(ctx, "http://example.org/person/ghost", "Person")
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrSubjectNotFound)
}

func TestLoadIgnoresForeignPredicates(t *testing.T) {
	ctx := context.Background()
	m, st := personMapper(t)

	r, err := m.New(ctx, "Person")
	require.NoError(t, err)
	require.NoError(t, r.Set("name", "Ada"))
	require.NoError(t, r.Save(ctx))

	// Another writer annotates the same subject with a predicate the
	// model does not declare.
	foreign := store.Triple{
		Subject:   r.Identifier(),
		Predicate: "http://example.org/vocab#shoeSize",
		Object:    int64(38),
	}
	require.NoError(t, st.ApplyDiff(ctx, r.Identifier(), []store.Triple{foreign}, nil))

	loaded, err := m.Load(ctx, r.Identifier(), "Person")
	require.NoError(t, err)
	name, err := loaded.Get("name")
	require.NoError(t, err)
	assert.Equal(t, "Ada", name)

	// Saving through the model leaves the foreign triple alone.
	require.NoError(t, loaded.Set("name", "Ada L."))
	require.NoError(t, loaded.Save(ctx))
	triples, err := st.LoadTriples(ctx, r.Identifier())
	require.NoError(t, err)
	found := false
	for _, tr := range triples {
		if tr.Predicate == foreign.Predicate {
			found = true
		}
	}
	assert.True(t, found)
}

func TestNewWithIdentifier(t *testing.T) {
	ctx := context.Background()
	m, _ := personMapper(t)

	r, err := m.NewWithIdentifier(ctx, "Person", "http://example.org/person/ada")
	require.NoError(t, err)
	require.NoError(t, r.Set("name", "Ada"))
	require.NoError(t, r.Save(ctx))

	_, err = m.NewWithIdentifier(ctx, "Person", "http://example.org/person/ada")
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrIdentifierTaken)
	assert.True(t, errors.IsInvalid(err))
}

func TestRefreshKeepsDirtyAttributes(t *testing.T) {
	ctx := context.Background()
	m, _ := personMapper(t)

	r, err := m.New(ctx, "Person")
	require.NoError(t, err)
	require.NoError(t, r.Set("name", "Ada"))
	require.NoError(t, r.Set("age", 36))
	require.NoError(t, r.Save(ctx))

	// A second handle updates the store behind this one's back.
	other, err := m.Load(ctx, r.Identifier(), "Person")
	require.NoError(t, err)
	require.NoError(t, other.Set("name", "Ada Lovelace"))
	require.NoError(t, other.Set("age", 37))
	require.NoError(t, other.Save(ctx))

	require.NoError(t, r.Set("age", 40))
	require.NoError(t, r.Refresh(ctx))

	name, err := r.Get("name")
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", name)

	age, err := r.Get("age")
	require.NoError(t, err)
	assert.Equal(t, int64(40), age)
	assert.True(t, r.IsDirty())
}

func TestRefreshBeforeSave(t *testing.T) {
	ctx := context.Background()
	m, _ := personMapper(t)

	r, err := m.New(ctx, "Person")
	require.NoError(t, err)
	err = r.Refresh(ctx)
	require.Error(t, err)
	assert.True(t, errors.IsInvalid(err))
}

func TestExternalRepresentationOrder(t *testing.T) {
	ctx := context.Background()
	m, _ := personMapper(t)

	r, err := m.New(ctx, "Person")
	require.NoError(t, err)
	require.NoError(t, r.Set("age", 36))
	require.NoError(t, r.Set("name", "Ada"))
	require.NoError(t, r.Set("password", "hunter2"))

	fields, err := r.AsExternalRepresentation()
	require.NoError(t, err)

	want := []Field{
		{Name: "id", Value: r.Identifier()},
		{Name: "types", Value: []string{personClass}},
		{Name: "name", Value: "Ada"},
		{Name: "age", Value: int64(36)},
	}
	if diff := cmp.Diff(want, fields); diff != "" {
		t.Errorf("representation mismatch (-want +got):\n%s", diff)
	}

	data, err := r.MarshalJSON()
	require.NoError(t, err)
	expected := fmt.Sprintf(`{"id":%q,"types":[%q],"name":"Ada","age":36}`,
		r.Identifier(), personClass)
	assert.JSONEq(t, expected, string(data))
	assert.Equal(t, expected, string(data))
}

func TestSetNilClears(t *testing.T) {
	ctx := context.Background()
	m, _ := personMapper(t)

	r, err := m.New(ctx, "Person")
	require.NoError(t, err)
	require.NoError(t, r.Set("name", "Ada"))
	require.NoError(t, r.Set("age", 36))
	require.NoError(t, r.Save(ctx))

	require.NoError(t, r.Set("age", nil))
	require.NoError(t, r.Save(ctx))

	loaded, err := m.Load(ctx, r.Identifier(), "Person")
	require.NoError(t, err)
	age, err := loaded.Get("age")
	require.NoError(t, err)
	assert.Nil(t, age)
}

func TestUnknownAttribute(t *testing.T) {
	ctx := context.Background()
	m, _ := personMapper(t)

	r, err := m.New(ctx, "Person")
	require.NoError(t, err)

	require.ErrorIs(t, r.Set("nickname", "addie"), errors.ErrUnknownAttribute)
	_, err = r.Get("nickname")
	require.ErrorIs(t, err, errors.ErrUnknownAttribute)
}

func TestGetReturnsCopies(t *testing.T) {
	ctx := context.Background()
	m, _ := personMapper(t)

	r, err := m.New(ctx, "Person")
	require.NoError(t, err)
	require.NoError(t, r.Set("steps", []any{1, 2}))

	steps, err := r.Get("steps")
	require.NoError(t, err)
	steps.([]any)[0] = int64(99)

	again, err := r.Get("steps")
	require.NoError(t, err)
	assert.Equal(t, []any{int64(1), int64(2)}, again)
}

func TestCallOperation(t *testing.T) {
	ctx := context.Background()
	reg := model.NewRegistry()
	require.NoError(t, reg.Register(personDefinition()))
	require.NoError(t, reg.RegisterOperation("Person", "greeting",
		func(_ context.Context, receiver any, _ ...any) (any, error) {
			r := receiver.(*Resource)
			name, err := r.Get("name")
			if err != nil {
				return nil, err
			}
			return fmt.Sprintf("hello, %v", name), nil
		}))
	m := NewMapper(reg, store.NewMemoryStore())

	r, err := m.New(ctx, "Person")
	require.NoError(t, err)
	require.NoError(t, r.Set("name", "Ada"))

	out, err := r.Call(ctx, "greeting")
	require.NoError(t, err)
	assert.Equal(t, "hello, Ada", out)

	_, err = r.Call(ctx, "farewell")
	require.ErrorIs(t, err, errors.ErrUnknownOperation)
}
