package store

import (
	"context"
	stderrors "errors"
	"sync"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/semmodel/errors"
)

// fakeBucket implements jetstream.KeyValue in memory with revision CAS,
// so the KVStore contract is testable without a server. failWrites makes
// the next N Create/Update calls fail as CAS races.
type fakeBucket struct {
	mu       sync.Mutex
	entries  map[string]fakeEntry
	revision uint64

	failWrites int
	getErr     error

	createCalls int
	updateCalls int
	purgeCalls  int
}

type fakeEntry struct {
	key      string
	value    []byte
	revision uint64
}

func (e fakeEntry) Bucket() string                  { return "triples" }
func (e fakeEntry) Key() string                     { return e.key }
func (e fakeEntry) Value() []byte                   { return e.value }
func (e fakeEntry) Revision() uint64                { return e.revision }
func (e fakeEntry) Created() time.Time              { return time.Time{} }
func (e fakeEntry) Delta() uint64                   { return 0 }
func (e fakeEntry) Operation() jetstream.KeyValueOp { return jetstream.KeyValuePut }

func newFakeBucket() *fakeBucket {
	return &fakeBucket{entries: make(map[string]fakeEntry)}
}

func staleRevisionErr() error {
	return &jetstream.APIError{
		Code:        400,
		ErrorCode:   jetstream.JSErrCodeStreamWrongLastSequence,
		Description: "wrong last sequence",
	}
}

func (b *fakeBucket) Get(_ context.Context, key string) (jetstream.KeyValueEntry, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.getErr != nil {
		return nil, b.getErr
	}
	entry, ok := b.entries[key]
	if !ok {
		return nil, jetstream.ErrKeyNotFound
	}
	return entry, nil
}

func (b *fakeBucket) Create(_ context.Context, key string, value []byte) (uint64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.createCalls++
	if b.failWrites > 0 {
		b.failWrites--
		return 0, jetstream.ErrKeyExists
	}
	if _, ok := b.entries[key]; ok {
		return 0, jetstream.ErrKeyExists
	}
	b.revision++
	b.entries[key] = fakeEntry{key: key, value: value, revision: b.revision}
	return b.revision, nil
}

func (b *fakeBucket) Update(_ context.Context, key string, value []byte, revision uint64) (uint64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.updateCalls++
	if b.failWrites > 0 {
		b.failWrites--
		return 0, staleRevisionErr()
	}
	entry, ok := b.entries[key]
	if !ok || entry.revision != revision {
		return 0, staleRevisionErr()
	}
	b.revision++
	b.entries[key] = fakeEntry{key: key, value: value, revision: b.revision}
	return b.revision, nil
}

func (b *fakeBucket) Purge(_ context.Context, key string, _ ...jetstream.KVDeleteOpt) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.purgeCalls++
	delete(b.entries, key)
	return nil
}

func (b *fakeBucket) Delete(_ context.Context, key string, _ ...jetstream.KVDeleteOpt) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.entries, key)
	return nil
}

// Remaining interface methods are unused by KVStore.
func (b *fakeBucket) GetRevision(context.Context, string, uint64) (jetstream.KeyValueEntry, error) {
	return nil, jetstream.ErrKeyNotFound
}
func (b *fakeBucket) Put(context.Context, string, []byte) (uint64, error)       { return 0, nil }
func (b *fakeBucket) PutString(context.Context, string, string) (uint64, error) { return 0, nil }
func (b *fakeBucket) Watch(context.Context, string, ...jetstream.WatchOpt) (jetstream.KeyWatcher, error) {
	return nil, nil
}
func (b *fakeBucket) WatchAll(context.Context, ...jetstream.WatchOpt) (jetstream.KeyWatcher, error) {
	return nil, nil
}
func (b *fakeBucket) WatchFiltered(context.Context, []string, ...jetstream.WatchOpt) (jetstream.KeyWatcher, error) {
	return nil, nil
}
func (b *fakeBucket) Keys(context.Context, ...jetstream.WatchOpt) ([]string, error) {
	return nil, nil
}
func (b *fakeBucket) ListKeys(context.Context, ...jetstream.WatchOpt) (jetstream.KeyLister, error) {
	return nil, nil
}
func (b *fakeBucket) ListKeysFiltered(context.Context, ...string) (jetstream.KeyLister, error) {
	return nil, nil
}
func (b *fakeBucket) History(context.Context, string, ...jetstream.WatchOpt) ([]jetstream.KeyValueEntry, error) {
	return nil, nil
}
func (b *fakeBucket) Bucket() string { return "triples" }
func (b *fakeBucket) PurgeDeletes(context.Context, ...jetstream.KVPurgeOpt) error {
	return nil
}
func (b *fakeBucket) Status(context.Context) (jetstream.KeyValueStatus, error) {
	return nil, nil
}

func newTestKVStore(bucket jetstream.KeyValue, tweaks ...func(*KVOptions)) *KVStore {
	opts := append([]func(*KVOptions){func(o *KVOptions) {
		o.RetryDelay = time.Millisecond
		o.MaxDelay = time.Millisecond
	}}, tweaks...)
	return NewKVStore(bucket, nil, opts...)
}

func TestKVApplyDiffAndLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	bucket := newFakeBucket()
	s := newTestKVStore(bucket)

	add := []Triple{
		{Subject: "s", Predicate: "p:name", Object: "Ada"},
		{Subject: "s", Predicate: "p:age", Object: int64(36), Datatype: "xsd:integer"},
		{Subject: "s", Predicate: "p:score", Object: 1.5, Datatype: "xsd:double"},
		{Subject: "s", Predicate: "p:active", Object: true, Datatype: "xsd:boolean"},
		{Subject: "s", Predicate: "p:steps", Object: int64(7), Index: intPtr(0)},
		{Subject: "s", Predicate: "p:bio", Object: "hi", Lang: "en"},
	}
	require.NoError(t, s.ApplyDiff(ctx, "s", add, nil))

	got, err := s.LoadTriples(ctx, "s")
	require.NoError(t, err)
	require.Len(t, got, len(add))

	byKey := make(map[string]Triple, len(got))
	for _, tr := range got {
		byKey[tr.Key()] = tr
	}
	for _, want := range add {
		stored, ok := byKey[want.Key()]
		require.True(t, ok, "missing triple %s", want.Key())
		assert.Equal(t, want.Object, stored.Object)
	}
}

func TestKVLargeIntegerObjectsKeepTheirKey(t *testing.T) {
	ctx := context.Background()
	bucket := newFakeBucket()
	s := newTestKVStore(bucket)

	// Above 2^53 a float64 round trip would shift the key rendering to
	// exponent form and strand the old triple next to the new one.
	big := Triple{Subject: "s", Predicate: "p:n", Object: int64(1) << 62, Datatype: "xsd:integer"}
	require.NoError(t, s.ApplyDiff(ctx, "s", []Triple{big}, nil))

	got, err := s.LoadTriples(ctx, "s")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int64(1)<<62, got[0].Object)
	assert.Equal(t, big.Key(), got[0].Key())

	next := Triple{Subject: "s", Predicate: "p:n", Object: int64(1)<<62 + 1, Datatype: "xsd:integer"}
	require.NoError(t, s.ApplyDiff(ctx, "s", []Triple{next}, []Triple{big}))

	got, err = s.LoadTriples(ctx, "s")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int64(1)<<62+1, got[0].Object)
}

func TestKVLoadMissingSubjectIsEmpty(t *testing.T) {
	s := newTestKVStore(newFakeBucket())

	got, err := s.LoadTriples(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestKVCreateThenUpdate(t *testing.T) {
	ctx := context.Background()
	bucket := newFakeBucket()
	s := newTestKVStore(bucket)

	require.NoError(t, s.ApplyDiff(ctx, "s", []Triple{{Subject: "s", Predicate: "p", Object: "a"}}, nil))
	assert.Equal(t, 1, bucket.createCalls)
	assert.Equal(t, 0, bucket.updateCalls)

	require.NoError(t, s.ApplyDiff(ctx, "s", []Triple{{Subject: "s", Predicate: "q", Object: "b"}}, nil))
	assert.Equal(t, 1, bucket.createCalls)
	assert.Equal(t, 1, bucket.updateCalls)
}

func TestKVApplyDiffRetriesOnConflict(t *testing.T) {
	ctx := context.Background()
	bucket := newFakeBucket()
	bucket.failWrites = 2

	var retries int
	s := newTestKVStore(bucket, func(o *KVOptions) {
		o.MaxRetries = 5
		o.OnRetry = func() { retries++ }
	})

	require.NoError(t, s.ApplyDiff(ctx, "s", []Triple{{Subject: "s", Predicate: "p", Object: "a"}}, nil))
	assert.Equal(t, 2, retries)
	assert.Equal(t, 3, bucket.createCalls)

	got, err := s.LoadTriples(ctx, "s")
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestKVApplyDiffConflictExhaustion(t *testing.T) {
	ctx := context.Background()
	bucket := newFakeBucket()
	bucket.failWrites = 100
	s := newTestKVStore(bucket, func(o *KVOptions) { o.MaxRetries = 2 })

	err := s.ApplyDiff(ctx, "s", []Triple{{Subject: "s", Predicate: "p", Object: "a"}}, nil)
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, errors.ErrStoreConflict))
	assert.True(t, errors.IsTransient(err))
}

func TestKVEmptiedSubjectStopsExisting(t *testing.T) {
	ctx := context.Background()
	bucket := newFakeBucket()
	s := newTestKVStore(bucket)

	only := Triple{Subject: "s", Predicate: "p", Object: "a"}
	require.NoError(t, s.ApplyDiff(ctx, "s", []Triple{only}, nil))

	exists, err := s.Exists(ctx, "s")
	require.NoError(t, err)
	require.True(t, exists)

	require.NoError(t, s.ApplyDiff(ctx, "s", nil, []Triple{only}))
	assert.Equal(t, 1, bucket.purgeCalls)

	exists, err = s.Exists(ctx, "s")
	require.NoError(t, err)
	assert.False(t, exists)

	got, err := s.LoadTriples(ctx, "s")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestKVEmptyDiffOnMissingSubjectWritesNothing(t *testing.T) {
	ctx := context.Background()
	bucket := newFakeBucket()
	s := newTestKVStore(bucket)

	gone := Triple{Subject: "s", Predicate: "p", Object: "a"}
	require.NoError(t, s.ApplyDiff(ctx, "s", nil, []Triple{gone}))
	assert.Equal(t, 0, bucket.createCalls)
	assert.Equal(t, 0, bucket.purgeCalls)
}

func TestKVDeleteAll(t *testing.T) {
	ctx := context.Background()
	bucket := newFakeBucket()
	s := newTestKVStore(bucket)

	require.NoError(t, s.ApplyDiff(ctx, "s", []Triple{{Subject: "s", Predicate: "p", Object: "a"}}, nil))
	require.NoError(t, s.DeleteAll(ctx, "s"))

	exists, err := s.Exists(ctx, "s")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestKVGetFailureIsTransient(t *testing.T) {
	ctx := context.Background()
	bucket := newFakeBucket()
	bucket.getErr = nats.ErrConnectionClosed
	s := newTestKVStore(bucket)

	_, err := s.LoadTriples(ctx, "s")
	require.Error(t, err)
	assert.True(t, errors.IsTransient(err))

	_, err = s.Exists(ctx, "s")
	require.Error(t, err)
	assert.True(t, errors.IsTransient(err))
}

func TestKVValueSizeLimit(t *testing.T) {
	ctx := context.Background()
	s := newTestKVStore(newFakeBucket(), func(o *KVOptions) { o.MaxValueSize = 16 })

	err := s.ApplyDiff(ctx, "s", []Triple{{Subject: "s", Predicate: "p", Object: "a"}}, nil)
	require.Error(t, err)
	assert.True(t, errors.IsInvalid(err))
}
