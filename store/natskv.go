package store

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/c360/semmodel/errors"
)

// KVOptions configures the JetStream KV triple store
type KVOptions struct {
	MaxRetries   int           // Maximum CAS retry attempts
	RetryDelay   time.Duration // Initial delay between retries
	MaxDelay     time.Duration // Maximum delay between retries
	Timeout      time.Duration // Per-operation timeout
	MaxValueSize int           // Maximum serialized subject size
	OnRetry      func()        // Called once per CAS retry, may be nil
}

// DefaultKVOptions returns sensible defaults for contended subjects
func DefaultKVOptions() KVOptions {
	return KVOptions{
		MaxRetries:   10,
		RetryDelay:   10 * time.Millisecond,
		MaxDelay:     time.Second,
		Timeout:      5 * time.Second,
		MaxValueSize: 1024 * 1024,
	}
}

// KVStore persists triples in a NATS JetStream KV bucket, one key per
// subject. Diffs are applied under revision CAS: a concurrent writer to the
// same subject causes a bounded retry, and exhausted retries surface as
// ErrStoreConflict so the caller can re-save.
type KVStore struct {
	bucket  jetstream.KeyValue
	options KVOptions
	logger  *slog.Logger
}

// subjectDocument is the stored JSON value for one subject
type subjectDocument struct {
	Subject string   `json:"subject"`
	Triples []Triple `json:"triples"`
}

// NewKVStore creates a triple store backed by the given KV bucket
func NewKVStore(bucket jetstream.KeyValue, logger *slog.Logger, opts ...func(*KVOptions)) *KVStore {
	options := DefaultKVOptions()
	for _, opt := range opts {
		opt(&options)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &KVStore{bucket: bucket, options: options, logger: logger}
}

// subjectKey maps an arbitrary subject IRI onto the KV key alphabet
func subjectKey(subject string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(subject))
}

func (s *KVStore) applyTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.options.Timeout > 0 {
		return context.WithTimeout(ctx, s.options.Timeout)
	}
	return ctx, func() {}
}

// LoadTriples returns all triples for the subject; absent subjects yield
// an empty slice
func (s *KVStore) LoadTriples(ctx context.Context, subject string) ([]Triple, error) {
	ctx, cancel := s.applyTimeout(ctx)
	defer cancel()

	entry, err := s.bucket.Get(ctx, subjectKey(subject))
	if err != nil {
		if stderrors.Is(err, jetstream.ErrKeyNotFound) {
			return []Triple{}, nil
		}
		return nil, errors.WrapTransient(
			fmt.Errorf("%v: %w", err, errors.ErrStoreUnavailable),
			"KVStore", "LoadTriples", "kv get")
	}

	doc, err := decodeSubject(entry.Value())
	if err != nil {
		return nil, errors.WrapFatal(err, "KVStore", "LoadTriples", "document decode")
	}
	return doc.Triples, nil
}

// ApplyDiff removes then adds triples for one subject under revision CAS
func (s *KVStore) ApplyDiff(ctx context.Context, subject string, add, remove []Triple) error {
	ctx, cancel := s.applyTimeout(ctx)
	defer cancel()

	key := subjectKey(subject)
	delay := s.options.RetryDelay

	for attempt := 0; attempt <= s.options.MaxRetries; attempt++ {
		if attempt > 0 {
			if s.options.OnRetry != nil {
				s.options.OnRetry()
			}
			select {
			case <-ctx.Done():
				return errors.WrapTransient(ctx.Err(), "KVStore", "ApplyDiff", "retry wait")
			case <-time.After(delay):
			}
			delay *= 2
			if delay > s.options.MaxDelay {
				delay = s.options.MaxDelay
			}
		}

		err := s.tryApplyDiff(ctx, key, subject, add, remove)
		if err == nil {
			return nil
		}
		if isKVConflict(err) {
			s.logger.Debug("kv conflict, retrying diff",
				"subject", subject, "attempt", attempt+1, "max", s.options.MaxRetries+1)
			continue
		}
		return err
	}

	return errors.WrapTransient(
		fmt.Errorf("subject %s after %d attempts: %w", subject, s.options.MaxRetries+1, errors.ErrStoreConflict),
		"KVStore", "ApplyDiff", "cas retry")
}

func (s *KVStore) tryApplyDiff(ctx context.Context, key, subject string, add, remove []Triple) error {
	var (
		current  map[string]Triple
		revision uint64
	)

	entry, err := s.bucket.Get(ctx, key)
	switch {
	case err == nil:
		doc, decodeErr := decodeSubject(entry.Value())
		if decodeErr != nil {
			return errors.WrapFatal(decodeErr, "KVStore", "ApplyDiff", "document decode")
		}
		current = make(map[string]Triple, len(doc.Triples))
		for _, t := range doc.Triples {
			current[t.Key()] = t
		}
		revision = entry.Revision()
	case stderrors.Is(err, jetstream.ErrKeyNotFound):
		current = make(map[string]Triple)
	default:
		return errors.WrapTransient(
			fmt.Errorf("%v: %w", err, errors.ErrStoreUnavailable),
			"KVStore", "ApplyDiff", "kv get")
	}

	for _, t := range remove {
		delete(current, t.Key())
	}
	for _, t := range add {
		current[t.Key()] = t
	}

	// An emptied subject must stop existing, matching MemoryStore's
	// Exists semantics for identifier uniqueness checks.
	if len(current) == 0 {
		if revision == 0 {
			return nil
		}
		if err := s.bucket.Purge(ctx, key, jetstream.LastRevision(revision)); err != nil {
			if isKVConflict(err) {
				return err
			}
			return errors.WrapTransient(
				fmt.Errorf("%v: %w", err, errors.ErrStoreUnavailable),
				"KVStore", "ApplyDiff", "kv purge")
		}
		return nil
	}

	doc := subjectDocument{Subject: subject, Triples: make([]Triple, 0, len(current))}
	for _, t := range current {
		doc.Triples = append(doc.Triples, t)
	}
	value, err := json.Marshal(doc)
	if err != nil {
		return errors.WrapFatal(err, "KVStore", "ApplyDiff", "document encode")
	}
	if s.options.MaxValueSize > 0 && len(value) > s.options.MaxValueSize {
		return errors.WrapInvalid(
			fmt.Errorf("subject %s document size %d exceeds maximum %d",
				subject, len(value), s.options.MaxValueSize),
			"KVStore", "ApplyDiff", "size check")
	}

	if revision == 0 {
		_, err = s.bucket.Create(ctx, key, value)
	} else {
		_, err = s.bucket.Update(ctx, key, value, revision)
	}
	if err != nil {
		if isKVConflict(err) {
			return err
		}
		return errors.WrapTransient(
			fmt.Errorf("%v: %w", err, errors.ErrStoreUnavailable),
			"KVStore", "ApplyDiff", "kv write")
	}
	return nil
}

// Exists reports whether any triple is stored for the identifier
func (s *KVStore) Exists(ctx context.Context, identifier string) (bool, error) {
	ctx, cancel := s.applyTimeout(ctx)
	defer cancel()

	_, err := s.bucket.Get(ctx, subjectKey(identifier))
	if err != nil {
		if stderrors.Is(err, jetstream.ErrKeyNotFound) {
			return false, nil
		}
		return false, errors.WrapTransient(
			fmt.Errorf("%v: %w", err, errors.ErrStoreUnavailable),
			"KVStore", "Exists", "kv get")
	}
	return true, nil
}

// DeleteAll removes the subject's document entirely
func (s *KVStore) DeleteAll(ctx context.Context, subject string) error {
	ctx, cancel := s.applyTimeout(ctx)
	defer cancel()

	if err := s.bucket.Purge(ctx, subjectKey(subject)); err != nil {
		return errors.WrapTransient(
			fmt.Errorf("%v: %w", err, errors.ErrStoreUnavailable),
			"KVStore", "DeleteAll", "kv purge")
	}
	return nil
}

func decodeSubject(value []byte) (subjectDocument, error) {
	var doc subjectDocument
	dec := json.NewDecoder(bytes.NewReader(value))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return doc, fmt.Errorf("corrupt subject document: %w", err)
	}
	for i := range doc.Triples {
		doc.Triples[i].Object = normalizeObject(doc.Triples[i].Object)
	}
	return doc, nil
}

// normalizeObject maps decoded JSON numbers back onto the engine's numeric
// types. Plain unmarshalling into any yields float64, which loses precision
// above 2^53 and renders differently in Triple.Key, so a remove computed
// from the in-memory int64 would miss the stored triple.
func normalizeObject(obj any) any {
	num, ok := obj.(json.Number)
	if !ok {
		return obj
	}
	if i, err := strconv.ParseInt(num.String(), 10, 64); err == nil {
		return i
	}
	if f, err := num.Float64(); err == nil {
		return f
	}
	return num.String()
}

// isKVConflict reports whether err is a CAS race: either a Create against
// an existing key or an Update with a stale revision.
func isKVConflict(err error) bool {
	if stderrors.Is(err, jetstream.ErrKeyExists) {
		return true
	}
	var apiErr *jetstream.APIError
	if stderrors.As(err, &apiErr) {
		return apiErr.ErrorCode == jetstream.JSErrCodeStreamWrongLastSequence
	}
	return false
}
