package model

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/c360/semmodel/errors"
)

// MaxGenerationAttempts bounds the number of candidate identifiers drawn
// per Generate call. Collisions beyond this bound indicate a saturated
// counter space or a broken uniqueness check, and surface as
// ErrIdentifierExhausted rather than spinning.
const MaxGenerationAttempts = 64

// placeholder is the template marker replaced by the generated suffix
const placeholder = "{id}"

// blankNodePrefix follows the skolemized well-known genid convention for
// models without an identifier template.
const blankNodePrefix = "http://localhost/.well-known/genid/"

// ExistsFunc checks whether an identifier is already taken.
// Typically store.Store.Exists.
type ExistsFunc func(ctx context.Context, identifier string) (bool, error)

// CandidateSource produces locally-unique identifier suffixes
type CandidateSource interface {
	Next() string
}

// CounterSource draws monotonically increasing decimal suffixes. Safe for
// concurrent use; the counter alone does not guarantee store-wide
// uniqueness, which is why Generate still consults the store.
type CounterSource struct {
	n atomic.Uint64
}

// Next returns the next counter value as a decimal string
func (s *CounterSource) Next() string {
	return strconv.FormatUint(s.n.Add(1), 10)
}

// RandomSource draws random UUID tokens
type RandomSource struct{}

// Next returns a fresh UUIDv4 string
func (s RandomSource) Next() string {
	return uuid.NewString()
}

// IRIGenerator produces identifiers for new resources of one model by
// filling the model's template with candidate suffixes until the store
// reports a free one.
//
// Generation is safe under concurrent creation: the store's Exists check is
// consulted per candidate, and callers that race to the same identifier are
// expected to be separated either by an atomic check-and-reserve in the
// store or by the save-time conflict surfacing as ErrStoreConflict, at
// which point Generate is simply called again. No lock is held across
// store round-trips.
type IRIGenerator struct {
	template    string
	source      CandidateSource
	maxAttempts int
}

// NewIRIGenerator builds a generator for a template containing the "{id}"
// placeholder. A template without the placeholder gets the suffix appended.
func NewIRIGenerator(template string, source CandidateSource) *IRIGenerator {
	if !strings.Contains(template, placeholder) {
		template += placeholder
	}
	return &IRIGenerator{
		template:    template,
		source:      source,
		maxAttempts: MaxGenerationAttempts,
	}
}

// NewBlankNodeGenerator builds the default generator for models without an
// identifier template: skolemized local identifiers with random tokens.
func NewBlankNodeGenerator() *IRIGenerator {
	return NewIRIGenerator(blankNodePrefix+placeholder, RandomSource{})
}

func newGeneratorForDefinition(def Definition) *IRIGenerator {
	if def.IRITemplate == "" {
		return NewBlankNodeGenerator()
	}
	var source CandidateSource
	switch def.Generation {
	case GenerationCounter:
		source = &CounterSource{}
	default:
		source = RandomSource{}
	}
	return NewIRIGenerator(def.IRITemplate, source)
}

// Generate returns an identifier no existing resource holds, or
// ErrIdentifierExhausted after the attempt bound.
func (g *IRIGenerator) Generate(ctx context.Context, exists ExistsFunc) (string, error) {
	for attempt := 0; attempt < g.maxAttempts; attempt++ {
		candidate := strings.ReplaceAll(g.template, placeholder, g.source.Next())

		taken, err := exists(ctx, candidate)
		if err != nil {
			return "", errors.WrapTransient(
				fmt.Errorf("uniqueness check for %s: %w", candidate, err),
				"IRIGenerator", "Generate", "store check")
		}
		if !taken {
			return candidate, nil
		}
	}
	return "", errors.WrapInvalid(
		fmt.Errorf("template %s after %d attempts: %w", g.template, g.maxAttempts, errors.ErrIdentifierExhausted),
		"IRIGenerator", "Generate", "candidate search")
}

// IsBlankNode reports whether an identifier came from the blank-node
// generator convention.
func IsBlankNode(identifier string) bool {
	return strings.HasPrefix(identifier, blankNodePrefix)
}
