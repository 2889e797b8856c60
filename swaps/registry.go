package swaps

import (
	"reflect"
	"sort"
	"strings"
	"sync"

	"golang.org/x/xerrors"

	pojotools "github.com/illuscio-dev/pojotools-go"
	"github.com/illuscio-dev/pojotools-go/mediatype"
)

/*
Registry maps source types to their swap definitions.

Lifecycle is initialization-then-freeze: format modules and application code
Register() definitions during setup, then the owner calls Freeze(). After
freezing the registry is read-only and safe for unsynchronized concurrent
reads; further registration attempts fail.

Resolution follows a fixed priority so lookups are deterministic even when a
configuration registers overlapping conditional definitions:

1. Conditional definitions are tried before unconditional ones.

2. Among conditional definitions, most specific media type pattern first
(mediatype.Specificity), registration order as tiebreak.

3. Among unconditional definitions, last registered wins.

4. The first applicable definition is returned; the search stops there.
*/
type Registry struct {
	mu      sync.RWMutex
	byType  map[reflect.Type][]*Definition
	frozen  bool
	nextSeq int
}

// NewRegistry returns an empty, unfrozen registry.
func NewRegistry() *Registry {
	return &Registry{
		byType: make(map[reflect.Type][]*Definition),
	}
}

// Register inserts a definition. Fails if the registry has been frozen or the
// definition is missing its source type or forward function.
func (registry *Registry) Register(def *Definition) error {
	if def.Source == nil {
		return xerrors.New("swap definition has no source type")
	}
	if def.Forward == nil {
		return xerrors.New(
			"swap definition for " + def.Source.String() + " has no forward function",
		)
	}

	registry.mu.Lock()
	defer registry.mu.Unlock()

	if registry.frozen {
		return xerrors.New(
			"registry is frozen, cannot register swap for " + def.Source.String(),
		)
	}

	def.seq = registry.nextSeq
	registry.nextSeq++
	registry.byType[def.Source] = append(registry.byType[def.Source], def)

	return nil
}

// MustRegister is Register that panics on failure. For use in setup code and
// package-level initialization where a bad definition is a programming error.
func (registry *Registry) MustRegister(def *Definition) {
	if err := registry.Register(def); err != nil {
		panic(err)
	}
}

/*
Freeze transitions the registry to read-only. Definitions for each type are
sorted into resolution order, and conditional definitions with overlapping
media type predicates are flagged through the package logger — overlap means
the registration-order tiebreak is load-bearing, which is usually a
configuration mistake rather than an intent.

Freeze is idempotent.
*/
func (registry *Registry) Freeze() {
	registry.mu.Lock()
	defer registry.mu.Unlock()

	if registry.frozen {
		return
	}
	registry.frozen = true

	for sourceType, defs := range registry.byType {
		sort.SliceStable(defs, func(i, j int) bool {
			left, right := defs[i], defs[j]

			// Conditional ahead of unconditional.
			if left.Conditional() != right.Conditional() {
				return left.Conditional()
			}

			if left.Conditional() {
				leftSpec := mediatype.Specificity(left.MediaTypes)
				rightSpec := mediatype.Specificity(right.MediaTypes)
				if leftSpec != rightSpec {
					return leftSpec > rightSpec
				}
				return left.seq < right.seq
			}

			// Unconditional: last registered wins, so later seq sorts first.
			return left.seq > right.seq
		})

		registry.flagAmbiguous(sourceType, defs)
	}
}

// Frozen reports whether Freeze has been called.
func (registry *Registry) Frozen() bool {
	registry.mu.RLock()
	defer registry.mu.RUnlock()
	return registry.frozen
}

/*
Lookup resolves the single applicable definition for a (type, media type)
pair, or nil when the type has no applicable swap. Interface-typed sources
match any lookup type implementing them, but exact-type definitions are
always preferred.
*/
func (registry *Registry) Lookup(
	lookupType reflect.Type, mediaType mediatype.MediaType,
) *Definition {
	if lookupType == nil {
		return nil
	}

	registry.mu.RLock()
	defs := registry.byType[lookupType]
	registry.mu.RUnlock()

	if def := firstApplicable(defs, mediaType); def != nil {
		return def
	}

	// Fall back to interface-typed sources.
	registry.mu.RLock()
	defer registry.mu.RUnlock()

	var found *Definition
	for sourceType, candidates := range registry.byType {
		if sourceType.Kind() != reflect.Interface || !lookupType.Implements(sourceType) {
			continue
		}
		if def := firstApplicable(candidates, mediaType); def != nil {
			// Registration order keeps interface fallback deterministic when
			// a type implements several registered interfaces.
			if found == nil || def.seq < found.seq {
				found = def
			}
		}
	}

	return found
}

func firstApplicable(
	defs []*Definition, mediaType mediatype.MediaType,
) *Definition {
	for _, def := range defs {
		if def.Applies(mediaType) {
			return def
		}
	}
	return nil
}

// Logs a warning for each pair of conditional definitions whose predicates
// can both match some media type.
func (registry *Registry) flagAmbiguous(
	sourceType reflect.Type, defs []*Definition,
) {
	for i, left := range defs {
		if !left.Conditional() {
			continue
		}
		for _, right := range defs[i+1:] {
			if !right.Conditional() {
				continue
			}
			if patternsOverlap(left.MediaTypes, right.MediaTypes) {
				pojotools.Logger.Warn().
					Str("type", sourceType.String()).
					Str("pattern", left.MediaTypes).
					Str("overlaps", right.MediaTypes).
					Msg("ambiguous conditional swap predicates, " +
						"registration order will decide")
			}
		}
	}
}

// Reports whether two media type patterns can match the same media type.
func patternsOverlap(pattern1 string, pattern2 string) bool {
	for _, member1 := range strings.Split(pattern1, ",") {
		member1 = strings.ToLower(strings.TrimSpace(member1))
		if member1 == "" {
			continue
		}
		for _, member2 := range strings.Split(pattern2, ",") {
			member2 = strings.ToLower(strings.TrimSpace(member2))
			if member2 == "" {
				continue
			}
			if membersOverlap(member1, member2) {
				return true
			}
		}
	}
	return false
}

func membersOverlap(member1 string, member2 string) bool {
	// A literal member overlaps a pattern member if it matches it; two
	// literal members overlap only when equal.
	if !strings.Contains(member1, "*") {
		return mediatype.MediaType(member1).Matches(member2)
	}
	if !strings.Contains(member2, "*") {
		return mediatype.MediaType(member2).Matches(member1)
	}

	// Both contain wildcards: overlap unless their literal type parts differ.
	type1 := strings.SplitN(member1, "/", 2)[0]
	type2 := strings.SplitN(member2, "/", 2)[0]

	return type1 == "*" || type2 == "*" || type1 == type2
}
