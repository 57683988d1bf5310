package generator

import (
	"errors"
	"fmt"
	"sort"

	"github.com/Conceptual-Machines/magda-melody/internal/models"
)

// Strategy names
const (
	MethodRandom = "random"
	MethodScored = "scored"
	MethodNgram  = "ngram"
)

// ErrUnknownStrategy is returned by Lookup for an unregistered name
var ErrUnknownStrategy = errors.New("unknown generation strategy")

// Strategy produces one melody for a harmony context. Implementations must be
// deterministic in (harmony, seed, config, structure) and must not share
// random state between calls.
type Strategy interface {
	Name() string
	Generate(h models.HarmonyContext, seed int64, cfg Config, structure *models.StructureSpec) models.GenerationResult
}

// Registry maps strategy names to implementations
type Registry struct {
	strategies map[string]Strategy
}

// NewRegistry returns a registry with the built-in strategies
func NewRegistry() *Registry {
	r := &Registry{strategies: make(map[string]Strategy)}
	r.Register(Random{})
	r.Register(Scored{})
	r.Register(Ngram{})
	return r
}

// Register adds or replaces a strategy
func (r *Registry) Register(s Strategy) {
	r.strategies[s.Name()] = s
}

// Lookup finds a strategy by name
func (r *Registry) Lookup(name string) (Strategy, error) {
	s, ok := r.strategies[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q (available: %v)", ErrUnknownStrategy, name, r.Names())
	}
	return s, nil
}

// Names returns the registered names in sorted order
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.strategies))
	for name := range r.strategies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
