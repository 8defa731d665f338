package plan

import (
	"errors"
	"sort"
)

var (
	ErrUnknownPlan     = errors.New("unknown plan")
	ErrModelNotAllowed = errors.New("model not allowed for plan")
)

// Plan is one immutable subscription tier. Models keeps configuration
// order; the first entry is the tier's default model.
type Plan struct {
	ID         string
	DailyLimit int
	Models     []string
}

// DefaultModel returns the first configured model for the plan.
func (p Plan) DefaultModel() string {
	if len(p.Models) == 0 {
		return ""
	}
	return p.Models[0]
}

func (p Plan) allows(model string) bool {
	for _, m := range p.Models {
		if m == model {
			return true
		}
	}
	return false
}

// Registry holds the static plan table loaded at startup. It is
// read-only after construction and safe for concurrent use.
type Registry struct {
	plans map[string]Plan
}

func NewRegistry(plans map[string]Plan) *Registry {
	table := make(map[string]Plan, len(plans))
	for id, p := range plans {
		p.ID = id
		table[id] = p
	}
	return &Registry{plans: table}
}

func (r *Registry) Resolve(planID string) (Plan, error) {
	p, ok := r.plans[planID]
	if !ok {
		return Plan{}, ErrUnknownPlan
	}
	return p, nil
}

// ModelFor picks the generation model for a turn. An empty request
// selects the plan's default model; anything else must be in the
// plan's allowed set.
func (r *Registry) ModelFor(p Plan, requested string) (string, error) {
	if requested == "" {
		if def := p.DefaultModel(); def != "" {
			return def, nil
		}
		return "", ErrModelNotAllowed
	}
	if !p.allows(requested) {
		return "", ErrModelNotAllowed
	}
	return requested, nil
}

// IDs lists the configured plan identifiers in stable order.
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.plans))
	for id := range r.plans {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
