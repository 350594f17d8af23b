package agent

import (
	"context"
	"errors"
	"fmt"
)

// Crew is a manager plus the ordered set of workers it delegates to.
type Crew struct {
	Manager *Coordinator
	Workers []*Worker
}

// DefaultRoster returns a copy of the locale's roles, manager first.
func DefaultRoster(locale Locale) []Spec {
	roster := make([]Spec, len(locale.Roster))
	copy(roster, locale.Roster)
	return roster
}

// MergeRoster applies per-role overrides to defaults. Empty override fields
// keep the default value. Overrides for roles not in defaults fail with
// ErrUnknownRole.
func MergeRoster(defaults []Spec, overrides map[string]Spec) ([]Spec, error) {
	merged := make([]Spec, len(defaults))
	known := make(map[string]bool, len(defaults))
	for i, spec := range defaults {
		known[spec.Name] = true
		if o, ok := overrides[spec.Name]; ok {
			if o.Instructions != "" {
				spec.Instructions = o.Instructions
			}
			if o.Persona != "" {
				spec.Persona = o.Persona
			}
		}
		merged[i] = spec
	}

	var errs []error
	for name := range overrides {
		if !known[name] {
			errs = append(errs, fmt.Errorf("%w: %s", ErrUnknownRole, name))
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return merged, nil
}

// LocalizeOverrides renames overrides keyed by another locale's role names to
// the names locale uses. An override already keyed in locale wins.
func LocalizeOverrides(overrides map[string]Spec, locale Locale) map[string]Spec {
	localized := make(map[string]Spec, len(overrides))
	for name, spec := range overrides {
		if local, ok := locale.LocalizeRole(name); ok && local != name {
			if _, own := overrides[local]; own {
				continue
			}
			name = local
			spec.Name = local
		}
		localized[name] = spec
	}
	return localized
}

// NewCrew builds a crew from roster. The first spec becomes the manager and
// the remaining specs are delegated to in order.
func NewCrew(roster []Spec, gen Generator, searcher Searcher, locale Locale) (*Crew, error) {
	if len(roster) == 0 {
		return nil, errors.New("roster needs at least a manager")
	}
	if gen == nil {
		return nil, errors.New("no generator configured")
	}

	crew := &Crew{
		Manager: NewCoordinator(roster[0], gen, searcher, locale),
		Workers: make([]*Worker, 0, len(roster)-1),
	}
	for _, spec := range roster[1:] {
		crew.Workers = append(crew.Workers, NewWorker(spec, gen, searcher, locale))
	}
	return crew, nil
}

// Names returns the worker names in delegation order, followed by the manager.
func (c *Crew) Names() []string {
	names := make([]string, 0, len(c.Workers)+1)
	for _, w := range c.Workers {
		names = append(names, w.Name())
	}
	return append(names, c.Manager.Name())
}

// GetWorker returns the worker or manager called name.
func (c *Crew) GetWorker(name string) (*Worker, bool) {
	if c.Manager.Name() == name {
		return c.Manager.Worker, true
	}
	for _, w := range c.Workers {
		if w.Name() == name {
			return w, true
		}
	}
	return nil, false
}

// Process delegates task to the whole crew.
func (c *Crew) Process(ctx context.Context, task Task) (Result, error) {
	text, err := c.Manager.Delegate(ctx, c.Workers, task)
	if err != nil {
		return Result{}, err
	}
	return Result{Text: text}, nil
}
