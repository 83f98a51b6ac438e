package overtime

import (
	"fmt"
	"sort"

	"github.com/warp/overtime-engine/generic"
)

// =============================================================================
// SCHEDULE RESOLVER
// =============================================================================

// ScheduleResolver selects the rate schedule for a date and employee type.
// Failures wrap ErrUnknownEmployeeType or ErrNoApplicableRateSchedule.
type ScheduleResolver interface {
	Resolve(date generic.Date, employeeType EmployeeType) (*RateSchedule, error)
}

// ScheduleFunc adapts a function to ScheduleResolver.
type ScheduleFunc func(generic.Date, EmployeeType) (*RateSchedule, error)

func (f ScheduleFunc) Resolve(d generic.Date, t EmployeeType) (*RateSchedule, error) { return f(d, t) }

// Fixed resolves every date and type to one schedule. Useful in tests and
// single-edition tools.
func Fixed(s *RateSchedule) ScheduleResolver {
	return ScheduleFunc(func(generic.Date, EmployeeType) (*RateSchedule, error) { return s, nil })
}

// =============================================================================
// REGISTRY - editions keyed by employee type and effective range
// =============================================================================

// Registry holds validated schedule editions. It is read-only after
// construction and safe for concurrent use.
type Registry struct {
	byType map[EmployeeType][]*RateSchedule
}

// NewRegistry validates and indexes editions. Editions of the same employee
// type must not have overlapping effective ranges.
func NewRegistry(editions ...*RateSchedule) (*Registry, error) {
	r := &Registry{byType: make(map[EmployeeType][]*RateSchedule)}
	for _, s := range editions {
		if err := s.Validate(); err != nil {
			return nil, err
		}
		r.byType[s.EmployeeType] = append(r.byType[s.EmployeeType], s)
	}
	for t, list := range r.byType {
		sort.Slice(list, func(i, j int) bool {
			return list[i].Effective.Start.Before(list[j].Effective.Start)
		})
		for i := 1; i < len(list); i++ {
			if list[i-1].Effective.Overlaps(list[i].Effective) {
				return nil, fmt.Errorf("%w: %s and %s overlap for %q",
					ErrInvalidSchedule, list[i-1].ID, list[i].ID, t)
			}
		}
	}
	return r, nil
}

// Resolve returns the edition for employeeType whose range covers date.
func (r *Registry) Resolve(date generic.Date, employeeType EmployeeType) (*RateSchedule, error) {
	list, ok := r.byType[employeeType]
	if !ok {
		return nil, &ScheduleError{EmployeeType: employeeType, Date: date, Err: ErrUnknownEmployeeType}
	}
	for _, s := range list {
		if s.Covers(date) {
			return s, nil
		}
	}
	return nil, &ScheduleError{EmployeeType: employeeType, Date: date, Err: ErrNoApplicableRateSchedule}
}

// EmployeeTypes lists registered types in sorted order.
func (r *Registry) EmployeeTypes() []EmployeeType {
	types := make([]EmployeeType, 0, len(r.byType))
	for t := range r.byType {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}

// Editions returns every edition ordered by employee type, then start date.
func (r *Registry) Editions() []*RateSchedule {
	var out []*RateSchedule
	for _, t := range r.EmployeeTypes() {
		out = append(out, r.byType[t]...)
	}
	return out
}
