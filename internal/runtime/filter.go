package runtime

import (
	"fmt"
	"regexp"
	"slices"
)

// Filter decides whether a handler is eligible for one event. Filters are
// pure predicates over the event; they must not touch shared state or
// perform I/O.
type Filter interface {
	Matches(ev *Event) bool
}

// FilterFunc adapts a plain function to the Filter interface.
type FilterFunc func(*Event) bool

func (f FilterFunc) Matches(ev *Event) bool { return f(ev) }

// Any matches every event.
func Any() Filter {
	return FilterFunc(func(*Event) bool { return true })
}

// Kinds matches events whose kind is one of the given kinds.
func Kinds(kinds ...Kind) Filter {
	ks := slices.Clone(kinds)
	return FilterFunc(func(ev *Event) bool {
		return slices.Contains(ks, ev.Kind)
	})
}

type patternFilter struct {
	re *regexp.Regexp
}

func (f patternFilter) Matches(ev *Event) bool {
	return ev.Message != nil && f.re.MatchString(ev.Message.Text)
}

// Pattern matches message events whose text matches the regular
// expression. Events without a message never match.
func Pattern(expr string) (Filter, error) {
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("compile pattern %q: %w", expr, err)
	}
	return patternFilter{re: re}, nil
}

// MustPattern is Pattern for literal expressions; it panics on a compile
// error.
func MustPattern(expr string) Filter {
	f, err := Pattern(expr)
	if err != nil {
		panic(err)
	}
	return f
}

// And matches when every given filter matches.
func And(filters ...Filter) Filter {
	fs := slices.Clone(filters)
	return FilterFunc(func(ev *Event) bool {
		for _, f := range fs {
			if !f.Matches(ev) {
				return false
			}
		}
		return true
	})
}

// Not inverts a filter.
func Not(f Filter) Filter {
	return FilterFunc(func(ev *Event) bool { return !f.Matches(ev) })
}
