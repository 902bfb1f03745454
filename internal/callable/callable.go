// Package callable turns user-supplied references into the functions used
// for tag filtering, tag and branch formatting and version callbacks.
//
// A reference is either a Go function passed directly, a "module:attr" name
// resolved through a Registry (or an exported symbol of a Go plugin when the
// module ends in ".so"), or, failing both, a regular expression.
package callable

import (
	"errors"
	"fmt"
)

var (
	// ErrReference is returned when a reference cannot be resolved: the
	// attribute is missing, the value has the wrong kind, or the option is
	// neither a reference nor a valid regular expression.
	ErrReference = errors.New("invalid reference")

	// ErrMatch is returned by regexp-backed formatters when their input does
	// not match, or matches without the required named group.
	ErrMatch = errors.New("no match")
)

// Func maps a tag or branch name to a new string.
type Func func(string) (string, error)

// Thunk produces a version string.
type Thunk func() (string, error)

// Ref configures a formatter or filter. Fn wins over Spec when both are set.
type Ref struct {
	Fn   Func
	Spec string
}

// IsSet reports whether the reference carries anything to load.
func (r Ref) IsSet() bool {
	return r.Fn != nil || r.Spec != ""
}

// String returns the spec, or a placeholder for a Go function.
func (r Ref) String() string {
	if r.Fn != nil {
		return "<func>"
	}
	return r.Spec
}

// VersionRef configures a version callback. Fn wins over Spec when both
// are set.
type VersionRef struct {
	Fn   Thunk
	Spec string
}

// IsSet reports whether the reference carries anything to load.
func (r VersionRef) IsSet() bool {
	return r.Fn != nil || r.Spec != ""
}

// String returns the spec, or a placeholder for a Go function.
func (r VersionRef) String() string {
	if r.Fn != nil {
		return "<func>"
	}
	return r.Spec
}

// Kind parameterises Loader.Load for one configuration option.
type Kind struct {
	// Option is the configuration key, used in error messages.
	Option string
	// Group is the named capture group a regexp formatter returns.
	Group string
	// Label names the input in match errors ("Tag", "Branch").
	Label string
	// Filter selects filter semantics: a regexp match returns the input
	// unchanged and a miss returns "".
	Filter bool
}

var (
	TagFormatter    = Kind{Option: "tag_formatter", Group: "tag", Label: "Tag"}
	BranchFormatter = Kind{Option: "branch_formatter", Group: "branch", Label: "Branch"}
	TagFilter       = Kind{Option: "tag_filter", Label: "Tag", Filter: true}
)

func asFunc(v any) (Func, bool) {
	switch f := v.(type) {
	case Func:
		return f, f != nil
	case func(string) (string, error):
		return f, f != nil
	case func(string) string:
		if f == nil {
			return nil, false
		}
		return func(s string) (string, error) { return f(s), nil }, true
	case *func(string) string:
		if f == nil {
			return nil, false
		}
		return asFunc(*f)
	case *func(string) (string, error):
		if f == nil {
			return nil, false
		}
		return asFunc(*f)
	}
	return nil, false
}

func asThunk(v any) (Thunk, bool) {
	switch f := v.(type) {
	case Thunk:
		return f, f != nil
	case func() (string, error):
		return f, f != nil
	case func() string:
		if f == nil {
			return nil, false
		}
		return func() (string, error) { return f(), nil }, true
	case string:
		return func() (string, error) { return f, nil }, true
	case *string:
		if f == nil {
			return nil, false
		}
		return func() (string, error) { return *f, nil }, true
	case *func() string:
		if f == nil {
			return nil, false
		}
		return asThunk(*f)
	}
	return nil, false
}

func isSupported(v any) bool {
	if _, ok := asFunc(v); ok {
		return true
	}
	_, ok := asThunk(v)
	return ok
}

func typeName(v any) string {
	return fmt.Sprintf("%T", v)
}
