package callable

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"go.uber.org/zap"
)

// Loader resolves references into functions. Plugin paths are resolved
// relative to the project root; nothing process-wide is modified.
type Loader struct {
	root     string
	registry *Registry
	logger   *zap.Logger
	open     pluginOpener
}

// NewLoader creates a loader for the project at root. A nil registry means
// DefaultRegistry; a nil logger discards output.
func NewLoader(root string, registry *Registry, logger *zap.Logger) *Loader {
	if registry == nil {
		registry = DefaultRegistry
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{
		root:     root,
		registry: registry,
		logger:   logger,
		open:     openPlugin,
	}
}

// Load returns the function for ref, interpreted as kind. It returns nil
// and no error when ref is not set.
func (l *Loader) Load(kind Kind, ref Ref) (Func, error) {
	if ref.Fn != nil {
		l.logger.Debug("using Go function", zap.String("option", kind.Option))
		return ref.Fn, nil
	}
	if ref.Spec == "" {
		return nil, nil
	}

	l.logger.Info("parsing option", zap.String("option", kind.Option), zap.String("value", ref.Spec))

	value, isRef, err := l.resolve(ref.Spec)
	if err != nil {
		return nil, fmt.Errorf("%s %q: %w", kind.Option, ref.Spec, err)
	}
	if isRef {
		fn, ok := asFunc(value)
		if !ok {
			return nil, fmt.Errorf("%w: %s %q: value of type %s is not a func(string) string",
				ErrReference, kind.Option, ref.Spec, typeName(value))
		}
		return fn, nil
	}

	re, err := regexp.Compile(`^(?:` + ref.Spec + `)`)
	if err != nil {
		l.logger.Error("option is neither a valid reference nor a valid regexp",
			zap.String("option", kind.Option), zap.Error(err))
		return nil, fmt.Errorf("%w: cannot parse %s %q: %v", ErrReference, kind.Option, ref.Spec, err)
	}

	if kind.Filter {
		return l.filter(re), nil
	}
	return formatter(kind, ref.Spec, re), nil
}

// Version returns the version produced by ref. A Go function or reference
// is called; a reference to a string value yields that string. A spec that
// is not a reference at all is returned as is.
func (l *Loader) Version(ref VersionRef) (string, error) {
	if ref.Fn != nil {
		l.logger.Debug("calling Go version callback")
		return ref.Fn()
	}

	l.logger.Info("parsing option", zap.String("option", "version_callback"), zap.String("value", ref.Spec))

	value, isRef, err := l.resolve(ref.Spec)
	if err != nil {
		return "", fmt.Errorf("version_callback %q: %w", ref.Spec, err)
	}
	if !isRef {
		l.logger.Warn("version_callback is not a valid reference, using it as the version",
			zap.String("value", ref.Spec))
		return ref.Spec, nil
	}

	thunk, ok := asThunk(value)
	if !ok {
		return "", fmt.Errorf("%w: version_callback %q: value of type %s is neither callable nor a string",
			ErrReference, ref.Spec, typeName(value))
	}
	out, err := thunk()
	if err != nil {
		return "", fmt.Errorf("calling version_callback %q: %w", ref.Spec, err)
	}
	return out, nil
}

// resolve looks spec up as a "module:attr" reference. isRef is false when
// spec is not a reference; err is set when it is one but cannot be used.
func (l *Loader) resolve(spec string) (value any, isRef bool, err error) {
	module, attr, ok := splitReference(spec)
	if !ok {
		l.logger.Debug("not a reference", zap.String("value", spec))
		return nil, false, nil
	}

	if v, known, found := l.registry.lookup(module, attr); known {
		if !found {
			return nil, true, fmt.Errorf("%w: module %q has no attribute %q", ErrReference, module, attr)
		}
		return v, true, nil
	}

	if !strings.HasSuffix(module, ".so") {
		l.logger.Debug("unknown module", zap.String("module", module))
		return nil, false, nil
	}

	path := module
	if !filepath.IsAbs(path) {
		path = filepath.Join(l.root, path)
	}
	lookup, err := l.open(path)
	if err != nil {
		l.logger.Debug("cannot open plugin", zap.String("path", path), zap.Error(err))
		return nil, false, nil
	}
	sym, err := lookup(attr)
	if err != nil {
		return nil, true, fmt.Errorf("%w: plugin %q has no symbol %q: %v", ErrReference, module, attr, err)
	}
	return sym, true, nil
}

func (l *Loader) filter(re *regexp.Regexp) Func {
	return func(input string) (string, error) {
		if re.MatchString(input) {
			l.logger.Debug("matched", zap.String("input", input))
			return input, nil
		}
		return "", nil
	}
}

func formatter(kind Kind, pattern string, re *regexp.Regexp) Func {
	group := re.SubexpIndex(kind.Group)
	return func(input string) (string, error) {
		m := re.FindStringSubmatchIndex(input)
		if m == nil {
			return "", fmt.Errorf("%w: %s name %s does not match regexp '%s'", ErrMatch, kind.Label, input, pattern)
		}
		if group < 0 {
			return "", fmt.Errorf("%w: regexp '%s' has no group named %q", ErrMatch, pattern, kind.Group)
		}
		if m[2*group] < 0 {
			return "", nil
		}
		return input[m[2*group]:m[2*group+1]], nil
	}
}
