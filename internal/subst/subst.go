// Package subst renders version templates.
//
// Rendering runs in three passes. {env:NAME[:default]} placeholders are
// expanded to a fixed point first, so defaults may nest further env or
// timestamp placeholders. {timestamp[:format]} placeholders are expanded
// next. What remains is rendered against the five repository fields.
//
// An unknown commit count (shallow clone, unresolvable tag) renders as an
// empty string, so "{tag}.post{ccount}" yields "1.0.post" and the sanitized
// version reads as post0. A format spec on an unknown count, such as
// "{ccount:d}", is a template error instead.
package subst

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/lestrrat-go/strftime"
	"go.uber.org/zap"
)

// ErrTemplate is returned for malformed or non-converging templates.
var ErrTemplate = errors.New("template error")

const (
	// maxEnvPasses bounds the env expansion loop.
	maxEnvPasses = 64
	// maxTemplateLen bounds how far env expansion may grow a template.
	maxTemplateLen = 64 << 10
)

var (
	envRegexp       = regexp.MustCompile(`(?i)\{env:(?P<name>[^:}]+):?(?P<default>[^}]+\}*)?\}`)
	timestampRegexp = regexp.MustCompile(`(?i)\{timestamp:?(?P<fmt>[^:}]+)?\}`)
)

// Fields are the values available to {tag}, {sha}, {full_sha}, {ccount}
// and {branch}. A nil CCount or Branch is unknown and renders as "";
// formatting a nil CCount with a spec fails.
type Fields struct {
	Tag     string
	Sha     string
	FullSha string
	CCount  *int
	Branch  *string
}

// Engine expands templates. The zero value is not usable; use NewEngine.
type Engine struct {
	env    map[string]string
	now    func() time.Time
	logger *zap.Logger
}

// NewEngine returns an engine that looks variables up in the process
// environment first and in env second. env is typically read from a dotenv
// file and may be nil.
func NewEngine(env map[string]string, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		env:    env,
		now:    time.Now,
		logger: logger,
	}
}

// Resolve renders template with NewEngine(nil, nil).
func Resolve(template string, fields Fields) (string, error) {
	return NewEngine(nil, nil).Resolve(template, fields)
}

// Resolve expands every placeholder in template.
func (e *Engine) Resolve(template string, fields Fields) (string, error) {
	e.logger.Debug("resolving template", zap.String("template", template))

	passes := 0
	for strings.Contains(template, "{env") {
		if passes == maxEnvPasses {
			return "", fmt.Errorf("%w: env substitution did not converge after %d passes: %q",
				ErrTemplate, maxEnvPasses, template)
		}
		passes++

		next, err := e.substituteEnv(template)
		if err != nil {
			return "", err
		}
		if next == template {
			break
		}
		template = next
	}

	if strings.Contains(template, "{timestamp") {
		var err error
		template, err = e.substituteTimestamp(template)
		if err != nil {
			return "", err
		}
	}

	out, err := render(template, fields)
	if err != nil {
		return "", err
	}
	e.logger.Debug("template resolved", zap.String("result", out))
	return out, nil
}

// substituteEnv runs one pass: as many single, leftmost replacements as
// there were matches when the pass started.
func (e *Engine) substituteEnv(template string) (string, error) {
	n := len(envRegexp.FindAllStringIndex(template, -1))
	for range n {
		loc := envRegexp.FindStringSubmatchIndex(template)
		if loc == nil {
			break
		}

		name := template[loc[2]:loc[3]]
		def := ""
		if loc[4] >= 0 {
			def = template[loc[4]:loc[5]]
		}
		switch {
		case strings.EqualFold(def, "IGNORE"):
			def = ""
		case def == "":
			def = "UNKNOWN"
		}

		value, ok := e.lookup(name)
		if !ok {
			value = def
		}
		e.logger.Debug("env placeholder",
			zap.String("name", name), zap.Bool("set", ok), zap.String("value", value))

		template = template[:loc[0]] + value + template[loc[1]:]
		if len(template) > maxTemplateLen {
			return "", fmt.Errorf("%w: env substitution grew the template past %d bytes", ErrTemplate, maxTemplateLen)
		}
	}
	return template, nil
}

func (e *Engine) lookup(name string) (string, bool) {
	if v, ok := os.LookupEnv(name); ok {
		return v, true
	}
	v, ok := e.env[name]
	return v, ok
}

func (e *Engine) substituteTimestamp(template string) (string, error) {
	now := e.now()

	var b strings.Builder
	last := 0
	for _, loc := range timestampRegexp.FindAllStringSubmatchIndex(template, -1) {
		format := "%s"
		if loc[2] >= 0 {
			format = template[loc[2]:loc[3]]
		}

		value, err := strftime.Format(format, now, strftime.WithUnixSeconds('s'))
		if err != nil {
			return "", fmt.Errorf("%w: timestamp format %q: %v", ErrTemplate, format, err)
		}
		e.logger.Debug("timestamp placeholder", zap.String("format", format), zap.String("value", value))

		b.WriteString(template[last:loc[0]])
		b.WriteString(value)
		last = loc[1]
	}
	b.WriteString(template[last:])
	return b.String(), nil
}
