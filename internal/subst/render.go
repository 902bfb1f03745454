package subst

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var specRegexp = regexp.MustCompile(`^(0)?([0-9]+)?([ds])?$`)

type value struct {
	s   string
	num bool
}

// render substitutes {name} and {name:spec} fields. "{{" and "}}" are
// literal braces.
func render(template string, fields Fields) (string, error) {
	var b strings.Builder
	for i := 0; i < len(template); i++ {
		c := template[i]
		switch c {
		case '{':
			if i+1 < len(template) && template[i+1] == '{' {
				b.WriteByte('{')
				i++
				continue
			}
			end := strings.IndexAny(template[i+1:], "{}")
			if end < 0 || template[i+1+end] != '}' {
				return "", fmt.Errorf("%w: unmatched '{' at offset %d in %q", ErrTemplate, i, template)
			}
			field := template[i+1 : i+1+end]
			s, err := formatField(field, fields)
			if err != nil {
				return "", fmt.Errorf("%w in %q", err, template)
			}
			b.WriteString(s)
			i += end + 1
		case '}':
			if i+1 < len(template) && template[i+1] == '}' {
				b.WriteByte('}')
				i++
				continue
			}
			return "", fmt.Errorf("%w: single '}' at offset %d in %q", ErrTemplate, i, template)
		default:
			b.WriteByte(c)
		}
	}
	return b.String(), nil
}

func formatField(field string, fields Fields) (string, error) {
	name, spec, _ := strings.Cut(field, ":")
	if name == "" {
		return "", fmt.Errorf("%w: positional field {%s} is not supported", ErrTemplate, field)
	}

	v, err := lookupField(name, fields)
	if err != nil {
		return "", err
	}
	return applySpec(name, v, spec)
}

func lookupField(name string, fields Fields) (value, error) {
	switch name {
	case "tag":
		return value{s: fields.Tag}, nil
	case "sha":
		return value{s: fields.Sha}, nil
	case "full_sha":
		return value{s: fields.FullSha}, nil
	case "ccount":
		if fields.CCount == nil {
			return value{num: true}, nil
		}
		return value{s: strconv.Itoa(*fields.CCount), num: true}, nil
	case "branch":
		if fields.Branch == nil {
			return value{}, nil
		}
		return value{s: *fields.Branch}, nil
	default:
		return value{}, fmt.Errorf("%w: unknown field {%s}", ErrTemplate, name)
	}
}

func applySpec(name string, v value, spec string) (string, error) {
	if spec == "" {
		return v.s, nil
	}

	m := specRegexp.FindStringSubmatch(spec)
	if m == nil {
		return "", fmt.Errorf("%w: invalid format spec %q for {%s}", ErrTemplate, spec, name)
	}
	zero, width, verb := m[1] != "", m[2], m[3]
	if v.num && v.s == "" {
		return "", fmt.Errorf("%w: {%s} is unknown and cannot be formatted with %q", ErrTemplate, name, spec)
	}

	switch {
	case verb == "d" && !v.num:
		return "", fmt.Errorf("%w: format 'd' needs a number, {%s} is a string", ErrTemplate, name)
	case verb == "s" && v.num:
		return "", fmt.Errorf("%w: format 's' needs a string, {%s} is a number", ErrTemplate, name)
	}

	if width == "" || v.s == "" {
		return v.s, nil
	}
	w, err := strconv.Atoi(width)
	if err != nil {
		return "", fmt.Errorf("%w: invalid width %q for {%s}", ErrTemplate, width, name)
	}
	if len(v.s) >= w {
		return v.s, nil
	}

	pad := " "
	if zero {
		pad = "0"
	}
	fill := strings.Repeat(pad, w-len(v.s))
	if v.num {
		return fill + v.s, nil
	}
	return v.s + fill, nil
}
