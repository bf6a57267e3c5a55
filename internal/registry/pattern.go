// Package registry holds the catalog of step patterns and the matcher that
// resolves a step's prose to a pattern id plus typed parameters.
package registry

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Placeholder types accepted inside a template.
const (
	TypeString = "string"
	TypeInt    = "int"
	TypeFloat  = "float"
	TypeWord   = "word"
)

// Pattern is a parameterized text template a step can match against.
// Patterns are registered once at process start; ids are part of the
// exported schema contract and must stay stable across releases.
type Pattern struct {
	ID          string
	Category    string
	Template    string
	Aliases     []string
	Description string
	Examples    []string

	compiled []compiledTemplate
}

type compiledTemplate struct {
	source string
	re     *regexp.Regexp
	types  []string
}

// Param is one extracted, type-checked placeholder value.
type Param struct {
	Type  string
	Raw   string
	Value any
}

// Match is a successful pattern match: the pattern, the template variant that
// matched, and the extracted parameters in template order.
type Match struct {
	Pattern  *Pattern
	Template string
	Params   []Param
}

// Render reproduces the step text from the matched template and extracted
// parameters. For every successful match, Render returns a string
// structurally equivalent to the original step text.
func (m *Match) Render() string {
	out := m.Template
	for _, p := range m.Params {
		placeholder := "{" + p.Type + "}"
		val := p.Raw
		if p.Type == TypeString {
			val = `"` + p.Raw + `"`
		}
		out = strings.Replace(out, placeholder, val, 1)
	}
	return out
}

var placeholderRe = regexp.MustCompile(`\{(string|int|float|word)\}`)

func compileTemplate(tmpl string) (compiledTemplate, error) {
	var (
		sb    strings.Builder
		types []string
		last  int
	)
	sb.WriteString("^")
	for _, loc := range placeholderRe.FindAllStringSubmatchIndex(tmpl, -1) {
		sb.WriteString(regexp.QuoteMeta(tmpl[last:loc[0]]))
		typ := tmpl[loc[2]:loc[3]]
		switch typ {
		case TypeString:
			sb.WriteString(`"([^"]*)"`)
		case TypeInt:
			sb.WriteString(`(-?\d+)`)
		case TypeFloat:
			sb.WriteString(`(-?\d+(?:\.\d+)?)`)
		case TypeWord:
			sb.WriteString(`(\S+)`)
		}
		types = append(types, typ)
		last = loc[1]
	}
	sb.WriteString(regexp.QuoteMeta(tmpl[last:]))
	sb.WriteString("$")

	re, err := regexp.Compile(sb.String())
	if err != nil {
		return compiledTemplate{}, fmt.Errorf("compiling template %q: %w", tmpl, err)
	}
	return compiledTemplate{source: tmpl, re: re, types: types}, nil
}

func (p *Pattern) compile() error {
	templates := append([]string{p.Template}, p.Aliases...)
	p.compiled = p.compiled[:0]
	for _, tmpl := range templates {
		ct, err := compileTemplate(tmpl)
		if err != nil {
			return err
		}
		p.compiled = append(p.compiled, ct)
	}
	return nil
}

// match tries the pattern's template and aliases against the step text.
func (p *Pattern) match(text string) (*Match, bool) {
	for _, ct := range p.compiled {
		groups := ct.re.FindStringSubmatch(text)
		if groups == nil {
			continue
		}
		params := make([]Param, len(ct.types))
		for i, typ := range ct.types {
			raw := groups[i+1]
			val, err := convert(typ, raw)
			if err != nil {
				// Structural match with an unconvertible value cannot
				// happen given the capture groups above, but guard anyway.
				return nil, false
			}
			params[i] = Param{Type: typ, Raw: raw, Value: val}
		}
		return &Match{Pattern: p, Template: ct.source, Params: params}, true
	}
	return nil, false
}

func convert(typ, raw string) (any, error) {
	switch typ {
	case TypeInt:
		return strconv.ParseInt(raw, 10, 64)
	case TypeFloat:
		return strconv.ParseFloat(raw, 64)
	default:
		return raw, nil
	}
}

// ParamTypes lists the placeholder types of the primary template in order.
func (p *Pattern) ParamTypes() []string {
	if len(p.compiled) == 0 {
		return nil
	}
	return p.compiled[0].types
}
