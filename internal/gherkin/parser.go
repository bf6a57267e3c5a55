package gherkin

import (
	"fmt"
	"os"
	"strings"
)

var keywords = []string{"Given", "When", "Then", "And", "But"}

// Parse turns scenario-file text into a Feature tree. It performs no step
// matching; a file can parse cleanly and still contain steps no pattern
// recognizes.
func Parse(file string, src []byte) (*Feature, error) {
	lines := strings.Split(string(src), "\n")

	feat := &Feature{File: file}
	var (
		current     *Scenario
		lastStep    *Step
		pendingTags []string
		sawPrimary  bool
		inDocString bool
		docDelim    string
		docLines    []string
		descLines   []string
	)

	flushDoc := func() {
		if lastStep != nil {
			lastStep.DocString = strings.Join(docLines, "\n")
		}
		docLines = nil
		inDocString = false
	}

	for i, raw := range lines {
		lineNo := i + 1
		trimmed := strings.TrimSpace(raw)

		if inDocString {
			if trimmed == docDelim {
				flushDoc()
				continue
			}
			docLines = append(docLines, trimmed)
			continue
		}

		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}

		if trimmed == `"""` || trimmed == "```" {
			if lastStep == nil {
				return nil, &ParseError{Line: lineNo, Reason: "doc string without a preceding step"}
			}
			inDocString = true
			docDelim = trimmed
			continue
		}

		if strings.HasPrefix(trimmed, "@") {
			for _, tag := range strings.Fields(trimmed) {
				pendingTags = append(pendingTags, strings.TrimPrefix(tag, "@"))
			}
			continue
		}

		if name, ok := header(trimmed, "Feature:"); ok {
			if feat.Name != "" {
				return nil, &ParseError{Line: lineNo, Reason: "duplicate Feature header"}
			}
			feat.Name = name
			continue
		}

		if name, ok := header(trimmed, "Scenario:"); ok {
			if feat.Name == "" {
				return nil, &ParseError{Line: lineNo, Reason: "Scenario before Feature header"}
			}
			feat.Scenarios = append(feat.Scenarios, Scenario{
				Name: name,
				Tags: pendingTags,
				Line: lineNo,
			})
			current = &feat.Scenarios[len(feat.Scenarios)-1]
			pendingTags = nil
			lastStep = nil
			sawPrimary = false
			continue
		}

		if kw, text, ok := stepLine(trimmed); ok {
			if current == nil {
				return nil, &ParseError{Line: lineNo, Reason: "step outside of a scenario"}
			}
			if !Primary(kw) && !sawPrimary {
				return nil, &ParseError{Line: lineNo,
					Reason: fmt.Sprintf("%s step has no preceding Given/When/Then to inherit from", kw)}
			}
			if Primary(kw) {
				sawPrimary = true
			}
			current.Steps = append(current.Steps, Step{Keyword: kw, Text: text, Line: lineNo})
			lastStep = &current.Steps[len(current.Steps)-1]
			continue
		}

		if strings.HasPrefix(trimmed, "|") {
			if lastStep == nil {
				return nil, &ParseError{Line: lineNo, Reason: "data table without a preceding step"}
			}
			row := tableRow(trimmed)
			if len(lastStep.Table) > 0 && len(row) != len(lastStep.Table[0]) {
				return nil, &ParseError{Line: lineNo,
					Reason: fmt.Sprintf("table row has %d columns, expected %d", len(row), len(lastStep.Table[0]))}
			}
			lastStep.Table = append(lastStep.Table, row)
			continue
		}

		// Free text is description before the first scenario, an error after.
		if current == nil && feat.Name != "" {
			descLines = append(descLines, trimmed)
			continue
		}
		return nil, &ParseError{Line: lineNo, Reason: fmt.Sprintf("unrecognized line %q", trimmed)}
	}

	if inDocString {
		return nil, &ParseError{Line: len(lines), Reason: "unterminated doc string"}
	}
	if feat.Name == "" {
		return nil, &ParseError{Line: 1, Reason: "missing Feature header"}
	}
	feat.Description = strings.Join(descLines, "\n")
	return feat, nil
}

// ParseFile reads and parses a scenario file from disk.
func ParseFile(path string) (*Feature, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading feature file %s: %w", path, err)
	}
	return Parse(path, data)
}

func header(line, prefix string) (string, bool) {
	if !strings.HasPrefix(line, prefix) {
		return "", false
	}
	return strings.TrimSpace(strings.TrimPrefix(line, prefix)), true
}

func stepLine(line string) (keyword, text string, ok bool) {
	for _, kw := range keywords {
		if strings.HasPrefix(line, kw+" ") {
			return kw, strings.TrimSpace(line[len(kw)+1:]), true
		}
	}
	return "", "", false
}

func tableRow(line string) []string {
	line = strings.Trim(line, "|")
	parts := strings.Split(line, "|")
	cells := make([]string, len(parts))
	for i, p := range parts {
		cells[i] = strings.TrimSpace(p)
	}
	return cells
}
