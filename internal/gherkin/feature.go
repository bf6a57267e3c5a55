// Package gherkin holds the scenario document model and its line-oriented parser.
package gherkin

import "fmt"

// Feature is a parsed scenario file: a named document with an optional
// free-text description and an ordered list of scenarios. Immutable once
// parsed.
type Feature struct {
	Name        string
	Description string
	File        string
	Scenarios   []Scenario
}

// Scenario is one test case: an ordered sequence of steps plus optional tags.
type Scenario struct {
	Name  string
	Tags  []string
	Steps []Step
	Line  int
}

// Step is a single Given/When/Then line of prose. And/But keywords are kept
// as written; keyword inheritance is resolved at execution time.
type Step struct {
	Keyword   string
	Text      string
	Line      int
	Table     [][]string
	DocString string
}

// Primary reports whether the keyword opens a new semantic group
// (Given/When/Then as opposed to And/But).
func Primary(keyword string) bool {
	switch keyword {
	case "Given", "When", "Then":
		return true
	}
	return false
}

// ParseError describes why a scenario file could not be parsed. It is fatal
// to that file only.
type ParseError struct {
	Line   int
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at line %d: %s", e.Line, e.Reason)
}
