package gherkin

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const loginFeature = `Feature: Login
  Checks the login form end to end.

  @smoke @auth
  Scenario: Valid login
    Given I navigate to "https://example.com/login"
    When I type "admin" into "#user"
    And I type "hunter2" into "#pass"
    And I click on "button.submit"
    Then I should see "Welcome"

  Scenario: Empty password
    Given I navigate to "https://example.com/login"
    When I click on "button.submit"
    Then I should see "Password required"
`

func TestParseFeature(t *testing.T) {
	feat, err := Parse("login.feature", []byte(loginFeature))
	require.NoError(t, err)

	assert.Equal(t, "Login", feat.Name)
	assert.Equal(t, "Checks the login form end to end.", feat.Description)
	require.Len(t, feat.Scenarios, 2)

	first := feat.Scenarios[0]
	assert.Equal(t, "Valid login", first.Name)
	assert.Equal(t, []string{"smoke", "auth"}, first.Tags)
	require.Len(t, first.Steps, 5)
	assert.Equal(t, "Given", first.Steps[0].Keyword)
	assert.Equal(t, `I navigate to "https://example.com/login"`, first.Steps[0].Text)
	assert.Equal(t, "And", first.Steps[2].Keyword)
	assert.Equal(t, 6, first.Steps[0].Line)

	second := feat.Scenarios[1]
	assert.Empty(t, second.Tags)
	require.Len(t, second.Steps, 3)
}

func TestParseDataTable(t *testing.T) {
	src := `Feature: Tables
  Scenario: With table
    Given I navigate to "https://example.com"
    When I fill the form:
      | field | value |
      | user  | admin |
`
	feat, err := Parse("t.feature", []byte(src))
	require.NoError(t, err)

	step := feat.Scenarios[0].Steps[1]
	require.Len(t, step.Table, 2)
	assert.Equal(t, []string{"field", "value"}, step.Table[0])
	assert.Equal(t, []string{"user", "admin"}, step.Table[1])
}

func TestParseDocString(t *testing.T) {
	src := `Feature: Scripts
  Scenario: With script
    When I execute script:
      """
      document.title = 'x';
      return 1;
      """
    Then I should see "x"
`
	feat, err := Parse("s.feature", []byte(src))
	require.NoError(t, err)

	step := feat.Scenarios[0].Steps[0]
	assert.Equal(t, "document.title = 'x';\nreturn 1;", step.DocString)
	require.Len(t, feat.Scenarios[0].Steps, 2)
}

func TestParseMissingFeatureHeader(t *testing.T) {
	src := `Scenario: Orphan
    Given I navigate to "https://example.com"
`
	_, err := Parse("bad.feature", []byte(src))
	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	assert.Contains(t, perr.Reason, "Feature")
}

func TestParseOrphanAnd(t *testing.T) {
	src := `Feature: Bad
  Scenario: Starts with And
    And I click on "#go"
`
	_, err := Parse("bad.feature", []byte(src))
	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, 3, perr.Line)
	assert.Contains(t, perr.Reason, "inherit")
}

func TestParseInconsistentTable(t *testing.T) {
	src := `Feature: Bad table
  Scenario: Uneven
    When I fill the form:
      | a | b |
      | just-one |
`
	_, err := Parse("bad.feature", []byte(src))
	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, 5, perr.Line)
	assert.Contains(t, perr.Reason, "columns")
}

func TestParseUnrecognizedLineInScenario(t *testing.T) {
	src := `Feature: Bad
  Scenario: Stray prose
    Given I navigate to "https://example.com"
    this is not a step
`
	_, err := Parse("bad.feature", []byte(src))
	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, 4, perr.Line)
}

func TestParseCommentsAndBlanksIgnored(t *testing.T) {
	src := `# header comment
Feature: Comments

  # scenario comment
  Scenario: One
    Given I navigate to "https://example.com"
`
	feat, err := Parse("c.feature", []byte(src))
	require.NoError(t, err)
	require.Len(t, feat.Scenarios, 1)
	require.Len(t, feat.Scenarios[0].Steps, 1)
}
