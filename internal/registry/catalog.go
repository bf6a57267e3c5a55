package registry

// Category names in trial order. Verification patterns come last so that
// action phrasings ("I click ...") are never shadowed by assertion phrasings.
const (
	CategoryNavigation   = "navigation"
	CategoryWaiting      = "waiting"
	CategoryInteraction  = "interaction"
	CategoryExtraction   = "extraction"
	CategoryVerification = "verification"
	CategoryUtility      = "utility"
)

// Default builds the built-in step catalog. Pattern ids are stable; new
// phrasings are added as aliases, never by renaming an id.
func Default() *Registry {
	r := New()

	// navigation
	r.MustRegister(Pattern{
		ID:          "navigate_to",
		Category:    CategoryNavigation,
		Template:    "I navigate to {string}",
		Aliases:     []string{"I go to {string}", "I open {string}", "I visit {string}"},
		Description: "Navigate the browser to a URL",
		Examples:    []string{`I navigate to "https://example.com"`},
	})
	r.MustRegister(Pattern{
		ID:          "go_back",
		Category:    CategoryNavigation,
		Template:    "I go back",
		Aliases:     []string{"I navigate back"},
		Description: "Go back one entry in browser history",
	})
	r.MustRegister(Pattern{
		ID:          "go_forward",
		Category:    CategoryNavigation,
		Template:    "I go forward",
		Aliases:     []string{"I navigate forward"},
		Description: "Go forward one entry in browser history",
	})
	r.MustRegister(Pattern{
		ID:          "refresh_page",
		Category:    CategoryNavigation,
		Template:    "I refresh the page",
		Aliases:     []string{"I reload the page"},
		Description: "Reload the current page",
	})

	// waiting
	r.MustRegister(Pattern{
		ID:          "wait_for_load",
		Category:    CategoryWaiting,
		Template:    "I wait for the page to load",
		Aliases:     []string{"the page loads"},
		Description: "Wait until the document is fully loaded",
	})
	r.MustRegister(Pattern{
		ID:          "wait_seconds",
		Category:    CategoryWaiting,
		Template:    "I wait {int} seconds",
		Aliases:     []string{"I wait for {int} seconds", "I pause for {int} seconds"},
		Description: "Sleep for a fixed number of seconds",
		Examples:    []string{"I wait 2 seconds"},
	})
	r.MustRegister(Pattern{
		ID:          "wait_millis",
		Category:    CategoryWaiting,
		Template:    "I wait {int} milliseconds",
		Aliases:     []string{"I wait for {int} milliseconds"},
		Description: "Sleep for a fixed number of milliseconds",
	})
	r.MustRegister(Pattern{
		ID:          "wait_visible",
		Category:    CategoryWaiting,
		Template:    "I wait for element {string} to be visible",
		Aliases:     []string{"I wait for {string} to be visible", "I wait until {string} is visible", "I wait for {string} to appear"},
		Description: "Wait until an element matching the selector is visible",
		Examples:    []string{`I wait for element "#results" to be visible`},
	})
	r.MustRegister(Pattern{
		ID:          "wait_hidden",
		Category:    CategoryWaiting,
		Template:    "I wait for element {string} to be hidden",
		Aliases:     []string{"I wait for {string} to disappear"},
		Description: "Wait until an element is hidden or removed",
	})
	r.MustRegister(Pattern{
		ID:          "wait_for_text",
		Category:    CategoryWaiting,
		Template:    "I wait for text {string} to appear",
		Description: "Wait until the given text is present on the page",
	})

	// interaction
	r.MustRegister(Pattern{
		ID:          "click_on",
		Category:    CategoryInteraction,
		Template:    "I click on {string}",
		Aliases:     []string{"I click {string}", "I press {string}"},
		Description: "Click the first element matching the selector",
		Examples:    []string{`I click on "button.submit"`},
	})
	r.MustRegister(Pattern{
		ID:          "click_link",
		Category:    CategoryInteraction,
		Template:    "I click the link {string}",
		Aliases:     []string{"I follow the link {string}"},
		Description: "Click the link with the given visible text",
	})
	r.MustRegister(Pattern{
		ID:          "type_into",
		Category:    CategoryInteraction,
		Template:    "I type {string} into {string}",
		Aliases:     []string{"I enter {string} into {string}", "I fill {string} into {string}"},
		Description: "Type text into the element matching the selector",
		Examples:    []string{`I type "admin" into "#username"`},
	})
	r.MustRegister(Pattern{
		ID:          "clear_field",
		Category:    CategoryInteraction,
		Template:    "I clear the field {string}",
		Description: "Clear the value of an input element",
	})
	r.MustRegister(Pattern{
		ID:          "select_option",
		Category:    CategoryInteraction,
		Template:    "I select {string} from {string}",
		Description: "Select an option by visible text from a select element",
	})
	r.MustRegister(Pattern{
		ID:       "check_box",
		Category: CategoryInteraction,
		Template: "I check {string}",
	})
	r.MustRegister(Pattern{
		ID:       "uncheck_box",
		Category: CategoryInteraction,
		Template: "I uncheck {string}",
	})
	r.MustRegister(Pattern{
		ID:          "hover_over",
		Category:    CategoryInteraction,
		Template:    "I hover over {string}",
		Description: "Move the pointer over an element",
	})
	r.MustRegister(Pattern{
		ID:          "scroll_to",
		Category:    CategoryInteraction,
		Template:    "I scroll to {string}",
		Aliases:     []string{"I scroll to element {string}"},
		Description: "Scroll the element into view",
	})
	r.MustRegister(Pattern{
		ID:          "submit_form",
		Category:    CategoryInteraction,
		Template:    "I submit the form {string}",
		Description: "Submit the form matching the selector",
	})

	// extraction
	r.MustRegister(Pattern{
		ID:          "extract_text",
		Category:    CategoryExtraction,
		Template:    "I extract the text of {string}",
		Aliases:     []string{"I get the text of {string}"},
		Description: "Capture the text content of an element as step output",
		Examples:    []string{`I extract the text of "h1.title"`},
	})
	r.MustRegister(Pattern{
		ID:          "extract_title",
		Category:    CategoryExtraction,
		Template:    "I extract the page title",
		Description: "Capture the document title as step output",
	})
	r.MustRegister(Pattern{
		ID:          "extract_url",
		Category:    CategoryExtraction,
		Template:    "I extract the current URL",
		Description: "Capture the current location as step output",
	})
	r.MustRegister(Pattern{
		ID:          "store_text",
		Category:    CategoryExtraction,
		Template:    "I store the text of {string} as {word}",
		Description: "Capture element text under a name for later steps",
		Examples:    []string{`I store the text of "#price" as price`},
	})
	r.MustRegister(Pattern{
		ID:          "count_elements",
		Category:    CategoryExtraction,
		Template:    "I count the elements matching {string}",
		Description: "Capture the number of elements matching the selector",
	})

	// verification
	r.MustRegister(Pattern{
		ID:          "should_see",
		Category:    CategoryVerification,
		Template:    "I should see {string}",
		Aliases:     []string{"the page should contain {string}"},
		Description: "Assert the page contains the given text",
		Examples:    []string{`I should see "Welcome"`},
	})
	r.MustRegister(Pattern{
		ID:          "should_not_see",
		Category:    CategoryVerification,
		Template:    "I should not see {string}",
		Aliases:     []string{"the page should not contain {string}"},
		Description: "Assert the page does not contain the given text",
	})
	r.MustRegister(Pattern{
		ID:          "element_exists",
		Category:    CategoryVerification,
		Template:    "the element {string} should exist",
		Aliases:     []string{"I should see the element {string}"},
		Description: "Assert at least one element matches the selector",
	})
	r.MustRegister(Pattern{
		ID:       "element_not_exists",
		Category: CategoryVerification,
		Template: "the element {string} should not exist",
	})
	r.MustRegister(Pattern{
		ID:          "element_text_is",
		Category:    CategoryVerification,
		Template:    "the text of {string} should be {string}",
		Description: "Assert an element's exact text content",
	})
	r.MustRegister(Pattern{
		ID:          "element_text_contains",
		Category:    CategoryVerification,
		Template:    "the text of {string} should contain {string}",
		Description: "Assert an element's text contains a substring",
	})
	r.MustRegister(Pattern{
		ID:          "attribute_is",
		Category:    CategoryVerification,
		Template:    "the {string} attribute of {string} should be {string}",
		Aliases:     []string{"the element {string} should have {string} attribute set to {string}"},
		Description: "Assert an element attribute value",
	})
	r.MustRegister(Pattern{
		ID:          "title_is",
		Category:    CategoryVerification,
		Template:    "the page title should be {string}",
		Description: "Assert the exact document title",
	})
	r.MustRegister(Pattern{
		ID:       "title_contains",
		Category: CategoryVerification,
		Template: "the page title should contain {string}",
	})
	r.MustRegister(Pattern{
		ID:          "url_is",
		Category:    CategoryVerification,
		Template:    "the URL should be {string}",
		Description: "Assert the exact current URL",
	})
	r.MustRegister(Pattern{
		ID:       "url_contains",
		Category: CategoryVerification,
		Template: "the URL should contain {string}",
	})
	r.MustRegister(Pattern{
		ID:          "element_count_is",
		Category:    CategoryVerification,
		Template:    "I should see {int} elements matching {string}",
		Description: "Assert the number of elements matching the selector",
		Examples:    []string{`I should see 30 elements matching "tr.athing"`},
	})
	r.MustRegister(Pattern{
		ID:          "stored_value_is",
		Category:    CategoryVerification,
		Template:    "the stored value {word} should be {string}",
		Description: "Assert a value captured earlier with a store step",
	})

	// utility
	r.MustRegister(Pattern{
		ID:          "take_screenshot",
		Category:    CategoryUtility,
		Template:    "I take a screenshot {string}",
		Aliases:     []string{"I save a screenshot to {string}"},
		Description: "Write a screenshot of the current page to a file",
		Examples:    []string{`I take a screenshot "after-login.png"`},
	})
	r.MustRegister(Pattern{
		ID:          "execute_script",
		Category:    CategoryUtility,
		Template:    "I execute script {string}",
		Description: "Evaluate a JavaScript expression in the page",
	})
	r.MustRegister(Pattern{
		ID:          "execute_script_block",
		Category:    CategoryUtility,
		Template:    "I execute script:",
		Description: "Evaluate the attached doc string as JavaScript",
	})

	return r
}
