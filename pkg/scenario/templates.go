package scenario

import (
	"fmt"
	"sort"
)

// Viewport names a screen size for ResponsiveTest.
type Viewport struct {
	Name   string `json:"name"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// DefaultViewports are the sizes covered by ResponsiveTest when none are given.
var DefaultViewports = []Viewport{
	{Name: "mobile", Width: 375, Height: 667},
	{Name: "tablet", Width: 768, Height: 1024},
	{Name: "desktop", Width: 1920, Height: 1080},
}

func critical(s Step) Step {
	s.Critical = true
	return s
}

func waitStep(name string, ms int) Step {
	s := NewStep(name, ActionWait, "")
	s.Timeout = ms
	return s
}

func typeStep(name, selector, value string) Step {
	s := NewStep(name, ActionType, selector)
	s.Value = value
	return s
}

// LoginConfig parameterizes LoginTest.
type LoginConfig struct {
	URL              string
	UsernameSelector string
	PasswordSelector string
	SubmitSelector   string
	Username         string
	Password         string
	SuccessIndicator string
}

// LoginTest fills and submits a login form, then checks for a success marker.
func LoginTest(c LoginConfig) Scenario {
	sc := NewScenario("Login Test", fmt.Sprintf("Test login functionality at %s", c.URL))
	sc.Tags = []string{"login", "auth", "smoke"}
	sc.Steps = []Step{
		critical(NewStep("Navigate to Login", ActionNavigate, c.URL)),
		typeStep("Enter Username", c.UsernameSelector, c.Username),
		typeStep("Enter Password", c.PasswordSelector, c.Password),
		NewStep("Screenshot Before Submit", ActionScreenshot, "login_form"),
		critical(NewStep("Submit Login", ActionClick, c.SubmitSelector)),
		waitStep("Wait for Response", 3000),
		NewStep("Verify Login Success", ActionAssertText, c.SuccessIndicator),
		NewStep("Screenshot After Login", ActionScreenshot, "login_success"),
	}
	return *sc
}

// PageLoadTest navigates to url and checks each expected element exists.
func PageLoadTest(url string, expectedElements []string) Scenario {
	sc := NewScenario("Page Load: "+url, fmt.Sprintf("Verify %s loads correctly", url))
	sc.Tags = []string{"smoke", "load"}
	sc.Steps = []Step{
		critical(NewStep("Navigate", ActionNavigate, url)),
		waitStep("Wait for Load", 2000),
		NewStep("Screenshot", ActionScreenshot, "page_load"),
	}
	for i, el := range expectedElements {
		sc.AddStep(NewStep(fmt.Sprintf("Verify Element %d", i+1), ActionAssertElement, el))
	}
	return *sc
}

// FormValidationTest submits an empty form and checks the error markers appear.
func FormValidationTest(url, submitSelector string, errorSelectors []string) Scenario {
	sc := NewScenario("Form Validation Test", "Test form validation rules")
	sc.Tags = []string{"form", "validation"}
	sc.Steps = []Step{
		critical(NewStep("Navigate", ActionNavigate, url)),
		NewStep("Submit Empty Form", ActionClick, submitSelector),
		waitStep("Wait", 1000),
	}
	for _, sel := range errorSelectors {
		sc.AddStep(NewStep("Check Error: "+sel, ActionAssertElement, sel))
	}
	sc.AddStep(NewStep("Screenshot Validation Errors", ActionScreenshot, "validation_errors"))
	return *sc
}

// ResponsiveTest captures one screenshot per viewport.
func ResponsiveTest(url string, viewports []Viewport) Scenario {
	if len(viewports) == 0 {
		viewports = DefaultViewports
	}
	sc := NewScenario("Responsive Design Test", fmt.Sprintf("Test responsive layout at %s", url))
	sc.Tags = []string{"responsive", "ui"}
	sc.Steps = []Step{critical(NewStep("Navigate", ActionNavigate, url))}
	for _, vp := range viewports {
		sc.AddStep(NewStep("Screenshot "+vp.Name, ActionScreenshot, "responsive_"+vp.Name))
	}
	return *sc
}

// AccessibilityCheck runs basic markup checks for accessibility hints.
func AccessibilityCheck(url string) Scenario {
	sc := NewScenario("Accessibility Check", fmt.Sprintf("Basic accessibility checks for %s", url))
	sc.Tags = []string{"accessibility", "a11y"}
	sc.Steps = []Step{
		critical(NewStep("Navigate", ActionNavigate, url)),
		NewStep("Check for Images with Alt", ActionAssertElement, "img[alt]"),
		NewStep("Check for Form Labels", ActionAssertElement, "label"),
		NewStep("Check for Headings", ActionAssertElement, "h1"),
		NewStep("Screenshot", ActionScreenshot, "accessibility"),
	}
	return *sc
}

// QuickTest is the scenario behind `zarah test <url>`.
func QuickTest(url, expectedText string, screenshot bool) Scenario {
	sc := NewScenario("Quick Test", fmt.Sprintf("Quick test of %s", url))
	sc.AddStep(critical(NewStep("Navigate to URL", ActionNavigate, url)))
	sc.AddStep(waitStep("Wait for page load", 2000))
	if expectedText != "" {
		sc.AddStep(NewStep("Verify text: "+expectedText, ActionAssertText, expectedText))
	}
	if screenshot {
		sc.AddStep(NewStep("Capture screenshot", ActionScreenshot, "quick_test"))
	}
	sc.AddStep(NewStep("Close browser", ActionNavigate, "about:blank"))
	sc.AddTeardown(waitStep("Cleanup", 500))
	return *sc
}

// PageLoads verifies url loads and optionally contains expectedText.
func PageLoads(url, expectedText string) Scenario {
	sc := NewScenario("Page Load Test: "+url, fmt.Sprintf("Verify that %s loads correctly", url))
	sc.AddStep(critical(NewStep("Navigate", ActionNavigate, url)))
	sc.AddStep(NewStep("Screenshot", ActionScreenshot, "page_load"))
	if expectedText != "" {
		sc.AddStep(NewStep("Verify Text", ActionAssertText, expectedText))
	}
	return *sc
}

// FormConfig parameterizes FormSubmission; it is also the `zarah form
// --config` file format.
type FormConfig struct {
	URL              string            `json:"url"`
	FormData         map[string]string `json:"form_data"`
	SubmitSelector   string            `json:"submit_selector"`
	SuccessIndicator string            `json:"success_indicator"`
}

// Form defaults used when a config leaves fields empty.
const (
	DefaultSubmitSelector   = "button[type=submit]"
	DefaultSuccessIndicator = "success"
)

// FormSubmission fills each field, submits, and checks for a success marker.
// Fields are filled in selector order so runs are reproducible.
func FormSubmission(c FormConfig) Scenario {
	if c.SubmitSelector == "" {
		c.SubmitSelector = DefaultSubmitSelector
	}
	if c.SuccessIndicator == "" {
		c.SuccessIndicator = DefaultSuccessIndicator
	}

	sc := NewScenario("Form Submission Test: "+c.URL, "Test form submission workflow")
	sc.AddStep(critical(NewStep("Navigate", ActionNavigate, c.URL)))

	selectors := make([]string, 0, len(c.FormData))
	for sel := range c.FormData {
		selectors = append(selectors, sel)
	}
	sort.Strings(selectors)
	for _, sel := range selectors {
		sc.AddStep(typeStep("Fill "+sel, sel, c.FormData[sel]))
	}

	sc.AddStep(NewStep("Screenshot Before Submit", ActionScreenshot, "before_submit"))
	sc.AddStep(critical(NewStep("Submit Form", ActionClick, c.SubmitSelector)))
	sc.AddStep(waitStep("Wait for Response", 2000))
	sc.AddStep(NewStep("Screenshot After Submit", ActionScreenshot, "after_submit"))
	sc.AddStep(NewStep("Verify Success", ActionAssertText, c.SuccessIndicator))
	return *sc
}

// DemoSuite is the suite behind `zarah demo`.
func DemoSuite() *Suite {
	example := NewScenario("Example.com Load Test", "Verify example.com loads correctly")
	example.Tags = []string{"demo", "smoke"}
	example.Steps = []Step{
		critical(NewStep("Navigate", ActionNavigate, "https://example.com")),
		NewStep("Verify Title", ActionAssertTitle, "Example"),
		NewStep("Verify Content", ActionAssertText, "Example Domain"),
		NewStep("Screenshot", ActionScreenshot, "example_com"),
	}

	httpbin := NewScenario("HTTPBin Test", "Test HTTPBin service")
	httpbin.Tags = []string{"demo", "api"}
	httpbin.Steps = []Step{
		critical(NewStep("Navigate to HTTPBin", ActionNavigate, "https://httpbin.org")),
		NewStep("Verify Page", ActionAssertText, "httpbin"),
		NewStep("Screenshot", ActionScreenshot, "httpbin"),
	}

	nav := NewScenario("Multi-Page Navigation", "Test navigation between multiple pages")
	nav.Tags = []string{"demo", "navigation"}
	nav.Steps = []Step{
		NewStep("Go to Example.com", ActionNavigate, "https://example.com"),
		NewStep("Screenshot Page 1", ActionScreenshot, "nav_1"),
		NewStep("Go to HTTPBin", ActionNavigate, "https://httpbin.org"),
		NewStep("Screenshot Page 2", ActionScreenshot, "nav_2"),
		NewStep("Verify HTTPBin", ActionAssertText, "HTTP"),
	}

	return &Suite{
		Name:        "Zarah Demo Suite",
		Description: "Demonstration of Zarah QA Agent capabilities",
		Scenarios:   []Scenario{*example, *httpbin, *nav},
	}
}
