package assertions

import "sync"

// Checker evaluates assertions and, in soft mode, collects failures
// instead of leaving the reaction to the caller. Assertions never panic;
// every method returns whether the check passed.
type Checker struct {
	mu       sync.Mutex
	soft     bool
	failures []Result
	last     Result
}

// New returns a Checker in normal (non-soft) mode.
func New() *Checker {
	return &Checker{}
}

// SoftAssert toggles soft mode.
func (c *Checker) SoftAssert(enabled bool) *Checker {
	c.mu.Lock()
	c.soft = enabled
	c.mu.Unlock()
	return c
}

// Failures returns a copy of the failures collected in soft mode.
func (c *Checker) Failures() []Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Result, len(c.failures))
	copy(out, c.failures)
	return out
}

// ClearFailures drops collected failures.
func (c *Checker) ClearFailures() {
	c.mu.Lock()
	c.failures = nil
	c.mu.Unlock()
}

// Last returns the most recent result.
func (c *Checker) Last() Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last
}

// record is the single result-handling path for every assertion.
func (c *Checker) record(r Result, msg []string) bool {
	if len(msg) > 0 && msg[0] != "" {
		r.Message = msg[0]
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.last = r
	if !r.Passed && c.soft {
		c.failures = append(c.failures, r)
	}
	return r.Passed
}

// Equals checks deep equality of actual and expected.
func (c *Checker) Equals(actual, expected any, msg ...string) bool {
	return c.record(EvalEquals(actual, expected), msg)
}

// NotEquals checks that actual and expected differ.
func (c *Checker) NotEquals(actual, expected any, msg ...string) bool {
	return c.record(EvalNotEquals(actual, expected), msg)
}

// IsTrue checks that value is truthy.
func (c *Checker) IsTrue(value any, msg ...string) bool {
	return c.record(EvalIsTrue(value), msg)
}

// IsFalse checks that value is falsy.
func (c *Checker) IsFalse(value any, msg ...string) bool {
	return c.record(EvalIsFalse(value), msg)
}

// IsNil checks that value is nil.
func (c *Checker) IsNil(value any, msg ...string) bool {
	return c.record(EvalIsNil(value), msg)
}

// IsNotNil checks that value is not nil.
func (c *Checker) IsNotNil(value any, msg ...string) bool {
	return c.record(EvalIsNotNil(value), msg)
}

// Contains checks that haystack contains needle, case-sensitively.
func (c *Checker) Contains(haystack, needle string, msg ...string) bool {
	return c.record(EvalContains(haystack, needle), msg)
}

// NotContains checks that haystack does not contain needle.
func (c *Checker) NotContains(haystack, needle string, msg ...string) bool {
	return c.record(EvalNotContains(haystack, needle), msg)
}

// StartsWith checks that s begins with prefix.
func (c *Checker) StartsWith(s, prefix string, msg ...string) bool {
	return c.record(EvalStartsWith(s, prefix), msg)
}

// EndsWith checks that s ends with suffix.
func (c *Checker) EndsWith(s, suffix string, msg ...string) bool {
	return c.record(EvalEndsWith(s, suffix), msg)
}

// MatchesRegex searches s for pattern.
func (c *Checker) MatchesRegex(s, pattern string, msg ...string) bool {
	return c.record(EvalMatchesRegex(s, pattern), msg)
}

// IsEmpty checks that s is empty.
func (c *Checker) IsEmpty(s string, msg ...string) bool {
	return c.record(EvalIsEmpty(s), msg)
}

// IsNotEmpty checks that s is not empty.
func (c *Checker) IsNotEmpty(s string, msg ...string) bool {
	return c.record(EvalIsNotEmpty(s), msg)
}

// GreaterThan checks actual > expected.
func (c *Checker) GreaterThan(actual, expected float64, msg ...string) bool {
	return c.record(EvalGreaterThan(actual, expected), msg)
}

// GreaterThanOrEqual checks actual >= expected.
func (c *Checker) GreaterThanOrEqual(actual, expected float64, msg ...string) bool {
	return c.record(EvalGreaterThanOrEqual(actual, expected), msg)
}

// LessThan checks actual < expected.
func (c *Checker) LessThan(actual, expected float64, msg ...string) bool {
	return c.record(EvalLessThan(actual, expected), msg)
}

// LessThanOrEqual checks actual <= expected.
func (c *Checker) LessThanOrEqual(actual, expected float64, msg ...string) bool {
	return c.record(EvalLessThanOrEqual(actual, expected), msg)
}

// Between checks lo <= actual <= hi.
func (c *Checker) Between(actual, lo, hi float64, msg ...string) bool {
	return c.record(EvalBetween(actual, lo, hi), msg)
}

// HasLength checks that collection has n elements.
func (c *Checker) HasLength(collection any, n int, msg ...string) bool {
	return c.record(EvalHasLength(collection, n), msg)
}

// ContainsItem checks that collection holds item.
func (c *Checker) ContainsItem(collection, item any, msg ...string) bool {
	return c.record(EvalContainsItem(collection, item), msg)
}

// AllMatch checks that pred holds for every element of collection.
func (c *Checker) AllMatch(collection any, pred func(any) bool, msg ...string) bool {
	return c.record(EvalAllMatch(collection, pred), msg)
}

// AnyMatch checks that pred holds for at least one element of collection.
func (c *Checker) AnyMatch(collection any, pred func(any) bool, msg ...string) bool {
	return c.record(EvalAnyMatch(collection, pred), msg)
}

// IsType checks that value has the dynamic type of sample.
func (c *Checker) IsType(value, sample any, msg ...string) bool {
	return c.record(EvalIsType(value, sample), msg)
}

// IsValidURL checks that u is an absolute http(s) URL.
func (c *Checker) IsValidURL(u string, msg ...string) bool {
	return c.record(EvalIsValidURL(u), msg)
}

// URLContainsPath checks that u contains path.
func (c *Checker) URLContainsPath(u, path string, msg ...string) bool {
	return c.record(EvalURLContainsPath(u, path), msg)
}

// HTMLContainsTag checks for an opening <tag> in html.
func (c *Checker) HTMLContainsTag(html, tag string, msg ...string) bool {
	return c.record(EvalHTMLContainsTag(html, tag), msg)
}

// HTMLContainsText checks for text in html with the markup stripped.
func (c *Checker) HTMLContainsText(html, text string, msg ...string) bool {
	return c.record(EvalHTMLContainsText(html, text), msg)
}

// HasAttribute checks for <tag attribute> or, with a non-empty value,
// <tag attribute=value>.
func (c *Checker) HasAttribute(html, tag, attribute, value string, msg ...string) bool {
	return c.record(EvalHasAttribute(html, tag, attribute, value), msg)
}
