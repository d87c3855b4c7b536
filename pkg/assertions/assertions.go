// Package assertions implements stateless predicate checks over strings,
// numbers, collections and HTML, plus a Checker that adds soft mode.
package assertions

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Result is the outcome of a single assertion.
type Result struct {
	Type     string `json:"assertion_type"`
	Expected string `json:"expected"`
	Actual   string `json:"actual"`
	Passed   bool   `json:"passed"`
	Message  string `json:"message"`
}

const maxShown = 100

func result(typ string, passed bool, expected, actual any, msg string) Result {
	return Result{
		Type:     typ,
		Expected: truncate(show(expected), maxShown),
		Actual:   truncate(show(actual), maxShown),
		Passed:   passed,
		Message:  truncate(msg, maxShown),
	}
}

func show(v any) string {
	if v == nil {
		return "<nil>"
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

// --- equality ---

// EvalEquals checks deep equality of actual and expected.
func EvalEquals(actual, expected any) Result {
	return result("equals", reflect.DeepEqual(actual, expected), expected, actual,
		fmt.Sprintf("Expected %v, got %v", show(expected), show(actual)))
}

// EvalNotEquals checks that actual and expected differ.
func EvalNotEquals(actual, expected any) Result {
	return result("not_equals", !reflect.DeepEqual(actual, expected), "not "+show(expected), actual,
		fmt.Sprintf("Expected not %v, got %v", show(expected), show(actual)))
}

// --- truthiness ---

// Truthy reports whether v is truthy: nil, false, zero numbers, empty
// strings and empty slices, maps, arrays or channels are falsy. Non-nil
// pointers are truthy.
func Truthy(v any) bool {
	if v == nil {
		return false
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Bool:
		return rv.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int() != 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return rv.Uint() != 0
	case reflect.Float32, reflect.Float64:
		return rv.Float() != 0
	case reflect.String, reflect.Slice, reflect.Map, reflect.Array, reflect.Chan:
		return rv.Len() > 0
	case reflect.Pointer, reflect.Interface, reflect.Func:
		return !rv.IsNil()
	default:
		return true
	}
}

// EvalIsTrue checks that value is truthy.
func EvalIsTrue(value any) Result {
	return result("is_true", Truthy(value), true, value,
		fmt.Sprintf("Expected truthy value, got %v", show(value)))
}

// EvalIsFalse checks that value is falsy.
func EvalIsFalse(value any) Result {
	return result("is_false", !Truthy(value), false, value,
		fmt.Sprintf("Expected falsy value, got %v", show(value)))
}

// isNil treats typed nil pointers, maps, slices and the like as nil.
func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}

// EvalIsNil checks that value is nil.
func EvalIsNil(value any) Result {
	return result("is_none", isNil(value), nil, value,
		fmt.Sprintf("Expected nil, got %v", show(value)))
}

// EvalIsNotNil checks that value is not nil.
func EvalIsNotNil(value any) Result {
	return result("is_not_none", !isNil(value), "not nil", value, "Expected not nil, got nil")
}

// --- strings ---

// EvalContains checks that haystack contains needle (case-sensitive).
func EvalContains(haystack, needle string) Result {
	return result("contains", strings.Contains(haystack, needle), fmt.Sprintf("contains '%s'", needle), haystack,
		fmt.Sprintf("Expected '%s' to be in string", needle))
}

// EvalNotContains checks that haystack does not contain needle.
func EvalNotContains(haystack, needle string) Result {
	return result("not_contains", !strings.Contains(haystack, needle), fmt.Sprintf("not contains '%s'", needle), haystack,
		fmt.Sprintf("Expected '%s' to not be in string", needle))
}

// EvalStartsWith checks that s begins with prefix.
func EvalStartsWith(s, prefix string) Result {
	actual := headRunes(s, utf8.RuneCountInString(prefix)+20)
	return result("starts_with", strings.HasPrefix(s, prefix), fmt.Sprintf("starts with '%s'", prefix), actual,
		fmt.Sprintf("Expected string to start with '%s'", prefix))
}

// EvalEndsWith checks that s ends with suffix.
func EvalEndsWith(s, suffix string) Result {
	actual := tailRunes(s, utf8.RuneCountInString(suffix)+20)
	return result("ends_with", strings.HasSuffix(s, suffix), fmt.Sprintf("ends with '%s'", suffix), actual,
		fmt.Sprintf("Expected string to end with '%s'", suffix))
}

// EvalMatchesRegex searches s for pattern. An invalid pattern fails.
func EvalMatchesRegex(s, pattern string) Result {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return result("matches_regex", false, fmt.Sprintf("matches /%s/", pattern), s,
			fmt.Sprintf("invalid regex: %v", err))
	}
	return result("matches_regex", re.MatchString(s), fmt.Sprintf("matches /%s/", pattern), s,
		fmt.Sprintf("Expected string to match pattern '%s'", pattern))
}

// EvalIsEmpty checks that s is the empty string.
func EvalIsEmpty(s string) Result {
	return result("is_empty", s == "", "empty string", s,
		fmt.Sprintf("Expected empty string, got '%s'", s))
}

// EvalIsNotEmpty checks that s is not the empty string.
func EvalIsNotEmpty(s string) Result {
	return result("is_not_empty", s != "", "non-empty string", s, "Expected non-empty string, got empty")
}

// --- numbers ---

// EvalGreaterThan checks actual > expected.
func EvalGreaterThan(actual, expected float64) Result {
	return result("greater_than", actual > expected, fmt.Sprintf("> %v", expected), actual,
		fmt.Sprintf("Expected %v > %v", actual, expected))
}

// EvalGreaterThanOrEqual checks actual >= expected.
func EvalGreaterThanOrEqual(actual, expected float64) Result {
	return result("greater_than_or_equal", actual >= expected, fmt.Sprintf(">= %v", expected), actual,
		fmt.Sprintf("Expected %v >= %v", actual, expected))
}

// EvalLessThan checks actual < expected.
func EvalLessThan(actual, expected float64) Result {
	return result("less_than", actual < expected, fmt.Sprintf("< %v", expected), actual,
		fmt.Sprintf("Expected %v < %v", actual, expected))
}

// EvalLessThanOrEqual checks actual <= expected.
func EvalLessThanOrEqual(actual, expected float64) Result {
	return result("less_than_or_equal", actual <= expected, fmt.Sprintf("<= %v", expected), actual,
		fmt.Sprintf("Expected %v <= %v", actual, expected))
}

// EvalBetween checks lo <= actual <= hi.
func EvalBetween(actual, lo, hi float64) Result {
	return result("between", lo <= actual && actual <= hi, fmt.Sprintf("between %v and %v", lo, hi), actual,
		fmt.Sprintf("Expected %v to be between %v and %v", actual, lo, hi))
}

// --- collections ---

func lengthOf(v any) (int, bool) {
	if v == nil {
		return 0, false
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.String, reflect.Slice, reflect.Map, reflect.Array, reflect.Chan:
		return rv.Len(), true
	}
	return 0, false
}

func elements(v any) ([]any, bool) {
	if v == nil {
		return nil, false
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

// EvalHasLength checks that collection has exactly n elements.
func EvalHasLength(collection any, n int) Result {
	got, ok := lengthOf(collection)
	if !ok {
		return result("has_length", false, fmt.Sprintf("length %d", n), fmt.Sprintf("%T", collection),
			fmt.Sprintf("Expected length %d, value of type %T has no length", n, collection))
	}
	return result("has_length", got == n, fmt.Sprintf("length %d", n), fmt.Sprintf("length %d", got),
		fmt.Sprintf("Expected length %d, got %d", n, got))
}

// EvalContainsItem checks that collection has an element equal to item.
func EvalContainsItem(collection any, item any) Result {
	items, ok := elements(collection)
	found := false
	for _, it := range items {
		if reflect.DeepEqual(it, item) {
			found = true
			break
		}
	}
	shown := items
	if len(shown) > 5 {
		shown = shown[:5]
	}
	msg := fmt.Sprintf("Expected collection to contain %v", show(item))
	if !ok {
		msg = fmt.Sprintf("value of type %T is not a collection", collection)
	}
	return result("contains_item", found, fmt.Sprintf("contains %v", show(item)), shown, msg)
}

func countMatches(items []any, pred func(any) bool) int {
	n := 0
	for _, it := range items {
		if pred(it) {
			n++
		}
	}
	return n
}

// EvalAllMatch checks that pred holds for every element. An empty
// collection passes.
func EvalAllMatch(collection any, pred func(any) bool) Result {
	items, _ := elements(collection)
	n := countMatches(items, pred)
	return result("all_match", n == len(items), "all items match predicate",
		fmt.Sprintf("%d/%d matched", n, len(items)), "Not all items matched the predicate")
}

// EvalAnyMatch checks that pred holds for at least one element.
func EvalAnyMatch(collection any, pred func(any) bool) Result {
	items, _ := elements(collection)
	n := countMatches(items, pred)
	return result("any_match", n > 0, "at least one item matches predicate",
		fmt.Sprintf("%d/%d matched", n, len(items)), "No items matched the predicate")
}

// --- types ---

// EvalIsType checks that value has the same dynamic type as sample.
func EvalIsType(value, sample any) Result {
	want := reflect.TypeOf(sample)
	got := reflect.TypeOf(value)
	return result("is_type", want == got, typeName(want), typeName(got),
		fmt.Sprintf("Expected type %s, got %s", typeName(want), typeName(got)))
}

func typeName(t reflect.Type) string {
	if t == nil {
		return "nil"
	}
	return t.String()
}

// --- URLs ---

var validURL = regexp.MustCompile(`(?i)^https?://` +
	`(?:(?:[A-Z0-9](?:[A-Z0-9-]{0,61}[A-Z0-9])?\.)+[A-Z]{2,6}\.?|` +
	`localhost|` +
	`\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3})` +
	`(?::\d+)?` +
	`(?:/?|[/?]\S+)$`)

// IsValidURL reports whether u is an http(s) URL with a domain name,
// localhost or IPv4 host.
func IsValidURL(u string) bool {
	return validURL.MatchString(u)
}

// EvalIsValidURL checks u with IsValidURL.
func EvalIsValidURL(u string) Result {
	return result("is_valid_url", IsValidURL(u), "valid URL", u,
		fmt.Sprintf("'%s' is not a valid URL", u))
}

// EvalURLContainsPath checks that path occurs in u.
func EvalURLContainsPath(u, path string) Result {
	return result("url_contains_path", strings.Contains(u, path), fmt.Sprintf("URL contains path '%s'", path), u,
		fmt.Sprintf("URL does not contain path '%s'", path))
}

// --- HTML (pattern based, not a DOM parser) ---

var anyTag = regexp.MustCompile(`<[^>]+>`)

// EvalHTMLContainsTag searches html for an opening <tag ...>.
func EvalHTMLContainsTag(html, tag string) Result {
	re := regexp.MustCompile(`(?i)<` + regexp.QuoteMeta(tag) + `[^>]*>`)
	return result("html_contains_tag", re.MatchString(html), fmt.Sprintf("contains <%s> tag", tag),
		fmt.Sprintf("HTML (%d chars)", len(html)), fmt.Sprintf("HTML does not contain <%s> tag", tag))
}

// EvalHTMLContainsText strips all tags and checks the remaining text
// contains text (case-sensitive).
func EvalHTMLContainsText(html, text string) Result {
	clean := anyTag.ReplaceAllString(html, "")
	return result("html_contains_text", strings.Contains(clean, text), fmt.Sprintf("contains text '%s'", text),
		"HTML content", fmt.Sprintf("HTML does not contain text '%s'", text))
}

// EvalHasAttribute searches html for <tag> carrying attribute, and when
// value is non-empty, carrying attribute=value (quotes optional).
func EvalHasAttribute(html, tag, attribute, value string) Result {
	pattern := `(?i)<` + regexp.QuoteMeta(tag) + `[^>]*` + regexp.QuoteMeta(attribute)
	expected := fmt.Sprintf("<%s> with %s", tag, attribute)
	if value != "" {
		pattern += `=["']?` + regexp.QuoteMeta(value) + `["']?[^>]*>`
		expected += fmt.Sprintf("='%s'", value)
	} else {
		pattern += `[^>]*>`
	}
	re := regexp.MustCompile(pattern)
	return result("has_attribute", re.MatchString(html), expected,
		fmt.Sprintf("HTML (%d chars)", len(html)), fmt.Sprintf("HTML does not have %s", expected))
}

// truncate shortens s to maxLen runes, appending "..." when cut.
// headRunes returns the first n runes of s.
func headRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// tailRunes returns the last n runes of s.
func tailRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[len(r)-n:])
}

func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen]) + "..."
}
