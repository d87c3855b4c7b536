package executor

import (
	"regexp"
	"strings"
)

// SelectorMatches is a rough check that a CSS selector could
// match something in html. It understands three shapes:
//
//	#id     an id="id" attribute is present
//	.class  some class=" attribute exists and the token appears anywhere
//	tag     an opening <tag occurs
//
// Anything else (attribute selectors, combinators) only needs its leading
// tag name: "form input[type=email]" matches any page with a <form, and the
// rest of the selector is not checked. A selector that starts with neither
// a tag, # nor . is searched for as a plain substring.
func SelectorMatches(html, selector string) bool {
	sel := strings.TrimSpace(selector)
	if sel == "" {
		return false
	}
	switch {
	case strings.HasPrefix(sel, "#"):
		id := sel[1:]
		return strings.Contains(html, `id="`+id+`"`) || strings.Contains(html, `id='`+id+`'`)
	case strings.HasPrefix(sel, "."):
		return strings.Contains(html, `class="`) && strings.Contains(html, sel[1:])
	}
	if tag := leadingTag.FindString(sel); tag != "" {
		return strings.Contains(strings.ToLower(html), "<"+strings.ToLower(tag))
	}
	return strings.Contains(html, sel)
}

var leadingTag = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9-]*`)
