package assertions

import "fmt"

// Chain is a fluent assertion chain over one value. Every link records its
// own result; a failing link does not stop the chain.
type Chain struct {
	value   any
	checker *Checker
	passed  bool
}

// Expect starts a chain backed by a fresh Checker.
func Expect(value any) *Chain {
	return ExpectWith(New(), value)
}

// ExpectWith starts a chain that records into c.
func ExpectWith(c *Checker, value any) *Chain {
	return &Chain{value: value, checker: c, passed: true}
}

func (ch *Chain) note(ok bool) *Chain {
	ch.passed = ch.passed && ok
	return ch
}

func (ch *Chain) str() string {
	if s, ok := ch.value.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", ch.value)
}

// ToEqual asserts the value deep-equals expected.
func (ch *Chain) ToEqual(expected any) *Chain {
	return ch.note(ch.checker.Equals(ch.value, expected))
}

// ToContain asserts the value's string form contains needle.
func (ch *Chain) ToContain(needle string) *Chain {
	return ch.note(ch.checker.Contains(ch.str(), needle))
}

// ToBeTrue asserts the value is truthy.
func (ch *Chain) ToBeTrue() *Chain {
	return ch.note(ch.checker.IsTrue(ch.value))
}

// ToBeFalse asserts the value is falsy.
func (ch *Chain) ToBeFalse() *Chain {
	return ch.note(ch.checker.IsFalse(ch.value))
}

// ToMatch asserts the value's string form matches pattern.
func (ch *Chain) ToMatch(pattern string) *Chain {
	return ch.note(ch.checker.MatchesRegex(ch.str(), pattern))
}

// ToHaveLength asserts the value has n elements.
func (ch *Chain) ToHaveLength(n int) *Chain {
	return ch.note(ch.checker.HasLength(ch.value, n))
}

// Passed reports whether every link so far passed.
func (ch *Chain) Passed() bool { return ch.passed }

// Checker returns the checker the chain records into.
func (ch *Chain) Checker() *Checker { return ch.checker }
