package assertions

import "testing"

func TestHardModeDoesNotCollect(t *testing.T) {
	c := New()
	if c.Equals(1, 2) {
		t.Error("1 == 2 should fail")
	}
	if len(c.Failures()) != 0 {
		t.Error("normal mode must not collect failures")
	}
	if c.Last().Type != "equals" {
		t.Errorf("last type = %q", c.Last().Type)
	}
}

func TestSoftModeCollects(t *testing.T) {
	c := New().SoftAssert(true)
	c.Equals(1, 2)
	c.Contains("abc", "b")
	c.IsTrue("")
	c.Between(5, 1, 3, "custom message")

	failures := c.Failures()
	if len(failures) != 3 {
		t.Fatalf("failures = %d, want 3", len(failures))
	}
	if failures[2].Message != "custom message" {
		t.Errorf("message override = %q", failures[2].Message)
	}

	c.ClearFailures()
	if len(c.Failures()) != 0 {
		t.Error("ClearFailures should empty the list")
	}
}

func TestExpectChainContinuesAfterFailure(t *testing.T) {
	c := New().SoftAssert(true)
	ch := ExpectWith(c, "hello world").
		ToEqual("nope").
		ToContain("world").
		ToMatch(`^hello`).
		ToHaveLength(11)

	if ch.Passed() {
		t.Error("chain should report the failed link")
	}
	if len(c.Failures()) != 1 {
		t.Errorf("failures = %d, want 1", len(c.Failures()))
	}
}

func TestExpectBooleans(t *testing.T) {
	if !Expect(true).ToBeTrue().Passed() {
		t.Error("true should be truthy")
	}
	if !Expect(0).ToBeFalse().Passed() {
		t.Error("0 should be falsy")
	}
	if !Expect([]string{"a", "b"}).ToHaveLength(2).ToEqual([]string{"a", "b"}).Passed() {
		t.Error("slice chain should pass")
	}
}
