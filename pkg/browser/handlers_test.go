package browser

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/mark3labs/mcp-go/mcp"
)

type fakeDriver struct {
	mu    sync.Mutex
	calls []string

	title     string
	text      string
	html      string
	png       []byte
	clickErr  error
	textErr   error
	failWith  error
	lastDY    int
	lastFill  [2]string
	waitedFor time.Duration
	closed    int
}

func (f *fakeDriver) record(call string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
	return f.failWith
}

func (f *fakeDriver) Navigate(ctx context.Context, url string) (string, error) {
	return f.title, f.record("navigate " + url)
}

func (f *fakeDriver) Screenshot(ctx context.Context) ([]byte, error) {
	return f.png, f.record("screenshot")
}

func (f *fakeDriver) Click(ctx context.Context, selector string, timeout time.Duration) error {
	if err := f.record("click " + selector); err != nil {
		return err
	}
	return f.clickErr
}

func (f *fakeDriver) ClickText(ctx context.Context, text string, timeout time.Duration) error {
	if err := f.record("click-text " + text); err != nil {
		return err
	}
	return f.textErr
}

func (f *fakeDriver) Fill(ctx context.Context, selector, text string) error {
	f.lastFill = [2]string{selector, text}
	return f.record("fill " + selector)
}

func (f *fakeDriver) Text(ctx context.Context) (string, error) { return f.text, f.record("text") }
func (f *fakeDriver) HTML(ctx context.Context) (string, error) { return f.html, f.record("html") }

func (f *fakeDriver) ScrollBy(ctx context.Context, dy int) error {
	f.lastDY = dy
	return f.record("scroll")
}

func (f *fakeDriver) WaitFor(ctx context.Context, selector string, timeout time.Duration) error {
	f.waitedFor = timeout
	return f.record("wait " + selector)
}

func (f *fakeDriver) Close() error {
	f.closed++
	return f.record("close")
}

func call(t *testing.T, h func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error), args map[string]any) *mcp.CallToolResult {
	t.Helper()
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	result, err := h(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	return result
}

func firstText(t *testing.T, r *mcp.CallToolResult) string {
	t.Helper()
	for _, c := range r.Content {
		if tc, ok := c.(mcp.TextContent); ok {
			return tc.Text
		}
	}
	t.Fatalf("no text content in %+v", r.Content)
	return ""
}

func TestHandlers_SuccessMessages(t *testing.T) {
	d := &fakeDriver{title: "Example Domain", text: "hello", html: "<p>hi</p>"}
	s := NewServer(d, nil)

	tests := []struct {
		name string
		h    func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error)
		args map[string]any
		want string
	}{
		{"navigate", s.HandleNavigate, map[string]any{"url": "https://example.com"}, "Navigated to https://example.com - Title: Example Domain"},
		{"click", s.HandleClick, map[string]any{"selector": "#go"}, "Clicked on #go"},
		{"type", s.HandleType, map[string]any{"selector": "#q", "text": "zarah"}, "Typed text into #q"},
		{"content", s.HandleGetContent, map[string]any{}, "hello"},
		{"html", s.HandleGetHTML, map[string]any{}, "<p>hi</p>"},
		{"scroll default", s.HandleScroll, map[string]any{"direction": "down"}, "Scrolled down by 500px"},
		{"scroll up", s.HandleScroll, map[string]any{"direction": "up", "amount": float64(120)}, "Scrolled up by 120px"},
		{"wait selector", s.HandleWait, map[string]any{"selector": "#done", "timeout": float64(250)}, "Element #done found"},
		{"wait time", s.HandleWait, map[string]any{"timeout": float64(1)}, "Waited 1ms"},
		{"close", s.HandleClose, map[string]any{}, "Browser closed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := call(t, tt.h, tt.args)
			if r.IsError {
				t.Fatalf("unexpected error result: %+v", r.Content)
			}
			if got := firstText(t, r); got != tt.want {
				t.Errorf("text = %q, want %q", got, tt.want)
			}
		})
	}
	if d.lastFill != [2]string{"#q", "zarah"} {
		t.Errorf("fill = %v", d.lastFill)
	}
	if d.lastDY != -120 {
		t.Errorf("last scroll dy = %d, want -120", d.lastDY)
	}
	if d.waitedFor != 250*time.Millisecond {
		t.Errorf("wait timeout = %v", d.waitedFor)
	}
}

func TestHandleScreenshot_ImageContent(t *testing.T) {
	d := &fakeDriver{png: []byte("png-bytes")}
	r := call(t, NewServer(d, nil).HandleScreenshot, nil)
	if r.IsError {
		t.Fatal("unexpected error")
	}
	if got := firstText(t, r); got != "Screenshot captured" {
		t.Errorf("text = %q", got)
	}
	var img mcp.ImageContent
	for _, c := range r.Content {
		if ic, ok := c.(mcp.ImageContent); ok {
			img = ic
		}
	}
	if img.MIMEType != "image/png" || img.Data != "cG5nLWJ5dGVz" {
		t.Errorf("image = %+v", img)
	}
}

func TestHandleClick_FallsBackToText(t *testing.T) {
	d := &fakeDriver{clickErr: errors.New("no element")}
	r := call(t, NewServer(d, nil).HandleClick, map[string]any{"selector": "Sign in"})
	if r.IsError {
		t.Fatalf("unexpected error: %+v", r.Content)
	}
	if diff := cmp.Diff([]string{"click Sign in", "click-text Sign in"}, d.calls); diff != "" {
		t.Errorf("calls mismatch (-want +got):\n%s", diff)
	}
}

func TestHandleClick_BothFail(t *testing.T) {
	d := &fakeDriver{clickErr: errors.New("no element"), textErr: errors.New("no text match")}
	r := call(t, NewServer(d, nil).HandleClick, map[string]any{"selector": "Sign in"})
	if !r.IsError {
		t.Fatal("expected error result")
	}
	if got := firstText(t, r); got != "Error: no text match" {
		t.Errorf("text = %q", got)
	}
}

func TestHandlers_DriverErrorsUseMarker(t *testing.T) {
	d := &fakeDriver{failWith: errors.New("page crashed")}
	s := NewServer(d, nil)
	for name, h := range map[string]func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error){
		"navigate": s.HandleNavigate,
		"content":  s.HandleGetContent,
		"html":     s.HandleGetHTML,
		"close":    s.HandleClose,
	} {
		r := call(t, h, map[string]any{"url": "https://example.com"})
		if !r.IsError {
			t.Errorf("%s: expected error result", name)
			continue
		}
		if got := firstText(t, r); got != "Error: page crashed" {
			t.Errorf("%s: text = %q", name, got)
		}
	}
}

func TestHandlers_MissingArguments(t *testing.T) {
	d := &fakeDriver{}
	s := NewServer(d, nil)
	for name, h := range map[string]func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error){
		"navigate": s.HandleNavigate,
		"click":    s.HandleClick,
		"type":     s.HandleType,
		"scroll":   s.HandleScroll,
	} {
		r := call(t, h, map[string]any{})
		if !r.IsError {
			t.Errorf("%s: expected error for missing argument", name)
		}
		if got := firstText(t, r); !strings.HasPrefix(got, "Error: ") {
			t.Errorf("%s: text = %q", name, got)
		}
	}
	if len(d.calls) != 0 {
		t.Errorf("driver called with missing arguments: %v", d.calls)
	}
}

func TestHandleGetContent_Truncates(t *testing.T) {
	d := &fakeDriver{text: strings.Repeat("é", MaxContentChars+50), html: strings.Repeat("x", MaxHTMLChars+1)}
	s := NewServer(d, nil)

	got := firstText(t, call(t, s.HandleGetContent, nil))
	if n := len([]rune(got)); n != MaxContentChars {
		t.Errorf("content runes = %d, want %d", n, MaxContentChars)
	}
	got = firstText(t, call(t, s.HandleGetHTML, nil))
	if len(got) != MaxHTMLChars {
		t.Errorf("html length = %d, want %d", len(got), MaxHTMLChars)
	}
}

func TestHandleWait_Cancelled(t *testing.T) {
	s := NewServer(&fakeDriver{}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	req := mcp.CallToolRequest{}
	req.Params.Arguments = map[string]any{"timeout": float64(60000)}
	r, err := s.HandleWait(ctx, req)
	if err != nil {
		t.Fatal(err)
	}
	if !r.IsError {
		t.Error("expected error result for cancelled wait")
	}
}

func TestXPathLiteral(t *testing.T) {
	tests := []struct{ in, want string }{
		{"Sign in", `"Sign in"`},
		{`say "hi"`, `'say "hi"'`},
		{`it's "x"`, `concat("it's ", '"', "x", '"', "")`},
	}
	for _, tt := range tests {
		if got := xpathLiteral(tt.in); got != tt.want {
			t.Errorf("xpathLiteral(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}
