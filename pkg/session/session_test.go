package session

import (
	"context"
	"encoding/base64"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

type fakeCaller struct {
	mu       sync.Mutex
	calls    []string
	args     []map[string]any
	results  map[string]*mcp.CallToolResult
	callErr  error
	initErr  error
	closed   int
	closeCtx []error
}

func newFakeCaller() *fakeCaller {
	return &fakeCaller{results: map[string]*mcp.CallToolResult{}}
}

func (f *fakeCaller) Initialize(ctx context.Context, req mcp.InitializeRequest) (*mcp.InitializeResult, error) {
	if f.initErr != nil {
		return nil, f.initErr
	}
	return &mcp.InitializeResult{}, nil
}

func (f *fakeCaller) CallTool(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, req.Params.Name)
	args, _ := req.Params.Arguments.(map[string]any)
	f.args = append(f.args, args)
	f.closeCtx = append(f.closeCtx, ctx.Err())
	if f.callErr != nil {
		return nil, f.callErr
	}
	if r, ok := f.results[req.Params.Name]; ok {
		return r, nil
	}
	return mcp.NewToolResultText("ok"), nil
}

func (f *fakeCaller) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed++
	return nil
}

func dialerFor(c Caller) Dialer {
	return func(ctx context.Context) (Caller, error) { return c, nil }
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name    string
		res     *mcp.CallToolResult
		success bool
		errText string
	}{
		{"text", mcp.NewToolResultText("Navigated to x - Title: y"), true, ""},
		{"marker", mcp.NewToolResultText("Error: element not found"), false, "Error: element not found"},
		{"isError", &mcp.CallToolResult{IsError: true, Content: []mcp.Content{mcp.NewTextContent("boom")}}, false, "boom"},
		{"nil", nil, true, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Normalize(tt.res)
			if r.Success != tt.success {
				t.Errorf("Success = %v, want %v", r.Success, tt.success)
			}
			if r.Error != tt.errText {
				t.Errorf("Error = %q, want %q", r.Error, tt.errText)
			}
		})
	}
}

func TestNormalizeImage(t *testing.T) {
	r := Normalize(mcp.NewToolResultImage("Screenshot captured", "aGk=", "image/png"))
	want := []Content{
		{Type: "text", Text: "Screenshot captured"},
		{Type: "image", Data: "aGk=", MIMEType: "image/png"},
	}
	if diff := cmp.Diff(want, r.Content); diff != "" {
		t.Errorf("content mismatch (-want +got):\n%s", diff)
	}
	img, ok := r.Image()
	if !ok || img.Data != "aGk=" {
		t.Errorf("Image() = %+v, %v", img, ok)
	}
}

func TestInvokeAndClose(t *testing.T) {
	fc := newFakeCaller()
	m := NewManager(dialerFor(fc))
	s, err := m.Open(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	resp, err := s.Invoke(context.Background(), OpNavigate, map[string]any{"url": "https://example.com"})
	if err != nil {
		t.Fatal(err)
	}
	if !resp.Success {
		t.Errorf("expected success, got %+v", resp)
	}
	if got := fc.args[0]["url"]; got != "https://example.com" {
		t.Errorf("url arg = %v", got)
	}

	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	if fc.closed != 1 {
		t.Errorf("transport closed %d times, want 1", fc.closed)
	}
	if fc.calls[len(fc.calls)-1] != OpClose {
		t.Errorf("last call = %q, want %q", fc.calls[len(fc.calls)-1], OpClose)
	}
	if _, err := s.Invoke(context.Background(), OpClick, nil); !errors.Is(err, ErrClosed) {
		t.Errorf("Invoke after close = %v, want ErrClosed", err)
	}
}

func TestInvokeTransportError(t *testing.T) {
	fc := newFakeCaller()
	fc.callErr = errors.New("pipe closed")
	m := NewManager(dialerFor(fc))
	s, err := m.Open(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	if _, err := s.Invoke(context.Background(), OpClick, nil); err == nil {
		t.Fatal("expected transport error")
	}
}

func TestOpenRetries(t *testing.T) {
	attempts := 0
	fc := newFakeCaller()
	dial := func(ctx context.Context) (Caller, error) {
		attempts++
		if attempts < 3 {
			return nil, errors.New("not yet")
		}
		return fc, nil
	}
	m := NewManager(dial, WithOpenRetry(3, time.Millisecond))
	s, err := m.Open(context.Background())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	s.Close()
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
}

func TestOpenInitializeFailure(t *testing.T) {
	fc := newFakeCaller()
	fc.initErr = errors.New("handshake refused")
	m := NewManager(dialerFor(fc))
	_, err := m.Open(context.Background())
	if err == nil || !strings.Contains(err.Error(), "handshake refused") {
		t.Fatalf("Open error = %v", err)
	}
	if fc.closed != 1 {
		t.Errorf("transport closed %d times, want 1", fc.closed)
	}
}

func TestWithClosesOnCancelledContext(t *testing.T) {
	fc := newFakeCaller()
	m := NewManager(dialerFor(fc))
	ctx, cancel := context.WithCancel(context.Background())

	err := m.With(ctx, func(s *Session) error {
		cancel()
		return ctx.Err()
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("With error = %v, want context.Canceled", err)
	}
	if fc.closed != 1 {
		t.Fatalf("transport closed %d times, want 1", fc.closed)
	}
	// browser_close must not inherit the cancelled context.
	if last := fc.closeCtx[len(fc.closeCtx)-1]; last != nil {
		t.Errorf("close ran with ctx err %v", last)
	}
}

func TestWithClosesOnPanic(t *testing.T) {
	fc := newFakeCaller()
	m := NewManager(dialerFor(fc))
	func() {
		defer func() { recover() }()
		m.With(context.Background(), func(s *Session) error { panic("boom") })
	}()
	if fc.closed != 1 {
		t.Errorf("transport closed %d times, want 1", fc.closed)
	}
}

func TestOneShotOpensSessionPerCall(t *testing.T) {
	opened := 0
	dial := func(ctx context.Context) (Caller, error) {
		opened++
		return newFakeCaller(), nil
	}
	m := NewManager(dial)
	if _, err := m.Navigate(context.Background(), "https://example.com"); err != nil {
		t.Fatal(err)
	}
	if _, err := m.Click(context.Background(), "#go"); err != nil {
		t.Fatal(err)
	}
	if opened != 2 {
		t.Errorf("opened = %d, want 2", opened)
	}
}

func TestAssertTextPresent(t *testing.T) {
	fc := newFakeCaller()
	fc.results[OpGetContent] = mcp.NewToolResultText("Example Domain\nMore information")
	m := NewManager(dialerFor(fc))
	ok, err := m.AssertTextPresent(context.Background(), "example domain")
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Error("expected text to be present")
	}
}

func TestScreenshotOneShot(t *testing.T) {
	dir := t.TempDir()
	fc := newFakeCaller()
	fc.results[OpScreenshot] = mcp.NewToolResultImage("Screenshot captured", base64.StdEncoding.EncodeToString([]byte("png")), "image/png")
	m := NewManager(dialerFor(fc), WithScreenshotDir(dir))

	path, err := m.Screenshot(context.Background(), "home page")
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Dir(path) != dir {
		t.Errorf("path %q not in %q", path, dir)
	}
	if !strings.HasPrefix(filepath.Base(path), "home_page_") {
		t.Errorf("base = %q, want home_page_ prefix", filepath.Base(path))
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "png" {
		t.Errorf("data = %q, want %q", data, "png")
	}
}

func TestSaveScreenshotName(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2024, 3, 5, 14, 7, 9, 0, time.UTC)
	path, err := saveScreenshotAt(dir, "failure_Verify Title", base64.StdEncoding.EncodeToString([]byte{1}), now)
	if err != nil {
		t.Fatal(err)
	}
	want := filepath.Join(dir, "failure_Verify_Title_20240305_140709.png")
	if path != want {
		t.Errorf("path = %q, want %q", path, want)
	}
}

func TestSaveScreenshotBadData(t *testing.T) {
	if _, err := SaveScreenshot(t.TempDir(), "x", "%%%"); err == nil {
		t.Error("expected decode error")
	}
}

func TestInProcessServer(t *testing.T) {
	s := server.NewMCPServer("fake-browser", "test", server.WithToolCapabilities(true))
	s.AddTool(mcp.NewTool(OpNavigate, mcp.WithString("url", mcp.Required())),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			url, _ := req.GetArguments()["url"].(string)
			return mcp.NewToolResultText("Navigated to " + url + " - Title: Fake"), nil
		})
	s.AddTool(mcp.NewTool(OpClose), func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return mcp.NewToolResultText("Browser closed"), nil
	})

	m := NewManager(InProcessDialer(s))
	err := m.With(context.Background(), func(sess *Session) error {
		resp, err := sess.Invoke(context.Background(), OpNavigate, map[string]any{"url": "https://example.com"})
		if err != nil {
			return err
		}
		text, _ := resp.Text()
		if !resp.Success || !strings.Contains(text, "Title: Fake") {
			t.Errorf("response = %+v", resp)
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
}
