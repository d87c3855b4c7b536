package browser

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"
)

// Response limits and defaults.
const (
	MaxContentChars = 10000
	MaxHTMLChars    = 20000

	DefaultScrollAmount = 500
	DefaultWaitMillis   = 1000

	clickTimeout = 5 * time.Second
)

// HandleNavigate implements browser_navigate.
func (s *Server) HandleNavigate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	url := stringArg(req, "url")
	if url == "" {
		return errorResult("url argument is required"), nil
	}
	title, err := s.driver.Navigate(ctx, url)
	if err != nil {
		return s.failed(ToolNavigate, err), nil
	}
	return textResult(fmt.Sprintf("Navigated to %s - Title: %s", url, title)), nil
}

// HandleScreenshot implements browser_screenshot.
func (s *Server) HandleScreenshot(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	png, err := s.driver.Screenshot(ctx)
	if err != nil {
		return s.failed(ToolScreenshot, err), nil
	}
	return mcp.NewToolResultImage("Screenshot captured", base64.StdEncoding.EncodeToString(png), "image/png"), nil
}

// HandleClick implements browser_click. When no element matches the
// selector within the click timeout, the selector is retried as visible text.
func (s *Server) HandleClick(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	selector := stringArg(req, "selector")
	if selector == "" {
		return errorResult("selector argument is required"), nil
	}
	if err := s.driver.Click(ctx, selector, clickTimeout); err != nil {
		s.logger.Debug("selector click failed, trying text", zap.String("selector", selector), zap.Error(err))
		if err := s.driver.ClickText(ctx, selector, clickTimeout); err != nil {
			return s.failed(ToolClick, err), nil
		}
	}
	return textResult("Clicked on " + selector), nil
}

// HandleType implements browser_type.
func (s *Server) HandleType(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	selector := stringArg(req, "selector")
	if selector == "" {
		return errorResult("selector argument is required"), nil
	}
	text := stringArg(req, "text")
	if err := s.driver.Fill(ctx, selector, text); err != nil {
		return s.failed(ToolType, err), nil
	}
	return textResult("Typed text into " + selector), nil
}

// HandleGetContent implements browser_get_content.
func (s *Server) HandleGetContent(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := s.driver.Text(ctx)
	if err != nil {
		return s.failed(ToolGetContent, err), nil
	}
	return textResult(truncate(text, MaxContentChars)), nil
}

// HandleGetHTML implements browser_get_html.
func (s *Server) HandleGetHTML(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	html, err := s.driver.HTML(ctx)
	if err != nil {
		return s.failed(ToolGetHTML, err), nil
	}
	return textResult(truncate(html, MaxHTMLChars)), nil
}

// HandleScroll implements browser_scroll.
func (s *Server) HandleScroll(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	direction := stringArg(req, "direction")
	amount := intArg(req, "amount", DefaultScrollAmount)

	dy := amount
	switch direction {
	case "down":
	case "up":
		dy = -amount
	default:
		return errorResult(fmt.Sprintf("direction must be up or down, got %q", direction)), nil
	}
	if err := s.driver.ScrollBy(ctx, dy); err != nil {
		return s.failed(ToolScroll, err), nil
	}
	return textResult(fmt.Sprintf("Scrolled %s by %dpx", direction, amount)), nil
}

// HandleWait implements browser_wait. With a selector it waits for the
// element up to timeout; without one it sleeps for timeout.
func (s *Server) HandleWait(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	selector := stringArg(req, "selector")
	ms := intArg(req, "timeout", DefaultWaitMillis)
	d := time.Duration(ms) * time.Millisecond

	if selector != "" {
		if err := s.driver.WaitFor(ctx, selector, d); err != nil {
			return s.failed(ToolWait, err), nil
		}
		return textResult(fmt.Sprintf("Element %s found", selector)), nil
	}

	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
		return s.failed(ToolWait, ctx.Err()), nil
	}
	return textResult(fmt.Sprintf("Waited %dms", ms)), nil
}

// HandleClose implements browser_close.
func (s *Server) HandleClose(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := s.driver.Close(); err != nil {
		return s.failed(ToolClose, err), nil
	}
	return textResult("Browser closed"), nil
}

func (s *Server) failed(tool string, err error) *mcp.CallToolResult {
	s.logger.Debug("tool failed", zap.String("tool", tool), zap.Error(err))
	return errorResult(err.Error())
}

// --- helpers ---

func stringArg(req mcp.CallToolRequest, key string) string {
	v, _ := req.GetArguments()[key].(string)
	return v
}

// intArg reads a JSON number argument, falling back to def when the
// argument is missing or not a number.
func intArg(req mcp.CallToolRequest, key string, def int) int {
	switch v := req.GetArguments()[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return def
	}
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}

func textResult(text string) *mcp.CallToolResult {
	return mcp.NewToolResultText(text)
}

// errorResult carries the "Error:" text marker as well as the MCP error flag.
func errorResult(msg string) *mcp.CallToolResult {
	return mcp.NewToolResultError("Error: " + msg)
}
