// Package session manages connections to the browser automation MCP server
// and normalizes its tool responses.
package session

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/ormasoftchile/zarah/pkg/logging"
)

// Operation names exposed by the browser automation server.
const (
	OpNavigate   = "browser_navigate"
	OpClick      = "browser_click"
	OpType       = "browser_type"
	OpWait       = "browser_wait"
	OpScroll     = "browser_scroll"
	OpScreenshot = "browser_screenshot"
	OpGetContent = "browser_get_content"
	OpGetHTML    = "browser_get_html"
	OpClose      = "browser_close"
)

// ErrorMarker in any text payload marks a response as failed.
const ErrorMarker = "Error:"

// ErrClosed is returned by Invoke after Close.
var ErrClosed = errors.New("session closed")

// Caller is the subset of the mcp-go client a session needs.
type Caller interface {
	Initialize(ctx context.Context, req mcp.InitializeRequest) (*mcp.InitializeResult, error)
	CallTool(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error)
	Close() error
}

// Dialer establishes a new, not yet initialized, connection.
type Dialer func(ctx context.Context) (Caller, error)

// StdioDialer starts command as a child process speaking MCP on stdio.
// The child's stderr is forwarded to logger.
func StdioDialer(command string, args []string, env []string, logger *zap.Logger) Dialer {
	logger = logging.OrNop(logger)
	return func(ctx context.Context) (Caller, error) {
		c, err := client.NewStdioMCPClient(command, env, args...)
		if err != nil {
			return nil, fmt.Errorf("start MCP server %q: %w", command, err)
		}
		if stderr, ok := client.GetStderr(c); ok {
			go func() {
				scanner := bufio.NewScanner(stderr)
				for scanner.Scan() {
					logger.Debug("browser server", zap.String("line", scanner.Text()))
				}
			}()
		}
		return c, nil
	}
}

// InProcessDialer connects to an MCP server running in this process.
func InProcessDialer(s *server.MCPServer) Dialer {
	return func(ctx context.Context) (Caller, error) {
		c, err := client.NewInProcessClient(s)
		if err != nil {
			return nil, fmt.Errorf("create in-process client: %w", err)
		}
		if err := c.Start(ctx); err != nil {
			c.Close()
			return nil, fmt.Errorf("start in-process client: %w", err)
		}
		return c, nil
	}
}

// Content is one normalized response payload.
type Content struct {
	Type     string `json:"type"` // "text" or "image"
	Text     string `json:"text,omitempty"`
	Data     string `json:"data,omitempty"`
	MIMEType string `json:"mimeType,omitempty"`
}

// Response is the normalized outcome of one operation.
type Response struct {
	Success bool      `json:"success"`
	Content []Content `json:"content"`
	Error   string    `json:"error,omitempty"`
}

// Text returns the first text payload.
func (r *Response) Text() (string, bool) {
	for _, c := range r.Content {
		if c.Type == "text" {
			return c.Text, true
		}
	}
	return "", false
}

// Image returns the first image payload.
func (r *Response) Image() (Content, bool) {
	for _, c := range r.Content {
		if c.Type == "image" {
			return c, true
		}
	}
	return Content{}, false
}

// Normalize converts an MCP tool result into a Response.
func Normalize(res *mcp.CallToolResult) *Response {
	resp := &Response{Success: true, Content: []Content{}}
	if res == nil {
		return resp
	}
	addText := func(text string) {
		resp.Content = append(resp.Content, Content{Type: "text", Text: text})
		if strings.Contains(text, ErrorMarker) {
			resp.Success = false
			if resp.Error == "" {
				resp.Error = text
			}
		}
	}
	addImage := func(data, mime string) {
		if mime == "" {
			mime = "image/png"
		}
		resp.Content = append(resp.Content, Content{Type: "image", Data: data, MIMEType: mime})
	}
	for _, c := range res.Content {
		switch v := c.(type) {
		case mcp.TextContent:
			addText(v.Text)
		case *mcp.TextContent:
			addText(v.Text)
		case mcp.ImageContent:
			addImage(v.Data, v.MIMEType)
		case *mcp.ImageContent:
			addImage(v.Data, v.MIMEType)
		}
	}
	if res.IsError {
		resp.Success = false
		if resp.Error == "" {
			if text, ok := resp.Text(); ok {
				resp.Error = text
			} else {
				resp.Error = "tool reported an error"
			}
		}
	}
	return resp
}

// Session is one live, initialized connection. It is used by a single
// scenario at a time and must be closed.
type Session struct {
	caller       Caller
	logger       *zap.Logger
	closeTimeout time.Duration

	mu     sync.Mutex
	closed bool
}

// Invoke calls a named operation. A non-nil error means the transport
// failed; a negative outcome reported by the server is Response.Success
// false.
func (s *Session) Invoke(ctx context.Context, op string, args map[string]any) (*Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}
	if args == nil {
		args = map[string]any{}
	}

	req := mcp.CallToolRequest{}
	req.Params.Name = op
	req.Params.Arguments = args

	res, err := s.caller.CallTool(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	resp := Normalize(res)
	s.logger.Debug("invoke", zap.String("op", op), zap.Bool("success", resp.Success), zap.Int("parts", len(resp.Content)))
	return resp, nil
}

// Close releases the browser and the transport. It runs on a fresh
// context so it still completes when the caller has been cancelled.
// Calling Close more than once is a no-op.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true

	ctx, cancel := context.WithTimeout(context.Background(), s.closeTimeout)
	defer cancel()
	req := mcp.CallToolRequest{}
	req.Params.Name = OpClose
	req.Params.Arguments = map[string]any{}
	if _, err := s.caller.CallTool(ctx, req); err != nil {
		s.logger.Debug("browser close failed", zap.Error(err))
	}

	if err := s.caller.Close(); err != nil {
		return fmt.Errorf("close transport: %w", err)
	}
	return nil
}
