package browser

import (
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/ormasoftchile/zarah/pkg/logging"
)

// ServerName is the MCP implementation name the server reports.
const ServerName = "browser-use-mcp"

// Tool names. They match the session operation names.
const (
	ToolNavigate   = "browser_navigate"
	ToolScreenshot = "browser_screenshot"
	ToolClick      = "browser_click"
	ToolType       = "browser_type"
	ToolGetContent = "browser_get_content"
	ToolGetHTML    = "browser_get_html"
	ToolScroll     = "browser_scroll"
	ToolWait       = "browser_wait"
	ToolClose      = "browser_close"
)

// Server exposes a Driver as MCP tools.
type Server struct {
	driver Driver
	logger *zap.Logger
}

// NewServer wraps driver. A nil logger discards output.
func NewServer(driver Driver, logger *zap.Logger) *Server {
	return &Server{driver: driver, logger: logging.OrNop(logger)}
}

// MCP builds the MCP server with every browser tool registered.
func (s *Server) MCP(version string) *server.MCPServer {
	m := server.NewMCPServer(
		ServerName,
		version,
		server.WithToolCapabilities(true),
	)

	m.AddTool(
		mcp.NewTool(ToolNavigate,
			mcp.WithDescription("Navigate to a URL"),
			mcp.WithString("url", mcp.Required(), mcp.Description("URL to navigate to")),
		),
		s.HandleNavigate,
	)

	m.AddTool(
		mcp.NewTool(ToolScreenshot,
			mcp.WithDescription("Take a screenshot of the current page"),
		),
		s.HandleScreenshot,
	)

	m.AddTool(
		mcp.NewTool(ToolClick,
			mcp.WithDescription("Click on an element by selector or by visible text"),
			mcp.WithString("selector", mcp.Required(), mcp.Description("CSS selector or text of the element")),
		),
		s.HandleClick,
	)

	m.AddTool(
		mcp.NewTool(ToolType,
			mcp.WithDescription("Type text into an input element"),
			mcp.WithString("selector", mcp.Required(), mcp.Description("CSS selector of the input")),
			mcp.WithString("text", mcp.Required(), mcp.Description("Text to type")),
		),
		s.HandleType,
	)

	m.AddTool(
		mcp.NewTool(ToolGetContent,
			mcp.WithDescription("Get the visible text content of the page"),
		),
		s.HandleGetContent,
	)

	m.AddTool(
		mcp.NewTool(ToolGetHTML,
			mcp.WithDescription("Get the HTML of the page"),
		),
		s.HandleGetHTML,
	)

	m.AddTool(
		mcp.NewTool(ToolScroll,
			mcp.WithDescription("Scroll the page"),
			mcp.WithString("direction", mcp.Required(), mcp.Enum("up", "down"), mcp.Description("Scroll direction")),
			mcp.WithNumber("amount", mcp.Description("Pixels to scroll (default 500)")),
		),
		s.HandleScroll,
	)

	m.AddTool(
		mcp.NewTool(ToolWait,
			mcp.WithDescription("Wait for an element or a fixed time"),
			mcp.WithString("selector", mcp.Description("CSS selector to wait for (optional)")),
			mcp.WithNumber("timeout", mcp.Description("Timeout in milliseconds (default 1000)")),
		),
		s.HandleWait,
	)

	m.AddTool(
		mcp.NewTool(ToolClose,
			mcp.WithDescription("Close the browser"),
		),
		s.HandleClose,
	)

	return m
}

// ServeStdio serves the tools over stdin and stdout until stdin closes.
func (s *Server) ServeStdio(version string) error {
	defer func() {
		if err := s.driver.Close(); err != nil {
			s.logger.Warn("close browser", zap.Error(err))
		}
	}()
	return server.ServeStdio(s.MCP(version))
}
