package interactive

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/ormasoftchile/zarah/pkg/session"
)

func (s *Shell) handleNavigate(ctx context.Context, url string) {
	resp, err := s.browser.Navigate(ctx, url)
	if s.failed("navigate", resp, err) {
		return
	}
	fmt.Fprintf(s.output, "✓ Navigated to %s\n", url)
}

func (s *Shell) handleClick(ctx context.Context, selector string) {
	resp, err := s.browser.Click(ctx, selector)
	if s.failed("click", resp, err) {
		return
	}
	fmt.Fprintf(s.output, "✓ Clicked %s\n", selector)
}

func (s *Shell) handleType(ctx context.Context, selector, text string) {
	resp, err := s.browser.Type(ctx, selector, text)
	if s.failed("type", resp, err) {
		return
	}
	fmt.Fprintln(s.output, "✓ Typed text")
}

func (s *Shell) handleScreenshot(ctx context.Context, name string) {
	path, err := s.browser.Screenshot(ctx, name)
	if s.failed("screenshot", nil, err) {
		return
	}
	fmt.Fprintf(s.output, "✓ Screenshot saved: %s\n", path)
}

func (s *Shell) handleContent(ctx context.Context) {
	content, err := s.browser.GetContent(ctx)
	if s.failed("content", nil, err) {
		return
	}
	runes := []rune(content)
	if len(runes) > contentPreview {
		fmt.Fprintf(s.output, "\n%s...\n\n", string(runes[:contentPreview]))
		return
	}
	fmt.Fprintf(s.output, "\n%s\n\n", content)
}

func (s *Shell) handleAssert(ctx context.Context, text string) {
	found, err := s.browser.AssertTextPresent(ctx, text)
	if s.failed("assert", nil, err) {
		return
	}
	if found {
		fmt.Fprintf(s.output, "✓ Text found: %s\n", text)
	} else {
		fmt.Fprintf(s.output, "✗ Text not found: %s\n", text)
	}
}

func (s *Shell) handleWait(ctx context.Context, parts []string) {
	ms := defaultWaitMS
	if len(parts) > 1 {
		n, err := strconv.Atoi(parts[1])
		if err != nil || n < 0 {
			fmt.Fprintln(s.output, "Usage: wait [ms]")
			return
		}
		ms = n
	}
	resp, err := s.browser.Wait(ctx, "", ms)
	if s.failed("wait", resp, err) {
		return
	}
	fmt.Fprintf(s.output, "✓ Waited %dms\n", ms)
}

func (s *Shell) handleScroll(ctx context.Context, direction string) {
	if direction != "up" && direction != "down" {
		fmt.Fprintln(s.output, "Usage: scroll up|down")
		return
	}
	resp, err := s.browser.Scroll(ctx, direction, scrollAmount)
	if s.failed("scroll", resp, err) {
		return
	}
	fmt.Fprintf(s.output, "✓ Scrolled %s\n", direction)
}

func (s *Shell) handleHelp() {
	fmt.Fprintln(s.output, "Available commands:")
	fmt.Fprintln(s.output, "  navigate <url>     Navigate to URL")
	fmt.Fprintln(s.output, "  click <selector>   Click element")
	fmt.Fprintln(s.output, "  type <sel> <text>  Type into field")
	fmt.Fprintln(s.output, "  screenshot [name]  Take screenshot")
	fmt.Fprintln(s.output, "  content            Show page text (first 1000 chars)")
	fmt.Fprintln(s.output, "  assert <text>      Check text is present")
	fmt.Fprintln(s.output, "  wait [ms]          Wait (default 1000ms)")
	fmt.Fprintln(s.output, "  scroll <up|down>   Scroll page")
	fmt.Fprintln(s.output, "  close              Close browser")
	fmt.Fprintln(s.output, "  help (?)           Show this help")
	fmt.Fprintln(s.output, "  quit (q)           Exit")
}

// failed prints and logs a transport error or an unsuccessful response.
func (s *Shell) failed(cmd string, resp *session.Response, err error) bool {
	if err != nil {
		s.logger.Debug("command failed", zap.String("command", cmd), zap.Error(err))
		fmt.Fprintf(s.output, "✗ Error: %v\n", err)
		return true
	}
	if resp != nil && !resp.Success {
		msg := resp.Error
		if msg == "" {
			msg = "Unknown error"
		}
		fmt.Fprintf(s.output, "✗ Failed: %s\n", msg)
		return true
	}
	return false
}
