// Package browser implements the MCP browser automation server consumed by
// the session manager.
package browser

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// Driver is the browser surface the server needs. Implementations own
// exactly one browser and one page.
type Driver interface {
	Navigate(ctx context.Context, url string) (title string, err error)
	Screenshot(ctx context.Context) ([]byte, error)
	Click(ctx context.Context, selector string, timeout time.Duration) error
	ClickText(ctx context.Context, text string, timeout time.Duration) error
	Fill(ctx context.Context, selector, text string) error
	Text(ctx context.Context) (string, error)
	HTML(ctx context.Context) (string, error)
	ScrollBy(ctx context.Context, dy int) error
	WaitFor(ctx context.Context, selector string, timeout time.Duration) error
	Close() error
}

// RodOptions configures the Chromium launch.
type RodOptions struct {
	Headless bool
	Bin      string // browser binary; empty lets rod find or download one
}

// RodDriver drives Chromium over the DevTools protocol. The browser is
// launched on first use and again after Close.
type RodDriver struct {
	opts RodOptions

	mu      sync.Mutex
	browser *rod.Browser
	page    *rod.Page
}

// NewRodDriver returns a driver that launches lazily.
func NewRodDriver(opts RodOptions) *RodDriver {
	return &RodDriver{opts: opts}
}

func (d *RodDriver) pageFor(ctx context.Context) (*rod.Page, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.browser == nil {
		l := launcher.New().Headless(d.opts.Headless).NoSandbox(true)
		if d.opts.Bin != "" {
			l = l.Bin(d.opts.Bin)
		}
		u, err := l.Launch()
		if err != nil {
			return nil, fmt.Errorf("launch browser: %w", err)
		}
		b := rod.New().ControlURL(u)
		if err := b.Connect(); err != nil {
			return nil, fmt.Errorf("connect browser: %w", err)
		}
		d.browser = b
	}
	if d.page == nil {
		p, err := d.browser.Page(proto.TargetCreateTarget{})
		if err != nil {
			return nil, fmt.Errorf("open page: %w", err)
		}
		d.page = p
	}
	return d.page.Context(ctx), nil
}

func (d *RodDriver) Navigate(ctx context.Context, url string) (string, error) {
	p, err := d.pageFor(ctx)
	if err != nil {
		return "", err
	}
	if err := p.Navigate(url); err != nil {
		return "", err
	}
	if err := p.WaitLoad(); err != nil {
		return "", err
	}
	info, err := p.Info()
	if err != nil {
		return "", err
	}
	return info.Title, nil
}

func (d *RodDriver) Screenshot(ctx context.Context) ([]byte, error) {
	p, err := d.pageFor(ctx)
	if err != nil {
		return nil, err
	}
	return p.Screenshot(false, &proto.PageCaptureScreenshot{Format: proto.PageCaptureScreenshotFormatPng})
}

func (d *RodDriver) Click(ctx context.Context, selector string, timeout time.Duration) error {
	p, err := d.pageFor(ctx)
	if err != nil {
		return err
	}
	el, err := p.Timeout(timeout).Element(selector)
	if err != nil {
		return err
	}
	return el.Click(proto.InputMouseButtonLeft, 1)
}

func (d *RodDriver) ClickText(ctx context.Context, text string, timeout time.Duration) error {
	p, err := d.pageFor(ctx)
	if err != nil {
		return err
	}
	el, err := p.Timeout(timeout).ElementX(textXPath(text))
	if err != nil {
		return err
	}
	return el.Click(proto.InputMouseButtonLeft, 1)
}

// textXPath matches the innermost element whose own text contains text.
func textXPath(text string) string {
	return fmt.Sprintf("//*[contains(normalize-space(text()), %s)]", xpathLiteral(text))
}

// xpathLiteral quotes s for XPath 1.0, which has no escape sequences.
func xpathLiteral(s string) string {
	if !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}
	if !strings.Contains(s, "'") {
		return "'" + s + "'"
	}
	parts := strings.Split(s, `"`)
	quoted := make([]string, len(parts))
	for i, p := range parts {
		quoted[i] = `"` + p + `"`
	}
	return "concat(" + strings.Join(quoted, `, '"', `) + ")"
}

func (d *RodDriver) Fill(ctx context.Context, selector, text string) error {
	p, err := d.pageFor(ctx)
	if err != nil {
		return err
	}
	el, err := p.Element(selector)
	if err != nil {
		return err
	}
	if err := el.SelectAllText(); err != nil {
		return err
	}
	return el.Input(text)
}

func (d *RodDriver) Text(ctx context.Context) (string, error) {
	p, err := d.pageFor(ctx)
	if err != nil {
		return "", err
	}
	obj, err := p.Eval(`() => document.body ? document.body.innerText : ""`)
	if err != nil {
		return "", err
	}
	return obj.Value.String(), nil
}

func (d *RodDriver) HTML(ctx context.Context) (string, error) {
	p, err := d.pageFor(ctx)
	if err != nil {
		return "", err
	}
	return p.HTML()
}

func (d *RodDriver) ScrollBy(ctx context.Context, dy int) error {
	p, err := d.pageFor(ctx)
	if err != nil {
		return err
	}
	_, err = p.Eval(`(dy) => window.scrollBy(0, dy)`, dy)
	return err
}

func (d *RodDriver) WaitFor(ctx context.Context, selector string, timeout time.Duration) error {
	p, err := d.pageFor(ctx)
	if err != nil {
		return err
	}
	_, err = p.Timeout(timeout).Element(selector)
	return err
}

// Close releases the page and the browser. The driver can be used again
// afterwards.
func (d *RodDriver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	var errs []string
	if d.page != nil {
		if err := d.page.Close(); err != nil {
			errs = append(errs, err.Error())
		}
		d.page = nil
	}
	if d.browser != nil {
		if err := d.browser.Close(); err != nil {
			errs = append(errs, err.Error())
		}
		d.browser = nil
	}
	if len(errs) > 0 {
		return fmt.Errorf("close browser: %s", strings.Join(errs, "; "))
	}
	return nil
}
