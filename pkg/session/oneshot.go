package session

import (
	"context"
	"errors"
	"strings"
)

// The one-shot operations open a session, perform a single call, and tear
// the session down again. Scenario runs hold one session instead.

func (m *Manager) once(ctx context.Context, op string, args map[string]any) (*Response, error) {
	var resp *Response
	err := m.With(ctx, func(s *Session) error {
		r, err := s.Invoke(ctx, op, args)
		resp = r
		return err
	})
	return resp, err
}

// Navigate loads url.
func (m *Manager) Navigate(ctx context.Context, url string) (*Response, error) {
	return m.once(ctx, OpNavigate, map[string]any{"url": url})
}

// Click clicks the element matching selector.
func (m *Manager) Click(ctx context.Context, selector string) (*Response, error) {
	return m.once(ctx, OpClick, map[string]any{"selector": selector})
}

// Type enters text into the element matching selector.
func (m *Manager) Type(ctx context.Context, selector, text string) (*Response, error) {
	return m.once(ctx, OpType, map[string]any{"selector": selector, "text": text})
}

// Wait waits for selector, or sleeps when selector is empty.
func (m *Manager) Wait(ctx context.Context, selector string, timeoutMS int) (*Response, error) {
	args := map[string]any{"timeout": timeoutMS}
	if selector != "" {
		args["selector"] = selector
	}
	return m.once(ctx, OpWait, args)
}

// Scroll scrolls the page up or down by amount pixels.
func (m *Manager) Scroll(ctx context.Context, direction string, amount int) (*Response, error) {
	return m.once(ctx, OpScroll, map[string]any{"direction": direction, "amount": amount})
}

// Screenshot captures the page and saves it under the manager's screenshot
// directory. It returns the saved path.
func (m *Manager) Screenshot(ctx context.Context, name string) (string, error) {
	resp, err := m.once(ctx, OpScreenshot, nil)
	if err != nil {
		return "", err
	}
	if !resp.Success {
		return "", errors.New(resp.Error)
	}
	img, ok := resp.Image()
	if !ok {
		return "", errors.New("screenshot response has no image")
	}
	return SaveScreenshot(m.screenshotDir, name, img.Data)
}

// GetContent returns the visible text of the page.
func (m *Manager) GetContent(ctx context.Context) (string, error) {
	resp, err := m.once(ctx, OpGetContent, nil)
	if err != nil {
		return "", err
	}
	if !resp.Success {
		return "", errors.New(resp.Error)
	}
	text, _ := resp.Text()
	return text, nil
}

// AssertTextPresent reports whether text appears in the page content,
// ignoring case.
func (m *Manager) AssertTextPresent(ctx context.Context, text string) (bool, error) {
	content, err := m.GetContent(ctx)
	if err != nil {
		return false, err
	}
	return strings.Contains(strings.ToLower(content), strings.ToLower(text)), nil
}
