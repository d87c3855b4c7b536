package session

import (
	"context"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	"github.com/ormasoftchile/zarah/pkg/logging"
)

// Manager opens sessions against one automation server.
type Manager struct {
	dial          Dialer
	logger        *zap.Logger
	clientName    string
	clientVersion string
	initTimeout   time.Duration
	closeTimeout  time.Duration
	openAttempts  int
	retryDelay    time.Duration
	screenshotDir string
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option { return func(m *Manager) { m.logger = logging.OrNop(l) } }

// WithClientInfo sets the name and version sent during initialize.
func WithClientInfo(name, version string) Option {
	return func(m *Manager) { m.clientName, m.clientVersion = name, version }
}

// WithInitTimeout bounds dial plus initialize.
func WithInitTimeout(d time.Duration) Option { return func(m *Manager) { m.initTimeout = d } }

// WithCloseTimeout bounds the close call made during teardown.
func WithCloseTimeout(d time.Duration) Option { return func(m *Manager) { m.closeTimeout = d } }

// WithOpenRetry makes Open try up to attempts times, sleeping delay between tries.
func WithOpenRetry(attempts int, delay time.Duration) Option {
	return func(m *Manager) { m.openAttempts, m.retryDelay = attempts, delay }
}

// WithScreenshotDir sets where one-shot screenshots are written.
func WithScreenshotDir(dir string) Option { return func(m *Manager) { m.screenshotDir = dir } }

// NewManager returns a Manager that dials with dial.
func NewManager(dial Dialer, opts ...Option) *Manager {
	m := &Manager{
		dial:          dial,
		logger:        zap.NewNop(),
		clientName:    "zarah",
		clientVersion: "dev",
		initTimeout:   30 * time.Second,
		closeTimeout:  5 * time.Second,
		openAttempts:  1,
		retryDelay:    time.Second,
		screenshotDir: ".",
	}
	for _, o := range opts {
		o(m)
	}
	if m.openAttempts < 1 {
		m.openAttempts = 1
	}
	return m
}

// ScreenshotDir is the directory screenshots are saved to.
func (m *Manager) ScreenshotDir() string { return m.screenshotDir }

// Open dials and initializes a session.
func (m *Manager) Open(ctx context.Context) (*Session, error) {
	var lastErr error
	for attempt := 1; attempt <= m.openAttempts; attempt++ {
		if attempt > 1 {
			m.logger.Warn("retrying session open", zap.Int("attempt", attempt), zap.Error(lastErr))
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(m.retryDelay):
			}
		}
		s, err := m.open(ctx)
		if err == nil {
			return s, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
	}
	return nil, lastErr
}

func (m *Manager) open(ctx context.Context) (*Session, error) {
	initCtx, cancel := context.WithTimeout(ctx, m.initTimeout)
	defer cancel()

	c, err := m.dial(initCtx)
	if err != nil {
		return nil, fmt.Errorf("open session: %w", err)
	}

	req := mcp.InitializeRequest{}
	req.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	req.Params.ClientInfo = mcp.Implementation{Name: m.clientName, Version: m.clientVersion}
	res, err := c.Initialize(initCtx, req)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("initialize session: %w", err)
	}

	server := ""
	if res != nil {
		server = res.ServerInfo.Name
	}
	m.logger.Debug("session opened", zap.String("server", server))
	return &Session{caller: c, logger: m.logger, closeTimeout: m.closeTimeout}, nil
}

// With opens a session, runs fn, and closes the session on every exit
// path including panics.
func (m *Manager) With(ctx context.Context, fn func(*Session) error) error {
	s, err := m.Open(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := s.Close(); cerr != nil {
			m.logger.Warn("session close", zap.Error(cerr))
		}
	}()
	return fn(s)
}
