// Package interactive implements the zarah REPL for driving the browser one
// command at a time.
package interactive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"go.uber.org/zap"

	"github.com/ormasoftchile/zarah/pkg/logging"
	"github.com/ormasoftchile/zarah/pkg/session"
)

// Browser is the set of one-shot operations the shell issues.
// *session.Manager implements it.
type Browser interface {
	Navigate(ctx context.Context, url string) (*session.Response, error)
	Click(ctx context.Context, selector string) (*session.Response, error)
	Type(ctx context.Context, selector, text string) (*session.Response, error)
	Wait(ctx context.Context, selector string, timeoutMS int) (*session.Response, error)
	Scroll(ctx context.Context, direction string, amount int) (*session.Response, error)
	Screenshot(ctx context.Context, name string) (string, error)
	GetContent(ctx context.Context) (string, error)
	AssertTextPresent(ctx context.Context, text string) (bool, error)
}

const (
	// Prompt is shown before every command.
	Prompt = "zarah> "

	contentPreview = 1000
	defaultWaitMS  = 1000
	scrollAmount   = 500
)

var commands = []string{"navigate", "click", "type", "screenshot", "content",
	"assert", "wait", "scroll", "close", "help", "quit"}

// Shell is the interactive REPL.
type Shell struct {
	browser Browser
	output  io.Writer
	logger  *zap.Logger
}

// Option configures a Shell.
type Option func(*Shell)

// WithOutput redirects command output; the default is stdout.
func WithOutput(w io.Writer) Option { return func(s *Shell) { s.output = w } }

// WithLogger sets the logger for command failures.
func WithLogger(l *zap.Logger) Option { return func(s *Shell) { s.logger = logging.OrNop(l) } }

// New creates a shell that sends commands to b.
func New(b Browser, opts ...Option) *Shell {
	s := &Shell{browser: b, output: os.Stdout, logger: zap.NewNop()}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Run reads commands until quit, EOF, interrupt or ctx cancellation.
func (s *Shell) Run(ctx context.Context) error {
	completer := readline.NewPrefixCompleter()
	for _, cmd := range commands {
		completer.Children = append(completer.Children, readline.PcItem(cmd))
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          Prompt,
		AutoComplete:    completer,
		InterruptPrompt: "^C",
		EOFPrompt:       "quit",
	})
	if err != nil {
		return fmt.Errorf("init readline: %w", err)
	}
	defer rl.Close()

	fmt.Fprintln(s.output, "zarah interactive mode")
	fmt.Fprintln(s.output, "Type 'help' for available commands, 'quit' to exit.")
	fmt.Fprintln(s.output)

	for ctx.Err() == nil {
		line, err := rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) || errors.Is(err, io.EOF) {
				fmt.Fprintln(s.output, "Goodbye!")
				return nil
			}
			return err
		}
		if quit := s.Exec(ctx, line); quit {
			return nil
		}
	}
	return nil
}

// Exec runs a single command line and reports whether the shell should exit.
// Command failures are printed; they never end the loop.
func (s *Shell) Exec(ctx context.Context, line string) bool {
	parts := splitArgs(line, 3)
	if len(parts) == 0 {
		return false
	}
	cmd := strings.ToLower(parts[0])

	switch {
	case cmd == "quit" || cmd == "exit" || cmd == "q":
		fmt.Fprintln(s.output, "Goodbye!")
		return true
	case cmd == "help" || cmd == "?":
		s.handleHelp()
	case cmd == "navigate" && len(parts) > 1:
		s.handleNavigate(ctx, parts[1])
	case cmd == "click" && len(parts) > 1:
		s.handleClick(ctx, parts[1])
	case cmd == "type" && len(parts) > 2:
		s.handleType(ctx, parts[1], parts[2])
	case cmd == "screenshot":
		name := "interactive"
		if len(parts) > 1 {
			name = parts[1]
		}
		s.handleScreenshot(ctx, name)
	case cmd == "content":
		s.handleContent(ctx)
	case cmd == "assert" && len(parts) > 1:
		s.handleAssert(ctx, strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), parts[0])))
	case cmd == "wait":
		s.handleWait(ctx, parts)
	case cmd == "scroll" && len(parts) > 1:
		s.handleScroll(ctx, strings.ToLower(parts[1]))
	case cmd == "close":
		// Every command runs in its own session, so no browser outlives it.
		fmt.Fprintln(s.output, "✓ Browser closed")
	default:
		fmt.Fprintf(s.output, "Unknown command: %s. Type 'help' for commands.\n", cmd)
	}
	return false
}

// splitArgs splits line on whitespace into at most n fields; the last field
// keeps the remainder of the line.
func splitArgs(line string, n int) []string {
	var out []string
	rest := strings.TrimSpace(line)
	for rest != "" && len(out) < n-1 {
		i := strings.IndexAny(rest, " \t")
		if i < 0 {
			break
		}
		out = append(out, rest[:i])
		rest = strings.TrimLeft(rest[i:], " \t")
	}
	if rest != "" {
		out = append(out, rest)
	}
	return out
}
