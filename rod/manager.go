package rod

import (
	"cmp"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
)

// DefaultMaxPages is how many pages one Chrome process serves before it is
// replaced.
const DefaultMaxPages = 50

// session is one running Chrome and the launcher owning its process.
type session struct {
	browser  *rod.Browser
	launcher *launcher.Launcher
}

func (s *session) shutdown() error {
	if s == nil {
		return nil
	}
	err := s.browser.Close()
	s.launcher.Kill()
	return err
}

// BrowserManager owns the Chrome used for challenge-protected movie pages.
// A long-lived Chrome only grows in memory, so the process is replaced after
// every maxPages pages.
//
// BrowserManager is safe for concurrent use.
type BrowserManager struct {
	mu       sync.Mutex
	current  *session
	served   atomic.Int64
	maxPages int64
	bin      string
	logger   *slog.Logger
	closed   atomic.Bool
}

// ManagerOption configures a BrowserManager.
type ManagerOption func(*BrowserManager)

// WithMaxPages sets how many pages a Chrome process serves before it is
// replaced. Defaults to DefaultMaxPages.
func WithMaxPages(n int64) ManagerOption {
	return func(bm *BrowserManager) {
		bm.maxPages = n
	}
}

// WithBrowserBin uses the Chrome binary at path instead of looking one up.
func WithBrowserBin(path string) ManagerOption {
	return func(bm *BrowserManager) {
		bm.bin = path
	}
}

// WithManagerLogger logs Chrome starts and rotations.
func WithManagerLogger(l *slog.Logger) ManagerOption {
	return func(bm *BrowserManager) {
		bm.logger = l
	}
}

// NewBrowserManager starts Chrome. Close must be called to stop it.
func NewBrowserManager(opts ...ManagerOption) (*BrowserManager, error) {
	bm := &BrowserManager{
		maxPages: DefaultMaxPages,
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(bm)
	}

	s, err := bm.start()
	if err != nil {
		return nil, err
	}
	bm.current = s
	return bm, nil
}

// Browser returns the Chrome to open the next page in, rotating it first once
// maxPages pages were served. A failed rotation keeps the current process.
// Report every loaded page with PageServed. Browser returns nil after Close.
func (bm *BrowserManager) Browser() *rod.Browser {
	bm.mu.Lock()
	defer bm.mu.Unlock()

	if bm.current == nil {
		return nil
	}
	if bm.served.Load() >= bm.maxPages {
		bm.rotate()
	}
	return bm.current.browser
}

// PageServed counts one loaded page toward the rotation threshold.
func (bm *BrowserManager) PageServed() {
	bm.served.Add(1)
}

// Close stops Chrome. Later calls are no-ops.
func (bm *BrowserManager) Close() error {
	if !bm.closed.CompareAndSwap(false, true) {
		return nil
	}

	bm.mu.Lock()
	defer bm.mu.Unlock()

	err := bm.current.shutdown()
	bm.current = nil
	return err
}

// start runs a headless Chrome with its automation markers removed, so
// challenge scripts see an ordinary browser.
func (bm *BrowserManager) start() (*session, error) {
	l := launcher.New().
		Headless(true).
		Leakless(true).
		Delete("enable-automation").
		Set("disable-blink-features", "AutomationControlled").
		Set("disable-dev-shm-usage").
		Set("disable-hang-monitor")
	if bm.bin != "" {
		l = l.Bin(bm.bin)
	}

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("start chrome: %w", err)
	}
	b := rod.New().ControlURL(controlURL)
	if err := b.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("connect to chrome at %s: %w", controlURL, err)
	}

	bm.logger.Debug("chrome started", "pid", l.PID(), "bin", cmp.Or(bm.bin, "auto"))
	return &session{browser: b, launcher: l}, nil
}

// rotate swaps in a fresh Chrome and stops the old one. Must be called with
// mu held.
func (bm *BrowserManager) rotate() {
	next, err := bm.start()
	if err != nil {
		bm.logger.Warn("chrome rotation failed", "served", bm.served.Load(), "err", err)
		return
	}

	old := bm.current
	bm.current = next
	bm.logger.Info("chrome rotated", "served", bm.served.Swap(0), "pid", next.launcher.PID())
	_ = old.shutdown()
}

// LauncherPID returns the Chrome launcher's process ID, or 0 once closed.
func (bm *BrowserManager) LauncherPID() int {
	bm.mu.Lock()
	defer bm.mu.Unlock()
	if bm.current == nil {
		return 0
	}
	return bm.current.launcher.PID()
}
