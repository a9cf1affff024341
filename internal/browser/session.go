// Package browser owns the headless Chrome session and the DOM primitives
// used to drive the MEBBIS portal. Exactly one logical page lives behind a
// Session, and a Session must never be used by two interleaved workflows:
// callers hold the session via Acquire/Release for a whole logical
// operation.
package browser

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"mebbisauto/internal/logger"
	"mebbisauto/internal/routes"
)

// Config for one browser session.
type Config struct {
	Username    string
	Password    string
	Headless    bool
	Timeout     time.Duration
	DevToolsURL string // attach instead of launch when set
	ChromePath  string
	DebugPort   int
}

// Session manages one authenticated connection to the portal. The logged-in
// flag is the only cross-call mutable state; it is checked before every
// navigation and written only by the login routine.
type Session struct {
	cfg    Config
	table  routes.Table
	log    logger.Logger
	use    *semaphore.Weighted
	closeO sync.Once

	tr       transport
	loggedIn bool
}

// NewSession builds a session; Start must be called before use.
func NewSession(cfg Config, table routes.Table, l logger.Logger) *Session {
	if l == nil {
		l = logger.NewNop()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if table == nil {
		table = routes.Defaults()
	}
	return &Session{cfg: cfg, table: table, log: l, use: semaphore.NewWeighted(1)}
}

// Acquire takes exclusive use of the session for one logical operation.
// Interleaving primitive calls from two workflows corrupts the portal's
// server-side postback state, so every public workflow entry point must
// hold the session from first navigation to final classification.
func (s *Session) Acquire(ctx context.Context) error { return s.use.Acquire(ctx, 1) }

// Release returns the session after Acquire.
func (s *Session) Release() { s.use.Release(1) }

// Start connects the session to a browser page. A failed start leaves the
// session detached, with nothing to clean up.
func (s *Session) Start(ctx context.Context) error {
	if s.tr != nil {
		return nil
	}
	tr, err := newCDPTransport(ctx, s.cfg, s.log)
	if err != nil {
		return err
	}
	s.tr = tr
	return nil
}

// Close tears the session down. Safe to call any number of times.
func (s *Session) Close() error {
	s.closeO.Do(func() {
		if s.tr != nil {
			_ = s.tr.close()
			s.tr = nil
		}
		s.loggedIn = false
		s.log.Info("tarayıcı oturumu kapatıldı")
	})
	return nil
}

// EnsureReady guarantees an authenticated, live session. Not live means the
// logged-in flag is unset or the portal bounced us back to its login page;
// either way one login sequence runs before returning.
func (s *Session) EnsureReady(ctx context.Context) error {
	if s.tr == nil {
		return ErrNotAttached
	}
	if s.loggedIn {
		onLogin, err := s.IsOnPage(ctx, "login.aspx")
		if err != nil {
			return err
		}
		if !onLogin {
			return nil
		}
		s.loggedIn = false
		s.log.Warn("oturum düşmüş, yeniden giriş yapılıyor")
	}
	return s.login(ctx)
}

// login runs the credential sequence once and classifies the outcome by the
// resulting URL, falling back to the portal's error banner. Never retried
// here: a failed login is operator-retryable, not loop-retryable.
func (s *Session) login(ctx context.Context) error {
	loginURL, err := s.table.URL(routes.Login)
	if err != nil {
		return err
	}
	s.log.Info("MEBBIS giriş sayfasına gidiliyor")
	if err := s.tr.navigate(ctx, loginURL); err != nil {
		return err
	}
	if err := s.WaitForElement(ctx, "#txtKullaniciAd"); err != nil {
		return &AuthError{Detail: err.Error()}
	}
	if err := s.FillField(ctx, "#txtKullaniciAd", s.cfg.Username); err != nil {
		return &AuthError{Detail: err.Error()}
	}
	if err := s.FillField(ctx, "#txtSifre", s.cfg.Password); err != nil {
		return &AuthError{Detail: err.Error()}
	}
	if err := s.tr.clickAndAwaitLoad(ctx, "#btnGiris"); err != nil {
		return &AuthError{Detail: err.Error()}
	}
	if err := s.WaitForReady(ctx); err != nil {
		return &AuthError{Detail: err.Error()}
	}

	url, err := s.CurrentURL(ctx)
	if err != nil {
		return err
	}
	if strings.Contains(url, "UygulamaListesi") || strings.Contains(url, "Anasayfa") {
		s.loggedIn = true
		s.log.Info("MEBBIS girişi başarılı")
		return nil
	}
	detail, ok, _ := s.GetText(ctx, ".error-message, .alert-danger")
	if !ok {
		detail = "bilinmeyen giriş hatası"
	}
	s.log.Error("MEBBIS girişi başarısız", "detail", detail, "url", url)
	return &AuthError{Detail: strings.TrimSpace(detail)}
}

// NavigateTo resolves a logical page, re-authenticates if needed, navigates
// and waits for the page to become interactive.
func (s *Session) NavigateTo(ctx context.Context, p routes.Page) error {
	if err := s.EnsureReady(ctx); err != nil {
		return err
	}
	url, err := s.table.URL(p)
	if err != nil {
		return err
	}
	s.log.Debug("sayfaya gidiliyor", "page", string(p), "url", url)
	if err := s.tr.navigate(ctx, url); err != nil {
		return err
	}
	return s.WaitForReady(ctx)
}

// Screenshot captures the full page as PNG, for operator troubleshooting.
func (s *Session) Screenshot(ctx context.Context, path string) error {
	if s.tr == nil {
		return ErrNotAttached
	}
	data, err := s.tr.screenshot(ctx)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return err
	}
	s.log.Info("ekran görüntüsü kaydedildi", "path", path)
	return nil
}
