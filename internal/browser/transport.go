package browser

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"time"

	"github.com/mafredri/cdp"
	"github.com/mafredri/cdp/devtool"
	"github.com/mafredri/cdp/protocol/page"
	"github.com/mafredri/cdp/protocol/runtime"
	"github.com/mafredri/cdp/rpcc"
	"github.com/tidwall/gjson"

	"mebbisauto/internal/logger"
)

// transport is the raw page connection underneath a Session. The session
// layer owns login state and the route table; the transport owns the
// process, the socket and the evaluate/navigate mechanics.
type transport interface {
	eval(ctx context.Context, expr string) (gjson.Result, error)
	navigate(ctx context.Context, url string) error
	clickAndAwaitLoad(ctx context.Context, selector string) error
	screenshot(ctx context.Context) ([]byte, error)
	close() error
}

// cdpTransport drives one Chrome page target over the DevTools protocol.
type cdpTransport struct {
	timeout time.Duration
	log     logger.Logger

	cmd     *exec.Cmd
	dataDir string
	conn    *rpcc.Conn
	client  *cdp.Client
}

// newCDPTransport launches headless Chrome (or attaches to cfg.DevToolsURL)
// and connects a CDP client to its first page target. Every error path
// releases whatever was already acquired, so a failed start leaves no
// process, profile directory or socket behind.
func newCDPTransport(ctx context.Context, cfg Config, log logger.Logger) (*cdpTransport, error) {
	t := &cdpTransport{timeout: cfg.Timeout, log: log}

	devtoolsURL := cfg.DevToolsURL
	if devtoolsURL == "" {
		url, err := t.launchChrome(ctx, cfg)
		if err != nil {
			t.close()
			return nil, err
		}
		devtoolsURL = url
	}

	dt := devtool.New(devtoolsURL)
	target, err := dt.Get(ctx, devtool.Page)
	if err != nil {
		target, err = dt.Create(ctx)
		if err != nil {
			t.close()
			return nil, fmt.Errorf("sayfa hedefi açılamadı: %w", err)
		}
	}
	conn, err := rpcc.DialContext(ctx, target.WebSocketDebuggerURL)
	if err != nil {
		t.close()
		return nil, fmt.Errorf("devtools bağlantısı kurulamadı: %w", err)
	}
	t.conn = conn
	t.client = cdp.NewClient(conn)

	if err := t.client.Page.Enable(ctx); err != nil {
		t.close()
		return nil, fmt.Errorf("page domain etkinleştirilemedi: %w", err)
	}
	log.Info("tarayıcı oturumu hazır", "devtools", devtoolsURL)
	return t, nil
}

// launchChrome starts a local Chrome with remote debugging and waits for
// the devtools endpoint to answer.
func (t *cdpTransport) launchChrome(ctx context.Context, cfg Config) (string, error) {
	dataDir, err := os.MkdirTemp("", "mebbis-chrome-")
	if err != nil {
		return "", fmt.Errorf("profil dizini oluşturulamadı: %w", err)
	}
	t.dataDir = dataDir

	args := []string{
		fmt.Sprintf("--remote-debugging-port=%d", cfg.DebugPort),
		"--user-data-dir=" + dataDir,
		"--no-first-run",
		"--no-default-browser-check",
		"--disable-gpu",
		"--window-size=1280,720",
		"--lang=tr-TR",
	}
	if cfg.Headless {
		args = append(args, "--headless=new")
	}
	cmd := exec.Command(cfg.ChromePath, args...)
	if err := cmd.Start(); err != nil {
		return "", fmt.Errorf("chrome başlatılamadı (%s): %w", cfg.ChromePath, err)
	}
	t.cmd = cmd

	url := fmt.Sprintf("http://127.0.0.1:%d", cfg.DebugPort)
	deadline := time.Now().Add(30 * time.Second)
	for {
		resp, err := http.Get(url + "/json/version")
		if err == nil {
			resp.Body.Close()
			break
		}
		if time.Now().After(deadline) {
			return "", fmt.Errorf("devtools uç noktası yanıt vermedi: %w", err)
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(200 * time.Millisecond):
		}
	}
	t.log.Info("chrome başlatıldı", "port", cfg.DebugPort, "headless", cfg.Headless)
	return url, nil
}

// close tears down whatever parts of the transport exist. Safe on a
// partially built transport.
func (t *cdpTransport) close() error {
	if t.conn != nil {
		t.conn.Close()
		t.conn = nil
	}
	if t.cmd != nil && t.cmd.Process != nil {
		_ = t.cmd.Process.Kill()
		_, _ = t.cmd.Process.Wait()
		t.cmd = nil
	}
	if t.dataDir != "" {
		_ = os.RemoveAll(t.dataDir)
		t.dataDir = ""
	}
	t.client = nil
	return nil
}

// eval runs an expression in the page and returns its JSON value.
func (t *cdpTransport) eval(ctx context.Context, expr string) (gjson.Result, error) {
	opctx, cancel := t.opCtx(ctx)
	defer cancel()

	rep, err := t.client.Runtime.Evaluate(opctx, runtime.NewEvaluateArgs(expr).SetReturnByValue(true))
	if err != nil {
		if errors.Is(opctx.Err(), context.DeadlineExceeded) {
			return gjson.Result{}, &TimeoutError{Op: "evaluate", Budget: t.timeout}
		}
		return gjson.Result{}, fmt.Errorf("betik çalıştırılamadı: %w", err)
	}
	if rep.ExceptionDetails != nil {
		return gjson.Result{}, fmt.Errorf("sayfa içi betik hatası: %s", rep.ExceptionDetails.Text)
	}
	if rep.Result.Value == nil {
		return gjson.Result{}, nil
	}
	return gjson.ParseBytes(rep.Result.Value), nil
}

// navigate issues a raw navigation and waits for the load event.
func (t *cdpTransport) navigate(ctx context.Context, url string) error {
	opctx, cancel := t.opCtx(ctx)
	defer cancel()

	loadFired, err := t.client.Page.LoadEventFired(opctx)
	if err != nil {
		return fmt.Errorf("load olayı izlenemedi: %w", err)
	}
	defer loadFired.Close()

	if _, err := t.client.Page.Navigate(opctx, page.NewNavigateArgs(url)); err != nil {
		return fmt.Errorf("gezinme başarısız (%s): %w", url, err)
	}
	if _, err := loadFired.Recv(); err != nil {
		return &TimeoutError{Op: "navigate", Selector: url, Budget: t.timeout}
	}
	return nil
}

// clickAndAwaitLoad clicks an element expected to trigger a full page
// navigation and waits for the load event of the new document.
func (t *cdpTransport) clickAndAwaitLoad(ctx context.Context, selector string) error {
	opctx, cancel := t.opCtx(ctx)
	defer cancel()

	loadFired, err := t.client.Page.LoadEventFired(opctx)
	if err != nil {
		return fmt.Errorf("load olayı izlenemedi: %w", err)
	}
	defer loadFired.Close()

	expr := fmt.Sprintf(`(() => {
		const el = document.querySelector(%s);
		if (!el) return false;
		el.click();
		return true;
	})()`, quote(selector))
	res, err := t.eval(ctx, expr)
	if err != nil {
		return err
	}
	if !res.Bool() {
		return &ElementNotFoundError{Selector: selector}
	}
	if _, err := loadFired.Recv(); err != nil {
		return &TimeoutError{Op: "clickAndAwaitLoad", Selector: selector, Budget: t.timeout}
	}
	return nil
}

// screenshot captures the full page as PNG.
func (t *cdpTransport) screenshot(ctx context.Context) ([]byte, error) {
	opctx, cancel := t.opCtx(ctx)
	defer cancel()
	rep, err := t.client.Page.CaptureScreenshot(opctx, page.NewCaptureScreenshotArgs().SetFormat("png"))
	if err != nil {
		return nil, fmt.Errorf("ekran görüntüsü alınamadı: %w", err)
	}
	return rep.Data, nil
}

// opCtx derives the per-operation timeout budget.
func (t *cdpTransport) opCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, t.timeout)
}
