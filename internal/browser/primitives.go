package browser

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// Primitives are the bounded-latency vocabulary workflows drive the portal
// with. None of them waits for page readiness implicitly; after an action
// that triggers a postback the caller must call WaitForReady before the
// next primitive, otherwise a slow reload is silently masked.

// eval runs an expression in the page and returns its JSON value.
func (s *Session) eval(ctx context.Context, expr string) (gjson.Result, error) {
	if s.tr == nil {
		return gjson.Result{}, ErrNotAttached
	}
	return s.tr.eval(ctx, expr)
}

// quote turns a Go string into a JS string literal.
func quote(s string) string { return strconv.Quote(s) }

// FillField sets an input's value and fires input/change so the portal's
// own handlers see the edit. Missing element is a hard failure.
func (s *Session) FillField(ctx context.Context, selector, value string) error {
	expr := fmt.Sprintf(`(() => {
		const el = document.querySelector(%s);
		if (!el) return false;
		el.value = %s;
		el.dispatchEvent(new Event('input', { bubbles: true }));
		el.dispatchEvent(new Event('change', { bubbles: true }));
		return true;
	})()`, quote(selector), quote(value))
	res, err := s.eval(ctx, expr)
	if err != nil {
		return err
	}
	if !res.Bool() {
		return &ElementNotFoundError{Selector: selector}
	}
	return nil
}

// SelectOption picks an option by value and fires change. On the portal's
// cascading selects the change event starts a full postback; callers wait
// for page-ready before touching the dependent select.
func (s *Session) SelectOption(ctx context.Context, selector, value string) error {
	expr := fmt.Sprintf(`(() => {
		const el = document.querySelector(%s);
		if (!el) return false;
		el.value = %s;
		el.dispatchEvent(new Event('change', { bubbles: true }));
		return true;
	})()`, quote(selector), quote(value))
	res, err := s.eval(ctx, expr)
	if err != nil {
		return err
	}
	if !res.Bool() {
		return &ElementNotFoundError{Selector: selector}
	}
	return nil
}

// Click clicks an element. Missing element is a hard failure.
func (s *Session) Click(ctx context.Context, selector string) error {
	expr := fmt.Sprintf(`(() => {
		const el = document.querySelector(%s);
		if (!el) return false;
		el.click();
		return true;
	})()`, quote(selector))
	res, err := s.eval(ctx, expr)
	if err != nil {
		return err
	}
	if !res.Bool() {
		return &ElementNotFoundError{Selector: selector}
	}
	return nil
}

// ElementExists reports presence without failing on absence.
func (s *Session) ElementExists(ctx context.Context, selector string) (bool, error) {
	res, err := s.eval(ctx, fmt.Sprintf(`document.querySelector(%s) !== null`, quote(selector)))
	if err != nil {
		return false, err
	}
	return res.Bool(), nil
}

// GetText returns an element's text content; ok is false when the element
// is absent.
func (s *Session) GetText(ctx context.Context, selector string) (string, bool, error) {
	expr := fmt.Sprintf(`(() => {
		const el = document.querySelector(%s);
		return el ? el.textContent : null;
	})()`, quote(selector))
	res, err := s.eval(ctx, expr)
	if err != nil {
		return "", false, err
	}
	if res.Type == gjson.Null || !res.Exists() {
		return "", false, nil
	}
	return res.String(), true, nil
}

// OuterHTML returns an element's outer HTML for the parsers; ok is false
// when the container is absent.
func (s *Session) OuterHTML(ctx context.Context, selector string) (string, bool, error) {
	expr := fmt.Sprintf(`(() => {
		const el = document.querySelector(%s);
		return el ? el.outerHTML : null;
	})()`, quote(selector))
	res, err := s.eval(ctx, expr)
	if err != nil {
		return "", false, err
	}
	if res.Type == gjson.Null || !res.Exists() {
		return "", false, nil
	}
	return res.String(), true, nil
}

// WaitForElement polls until the element is present or the budget runs out.
func (s *Session) WaitForElement(ctx context.Context, selector string) error {
	expr := fmt.Sprintf(`document.querySelector(%s) !== null`, quote(selector))
	deadline := time.Now().Add(s.cfg.Timeout)
	for {
		res, err := s.eval(ctx, expr)
		if err != nil {
			return err
		}
		if res.Bool() {
			return nil
		}
		if time.Now().After(deadline) {
			return &TimeoutError{Op: "waitForElement", Selector: selector, Budget: s.cfg.Timeout}
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(100 * time.Millisecond):
		}
	}
}

// readyExpr is true when the document finished loading and no loading
// indicator is visible.
const readyExpr = `document.readyState === 'complete' &&
	!Array.from(document.querySelectorAll('.loading, .spinner')).some(el => el.offsetParent !== null)`

// WaitForReady waits for the page to reach a stable, interactive state.
// The portal is full-postback, so "stable" is the load having completed
// with no spinner visible on two consecutive samples (a short quiet
// period, standing in for network idle).
func (s *Session) WaitForReady(ctx context.Context) error {
	deadline := time.Now().Add(s.cfg.Timeout)
	stable := 0
	for {
		res, err := s.eval(ctx, "("+readyExpr+")")
		if err != nil {
			return err
		}
		if res.Bool() {
			stable++
			if stable >= 2 {
				return nil
			}
		} else {
			stable = 0
		}
		if time.Now().After(deadline) {
			return &TimeoutError{Op: "waitForReady", Budget: s.cfg.Timeout}
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(150 * time.Millisecond):
		}
	}
}

// RunScript evaluates a read-only in-page query and returns its JSON
// result. It is the parsing substrate: scripts must not mutate the DOM.
func (s *Session) RunScript(ctx context.Context, script string) (gjson.Result, error) {
	return s.eval(ctx, script)
}

// CurrentURL reads the page's location.
func (s *Session) CurrentURL(ctx context.Context) (string, error) {
	res, err := s.eval(ctx, `location.href`)
	if err != nil {
		return "", err
	}
	return res.String(), nil
}

// IsOnPage reports whether the current URL contains the given fragment,
// case-insensitively.
func (s *Session) IsOnPage(ctx context.Context, fragment string) (bool, error) {
	url, err := s.CurrentURL(ctx)
	if err != nil {
		return false, err
	}
	return strings.Contains(strings.ToLower(url), strings.ToLower(fragment)), nil
}
