// Package workflow encodes the portal's business transactions as scripted
// sequences of browser primitives. Each service owns one capability
// (education entry, student sync, invoicing, BEP forms) and is the boundary
// that turns infrastructure faults into safe, returned failure results once
// a remote interaction has begun.
package workflow

import (
	"context"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"mebbisauto/internal/routes"
	"mebbisauto/pkg/model"
)

// Driver is the primitive vocabulary the services drive the portal with.
// *browser.Session implements it; tests substitute a scripted fake.
type Driver interface {
	// Acquire/Release give a workflow exclusive use of the session for one
	// logical operation. Primitive calls from two concurrent operations
	// must never interleave on one session.
	Acquire(ctx context.Context) error
	Release()

	NavigateTo(ctx context.Context, p routes.Page) error
	WaitForReady(ctx context.Context) error

	FillField(ctx context.Context, selector, value string) error
	SelectOption(ctx context.Context, selector, value string) error
	Click(ctx context.Context, selector string) error
	WaitForElement(ctx context.Context, selector string) error
	ElementExists(ctx context.Context, selector string) (bool, error)
	GetText(ctx context.Context, selector string) (string, bool, error)
	OuterHTML(ctx context.Context, selector string) (string, bool, error)
	RunScript(ctx context.Context, script string) (gjson.Result, error)
}

// Outcome indicator selectors shared by every submission page of the
// portal.
const (
	selSuccessBanner = ".alert-success, .mesaj-basarili"
	selErrorBanner   = ".alert-danger, .mesaj-hata, .error-message"

	msgUnknownError = "Bilinmeyen hata"
)

// classify reads the submission outcome from the page. Absence of both
// indicators is never treated as success: the error message falls back to
// a generic one so the caller still sees a failure.
func classify(ctx context.Context, drv Driver) (bool, string, error) {
	ok, err := drv.ElementExists(ctx, selSuccessBanner)
	if err != nil {
		return false, "", err
	}
	if ok {
		return true, "", nil
	}
	msg, found, err := drv.GetText(ctx, selErrorBanner)
	if err != nil {
		return false, "", err
	}
	msg = strings.TrimSpace(msg)
	if !found || msg == "" {
		msg = msgUnknownError
	}
	return false, msg, nil
}

// filterPeriod applies the year/month filter shared by the invoice and BEP
// list pages and waits for the filtered grid.
func filterPeriod(ctx context.Context, drv Driver, period string) error {
	year, month := model.SplitPeriod(period)
	if err := drv.SelectOption(ctx, "#ddlYil", year); err != nil {
		return err
	}
	if err := drv.SelectOption(ctx, "#ddlAy", month); err != nil {
		return err
	}
	if err := drv.Click(ctx, "#btnListele"); err != nil {
		return err
	}
	return drv.WaitForReady(ctx)
}

// sleepCtx pauses without outliving the context.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
