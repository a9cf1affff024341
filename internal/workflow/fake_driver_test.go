package workflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"mebbisauto/internal/routes"
)

// fakeDriver is a scripted stand-in for a browser session. Tests prime it
// with per-selector answers and inspect the recorded call sequence.
type fakeDriver struct {
	calls []string

	exists  map[string]bool
	texts   map[string]string
	htmls   map[string]string
	scripts map[string]string // script fragment -> JSON result

	failClick map[string]error
	navErr    map[routes.Page]error

	acquired int
	released int
}

func newFakeDriver() *fakeDriver {
	return &fakeDriver{
		exists:    map[string]bool{},
		texts:     map[string]string{},
		htmls:     map[string]string{},
		scripts:   map[string]string{},
		failClick: map[string]error{},
		navErr:    map[routes.Page]error{},
	}
}

func (f *fakeDriver) record(format string, args ...any) {
	f.calls = append(f.calls, fmt.Sprintf(format, args...))
}

func (f *fakeDriver) Acquire(ctx context.Context) error {
	f.acquired++
	f.record("acquire")
	return nil
}

func (f *fakeDriver) Release() {
	f.released++
	f.record("release")
}

func (f *fakeDriver) NavigateTo(ctx context.Context, p routes.Page) error {
	f.record("navigate:%s", p)
	return f.navErr[p]
}

func (f *fakeDriver) WaitForReady(ctx context.Context) error {
	f.record("ready")
	return nil
}

func (f *fakeDriver) FillField(ctx context.Context, selector, value string) error {
	f.record("fill:%s=%s", selector, value)
	return nil
}

func (f *fakeDriver) SelectOption(ctx context.Context, selector, value string) error {
	f.record("select:%s=%s", selector, value)
	return nil
}

func (f *fakeDriver) Click(ctx context.Context, selector string) error {
	f.record("click:%s", selector)
	return f.failClick[selector]
}

func (f *fakeDriver) WaitForElement(ctx context.Context, selector string) error {
	f.record("wait:%s", selector)
	return nil
}

func (f *fakeDriver) ElementExists(ctx context.Context, selector string) (bool, error) {
	f.record("exists:%s", selector)
	return f.exists[selector], nil
}

func (f *fakeDriver) GetText(ctx context.Context, selector string) (string, bool, error) {
	f.record("text:%s", selector)
	t, ok := f.texts[selector]
	return t, ok, nil
}

func (f *fakeDriver) OuterHTML(ctx context.Context, selector string) (string, bool, error) {
	f.record("html:%s", selector)
	h, ok := f.htmls[selector]
	return h, ok, nil
}

func (f *fakeDriver) RunScript(ctx context.Context, script string) (gjson.Result, error) {
	f.record("script")
	for fragment, result := range f.scripts {
		if strings.Contains(script, fragment) {
			return gjson.Parse(result), nil
		}
	}
	return gjson.Parse(`""`), nil
}

// called reports whether any recorded call has the given prefix.
func (f *fakeDriver) called(prefix string) bool {
	for _, c := range f.calls {
		if strings.HasPrefix(c, prefix) {
			return true
		}
	}
	return false
}

// callIndex returns the position of the first call with the prefix, or -1.
func (f *fakeDriver) callIndex(prefix string) int {
	for i, c := range f.calls {
		if strings.HasPrefix(c, prefix) {
			return i
		}
	}
	return -1
}
