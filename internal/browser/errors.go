package browser

import (
	"errors"
	"fmt"
	"time"
)

// ErrNotAttached is returned when a primitive runs before Start or after
// Close. No remote side effect has happened, so callers may propagate it.
var ErrNotAttached = errors.New("tarayıcı oturumu başlatılmadı")

// AuthError reports a failed portal login. It is terminal for the current
// request and must not be retried by the caller without operator attention
// (credentials may be stale).
type AuthError struct {
	Detail string
}

func (e *AuthError) Error() string {
	if e.Detail == "" {
		return "MEBBIS girişi başarısız"
	}
	return fmt.Sprintf("MEBBIS girişi başarısız: %s", e.Detail)
}

// ElementNotFoundError reports a missing element on a primitive that needs
// the element to make progress (fill, click, select).
type ElementNotFoundError struct {
	Selector string
}

func (e *ElementNotFoundError) Error() string {
	return fmt.Sprintf("öğe bulunamadı: %s", e.Selector)
}

// TimeoutError reports a primitive exceeding its wait budget. Workflows
// classify it as infrastructure failure, never as a business rejection.
type TimeoutError struct {
	Op       string
	Selector string
	Budget   time.Duration
}

func (e *TimeoutError) Error() string {
	if e.Selector != "" {
		return fmt.Sprintf("zaman aşımı (%s, %s): %s", e.Op, e.Budget, e.Selector)
	}
	return fmt.Sprintf("zaman aşımı (%s, %s)", e.Op, e.Budget)
}
