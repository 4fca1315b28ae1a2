package backtest

import (
	"fmt"
	"time"
)

const (
	HookInitialize = "initialize"
	HookOnBar      = "on_bar"
	HookOnExit     = "on_exit"
)

// HookError is a fatal strategy failure. BarIndex is the position in the
// input bar slice, or -1 when no bar was being processed.
type HookError struct {
	Hook      string
	Strategy  string
	BarIndex  int
	Timestamp time.Time
	Symbol    string
	Err       error
}

func (e *HookError) Error() string {
	if e.BarIndex < 0 {
		return fmt.Sprintf("strategy %s: %s failed: %v", e.Strategy, e.Hook, e.Err)
	}
	return fmt.Sprintf("strategy %s: %s failed at bar %d (%s %s): %v",
		e.Strategy, e.Hook, e.BarIndex, e.Symbol, e.Timestamp.Format(time.RFC3339), e.Err)
}

func (e *HookError) Unwrap() error { return e.Err }

// PanicError wraps a value recovered from a strategy hook.
type PanicError struct {
	Value any
}

func (p *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", p.Value)
}

func callHook(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r}
		}
	}()
	return fn()
}
