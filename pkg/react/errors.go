package react

import "errors"

// ErrBudgetExceeded is returned by Run when the step budget was exhausted
// before the model produced a final answer. The ERROR segment has already
// been emitted and history already persisted by the time this is returned.
var ErrBudgetExceeded = errors.New("react: max steps exceeded")

// ErrCancelled is returned by Run when the turn's session was cancelled
// mid-flight. The ERROR segment has already been emitted and history
// already persisted by the time this is returned.
var ErrCancelled = errors.New("react: turn cancelled")

// ErrSessionBusy is returned by Run when another turn already holds the
// session's exclusive lock.
var ErrSessionBusy = errors.New("react: session busy with another turn")
