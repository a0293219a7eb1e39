// Package clientsync keeps an in-memory copy of the caller's projects and
// tasks in step with the server. Every mutation is applied locally first and
// confirmed or undone once the server answers.
package clientsync

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// Notifier surfaces outcomes to the user, typically as toasts.
type Notifier interface {
	Success(message string)
	Error(message string)
}

type nopNotifier struct{}

func (nopNotifier) Success(string) {}
func (nopNotifier) Error(string)   {}

// Command is one optimistic mutation. Forward and Inverse run under the
// list lock; Remote runs without it. Reconcile runs under the lock after
// Remote succeeded.
type Command struct {
	Name      string
	Forward   func()
	Inverse   func()
	Remote    func(ctx context.Context) error
	Reconcile func()
	// Done is shown on success; empty means no notification.
	Done string
	// Failed is shown on error.
	Failed string
}

// runner executes commands against one guarded list.
type runner struct {
	mu       sync.Mutex
	notifier Notifier
	logger   *slog.Logger
}

func (r *runner) setup(n Notifier, logger *slog.Logger) {
	if n == nil {
		n = nopNotifier{}
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	r.notifier = n
	r.logger = logger
}

// execute applies cmd optimistically and rolls it back when the server
// call fails. Failures always roll back.
func (r *runner) execute(ctx context.Context, cmd Command) error {
	r.mu.Lock()
	if cmd.Forward != nil {
		cmd.Forward()
	}
	r.mu.Unlock()

	if err := cmd.Remote(ctx); err != nil {
		r.mu.Lock()
		if cmd.Inverse != nil {
			cmd.Inverse()
		}
		r.mu.Unlock()

		r.logger.Error("sync command failed",
			slog.String("command", cmd.Name),
			slog.String("error", err.Error()))
		r.notifier.Error(cmd.Failed)
		return err
	}

	r.mu.Lock()
	if cmd.Reconcile != nil {
		cmd.Reconcile()
	}
	r.mu.Unlock()

	if cmd.Done != "" {
		r.notifier.Success(cmd.Done)
	}
	return nil
}

// ErrUnknown is returned for ids missing from the local list.
var ErrUnknown = errors.New("not in local list")

func errUnknown(kind, id string) error {
	return fmt.Errorf("%s %s: %w", kind, id, ErrUnknown)
}

// tempID labels a placeholder until the server assigns the real id.
func tempID() string {
	return "tmp-" + uuid.NewString()
}

// list is an ordered slice of records keyed by id with a revision guard.
type list[T any] struct {
	items    []T
	id       func(T) string
	revision func(T) int64
}

func (l *list[T]) index(id string) int {
	for i, item := range l.items {
		if l.id(item) == id {
			return i
		}
	}
	return -1
}

func (l *list[T]) get(id string) (T, bool) {
	if i := l.index(id); i >= 0 {
		return l.items[i], true
	}
	var zero T
	return zero, false
}

// replace swaps the record with the same id for item. A response older than
// the local copy is dropped and replace reports false.
func (l *list[T]) replace(id string, item T) bool {
	i := l.index(id)
	if i < 0 {
		l.items = append(l.items, item)
		return true
	}
	if l.revision(item) < l.revision(l.items[i]) {
		return false
	}
	l.items[i] = item
	return true
}

// restore puts prev back unless a newer server copy has arrived meanwhile.
func (l *list[T]) restore(prev T) {
	i := l.index(l.id(prev))
	if i < 0 || l.revision(l.items[i]) != l.revision(prev) {
		return
	}
	l.items[i] = prev
}

func (l *list[T]) insert(at int, item T) {
	if at < 0 || at > len(l.items) {
		at = len(l.items)
	}
	l.items = append(l.items, item)
	copy(l.items[at+1:], l.items[at:])
	l.items[at] = item
}

func (l *list[T]) remove(id string) (T, int, bool) {
	i := l.index(id)
	if i < 0 {
		var zero T
		return zero, -1, false
	}
	item := l.items[i]
	l.items = append(l.items[:i], l.items[i+1:]...)
	return item, i, true
}

func (l *list[T]) snapshot() []T {
	out := make([]T, len(l.items))
	copy(out, l.items)
	return out
}
