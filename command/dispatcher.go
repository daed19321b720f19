package command

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// Option customizes a Dispatcher.
type Option func(*Dispatcher)

// WithRateLimit limits dispatches per source connection to perSecond with the given burst.
// A non-positive perSecond leaves dispatch unlimited.
func WithRateLimit(perSecond rate.Limit, burst int) Option {
	return func(d *Dispatcher) {
		if perSecond <= 0 {
			return
		}
		if burst < 1 {
			burst = 1
		}
		d.limiters = newLimiterSet(perSecond, burst)
	}
}

// Dispatcher maps command ids to handlers. Registration happens at startup;
// Dispatch may be called concurrently from any number of connections.
type Dispatcher struct {
	mu       sync.RWMutex
	commands map[ID]Command
	sealed   atomic.Bool

	limiters *limiterSet
}

// NewDispatcher creates an empty dispatcher.
func NewDispatcher(opts ...Option) *Dispatcher {
	d := &Dispatcher{
		commands: make(map[ID]Command),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Register adds cmd under its id. A second command for the same id fails with
// DuplicateCommandError.
func (d *Dispatcher) Register(cmd Command) error {
	if cmd == nil {
		return ErrNilCommand
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.sealed.Load() {
		return fmt.Errorf("register command %d: %w", cmd.ID(), ErrRegistrySealed)
	}
	if _, exists := d.commands[cmd.ID()]; exists {
		logrus.WithFields(logrus.Fields{
			"function":   "Dispatcher.Register",
			"command_id": cmd.ID(),
		}).Error("Duplicate command registration")
		return &DuplicateCommandError{ID: cmd.ID()}
	}

	d.commands[cmd.ID()] = cmd
	logrus.WithFields(logrus.Fields{
		"function":   "Dispatcher.Register",
		"command_id": cmd.ID(),
		"kind":       cmd.Kind().String(),
	}).Debug("Registered command")
	return nil
}

// MustRegister registers every command and panics on the first failure.
// It is meant for startup wiring, where a conflict is a build error.
func (d *Dispatcher) MustRegister(cmds ...Command) {
	for _, cmd := range cmds {
		if err := d.Register(cmd); err != nil {
			panic(err)
		}
	}
}

// Seal freezes the registry. Lookups after Seal take no locks.
func (d *Dispatcher) Seal() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sealed.Store(true)
}

// Sealed reports whether Seal was called.
func (d *Dispatcher) Sealed() bool {
	return d.sealed.Load()
}

// Lookup returns the command registered under id.
func (d *Dispatcher) Lookup(id ID) (Command, bool) {
	if d.sealed.Load() {
		cmd, ok := d.commands[id]
		return cmd, ok
	}

	d.mu.RLock()
	defer d.mu.RUnlock()
	cmd, ok := d.commands[id]
	return cmd, ok
}

// IDs returns the registered ids in ascending order.
func (d *Dispatcher) IDs() []ID {
	d.mu.RLock()
	defer d.mu.RUnlock()

	ids := make([]ID, 0, len(d.commands))
	for id := range d.commands {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Len returns the number of registered commands.
func (d *Dispatcher) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.commands)
}

// Forget drops per-connection state kept for source, such as its rate limiter.
// Call it when a connection closes.
func (d *Dispatcher) Forget(source string) {
	if d.limiters != nil {
		d.limiters.forget(source)
	}
}

// Dispatch runs the command registered under id with args and disposes args
// afterwards. It returns exactly one outcome: nil, an *UnknownCommandError, an
// *ArgsTypeMismatchError, ErrRateLimited, a *HandlerPanicError, or the
// handler's own error wrapped with the command id.
func (d *Dispatcher) Dispatch(id ID, args Args) error {
	if !isNilArgs(args) {
		defer args.Dispose()
	}

	cmd, ok := d.Lookup(id)
	if !ok {
		logrus.WithFields(logrus.Fields{
			"function":   "Dispatcher.Dispatch",
			"command_id": id,
			"args":       describeArgs(args),
		}).Warn("No command registered for id")
		return &UnknownCommandError{ID: id}
	}

	if isNilArgs(args) || args.Kind() != cmd.Kind() {
		err := &ArgsTypeMismatchError{ID: id, Want: cmd.Kind(), Got: describeArgs(args)}
		logrus.WithFields(logrus.Fields{
			"function":   "Dispatcher.Dispatch",
			"command_id": id,
			"error":      err.Error(),
		}).Error("Command args do not match handler")
		return err
	}

	if d.limiters != nil && !d.limiters.allow(args.Source()) {
		logrus.WithFields(logrus.Fields{
			"function":   "Dispatcher.Dispatch",
			"command_id": id,
			"source":     args.Source(),
		}).Warn("Dispatch rate limit exceeded")
		return fmt.Errorf("command %d from %s: %w", id, args.Source(), ErrRateLimited)
	}

	return d.run(cmd, args)
}

func (d *Dispatcher) run(cmd Command, args Args) (err error) {
	defer func() {
		if r := recover(); r != nil {
			logrus.WithFields(logrus.Fields{
				"function":   "Dispatcher.Dispatch",
				"command_id": cmd.ID(),
				"panic":      r,
			}).Error("Command handler panicked")
			err = &HandlerPanicError{ID: cmd.ID(), Value: r}
		}
	}()

	if err := cmd.Run(args); err != nil {
		var mismatch *ArgsTypeMismatchError
		if errors.As(err, &mismatch) {
			logrus.WithFields(logrus.Fields{
				"function":   "Dispatcher.Dispatch",
				"command_id": cmd.ID(),
				"error":      err.Error(),
			}).Error("Command args do not match handler")
			return err
		}
		logrus.WithFields(logrus.Fields{
			"function":   "Dispatcher.Dispatch",
			"command_id": cmd.ID(),
			"source":     args.Source(),
			"error":      err.Error(),
		}).Warn("Command handler failed")
		return fmt.Errorf("command %d: %w", cmd.ID(), err)
	}
	return nil
}
