package hooks

import (
	"context"
	"fmt"
	"reflect"
	"slices"

	"go.uber.org/zap"
)

// Executor fires the hooks a Source resolves for an entity
type Executor struct {
	source     Source
	asyncQueue *AsyncQueue
	logger     *zap.Logger
}

// NewExecutor creates a hook executor. asyncQueue may be nil, in which case
// async hooks run inline.
func NewExecutor(source Source, asyncQueue *AsyncQueue, logger *zap.Logger) *Executor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Executor{
		source:     source,
		asyncQueue: asyncQueue,
		logger:     logger,
	}
}

// Fire runs the hooks registered for trigger on the type of entity.
//
// Type-level hooks run once, or once per changed field when registered with
// AllowMultiple. Field-level hooks run only when their field is among
// changed. Synchronous hooks run in registration order and the first error
// aborts the event. Async hooks on post-commit triggers are queued and their
// failures are only logged.
func (e *Executor) Fire(ctx context.Context, trigger Trigger, entity any, changed ...string) error {
	if entity == nil {
		return fmt.Errorf("fire %s: nil entity", trigger)
	}
	t := reflect.TypeOf(entity)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	regs, err := e.source.Hooks(t, trigger)
	if err != nil {
		return fmt.Errorf("fire %s: %w", trigger, err)
	}
	if len(regs) == 0 {
		return nil
	}

	hookCtx := NewContext(ctx, trigger, t)
	for _, reg := range regs {
		for _, invocation := range invocations(hookCtx, reg, changed) {
			if reg.Async && trigger.IsPostCommit() && e.asyncQueue != nil {
				if err := e.enqueue(invocation, reg, entity); err != nil {
					e.logger.Warn("failed to enqueue async hook",
						zap.Stringer("trigger", trigger),
						zap.Stringer("type", t),
						zap.Error(err),
					)
				}
				continue
			}
			if err := reg.Hook.Execute(invocation, entity); err != nil {
				return fmt.Errorf("hook %s on %s failed: %w", trigger, t, err)
			}
		}
	}
	return nil
}

// invocations expands a registration into the contexts it runs with
func invocations(ctx *Context, reg Registration, changed []string) []*Context {
	switch {
	case reg.Field != "":
		if !slices.Contains(changed, reg.Field) {
			return nil
		}
		return []*Context{ctx.WithField(reg.Field)}
	case reg.AllowMultiple && len(changed) > 0:
		out := make([]*Context, len(changed))
		for i, field := range changed {
			out[i] = ctx.WithField(field)
		}
		return out
	default:
		return []*Context{ctx}
	}
}

func (e *Executor) enqueue(ctx *Context, reg Registration, entity any) error {
	task := AsyncTask{
		Name: fmt.Sprintf("%s_hook", reg.Trigger),
		Fn: func(workerCtx context.Context) error {
			asyncCtx := NewContext(workerCtx, ctx.Trigger(), ctx.EntityType())
			if ctx.Field() != "" {
				asyncCtx = asyncCtx.WithField(ctx.Field())
			}
			return reg.Hook.Execute(asyncCtx, entity)
		},
	}
	return e.asyncQueue.Enqueue(task)
}

// HasHooks reports whether any hook is registered for trigger on t
func (e *Executor) HasHooks(t reflect.Type, trigger Trigger) bool {
	regs, err := e.source.Hooks(t, trigger)
	return err == nil && len(regs) > 0
}
