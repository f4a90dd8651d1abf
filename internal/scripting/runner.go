// Package scripting runs user-supplied Risor check scripts against the
// per-module analysis results the engine computes. Scripts get the
// module's registry and call edges as plain values, so repo-specific
// rules can be expressed without recompiling the engine.
package scripting

import (
	"context"
	"fmt"

	"github.com/risor-io/risor"
	"github.com/risor-io/risor/object"
	"go.uber.org/zap"
)

// Input is the per-module data exposed to a check script.
type Input struct {
	App    string
	Path   string
	Source string
	Tools  []string // registered operation names, sorted
	Calls  []Call   // internal call edges, deduplicated
}

// Call is one caller→callee pair exposed to scripts.
type Call struct {
	Caller string
	Callee string
}

// Runner evaluates check scripts.
type Runner struct {
	log *zap.Logger
}

// NewRunner creates a Runner. A nil logger falls back to zap.NewNop().
func NewRunner(log *zap.Logger) *Runner {
	if log == nil {
		log = zap.NewNop()
	}
	return &Runner{log: log}
}

// Run evaluates the script source against one module's Input. Globals
// available to the script:
//
//	app     string — module identifier
//	path    string — resolved source path
//	source  string — full module source text
//	tools   list   — registered operation names
//	calls   list   — maps with "caller" and "callee" keys
//	log(msg)       — write a message through the engine logger
//	fail(msg)      — abort the script with a check failure
//
// A fail() call or any script error is returned wrapped with the label.
func (r *Runner) Run(ctx context.Context, source, label string, in Input) error {
	opts := []risor.Option{
		risor.WithGlobal("app", object.NewString(in.App)),
		risor.WithGlobal("path", object.NewString(in.Path)),
		risor.WithGlobal("source", object.NewString(in.Source)),
		risor.WithGlobal("tools", toolsList(in.Tools)),
		risor.WithGlobal("calls", callsList(in.Calls)),
		risor.WithGlobal("log", r.makeLogFn(in.App)),
		risor.WithGlobal("fail", makeFailFn(in.App)),
	}
	if _, err := risor.Eval(ctx, source, opts...); err != nil {
		return fmt.Errorf("scripting: script %s: %w", label, err)
	}
	return nil
}

func toolsList(tools []string) *object.List {
	items := make([]object.Object, 0, len(tools))
	for _, t := range tools {
		items = append(items, object.NewString(t))
	}
	return object.NewList(items)
}

func callsList(calls []Call) *object.List {
	items := make([]object.Object, 0, len(calls))
	for _, c := range calls {
		items = append(items, object.NewMap(map[string]object.Object{
			"caller": object.NewString(c.Caller),
			"callee": object.NewString(c.Callee),
		}))
	}
	return object.NewList(items)
}

// makeLogFn creates the "log" host function.
//
// log(msg) → nil
func (r *Runner) makeLogFn(app string) *object.Builtin {
	return object.NewBuiltin("log", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 1 {
			return object.NewArgsError("log", 1, len(args))
		}
		msg, ok := args[0].(*object.String)
		if !ok {
			return object.Errorf("log: message must be a string, got %s", args[0].Type())
		}
		r.log.Info(msg.Value(), zap.String("app", app))
		return object.Nil
	})
}

// makeFailFn creates the "fail" host function.
//
// fail(msg) → error (aborts evaluation)
func makeFailFn(app string) *object.Builtin {
	return object.NewBuiltin("fail", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 1 {
			return object.NewArgsError("fail", 1, len(args))
		}
		msg, ok := args[0].(*object.String)
		if !ok {
			return object.Errorf("fail: message must be a string, got %s", args[0].Type())
		}
		return object.Errorf("check failed for %s: %s", app, msg.Value())
	})
}
