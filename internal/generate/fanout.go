// Package generate expands selectors into backend invocations, streams the
// emitted units in order and hands them to the output materializer.
package generate

import (
	"context"
	"errors"
	"fmt"

	"github.com/mark3labs/swagger2ts/internal/codegen"
	"github.com/mark3labs/swagger2ts/internal/errs"
	"github.com/mark3labs/swagger2ts/internal/spec"
)

// Emission is one item of the stream: a unit, or the failure of a
// selector or of one of its targets.
type Emission struct {
	Selector Selector
	Target   codegen.Target
	Unit     codegen.Unit
	Err      error
}

// Failure is a non-fatal problem tied to a selector.
type Failure struct {
	Selector Selector
	// Target names the operation or schema, when resolution got that far.
	Target string
	// Path is the output file, for write failures.
	Path string
	Err  error
}

func (f Failure) Error() string {
	switch {
	case f.Path != "":
		return fmt.Sprintf("%s: %s: %v", f.Selector, f.Path, f.Err)
	case f.Target != "" && f.Target != f.Selector.String():
		return fmt.Sprintf("%s (%s): %v", f.Selector, f.Target, f.Err)
	default:
		return fmt.Sprintf("%s: %v", f.Selector, f.Err)
	}
}

func (f Failure) Unwrap() error { return f.Err }

// Stream resolves selectors against doc in order and emits every unit the
// backend produces, as soon as it is produced. Unresolvable selectors and
// backend errors are emitted as failures and processing continues. The
// channel is closed when all selectors are done or ctx ends.
func Stream(ctx context.Context, doc *spec.Document, backend codegen.Backend, selectors []Selector) <-chan Emission {
	out := make(chan Emission)
	go func() {
		defer close(out)
		send := func(e Emission) bool {
			select {
			case out <- e:
				return true
			case <-ctx.Done():
				return false
			}
		}
		for _, sel := range selectors {
			if ctx.Err() != nil {
				return
			}
			targets, err := Resolve(doc, sel)
			if err != nil {
				if !send(Emission{Selector: sel, Err: err}) {
					return
				}
				continue
			}
			onlyDef := sel.OnlyDefinition || sel.IsDefinition()
			for _, target := range targets {
				units, err := backend.Emit(ctx, doc, target, onlyDef)
				if err != nil {
					if ctx.Err() != nil {
						return
					}
					if errs.CodeOf(err) == "" {
						err = errs.Wrap(errs.BackendError, target.String(), err, "emit")
					}
					if !send(Emission{Selector: sel, Target: target, Err: err}) {
						return
					}
					continue
				}
				for _, u := range units {
					if !send(Emission{Selector: sel, Target: target, Unit: u}) {
						return
					}
				}
			}
		}
	}()
	return out
}

// Resolve maps a selector to backend targets. A path selector without a
// method yields every operation declared for the path, in declaration
// order.
func Resolve(doc *spec.Document, sel Selector) ([]codegen.Target, error) {
	if doc == nil {
		return nil, errs.New(errs.DocumentUnavailable, sel.String(), "no document loaded")
	}
	if sel.IsDefinition() {
		if _, ok := doc.Schema(sel.DefinitionKey); !ok {
			return nil, errs.New(errs.SelectorNotFound, sel.String(), "no schema definition %q", sel.DefinitionKey)
		}
		return []codegen.Target{{SchemaKey: sel.DefinitionKey}}, nil
	}
	var targets []codegen.Target
	for _, op := range doc.OperationsAt(sel.Path) {
		if sel.Method != "" && op.Method != sel.Method {
			continue
		}
		targets = append(targets, codegen.Target{Operation: op})
	}
	if len(targets) == 0 {
		return nil, errs.New(errs.SelectorNotFound, sel.String(), "no operation matches")
	}
	return targets, nil
}

// Generate drains Stream, passing each unit to sink. Every selector,
// backend and sink failure is returned; none stops the remaining work.
func Generate(ctx context.Context, doc *spec.Document, backend codegen.Backend, selectors []Selector, sink func(Emission) error) []Failure {
	var failures []Failure
	for e := range Stream(ctx, doc, backend, selectors) {
		if e.Err != nil {
			failures = append(failures, failureOf(e, "", e.Err))
			continue
		}
		if err := sink(e); err != nil {
			path := ""
			var coded *errs.Error
			if errors.As(err, &coded) {
				path = coded.Location
			}
			failures = append(failures, failureOf(e, path, err))
		}
	}
	return failures
}

func failureOf(e Emission, path string, err error) Failure {
	f := Failure{Selector: e.Selector, Path: path, Err: err}
	if e.Target.Operation != nil || e.Target.SchemaKey != "" {
		f.Target = e.Target.String()
	}
	return f
}
