// Package actions is the thin orchestration layer for mutating operations.
// Confirmation policy (whether a destructive action needs an explicit
// "yes") belongs entirely to the calling layer; once invoked, the executor
// performs the call unconditionally.
package actions

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/spyglass-dev/spyglass/dispatch"
	"github.com/spyglass-dev/spyglass/fetch"
	"github.com/spyglass-dev/spyglass/registry"
)

// Request names one action on one row.
type Request struct {
	Kind     string
	Action   string
	Row      fetch.Row
	Profile  string
	Region   string
	Endpoint string
}

// Executor validates and executes actions via dispatch.
type Executor struct {
	reg    *registry.Registry
	disp   *dispatch.Dispatcher
	logger zerolog.Logger
}

// New creates an Executor.
func New(reg *registry.Registry, disp *dispatch.Dispatcher, logger zerolog.Logger) *Executor {
	return &Executor{reg: reg, disp: disp, logger: logger}
}

// Lookup resolves an action so the caller can apply its confirmation policy
// before executing.
func (e *Executor) Lookup(kindID, actionID string) (registry.Action, error) {
	kind, err := e.reg.Lookup(kindID)
	if err != nil {
		return registry.Action{}, err
	}
	return kind.Action(actionID)
}

// Execute performs the action against the row. Single attempt; the result
// or classified failure goes back to the caller, with no rollback of any
// already-executed call.
func (e *Executor) Execute(ctx context.Context, req Request) (dispatch.ActionOutcome, error) {
	action, err := e.Lookup(req.Kind, req.Action)
	if err != nil {
		return dispatch.ActionOutcome{}, err
	}

	target := dispatch.Target{Profile: req.Profile, Region: req.Region, Endpoint: req.Endpoint}
	outcome, err := e.disp.ExecuteAction(ctx, target, action, req.Row.Raw)
	if err != nil {
		e.logger.Error().
			Err(err).
			Str("kind", req.Kind).
			Str("action", req.Action).
			Str("key", req.Row.Key).
			Msg("action failed")
		return dispatch.ActionOutcome{}, err
	}
	return outcome, nil
}
