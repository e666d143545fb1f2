// Package registry is the central catalog of runner implementations and the
// attachment point for hook plugins. Modules populate it at startup; the
// executor consults it when resolving node runner types.
package registry

import (
	"context"
	"fmt"

	"github.com/vk/flowgridgo/internal/artifact"
	"github.com/vk/flowgridgo/internal/hooks"
	"github.com/zclconf/go-cty/cty"
)

// Call carries everything a runner needs for one node invocation.
type Call struct {
	// Node is the instance name of the node being executed.
	Node string
	// Inputs are the resolved upstream artifacts, in the node's declared
	// input order.
	Inputs []*artifact.Artifact
	// Config is the node's static configuration.
	Config map[string]cty.Value
}

// RunnerFunc executes one node and returns its output value.
type RunnerFunc func(ctx context.Context, call *Call) (cty.Value, error)

// RegisteredRunner pairs a runner type name with its implementation.
type RegisteredRunner struct {
	Type string
	Fn   RunnerFunc
}

// Module is the plugin contract. A module registers its runners and hook
// subscriptions when the application boots.
type Module interface {
	Register(r *Registry)
}

// Registry holds the runner catalog and the hook manager. Registration is
// a startup-time activity; the registry is read-only once flows run.
type Registry struct {
	runners map[string]*RegisteredRunner
	hooks   *hooks.Manager
}

// New creates an empty registry bound to a hook manager.
func New(h *hooks.Manager) *Registry {
	return &Registry{
		runners: make(map[string]*RegisteredRunner),
		hooks:   h,
	}
}

// RegisterRunner adds a runner implementation. Registering the same type
// twice is a programmer error and panics.
func (r *Registry) RegisterRunner(runnerType string, fn RunnerFunc) {
	if _, exists := r.runners[runnerType]; exists {
		panic(fmt.Sprintf("runner type %q is already registered", runnerType))
	}
	r.runners[runnerType] = &RegisteredRunner{Type: runnerType, Fn: fn}
}

// RegisterHook subscribes a callback to a lifecycle event.
func (r *Registry) RegisterHook(name hooks.EventName, cb hooks.Callback) {
	r.hooks.Register(name, cb)
}

// Runner returns the implementation for a runner type.
func (r *Registry) Runner(runnerType string) (*RegisteredRunner, bool) {
	rr, ok := r.runners[runnerType]
	return rr, ok
}

// Hooks exposes the hook manager for dispatch by the executor.
func (r *Registry) Hooks() *hooks.Manager {
	return r.hooks
}

// RunnerTypes returns the number of registered runner types.
func (r *Registry) RunnerTypes() int {
	return len(r.runners)
}
