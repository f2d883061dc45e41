package plugin

import (
	"fmt"
	"sort"
	"sync"

	"github.com/GriffinCanCode/PanelKit/backend/internal/shared/types"
	"go.uber.org/zap"
)

// Validator is a pure predicate over message content. It must not mutate
// the content and must not panic; panics are contained by the registry.
type Validator func(content types.Content) bool

// Handler is an optional side effect invoked after a message of a
// registered type is accepted by the bus. Best-effort: errors and panics
// are logged and never reach the send path.
type Handler func(message types.Message) error

// Plugin bundles validators and handlers for one or more message types
type Plugin struct {
	Name         string
	Version      string
	MessageTypes map[string]string // type -> shape marker (documentation only)
	Validators   map[string]Validator
	Handlers     map[string]Handler
	OnInstall    func() error
	OnUninstall  func() error
}

// Registry maps message type names to validators and handlers.
//
// Validation is pluggable because message shapes are domain-specific;
// the bus stays domain-agnostic and asks the registry instead.
type Registry struct {
	mu         sync.RWMutex
	plugins    map[string]*Plugin
	validators map[string]Validator // message type -> validator
	handlers   map[string][]namedHandler
	logger     *zap.Logger
}

type namedHandler struct {
	plugin  string
	handler Handler
}

// NewRegistry creates a new plugin registry
func NewRegistry(logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		plugins:    make(map[string]*Plugin),
		validators: make(map[string]Validator),
		handlers:   make(map[string][]namedHandler),
		logger:     logger,
	}
}

// Register installs a plugin. Registering a plugin whose name already
// exists replaces it: the old plugin's OnUninstall runs before the new
// plugin's OnInstall.
func (r *Registry) Register(p *Plugin) error {
	if p == nil || p.Name == "" {
		return fmt.Errorf("plugin name cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if old, exists := r.plugins[p.Name]; exists {
		r.uninstall(old)
	}

	if p.OnInstall != nil {
		if err := r.guard(p.Name, "install", p.OnInstall); err != nil {
			return fmt.Errorf("plugin %s install failed: %w", p.Name, err)
		}
	}

	r.plugins[p.Name] = p
	r.rebuild()

	r.logger.Info("Plugin registered",
		zap.String("plugin", p.Name),
		zap.String("version", p.Version),
		zap.Int("types", len(p.MessageTypes)),
	)
	return nil
}

// Unregister removes a plugin by name. Unknown names are a no-op.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, exists := r.plugins[name]
	if !exists {
		return
	}
	r.uninstall(p)
	r.rebuild()
}

// Validate returns true when no validator is registered for the type
// (permissive default) or when the registered validator accepts the
// content.
func (r *Registry) Validate(msgType string, content types.Content) bool {
	r.mu.RLock()
	validator, ok := r.validators[msgType]
	r.mu.RUnlock()

	if !ok {
		return true
	}

	accepted := false
	err := r.guard("", "validate", func() error {
		accepted = validator(content)
		return nil
	})
	if err != nil {
		// A panicking validator counts as rejection
		r.logger.Warn("Validator panicked",
			zap.String("type", msgType),
			zap.Error(err),
		)
		return false
	}
	return accepted
}

// Handle invokes every handler registered for the message's content
// type. A misbehaving handler never blocks delivery: errors and panics
// are logged and remaining handlers still run.
func (r *Registry) Handle(message types.Message) {
	r.mu.RLock()
	chain := r.handlers[message.Content.Type]
	r.mu.RUnlock()

	for _, nh := range chain {
		nh := nh
		err := r.guard(nh.plugin, "handle", func() error {
			return nh.handler(message)
		})
		if err != nil {
			r.logger.Warn("Plugin handler failed",
				zap.String("plugin", nh.plugin),
				zap.String("type", message.Content.Type),
				zap.String("message_id", message.ID),
				zap.Error(err),
			)
		}
	}
}

// List returns registered plugin names, sorted
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.plugins))
	for name := range r.plugins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Stats returns registry statistics
func (r *Registry) Stats() map[string]interface{} {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var handlerCount int
	for _, chain := range r.handlers {
		handlerCount += len(chain)
	}

	return map[string]interface{}{
		"total_plugins":  len(r.plugins),
		"total_types":    len(r.validators),
		"total_handlers": handlerCount,
	}
}

// uninstall runs OnUninstall and drops the plugin. Must hold the lock.
func (r *Registry) uninstall(p *Plugin) {
	if p.OnUninstall != nil {
		if err := r.guard(p.Name, "uninstall", p.OnUninstall); err != nil {
			r.logger.Warn("Plugin uninstall hook failed",
				zap.String("plugin", p.Name),
				zap.Error(err),
			)
		}
	}
	delete(r.plugins, p.Name)
	r.logger.Info("Plugin unregistered", zap.String("plugin", p.Name))
}

// rebuild recomputes the type indexes from installed plugins. Must hold
// the lock. When two plugins validate the same type, the one sorting
// last by name wins, so rebuilds stay deterministic.
func (r *Registry) rebuild() {
	r.validators = make(map[string]Validator)
	r.handlers = make(map[string][]namedHandler)

	names := make([]string, 0, len(r.plugins))
	for name := range r.plugins {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		p := r.plugins[name]
		for msgType, v := range p.Validators {
			r.validators[msgType] = v
		}
		for msgType, h := range p.Handlers {
			r.handlers[msgType] = append(r.handlers[msgType], namedHandler{
				plugin:  name,
				handler: h,
			})
		}
	}
}

// guard runs fn, converting panics into errors
func (r *Registry) guard(plugin, op string, fn func() error) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%s panic in plugin %q: %v", op, plugin, rec)
		}
	}()
	return fn()
}
