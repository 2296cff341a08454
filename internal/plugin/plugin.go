// Package plugin provides small tool handlers the chat layer can
// dispatch to before falling back to retrieval. Each plugin inspects the
// raw user input and claims it by returning extracted arguments.
package plugin

import (
	"context"
	"errors"

	"github.com/askdocs/askdocs/internal/logger"
)

// ErrNoMatch is returned by Registry.Dispatch when no plugin claims the
// input.
var ErrNoMatch = errors.New("no plugin matched input")

// Plugin handles one category of direct question.
type Plugin interface {
	// Name identifies the plugin in logs and the plugin listing.
	Name() string

	// Description is a one-line summary for the plugin listing.
	Description() string

	// Match reports whether the plugin can answer input, returning the
	// extracted argument string when it can.
	Match(input string) (args string, ok bool)

	// Run answers a previously matched input.
	Run(ctx context.Context, args string) (string, error)
}

// Registry holds plugins in registration order. Dispatch tries them in
// that order and the first match wins, so register more specific plugins
// first.
type Registry struct {
	plugins []Plugin
}

// NewRegistry creates a Registry with the given plugins.
func NewRegistry(plugins ...Plugin) *Registry {
	return &Registry{plugins: plugins}
}

// Register appends a plugin.
func (r *Registry) Register(p Plugin) {
	r.plugins = append(r.plugins, p)
}

// Plugins returns the registered plugins in order.
func (r *Registry) Plugins() []Plugin {
	return r.plugins
}

// Dispatch offers input to each plugin in order. It returns the first
// match's answer, ErrNoMatch when nothing claimed the input, or the
// matched plugin's error.
func (r *Registry) Dispatch(ctx context.Context, input string) (string, error) {
	for _, p := range r.plugins {
		args, ok := p.Match(input)
		if !ok {
			continue
		}
		logger.Debug("plugin matched", "plugin", p.Name(), "args", args)
		answer, err := p.Run(ctx, args)
		if err != nil {
			return "", err
		}
		return answer, nil
	}
	return "", ErrNoMatch
}
