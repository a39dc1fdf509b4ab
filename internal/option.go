package internal

import "github.com/starford/ansuz/internal/provider"

// Option is a functional option for configuring the application.
type Option func(*application)

type application struct {
	config *Config

	// Overridable collaborators, mainly for tests.
	text     provider.TextGenerator
	searcher provider.ImageSearcher
}

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithTextGenerator overrides the generative-text client.
func WithTextGenerator(g provider.TextGenerator) Option {
	return func(a *application) {
		a.text = g
	}
}

// WithImageSearcher overrides the image-search client.
func WithImageSearcher(s provider.ImageSearcher) Option {
	return func(a *application) {
		a.searcher = s
	}
}
