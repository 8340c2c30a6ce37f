package pipeline

import (
	"context"

	"reel-pipeline/cache"
	"reel-pipeline/types"
)

// cachedScript memoizes script generation on a content-addressed key
// so local iteration does not re-pay for the same completion.
type cachedScript struct {
	inner ScriptGenerator
	store *cache.Store
}

// NewCachedScript wraps a script generator with the cache store.
func NewCachedScript(inner ScriptGenerator, store *cache.Store) ScriptGenerator {
	return &cachedScript{inner: inner, store: store}
}

func (c *cachedScript) Generate(ctx context.Context, topic, description string) (*types.Script, error) {
	key := cache.Key("script", topic, description)
	return cache.Memoize(c.store, key, func() (*types.Script, error) {
		return c.inner.Generate(ctx, topic, description)
	})
}

// cachedVisual memoizes visual prompt generation the same way.
type cachedVisual struct {
	inner VisualGenerator
	store *cache.Store
}

// NewCachedVisual wraps a visual generator with the cache store.
func NewCachedVisual(inner VisualGenerator, store *cache.Store) VisualGenerator {
	return &cachedVisual{inner: inner, store: store}
}

func (c *cachedVisual) Generate(ctx context.Context, topic, scriptText string) (string, error) {
	key := cache.Key("visual", topic, scriptText)
	return cache.Memoize(c.store, key, func() (string, error) {
		return c.inner.Generate(ctx, topic, scriptText)
	})
}
