package static

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/hshahin/webprowl/adaptor"
	"github.com/hshahin/webprowl/logging"
)

// cacheKey is the value-equality identity of an engine: its transport
// config plus the parser config baked into its responses.
type cacheKey struct {
	cfg    Config
	parser adaptor.Config
}

// engineCacheSize bounds how many distinct configurations are kept alive.
const engineCacheSize = 32

var engineCache, _ = lru.New[cacheKey, *Engine](engineCacheSize)

// For returns a shared engine for the given configuration, building and
// caching it on first use. Returned engines are shared across callers and
// must not be mutated. The logger only applies when the entry is first
// built.
func For(cfg Config, parserCfg adaptor.Config, logger logging.Logger) (*Engine, error) {
	key := cacheKey{cfg: cfg, parser: parserCfg}
	if e, ok := engineCache.Get(key); ok {
		return e, nil
	}

	e, err := New(cfg, parserCfg, logger)
	if err != nil {
		return nil, err
	}
	engineCache.Add(key, e)
	return e, nil
}
