package webprowl

import (
	"context"

	"github.com/hshahin/webprowl/engine"
	"github.com/hshahin/webprowl/logging"
	"github.com/hshahin/webprowl/model"
)

// CustomFetcher dispatches to engines registered through engine.Register.
// The registry validates the capability contract at registration time, so
// by the time a name resolves here the engine is known to be usable.
type CustomFetcher struct {
	logger logging.Logger
}

// NewCustomFetcher builds a façade over the engine registry. A nil logger
// discards logs.
func NewCustomFetcher(logger logging.Logger) *CustomFetcher {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &CustomFetcher{logger: logger}
}

// Fetch resolves name in the registry and forwards the fetch to it.
func (f *CustomFetcher) Fetch(ctx context.Context, name, target string) (*model.Response, error) {
	eng, err := engine.Lookup(name)
	if err != nil {
		return nil, err
	}
	f.logger.Debug("custom engine dispatch",
		logging.Field{Key: "engine", Value: name},
		logging.Field{Key: "url", Value: target},
	)
	return eng.Fetch(ctx, target)
}
