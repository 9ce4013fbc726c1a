// Package engine defines the contract every fetch engine satisfies and a
// registry for user-supplied engines.
package engine

import (
	"context"
	"fmt"

	"github.com/hshahin/webprowl/model"
)

// Engine is the single capability a fetch backend must provide: resolve one
// URL into a normalized Response. Implementations must be safe for
// concurrent use.
type Engine interface {
	Fetch(ctx context.Context, url string) (*model.Response, error)
}

// ContractError reports an engine that failed registration-time validation.
type ContractError struct {
	Name   string
	Reason string
}

func (e *ContractError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("engine contract violation: %s", e.Reason)
	}
	return fmt.Sprintf("engine %q contract violation: %s", e.Name, e.Reason)
}
