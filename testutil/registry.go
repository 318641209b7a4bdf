package testutil

import (
	"github.com/skosovsky/tooluse"
)

// NewTestRegistry returns a Registry with panic recovery enabled and no timeout,
// holding the given handlers.
func NewTestRegistry(handlers ...tooluse.Handler) *tooluse.Registry {
	reg := tooluse.NewRegistry(tooluse.WithRecoverPanics(true))
	for _, h := range handlers {
		reg.Register(h)
	}
	return reg
}
