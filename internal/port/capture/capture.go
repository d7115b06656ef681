// Package capture defines the port for resolving a request source into
// image bytes. Rendering URLs or HTML into screenshots is an external
// collaborator's job; the engine only consumes the resolved bytes.
package capture

import "context"

// Resolver turns a source identifier (screenshot path, capture-service
// key) into raw image bytes for fingerprinting and provider calls.
type Resolver interface {
	Resolve(ctx context.Context, source, viewport string) ([]byte, error)
}
