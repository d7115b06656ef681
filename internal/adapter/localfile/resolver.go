// Package localfile implements the capture port for sources that are
// already image files on disk. URL and HTML rendering belongs to an
// external capture service behind the same port.
package localfile

import (
	"context"
	"fmt"
	"os"

	"github.com/Strob0t/LensForge/internal/domain/analysis"
)

// Resolver reads source paths from the local filesystem.
// The viewport is ignored: a file on disk was already captured at some
// viewport, recorded in the request for fingerprinting only.
type Resolver struct{}

// New returns a filesystem-backed resolver.
func New() *Resolver {
	return &Resolver{}
}

// Resolve returns the bytes of the image file at source.
func (r *Resolver) Resolve(_ context.Context, source, _ string) ([]byte, error) {
	data, err := os.ReadFile(source) //nolint:gosec // G304: source paths come from the caller's own batch
	if err != nil {
		if os.IsNotExist(err) {
			return nil, analysis.NewError(analysis.KindValidation, fmt.Sprintf("screenshot not found: %s", source))
		}
		return nil, analysis.WrapError(analysis.KindValidation, fmt.Sprintf("read screenshot %s", source), err)
	}
	if len(data) == 0 {
		return nil, analysis.NewError(analysis.KindValidation, fmt.Sprintf("screenshot is empty: %s", source))
	}
	return data, nil
}
