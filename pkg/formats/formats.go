// Package formats imports glTF 2.0 assets (.gltf and .glb) into scene.Data.
package formats

import (
	"errors"
	"fmt"
)

// Import errors.
var (
	ErrOpen                = errors.New("cannot parse asset container")
	ErrIndexOutOfRange     = errors.New("index out of range")
	ErrAccessorBounds      = errors.New("accessor reads past its buffer view")
	ErrUnsupportedAccessor = errors.New("unsupported accessor layout")
	ErrUnsupportedImage    = errors.New("unsupported image format")
)

// DecodeError reports a failed import of the asset at Path.
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("import %s: %v", e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}
