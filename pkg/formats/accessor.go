package formats

import (
	"fmt"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

// maxUnbackedCount caps accessors without a buffer view. Their elements are
// zeros plus sparse overrides, so the file does not bound the allocation.
const maxUnbackedCount = 1 << 24

// checkAccessor resolves accessor idx and verifies that every byte range it
// reads lies inside its buffer views. It runs before modeler sizes any slice
// from the accessor's count.
func checkAccessor(doc *gltf.Document, idx int) (*gltf.Accessor, error) {
	if idx < 0 || idx >= len(doc.Accessors) || doc.Accessors[idx] == nil {
		return nil, fmt.Errorf("accessor %d: %w", idx, ErrIndexOutOfRange)
	}
	acc := doc.Accessors[idx]

	elemSize := gltf.SizeOfElement(acc.ComponentType, acc.Type)
	if elemSize <= 0 {
		return nil, fmt.Errorf("accessor %d: %w", idx, ErrUnsupportedAccessor)
	}
	if acc.Count <= 0 {
		return nil, fmt.Errorf("accessor %d: count %d: %w", idx, acc.Count, ErrAccessorBounds)
	}

	if acc.BufferView == nil {
		if acc.Count > maxUnbackedCount {
			return nil, fmt.Errorf("accessor %d: %d elements without a buffer view: %w", idx, acc.Count, ErrAccessorBounds)
		}
	} else if err := checkSpan(doc, *acc.BufferView, acc.ByteOffset, acc.Count, elemSize); err != nil {
		return nil, fmt.Errorf("accessor %d: %w", idx, err)
	}

	if s := acc.Sparse; s != nil {
		if s.Count <= 0 || s.Count > acc.Count {
			return nil, fmt.Errorf("accessor %d: sparse count %d of %d: %w", idx, s.Count, acc.Count, ErrAccessorBounds)
		}
		switch s.Indices.ComponentType {
		case gltf.ComponentUbyte, gltf.ComponentUshort, gltf.ComponentUint:
		default:
			return nil, fmt.Errorf("accessor %d: sparse index component %v: %w", idx, s.Indices.ComponentType, ErrUnsupportedAccessor)
		}
		if err := checkSpan(doc, s.Indices.BufferView, s.Indices.ByteOffset, s.Count, s.Indices.ComponentType.ByteSize()); err != nil {
			return nil, fmt.Errorf("accessor %d: sparse indices: %w", idx, err)
		}
		if err := checkSpan(doc, s.Values.BufferView, s.Values.ByteOffset, s.Count, elemSize); err != nil {
			return nil, fmt.Errorf("accessor %d: sparse values: %w", idx, err)
		}
	}
	return acc, nil
}

// checkSpan verifies that count elements of elemSize bytes, laid out at the
// view's stride (tight when unset), fit in buffer view bv from offset on.
// The count is compared by division so it cannot overflow.
func checkSpan(doc *gltf.Document, bv, offset, count, elemSize int) error {
	if bv < 0 || bv >= len(doc.BufferViews) || doc.BufferViews[bv] == nil {
		return fmt.Errorf("buffer view %d: %w", bv, ErrIndexOutOfRange)
	}
	view := doc.BufferViews[bv]
	if view.Buffer < 0 || view.Buffer >= len(doc.Buffers) || doc.Buffers[view.Buffer] == nil {
		return fmt.Errorf("buffer view %d: buffer %d: %w", bv, view.Buffer, ErrIndexOutOfRange)
	}
	buf := doc.Buffers[view.Buffer].Data
	if view.ByteOffset < 0 || view.ByteLength < 0 || view.ByteOffset > len(buf) || view.ByteLength > len(buf)-view.ByteOffset {
		return fmt.Errorf("buffer view %d: bytes [%d,+%d) of %d: %w", bv, view.ByteOffset, view.ByteLength, len(buf), ErrAccessorBounds)
	}

	stride := elemSize
	if view.ByteStride != 0 {
		stride = view.ByteStride
	}
	if stride < elemSize {
		return fmt.Errorf("buffer view %d: stride %d below element size %d: %w", bv, stride, elemSize, ErrAccessorBounds)
	}
	if offset < 0 || offset > view.ByteLength-elemSize {
		return fmt.Errorf("buffer view %d: offset %d of %d bytes: %w", bv, offset, view.ByteLength, ErrAccessorBounds)
	}
	if count-1 > (view.ByteLength-offset-elemSize)/stride {
		return fmt.Errorf("buffer view %d: %d elements at stride %d exceed %d bytes: %w", bv, count, stride, view.ByteLength-offset, ErrAccessorBounds)
	}
	return nil
}

// readFailed wraps an error from modeler on an accessor that passed
// checkAccessor, such as an unsorted sparse index list.
func readFailed(idx int, err error) error {
	return fmt.Errorf("accessor %d: %w: %w", idx, ErrAccessorBounds, err)
}

// readVec3 reads a float VEC3 accessor such as POSITION or NORMAL.
func readVec3(doc *gltf.Document, idx int) ([][3]float32, error) {
	acc, err := checkAccessor(doc, idx)
	if err != nil {
		return nil, err
	}
	if acc.Type != gltf.AccessorVec3 || acc.ComponentType != gltf.ComponentFloat {
		return nil, fmt.Errorf("accessor %d: want float VEC3: %w", idx, ErrUnsupportedAccessor)
	}
	out, err := modeler.ReadPosition(doc, acc, nil)
	if err != nil {
		return nil, readFailed(idx, err)
	}
	return out, nil
}

// readVec2 reads TEXCOORD data stored as float or normalized unsigned
// byte/short components.
func readVec2(doc *gltf.Document, idx int) ([][2]float32, error) {
	acc, err := checkAccessor(doc, idx)
	if err != nil {
		return nil, err
	}
	if acc.Type != gltf.AccessorVec2 {
		return nil, fmt.Errorf("accessor %d: want VEC2: %w", idx, ErrUnsupportedAccessor)
	}
	switch acc.ComponentType {
	case gltf.ComponentFloat:
	case gltf.ComponentUbyte, gltf.ComponentUshort:
		if !acc.Normalized {
			return nil, fmt.Errorf("accessor %d: integer texcoords must be normalized: %w", idx, ErrUnsupportedAccessor)
		}
	default:
		return nil, fmt.Errorf("accessor %d: texcoord component %v: %w", idx, acc.ComponentType, ErrUnsupportedAccessor)
	}
	out, err := modeler.ReadTextureCoord(doc, acc, nil)
	if err != nil {
		return nil, readFailed(idx, err)
	}
	return out, nil
}

// readIndices widens 8, 16 or 32-bit scalar indices to uint32.
func readIndices(doc *gltf.Document, idx int) ([]uint32, error) {
	acc, err := checkAccessor(doc, idx)
	if err != nil {
		return nil, err
	}
	if acc.Type != gltf.AccessorScalar {
		return nil, fmt.Errorf("accessor %d: want SCALAR indices: %w", idx, ErrUnsupportedAccessor)
	}
	switch acc.ComponentType {
	case gltf.ComponentUbyte, gltf.ComponentUshort, gltf.ComponentUint:
	default:
		return nil, fmt.Errorf("accessor %d: index component %v: %w", idx, acc.ComponentType, ErrUnsupportedAccessor)
	}
	out, err := modeler.ReadIndices(doc, acc, nil)
	if err != nil {
		return nil, readFailed(idx, err)
	}
	return out, nil
}
