// Package ffnet implements the pieces needed to run a small feed-forward
// neural network in the forward direction: a flat float32 tensor, dense
// layers chained into a network, and a numerically stable softmax.
package ffnet

import (
	"fmt"
)

// Tensor is a dense float32 array with row-major storage (the last index is
// stored contiguously).
type Tensor struct {
	V     []float32
	Shape []int
}

// New allocates a zero-filled tensor.  Shape entries must be non-negative; a
// zero entry is allowed so that an empty batch is representable.
func New(shape ...int) *Tensor {
	size := 1
	for _, s := range shape {
		if s < 0 {
			panic(fmt.Sprintf("invalid shape: %v", shape))
		}
		size *= s
	}

	return &Tensor{
		V:     make([]float32, size),
		Shape: shape,
	}
}

// NewScalar wraps a single value in a shape-(1) tensor.
func NewScalar(scalar float32) *Tensor {
	return &Tensor{
		V:     []float32{scalar},
		Shape: []int{1},
	}
}

// FromSlice wraps an existing backing slice in a tensor.  The slice is not
// copied; it must hold exactly as many elements as the shape requires.
func FromSlice(v []float32, shape ...int) *Tensor {
	size := 1
	for _, s := range shape {
		if s < 0 {
			panic(fmt.Sprintf("invalid shape: %v", shape))
		}
		size *= s
	}
	if size != len(v) {
		panic(fmt.Sprintf("slice of length %d cannot hold shape %v", len(v), shape))
	}

	return &Tensor{V: v, Shape: shape}
}

// Clone returns a deep copy of t.
func (t *Tensor) Clone() *Tensor {
	shapeCopy := make([]int, len(t.Shape))
	copy(shapeCopy, t.Shape)
	vCopy := make([]float32, len(t.V))
	copy(vCopy, t.V)
	return &Tensor{V: vCopy, Shape: shapeCopy}
}

// Reshape reinterprets the tensor under a new shape.  The overall number of
// elements must be the same.  The returned tensor shares storage with the
// input tensor (no data is copied).
func (t *Tensor) Reshape(shape ...int) *Tensor {
	newSize := 1
	for _, s := range shape {
		if s < 0 {
			panic(fmt.Sprintf("invalid shape: %v", shape))
		}
		newSize *= s
	}

	if newSize != len(t.V) {
		panic("invalid reshape")
	}

	return &Tensor{V: t.V, Shape: shape}
}

// Flatten2D collapses every dimension after the first, turning a batch of
// images of shape (n, c, h, w) into a matrix of shape (n, c*h*w).  The result
// shares storage with t.
func (t *Tensor) Flatten2D() *Tensor {
	if len(t.Shape) == 0 {
		panic("Flatten2D() invalid for rank-0 tensor")
	}

	rest := 1
	for _, s := range t.Shape[1:] {
		rest *= s
	}

	return t.Reshape(t.Shape[0], rest)
}

func (t *Tensor) At1(idx int) float32 {
	if len(t.Shape) != 1 {
		panic("At1() invalid for len(shape) != 1")
	}
	return t.V[idx]
}

func (t *Tensor) At2(idx0, idx1 int) float32 {
	if len(t.Shape) != 2 {
		panic("At2() invalid for len(shape) != 2")
	}
	return t.V[idx0*t.Shape[1]+idx1]
}

func (t *Tensor) At3(idx0, idx1, idx2 int) float32 {
	if len(t.Shape) != 3 {
		panic("At3() invalid for len(shape) != 3")
	}
	return t.V[idx0*t.Shape[1]*t.Shape[2]+idx1*t.Shape[2]+idx2]
}

func (t *Tensor) Set1(idx int, v float32) {
	if len(t.Shape) != 1 {
		panic("Set1() invalid for len(shape) != 1")
	}
	t.V[idx] = v
}

func (t *Tensor) Set2(idx0, idx1 int, v float32) {
	if len(t.Shape) != 2 {
		panic("Set2() invalid for len(shape) != 2")
	}
	t.V[idx0*t.Shape[1]+idx1] = v
}
