package ffnet

import (
	"slices"

	"github.com/chewxy/math32"
)

// Softmax converts each row of a matrix of raw scores into a probability
// distribution over the class dimension.
//
// in is the raw scores.  Shape (batchSize, numClasses)
// out (output) receives the distributions.  Shape (batchSize, numClasses)
//
// The per-row maximum is subtracted before exponentiating.  softmax(v) is
// identical to softmax(v - c) for any constant c, and shifting by the maximum
// keeps every exponent at or below zero, so large scores cannot overflow to
// +Inf.
//
// https://stackoverflow.com/questions/42599498/numerically-stable-softmax
func Softmax(in, out *Tensor) {
	if len(in.Shape) != 2 {
		panic("len(in.Shape) != 2")
	}
	if !slices.Equal(in.Shape, out.Shape) {
		panic("in and out must have same shape")
	}

	batchSize := in.Shape[0]
	numClasses := in.Shape[1]

	for k := 0; k < batchSize; k++ {
		maxz := math32.Inf(-1)
		for i := 0; i < numClasses; i++ {
			if in.At2(k, i) > maxz {
				maxz = in.At2(k, i)
			}
		}

		var sum float32
		for i := 0; i < numClasses; i++ {
			e := math32.Exp(in.At2(k, i) - maxz)
			out.Set2(k, i, e)
			sum += e
		}

		for i := 0; i < numClasses; i++ {
			out.Set2(k, i, out.At2(k, i)/sum)
		}
	}
}
