package ffnet

import (
	"fmt"
	"slices"
)

// Network chains dense layers in sequence.  Every layer carries a name, used
// to key its parameters when saving and loading weights, mirroring framework
// containers that take an ordered list of (name, module) pairs.
type Network struct {
	Names  []string
	Layers []*Layer
}

// NewSequential builds a network with positional layer names net.0, net.1, ...
func NewSequential(layers ...*Layer) *Network {
	names := make([]string, len(layers))
	for l := range layers {
		names[l] = fmt.Sprintf("net.%d", l)
	}
	return &Network{Names: names, Layers: layers}
}

// NewNamed builds a network with caller-provided layer names.  Names must be
// unique and match the layers one to one.
func NewNamed(names []string, layers []*Layer) *Network {
	if len(names) != len(layers) {
		panic(fmt.Sprintf("%d names for %d layers", len(names), len(layers)))
	}
	seen := map[string]bool{}
	for _, name := range names {
		if seen[name] {
			panic(fmt.Sprintf("duplicate layer name %q", name))
		}
		seen[name] = true
	}
	return &Network{Names: names, Layers: layers}
}

// Apply runs the forward pass over a whole batch.
//
// x is the input.  Shape (batchSize, layers[0].InputSize)
//
// The returned output has shape (batchSize, lastLayer.OutputSize).
func (net *Network) Apply(x *Tensor) *Tensor {
	if len(net.Layers) == 0 {
		panic("empty network")
	}

	batchSize := x.Shape[0]

	// Collect max-sized layer output needed.
	maxOutputSize := x.Shape[1]
	for _, lay := range net.Layers {
		if lay.OutputSize > maxOutputSize {
			maxOutputSize = lay.OutputSize
		}
	}

	// Two scratch buffers sized for the widest layer; each layer's output
	// becomes the input of the next by swapping them.
	a0 := &Tensor{
		V:     make([]float32, 0, batchSize*maxOutputSize),
		Shape: []int{0, 0},
	}
	a1 := &Tensor{
		V:     make([]float32, 0, batchSize*maxOutputSize),
		Shape: []int{0, 0},
	}

	// Copy the input into a0.
	a0.V = a0.V[:batchSize*x.Shape[1]]
	a0.Shape[0] = batchSize
	a0.Shape[1] = x.Shape[1]
	copy(a0.V, x.V)

	for _, lay := range net.Layers {
		a1.V = a1.V[:batchSize*lay.OutputSize]
		a1.Shape[0] = batchSize
		a1.Shape[1] = lay.OutputSize

		lay.Apply(a0, a1)

		a0, a1 = a1, a0
	}

	return a0
}

// LoadTensors installs parameters from a map keyed by <name>.weights and
// <name>.biases, as produced by DumpTensors.
func (net *Network) LoadTensors(tensors map[string]*Tensor) error {
	for l, name := range net.Names {
		weightKey := name + ".weights"
		weightTensor, ok := tensors[weightKey]
		if !ok {
			return fmt.Errorf("no entry for %s", weightKey)
		}
		wantWeightShape := []int{net.Layers[l].OutputSize, net.Layers[l].InputSize}
		if !slices.Equal(weightTensor.Shape, wantWeightShape) {
			return fmt.Errorf("wrong shape for %s; got %v want %v", weightKey, weightTensor.Shape, wantWeightShape)
		}
		net.Layers[l].W = weightTensor

		biasKey := name + ".biases"
		biasTensor, ok := tensors[biasKey]
		if !ok {
			return fmt.Errorf("no entry for %s", biasKey)
		}
		wantBiasShape := []int{net.Layers[l].OutputSize}
		if !slices.Equal(biasTensor.Shape, wantBiasShape) {
			return fmt.Errorf("wrong shape for %s; got %v want %v", biasKey, biasTensor.Shape, wantBiasShape)
		}
		net.Layers[l].B = biasTensor
	}

	return nil
}

// DumpTensors adds the network's parameters to tensors, keyed by layer name.
func (net *Network) DumpTensors(tensors map[string]*Tensor) {
	for l, name := range net.Names {
		tensors[name+".weights"] = net.Layers[l].W
		tensors[name+".biases"] = net.Layers[l].B
	}
}
