// Command mnist-forward walks through the MNIST forward pass two ways: once
// with hand-rolled matrix arithmetic plus an explicit softmax, and once with
// the dense-layer modules, checking that the two agree.
//
// To run the demo: `go run ./cmd/mnist-forward forward --data-file=mnist.npz`
//
// To classify one image: `go run ./cmd/mnist-forward infer --weights=mnist.safetensors --image=five.png`
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"

	"github.com/athollis/nn/ffnet"
	"github.com/chewxy/math32"
	"github.com/google/subcommands"
	"github.com/sbinet/npyio/npz"
)

func main() {
	subcommands.Register(subcommands.HelpCommand(), "")
	subcommands.Register(subcommands.FlagsCommand(), "")
	subcommands.Register(subcommands.CommandsCommand(), "")

	subcommands.Register(&ForwardCommand{}, "")
	subcommands.Register(&InferCommand{}, "")

	flag.Parse()
	ctx := context.Background()
	os.Exit(int(subcommands.Execute(ctx)))
}

// makeNetwork builds the tutorial architecture: one sigmoid hidden layer and
// a linear output layer producing one logit per digit.
func makeNetwork(r *rand.Rand) *ffnet.Network {
	return ffnet.NewNamed(
		[]string{"hidden", "output"},
		[]*ffnet.Layer{
			ffnet.MakeDense(ffnet.Sigmoid, 28*28, 256, r),
			ffnet.MakeDense(ffnet.Identity, 256, 10, r),
		},
	)
}

type ForwardCommand struct {
	dataFile  string
	batchSize int

	weightsFile     string
	saveWeightsFile string
}

var _ subcommands.Command = (*ForwardCommand)(nil)

func (*ForwardCommand) Name() string {
	return "forward"
}

func (*ForwardCommand) Synopsis() string {
	return "Run the manual and layer-module forward passes over a test batch"
}

func (*ForwardCommand) Usage() string {
	return ``
}

func (c *ForwardCommand) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.dataFile, "data-file", "mnist.npz", "Path to the mnist.npz input file")
	f.IntVar(&c.batchSize, "batch-size", 64, "Number of test images to push through the network")
	f.StringVar(&c.weightsFile, "weights", "", "Load parameters from this safetensors file instead of random init")
	f.StringVar(&c.saveWeightsFile, "save-weights", "", "Save the parameters used to this safetensors file")
}

func (c *ForwardCommand) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if err := c.executeErr(ctx); err != nil {
		log.Printf("Error: %v", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

func (c *ForwardCommand) executeErr(ctx context.Context) error {
	xTest, yTest, err := loadMNIST(c.dataFile)
	if err != nil {
		return fmt.Errorf("while loading MNIST data set: %w", err)
	}

	if c.batchSize > xTest.Shape[0] {
		return fmt.Errorf("batch size %d exceeds the %d available test images", c.batchSize, xTest.Shape[0])
	}

	// Flatten (N, 1, 28, 28) images into (N, 784) rows and slice off the
	// first batch-size of them.
	flat := xTest.Flatten2D()
	x := ffnet.FromSlice(flat.V[:c.batchSize*flat.Shape[1]], c.batchSize, flat.Shape[1])

	r := rand.New(rand.NewSource(12345))
	net := makeNetwork(r)

	if c.weightsFile != "" {
		if err := loadWeights(net, c.weightsFile); err != nil {
			return fmt.Errorf("while loading weights: %w", err)
		}
	}

	if c.saveWeightsFile != "" {
		if err := c.saveWeights(net); err != nil {
			return fmt.Errorf("while saving weights: %w", err)
		}
	}

	// First rendition: the forward pass written out by hand.
	logits := ffnet.Forward2Layer(x, net.Layers[0].W, net.Layers[0].B, net.Layers[1].W, net.Layers[1].B)
	probs := ffnet.New(c.batchSize, 10)
	ffnet.Softmax(logits, probs)

	// Second rendition: the same parameters pushed through the layer modules.
	moduleLogits := net.Apply(x)
	moduleProbs := ffnet.New(c.batchSize, 10)
	ffnet.Softmax(moduleLogits, moduleProbs)

	maxDiff := float32(0)
	for i := range probs.V {
		if d := math32.Abs(probs.V[i] - moduleProbs.V[i]); d > maxDiff {
			maxDiff = d
		}
	}

	numCorrect := 0
	for k := 0; k < c.batchSize; k++ {
		digit, score := argmax(probs, k)
		if float32(digit) == yTest.At1(k) {
			numCorrect++
		}
		log.Printf("image %d label=%.0f predicted=%d p=%.3f", k, yTest.At1(k), digit, score)
	}

	log.Printf("correct %d/%d (untrained weights land near 1 in 10)", numCorrect, c.batchSize)
	log.Printf("max divergence between manual and layer-module pass: %g", maxDiff)

	return nil
}

func (c *ForwardCommand) saveWeights(net *ffnet.Network) error {
	f, err := os.Create(c.saveWeightsFile)
	if err != nil {
		return fmt.Errorf("while creating weights file: %w", err)
	}
	defer f.Close()

	tensors := map[string]*ffnet.Tensor{}
	net.DumpTensors(tensors)

	if err := ffnet.WriteSafeTensors(f, tensors); err != nil {
		return fmt.Errorf("while writing weight tensors: %w", err)
	}

	return nil
}

func loadWeights(net *ffnet.Network, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("while opening weights file: %w", err)
	}
	defer f.Close()

	tensors, err := ffnet.ReadSafeTensors(f)
	if err != nil {
		return fmt.Errorf("while reading weight tensors: %w", err)
	}

	if err := net.LoadTensors(tensors); err != nil {
		return fmt.Errorf("while restoring network: %w", err)
	}

	return nil
}

// argmax returns the highest-probability class for row k and its probability.
func argmax(probs *ffnet.Tensor, k int) (int, float32) {
	digit := 0
	score := math32.Inf(-1)
	for i := 0; i < probs.Shape[1]; i++ {
		if probs.At2(k, i) > score {
			digit = i
			score = probs.At2(k, i)
		}
	}
	return digit, score
}

func loadMNIST(path string) (xTest, yTest *ffnet.Tensor, err error) {
	r, err := npz.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("while opening mnist data file: %w", err)
	}
	defer r.Close()

	// numpy always writes C-style layouts (row-major / last index stored
	// contiguously), so the raw bytes line up with our Tensor storage.

	xTest, err = loadImages(r, "x_test.npy")
	if err != nil {
		return nil, nil, fmt.Errorf("while reading x_test.npy: %w", err)
	}

	yTest, err = loadLabels(r, "y_test.npy")
	if err != nil {
		return nil, nil, fmt.Errorf("while reading y_test.npy: %w", err)
	}

	return xTest, yTest, nil
}

// loadImages returns images of shape (N, 1, 28, 28) with pixel intensities
// normalized from [0, 255] to [-1, 1].
func loadImages(r *npz.Reader, name string) (*ffnet.Tensor, error) {
	header := r.Header(name)

	var raw []uint8
	if err := r.Read(name, &raw); err != nil {
		return nil, fmt.Errorf("while reading uint8 array: %w", err)
	}

	shape := header.Descr.Shape
	result := ffnet.New(shape[0], 1, shape[1], shape[2])
	for i := 0; i < len(raw); i++ {
		result.V[i] = (float32(raw[i])/255 - 0.5) / 0.5
	}

	return result, nil
}

// loadLabels returns labels of shape (N), each holding a digit 0-9.
func loadLabels(r *npz.Reader, name string) (*ffnet.Tensor, error) {
	header := r.Header(name)

	var raw []uint8
	if err := r.Read(name, &raw); err != nil {
		return nil, fmt.Errorf("while reading uint8 array: %w", err)
	}

	result := ffnet.New(header.Descr.Shape[0])
	for i := 0; i < len(raw); i++ {
		result.V[i] = float32(raw[i])
	}

	return result, nil
}
