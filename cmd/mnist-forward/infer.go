package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"image/color"
	"log"
	"math/rand"
	"os"

	"github.com/athollis/nn/ffnet"
	"github.com/google/subcommands"

	_ "image/jpeg"
	_ "image/png"
)

type InferCommand struct {
	weightsFile string
	imageFile   string
}

var _ subcommands.Command = (*InferCommand)(nil)

func (*InferCommand) Name() string {
	return "infer"
}

func (*InferCommand) Synopsis() string {
	return "Classify a single 28x28 image"
}

func (*InferCommand) Usage() string {
	return ``
}

func (c *InferCommand) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.weightsFile, "weights", "mnist.safetensors", "Path to the weights produced by the forward command")
	f.StringVar(&c.imageFile, "image", "", "Path to the image to classify")
}

func (c *InferCommand) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if err := c.executeErr(ctx); err != nil {
		log.Printf("Error: %v", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

func (c *InferCommand) executeErr(ctx context.Context) error {
	r := rand.New(rand.NewSource(12345))
	net := makeNetwork(r)

	if err := loadWeights(net, c.weightsFile); err != nil {
		return fmt.Errorf("while loading weights: %w", err)
	}

	x, err := c.loadImage()
	if err != nil {
		return fmt.Errorf("while loading image: %w", err)
	}

	logits := net.Apply(x)
	probs := ffnet.New(1, 10)
	ffnet.Softmax(logits, probs)

	digit, _ := argmax(probs, 0)

	log.Printf("Prediction: %d", digit)
	for i := 0; i < 10; i++ {
		log.Printf("  digit %d: p=%.4f", i, probs.At2(0, i))
	}
	return nil
}

func (c *InferCommand) loadImage() (*ffnet.Tensor, error) {
	f, err := os.Open(c.imageFile)
	if err != nil {
		return nil, fmt.Errorf("while opening image file: %w", err)
	}
	defer f.Close()

	rawImg, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("while decoding image: %w", err)
	}

	rawBounds := rawImg.Bounds()
	if rawBounds.Dx() != 28 || rawBounds.Dy() != 28 {
		return nil, fmt.Errorf("image must be 28x28, got %dx%d", rawBounds.Dx(), rawBounds.Dy())
	}

	out := ffnet.New(1, 28*28)

	for y := 0; y < 28; y++ {
		for x := 0; x < 28; x++ {
			gray := color.GrayModel.Convert(rawImg.At(rawBounds.Min.X+x, rawBounds.Min.Y+y)).(color.Gray)
			out.Set2(0, y*28+x, (float32(gray.Y)/255-0.5)/0.5)
		}
	}

	return out, nil
}
