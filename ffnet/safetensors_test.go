package ffnet

import (
	"bytes"
	"encoding/binary"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestSafeTensorsRoundTrip(t *testing.T) {
	tensors := map[string]*Tensor{
		"hidden.weights": FromSlice([]float32{1, 2, 3, 4, 5, 6}, 3, 2),
		"hidden.biases":  FromSlice([]float32{0.1, 0.2, 0.3}, 3),
	}

	var buf bytes.Buffer
	if err := WriteSafeTensors(&buf, tensors); err != nil {
		t.Fatalf("WriteSafeTensors: %v", err)
	}

	got, err := ReadSafeTensors(&buf)
	if err != nil {
		t.Fatalf("ReadSafeTensors: %v", err)
	}

	if diff := cmp.Diff(tensors, got); diff != "" {
		t.Errorf("round trip mismatch (-wrote +read):\n%s", diff)
	}
}

func TestSafeTensorsRoundTripZeroSize(t *testing.T) {
	tensors := map[string]*Tensor{
		"empty.batch":    New(0, 3),
		"hidden.weights": FromSlice([]float32{1, 2}, 1, 2),
	}

	var buf bytes.Buffer
	if err := WriteSafeTensors(&buf, tensors); err != nil {
		t.Fatalf("WriteSafeTensors: %v", err)
	}

	got, err := ReadSafeTensors(&buf)
	if err != nil {
		t.Fatalf("ReadSafeTensors: %v", err)
	}

	if diff := cmp.Diff(tensors, got); diff != "" {
		t.Errorf("round trip mismatch (-wrote +read):\n%s", diff)
	}
}

func TestReadSafeTensorsRejectsNegativeShape(t *testing.T) {
	header := []byte(`{"w":{"dtype":"F32","shape":[-1],"data_offsets":[0,0]}}`)

	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.LittleEndian, uint64(len(header))); err != nil {
		t.Fatal(err)
	}
	buf.Write(header)

	_, err := ReadSafeTensors(&buf)
	if err == nil || !strings.Contains(err.Error(), "bad shape") {
		t.Errorf("got %v, want bad-shape error", err)
	}
}

func TestReadSafeTensorsRejectsUnknownDType(t *testing.T) {
	header := []byte(`{"w":{"dtype":"F16","shape":[1],"data_offsets":[0,2]}}`)

	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.LittleEndian, uint64(len(header))); err != nil {
		t.Fatal(err)
	}
	buf.Write(header)
	buf.Write([]byte{0, 0})

	_, err := ReadSafeTensors(&buf)
	if err == nil || !strings.Contains(err.Error(), "unsupported dtype") {
		t.Errorf("got %v, want unsupported-dtype error", err)
	}
}

func TestReadSafeTensorsRejectsBadOffsets(t *testing.T) {
	header := []byte(`{"w":{"dtype":"F32","shape":[2],"data_offsets":[0,4]}}`)

	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.LittleEndian, uint64(len(header))); err != nil {
		t.Fatal(err)
	}
	buf.Write(header)
	buf.Write([]byte{0, 0, 0, 0})

	_, err := ReadSafeTensors(&buf)
	if err == nil || !strings.Contains(err.Error(), "do not match shape") {
		t.Errorf("got %v, want offset-mismatch error", err)
	}
}
