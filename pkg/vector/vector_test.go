package vector_test

import (
	"errors"
	"math"
	"testing"

	"github.com/JaimeStill/moodmap/pkg/vector"
)

func TestNormalize(t *testing.T) {
	v := vector.Normalize([]float32{3, 4})
	if math.Abs(vector.Norm(v)-1) > 1e-6 {
		t.Errorf("Norm(Normalize) = %v, want 1", vector.Norm(v))
	}
	if math.Abs(float64(v[0])-0.6) > 1e-6 || math.Abs(float64(v[1])-0.8) > 1e-6 {
		t.Errorf("Normalize([3 4]) = %v, want [0.6 0.8]", v)
	}
}

func TestNormalizeZero(t *testing.T) {
	v := vector.Normalize([]float32{0, 0, 0})
	for i, x := range v {
		if x != 0 {
			t.Errorf("v[%d] = %v, want 0", i, x)
		}
	}
}

func TestNormalizeDoesNotMutate(t *testing.T) {
	in := []float32{3, 4}
	vector.Normalize(in)
	if in[0] != 3 || in[1] != 4 {
		t.Errorf("input mutated: %v", in)
	}
}

func TestCosine(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{1, 2, 3}, []float32{1, 2, 3}, 1},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1},
		{"zero", []float32{0, 0}, []float32{1, 0}, 0},
		{"length mismatch", []float32{1}, []float32{1, 0}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := vector.Cosine(tt.a, tt.b)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Cosine = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMean(t *testing.T) {
	got, err := vector.Mean([][]float32{{1, 2}, {3, 4}})
	if err != nil {
		t.Fatalf("Mean: %v", err)
	}
	if got[0] != 2 || got[1] != 3 {
		t.Errorf("Mean = %v, want [2 3]", got)
	}
}

func TestMeanDimensionMismatch(t *testing.T) {
	_, err := vector.Mean([][]float32{{1, 2}, {3}})
	if !errors.Is(err, vector.ErrDimensionMismatch) {
		t.Errorf("Mean err = %v, want ErrDimensionMismatch", err)
	}
}

func TestMedian(t *testing.T) {
	tests := []struct {
		name string
		xs   []float64
		want float64
	}{
		{"empty", nil, 0},
		{"single", []float64{0.4}, 0.4},
		{"odd", []float64{0.9, 0.1, 0.5}, 0.5},
		{"even", []float64{0.1, 0.4, 0.2, 0.3}, 0.25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := vector.Median(tt.xs); math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("Median(%v) = %v, want %v", tt.xs, got, tt.want)
			}
		})
	}
}

func TestTopK(t *testing.T) {
	got := vector.TopK([]float64{0.2, 0.9, 0.5, 0.7}, 3)
	want := []float64{0.9, 0.7, 0.5}
	if len(got) != len(want) {
		t.Fatalf("TopK len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("TopK[%d] = %v, want %v", i, got[i], want[i])
		}
	}

	if got := vector.TopK([]float64{0.1}, 5); len(got) != 1 {
		t.Errorf("TopK short input len = %d, want 1", len(got))
	}
}

func TestRound(t *testing.T) {
	if got := vector.Round(0.123456, 4); got != 0.1235 {
		t.Errorf("Round = %v, want 0.1235", got)
	}
}

func TestEncodeDecode(t *testing.T) {
	in := []float32{0.25, -1.5, 3}
	out, err := vector.Decode(vector.Encode(in))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(out) != len(in) {
		t.Fatalf("len = %d, want %d", len(out), len(in))
	}
	for i := range in {
		if out[i] != in[i] {
			t.Errorf("out[%d] = %v, want %v", i, out[i], in[i])
		}
	}
}

func TestDecodeEmpty(t *testing.T) {
	v, err := vector.Decode(nil)
	if err != nil || v != nil {
		t.Errorf("Decode(nil) = %v, %v; want nil, nil", v, err)
	}
}

func TestDecodeCorrupt(t *testing.T) {
	payload := vector.Encode([]float32{1, 2})
	if _, err := vector.Decode(payload[:len(payload)-1]); !errors.Is(err, vector.ErrCorrupt) {
		t.Errorf("Decode truncated err = %v, want ErrCorrupt", err)
	}
	if _, err := vector.Decode([]byte{1, 2}); !errors.Is(err, vector.ErrCorrupt) {
		t.Errorf("Decode short err = %v, want ErrCorrupt", err)
	}
}
