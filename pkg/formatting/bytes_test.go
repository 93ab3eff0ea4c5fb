package formatting_test

import (
	"errors"
	"testing"

	"github.com/JaimeStill/moodmap/pkg/formatting"
)

const (
	kib = int64(1) << 10
	mib = kib << 10
	gib = mib << 10
)

func TestParseBytes(t *testing.T) {
	valid := map[string]int64{
		"0":        0,
		"1024":     1024,
		"512B":     512,
		"1KB":      kib,
		"1.5KB":    1536,
		"50MB":     50 * mib,
		"10mb":     10 * mib,
		"5Gb":      5 * gib,
		"1TB":      1024 * gib,
		"100 MB":   100 * mib,
		"  50MB  ": 50 * mib,
	}
	for in, want := range valid {
		t.Run(in, func(t *testing.T) {
			got, err := formatting.ParseBytes(in)
			if err != nil {
				t.Fatalf("ParseBytes(%q) error = %v", in, err)
			}
			if got != want {
				t.Errorf("ParseBytes(%q) = %d, want %d", in, got, want)
			}
		})
	}

	for _, in := range []string{"", "MB", "50XX", "-5MB", "1.2.3MB"} {
		t.Run("invalid "+in, func(t *testing.T) {
			if _, err := formatting.ParseBytes(in); !errors.Is(err, formatting.ErrInvalidSize) {
				t.Errorf("ParseBytes(%q) error = %v, want ErrInvalidSize", in, err)
			}
		})
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		n         int64
		precision int
		want      string
	}{
		{0, 2, "0 B"},
		{1023, 2, "1023 B"},
		{kib, 0, "1 KB"},
		{kib, -1, "1 KB"},
		{1536 * kib, 1, "1.5 MB"},
		{50 * mib, 1, "50.0 MB"},
		{gib, 0, "1 GB"},
	}

	for _, tt := range tests {
		if got := formatting.FormatBytes(tt.n, tt.precision); got != tt.want {
			t.Errorf("FormatBytes(%d, %d) = %q, want %q", tt.n, tt.precision, got, tt.want)
		}
	}
}

func TestFormatThenParse(t *testing.T) {
	for _, n := range []int64{kib, 50 * mib, gib, 1024 * gib} {
		s := formatting.FormatBytes(n, 0)
		got, err := formatting.ParseBytes(s)
		if err != nil || got != n {
			t.Errorf("%d -> %q -> %d (err %v)", n, s, got, err)
		}
	}
}
