package curve

import (
	"strings"
	"testing"
)

func TestPathSymmetric(t *testing.T) {
	got := Path(0, 0, 100, 50, 0.5, ModeSymmetric)
	want := "M 0 0 C 50 0 50 50 100 50"
	if got != want {
		t.Errorf("Path = %q, want %q", got, want)
	}
}

func TestPathModes(t *testing.T) {
	tests := []struct {
		name           string
		x1, y1, x2, y2 float64
		mode           Mode
		want           string
	}{
		{
			name: "OpenLeftToRight",
			x1:   0, y1: 0, x2: 100, y2: 0,
			mode: ModeOpen,
			want: "M 0 0 C 50 0 50 0 100 0",
		},
		{
			name: "OpenRightToLeft",
			x1:   100, y1: 0, x2: 0, y2: 40,
			mode: ModeOpen,
			// End-side control flips outward when start is right of end.
			want: "M 100 0 C 150 0 50 40 0 40",
		},
		{
			name: "CloseLeftToRight",
			x1:   0, y1: 0, x2: 100, y2: 0,
			mode: ModeClose,
			want: "M 0 0 C 50 0 50 0 100 0",
		},
		{
			name: "CloseRightToLeft",
			x1:   100, y1: 0, x2: 0, y2: 40,
			mode: ModeClose,
			want: "M 100 0 C 50 0 -50 40 0 40",
		},
		{
			name: "SymmetricRightToLeft",
			x1:   100, y1: 0, x2: 0, y2: 40,
			mode: ModeSymmetric,
			want: "M 100 0 C 150 0 -50 40 0 40",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Path(tt.x1, tt.y1, tt.x2, tt.y2, 0.5, tt.mode)
			if got != tt.want {
				t.Errorf("Path = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPathDeterministic(t *testing.T) {
	a := Path(13.5, -7.25, 480.1, 92, 0.35, ModeOpen)
	b := Path(13.5, -7.25, 480.1, 92, 0.35, ModeOpen)
	if a != b {
		t.Errorf("identical inputs produced different paths: %q vs %q", a, b)
	}
}

func TestPathZeroCurvature(t *testing.T) {
	got := Path(10, 10, 200, 80, 0, ModeSymmetric)
	want := "M 10 10 C 10 10 200 80 200 80"
	if got != want {
		t.Errorf("Path = %q, want %q", got, want)
	}
}

func TestPathNoNegativeZero(t *testing.T) {
	got := Path(0, 0, 0, 50, 0.5, ModeSymmetric)
	if strings.Contains(got, "-0 ") {
		t.Errorf("path contains -0 coordinate: %q", got)
	}
}
