package suggest

import "testing"

func TestVerbosityWireValues(t *testing.T) {
	// The numeric values are the guest's u8 wire encoding.
	if Top != 0 || Closest != 1 || All != 2 {
		t.Errorf("verbosity values = (%d, %d, %d), want (0, 1, 2)", Top, Closest, All)
	}
}

func TestVerbosityString(t *testing.T) {
	tests := []struct {
		v    Verbosity
		want string
	}{
		{Top, "top"},
		{Closest, "closest"},
		{All, "all"},
		{Verbosity(9), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.v.String(); got != tt.want {
			t.Errorf("Verbosity(%d).String() = %q, want %q", tt.v, got, tt.want)
		}
	}
}

func TestUnmatchedDistance(t *testing.T) {
	if got := UnmatchedDistance(2); got != 3 {
		t.Errorf("UnmatchedDistance(2) = %d, want 3", got)
	}
}
