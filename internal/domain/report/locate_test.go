package report

import "testing"

func TestLocationLabel(t *testing.T) {
	acc := 12.4
	zero := 0.0

	tests := []struct {
		lat, lng float64
		accuracy *float64
		want     string
	}{
		{5.60372, -0.18696, nil, "Near 5.604, -0.187"},
		{5.60372, -0.18696, &acc, "Near 5.604, -0.187 · GPS ±12m"},
		{-1, 2, &zero, "Near -1.000, 2.000"},
	}

	for _, tt := range tests {
		if got := LocationLabel(tt.lat, tt.lng, tt.accuracy); got != tt.want {
			t.Errorf("LocationLabel(%v, %v) = %q, want %q", tt.lat, tt.lng, got, tt.want)
		}
	}
}
