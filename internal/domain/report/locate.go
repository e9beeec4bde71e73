package report

import (
	"fmt"
	"math"
)

// LocationLabel describes coordinates for people, e.g. "Near 5.600, -0.180 · GPS ±12m"
func LocationLabel(lat, lng float64, accuracy *float64) string {
	label := fmt.Sprintf("Near %.3f, %.3f", lat, lng)
	if accuracy != nil && *accuracy > 0 {
		label += fmt.Sprintf(" · GPS ±%dm", int(math.Round(*accuracy)))
	}
	return label
}
