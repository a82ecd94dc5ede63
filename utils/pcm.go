// SPDX-License-Identifier: EPL-2.0

package utils

import "math"

// FullScale returns the largest positive integer value of a signed PCM
// sample with the given bit depth.
func FullScale(bits int) int {
	return 1<<(bits-1) - 1
}

// FloatToPCM converts x in [-1, 1] to a signed integer sample of the given
// bit depth. Out of range input clamps. NaN maps to zero.
func FloatToPCM(x float64, bits int) int {
	if math.IsNaN(x) {
		return 0
	}
	if x > 1 {
		x = 1
	} else if x < -1 {
		x = -1
	}

	// Use the positive full scale for both signs so the output is
	// symmetric.
	return int(math.Round(x * float64(FullScale(bits))))
}

// PCMToFloat converts a signed integer sample of the given bit depth to
// [-1, 1).
func PCMToFloat(v, bits int) float64 {
	return float64(v) / float64(int(1)<<(bits-1))
}
