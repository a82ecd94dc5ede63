// SPDX-License-Identifier: EPL-2.0

package utils

// CubicInterpolate performs Catmull-Rom interpolation.
// x is the fractional position between y1 and y2 (0 <= x <= 1).
// y0, y1, y2, y3 are four consecutive samples.
func CubicInterpolate(y0, y1, y2, y3, x float64) float64 {
	a0 := -0.5*y0 + 1.5*y1 - 1.5*y2 + 0.5*y3
	a1 := y0 - 2.5*y1 + 2*y2 - 0.5*y3
	a2 := -0.5*y0 + 0.5*y2
	a3 := y1

	return ((a0*x+a1)*x+a2)*x + a3
}

// At returns buf[i], repeating the edge samples outside the buffer.
func At(buf []float64, i int) float64 {
	switch {
	case len(buf) == 0:
		return 0
	case i < 0:
		return buf[0]
	case i >= len(buf):
		return buf[len(buf)-1]
	}
	return buf[i]
}

// Interpolate reads buf at the fractional position pos.
func Interpolate(buf []float64, pos float64) float64 {
	i := int(pos)
	if pos < 0 {
		i--
	}
	x := pos - float64(i)
	return CubicInterpolate(At(buf, i-1), At(buf, i), At(buf, i+1), At(buf, i+2), x)
}
