package speedtest

import "math"

// BytesToBits converts a bytes-per-second figure to bits per second.
func BytesToBits(bytesPerSec float64) float64 {
	return bytesPerSec * 8
}

// BitsToMegabits converts bits per second to megabits per second, rounded to
// two decimal places. Used for log output only; published metrics keep the
// unrounded bits-per-second value.
func BitsToMegabits(bitsPerSec float64) float64 {
	return math.Round(bitsPerSec*1e-6*100) / 100
}
