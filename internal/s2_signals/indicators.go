package s2_signals

import (
	"math"

	"github.com/wz-hub/a-stock-scanner/internal/contracts"
)

// Series helpers return one value per input element.
// Positions where the indicator is not yet defined hold NaN.

// SMA is the simple moving average over a window of n values
func SMA(values []float64, n int) []float64 {
	out := nanSeries(len(values))
	if n < 1 {
		return out
	}

	// ring buffer keeps the running window
	ring := make([]float64, n)
	var sum float64
	for i, v := range values {
		slot := i % n
		if i >= n {
			sum -= ring[slot]
		}
		ring[slot] = v
		sum += v
		if i >= n-1 {
			out[i] = sum / float64(n)
		}
	}
	return out
}

// EMA is the exponential moving average with alpha = 2/(span+1),
// seeded with the first value.
func EMA(values []float64, span int) []float64 {
	out := nanSeries(len(values))
	if len(values) == 0 || span < 1 {
		return out
	}

	alpha := 2.0 / float64(span+1)
	out[0] = values[0]
	for i := 1; i < len(values); i++ {
		out[i] = alpha*values[i] + (1-alpha)*out[i-1]
	}
	return out
}

// RollingStd is the sample standard deviation over a window of n values
func RollingStd(values []float64, n int) []float64 {
	out := nanSeries(len(values))
	if n < 2 {
		return out
	}

	mean := SMA(values, n)
	for i := n - 1; i < len(values); i++ {
		var ss float64
		for _, v := range values[i-n+1 : i+1] {
			d := v - mean[i]
			ss += d * d
		}
		out[i] = math.Sqrt(ss / float64(n-1))
	}
	return out
}

// RSI averages gains and losses over the last n price changes.
// A window without losses is 100; a flat window is undefined.
func RSI(closes []float64, n int) []float64 {
	out := nanSeries(len(closes))
	if n < 1 || len(closes) <= n {
		return out
	}

	gains := make([]float64, len(closes))
	losses := make([]float64, len(closes))
	for i := 1; i < len(closes); i++ {
		if d := closes[i] - closes[i-1]; d > 0 {
			gains[i] = d
		} else {
			losses[i] = -d
		}
	}

	avgGain := SMA(gains[1:], n)
	avgLoss := SMA(losses[1:], n)
	for i := n; i < len(closes); i++ {
		g, l := avgGain[i-1], avgLoss[i-1]
		switch {
		case g == 0 && l == 0:
			// undefined
		case l == 0:
			out[i] = 100
		default:
			out[i] = 100 - 100/(1+g/l)
		}
	}
	return out
}

// CrossedAbove reports whether a moved from at-or-below b to strictly above b
// between the last two positions. Undefined values never cross.
func CrossedAbove(a, b []float64) bool {
	n := len(a)
	if n < 2 || len(b) != n {
		return false
	}
	for _, v := range []float64{a[n-1], a[n-2], b[n-1], b[n-2]} {
		if math.IsNaN(v) {
			return false
		}
	}
	return a[n-1] > b[n-1] && a[n-2] <= b[n-2]
}

// Closes extracts closing prices
func Closes(bars []contracts.PriceBar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Close
	}
	return out
}

// Volumes extracts volumes
func Volumes(bars []contracts.PriceBar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Volume
	}
	return out
}

func nanSeries(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
