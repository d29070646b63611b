package stats

import (
	"math"
	"strings"

	"github.com/verte-zerg/steady/internal/model"
)

const sparkChars = " .:-=+*#%@"

// SuccessTrend returns the rolling success rate of rated outcomes, oldest first.
// Input is the newest-first log.
func SuccessTrend(outcomes []model.InteractionOutcome, window int) []float64 {
	var values []float64
	for i := len(outcomes) - 1; i >= 0; i-- {
		switch outcomes[i].Outcome {
		case model.OutcomeSuccess:
			values = append(values, 1)
		case model.OutcomeNotSuccess:
			values = append(values, 0)
		}
	}
	return MovingAverage(values, window)
}

// MovingAverage computes a rolling mean over the provided window size.
func MovingAverage(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	if window <= 1 {
		copy(out, values)
		return out
	}
	var sum float64
	for i, v := range values {
		sum += v
		den := float64(i + 1)
		if i >= window {
			sum -= values[i-window]
			den = float64(window)
		}
		out[i] = sum / den
	}
	return out
}

// Sparkline renders values in [0,1] as a single ASCII line.
func Sparkline(values []float64) string {
	var b strings.Builder
	top := len(sparkChars) - 1
	for _, v := range values {
		idx := int(math.Round(v * float64(top)))
		if idx < 0 {
			idx = 0
		}
		if idx > top {
			idx = top
		}
		b.WriteByte(sparkChars[idx])
	}
	return b.String()
}
