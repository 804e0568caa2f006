// Package stats computes per-reporter summaries of one flush window,
// combining running statistics with DDSketch quantile estimates.
package stats

import (
	"math"

	"github.com/DataDog/sketches-go/ddsketch"
	"gonum.org/v1/gonum/stat"

	"github.com/nharlow/recap/internal/table"
)

// ddsketchAccuracy is the relative accuracy for quantile estimates.
const ddsketchAccuracy = 0.01

// Summary holds the statistics of one reporter column over one window.
// Quantiles are NaN when the sketch could not accept the values (e.g. all
// rows NaN) or when the sketch itself failed to initialize.
type Summary struct {
	Reporter string
	Count    int64
	Min      float64
	Max      float64
	Mean     float64
	StdDev   float64
	P50      float64
	P95      float64
	P99      float64
}

// Summarize computes one Summary per reporter column of t. NaN cells (rows
// where a reporter carried no value) are excluded from every statistic.
func Summarize(t *table.Table) []Summary {
	summaries := make([]Summary, 0, len(t.Columns))

	for j, name := range t.Columns {
		values := make([]float64, 0, len(t.Rows))
		for _, row := range t.Rows {
			if v := row.Values[j]; !math.IsNaN(v) {
				values = append(values, v)
			}
		}
		summaries = append(summaries, summarize(name, values))
	}
	return summaries
}

func summarize(name string, values []float64) Summary {
	s := Summary{
		Reporter: name,
		Count:    int64(len(values)),
		Min:      math.NaN(),
		Max:      math.NaN(),
		Mean:     math.NaN(),
		StdDev:   math.NaN(),
		P50:      math.NaN(),
		P95:      math.NaN(),
		P99:      math.NaN(),
	}
	if len(values) == 0 {
		return s
	}

	s.Min = values[0]
	s.Max = values[0]
	for _, v := range values {
		if v < s.Min {
			s.Min = v
		}
		if v > s.Max {
			s.Max = v
		}
	}
	s.Mean = stat.Mean(values, nil)
	s.StdDev = stat.StdDev(values, nil)

	sketch, err := ddsketch.NewDefaultDDSketch(ddsketchAccuracy)
	if err != nil {
		return s
	}
	for _, v := range values {
		// DDSketch rejects values outside its representable range;
		// a rejected value simply drops out of the quantiles.
		_ = sketch.Add(v)
	}
	if p, err := sketch.GetValueAtQuantile(0.50); err == nil {
		s.P50 = p
	}
	if p, err := sketch.GetValueAtQuantile(0.95); err == nil {
		s.P95 = p
	}
	if p, err := sketch.GetValueAtQuantile(0.99); err == nil {
		s.P99 = p
	}
	return s
}
