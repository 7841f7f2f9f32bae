package engine

import (
	"math"
	"sort"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// ============================================================================
// STATISTICS — The numeric kernels behind every chart
// ============================================================================
//   Pearson       correlation matrix over measure columns (gonum/stat)
//   HistogramBins  equal-width buckets, last bucket closed
//   GaussianKDE   Scott's rule bandwidth, grid padded by `cut` bandwidths
//   BoxSummary    linear-interpolated quartiles, Tukey whiskers
// ============================================================================

var (
	// ErrNoData is returned when a kernel receives an empty sample.
	ErrNoData = errors.New("no data")
	// ErrZeroVariance is returned when a kernel needs spread and every value is equal.
	ErrZeroVariance = errors.New("zero variance")
)

// Pearson computes the Pearson correlation matrix of the given measures.
// A column with zero variance makes every coefficient it touches undefined,
// which is reported as an error naming the column.
func Pearson(view RecordView, measures []string) (*CorrelationMatrix, error) {
	n, k := view.Len(), len(measures)
	if n < 2 {
		return nil, errors.Wrapf(ErrNoData, "correlation needs at least 2 rows, got %d", n)
	}
	if k < 2 {
		return nil, errors.Errorf("correlation needs at least 2 columns, got %d", k)
	}

	data := mat.NewDense(n, k, nil)
	for j, m := range measures {
		col := MeasureValues(view, m)
		if constant(col) {
			return nil, errors.Wrapf(ErrZeroVariance, "correlation undefined: column %s is constant", m)
		}
		data.SetCol(j, col)
	}

	var sym mat.SymDense
	stat.CorrelationMatrix(&sym, data, nil)

	values := make([][]float64, k)
	for i := range values {
		values[i] = make([]float64, k)
		for j := range values[i] {
			v := sym.At(i, j)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, errors.Wrapf(ErrZeroVariance, "correlation undefined between %s and %s", measures[i], measures[j])
			}
			values[i][j] = v
		}
	}

	return &CorrelationMatrix{
		Method:  "pearson",
		Columns: append([]string(nil), measures...),
		Values:  values,
	}, nil
}

// constant reports whether every value is identical. Rounding in the mean
// leaves a tiny spread on some constant columns, so compare the extremes.
func constant(values []float64) bool {
	return len(values) > 0 && floats.Min(values) == floats.Max(values)
}

// HistogramBins splits values into n equal-width buckets spanning [min, max].
// Buckets are half-open except the last, which also holds max. When every
// value is equal the range is widened to [v-0.5, v+0.5].
func HistogramBins(values []float64, n int) ([]Bin, error) {
	if len(values) == 0 {
		return nil, ErrNoData
	}
	if n < 1 {
		return nil, errors.Errorf("bin count must be positive, got %d", n)
	}

	x := append([]float64(nil), values...)
	sort.Float64s(x)
	lo, hi := x[0], x[len(x)-1]
	if lo == hi {
		lo, hi = lo-0.5, hi+0.5
	}

	edges := floats.Span(make([]float64, n+1), lo, hi)
	dividers := append([]float64(nil), edges...)
	dividers[n] = math.Nextafter(hi, math.Inf(1)) // close the last bucket
	counts := stat.Histogram(nil, dividers, x, nil)

	bins := make([]Bin, n)
	for i := range bins {
		bins[i] = Bin{Min: edges[i], Max: edges[i+1], Count: int(counts[i])}
	}
	return bins, nil
}

// KDEParams controls kernel density estimation.
type KDEParams struct {
	GridSize int     // evaluation points
	Cut      float64 // grid extends this many bandwidths past the data
	Weight   float64 // density scale; 1 normalizes the curve to unit area
}

// DefaultKDEParams mirrors the usual seaborn defaults.
func DefaultKDEParams() KDEParams {
	return KDEParams{GridSize: 200, Cut: 3, Weight: 1}
}

// ScottBandwidth returns σ·n^(-1/5) with the sample standard deviation.
func ScottBandwidth(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	return stat.StdDev(values, nil) * math.Pow(float64(len(values)), -0.2)
}

// GaussianKDE evaluates a Gaussian kernel density estimate on an evenly
// spaced grid. The curve integrates to p.Weight.
func GaussianKDE(values []float64, p KDEParams) ([]Point, error) {
	if len(values) == 0 {
		return nil, ErrNoData
	}
	bw := ScottBandwidth(values)
	if constant(values) || bw == 0 || math.IsNaN(bw) {
		return nil, errors.Wrap(ErrZeroVariance, "density estimate needs at least two distinct values")
	}
	if p.GridSize < 2 {
		p.GridSize = DefaultKDEParams().GridSize
	}
	if p.Weight == 0 {
		p.Weight = 1
	}

	lo := floats.Min(values) - p.Cut*bw
	hi := floats.Max(values) + p.Cut*bw
	grid := floats.Span(make([]float64, p.GridSize), lo, hi)

	kernels := make([]distuv.Normal, len(values))
	for i, v := range values {
		kernels[i] = distuv.Normal{Mu: v, Sigma: bw}
	}

	scale := p.Weight / float64(len(values))
	points := make([]Point, len(grid))
	for i, x := range grid {
		var d float64
		for _, k := range kernels {
			d += k.Prob(x)
		}
		points[i] = Point{X: x, Y: d * scale}
	}
	return points, nil
}

// Percentile returns the p-th percentile (0–100) of sorted x using linear
// interpolation between closest ranks, position (n-1)·p/100.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return math.NaN()
	}
	if n == 1 {
		return sorted[0]
	}
	pos := (float64(n) - 1) * p / 100
	lo := math.Floor(pos)
	hi := math.Ceil(pos)
	if lo == hi {
		return sorted[int(lo)]
	}
	frac := pos - lo
	return sorted[int(lo)]*(1-frac) + sorted[int(hi)]*frac
}

// BoxSummary computes quartiles, whiskers at whis·IQR and outliers.
func BoxSummary(values []float64, whis float64) (*BoxStats, error) {
	if len(values) == 0 {
		return nil, ErrNoData
	}
	x := append([]float64(nil), values...)
	sort.Float64s(x)

	b := &BoxStats{
		Min:    x[0],
		Q1:     Percentile(x, 25),
		Median: Percentile(x, 50),
		Q3:     Percentile(x, 75),
		Max:    x[len(x)-1],
	}
	iqr := b.Q3 - b.Q1
	lowLimit := b.Q1 - whis*iqr
	highLimit := b.Q3 + whis*iqr

	b.LowerFence, b.UpperFence = b.Q1, b.Q3
	for _, v := range x {
		if v >= lowLimit {
			b.LowerFence = v
			break
		}
	}
	for i := len(x) - 1; i >= 0; i-- {
		if x[i] <= highLimit {
			b.UpperFence = x[i]
			break
		}
	}
	for _, v := range x {
		if v < lowLimit || v > highLimit {
			b.Outliers = append(b.Outliers, v)
		}
	}
	return b, nil
}
