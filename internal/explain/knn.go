package explain

import (
	"math"
	"sort"

	"github.com/sibyl-dev/sibyl/internal/domain"
	"github.com/sibyl-dev/sibyl/internal/domain/table"
	"github.com/sibyl-dev/sibyl/internal/domain/trainingset"
)

// nearestExamples finds the k training rows closest to the query under
// standardized euclidean distance. Distances only cover features that are
// numeric in the query; each dimension is scaled by the feature's standard
// deviation across the training table so no single unit dominates.
func nearestExamples(row table.Row, train *table.Table, k int) (Neighbors, error) {
	dims := numericDims(row)
	spread := featureSpread(train, dims)

	type scored struct {
		row  table.Row
		dist float64
	}
	candidates := make([]scored, 0, train.Len())
	for _, tr := range train.Rows() {
		var sum float64
		for _, dim := range dims {
			q, _ := row.Value(dim)
			qf, _ := q.Float()
			tv, ok := tr.Value(dim)
			if !ok {
				continue
			}
			tf, ok := tv.Float()
			if !ok {
				continue
			}
			d := (qf - tf) / spread[dim]
			sum += d * d
		}
		candidates = append(candidates, scored{row: tr, dist: math.Sqrt(sum)})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].dist < candidates[j].dist
	})
	if k > len(candidates) {
		k = len(candidates)
	}

	x := table.New(k)
	y := make(map[string]domain.Value, k)
	for _, c := range candidates[:k] {
		cells := make(map[string]domain.Value, len(c.row.Cells()))
		for name, v := range c.row.Cells() {
			if name == trainingset.LabelColumn {
				y[c.row.Key()] = v
				continue
			}
			cells[name] = v
		}
		x.Append(table.NewRow(c.row.Key(), cells))
	}
	return Neighbors{X: x, Y: y}, nil
}

// numericDims lists the query's numeric features, skipping the label
// column if the caller passed a labeled row.
func numericDims(row table.Row) []string {
	var dims []string
	for name, v := range row.Cells() {
		if name == trainingset.LabelColumn {
			continue
		}
		if _, ok := v.Float(); ok {
			dims = append(dims, name)
		}
	}
	sort.Strings(dims)
	return dims
}

// featureSpread computes per-dimension standard deviations over the
// training table, clamped to 1 for constant or missing features.
func featureSpread(train *table.Table, dims []string) map[string]float64 {
	spread := make(map[string]float64, len(dims))
	for _, dim := range dims {
		var vals []float64
		for _, tr := range train.Rows() {
			if v, ok := tr.Value(dim); ok {
				if f, ok := v.Float(); ok {
					vals = append(vals, f)
				}
			}
		}
		spread[dim] = stddev(vals)
	}
	return spread
}

func stddev(vals []float64) float64 {
	if len(vals) < 2 {
		return 1
	}
	var mean float64
	for _, v := range vals {
		mean += v
	}
	mean /= float64(len(vals))
	var sq float64
	for _, v := range vals {
		sq += (v - mean) * (v - mean)
	}
	sd := math.Sqrt(sq / float64(len(vals)))
	if sd == 0 {
		return 1
	}
	return sd
}
