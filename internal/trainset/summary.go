package trainset

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/ayusman/mudra/internal/gesture"
)

// LabelSummary describes the samples of one label.
type LabelSummary struct {
	Label  gesture.Label `json:"label"`
	Count  int           `json:"count"`
	Mean   []float64     `json:"mean"`
	StdDev []float64     `json:"stddev"`
}

// Summary describes a training set.
type Summary struct {
	Total  int            `json:"total"`
	Labels []LabelSummary `json:"labels"`
}

// Summarize computes per-label counts and per-feature mean and standard
// deviation. Labels are sorted by class. Vectors shorter than the longest
// one of their label are treated as zero padded.
func Summarize(samples []Sample) Summary {
	byLabel := make(map[gesture.Label][]Sample)
	for _, s := range samples {
		byLabel[s.Label] = append(byLabel[s.Label], s)
	}

	labels := make([]gesture.Label, 0, len(byLabel))
	for l := range byLabel {
		labels = append(labels, l)
	}
	sort.Slice(labels, func(i, j int) bool { return labels[i] < labels[j] })

	sum := Summary{Total: len(samples)}
	for _, l := range labels {
		group := byLabel[l]
		dim := 0
		for _, s := range group {
			dim = max(dim, len(s.Features))
		}

		ls := LabelSummary{
			Label:  l,
			Count:  len(group),
			Mean:   make([]float64, dim),
			StdDev: make([]float64, dim),
		}
		column := make([]float64, len(group))
		for f := 0; f < dim; f++ {
			for i, s := range group {
				column[i] = 0
				if f < len(s.Features) {
					column[i] = s.Features[f]
				}
			}
			if len(column) == 1 {
				ls.Mean[f] = column[0]
				continue
			}
			ls.Mean[f], ls.StdDev[f] = stat.MeanStdDev(column, nil)
		}
		sum.Labels = append(sum.Labels, ls)
	}
	return sum
}
