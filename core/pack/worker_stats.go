package pack

import (
	"time"

	"gonum.org/v1/gonum/stat"
)

// WorkerStats is the rolling efficiency accumulator for one worker. Used for
// reporting only, never for scheduling decisions.
type WorkerStats struct {
	Worker  string        `json:"worker"`
	Count   int           `json:"count"`
	Total   time.Duration `json:"total"`
	Average time.Duration `json:"average"`
	Best    time.Duration `json:"best"`
	Worst   time.Duration `json:"worst"`
}

func (w *WorkerStats) record(d time.Duration) {
	w.Count++
	w.Total += d
	w.Average = w.Total / time.Duration(w.Count)
	if w.Best == 0 || d < w.Best {
		w.Best = d
	}
	if d > w.Worst {
		w.Worst = d
	}
}

// Summary aggregates efficiency across the whole floor.
type Summary struct {
	Workers        int           `json:"workers"`
	Sessions       int           `json:"sessions"`
	MeanDuration   time.Duration `json:"mean_duration"`
	StdDevDuration time.Duration `json:"stddev_duration"`
}

// Summary returns floor-wide pack statistics, weighting each worker's mean
// by their session count.
func (t *Tracker) Summary() Summary {
	t.mu.Lock()
	defer t.mu.Unlock()
	var means, weights []float64
	sessions := 0
	for _, w := range t.workers {
		means = append(means, w.Average.Minutes())
		weights = append(weights, float64(w.Count))
		sessions += w.Count
	}
	if len(means) == 0 {
		return Summary{}
	}
	mean := stat.Mean(means, weights)
	std := stat.StdDev(means, weights)
	return Summary{
		Workers:        len(t.workers),
		Sessions:       sessions,
		MeanDuration:   time.Duration(mean * float64(time.Minute)),
		StdDevDuration: time.Duration(std * float64(time.Minute)),
	}
}
