// Package export writes queue rankings and batch recommendations in CSV and
// JSON formats for dashboard downloads and CLI output.
package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/parcelops/dispatchd/core/batch"
	"github.com/parcelops/dispatchd/core/queue"
)

// WriteRankingJSON writes the ranked queue to w in JSON format.
func WriteRankingJSON(w io.Writer, ranking []queue.RankedOrder) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(ranking)
}

// WriteRankingCSV writes the ranked queue to w with dashboard headers.
func WriteRankingCSV(w io.Writer, ranking []queue.RankedOrder) error {
	cw := csv.NewWriter(w)
	header := []string{
		"rank", "order_number", "dps_score", "urgency", "overdue",
		"expected_dispatch", "countdown", "county", "order_total",
	}
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, r := range ranking {
		o := r.Order
		dispatch := ""
		if !o.ExpectedDispatch.IsZero() {
			dispatch = o.ExpectedDispatch.Format(time.RFC3339)
		}
		rec := []string{
			strconv.Itoa(r.PriorityRank),
			o.OrderNumber,
			strconv.FormatFloat(o.DPSScore, 'f', 2, 64),
			string(o.Urgency),
			strconv.FormatBool(o.IsOverdue),
			dispatch,
			r.Countdown,
			o.County,
			strconv.FormatFloat(o.OrderTotal, 'f', 2, 64),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteRecommendationsJSON writes batch recommendations to w in JSON format.
func WriteRecommendationsJSON(w io.Writer, recs []batch.Recommendation) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(recs)
}

// WriteRecommendationsCSV writes batch recommendations to w, one row per
// recommendation with the member orders joined by a semicolon.
func WriteRecommendationsCSV(w io.Writer, recs []batch.Recommendation) error {
	cw := csv.NewWriter(w)
	header := []string{
		"type", "orders", "time_savings_min", "efficiency_gain_pct",
		"cost_savings", "risk", "feasibility", "rating",
	}
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, rec := range recs {
		row := []string{
			string(rec.Type),
			strings.Join(rec.OrderNumbers(), ";"),
			strconv.FormatFloat(rec.Efficiency.TimeSavings, 'f', 2, 64),
			strconv.FormatFloat(rec.Efficiency.EfficiencyGainPercent, 'f', 2, 64),
			strconv.FormatFloat(rec.Efficiency.CostSavings, 'f', 2, 64),
			strconv.FormatFloat(rec.Efficiency.RiskScore, 'f', 2, 64),
			strconv.FormatFloat(rec.Feasibility.Score, 'f', 0, 64),
			rec.Feasibility.Rating,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
