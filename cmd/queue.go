package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/parcelops/dispatchd/config"
	"github.com/parcelops/dispatchd/core/queue"
	"github.com/parcelops/dispatchd/infra/csvload"
	"github.com/parcelops/dispatchd/infra/logger"
	"github.com/parcelops/dispatchd/pkg/export"
)

var (
	queueFile   string
	queueTopN   int
	queueFormat string
)

var queueCmd = &cobra.Command{
	Use:   "queue",
	Short: "Inspect the dispatch priority queue",
}

var queueTopCmd = &cobra.Command{
	Use:   "top",
	Short: "Score a CSV order export and print the top of the queue",
	RunE:  queueTop,
}

func init() {
	queueTopCmd.Flags().StringVarP(&queueFile, "file", "f", "", "orders CSV file")
	queueTopCmd.Flags().IntVarP(&queueTopN, "top", "n", 10, "number of orders to show")
	queueTopCmd.Flags().StringVar(&queueFormat, "format", "csv", "output format: csv or json")
	if err := queueTopCmd.MarkFlagRequired("file"); err != nil {
		panic(err)
	}
	queueCmd.AddCommand(queueTopCmd)
	rootCmd.AddCommand(queueCmd)
}

func queueTop(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logg := logger.New("queue-command")

	orders, report, err := csvload.New(logg).LoadFile(queueFile)
	if err != nil {
		return fmt.Errorf("load orders: %w", err)
	}
	logg.Infof("loaded %d of %d rows from %s", report.Loaded, report.Rows, queueFile)

	mgr, err := queue.NewManager(cfg.Scoring.Scorer(), logg, nil, nil)
	if err != nil {
		return err
	}
	mgr.LoadOrders(orders)
	mgr.Recompute()

	ranking := mgr.TopN(queueTopN)
	switch queueFormat {
	case "json":
		return export.WriteRankingJSON(os.Stdout, ranking)
	case "csv":
		return export.WriteRankingCSV(os.Stdout, ranking)
	default:
		return fmt.Errorf("unknown format %q", queueFormat)
	}
}
