package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/parcelops/dispatchd/config"
	"github.com/parcelops/dispatchd/core/batch"
	"github.com/parcelops/dispatchd/core/model"
	"github.com/parcelops/dispatchd/infra/csvload"
	"github.com/parcelops/dispatchd/infra/logger"
	"github.com/parcelops/dispatchd/pkg/export"
)

var (
	batchFile   string
	batchOrder  string
	batchFormat string
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Find batch picking opportunities",
}

var batchFindCmd = &cobra.Command{
	Use:   "find",
	Short: "Find batch opportunities for an order in a CSV export",
	RunE:  batchFind,
}

func init() {
	batchFindCmd.Flags().StringVarP(&batchFile, "file", "f", "", "orders CSV file")
	batchFindCmd.Flags().StringVarP(&batchOrder, "order", "o", "", "target order number")
	batchFindCmd.Flags().StringVar(&batchFormat, "format", "csv", "output format: csv or json")
	for _, flag := range []string{"file", "order"} {
		if err := batchFindCmd.MarkFlagRequired(flag); err != nil {
			panic(err)
		}
	}
	batchCmd.AddCommand(batchFindCmd)
	rootCmd.AddCommand(batchCmd)
}

func batchFind(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logg := logger.New("batch-command")

	orders, _, err := csvload.New(logg).LoadFile(batchFile)
	if err != nil {
		return fmt.Errorf("load orders: %w", err)
	}
	var target *model.Order
	for i := range orders {
		if orders[i].OrderNumber == batchOrder {
			target = &orders[i]
			break
		}
	}
	if target == nil {
		return fmt.Errorf("%w: %s in %s", batch.ErrTargetNotFound, batchOrder, batchFile)
	}

	opt, err := batch.NewOptimizer(cfg.Batch, logg, nil, nil)
	if err != nil {
		return err
	}
	result := opt.FindBatchOpportunities(*target, orders)
	if len(result.Opportunities) == 0 {
		logg.Infof("no batch opportunities for %s: %s", batchOrder, result.Reason)
		return nil
	}
	switch batchFormat {
	case "json":
		return export.WriteRecommendationsJSON(os.Stdout, result.Opportunities)
	case "csv":
		return export.WriteRecommendationsCSV(os.Stdout, result.Opportunities)
	default:
		return fmt.Errorf("unknown format %q", batchFormat)
	}
}
