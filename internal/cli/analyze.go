package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/advisorlens/advisorlens/internal/config"
	"github.com/advisorlens/advisorlens/internal/pkg/logger"
	"github.com/advisorlens/advisorlens/internal/report"
	"github.com/advisorlens/advisorlens/internal/services"
	"github.com/advisorlens/advisorlens/internal/upload"
)

func newAnalyzeCmd() *cobra.Command {
	var reportType string
	var topN int

	cmd := &cobra.Command{
		Use:   "analyze <file.csv>",
		Short: "Run the full pipeline over a local Advisor CSV export",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]

			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", path, err)
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if topN > 0 {
				cfg.Report.TopN = topN
			} else if v := viper.GetInt("top_n"); v > 0 {
				cfg.Report.TopN = v
			}

			t, ok := report.ParseType(reportType)
			if !ok {
				return fmt.Errorf("unknown report type %q (valid: %v)", reportType, report.Types)
			}

			log := logger.New(logger.Config{Level: "error", Format: "console"})
			pipeline := services.NewPipeline(cfg, nil, log)

			result, err := pipeline.Process(context.Background(), upload.RawUpload{
				Filename:    filepath.Base(path),
				ContentType: "text/csv",
				Size:        int64(len(data)),
				Data:        data,
			}, t)
			if err != nil {
				return err
			}

			return printResult(cmd.OutOrStdout(), result, viper.GetString("output"))
		},
	}

	cmd.Flags().StringVarP(&reportType, "type", "t", "detailed", "report type: detailed, executive, cost, security, operations")
	cmd.Flags().IntVar(&topN, "top", 0, "override the top-N recommendation count")

	return cmd
}
