package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/advisorlens/advisorlens/internal/config"
	"github.com/advisorlens/advisorlens/internal/pkg/logger"
	"github.com/advisorlens/advisorlens/internal/upload"
)

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <file.csv>",
		Short: "Run only the upload validation checks against a local file",
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

			log := logger.New(logger.Config{Level: "error", Format: "console"})
			validator := upload.NewValidator(cfg.Upload, log)

			sanitized, err := validator.Validate(upload.RawUpload{
				Filename:    filepath.Base(path),
				ContentType: "text/csv",
				Size:        int64(len(data)),
				Data:        data,
			})
			if err != nil {
				return fmt.Errorf("rejected: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "accepted: %s (%d bytes)\n", sanitized.Filename, len(data))
			return nil
		},
	}
}
