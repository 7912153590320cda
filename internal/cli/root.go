package cli

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile      string
	outputFormat string
)

var rootCmd = &cobra.Command{
	Use:   "advisorlens",
	Short: "AdvisorLens - Azure Advisor CSV analysis from the command line",
	Long: `AdvisorLens ingests Azure Advisor CSV exports, classifies reservation and
savings-plan commitments, and produces aggregated report statistics without
needing the API server.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default $HOME/.advisorlens/config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "table", "output format: table, json, yaml")

	_ = viper.BindPFlag("output", rootCmd.PersistentFlags().Lookup("output"))

	rootCmd.AddCommand(newAnalyzeCmd())
	rootCmd.AddCommand(newValidateCmd())
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return
		}
		viper.AddConfigPath(filepath.Join(home, ".advisorlens"))
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("ADVISORLENS")
	viper.AutomaticEnv()

	// missing config file is fine, flags and env cover everything
	_ = viper.ReadInConfig()
}
