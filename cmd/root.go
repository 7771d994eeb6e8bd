package cmd

import (
	"os"

	"github.com/AminuIsrael/seldon-core/config"
	"github.com/AminuIsrael/seldon-core/config/modules"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var (
	configurationFile string
	logLevel          string
)

func initConfig(filename string) (*config.Config, error) {
	cfg := config.New()
	if err := config.Load(filename, cfg); err != nil {
		return nil, errors.Wrap(err, "could not load configuration")
	}
	if logLevel != "" {
		cfg.Log.Level = modules.LogLevel(logLevel)
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}
	return cfg, nil
}

func addConfigFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&configurationFile, "config", "", "", "The configuration filename")
	cmd.Flags().StringVarP(&logLevel, "log-level", "", "", "Overrides the configured log level (debug, info, warn, error)")
}

func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "seldon-core",
		Short:        "Serve and test Seldon Core predictive units",
		Long:         ``,
		SilenceUsage: true,
	}

	cmd.SetOut(os.Stdout)

	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(NewMicroserviceCmd())
	cmd.AddCommand(NewTesterCmd())
	cmd.AddCommand(NewAPITesterCmd())

	return cmd
}

// Execute runs the command and exits with status 1 when it fails.
func Execute(cmd *cobra.Command) {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
