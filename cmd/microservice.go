package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/AminuIsrael/seldon-core/app"
	"github.com/AminuIsrael/seldon-core/component"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

type microserviceFlags struct {
	serviceType string
	persistence int
	parameters  string
	tracing     int
}

func NewMicroserviceCmd() *cobra.Command {
	var flags microserviceFlags

	cmd := &cobra.Command{
		Use:   "microservice <interface_name> <api_type>",
		Short: "Serve a component as a predictive unit",
		Long: `Serve a component as a predictive unit.

interface_name is a registered component (` + "`seldon-core microservice --help`" + ` lists
them below) or the path of a JavaScript file. api_type is REST or GRPC.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := flags.options(args)
			if err != nil {
				return err
			}

			cfg, err := initConfig(configurationFile)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("parameters") {
				cfg.Unit.Parameters = flags.parameters
			}
			if cmd.Flags().Changed("persistence") {
				cfg.Persistence.Enabled = flags.persistence == 1
			}
			if cmd.Flags().Changed("tracing") {
				cfg.Tracing.Enabled = flags.tracing == 1
			}

			application, err := app.New(cfg, opts)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := application.Start(); err != nil {
				return err
			}

			g, ctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				<-ctx.Done()
				return application.Stop()
			})
			return g.Wait()
		},
	}

	cmd.Flags().StringVarP(&flags.serviceType, "service-type", "", string(component.ServiceModel), "MODEL, ROUTER, TRANSFORMER, OUTPUT_TRANSFORMER, COMBINER or OUTLIER_DETECTOR")
	cmd.Flags().IntVarP(&flags.persistence, "persistence", "", 0, "Persist the component state to Redis (0 or 1)")
	cmd.Flags().StringVarP(&flags.parameters, "parameters", "", "[]", "JSON list of {name, value, type} component parameters")
	cmd.Flags().IntVarP(&flags.tracing, "tracing", "", 0, "Enable tracing (0 or 1)")
	addConfigFlags(cmd)

	cmd.SetUsageTemplate(cmd.UsageTemplate() + "\nRegistered components:\n" + components() + "\n")

	return cmd
}

func components() string {
	s := ""
	for _, name := range component.Names() {
		s += "  " + name + "\n"
	}
	return s
}

func (f *microserviceFlags) options(args []string) (app.Options, error) {
	api, err := app.ParseAPIType(args[1])
	if err != nil {
		return app.Options{}, err
	}
	typ, err := component.ParseServiceType(f.serviceType)
	if err != nil {
		return app.Options{}, err
	}
	if f.persistence != 0 && f.persistence != 1 {
		return app.Options{}, errors.Errorf("invalid persistence: %d", f.persistence)
	}
	if f.tracing != 0 && f.tracing != 1 {
		return app.Options{}, errors.Errorf("invalid tracing: %d", f.tracing)
	}
	return app.Options{
		Interface:   args[0],
		API:         api,
		ServiceType: typ,
	}, nil
}
