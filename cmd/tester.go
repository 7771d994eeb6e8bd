package cmd

import (
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/AminuIsrael/seldon-core/config"
	"github.com/AminuIsrael/seldon-core/pkg/log"
	"github.com/AminuIsrael/seldon-core/rpc"
	"github.com/AminuIsrael/seldon-core/tester"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var ErrFBSNotSupported = errors.New("flatbuffers is not supported, use REST or --grpc")

type testerFlags struct {
	endpoint    string
	batchSize   int
	nRequests   int
	grpc        bool
	tensor      bool
	print       bool
	concurrency int
	timeout     time.Duration
	seed        uint64
	fbs         bool
}

func (f *testerFlags) add(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.endpoint, "endpoint", "", string(tester.EndpointPredict), "predict or send-feedback")
	cmd.Flags().IntVarP(&f.batchSize, "batch-size", "b", 1, "Rows per request")
	cmd.Flags().IntVarP(&f.nRequests, "n-requests", "n", 1, "Number of requests")
	cmd.Flags().BoolVarP(&f.grpc, "grpc", "", false, "Use gRPC")
	cmd.Flags().BoolVarP(&f.tensor, "tensor", "t", false, "Send the data as a tensor instead of an ndarray")
	cmd.Flags().BoolVarP(&f.print, "prnt", "p", false, "Print requests and responses")
	cmd.Flags().IntVarP(&f.concurrency, "concurrency", "", 1, "Requests in flight")
	cmd.Flags().DurationVarP(&f.timeout, "timeout", "", 10*time.Second, "Request timeout")
	cmd.Flags().Uint64VarP(&f.seed, "seed", "", 0, "Seed of the feature generator, 0 picks one from the clock")
	cmd.Flags().BoolVarP(&f.fbs, "fbs", "", false, "Use flatbuffers (not supported)")
}

func (f *testerFlags) options() (tester.Options, error) {
	if f.fbs {
		return tester.Options{}, ErrFBSNotSupported
	}
	endpoint, err := tester.ParseEndpoint(f.endpoint)
	if err != nil {
		return tester.Options{}, err
	}
	if f.batchSize < 1 {
		return tester.Options{}, errors.Errorf("invalid batch size: %d", f.batchSize)
	}
	if f.nRequests < 1 {
		return tester.Options{}, errors.Errorf("invalid number of requests: %d", f.nRequests)
	}
	seed := f.seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return tester.Options{
		Endpoint:    endpoint,
		BatchSize:   f.batchSize,
		NRequests:   f.nRequests,
		Tensor:      f.tensor,
		Print:       f.print,
		Concurrency: f.concurrency,
		Timeout:     f.timeout,
		Seed:        seed,
	}, nil
}

// initTesterLogger installs the configured logger as the global zap logger.
func initTesterLogger() (*config.Config, error) {
	cfg, err := initConfig(configurationFile)
	if err != nil {
		return nil, err
	}
	logger, err := log.NewZapLogger(&cfg.Log)
	if err != nil {
		return nil, err
	}
	zap.ReplaceGlobals(logger.Desugar())
	return cfg, nil
}

func runTester(cmd *cobra.Command, client tester.Client, contract *tester.Contract, opts tester.Options) error {
	defer func() { _ = client.Close() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner := tester.NewRunner(client, contract, opts, cmd.OutOrStdout())
	summary, err := runner.Run(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), summary.String())
	if summary.Failure > 0 {
		return errors.Errorf("%d of %d requests failed", summary.Failure, summary.Success+summary.Failure)
	}
	return nil
}

func NewTesterCmd() *cobra.Command {
	var flags testerFlags

	cmd := &cobra.Command{
		Use:   "tester <contract> <host> <port>",
		Short: "Send generated requests to a predictive unit",
		Long: `Send requests generated from a contract file straight to a predictive unit.

The contract lists the features and targets of the model with their types and
ranges. Requests go to /predict or /send-feedback over REST, or to the Model
service over gRPC.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := flags.options()
			if err != nil {
				return err
			}
			if _, err := initTesterLogger(); err != nil {
				return err
			}
			contract, err := tester.LoadContract(args[0])
			if err != nil {
				return err
			}

			hostport := net.JoinHostPort(args[1], args[2])
			var client tester.Client
			if flags.grpc {
				client, err = tester.NewGRPCClient(hostport, rpc.ServiceModel, "")
				if err != nil {
					return err
				}
			} else {
				client = tester.NewRESTClient(tester.RESTOptions{
					BaseURL: "http://" + hostport,
					Paths:   tester.MicroservicePaths,
					Form:    true,
					Timeout: opts.Timeout,
				})
			}
			return runTester(cmd, client, contract, opts)
		},
	}

	flags.add(cmd)
	addConfigFlags(cmd)

	return cmd
}
