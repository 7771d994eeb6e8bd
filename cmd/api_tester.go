package cmd

import (
	"net"
	"net/url"

	"github.com/AminuIsrael/seldon-core/config"
	"github.com/AminuIsrael/seldon-core/rpc"
	"github.com/AminuIsrael/seldon-core/tester"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

type apiTesterFlags struct {
	testerFlags
	oauthKey    string
	oauthSecret string
	oauthPort   string
	namespace   string
	deployment  string
}

func (f *apiTesterFlags) basePath() string {
	if f.namespace != "" && f.deployment != "" {
		return "/seldon/" + url.PathEscape(f.namespace) + "/" + url.PathEscape(f.deployment)
	}
	return ""
}

func NewAPITesterCmd() *cobra.Command {
	var flags apiTesterFlags

	cmd := &cobra.Command{
		Use:   "api-tester <contract> <host> <port>",
		Short: "Send generated requests to a deployment through the external API",
		Long: `Send requests generated from a contract file to a deployment through the
external API gateway.

With --oauth-key and --oauth-secret a client credentials token is fetched from
/oauth/token first. Both flags accept secret references such as
{secret://vault/seldon/oauth.key} which are resolved with the secret providers
of the configuration file.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := flags.options()
			if err != nil {
				return err
			}
			opts.Puid = true

			cfg, err := initTesterLogger()
			if err != nil {
				return err
			}
			contract, err := tester.LoadContract(args[0])
			if err != nil {
				return err
			}

			host, port := args[1], args[2]
			token := ""
			if flags.oauthKey != "" {
				manager, err := config.NewSecretManager(cfg.Secret)
				if err != nil {
					return err
				}
				if err := manager.ResolveAll(cmd.Context(), &flags.oauthKey, &flags.oauthSecret); err != nil {
					return errors.Wrap(err, "failed to resolve oauth credentials")
				}
				oauthPort := flags.oauthPort
				if oauthPort == "" {
					oauthPort = port
				}
				token, err = tester.FetchToken(cmd.Context(), "http://"+net.JoinHostPort(host, oauthPort), flags.oauthKey, flags.oauthSecret, opts.Timeout)
				if err != nil {
					return err
				}
			}

			hostport := net.JoinHostPort(host, port)
			var client tester.Client
			if flags.grpc {
				client, err = tester.NewGRPCClient(hostport, rpc.ServiceSeldon, token)
				if err != nil {
					return err
				}
			} else {
				client = tester.NewRESTClient(tester.RESTOptions{
					BaseURL: "http://" + hostport + flags.basePath(),
					Paths:   tester.APIPaths,
					Token:   token,
					Timeout: opts.Timeout,
				})
			}
			return runTester(cmd, client, contract, opts)
		},
	}

	flags.add(cmd)
	cmd.Flags().StringVarP(&flags.oauthKey, "oauth-key", "", "", "OAuth client key")
	cmd.Flags().StringVarP(&flags.oauthSecret, "oauth-secret", "", "", "OAuth client secret")
	cmd.Flags().StringVarP(&flags.oauthPort, "oauth-port", "", "", "Port of the OAuth endpoint, defaults to <port>")
	cmd.Flags().StringVarP(&flags.namespace, "namespace", "", "", "Namespace of the deployment")
	cmd.Flags().StringVarP(&flags.deployment, "deployment", "", "", "Name of the deployment")
	addConfigFlags(cmd)

	return cmd
}
