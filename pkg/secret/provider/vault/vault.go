package vault

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/AminuIsrael/seldon-core/pkg/secret/provider"
	"github.com/hashicorp/vault/api"
	"github.com/hashicorp/vault/api/auth/approle"
	"github.com/hashicorp/vault/api/auth/kubernetes"
)

// PropertyVersion reads a given version of a KV v2 secret.
const PropertyVersion = "version"

var ErrSecretNoData = errors.New("secret no data")

type VaultProvider struct {
	kv *api.KVv2
}

func NewProvider(cfg map[string]interface{}) (provider.Provider, error) {
	var opts Options
	if err := provider.Decode(cfg, &opts); err != nil {
		return nil, err
	}

	config := api.DefaultConfig()
	config.Address = opts.Address
	client, err := api.NewClient(config)
	if err != nil {
		return nil, err
	}
	if opts.Namespace != "" {
		client.SetNamespace(opts.Namespace)
	}
	if err := login(context.Background(), client, opts.AuthMethod, opts.AuthN); err != nil {
		return nil, fmt.Errorf("vault login (%s): %w", opts.AuthMethod, err)
	}

	return &VaultProvider{kv: client.KVv2(opts.MountPath)}, nil
}

func login(ctx context.Context, client *api.Client, method string, authn AuthN) error {
	var auth api.AuthMethod
	var err error
	switch method {
	case "token":
		client.SetToken(authn.Token.Token)
		return nil
	case "approle":
		var opts []approle.LoginOption
		if authn.AppRole.ResponseWrapping {
			opts = append(opts, approle.WithWrappingToken())
		}
		auth, err = approle.NewAppRoleAuth(
			authn.AppRole.RoleID,
			&approle.SecretID{FromString: authn.AppRole.SecretID},
			opts...,
		)
	case "kubernetes":
		var opts []kubernetes.LoginOption
		if authn.Kubernetes.TokenPath != "" {
			opts = append(opts, kubernetes.WithServiceAccountTokenPath(authn.Kubernetes.TokenPath))
		}
		auth, err = kubernetes.NewKubernetesAuth(authn.Kubernetes.Role, opts...)
	default:
		return fmt.Errorf("unknown auth method: %q", method)
	}
	if err != nil {
		return err
	}
	_, err = client.Auth().Login(ctx, auth)
	return err
}

func (p *VaultProvider) get(ctx context.Context, key string, properties map[string]string) (*api.KVSecret, error) {
	if v := properties[PropertyVersion]; v != "" {
		version, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid version: %q", v)
		}
		return p.kv.GetVersion(ctx, key, version)
	}
	return p.kv.Get(ctx, key)
}

func (p *VaultProvider) GetValue(ctx context.Context, key string, properties map[string]string) (string, error) {
	secret, err := p.get(ctx, key, properties)
	if err != nil {
		if errors.Is(err, api.ErrSecretNotFound) {
			return "", provider.ErrSecretNotFound
		}
		return "", err
	}

	if secret == nil {
		return "", provider.ErrSecretNotFound
	}
	if secret.Data == nil {
		return "", ErrSecretNoData
	}
	value, err := json.Marshal(secret.Data)
	if err != nil {
		return "", err
	}
	return string(value), nil
}
