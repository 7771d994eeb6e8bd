package aws

import (
	"context"
	"errors"

	"github.com/AminuIsrael/seldon-core/pkg/secret/provider"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager/types"
)

// PropertyVersionStage selects the staging label of the secret version,
// AWSCURRENT when absent.
const PropertyVersionStage = "version_stage"

type Options struct {
	Region string `json:"region"`
	URL    string `json:"url"`
}

type AwsProvider struct {
	client *secretsmanager.Client
}

func NewProvider(cfg map[string]interface{}) (provider.Provider, error) {
	var opts Options
	if err := provider.Decode(cfg, &opts); err != nil {
		return nil, err
	}

	var loadOpts []func(*config.LoadOptions) error
	if opts.Region != "" {
		loadOpts = append(loadOpts, config.WithRegion(opts.Region))
	}
	if opts.URL != "" {
		loadOpts = append(loadOpts, config.WithBaseEndpoint(opts.URL))
	}
	awsconfig, err := config.LoadDefaultConfig(context.Background(), loadOpts...)
	if err != nil {
		return nil, err
	}

	return &AwsProvider{client: secretsmanager.NewFromConfig(awsconfig)}, nil
}

func (p *AwsProvider) GetValue(ctx context.Context, key string, properties map[string]string) (string, error) {
	input := &secretsmanager.GetSecretValueInput{SecretId: aws.String(key)}
	if stage := properties[PropertyVersionStage]; stage != "" {
		input.VersionStage = aws.String(stage)
	}
	result, err := p.client.GetSecretValue(ctx, input)
	if err != nil {
		var notFound *types.ResourceNotFoundException
		if errors.As(err, &notFound) {
			return "", provider.ErrSecretNotFound
		}
		return "", err
	}
	if result.SecretString == nil {
		return string(result.SecretBinary), nil
	}
	return *result.SecretString, nil
}
