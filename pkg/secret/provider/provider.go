// Package provider defines the backends secret references are resolved
// against.
package provider

import (
	"context"
	"errors"

	"github.com/mitchellh/mapstructure"
)

var ErrSecretNotFound = errors.New("secret not found")

type Provider interface {
	// GetValue returns the secret stored under key. properties are the query
	// parameters of the reference.
	GetValue(ctx context.Context, key string, properties map[string]string) (string, error)
}

// Decode decodes a provider configuration map into out using json tags.
func Decode(cfg map[string]interface{}, out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	return decoder.Decode(cfg)
}
