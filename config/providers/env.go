package providers

import (
	"context"
	"os"
	"reflect"

	"github.com/AminuIsrael/seldon-core/pkg/secret"
	"github.com/AminuIsrael/seldon-core/pkg/secret/reference"
	"github.com/kelseyhightower/envconfig"
)

type EnvProvider struct {
	prefix  string
	env     map[string]string
	manager *secret.SecretManager
}

func NewEnvProvider(prefix string) *EnvProvider {
	return &EnvProvider{prefix: prefix}
}

func (p *EnvProvider) WithManager(manager *secret.SecretManager) *EnvProvider {
	p.manager = manager
	return p
}

// WithEnv sets variables into the process environment before loading.
func (p *EnvProvider) WithEnv(env map[string]string) *EnvProvider {
	p.env = env
	return p
}

func (p *EnvProvider) Load(cfg any) error {
	for k, v := range p.env {
		if err := os.Setenv(k, v); err != nil {
			return err
		}
	}

	if err := envconfig.Process(p.prefix, cfg); err != nil {
		return err
	}

	if p.manager != nil {
		return resolveReferences(reflect.ValueOf(cfg), p.manager)
	}
	return nil
}

// resolveReferences replaces every string field holding a secret reference
// with the resolved value.
func resolveReferences(v reflect.Value, manager *secret.SecretManager) error {
	switch v.Kind() {
	case reflect.Ptr, reflect.Interface:
		if v.IsNil() {
			return nil
		}
		return resolveReferences(v.Elem(), manager)
	case reflect.Struct:
		for i := 0; i < v.NumField(); i++ {
			if !v.Type().Field(i).IsExported() {
				continue
			}
			if err := resolveReferences(v.Field(i), manager); err != nil {
				return err
			}
		}
	case reflect.Slice:
		for i := 0; i < v.Len(); i++ {
			if err := resolveReferences(v.Index(i), manager); err != nil {
				return err
			}
		}
	case reflect.String:
		if !v.CanSet() || !reference.IsReference(v.String()) {
			return nil
		}
		ref, err := reference.Parse(v.String())
		if err != nil {
			return err
		}
		value, err := manager.ResolveReference(context.TODO(), ref)
		if err != nil {
			return err
		}
		v.SetString(value)
	}
	return nil
}
