package secret

import (
	"context"
	"fmt"
	"time"

	"github.com/AminuIsrael/seldon-core/pkg/secret/provider"
	"github.com/AminuIsrael/seldon-core/pkg/secret/provider/aws"
	"github.com/AminuIsrael/seldon-core/pkg/secret/provider/vault"
	"github.com/AminuIsrael/seldon-core/pkg/secret/reference"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

type SecretManager struct {
	opts      Options
	log       *zap.SugaredLogger
	providers map[string]provider.Provider
	cache     *expirable.LRU[string, string]
}

type Options struct {
	TTL time.Duration
}

func NewManager(opts Options) *SecretManager {
	manager := &SecretManager{
		opts:      opts,
		log:       zap.NewNop().Sugar(),
		providers: make(map[string]provider.Provider),
	}
	if opts.TTL > 0 {
		manager.cache = expirable.NewLRU[string, string](64, nil, opts.TTL)
	}
	return manager
}

// RegisterProvider creates the named provider from its configuration map.
func (p *SecretManager) RegisterProvider(name string, cfg map[string]interface{}) error {
	var prov provider.Provider
	var err error
	switch name {
	case "aws":
		prov, err = aws.NewProvider(cfg)
	case "vault":
		prov, err = vault.NewProvider(cfg)
	default:
		return fmt.Errorf("unknown secret provider: %s", name)
	}
	if err != nil {
		return fmt.Errorf("failed to create secret provider '%s': %w", name, err)
	}
	p.AddProvider(name, prov)
	return nil
}

func (p *SecretManager) WithLogger(log *zap.SugaredLogger) *SecretManager {
	p.log = log
	return p
}

func (p *SecretManager) AddProvider(name string, prov provider.Provider) {
	p.providers[name] = prov
}

func referenceKey(ref *reference.Reference) string {
	return ref.Provider + "/" + ref.Name
}

// Resolve returns the value a {secret://...} reference points to. Other
// values are returned unchanged.
func (p *SecretManager) Resolve(ctx context.Context, s string) (string, error) {
	if !reference.IsReference(s) {
		return s, nil
	}
	ref, err := reference.Parse(s)
	if err != nil {
		return "", err
	}
	return p.ResolveReference(ctx, ref)
}

// ResolveAll resolves every value in place.
func (p *SecretManager) ResolveAll(ctx context.Context, values ...*string) error {
	for _, v := range values {
		resolved, err := p.Resolve(ctx, *v)
		if err != nil {
			return err
		}
		*v = resolved
	}
	return nil
}

// ResolveReference returns resolved value of a reference
func (p *SecretManager) ResolveReference(ctx context.Context, ref *reference.Reference) (value string, err error) {
	p.log.Debugf("resolving secret reference %s", ref)
	var cached bool
	if p.opts.TTL > 0 {
		value, cached = p.cache.Get(referenceKey(ref))
	}

	if !cached {
		prov := p.providers[ref.Provider]
		if prov == nil {
			return "", fmt.Errorf("failed to resolve reference value '%s': provider '%s' is not supported", ref.Reference, ref.Provider)
		}
		p.log.Debugf("fetching secret '%s' from %s", ref.Name, ref.Provider)
		value, err = prov.GetValue(ctx, ref.Name, ref.Properties)
		if err != nil {
			return "", fmt.Errorf("failed to resolve reference value '%s': %s", ref.Reference, err)
		}

		if p.opts.TTL > 0 {
			p.cache.Add(referenceKey(ref), value)
		}
	}

	if ref.Path != "" {
		if !gjson.Valid(value) {
			return "", fmt.Errorf("failed to resolve reference value '%s': value is not a valid JSON string", ref.Reference)
		}
		result := gjson.Get(value, ref.Path)
		if !result.Exists() {
			return "", fmt.Errorf("failed to resolve reference value '%s': no value for json path '%s'", ref.Reference, ref.Path)
		}
		value = result.String()
	}

	return value, nil
}
