package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/AminuIsrael/seldon-core/config/modules"
	"github.com/AminuIsrael/seldon-core/config/providers"
	"github.com/AminuIsrael/seldon-core/pkg/log"
	"github.com/AminuIsrael/seldon-core/pkg/secret"
)

const EnvPrefix = "SELDON"

// Loader is configuration loader.
//
// Sources are applied in order: defaults, environment, YAML file, then the
// legacy predictive unit environment variables.
type Loader struct {
	cfg         *Config
	envPrefix   string
	filename    string
	fileContent []byte
	lookup      func(string) (string, bool)
	manager     *secret.SecretManager
}

func NewLoader(cfg *Config) *Loader {
	return &Loader{cfg: cfg, lookup: osLookup}
}

func (l *Loader) WithEnvPrefix(prefix string) *Loader {
	l.envPrefix = prefix
	return l
}

func (l *Loader) WithFilename(filename string) *Loader {
	l.filename = filename
	return l
}

func (l *Loader) WithFileContent(content []byte) *Loader {
	l.fileContent = content
	return l
}

func (l *Loader) WithLookup(lookup func(string) (string, bool)) *Loader {
	l.lookup = lookup
	return l
}

func (l *Loader) load(module string, value any) (err error) {
	if l.envPrefix != "" {
		envPrefix := l.envPrefix
		if module != "" {
			envPrefix = l.envPrefix + "_" + module
		}
		err = providers.NewEnvProvider(envPrefix).
			WithManager(l.manager).
			Load(value)
		if err != nil {
			return err
		}
	}

	return providers.NewYAMLProvider(l.filename, l.fileContent).
		WithSection(strings.ToLower(module)).
		WithManager(l.manager).
		Load(value)
}

func NewSecretManager(cfg modules.SecretConfig) (*secret.SecretManager, error) {
	manager := secret.NewManager(secret.Options{
		TTL: time.Second * time.Duration(cfg.TTL),
	})
	for _, p := range cfg.GetProviders() {
		settings, err := cfg.ProviderConfiguration(p)
		if err != nil {
			return nil, fmt.Errorf("secret provider %s: %w", p, err)
		}
		if err := manager.RegisterProvider(string(p), settings); err != nil {
			return nil, err
		}
	}
	return manager, nil
}

func (l *Loader) Load() error {
	cfg := l.cfg
	if err := l.load("SECRET", &cfg.Secret); err != nil {
		return err
	}

	if cfg.Secret.Enabled() {
		secretManager, err := NewSecretManager(cfg.Secret)
		if err != nil {
			return err
		}
		l.manager = secretManager
		if err := l.load("LOG", &cfg.Log); err != nil {
			return err
		}

		logger, err := log.NewZapLogger(&cfg.Log)
		if err != nil {
			return err
		}
		secretManager.WithLogger(logger.Named("secret"))
	}

	if err := l.load("", cfg); err != nil {
		return err
	}

	if err := applyLegacyEnv(cfg, l.lookup); err != nil {
		return err
	}

	return cfg.PostProcess()
}

func Load(filename string, cfg *Config) error {
	return NewLoader(cfg).WithEnvPrefix(EnvPrefix).WithFilename(filename).Load()
}
