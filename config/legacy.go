package config

import (
	"fmt"
	"os"
	"strconv"
)

// Environment variables injected into predictive unit containers.
const (
	EnvServicePort    = "PREDICTIVE_UNIT_SERVICE_PORT"
	EnvUnitID         = "PREDICTIVE_UNIT_ID"
	EnvPredictorID    = "PREDICTOR_ID"
	EnvDeploymentID   = "SELDON_DEPLOYMENT_ID"
	EnvUnitParameters = "PREDICTIVE_UNIT_PARAMETERS"
	EnvRedisHost      = "REDIS_SERVICE_HOST"
	EnvRedisPort      = "REDIS_SERVICE_PORT"
	EnvPushFrequency  = "PERSISTENCE_PUSH_FREQUENCY"
)

func applyLegacyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	if port, ok := lookup(EnvServicePort); ok && port != "" && cfg.Server.Listen == "" {
		if _, err := strconv.ParseUint(port, 10, 16); err != nil {
			return fmt.Errorf("invalid %s: %q", EnvServicePort, port)
		}
		cfg.Server.Listen = "0.0.0.0:" + port
	}

	setString(lookup, EnvUnitID, &cfg.Unit.ID)
	setString(lookup, EnvPredictorID, &cfg.Unit.PredictorID)
	setString(lookup, EnvDeploymentID, &cfg.Unit.DeploymentID)
	setString(lookup, EnvUnitParameters, &cfg.Unit.Parameters)
	setString(lookup, EnvRedisHost, &cfg.Redis.Host)

	if v, ok := lookup(EnvRedisPort); ok && v != "" {
		port, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			return fmt.Errorf("invalid %s: %q", EnvRedisPort, v)
		}
		cfg.Redis.Port = uint32(port)
	}

	if v, ok := lookup(EnvPushFrequency); ok && v != "" {
		freq, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			return fmt.Errorf("invalid %s: %q", EnvPushFrequency, v)
		}
		cfg.Persistence.PushFrequency = uint32(freq)
	}
	return nil
}

func setString(lookup func(string) (string, bool), key string, dst *string) {
	if v, ok := lookup(key); ok && v != "" {
		*dst = v
	}
}

func osLookup(key string) (string, bool) {
	return os.LookupEnv(key)
}
