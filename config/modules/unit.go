package modules

// UnitConfig identifies the predictive unit inside its deployment graph.
type UnitConfig struct {
	BaseConfig
	ID           string `yaml:"id" json:"id"`
	PredictorID  string `yaml:"predictor_id" json:"predictor_id" split_words:"true"`
	DeploymentID string `yaml:"deployment_id" json:"deployment_id" split_words:"true"`
	// Parameters is a JSON list of {name, value, type} objects
	Parameters string `yaml:"parameters" json:"parameters"`
}

func (cfg UnitConfig) PersistenceKey() string {
	return "persistence_" + cfg.DeploymentID + "_" + cfg.PredictorID + "_" + cfg.ID
}

// Attributes labels the telemetry of the unit with its non-empty ids.
func (cfg UnitConfig) Attributes() map[string]string {
	attrs := make(map[string]string, 3)
	for k, v := range map[string]string{
		"seldon.deployment_id": cfg.DeploymentID,
		"seldon.predictor_id":  cfg.PredictorID,
		"seldon.unit_id":       cfg.ID,
	} {
		if v != "" {
			attrs[k] = v
		}
	}
	return attrs
}
