package config

// Config holds all application configuration.
type Config struct {
	Log      LogConfig      `mapstructure:"log"`
	Server   ServerConfig   `mapstructure:"server"`
	Store    StoreConfig    `mapstructure:"store"`
	Pipeline PipelineConfig `mapstructure:"pipeline"`
}

// LogConfig configures logging behavior.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Host        string `mapstructure:"host"`
	Port        int    `mapstructure:"port"`
	NoCORS      bool   `mapstructure:"no_cors"`
	EventBuffer int    `mapstructure:"event_buffer"`
}

// StoreConfig configures persistence and generated artifacts.
type StoreConfig struct {
	Path       string `mapstructure:"path"`
	ChartsDir  string `mapstructure:"charts_dir"`
	ReportsDir string `mapstructure:"reports_dir"`
	Seed       bool   `mapstructure:"seed"`
}

// PipelineConfig configures workflow execution parameters.
type PipelineConfig struct {
	// Segments is the target cluster count for customer segmentation.
	Segments int `mapstructure:"segments"`

	// HighRiskThreshold flags customers above this risk score.
	HighRiskThreshold float64 `mapstructure:"high_risk_threshold"`

	// TopExplanations is how many customers get risk explanations.
	TopExplanations int `mapstructure:"top_explanations"`

	// PersistSimulations stores what-if results instead of keeping them
	// ephemeral.
	PersistSimulations bool `mapstructure:"persist_simulations"`
}
