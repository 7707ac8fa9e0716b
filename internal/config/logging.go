package config

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level      string          `yaml:"level"`  // debug, info, warn, error
	Format     string          `yaml:"format"` // json, console
	File       string          `yaml:"file"`   // empty = stderr (serve) or discarded (tui)
	Categories map[string]bool `yaml:"categories,omitempty"`
}
