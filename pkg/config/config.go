package config

import (
	"fmt"
	"os"

	"github.com/meshsync/chainwatch/pkg/storage/dbconfig"
	"gopkg.in/yaml.v3"
)

// Version is the version of the tool, set at build time.
var Version string

// Config is the top level struct representing the node configuration.
type Config struct {
	EventSub   EventSub                 `yaml:"EventSub"`
	DB         dbconfig.DBConfiguration `yaml:"DB"`
	Prometheus BasicService             `yaml:"Prometheus"`
	Pprof      BasicService             `yaml:"Pprof"`
}

// Load attempts to load the config from the given path.
func Load(path string) (Config, error) {
	configData, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("unable to read config: %w", err)
	}
	return Unmarshal(configData)
}

// Unmarshal unmarshals the config from bytes.
func Unmarshal(data []byte) (Config, error) {
	config := Config{
		DB: dbconfig.DBConfiguration{
			Type: dbconfig.InMemoryDB,
		},
	}
	err := yaml.Unmarshal(data, &config)
	if err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config YAML: %w", err)
	}
	return config, nil
}
