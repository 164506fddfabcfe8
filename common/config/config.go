package config

import (
	"fmt"

	"github.com/ykhdr/crack-dict/common/internal/kdl"
)

// InitializeConfig loads the KDL file at path over defaultCfg and sets up the
// global logger from the result. An empty path keeps the defaults.
func InitializeConfig[T any](path string, defaultCfg T) (*T, error) {
	config := defaultCfg
	if path != "" {
		var err error
		config, err = kdl.Unmarshal[T](path, defaultCfg)
		if err != nil {
			return nil, fmt.Errorf("unmarshal kdl: %w", err)
		}
	}
	setupLogger(&config)
	return &config, nil
}
