package config

import "github.com/ykhdr/crack-dict/common/logging"

type LogConfig struct {
	LogLevel string `kdl:"log-level"`
	// LogConsole forces the human readable writer regardless of level.
	LogConsole bool `kdl:"log-console"`
}

func (c *LogConfig) GetLogLevel() string {
	return c.LogLevel
}

func (c *LogConfig) GetLogConsole() bool {
	return c.LogConsole
}

type hasLogConfig interface {
	GetLogLevel() string
	GetLogConsole() bool
}

func setupLogger(cfg any) {
	opts := logging.Options{Level: logging.InfoLevel}
	if logCfg, ok := cfg.(hasLogConfig); ok {
		opts.Level = logging.ParseLevel(logCfg.GetLogLevel())
		opts.Console = logCfg.GetLogConsole()
	}
	logging.Setup(opts)
}
