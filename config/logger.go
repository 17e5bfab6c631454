package config

import "github.com/ykhdr/rainbow-hash/internal/logging"

type LogConfig struct {
	LogLevel string `kdl:"log-level"`
}

func (c *LogConfig) GetLogLevel() string {
	return c.LogLevel
}

type hasLogLevel interface {
	GetLogLevel() string
}

// SetupLogger configures the global logger from cfg's log level, falling back
// to info.
func SetupLogger(cfg any) {
	var logLevel logging.Level
	logCfg, ok := cfg.(hasLogLevel)
	if !ok {
		logLevel = logging.InfoLevel
	} else {
		logLevel = logging.ParseLevel(logCfg.GetLogLevel())
	}
	logging.Setup(logLevel)
}
