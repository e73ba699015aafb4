package config

import "path/filepath"

const (
	// Layout under HERALD_HOME.
	ConfigFilePath = "config.toml"
	LogsDirPath    = "logs"
	PIDFilePath    = "herald.pid"
)

func homeConfigPath(home string) string {
	return filepath.Join(home, ConfigFilePath)
}

func defaultHomePath(home string) string {
	return filepath.Join(home, ".herald")
}

func (c *Config) ConfigPath() string {
	return homeConfigPath(c.HomeDir)
}

func (c *Config) LogsDir() string {
	return filepath.Join(c.HomeDir, LogsDirPath)
}

func (c *Config) PIDPath() string {
	return filepath.Join(c.HomeDir, PIDFilePath)
}
