// Package bootstrap creates the Herald home directory tree on first run.
package bootstrap

import (
	"fmt"
	"os"

	"github.com/heraldbot/herald/internal/config"
)

const defaultConfigTOML = `# Herald configuration.
# String values may reference environment variables with $NAME.

[telegram]
token = "$HERALD_TELEGRAM_TOKEN"

[dispatch]
# "concurrent" fans matched handlers out in parallel;
# "sequential" runs them one by one in registration order.
policy = "concurrent"

# [[schedule]]
# name = "standup"
# cron = "0 9 * * 1-5"
# chat_id = 0
# text = "Standup time!"
`

// Initialize creates the expected Herald home tree if missing.
func Initialize(cfg *config.Config) error {
	dirs := []string{
		cfg.HomeDir,
		cfg.LogsDir(),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return writeFileIfMissing(cfg.ConfigPath(), defaultConfigTOML)
}

func writeFileIfMissing(path, content string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("stat %q: %w", path, err)
	}

	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write file %q: %w", path, err)
	}
	return nil
}
