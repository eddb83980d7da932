package terminal

import (
	"os"
	"sync"

	"filedeck/logging"
)

const cwdEnvName = "FILEDECK_TERMINAL_CWD"

var (
	cwdOnce     sync.Once
	fallbackCwd string
)

// defaultCwd is the working directory for sessions started without a path.
func defaultCwd() string {
	cwdOnce.Do(func() { fallbackCwd = envCwd() })
	return fallbackCwd
}

func envCwd() string {
	if cwd := os.Getenv(cwdEnvName); cwd == "" {
		logging.S().Debugw("terminal cwd override not set, using home directory")
	} else {
		if _, err := os.Stat(cwd); err == nil {
			return cwd
		}
		logging.S().Warnw("terminal cwd override is not a valid path, using home directory",
			"path", cwd)
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		logging.S().Warnw("failed to get user home directory, using process cwd", "error", err)
		return "."
	}

	return homeDir
}
