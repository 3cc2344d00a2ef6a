package config

import (
	"errors"
	"io/fs"

	"github.com/joho/godotenv"
)

// loadDotEnv loads a ".env" file from the working directory when present.
// It is not an error for the file to be absent; env vars set some other way
// (shell, systemd unit, container runtime) still apply.
func loadDotEnv() error {
	err := godotenv.Load()
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}
