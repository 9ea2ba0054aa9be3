package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// DotEnvFiles are read by LoadDotEnv when no files are given. Earlier files
// win over later ones.
var DotEnvFiles = []string{".env.local", ".env"}

// LoadDotEnv loads environment variables from the given files when present.
// Existing process environment variables are not overridden.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = DotEnvFiles
	}

	for _, file := range files {
		err := godotenv.Load(file)
		if err == nil || errors.Is(err, os.ErrNotExist) {
			continue
		}
		return fmt.Errorf("load %s: %w", file, err)
	}
	return nil
}
