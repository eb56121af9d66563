package env

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// LoadFiles loads each existing dotenv file in order. Variables already set
// in the environment win, so earlier files take precedence over later ones.
func LoadFiles(paths ...string) error {
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return err
		}

		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
	}

	return nil
}

// Parse fills T from the environment using its env struct tags.
func Parse[T any]() (T, error) {
	target, err := env.ParseAs[T]()
	if err != nil {
		return target, fmt.Errorf("parse env: %w", err)
	}

	return target, nil
}
