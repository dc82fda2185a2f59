package params

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/vvka-141/mnxnorm/internal/files/filesystem"
)

// ParseEnvFile parses .env content: KEY=VALUE lines, '#' comments, optional
// quotes and "export " prefixes.
func ParseEnvFile(content []byte) (map[string]string, error) {
	values, err := godotenv.UnmarshalBytes(content)
	if err != nil {
		return nil, fmt.Errorf("invalid env file: %w", err)
	}
	return values, nil
}

// ApplyEnvFiles reads each file in order and exports the variables that are
// not already set in the environment. Later files do not override earlier
// ones. It returns the names it exported.
func ApplyEnvFiles(fsProvider filesystem.FileSystemProvider, files []string) ([]string, error) {
	var exported []string
	for _, file := range files {
		content, err := fsProvider.ReadFile(file)
		if err != nil {
			return exported, fmt.Errorf("failed to read env file %q: %w", file, err)
		}
		values, err := ParseEnvFile(content)
		if err != nil {
			return exported, fmt.Errorf("%s: %w", file, err)
		}
		for _, key := range sortedKeys(values) {
			if _, set := os.LookupEnv(key); set {
				continue
			}
			if err := os.Setenv(key, values[key]); err != nil {
				return exported, err
			}
			exported = append(exported, key)
		}
	}
	return exported, nil
}
