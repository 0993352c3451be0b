package config

import (
	"fmt"
	"os"
	"strings"
)

// ResolveSecret reads a secret using the *_FILE convention: envName+"_FILE"
// names a file holding the secret and wins over envName itself. Neither set
// yields "". Only a failed file read is an error.
func ResolveSecret(envName string) (string, error) {
	fileEnv := envName + "_FILE"
	path := os.Getenv(fileEnv)
	if path == "" {
		return os.Getenv(envName), nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read secret from %s=%s: %w", fileEnv, path, err)
	}
	return strings.TrimSpace(string(content)), nil
}

// ResolveSecrets resolves each name and stops at the first error.
func ResolveSecrets(names ...string) (map[string]string, error) {
	out := make(map[string]string, len(names))
	for _, name := range names {
		v, err := ResolveSecret(name)
		if err != nil {
			return nil, err
		}
		out[name] = v
	}
	return out, nil
}
