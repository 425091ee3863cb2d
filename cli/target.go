package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/richinex/staxchange/model"
)

// LoadTarget reads a target stack descriptor. Files ending in .yaml or .yml
// are YAML; anything else must be JSON. An empty path yields no target.
func LoadTarget(path string) (model.TargetStack, error) {
	if path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read target %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		var v any
		if err := yaml.Unmarshal(data, &v); err != nil {
			return nil, fmt.Errorf("failed to parse target %s: %w", path, err)
		}
		out, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("target %s is not representable as JSON: %w", path, err)
		}
		return model.TargetStack(out), nil
	default:
		if !json.Valid(data) {
			return nil, fmt.Errorf("target %s is not valid JSON", path)
		}
		return model.TargetStack(data), nil
	}
}

// ParseRepo splits "owner/repo".
func ParseRepo(s string) (owner, repo string, err error) {
	owner, repo, ok := strings.Cut(strings.TrimSuffix(s, ".git"), "/")
	if !ok || owner == "" || repo == "" || strings.Contains(repo, "/") {
		return "", "", fmt.Errorf("expected owner/repo, got %q", s)
	}
	return owner, repo, nil
}
