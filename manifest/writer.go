package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DefaultFilename is the manifest name used when none is given.
const DefaultFilename = "version.json"

// ReadPackageVersion returns the "version" field of a package.json file.
func ReadPackageVersion(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}

	var pkg struct {
		Version string `json:"version"`
	}
	if err := json.Unmarshal(data, &pkg); err != nil {
		return "", fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if pkg.Version == "" {
		return "", fmt.Errorf("%s has no version field", path)
	}
	return pkg.Version, nil
}

// NormalizeFilename appends ".json" when missing.
func NormalizeFilename(name string) string {
	if name == "" {
		return DefaultFilename
	}
	if !strings.HasSuffix(name, ".json") {
		name += ".json"
	}
	return name
}

// Write encodes r and writes the envelope to dir/filename, creating dir if needed.
// It returns the path of the written file.
func Write(dir, filename string, r VersionRecord) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	env, err := Encode(r)
	if err != nil {
		return "", err
	}
	content, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal envelope: %w", err)
	}

	path := filepath.Join(dir, NormalizeFilename(filename))
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}
