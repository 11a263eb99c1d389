// Package config implements the ambient preset-configuration surface
// (§6 "Configuration inputs"): a TOML preset file loaded from a global
// and a project-local location and merged local-over-global, plus the
// core's pure preset-substitution contract. It also holds the helpers
// (SetGlobalPreset, RemoveGlobalPreset) that the CLI's `preset` command
// uses to edit the global preset file.
package config

import (
	"os"
	"path/filepath"
	"regexp"
	"runtime"

	"github.com/pelletier/go-toml/v2"
)

// LocalConfigFile is the project-local override, discovered by walking
// up from the search root (grounded on the original tool's
// find_local_config ancestor search).
const LocalConfigFile = ".rdump.toml"

// Config holds the discovery and evaluation options the CLI adapter
// wires into the orchestrator, plus the resolved preset table.
type Config struct {
	Workers       int
	MaxDepth      int
	IncludeHidden bool
	NoIgnore      bool
	Presets       map[string]string
}

// Default returns the built-in defaults: one worker per logical CPU, no
// depth bound, ignore files respected, hidden entries excluded.
func Default() *Config {
	return &Config{
		Workers:  runtime.NumCPU(),
		MaxDepth: -1,
		Presets:  make(map[string]string),
	}
}

type fileConfig struct {
	Presets map[string]string `toml:"presets"`
}

// GlobalConfigPath returns ~/.config/rdump/config.toml (or the
// platform equivalent via os.UserConfigDir).
func GlobalConfigPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "rdump", "config.toml"), nil
}

// FindLocalConfig searches startDir and its ancestors for .rdump.toml,
// returning "" if none is found.
func FindLocalConfig(startDir string) string {
	dir := startDir
	for {
		candidate := filepath.Join(dir, LocalConfigFile)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// Load builds the effective Config by starting from Default and merging
// in the global preset file (if any) and then the project-local file
// discovered from startDir (if any); local presets override global ones
// of the same name.
func Load(startDir string) (*Config, error) {
	cfg := Default()

	if globalPath, err := GlobalConfigPath(); err == nil {
		if fc, err := loadFile(globalPath); err == nil {
			mergePresets(cfg.Presets, fc.Presets)
		}
	}

	if local := FindLocalConfig(startDir); local != "" {
		fc, err := loadFile(local)
		if err != nil {
			return nil, err
		}
		mergePresets(cfg.Presets, fc.Presets)
	}

	return cfg, nil
}

func loadFile(path string) (*fileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var fc fileConfig
	if err := toml.Unmarshal(data, &fc); err != nil {
		return nil, err
	}
	return &fc, nil
}

func mergePresets(dst, src map[string]string) {
	for name, query := range src {
		dst[name] = query
	}
}

// SetGlobalPreset adds or updates one preset in the global config file,
// creating the file and its parent directory if needed (the `preset add`
// CLI command, supplementing spec.md's out-of-scope preset management
// with the original tool's PresetAction::Add).
func SetGlobalPreset(name, query string) error {
	path, err := GlobalConfigPath()
	if err != nil {
		return err
	}

	fc, err := loadOrEmpty(path)
	if err != nil {
		return err
	}
	if fc.Presets == nil {
		fc.Presets = make(map[string]string)
	}
	fc.Presets[name] = query
	return saveFile(path, fc)
}

// RemoveGlobalPreset deletes one preset from the global config file. It
// is not an error to remove a preset that does not exist.
func RemoveGlobalPreset(name string) error {
	path, err := GlobalConfigPath()
	if err != nil {
		return err
	}

	fc, err := loadOrEmpty(path)
	if err != nil {
		return err
	}
	delete(fc.Presets, name)
	return saveFile(path, fc)
}

func loadOrEmpty(path string) (*fileConfig, error) {
	fc, err := loadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &fileConfig{Presets: make(map[string]string)}, nil
		}
		return nil, err
	}
	return fc, nil
}

func saveFile(path string, fc *fileConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := toml.Marshal(fc)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

var presetToken = regexp.MustCompile(`@([A-Za-z_][A-Za-z0-9_-]*)`)

// ResolvePreset performs the core's one substitution pass (§6): every
// bare @name token is replaced with its preset query, parenthesized so
// it composes safely regardless of surrounding operator precedence.
// Unknown names are left untouched — parsing will then fail on them with
// an ordinary syntax error, since "@name" alone is not valid grammar.
func ResolvePreset(presets map[string]string, query string) string {
	return presetToken.ReplaceAllStringFunc(query, func(token string) string {
		name := token[1:]
		if resolved, ok := presets[name]; ok {
			return "(" + resolved + ")"
		}
		return token
	})
}
