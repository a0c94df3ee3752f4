package toml

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"
)

const (
	configName   = "config"
	configType   = "toml"
	ConfigDirKey = "config.dir"

	SettingsPathKey = "settings.path"
	FeedPathKey     = "feed.path"

	defaultConfigDir = ".feedlink"
	settingsFile     = "settings.toml"
	feedFile         = "feed.toml"

	dataFileMode = 0o600
	dataDirMode  = 0o700
)

var (
	lockRegistryMu sync.Mutex
	pathLockMap    = map[string]*sync.RWMutex{}
)

// LoadConfig points cfg at config.toml inside the configured directory and
// registers the default data file paths. A missing config file is not an
// error.
func LoadConfig(cfg *viper.Viper) error {
	dir := cfg.GetString(ConfigDirKey)
	if dir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("resolve home directory: %w", err)
		}
		dir = filepath.Join(homeDir, defaultConfigDir)
		cfg.SetDefault(ConfigDirKey, dir)
	}

	cfg.SetConfigName(configName)
	cfg.SetConfigType(configType)
	cfg.AddConfigPath(dir)
	cfg.SetDefault(SettingsPathKey, filepath.Join(dir, settingsFile))
	cfg.SetDefault(FeedPathKey, filepath.Join(dir, feedFile))

	if err := cfg.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return fmt.Errorf("read config file: %w", err)
		}
	}

	return nil
}

// dataFile is one versioned TOML document guarded by a lock shared by every
// handle on the same path.
type dataFile struct {
	path  string
	label string
	mu    *sync.RWMutex
}

func openDataFile(cfg *viper.Viper, key string, label string) (dataFile, error) {
	if cfg == nil {
		cfg = viper.New()
	}
	if !cfg.IsSet(key) {
		if err := LoadConfig(cfg); err != nil {
			return dataFile{}, err
		}
	}

	path := strings.TrimSpace(cfg.GetString(key))
	if path == "" {
		return dataFile{}, fmt.Errorf("%s path is empty", label)
	}
	path, err := normalizePath(path, label)
	if err != nil {
		return dataFile{}, err
	}

	return dataFile{path: path, label: label, mu: lockForPath(path)}, nil
}

// read decodes the file into v and reports whether it existed.
func (f dataFile) read(v any) (bool, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("read %s file: %w", f.label, err)
	}

	if err := toml.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("decode %s file: %w", f.label, err)
	}

	return true, nil
}

func (f dataFile) write(v any) error {
	if err := os.MkdirAll(filepath.Dir(f.path), dataDirMode); err != nil {
		return fmt.Errorf("create %s directory: %w", f.label, err)
	}

	data, err := toml.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s file: %w", f.label, err)
	}

	tempFile, err := os.CreateTemp(filepath.Dir(f.path), "."+f.label+"-*.toml.tmp")
	if err != nil {
		return fmt.Errorf("create temp %s file: %w", f.label, err)
	}

	tempName := tempFile.Name()
	cleanup := true
	defer func() {
		if cleanup {
			_ = os.Remove(tempName)
		}
	}()

	if _, err := tempFile.Write(data); err != nil {
		return errors.Join(fmt.Errorf("write temp %s file: %w", f.label, err), tempFile.Close())
	}

	if err := tempFile.Chmod(dataFileMode); err != nil {
		return errors.Join(fmt.Errorf("chmod temp %s file: %w", f.label, err), tempFile.Close())
	}

	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("close temp %s file: %w", f.label, err)
	}

	if err := os.Rename(tempName, f.path); err != nil {
		return fmt.Errorf("replace %s file: %w", f.label, err)
	}

	cleanup = false

	if err := os.Chmod(f.path, dataFileMode); err != nil {
		return fmt.Errorf("chmod %s file: %w", f.label, err)
	}

	return nil
}

func normalizePath(path string, label string) (string, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve %s path: %w", label, err)
	}

	return filepath.Clean(absPath), nil
}

func lockForPath(path string) *sync.RWMutex {
	lockRegistryMu.Lock()
	defer lockRegistryMu.Unlock()

	if mu, ok := pathLockMap[path]; ok {
		return mu
	}

	mu := &sync.RWMutex{}
	pathLockMap[path] = mu
	return mu
}
