package config

import (
	"os"
	"strconv"

	"github.com/spf13/viper"
)

// ConfigSource represents a source of configuration values
type ConfigSource interface {
	GetString(key string) (string, bool)
	GetInt(key string) (int, bool)
	GetFloat(key string) (float64, bool)
	GetBool(key string) (bool, bool)
}

// EnvSource implements ConfigSource for environment variables
type EnvSource struct{}

func (e *EnvSource) GetString(key string) (string, bool) {
	value := os.Getenv(key)
	return value, value != ""
}

func (e *EnvSource) GetInt(key string) (int, bool) {
	value := os.Getenv(key)
	if value == "" {
		return 0, false
	}
	if i, err := strconv.Atoi(value); err == nil {
		return i, true
	}
	return 0, false
}

func (e *EnvSource) GetFloat(key string) (float64, bool) {
	value := os.Getenv(key)
	if value == "" {
		return 0, false
	}
	if f, err := strconv.ParseFloat(value, 64); err == nil {
		return f, true
	}
	return 0, false
}

func (e *EnvSource) GetBool(key string) (bool, bool) {
	value := os.Getenv(key)
	if value == "" {
		return false, false
	}
	if b, err := strconv.ParseBool(value); err == nil {
		return b, true
	}
	return false, false
}

// FlagSource implements ConfigSource for command-line flags
type FlagSource struct {
	values map[string]interface{}
}

func NewFlagSource() *FlagSource {
	return &FlagSource{values: make(map[string]interface{})}
}

func (f *FlagSource) Set(key string, value interface{}) {
	f.values[key] = value
}

func (f *FlagSource) GetString(key string) (string, bool) {
	if value, exists := f.values[key]; exists {
		if str, ok := value.(string); ok && str != "" {
			return str, true
		}
	}
	return "", false
}

func (f *FlagSource) GetInt(key string) (int, bool) {
	if value, exists := f.values[key]; exists {
		if i, ok := value.(int); ok {
			return i, true
		}
	}
	return 0, false
}

func (f *FlagSource) GetFloat(key string) (float64, bool) {
	if value, exists := f.values[key]; exists {
		if fl, ok := value.(float64); ok {
			return fl, true
		}
	}
	return 0, false
}

func (f *FlagSource) GetBool(key string) (bool, bool) {
	if value, exists := f.values[key]; exists {
		if b, ok := value.(bool); ok {
			return b, true
		}
	}
	return false, false
}

// FileSource implements ConfigSource for an optional YAML config file. Keys
// are translated through fileKeys into their dotted form before lookup, so
// the resolver can address every source with the same key names.
type FileSource struct {
	v *viper.Viper
}

// NewFileSource reads the config file at path. A missing file is not an
// error; the source simply resolves nothing.
func NewFileSource(path string) (*FileSource, error) {
	v := viper.New()
	if path == "" {
		return &FileSource{v: v}, nil
	}
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		if os.IsNotExist(err) {
			return &FileSource{v: viper.New()}, nil
		}
		return nil, err
	}
	return &FileSource{v: v}, nil
}

func (f *FileSource) lookup(key string) (string, bool) {
	dotted, ok := fileKeys[key]
	if !ok || !f.v.IsSet(dotted) {
		return "", false
	}
	return dotted, true
}

func (f *FileSource) GetString(key string) (string, bool) {
	if dotted, ok := f.lookup(key); ok {
		return f.v.GetString(dotted), true
	}
	return "", false
}

func (f *FileSource) GetInt(key string) (int, bool) {
	if dotted, ok := f.lookup(key); ok {
		return f.v.GetInt(dotted), true
	}
	return 0, false
}

func (f *FileSource) GetFloat(key string) (float64, bool) {
	if dotted, ok := f.lookup(key); ok {
		return f.v.GetFloat64(dotted), true
	}
	return 0, false
}

func (f *FileSource) GetBool(key string) (bool, bool) {
	if dotted, ok := f.lookup(key); ok {
		return f.v.GetBool(dotted), true
	}
	return false, false
}

// Streams decodes the per-stream list from the config file, if present. The
// file is the only source rich enough to carry camera metadata and per-stream
// thresholds; env and flags fall back to a plain stream ID list.
func (f *FileSource) Streams() ([]StreamConfig, error) {
	if !f.v.IsSet("streams") {
		return nil, nil
	}
	var streams []StreamConfig
	if err := f.v.UnmarshalKey("streams", &streams); err != nil {
		return nil, err
	}
	return streams, nil
}
