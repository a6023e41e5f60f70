package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Configurable represents a type that can be configured via flags and config files.
type Configurable interface {
	// AddFlags should add command-line flags to the provided FlagSet
	AddFlags(fs *pflag.FlagSet)
}

// ConfigLoader loads configuration with the precedence
// defaults < config file < explicitly set flags.
type ConfigLoader struct {
	configFile string
	defaults   map[string]any
	strictMode bool
	skipFlags  map[string]bool
}

// NewConfigLoader creates a new ConfigLoader instance.
func NewConfigLoader() *ConfigLoader {
	return &ConfigLoader{
		defaults:  make(map[string]any),
		skipFlags: map[string]bool{"config": true, "version": true},
	}
}

// SetConfigFile sets the configuration file path. An empty path means no file.
func (cl *ConfigLoader) SetConfigFile(configFile string) {
	cl.configFile = configFile
}

// SetDefault sets a default value for a configuration key.
func (cl *ConfigLoader) SetDefault(key string, value any) {
	cl.defaults[key] = value
}

// SetDefaults sets multiple default values at once.
func (cl *ConfigLoader) SetDefaults(defaults map[string]any) {
	for key, value := range defaults {
		cl.defaults[key] = value
	}
}

// SetStrictMode makes unknown configuration keys an error.
func (cl *ConfigLoader) SetStrictMode(strict bool) {
	cl.strictMode = strict
}

// SkipFlag excludes a flag from the configuration keys. Flags such as
// --config select the file rather than describe a setting.
func (cl *ConfigLoader) SkipFlag(name string) {
	cl.skipFlags[name] = true
}

// LoadConfig loads configuration using the global pflag.CommandLine flag set.
func (cl *ConfigLoader) LoadConfig(config any) error {
	return cl.LoadConfigWithFlagSet(config, pflag.CommandLine)
}

// LoadConfigWithFlagSet populates config, which must be a pointer to a
// struct with mapstructure tags. Flag names are used verbatim as keys, so
// --http.listen-port sets the "listen-port" key of the "http" table.
func (cl *ConfigLoader) LoadConfigWithFlagSet(config any, fs *pflag.FlagSet) error {
	v := viper.New()

	for key, value := range cl.defaults {
		v.SetDefault(key, value)
	}

	if cl.configFile != "" {
		v.SetConfigFile(cl.configFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("%w %s: %v", ErrConfigFileRead, cl.configFile, err)
		}
	}

	if fs != nil {
		fs.Visit(func(flag *pflag.Flag) {
			if cl.skipFlags[flag.Name] {
				return
			}
			v.Set(flag.Name, flagValue(flag))
		})
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           config,
		TagName:          "mapstructure",
		WeaklyTypedInput: true,
		ErrorUnused:      cl.strictMode,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	})
	if err != nil {
		return fmt.Errorf("%w: failed to create decoder: %v", ErrConfigUnmarshal, err)
	}

	if err := decoder.Decode(v.AllSettings()); err != nil {
		if cl.configFile != "" {
			return fmt.Errorf("%w: %s: %v", ErrConfigUnmarshal, cl.configFile, err)
		}
		return fmt.Errorf("%w: %v", ErrConfigUnmarshal, err)
	}

	return nil
}

// flagValue returns the typed value of a flag so that viper does not have to
// guess from its string form.
func flagValue(flag *pflag.Flag) any {
	str := flag.Value.String()

	switch flag.Value.Type() {
	case "uint", "uint8", "uint16", "uint32", "uint64":
		if val, err := strconv.ParseUint(str, 10, 64); err == nil {
			return val
		}
	case "int", "int8", "int16", "int32", "int64":
		if val, err := strconv.ParseInt(str, 10, 64); err == nil {
			return val
		}
	case "bool":
		if val, err := strconv.ParseBool(str); err == nil {
			return val
		}
	case "float32", "float64":
		if val, err := strconv.ParseFloat(str, 64); err == nil {
			return val
		}
	case "stringSlice", "stringArray":
		if sliceFlag, ok := flag.Value.(pflag.SliceValue); ok {
			return sliceFlag.GetSlice()
		}
		str = strings.Trim(str, "[]")
		if str == "" {
			return []string{}
		}
		items := strings.Split(str, ",")
		for i, item := range items {
			items[i] = strings.TrimSpace(item)
		}
		return items
	}

	return str
}

// ResolveConfigFile picks the config file to load. An explicitly requested
// file must exist; the default file is used only when it is present.
func ResolveConfigFile(configFile, defaultFile string) (string, error) {
	if configFile == "" {
		return "", nil
	}

	_, err := os.Stat(configFile)
	if err == nil {
		return configFile, nil
	}

	if configFile == defaultFile && os.IsNotExist(err) {
		return "", nil
	}

	return "", fmt.Errorf("%w: %s", ErrConfigFileNotFound, configFile)
}
