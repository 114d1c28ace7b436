package cli

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"

	"github.com/abczzz13/realip"
)

const (
	keyProxyIPs     = "proxy_ips"
	keyProxyMode    = "proxy_mode"
	keyHeaderKeys   = "header_keys"
	keyDisableCache = "disable_cache"
	keyLogLevel     = "log_level"
	keyLogFormat    = "log_format"
	keyListen       = "listen"

	envPrefix = "REALIP"
)

// TrustSetting is the proxy trust configuration as written in config files,
// environment variables and flags. See realip.ParseTrustSetting.
type TrustSetting string

// Settings is the decoded CLI configuration.
type Settings struct {
	ProxyIPs     TrustSetting `mapstructure:"proxy_ips"`
	ProxyMode    bool         `mapstructure:"proxy_mode"`
	HeaderKeys   []string     `mapstructure:"header_keys"`
	DisableCache bool         `mapstructure:"disable_cache"`
	LogLevel     string       `mapstructure:"log_level"`
	LogFormat    string       `mapstructure:"log_format"`
	Listen       string       `mapstructure:"listen"`
}

// Options converts s into resolver options. An empty header list keeps the
// default priority list.
func (s Settings) Options() []realip.Option {
	opts := []realip.Option{realip.ParseTrustSetting(string(s.ProxyIPs))}
	if s.ProxyMode {
		opts = append(opts, realip.ProxyMode())
	}
	if len(s.HeaderKeys) > 0 {
		opts = append(opts, realip.HeaderKeys(s.HeaderKeys...))
	}
	if s.DisableCache {
		opts = append(opts, realip.DisableCache(true))
	}
	return opts
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.SetDefault(keyLogLevel, "info")
	v.SetDefault(keyLogFormat, "text")
	v.SetDefault(keyListen, ":8080")
	return v
}

// loadSettings reads the optional config file and decodes the merged view of
// flags, environment and file.
func loadSettings(v *viper.Viper, configFile string) (Settings, error) {
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return Settings{}, fmt.Errorf("unable to read config file %q: %w", configFile, err)
		}
	}

	var s Settings
	err := v.Unmarshal(&s, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		trustSettingHook,
		mapstructure.StringToSliceHookFunc(","),
	)))
	if err != nil {
		return Settings{}, fmt.Errorf("unable to decode configuration: %w", err)
	}

	s.HeaderKeys = trimEmpty(s.HeaderKeys)
	return s, nil
}

var trustSettingType = reflect.TypeOf(TrustSetting(""))

// trustSettingHook accepts proxy_ips as a boolean (proxy mode on or off), a
// single string, or a list of specs.
func trustSettingHook(_ reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
	if to != trustSettingType {
		return data, nil
	}

	switch v := data.(type) {
	case nil:
		return "", nil
	case bool:
		if v {
			return "all", nil
		}
		return "none", nil
	case string:
		return v, nil
	case []string:
		return strings.Join(trimEmpty(v), ","), nil
	case []interface{}:
		specs := make([]string, 0, len(v))
		for _, item := range v {
			spec, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("%s entries must be strings, got %T", keyProxyIPs, item)
			}
			specs = append(specs, spec)
		}
		return strings.Join(trimEmpty(specs), ","), nil
	}

	return nil, fmt.Errorf("unsupported %s value of type %T", keyProxyIPs, data)
}

func trimEmpty(values []string) []string {
	out := values[:0:0]
	for _, value := range values {
		if value = strings.TrimSpace(value); value != "" {
			out = append(out, value)
		}
	}
	return out
}
