package config

import (
	stderrors "errors"
	"io/fs"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/foamviz/signalviz/pkg/errors"
)

// ConfigPathEnvVar overrides the config file location.
const ConfigPathEnvVar = "SIGNALVIZ_CONFIG"

// envPrefix marks environment overrides of arbitrary keys.
const envPrefix = "SIGNALVIZ_"

// DefaultConfigPaths are searched in order when no path is given.
var DefaultConfigPaths = []string{"signalviz.yaml", "signalviz.yml"}

// DefaultDotEnvPath is read when LoadOptions.DotEnvPath is empty.
const DefaultDotEnvPath = ".env"

// envAliases maps conventional variable names onto config keys.
var envAliases = map[string]string{
	"MAPBOX_TOKEN":           "mapbox.token",
	"WEB3_INFURA_PROJECT_ID": "ledger.infura_project_id",
}

// LoadOptions selects the files Load reads.
type LoadOptions struct {
	ConfigPath string // explicit YAML file; must exist when set
	DotEnvPath string // .env file; missing files are ignored
}

var validate = validator.New()

// Load builds the configuration from defaults, files and the environment.
func Load(opts LoadOptions) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Defaults(), "koanf"), nil); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "load defaults")
	}

	path, explicit := opts.ConfigPath, opts.ConfigPath != ""
	if !explicit {
		if p := os.Getenv(ConfigPathEnvVar); p != "" {
			path, explicit = p, true
		} else {
			path = findConfigFile()
		}
	}
	if path != "" {
		if _, err := os.Stat(path); err != nil && explicit {
			return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "config file %s", path)
		}
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "load config file %s", path)
		}
	}

	if err := loadDotEnv(k, opts.DotEnvPath); err != nil {
		return nil, err
	}

	if err := k.Load(env.ProviderWithValue("", ".", envValue), nil); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "load environment")
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "decode configuration")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks every section against its validation tags.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if stderrors.As(err, &verrs) && len(verrs) > 0 {
			f := verrs[0]
			return errors.New(errors.ErrCodeInvalidConfig, "%s fails %q (got %v)", f.Namespace(), f.Tag(), f.Value())
		}
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "validate configuration")
	}
	return nil
}

// loadDotEnv layers a .env file under the process environment. The file is
// read without touching os.Environ, so real variables still win.
func loadDotEnv(k *koanf.Koanf, path string) error {
	if path == "" {
		path = DefaultDotEnvPath
	}
	vars, err := godotenv.Read(path)
	if err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "read %s", path)
	}
	for name, val := range vars {
		if key := envKey(name); key != "" {
			if err := k.Set(key, val); err != nil {
				return errors.Wrap(errors.ErrCodeInvalidConfig, err, "apply %s from %s", name, path)
			}
		}
	}
	return nil
}

// envValue skips empty variables so an exported but blank MAPBOX_TOKEN does
// not mask the one in .env.
func envValue(name, value string) (string, any) {
	if value == "" {
		return "", nil
	}
	return envKey(name), value
}

// envKey maps an environment variable to a config key, or "" to skip it.
//
//	MAPBOX_TOKEN                  -> mapbox.token
//	SIGNALVIZ_GRAPHICS__WIDTH     -> graphics.width
//	SIGNALVIZ_MAPBOX__STYLE_UNDER -> mapbox.style_under
func envKey(name string) string {
	if key, ok := envAliases[name]; ok {
		return key
	}
	if name == ConfigPathEnvVar || !strings.HasPrefix(name, envPrefix) {
		return ""
	}
	rest := strings.ToLower(strings.TrimPrefix(name, envPrefix))
	section, key, ok := strings.Cut(rest, "__")
	if !ok || section == "" || key == "" {
		return ""
	}
	return section + "." + key
}

func findConfigFile() string {
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}
