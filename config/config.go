// Package config is for settings that are unmarshalled from viper:
// defaults, an optional settings file, CIFASM_ environment variables
// and command line flags, in rising order of precedence.
package config

import (
	"log/slog"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/andrew-torda/cifasm/pdb"
	"github.com/andrew-torda/cifasm/pdb/assembly"
	"github.com/andrew-torda/cifasm/pdb/cmmn"
)

// EnvPrefix starts the name of every environment variable we look at,
// so ident.max is CIFASM_IDENT_MAX.
const EnvPrefix = "CIFASM"

// IdentConfig bounds identifiers read from files.
type IdentConfig struct {
	// longest identifier kept, in bytes
	Max int `mapstructure:"max"`
	// truncate or fail
	Overflow string `mapstructure:"overflow"`
}

// Config is the root-level settings struct.
type Config struct {
	// where log output goes: "", stdout, stderr or a file name
	Log string `mapstructure:"log"`
	// debug, info, warn or error
	LogLevel string `mapstructure:"log-level"`
	Ident    IdentConfig
	// assembly to build, empty for the first in the file
	Assembly string `mapstructure:"assembly"`
	// chain or entity, for files without assemblies
	Group string `mapstructure:"group"`
	// files read at once by batch and agents, 0 for the default
	Workers int `mapstructure:"workers"`
}

// SetDefaults puts the defaults into v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("log", "stderr")
	v.SetDefault("log-level", "warn")
	v.SetDefault("ident.max", cmmn.DfltIdentMax)
	v.SetDefault("ident.overflow", cmmn.Truncate.String())
	v.SetDefault("assembly", "")
	v.SetDefault("group", assembly.ByChain.String())
	v.SetDefault("workers", 0)
}

// New fills a Config from v. If settings is not empty, it is a yaml
// (or anything else viper reads) settings file which must exist.
func New(v *viper.Viper, settings string) (Config, error) {
	var c Config
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	if settings != "" {
		v.SetConfigFile(settings)
		if err := v.ReadInConfig(); err != nil {
			return c, errors.Wrapf(err, "reading settings %s", settings)
		}
	}
	if err := v.Unmarshal(&c); err != nil {
		return c, errors.Wrap(err, "unable to decode settings")
	}
	if _, err := c.Limit(); err != nil {
		return c, err
	}
	if _, err := c.Level(); err != nil {
		return c, err
	}
	if _, err := assembly.ParseGroupBy(c.Group); err != nil {
		return c, err
	}
	if c.Workers < 0 {
		return c, errors.Errorf("workers is %d, must not be negative", c.Workers)
	}
	return c, nil
}

// Limit is the identifier policy.
func (c Config) Limit() (cmmn.Limit, error) {
	o, err := cmmn.ParseOverflow(c.Ident.Overflow)
	if err != nil {
		return cmmn.Limit{}, err
	}
	if c.Ident.Max <= 0 {
		return cmmn.Limit{}, errors.Errorf("ident.max is %d, must be positive", c.Ident.Max)
	}
	return cmmn.Limit{Max: c.Ident.Max, Overflow: o}, nil
}

// Level is the log level.
func (c Config) Level() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return l, errors.Wrap(err, "log-level")
	}
	return l, nil
}

// Logger makes the logger the settings ask for.
func (c Config) Logger() (*slog.Logger, error) {
	l, err := c.Level()
	if err != nil {
		return nil, err
	}
	return pdb.LogWhere(c.Log, l)
}

// LoadOptions turns the settings into options for pdb.Load.
func (c Config) LoadOptions(lg *slog.Logger) (pdb.Options, error) {
	lim, err := c.Limit()
	if err != nil {
		return pdb.Options{}, err
	}
	g, err := assembly.ParseGroupBy(c.Group)
	if err != nil {
		return pdb.Options{}, err
	}
	return pdb.Options{
		Ident:  lim,
		Logger: lg,
		Scene:  assembly.SceneOptions{AssemblyID: c.Assembly, Group: g},
	}, nil
}
