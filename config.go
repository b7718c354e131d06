package chesspairs

import (
	"strings"

	"github.com/adrg/xdg"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// ConfigFile is where LoadConfig looks under the XDG config directories when no path is given.
const ConfigFile = "chesspairs/config.yaml"

// Config configures a conversion run.
type Config struct {
	Input       string `json:"input" mapstructure:"input"`               // PGN file, optionally .bz2, .zst or .gz
	Output      string `json:"output" mapstructure:"output"`             // dataset file, empty to keep it in memory
	TotalGames  int    `json:"total_games" mapstructure:"total-games"`   // expected games, enables the percentage bar
	MaxGames    int    `json:"max_games" mapstructure:"max-games"`       // stop after this many games, 0 for all
	SkipInvalid bool   `json:"skip_invalid" mapstructure:"skip-invalid"` // drop games that fail instead of aborting
	Quiet       bool   `json:"quiet" mapstructure:"quiet"`               // no progress display
	LogLevel    string `json:"log_level" mapstructure:"log-level"`
}

func DefaultConfig() Config {
	return Config{
		LogLevel: logrus.InfoLevel.String(),
	}
}

func (conf Config) IsValid() bool {
	if _, err := logrus.ParseLevel(conf.LogLevel); err != nil {
		return false
	}
	return conf.Input != "" &&
		conf.TotalGames >= 0 &&
		conf.MaxGames >= 0
}

// LoadConfig merges defaults, the config file, CHESSPAIRS_* environment variables and
// flags, later sources winning. path may be empty, in which case the XDG config
// directories are searched and a missing file is not an error.
func LoadConfig(path string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	def := DefaultConfig()
	// Unmarshal only sees keys viper knows about, so every key needs a default for
	// AutomaticEnv to reach it.
	v.SetDefault("input", def.Input)
	v.SetDefault("output", def.Output)
	v.SetDefault("total-games", def.TotalGames)
	v.SetDefault("max-games", def.MaxGames)
	v.SetDefault("skip-invalid", def.SkipInvalid)
	v.SetDefault("quiet", def.Quiet)
	v.SetDefault("log-level", def.LogLevel)

	v.SetEnvPrefix("chesspairs")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if path == "" {
		if found, err := xdg.SearchConfigFile(ConfigFile); err == nil {
			path = found
		}
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, errors.Wrapf(err, "read config %s", path)
		}
	}

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return Config{}, errors.WithStack(err)
		}
	}

	conf := def
	if err := v.Unmarshal(&conf); err != nil {
		return Config{}, errors.Wrap(err, "decode config")
	}
	return conf, nil
}
