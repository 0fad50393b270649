// Package config loads the optional config file of the meshpair commands.
package config

import (
	"errors"
	"io/fs"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes the environment overrides of every flag.
const EnvPrefix = "MESHPAIR"

// Load enables MESHPAIR_ environment overrides on v and reads path when it
// is set. A missing file is not an error.
func Load(v *viper.Viper, path string) error {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if path == "" {
		return nil
	}
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		// it's ok if config file doesn't exist
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}
	return nil
}
