// Package config loads sqlkit.Config from a yaml file, .env files and
// SQLKIT_* environment variables.
package config

import (
	"bytes"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/mitchellh/go-homedir"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"github.com/spf13/viper"

	"github.com/preceeder/go.db.sqlkit"
)

var AppFs = afero.NewOsFs()

const (
	fileName  = ".sqlkit.yaml"
	envPrefix = "SQLKIT"
)

// Load reads path, or the first .sqlkit.yaml found in the working directory,
// the home directory and ~/.config/sqlkit when path is empty. A missing
// default file is not an error. Environment variables override the file.
func Load(path string) (sqlkit.Config, error) {
	loadDotEnv()

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	setDefaults(v)

	file, err := findFile(path)
	if err != nil {
		return sqlkit.Config{}, err
	}
	if file != "" {
		data, err := afero.ReadFile(AppFs, file)
		if err != nil {
			return sqlkit.Config{}, errors.Wrapf(err, "read config %s", file)
		}
		if err := v.ReadConfig(bytes.NewReader(data)); err != nil {
			return sqlkit.Config{}, errors.Wrapf(err, "parse config %s", file)
		}
	}

	var cfg sqlkit.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return sqlkit.Config{}, errors.Wrap(err, "decode config")
	}
	return cfg, nil
}

// setDefaults registers every key, so environment variables reach Unmarshal
// even when the file does not mention them.
func setDefaults(v *viper.Viper) {
	d := sqlkit.DefaultConfig()
	v.SetDefault("driver", d.Driver)
	v.SetDefault("dsn", "")
	v.SetDefault("host", d.Host)
	v.SetDefault("port", d.Port)
	v.SetDefault("user", "")
	v.SetDefault("password", "")
	v.SetDefault("database", "")
	v.SetDefault("params", "")
	v.SetDefault("max_open_conns", d.MaxOpenConns)
	v.SetDefault("max_idle_conns", d.MaxIdleConns)
	v.SetDefault("table_prefix", "")
	v.SetDefault("table_enclosure", d.TableEnclosure)
	v.SetDefault("escape_prefix", d.EscapePrefix)
	v.SetDefault("force_prepare", d.ForcePrepare)
	v.SetDefault("force_prepare_commands", d.ForcePrepareCommands)
}

func findFile(path string) (string, error) {
	if path != "" {
		expanded, err := homedir.Expand(path)
		if err != nil {
			return "", errors.WithStack(err)
		}
		if _, err := AppFs.Stat(expanded); err != nil {
			return "", errors.Wrapf(err, "config file %s", expanded)
		}
		return expanded, nil
	}

	candidates := []string{fileName}
	if home, err := homedir.Dir(); err == nil {
		candidates = append(candidates,
			filepath.Join(home, fileName),
			filepath.Join(home, ".config", "sqlkit", fileName),
		)
	}
	for _, c := range candidates {
		if _, err := AppFs.Stat(c); err == nil {
			return c, nil
		}
	}
	return "", nil
}

// loadDotEnv loads .env, then .env.local over it. Neither is required.
// .env never replaces a variable already set in the environment.
func loadDotEnv() {
	readDotEnv(".env", false)
	readDotEnv(".env.local", true)
}

func readDotEnv(name string, override bool) {
	f, err := AppFs.Open(name)
	if err != nil {
		return
	}
	defer f.Close()

	vars, err := godotenv.Parse(f)
	if err != nil {
		return
	}
	for k, val := range vars {
		if _, set := os.LookupEnv(k); set && !override {
			continue
		}
		_ = os.Setenv(k, val)
	}
}
