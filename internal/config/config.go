// Package config loads gitdocdb.Options for the cmd/gitdocdb CLI façade.
// The core library never touches viper itself (spec.md §1's external
// collaborators stay narrow) — this package exists purely to translate a
// project's on-disk configuration into the plain Options struct Open
// accepts, the same separation the teacher keeps between internal/config
// and its storage layer.
//
// Resolution order, closest to the teacher's own precedence
// (internal/config/config.go's project .beads/config.yaml -> XDG config dir
// -> home dir):
//
//  1. ./.gitdocdb.toml in the current directory, read with BurntSushi/toml
//     and applied as viper defaults (lowest precedence of the file layers,
//     but still above viper's own SetDefault calls).
//  2. The first of: project ./.gitdocdb/config.yaml, $XDG_CONFIG_HOME/gitdocdb/config.yaml,
//     $HOME/.gitdocdb/config.yaml.
//  3. Environment variables prefixed GITDOCDB_.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/viper"

	"github.com/gitdocdb/gitdocdb/internal/types"
)

// tomlOverride mirrors the subset of Options a .gitdocdb.toml file may set.
type tomlOverride struct {
	DBName      string `toml:"db_name"`
	LocalDir    string `toml:"local_dir"`
	MaxIDLength int    `toml:"max_id_length"`
}

// Load builds gitdocdb.Options from on-disk configuration and the
// environment. dbNameFlag, when non-empty, overrides whatever the
// configuration layers resolved (a command-line flag always wins).
func Load(dbNameFlag string) (types.Options, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	v.SetDefault("local_dir", "./git-documentdb/")
	v.SetDefault("max_id_length", types.DefaultMaxIDLength)

	if override, err := loadTOMLOverride(".gitdocdb.toml"); err == nil {
		if override.DBName != "" {
			v.SetDefault("db_name", override.DBName)
		}
		if override.LocalDir != "" {
			v.SetDefault("local_dir", override.LocalDir)
		}
		if override.MaxIDLength != 0 {
			v.SetDefault("max_id_length", override.MaxIDLength)
		}
	} else if !os.IsNotExist(err) {
		return types.Options{}, fmt.Errorf("config: reading .gitdocdb.toml: %w", err)
	}

	if path, ok := resolveConfigFile(); ok {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return types.Options{}, fmt.Errorf("config: reading %s: %w", path, err)
		}
	}

	v.SetEnvPrefix("GITDOCDB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	opts := types.Options{
		DBName:      v.GetString("db_name"),
		LocalDir:    v.GetString("local_dir"),
		MaxIDLength: v.GetInt("max_id_length"),
	}
	if dbNameFlag != "" {
		opts.DBName = dbNameFlag
	}
	return opts, nil
}

func loadTOMLOverride(path string) (tomlOverride, error) {
	var out tomlOverride
	if _, err := os.Stat(path); err != nil {
		return out, err
	}
	_, err := toml.DecodeFile(path, &out)
	return out, err
}

// resolveConfigFile walks up from the current directory looking for
// ./.gitdocdb/config.yaml, then falls back to the XDG config dir and the
// user's home directory, in that order — the same three-tier search the
// teacher's Initialize performs for .beads/config.yaml.
func resolveConfigFile() (string, bool) {
	if cwd, err := os.Getwd(); err == nil {
		for dir := cwd; ; {
			candidate := filepath.Join(dir, ".gitdocdb", "config.yaml")
			if _, err := os.Stat(candidate); err == nil {
				return candidate, true
			}
			parent := filepath.Dir(dir)
			if parent == dir {
				break
			}
			dir = parent
		}
	}

	if configDir, err := os.UserConfigDir(); err == nil {
		candidate := filepath.Join(configDir, "gitdocdb", "config.yaml")
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true
		}
	}

	if home, err := os.UserHomeDir(); err == nil {
		candidate := filepath.Join(home, ".gitdocdb", "config.yaml")
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true
		}
	}

	return "", false
}
