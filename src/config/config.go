// Package config reads the optional galah TOML file and .env file, which supply defaults for
// command line flags that were not given explicitly.
package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"
)

// FastANIEnv names the environment variable holding the FastANI executable
const FastANIEnv = "GALAH_FASTANI"

// ClusterConfig holds defaults for the cluster command
type ClusterConfig struct {
	ANI            *float64 `toml:"ani"`
	PreThreshold   *float64 `toml:"prethreshold"`
	Method         string   `toml:"method"`
	QualityFormula string   `toml:"quality_formula"`
}

// SketchConfig holds the MinHash parameters shared by cluster and dist
type SketchConfig struct {
	NumHashes  *int `toml:"num_hashes"`
	KmerLength *int `toml:"kmer_length"`
}

// FastANIConfig holds the FastANI settings
type FastANIConfig struct {
	Path           string `toml:"path"`
	FragmentLength *int   `toml:"fragment_length"`
}

// Config is the galah configuration file
type Config struct {
	Cluster ClusterConfig `toml:"cluster"`
	Sketch  SketchConfig  `toml:"sketch"`
	FastANI FastANIConfig `toml:"fastani"`
}

// Load reads a TOML configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read config file '%s'", path)
	}
	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrapf(err, "failed to parse TOML in '%s'", path)
	}
	return &cfg, nil
}

// LoadEnv loads a .env file from the working directory into the environment, if there is one.
// It reports whether a file was loaded.
func LoadEnv() bool {
	return godotenv.Load() == nil
}

// FlagDefaults maps flag names to the values the configuration gives them
func (Config *Config) FlagDefaults() map[string]string {
	defaults := map[string]string{}
	setFloat := func(name string, v *float64) {
		if v != nil {
			defaults[name] = strconv.FormatFloat(*v, 'f', -1, 64)
		}
	}
	setInt := func(name string, v *int) {
		if v != nil {
			defaults[name] = strconv.Itoa(*v)
		}
	}
	setString := func(name, v string) {
		if v != "" {
			defaults[name] = v
		}
	}
	setFloat("ani", Config.Cluster.ANI)
	setFloat("minhash-prethreshold", Config.Cluster.PreThreshold)
	setString("method", Config.Cluster.Method)
	setString("quality-formula", Config.Cluster.QualityFormula)
	setInt("num-hashes", Config.Sketch.NumHashes)
	setInt("kmer-length", Config.Sketch.KmerLength)
	setString("fastani-path", Config.FastANI.Path)
	setInt("fragment-length", Config.FastANI.FragmentLength)
	return defaults
}

// Apply sets every flag in the set that the configuration covers, unless the flag was given on
// the command line. Flags the set doesn't define are ignored.
func (Config *Config) Apply(flags *pflag.FlagSet) error {
	for name, value := range Config.FlagDefaults() {
		flag := flags.Lookup(name)
		if flag == nil || flag.Changed {
			continue
		}
		if err := flag.Value.Set(value); err != nil {
			return errors.Wrapf(err, "bad config value for %v", name)
		}
	}
	return nil
}

// FastANIPath picks the FastANI executable: an explicit flag, then the config file, then the
// environment, then the fallback
func FastANIPath(flags *pflag.FlagSet, cfg *Config, fallback string) string {
	if flag := flags.Lookup("fastani-path"); flag != nil && flag.Changed {
		return flag.Value.String()
	}
	if cfg != nil && cfg.FastANI.Path != "" {
		return cfg.FastANI.Path
	}
	if env := os.Getenv(FastANIEnv); env != "" {
		return env
	}
	return fallback
}
