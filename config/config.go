// Package config holds the configuration of the analysis server.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/czcorpus/cnc-gokit/fs"
	"github.com/czcorpus/cnc-gokit/logging"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v2"
)

// DefaultModelName - name the top-level model is registered under.
const DefaultModelName = "DEFAULT"

const (
	dfltListenAddress          = "127.0.0.1"
	dfltListenPort             = 8090
	dfltServerReadTimeoutSecs  = 10
	dfltServerWriteTimeoutSecs = 30
	dfltLogLevel               = "info"
	dfltCacheTTLSecs           = 3600
)

var ErrNoModel = errors.New("model not specified")

// ModelConf - a model directory or binary file with optional dictionaries.
type ModelConf struct {
	Model   string `yaml:"model"`
	UserDic string `yaml:"userDic"`
	FwdDic  string `yaml:"fwdDic"`
}

// RedisConf configures the optional analysis cache.
type RedisConf struct {
	Addr     string `yaml:"addr"`
	DB       int    `yaml:"db"`
	Password string `yaml:"password"`
	TTLSecs  int    `yaml:"ttlSecs"`
}

// TTL returns the cache entry lifetime.
func (rc *RedisConf) TTL() time.Duration {
	return time.Duration(rc.TTLSecs) * time.Second
}

// Conf is a global configuration of the app
type Conf struct {
	ModelConf              `yaml:",inline"`
	Models                 map[string]ModelConf `yaml:"models"`
	ListenAddress          string               `yaml:"listenAddress"`
	ListenPort             int                  `yaml:"listenPort"`
	ServerReadTimeoutSecs  int                  `yaml:"readTimeoutSecs"`
	ServerWriteTimeoutSecs int                  `yaml:"writeTimeoutSecs"`
	CorsAllowedOrigins     []string             `yaml:"corsAllowedOrigins"`
	Redis                  *RedisConf           `yaml:"redis"`
	LogFile                string               `yaml:"logFile"`
	LogLevel               logging.LogLevel     `yaml:"logLevel"`

	srcPath string
}

func (conf *Conf) IsDebugMode() bool {
	return conf.LogLevel == "debug"
}

// Addr returns the address the server listens on.
func (conf *Conf) Addr() string {
	return fmt.Sprintf("%s:%d", conf.ListenAddress, conf.ListenPort)
}

// GetSourcePath returns an absolute path of a file
// the config was loaded from.
func (conf *Conf) GetSourcePath() string {
	if filepath.IsAbs(conf.srcPath) {
		return conf.srcPath
	}
	cwd, err := os.Getwd()
	if err != nil {
		cwd = "[failed to get working dir]"
	}
	return filepath.Join(cwd, conf.srcPath)
}

// AllModels returns the named models, the top-level one under
// DefaultModelName.
func (conf *Conf) AllModels() map[string]ModelConf {
	ans := make(map[string]ModelConf, len(conf.Models)+1)
	for name, mc := range conf.Models {
		ans[name] = mc
	}
	ans[DefaultModelName] = conf.ModelConf
	return ans
}

// SetupLogging routes the global logger according to the config.
func (conf *Conf) SetupLogging() {
	logging.SetupLogging(conf.LogFile, conf.LogLevel)
}

// LoadConfig reads a YAML config file. Relative model and dictionary paths
// are resolved against the directory of the file.
func LoadConfig(path string) (*Conf, error) {
	if path == "" {
		return nil, errors.New("cannot load config - path not specified")
	}
	rawData, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot load config: %w", err)
	}
	var conf Conf
	conf.srcPath = path
	if err := yaml.Unmarshal(rawData, &conf); err != nil {
		return nil, fmt.Errorf("cannot load config: %w", err)
	}
	baseDir := filepath.Dir(path)
	conf.ModelConf = conf.ModelConf.resolved(baseDir)
	for name, mc := range conf.Models {
		conf.Models[name] = mc.resolved(baseDir)
	}
	return &conf, nil
}

func (mc ModelConf) resolved(baseDir string) ModelConf {
	abs := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(baseDir, p)
	}
	return ModelConf{Model: abs(mc.Model), UserDic: abs(mc.UserDic), FwdDic: abs(mc.FwdDic)}
}

// ValidateAndDefaults fills in missing values, warning about each, and
// reports settings the server cannot start with.
func ValidateAndDefaults(conf *Conf) error {
	if conf.ListenAddress == "" {
		conf.ListenAddress = dfltListenAddress
		log.Warn().Str("address", dfltListenAddress).Msg("listenAddress not specified, using default")
	}
	if conf.ListenPort == 0 {
		conf.ListenPort = dfltListenPort
		log.Warn().Msgf("listenPort not specified, using default: %d", dfltListenPort)
	}
	if conf.ServerReadTimeoutSecs == 0 {
		conf.ServerReadTimeoutSecs = dfltServerReadTimeoutSecs
		log.Warn().Msgf(
			"readTimeoutSecs not specified, using default: %d",
			dfltServerReadTimeoutSecs,
		)
	}
	if conf.ServerWriteTimeoutSecs == 0 {
		conf.ServerWriteTimeoutSecs = dfltServerWriteTimeoutSecs
		log.Warn().Msgf(
			"writeTimeoutSecs not specified, using default: %d",
			dfltServerWriteTimeoutSecs,
		)
	}
	if conf.LogLevel == "" {
		conf.LogLevel = dfltLogLevel
	}
	if conf.Redis != nil {
		if conf.Redis.Addr == "" {
			return errors.New("redis.addr not specified")
		}
		if conf.Redis.TTLSecs == 0 {
			conf.Redis.TTLSecs = dfltCacheTTLSecs
			log.Warn().Msgf("redis.ttlSecs not specified, using default: %d", dfltCacheTTLSecs)
		}
	}

	if conf.Model == "" {
		return ErrNoModel
	}
	for name, mc := range conf.AllModels() {
		if err := mc.validate(); err != nil {
			return fmt.Errorf("invalid model %s: %w", name, err)
		}
	}
	return nil
}

func (mc ModelConf) validate() error {
	if mc.Model == "" {
		return ErrNoModel
	}
	// a binary model may still be split into parts
	if !fs.PathExists(mc.Model) && !fs.PathExists(mc.Model+"_aa") {
		return fmt.Errorf("model %s not found", mc.Model)
	}
	for _, dic := range []string{mc.UserDic, mc.FwdDic} {
		if dic == "" {
			continue
		}
		if !fs.PathExists(dic) {
			return fmt.Errorf("dictionary %s not found", dic)
		}
		isFile, err := fs.IsFile(dic)
		if err != nil {
			return fmt.Errorf("failed to check dictionary path: %w", err)
		}
		if !isFile {
			return fmt.Errorf("dictionary %s is not a file", dic)
		}
	}
	return nil
}
