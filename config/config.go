package config

import (
	"net/url"
	"strings"
	"time"

	"github.com/pbnjay/memory"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/shogitools/usibridge/usi"
)

const (
	ConfigEnginePath       = "engine-path"
	ConfigEngineName       = "engine-name"
	ConfigEngineThreads    = "engine-threads"
	ConfigEngineHashMB     = "engine-hash-mb"
	ConfigEvalFile         = "eval-file"
	ConfigEvalDir          = "eval-dir"
	ConfigHandshakeTimeout = "handshake-timeout"
	ConfigTimeoutFloor     = "timeout-floor"
	ConfigTimeoutPerDepth  = "timeout-per-depth"
	ConfigEngineRestart    = "engine-restart"
	ConfigPort             = "port"
	ConfigNatsURL          = "nats-url"
	ConfigNatsSubject      = "nats-subject"
	ConfigCacheSize        = "cache-size"
	ConfigCacheTTL         = "cache-ttl"
	ConfigRestBase         = "rest-base"
	ConfigDebug            = "debug"
	ConfigFile             = "config-file"
)

const defaultHashMB = 256

type Config struct {
	*viper.Viper
}

// DefaultConfig returns a config holding the defaults. Every key can also be
// set from the environment as its upper-case, underscored name, e.g.
// ENGINE_PATH or EVAL_FILE.
func DefaultConfig() *Config {
	v := viper.New()
	v.SetDefault(ConfigEnginePath, "./engine/engine")
	v.SetDefault(ConfigEngineName, "AI Engine")
	v.SetDefault(ConfigEngineThreads, 1)
	v.SetDefault(ConfigEngineHashMB, DefaultHashMB())
	v.SetDefault(ConfigEvalFile, "")
	v.SetDefault(ConfigEvalDir, "")
	v.SetDefault(ConfigHandshakeTimeout, 4*time.Second)
	v.SetDefault(ConfigTimeoutFloor, 8*time.Second)
	v.SetDefault(ConfigTimeoutPerDepth, 400*time.Millisecond)
	v.SetDefault(ConfigEngineRestart, false)
	v.SetDefault(ConfigPort, 8787)
	v.SetDefault(ConfigNatsURL, "")
	v.SetDefault(ConfigNatsSubject, "usibridge.analyze")
	v.SetDefault(ConfigCacheSize, 256)
	v.SetDefault(ConfigCacheTTL, 10*time.Minute)
	v.SetDefault(ConfigRestBase, "http://localhost:8787")
	v.SetDefault(ConfigDebug, false)

	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return &Config{Viper: v}
}

// DefaultHashMB is 256, or an eighth of physical memory if that is smaller.
func DefaultHashMB() int {
	total := memory.TotalMemory()
	if total == 0 {
		return defaultHashMB
	}
	return max(1, min(defaultHashMB, int(total/8/(1<<20))))
}

// Load parses command-line flags over the defaults and environment, and
// reads the config file named by --config-file if there is one.
func (c *Config) Load(args []string) error {
	fs := pflag.NewFlagSet("usibridge", pflag.ContinueOnError)
	fs.String(ConfigEnginePath, c.GetString(ConfigEnginePath), "path to the USI engine binary")
	fs.String(ConfigEngineName, c.GetString(ConfigEngineName), "engine name reported by the HTTP API")
	fs.Int(ConfigEngineThreads, c.GetInt(ConfigEngineThreads), "default engine thread count")
	fs.Int(ConfigEngineHashMB, c.GetInt(ConfigEngineHashMB), "engine hash size in MB")
	fs.String(ConfigEvalFile, c.GetString(ConfigEvalFile), "evaluation file passed as EvalFile")
	fs.String(ConfigEvalDir, c.GetString(ConfigEvalDir), "evaluation directory passed as EvalDir")
	fs.Duration(ConfigHandshakeTimeout, c.GetDuration(ConfigHandshakeTimeout), "how long to wait for usiok/readyok")
	fs.Duration(ConfigTimeoutFloor, c.GetDuration(ConfigTimeoutFloor), "minimum time to wait for bestmove")
	fs.Duration(ConfigTimeoutPerDepth, c.GetDuration(ConfigTimeoutPerDepth), "time to wait for bestmove per unit of depth")
	fs.Bool(ConfigEngineRestart, c.GetBool(ConfigEngineRestart), "relaunch the engine after it exits")
	fs.Int(ConfigPort, c.GetInt(ConfigPort), "HTTP listen port")
	fs.String(ConfigNatsURL, c.GetString(ConfigNatsURL), "NATS server URL; empty disables the NATS service")
	fs.String(ConfigNatsSubject, c.GetString(ConfigNatsSubject), "NATS subject for analysis requests")
	fs.Int(ConfigCacheSize, c.GetInt(ConfigCacheSize), "number of cached results; 0 disables the cache")
	fs.Duration(ConfigCacheTTL, c.GetDuration(ConfigCacheTTL), "how long a cached result stays valid")
	fs.String(ConfigRestBase, c.GetString(ConfigRestBase), "base URL of the HTTP bridge")
	fs.Bool(ConfigDebug, c.GetBool(ConfigDebug), "debug logging, including every engine line")
	fs.String(ConfigFile, "", "optional config file (yaml, json or toml)")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := c.BindPFlags(fs); err != nil {
		return err
	}
	if path := c.GetString(ConfigFile); path != "" {
		c.SetConfigFile(path)
		if err := c.ReadInConfig(); err != nil {
			return err
		}
	}
	return nil
}

// EngineOptions builds the engine options from the config.
func (c *Config) EngineOptions() usi.Options {
	opts := usi.DefaultOptions()
	opts.Threads = c.GetInt(ConfigEngineThreads)
	opts.HashMB = c.GetInt(ConfigEngineHashMB)
	opts.EvalFile = c.GetString(ConfigEvalFile)
	opts.EvalDir = c.GetString(ConfigEvalDir)
	opts.HandshakeTimeout = c.GetDuration(ConfigHandshakeTimeout)
	opts.TimeoutFloor = c.GetDuration(ConfigTimeoutFloor)
	opts.TimeoutPerDepth = c.GetDuration(ConfigTimeoutPerDepth)
	opts.Restart = c.GetBool(ConfigEngineRestart)
	return opts
}

// SanitizedSettings returns all settings with credentials removed, for
// logging.
func (c *Config) SanitizedSettings() map[string]any {
	settings := c.AllSettings()
	if raw, ok := settings[ConfigNatsURL].(string); ok && raw != "" {
		if u, err := url.Parse(raw); err == nil && u.User != nil {
			u.User = url.User("redacted")
			settings[ConfigNatsURL] = u.String()
		}
	}
	return settings
}
