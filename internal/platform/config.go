package platform

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// FlagsConfig holds feature switches.
type FlagsConfig struct {
	// Events enables the embedded NATS bus and the /events stream.
	Events bool
}

// ExecConfig holds executor tunables.
type ExecConfig struct {
	Timeout     time.Duration
	StartDir    string
	EnvFile     string
	SessionIdle time.Duration

	// CommandTimeout is handed to the browser widget; zero disables it.
	CommandTimeout time.Duration
}

// AppConfig contains the configuration for the app.
type AppConfig struct {
	Flags      *FlagsConfig
	NatsCfg    *EmbeddedServerConfig
	HTTPSrvCfg *HTTPServerConfig
	ExecCfg    *ExecConfig
	LogLevel   slog.Level
}

// LoadAppConfig loads .env (if present) and then FAUXTERM_* environment
// variables over the defaults. Unparseable values are logged and ignored.
func LoadAppConfig() *AppConfig {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("config: could not load .env", "err", err)
	}
	return &AppConfig{
		Flags:      defaultFlagsCfg(),
		NatsCfg:    defaultNatsCfg(),
		HTTPSrvCfg: defaultHTTPServerCfg(),
		ExecCfg:    defaultExecCfg(),
		LogLevel:   ParseLevel(os.Getenv("FAUXTERM_LOG_LEVEL")),
	}
}

// defaultFlagsCfg returns the default FlagsConfig (from env).
func defaultFlagsCfg() *FlagsConfig {
	return &FlagsConfig{
		Events: envBool("FAUXTERM_EVENTS", true),
	}
}

// defaultHTTPServerCfg returns sane defaults for the HTTP server.
func defaultHTTPServerCfg() *HTTPServerConfig {
	cfg := &HTTPServerConfig{
		Host:         envString("FAUXTERM_HOST", "127.0.0.1"),
		Port:         envInt("FAUXTERM_PORT", 3001),
		PortAttempts: envInt("FAUXTERM_PORT_ATTEMPTS", 10),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: -1, // /events is long-lived
		IdleTimeout:  2 * time.Minute,
		CertFile:     os.Getenv("FAUXTERM_TLS_CERT"),
		KeyFile:      os.Getenv("FAUXTERM_TLS_KEY"),
		SessionKey:   os.Getenv("FAUXTERM_SESSION_KEY"),
		CORSOrigins:  envList("FAUXTERM_CORS_ORIGINS", []string{"*"}),
	}
	cfg.EnableTLS = cfg.CertFile != "" && cfg.KeyFile != ""
	return cfg
}

// defaultNatsCfg returns the default EmbeddedServerConfig.
func defaultNatsCfg() *EmbeddedServerConfig {
	return &EmbeddedServerConfig{
		InProcess:     true,
		EnableLogging: true,
		JetStream:     true,
		StoreDir:      os.Getenv("FAUXTERM_STORE_DIR"),
		EventMaxAge:   envDuration("FAUXTERM_EVENT_MAX_AGE", 24*time.Hour),
	}
}

// defaultExecCfg returns the default ExecConfig.
func defaultExecCfg() *ExecConfig {
	start, err := os.Getwd()
	if err != nil {
		start, _ = os.UserHomeDir()
	}
	return &ExecConfig{
		Timeout:        envDuration("FAUXTERM_EXEC_TIMEOUT", 5*time.Minute),
		StartDir:       envString("FAUXTERM_START_DIR", start),
		EnvFile:        envString("FAUXTERM_ENV_FILE", ".env"),
		SessionIdle:    envDuration("FAUXTERM_SESSION_IDLE", 12*time.Hour),
		CommandTimeout: envDuration("FAUXTERM_COMMAND_TIMEOUT", 30*time.Second),
	}
}

func envString(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		slog.Warn("config: invalid integer", "key", key, "value", v)
		return def
	}
	return n
}

func envBool(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		slog.Warn("config: invalid boolean", "key", key, "value", v)
		return def
	}
	return b
}

func envDuration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		slog.Warn("config: invalid duration", "key", key, "value", v)
		return def
	}
	return d
}

func envList(key string, def []string) []string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
