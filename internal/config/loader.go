package config

import (
	"fmt"
	"log/slog"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// Load builds a Config from the environment. Every unset, required,
// malformed or out-of-range variable is reported in one error so a
// deployment can be fixed in a single pass.
func Load() (*Config, error) {
	cfg := &Config{}

	var problems []string
	loadStruct(reflect.ValueOf(cfg).Elem(), &problems)
	if len(problems) > 0 {
		return nil, fmt.Errorf("config load:\n  - %s", strings.Join(problems, "\n  - "))
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

var durationType = reflect.TypeOf(time.Duration(0))

// loadStruct fills tagged fields of v, descending into section structs.
// The env tag names the variable, envAlt an older spelling, default the
// fallback and required="true" forbids an empty value.
func loadStruct(v reflect.Value, problems *[]string) {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		fieldVal := v.Field(i)
		if !fieldVal.CanSet() {
			continue
		}

		if field.Type.Kind() == reflect.Struct {
			loadStruct(fieldVal, problems)
			continue
		}

		name := field.Tag.Get("env")
		if name == "" {
			continue
		}

		value, from := lookup(name, field.Tag.Get("envAlt"))
		if value == "" {
			if field.Tag.Get("required") == "true" {
				*problems = append(*problems, fmt.Sprintf("%s is required", name))
				continue
			}
			value, from = field.Tag.Get("default"), name
		}
		if value == "" {
			continue
		}

		if err := setField(fieldVal, value); err != nil {
			*problems = append(*problems, fmt.Sprintf("%s=%q: %v", from, value, err))
		}
	}
}

// lookup returns the first non-empty value of name or alt and the variable
// it came from.
func lookup(name, alt string) (string, string) {
	if v := os.Getenv(name); v != "" {
		return v, name
	}
	if alt != "" {
		if v := os.Getenv(alt); v != "" {
			return v, alt
		}
	}
	return "", name
}

// setField parses value into field according to the field's type.
func setField(field reflect.Value, value string) error {
	switch {
	case field.Type() == durationType:
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration: %w", err)
		}
		field.SetInt(int64(d))

	case field.Kind() == reflect.String:
		field.SetString(value)

	case field.Kind() == reflect.Int || field.Kind() == reflect.Int64:
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid integer: %w", err)
		}
		field.SetInt(n)

	case field.Kind() == reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean: %w", err)
		}
		field.SetBool(b)

	case field.Kind() == reflect.Slice && field.Type().Elem().Kind() == reflect.String:
		field.Set(reflect.ValueOf(splitList(value)))

	default:
		return fmt.Errorf("unsupported field type %s", field.Type())
	}
	return nil
}

// splitList splits a comma separated list, dropping blank entries.
func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// readableExtensions are the formats the workbook reader understands.
var readableExtensions = map[string]bool{"xlsx": true, "xlsm": true, "csv": true}

// Validate reports every inconsistent setting at once.
func (c *Config) Validate() error {
	var errs []string
	for _, check := range []func() []string{
		c.Server.problems,
		c.Database.problems,
		c.Upload.problems,
		c.Output.problems,
		c.Rate.problems,
		c.Security.problems,
		c.Reconcile.problems,
		c.Logging.problems,
	} {
		errs = append(errs, check()...)
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

func (s ServerConfig) problems() []string {
	var p []string
	if s.Port <= 0 || s.Port > 65535 {
		p = append(p, fmt.Sprintf("SERVER_PORT (%d) must be 1-65535", s.Port))
	}
	if s.ReadTimeout < 0 {
		p = append(p, "SERVER_READ_TIMEOUT must be non-negative")
	}
	if s.ShutdownTimeout <= 0 {
		p = append(p, "SERVER_SHUTDOWN_TIMEOUT must be positive")
	}
	return p
}

// Pool sizes only matter when run history goes to Postgres.
func (d DatabaseConfig) problems() []string {
	if !d.Enabled() {
		return nil
	}
	var p []string
	if d.MaxConns <= 0 {
		p = append(p, "DB_MAX_CONNS must be positive")
	}
	if d.MinConns < 0 {
		p = append(p, "DB_MIN_CONNS must be non-negative")
	}
	if d.MaxConns < d.MinConns {
		p = append(p, fmt.Sprintf("DB_MAX_CONNS (%d) must be >= DB_MIN_CONNS (%d)", d.MaxConns, d.MinConns))
	}
	return p
}

func (u UploadConfig) problems() []string {
	var p []string
	if u.MaxFileSize <= 0 {
		p = append(p, "UPLOAD_MAX_FILE_SIZE must be positive")
	}
	if len(u.AllowedExtensions) == 0 {
		p = append(p, "UPLOAD_ALLOWED_EXTENSIONS must list at least one extension")
	}
	for _, ext := range u.AllowedExtensions {
		if !readableExtensions[strings.ToLower(ext)] {
			p = append(p, fmt.Sprintf("UPLOAD_ALLOWED_EXTENSIONS: %q cannot be read (supported: xlsx, xlsm, csv)", ext))
		}
	}
	if u.MaxConcurrent <= 0 {
		p = append(p, "UPLOAD_MAX_CONCURRENT must be positive")
	}
	if u.MaxWaitTime <= 0 {
		p = append(p, "UPLOAD_MAX_WAIT_TIME must be positive")
	}
	if u.Timeout <= 0 {
		p = append(p, "UPLOAD_TIMEOUT must be positive")
	}
	return p
}

func (o OutputConfig) problems() []string {
	var p []string
	if strings.TrimSpace(o.Dir) == "" {
		p = append(p, "OUTPUT_DIR is required")
	}
	if o.Retention <= 0 {
		p = append(p, "OUTPUT_RETENTION must be positive")
	}
	if o.SweepInterval <= 0 {
		p = append(p, "OUTPUT_SWEEP_INTERVAL must be positive")
	}
	return p
}

func (r RateLimitConfig) problems() []string {
	if !r.Enabled {
		return nil
	}
	var p []string
	if r.RequestsPerMinute <= 0 {
		p = append(p, "RATE_LIMIT_REQUESTS_PER_MINUTE must be positive when rate limiting is enabled")
	}
	if r.ProcessLimit <= 0 {
		p = append(p, "RATE_LIMIT_PROCESS must be positive when rate limiting is enabled")
	}
	return p
}

func (s SecurityConfig) problems() []string {
	if s.RequireAPIKey && len(s.APIKeys) == 0 {
		return []string{"REQUIRE_API_KEY is true but API_KEYS is empty; configure at least one API key or disable auth"}
	}
	return nil
}

func (r ReconcileConfig) problems() []string {
	if len(r.ValidYears) == 0 {
		return []string{"VALID_YEARS must list at least one year"}
	}
	return nil
}

func (l LoggingConfig) problems() []string {
	var p []string
	switch strings.ToLower(l.Level) {
	case "debug", "info", "warn", "error":
	default:
		p = append(p, fmt.Sprintf("LOG_LEVEL (%q) must be one of: debug, info, warn, error", l.Level))
	}
	switch strings.ToLower(l.Format) {
	case "text", "json":
	default:
		p = append(p, fmt.Sprintf("LOG_FORMAT (%q) must be one of: text, json", l.Format))
	}
	return p
}

// LogValue renders the config as grouped log attributes. Only whether a
// database URL is set and how many API keys exist are logged.
func (c *Config) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Group("server",
			slog.String("addr", c.Server.Addr()),
			slog.Duration("write_timeout", c.Server.WriteTimeout),
		),
		slog.Group("database",
			slog.Bool("enabled", c.Database.Enabled()),
			slog.Int("max_conns", c.Database.MaxConns),
		),
		slog.Group("upload",
			slog.Int64("max_file_size", c.Upload.MaxFileSize),
			slog.Any("extensions", c.Upload.AllowedExtensions),
			slog.Int("max_concurrent", c.Upload.MaxConcurrent),
			slog.Duration("timeout", c.Upload.Timeout),
		),
		slog.Group("output",
			slog.String("dir", c.Output.Dir),
			slog.Duration("retention", c.Output.Retention),
		),
		slog.Group("rate",
			slog.Bool("enabled", c.Rate.Enabled),
			slog.Int("requests_per_minute", c.Rate.RequestsPerMinute),
			slog.Int("process_limit", c.Rate.ProcessLimit),
		),
		slog.Group("security",
			slog.Bool("require_api_key", c.Security.RequireAPIKey),
			slog.Int("api_keys", len(c.Security.APIKeys)),
			slog.Int("trusted_proxies", len(c.Security.TrustedProxies)),
		),
		slog.Group("reconcile",
			slog.String("schema_file", c.Reconcile.SchemaFile),
			slog.Any("valid_years", c.Reconcile.ValidYears),
		),
		slog.Group("logging",
			slog.String("level", c.Logging.Level),
			slog.String("format", c.Logging.Format),
		),
	)
}
