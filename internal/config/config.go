// Package config provides configuration management for coursegrid using
// Viper for flexible loading from files, environment variables and
// command-line flags.
//
// The configuration supports a YAML file (.coursegrid.yml), environment
// variable overrides with the COURSEGRID_ prefix, and validation of server
// and path settings.
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/coursegrid/coursegrid/internal/errors"
)

type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Course  CourseConfig  `yaml:"course"`
	State   StateConfig   `yaml:"state"`
	Logging LoggingConfig `yaml:"logging"`
}

type ServerConfig struct {
	Port int    `yaml:"port"`
	Host string `yaml:"host"`
}

type CourseConfig struct {
	// Dir is the course directory holding course.xml.
	Dir string `yaml:"dir"`
	// Org and Course scope generated locations; course.xml attributes win.
	Org    string `yaml:"org"`
	Course string `yaml:"course"`
	// StaticDir holds the course's static assets, served under /static/.
	StaticDir string `yaml:"static_dir"`
	// TemplateDir overrides the built-in content templates.
	TemplateDir string `yaml:"template_dir"`
	// Watch re-imports the course when its files change.
	Watch bool `yaml:"watch"`
}

type StateConfig struct {
	// Path of the SQLite student state database.
	Path string `yaml:"path"`
	// EventFile receives tracked events as JSON lines; empty disables it.
	EventFile string `yaml:"event_file"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func Load() (*Config, error) {
	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, errors.NewConfigError("unmarshal", "decoding configuration", err)
	}

	if config.Server.Port == 0 {
		config.Server.Port = viper.GetInt("server.port")
	}
	if config.Server.Port == 0 {
		config.Server.Port = 8080
	}
	if config.Server.Host == "" {
		config.Server.Host = "localhost"
	}

	if config.Course.Dir == "" {
		config.Course.Dir = viper.GetString("course.dir")
	}
	if config.Course.Dir == "" {
		config.Course.Dir = "./course"
	}
	if config.Course.StaticDir == "" {
		config.Course.StaticDir = viper.GetString("course.static_dir")
	}
	if config.Course.StaticDir == "" {
		config.Course.StaticDir = filepath.Join(config.Course.Dir, "static")
	}
	if config.Course.TemplateDir == "" {
		config.Course.TemplateDir = viper.GetString("course.template_dir")
	}
	if viper.IsSet("course.watch") {
		config.Course.Watch = viper.GetBool("course.watch")
	}

	if config.State.Path == "" {
		config.State.Path = viper.GetString("state.path")
	}
	if config.State.Path == "" {
		config.State.Path = ".coursegrid/state.db"
	}
	if config.State.EventFile == "" {
		config.State.EventFile = viper.GetString("state.event_file")
	}

	if config.Logging.Level == "" {
		config.Logging.Level = viper.GetString("log-level")
	}
	if config.Logging.Level == "" {
		config.Logging.Level = "info"
	}
	if config.Logging.Format == "" {
		config.Logging.Format = viper.GetString("logging.format")
	}
	if config.Logging.Format == "" {
		config.Logging.Format = "text"
	}

	if err := validateConfig(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// validateConfig validates configuration values for security and
// correctness.
func validateConfig(config *Config) error {
	if err := validateServerConfig(&config.Server); err != nil {
		return errors.NewConfigError("server", "server config", err)
	}

	for _, path := range []string{config.Course.Dir, config.Course.StaticDir, config.Course.TemplateDir} {
		if path == "" {
			continue
		}
		if err := validatePath(path); err != nil {
			return errors.NewConfigError("course", "course config", err)
		}
	}

	if !validLogLevel(config.Logging.Level) {
		return errors.NewConfigError("logging",
			fmt.Sprintf("unknown log level %q", config.Logging.Level), nil)
	}

	return nil
}

// validateServerConfig validates server configuration values.
func validateServerConfig(config *ServerConfig) error {
	// Port 0 is allowed for system-assigned ports in testing.
	if config.Port < 0 || config.Port > 65535 {
		return fmt.Errorf("port %d is not in valid range 0-65535", config.Port)
	}

	if config.Host != "" {
		dangerousChars := []string{";", "&", "|", "$", "`", "(", ")", "<", ">", "\"", "'", "\\"}
		for _, char := range dangerousChars {
			if strings.Contains(config.Host, char) {
				return fmt.Errorf("host contains dangerous character: %s", char)
			}
		}
	}

	return nil
}

// validatePath validates a file path for security.
func validatePath(path string) error {
	cleanPath := filepath.Clean(path)

	if strings.Contains(cleanPath, "..") {
		return fmt.Errorf("path contains traversal: %s", path)
	}

	dangerousChars := []string{";", "&", "|", "$", "`", "(", ")", "<", ">", "\"", "'"}
	for _, char := range dangerousChars {
		if strings.Contains(cleanPath, char) {
			return fmt.Errorf("path contains dangerous character: %s", char)
		}
	}

	return nil
}

func validLogLevel(level string) bool {
	switch level {
	case "debug", "info", "warn", "error":
		return true
	default:
		return false
	}
}
