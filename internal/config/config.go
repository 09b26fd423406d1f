package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/camlink/camlink/internal/camera"
	"github.com/camlink/camlink/internal/logger"
	"gopkg.in/yaml.v3"
)

// Config is the application configuration.
type Config struct {
	Camera   CameraConfig `json:"camera" yaml:"camera"`
	Output   OutputConfig `json:"output" yaml:"output"`
	Server   ServerConfig `json:"server" yaml:"server"`
	LogLevel string       `json:"log_level" yaml:"log_level"`
}

// CameraConfig holds the device connection parameters. Durations are
// milliseconds in the file for easy hand-editing.
type CameraConfig struct {
	BaseHost         string  `json:"base_host" yaml:"base_host"`
	StreamURL        string  `json:"stream_url" yaml:"stream_url"`
	ConnectTimeoutMS int     `json:"connect_timeout_ms" yaml:"connect_timeout_ms"`
	StallTimeoutMS   int     `json:"stall_timeout_ms" yaml:"stall_timeout_ms"`
	PollIntervalMS   int     `json:"poll_interval_ms" yaml:"poll_interval_ms"`
	MaxRetries       int     `json:"max_retries" yaml:"max_retries"`
	BackoffInitialMS int     `json:"backoff_initial_ms" yaml:"backoff_initial_ms"`
	BackoffMaxMS     int     `json:"backoff_max_ms" yaml:"backoff_max_ms"`
	BackoffJitter    float64 `json:"backoff_jitter" yaml:"backoff_jitter"`
}

// OutputConfig holds the snapshot/recording settings.
type OutputConfig struct {
	Dir       string `json:"dir" yaml:"dir"`
	RecordFPS int    `json:"record_fps" yaml:"record_fps"`
	OSD       bool   `json:"osd" yaml:"osd"`
}

// ServerConfig holds the local HTTP surface settings.
type ServerConfig struct {
	Port int `json:"port" yaml:"port"`
}

// StreamConfig converts the camera section into the core's immutable
// connection parameters.
func (c *Config) StreamConfig() camera.StreamConfig {
	ms := func(v int) time.Duration { return time.Duration(v) * time.Millisecond }
	return camera.StreamConfig{
		BaseHost:       c.Camera.BaseHost,
		StreamURL:      c.Camera.StreamURL,
		ConnectTimeout: ms(c.Camera.ConnectTimeoutMS),
		StallTimeout:   ms(c.Camera.StallTimeoutMS),
		PollInterval:   ms(c.Camera.PollIntervalMS),
		MaxRetries:     c.Camera.MaxRetries,
		Backoff: camera.BackoffConfig{
			Initial: ms(c.Camera.BackoffInitialMS),
			Max:     ms(c.Camera.BackoffMaxMS),
			Jitter:  c.Camera.BackoffJitter,
		},
	}
}

// Manager handles configuration loading, defaults and persistence.
type Manager struct {
	configPath string
	config     *Config
	mu         sync.RWMutex
}

// NewManager loads the config from configFile, or from the default
// location, creating it with defaults when missing.
func NewManager(configFile string) (*Manager, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home directory: %w", err)
	}

	configDir := filepath.Join(homeDir, ".config", "camlink")
	actualConfigPath := filepath.Join(configDir, "config.yaml")
	if configFile != "" {
		actualConfigPath = configFile
	}

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	m := &Manager{configPath: actualConfigPath}

	if err := m.load(); err != nil {
		if os.IsNotExist(err) {
			logger.WithComponent("config").Info().
				Str("path", m.configPath).
				Msg("Config file not found, creating new config")
			m.config = Defaults()
			if err := m.Save(); err != nil {
				return nil, fmt.Errorf("failed to create default config: %w", err)
			}
		} else {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	logger.WithComponent("config").Info().
		Str("path", m.configPath).
		Str("base_host", m.config.Camera.BaseHost).
		Msg("Config loaded")

	return m, nil
}

// Defaults returns the default configuration. The camera addresses match
// the ESP32-CAM AP-mode firmware defaults.
func Defaults() *Config {
	return &Config{
		Camera: CameraConfig{
			BaseHost:         "http://192.168.4.1",
			StreamURL:        "http://192.168.4.1:81/stream",
			ConnectTimeoutMS: int(camera.DefaultConnectTimeout / time.Millisecond),
			StallTimeoutMS:   int(camera.DefaultStallTimeout / time.Millisecond),
			PollIntervalMS:   int(camera.DefaultPollInterval / time.Millisecond),
			MaxRetries:       camera.DefaultMaxRetries,
			BackoffInitialMS: int(camera.DefaultBackoffInitial / time.Millisecond),
			BackoffMaxMS:     int(camera.DefaultBackoffMax / time.Millisecond),
			BackoffJitter:    camera.DefaultBackoffJitter,
		},
		Output: OutputConfig{
			Dir:       "camlink_output",
			RecordFPS: 20,
			OSD:       true,
		},
		Server: ServerConfig{
			Port: 8080,
		},
		LogLevel: "info",
	}
}

func (m *Manager) load() error {
	data, err := os.ReadFile(m.configPath)
	if err != nil {
		return err
	}

	cfg := Defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}

	m.mu.Lock()
	m.config = cfg
	m.mu.Unlock()
	return nil
}

// Get returns a copy of the current configuration.
func (m *Manager) Get() Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return *m.config
}

// Save writes the configuration to disk.
func (m *Manager) Save() error {
	m.mu.RLock()
	data, err := yaml.Marshal(m.config)
	m.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(m.configPath), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(m.configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// SetBaseHost overrides the camera host (CLI flag).
func (m *Manager) SetBaseHost(host string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.config.Camera.BaseHost = host
}

// SetStreamURL overrides the stream endpoint (CLI flag).
func (m *Manager) SetStreamURL(url string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.config.Camera.StreamURL = url
}

// SetPort overrides the server port (CLI flag).
func (m *Manager) SetPort(port int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.config.Server.Port = port
}

// SetLogLevel overrides the log level (CLI flag).
func (m *Manager) SetLogLevel(level string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.config.LogLevel = level
}

// GetConfigPath returns the config file path in use.
func (m *Manager) GetConfigPath() string {
	return m.configPath
}
