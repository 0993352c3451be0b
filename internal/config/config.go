// Package config loads player.yaml and the environment overrides applied on
// top of it.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultTickHz      = 60
	defaultAPIPort     = 8090
	defaultMQTTURL     = "tcp://localhost:1883"
	defaultClientID    = "sentient-stage"
	defaultTopicPrefix = "sentient/stage"
	defaultSQLitePath  = "stage-events.db"
	defaultDebounceMs  = 250
)

type PlayerConfig struct {
	Version int `yaml:"version"`
	Scene   struct {
		Path      string `yaml:"path"`
		Autostart bool   `yaml:"autostart"`
		Clip      string `yaml:"clip"`
		Watch     bool   `yaml:"watch"`
		// DebounceMs collapses bursts of writes into one reload.
		DebounceMs int `yaml:"debounce_ms"`
	} `yaml:"scene"`
	Runtime struct {
		TickHz int `yaml:"tick_hz"`
	} `yaml:"runtime"`
	Network struct {
		APIPort int `yaml:"api_port"`
	} `yaml:"network"`
	MQTT struct {
		Enabled     bool   `yaml:"enabled"`
		URL         string `yaml:"url"`
		ClientID    string `yaml:"client_id"`
		TopicPrefix string `yaml:"topic_prefix"`
	} `yaml:"mqtt"`
	Postgres struct {
		Enabled   bool   `yaml:"enabled"`
		SessionID string `yaml:"session_id"`
	} `yaml:"postgres"`
	SQLite struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"sqlite"`
}

// TickHz returns the configured tick rate, defaulting to 60.
func (c *PlayerConfig) TickHz() int {
	if c.Runtime.TickHz <= 0 {
		return defaultTickHz
	}
	return c.Runtime.TickHz
}

// APIPort returns the configured API port, defaulting to 8090 if not set.
func (c *PlayerConfig) APIPort() int {
	if c.Network.APIPort == 0 {
		return defaultAPIPort
	}
	return c.Network.APIPort
}

// MQTTURL returns the broker URL, defaulting to a local broker.
func (c *PlayerConfig) MQTTURL() string {
	if c.MQTT.URL == "" {
		return defaultMQTTURL
	}
	return c.MQTT.URL
}

func (c *PlayerConfig) MQTTClientID() string {
	if c.MQTT.ClientID == "" {
		return defaultClientID
	}
	return c.MQTT.ClientID
}

func (c *PlayerConfig) TopicPrefix() string {
	if c.MQTT.TopicPrefix == "" {
		return defaultTopicPrefix
	}
	return c.MQTT.TopicPrefix
}

// SQLitePath returns the journal file path used when postgres is disabled.
func (c *PlayerConfig) SQLitePath() string {
	if c.SQLite.Path == "" {
		return defaultSQLitePath
	}
	return c.SQLite.Path
}

// WatchDebounce returns the scene reload debounce window.
func (c *PlayerConfig) WatchDebounce() time.Duration {
	if c.Scene.DebounceMs <= 0 {
		return defaultDebounceMs * time.Millisecond
	}
	return time.Duration(c.Scene.DebounceMs) * time.Millisecond
}

func LoadPlayerConfig(path string) (*PlayerConfig, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg PlayerConfig
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, err
	}

	if cfg.Version != 1 {
		return nil, fmt.Errorf("unsupported player.yaml version: %d", cfg.Version)
	}

	return &cfg, nil
}
