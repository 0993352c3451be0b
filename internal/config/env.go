package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Env holds the environment overrides for player.yaml. Unset variables leave
// the file's values alone.
type Env struct {
	APIPort   int    `env:"SENTIENT_API_PORT"`
	ScenePath string `env:"SENTIENT_SCENE"`
	MQTTURL   string `env:"MQTT_URL"`
	SessionID string `env:"SENTIENT_SESSION_ID"`
	Journal   string `env:"SENTIENT_JOURNAL"`
}

// ParseEnv parses environment variables into target.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// ApplyEnv reads Env and overlays every set value onto c.
func (c *PlayerConfig) ApplyEnv() error {
	var e Env
	if err := ParseEnv(&e); err != nil {
		return err
	}
	if e.APIPort != 0 {
		c.Network.APIPort = e.APIPort
	}
	if e.ScenePath != "" {
		c.Scene.Path = e.ScenePath
	}
	if e.MQTTURL != "" {
		c.MQTT.URL = e.MQTTURL
	}
	if e.SessionID != "" {
		c.Postgres.SessionID = e.SessionID
	}
	if e.Journal != "" {
		c.SQLite.Enabled = true
		c.SQLite.Path = e.Journal
	}
	return nil
}
