package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	// Index is the path to the track index (e.g. traintracks.xml).
	Index  string `json:"index"`
	Listen string `json:"listen"`
	// Journal is the path to the edit journal. Empty disables journalling.
	Journal     string   `json:"journal"`
	CORSOrigins []string `json:"cors-origins"`
}

func Default() Config {
	return Config{
		Index:  "traintracks.xml",
		Listen: "0.0.0.0:8001",
	}
}

// Load returns the config at path, or the default if path is empty.
// Values from the environment (or a .env file) override it.
func Load(path string) (Config, error) {
	c := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: %w", err)
		}
		err = json.Unmarshal(data, &c)
		if err != nil {
			return Config{}, fmt.Errorf("config %s: %w", path, err)
		}
	}
	_ = godotenv.Load()
	c.fromEnv()
	return c, nil
}

func (c *Config) fromEnv() {
	if v := os.Getenv("KIDOU_INDEX"); v != "" {
		c.Index = v
	}
	if v := os.Getenv("KIDOU_LISTEN"); v != "" {
		c.Listen = v
	}
	if v := os.Getenv("KIDOU_JOURNAL"); v != "" {
		c.Journal = v
	}
	if v := os.Getenv("KIDOU_CORS_ORIGINS"); v != "" {
		c.CORSOrigins = strings.Split(v, ",")
	}
}
