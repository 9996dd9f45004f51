package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Config holds runtime parameters for the client daemon.
// Zero values mean "unspecified" and will be replaced by defaults in main.
type Config struct {
	Addr             string `json:"addr" yaml:"addr" toml:"addr"`
	PeerHost         string `json:"peer_host" yaml:"peer_host" toml:"peer_host"`
	PeerPort         int    `json:"peer_port" yaml:"peer_port" toml:"peer_port"`
	ConnectTimeoutMS int    `json:"connect_timeout_ms" yaml:"connect_timeout_ms" toml:"connect_timeout_ms"`
	ReceiveTimeoutMS int    `json:"receive_timeout_ms" yaml:"receive_timeout_ms" toml:"receive_timeout_ms"`
	VocabPath        string `json:"vocab_path" yaml:"vocab_path" toml:"vocab_path"`
	HeadModelPath    string `json:"head_model_path" yaml:"head_model_path" toml:"head_model_path"`
	MaxTokens        int    `json:"max_tokens" yaml:"max_tokens" toml:"max_tokens"`
	EmbedDim         int    `json:"embed_dim" yaml:"embed_dim" toml:"embed_dim"`
}

// PeerAddr joins host and port into a dialable address.
func (c Config) PeerAddr() string {
	return fmt.Sprintf("%s:%d", c.PeerHost, c.PeerPort)
}

// Load reads a configuration file based on its extension.
// Supports: .yaml/.yml, .json, .toml
func Load(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, fmt.Errorf("empty config path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil { return cfg, err }
	case ".json":
		if err := json.Unmarshal(b, &cfg); err != nil { return cfg, err }
	case ".toml":
		if err := toml.Unmarshal(b, &cfg); err != nil { return cfg, err }
	default:
		return cfg, fmt.Errorf("unsupported config extension: %s", ext)
	}
	return cfg, nil
}
