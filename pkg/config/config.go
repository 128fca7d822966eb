package config

import (
	"os"

	"tilesplit/pkg/common"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	Split   SplitConfig   `yaml:"split"`
	Router  RouterConfig  `yaml:"router"`
}

type ServerConfig struct {
	Addr    string `yaml:"addr"`     // HTTP Listen Address (e.g. :8080)
	TCPAddr string `yaml:"tcp_addr"` // TCP Listen Address (e.g. :9090)
}

type StorageConfig struct {
	Path      string `yaml:"path"`      // SQLite tile store
	SplitDir  string `yaml:"split_dir"` // directory holding the partitions file
	BatchSize int    `yaml:"batch_size"`
}

type SplitConfig struct {
	Partitions int     `yaml:"partitions"`
	SampleRate float64 `yaml:"sample_rate"`
	Zoom       int     `yaml:"zoom"`      // last partition is stretched to cover this zoom level; -1 disables
	Numbering  string  `yaml:"numbering"` // "tms" (row-major) or "morton"
}

type RouterConfig struct {
	Workers int `yaml:"workers"`
}

func Load(configPath string) (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Addr:    ":8080",
			TCPAddr: ":9090",
		},
		Storage: StorageConfig{
			Path:      "tilesplit_data/tiles.db",
			SplitDir:  "tilesplit_data/splits",
			BatchSize: 500,
		},
		Split: SplitConfig{
			Partitions: 16,
			SampleRate: 1,
			Zoom:       -1,
			Numbering:  "tms",
		},
		Router: RouterConfig{
			Workers: 4,
		},
	}

	if configPath == "" {
		for _, p := range []string{"configs/tilesplit.yaml", "tilesplit.yaml"} {
			data, err := os.ReadFile(p)
			if err == nil {
				if err := yaml.Unmarshal(data, cfg); err != nil {
					return cfg, err
				}
				applyDefaults(cfg)
				return cfg, nil
			}
		}
		applyDefaults(cfg)
		return cfg, nil // no file found: use defaults
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return cfg, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return cfg, err
	}

	applyDefaults(cfg)
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Storage.BatchSize <= 0 {
		cfg.Storage.BatchSize = 500
	}
	if cfg.Split.Partitions <= 0 {
		cfg.Split.Partitions = 16
	}
	if cfg.Split.SampleRate <= 0 || cfg.Split.SampleRate > 1 {
		cfg.Split.SampleRate = 1
	}
	if cfg.Split.Zoom > 31 {
		cfg.Split.Zoom = -1
	}
	if n, err := common.ParseNumbering(cfg.Split.Numbering); err != nil {
		cfg.Split.Numbering = "tms"
	} else {
		cfg.Split.Numbering = n.String()
	}
	if cfg.Router.Workers <= 0 {
		cfg.Router.Workers = 4
	}
}
