package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	App struct {
		Port    int    `yaml:"port"`
		DataDir string `yaml:"data_dir"`
	} `yaml:"app"`

	Email struct {
		Enabled    bool     `yaml:"enabled"`
		IMAPHost   string   `yaml:"imap_host"`
		IMAPPort   int      `yaml:"imap_port"`
		Username   string   `yaml:"username"`
		Mailbox    string   `yaml:"mailbox"`
		Senders    []string `yaml:"senders"`
		WindowDays int      `yaml:"window_days"`
		Archive    bool     `yaml:"archive"`
	} `yaml:"email"`

	Polling struct {
		IntervalSeconds int `yaml:"interval_seconds"`
	} `yaml:"polling"`
}

func Load(path string) (Config, error) {
	var cfg Config
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	err = yaml.Unmarshal(b, &cfg)
	return cfg, err
}
