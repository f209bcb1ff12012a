package internal

import (
	"fmt"

	"github.com/spf13/viper"
)

type HeapDbConfig struct {
	AppName string `mapstructure:"app_name"`

	Storage struct {
		Workdir string `mapstructure:"workdir"`
	} `mapstructure:"storage"`

	Repl struct {
		Prompt  string `mapstructure:"prompt"`
		History string `mapstructure:"history"`
	} `mapstructure:"repl"`

	Logging struct {
		Level string `mapstructure:"level"`
	} `mapstructure:"logging"`
}

// DefaultConfig is what runs when no config file is given.
func DefaultConfig() *HeapDbConfig {
	cfg := &HeapDbConfig{AppName: "heapdb"}
	cfg.Repl.Prompt = "SQL> "
	cfg.Logging.Level = "warn"
	return cfg
}

func LoadConfig(path string) (*HeapDbConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetDefault("app_name", "heapdb")
	v.SetDefault("repl.prompt", "SQL> ")
	v.SetDefault("logging.level", "warn")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg HeapDbConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &cfg, nil
}
