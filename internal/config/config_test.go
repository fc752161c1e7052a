package config

import "testing"

func validConfig() *Config {
	return &Config{
		Server:   ServerConfig{Port: 8080, Mode: "release"},
		Image:    ImageConfig{Provider: "replicate"},
		Pipeline: PipelineConfig{Engine: "graph", MaxConcurrency: 4},
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(*Config) {}, false},
		{"ark provider", func(c *Config) { c.Image.Provider = "ark" }, false},
		{"imperative engine", func(c *Config) { c.Pipeline.Engine = "imperative" }, false},
		{"zero port", func(c *Config) { c.Server.Port = 0 }, true},
		{"port too large", func(c *Config) { c.Server.Port = 70000 }, true},
		{"bad mode", func(c *Config) { c.Server.Mode = "production" }, true},
		{"bad image provider", func(c *Config) { c.Image.Provider = "dalle" }, true},
		{"bad engine", func(c *Config) { c.Pipeline.Engine = "langgraph" }, true},
		{"zero concurrency", func(c *Config) { c.Pipeline.MaxConcurrency = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
