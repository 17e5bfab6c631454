package consul

import "github.com/hashicorp/consul/api"

type HealthConfig struct {
	Interval string `kdl:"interval"`
	Timeout  string `kdl:"timeout"`
	Http     string `kdl:"http"`
}

func (c *HealthConfig) toApiConfig(baseUrl string) *api.AgentServiceCheck {
	if c == nil {
		return nil
	}
	return &api.AgentServiceCheck{
		HTTP:     baseUrl + c.Http,
		Timeout:  c.Timeout,
		Interval: c.Interval,
	}
}

type Config struct {
	Address     string        `kdl:"address"`
	ServiceName string        `kdl:"service-name"`
	Health      *HealthConfig `kdl:"health"`
}

func DefaultConfig() *Config {
	return &Config{
		Address:     "consul:8500",
		ServiceName: "rainbow",
		Health: &HealthConfig{
			Interval: "5s",
			Timeout:  "2s",
			Http:     "/api/health",
		},
	}
}

func (c *Config) toApiConfig() *api.Config {
	cfg := api.DefaultConfig()
	cfg.Address = c.Address
	return cfg
}
