package config

import (
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"contentflow/internal/models"
)

// YAMLConfig represents the structure of the config.yaml file.
// Tenants and their clients are easier to manage in YAML than env vars.
type YAMLConfig struct {
	Tenants []TenantConfig `yaml:"tenants"`
}

// TenantConfig defines an agency tenant in the YAML config.
type TenantConfig struct {
	Slug         string         `yaml:"slug"`
	Name         string         `yaml:"name"`
	WebhookURL   string         `yaml:"webhook_url,omitempty"`
	NotifyEmails []string       `yaml:"notify_emails,omitempty"`
	Clients      []ClientConfig `yaml:"clients,omitempty"`

	// Admins and Reviewers are emails granted that role when they log in.
	Admins    []string `yaml:"admins,omitempty"`
	Reviewers []string `yaml:"reviewers,omitempty"`
}

// ClientConfig defines one client of a tenant.
type ClientConfig struct {
	Name  string `yaml:"name"`
	Email string `yaml:"email,omitempty"`
}

// LoadYAMLConfig loads the YAML configuration file.
// Path is determined by CONFIG_FILE env var, defaulting to "config.yaml".
// Returns nil without error if the config file doesn't exist.
func LoadYAMLConfig() (*YAMLConfig, error) {
	return LoadYAMLConfigFrom(getEnv("CONFIG_FILE", "config.yaml"))
}

// LoadYAMLConfigFrom loads the YAML configuration from path.
func LoadYAMLConfigFrom(path string) (*YAMLConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Config file is optional
			return nil, nil
		}
		return nil, err
	}

	var cfg YAMLConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// GetTenantBySlug finds a tenant by its slug.
func (c *YAMLConfig) GetTenantBySlug(slug string) *TenantConfig {
	if c == nil {
		return nil
	}
	for i := range c.Tenants {
		if c.Tenants[i].Slug == slug {
			return &c.Tenants[i]
		}
	}
	return nil
}

// RoleFor returns the role the config grants email within the tenant with slug,
// or "" when it grants none. Admin wins over reviewer. Emails compare case-insensitively.
func (c *YAMLConfig) RoleFor(slug, email string) string {
	tenant := c.GetTenantBySlug(slug)
	if tenant == nil || email == "" {
		return ""
	}
	has := func(list []string) bool {
		for _, e := range list {
			if strings.EqualFold(strings.TrimSpace(e), email) {
				return true
			}
		}
		return false
	}
	switch {
	case has(tenant.Admins):
		return models.RoleAdmin
	case has(tenant.Reviewers):
		return models.RoleReviewer
	}
	return ""
}
