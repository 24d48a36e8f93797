package cli

import (
	"os"

	"github.com/BurntSushi/toml"

	"github.com/funcfeed/funcfeed/pkg/errors"
	"github.com/funcfeed/funcfeed/pkg/registry"
)

// defaultTokenEnv names the environment variable holding the CI bearer token
// when the config file does not override it.
const defaultTokenEnv = "FUNCFEED_CI_TOKEN"

// Config is the full service configuration, loaded from a TOML file.
type Config struct {
	Server   ServerConfig   `toml:"server"`
	CI       CIConfig       `toml:"ci"`
	Feed     FeedConfig     `toml:"feed"`
	Registry RegistryConfig `toml:"registry"`
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Addr string `toml:"addr"`
}

// CIConfig holds the CI provider connection settings. The bearer token is
// never stored in the file; TokenEnv names the environment variable it is
// read from.
type CIConfig struct {
	BaseURL        string `toml:"base_url"`
	Account        string `toml:"account"`
	Project        string `toml:"project"`
	TemplatePrefix string `toml:"template_prefix"`
	TokenEnv       string `toml:"token_env"`
}

// FeedConfig holds the published feed location and link templates.
type FeedConfig struct {
	URL                        string `toml:"url"`
	CDNRoot                    string `toml:"cdn_root"`
	ItemTemplateURLTemplate    string `toml:"item_template_url"`
	ProjectTemplateURLTemplate string `toml:"project_template_url"`
}

// RegistryConfig lists the registries to probe and the packages to look up.
type RegistryConfig struct {
	Sources  []registry.Source `toml:"sources"`
	Packages []string          `toml:"packages"`
}

// defaultConfig returns the configuration before the file is applied.
func defaultConfig() Config {
	return Config{
		Server: ServerConfig{Addr: ":8080"},
		CI: CIConfig{
			TemplatePrefix: "itemTemplates.",
			TokenEnv:       defaultTokenEnv,
		},
	}
}

// LoadConfig reads and validates the TOML configuration at path.
func LoadConfig(path string) (Config, error) {
	cfg := defaultConfig()
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeInvalidRequest, err, "loading config %s", path)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	required := []struct{ name, value string }{
		{"ci.base_url", c.CI.BaseURL},
		{"ci.project", c.CI.Project},
		{"feed.url", c.Feed.URL},
		{"feed.cdn_root", c.Feed.CDNRoot},
		{"feed.item_template_url", c.Feed.ItemTemplateURLTemplate},
		{"feed.project_template_url", c.Feed.ProjectTemplateURLTemplate},
	}
	for _, r := range required {
		if r.value == "" {
			return errors.New(errors.ErrCodeInvalidRequest, "config is missing required key %s", r.name)
		}
	}
	return nil
}

// Token reads the CI bearer token from the configured environment variable.
// An empty value is allowed; the CI client then sends unauthenticated calls.
func (c CIConfig) Token() string {
	return os.Getenv(c.TokenEnv)
}
