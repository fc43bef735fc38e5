package lib

import (
	"os"
	"strings"

	"github.com/gravitational/trace"
)

// QuickbaseConfig stores the options required to reach a Quickbase realm:
// the realm hostname and the secrets used by both API generations.
type QuickbaseConfig struct {
	Realm     string `toml:"realm"`
	AppToken  string `toml:"app_token"`
	UserToken string `toml:"user_token"`
	AppDBID   string `toml:"app_dbid"`

	// APIEndpoint and LegacyEndpoint are only set in tests.
	APIEndpoint    string `toml:"api_endpoint"`
	LegacyEndpoint string `toml:"legacy_endpoint"`
}

// CheckAndSetDefaults resolves file-backed secrets and checks required settings.
func (cfg *QuickbaseConfig) CheckAndSetDefaults() error {
	var err error
	if cfg.Realm == "" {
		return trace.BadParameter("missing required value realm")
	}
	if cfg.AppToken, err = resolveSecret(cfg.AppToken); err != nil {
		return trace.Wrap(err)
	}
	if cfg.UserToken, err = resolveSecret(cfg.UserToken); err != nil {
		return trace.Wrap(err)
	}
	if cfg.AppToken == "" && cfg.UserToken == "" {
		return trace.BadParameter("at least one of app_token or user_token is required")
	}
	return nil
}

// resolveSecret reads the secret from a file when the value is an absolute path.
func resolveSecret(value string) (string, error) {
	if !strings.HasPrefix(value, "/") {
		return value, nil
	}
	return ReadPassword(value)
}

// ReadPassword reads a secret from a file, trimming surrounding whitespace.
func ReadPassword(filename string) (string, error) {
	bytes, err := os.ReadFile(filename)
	if err != nil {
		return "", trace.ConvertSystemError(err)
	}
	secret := strings.TrimSpace(string(bytes))
	if secret == "" {
		return "", trace.BadParameter("secret file %q is empty", filename)
	}
	return secret, nil
}
