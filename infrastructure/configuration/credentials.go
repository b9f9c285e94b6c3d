package configuration

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"omnipost/domain/model"
	"omnipost/infrastructure/logger"
	"omnipost/infrastructure/utils"

	"github.com/spf13/viper"
)

// CredentialStore reads provider client registrations from a JSON file keyed by provider name.
type CredentialStore struct {
	path string
}

func NewCredentialStore(path string) *CredentialStore {
	return &CredentialStore{path: path}
}

func (s *CredentialStore) Path() string { return s.path }

// EnsureTemplateExists writes empty placeholders for every provider when the file is absent.
func (s *CredentialStore) EnsureTemplateExists() error {
	if _, err := os.Stat(s.path); err == nil {
		return nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("stat credentials file: %w", err)
	}

	template := make(map[model.OAuthProvider]model.ClientCredentials, len(model.AllProviders))
	for _, p := range model.AllProviders {
		template[p] = model.ClientCredentials{}
	}
	data, err := json.MarshalIndent(template, "", "  ")
	if err != nil {
		return err
	}
	if err := utils.WriteFileAtomic(s.path, data, 0o600); err != nil {
		return fmt.Errorf("write credentials template: %w", err)
	}
	logger.GetLogger().WithField("path", s.path).Info("Created OAuth credentials template")
	return nil
}

func (s *CredentialStore) Load() (map[model.OAuthProvider]model.ClientCredentials, error) {
	if err := s.EnsureTemplateExists(); err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetConfigFile(s.path)
	v.SetConfigType("json")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read credentials file %s: %w", s.path, err)
	}

	raw := map[string]model.ClientCredentials{}
	if err := v.Unmarshal(&raw); err != nil {
		return nil, fmt.Errorf("decode credentials file %s: %w", s.path, err)
	}

	out := make(map[model.OAuthProvider]model.ClientCredentials, len(raw))
	for name, creds := range raw {
		out[model.OAuthProvider(strings.ToLower(name))] = creds
	}
	return out, nil
}

// CredentialsFor fails with model.ErrMissingCredentials when the provider has no client ID.
func (s *CredentialStore) CredentialsFor(provider model.OAuthProvider) (model.ClientCredentials, error) {
	all, err := s.Load()
	if err != nil {
		return model.ClientCredentials{}, fmt.Errorf("%w for %s: %v", model.ErrMissingCredentials, provider, err)
	}
	creds, ok := all[provider]
	if !ok || strings.TrimSpace(creds.ClientID) == "" {
		return model.ClientCredentials{}, fmt.Errorf("%w for %s. Update %s", model.ErrMissingCredentials, provider, s.path)
	}
	return creds, nil
}
