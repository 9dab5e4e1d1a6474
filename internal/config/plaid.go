package config

import (
	"os"

	"github.com/spf13/viper"

	"github.com/Veraticus/spicecat/internal/plaid"
)

// LoadPlaidConfig builds the Plaid client configuration from viper, falling
// back to the PLAID_* environment variables.
func LoadPlaidConfig() (*plaid.Config, error) {
	cfg := plaid.Config{
		ClientID:    firstNonEmpty(viper.GetString("plaid.client_id"), os.Getenv("PLAID_CLIENT_ID")),
		Secret:      firstNonEmpty(viper.GetString("plaid.secret"), os.Getenv("PLAID_SECRET")),
		AccessToken: firstNonEmpty(viper.GetString("plaid.access_token"), os.Getenv("PLAID_ACCESS_TOKEN")),
		Environment: firstNonEmpty(viper.GetString("plaid.environment"), os.Getenv("PLAID_ENV"), "sandbox"),
		UserID:      viper.GetString("plaid.user_id"),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
