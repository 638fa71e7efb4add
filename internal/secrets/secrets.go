// Package secrets resolves API keys and passwords: OS keychain first,
// environment variables as the headless fallback.
package secrets

import (
	"errors"
	"os"
	"strings"

	"github.com/zalando/go-keyring"
)

const (
	// “Service” groups the app's secrets in the OS keychain.
	KeyringService = "habita"

	AccountScraperAPI = "scraperapi"
	AccountAnthropic  = "anthropic"
	AccountSMTP       = "smtp"
)

var envByAccount = map[string]string{
	AccountScraperAPI: "SCRAPER_API_KEY",
	AccountAnthropic:  "ANTHROPIC_API_KEY",
	AccountSMTP:       "SMTP_PASSWORD",
}

// Get looks up a secret by account name. Keyring wins when present; an
// env var keeps servers without a keychain working.
func Get(account string) (string, error) {
	if strings.TrimSpace(account) == "" {
		return "", errors.New("secret account name is empty")
	}

	pw, err := keyring.Get(KeyringService, account)
	if err == nil && strings.TrimSpace(pw) != "" {
		return pw, nil
	}

	if env, ok := envByAccount[account]; ok {
		if v := strings.TrimSpace(os.Getenv(env)); v != "" {
			return v, nil
		}
	}
	return "", errors.New("secret not found for account " + account)
}

func Set(account, value string) error {
	if strings.TrimSpace(account) == "" {
		return errors.New("secret account name is empty")
	}
	if strings.TrimSpace(value) == "" {
		return errors.New("secret value is empty")
	}
	return keyring.Set(KeyringService, account, value)
}

func Delete(account string) error {
	if strings.TrimSpace(account) == "" {
		return errors.New("secret account name is empty")
	}
	return keyring.Delete(KeyringService, account)
}
