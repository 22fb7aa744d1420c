// Package keyring keeps PostgreSQL connection strings in the OS keyring so
// they never land in a config file or shell history.
package keyring

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/zalando/go-keyring"

	"github.com/julianstephens/trainplan/internal/constants"
)

var (
	ErrNotFound           = errors.New("credentials not found in keyring")
	ErrKeyringUnavailable = errors.New("OS keyring is not available")
)

func account(name string) string {
	if strings.TrimSpace(name) == "" {
		return constants.DefaultKeyringUser
	}
	return name
}

// Get returns the connection string stored under name. An empty name is the
// default account.
func Get(name string) (string, error) {
	connStr, err := keyring.Get(constants.AppName, account(name))
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("%w: %v", ErrKeyringUnavailable, err)
	}
	return connStr, nil
}

func Set(name, connStr string) error {
	if connStr == "" {
		return errors.New("connection string cannot be empty")
	}
	if err := keyring.Set(constants.AppName, account(name), connStr); err != nil {
		return fmt.Errorf("failed to store credentials in keyring: %w", err)
	}
	return nil
}

func Delete(name string) error {
	if err := keyring.Delete(constants.AppName, account(name)); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete credentials from keyring: %w", err)
	}
	return nil
}

// Resolve picks the connection string for a postgres backend: an explicit
// value first, then TRAINPLAN_DB_CONNECTION, then the keyring. It returns
// ErrNotFound when none is set.
func Resolve(explicit, name string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	if env := os.Getenv(constants.EnvDBConnection); env != "" {
		return env, nil
	}
	return Get(name)
}
