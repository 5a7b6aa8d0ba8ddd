// Package auth keeps the MySQL password in the OS keyring.
package auth

import (
	"errors"

	"github.com/zalando/go-keyring"
)

const appName = "adminctl"

func key(user, host string) string {
	return "mysql:" + user + "@" + host
}

func Save(user, host, password string) error {
	return keyring.Set(appName, key(user, host), password)
}

// Get returns the stored password. A missing entry is not an error, it
// returns an empty string.
func Get(user, host string) (string, error) {
	pwd, err := keyring.Get(appName, key(user, host))
	if errors.Is(err, keyring.ErrNotFound) {
		return "", nil
	}
	return pwd, err
}

func Delete(user, host string) error {
	err := keyring.Delete(appName, key(user, host))
	if errors.Is(err, keyring.ErrNotFound) {
		return nil
	}
	return err
}
