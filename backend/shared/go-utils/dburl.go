package utils

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// WithIsolatedRole rewrites a Postgres URL to log in as "<runner>-<run>",
// keeping the password. CI creates one such role per run so concurrent
// integration suites cannot see each other's rows.
func WithIsolatedRole(dbURL, runnerID, runNumber string) (string, error) {
	if runnerID == "" || runNumber == "" {
		return "", errors.New("runnerID and runNumber must be non-empty")
	}

	u, err := url.Parse(dbURL)
	if err != nil {
		return "", fmt.Errorf("invalid DB URL: %w", err)
	}
	if u.Scheme != "postgres" && u.Scheme != "postgresql" {
		return "", fmt.Errorf("unsupported DB URL scheme %q", u.Scheme)
	}

	role := strings.ToLower(runnerID + "-" + runNumber)
	password, _ := u.User.Password()
	u.User = url.UserPassword(role, password)
	return u.String(), nil
}
