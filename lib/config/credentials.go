// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// Credential file keys.
const (
	KeyHomeserverURL = "MATRIX_HOMESERVER_URL"
	KeyUserID        = "MATRIX_USER_ID"
	KeyAccessToken   = "MATRIX_ACCESS_TOKEN"
	KeyDeviceID      = "MATRIX_DEVICE_ID"
)

// Credentials identify the bot account on its homeserver.
type Credentials struct {
	HomeserverURL string
	UserID        string
	AccessToken   string
	DeviceID      string
}

// ReadCredentials parses a KEY=VALUE credential file. Comments and
// blank lines are ignored; quoting follows dotenv rules. The homeserver
// URL, user ID and access token must all be present.
func ReadCredentials(path string) (*Credentials, error) {
	values, err := godotenv.Read(path)
	if err != nil {
		return nil, fmt.Errorf("reading credential file %s: %w", path, err)
	}
	credentials := &Credentials{
		HomeserverURL: values[KeyHomeserverURL],
		UserID:        values[KeyUserID],
		AccessToken:   values[KeyAccessToken],
		DeviceID:      values[KeyDeviceID],
	}

	var errs []error
	for _, key := range []string{KeyHomeserverURL, KeyUserID, KeyAccessToken} {
		if values[key] == "" {
			errs = append(errs, fmt.Errorf("%s missing from %s", key, path))
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return credentials, nil
}

// WriteCredentials writes credentials to path with mode 0600, creating
// the parent directory if needed. An existing file is replaced.
func WriteCredentials(path string, credentials Credentials) error {
	values := map[string]string{
		KeyHomeserverURL: credentials.HomeserverURL,
		KeyUserID:        credentials.UserID,
		KeyAccessToken:   credentials.AccessToken,
	}
	if credentials.DeviceID != "" {
		values[KeyDeviceID] = credentials.DeviceID
	}
	content, err := godotenv.Marshal(values)
	if err != nil {
		return fmt.Errorf("encoding credentials: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating credential directory: %w", err)
	}
	temporary := path + ".tmp"
	if err := os.WriteFile(temporary, []byte(content+"\n"), 0o600); err != nil {
		return fmt.Errorf("writing credential file: %w", err)
	}
	if err := os.Rename(temporary, path); err != nil {
		os.Remove(temporary)
		return fmt.Errorf("installing credential file: %w", err)
	}
	return nil
}
