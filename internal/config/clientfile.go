// Package config contains everything related to configuration
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// ClientFile is the JSON document holding the OAuth client registration,
// for example {"client_id": "...", "client_secret": "...", "redirect_uri": "..."}.
type ClientFile struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	RedirectURI  string `json:"redirect_uri"`
}

// LoadClientFile reads the client registration from path. A missing file
// returns (nil, nil) so that env variables alone can configure the client.
func LoadClientFile(path string) (*ClientFile, error) {
	if path == "" {
		return nil, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read client file: %w", err)
	}

	return parseClientFile(content)
}

func parseClientFile(content []byte) (*ClientFile, error) {
	var cf ClientFile
	if err := json.Unmarshal(content, &cf); err != nil {
		return nil, fmt.Errorf("failed to parse client file: %w", err)
	}

	cf.ClientID = strings.TrimSpace(cf.ClientID)
	cf.ClientSecret = strings.TrimSpace(cf.ClientSecret)
	cf.RedirectURI = strings.TrimSpace(cf.RedirectURI)

	return &cf, nil
}
