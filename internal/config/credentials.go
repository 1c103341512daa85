package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/afero"
	"github.com/tailscale/hujson"

	"github.com/vittorius/zed-settings-sync/internal/interactive"
)

// ErrSettingsNotFound is returned when the settings file does not exist.
var ErrSettingsNotFound = errors.New("settings file not found")

// Credentials address and authenticate the gist.
type Credentials struct {
	GistID      string `json:"gist_id"`
	GithubToken string `json:"github_token"`
}

// Credentials returns the gist id and token set through flags or the
// environment. ok is false unless both are present.
func (c *Config) Credentials() (creds Credentials, ok bool) {
	if c.GistID == "" || c.GithubToken == "" {
		return Credentials{}, false
	}
	return Credentials{GistID: c.GistID, GithubToken: c.GithubToken}, true
}

type zedSettings struct {
	LSP struct {
		SettingsSync *struct {
			InitializationOptions *Credentials `json:"initialization_options"`
		} `json:"settings_sync"`
	} `json:"lsp"`
}

// FromSettingsFile reads the credentials from the extension's
// initialization options in the Zed settings file. The file may contain
// comments and trailing commas.
func FromSettingsFile(fs afero.Fs, path string) (Credentials, error) {
	exists, err := afero.Exists(fs, path)
	if err != nil {
		return Credentials{}, fmt.Errorf("failed to check %s: %w", path, err)
	}
	if !exists {
		return Credentials{}, fmt.Errorf("%w at: %s", ErrSettingsNotFound, path)
	}

	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return Credentials{}, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return Credentials{}, fmt.Errorf("settings file is empty: %s", path)
	}

	std, err := hujson.Standardize(data)
	if err != nil {
		return Credentials{}, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	var settings zedSettings
	if err := json.Unmarshal(std, &settings); err != nil {
		return Credentials{}, fmt.Errorf("failed to decode %s: %w", path, err)
	}

	if settings.LSP.SettingsSync == nil || settings.LSP.SettingsSync.InitializationOptions == nil {
		return Credentials{}, errors.New("missing lsp.settings_sync.initialization_options key in settings tree")
	}

	creds := *settings.LSP.SettingsSync.InitializationOptions
	if creds.GistID == "" {
		return Credentials{}, errors.New("missing gist_id in initialization_options")
	}
	if creds.GithubToken == "" {
		return Credentials{}, errors.New("missing github_token in initialization_options")
	}
	return creds, nil
}

// PasswordReader reads a secret without echoing it.
type PasswordReader func() (string, error)

// FromInteractiveIO asks for the token and the gist id, repeating each
// question until the answer is not empty.
func FromInteractiveIO(io interactive.IO, readPassword PasswordReader) (Credentials, error) {
	if err := io.WriteLine("Enter your Github token:"); err != nil {
		return Credentials{}, err
	}
	token, err := ask(io, readPassword, "Github token cannot be empty")
	if err != nil {
		return Credentials{}, err
	}

	if err := io.WriteLine("Enter your Gist ID:"); err != nil {
		return Credentials{}, err
	}
	gistID, err := ask(io, io.ReadLine, "Gist ID cannot be empty")
	if err != nil {
		return Credentials{}, err
	}

	return Credentials{GistID: gistID, GithubToken: token}, nil
}

func ask(io interactive.IO, read func() (string, error), retry string) (string, error) {
	for {
		answer, err := read()
		if err != nil {
			return "", fmt.Errorf("failed to read answer: %w", err)
		}
		answer = strings.TrimSpace(answer)
		if answer != "" {
			return answer, nil
		}
		if err := io.WriteLine(retry); err != nil {
			return "", err
		}
	}
}
