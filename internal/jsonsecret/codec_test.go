package jsonsecret

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/tailscale/hujson"
)

const settingsWithComments = `// Zed settings
{
  "theme": "One Dark",   // keep this
  "lsp": {
    "settings_sync": {
      "initialization_options": {
        "gist_id": "abcdef1234567890",
        "github_token": "gho_1234567890", /* the secret */
      },
    },
  },
  "vim_mode": true,
}
`

// tokenOf decodes body and returns the token value.
func tokenOf(t *testing.T, body string) string {
	t.Helper()

	std, err := hujson.Standardize([]byte(body))
	if err != nil {
		t.Fatalf("failed to standardize document: %v", err)
	}

	var doc struct {
		LSP struct {
			SettingsSync struct {
				InitializationOptions struct {
					GithubToken string `json:"github_token"`
				} `json:"initialization_options"`
			} `json:"settings_sync"`
		} `json:"lsp"`
	}
	if err := json.Unmarshal(std, &doc); err != nil {
		t.Fatalf("failed to decode document: %v", err)
	}
	return doc.LSP.SettingsSync.InitializationOptions.GithubToken
}

func TestMask(t *testing.T) {
	masked, err := Mask(settingsWithComments)
	if err != nil {
		t.Fatalf("Mask failed: %v", err)
	}

	if got := tokenOf(t, masked); got != MaskedToken {
		t.Errorf("expected token %q, got %q", MaskedToken, got)
	}

	want := strings.Replace(settingsWithComments, `"gho_1234567890"`, `"[masked]"`, 1)
	if masked != want {
		t.Errorf("formatting was not preserved:\nwant:\n%s\ngot:\n%s", want, masked)
	}
}

func TestMaskCompactDocument(t *testing.T) {
	body := `{"lsp":{"settings_sync":{"initialization_options":{"github_token":"abc"}}}}`

	masked, err := Mask(body)
	if err != nil {
		t.Fatalf("Mask failed: %v", err)
	}

	want := `{"lsp":{"settings_sync":{"initialization_options":{"github_token":"[masked]"}}}}`
	if masked != want {
		t.Errorf("expected %s, got %s", want, masked)
	}
}

func TestUnmaskRestoresOriginal(t *testing.T) {
	masked, err := Mask(settingsWithComments)
	if err != nil {
		t.Fatalf("Mask failed: %v", err)
	}

	restored, err := Unmask(masked, "gho_1234567890")
	if err != nil {
		t.Fatalf("Unmask failed: %v", err)
	}

	if restored != settingsWithComments {
		t.Errorf("round trip changed the document:\nwant:\n%s\ngot:\n%s", settingsWithComments, restored)
	}
}

func TestUnmaskEscapesSecret(t *testing.T) {
	secrets := []string{
		`plain`,
		`with "quotes"`,
		`back\slash`,
		"new\nline\ttab",
		`unicode ✓ </script>`,
	}

	for _, secret := range secrets {
		t.Run(secret, func(t *testing.T) {
			out, err := Unmask(settingsWithComments, secret)
			if err != nil {
				t.Fatalf("Unmask failed: %v", err)
			}
			if got := tokenOf(t, out); got != secret {
				t.Errorf("expected token %q, got %q", secret, got)
			}
		})
	}
}

func TestMaskMissingSegments(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		field     string
		notObject bool
	}{
		{
			name:  "missing lsp",
			body:  `{"theme": "One Dark"}`,
			field: "lsp",
		},
		{
			name:  "missing settings_sync",
			body:  `{"lsp": {}}`,
			field: "settings_sync",
		},
		{
			name:  "missing initialization_options",
			body:  `{"lsp": {"settings_sync": {}}}`,
			field: "initialization_options",
		},
		{
			name:  "missing github_token",
			body:  `{"lsp": {"settings_sync": {"initialization_options": {"gist_id": "x"}}}}`,
			field: "github_token",
		},
		{
			name:      "lsp is not an object",
			body:      `{"lsp": "nope"}`,
			field:     "lsp",
			notObject: true,
		},
		{
			name:      "initialization_options is an array",
			body:      `{"lsp": {"settings_sync": {"initialization_options": []}}}`,
			field:     "initialization_options",
			notObject: true,
		},
		{
			name:  "root is not an object",
			body:  `["lsp"]`,
			field: "lsp",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for op, run := range map[string]func(string) (string, error){
				"mask":   Mask,
				"unmask": func(body string) (string, error) { return Unmask(body, "secret") },
			} {
				_, err := run(tt.body)
				if !errors.Is(err, ErrInvalidStructure) {
					t.Fatalf("%s: expected ErrInvalidStructure, got %v", op, err)
				}

				var structErr *StructureError
				if !errors.As(err, &structErr) {
					t.Fatalf("%s: expected *StructureError, got %T", op, err)
				}
				if structErr.Field != tt.field {
					t.Errorf("%s: expected field %q, got %q", op, tt.field, structErr.Field)
				}
				if structErr.NotObject != tt.notObject {
					t.Errorf("%s: expected NotObject=%v, got %v", op, tt.notObject, structErr.NotObject)
				}
			}
		})
	}
}

func TestMaskInvalidDocument(t *testing.T) {
	for _, body := range []string{"", "   \n", `{"lsp": `, `{"lsp" "x"}`, `not json`} {
		_, err := Mask(body)
		if !errors.Is(err, ErrInvalidDocument) {
			t.Errorf("Mask(%q): expected ErrInvalidDocument, got %v", body, err)
		}
		if errors.Is(err, ErrInvalidStructure) {
			t.Errorf("Mask(%q): parse failure must not match ErrInvalidStructure", body)
		}
	}
}

func TestIsSettingsFile(t *testing.T) {
	if !IsSettingsFile("settings.json") {
		t.Error("settings.json should be the settings file")
	}
	for _, name := range []string{"keymap.json", "Settings.json", "settings.json.bak", ""} {
		if IsSettingsFile(name) {
			t.Errorf("%q should not be the settings file", name)
		}
	}
}
