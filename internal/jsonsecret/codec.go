// Package jsonsecret masks and restores the GitHub token embedded in the Zed
// settings file without disturbing the rest of the document.
//
// Zed settings are hand-edited JSON with comments and trailing commas, so the
// document is parsed into a hujson tree and only the token literal is swapped.
// Whitespace, comments and member order outside that literal are preserved
// byte for byte.
package jsonsecret

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tailscale/hujson"
)

const (
	// SettingsFileName is the only synced file that carries the token.
	SettingsFileName = "settings.json"

	// MaskedToken replaces the token in the copy that leaves the machine.
	MaskedToken = "[masked]"
)

// TokenPath is the key path of the token inside the settings document.
var TokenPath = []string{"lsp", "settings_sync", "initialization_options", "github_token"}

var (
	// ErrInvalidDocument is returned when the text is not valid JSON(C).
	ErrInvalidDocument = errors.New("invalid JSON document")

	// ErrInvalidStructure is matched by every *StructureError.
	ErrInvalidStructure = errors.New("invalid settings structure")
)

// StructureError reports a segment of TokenPath that is missing or is not an
// object where one is required.
type StructureError struct {
	// Field is the key that could not be resolved.
	Field string
	// NotObject is set when the key exists but does not hold an object.
	NotObject bool
}

func (e *StructureError) Error() string {
	if e.NotObject {
		return fmt.Sprintf("%q is not a configuration object", e.Field)
	}
	return fmt.Sprintf("missing %q key", e.Field)
}

// Is makes errors.Is(err, ErrInvalidStructure) match.
func (e *StructureError) Is(target error) bool {
	return target == ErrInvalidStructure
}

// IsSettingsFile reports whether a synced file is subject to masking.
func IsSettingsFile(name string) bool {
	return name == SettingsFileName
}

// Mask replaces the token in body with MaskedToken.
func Mask(body string) (string, error) {
	return replaceToken(body, MaskedToken)
}

// Unmask puts secret back in place of whatever the token field holds.
func Unmask(body, secret string) (string, error) {
	return replaceToken(body, secret)
}

func replaceToken(body, replacement string) (string, error) {
	if strings.TrimSpace(body) == "" {
		return "", fmt.Errorf("%w: document is empty", ErrInvalidDocument)
	}

	root, err := hujson.Parse([]byte(body))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}

	leaf, err := lookupPath(&root, TokenPath)
	if err != nil {
		return "", err
	}
	leaf.Value = hujson.String(replacement)

	return string(root.Pack()), nil
}

// lookupPath walks path from v and returns the value held by the last key.
// Every intermediate value must be an object.
func lookupPath(v *hujson.Value, path []string) (*hujson.Value, error) {
	current := v
	for _, key := range path {
		obj, ok := current.Value.(*hujson.Object)
		if !ok {
			// The root is reported as its first key missing.
			if current == v {
				return nil, &StructureError{Field: key}
			}
			return nil, &StructureError{Field: previousKey(path, key), NotObject: true}
		}

		next := member(obj, key)
		if next == nil {
			return nil, &StructureError{Field: key}
		}
		current = next
	}
	return current, nil
}

// member returns the value of the first member named key.
func member(obj *hujson.Object, key string) *hujson.Value {
	for i := range obj.Members {
		name, ok := obj.Members[i].Name.Value.(hujson.Literal)
		if ok && name.String() == key {
			return &obj.Members[i].Value
		}
	}
	return nil
}

func previousKey(path []string, key string) string {
	for i, k := range path {
		if k == key && i > 0 {
			return path[i-1]
		}
	}
	return key
}
