package gist

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/vittorius/zed-settings-sync/internal/remote"
)

const (
	testGistID = "abc123"
	testToken  = "ghp_secret"
)

// fakeAPI serves the two gist endpoints the client uses.
type fakeAPI struct {
	mu       sync.Mutex
	files    map[string]any
	edits    []map[string]string
	requests int
	auth     []string
	status   int
	rawBody  string
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.requests++
	f.auth = append(f.auth, r.Header.Get("Authorization"))

	if r.URL.Path != "/gists/"+testGistID {
		http.NotFound(w, r)
		return
	}

	if f.status != 0 {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(f.status)
		_, _ = io.WriteString(w, `{"message": "Server Error"}`)
		return
	}

	if f.rawBody != "" {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, f.rawBody)
		return
	}

	switch r.Method {
	case http.MethodGet:
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"id": testGistID, "files": f.files})
	case http.MethodPatch:
		var payload struct {
			Files map[string]struct {
				Content string `json:"content"`
			} `json:"files"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		edit := make(map[string]string, len(payload.Files))
		for name, file := range payload.Files {
			edit[name] = file.Content
		}
		f.edits = append(f.edits, edit)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id": "`+testGistID+`"}`)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func newTestClient(t *testing.T, api *fakeAPI) (*Client, *httptest.Server) {
	t.Helper()

	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	client, err := New(testGistID, testToken,
		WithBaseURL(srv.URL),
		WithHTTPClient(srv.Client()),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return client, srv
}

func gistFile(content string) map[string]any {
	return map[string]any{"content": content}
}

func TestNewRequiresCredentials(t *testing.T) {
	if _, err := New("", testToken); err == nil {
		t.Error("New should fail without a gist id")
	}
	if _, err := New(testGistID, ""); err == nil {
		t.Error("New should fail without a token")
	}
	if _, err := New(testGistID, testToken, WithBaseURL("ftp://example.com")); err == nil {
		t.Error("New should reject a non-http API URL")
	}
}

func TestPushMasksSettingsToken(t *testing.T) {
	api := &fakeAPI{}
	client, _ := newTestClient(t, api)

	record, err := remote.NewTransferRecord("/home/u/.config/zed/settings.json",
		`{"lsp":{"settings_sync":{"initialization_options":{"github_token":"abc"}}}}`)
	if err != nil {
		t.Fatalf("NewTransferRecord failed: %v", err)
	}

	if err := client.Push(context.Background(), record); err != nil {
		t.Fatalf("Push failed: %v", err)
	}

	if len(api.edits) != 1 {
		t.Fatalf("expected 1 edit, got %d", len(api.edits))
	}
	want := `{"lsp":{"settings_sync":{"initialization_options":{"github_token":"[masked]"}}}}`
	if got := api.edits[0]["settings.json"]; got != want {
		t.Errorf("expected masked body %q, got %q", want, got)
	}
	if api.auth[0] != "Bearer "+testToken {
		t.Errorf("expected bearer token authorization, got %q", api.auth[0])
	}
}

func TestPushOtherFileVerbatim(t *testing.T) {
	api := &fakeAPI{}
	client, _ := newTestClient(t, api)

	body := "// not even json\n[{\"bindings\": {}}"
	record, err := remote.NewTransferRecord("/home/u/.config/zed/keymap.json", body)
	if err != nil {
		t.Fatalf("NewTransferRecord failed: %v", err)
	}

	if err := client.Push(context.Background(), record); err != nil {
		t.Fatalf("Push failed: %v", err)
	}
	if got := api.edits[0]["keymap.json"]; got != body {
		t.Errorf("expected body to pass through untouched, got %q", got)
	}
}

func TestPushInvalidSettingsMakesNoRequest(t *testing.T) {
	api := &fakeAPI{}
	client, _ := newTestClient(t, api)

	record, _ := remote.NewTransferRecord("/cfg/settings.json", `{"lsp": {}}`)
	err := client.Push(context.Background(), record)
	if !errors.Is(err, remote.ErrInvalidStructure) {
		t.Fatalf("expected ErrInvalidStructure, got %v", err)
	}

	var fileErr *remote.FileError
	if !errors.As(err, &fileErr) || fileErr.FileName != "settings.json" {
		t.Errorf("expected a *FileError for settings.json, got %v", err)
	}
	if api.requests != 0 {
		t.Errorf("expected no request, got %d", api.requests)
	}
}

func TestPullFiltersSortsAndRestores(t *testing.T) {
	api := &fakeAPI{files: map[string]any{
		"tasks.json":    gistFile(`[{"label": "build"}]`),
		"settings.json": gistFile(`{"lsp":{"settings_sync":{"initialization_options":{"github_token":"[masked]"}}}}`),
		"keymap.json":   gistFile(`[]`),
		"notes.md":      gistFile("# notes"),
		"empty.json":    gistFile(""),
	}}
	client, _ := newTestClient(t, api)

	files, err := client.Pull(context.Background())
	if err != nil {
		t.Fatalf("Pull failed: %v", err)
	}

	var names []string
	for file, err := range files {
		if err != nil {
			t.Fatalf("unexpected file error: %v", err)
		}
		names = append(names, file.Name)
		if file.Name == "settings.json" {
			want := `{"lsp":{"settings_sync":{"initialization_options":{"github_token":"` + testToken + `"}}}}`
			if file.Content != want {
				t.Errorf("expected restored token, got %q", file.Content)
			}
		}
	}

	want := []string{"keymap.json", "settings.json", "tasks.json"}
	if len(names) != len(want) {
		t.Fatalf("expected %v, got %v", want, names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("file %d: expected %s, got %s", i, want[i], names[i])
		}
	}
	if api.requests != 1 {
		t.Errorf("expected a single request, got %d", api.requests)
	}
}

func TestPullYieldsFileErrorAndContinues(t *testing.T) {
	api := &fakeAPI{files: map[string]any{
		"settings.json": gistFile(`{"theme": "One Dark"`),
		"keymap.json":   gistFile(`[]`),
		"tasks.json":    gistFile(`[]`),
	}}
	client, _ := newTestClient(t, api)

	files, err := client.Pull(context.Background())
	if err != nil {
		t.Fatalf("Pull failed: %v", err)
	}

	var ok, failed []string
	for file, err := range files {
		if err != nil {
			if !errors.Is(err, remote.ErrInvalidDocument) {
				t.Errorf("expected ErrInvalidDocument, got %v", err)
			}
			failed = append(failed, file.Name)
			continue
		}
		ok = append(ok, file.Name)
	}

	if len(failed) != 1 || failed[0] != "settings.json" {
		t.Errorf("expected settings.json to fail, got %v", failed)
	}
	if len(ok) != 2 || ok[0] != "keymap.json" || ok[1] != "tasks.json" {
		t.Errorf("expected keymap.json and tasks.json, got %v", ok)
	}
}

func TestPullStopsWhenConsumerStops(t *testing.T) {
	api := &fakeAPI{files: map[string]any{
		"a.json": gistFile("{}"),
		"b.json": gistFile("{}"),
	}}
	client, _ := newTestClient(t, api)

	files, err := client.Pull(context.Background())
	if err != nil {
		t.Fatalf("Pull failed: %v", err)
	}

	count := 0
	for range files {
		count++
		break
	}
	if count != 1 {
		t.Errorf("expected iteration to stop after 1 file, got %d", count)
	}
}

func TestErrorClassification(t *testing.T) {
	t.Run("service error", func(t *testing.T) {
		client, _ := newTestClient(t, &fakeAPI{status: http.StatusInternalServerError})
		_, err := client.Pull(context.Background())
		if !errors.Is(err, remote.ErrRemoteService) {
			t.Errorf("expected ErrRemoteService, got %v", err)
		}
	})

	t.Run("malformed response", func(t *testing.T) {
		client, _ := newTestClient(t, &fakeAPI{rawBody: "not json"})
		_, err := client.Pull(context.Background())
		if !errors.Is(err, remote.ErrTransport) {
			t.Errorf("expected ErrTransport, got %v", err)
		}
	})

	t.Run("unreachable server", func(t *testing.T) {
		client, srv := newTestClient(t, &fakeAPI{})
		srv.Close()

		record, _ := remote.NewTransferRecord("/cfg/keymap.json", "[]")
		err := client.Push(context.Background(), record)
		if !errors.Is(err, remote.ErrTransport) {
			t.Errorf("expected ErrTransport, got %v", err)
		}
		var fileErr *remote.FileError
		if !errors.As(err, &fileErr) {
			t.Errorf("expected push failure to carry the file name, got %v", err)
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		client, _ := newTestClient(t, &fakeAPI{})
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := client.Pull(ctx)
		if !errors.Is(err, remote.ErrTransport) {
			t.Errorf("expected ErrTransport, got %v", err)
		}
	})

	t.Run("unmapped error", func(t *testing.T) {
		err := classify(errors.New("mystery"))
		if !errors.Is(err, remote.ErrUnclassified) {
			t.Errorf("expected ErrUnclassified, got %v", err)
		}
	})
}
