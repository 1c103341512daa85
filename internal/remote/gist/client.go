// Package gist implements remote.Store on top of a single GitHub gist.
package gist

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/google/go-github/v66/github"
	"golang.org/x/oauth2"

	"github.com/vittorius/zed-settings-sync/internal/jsonsecret"
	"github.com/vittorius/zed-settings-sync/internal/remote"
)

// Client pushes and pulls the synced files of one gist.
type Client struct {
	gh     *github.Client
	gistID string
	token  string
	logger *slog.Logger
}

var _ remote.Store = (*Client)(nil)

// Option configures a Client.
type Option func(*options)

type options struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
	logger     *slog.Logger
}

// WithBaseURL points the client at another GitHub API root, such as a
// GitHub Enterprise instance or a test server.
func WithBaseURL(baseURL string) Option {
	return func(o *options) { o.baseURL = baseURL }
}

// WithHTTPClient sets the HTTP client whose transport carries the requests.
// The token is added on top of its transport.
func WithHTTPClient(client *http.Client) Option {
	return func(o *options) { o.httpClient = client }
}

// WithTimeout bounds every API request. Zero means no limit.
func WithTimeout(timeout time.Duration) Option {
	return func(o *options) { o.timeout = timeout }
}

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// New creates a client for gistID authenticated with token. The token is
// also the secret restored into the settings file on pull.
func New(gistID, token string, opts ...Option) (*Client, error) {
	if gistID == "" {
		return nil, fmt.Errorf("gist id cannot be empty")
	}
	if token == "" {
		return nil, fmt.Errorf("github token cannot be empty")
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}

	var base http.RoundTripper
	timeout := o.timeout
	if o.httpClient != nil {
		base = o.httpClient.Transport
		if timeout == 0 {
			timeout = o.httpClient.Timeout
		}
	}

	httpClient := &http.Client{
		Timeout: timeout,
		Transport: &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}),
			Base:   base,
		},
	}

	gh := github.NewClient(httpClient)
	if o.baseURL != "" {
		u, err := parseBaseURL(o.baseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to build the GitHub client: %w", err)
		}
		gh.BaseURL = u
	}

	return &Client{
		gh:     gh,
		gistID: gistID,
		token:  token,
		logger: o.logger,
	}, nil
}

func parseBaseURL(raw string) (*url.URL, error) {
	if !strings.HasSuffix(raw, "/") {
		raw += "/"
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid API URL %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid API URL %q: scheme must be http or https", raw)
	}
	return u, nil
}

// Push uploads record as the new content of its file in the gist. The
// settings file is sent with its token masked.
func (c *Client) Push(ctx context.Context, record remote.TransferRecord) error {
	c.logger.Info("Syncing file", "path", record.Path)

	body := record.Body
	if jsonsecret.IsSettingsFile(record.FileName) {
		masked, err := jsonsecret.Mask(body)
		if err != nil {
			return remote.NewFileError(record.FileName, remote.FromCodec(err))
		}
		body = masked
	}

	update := &github.Gist{
		Files: map[github.GistFilename]github.GistFile{
			github.GistFilename(record.FileName): {Content: &body},
		},
	}
	if _, _, err := c.gh.Gists.Edit(ctx, c.gistID, update); err != nil {
		return remote.NewFileError(record.FileName, classify(err))
	}

	c.logger.Info("File synced", "path", record.Path)
	return nil
}

// Pull fetches the gist and returns its JSON files sorted by name. The
// settings file is yielded with the client's token restored.
func (c *Client) Pull(ctx context.Context) (iter.Seq2[remote.File, error], error) {
	g, _, err := c.gh.Gists.Get(ctx, c.gistID)
	if err != nil {
		return nil, classify(err)
	}

	files := make([]remote.File, 0, len(g.Files))
	for name, file := range g.Files {
		content := file.GetContent()
		if !remote.Participates(string(name), content) {
			c.logger.Debug("Skipping gist file", "file", string(name))
			continue
		}
		files = append(files, remote.File{Name: string(name), Content: content})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })

	c.logger.Info("Gist fetched", "gist", c.gistID, "files", len(files))

	return func(yield func(remote.File, error) bool) {
		for _, file := range files {
			if jsonsecret.IsSettingsFile(file.Name) {
				restored, err := jsonsecret.Unmask(file.Content, c.token)
				if err != nil {
					if !yield(remote.File{Name: file.Name}, remote.NewFileError(file.Name, remote.FromCodec(err))) {
						return
					}
					continue
				}
				file.Content = restored
			}

			if !yield(file, nil) {
				return
			}
		}
	}, nil
}
