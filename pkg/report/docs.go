package report

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/docs/v1"
	"google.golang.org/api/option"

	"github.com/teslashibe/go-zenith/internal/httpc"
	"github.com/teslashibe/go-zenith/internal/log"
)

var (
	// ErrNoCredentials is returned when the OAuth client is not configured.
	ErrNoCredentials = errors.New("report: google client id and secret required")

	// ErrNotAuthenticated is returned when exporting before OAuth consent.
	ErrNotAuthenticated = errors.New("report: not connected to google")
)

const oauthState = "zenith-export"

// DocsConfig configures the Google Docs exporter.
type DocsConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string // defaults to http://localhost:8080/api/export/google/callback
	TokenPath    string // defaults to ~/.zenith/google_token.json
	Logger       *slog.Logger
}

// DocsStatus is the connection state shown to the dashboard.
type DocsStatus struct {
	Connected bool   `json:"connected"`
	AuthURL   string `json:"auth_url,omitempty"`
}

// DocsExporter creates one Google Doc per exported report.
type DocsExporter struct {
	config    *oauth2.Config
	tokenPath string
	logger    *slog.Logger

	mu      sync.RWMutex
	token   *oauth2.Token
	service *docs.Service
}

// NewDocsExporter creates an exporter and loads a saved token when present.
func NewDocsExporter(ctx context.Context, cfg DocsConfig) (*DocsExporter, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, ErrNoCredentials
	}
	if cfg.RedirectURL == "" {
		cfg.RedirectURL = "http://localhost:8080/api/export/google/callback"
	}
	if cfg.TokenPath == "" {
		home, _ := os.UserHomeDir()
		cfg.TokenPath = filepath.Join(home, ".zenith", "google_token.json")
	}
	if cfg.Logger == nil {
		cfg.Logger = log.L()
	}

	e := &DocsExporter{
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       []string{docs.DocumentsScope, docs.DriveFileScope},
			Endpoint:     google.Endpoint,
		},
		tokenPath: cfg.TokenPath,
		logger:    cfg.Logger.With("component", "report.docs"),
	}

	if tok, err := e.loadToken(); err == nil {
		if err := e.connect(ctx, tok); err != nil {
			e.logger.Warn("saved google token unusable", "error", err)
		}
	}
	return e, nil
}

// newDocsExporterWithService is used by tests to bypass OAuth.
func newDocsExporterWithService(svc *docs.Service) *DocsExporter {
	return &DocsExporter{
		config:  &oauth2.Config{},
		logger:  log.Discard(),
		token:   &oauth2.Token{AccessToken: "test"},
		service: svc,
	}
}

// Connected reports whether a Docs service is ready.
func (e *DocsExporter) Connected() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.service != nil
}

// AuthURL returns the consent URL.
func (e *DocsExporter) AuthURL() string {
	return e.config.AuthCodeURL(oauthState, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

// Status returns the connection state.
func (e *DocsExporter) Status() DocsStatus {
	s := DocsStatus{Connected: e.Connected()}
	if !s.Connected {
		s.AuthURL = e.AuthURL()
	}
	return s
}

// HandleCallback exchanges an authorization code and stores the token.
func (e *DocsExporter) HandleCallback(ctx context.Context, state, code string) error {
	if state != oauthState {
		return fmt.Errorf("report: oauth state mismatch")
	}
	tok, err := e.config.Exchange(e.oauthContext(ctx), code)
	if err != nil {
		return fmt.Errorf("report: exchange code: %w", err)
	}
	if err := e.saveToken(tok); err != nil {
		e.logger.Warn("failed to save google token", "error", err)
	}
	return e.connect(ctx, tok)
}

// Disconnect forgets the token and removes it from disk.
func (e *DocsExporter) Disconnect() error {
	e.mu.Lock()
	e.token = nil
	e.service = nil
	e.mu.Unlock()

	if err := os.Remove(e.tokenPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("report: remove token: %w", err)
	}
	return nil
}

// Export creates a document holding the report text and returns its URL.
func (e *DocsExporter) Export(ctx context.Context, r *Report) (string, error) {
	e.mu.RLock()
	svc := e.service
	e.mu.RUnlock()
	if svc == nil {
		return "", ErrNotAuthenticated
	}

	title := "Zenith Neural Insight Report " + r.GeneratedAt.Format("2006-01-02 15:04")
	doc, err := svc.Documents.Create(&docs.Document{Title: title}).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("report: create document: %w", err)
	}

	_, err = svc.Documents.BatchUpdate(doc.DocumentId, &docs.BatchUpdateDocumentRequest{
		Requests: []*docs.Request{{
			InsertText: &docs.InsertTextRequest{
				Location: &docs.Location{Index: 1},
				Text:     r.Text(),
			},
		}},
	}).Context(ctx).Do()
	if err != nil {
		return DocURL(doc.DocumentId), fmt.Errorf("report: created document but failed to add content: %w", err)
	}

	e.logger.Info("report exported to google docs", "document_id", doc.DocumentId, "report_id", r.ID)
	return DocURL(doc.DocumentId), nil
}

// DocURL returns the edit URL of a document.
func DocURL(id string) string {
	return fmt.Sprintf("https://docs.google.com/document/d/%s/edit", id)
}

// oauthContext makes the oauth2 package use the shared HTTP client.
func (e *DocsExporter) oauthContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, httpc.Client)
}

func (e *DocsExporter) connect(ctx context.Context, tok *oauth2.Token) error {
	client := e.config.Client(e.oauthContext(context.WithoutCancel(ctx)), tok)
	svc, err := docs.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return fmt.Errorf("report: create docs service: %w", err)
	}

	e.mu.Lock()
	e.token = tok
	e.service = svc
	e.mu.Unlock()
	return nil
}

func (e *DocsExporter) loadToken() (*oauth2.Token, error) {
	data, err := os.ReadFile(e.tokenPath)
	if err != nil {
		return nil, err
	}
	var tok oauth2.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, err
	}
	return &tok, nil
}

func (e *DocsExporter) saveToken(tok *oauth2.Token) error {
	if err := os.MkdirAll(filepath.Dir(e.tokenPath), 0o700); err != nil {
		return err
	}
	data, err := json.MarshalIndent(tok, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(e.tokenPath, data, 0o600)
}

var _ Exporter = (*DocsExporter)(nil)
