package translator

import (
	"context"
	"fmt"
	"html"

	translate "cloud.google.com/go/translate"
	"golang.org/x/text/language"
	"google.golang.org/api/option"
)

// GoogleService translates through Google Cloud Translation. It has no
// decode knobs, so every retry variant sends the same request.
type GoogleService struct {
	name   string
	client *translate.Client
}

// NewGoogleService opens a Cloud Translation client with the credentials
// file from cfg, or application default credentials when empty.
func NewGoogleService(ctx context.Context, cfg ServiceConfig) (*GoogleService, error) {
	opts := []option.ClientOption{}
	if cfg.Credentials != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.Credentials))
	}
	if cfg.APIKey != "" {
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	}

	client, err := translate.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create google client: %w", err)
	}

	name := cfg.Name
	if name == "" {
		name = "google"
	}
	return &GoogleService{name: name, client: client}, nil
}

func (s *GoogleService) Name() string {
	return s.name
}

func (s *GoogleService) Translate(ctx context.Context, text, sourceLang, targetLang string, _ GenerationParams) (string, error) {
	target, err := language.Parse(targetLang)
	if err != nil {
		return "", fmt.Errorf("invalid target language %q: %w", targetLang, err)
	}

	opts := &translate.Options{Format: translate.Text}
	if sourceLang != "" && sourceLang != "auto" {
		source, err := language.Parse(sourceLang)
		if err != nil {
			return "", fmt.Errorf("invalid source language %q: %w", sourceLang, err)
		}
		opts.Source = source
	}

	translations, err := s.client.Translate(ctx, []string{text}, target, opts)
	if err != nil {
		return "", fmt.Errorf("translation failed: %w", err)
	}
	if len(translations) == 0 || translations[0].Text == "" {
		return "", ErrEmptyOutput
	}
	return html.UnescapeString(translations[0].Text), nil
}

// Close releases the underlying client.
func (s *GoogleService) Close() error {
	return s.client.Close()
}
