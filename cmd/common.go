/*
Copyright © 2025 Valentyn Solomko <valentyn.solomko@gmail.com>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/rs/zerolog/log"

	"github.com/valpere/termshield/internal/cache"
	"github.com/valpere/termshield/internal/config"
	"github.com/valpere/termshield/internal/detector"
	"github.com/valpere/termshield/internal/names"
	"github.com/valpere/termshield/internal/orchestrator"
	"github.com/valpere/termshield/internal/placeholder"
	"github.com/valpere/termshield/internal/retry"
	"github.com/valpere/termshield/internal/similarity"
	"github.com/valpere/termshield/internal/store"
	"github.com/valpere/termshield/internal/terminology"
	"github.com/valpere/termshield/internal/translator"
	"github.com/valpere/termshield/internal/validator"
)

// buildBackends constructs the configured backends in order. The returned
// cleanup releases clients that hold connections.
func buildBackends(ctx context.Context, cfgs []translator.ServiceConfig, only []string) ([]translator.TranslationBackend, func(), error) {
	var (
		list    []translator.TranslationBackend
		closers []func() error
	)
	cleanup := func() {
		for _, c := range closers {
			if err := c(); err != nil {
				log.Warn().Err(err).Msg("failed to close backend")
			}
		}
	}

	for _, sc := range cfgs {
		if sc.Name == "" {
			sc.Name = sc.Kind
		}
		if len(only) > 0 && !slices.Contains(only, sc.Name) {
			continue
		}

		var b translator.TranslationBackend
		switch sc.Kind {
		case config.KindOllama:
			b = translator.NewOllamaService(sc)
		case config.KindOpenAI:
			s, err := translator.NewOpenAIService(sc)
			if err != nil {
				cleanup()
				return nil, nil, fmt.Errorf("backend %s: %w", sc.Name, err)
			}
			b = s
		case config.KindGoogle:
			s, err := translator.NewGoogleService(ctx, sc)
			if err != nil {
				cleanup()
				return nil, nil, fmt.Errorf("backend %s: %w", sc.Name, err)
			}
			closers = append(closers, s.Close)
			b = s
		case config.KindIdentity:
			b = translator.IdentityService{}
		default:
			log.Warn().Str("backend", sc.Name).Str("kind", sc.Kind).Msg("unknown backend kind, skipping")
			continue
		}

		if p, ok := b.(translator.Prober); ok {
			if err := p.IsAvailable(ctx); err != nil {
				log.Warn().Err(err).Str("backend", sc.Name).Msg("backend not reachable")
			}
		}
		list = append(list, b)
	}

	if len(list) == 0 {
		cleanup()
		return nil, nil, errors.New("no valid backends configured")
	}
	return list, cleanup, nil
}

// loadCatalog reads the configured catalog. No catalog path means an empty
// catalog, which protects nothing.
func loadCatalog(c *config.Config) (*terminology.Catalog, error) {
	if c.CatalogPath == "" {
		return terminology.New(nil).WithNativeLanguage(c.CatalogLanguage), nil
	}
	cat, err := terminology.Load(c.CatalogPath)
	if err != nil {
		return nil, err
	}
	log.Debug().Str("path", c.CatalogPath).Int("terms", cat.Len()).Msg("catalog loaded")
	return cat.WithNativeLanguage(c.CatalogLanguage), nil
}

func buildCodec(c *config.Config) (*placeholder.Codec, error) {
	cat, err := loadCatalog(c)
	if err != nil {
		return nil, err
	}
	var opts []placeholder.Option
	if c.DetectNames {
		opts = append(opts, placeholder.WithNameFinder(names.New()))
	}
	return placeholder.New(cat, opts...), nil
}

func buildCache(c *config.Config) cache.Cache[orchestrator.Result] {
	switch c.Cache.Kind {
	case "redis":
		return cache.NewRedis[orchestrator.Result](c.Cache.RedisConfig)
	case "none":
		return cache.Nop[orchestrator.Result]{}
	default:
		return cache.NewMemory[orchestrator.Result]()
	}
}

// buildEngine wires the ensemble from the configuration.
func buildEngine(ctx context.Context, c *config.Config, only []string) (*orchestrator.Orchestrator, func(), error) {
	codec, err := buildCodec(c)
	if err != nil {
		return nil, nil, err
	}

	backends, cleanup, err := buildBackends(ctx, c.Backends, only)
	if err != nil {
		return nil, nil, err
	}

	var vopts []validator.Option
	if c.ValidateLanguage {
		vopts = append(vopts, validator.WithLanguageCheck(detector.New()))
	}
	val := validator.New(vopts...)

	opts := []orchestrator.Option{
		orchestrator.WithValidator(val),
		orchestrator.WithRetry(retry.New(val, retry.WithSingleAttempt(c.SingleAttempt))),
		orchestrator.WithCache(buildCache(c)),
		orchestrator.WithFindReplace(c.UseFindReplace),
	}
	if c.Embedder.Kind == "openai" {
		emb, err := similarity.NewOpenAIEmbedder(c.Embedder)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("embedder: %w", err)
		}
		opts = append(opts, orchestrator.WithEmbedder(emb))
	}

	return orchestrator.New(backends, codec, opts...), cleanup, nil
}

// openStore opens the configured database, or returns nil when none is set.
func openStore(c *config.Config) (*store.Store, error) {
	if c.StorePath == "" {
		return nil, nil
	}
	db, err := store.New(c.StorePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

func requireStore(c *config.Config) (*store.Store, error) {
	if c.StorePath == "" {
		return nil, errors.New("no database configured: set store_path or pass --store")
	}
	return openStore(c)
}
