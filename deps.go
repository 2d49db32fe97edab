package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/charades/internal/accounts"
	"github.com/robalobadob/charades/internal/analytics"
	"github.com/robalobadob/charades/internal/config"
	"github.com/robalobadob/charades/internal/daily"
	"github.com/robalobadob/charades/internal/database"
	"github.com/robalobadob/charades/internal/embedding"
	"github.com/robalobadob/charades/internal/play"
	"github.com/robalobadob/charades/internal/rounds"
	"github.com/robalobadob/charades/internal/store"
	"github.com/robalobadob/charades/internal/words"
)

// app holds the wired services for one command run.
type app struct {
	cfg      *config.Config
	db       *database.DB
	rounds   rounds.Source
	results  *daily.Store
	accounts *accounts.Service
	play     *play.Service
	ga       *analytics.GA4Sink
}

// openRounds connects the configured round source. The memory source is
// generated from launch through a week past today.
func openRounds(ctx context.Context, cfg *config.Config) (rounds.Source, error) {
	if cfg.ContentSource == "mongo" {
		m, err := rounds.DialMongo(ctx, rounds.MongoConfig{
			URL:        cfg.MongoURL,
			Database:   cfg.MongoDatabase,
			Collection: cfg.MongoCollection,
		})
		if err != nil {
			return nil, err
		}
		return m, nil
	}
	wl, err := words.Load(words.Sources{AnswersFile: cfg.AnswersFile, AllowedFile: cfg.AllowedFile, PromptsFile: cfg.PromptsFile})
	if err != nil {
		return nil, err
	}
	launch, err := cfg.Launch()
	if err != nil {
		return nil, err
	}
	until, err := daily.AddDays(daily.DateKey(time.Now(), cfg.Rollover()), 7)
	if err != nil {
		return nil, err
	}
	list := wl.Prompts()
	if cfg.Variant == string(play.VariantExact) {
		list = wl.Answers()
	}
	rs, err := rounds.Generate(launch, until, cfg.DailySalt, list)
	if err != nil {
		return nil, err
	}
	log.Info().Int("rounds", len(rs)).Str("until", until).Msg("generated in-memory rounds")
	return rounds.NewMemory(rs...), nil
}

func newEmbedder(ctx context.Context, cfg *config.Config) (embedding.Engine, error) {
	return embedding.NewEngine(ctx, embedding.Config{
		Provider:       cfg.EmbedProvider,
		OllamaEndpoint: cfg.OllamaEndpoint,
		OllamaModel:    cfg.OllamaModel,
		GenAIAPIKey:    cfg.GenAIAPIKey,
		GenAIModel:     cfg.GenAIModel,
	})
}

// newApp opens the database, runs migrations, and builds the play service.
func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	db, err := database.Open(ctx, database.Config{Type: cfg.DBType, Path: cfg.DBPath, URL: cfg.DatabaseURL})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	a := &app{
		cfg:      cfg,
		db:       db,
		results:  daily.NewStore(db),
		accounts: accounts.NewService(db, cfg.JWTSecret, cfg.JWTTTL()),
	}

	a.rounds, err = openRounds(ctx, cfg)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("open rounds: %w", err)
	}

	variant, err := play.ParseVariant(cfg.Variant)
	if err != nil {
		a.Close(ctx)
		return nil, err
	}
	deps := play.Deps{
		Rounds:    a.rounds,
		Store:     store.NewSQLStore(db),
		Analytics: a.analytics(),
		Results:   a.results,
	}
	if variant == play.VariantExact {
		if deps.Words, err = words.Load(words.Sources{AnswersFile: cfg.AnswersFile, AllowedFile: cfg.AllowedFile, PromptsFile: cfg.PromptsFile}); err != nil {
			a.Close(ctx)
			return nil, err
		}
	} else {
		if deps.Embedder, err = newEmbedder(ctx, cfg); err != nil {
			a.Close(ctx)
			return nil, err
		}
	}
	a.play, err = play.New(play.Config{
		Variant:      variant,
		MaxGuesses:   cfg.MaxGuesses,
		Rollover:     cfg.Rollover(),
		ImageBaseURL: cfg.ImageBaseURL,
		SiteURL:      cfg.SiteURL,
	}, deps)
	if err != nil {
		a.Close(ctx)
		return nil, err
	}
	return a, nil
}

// analytics sends to GA4 in production when credentials are present and
// logs events otherwise.
func (a *app) analytics() analytics.Sink {
	if !a.cfg.Production() || a.cfg.GAMeasurementID == "" {
		return analytics.LogSink{}
	}
	ga, err := analytics.NewGA4Sink("", a.cfg.GAMeasurementID, a.cfg.GAAPISecret)
	if err != nil {
		log.Warn().Err(err).Msg("analytics disabled")
		return analytics.LogSink{}
	}
	a.ga = ga
	return analytics.Multi{analytics.LogSink{}, ga}
}

// Close flushes analytics and releases connections.
func (a *app) Close(ctx context.Context) {
	if a.ga != nil {
		a.ga.Flush()
	}
	var errs []error
	if a.rounds != nil {
		errs = append(errs, a.rounds.Close(ctx))
	}
	if a.db != nil {
		errs = append(errs, a.db.Close())
	}
	if err := errors.Join(errs...); err != nil {
		log.Warn().Err(err).Msg("shutdown")
	}
}
