package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/robalobadob/charades/internal/config"
	"github.com/robalobadob/charades/internal/embedding"
	"github.com/robalobadob/charades/internal/game"
	"github.com/robalobadob/charades/internal/rounds"
)

func newRoundsCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rounds",
		Short: "Round content maintenance (check, cleanup, embed)",
	}
	cmd.AddCommand(newRoundsCheckCmd(cfg), newRoundsCleanupCmd(cfg), newRoundsEmbedCmd(cfg))
	return cmd
}

// withRounds opens the round source for the duration of fn.
func withRounds(ctx context.Context, cfg *config.Config, fn func(rounds.Source) error) error {
	src, err := openRounds(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := src.Close(context.Background()); err != nil {
			log.Warn().Err(err).Msg("close rounds")
		}
	}()
	return fn(src)
}

func newRoundsCheckCmd(cfg *config.Config) *cobra.Command {
	var (
		days   int
		skipS3 bool
	)
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Validate today's and upcoming rounds and their images",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if days < 1 {
				return fmt.Errorf("--days must be positive: %d", days)
			}
			ctx := cmd.Context()
			var lister rounds.ObjectLister
			if !skipS3 {
				l, err := rounds.NewS3Lister(ctx, cfg.AWSRegion, cfg.S3Bucket)
				if err != nil {
					return err
				}
				lister = l
			}
			return withRounds(ctx, cfg, func(src rounds.Source) error {
				reports, err := rounds.Check(ctx, src, lister, time.Now(), cfg.Rollover(), days)
				if err != nil {
					return err
				}
				return printReports(cmd.OutOrStdout(), reports)
			})
		},
	}
	cmd.Flags().IntVar(&days, "days", 7, "number of days to check, starting today")
	cmd.Flags().BoolVar(&skipS3, "skip-s3", false, "skip the image bucket checks")
	return cmd
}

// printReports writes one line per day and fails when any day has problems.
func printReports(w io.Writer, reports []rounds.Report) error {
	failed := 0
	for _, r := range reports {
		if r.OK() {
			fmt.Fprintf(w, "✓ %s r%d\n", r.DateID, r.Index)
			continue
		}
		failed++
		fmt.Fprintf(w, "✗ %s r%d\n", r.DateID, r.Index)
		for _, p := range r.Problems {
			fmt.Fprintf(w, "    - %s\n", p)
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d days failed checks", failed, len(reports))
	}
	return nil
}

func newRoundsCleanupCmd(cfg *config.Config) *cobra.Command {
	var (
		from int
		live bool
	)
	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Delete rounds from tomorrow onward (dry-run unless --live)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return withRounds(ctx, cfg, func(src rounds.Source) error {
				return cleanup(ctx, cmd.OutOrStdout(), src, time.Now(), cfg.Rollover(), from, live)
			})
		},
	}
	cmd.Flags().IntVar(&from, "from", 0, "first index to delete (default: tomorrow's round)")
	cmd.Flags().BoolVar(&live, "live", false, "actually delete; otherwise only list")
	return cmd
}

func cleanup(ctx context.Context, w io.Writer, src rounds.Source, now time.Time, rollover time.Duration, from int, live bool) error {
	if from <= 0 {
		today, err := rounds.Today(ctx, src, now, rollover)
		if err != nil {
			return err
		}
		if rounds.IsHiatus(today) {
			return errors.New("no round today; pass --from explicitly")
		}
		from = today.Index + 1
	}
	latest, err := src.Latest(ctx)
	if errors.Is(err, rounds.ErrNotFound) {
		fmt.Fprintln(w, "no rounds")
		return nil
	}
	if err != nil {
		return err
	}
	doomed, err := src.Range(ctx, from, latest.Index)
	if err != nil {
		return err
	}
	for _, r := range doomed {
		if !live {
			fmt.Fprintf(w, "would delete r%d (%s)\n", r.Index, r.DateID)
			continue
		}
		if err := src.Delete(ctx, r.Index); err != nil {
			return fmt.Errorf("delete r%d: %w", r.Index, err)
		}
		fmt.Fprintf(w, "deleted r%d (%s)\n", r.Index, r.DateID)
	}
	if !live && len(doomed) > 0 {
		fmt.Fprintln(w, "dry run; pass --live to delete")
	}
	return nil
}

func newRoundsEmbedCmd(cfg *config.Config) *cobra.Command {
	var (
		force       bool
		concurrency int
	)
	cmd := &cobra.Command{
		Use:   "embed",
		Short: "Backfill missing answer embeddings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			engine, err := newEmbedder(ctx, cfg)
			if err != nil {
				return err
			}
			return withRounds(ctx, cfg, func(src rounds.Source) error {
				n, err := backfill(ctx, src, engine, force, concurrency)
				fmt.Fprintf(cmd.OutOrStdout(), "embedded %d rounds with %s\n", n, engine.Name())
				return err
			})
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "re-embed rounds that already have a vector")
	cmd.Flags().IntVar(&concurrency, "concurrency", 4, "parallel embedding requests")
	return cmd
}

// backfill embeds every round whose stored vector is missing or the wrong
// size, or all rounds when force is set.
func backfill(ctx context.Context, src rounds.Source, e embedding.Engine, force bool, concurrency int) (int, error) {
	latest, err := src.Latest(ctx)
	if errors.Is(err, rounds.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	all, err := src.Range(ctx, 1, latest.Index)
	if err != nil {
		return 0, err
	}
	var todo []game.Round
	for _, r := range all {
		if force || len(r.Embedding) != rounds.EmbeddingDims {
			todo = append(todo, r)
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(concurrency, 1))
	for _, r := range todo {
		g.Go(func() error {
			vec, err := e.Embed(gctx, r.Answer)
			if err != nil {
				return fmt.Errorf("embed r%d: %w", r.Index, err)
			}
			if len(vec) != rounds.EmbeddingDims {
				log.Warn().Int("round", r.Index).Int("dims", len(vec)).Msg("embedding size differs from stored rounds")
			}
			return src.SetEmbedding(gctx, r.Index, vec)
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}
	return len(todo), nil
}
