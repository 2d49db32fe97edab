package rounds

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/robalobadob/charades/internal/daily"
	"github.com/robalobadob/charades/internal/game"
)

// EmbeddingDims is the vector length produced by the default model.
const EmbeddingDims = 384

// ImagesPerRound is the number of generated images for a round.
const ImagesPerRound = 5

// ImageKeys returns the bucket keys of a round's images in reveal order.
func ImageKeys(id string) []string {
	keys := []string{fmt.Sprintf("images/%s.jpg", id)}
	for i := 1; i < ImagesPerRound; i++ {
		keys = append(keys, fmt.Sprintf("images/%s-%d.jpg", id, i))
	}
	return keys
}

// AssetKeys returns every bucket key a round depends on.
func AssetKeys(r game.Round) []string {
	return append(ImageKeys(r.ID), PreviewKey(r.Index))
}

// PreviewKey is the social preview image for a round index.
func PreviewKey(index int) string {
	return fmt.Sprintf("previews/%d-preview.jpg", index)
}

// Report is the check outcome for one day.
type Report struct {
	DateID   string   `json:"dateId"`
	Index    int      `json:"index"`
	Problems []string `json:"problems,omitempty"`
}

// OK reports whether the day passed every check.
func (r Report) OK() bool { return len(r.Problems) == 0 }

// Check validates the rounds for today and the following days-1 days:
// each must exist with a positive index, an answer, a full embedding, and
// all image objects. lister may be nil to skip the bucket checks.
func Check(ctx context.Context, src Source, lister ObjectLister, now time.Time, rollover time.Duration, days int) ([]Report, error) {
	today := daily.DateKey(now, rollover)
	reports := make([]Report, days)

	var objects map[string]struct{}
	g, gctx := errgroup.WithContext(ctx)
	if lister != nil {
		g.Go(func() error {
			images, err := lister.Keys(gctx, "images/")
			if err != nil {
				return err
			}
			previews, err := lister.Keys(gctx, "previews/")
			if err != nil {
				return err
			}
			for k := range previews {
				images[k] = struct{}{}
			}
			objects = images
			return nil
		})
	}
	rounds := make([]*game.Round, days)
	for i := 0; i < days; i++ {
		g.Go(func() error {
			key, err := daily.AddDays(today, i)
			if err != nil {
				return err
			}
			reports[i].DateID = key
			r, err := src.ByDate(gctx, key)
			if errors.Is(err, ErrNotFound) {
				return nil
			}
			if err != nil {
				return fmt.Errorf("load %s: %w", key, err)
			}
			rounds[i] = &r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for i, r := range rounds {
		rep := &reports[i]
		if r == nil {
			rep.Problems = append(rep.Problems, "no round")
			continue
		}
		rep.Index = r.Index
		if r.ID == "" {
			rep.Problems = append(rep.Problems, "missing id")
		}
		if r.Index <= 0 {
			rep.Problems = append(rep.Problems, "index must be positive")
		}
		if r.Answer == "" {
			rep.Problems = append(rep.Problems, "empty answer")
		}
		if len(r.Embedding) != EmbeddingDims {
			rep.Problems = append(rep.Problems, fmt.Sprintf("embedding has %d values, want %d", len(r.Embedding), EmbeddingDims))
		}
		if objects != nil {
			for _, k := range AssetKeys(*r) {
				if _, ok := objects[k]; !ok {
					rep.Problems = append(rep.Problems, "missing object "+k)
				}
			}
		}
	}
	return reports, nil
}
