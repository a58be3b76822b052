package screening

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"golang.org/x/sync/errgroup"

	"github.com/robert-malhotra/landsat-lst/internal/imagery"
	"github.com/robert-malhotra/landsat-lst/internal/join"
	"github.com/robert-malhotra/landsat-lst/pkg/geojson"
)

const (
	// DefaultThreshold is the highest region-mean cloud score a clear scene may have.
	DefaultThreshold = 10.0

	defaultConcurrency = 4
)

// Result is the outcome of screening a collection.
type Result struct {
	// Clear holds the surviving scenes with their cloud score attached, in
	// input order.
	Clear []imagery.Scene

	// Dates is the set of calendar days of the surviving scenes.
	Dates *join.DateSet

	// Scored counts every scene examined. Undefined counts scenes whose
	// score could not be computed.
	Scored    int
	Undefined int
}

// Screener attaches a region-mean cloud score to every scene and keeps the
// scenes at or below a threshold.
type Screener struct {
	estimator   Estimator
	region      *geojson.Geometry
	scale       float64
	threshold   float64
	concurrency int
	logger      *slog.Logger
}

// NewScreener creates a screener that averages cloud scores over region at
// scale metres.
func NewScreener(estimator Estimator, region *geojson.Geometry, scale float64) *Screener {
	return &Screener{
		estimator:   estimator,
		region:      region,
		scale:       scale,
		threshold:   DefaultThreshold,
		concurrency: defaultConcurrency,
		logger:      slog.Default(),
	}
}

// WithThreshold sets the maximum accepted cloud score.
func (s *Screener) WithThreshold(threshold float64) *Screener {
	s.threshold = threshold
	return s
}

// WithConcurrency bounds the number of scenes scored at once.
func (s *Screener) WithConcurrency(n int) *Screener {
	if n > 0 {
		s.concurrency = n
	}
	return s
}

// WithLogger sets a custom logger for the screener
func (s *Screener) WithLogger(logger *slog.Logger) *Screener {
	s.logger = logger
	return s
}

// Score computes the region-mean cloud score of one scene. NaN means no
// valid pixel fell inside the region.
func (s *Screener) Score(scene imagery.Scene) (float64, error) {
	raster, err := s.estimator.Estimate(scene)
	if err != nil {
		return math.NaN(), err
	}
	return ReduceMean(raster, scene.Grid, s.region, s.scale)
}

// Screen scores every scene of coll and returns the clear ones together
// with their calendar days. Scores are computed concurrently but the result
// follows input order.
func (s *Screener) Screen(ctx context.Context, coll imagery.Collection) (*Result, error) {
	scenes, err := coll.Collect(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load scenes for screening: %w", err)
	}

	scores := make([]float64, len(scenes))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, scene := range scenes {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			score, err := s.Score(scene)
			if err != nil {
				return fmt.Errorf("failed to score scene %s: %w", scene.ID, err)
			}
			scores[i] = score
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	res := &Result{Dates: join.NewDateSet(), Scored: len(scenes)}
	for i, scene := range scenes {
		scene = scene.WithCloudiness(scores[i])
		switch {
		case !scene.Meta.CloudinessValid:
			res.Undefined++
			s.logger.DebugContext(ctx, "excluding scene with undefined cloud score",
				slog.String("scene", scene.ID),
			)
		case scene.Meta.Cloudiness <= s.threshold:
			key := join.DateKey(scene.Time)
			res.Clear = append(res.Clear, scene.WithDateKey(key))
			res.Dates.Add(key)
		default:
			s.logger.DebugContext(ctx, "excluding cloudy scene",
				slog.String("scene", scene.ID),
				slog.Float64("cloud", scene.Meta.Cloudiness),
			)
		}
	}

	s.logger.InfoContext(ctx, "cloud screening completed",
		slog.Int("scored", res.Scored),
		slog.Int("clear", len(res.Clear)),
		slog.Int("undefined", res.Undefined),
		slog.Int("dates", res.Dates.Len()),
	)

	return res, nil
}
