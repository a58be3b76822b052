// Package pipeline runs the surface temperature export: temperature
// retrieval on the SR catalog, cloud screening on the TOA catalog, the date
// join of both, region sampling and CSV export.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/robert-malhotra/landsat-lst/internal/catalog"
	"github.com/robert-malhotra/landsat-lst/internal/export"
	"github.com/robert-malhotra/landsat-lst/internal/imagery"
	"github.com/robert-malhotra/landsat-lst/internal/join"
	"github.com/robert-malhotra/landsat-lst/internal/lst"
	"github.com/robert-malhotra/landsat-lst/internal/metrics"
	"github.com/robert-malhotra/landsat-lst/internal/sampling"
	"github.com/robert-malhotra/landsat-lst/internal/screening"
	"github.com/robert-malhotra/landsat-lst/pkg/geojson"
)

// ErrInvalidParams is returned when Run is called with incomplete parameters.
var ErrInvalidParams = errors.New("invalid pipeline parameters")

// Point is a named sample location for the point series exports.
type Point struct {
	Name     string
	Location *geojson.Geometry
}

// Params configures one run.
type Params struct {
	Satellite string
	Start     time.Time
	End       time.Time
	UseNDVI   bool

	Region *geojson.Geometry
	Points []Point

	CloudThreshold float64
	Scale          float64
	Vars           []string

	SRCatalog  string
	TOACatalog string
	Platform   string

	Folder      string
	Description string

	// SeriesBand selects the band exported per sample point. Empty disables
	// the point series.
	SeriesBand string
}

func (p Params) validate() error {
	switch {
	case p.Region == nil:
		return fmt.Errorf("%w: region is required", ErrInvalidParams)
	case len(p.Vars) == 0:
		return fmt.Errorf("%w: at least one output variable is required", ErrInvalidParams)
	case p.Scale <= 0:
		return fmt.Errorf("%w: scale must be positive", ErrInvalidParams)
	case p.SRCatalog == "" || p.TOACatalog == "":
		return fmt.Errorf("%w: SR and TOA catalogs are required", ErrInvalidParams)
	case p.Folder == "" || p.Description == "":
		return fmt.Errorf("%w: export folder and description are required", ErrInvalidParams)
	}
	for i, pt := range p.Points {
		if pt.Name == "" || pt.Location == nil {
			return fmt.Errorf("%w: sample point %d needs a name and location", ErrInvalidParams, i)
		}
	}
	return nil
}

// Summary reports what a run produced.
type Summary struct {
	RunID string

	// Dates are the cloud-free calendar days, sorted.
	Dates  []string
	Header []string

	Queried int
	Clear   int
	Joined  int
	Rows    int

	// Series maps each sample point name to its number of observations.
	Series map[string]int
}

// Pipeline wires a scene source, a temperature retriever and an export sink.
type Pipeline struct {
	source      catalog.Source
	retriever   lst.Retriever
	sink        export.Sink
	metrics     *metrics.Manager
	concurrency int
	logger      *slog.Logger
}

// New creates a pipeline reading from source and writing to sink. The
// mono-window retriever is used unless WithRetriever replaces it.
func New(source catalog.Source, sink export.Sink) *Pipeline {
	return &Pipeline{
		source:      source,
		retriever:   lst.NewMonoWindow(),
		sink:        sink,
		concurrency: 4,
		logger:      slog.Default(),
	}
}

// WithRetriever sets the temperature retriever.
func (p *Pipeline) WithRetriever(r lst.Retriever) *Pipeline {
	p.retriever = r
	return p
}

// WithMetrics records run metrics on m.
func (p *Pipeline) WithMetrics(m *metrics.Manager) *Pipeline {
	p.metrics = m
	return p
}

// WithConcurrency bounds the number of scenes scored at once.
func (p *Pipeline) WithConcurrency(n int) *Pipeline {
	if n > 0 {
		p.concurrency = n
	}
	return p
}

// WithLogger sets a custom logger for the pipeline
func (p *Pipeline) WithLogger(logger *slog.Logger) *Pipeline {
	p.logger = logger
	return p
}

// Run executes the export. Any stage error aborts the run; nothing is
// retried.
func (p *Pipeline) Run(ctx context.Context, params Params) (*Summary, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}

	sum := &Summary{RunID: uuid.NewString(), Series: make(map[string]int)}
	logger := p.logger.With(slog.String("run_id", sum.RunID))
	logger.InfoContext(ctx, "starting export run",
		slog.String("satellite", params.Satellite),
		slog.String("start", params.Start.Format(time.DateOnly)),
		slog.String("end", params.End.Format(time.DateOnly)),
		slog.String("sr_catalog", params.SRCatalog),
		slog.String("toa_catalog", params.TOACatalog),
	)

	err := p.run(ctx, logger, params, sum)
	p.metrics.RecordRun(err == nil)
	if err != nil {
		logger.ErrorContext(ctx, "export run failed", slog.String("error", err.Error()))
		return nil, err
	}

	logger.InfoContext(ctx, "export run completed",
		slog.Int("queried", sum.Queried),
		slog.Int("clear", sum.Clear),
		slog.Int("joined", sum.Joined),
		slog.Int("rows", sum.Rows),
	)
	return sum, nil
}

func (p *Pipeline) run(ctx context.Context, logger *slog.Logger, params Params, sum *Summary) error {
	var (
		temperature []imagery.Scene
		screened    *screening.Result
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer p.metrics.StartStage(metrics.StageRetrieve)()
		scenes, err := p.temperature(gctx, params)
		if err != nil {
			return err
		}
		temperature = scenes
		return nil
	})
	g.Go(func() error {
		defer p.metrics.StartStage(metrics.StageScreen)()
		res, err := p.screen(gctx, params)
		if err != nil {
			return err
		}
		screened = res
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}

	sum.Queried = len(temperature)
	sum.Clear = len(screened.Clear)
	sum.Dates = screened.Dates.Sorted()
	logger.InfoContext(ctx, "cloud-free dates", slog.Any("dates", sum.Dates))

	stop := p.metrics.StartStage(metrics.StageJoin)
	joined, err := join.Join(imagery.FromScenes(temperature), screened.Dates).Collect(ctx)
	stop()
	if err != nil {
		return fmt.Errorf("failed to join scenes: %w", err)
	}
	sum.Joined = len(joined)
	p.metrics.RecordJoined(sum.Joined)

	stop = p.metrics.StartStage(metrics.StageSample)
	selected := imagery.FromScenes(joined).Select(params.Vars...)
	table, err := sampling.GetRegion(ctx, selected, params.Region, params.Scale)
	if err != nil {
		stop()
		return fmt.Errorf("failed to sample region: %w", err)
	}
	records, err := sampling.Reconstruct(table, params.Vars, params.Region)
	stop()
	if err != nil {
		return fmt.Errorf("failed to reconstruct rows: %w", err)
	}
	sum.Header = sampling.Header(params.Vars)
	sum.Rows = len(records)
	logger.InfoContext(ctx, "export header", slog.String("header", strings.Join(sum.Header, ",")))

	stop = p.metrics.StartStage(metrics.StageExport)
	err = export.Table(ctx, p.sink, params.Folder, params.Description, params.Vars, records)
	stop()
	if err != nil {
		return err
	}
	p.metrics.RecordRowsExported("table", sum.Rows)

	if params.SeriesBand == "" {
		return nil
	}

	defer p.metrics.StartStage(metrics.StageSeries)()
	all := imagery.FromScenes(joined)
	for _, pt := range params.Points {
		series, err := sampling.PointSeries(ctx, all, pt.Location, params.SeriesBand, params.Scale)
		if err != nil {
			return fmt.Errorf("failed to build %s series for %s: %w", params.SeriesBand, pt.Name, err)
		}
		name := SeriesDescription(pt.Name, params.SeriesBand)
		if err := export.Series(ctx, p.sink, params.Folder, name, params.SeriesBand, series); err != nil {
			return err
		}
		sum.Series[pt.Name] = len(series)
		p.metrics.RecordRowsExported("series", len(series))
	}
	return nil
}

// temperature searches the SR catalog and derives LST and Celsius bands.
func (p *Pipeline) temperature(ctx context.Context, params Params) ([]imagery.Scene, error) {
	coll, err := p.source.Search(ctx, catalog.Query{
		Catalog:  params.SRCatalog,
		Geometry: params.Region,
		Start:    params.Start,
		End:      params.End,
		Platform: params.Platform,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search %s: %w", params.SRCatalog, err)
	}

	coll, err = p.retriever.Retrieve(ctx, lst.Request{
		Satellite: params.Satellite,
		Start:     params.Start,
		End:       params.End,
		Geometry:  params.Region,
		UseNDVI:   params.UseNDVI,
		Source:    coll.SortByTime(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to configure temperature retrieval: %w", err)
	}

	scenes, err := lst.ToCelsius(coll).Collect(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve temperature: %w", err)
	}
	p.metrics.RecordScenesQueried(params.SRCatalog, len(scenes))
	return scenes, nil
}

// screen searches the TOA catalog and keeps the cloud-free scenes.
func (p *Pipeline) screen(ctx context.Context, params Params) (*screening.Result, error) {
	estimator, err := screening.NewSimpleCloudScore(params.Satellite)
	if err != nil {
		return nil, err
	}

	coll, err := p.source.Search(ctx, catalog.Query{
		Catalog:  params.TOACatalog,
		Geometry: params.Region,
		Start:    params.Start,
		End:      params.End,
		Platform: params.Platform,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search %s: %w", params.TOACatalog, err)
	}

	res, err := screening.NewScreener(estimator, params.Region, params.Scale).
		WithThreshold(params.CloudThreshold).
		WithConcurrency(p.concurrency).
		WithLogger(p.logger).
		Screen(ctx, coll.SortByTime())
	if err != nil {
		return nil, err
	}
	p.metrics.RecordScenesQueried(params.TOACatalog, res.Scored)
	p.metrics.RecordScreening(res.Scored, len(res.Clear), res.Undefined)
	return res, nil
}

// SeriesDescription names the point series export of a sample point.
func SeriesDescription(point, band string) string {
	return point + "_" + strings.ToLower(band) + "_series"
}
