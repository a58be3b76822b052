package main

import (
	"fmt"

	"github.com/robert-malhotra/landsat-lst/internal/config"
	"github.com/robert-malhotra/landsat-lst/internal/pipeline"
)

// paramsFromJob resolves the job's catalog IDs or aliases against the
// registry and builds the pipeline parameters.
func paramsFromJob(job *config.Job, collections *config.CollectionRegistry) (pipeline.Params, error) {
	start, end, err := job.Interval()
	if err != nil {
		return pipeline.Params{}, err
	}
	region, err := job.RegionGeometry()
	if err != nil {
		return pipeline.Params{}, fmt.Errorf("region: %w", err)
	}

	sr := collections.Get(job.Catalogs.SR)
	if sr == nil {
		return pipeline.Params{}, fmt.Errorf("unknown SR catalog %q", job.Catalogs.SR)
	}
	toa := collections.Get(job.Catalogs.TOA)
	if toa == nil {
		return pipeline.Params{}, fmt.Errorf("unknown TOA catalog %q", job.Catalogs.TOA)
	}

	points := make([]pipeline.Point, len(job.Points))
	for i, p := range job.Points {
		points[i] = pipeline.Point{Name: p.Name, Location: p.Geometry()}
	}

	params := pipeline.Params{
		Satellite:      job.Satellite,
		Start:          start,
		End:            end,
		UseNDVI:        job.UseNDVI,
		Region:         region,
		Points:         points,
		CloudThreshold: job.CloudThreshold,
		Scale:          job.Scale,
		Vars:           job.Vars,
		SRCatalog:      sr.ID,
		TOACatalog:     toa.ID,
		Platform:       sr.Platform,
		Folder:         job.Export.Folder,
		Description:    job.Export.Description,
	}
	if job.Series.Enabled {
		params.SeriesBand = job.Series.Band
	}
	return params, nil
}
