package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/robert-malhotra/landsat-lst/internal/config"
	"github.com/robert-malhotra/landsat-lst/internal/spatial"
)

func runSpatial(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("spatial", flag.ContinueOnError)
	in := fs.String("in", "", "exported table CSV (required)")
	index := fs.String("index", "CELSIUS", "index column to extract")
	date := fs.String("date", "", "date to extract, YYYY-MM-DD")
	interval := fs.String("interval", string(spatial.Daily), "daily or monthly")
	out := fs.String("out", "", "output CSV (default stdout)")
	jobFile := fs.String("job", "", "job definition providing the tower coordinate")
	towerLon := fs.Float64("tower-lon", 0, "tower longitude (overrides the job)")
	towerLat := fs.Float64("tower-lat", 0, "tower latitude (overrides the job)")
	list := fs.Bool("list", false, "list the dates in the table and exit")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *in == "" {
		return fmt.Errorf("-in is required")
	}

	tower, err := resolveTower(fs, *jobFile, *towerLon, *towerLat)
	if err != nil {
		return err
	}

	f, err := os.Open(*in)
	if err != nil {
		return err
	}
	defer f.Close()

	ex, err := spatial.Load(f, tower)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", *in, err)
	}

	if *list {
		for _, d := range ex.Dates() {
			fmt.Fprintln(stdout, d)
		}
		return nil
	}

	iv, err := spatial.ParseInterval(*interval)
	if err != nil {
		return err
	}
	at, err := time.Parse(time.DateOnly, *date)
	if err != nil {
		return fmt.Errorf("-date: %w", err)
	}

	field, err := ex.Extract(*index, at, iv)
	if err != nil {
		return err
	}

	w := stdout
	if *out != "" {
		of, err := os.Create(*out)
		if err != nil {
			return err
		}
		defer of.Close()
		w = of
	}
	if err := spatial.WriteField(w, field); err != nil {
		return fmt.Errorf("failed to write field: %w", err)
	}
	return nil
}

// resolveTower takes the tower from the job and lets explicit flags
// override it.
func resolveTower(fs *flag.FlagSet, jobFile string, lon, lat float64) (spatial.Tower, error) {
	job, err := config.LoadJob(jobFile)
	if err != nil {
		return spatial.Tower{}, err
	}
	var tower spatial.Tower
	if len(job.Spatial.Tower) == 2 {
		tower = spatial.Tower{Lon: job.Spatial.Tower[0], Lat: job.Spatial.Tower[1]}
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "tower-lon":
			tower.Lon = lon
		case "tower-lat":
			tower.Lat = lat
		}
	})
	return tower, nil
}
