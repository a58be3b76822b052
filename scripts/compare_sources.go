// Script to compare the scenes a job sees through the local datacubes and
// through a running catalog server.
//
//	go run ./scripts -url http://localhost:8080 -job jobs/bb2.yaml
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/robert-malhotra/landsat-lst/internal/catalog"
	"github.com/robert-malhotra/landsat-lst/internal/config"
	"github.com/robert-malhotra/landsat-lst/internal/datacube"
	"github.com/robert-malhotra/landsat-lst/internal/stacclient"
)

func main() {
	stacURL := flag.String("url", "http://localhost:8080", "catalog server URL")
	jobFile := flag.String("job", "", "job definition YAML")
	dataDir := flag.String("data", "data", "datacube directory")
	catalogsDir := flag.String("catalogs", "catalogs", "catalog definitions directory")
	flag.Parse()

	if err := run(*stacURL, *jobFile, *dataDir, *catalogsDir); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(stacURL, jobFile, dataDir, catalogsDir string) error {
	job, err := config.LoadJob(jobFile)
	if err != nil {
		return err
	}
	collections, err := config.LoadCollections(catalogsDir)
	if err != nil {
		return err
	}
	start, end, err := job.Interval()
	if err != nil {
		return err
	}
	region, err := job.RegionGeometry()
	if err != nil {
		return err
	}

	local := datacube.NewSource(dataDir, datacube.CatalogsFromCollections(collections.All()))
	remote, err := stacclient.NewClient(stacURL, 60*time.Second)
	if err != nil {
		return err
	}

	fmt.Printf("=== Source comparison: job %s ===\n", job.Name)
	fmt.Printf("Date range: %s to %s\n\n", start.Format(time.DateOnly), end.Format(time.DateOnly))

	ctx := context.Background()
	mismatch := false
	for _, id := range []string{job.Catalogs.SR, job.Catalogs.TOA} {
		coll := collections.Get(id)
		if coll == nil {
			return fmt.Errorf("unknown catalog %q", id)
		}
		q := catalog.Query{Catalog: coll.ID, Geometry: region, Start: start, End: end, Platform: coll.Platform}

		localIDs, err := sceneIDs(ctx, local, q)
		if err != nil {
			return fmt.Errorf("datacube %s: %w", coll.ID, err)
		}
		remoteIDs, err := sceneIDs(ctx, remote, q)
		if err != nil {
			return fmt.Errorf("catalog server %s: %w", coll.ID, err)
		}

		fmt.Printf("%s\n  datacube: %d scenes\n  server:   %d scenes\n", coll.ID, len(localIDs), len(remoteIDs))
		onlyLocal, onlyRemote := diff(localIDs, remoteIDs), diff(remoteIDs, localIDs)
		if len(onlyLocal) == 0 && len(onlyRemote) == 0 {
			fmt.Println("  ✓ scenes match")
			continue
		}
		mismatch = true
		for _, s := range onlyLocal {
			fmt.Printf("  - only in datacube: %s\n", s)
		}
		for _, s := range onlyRemote {
			fmt.Printf("  + only on server:   %s\n", s)
		}
	}

	if mismatch {
		return fmt.Errorf("sources disagree")
	}
	return nil
}

func sceneIDs(ctx context.Context, src catalog.Source, q catalog.Query) ([]string, error) {
	coll, err := src.Search(ctx, q)
	if err != nil {
		return nil, err
	}
	var ids []string
	for s, err := range coll.All() {
		if err != nil {
			return nil, err
		}
		ids = append(ids, s.ID)
	}
	return ids, nil
}

func diff(a, b []string) []string {
	var out []string
	for _, s := range a {
		if !slices.Contains(b, s) {
			out = append(out, s)
		}
	}
	return out
}
