package translate

import (
	"fmt"

	"github.com/robert-malhotra/landsat-lst/internal/config"
	"github.com/robert-malhotra/landsat-lst/internal/stac"
)

// CollectionToSTAC converts a catalog definition to a STAC Collection.
func CollectionToSTAC(cfg *config.CollectionConfig, baseURL, stacVersion string) *stac.Collection {
	collection := stac.NewCollection(cfg.ID, cfg.Title, cfg.Description, stacVersion)
	collection.License = cfg.License

	if len(cfg.Providers) > 0 {
		collection.Providers = make([]*stac.Provider, len(cfg.Providers))
		for i, p := range cfg.Providers {
			collection.Providers[i] = &stac.Provider{
				Name:        p.Name,
				Description: p.Description,
				Roles:       p.Roles,
				Url:         p.URL,
			}
		}
	}

	collection.Extent = &stac.Extent{
		Spatial:  &stac.SpatialExtent{Bbox: cfg.Extent.Spatial.BBox},
		Temporal: &stac.TemporalExtent{Interval: cfg.Extent.Temporal.Interval},
	}

	for k, v := range cfg.Summaries {
		collection.Summaries[k] = v
	}
	if cfg.Platform != "" {
		collection.Summaries["platform"] = []string{cfg.Platform}
	}
	if len(cfg.Bands) > 0 {
		collection.Summaries["bands"] = cfg.Bands
	}

	collection.Links = append(collection.Links,
		&stac.Link{Rel: "self", Href: fmt.Sprintf("%s/collections/%s", baseURL, cfg.ID), Type: stac.MediaTypeJSON},
		&stac.Link{Rel: "root", Href: baseURL + "/", Type: stac.MediaTypeJSON},
		&stac.Link{Rel: "parent", Href: baseURL + "/", Type: stac.MediaTypeJSON},
		&stac.Link{Rel: "items", Href: fmt.Sprintf("%s/collections/%s/items", baseURL, cfg.ID), Type: stac.MediaTypeGeoJSON, Title: "Items"},
	)

	return collection
}
