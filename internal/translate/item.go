package translate

import (
	"fmt"
	"strings"

	"github.com/robert-malhotra/landsat-lst/internal/config"
	"github.com/robert-malhotra/landsat-lst/internal/imagery"
	"github.com/robert-malhotra/landsat-lst/internal/stac"
)

// SceneToItem converts a datacube scene to a STAC Item of collection coll.
// The pixel data itself is served by the item's bands asset.
func SceneToItem(scene imagery.Scene, coll *config.CollectionConfig, baseURL, stacVersion string) (*stac.Item, error) {
	if scene.ID == "" {
		return nil, fmt.Errorf("scene has no ID")
	}

	item := stac.NewItem(scene.ID, coll.ID, stacVersion)

	geom, bbox, err := GridFootprint(scene.Grid)
	if err != nil {
		return nil, fmt.Errorf("scene %s: %w", scene.ID, err)
	}
	item.Geometry = geom
	item.Bbox = bbox

	props := item.Properties
	props["datetime"] = FormatSTACTime(scene.Time)

	platform := scene.Meta.Platform
	if platform == "" {
		platform = coll.Platform
	}
	if platform != "" {
		props["platform"] = strings.ToLower(platform)
		props["constellation"] = "landsat"
		if inst := instruments(platform); inst != nil {
			props["instruments"] = inst
		}
	}

	props["gsd"] = scene.Grid.Resolution
	props["proj:shape"] = []int{scene.Grid.Rows(), scene.Grid.Cols()}
	props["landsat:product"] = coll.Product
	if scene.Meta.CloudinessValid {
		props["eo:cloud_cover"] = scene.Meta.Cloudiness
	}

	bandsHref := fmt.Sprintf("%s/collections/%s/items/%s/bands", baseURL, coll.ID, scene.ID)
	item.Assets[stac.AssetBands] = &stac.Asset{
		Href:  bandsHref,
		Title: "Band rasters",
		Type:  stac.MediaTypeJSON,
		Roles: []string{stac.RoleData},
	}

	item.Links = append(item.Links,
		&stac.Link{Rel: "self", Href: fmt.Sprintf("%s/collections/%s/items/%s", baseURL, coll.ID, scene.ID), Type: stac.MediaTypeGeoJSON},
		&stac.Link{Rel: "parent", Href: fmt.Sprintf("%s/collections/%s", baseURL, coll.ID), Type: stac.MediaTypeJSON},
		&stac.Link{Rel: "collection", Href: fmt.Sprintf("%s/collections/%s", baseURL, coll.ID), Type: stac.MediaTypeJSON},
		&stac.Link{Rel: "root", Href: baseURL + "/", Type: stac.MediaTypeJSON},
	)

	return item, nil
}

// instruments returns the sensors carried by a Landsat platform.
func instruments(platform string) []string {
	switch strings.ToLower(platform) {
	case "landsat-8":
		return []string{"oli", "tirs"}
	case "landsat-7":
		return []string{"etm+"}
	case "landsat-4", "landsat-5":
		return []string{"tm"}
	default:
		return nil
	}
}
