package lst

import "fmt"

// Supported satellites.
const (
	Landsat4 = "L4"
	Landsat5 = "L5"
	Landsat7 = "L7"
	Landsat8 = "L8"
)

// BandMap names the catalog bands that hold each spectral role.
type BandMap struct {
	Blue    string
	Green   string
	Red     string
	NIR     string
	SWIR1   string
	SWIR2   string
	Thermal string
}

var (
	tmBands = BandMap{
		Blue: "B1", Green: "B2", Red: "B3", NIR: "B4",
		SWIR1: "B5", SWIR2: "B7", Thermal: "B6",
	}
	oliBands = BandMap{
		Blue: "B2", Green: "B3", Red: "B4", NIR: "B5",
		SWIR1: "B6", SWIR2: "B7", Thermal: "B10",
	}
)

// effective thermal wavelength in micrometres
var wavelengths = map[string]float64{
	Landsat4: 11.435,
	Landsat5: 11.435,
	Landsat7: 11.45,
	Landsat8: 10.895,
}

// Bands returns the band names used by satellite.
func Bands(satellite string) (BandMap, error) {
	switch satellite {
	case Landsat4, Landsat5, Landsat7:
		return tmBands, nil
	case Landsat8:
		return oliBands, nil
	default:
		return BandMap{}, fmt.Errorf("%w: %q", ErrUnknownSatellite, satellite)
	}
}

// Wavelength returns the effective thermal band wavelength of satellite in µm.
func Wavelength(satellite string) (float64, error) {
	w, ok := wavelengths[satellite]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownSatellite, satellite)
	}
	return w, nil
}
