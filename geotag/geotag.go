// Package geotag derives GPS coordinates from photo EXIF metadata.
package geotag

import (
	"io"

	"github.com/rwcarlsen/goexif/exif"
)

// Coordinates is a decoded EXIF GPS position in decimal degrees.
type Coordinates struct {
	Latitude  float64
	Longitude float64
}

// Extract reads EXIF metadata from an image and returns its GPS position.
// Photos without EXIF data, or with EXIF data that carries no GPS tags,
// yield (nil, nil): missing location is not an error.
func Extract(content io.Reader) (*Coordinates, error) {
	meta, err := exif.Decode(content)
	if err != nil {
		return nil, nil
	}

	lat, lng, err := meta.LatLong()
	if err != nil {
		return nil, nil
	}

	return &Coordinates{Latitude: lat, Longitude: lng}, nil
}
