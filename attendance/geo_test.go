package attendance

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistanceMeters(t *testing.T) {
	office := Coordinate{Latitude: -6.200000, Longitude: 106.816600}

	t.Run("Zero for identical points", func(t *testing.T) {
		assert.InDelta(t, 0, DistanceMeters(office, office), 1e-9)
	})

	t.Run("Symmetric", func(t *testing.T) {
		other := Coordinate{Latitude: -6.175392, Longitude: 106.827153}
		assert.InDelta(t, DistanceMeters(office, other), DistanceMeters(other, office), 1e-9)
	})

	t.Run("Roughly 100m east near Jakarta", func(t *testing.T) {
		// 0.0009 deg of longitude at latitude -6.2 is just under 100 m.
		scan := Coordinate{Latitude: -6.200000, Longitude: 106.817500}
		d := DistanceMeters(scan, office)
		assert.Greater(t, d, 99.0)
		assert.Less(t, d, 100.0)
	})

	t.Run("Known city pair within tolerance", func(t *testing.T) {
		// Jakarta -> Bandung is about 118 km great-circle.
		jakarta := Coordinate{Latitude: -6.2088, Longitude: 106.8456}
		bandung := Coordinate{Latitude: -6.9175, Longitude: 107.6191}
		d := DistanceMeters(jakarta, bandung)
		assert.InDelta(t, 118000, d, 2000)
	})
}
