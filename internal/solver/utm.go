package solver

import (
	"fmt"

	"github.com/tzneal/coordconv"
)

// UTMString renders a Fix's geodetic position as a UTM grid
// reference, mirroring the teacher's own
// `samoyed-ll2utm` command-line conversion.
func UTMString(f Fix) (string, error) {
	coord, err := coordconv.DefaultUTMConverter.ConvertFromGeodetic(f.LatLng, 0)
	if err != nil {
		return "", fmt.Errorf("convert fix to UTM: %w", err)
	}
	return fmt.Sprintf("%d%c %.0fE %.0fN", coord.Zone, hemisphereToRune(coord.Hemisphere), coord.Easting, coord.Northing), nil
}

func hemisphereToRune(h coordconv.Hemisphere) rune {
	switch h {
	case coordconv.HemisphereNorth:
		return 'N'
	case coordconv.HemisphereSouth:
		return 'S'
	case coordconv.HemisphereInvalid:
		return '!'
	default:
		return '?'
	}
}
