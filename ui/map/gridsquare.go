package mapview

import (
	"fmt"
	"strings"
)

// GridSquareToLatLon returns the longitude and latitude of the centre of
// a 4 or 6 character Maidenhead locator such as "IO91" or "IO91wm".
func GridSquareToLatLon(grid string) (float64, float64, error) {
	g := strings.ToUpper(strings.TrimSpace(grid))
	if len(g) != 4 && len(g) != 6 {
		return 0, 0, fmt.Errorf("gridsquare %q must have 4 or 6 characters", grid)
	}
	if g[0] < 'A' || g[0] > 'R' || g[1] < 'A' || g[1] > 'R' {
		return 0, 0, fmt.Errorf("gridsquare %q: bad field", grid)
	}
	if g[2] < '0' || g[2] > '9' || g[3] < '0' || g[3] > '9' {
		return 0, 0, fmt.Errorf("gridsquare %q: bad square", grid)
	}

	// south-west corner of the square, then step to the centre
	lon := float64(g[0]-'A')*20 - 180 + float64(g[2]-'0')*2
	lat := float64(g[1]-'A')*10 - 90 + float64(g[3]-'0')
	lonStep, latStep := 2.0, 1.0

	if len(g) == 6 {
		if g[4] < 'A' || g[4] > 'X' || g[5] < 'A' || g[5] > 'X' {
			return 0, 0, fmt.Errorf("gridsquare %q: bad subsquare", grid)
		}
		lonStep, latStep = 2.0/24, 1.0/24
		lon += float64(g[4]-'A') * lonStep
		lat += float64(g[5]-'A') * latStep
	}

	return lon + lonStep/2, lat + latStep/2, nil
}
