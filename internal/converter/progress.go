package converter

import (
	"math"
	"regexp"
	"strconv"
)

var percentToken = regexp.MustCompile(`(\d+(?:\.\d+)?)%`)

// ParseProgress extracts a percentage token from a free-form diagnostic line.
// It is total: unmatched or malformed input reports false, never an error.
func ParseProgress(line string) (float64, bool) {
	m := percentToken.FindStringSubmatch(line)
	if m == nil {
		return 0, false
	}
	pct, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	return pct, true
}

// ScaleDownload maps a download-phase percentage into the low sub-range of
// overall job progress, capped so conversion still has headroom.
func ScaleDownload(pct float64) int {
	return int(math.Min(downloadScaleCap, pct*downloadScaleFactor))
}
