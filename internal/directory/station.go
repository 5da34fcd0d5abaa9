package directory

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Station is one Radio Browser entry.
type Station struct {
	UUID        string `json:"stationuuid"`
	Name        string `json:"name"`
	URL         string `json:"url"`
	URLResolved string `json:"url_resolved"`
	Homepage    string `json:"homepage"`
	Tags        string `json:"tags"`
	Country     string `json:"country"`
	CountryCode string `json:"countrycode"`
	Codec       string `json:"codec"`
	Bitrate     Number `json:"bitrate"`
	Votes       Number `json:"votes"`
}

// StreamURL prefers the resolved URL, which skips playlist indirection.
func (s Station) StreamURL() string {
	if u := strings.TrimSpace(s.URLResolved); u != "" {
		return u
	}
	return strings.TrimSpace(s.URL)
}

// Number accepts both JSON numbers and numeric strings; mirrors disagree on
// which they send. Anything unparsable decodes to zero.
type Number int

func (n Number) Int() int {
	return int(n)
}

func (n *Number) UnmarshalJSON(data []byte) error {
	var f float64
	if err := json.Unmarshal(data, &f); err == nil {
		*n = Number(f)
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		*n = 0
		return nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		*n = 0
		return nil
	}
	*n = Number(f)
	return nil
}
