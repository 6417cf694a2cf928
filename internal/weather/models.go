package weather

import (
	"fmt"
	"time"
)

// Coordinate is a geographic point in decimal degrees.
// Range checks are left to the forecast provider.
type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Query renders both components with three decimal digits, the provider's precision ceiling.
func (c Coordinate) Query() (lat, lon string) {
	return fmt.Sprintf("%.3f", c.Latitude), fmt.Sprintf("%.3f", c.Longitude)
}

// Key returns a canonical string key for logging and indexing.
func (c Coordinate) Key() string {
	lat, lon := c.Query()
	return lat + ":" + lon
}

// ForecastDocument is the raw "civil" product payload returned by 7Timer.
type ForecastDocument struct {
	Product    string      `json:"product"`
	Init       string      `json:"init"` // YYYYMMDDHH, UTC
	Dataseries []DataPoint `json:"dataseries"`
}

// DataPoint is a single forecast step, Timepoint hours after Init.
type DataPoint struct {
	Timepoint   int     `json:"timepoint"`
	CloudCover  int     `json:"cloudcover"`
	LiftedIndex int     `json:"lifted_index"`
	PrecType    string  `json:"prec_type"`
	PrecAmount  int     `json:"prec_amount"`
	Temp2m      float64 `json:"temp2m"`
	RH2m        string  `json:"rh2m"`
	Wind10m     Wind    `json:"wind10m"`
	Weather     string  `json:"weather"`
}

// Wind holds the 10m wind reading of a DataPoint.
type Wind struct {
	Direction string `json:"direction"`
	Speed     int    `json:"speed"`
}

// ForecastEntry is the simplified, windowed view returned to API clients.
type ForecastEntry struct {
	StartPeriodUTC     string `json:"start_period_utc"`
	EndPeriodUTC       string `json:"end_period_utc"`
	CloudCover         string `json:"cloud_cover"`
	TemperatureCelsius string `json:"temperature_celsius"`
}

// ProbeResult records the outcome of a single provider health probe.
type ProbeResult struct {
	Coordinate Coordinate `json:"coordinate"`
	Timestamp  time.Time  `json:"timestamp"` // always UTC
	OK         bool       `json:"ok"`
	Entries    int        `json:"entries"`
	Latency    string     `json:"latency"`
	Error      string     `json:"error,omitempty"`
}
