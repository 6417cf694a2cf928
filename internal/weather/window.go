package weather

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	// HourLayout is the YYYYMMDDHH layout used by 7Timer and by ForecastEntry periods.
	HourLayout = "2006010215"

	// Horizon bounds how far past "now" a period may end.
	Horizon = 48 * time.Hour

	// pastSlack is how many hours a period may have started before "now" and still be reported.
	pastSlack = 3
)

// RetentionFunc reports whether a period starting at periodStart is still current at now.
type RetentionFunc func(now, periodStart time.Time) bool

// HourStampRetention compares now and periodStart as YYYYMMDDHH integers.
// Across a day boundary the difference is not a duration: 2024010200 - 2024010123 is 77, not 1.
func HourStampRetention(now, periodStart time.Time) bool {
	return hourStamp(now)-hourStamp(periodStart) < pastSlack
}

// ElapsedRetention uses the real elapsed time between the hours of now and periodStart.
func ElapsedRetention(now, periodStart time.Time) bool {
	return now.UTC().Truncate(time.Hour).Sub(periodStart.UTC()) < pastSlack*time.Hour
}

// RetentionByName resolves a configured retention mode.
func RetentionByName(name string) (RetentionFunc, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "hourstamp":
		return HourStampRetention, nil
	case "elapsed":
		return ElapsedRetention, nil
	default:
		return nil, fmt.Errorf("unknown retention mode %q (allowed: hourstamp, elapsed)", name)
	}
}

func hourStamp(t time.Time) int64 {
	n, _ := strconv.ParseInt(t.UTC().Format(HourLayout), 10, 64)
	return n
}

// ParseInit parses a document init field as a UTC instant.
func ParseInit(init string) (time.Time, error) {
	t, err := time.ParseInLocation(HourLayout, strings.TrimSpace(init), time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: init %q: %v", ErrMalformedResponse, init, err)
	}
	return t, nil
}

// FilterWindow converts the relative timepoints of doc into absolute UTC periods and keeps
// those that are still current at now and end before now+Horizon.
// Periods are chained: each one starts where the previous one ended, whether or not the
// previous one was kept. A nil retain uses HourStampRetention.
func FilterWindow(doc ForecastDocument, now time.Time, retain RetentionFunc) ([]ForecastEntry, error) {
	entries := make([]ForecastEntry, 0, len(doc.Dataseries))
	if len(doc.Dataseries) == 0 {
		return entries, nil
	}
	if retain == nil {
		retain = HourStampRetention
	}

	initTime, err := ParseInit(doc.Init)
	if err != nil {
		return nil, err
	}

	now = now.UTC()
	horizon := now.Add(Horizon)

	start := initTime
	for _, dp := range doc.Dataseries {
		end := initTime.Add(time.Duration(dp.Timepoint) * time.Hour)

		if retain(now, start) && end.Before(horizon) {
			entries = append(entries, ForecastEntry{
				StartPeriodUTC:     start.Format(HourLayout),
				EndPeriodUTC:       end.Format(HourLayout),
				CloudCover:         CloudCoverBand(dp.CloudCover),
				TemperatureCelsius: strconv.FormatFloat(dp.Temp2m, 'f', -1, 64),
			})
		}

		start = end
	}

	return entries, nil
}
