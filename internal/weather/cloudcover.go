package weather

// NoCloudCover is reported for codes outside the 1-9 scale.
const NoCloudCover = "No Cloud Cover Present"

// cloudCoverBands maps the 7Timer cloud cover scale to percentage ranges.
// Index 0 is unused. Read-only after init.
var cloudCoverBands = [...]string{
	"",
	"0%-6%",
	"6%-19%",
	"19%-31%",
	"31%-44%",
	"44%-56%",
	"56%-69%",
	"69%-81%",
	"81%-94%",
	"94%-100%",
}

// CloudCoverBand returns the percentage band for a cloud cover code.
func CloudCoverBand(code int) string {
	if code < 1 || code >= len(cloudCoverBands) {
		return NoCloudCover
	}
	return cloudCoverBands[code]
}
