package recommend

import (
	"strconv"
	"strings"
)

// MaxSeeds is Spotify's limit on combined seeds per recommendation request.
// [Build] does not enforce it; callers pass at most MaxSeeds track ids.
const MaxSeeds = 5

// Build returns the recommendation path for mood seeded by the given track ids:
//
//	/recommendations?seed_tracks=a,b&target_valence=0.2&target_energy=0.2&target_acousticness=0.7
func Build(mood Mood, seeds []string) (string, error) {
	if !mood.Valid() {
		return "", &InvalidMoodError{Key: mood.String()}
	}

	var b strings.Builder
	b.WriteString("/recommendations?seed_tracks=")
	b.WriteString(strings.Join(seeds, ","))

	for _, f := range mood.Profile().Features() {
		b.WriteString("&target_")
		b.WriteString(f.Name)
		b.WriteByte('=')
		b.WriteString(strconv.FormatFloat(f.Value, 'f', -1, 64))
	}
	return b.String(), nil
}
