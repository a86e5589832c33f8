// Package recommend maps listening moods to Spotify recommendation queries.
//
// A [Mood] is one of a closed set of labels. Each carries a [Profile] of
// audio-feature targets; only the targets a profile sets are emitted, always
// in the order valence, energy, danceability, tempo, acousticness.
package recommend

import (
	"fmt"
	"strings"
)

// Mood is a listening mood. The zero value is not a valid mood.
type Mood int

const (
	Happy Mood = iota + 1
	Sad
	Energetic
	Relaxed
	Romantic
)

// Moods lists every mood in presentation order.
var Moods = []Mood{Happy, Sad, Energetic, Relaxed, Romantic}

var moodKeys = map[Mood]string{
	Happy:     "happy",
	Sad:       "sad",
	Energetic: "energetic",
	Relaxed:   "relaxed",
	Romantic:  "romantic",
}

// InvalidMoodError reports a mood key outside the closed set.
type InvalidMoodError struct {
	Key string
}

func (e *InvalidMoodError) Error() string {
	return fmt.Sprintf("invalid mood %q (want one of %s)", e.Key, strings.Join(MoodKeys(), ", "))
}

// ParseMood looks up a mood by key, case-insensitively.
func ParseMood(key string) (Mood, error) {
	normalized := strings.ToLower(strings.TrimSpace(key))
	for _, m := range Moods {
		if moodKeys[m] == normalized {
			return m, nil
		}
	}
	return 0, &InvalidMoodError{Key: key}
}

// MoodKeys returns the key of every mood in presentation order.
func MoodKeys() []string {
	keys := make([]string, 0, len(Moods))
	for _, m := range Moods {
		keys = append(keys, m.String())
	}
	return keys
}

func (m Mood) String() string {
	if key, ok := moodKeys[m]; ok {
		return key
	}
	return fmt.Sprintf("Mood(%d)", int(m))
}

// Valid reports whether m is one of the defined moods.
func (m Mood) Valid() bool {
	_, ok := moodKeys[m]
	return ok
}

// Label is the display name, e.g. "Energetic".
func (m Mood) Label() string {
	s := m.String()
	if !m.Valid() {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// Profile returns the audio-feature targets of m. It panics on an invalid mood.
func (m Mood) Profile() Profile {
	p, ok := profiles[m]
	if !ok {
		panic(&InvalidMoodError{Key: m.String()})
	}
	return p
}

// UnmarshalText lets a Mood be decoded from config files and query strings.
func (m *Mood) UnmarshalText(text []byte) error {
	parsed, err := ParseMood(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

func (m Mood) MarshalText() ([]byte, error) {
	if !m.Valid() {
		return nil, &InvalidMoodError{Key: m.String()}
	}
	return []byte(m.String()), nil
}

// Target is an optional audio-feature target.
type Target struct {
	Value float64
	Set   bool
}

func target(v float64) Target { return Target{Value: v, Set: true} }

// Profile is a set of audio-feature targets. Unset targets are left to Spotify.
type Profile struct {
	Valence      Target
	Energy       Target
	Danceability Target
	Tempo        Target
	Acousticness Target
}

var profiles = map[Mood]Profile{
	Happy:     {Valence: target(0.8), Energy: target(0.8), Danceability: target(0.8)},
	Sad:       {Valence: target(0.2), Energy: target(0.2), Acousticness: target(0.7)},
	Energetic: {Valence: target(0.7), Energy: target(1.0), Tempo: target(140)},
	Relaxed:   {Valence: target(0.5), Energy: target(0.3), Acousticness: target(0.8)},
	Romantic:  {Valence: target(0.7), Energy: target(0.4), Danceability: target(0.6), Acousticness: target(0.6)},
}

// MaxTempo is the upper bound accepted for a tempo target, in BPM.
const MaxTempo = 250

// Feature is a named target within a profile.
type Feature struct {
	Name  string
	Value float64
	Min   float64
	Max   float64
}

// Features returns the set targets in emission order.
func (p Profile) Features() []Feature {
	all := []struct {
		name     string
		t        Target
		min, max float64
	}{
		{"valence", p.Valence, 0, 1},
		{"energy", p.Energy, 0, 1},
		{"danceability", p.Danceability, 0, 1},
		{"tempo", p.Tempo, 0, MaxTempo},
		{"acousticness", p.Acousticness, 0, 1},
	}

	features := make([]Feature, 0, len(all))
	for _, f := range all {
		if f.t.Set {
			features = append(features, Feature{Name: f.name, Value: f.t.Value, Min: f.min, Max: f.max})
		}
	}
	return features
}

// Validate checks every set target against its range.
func (p Profile) Validate() error {
	for _, f := range p.Features() {
		if f.Value < f.Min || f.Value > f.Max {
			return fmt.Errorf("target_%s=%v outside [%v, %v]", f.Name, f.Value, f.Min, f.Max)
		}
	}
	return nil
}
