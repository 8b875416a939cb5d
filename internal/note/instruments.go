package note

import "strings"

// Instrument selects a sample set. Values start at 1.
type Instrument int

const (
	// Piano is the default instrument of play_note.
	Piano Instrument = 1
	// Drums is the sample set that holds every drum kind.
	Drums Instrument = 22
)

var instrumentPaths = [...]string{
	"1-piano",
	"2-electric-piano",
	"3-organ",
	"4-guitar",
	"5-electric-guitar",
	"6-bass",
	"7-pizzicato",
	"8-cello",
	"9-trombo",
	"10-clarinet",
	"11-saxophone",
	"12-flute",
	"13-wooden-flute",
	"14-basso",
	"15-choir",
	"16-vibraphone",
	"17-music-box",
	"18-steel-drum",
	"19-marim",
	"20-synth-lead",
	"21-synth-pad",
	"22-drums",
}

var instrumentNames = [...]string{
	"piano", "electric_piano", "organ", "guitar", "electric_guitar", "bass",
	"pizzicato", "cello", "trombone", "clarinet", "saxophone", "flute",
	"wooden_flute", "bassoon", "choir", "vibraphone", "music_box",
	"steel_drum", "marimba", "synth_lead", "synth_pad", "drums",
}

// Valid reports whether i is a known instrument.
func (i Instrument) Valid() bool { return i >= 1 && int(i) <= len(instrumentPaths) }

// Path returns the sample directory of i, or "" if i is unknown.
func (i Instrument) Path() string {
	if !i.Valid() {
		return ""
	}
	return instrumentPaths[i-1]
}

// String returns the program-file name of i.
func (i Instrument) String() string {
	if !i.Valid() {
		return "unknown"
	}
	return instrumentNames[i-1]
}

// InstrumentByName looks an instrument up by its program-file name or its
// sample path.
func InstrumentByName(name string) (Instrument, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for i := range instrumentNames {
		if instrumentNames[i] == name || instrumentPaths[i] == name {
			return Instrument(i + 1), true
		}
	}
	return 0, false
}

// Drum selects one sound of the drum kit. Values start at 1.
type Drum int

var drumNames = [...]string{
	"snare_drum",
	"bass_drum",
	"side_stick",
	"crash_cymbal",
	"open_hi_hat",
	"closed_hi_hat",
	"tambourine",
	"hand_clap",
	"claves",
	"wood_block",
	"cowbell",
	"triangle",
	"wooden_bongo",
	"conga",
	"cabasa",
	"guiro",
	"vibraslap",
	"cuica",
}

// Valid reports whether d is a known drum.
func (d Drum) Valid() bool { return d >= 1 && int(d) <= len(drumNames) }

// String returns the program-file name of d.
func (d Drum) String() string {
	if !d.Valid() {
		return ""
	}
	return drumNames[d-1]
}

// DrumByName looks a drum up by its program-file name.
func DrumByName(name string) (Drum, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, n := range drumNames {
		if n == name {
			return Drum(i + 1), true
		}
	}
	return 0, false
}
