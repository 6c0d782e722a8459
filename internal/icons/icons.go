// Package icons holds the glyph set used by the terminal UI. The active
// set is chosen once at startup from config; the "unicode" set is the
// default and works in any modern terminal.
package icons

// Style represents the icon style to use.
type Style string

const (
	StyleNerd    Style = "nerd"
	StyleUnicode Style = "unicode"
	StyleNone    Style = "none"
)

// Icons holds the icon characters for the current style.
type Icons struct {
	Audio     string
	Playing   string
	Paused    string
	Shuffle   string
	RepeatAll string
	RepeatOne string
}

var (
	nerdIcons = Icons{
		Audio:     "\uf001 ",    // nf-fa-music
		Playing:   "\uf04b",     // nf-fa-play
		Paused:    "\uf04c",     // nf-fa-pause
		Shuffle:   "\U000f049f", // nf-md-shuffle
		RepeatAll: "\U000f0456", // nf-md-repeat
		RepeatOne: "\U000f0458", // nf-md-repeat_once
	}

	unicodeIcons = Icons{
		Audio:     "",
		Playing:   "▶",
		Paused:    "⏸",
		Shuffle:   "⇆",
		RepeatAll: "↻",
		RepeatOne: "↻1",
	}

	noneIcons = Icons{
		Audio:     "",
		Playing:   ">",
		Paused:    "||",
		Shuffle:   "[S]",
		RepeatAll: "[R]",
		RepeatOne: "[R1]",
	}

	// current holds the active icon set
	current = unicodeIcons
)

// Init initializes the icons based on the style.
// Call this once at startup with the config value.
func Init(style string) {
	switch Style(style) {
	case StyleNerd:
		current = nerdIcons
	case StyleNone:
		current = noneIcons
	case StyleUnicode:
		current = unicodeIcons
	default:
		current = unicodeIcons
	}
}

// FormatAudio formats an audio file name with the appropriate icon.
func FormatAudio(name string) string {
	return current.Audio + name
}

// Playing returns the playing indicator.
func Playing() string {
	return current.Playing
}

// Paused returns the paused indicator.
func Paused() string {
	return current.Paused
}

// Shuffle returns the shuffle icon.
func Shuffle() string {
	return current.Shuffle
}

// RepeatAll returns the repeat all icon.
func RepeatAll() string {
	return current.RepeatAll
}

// RepeatOne returns the repeat one icon.
func RepeatOne() string {
	return current.RepeatOne
}
