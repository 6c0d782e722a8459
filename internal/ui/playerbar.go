package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jdelattre/localwave/internal/icons"
	"github.com/jdelattre/localwave/internal/media"
)

// playerState is a render snapshot of the session, sampled once per tick
// so a frame never mixes values from two moments.
type playerState struct {
	HasTrack   bool
	Playing    bool
	Title      string
	Artist     string
	PositionMs int64
	DurationMs int64
	Repeat     media.RepeatMode
	Shuffle    bool
	Speed      float64
}

// renderPlayerBar renders the bottom transport bar.
// Format: ▶  Title — Artist  1:23 ▓▓▓░░░ 3:58  [shuffle] [repeat all] 1.5x
func renderPlayerBar(s playerState, width int) string {
	inner := max(width-4, 0)

	if !s.HasTrack {
		msg := dimmedStyle.Render("nothing playing")
		return barStyle.Width(width - 2).Render(msg)
	}

	status := icons.Playing()
	if !s.Playing {
		status = icons.Paused()
	}

	timeStr := fmt.Sprintf("%s / %s", formatMs(s.PositionMs), formatMs(s.DurationMs))
	modes := renderModes(s)

	title := s.Title
	if title == "" {
		title = "Unknown Track"
	}
	label := title
	if s.Artist != "" {
		label += " — " + s.Artist
	}

	sep := "  "
	fixed := lipgloss.Width(status) + lipgloss.Width(timeStr) + lipgloss.Width(modes) + len(sep)*4
	minBar := 8
	maxLabel := inner - fixed - minBar
	label = truncate(label, max(maxLabel, 10))

	barWidth := max(inner-fixed-lipgloss.Width(label), minBar)
	var ratio float64
	if s.DurationMs > 0 {
		ratio = float64(s.PositionMs) / float64(s.DurationMs)
	}
	filled := min(int(float64(barWidth)*ratio), barWidth)
	bar := playingStyle.Render(strings.Repeat("▓", filled)) +
		dimmedStyle.Render(strings.Repeat("░", barWidth-filled))

	line := status + sep + headerStyle.Render(label) + sep + bar + sep +
		statusStyle.Render(timeStr) + sep + statusStyle.Render(modes)

	return barStyle.Width(width - 2).Render(line)
}

// renderModes builds the repeat, shuffle and speed indicators.
func renderModes(s playerState) string {
	var parts []string
	if s.Shuffle {
		parts = append(parts, icons.Shuffle())
	}
	switch s.Repeat {
	case media.RepeatAll:
		parts = append(parts, icons.RepeatAll())
	case media.RepeatOne:
		parts = append(parts, icons.RepeatOne())
	case media.RepeatOff:
	}
	if s.Speed != 1.0 && s.Speed > 0 {
		parts = append(parts, fmt.Sprintf("%gx", s.Speed))
	}
	return strings.Join(parts, " ")
}

func formatMs(ms int64) string {
	total := ms / 1000
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}
