package ui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jdelattre/localwave/internal/media"
)

// JumpToTrackMsg is sent when the user selects a queue entry to play.
type JumpToTrackMsg struct {
	Index int
}

// RemoveTrackMsg is sent when the user deletes a queue entry.
type RemoveTrackMsg struct {
	Index int
}

// MoveTrackMsg is sent when the user reorders the queue.
type MoveTrackMsg struct {
	From, To int
}

// ClearQueueMsg is sent when the user empties the queue.
type ClearQueueMsg struct{}

// queueModel is the queue pane. The track list mirrors the session
// controller's live queue; the pane never mutates it directly, it only
// emits messages.
type queueModel struct {
	tracks       []media.Track
	playingIndex int

	cursor  int
	offset  int
	width   int
	height  int
	focused bool
}

func newQueueModel() queueModel {
	return queueModel{playingIndex: -1}
}

// SetTracks refreshes the pane from the live queue snapshot.
func (m *queueModel) SetTracks(tracks []media.Track, playingIndex int) {
	m.tracks = tracks
	m.playingIndex = playingIndex
	if m.cursor >= len(tracks) {
		m.cursor = max(len(tracks)-1, 0)
	}
	m.ensureCursorVisible()
}

func (m *queueModel) SetFocused(focused bool) { m.focused = focused }

func (m *queueModel) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.ensureCursorVisible()
}

func (m queueModel) Update(msg tea.Msg) (queueModel, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok || !m.focused {
		return m, nil
	}

	switch keyMsg.String() {
	case "j", "down":
		m.moveCursor(1)
	case "k", "up":
		m.moveCursor(-1)
	case "g":
		m.cursor = 0
		m.offset = 0
	case "G":
		if len(m.tracks) > 0 {
			m.cursor = len(m.tracks) - 1
			m.ensureCursorVisible()
		}
	case "enter":
		if m.cursor < len(m.tracks) {
			index := m.cursor
			return m, func() tea.Msg { return JumpToTrackMsg{Index: index} }
		}
	case "d", "delete":
		if m.cursor < len(m.tracks) {
			index := m.cursor
			return m, func() tea.Msg { return RemoveTrackMsg{Index: index} }
		}
	case "J", "shift+down":
		if m.cursor < len(m.tracks)-1 {
			from := m.cursor
			m.cursor++
			m.ensureCursorVisible()
			return m, func() tea.Msg { return MoveTrackMsg{From: from, To: from + 1} }
		}
	case "K", "shift+up":
		if m.cursor > 0 && len(m.tracks) > 0 {
			from := m.cursor
			m.cursor--
			m.ensureCursorVisible()
			return m, func() tea.Msg { return MoveTrackMsg{From: from, To: from - 1} }
		}
	case "c":
		if len(m.tracks) > 0 {
			return m, func() tea.Msg { return ClearQueueMsg{} }
		}
	}

	return m, nil
}

func (m *queueModel) moveCursor(delta int) {
	if len(m.tracks) == 0 {
		return
	}
	m.cursor = min(max(m.cursor+delta, 0), len(m.tracks)-1)
	m.ensureCursorVisible()
}

func (m *queueModel) ensureCursorVisible() {
	h := m.listHeight()
	if h <= 0 {
		return
	}
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+h {
		m.offset = m.cursor - h + 1
	}
}

func (m queueModel) listHeight() int {
	return m.height - panelOverhead
}

func (m queueModel) View() string {
	style := panelStyle
	if m.focused {
		style = panelFocusedStyle
	}

	header := headerStyle.Render("Queue")
	if len(m.tracks) > 0 {
		header += dimmedStyle.Render(fmt.Sprintf("  %d tracks", len(m.tracks)))
	}

	inner := max(m.width-4, 0)
	var b strings.Builder
	b.WriteString(header)
	b.WriteString("\n\n")

	h := m.listHeight()
	if len(m.tracks) == 0 {
		b.WriteString(dimmedStyle.Render("queue is empty"))
	}
	for i := m.offset; i < len(m.tracks) && i < m.offset+h; i++ {
		line := trackLine(m.tracks[i], inner, i == m.playingIndex)
		if i == m.cursor && m.focused {
			line = cursorStyle.Width(inner).Render(line)
		}
		b.WriteString(line)
		if i < len(m.tracks)-1 && i < m.offset+h-1 {
			b.WriteString("\n")
		}
	}

	return style.Width(m.width - 2).Height(m.height - 2).Render(b.String())
}
