package ui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jdelattre/localwave/internal/icons"
	"github.com/jdelattre/localwave/internal/media"
)

// libraryView selects what the library pane lists.
type libraryView int

const (
	viewTracks libraryView = iota
	viewAlbums
	viewArtists
	viewPlaylists
	// viewCollection is a drilled-in track list: an album's, an artist's
	// or a playlist's contents.
	viewCollection
)

func (v libraryView) title() string {
	switch v {
	case viewAlbums:
		return "Albums"
	case viewArtists:
		return "Artists"
	case viewPlaylists:
		return "Playlists"
	default:
		return "Library"
	}
}

// PlayFromLibraryMsg is sent when the user starts playback from the
// library pane. The queue is replaced with the visible track list.
type PlayFromLibraryMsg struct {
	Tracks []media.Track
	Index  int
}

// EnqueueTrackMsg is sent when the user appends a library track to the
// queue. Next controls whether it lands after the current track or at
// the end.
type EnqueueTrackMsg struct {
	Track media.Track
	Next  bool
}

// SwitchViewMsg asks the app to load and show another library view.
type SwitchViewMsg struct {
	View libraryView
}

// OpenAlbumMsg asks the app to drill into an album's track list.
type OpenAlbumMsg struct {
	Album media.Album
}

// OpenArtistMsg asks the app to drill into an artist's track list.
type OpenArtistMsg struct {
	Artist media.Artist
}

// OpenPlaylistMsg asks the app to drill into a playlist's track list.
type OpenPlaylistMsg struct {
	Playlist media.Playlist
}

// DeletePlaylistMsg is sent when the user deletes a playlist.
type DeletePlaylistMsg struct {
	Playlist media.Playlist
}

// RenamePlaylistPromptMsg asks the app to prompt for a new name.
type RenamePlaylistPromptMsg struct {
	Playlist media.Playlist
}

// AddToPlaylistPromptMsg asks the app to prompt for a playlist to add
// the track to.
type AddToPlaylistPromptMsg struct {
	Track media.Track
}

// RemoveFromPlaylistMsg is sent when the user removes a track from the
// drilled-in playlist.
type RemoveFromPlaylistMsg struct {
	PlaylistID int64
	Track      media.Track
}

// libraryModel is the library pane. It cycles between the full track
// list, album/artist/playlist indexes and drilled-in collections; data
// loading happens in the app, the pane only renders what it was given.
type libraryModel struct {
	view      libraryView
	tracks    []media.Track
	albums    []media.Album
	artists   []media.Artist
	playlists []media.Playlist

	// Set while a drilled-in collection is shown.
	collectionTitle string
	playlistID      int64
	backView        libraryView

	filter string

	cursor  int
	offset  int
	width   int
	height  int
	focused bool
}

func newLibraryModel() libraryModel {
	return libraryModel{}
}

// SetTracks replaces the full track list after a load or rescan.
func (m *libraryModel) SetTracks(tracks []media.Track) {
	m.tracks = tracks
	if m.view == viewTracks {
		m.filter = ""
		m.clampCursor()
	}
}

// ShowTracks switches back to the full track list.
func (m *libraryModel) ShowTracks(tracks []media.Track) {
	m.view = viewTracks
	m.tracks = tracks
	m.filter = ""
	m.resetCursor()
}

// ShowSearch shows search results for query in the track view.
func (m *libraryModel) ShowSearch(query string, tracks []media.Track) {
	m.view = viewTracks
	m.tracks = tracks
	m.filter = query
	m.resetCursor()
}

func (m *libraryModel) ShowAlbums(albums []media.Album) {
	m.view = viewAlbums
	m.albums = albums
	m.resetCursor()
}

func (m *libraryModel) ShowArtists(artists []media.Artist) {
	m.view = viewArtists
	m.artists = artists
	m.resetCursor()
}

func (m *libraryModel) ShowPlaylists(playlists []media.Playlist) {
	m.view = viewPlaylists
	m.playlists = playlists
	m.resetCursor()
}

// ShowCollection drills into a named track list. playlistID is nonzero
// for playlists, which unlocks per-entry removal; back is the view esc
// returns to.
func (m *libraryModel) ShowCollection(title string, playlistID int64, back libraryView, tracks []media.Track) {
	m.view = viewCollection
	m.collectionTitle = title
	m.playlistID = playlistID
	m.backView = back
	m.tracks = tracks
	m.resetCursor()
}

func (m *libraryModel) SetFocused(focused bool) { m.focused = focused }

func (m *libraryModel) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.ensureCursorVisible()
}

// nextView is the cycle order for the "v" key.
func (m libraryModel) nextView() libraryView {
	switch m.view {
	case viewTracks:
		return viewAlbums
	case viewAlbums:
		return viewArtists
	case viewArtists:
		return viewPlaylists
	default:
		return viewTracks
	}
}

func (m libraryModel) rowCount() int {
	switch m.view {
	case viewAlbums:
		return len(m.albums)
	case viewArtists:
		return len(m.artists)
	case viewPlaylists:
		return len(m.playlists)
	default:
		return len(m.tracks)
	}
}

func (m libraryModel) showsTracks() bool {
	return m.view == viewTracks || m.view == viewCollection
}

func (m libraryModel) Update(msg tea.Msg) (libraryModel, tea.Cmd) {
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
		if n := m.rowCount(); n > 0 {
			m.cursor = n - 1
			m.ensureCursorVisible()
		}
	case "v":
		next := m.nextView()
		return m, func() tea.Msg { return SwitchViewMsg{View: next} }
	case "esc":
		if m.view == viewCollection {
			back := m.backView
			return m, func() tea.Msg { return SwitchViewMsg{View: back} }
		}
	case "enter":
		return m.openCursor()
	case "a", "A":
		if m.showsTracks() && m.cursor < len(m.tracks) {
			track := m.tracks[m.cursor]
			next := keyMsg.String() == "A"
			return m, func() tea.Msg {
				return EnqueueTrackMsg{Track: track, Next: next}
			}
		}
	case "p":
		if m.showsTracks() && m.cursor < len(m.tracks) {
			track := m.tracks[m.cursor]
			return m, func() tea.Msg {
				return AddToPlaylistPromptMsg{Track: track}
			}
		}
	case "d":
		return m.deleteCursor()
	case "R":
		if m.view == viewPlaylists && m.cursor < len(m.playlists) {
			pl := m.playlists[m.cursor]
			return m, func() tea.Msg {
				return RenamePlaylistPromptMsg{Playlist: pl}
			}
		}
	}

	return m, nil
}

// openCursor maps enter to the view: play in track views, drill in
// index views.
func (m libraryModel) openCursor() (libraryModel, tea.Cmd) {
	switch m.view {
	case viewAlbums:
		if m.cursor < len(m.albums) {
			album := m.albums[m.cursor]
			return m, func() tea.Msg { return OpenAlbumMsg{Album: album} }
		}
	case viewArtists:
		if m.cursor < len(m.artists) {
			artist := m.artists[m.cursor]
			return m, func() tea.Msg { return OpenArtistMsg{Artist: artist} }
		}
	case viewPlaylists:
		if m.cursor < len(m.playlists) {
			pl := m.playlists[m.cursor]
			return m, func() tea.Msg { return OpenPlaylistMsg{Playlist: pl} }
		}
	default:
		if m.cursor < len(m.tracks) {
			tracks := append([]media.Track(nil), m.tracks...)
			index := m.cursor
			return m, func() tea.Msg {
				return PlayFromLibraryMsg{Tracks: tracks, Index: index}
			}
		}
	}
	return m, nil
}

func (m libraryModel) deleteCursor() (libraryModel, tea.Cmd) {
	switch {
	case m.view == viewPlaylists && m.cursor < len(m.playlists):
		pl := m.playlists[m.cursor]
		return m, func() tea.Msg { return DeletePlaylistMsg{Playlist: pl} }
	case m.view == viewCollection && m.playlistID != 0 && m.cursor < len(m.tracks):
		id := m.playlistID
		track := m.tracks[m.cursor]
		return m, func() tea.Msg {
			return RemoveFromPlaylistMsg{PlaylistID: id, Track: track}
		}
	}
	return m, nil
}

func (m *libraryModel) resetCursor() {
	m.cursor = 0
	m.offset = 0
}

func (m *libraryModel) clampCursor() {
	if m.cursor >= m.rowCount() {
		m.cursor = max(m.rowCount()-1, 0)
	}
}

func (m *libraryModel) moveCursor(delta int) {
	n := m.rowCount()
	if n == 0 {
		return
	}
	m.cursor = min(max(m.cursor+delta, 0), n-1)
	m.ensureCursorVisible()
}

func (m *libraryModel) ensureCursorVisible() {
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

func (m libraryModel) listHeight() int {
	return m.height - panelOverhead
}

func (m libraryModel) header() string {
	if m.view == viewCollection {
		return headerStyle.Render(m.collectionTitle)
	}
	header := headerStyle.Render(m.view.title())
	if m.filter != "" {
		header += dimmedStyle.Render(fmt.Sprintf("  /%s", m.filter))
	}
	return header
}

func (m libraryModel) rowLine(i, width int, playingTrackID int64) string {
	switch m.view {
	case viewAlbums:
		a := m.albums[i]
		label := a.Title
		if a.Artist != "" {
			label += " — " + a.Artist
		}
		return countLine(label, a.TrackCount, width)
	case viewArtists:
		a := m.artists[i]
		return countLine(a.Name, a.TrackCount, width)
	case viewPlaylists:
		p := m.playlists[i]
		return countLine(p.Name, p.TrackCount, width)
	default:
		t := m.tracks[i]
		return trackLine(t, width, t.ID == playingTrackID)
	}
}

func (m libraryModel) emptyLabel() string {
	switch m.view {
	case viewAlbums:
		return "no albums"
	case viewArtists:
		return "no artists"
	case viewPlaylists:
		return "no playlists"
	default:
		return "no tracks"
	}
}

func (m libraryModel) View(playingTrackID int64) string {
	style := panelStyle
	if m.focused {
		style = panelFocusedStyle
	}

	inner := max(m.width-4, 0)
	var b strings.Builder
	b.WriteString(m.header())
	b.WriteString("\n\n")

	h := m.listHeight()
	n := m.rowCount()
	if n == 0 {
		b.WriteString(dimmedStyle.Render(m.emptyLabel()))
	}
	for i := m.offset; i < n && i < m.offset+h; i++ {
		line := m.rowLine(i, inner, playingTrackID)
		if i == m.cursor && m.focused {
			line = cursorStyle.Width(inner).Render(line)
		}
		b.WriteString(line)
		if i < n-1 && i < m.offset+h-1 {
			b.WriteString("\n")
		}
	}

	return style.Width(m.width - 2).Height(m.height - 2).Render(b.String())
}

// countLine renders a "Label  n tracks" index row.
func countLine(label string, count, width int) string {
	suffix := fmt.Sprintf("%d tracks", count)
	if count == 1 {
		suffix = "1 track"
	}
	label = truncate(label, max(width-len(suffix)-4, 4))

	pad := width - lipgloss.Width("  "+label) - lipgloss.Width(suffix)
	if pad < 1 {
		pad = 1
	}
	return trackStyle.Render("  "+label) + strings.Repeat(" ", pad) + dimmedStyle.Render(suffix)
}

// trackLine renders a single "Title — Artist  m:ss" row.
func trackLine(t media.Track, width int, playing bool) string {
	dur := t.FormattedDuration()
	label := t.Title
	if t.Artist != "" {
		label += " — " + t.Artist
	}
	label = truncate(label, max(width-len(dur)-4, 4))

	prefix := "  "
	style := trackStyle
	if playing {
		prefix = icons.Playing() + " "
		style = playingStyle
	}

	pad := width - lipgloss.Width(prefix+label) - lipgloss.Width(dur)
	if pad < 1 {
		pad = 1
	}
	return style.Render(prefix+label) + strings.Repeat(" ", pad) + dimmedStyle.Render(dur)
}
