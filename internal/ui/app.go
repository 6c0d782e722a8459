// Package ui is the terminal front end. It renders the library, the
// queue and the transport bar, and translates key presses into session
// controller commands. The session state is sampled on a frame tick;
// the controller's observables stay the single source of truth.
package ui

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/jdelattre/localwave/internal/errmsg"
	"github.com/jdelattre/localwave/internal/library"
	"github.com/jdelattre/localwave/internal/media"
	"github.com/jdelattre/localwave/internal/session"
	"github.com/jdelattre/localwave/internal/store"
)

const (
	frameInterval = 200 * time.Millisecond
	seekStepMs    = 5000
	speedStep     = 0.25
	minSpeed      = 0.25
	maxSpeed      = 4.0
)

type focusArea int

const (
	focusLibrary focusArea = iota
	focusQueue
)

// promptKind is what the status-line text input is currently asking for.
type promptKind int

const (
	promptNone promptKind = iota
	promptSearch
	promptAddToPlaylist
	promptRenamePlaylist
)

type (
	tickMsg time.Time

	libraryLoadedMsg struct {
		tracks []media.Track
		// show forces the pane back to the track view; background
		// refreshes leave the current view alone.
		show bool
		err  error
	}

	albumsLoadedMsg struct {
		albums []media.Album
		err    error
	}

	artistsLoadedMsg struct {
		artists []media.Artist
		err     error
	}

	playlistsLoadedMsg struct {
		playlists []media.Playlist
		err       error
	}

	collectionLoadedMsg struct {
		title      string
		playlistID int64
		back       libraryView
		tracks     []media.Track
		err        error
	}

	searchResultsMsg struct {
		query  string
		tracks []media.Track
		err    error
	}

	// playlistChangedMsg reports the outcome of a playlist mutation;
	// the handler refreshes whatever playlist data is on screen.
	playlistChangedMsg struct {
		op  errmsg.Op
		err error
	}

	scanProgressMsg library.Progress

	scanDoneMsg struct {
		err error
	}
)

// Model is the root bubbletea model.
type Model struct {
	ctrl    *session.Controller
	st      *store.Store
	scanner *library.Scanner
	sources []string
	log     *slog.Logger

	library libraryModel
	queue   queueModel
	focus   focusArea

	width  int
	height int

	player       playerState
	playingID    int64
	playingIndex int

	prompt         promptKind
	promptInput    textinput.Model
	promptTrack    media.Track
	promptPlaylist media.Playlist

	scanning     bool
	scanProgress library.Progress
	scanCh       chan library.Progress
	scanDone     chan error
	statusErr    string
}

// New builds the root model. Sources are the library scan roots.
func New(ctrl *session.Controller, st *store.Store, scanner *library.Scanner, sources []string, log *slog.Logger) Model {
	ti := textinput.New()
	ti.CharLimit = 128

	m := Model{
		ctrl:         ctrl,
		st:           st,
		scanner:      scanner,
		sources:      sources,
		log:          log,
		library:      newLibraryModel(),
		queue:        newQueueModel(),
		promptInput:  ti,
		playingIndex: -1,
	}
	m.library.SetFocused(true)
	return m
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.loadLibrary(false), tick())
}

func tick() tea.Cmd {
	return tea.Tick(frameInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) loadLibrary(show bool) tea.Cmd {
	st := m.st
	return func() tea.Msg {
		tracks, err := st.AllTracks()
		return libraryLoadedMsg{tracks: tracks, show: show, err: err}
	}
}

func (m Model) loadAlbums() tea.Cmd {
	st := m.st
	return func() tea.Msg {
		albums, err := st.AllAlbums()
		return albumsLoadedMsg{albums: albums, err: err}
	}
}

func (m Model) loadArtists() tea.Cmd {
	st := m.st
	return func() tea.Msg {
		artists, err := st.AllArtists()
		return artistsLoadedMsg{artists: artists, err: err}
	}
}

func (m Model) loadPlaylists() tea.Cmd {
	st := m.st
	return func() tea.Msg {
		playlists, err := st.AllPlaylists()
		return playlistsLoadedMsg{playlists: playlists, err: err}
	}
}

// loadView dispatches the loader for a library index view.
func (m Model) loadView(v libraryView) tea.Cmd {
	switch v {
	case viewAlbums:
		return m.loadAlbums()
	case viewArtists:
		return m.loadArtists()
	case viewPlaylists:
		return m.loadPlaylists()
	default:
		return m.loadLibrary(true)
	}
}

// reloadView refreshes whatever the library pane currently shows, plus
// the track cache the header count renders from.
func (m Model) reloadView() tea.Cmd {
	switch m.library.view {
	case viewAlbums, viewArtists, viewPlaylists:
		return tea.Batch(m.loadLibrary(false), m.loadView(m.library.view))
	default:
		return m.loadLibrary(false)
	}
}

func (m Model) openAlbum(a media.Album) tea.Cmd {
	st := m.st
	return func() tea.Msg {
		tracks, err := st.TracksByAlbum(a.ID)
		return collectionLoadedMsg{title: a.Title, back: viewAlbums, tracks: tracks, err: err}
	}
}

func (m Model) openArtist(a media.Artist) tea.Cmd {
	st := m.st
	return func() tea.Msg {
		tracks, err := st.TracksByArtist(a.ID)
		return collectionLoadedMsg{title: a.Name, back: viewArtists, tracks: tracks, err: err}
	}
}

func (m Model) openPlaylist(p media.Playlist) tea.Cmd {
	st := m.st
	return func() tea.Msg {
		tracks, err := st.PlaylistTracks(p.ID)
		return collectionLoadedMsg{
			title:      p.Name,
			playlistID: p.ID,
			back:       viewPlaylists,
			tracks:     tracks,
			err:        err,
		}
	}
}

// reopenPlaylist refreshes the drilled-in playlist after a mutation.
func (m Model) reopenPlaylist() tea.Cmd {
	return m.openPlaylist(media.Playlist{
		ID:   m.library.playlistID,
		Name: m.library.collectionTitle,
	})
}

func (m Model) search(query string) tea.Cmd {
	st := m.st
	query = strings.TrimSpace(query)
	return func() tea.Msg {
		if query == "" {
			tracks, err := st.AllTracks()
			return searchResultsMsg{tracks: tracks, err: err}
		}
		tracks, err := st.SearchTracks(query)
		return searchResultsMsg{query: query, tracks: tracks, err: err}
	}
}

// addTrackToPlaylist appends the track to the named playlist, creating
// it first if no playlist of that name exists.
func (m Model) addTrackToPlaylist(track media.Track, name string) tea.Cmd {
	st := m.st
	return func() tea.Msg {
		playlists, err := st.AllPlaylists()
		if err != nil {
			return playlistChangedMsg{op: errmsg.OpPlaylistAddTrack, err: err}
		}
		var id int64
		for _, p := range playlists {
			if strings.EqualFold(p.Name, name) {
				id = p.ID
				break
			}
		}
		if id == 0 {
			id, err = st.CreatePlaylist(name)
			if err != nil {
				return playlistChangedMsg{op: errmsg.OpPlaylistCreate, err: err}
			}
		}
		if err := st.AddTrackToPlaylist(id, track.ID); err != nil {
			return playlistChangedMsg{op: errmsg.OpPlaylistAddTrack, err: err}
		}
		return playlistChangedMsg{}
	}
}

func (m Model) renamePlaylist(id int64, name string) tea.Cmd {
	st := m.st
	return func() tea.Msg {
		return playlistChangedMsg{op: errmsg.OpPlaylistRename, err: st.RenamePlaylist(id, name)}
	}
}

func (m Model) deletePlaylist(id int64) tea.Cmd {
	st := m.st
	return func() tea.Msg {
		return playlistChangedMsg{op: errmsg.OpPlaylistDelete, err: st.DeletePlaylist(id)}
	}
}

func (m Model) removeFromPlaylist(playlistID, trackID int64) tea.Cmd {
	st := m.st
	return func() tea.Msg {
		return playlistChangedMsg{
			op:  errmsg.OpPlaylistRemoveTrack,
			err: st.RemoveTrackFromPlaylist(playlistID, trackID),
		}
	}
}

// startScan launches a rescan and begins draining its progress channel.
func (m *Model) startScan() tea.Cmd {
	if m.scanning || m.scanner == nil || len(m.sources) == 0 {
		return nil
	}
	m.scanning = true
	m.scanProgress = library.Progress{}
	m.scanCh = make(chan library.Progress, 8)
	m.scanDone = make(chan error, 1)

	ch, done, scanner, sources := m.scanCh, m.scanDone, m.scanner, m.sources
	go func() {
		done <- scanner.Scan(context.Background(), sources, ch)
	}()
	return waitScan(ch, done)
}

func waitScan(ch chan library.Progress, done chan error) tea.Cmd {
	return func() tea.Msg {
		p, ok := <-ch
		if !ok {
			return scanDoneMsg{err: <-done}
		}
		return scanProgressMsg(p)
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()
		return m, nil

	case tickMsg:
		m.sampleSession()
		return m, tick()

	case libraryLoadedMsg:
		if msg.err != nil {
			m.log.Error("failed to load library", "err", msg.err)
			m.statusErr = errmsg.Format(errmsg.OpLibraryLoad, msg.err)
			return m, nil
		}
		if msg.show {
			m.library.ShowTracks(msg.tracks)
		} else {
			m.library.SetTracks(msg.tracks)
		}
		return m, nil

	case albumsLoadedMsg:
		if msg.err != nil {
			m.statusErr = errmsg.Format(errmsg.OpLibraryBrowse, msg.err)
			return m, nil
		}
		m.library.ShowAlbums(msg.albums)
		return m, nil

	case artistsLoadedMsg:
		if msg.err != nil {
			m.statusErr = errmsg.Format(errmsg.OpLibraryBrowse, msg.err)
			return m, nil
		}
		m.library.ShowArtists(msg.artists)
		return m, nil

	case playlistsLoadedMsg:
		if msg.err != nil {
			m.statusErr = errmsg.Format(errmsg.OpLibraryBrowse, msg.err)
			return m, nil
		}
		m.library.ShowPlaylists(msg.playlists)
		return m, nil

	case collectionLoadedMsg:
		if msg.err != nil {
			m.statusErr = errmsg.Format(errmsg.OpLibraryBrowse, msg.err)
			return m, nil
		}
		m.library.ShowCollection(msg.title, msg.playlistID, msg.back, msg.tracks)
		return m, nil

	case searchResultsMsg:
		if msg.err != nil {
			m.statusErr = errmsg.Format(errmsg.OpLibrarySearch, msg.err)
			return m, nil
		}
		// Drop results that no longer match the input; a slower query
		// must not overwrite a newer one.
		if m.prompt == promptSearch && msg.query != strings.TrimSpace(m.promptInput.Value()) {
			return m, nil
		}
		if msg.query == "" {
			m.library.ShowTracks(msg.tracks)
		} else {
			m.library.ShowSearch(msg.query, msg.tracks)
		}
		return m, nil

	case playlistChangedMsg:
		if msg.err != nil {
			m.log.Error("playlist mutation failed", "op", string(msg.op), "err", msg.err)
			m.statusErr = errmsg.Format(msg.op, msg.err)
			return m, nil
		}
		m.statusErr = ""
		switch {
		case m.library.view == viewPlaylists:
			return m, m.loadPlaylists()
		case m.library.view == viewCollection && m.library.playlistID != 0:
			return m, m.reopenPlaylist()
		}
		return m, nil

	case scanProgressMsg:
		m.scanProgress = library.Progress(msg)
		return m, waitScan(m.scanCh, m.scanDone)

	case scanDoneMsg:
		m.scanning = false
		if msg.err != nil {
			m.log.Error("library scan failed", "err", msg.err)
			m.statusErr = errmsg.Format(errmsg.OpLibraryScan, msg.err)
			return m, nil
		}
		m.statusErr = ""
		return m, m.reloadView()

	case PlayFromLibraryMsg:
		m.ctrl.PlayTrackFromList(msg.Tracks, msg.Index)
		return m, nil

	case EnqueueTrackMsg:
		if msg.Next {
			m.ctrl.AddToQueueNext(msg.Track)
		} else {
			m.ctrl.AddToQueue(msg.Track)
		}
		return m, nil

	case SwitchViewMsg:
		return m, m.loadView(msg.View)

	case OpenAlbumMsg:
		return m, m.openAlbum(msg.Album)

	case OpenArtistMsg:
		return m, m.openArtist(msg.Artist)

	case OpenPlaylistMsg:
		return m, m.openPlaylist(msg.Playlist)

	case DeletePlaylistMsg:
		return m, m.deletePlaylist(msg.Playlist.ID)

	case RenamePlaylistPromptMsg:
		m.openPrompt(promptRenamePlaylist, "new playlist name")
		m.promptPlaylist = msg.Playlist
		m.promptInput.SetValue(msg.Playlist.Name)
		return m, m.promptInput.Focus()

	case AddToPlaylistPromptMsg:
		m.openPrompt(promptAddToPlaylist, "playlist name")
		m.promptTrack = msg.Track
		return m, m.promptInput.Focus()

	case RemoveFromPlaylistMsg:
		return m, m.removeFromPlaylist(msg.PlaylistID, msg.Track.ID)

	case JumpToTrackMsg:
		m.ctrl.JumpTo(msg.Index)
		return m, nil

	case RemoveTrackMsg:
		m.ctrl.RemoveFromQueue(msg.Index)
		return m, nil

	case MoveTrackMsg:
		m.ctrl.MoveQueueItem(msg.From, msg.To)
		return m, nil

	case ClearQueueMsg:
		m.ctrl.ClearQueue()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.prompt != promptNone {
		return m.handlePromptKey(msg)
	}

	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "tab":
		m.toggleFocus()
		return m, nil
	case " ":
		m.ctrl.TogglePlayPause()
		return m, nil
	case ">":
		m.ctrl.Next()
		return m, nil
	case "<":
		m.ctrl.Previous()
		return m, nil
	case "left":
		m.ctrl.SeekTo(max(m.player.PositionMs-seekStepMs, 0))
		return m, nil
	case "right":
		pos := m.player.PositionMs + seekStepMs
		if m.player.DurationMs > 0 && pos > m.player.DurationMs {
			pos = m.player.DurationMs
		}
		m.ctrl.SeekTo(pos)
		return m, nil
	case "r":
		m.ctrl.ToggleRepeatMode()
		return m, nil
	case "s":
		m.ctrl.ToggleShuffle()
		return m, nil
	case "+", "=":
		m.ctrl.SetPlaybackSpeed(min(m.player.Speed+speedStep, maxSpeed))
		return m, nil
	case "-":
		m.ctrl.SetPlaybackSpeed(max(m.player.Speed-speedStep, minSpeed))
		return m, nil
	case "u":
		return m, m.startScan()
	case "/":
		if m.focus == focusLibrary {
			m.openPrompt(promptSearch, "search library")
			return m, m.promptInput.Focus()
		}
		return m, nil
	}

	var cmd tea.Cmd
	switch m.focus {
	case focusLibrary:
		m.library, cmd = m.library.Update(msg)
	case focusQueue:
		m.queue, cmd = m.queue.Update(msg)
	}
	return m, cmd
}

func (m *Model) openPrompt(kind promptKind, placeholder string) {
	m.prompt = kind
	m.promptInput.SetValue("")
	m.promptInput.Placeholder = placeholder
	if kind == promptSearch {
		m.promptInput.Prompt = "/"
	} else {
		m.promptInput.Prompt = "> "
	}
}

func (m *Model) closePrompt() {
	m.prompt = promptNone
	m.promptInput.Blur()
	m.promptInput.SetValue("")
}

func (m Model) handlePromptKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		return m.commitPrompt()
	case "esc":
		kind := m.prompt
		m.closePrompt()
		if kind == promptSearch {
			return m, m.loadLibrary(true)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.promptInput, cmd = m.promptInput.Update(msg)
	if m.prompt == promptSearch {
		return m, tea.Batch(cmd, m.search(m.promptInput.Value()))
	}
	return m, cmd
}

func (m Model) commitPrompt() (tea.Model, tea.Cmd) {
	kind := m.prompt
	value := strings.TrimSpace(m.promptInput.Value())
	track := m.promptTrack
	playlist := m.promptPlaylist
	m.closePrompt()

	switch kind {
	case promptAddToPlaylist:
		if value == "" {
			return m, nil
		}
		return m, m.addTrackToPlaylist(track, value)
	case promptRenamePlaylist:
		if value == "" || value == playlist.Name {
			return m, nil
		}
		return m, m.renamePlaylist(playlist.ID, value)
	}
	// Search results stay on screen after the prompt closes.
	return m, nil
}

func (m *Model) toggleFocus() {
	if m.focus == focusLibrary {
		m.focus = focusQueue
	} else {
		m.focus = focusLibrary
	}
	m.library.SetFocused(m.focus == focusLibrary)
	m.queue.SetFocused(m.focus == focusQueue)
}

// sampleSession copies the controller's observables into the render
// snapshot.
func (m *Model) sampleSession() {
	track := m.ctrl.CurrentTrack.Get()
	m.player = playerState{
		HasTrack:   track != nil,
		Playing:    m.ctrl.Playing.Get(),
		PositionMs: m.ctrl.Position.Get(),
		DurationMs: m.ctrl.Duration.Get(),
		Repeat:     m.ctrl.Repeat.Get(),
		Shuffle:    m.ctrl.Shuffle.Get(),
		Speed:      m.ctrl.Speed.Get(),
	}
	m.playingID = 0
	if track != nil {
		m.player.Title = track.Title
		m.player.Artist = track.Artist
		m.playingID = track.ID
	}
	m.playingIndex = m.ctrl.QueueIndex.Get()
	m.queue.SetTracks(m.ctrl.Queue.Get(), m.playingIndex)
}

func (m *Model) layout() {
	paneHeight := max(m.height-5, 4)
	libWidth := m.width * 3 / 5
	m.library.SetSize(libWidth, paneHeight)
	m.queue.SetSize(m.width-libWidth, paneHeight)
}

func (m Model) View() string {
	if m.width == 0 {
		return ""
	}

	header := headerStyle.Render("LocalWave")
	count := humanize.Comma(int64(len(m.library.tracks)))
	header += dimmedStyle.Render(fmt.Sprintf("  %s tracks", count))
	if m.scanning {
		header += statusStyle.Render(fmt.Sprintf("  scanning %d/%d",
			m.scanProgress.Processed, m.scanProgress.Total))
	}

	panes := lipgloss.JoinHorizontal(lipgloss.Top,
		m.library.View(m.playingID), m.queue.View())

	status := m.statusLine()

	return header + "\n" + panes + "\n" +
		renderPlayerBar(m.player, m.width) + "\n" + status
}

func (m Model) statusLine() string {
	if m.statusErr != "" {
		return statusStyle.Render(m.statusErr)
	}
	if m.prompt != promptNone {
		return m.promptInput.View()
	}
	help := "space play/pause · </> prev/next · ←/→ seek · r repeat · s shuffle · v views · p playlist · / search · u rescan · q quit"
	return dimmedStyle.Render(truncate(help, m.width))
}
