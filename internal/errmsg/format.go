// Package errmsg provides consistent error formatting for user-facing messages.
package errmsg

import "fmt"

// Op represents an operation that can fail.
type Op string

const (
	// Library operations
	OpLibraryScan   Op = "scan library"
	OpLibraryLoad   Op = "load library"
	OpLibraryBrowse Op = "browse library"
	OpLibrarySearch Op = "search library"

	// Queue operations
	OpQueueAdd    Op = "add to queue"
	OpQueueRemove Op = "remove from queue"
	OpQueueMove   Op = "move queue item"
	OpQueueClear  Op = "clear queue"

	// Playback operations
	OpPlaybackStart   Op = "start playback"
	OpPlaybackSeek    Op = "seek"
	OpPlaybackRestore Op = "restore playback session"

	// Playlist operations
	OpPlaylistCreate      Op = "create playlist"
	OpPlaylistRename      Op = "rename playlist"
	OpPlaylistDelete      Op = "delete playlist"
	OpPlaylistAddTrack    Op = "add track to playlist"
	OpPlaylistRemoveTrack Op = "remove track from playlist"

	// Initialization
	OpInitialize Op = "initialize application"
)

// Format creates a user-friendly error message.
func Format(op Op, err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("Failed to %s: %v", op, err)
}

// FormatWith creates an error message with additional context.
func FormatWith(op Op, context string, err error) string {
	if err == nil {
		return ""
	}
	if context == "" {
		return Format(op, err)
	}
	return fmt.Sprintf("Failed to %s '%s': %v", op, context, err)
}
