package media

import "testing"

func TestRepeatModeCycle(t *testing.T) {
	// Toggling n times from Off must yield [Off, All, One][n mod 3].
	want := []RepeatMode{RepeatOff, RepeatAll, RepeatOne}

	mode := RepeatOff
	for n := 1; n <= 12; n++ {
		mode = mode.Cycle()
		if mode != want[n%3] {
			t.Fatalf("after %d toggles: mode = %v, want %v", n, mode, want[n%3])
		}
	}
}

func TestRepeatModeString(t *testing.T) {
	tests := []struct {
		mode RepeatMode
		want string
	}{
		{RepeatOff, "Off"},
		{RepeatOne, "One"},
		{RepeatAll, "All"},
		{RepeatMode(42), "Unknown"},
	}
	for _, tt := range tests {
		if got := tt.mode.String(); got != tt.want {
			t.Errorf("String(%d) = %q, want %q", int(tt.mode), got, tt.want)
		}
	}
}

func TestDefaultPlaybackState(t *testing.T) {
	st := DefaultPlaybackState()
	if st.CurrentTrackID != nil {
		t.Errorf("CurrentTrackID = %v, want nil", *st.CurrentTrackID)
	}
	if st.PositionMs != 0 {
		t.Errorf("PositionMs = %d, want 0", st.PositionMs)
	}
	if st.RepeatMode != RepeatOff {
		t.Errorf("RepeatMode = %v, want Off", st.RepeatMode)
	}
	if st.Speed != 1.0 {
		t.Errorf("Speed = %v, want 1.0", st.Speed)
	}
}

func TestTrackFormattedDuration(t *testing.T) {
	tr := Track{DurationMs: 83_000}
	if got := tr.FormattedDuration(); got != "1:23" {
		t.Errorf("FormattedDuration() = %q, want %q", got, "1:23")
	}
}
