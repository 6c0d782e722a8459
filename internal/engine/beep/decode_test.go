package beep

import (
	"bytes"
	"io"
	"testing"
)

func TestURIToPath(t *testing.T) {
	if got := uriToPath("file:///music/a.mp3"); got != "/music/a.mp3" {
		t.Errorf("uriToPath = %q, want /music/a.mp3", got)
	}
	if got := uriToPath("/music/a.mp3"); got != "/music/a.mp3" {
		t.Errorf("uriToPath on bare path = %q, want unchanged", got)
	}
}

func TestSkipID3v2(t *testing.T) {
	// ID3v2 header with a syncsafe size of 20 bytes, followed by padding
	// and then the payload.
	header := []byte{'I', 'D', '3', 4, 0, 0, 0, 0, 0, 20}
	payload := []byte("fLaC")
	data := append(append(header, make([]byte, 20)...), payload...)

	r := bytes.NewReader(data)
	if err := skipID3v2(r); err != nil {
		t.Fatalf("skipID3v2 failed: %v", err)
	}
	rest, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if string(rest) != "fLaC" {
		t.Errorf("after skip = %q, want fLaC", rest)
	}
}

func TestSkipID3v2_NoTag(t *testing.T) {
	data := []byte("fLaC and then some content")
	r := bytes.NewReader(data)
	if err := skipID3v2(r); err != nil {
		t.Fatalf("skipID3v2 failed: %v", err)
	}
	rest, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if string(rest) != string(data) {
		t.Error("reader not rewound to start when no tag present")
	}
}

func TestSkipID3v2_ShortFile(t *testing.T) {
	r := bytes.NewReader([]byte("ID3"))
	if err := skipID3v2(r); err != nil {
		t.Fatalf("skipID3v2 on short file failed: %v", err)
	}
	rest, _ := io.ReadAll(r)
	if string(rest) != "ID3" {
		t.Error("short file should be rewound to start")
	}
}
