package edl

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/TelioTortay/ATEMLogger/internal/timecode"
	"github.com/TelioTortay/ATEMLogger/internal/tracker"
)

func tc(t *testing.T, s string) timecode.Timecode {
	t.Helper()
	v, err := timecode.Parse(s)
	if err != nil {
		t.Fatalf("Parse(%q): %v", s, err)
	}
	return v
}

func TestGenerate_SingleClip(t *testing.T) {
	clips := []tracker.Clip{
		{Source: "Input1", Start: tc(t, "00:00:00:00"), End: tc(t, "00:00:05:00")},
	}

	got := string(Generate(clips, 0, 25))
	want := "TITLE: ATEM Program Output\n" +
		"FCM: NON-DROP FRAME\n" +
		"0001  AX    V     C   00:00:00:00 00:00:05:00 00:00:00:00 00:00:05:00\n" +
		"* FROM CLIP NAME: Input1\n"
	if got != want {
		t.Errorf("got:\n%s\nwant:\n%s", got, want)
	}
}

func TestGenerate_SequenceIDs(t *testing.T) {
	var clips []tracker.Clip
	for i := 0; i < 12; i++ {
		clips = append(clips, tracker.Clip{
			Source: "Input1",
			Start:  tc(t, "00:00:00:00"),
			End:    tc(t, "00:00:01:00"),
		})
	}

	lines := strings.Split(strings.TrimRight(string(Generate(clips, 0, 25)), "\n"), "\n")
	// 2 header lines + 2 lines per clip
	if len(lines) != 2+2*len(clips) {
		t.Fatalf("got %d lines, want %d", len(lines), 2+2*len(clips))
	}
	if !strings.HasPrefix(lines[2], "0001  ") {
		t.Errorf("first event line = %q", lines[2])
	}
	if !strings.HasPrefix(lines[2+2*11], "0012  ") {
		t.Errorf("last event line = %q", lines[2+2*11])
	}
}

func TestGenerate_CompensationShiftsWithoutMutating(t *testing.T) {
	clips := []tracker.Clip{
		{Source: "Input2", Start: tc(t, "00:00:00:24"), End: tc(t, "00:00:05:00")},
	}
	before := clips[0]

	got := string(Generate(clips, 2, 25))
	if !strings.Contains(got, "0001  AX    V     C   00:00:01:01 00:00:05:02 00:00:01:01 00:00:05:02") {
		t.Errorf("compensated line missing:\n%s", got)
	}
	if clips[0] != before {
		t.Errorf("stored clip mutated: %+v", clips[0])
	}

	// Same clip count and ordering as the uncompensated render.
	plain := strings.Split(string(Generate(clips, 0, 25)), "\n")
	comp := strings.Split(got, "\n")
	if len(plain) != len(comp) {
		t.Errorf("line count changed with compensation: %d vs %d", len(plain), len(comp))
	}
}

func TestWrite_EmptyClipListSkipsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.edl")
	if err := Write(path, nil, 0, 25); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("file was written for an empty clip list")
	}
}

func TestWrite_RoundTripThroughParse(t *testing.T) {
	clips := []tracker.Clip{
		{Source: "Input1", Start: tc(t, "00:00:00:00"), End: tc(t, "00:00:02:00")},
		{Source: "Input5", Start: tc(t, "00:00:02:00"), End: tc(t, "00:10:00:13")},
	}
	path := filepath.Join(t.TempDir(), "out.edl")
	if err := Write(path, clips, 0, 25); err != nil {
		t.Fatalf("Write: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	parsed, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(parsed) != len(clips) {
		t.Fatalf("got %d clips, want %d", len(parsed), len(clips))
	}
	for i := range clips {
		if parsed[i] != clips[i] {
			t.Errorf("clip %d = %+v, want %+v", i, parsed[i], clips[i])
		}
	}
}

func TestParse_RejectsForeignEDL(t *testing.T) {
	foreign := "TITLE: Some Other Project\nFCM: NON-DROP FRAME\n"
	if _, err := Parse([]byte(foreign)); err == nil {
		t.Error("expected error for a foreign EDL title")
	}
}

func TestParse_MalformedEventLine(t *testing.T) {
	bad := TitleLine + "\n" + fcmLine + "\n0001  AX  V  C  garbage\n"
	if _, err := Parse([]byte(bad)); err == nil {
		t.Error("expected error for malformed event line")
	}
}
