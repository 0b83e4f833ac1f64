package lang

import "testing"

func compileOK(t *testing.T, src string) *Timeline {
	t.Helper()
	res, err := CompileSource([]byte(src), nil)
	if err != nil {
		t.Fatalf("unexpected compile error for %q: %v\ndiagnostics: %+v", src, err, res.Diagnostics)
	}
	if res.Timeline == nil {
		t.Fatalf("expected a timeline for %q", src)
	}
	return res.Timeline
}

func noteOns(tl *Timeline, channel uint8) []Event {
	var out []Event
	for _, e := range tl.Events {
		if e.Status()&0xF0 == 0x90 && e.Status()&0x0F == channel {
			out = append(out, e)
		}
	}
	return out
}

func TestMissingMetaPreludeIsSemanticError(t *testing.T) {
	_, err := CompileSource([]byte("send 1 beat\n"), nil)
	if err == nil {
		t.Fatalf("expected a semantic error for a missing bpm/note prelude")
	}
}

// S1 — Euclidean 3:8 on channel 1, C4.
func TestEuclidean3Over8(t *testing.T) {
	tl := compileOK(t, "bpm 120 note 60\nsend 1 3:8\n")

	ons := noteOns(tl, 0)
	if len(ons) != 3 {
		t.Fatalf("expected 3 NOTE_ON events, got %d", len(ons))
	}
	want := []Unit{0, 1_500_000, 3_000_000}
	for i, e := range ons {
		if e.Time != want[i] {
			t.Errorf("NOTE_ON %d: got time %d, want %d", i, e.Time, want[i])
		}
		if e.Data1() != 60 {
			t.Errorf("NOTE_ON %d: got note %d, want 60", i, e.Data1())
		}
	}
}

// S2 — parallel branches with $.
func TestParallelSendBranches(t *testing.T) {
	tl := compileOK(t, "bpm 120 note 60\nsend 1 beat beat skip beat $ send 2 skip beat skip beat\n")

	if tl.Duration != 2_000_000 {
		t.Fatalf("expected total duration 2_000_000, got %d", tl.Duration)
	}
	if len(noteOns(tl, 0)) == 0 {
		t.Fatalf("expected NOTE_ON events on channel 1")
	}
	if len(noteOns(tl, 1)) == 0 {
		t.Fatalf("expected NOTE_ON events on channel 2")
	}
}

// S3 — rotl/rotr inverse: (3:8 rotl 2) rotr 2 equals 3:8.
func TestRotlRotrInverse(t *testing.T) {
	tl := compileOK(t, "bpm 100 note 60\nsend 1 (3:8 rotl 2) rotr 2\n")

	ons := noteOns(tl, 0)
	if len(ons) != 3 {
		t.Fatalf("expected 3 NOTE_ON events, got %d", len(ons))
	}
	per := Unit(600_000)
	want := []Unit{0, 3 * per, 6 * per}
	for i, e := range ons {
		if e.Time != want[i] {
			t.Errorf("NOTE_ON %d: got time %d, want %d", i, e.Time, want[i])
		}
	}
}

// S4 — map cycles notes across every step.
func TestMapCyclesNotes(t *testing.T) {
	tl := compileOK(t, "bpm 100 note 60\nsend 1 beat beat beat beat map 60 62 64\n")

	ons := noteOns(tl, 0)
	if len(ons) != 4 {
		t.Fatalf("expected 4 NOTE_ON events, got %d", len(ons))
	}
	want := []byte{60, 62, 64, 60}
	for i, e := range ons {
		if e.Data1() != want[i] {
			t.Errorf("NOTE_ON %d: got note %d, want %d", i, e.Data1(), want[i])
		}
	}
}

// S5 — chain then reuse: base cat (base rev).
func TestChainThenReuse(t *testing.T) {
	tl := compileOK(t, "bpm 120 note 60\nbeat skip beat chain base\nsend 1 base cat (base rev)\n")

	ons := noteOns(tl, 0)
	if len(ons) != 4 {
		t.Fatalf("expected 4 NOTE_ON events (beats in BEAT SKIP BEAT BEAT SKIP BEAT), got %d", len(ons))
	}
}

// S6 — rep 0 is rejected.
func TestRepZeroRejected(t *testing.T) {
	_, err := CompileSource([]byte("bpm 120 note 60\nsend 1 (beat skip) rep 0\n"), nil)
	if err == nil {
		t.Fatalf("expected a semantic error for rep 0")
	}
}

func TestNoteOnOffPairingInterval(t *testing.T) {
	tl := compileOK(t, "bpm 120 note 60\nsend 1 beat\n")

	var on, off *Event
	for i := range tl.Events {
		e := &tl.Events[i]
		switch e.Status() & 0xF0 {
		case 0x90:
			if on == nil {
				on = e
			}
		case 0x80:
			if off == nil {
				off = e
			}
		}
	}
	if on == nil || off == nil {
		t.Fatalf("expected both a NOTE_ON and a NOTE_OFF")
	}
	if off.Time-on.Time != 500_000 {
		t.Fatalf("expected NOTE_OFF exactly 500_000us after NOTE_ON, got %d", off.Time-on.Time)
	}
}

func TestStartAndStopFraming(t *testing.T) {
	tl := compileOK(t, "bpm 120 note 60\nsend 1 3:8\n")

	if tl.Events[len(tl.Events)-1].Status() != 0xFC {
		t.Fatalf("expected the final event to be STOP")
	}
	startCount := 0
	for _, e := range tl.Events {
		if e.Status() == 0xFA {
			startCount++
		}
	}
	if startCount != 1 {
		t.Fatalf("expected exactly one START event, got %d", startCount)
	}
}

func TestChannelModeResetPrefix(t *testing.T) {
	tl := compileOK(t, "bpm 120 note 60\nsend 1 beat\n")

	counts := make(map[uint8]int)
	for _, e := range tl.Events[:48] {
		if e.Status()&0xF0 == 0xB0 {
			counts[e.Status()&0x0F]++
		}
	}
	for ch := uint8(0); ch < 16; ch++ {
		if counts[ch] != 3 {
			t.Errorf("channel %d: expected 3 channel-mode resets in the leading prefix, got %d", ch, counts[ch])
		}
	}
}

func TestChannelOutOfRangeIsSemanticError(t *testing.T) {
	_, err := CompileSource([]byte("bpm 120 note 60\nsend 17 beat\n"), nil)
	if err == nil {
		t.Fatalf("expected a semantic error for channel 17")
	}
}

func TestRedefinitionIsSemanticError(t *testing.T) {
	_, err := CompileSource([]byte("bpm 120 note 60\nlet x 1\nlet x 2\nsend 1 beat\n"), nil)
	if err == nil {
		t.Fatalf("expected a semantic error for redefining x")
	}
}

func TestEuclideanBeatsExceedsStepsIsSemanticError(t *testing.T) {
	_, err := CompileSource([]byte("bpm 120 note 60\nsend 1 9:8\n"), nil)
	if err == nil {
		t.Fatalf("expected a semantic error for beats > steps")
	}
}
