package lang

import (
	"sort"

	"gitlab.com/gomidi/midi/v2"
)

// Unit is a signed duration with microsecond resolution, matching the
// resolution MIDI clock/active-sensing timing needs.
type Unit int64

const (
	oneMinute              Unit = 60_000_000
	activeSensingInterval  Unit = 270_000
	velocityDefault        uint8 = 64

	ccAllSoundOff  uint8 = 120
	ccAllResetCC   uint8 = 121
	ccAllNotesOff  uint8 = 123
)

const (
	CHANNEL_MIN uint64 = 1
	CHANNEL_MAX uint64 = 16
)

// Event is a single timestamped MIDI message. The wire bytes come from
// gitlab.com/gomidi/midi/v2's message constructors rather than hand-rolled
// status/data byte packing — see SPEC_FULL.md's DOMAIN STACK section.
type Event struct {
	Time Unit
	Msg  midi.Message
}

func (e Event) Status() byte {
	if len(e.Msg) > 0 {
		return byte(e.Msg[0])
	}
	return 0
}

func (e Event) Data1() byte {
	if len(e.Msg) > 1 {
		return byte(e.Msg[1])
	}
	return 0
}

func (e Event) Data2() byte {
	if len(e.Msg) > 2 {
		return byte(e.Msg[2])
	}
	return 0
}

// Timeline is the ordered event stream plus its overall duration, an upper
// bound on every contained event's timestamp.
type Timeline struct {
	Events   []Event
	Duration Unit
}

// lowerSequence turns one sequence into a partial timeline starting at t0 on
// channel chan_ (0-based). Duration is t0 + per*|seq|, matching every step
// advancing the clock regardless of BEAT/SKIP.
func lowerSequence(seq Sequence, chan_ uint8, t0 Unit) Timeline {
	if seq.BPM == 0 {
		return Timeline{Duration: t0}
	}
	per := oneMinute / Unit(seq.BPM)

	tl := Timeline{}
	t := t0
	for _, step := range seq.Steps {
		if step.Kind == BeatStep {
			note := uint8(step.Note)
			tl.Events = append(tl.Events,
				Event{Time: t, Msg: midi.NoteOn(chan_, note, velocityDefault)},
				Event{Time: t + per, Msg: midi.NoteOff(chan_, note)},
			)
		}
		t += per
	}
	tl.Duration = t
	return tl
}

// finalizeTimeline performs the global post-processing pass described in
// SPEC_FULL.md/spec.md §4.5: active sensing, MIDI clock, a stable sort,
// start/stop framing, and the per-channel reset prefix. Called once by
// CompileSource after compileProgram returns; it leaves a timeline with no
// events untouched.
func finalizeTimeline(tl *Timeline, globalBPM uint64) {
	if len(tl.Events) == 0 {
		return
	}

	for t := Unit(0); t <= tl.Duration; t += activeSensingInterval {
		tl.Events = append(tl.Events, Event{Time: t, Msg: midi.Activesense()})
	}

	if globalBPM > 0 {
		clockPeriod := oneMinute / Unit(globalBPM*24)
		for t := Unit(0); t <= tl.Duration; t += clockPeriod {
			tl.Events = append(tl.Events, Event{Time: t, Msg: midi.TimingClock()})
		}
	}

	sort.SliceStable(tl.Events, func(i, j int) bool {
		return tl.Events[i].Time < tl.Events[j].Time
	})

	tl.Events = append(tl.Events, Event{Time: tl.Duration, Msg: midi.Stop()})
	tl.Events = append([]Event{{Time: 0, Msg: midi.Start()}}, tl.Events...)

	resets := make([]Event, 0, int(CHANNEL_MAX)*3)
	for ch := CHANNEL_MIN; ch <= CHANNEL_MAX; ch++ {
		c := uint8(ch - 1)
		resets = append(resets,
			Event{Time: 0, Msg: midi.ControlChange(c, ccAllResetCC, 0)},
			Event{Time: 0, Msg: midi.ControlChange(c, ccAllNotesOff, 0)},
			Event{Time: 0, Msg: midi.ControlChange(c, ccAllSoundOff, 0)},
		)
	}
	tl.Events = append(resets, tl.Events...)
}
