package lang

// TimelineManifest summarizes a finished Timeline for embedders that want a
// quick-glance JSON artifact without walking every event — reimagined from
// the teacher's ROM-layout BuildManifest into timeline statistics instead
// of section offsets, since this compiler has no asset/ROM layout concept.
type TimelineManifest struct {
	FormatVersion    int                `json:"format_version"`
	DurationMicros   int64              `json:"duration_micros"`
	EventCount       int                `json:"event_count"`
	EventCountByKind map[string]int     `json:"event_count_by_kind"`
	ChannelsTouched  []int              `json:"channels_touched"`
}

func buildTimelineManifest(tl *Timeline) *TimelineManifest {
	if tl == nil {
		return nil
	}
	m := &TimelineManifest{
		FormatVersion:    1,
		DurationMicros:   int64(tl.Duration),
		EventCount:       len(tl.Events),
		EventCountByKind: make(map[string]int),
	}
	channelSeen := make(map[int]bool)
	for _, e := range tl.Events {
		m.EventCountByKind[statusKindName(e.Status())]++
		if isChannelStatus(e.Status()) {
			channelSeen[int(e.Status()&0x0F)] = true
		}
	}
	for ch := range channelSeen {
		m.ChannelsTouched = append(m.ChannelsTouched, ch)
	}
	return m
}

func isChannelStatus(status byte) bool {
	top := status & 0xF0
	return top == 0x80 || top == 0x90 || top == 0xB0
}

func statusKindName(status byte) string {
	switch status & 0xF0 {
	case 0x80:
		return "note_off"
	case 0x90:
		return "note_on"
	case 0xB0:
		return "control_change"
	}
	switch status {
	case 0xFA:
		return "start"
	case 0xFC:
		return "stop"
	case 0xF8:
		return "timing_clock"
	case 0xFE:
		return "active_sense"
	}
	return "unknown"
}
