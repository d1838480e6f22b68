package rhythm

import (
	"fmt"
	"time"
)

// Snapshot is an interface for probing details about the timeline established by a metronome.
type Snapshot interface {
	// GetStartTime gets the metronome's timeline origin.
	GetStartTime() int64

	// GetTempo gets the metronome's tempo.
	GetTempo() float64

	// GetBeatsPerBar gets the metronome's bar length in beats.
	GetBeatsPerBar() int

	// GetBarsPerPhrase gets the metronome's phrase length in bars.
	GetBarsPerPhrase() int

	// GetInstant gets the point in time with respect to which the snapshot is computed.
	GetInstant() int64

	// GetBeatInterval gets the metronome's beat length in time.
	GetBeatInterval() float64

	// GetBarInterval gets the metronome's bar length in time.
	GetBarInterval() float64

	// GetPhraseInterval gets the metronome's phrase length in time.
	GetPhraseInterval() float64

	// GetBeat gets the metronome's beat number.
	GetBeat() int64

	// GetBar gets the metronome's bar number.
	GetBar() int64

	// GetPhrase gets the metronome's phrase number.
	GetPhrase() int64

	// GetBeatPhase gets the metronome's beat phase at the time of the snapshot.
	GetBeatPhase() float64

	// GetBarPhase gets the metronome's bar phase at the time of the snapshot.
	GetBarPhase() float64

	// GetPhrasePhase gets the metronome's phrase phase at the time of the snapshot.
	GetPhrasePhase() float64

	// GetTimeOfBeat determines the timestamp at which a particular beat will occur.
	GetTimeOfBeat(beat int64) int64

	// GetBeatWithinBar returns the beat number of the snapshot relative to the start of the bar.
	GetBeatWithinBar() int

	// IsDownBeat checks whether the current beat at the time of the snapshot was the first beat in its bar.
	IsDownBeat() bool

	// GetBeatWithinPhrase returns the beat number of the snapshot relative to the start of the phrase.
	GetBeatWithinPhrase() int

	// IsPhraseStart checks whether the current beat at the time of the snapshot was the first beat in its phrase.
	IsPhraseStart() bool

	// GetTimeOfBar determines the timestamp at which a particular bar will occur.
	GetTimeOfBar(bar int64) int64

	// GetBarWithinPhrase returns the bar number of the snapshot relative to the start of the phrase.
	GetBarWithinPhrase() int

	// GetTimeOfPhrase determines the timestamp at which a particular phrase will occur.
	GetTimeOfPhrase(phrase int64) int64

	// GetMarker returns the time represented by the snapshot as "phrase.bar.beat".
	GetMarker() string

	// DistanceFromBeat determines how far in time the snapshot is from its closest beat.
	DistanceFromBeat() float64

	// DistanceFromBar determines how far in time the snapshot is from its closest bar boundary.
	DistanceFromBar() float64

	// DistanceFromPhrase determines how far in time the snapshot is from its closest phrase boundary.
	DistanceFromPhrase() float64
}

// metronomeSnapshot is the concrete Snapshot computed by Metronome.Snapshot.
// GetStartTime/GetInstant/GetTimeOf* are expressed in Unix milliseconds,
// matching the Electro-derived interface.
type metronomeSnapshot struct {
	startTime     time.Time
	tempo         float64
	beatsPerBar   int
	barsPerPhrase int
	instant       time.Time
}

func (s *metronomeSnapshot) GetStartTime() int64   { return s.startTime.UnixMilli() }
func (s *metronomeSnapshot) GetTempo() float64     { return s.tempo }
func (s *metronomeSnapshot) GetBeatsPerBar() int   { return s.beatsPerBar }
func (s *metronomeSnapshot) GetBarsPerPhrase() int { return s.barsPerPhrase }
func (s *metronomeSnapshot) GetInstant() int64     { return s.instant.UnixMilli() }

func (s *metronomeSnapshot) GetBeatInterval() float64 {
	return beatsToMilliseconds(1, s.tempo)
}
func (s *metronomeSnapshot) GetBarInterval() float64 {
	return s.GetBeatInterval() * float64(s.beatsPerBar)
}
func (s *metronomeSnapshot) GetPhraseInterval() float64 {
	return s.GetBarInterval() * float64(s.barsPerPhrase)
}

func (s *metronomeSnapshot) GetBeat() int64 {
	return int64(markerNumber(s.instant, s.startTime, s.GetBeatInterval()))
}

func (s *metronomeSnapshot) GetBar() int64 {
	return (s.GetBeat()-1)/int64(s.beatsPerBar) + 1
}

func (s *metronomeSnapshot) GetPhrase() int64 {
	return (s.GetBar()-1)/int64(s.barsPerPhrase) + 1
}

func (s *metronomeSnapshot) GetBeatPhase() float64 {
	return markerPhase(s.instant, s.startTime, s.GetBeatInterval())
}

func (s *metronomeSnapshot) GetBarPhase() float64 {
	withinBar := float64(s.GetBeatWithinBar() - 1)
	return (withinBar + s.GetBeatPhase()) / float64(s.beatsPerBar)
}

func (s *metronomeSnapshot) GetPhrasePhase() float64 {
	withinPhrase := float64(s.GetBarWithinPhrase() - 1)
	return (withinPhrase + s.GetBarPhase()) / float64(s.barsPerPhrase)
}

func (s *metronomeSnapshot) GetTimeOfBeat(beat int64) int64 {
	ms := beatsToMilliseconds(int(beat-1), s.tempo)
	return s.startTime.Add(durationFromMillis(ms)).UnixMilli()
}

func (s *metronomeSnapshot) GetBeatWithinBar() int {
	beat := s.GetBeat()
	return int((beat-1)%int64(s.beatsPerBar)) + 1
}

func (s *metronomeSnapshot) IsDownBeat() bool {
	return s.GetBeatWithinBar() == 1
}

func (s *metronomeSnapshot) GetBeatWithinPhrase() int {
	beat := s.GetBeat()
	beatsPerPhrase := int64(s.beatsPerBar * s.barsPerPhrase)
	return int((beat-1)%beatsPerPhrase) + 1
}

func (s *metronomeSnapshot) IsPhraseStart() bool {
	return s.GetBeatWithinPhrase() == 1
}

func (s *metronomeSnapshot) GetTimeOfBar(bar int64) int64 {
	beat := (bar-1)*int64(s.beatsPerBar) + 1
	return s.GetTimeOfBeat(beat)
}

func (s *metronomeSnapshot) GetBarWithinPhrase() int {
	bar := s.GetBar()
	return int((bar-1)%int64(s.barsPerPhrase)) + 1
}

func (s *metronomeSnapshot) GetTimeOfPhrase(phrase int64) int64 {
	bar := (phrase-1)*int64(s.barsPerPhrase) + 1
	return s.GetTimeOfBar(bar)
}

func (s *metronomeSnapshot) GetMarker() string {
	return fmt.Sprintf("%d.%d.%d", s.GetPhrase(), s.GetBarWithinPhrase(), s.GetBeatWithinBar())
}

func (s *metronomeSnapshot) DistanceFromBeat() float64 {
	return signedDistance(s.GetBeatPhase(), s.GetBeatInterval())
}

func (s *metronomeSnapshot) DistanceFromBar() float64 {
	return signedDistance(s.GetBarPhase(), s.GetBarInterval())
}

func (s *metronomeSnapshot) DistanceFromPhrase() float64 {
	return signedDistance(s.GetPhrasePhase(), s.GetPhraseInterval())
}

// signedDistance converts a [0,1) phase into a signed millisecond offset
// from the nearest boundary: negative if the snapshot falls before it,
// positive if after.
func signedDistance(phase, interval float64) float64 {
	raw := phase * interval
	if raw > interval/2 {
		return raw - interval
	}
	return raw
}
