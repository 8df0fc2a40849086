// Package demux splits a streamed model reply into an internal channel and a
// final channel delimited by in-band text markers.
package demux

import "strings"

const (
	InternalStart = "<<<INTERNAL>>>"
	InternalEnd   = "<<<END_INTERNAL>>>"
	FinalStart    = "<<<FINAL>>>"
	FinalEnd      = "<<<END_FINAL>>>"
)

var markers = [...]string{InternalStart, InternalEnd, FinalStart, FinalEnd}

// State is the parser position relative to the markers.
type State int

const (
	Neutral State = iota
	InsideInternal
	InsideFinal
)

func (s State) String() string {
	switch s {
	case InsideInternal:
		return "internal"
	case InsideFinal:
		return "final"
	default:
		return "neutral"
	}
}

// Channel names an output channel.
type Channel int

const (
	ChannelFinal Channel = iota
	ChannelInternal
)

// safeLen returns how many leading bytes of buf can be emitted without
// cutting off a trailing strict prefix of any marker.
func safeLen(buf string) int {
	hold := 0
	for _, m := range markers {
		limit := min(len(m)-1, len(buf))
		for n := limit; n > hold; n-- {
			if strings.HasSuffix(buf, m[:n]) {
				hold = n
				break
			}
		}
	}
	return len(buf) - hold
}

// step consumes as much of buf as the current state allows. It returns the
// emissions in order, the unconsumed remainder and the new state. When final
// is true no bytes are held back.
func step(buf string, state State, final bool) ([]emission, string, State) {
	var out []emission
	for buf != "" {
		switch state {
		case InsideInternal, InsideFinal:
			end, ch := InternalEnd, ChannelInternal
			if state == InsideFinal {
				end, ch = FinalEnd, ChannelFinal
			}
			if i := strings.Index(buf, end); i >= 0 {
				out = appendEmission(out, ch, buf[:i])
				buf = buf[i+len(end):]
				state = Neutral
				continue
			}
			n := len(buf)
			if !final {
				n = safeLen(buf)
			}
			out = appendEmission(out, ch, buf[:n])
			return out, buf[n:], state

		default:
			i, next, marker := earliestStart(buf)
			if i >= 0 {
				out = appendEmission(out, ChannelFinal, buf[:i])
				buf = buf[i+len(marker):]
				state = next
				continue
			}
			n := len(buf)
			if !final {
				n = safeLen(buf)
			}
			out = appendEmission(out, ChannelFinal, buf[:n])
			return out, buf[n:], state
		}
	}
	return out, "", state
}

func earliestStart(buf string) (int, State, string) {
	ii := strings.Index(buf, InternalStart)
	fi := strings.Index(buf, FinalStart)
	switch {
	case ii < 0 && fi < 0:
		return -1, Neutral, ""
	case fi < 0 || (ii >= 0 && ii < fi):
		return ii, InsideInternal, InternalStart
	default:
		return fi, InsideFinal, FinalStart
	}
}

type emission struct {
	channel Channel
	text    string
}

func appendEmission(out []emission, ch Channel, text string) []emission {
	if text == "" {
		return out
	}
	return append(out, emission{channel: ch, text: text})
}

// Split scans a complete reply in one pass and returns the text of each
// channel. It is the non-streaming reference for Demuxer.
func Split(s string) (internal, final string) {
	emissions, _, _ := step(s, Neutral, true)
	var ib, fb strings.Builder
	for _, e := range emissions {
		if e.channel == ChannelInternal {
			ib.WriteString(e.text)
		} else {
			fb.WriteString(e.text)
		}
	}
	return ib.String(), fb.String()
}
