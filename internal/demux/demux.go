package demux

import (
	"io"
	"strings"
	"sync"
)

// Demuxer routes streamed fragments to an internal and a final writer.
// Internal text is written only while the toggle is on; otherwise it is
// dropped. Final text is always written and also accumulated as the answer.
//
// A Demuxer serves one streamed reply. Feed it with Write and call Finish once.
type Demuxer struct {
	mu       sync.Mutex
	final    io.Writer
	internal io.Writer
	toggle   *Toggle

	buf    string
	state  State
	answer strings.Builder
	err    error
	done   bool
}

// New returns a Demuxer in the Neutral state. A nil writer discards its
// channel; a nil toggle keeps the internal channel hidden.
func New(final, internal io.Writer, toggle *Toggle) *Demuxer {
	if final == nil {
		final = io.Discard
	}
	if internal == nil {
		internal = io.Discard
	}
	return &Demuxer{final: final, internal: internal, toggle: toggle}
}

// WriteString feeds one fragment. It reports the first writer error it saw;
// text is consumed regardless so the answer stays complete.
func (d *Demuxer) WriteString(fragment string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.done {
		return io.ErrClosedPipe
	}
	d.buf += fragment
	var emissions []emission
	emissions, d.buf, d.state = step(d.buf, d.state, false)
	d.emit(emissions)
	return d.err
}

// Finish flushes held-back text to the channel the current state implies and
// returns the accumulated final-channel text trimmed of surrounding space.
// An unterminated section stays open until the end.
func (d *Demuxer) Finish() (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.done {
		var emissions []emission
		emissions, d.buf, d.state = step(d.buf, d.state, true)
		d.emit(emissions)
		d.done = true
	}
	return strings.TrimSpace(d.answer.String()), d.err
}

// State reports the parser position. After Finish it is Neutral unless the
// reply left a section unterminated.
func (d *Demuxer) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// Note writes text straight to the internal channel, gated by the toggle.
// It does not touch the parser state.
func (d *Demuxer) Note(text string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.emit([]emission{{channel: ChannelInternal, text: text}})
}

func (d *Demuxer) emit(emissions []emission) {
	for _, e := range emissions {
		if e.channel == ChannelFinal {
			d.answer.WriteString(e.text)
			d.write(d.final, e.text)
			continue
		}
		// Read fresh per emission so a mid-stream flip applies from here on.
		if d.toggle.On() {
			d.write(d.internal, e.text)
		}
	}
}

func (d *Demuxer) write(w io.Writer, text string) {
	if _, err := io.WriteString(w, text); err != nil && d.err == nil {
		d.err = err
	}
}
