package protocol

// Parser assembles radio windows from bytes received one at a time.
// The radio delivers a window as one burst; a partial window left behind
// by a lost byte is discarded by Timeout.
type Parser struct {
	Layout Layout

	buf [EnvelopeSize]byte
	n   int
}

// TimerAction defines what to do with the inter-byte timer.
type TimerAction int

const (
	// TimerNoChange indicates keep the timer as-is.
	TimerNoChange TimerAction = iota
	// TimerRestart to restart the timer.
	TimerRestart
	// TimerStop to stop/cancel the timer.
	TimerStop
)

// ParseResult indicates the result after one parsing step.
type ParseResult struct {
	// Envelope is set once a complete window has been received. It is
	// also set alongside ErrChecksumMismatch.
	Envelope *Envelope
	// Err reports a rejected window.
	Err error
	// Receiving is true while a window is partially received.
	Receiving bool
	// Dropped counts bytes discarded by Timeout.
	Dropped int
}

// WhatAboutTimer decides what to do with the timer.
func (r ParseResult) WhatAboutTimer() TimerAction {
	if r.Receiving {
		return TimerRestart
	}
	if r.Envelope != nil || r.Err != nil || r.Dropped > 0 {
		return TimerStop
	}
	return TimerNoChange
}

// NewParser creates a Parser for windows of layout l.
func NewParser(l Layout) *Parser {
	return &Parser{Layout: l}
}

// Receiving reports whether a window is partially received.
func (p *Parser) Receiving() bool {
	return p.n > 0
}

// Parse consumes one byte.
func (p *Parser) Parse(b byte) (pr ParseResult) {
	p.buf[p.n] = b
	p.n++
	if p.n < p.Layout.Size() {
		pr.Receiving = true
		return
	}
	pr.Envelope, pr.Err = ParseWindow(p.Layout, p.buf[:p.n])
	p.n = 0
	return
}

// Timeout notifies the parser the inter-byte timer expired.
func (p *Parser) Timeout() (pr ParseResult) {
	pr.Dropped, p.n = p.n, 0
	return
}

// Reset discards any partial window.
func (p *Parser) Reset() {
	p.n = 0
}
