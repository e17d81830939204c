// Package keyseq decodes typed key sequences into mode toggles.
package keyseq

import (
	"strings"
	"sync"
)

const (
	// Trigger toggles zenith mode when typed.
	Trigger = "zenith"

	// BufferSize is how many trailing keys are remembered.
	BufferSize = 10
)

// Decoder tracks recent keystrokes and the zenith mode flag.
type Decoder struct {
	mu      sync.Mutex
	trigger string
	buf     string
	active  bool
}

// New returns a decoder for Trigger.
func New() *Decoder {
	return &Decoder{trigger: Trigger}
}

// Press feeds one key and reports whether the mode toggled. Keys are
// lower-cased; multi-character key names such as "Shift" are appended as is,
// matching what a browser keydown handler would see.
func (d *Decoder) Press(key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.buf += strings.ToLower(key)
	toggled := false
	if strings.Contains(d.buf, d.trigger) {
		d.active = !d.active
		d.buf = ""
		toggled = true
	}
	if len(d.buf) > BufferSize {
		d.buf = d.buf[len(d.buf)-BufferSize:]
	}
	return toggled
}

// Type feeds each rune of s and returns the number of toggles.
func (d *Decoder) Type(s string) int {
	n := 0
	for _, r := range s {
		if d.Press(string(r)) {
			n++
		}
	}
	return n
}

// Active reports whether zenith mode is on.
func (d *Decoder) Active() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.active
}

// Close turns zenith mode off without touching the key buffer.
func (d *Decoder) Close() {
	d.mu.Lock()
	d.active = false
	d.mu.Unlock()
}
