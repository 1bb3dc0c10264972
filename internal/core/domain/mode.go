package domain

import (
	"fmt"
	"strings"
)

// BufferMode selects which derived polygon a line buffer returns.
type BufferMode string

const (
	ModeAround BufferMode = "around"
	ModeFlat   BufferMode = "flat"
	ModeLeft   BufferMode = "left"
	ModeRight  BufferMode = "right"
)

// ParseBufferMode maps a caller-supplied name onto a BufferMode.
// "side" is accepted for ModeFlat.
func ParseBufferMode(s string) (BufferMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return "", ErrMissingBufferMode
	case "around":
		return ModeAround, nil
	case "flat", "side":
		return ModeFlat, nil
	case "left":
		return ModeLeft, nil
	case "right":
		return ModeRight, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownBufferMode, s)
	}
}

// Valid reports whether m is one of the four modes.
func (m BufferMode) Valid() bool {
	switch m {
	case ModeAround, ModeFlat, ModeLeft, ModeRight:
		return true
	}
	return false
}

// Modes lists every buffer mode in a stable order.
func Modes() []BufferMode {
	return []BufferMode{ModeAround, ModeFlat, ModeLeft, ModeRight}
}
