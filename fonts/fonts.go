// Package fonts measures text for the replacement pipeline and the overlay
// editor. Measurement sits behind Metrics so the same layout code runs
// against the built-in core-font width tables or a shaped TrueType face.
package fonts

import "strings"

// Metrics measures text under one font.
type Metrics interface {
	// Advance returns the rendered width of text at the given size, in
	// page units.
	Advance(text string, size float64) float64
	// LineHeight returns the baseline-to-baseline distance at the given
	// size, in page units.
	LineHeight(size float64) float64
}

// Library resolves font names to Metrics. Names without a registered face
// fall back to the built-in core-font tables, so measurement never fails.
type Library struct {
	faces map[string]Metrics
}

func NewLibrary() *Library {
	return &Library{faces: make(map[string]Metrics)}
}

// Register installs metrics under the given font name.
func (l *Library) Register(name string, m Metrics) {
	l.faces[normalizeName(name)] = m
}

// RegisterFace parses a TrueType/OpenType font and installs shaped metrics
// for it under the given name.
func (l *Library) RegisterFace(name string, ttf []byte) error {
	fm, err := ParseFace(ttf)
	if err != nil {
		return err
	}
	l.Register(name, fm)
	return nil
}

// Metrics returns the metrics registered under name, else the built-in
// table closest to it.
func (l *Library) Metrics(name string) Metrics {
	if l != nil && l.faces != nil {
		if m, ok := l.faces[normalizeName(name)]; ok {
			return m
		}
	}
	return Builtin(name)
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
