package fonts

import (
	"bytes"
	"fmt"
	"unicode"

	"github.com/go-text/typesetting/di"
	gofont "github.com/go-text/typesetting/font"
	"github.com/go-text/typesetting/language"
	"github.com/go-text/typesetting/shaping"
	xfont "golang.org/x/image/font"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
)

// FaceMetrics measures text by shaping it against a parsed TrueType face.
// Advances come out of the shaper, vertical metrics out of the face tables,
// so kerned and ligated text measures the way a renderer would draw it.
type FaceMetrics struct {
	face *gofont.Face

	// Vertical metrics in 1/1000 em.
	height float64
}

// ParseFace parses TrueType/OpenType data into shaping-backed metrics.
func ParseFace(data []byte) (*FaceMetrics, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("font data is empty")
	}
	face, err := gofont.ParseTTF(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parse truetype: %w", err)
	}

	fm := &FaceMetrics{face: face, height: 1200}
	if sf, err := sfnt.Parse(data); err == nil {
		buf := &sfnt.Buffer{}
		if m, err := sf.Metrics(buf, fixed.I(1000), xfont.HintingNone); err == nil && m.Height > 0 {
			fm.height = float64(m.Height) / 64
		}
	}
	return fm, nil
}

func (f *FaceMetrics) Advance(text string, size float64) float64 {
	if text == "" {
		return 0
	}
	if size == 0 {
		size = 12
	}
	runes := []rune(text)
	script := detectScript(runes)

	shaper := &shaping.HarfbuzzShaper{}
	input := shaping.Input{
		Text:      runes,
		RunStart:  0,
		RunEnd:    len(runes),
		Direction: scriptDirection(script),
		Face:      f.face,
		// Shape at 1000 units per em so advances read as glyph-space
		// thousandths, matching the width-table path.
		Size:     fixed.Int26_6(1000 * 64),
		Script:   script,
		Language: language.DefaultLanguage(),
	}
	output := shaper.Shape(input)

	sum := 0.0
	for _, g := range output.Glyphs {
		sum += float64(g.XAdvance) / 64.0
	}
	return sum / 1000 * size
}

func (f *FaceMetrics) LineHeight(size float64) float64 {
	if size == 0 {
		size = 12
	}
	return f.height / 1000 * size
}

func scriptDirection(script language.Script) di.Direction {
	switch script {
	case language.Arabic, language.Hebrew:
		return di.DirectionRTL
	default:
		return di.DirectionLTR
	}
}

func detectScript(runes []rune) language.Script {
	counts := make(map[language.Script]int)
	maxCount := 0
	best := language.Latin
	for _, r := range runes {
		s := scriptFromRune(r)
		if s == language.Unknown {
			continue
		}
		counts[s]++
		if counts[s] > maxCount {
			maxCount = counts[s]
			best = s
		}
	}
	return best
}

func scriptFromRune(r rune) language.Script {
	switch {
	case unicode.Is(unicode.Arabic, r):
		return language.Arabic
	case unicode.Is(unicode.Hebrew, r):
		return language.Hebrew
	case unicode.Is(unicode.Latin, r):
		return language.Latin
	case unicode.Is(unicode.Cyrillic, r):
		return language.Cyrillic
	case unicode.Is(unicode.Greek, r):
		return language.Greek
	case unicode.Is(unicode.Han, r):
		return language.Han
	case unicode.Is(unicode.Hiragana, r):
		return language.Hiragana
	case unicode.Is(unicode.Katakana, r):
		return language.Katakana
	case unicode.Is(unicode.Hangul, r):
		return language.Hangul
	case unicode.Is(unicode.Thai, r):
		return language.Thai
	}
	return language.Unknown
}
