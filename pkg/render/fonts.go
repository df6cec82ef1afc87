package render

import (
	"fmt"
	"os"

	"codeberg.org/go-pdf/fpdf"
	"github.com/rs/zerolog"
)

// FontCandidate is a TrueType font to try, with an optional bold face
type FontCandidate struct {
	Regular string `yaml:"regular"`
	Bold    string `yaml:"bold"`
}

// FontSet describes the registered body font
type FontSet struct {
	Family    string // fpdf family name
	BoldStyle string // "B", or "" when no bold face is available
	UTF8      bool   // false for the core font fallback
	Source    string // File the regular face was loaded from
}

const bodyFamily = "body"

// coreFont is the last resort when no TrueType font loads
var coreFont = FontSet{Family: "Helvetica", BoldStyle: "B"}

// DefaultFontCandidates lists fonts with broad Latin and Cyrillic coverage in
// the order they are tried
func DefaultFontCandidates() []FontCandidate {
	return []FontCandidate{
		{Regular: "fonts/DejaVuSans.ttf", Bold: "fonts/DejaVuSans-Bold.ttf"},
		{Regular: "/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf", Bold: "/usr/share/fonts/truetype/dejavu/DejaVuSans-Bold.ttf"},
		{Regular: "/usr/share/fonts/dejavu/DejaVuSans.ttf", Bold: "/usr/share/fonts/dejavu/DejaVuSans-Bold.ttf"},
		{Regular: "/usr/share/fonts/truetype/liberation/LiberationSans-Regular.ttf", Bold: "/usr/share/fonts/truetype/liberation/LiberationSans-Bold.ttf"},
		{Regular: "/Library/Fonts/Arial Unicode.ttf"},
		{Regular: "C:/Windows/Fonts/arial.ttf", Bold: "C:/Windows/Fonts/arialbd.ttf"},
	}
}

// loadFonts registers the first candidate that loads. Without one it returns
// the core Helvetica font set.
func loadFonts(pdf *fpdf.Fpdf, candidates []FontCandidate, log zerolog.Logger) FontSet {
	for i, cand := range candidates {
		if cand.Regular == "" {
			continue
		}
		// A rejected file may leave its family half registered, so each
		// candidate gets a family of its own
		family := fmt.Sprintf("%s%d", bodyFamily, i)
		if err := registerFont(pdf, family, "", cand.Regular); err != nil {
			log.Debug().Str("font", cand.Regular).Err(err).Msg("font candidate rejected")
			continue
		}

		set := FontSet{Family: family, UTF8: true, Source: cand.Regular}
		if cand.Bold != "" {
			if err := registerFont(pdf, family, "B", cand.Bold); err != nil {
				log.Debug().Str("font", cand.Bold).Err(err).Msg("bold face rejected, using regular")
			} else {
				set.BoldStyle = "B"
			}
		}
		log.Debug().Str("font", set.Source).Bool("bold", set.BoldStyle != "").Msg("font registered")
		return set
	}
	return coreFont
}

func registerFont(pdf *fpdf.Fpdf, family, style, path string) (err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	defer func() {
		if r := recover(); r != nil {
			pdf.ClearError()
			err = fmt.Errorf("invalid font file: %v", r)
		}
	}()
	pdf.AddUTF8FontFromBytes(family, style, data)
	if pdf.Err() {
		err = pdf.Error()
		pdf.ClearError()
		return err
	}
	return nil
}
