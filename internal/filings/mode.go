package filings

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"secsum/internal/services"
)

// Mode selects which periodic report a run operates on.
type Mode string

const (
	// ModeAnnual targets 10-K annual reports.
	ModeAnnual Mode = "annual"
	// ModeQuarterly targets 10-Q quarterly reports.
	ModeQuarterly Mode = "quarterly"
)

// ParseMode maps a user-supplied mode string onto a Mode.
func ParseMode(value string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case string(ModeAnnual):
		return ModeAnnual, nil
	case string(ModeQuarterly):
		return ModeQuarterly, nil
	default:
		return "", services.Wrap(
			services.ErrValidation,
			"filings",
			"parse_mode",
			fmt.Sprintf("unknown mode %q (want annual or quarterly)", value),
			nil,
		)
	}
}

// FormType returns the SEC form type the mode maps to.
func (m Mode) FormType() string {
	if m == ModeQuarterly {
		return "10-Q"
	}
	return "10-K"
}

// DisplayName returns the mode with title casing for user-facing output.
func (m Mode) DisplayName() string {
	return cases.Title(language.Und).String(string(m))
}

func (m Mode) String() string {
	return string(m)
}
