package workflow

import (
	"context"
	"regexp"
)

const (
	// UnknownHCP is used when no provider name can be found in the text.
	UnknownHCP = "Unknown Doctor"

	NodeExtract   = "extract"
	NodeSummarize = "summarize"
)

// "Dr", an optional period, then a capitalized name: "Dr. Smith", "Dr Smith", "Dr.Smith".
var honorificName = regexp.MustCompile(`\bDr\.?\s*([A-Z][A-Za-z]*)`)

// ExtractHCPName returns "Dr. <Name>" for the first honorific match in text,
// or UnknownHCP.
func ExtractHCPName(text string) string {
	m := honorificName.FindStringSubmatch(text)
	if m == nil {
		return UnknownHCP
	}
	return "Dr. " + m[1]
}

// Summarize renders the one-line visit summary for hcpName.
func Summarize(hcpName string) string {
	return "Met " + hcpName + " and discussed key points."
}

// Extract fills HCPName from Text and copies Text into Notes unchanged.
func Extract(_ context.Context, st *State) error {
	st.HCPName = ExtractHCPName(st.Text)
	st.Notes = st.Text
	return nil
}

func SummarizeNode(_ context.Context, st *State) error {
	st.Summary = Summarize(st.HCPName)
	return nil
}
