package feed

import "apod-feed/internal/domain/entity"

// OutcomeKind classifies the result of probing one date.
type OutcomeKind int

const (
	// OutcomeFound means the page was fetched and fully parsed.
	OutcomeFound OutcomeKind = iota
	// OutcomeAbsent means the server confirmed there is no page for the date.
	OutcomeAbsent
	// OutcomeMalformed means the page exists but does not match the template.
	OutcomeMalformed
	// OutcomeNetworkFailure means the page could not be retrieved.
	OutcomeNetworkFailure
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeFound:
		return "found"
	case OutcomeAbsent:
		return "absent"
	case OutcomeMalformed:
		return "malformed"
	case OutcomeNetworkFailure:
		return "network_failure"
	default:
		return "unknown"
	}
}

// Outcome is the tagged result of Probe.
// Page is set only for OutcomeFound; Err only for OutcomeMalformed and OutcomeNetworkFailure.
type Outcome struct {
	Kind OutcomeKind
	Page *entity.ParsedPage
	Err  error
}

func found(page *entity.ParsedPage) Outcome { return Outcome{Kind: OutcomeFound, Page: page} }
func absent() Outcome                       { return Outcome{Kind: OutcomeAbsent} }
func malformed(err error) Outcome           { return Outcome{Kind: OutcomeMalformed, Err: err} }
func networkFailure(err error) Outcome      { return Outcome{Kind: OutcomeNetworkFailure, Err: err} }
