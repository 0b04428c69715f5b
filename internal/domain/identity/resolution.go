package identity

// ResolutionKind classifies the outcome of resolving a phone number
type ResolutionKind string

const (
	// ResolutionSingleMatch means exactly one account matched the phone
	ResolutionSingleMatch ResolutionKind = "SINGLE_MATCH"
	// ResolutionMultipleMatches means the phone is registered in two or
	// more tenants; disambiguation is deferred to the caller
	ResolutionMultipleMatches ResolutionKind = "MULTIPLE_MATCHES"
	// ResolutionNotFound means no account matched; a normal outcome, not
	// a system error
	ResolutionNotFound ResolutionKind = "NOT_FOUND"
)

// Resolution is the result of mapping a phone number to account email(s).
// Emails is order-independent; callers must not read meaning into position.
type Resolution struct {
	Kind   ResolutionKind
	Emails []string
}

// NewResolution builds a Resolution from the matched emails
func NewResolution(emails []string) Resolution {
	switch len(emails) {
	case 0:
		return Resolution{Kind: ResolutionNotFound}
	case 1:
		return Resolution{Kind: ResolutionSingleMatch, Emails: emails}
	default:
		return Resolution{Kind: ResolutionMultipleMatches, Emails: emails}
	}
}

// Email returns the single matched email. Only meaningful for SingleMatch.
func (r Resolution) Email() string {
	if len(r.Emails) == 0 {
		return ""
	}
	return r.Emails[0]
}

// Ambiguous returns true if the phone matched accounts in multiple tenants
func (r Resolution) Ambiguous() bool {
	return r.Kind == ResolutionMultipleMatches
}
