package counter

import "giftcounter/internal/giftclient"

// Display is what the results area currently shows: Empty, ShowingLookup or
// ShowingRedemption. Holding a single value keeps the lookup table and the
// redemption banner mutually exclusive.
type Display interface {
	isDisplay()
}

// Empty shows no results.
type Empty struct{}

// ShowingLookup shows the team mapping from the last lookup.
type ShowingLookup struct {
	Result giftclient.LookupResult
}

// ShowingRedemption shows the outcome of the last redemption.
type ShowingRedemption struct {
	Outcome giftclient.RedemptionOutcome
}

func (Empty) isDisplay()             {}
func (ShowingLookup) isDisplay()     {}
func (ShowingRedemption) isDisplay() {}

// View is a snapshot of the form state.
type View struct {
	Identifier string
	Display    Display
	// Notice is only set when transport errors are reported to the user.
	Notice string
}
