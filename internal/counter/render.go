package counter

import (
	"fmt"
	"time"

	"giftcounter/internal/giftclient"
)

// DefaultTimeLayout matches the en-US browser rendering of a date-time.
const DefaultTimeLayout = "1/2/2006, 3:04:05 PM"

const invalidDate = "Invalid Date"

// TimeFormat renders server timestamps for display.
type TimeFormat struct {
	Layout   string
	Location *time.Location
}

var parseLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Format parses raw and renders it in the configured layout and zone.
// Values that do not parse render as "Invalid Date".
func (f TimeFormat) Format(raw string) string {
	loc := f.Location
	if loc == nil {
		loc = time.Local
	}
	layout := f.Layout
	if layout == "" {
		layout = DefaultTimeLayout
	}
	for _, l := range parseLayouts {
		// Timestamps without an offset are read in the display zone; date-only
		// values are midnight UTC.
		in := loc
		if l == "2006-01-02" {
			in = time.UTC
		}
		if t, err := time.ParseInLocation(l, raw, in); err == nil {
			return t.In(loc).Format(layout)
		}
	}
	return invalidDate
}

// PanelKind names which results panel is visible.
type PanelKind string

const (
	PanelEmpty      PanelKind = "empty"
	PanelLookup     PanelKind = "lookup"
	PanelRedemption PanelKind = "redemption"
)

// BannerStyle selects success or failure styling.
type BannerStyle string

const (
	BannerSuccess BannerStyle = "success"
	BannerError   BannerStyle = "error"
)

// LookupRow is one row of the lookup table.
type LookupRow struct {
	StaffPassID string `json:"staff_pass_id"`
	TeamName    string `json:"team_name"`
	CreatedAt   string `json:"created_at"`
}

// Banner is the redemption message.
type Banner struct {
	Text  string      `json:"text"`
	Style BannerStyle `json:"style"`
}

// Panel is the rendered results area.
type Panel struct {
	Kind   PanelKind  `json:"kind"`
	Lookup *LookupRow `json:"lookup,omitempty"`
	Banner *Banner    `json:"banner,omitempty"`
}

// Render applies the display rule: the lookup table for a lookup result, a
// styled banner for a redemption outcome, and nothing otherwise.
func Render(d Display, tf TimeFormat) Panel {
	switch v := d.(type) {
	case ShowingLookup:
		return Panel{
			Kind: PanelLookup,
			Lookup: &LookupRow{
				StaffPassID: v.Result.StaffPassID,
				TeamName:    v.Result.TeamName,
				CreatedAt:   tf.Format(v.Result.CreatedAt),
			},
		}
	case ShowingRedemption:
		switch o := v.Outcome.(type) {
		case giftclient.RedemptionFailed:
			return Panel{Kind: PanelRedemption, Banner: &Banner{Text: o.Message, Style: BannerError}}
		case giftclient.Redeemed:
			return Panel{Kind: PanelRedemption, Banner: &Banner{
				Text:  fmt.Sprintf("Gift redeemed successfully by team %s at %s", o.TeamName, tf.Format(o.RedeemedAt)),
				Style: BannerSuccess,
			}}
		}
	}
	return Panel{Kind: PanelEmpty}
}
