package counter

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"giftcounter/internal/giftclient"
)

// GiftService is the remote API the form talks to.
type GiftService interface {
	Lookup(ctx context.Context, staffPassID string) (*giftclient.LookupResult, error)
	Redeem(ctx context.Context, staffPassID string) (giftclient.RedemptionOutcome, error)
}

// Recorder receives action outcomes, e.g. for metrics.
type Recorder interface {
	Action(action, outcome string)
	Dropped(action string)
}

const (
	actionLookup = "lookup"
	actionRedeem = "redeem"
)

// Controller owns the state of one counter form.
//
// Actions may overlap. Starting an action clears the other action's result
// and invalidates its in-flight responses; among the responses that are still
// valid, the last one to complete decides what is displayed.
type Controller struct {
	svc           GiftService
	log           *slog.Logger
	rec           Recorder
	reportNotices bool

	mu          sync.Mutex
	identifier  string
	display     Display
	notice      string
	lookupEpoch uint64
	redeemEpoch uint64
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the diagnostic logger for failures that are not shown to the user.
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.log = l
		}
	}
}

// WithRecorder reports action outcomes to r.
func WithRecorder(r Recorder) Option {
	return func(c *Controller) {
		c.rec = r
	}
}

// WithTransportNotices makes transport failures visible through View.Notice.
func WithTransportNotices(enabled bool) Option {
	return func(c *Controller) {
		c.reportNotices = enabled
	}
}

// NewController returns a controller with an empty form.
func NewController(svc GiftService, opts ...Option) *Controller {
	c := &Controller{
		svc:     svc,
		log:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		display: Empty{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetIdentifier replaces the identifier text verbatim.
func (c *Controller) SetIdentifier(s string) {
	c.mu.Lock()
	c.identifier = s
	c.mu.Unlock()
}

// View returns the current form state.
func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewLocked()
}

// Lookup resolves the current identifier and shows the team mapping.
// Failures and empty answers leave the results area empty; failures are logged.
func (c *Controller) Lookup(ctx context.Context) View {
	c.mu.Lock()
	id := c.identifier
	c.redeemEpoch++
	if _, ok := c.display.(ShowingRedemption); ok {
		c.display = Empty{}
	}
	c.notice = ""
	epoch := c.lookupEpoch
	c.mu.Unlock()

	res, err := c.svc.Lookup(ctx, id)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.lookupEpoch != epoch {
		c.log.Warn("discarding stale lookup response", "staff_pass_id", id, "error", err)
		c.dropped(actionLookup)
		return c.viewLocked()
	}
	if err != nil {
		c.log.Error("lookup failed", "staff_pass_id", id, "error", err)
		c.display = Empty{}
		if c.reportNotices {
			c.notice = "Lookup failed: " + err.Error()
		}
		c.record(actionLookup, "transport_error")
		return c.viewLocked()
	}
	if res == nil {
		c.display = Empty{}
		c.record(actionLookup, "empty")
		return c.viewLocked()
	}
	c.display = ShowingLookup{Result: *res}
	c.record(actionLookup, "shown")
	return c.viewLocked()
}

// Redeem claims the gift for the current identifier and shows the outcome,
// whether the server accepted or refused it. An empty answer clears the
// display. Transport failures are logged and leave the display as it was.
func (c *Controller) Redeem(ctx context.Context) View {
	c.mu.Lock()
	id := c.identifier
	c.lookupEpoch++
	if _, ok := c.display.(ShowingLookup); ok {
		c.display = Empty{}
	}
	c.notice = ""
	epoch := c.redeemEpoch
	c.mu.Unlock()

	out, err := c.svc.Redeem(ctx, id)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.redeemEpoch != epoch {
		c.log.Warn("discarding stale redemption response", "staff_pass_id", id, "error", err)
		c.dropped(actionRedeem)
		return c.viewLocked()
	}
	if err != nil {
		c.log.Error("redemption failed", "staff_pass_id", id, "error", err)
		if c.reportNotices {
			c.notice = "Redemption failed: " + err.Error()
		}
		c.record(actionRedeem, "transport_error")
		return c.viewLocked()
	}
	switch out.(type) {
	case nil:
		c.display = Empty{}
		c.record(actionRedeem, "empty")
	case giftclient.RedemptionFailed:
		c.display = ShowingRedemption{Outcome: out}
		c.record(actionRedeem, "refused")
	default:
		c.display = ShowingRedemption{Outcome: out}
		c.record(actionRedeem, "redeemed")
	}
	return c.viewLocked()
}

func (c *Controller) viewLocked() View {
	return View{Identifier: c.identifier, Display: c.display, Notice: c.notice}
}

func (c *Controller) record(action, outcome string) {
	if c.rec != nil {
		c.rec.Action(action, outcome)
	}
}

func (c *Controller) dropped(action string) {
	if c.rec != nil {
		c.rec.Dropped(action)
	}
}
