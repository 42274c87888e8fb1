package quote

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mgorcz2/shipment-monitoring-project/internal/address"
	"github.com/mgorcz2/shipment-monitoring-project/internal/geo"
	"github.com/mgorcz2/shipment-monitoring-project/internal/geocode"
	"github.com/mgorcz2/shipment-monitoring-project/internal/pricing"
)

// Slot identifies which end of the shipment an address update targets.
type Slot int

const (
	Origin Slot = iota
	Destination
	slotCount
)

func (s Slot) String() string {
	if s == Origin {
		return "origin"
	}
	return "destination"
}

// Update is a snapshot of the quote state, emitted after every change.
// A nil DistanceKm or Breakdown means "not yet available", not a failure;
// the per-slot errors distinguish bad input and lookup failures.
type Update struct {
	Origin         *geo.Point
	Destination    *geo.Point
	OriginErr      error
	DestinationErr error
	DistanceKm     *float64
	Breakdown      *pricing.Breakdown
}

// Calculator drives the address -> geocode -> distance -> price cascade as
// an explicit pipeline: a per-slot debounce stage, a sequencing stage that
// discards stale lookup results, and a pure recompute stage. Origin and
// destination lookups run in parallel and write disjoint slots.
type Calculator struct {
	geocoder geocode.Geocoder
	debounce time.Duration
	timeout  time.Duration
	log      logrus.FieldLogger

	mu     sync.Mutex
	seq    [slotCount]uint64
	coords [slotCount]*geo.Point
	errs   [slotCount]error
	timers [slotCount]*time.Timer
	spec   *pricing.PackageSpec
	closed bool

	updates chan Update
}

// Option configures a Calculator.
type Option func(*Calculator)

// WithDebounce overrides the quiescence window before a geocode is issued.
func WithDebounce(d time.Duration) Option {
	return func(c *Calculator) { c.debounce = d }
}

// WithTimeout bounds each geocode lookup.
func WithTimeout(d time.Duration) Option {
	return func(c *Calculator) { c.timeout = d }
}

// WithLogger overrides the logger.
func WithLogger(log logrus.FieldLogger) Option {
	return func(c *Calculator) { c.log = log }
}

func New(g geocode.Geocoder, opts ...Option) *Calculator {
	c := &Calculator{
		geocoder: g,
		debounce: 500 * time.Millisecond,
		timeout:  5 * time.Second,
		log:      logrus.StandardLogger(),
		updates:  make(chan Update, 16),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Updates delivers a state snapshot after every change. The channel is
// closed by Close.
func (c *Calculator) Updates() <-chan Update { return c.updates }

// SetAddress records a new address for the slot. The slot's coordinate is
// cleared immediately, which also clears the distance and price; a geocode
// is issued only after the debounce window passes without further edits.
// An invalid address is reported at once and no lookup is attempted.
func (c *Calculator) SetAddress(slot Slot, addr address.Address) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.seq[slot]++
	c.coords[slot] = nil
	c.errs[slot] = nil
	if c.timers[slot] != nil {
		c.timers[slot].Stop()
		c.timers[slot] = nil
	}
	if err := addr.Validate(); err != nil {
		c.errs[slot] = err
		c.emitLocked()
		return
	}
	seq := c.seq[slot]
	query := addr.Format()
	c.timers[slot] = time.AfterFunc(c.debounce, func() {
		c.lookup(slot, seq, query)
	})
	c.emitLocked()
}

// SetPackage records the package attributes, clamped into range, and
// recomputes the price.
func (c *Calculator) SetPackage(spec pricing.PackageSpec) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	clamped := spec.Clamp()
	c.spec = &clamped
	c.emitLocked()
}

// lookup performs the geocode outside the lock. The sequence number taken
// when the address was set guards both ends: a lookup for an address the
// user has since edited is dropped without touching the state.
func (c *Calculator) lookup(slot Slot, seq uint64, query string) {
	c.mu.Lock()
	if c.closed || c.seq[slot] != seq {
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()
	pt, err := c.geocoder.Geocode(ctx, query)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	if c.seq[slot] != seq {
		c.log.WithField("slot", slot.String()).Debug("discarding stale geocode result")
		return
	}
	if err != nil {
		c.coords[slot] = nil
		c.errs[slot] = err
	} else {
		p := pt
		c.coords[slot] = &p
		c.errs[slot] = nil
	}
	c.emitLocked()
}

// emitLocked recomputes distance and price from the current state and
// publishes a snapshot. Callers hold c.mu.
func (c *Calculator) emitLocked() {
	dist := geo.Distance(c.coords[Origin], c.coords[Destination])
	var bd *pricing.Breakdown
	if c.spec != nil {
		bd = pricing.Calculate(*c.spec, dist)
	}
	u := Update{
		Origin:         c.coords[Origin],
		Destination:    c.coords[Destination],
		OriginErr:      c.errs[Origin],
		DestinationErr: c.errs[Destination],
		DistanceKm:     dist,
		Breakdown:      bd,
	}
	select {
	case c.updates <- u:
	default:
		// consumer lags; the next change emits a fresh snapshot anyway
	}
}

// Close stops pending timers and closes the update stream. In-flight
// lookups are discarded.
func (c *Calculator) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	for i := range c.timers {
		if c.timers[i] != nil {
			c.timers[i].Stop()
		}
	}
	close(c.updates)
}
