package poller

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"aereco-dxr-backend/internal/dxr"
)

// ErrUpdateFailed indicates a whole-snapshot refresh failure: every
// section read failed. The previous snapshot stays visible and the next
// tick retries.
var ErrUpdateFailed = errors.New("update failed")

// DeviceReader is the slice of the protocol client the poller needs.
type DeviceReader interface {
	CurrentMode(ctx context.Context) (*dxr.OperationModeState, error)
	Sensors(ctx context.Context) (*dxr.SensorState, error)
	Warnings(ctx context.Context) (*dxr.WarningState, error)
	Maintenance(ctx context.Context) (*dxr.MaintenanceState, error)
	ModesConfig(ctx context.Context) (*dxr.ModesConfig, error)
}

// Snapshot is one immutable bundle of all polled sections. A section is
// nil until the device has reported it at least once.
type Snapshot struct {
	Mode        *dxr.OperationModeState `json:"mode"`
	Sensors     *dxr.SensorState        `json:"sensors"`
	Warnings    *dxr.WarningState       `json:"warnings"`
	Maintenance *dxr.MaintenanceState   `json:"maintenance"`
	ModesConfig *dxr.ModesConfig        `json:"modesConfig"`
	TakenAt     time.Time               `json:"takenAt"`
}

// refreshToken tracks one in-flight refresh so that concurrent requests
// can coalesce onto it.
type refreshToken struct {
	done chan struct{}
	err  error
}

// Poller keeps the latest snapshot for one device fresh. At most one
// refresh is in flight at a time; a refresh requested while one is
// running waits for and shares its result instead of fetching again.
type Poller struct {
	reader   DeviceReader
	interval time.Duration

	// onWarnings is invoked when a refresh surfaces warning flags that
	// were not active in the previous snapshot.
	onWarnings func(newFlags []int)

	mu          sync.Mutex
	snapshot    *Snapshot
	inflight    *refreshToken
	lastSuccess bool
}

// New creates a poller for the given device reader.
func New(reader DeviceReader, interval time.Duration) *Poller {
	return &Poller{
		reader:   reader,
		interval: interval,
	}
}

// OnWarnings registers a callback for newly active warning flags. Must be
// called before Run.
func (p *Poller) OnWarnings(fn func(newFlags []int)) {
	p.onWarnings = fn
}

// Snapshot returns the latest snapshot, or nil before the first
// successful refresh. The returned value is never mutated.
func (p *Poller) Snapshot() *Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snapshot
}

// LastUpdateSuccess reports whether the most recent refresh succeeded.
func (p *Poller) LastUpdateSuccess() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastSuccess
}

// ModesConfig returns the per-mode defaults from the latest snapshot.
func (p *Poller) ModesConfig() *dxr.ModesConfig {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.snapshot == nil {
		return nil
	}
	return p.snapshot.ModesConfig
}

// Run refreshes once immediately and then on every interval tick until
// the context is cancelled.
func (p *Poller) Run(ctx context.Context) {
	if err := p.Refresh(ctx); err != nil {
		log.Printf("Initial refresh failed: %v", err)
	}

	timer := time.NewTimer(p.interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Poller shutting down.")
			return
		case <-timer.C:
			if err := p.Refresh(ctx); err != nil {
				log.Printf("Refresh failed: %v", err)
			}
			timer.Reset(p.interval)
		}
	}
}

// Refresh fetches all sections as one snapshot. If a refresh is already
// in flight the call waits for that refresh and returns its result; no
// second fetch is started.
func (p *Poller) Refresh(ctx context.Context) error {
	p.mu.Lock()
	if p.inflight != nil {
		token := p.inflight
		p.mu.Unlock()
		select {
		case <-token.done:
			return token.err
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	token := &refreshToken{done: make(chan struct{})}
	p.inflight = token
	p.mu.Unlock()

	snapshot, newFlags, err := p.fetch(ctx)

	p.mu.Lock()
	p.inflight = nil
	p.lastSuccess = err == nil
	if err == nil {
		p.snapshot = snapshot
	}
	p.mu.Unlock()

	token.err = err
	close(token.done)

	if err == nil && len(newFlags) > 0 && p.onWarnings != nil {
		p.onWarnings(newFlags)
	}
	return err
}

// fetch reads every section, tolerating individual failures by carrying
// the previous snapshot's value forward. Only when all four main
// sections fail is the whole poll reported as failed.
func (p *Poller) fetch(ctx context.Context) (*Snapshot, []int, error) {
	previous := p.Snapshot()

	next := &Snapshot{TakenAt: time.Now().UTC()}
	failures := 0

	mode, err := p.reader.CurrentMode(ctx)
	if err != nil {
		log.Printf("Warning: mode section unavailable: %v", err)
		mode, failures = nil, failures+1
	}
	sensors, err := p.reader.Sensors(ctx)
	if err != nil {
		log.Printf("Warning: sensors section unavailable: %v", err)
		sensors, failures = nil, failures+1
	}
	warnings, err := p.reader.Warnings(ctx)
	if err != nil {
		log.Printf("Warning: warnings section unavailable: %v", err)
		warnings, failures = nil, failures+1
	}
	maintenance, err := p.reader.Maintenance(ctx)
	if err != nil {
		log.Printf("Warning: maintenance section unavailable: %v", err)
		maintenance, failures = nil, failures+1
	}

	if failures == 4 {
		return nil, nil, ErrUpdateFailed
	}

	// Modes config is auxiliary: its failure never fails the snapshot.
	modesConfig, err := p.reader.ModesConfig(ctx)
	if err != nil {
		log.Printf("Warning: modes config unavailable: %v", err)
		modesConfig = nil
	}

	next.Mode = mode
	next.Sensors = sensors
	next.Warnings = warnings
	next.Maintenance = maintenance
	next.ModesConfig = modesConfig

	var newFlags []int
	if previous != nil {
		if next.Mode == nil {
			next.Mode = previous.Mode
		}
		if next.Sensors == nil {
			next.Sensors = previous.Sensors
		}
		if next.Warnings == nil {
			next.Warnings = previous.Warnings
		}
		if next.Maintenance == nil {
			next.Maintenance = previous.Maintenance
		}
		if next.ModesConfig == nil {
			next.ModesConfig = previous.ModesConfig
		}
	}
	if warnings != nil {
		newFlags = newWarningFlags(previous, warnings)
	}

	return next, newFlags, nil
}

// newWarningFlags returns the warning positions active now but not in
// the previous snapshot.
func newWarningFlags(previous *Snapshot, current *dxr.WarningState) []int {
	known := make(map[int]bool)
	if previous != nil && previous.Warnings != nil {
		for _, flag := range previous.Warnings.ActiveWarnings {
			known[flag] = true
		}
	}

	var flags []int
	for _, flag := range current.ActiveWarnings {
		if !known[flag] {
			flags = append(flags, flag)
		}
	}
	return flags
}
