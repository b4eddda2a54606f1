package state

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"aereco-dxr-backend/internal/dxr"
)

// DeviceWriter is the slice of the protocol client the controller needs.
type DeviceWriter interface {
	Write(ctx context.Context, command int, value int) error
}

// DefaultSettleDelay is how long the unit needs to apply a mode change
// before it accepts the dependent timeout/airflow writes.
const DefaultSettleDelay = 500 * time.Millisecond

// Controller owns the write path for one device. It tracks the last
// value written per field explicitly, so a mode switch never replays a
// stale value from a previous mode.
type Controller struct {
	writer      DeviceWriter
	modesConfig func() *dxr.ModesConfig
	settleDelay time.Duration

	mu          sync.Mutex
	lastWritten map[string]int
}

// NewController creates a controller writing through the given client.
// modesConfig supplies the latest polled per-mode defaults and may return
// nil when no snapshot exists yet.
func NewController(writer DeviceWriter, modesConfig func() *dxr.ModesConfig) *Controller {
	return &Controller{
		writer:      writer,
		modesConfig: modesConfig,
		settleDelay: DefaultSettleDelay,
		lastWritten: make(map[string]int),
	}
}

// SetSettleDelay overrides the pause between a mode write and its
// follow-up writes.
func (c *Controller) SetSettleDelay(d time.Duration) {
	c.settleDelay = d
}

// SetMode switches the unit to the given mode and then applies the
// mode's configured default timeout and airflow as follow-up writes,
// after a settle delay. The unit drops dependent writes issued before
// the mode change has propagated.
func (c *Controller) SetMode(ctx context.Context, mode dxr.Mode) error {
	if err := c.writer.Write(ctx, dxr.PostCurrentMode, int(mode)); err != nil {
		return fmt.Errorf("setting mode %s: %w", mode, err)
	}
	c.record("mode", int(mode))

	cfg := c.modesConfig()
	if cfg == nil {
		return nil
	}

	select {
	case <-time.After(c.settleDelay):
	case <-ctx.Done():
		return ctx.Err()
	}

	if cmd, ok := dxr.TimeoutCommand(mode); ok {
		if err := c.writer.Write(ctx, cmd, cfg.Timeout(mode)); err != nil {
			log.Printf("Warning: follow-up timeout write for mode %s failed: %v", mode, err)
		} else {
			c.record(mode.Key()+"_timeout", cfg.Timeout(mode))
		}
	}
	if cmd, ok := dxr.AirflowCommand(mode); ok {
		if err := c.writer.Write(ctx, cmd, cfg.Airflow(mode)); err != nil {
			log.Printf("Warning: follow-up airflow write for mode %s failed: %v", mode, err)
		} else {
			c.record(mode.Key()+"_airflow", cfg.Airflow(mode))
		}
	}

	return nil
}

// SetPreset switches the unit to the mode with the given display name.
func (c *Controller) SetPreset(ctx context.Context, preset string) error {
	mode, ok := dxr.ModeByName(preset)
	if !ok {
		return fmt.Errorf("%w: unknown preset %q", dxr.ErrInvalidArgument, preset)
	}
	return c.SetMode(ctx, mode)
}

// SetPercentage maps a speed percentage onto a mode and switches to it.
func (c *Controller) SetPercentage(ctx context.Context, percentage int) error {
	if percentage < 0 || percentage > 100 {
		return fmt.Errorf("%w: percentage %d out of range", dxr.ErrInvalidArgument, percentage)
	}
	return c.SetMode(ctx, ModeForPercentage(percentage))
}

// SetModeTimeout writes the default timeout for a mode. Automatic mode
// has no timeout command.
func (c *Controller) SetModeTimeout(ctx context.Context, mode dxr.Mode, value int) error {
	cmd, ok := dxr.TimeoutCommand(mode)
	if !ok {
		return fmt.Errorf("%w: mode %s has no timeout", dxr.ErrInvalidArgument, mode)
	}
	if err := c.writer.Write(ctx, cmd, value); err != nil {
		return err
	}
	c.record(mode.Key()+"_timeout", value)
	return nil
}

// SetModeAirflow writes the default airflow for a mode.
func (c *Controller) SetModeAirflow(ctx context.Context, mode dxr.Mode, value int) error {
	cmd, ok := dxr.AirflowCommand(mode)
	if !ok {
		return fmt.Errorf("%w: mode %s has no airflow", dxr.ErrInvalidArgument, mode)
	}
	if err := c.writer.Write(ctx, cmd, value); err != nil {
		return err
	}
	c.record(mode.Key()+"_airflow", value)
	return nil
}

// ResetFilter triggers the filter-change acknowledgment on the unit.
func (c *Controller) ResetFilter(ctx context.Context) error {
	return c.writer.Write(ctx, dxr.PostFilterReset, 1)
}

// TestFilter starts the unit's filter self-test.
func (c *Controller) TestFilter(ctx context.Context) error {
	return c.writer.Write(ctx, dxr.PostFilterTest, 1)
}

// LastWritten reports the most recent value written for a field, if any.
func (c *Controller) LastWritten(field string) (int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.lastWritten[field]
	return v, ok
}

func (c *Controller) record(field string, value int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastWritten[field] = value
}
