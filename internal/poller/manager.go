package poller

import (
	"context"
	"log"
	"sync"
	"time"

	"aereco-dxr-backend/internal/dxr"
	"aereco-dxr-backend/internal/model"
	"aereco-dxr-backend/internal/state"
)

// Runtime bundles everything live for one registered device.
type Runtime struct {
	Device     model.Device
	Client     *dxr.Client
	Poller     *Poller
	Controller *state.Controller
	cancel     context.CancelFunc
}

// Manager owns one Runtime per registered device and starts/stops their
// polling loops. Lookup is by device handle (the registry ID).
type Manager struct {
	baseCtx         context.Context
	defaultInterval time.Duration

	// onWarnings receives the device ID whenever that device reports
	// newly active warnings.
	onWarnings func(deviceID int64)

	mu       sync.RWMutex
	runtimes map[int64]*Runtime
}

// NewManager creates an empty manager. Polling loops run under baseCtx,
// not under the request that started them; defaultInterval applies to
// devices without their own poll interval.
func NewManager(baseCtx context.Context, defaultInterval time.Duration, onWarnings func(deviceID int64)) *Manager {
	return &Manager{
		baseCtx:         baseCtx,
		defaultInterval: defaultInterval,
		onWarnings:      onWarnings,
		runtimes:        make(map[int64]*Runtime),
	}
}

// StartAll starts a polling loop for every given device.
func (m *Manager) StartAll(devices []model.Device) {
	for _, device := range devices {
		m.Start(device)
	}
}

// Start creates the runtime for a device and launches its polling loop.
// Starting an already-running device restarts it.
func (m *Manager) Start(device model.Device) *Runtime {
	m.Stop(device.ID)

	interval := m.defaultInterval
	if device.PollIntervalSeconds > 0 {
		interval = time.Duration(device.PollIntervalSeconds) * time.Second
	}

	client := dxr.NewClient(device.Host, device.Port)
	p := New(client, interval)
	if m.onWarnings != nil {
		deviceID := device.ID
		p.OnWarnings(func(flags []int) {
			log.Printf("Device %d reports new warning flags %v", deviceID, flags)
			m.onWarnings(deviceID)
		})
	}

	runtime := &Runtime{
		Device:     device,
		Client:     client,
		Poller:     p,
		Controller: state.NewController(client, p.ModesConfig),
	}

	runCtx, cancel := context.WithCancel(m.baseCtx)
	runtime.cancel = cancel

	m.mu.Lock()
	m.runtimes[device.ID] = runtime
	m.mu.Unlock()

	go p.Run(runCtx)
	log.Printf("Started poller for device %d (%s:%d, interval %s)", device.ID, device.Host, device.Port, interval)
	return runtime
}

// Stop cancels a device's polling loop and releases its connections.
func (m *Manager) Stop(deviceID int64) {
	m.mu.Lock()
	runtime, ok := m.runtimes[deviceID]
	if ok {
		delete(m.runtimes, deviceID)
	}
	m.mu.Unlock()

	if ok {
		runtime.cancel()
		runtime.Client.Close()
		log.Printf("Stopped poller for device %d", deviceID)
	}
}

// Get returns the runtime for a device handle.
func (m *Manager) Get(deviceID int64) (*Runtime, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	runtime, ok := m.runtimes[deviceID]
	return runtime, ok
}

// Close stops every runtime.
func (m *Manager) Close() {
	m.mu.Lock()
	runtimes := m.runtimes
	m.runtimes = make(map[int64]*Runtime)
	m.mu.Unlock()

	for id, runtime := range runtimes {
		runtime.cancel()
		runtime.Client.Close()
		log.Printf("Stopped poller for device %d", id)
	}
}
