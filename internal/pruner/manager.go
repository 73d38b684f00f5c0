package pruner

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/rzbill/chronicle/pkg/log"
)

// Config tunes the pruning driver.
type Config struct {
	// Enable turns background pruning on.
	Enable bool `json:"enable" yaml:"enable"`
	// PruneWindow is how many recent versions stay readable behind the latest
	// committed version.
	PruneWindow uint64 `json:"pruneWindow" yaml:"pruneWindow"`
	// BatchSize bounds how many versions one Prune call may cover. Smaller
	// batches yield shorter store stalls; larger batches catch up faster.
	BatchSize uint64 `json:"batchSize" yaml:"batchSize"`
	// PollInterval is how often the worker re-checks for work even without an
	// explicit wake. Zero disables polling.
	PollInterval time.Duration `json:"pollInterval" yaml:"pollInterval"`
}

// DefaultConfig returns the built-in driver defaults.
func DefaultConfig() Config {
	return Config{
		Enable:       true,
		PruneWindow:  100_000,
		BatchSize:    500,
		PollInterval: time.Second,
	}
}

// Status is a point-in-time snapshot of one pruner's progress.
type Status struct {
	Name                 string `json:"name"`
	LeastReadableVersion uint64 `json:"leastReadableVersion"`
	TargetVersion        uint64 `json:"targetVersion"`
}

// Manager is the pruner driver: it owns the background worker that turns the
// latest committed version into per-pruner targets and repeatedly invokes
// bounded prune steps until every pruner has caught up. Retention policy
// (the prune window) lives here, outside the pruner contract.
type Manager struct {
	cfg     Config
	pruners []Pruner
	logger  log.Logger

	latest atomic.Uint64
	wake   chan struct{}
	stop   chan struct{}
	done   chan struct{}

	startOnce sync.Once
	stopOnce  sync.Once
}

// NewManager builds a driver over the given pruners. A nil logger discards
// output.
func NewManager(cfg Config, pruners []Pruner, logger log.Logger) *Manager {
	if cfg.BatchSize == 0 {
		cfg.BatchSize = DefaultConfig().BatchSize
	}
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &Manager{
		cfg:     cfg,
		pruners: pruners,
		logger:  logger.WithComponent("pruner"),
		wake:    make(chan struct{}, 1),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// Start launches the background worker. No-op when pruning is disabled.
func (m *Manager) Start() {
	if !m.cfg.Enable {
		return
	}
	m.startOnce.Do(func() { go m.run() })
}

// Stop terminates the worker and waits for it to exit. Safe to call even if
// Start never ran.
func (m *Manager) Stop() {
	if !m.cfg.Enable {
		return
	}
	m.stopOnce.Do(func() { close(m.stop) })
	m.startOnce.Do(func() { close(m.done) })
	<-m.done
}

// SetLatestVersion informs the driver of the newest committed ledger version.
// Each pruner's target becomes latest minus the prune window (saturating at
// zero); targets never move backwards. The worker is woken if needed.
func (m *Manager) SetLatestVersion(latest uint64) {
	m.latest.Store(latest)

	var target uint64
	if latest > m.cfg.PruneWindow {
		target = latest - m.cfg.PruneWindow
	}
	for _, p := range m.pruners {
		if target > p.TargetVersion() {
			p.SetTargetVersion(target)
		}
	}

	select {
	case m.wake <- struct{}{}:
	default:
	}
}

// Status reports every pruner's current progress.
func (m *Manager) Status() []Status {
	out := make([]Status, 0, len(m.pruners))
	for _, p := range m.pruners {
		out = append(out, Status{
			Name:                 p.Name(),
			LeastReadableVersion: p.LeastReadableVersion(),
			TargetVersion:        p.TargetVersion(),
		})
	}
	return out
}

// PruneOnce runs one synchronous pass: every pruner is stepped in BatchSize
// increments until it reaches its target or fails. A failed pruner is left
// where it was and retried on the next pass.
func (m *Manager) PruneOnce() {
	for _, p := range m.pruners {
		for p.LeastReadableVersion() < p.TargetVersion() {
			select {
			case <-m.stop:
				return
			default:
			}
			version, err := p.Prune(m.cfg.BatchSize)
			if err != nil {
				m.logger.Error("prune step failed",
					log.Str("pruner", p.Name()),
					log.Uint64("least_readable", p.LeastReadableVersion()),
					log.Uint64("target", p.TargetVersion()),
					log.Err(err),
				)
				break
			}
			m.logger.Debug("prune step",
				log.Str("pruner", p.Name()),
				log.Uint64("least_readable", version),
				log.Uint64("target", p.TargetVersion()),
			)
		}
	}
}

func (m *Manager) run() {
	defer close(m.done)

	var tick <-chan time.Time
	if m.cfg.PollInterval > 0 {
		t := time.NewTicker(m.cfg.PollInterval)
		defer t.Stop()
		tick = t.C
	}

	for {
		select {
		case <-m.stop:
			return
		case <-m.wake:
		case <-tick:
		}
		m.PruneOnce()
	}
}
