package rules

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

// ErrNoSnapshot is returned when no valid dictionary has been loaded yet.
var ErrNoSnapshot = errors.New("rules: no dictionary loaded")

// Provider hands out the current dictionary snapshot. Callers must fetch it
// once per unit of work and keep using that pointer.
type Provider interface {
	Current() (*Snapshot, error)
}

// ReloadObserver is notified of every reload attempt.
type ReloadObserver interface {
	ObserveRulesReload(result string)
}

// Reload results reported to a ReloadObserver.
const (
	ReloadOK     = "ok"
	ReloadFailed = "failed"
)

// StaticProvider always returns the same snapshot. A nil snapshot makes
// every Current call fail, which selects the built-in rules.
type StaticProvider struct {
	snap *Snapshot
}

// NewStaticProvider wraps snap.
func NewStaticProvider(snap *Snapshot) *StaticProvider {
	return &StaticProvider{snap: snap}
}

// Current implements Provider.
func (p *StaticProvider) Current() (*Snapshot, error) {
	if p.snap == nil {
		return nil, ErrNoSnapshot
	}
	return p.snap, nil
}

// FileProvider serves a dictionary loaded from a YAML or JSON file. The file
// is re-read when its modification time moves forward, and optionally on
// fsnotify events via Watch. A file that fails to load or validate never
// replaces the last good snapshot.
type FileProvider struct {
	path     string
	logger   zerolog.Logger
	observer ReloadObserver
	now      func() time.Time

	current atomic.Pointer[Snapshot]

	mu      sync.Mutex
	modTime time.Time
	lastErr error
}

// FileProviderOption customises a FileProvider.
type FileProviderOption func(*FileProvider)

// WithReloadObserver reports reload outcomes to o.
func WithReloadObserver(o ReloadObserver) FileProviderOption {
	return func(p *FileProvider) { p.observer = o }
}

// WithClock overrides the clock used to stamp snapshots.
func WithClock(now func() time.Time) FileProviderOption {
	return func(p *FileProvider) { p.now = now }
}

// NewFileProvider creates a provider for path and attempts the first load.
// A failed first load is logged, not returned: the provider then reports
// ErrNoSnapshot until a valid file appears.
func NewFileProvider(path string, logger zerolog.Logger, opts ...FileProviderOption) (*FileProvider, error) {
	if path == "" {
		return nil, fmt.Errorf("rules file path is required")
	}
	p := &FileProvider{
		path:   path,
		logger: logger.With().Str("component", "rules").Str("rules_file", path).Logger(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if info, err := os.Stat(path); err != nil {
		p.lastErr = fmt.Errorf("stat rules file: %w", err)
		p.logger.Warn().Err(err).Msg("rules file unavailable, using built-in classification rules")
	} else {
		p.reloadLocked(info.ModTime())
	}
	return p, nil
}

// Current implements Provider. It reloads first if the file changed on disk.
func (p *FileProvider) Current() (*Snapshot, error) {
	p.mu.Lock()
	if info, err := os.Stat(p.path); err == nil {
		if info.ModTime().After(p.modTime) {
			p.reloadLocked(info.ModTime())
		}
	} else if p.current.Load() == nil {
		p.lastErr = fmt.Errorf("stat rules file: %w", err)
	}
	lastErr := p.lastErr
	p.mu.Unlock()

	snap := p.current.Load()
	if snap == nil {
		if lastErr != nil {
			return nil, fmt.Errorf("%w: %v", ErrNoSnapshot, lastErr)
		}
		return nil, ErrNoSnapshot
	}
	return snap, nil
}

// Reload forces a re-read of the file regardless of its modification time.
func (p *FileProvider) Reload() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	info, err := os.Stat(p.path)
	if err != nil {
		p.lastErr = fmt.Errorf("stat rules file: %w", err)
		p.observe(ReloadFailed)
		return p.lastErr
	}
	p.reloadLocked(info.ModTime())
	return p.lastErr
}

// Watch subscribes to filesystem events for the rules file so edits are
// picked up without waiting for the next Current call.
func (p *FileProvider) Watch() {
	w := viper.New()
	w.SetConfigFile(p.path)
	w.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		if err := p.Reload(); err != nil {
			p.logger.Warn().Err(err).Str("event", e.Op.String()).Msg("rules reload after file event failed")
		}
	})
	w.WatchConfig()
}

func (p *FileProvider) reloadLocked(modTime time.Time) {
	// the mod time is recorded even on failure so a broken file is not
	// re-parsed on every call; the next edit bumps it again
	p.modTime = modTime

	dict, err := loadDictionary(p.path)
	if err == nil {
		var snap *Snapshot
		snap, err = NewSnapshot(dict, p.now())
		if err == nil {
			p.current.Store(snap)
			p.lastErr = nil
			p.observe(ReloadOK)
			p.logger.Info().
				Str("version", snap.Version()).
				Int("schema_version", snap.SchemaVersion()).
				Msg("rules dictionary loaded")
			return
		}
	}

	p.lastErr = err
	p.observe(ReloadFailed)
	evt := p.logger.Warn().Err(err)
	if prev := p.current.Load(); prev != nil {
		evt = evt.Str("kept_version", prev.Version())
	}
	evt.Msg("rules dictionary rejected")
}

func (p *FileProvider) observe(result string) {
	if p.observer != nil {
		p.observer.ObserveRulesReload(result)
	}
}

// loadDictionary reads a rules file with a fresh viper instance so concurrent
// reloads never share parser state.
func loadDictionary(path string) (Dictionary, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return Dictionary{}, fmt.Errorf("read rules file: %w", err)
	}
	var d Dictionary
	if err := v.Unmarshal(&d); err != nil {
		return Dictionary{}, fmt.Errorf("decode rules file: %w", err)
	}
	return d, nil
}

// LoadFile reads and validates a rules file once, without caching.
func LoadFile(path string) (*Snapshot, error) {
	d, err := loadDictionary(path)
	if err != nil {
		return nil, err
	}
	return NewSnapshot(d, time.Now())
}
