package adapter

import (
	"time"

	log "github.com/fclairamb/go-log"

	"github.com/dargueta/norflash"
	"github.com/dargueta/norflash/buffers"
	"github.com/dargueta/norflash/geometry"
)

// Option customizes a [Device] at initialization.
type Option func(*settings)

type settings struct {
	geometry  geometry.Config
	region    geometry.Region
	feed      norflash.WatchdogFeed
	logger    log.Logger
	provider  buffers.Provider
	waitLimit time.Duration
}

// WithGeometry replaces the default geometry.
func WithGeometry(cfg geometry.Config) Option {
	return func(s *settings) {
		s.geometry = cfg
	}
}

// WithRegion replaces the default flash region.
func WithRegion(region geometry.Region) Option {
	return func(s *settings) {
		s.region = region
	}
}

// WithPreset takes both the geometry and the region from a preset.
func WithPreset(preset geometry.Preset) Option {
	return func(s *settings) {
		s.geometry = preset.Config()
		s.region = preset.Region()
	}
}

// WithWatchdog registers a function called on every iteration of every wait.
func WithWatchdog(feed norflash.WatchdogFeed) Option {
	return func(s *settings) {
		s.feed = feed
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger log.Logger) Option {
	return func(s *settings) {
		s.logger = logger
	}
}

// WithBufferProvider chooses where the engine's cache buffers come from. The
// default is [buffers.Heap].
func WithBufferProvider(provider buffers.Provider) Option {
	return func(s *settings) {
		s.provider = provider
	}
}

// WithWaitLimit bounds how long a single operation may wait on the controller.
// A wait that runs past the limit fails with ETIMEDOUT. Zero, the default,
// waits forever.
func WithWaitLimit(limit time.Duration) Option {
	return func(s *settings) {
		s.waitLimit = limit
	}
}
