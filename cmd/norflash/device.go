package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strconv"
	"sync/atomic"

	log "github.com/fclairamb/go-log"
	logrus "github.com/fclairamb/go-log/logrus"
	"github.com/urfave/cli/v2"

	"github.com/dargueta/norflash/adapter"
	"github.com/dargueta/norflash/buffers"
	"github.com/dargueta/norflash/controller/sim"
	"github.com/dargueta/norflash/errors"
	"github.com/dargueta/norflash/geometry"
)

func deviceFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "image",
			Usage: "file holding the flash region; created fully erased if missing",
			Value: "flash.img",
		},
		&cli.StringFlag{
			Name:  "preset",
			Usage: "start from a built-in geometry and region (see `presets`)",
		},
		&cli.StringFlag{
			Name:    "start",
			Usage:   "first address of the flash region",
			EnvVars: []string{"LFS_NRF52_START_ADDR"},
			Value:   fmt.Sprintf("0x%x", geometry.DefaultStartAddress),
		},
		&cli.StringFlag{
			Name:    "end",
			Usage:   "address just past the end of the flash region",
			EnvVars: []string{"LFS_NRF52_END_ADDR"},
			Value:   fmt.Sprintf("0x%x", geometry.DefaultEndAddress),
		},
		&cli.UintFlag{
			Name:    "read-size",
			EnvVars: []string{"LFS_NRF52_READ_SIZE"},
			Value:   geometry.DefaultReadSize,
		},
		&cli.UintFlag{
			Name:    "prog-size",
			EnvVars: []string{"LFS_NRF52_PROG_SIZE"},
			Value:   geometry.DefaultProgSize,
		},
		&cli.UintFlag{
			Name:    "block-size",
			Usage:   "erase unit size, in bytes",
			EnvVars: []string{"LFS_NRF52_PAGE_SIZE"},
			Value:   geometry.DefaultBlockSize,
		},
		&cli.UintFlag{
			Name:    "block-count",
			EnvVars: []string{"LFS_NRF52_PAGE_COUNT"},
			Value:   geometry.DefaultBlockCount,
		},
		&cli.UintFlag{
			Name:    "cache-size",
			EnvVars: []string{"LFS_NRF52_CACHE_SIZE"},
			Value:   geometry.DefaultCacheSize,
		},
		&cli.UintFlag{
			Name:    "lookahead-size",
			EnvVars: []string{"LFS_NRF52_LOOKAHEAD_SIZE"},
			Value:   geometry.DefaultLookaheadSize,
		},
		&cli.IntFlag{
			Name:    "block-cycles",
			Usage:   "erase cycles before metadata is moved, -1 to disable",
			EnvVars: []string{"LFS_NRF52_BLOCK_CYCLES"},
			Value:   geometry.DefaultBlockCycles,
		},
		&cli.UintFlag{Name: "name-max", EnvVars: []string{"LFS_NRF52_NAME_MAX"}},
		&cli.UintFlag{Name: "file-max", EnvVars: []string{"LFS_NRF52_FILE_MAX"}},
		&cli.UintFlag{Name: "attr-max", EnvVars: []string{"LFS_NRF52_ATTR_MAX"}},
		&cli.UintFlag{Name: "metadata-max", EnvVars: []string{"LFS_NRF52_METADATA_MAX"}},
		&cli.BoolFlag{
			Name:    "static-buffers",
			Usage:   "carve the cache buffers out of a fixed arena instead of the heap",
			EnvVars: []string{"LFS_NO_MALLOC"},
		},
		&cli.DurationFlag{
			Name:  "wait-limit",
			Usage: "fail requests the controller doesn't finish in this long (0 waits forever)",
		},
	}
}

// session is an open device and everything that has to be torn down with it.
type session struct {
	device *adapter.Device
	ctrl   *sim.Controller
	image  *os.File
	feeds  *atomic.Int64
	logger log.Logger
}

func (s *session) Close() error {
	s.ctrl.Quiesce()
	return errors.NewFromErrors(errors.EIO, s.device.Close(), s.image.Close())
}

// settingsFromFlags builds the geometry and region from the preset, if any,
// with explicitly set flags taking priority.
func settingsFromFlags(c *cli.Context) (geometry.Config, geometry.Region, error) {
	cfg := geometry.Default()
	region := geometry.DefaultRegion()

	if slug := c.String("preset"); slug != "" {
		preset, err := geometry.LoadPreset(slug)
		if err != nil {
			return cfg, region, err
		}
		cfg = preset.Config()
		region = preset.Region()
	}

	uintFields := map[string]*uint32{
		"read-size":      &cfg.ReadSize,
		"prog-size":      &cfg.ProgSize,
		"block-size":     &cfg.BlockSize,
		"block-count":    &cfg.BlockCount,
		"cache-size":     &cfg.CacheSize,
		"lookahead-size": &cfg.LookaheadSize,
	}
	for name, field := range uintFields {
		if c.IsSet(name) || c.String("preset") == "" {
			*field = uint32(c.Uint(name))
		}
	}
	if c.IsSet("block-cycles") || c.String("preset") == "" {
		cfg.BlockCycles = int32(c.Int("block-cycles"))
	}

	limits := map[string]*geometry.Limit{
		"name-max":     &cfg.NameMax,
		"file-max":     &cfg.FileMax,
		"attr-max":     &cfg.AttrMax,
		"metadata-max": &cfg.MetadataMax,
	}
	for name, limit := range limits {
		if c.IsSet(name) {
			*limit = geometry.Some(uint32(c.Uint(name)))
		}
	}

	addresses := map[string]*uint32{"start": &region.Start, "end": &region.End}
	for name, field := range addresses {
		if !c.IsSet(name) && c.String("preset") != "" {
			continue
		}
		value, err := strconv.ParseUint(c.String(name), 0, 32)
		if err != nil {
			return cfg, region, errors.NewFromError(errors.EINVAL, err)
		}
		*field = uint32(value)
	}
	return cfg, region, nil
}

// openImage opens the image file, creating it fully erased if it doesn't exist
// yet. An existing image must be exactly the size of the region.
func openImage(path string, region geometry.Region, logger log.Logger) (*os.File, error) {
	image, err := os.OpenFile(path, os.O_RDWR, 0)
	if err == nil {
		info, statErr := image.Stat()
		if statErr != nil {
			image.Close()
			return nil, statErr
		}
		if uint64(info.Size()) != region.Size() {
			image.Close()
			return nil, errors.NewWithMessage(
				errors.EINVAL,
				fmt.Sprintf(
					"image %q is %d bytes but region %s needs %d",
					path,
					info.Size(),
					region,
					region.Size()))
		}
		return image, nil
	}
	if !os.IsNotExist(err) {
		return nil, err
	}

	image, err = os.Create(path)
	if err != nil {
		return nil, err
	}
	blank := bytes.Repeat([]byte{sim.ErasedByte}, int(region.Size()))
	if _, err = image.Write(blank); err != nil {
		image.Close()
		return nil, err
	}
	if _, err = image.Seek(0, io.SeekStart); err != nil {
		image.Close()
		return nil, err
	}
	logger.Info("Created erased image", "path", path, "size", region.Size())
	return image, nil
}

func openSession(c *cli.Context) (*session, error) {
	logger := logrus.New()

	cfg, region, err := settingsFromFlags(c)
	if err != nil {
		return nil, err
	}
	if err = region.Validate(&cfg); err != nil {
		return nil, err
	}

	image, err := openImage(c.String("image"), region, logger)
	if err != nil {
		return nil, err
	}

	ctrl := sim.New(sim.Options{
		PageSize: cfg.BlockSize,
		Backing:  image,
		Logger:   logger.With("component", "controller"),
	})

	feeds := &atomic.Int64{}
	opts := []adapter.Option{
		adapter.WithGeometry(cfg),
		adapter.WithRegion(region),
		adapter.WithLogger(logger),
		adapter.WithWatchdog(func() { feeds.Add(1) }),
		adapter.WithWaitLimit(c.Duration("wait-limit")),
	}
	if c.Bool("static-buffers") {
		opts = append(opts, adapter.WithBufferProvider(buffers.ArenaFor(&cfg)))
	}

	device, err := adapter.Initialize(ctrl, opts...)
	if err != nil {
		image.Close()
		return nil, err
	}
	return &session{
		device: device,
		ctrl:   ctrl,
		image:  image,
		feeds:  feeds,
		logger: logger,
	}, nil
}
