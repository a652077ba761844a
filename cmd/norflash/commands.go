package main

import (
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/dargueta/norflash/bootcount"
	"github.com/dargueta/norflash/errors"
	"github.com/dargueta/norflash/geometry"
	"github.com/dargueta/norflash/utilities/compression"
)

func bootCount(c *cli.Context) error {
	s, err := openSession(c)
	if err != nil {
		return err
	}
	defer s.Close()

	counter, err := bootcount.New(s.device, s.device.Geometry())
	if err != nil {
		return err
	}

	formatted, err := counter.MountOrFormat()
	if err != nil {
		return err
	}
	if formatted {
		s.logger.Warn("Boot counter was unreadable, formatted it")
	}

	value, err := counter.Increment()
	if err != nil {
		return err
	}

	s.logger.Info("Boot count updated", "value", value, "watchdogFeeds", s.feeds.Load())
	fmt.Printf("boot_count: %d\n", value)
	return nil
}

func eraseBlocks(c *cli.Context) error {
	s, err := openSession(c)
	if err != nil {
		return err
	}
	defer s.Close()

	blockCount := s.device.Geometry().BlockCount
	if block := c.Int("block"); block >= 0 {
		return s.device.Erase(uint32(block))
	}
	for block := uint32(0); block < blockCount; block++ {
		if err := s.device.Erase(block); err != nil {
			return err
		}
	}
	fmt.Printf("Erased %d blocks.\n", blockCount)
	return nil
}

func listPresets(c *cli.Context) error {
	for _, preset := range geometry.Presets() {
		cfg := preset.Config()
		fmt.Printf(
			"%-20s %s  %d x %d bytes  %s\n",
			preset.Slug,
			preset.Region(),
			cfg.BlockCount,
			cfg.BlockSize,
			preset.Name)
	}
	return nil
}

func compressImage(c *cli.Context) error {
	return convertImage(c, compression.CompressImage)
}

func decompressImage(c *cli.Context) error {
	return convertImage(c, compression.DecompressImage)
}

func convertImage(c *cli.Context, convert func(input io.Reader, output io.Writer) (int64, error)) error {
	if c.NArg() != 2 {
		return errors.NewWithMessage(
			errors.EINVAL, fmt.Sprintf("expected 2 arguments, got %d", c.NArg()))
	}

	sourceFile, err := os.Open(c.Args().Get(0))
	if err != nil {
		return err
	}
	defer sourceFile.Close()

	outFile, err := os.Create(c.Args().Get(1))
	if err != nil {
		return err
	}
	defer outFile.Close()

	nWritten, err := convert(sourceFile, outFile)
	if err != nil {
		return err
	}
	fmt.Printf("Wrote %d bytes to %s.\n", nWritten, c.Args().Get(1))
	return nil
}
