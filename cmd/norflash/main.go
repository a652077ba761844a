// Command norflash drives the flash adapter against a simulated controller
// whose contents live in an image file.
package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
)

func main() {
	app := cli.App{
		Name:  "norflash",
		Usage: "Exercise a NOR flash block device backed by an image file",
		Flags: deviceFlags(),
		Commands: []*cli.Command{
			{
				Name:   "bootcount",
				Usage:  "Mount the boot counter, formatting if needed, and increment it",
				Action: bootCount,
			},
			{
				Name:  "erase",
				Usage: "Erase one block, or every block if none is given",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "block",
						Usage: "index of the block to erase",
						Value: -1,
					},
				},
				Action: eraseBlocks,
			},
			{
				Name:   "presets",
				Usage:  "List the built-in geometry presets",
				Action: listPresets,
			},
			{
				Name:      "compress",
				Usage:     "Compress an image with RLE8 and gzip",
				ArgsUsage: "INPUT_FILE OUTPUT_FILE",
				Action:    compressImage,
			},
			{
				Name:      "decompress",
				Usage:     "Expand an image compressed with the compress command",
				ArgsUsage: "INPUT_FILE OUTPUT_FILE",
				Action:    decompressImage,
			},
		},
	}

	err := app.Run(os.Args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %s\n", err.Error())
		os.Exit(1)
	}
}
