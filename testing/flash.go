// Package testing contains helpers for tests that need a simulated flash
// device. Import it under another name, e.g. `flashtest`.
package testing

import (
	"bytes"
	"crypto/rand"
	"io"
	"sync/atomic"
	"testing"

	"github.com/dargueta/norflash/adapter"
	"github.com/dargueta/norflash/controller/sim"
	"github.com/dargueta/norflash/geometry"
	"github.com/dargueta/norflash/utilities/compression"
	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/bytesextra"
)

// NewSimDevice creates a simulated controller and an adapter with geometry
// `cfg` bound to it. The controller's page size always matches the block size.
// Unless `opts` say otherwise, the default region is used.
//
// The test fails immediately if initialization fails.
func NewSimDevice(
	t *testing.T, cfg geometry.Config, simOpts sim.Options, opts ...adapter.Option,
) (*adapter.Device, *sim.Controller) {
	t.Helper()

	simOpts.PageSize = cfg.BlockSize
	ctrl := sim.New(simOpts)

	opts = append([]adapter.Option{adapter.WithGeometry(cfg)}, opts...)
	device, err := adapter.Initialize(ctrl, opts...)
	require.NoError(t, err, "failed to initialize device")

	t.Cleanup(func() {
		ctrl.Quiesce()
		device.Close()
	})
	return device, ctrl
}

// WatchdogCounter returns a watchdog feed function and the counter it
// increments.
func WatchdogCounter() (func(), *atomic.Int64) {
	counter := &atomic.Int64{}
	return func() { counter.Add(1) }, counter
}

// CreateRandomImage creates an image with the given number of blocks and bytes
// per block. It is guaranteed to either return a valid slice or fail the test
// and abort.
func CreateRandomImage(bytesPerBlock, totalBlocks uint32, t *testing.T) []byte {
	backingData := make([]byte, bytesPerBlock*totalBlocks)

	_, err := rand.Read(backingData)
	require.NoErrorf(
		t,
		err,
		"failed to initialize %d blocks of size %d with random bytes",
		totalBlocks,
		bytesPerBlock,
	)
	return backingData
}

// CreateErasedImage creates a fully erased image covering `cfg`.
func CreateErasedImage(cfg *geometry.Config) []byte {
	return bytes.Repeat([]byte{sim.ErasedByte}, int(cfg.TotalSize()))
}

// LoadFlashImage takes a compressed flash image and returns a stream to access
// the uncompressed data, suitable as [sim.Options.Backing].
//
//   - Writes to the stream do not affect `compressedImageBytes`.
//   - The size of the stream is fixed to `blockSize * blockCount`.
func LoadFlashImage(
	t *testing.T, compressedImageBytes []byte, blockSize, blockCount uint32,
) io.ReadWriteSeeker {
	require.Greater(t, len(compressedImageBytes), 0, "compressed image is empty")

	imageBytes, err := compression.DecompressImageToBytes(bytes.NewReader(compressedImageBytes))
	require.NoError(t, err)

	require.Equal(
		t,
		blockSize*blockCount,
		uint32(len(imageBytes)),
		"uncompressed image is wrong size",
	)
	return bytesextra.NewReadWriteSeeker(imageBytes)
}
