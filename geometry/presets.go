package geometry

import (
	_ "embed"
	"fmt"
	"sort"

	"github.com/gocarina/gocsv"
)

// Preset is a known-good geometry and region for a specific part.
type Preset struct {
	Slug          string `csv:"slug"`
	Name          string `csv:"name"`
	StartAddress  uint32 `csv:"start_address"`
	EndAddress    uint32 `csv:"end_address"`
	ReadSize      uint32 `csv:"read_size"`
	ProgSize      uint32 `csv:"prog_size"`
	BlockSize     uint32 `csv:"block_size"`
	BlockCount    uint32 `csv:"block_count"`
	CacheSize     uint32 `csv:"cache_size"`
	LookaheadSize uint32 `csv:"lookahead_size"`
	BlockCycles   int32  `csv:"block_cycles"`
}

// Config returns the geometry of the preset. Optional limits are left unset.
func (p *Preset) Config() Config {
	return Config{
		ReadSize:      p.ReadSize,
		ProgSize:      p.ProgSize,
		BlockSize:     p.BlockSize,
		BlockCount:    p.BlockCount,
		CacheSize:     p.CacheSize,
		LookaheadSize: p.LookaheadSize,
		BlockCycles:   p.BlockCycles,
	}
}

func (p *Preset) Region() Region {
	return Region{Start: p.StartAddress, End: p.EndAddress}
}

//go:embed presets.csv
var presetsRawCSV string
var presets map[string]Preset

// LoadPreset returns the preset with the given slug.
func LoadPreset(slug string) (Preset, error) {
	preset, ok := presets[slug]
	if ok {
		return preset, nil
	}
	return Preset{}, fmt.Errorf("no predefined flash geometry exists with slug %q", slug)
}

// Presets returns every known preset, sorted by slug.
func Presets() []Preset {
	result := make([]Preset, 0, len(presets))
	for _, preset := range presets {
		result = append(result, preset)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Slug < result[j].Slug })
	return result
}

func init() {
	var rows []Preset
	if err := gocsv.UnmarshalString(presetsRawCSV, &rows); err != nil {
		panic(fmt.Errorf("failed to decode flash presets: %w", err))
	}

	presets = make(map[string]Preset, len(rows))
	for i, row := range rows {
		if _, exists := presets[row.Slug]; exists {
			panic(fmt.Errorf("duplicate definition for preset %q found on row %d", row.Slug, i+1))
		}
		presets[row.Slug] = row
	}
}
