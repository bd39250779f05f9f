// Package config holds the simulation host's tunables: world sizing,
// tick rate, networking, and the intelligent-driver-model constants
// microtraffic uses. Config is built with a fluent Builder, the
// pattern the teacher stack uses for its own parameter sets.
package config

import (
	"fmt"
	"time"
)

// Preset names a canned configuration, analogous to the teacher's
// mainnet/testnet/local network tiers.
type Preset string

const (
	PresetSmallTown Preset = "small-town"
	PresetCity      Preset = "city"
	PresetStressTest Preset = "stress-test"
)

// IDM holds the intelligent-driver-model constants from spec §4.8,
// split between interior lanes and intersection lanes because they use
// different v0.
type IDM struct {
	A  float64 // max acceleration
	B  float64 // comfortable braking deceleration
	T  float64 // desired time headway
	S0 float64 // minimum gap
	V0 float64 // desired velocity
}

// Config is the full set of simulation parameters.
type Config struct {
	Machine          uint8
	PeerCount        int
	TickRate         time.Duration
	InteriorIDM      IDM
	IntersectionIDM  IDM
	MinLandmarkIncoming int
	LaneConnectThickness float64
	MaxTurnsPerCall  int
}

// Builder provides a fluent interface for constructing a Config,
// accumulating the first validation error across the chain so callers
// only need to check err once, at Build.
type Builder struct {
	cfg *Config
	err error
}

// NewBuilder returns a Builder seeded with sensible small-town
// defaults.
func NewBuilder() *Builder {
	return &Builder{
		cfg: &Config{
			PeerCount:    1,
			TickRate:     time.Second,
			InteriorIDM:  IDM{A: 1.2, B: 2.0, T: 1.5, S0: 2.0, V0: 15.0},
			IntersectionIDM: IDM{A: 1.2, B: 2.0, T: 1.5, S0: 2.0, V0: 8.0},
			MinLandmarkIncoming: 3,
			LaneConnectThickness: 0.001,
			MaxTurnsPerCall: 1000,
		},
	}
}

// FromPreset loads one of the canned presets.
func (b *Builder) FromPreset(p Preset) *Builder {
	if b.err != nil {
		return b
	}
	switch p {
	case PresetSmallTown:
		b.cfg.PeerCount = 1
	case PresetCity:
		b.cfg.PeerCount = 4
		b.cfg.IntersectionIDM.V0 = 6.0
	case PresetStressTest:
		b.cfg.PeerCount = 16
		b.cfg.MinLandmarkIncoming = 2
	default:
		b.err = fmt.Errorf("config: unknown preset %q", p)
	}
	return b
}

// WithMachine sets this host's machine id within the peer group.
func (b *Builder) WithMachine(machine uint8) *Builder {
	if b.err != nil {
		return b
	}
	b.cfg.Machine = machine
	return b
}

// WithPeerCount sets the expected size of the lockstep peer group.
func (b *Builder) WithPeerCount(n int) *Builder {
	if b.err != nil {
		return b
	}
	if n < 1 {
		b.err = fmt.Errorf("config: peer count must be at least 1, got %d", n)
		return b
	}
	b.cfg.PeerCount = n
	return b
}

// WithTickRate sets the real-time interval between outer-loop
// iterations.
func (b *Builder) WithTickRate(d time.Duration) *Builder {
	if b.err != nil {
		return b
	}
	if d <= 0 {
		b.err = fmt.Errorf("config: tick rate must be positive, got %s", d)
		return b
	}
	b.cfg.TickRate = d
	return b
}

// WithInteriorIDM overrides the car-following constants used on
// non-intersection lanes.
func (b *Builder) WithInteriorIDM(idm IDM) *Builder {
	if b.err != nil {
		return b
	}
	if idm.V0 <= 0 {
		b.err = fmt.Errorf("config: interior V0 must be positive, got %f", idm.V0)
		return b
	}
	b.cfg.InteriorIDM = idm
	return b
}

// WithIntersectionIDM overrides the car-following constants used on
// intersection lanes.
func (b *Builder) WithIntersectionIDM(idm IDM) *Builder {
	if b.err != nil {
		return b
	}
	if idm.V0 <= 0 {
		b.err = fmt.Errorf("config: intersection V0 must be positive, got %f", idm.V0)
		return b
	}
	b.cfg.IntersectionIDM = idm
	return b
}

// WithMinLandmarkIncoming sets the predecessor-count threshold a lane
// needs before it self-elects as a landmark (spec §4.9).
func (b *Builder) WithMinLandmarkIncoming(n int) *Builder {
	if b.err != nil {
		return b
	}
	if n < 1 {
		b.err = fmt.Errorf("config: min landmark incoming must be at least 1, got %d", n)
		return b
	}
	b.cfg.MinLandmarkIncoming = n
	return b
}

// Build returns the assembled Config, or the first error encountered
// during the chain.
func (b *Builder) Build() (*Config, error) {
	if b.err != nil {
		return nil, b.err
	}
	return b.cfg, nil
}
