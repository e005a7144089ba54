// ay.go - AY-3-8912 programmable sound generator for the 128K/+2/+2A/+3
// variants (CapAYChip). Adapted from the teacher's generic multi-format
// PSGEngine (psg_engine.go) and its SoundChip DSP backend (audio_chip.go):
// this chip is reclocked to PSG_CLOCK_ZX_SPECTRUM and driven directly by
// live Z80 OUT/IN instructions through Z80_AY_REGISTER_PORT/Z80_AY_DATA_PORT
// (registers.go), rather than by replaying a recorded PSGEvent stream
// against a 32-bit memory-mapped FLEX_CH_* synth. The mutex the teacher
// used to protect the engine from a concurrent audio thread is dropped
// (§5: single-threaded cooperative model, same treatment as CPU_Z80).

package main

import "math"

const (
	ayRegisterCount = 14
	ayRingCapacity  = 4096
)

// psgPlusVolumeCurve is a logarithmic (YM2149-style) 16-step volume table,
// offered as an alternative to the AY's own linear one via psgPlusEnabled.
var psgPlusVolumeCurve = func() [16]float32 {
	var curve [16]float32
	curve[0] = 0
	for i := 1; i < len(curve); i++ {
		db := float64(i-15) * 2.0
		curve[i] = float32(math.Pow(10.0, db/20.0))
	}
	curve[15] = 1.0
	return curve
}()

func psgVolumeGain(level uint8, psgPlus bool) float32 {
	if level > 15 {
		level = 15
	}
	if psgPlus {
		return psgPlusVolumeCurve[level]
	}
	return float32(level) / 15.0
}

// sampleRing is the fixed-capacity FIFO shared by every AudioSource (the
// AY chip here, the 48K beeper in beeper.go): the driver thread pushes one
// sample at a time during §4.7 step 3, the oto callback thread pulls them
// back out via ReadSampleFromRing. No ecosystem queue in the example pack
// models a single-producer/single-consumer float32 ring this small; a
// channel would impose allocation and scheduling overhead TickSample (called
// thousands of times per frame) can't afford.
type sampleRing struct {
	buf  [ayRingCapacity]float32
	head int
	tail int
	len  int
}

func (r *sampleRing) push(v float32) {
	r.buf[r.tail] = v
	r.tail = (r.tail + 1) % ayRingCapacity
	if r.len == ayRingCapacity {
		r.head = (r.head + 1) % ayRingCapacity
	} else {
		r.len++
	}
}

func (r *sampleRing) pop() float32 {
	if r.len == 0 {
		return 0
	}
	v := r.buf[r.head]
	r.head = (r.head + 1) % ayRingCapacity
	r.len--
	return v
}

// AudioSource is a frame-ticked sample generator feeding a pull-based audio
// backend (§4.7 step 3). AYChip and Beeper (beeper.go) both implement it,
// letting the oto/headless backends stay agnostic of machine variant.
type AudioSource interface {
	GenerateFrame(n int)
	ReadSampleFromRing() float32
}

// AYChip is the three tone generators, one noise generator, one envelope
// generator and 14-register file of an AY-3-8912, mixed down to a stream of
// samples consumed by the audio backend through ReadSampleFromRing.
type AYChip struct {
	regs     [ayRegisterCount]uint8
	selected uint8

	sampleRate int
	clockHz    uint32

	toneCounter [3]uint32
	toneOutput  [3]bool

	noiseCounter uint32
	noiseShift   uint32
	noiseOutput  bool

	envPeriodSamples float64
	envSampleCounter float64
	envLevel         int
	envDirection     int
	envContinue      bool
	envAlternate     bool
	envAttack        bool
	envHoldRequest   bool
	envHoldActive    bool

	psgPlusEnabled bool // extended logarithmic volume curve

	ring sampleRing
}

// NewAYChip builds a chip clocked at the real Spectrum AY rate, producing
// samples at sampleRate for the audio backend.
func NewAYChip(sampleRate int) *AYChip {
	chip := &AYChip{
		sampleRate:   sampleRate,
		clockHz:      PSG_CLOCK_ZX_SPECTRUM,
		envLevel:     15,
		envDirection: -1,
		noiseShift:   1,
	}
	chip.updateEnvPeriodSamples()
	return chip
}

// SetPSGPlusEnabled toggles the logarithmic (YM-style) volume table in place
// of the AY's linear one; resolved as a runtime option rather than a build
// variant so a running machine can switch without reinitialising the chip.
func (c *AYChip) SetPSGPlusEnabled(enabled bool) { c.psgPlusEnabled = enabled }

// HandlePortWrite services an OUT to the AY's two Spectrum-decoded ports:
// 0xFFFD latches the active register, 0xBFFD writes it.
func (c *AYChip) HandlePortWrite(port uint16, value byte) {
	switch {
	case IsAYRegisterPort(port):
		c.selected = value & 0x0f
	case IsAYDataPort(port):
		c.writeRegister(c.selected, value)
	}
}

// HandlePortRead services an IN from the same two ports: 0xFFFD returns the
// latched register index, 0xBFFD returns that register's value.
func (c *AYChip) HandlePortRead(port uint16) (byte, bool) {
	switch {
	case IsAYRegisterPort(port):
		return c.selected, true
	case IsAYDataPort(port):
		return c.regs[c.selected], true
	}
	return 0, false
}

func (c *AYChip) writeRegister(reg, value uint8) {
	if reg >= ayRegisterCount {
		return
	}
	c.regs[reg] = value
	switch reg {
	case 11, 12:
		c.updateEnvPeriodSamples()
	case 13:
		c.resetEnvelope()
	}
}

func (c *AYChip) updateEnvPeriodSamples() {
	period := uint16(c.regs[11]) | uint16(c.regs[12])<<8
	if period == 0 {
		period = 1
	}
	c.envPeriodSamples = float64(c.sampleRate) * 256.0 * float64(period) / float64(c.clockHz)
	if c.envPeriodSamples <= 0 {
		c.envPeriodSamples = 1
	}
}

func (c *AYChip) resetEnvelope() {
	shape := c.regs[13] & 0x0f
	c.envContinue = shape&0x08 != 0
	c.envAttack = shape&0x04 != 0
	c.envAlternate = shape&0x02 != 0
	c.envHoldRequest = shape&0x01 != 0
	c.envHoldActive = false
	if c.envAttack {
		c.envLevel = 0
		c.envDirection = 1
	} else {
		c.envLevel = 15
		c.envDirection = -1
	}
}

func (c *AYChip) advanceEnvelope() {
	c.envSampleCounter++
	if c.envSampleCounter < c.envPeriodSamples {
		return
	}

	steps := int(c.envSampleCounter / c.envPeriodSamples)
	c.envSampleCounter -= float64(steps) * c.envPeriodSamples

	for i := 0; i < steps; i++ {
		if c.envHoldActive {
			break
		}

		c.envLevel += c.envDirection
		if c.envLevel > 15 {
			c.envLevel = 15
		}
		if c.envLevel < 0 {
			c.envLevel = 0
		}

		if c.envLevel == 0 || c.envLevel == 15 {
			if !c.envContinue {
				c.envLevel = 0
				c.envHoldActive = true
				break
			}
			if c.envHoldRequest {
				c.envHoldActive = true
				if c.envAlternate {
					if c.envDirection > 0 {
						c.envLevel = 0
					} else {
						c.envLevel = 15
					}
				}
				break
			}
			if c.envAlternate {
				c.envDirection = -c.envDirection
			}
			if c.envDirection > 0 {
				c.envLevel = 0
			} else {
				c.envLevel = 15
			}
		}
	}
}

// tonePeriod returns the 12-bit period for tone channel ch (0-2).
func (c *AYChip) tonePeriod(ch int) uint32 {
	low := uint32(c.regs[ch*2])
	high := uint32(c.regs[ch*2+1] & 0x0f)
	period := (high << 8) | low
	if period == 0 {
		period = 1
	}
	return period
}

func (c *AYChip) noisePeriod() uint32 {
	period := uint32(c.regs[6] & 0x1f)
	if period == 0 {
		period = 1
	}
	return period
}

// advanceGenerators steps the tone and noise square-wave dividers by the
// number of AY clock ticks one output sample spans, toggling each output
// whenever its period elapses (the real chip divides its input clock by 16
// before this toggle; that division is folded into ticksPerSample).
func (c *AYChip) advanceGenerators() {
	ticksPerSample := c.clockHz / uint32(c.sampleRate) / 16
	if ticksPerSample == 0 {
		ticksPerSample = 1
	}

	for ch := 0; ch < 3; ch++ {
		period := c.tonePeriod(ch)
		c.toneCounter[ch] += ticksPerSample
		for c.toneCounter[ch] >= period {
			c.toneCounter[ch] -= period
			c.toneOutput[ch] = !c.toneOutput[ch]
		}
	}

	period := c.noisePeriod()
	c.noiseCounter += ticksPerSample
	for c.noiseCounter >= period {
		c.noiseCounter -= period
		bit := (c.noiseShift ^ (c.noiseShift >> 3)) & 1
		c.noiseShift = (c.noiseShift >> 1) | (bit << 16)
		c.noiseOutput = c.noiseShift&1 != 0
	}
}

// mix combines the three tone/noise channels through the register-7 mixer
// mask and per-channel volume/envelope select, the same bit layout
// psg_engine.go's applyVolumes reads, but folded straight into a sample
// instead of being written out to a generic synth's channel registers.
func (c *AYChip) mix() float32 {
	mixer := c.regs[7]
	toneEnabled := [3]bool{mixer&0x01 == 0, mixer&0x02 == 0, mixer&0x04 == 0}
	noiseEnabled := [3]bool{mixer&0x08 == 0, mixer&0x10 == 0, mixer&0x20 == 0}

	var sum float32
	for ch := 0; ch < 3; ch++ {
		toneBit := true
		if toneEnabled[ch] {
			toneBit = c.toneOutput[ch]
		}
		noiseBit := true
		if noiseEnabled[ch] {
			noiseBit = c.noiseOutput
		}
		if !toneBit || !noiseBit {
			continue
		}

		vol := c.regs[8+ch]
		level := vol & 0x0f
		if vol&0x10 != 0 {
			level = uint8(c.envLevel)
		}
		sum += psgVolumeGain(level, c.psgPlusEnabled)
	}
	return sum / 3
}

// TickSample advances tone/noise/envelope generators by one output sample
// period and buffers the mixed result. Called once per sample by
// GenerateFrame (mirrors psg_engine.go's TickSample, minus the
// file-playback event scheduling that has no place in a chip driven live by
// the Z80 rather than by a recorded register stream).
func (c *AYChip) TickSample() {
	c.advanceEnvelope()
	c.advanceGenerators()
	c.ring.push(c.mix())
}

// GenerateFrame advances the chip by n samples, matching the frame driver's
// "advance the audio generator one frame" step (§4.7 step 3); n is the
// sample count one frame spans at the backend's configured sample rate.
func (c *AYChip) GenerateFrame(n int) {
	for i := 0; i < n; i++ {
		c.TickSample()
	}
}

// ReadSampleFromRing pops the oldest buffered sample, matching the teacher
// audio backend's pull-based consumption contract (audio_backend_oto.go).
// Returns silence if the chip has not produced a sample yet.
func (c *AYChip) ReadSampleFromRing() float32 {
	return c.ring.pop()
}
