package instrument

import (
	"math"

	"github.com/barelymusician/barelymusician/pkg/dsp/filter"
	"github.com/barelymusician/barelymusician/pkg/dsp/oscillator"
	"github.com/barelymusician/barelymusician/pkg/queue"
	"github.com/barelymusician/barelymusician/pkg/random"
	"github.com/barelymusician/barelymusician/pkg/voice"
)

// Processor is the audio-thread half of an Instrument: a fixed-capacity
// voice bank, the shared parameter block every voice reads, and a
// per-pitch lookup, driven entirely by messages drained from a queue.Queue
// (spec §4.F). It holds no locks; Process is its only entry point from the
// audio thread.
type Processor struct {
	q      *queue.Queue
	params *voice.Params
	bank   *voice.Bank

	sampleRate float64
	channels   int

	// slices is the currently installed slice table, keyed by root pitch —
	// SampleData swaps this wholesale; voices already sampling the old data
	// keep their own *sampler.Player reference and are unaffected until
	// their next TriggerNote (spec §4.F step 2 "SampleData").
	slices map[float64]Slice
}

// NewProcessor constructs a Processor draining q, rendering at sampleRate
// with the given channel count and initial voice count.
func NewProcessor(q *queue.Queue, sampleRate float64, channels int, noise *random.Source, voiceCount int) *Processor {
	params := voice.NewParams(sampleRate)
	return &Processor{
		q:          q,
		params:     params,
		bank:       voice.NewBank(sampleRate, noise, params, voiceCount),
		sampleRate: sampleRate,
		channels:   channels,
		slices:     make(map[float64]Slice),
	}
}

// Process renders frames samples of interleaved, channels-wide audio into
// out starting at absolute sample beginFrame, implementing the
// sub-buffer-splitting contract of spec §4.F: the queue is drained in
// timestamp order, each message split the buffer at its own frame so a
// NoteOn or ControlChange takes effect at sample-accurate precision.
func (p *Processor) Process(out []float32, frames int, beginFrame int64) {
	endFrame := beginFrame + int64(frames)
	cursor := 0

	for {
		msg, frame, ok := p.q.GetNext(endFrame)
		if !ok {
			break
		}
		splitAt := int(frame - beginFrame)
		if splitAt < cursor {
			splitAt = cursor
		}
		if splitAt > frames {
			splitAt = frames
		}
		p.render(out, cursor, splitAt)
		cursor = splitAt
		p.apply(msg)
	}

	p.render(out, cursor, frames)
	p.bank.ReapIdle()
}

// render fills out[from*channels .. to*channels) by mixing every active
// voice, duplicating each voice's mono output across channels.
func (p *Processor) render(out []float32, from, to int) {
	for i := from; i < to; i++ {
		var sample float32
		p.bank.ForEachActive(func(v *voice.Voice) {
			sample += v.Next()
		})
		base := i * p.channels
		for c := 0; c < p.channels; c++ {
			if base+c < len(out) {
				out[base+c] += sample
			}
		}
	}
}

// apply performs the mutation carried by one message (spec §4.F step 2).
func (p *Processor) apply(msg queue.Message) {
	switch msg.Kind {
	case queue.KindControlChange:
		p.applyControlChange(ControlType(msg.ControlType), msg.Value)

	case queue.KindNoteOn:
		controls := make([]voice.NoteControl, msg.NoteControlsLen)
		for i := 0; i < msg.NoteControlsLen; i++ {
			controls[i] = voice.NoteControl{
				Type:  NoteControlType(msg.NoteControls[i].Type),
				Value: msg.NoteControls[i].Value,
			}
		}
		p.bank.NoteOn(msg.Pitch, controls)
		if s, ok := p.nearestSlice(msg.Pitch); ok {
			p.bank.ForEachActive(func(v *voice.Voice) {
				if v.Pitch() == msg.Pitch {
					v.SetSampleData(s.Samples, s.SampleRate, p.sampleRate)
				}
			})
		}

	case queue.KindNoteOff:
		p.bank.NoteOff(msg.Pitch)

	case queue.KindNoteControlChange:
		p.bank.SetNoteControl(msg.Pitch, NoteControlType(msg.ControlType), msg.Value)

	case queue.KindSampleData:
		p.slices = make(map[float64]Slice, len(msg.Slices))
		for _, s := range msg.Slices {
			p.slices[s.RootPitch] = s
		}
	}
}

// nearestSlice picks the slice whose root pitch is closest to and at most
// pitch, falling back to the slice with the highest root pitch if none is
// <= pitch (spec §6 "Slice wire format").
func (p *Processor) nearestSlice(pitch float64) (Slice, bool) {
	var belowBest, highBest Slice
	haveBelow, haveAny := false, false
	belowRoot := math.Inf(-1)
	highRoot := math.Inf(-1)

	for root, s := range p.slices {
		haveAny = true
		if root > highRoot {
			highRoot, highBest = root, s
		}
		if root <= pitch && root > belowRoot {
			belowRoot, belowBest, haveBelow = root, s, true
		}
	}
	if haveBelow {
		return belowBest, true
	}
	return highBest, haveAny
}

func (p *Processor) applyControlChange(typ ControlType, value float64) {
	switch typ {
	case ControlGain:
		p.params.Gain = value
	case ControlPitchShift:
		p.params.PitchShift = value
	case ControlOscMix:
		p.params.OscMix = value
	case ControlOscMode:
		p.params.OscMode = voice.OscMode(value)
	case ControlOscShape:
		p.params.OscShape = oscillator.Shape(value)
	case ControlOscPitchShift:
		p.params.OscPitchShift = value
	case ControlSliceMode:
		p.params.SliceMode = voice.SliceMode(value)
	case ControlFilterType:
		p.params.FilterType = filter.Type(value)
	case ControlFilterFrequency:
		p.params.FilterFrequency = value
		p.params.RecomputeFilterCoefficient()
	case ControlFilterQ:
		p.params.FilterQ = value
	case ControlAttack:
		p.params.Attack = value
	case ControlDecay:
		p.params.Decay = value
	case ControlSustain:
		p.params.Sustain = value
	case ControlRelease:
		p.params.Release = value
	case ControlVoiceCount:
		p.bank.SetMaxVoices(int(value))
	case ControlRetrigger:
		p.params.Retrigger = value != 0
	}
}
