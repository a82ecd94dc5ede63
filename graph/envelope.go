// SPDX-License-Identifier: EPL-2.0

package graph

// Stage is a state of the ADSR stage machine.
type Stage uint8

const (
	StageIdle Stage = iota
	StageAttack
	StageDecay
	StageSustain
	StageRelease
	StageDone
)

var stageNames = [...]string{"idle", "attack", "decay", "sustain", "release", "done"}

func (s Stage) String() string {
	if int(s) < len(stageNames) {
		return stageNames[s]
	}
	return "unknown"
}

// DefaultThreshold is the silence threshold used when an ADSR leaves it
// unset.
const DefaultThreshold = 0.001

// ADSR holds envelope timings in samples and the sustain level.
type ADSR struct {
	Attack    int
	Decay     int
	Sustain   float64 // 0..1
	Release   int
	Threshold float64 // level below which Release ends
}

func (p ADSR) threshold() float64 {
	if p.Threshold <= 0 {
		return DefaultThreshold
	}
	return p.Threshold
}

// Trigger is a gate change applied to an envelope.
type Trigger uint8

const (
	TriggerOn Trigger = iota + 1
	TriggerOff
)

// EnvState is the complete state of an envelope.
type EnvState struct {
	Stage Stage
	Level float64
	Pos   int     // samples spent in the current stage
	From  float64 // level when the current stage began
}

// Apply returns the state after a gate trigger. NoteOn restarts the
// attack from the current level; NoteOff releases from any sounding
// stage.
func Apply(s EnvState, trig Trigger) EnvState {
	switch trig {
	case TriggerOn:
		return EnvState{Stage: StageAttack, Level: s.Level, From: s.Level}
	case TriggerOff:
		switch s.Stage {
		case StageAttack, StageDecay, StageSustain:
			return EnvState{Stage: StageRelease, Level: s.Level, From: s.Level}
		}
	}
	return s
}

// Step advances the envelope by one sample. The returned Level is the
// envelope value for that sample.
func Step(p ADSR, s EnvState) EnvState {
	switch s.Stage {
	case StageAttack:
		pos := s.Pos + 1
		if p.Attack <= 0 || pos >= p.Attack {
			return EnvState{Stage: StageDecay, Level: 1, From: 1}
		}
		s.Pos = pos
		s.Level = s.From + (1-s.From)*float64(pos)/float64(p.Attack)
		return s

	case StageDecay:
		pos := s.Pos + 1
		if p.Decay <= 0 || pos >= p.Decay {
			if p.Sustain < p.threshold() {
				return EnvState{Stage: StageDone, Level: p.Sustain}
			}
			return EnvState{Stage: StageSustain, Level: p.Sustain, From: p.Sustain}
		}
		s.Pos = pos
		s.Level = 1 - (1-p.Sustain)*float64(pos)/float64(p.Decay)
		return s

	case StageSustain:
		s.Level = p.Sustain
		return s

	case StageRelease:
		pos := s.Pos + 1
		level := 0.0
		if p.Release > 0 && pos < p.Release {
			level = s.From * (1 - float64(pos)/float64(p.Release))
		}
		if level < p.threshold() {
			return EnvState{Stage: StageDone, Level: level}
		}
		s.Pos = pos
		s.Level = level
		return s

	case StageDone:
		s.Level = 0
		return s
	}
	return EnvState{}
}

// Envelope shapes its summed inputs with an ADSR. Without inputs it
// outputs the envelope level itself, for use as a control signal.
type Envelope struct {
	ADSR ADSR
	// Depth scales the output; zero means 1.
	Depth float64

	state    EnvState
	velocity float64
}

func (e *Envelope) Process(_ *Context, in []float64) float64 {
	e.state = Step(e.ADSR, e.state)
	level := e.state.Level * e.velocity
	if e.Depth != 0 {
		level *= e.Depth
	}
	if len(in) == 0 {
		return level
	}
	return sum(in) * level
}

func (e *Envelope) NoteOn(velocity float64) {
	e.velocity = velocity
	e.state = Apply(e.state, TriggerOn)
}

func (e *Envelope) NoteOff() {
	e.state = Apply(e.state, TriggerOff)
}

// Stage returns the current stage.
func (e *Envelope) Stage() Stage { return e.state.Stage }

// Level returns the current level before velocity and depth.
func (e *Envelope) Level() float64 { return e.state.Level }

// State returns a copy of the full envelope state.
func (e *Envelope) State() EnvState { return e.state }

func (e *Envelope) SetParam(name string, v float64) bool {
	switch name {
	case "attack":
		e.ADSR.Attack = int(v)
	case "decay":
		e.ADSR.Decay = int(v)
	case "sustain":
		e.ADSR.Sustain = min(max(v, 0), 1)
	case "release":
		e.ADSR.Release = int(v)
	case "depth":
		e.Depth = v
	default:
		return false
	}
	return true
}

func (e *Envelope) Clone() Node {
	return &Envelope{ADSR: e.ADSR, Depth: e.Depth}
}

func (e *Envelope) Reset() {
	e.state = EnvState{}
	e.velocity = 0
}
