package reveal

// TextStream reveals a text one character per StreamInterval, typewriter
// style. The text is prefixed with a single space before it is revealed.
// Not safe for concurrent use.
type TextStream struct {
	sched    Scheduler
	onTick   func(text string)
	onDone   func(text string)
	full     []rune
	revealed int
	phase    Phase
	timer    Timer
}

func NewTextStream(sched Scheduler, onTick, onDone func(string)) *TextStream {
	return &TextStream{sched: sched, onTick: onTick, onDone: onDone, phase: PhaseIdle}
}

// Start cancels any running reveal and begins revealing text from nothing.
func (s *TextStream) Start(text string) {
	s.Stop()
	s.full = []rune(" " + text)
	s.revealed = 0
	s.phase = PhaseStreaming
	s.timer = s.sched.AfterFunc(StreamInterval, s.tick)
}

func (s *TextStream) tick() {
	s.timer = nil
	if s.phase != PhaseStreaming {
		return
	}
	s.revealed++
	text := s.Text()
	if s.onTick != nil {
		s.onTick(text)
	}
	if s.revealed >= len(s.full) {
		s.phase = PhaseDone
		if s.onDone != nil {
			s.onDone(text)
		}
		return
	}
	s.timer = s.sched.AfterFunc(StreamInterval, s.tick)
}

// Stop freezes the revealed prefix. A running stream ends in PhaseStopped.
func (s *TextStream) Stop() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	if s.phase == PhaseStreaming {
		s.phase = PhaseStopped
	}
}

// Reset stops the stream and clears the revealed text.
func (s *TextStream) Reset() {
	s.Stop()
	s.full = nil
	s.revealed = 0
	s.phase = PhaseIdle
}

// Text is the revealed prefix.
func (s *TextStream) Text() string { return string(s.full[:s.revealed]) }

// Full is the whole text being revealed, leading space included.
func (s *TextStream) Full() string { return string(s.full) }

func (s *TextStream) Revealed() int { return s.revealed }
func (s *TextStream) Phase() Phase  { return s.phase }
