package export

// State is the position of a pipeline in its run.
type State int32

const (
	Idle State = iota
	Preparing
	ExtractingAudio
	EncodingFrames
	FlushingAudio
	Muxing
	Done
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Preparing:
		return "preparing"
	case ExtractingAudio:
		return "extracting-audio"
	case EncodingFrames:
		return "encoding-frames"
	case FlushingAudio:
		return "flushing-audio"
	case Muxing:
		return "muxing"
	case Done:
		return "done"
	case Failed:
		return "failed"
	}
	return "unknown"
}

// Progress is reported after every state change and every encoded frame.
type Progress struct {
	State  State
	Frame  int
	Frames int
}

// Fraction of frames encoded, 0..1.
func (p Progress) Fraction() float64 {
	if p.Frames <= 0 {
		return 0
	}
	return float64(p.Frame) / float64(p.Frames)
}
