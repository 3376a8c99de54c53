package audio

import (
	"math"
	"time"
)

// segmenter cuts one utterance out of a stream of fixed-size frames using
// an RMS energy gate.
type segmenter struct {
	opt Options

	frames        int
	speaking      bool
	silenceFrames int
	out           []float32
}

func newSegmenter(opt Options) *segmenter {
	return &segmenter{opt: opt, out: make([]float32, 0, SampleRate*3)}
}

// push consumes one frame and reports whether recording should stop.
func (s *segmenter) push(frame []float32) bool {
	s.frames++
	elapsed := time.Duration(s.frames) * frameDur

	if frameRMS(frame) > s.opt.Threshold {
		s.speaking = true
		s.silenceFrames = 0
		s.out = append(s.out, frame...)
	} else if s.speaking {
		s.silenceFrames++
		s.out = append(s.out, frame...)
		if time.Duration(s.silenceFrames)*frameDur >= s.opt.Silence {
			return true
		}
	} else if elapsed >= s.opt.WaitTimeout {
		return true
	}

	return s.speaking && time.Duration(len(s.out))*time.Second/SampleRate >= s.opt.MaxLength
}

func (s *segmenter) result() ([]float32, error) {
	if !s.speaking {
		return nil, ErrNoSpeech
	}
	return s.out, nil
}

func frameRMS(f []float32) float64 {
	if len(f) == 0 {
		return 0
	}

	var s float64
	for _, x := range f {
		s += float64(x * x)
	}
	return math.Sqrt(s / float64(len(f)))
}
