package media

import (
	"fmt"

	"github.com/gordonklaus/portaudio"
)

// Sink consumes fixed-size mono frames.
type Sink interface {
	Write(frame []float32) error
	Close() error
}

// OpenSink opens an output at rate taking frames of frameSize samples.
type OpenSink func(rate, frameSize int) (Sink, error)

type portaudioSink struct {
	stream *portaudio.Stream
	buf    []float32
}

// PortAudio opens the default output device. portaudio.Initialize must have
// been called.
func PortAudio(rate, frameSize int) (Sink, error) {
	s := &portaudioSink{buf: make([]float32, frameSize)}

	stream, err := portaudio.OpenDefaultStream(0, 1, float64(rate), frameSize, s.buf)
	if err != nil {
		return nil, fmt.Errorf("open output stream: %w", err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		return nil, fmt.Errorf("start output stream: %w", err)
	}

	s.stream = stream
	return s, nil
}

func (s *portaudioSink) Write(frame []float32) error {
	n := copy(s.buf, frame)
	clear(s.buf[n:])
	return s.stream.Write()
}

func (s *portaudioSink) Close() error {
	_ = s.stream.Stop()
	return s.stream.Close()
}
