package reagent

import (
	"strings"
	"sync"
)

// Chunk is one fragment of an in-progress generation.
type Chunk struct {
	// Content is the text fragment.
	Content string

	// Err is set on the final chunk when generation failed mid-stream.
	Err error
}

// Stream is a first-class, finite, non-restartable sequence of text fragments
// produced by a [StreamingModel]. Consumers range over Chunks() and then call
// Response() for the final result; the concatenation of all chunk contents
// equals the non-streaming result.
//
// The internal buffer is unbounded, so producers never block on a slow or
// absent consumer.
type Stream struct {
	in   chan Chunk
	out  chan Chunk
	done chan struct{}

	mu          sync.Mutex
	accumulated strings.Builder
	resp        *ContentResponse
	err         error
}

// NewStream creates a Stream ready for a single producer.
func NewStream() *Stream {
	s := &Stream{
		in:   make(chan Chunk),
		out:  make(chan Chunk),
		done: make(chan struct{}),
	}
	go s.pump()
	return s
}

// pump moves chunks from the producer to the consumer through an unbounded
// queue, then closes the consumer channel.
func (s *Stream) pump() {
	var queue []Chunk
	in := s.in
	for in != nil || len(queue) > 0 {
		var out chan Chunk
		var next Chunk
		if len(queue) > 0 {
			out = s.out
			next = queue[0]
		}
		select {
		case c, ok := <-in:
			if !ok {
				in = nil
				continue
			}
			queue = append(queue, c)
		case out <- next:
			queue = queue[1:]
		}
	}
	close(s.out)
}

// Chunks returns the channel of fragments. It is closed after Complete.
func (s *Stream) Chunks() <-chan Chunk {
	return s.out
}

// Send appends one text fragment. Must only be called by the producer before
// Complete.
func (s *Stream) Send(content string) {
	s.mu.Lock()
	s.accumulated.WriteString(content)
	s.mu.Unlock()
	s.in <- Chunk{Content: content}
}

// Complete finishes the stream with the final response or error. Exactly one
// call is allowed; after it, Chunks() drains and closes and Response()
// unblocks.
func (s *Stream) Complete(resp *ContentResponse, err error) {
	s.mu.Lock()
	s.resp = resp
	s.err = err
	s.mu.Unlock()
	if err != nil {
		s.in <- Chunk{Err: err}
	}
	close(s.in)
	close(s.done)
}

// Response blocks until Complete and returns the final response or the error
// that ended the stream.
func (s *Stream) Response() (*ContentResponse, error) {
	<-s.done
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resp, s.err
}

// Accumulated returns all content sent so far.
func (s *Stream) Accumulated() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accumulated.String()
}

// Sink receives fragments as they arrive. The core folds streams into full
// responses itself; a Sink lets a caller forward fragments to any output
// surface without coupling the loop to it.
type Sink interface {
	// Write receives one fragment.
	Write(fragment string)
}

// SinkFunc adapts a function to the [Sink] interface.
type SinkFunc func(fragment string)

// Write implements Sink.
func (f SinkFunc) Write(fragment string) { f(fragment) }

// Drain consumes an entire stream, forwarding each fragment to sink (which
// may be nil) and returning the final response. This is how the loops consume
// a [StreamingModel].
func Drain(stream *Stream, sink Sink) (*ContentResponse, error) {
	for chunk := range stream.Chunks() {
		if chunk.Err != nil {
			// The error is also returned by Response below.
			continue
		}
		if sink != nil && chunk.Content != "" {
			sink.Write(chunk.Content)
		}
	}
	return stream.Response()
}
