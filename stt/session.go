package stt

import (
	"strings"

	"github.com/sio-go/sio/decoder"
	"github.com/sio-go/sio/feature"
	"github.com/sio-go/sio/sioerr"
)

// Session is one utterance's push/flush/read lifecycle over a Package.
// Push accumulates raw samples; Flush runs feature extraction, acoustic
// scoring, and decoding once, over everything pushed so far. A Session
// is not safe for concurrent use; capi and cmd/sttd each serialize
// access to one Session behind a per-handle mutex.
type Session struct {
	pkg  *Package
	beam *decoder.BeamSearch

	samples []float64
	flushed bool
	result  *Result
}

// Push appends one chunk of 16-bit little-endian mono PCM at the
// package's configured sample rate to the session's pending audio.
func (s *Session) Push(pcm []byte) error {
	if s.flushed {
		return sioerr.New(sioerr.PreconditionFailed, "stt: Push after Flush")
	}
	if len(pcm)%2 != 0 {
		return sioerr.New(sioerr.InvalidArgument, "stt: PCM chunk has an odd byte length")
	}
	for i := 0; i+1 < len(pcm); i += 2 {
		v := int16(uint16(pcm[i]) | uint16(pcm[i+1])<<8)
		s.samples = append(s.samples, float64(v)/32768.0)
	}
	return nil
}

// PushSamples appends already-decoded float64 samples in [-1, 1], for
// callers that did their own PCM decode (cmd/transcribe's WAV path).
func (s *Session) PushSamples(samples []float64) error {
	if s.flushed {
		return sioerr.New(sioerr.PreconditionFailed, "stt: PushSamples after Flush")
	}
	s.samples = append(s.samples, samples...)
	return nil
}

// Flush closes the session's input: it extracts features and acoustic
// scores over every sample pushed so far, decodes them, and traces back
// the best hypothesis. Calling Flush twice is a contract violation.
func (s *Session) Flush() error {
	sioerr.Check(!s.flushed, "stt: Flush called twice")
	s.flushed = true

	frames, err := feature.Extract(s.samples, s.pkg.FeatureConfig)
	if err != nil {
		return sioerr.Wrap(sioerr.InvalidArgument, err, "stt: extract features")
	}

	logPost := s.pkg.Scorer.ForwardFrames(frames)
	scores := make([]float32, s.pkg.Scorer.OutputDim)
	for _, frame := range logPost {
		s.pkg.Scorer.SubtractPrior(frame)
		for i, v := range frame {
			scores[i] = float32(v)
		}
		if err := s.beam.Push(scores); err != nil {
			return err
		}
	}

	if err := s.beam.PushEos(); err != nil {
		return err
	}

	nbest := s.beam.NBest()
	if len(nbest) == 0 {
		return sioerr.New(sioerr.NoRecognitionResult, "stt: decoder returned no hypothesis")
	}

	s.result = &Result{Tokens: append([]int32(nil), nbest[0]...), Text: s.renderText(nbest[0])}
	return nil
}

func (s *Session) renderText(tokens []int32) string {
	tok := s.pkg.Tokenizer
	var b strings.Builder
	for _, id := range tokens {
		if id == tok.Bos() || id == tok.Eos() || id == tok.Blk() {
			continue
		}
		b.WriteString(tok.Token(id))
	}
	return b.String()
}

// Text returns the session's decoded text. Valid only after Flush.
func (s *Session) Text() (string, error) {
	if s.result == nil {
		return "", sioerr.New(sioerr.PreconditionFailed, "stt: Text before Flush")
	}
	return s.result.Text, nil
}

// Result returns the session's full decoded result. Valid only after
// Flush.
func (s *Session) Result() (*Result, error) {
	if s.result == nil {
		return nil, sioerr.New(sioerr.PreconditionFailed, "stt: Result before Flush")
	}
	return s.result, nil
}

// Close releases the session's decoder state permanently; the Session
// must not be used again afterward.
func (s *Session) Close() error {
	return s.beam.DeinitSession()
}

// Clear resets the session to a fresh utterance under sessionKey,
// discarding any pushed audio and decoded result but keeping the
// Session (and its handle, for capi callers) alive for reuse.
func (s *Session) Clear(sessionKey string) error {
	if err := s.beam.DeinitSession(); err != nil {
		return err
	}
	s.samples = nil
	s.flushed = false
	s.result = nil
	return s.beam.InitSession(sessionKey)
}
