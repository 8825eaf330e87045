package stt_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sio-go/sio/decoder"
	"github.com/sio-go/sio/feature"
	"github.com/sio-go/sio/fsa"
	"github.com/sio-go/sio/scorer"
	"github.com/sio-go/sio/stt"
	"github.com/sio-go/sio/tokenizer"
)

func onePhoneVocab() *tokenizer.Simple {
	return &tokenizer.Simple{
		Vocab: []string{"<blk>", "<unk>", "<bos>", "<eos>", "a"},
		BlkID: 0, UnkID: 1, BosID: 2, EosID: 3,
	}
}

// tinyScorer builds a one-layer Net whose weights are all zero and whose
// bias heavily favors token "a" (index 4), so its output is stable
// regardless of the actual feature values — isolating the test from
// MFCC numerics while still exercising the real Forward/log-softmax
// path.
func tinyScorer(vocabSize int) *scorer.Net {
	return &scorer.Net{
		Layers: []scorer.Layer{{
			W:      make([]float64, vocabSize),
			B:      []float64{-1000, -1000, -1000, -1000, 0},
			InDim:  1,
			OutDim: vocabSize,
		}},
		InputDim:   1,
		OutputDim:  vocabSize,
		ContextLen: 0,
	}
}

func tinyFeatureConfig() feature.Config {
	return feature.Config{
		SampleRate:    16000,
		FrameLenMs:    25.0,
		FrameShiftMs:  10.0,
		PreEmphCoeff:  0.97,
		NumMelFilters: 26,
		NumCepstra:    1,
		LowFreq:       0,
		HighFreq:      8000,
		FFTSize:       512,
		Alpha:         1.0,
	}
}

func TestSessionFlushDecodesSingleFrameSilence(t *testing.T) {
	tok := onePhoneVocab()
	var graph fsa.Fst
	require.NoError(t, graph.BuildTokenTopology(tok))

	pkg := &stt.Package{
		Tokenizer:     tok,
		Graph:         &graph,
		Scorer:        tinyScorer(tok.Size()),
		FeatureConfig: tinyFeatureConfig(),
		DecoderConfig: decoder.DefaultConfig(),
	}
	require.NoError(t, pkg.Validate())

	sess, err := pkg.NewSession("")
	require.NoError(t, err)

	// Exactly one 25ms frame of silence at 16kHz.
	require.NoError(t, sess.PushSamples(make([]float64, 400)))
	require.NoError(t, sess.Flush())

	text, err := sess.Text()
	require.NoError(t, err)
	assert.Equal(t, "a", text)

	result, err := sess.Result()
	require.NoError(t, err)
	assert.Equal(t, []int32{tok.Bos(), 4, tok.Eos()}, result.Tokens)

	require.NoError(t, sess.Close())
}

func TestSessionClearResetsForAnotherUtterance(t *testing.T) {
	tok := onePhoneVocab()
	var graph fsa.Fst
	require.NoError(t, graph.BuildTokenTopology(tok))

	pkg := &stt.Package{
		Tokenizer:     tok,
		Graph:         &graph,
		Scorer:        tinyScorer(tok.Size()),
		FeatureConfig: tinyFeatureConfig(),
		DecoderConfig: decoder.DefaultConfig(),
	}

	sess, err := pkg.NewSession("")
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		require.NoError(t, sess.PushSamples(make([]float64, 400)))
		require.NoError(t, sess.Flush())
		text, err := sess.Text()
		require.NoError(t, err)
		assert.Equal(t, "a", text)
		require.NoError(t, sess.Clear(""))
	}
	require.NoError(t, sess.Close())
}

func TestSessionPushAfterFlushFails(t *testing.T) {
	tok := onePhoneVocab()
	var graph fsa.Fst
	require.NoError(t, graph.BuildTokenTopology(tok))

	pkg := &stt.Package{
		Tokenizer:     tok,
		Graph:         &graph,
		Scorer:        tinyScorer(tok.Size()),
		FeatureConfig: tinyFeatureConfig(),
		DecoderConfig: decoder.DefaultConfig(),
	}

	sess, err := pkg.NewSession("")
	require.NoError(t, err)
	require.NoError(t, sess.PushSamples(make([]float64, 400)))
	require.NoError(t, sess.Flush())

	err = sess.Push([]byte{0, 0})
	require.Error(t, err)
}

func TestValidateRejectsScorerVocabMismatch(t *testing.T) {
	tok := onePhoneVocab()
	var graph fsa.Fst
	require.NoError(t, graph.BuildTokenTopology(tok))

	pkg := &stt.Package{
		Tokenizer: tok,
		Graph:     &graph,
		Scorer:    tinyScorer(tok.Size() + 1),
	}
	require.Error(t, pkg.Validate())
}
