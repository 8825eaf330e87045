// Package scorer implements the acoustic model: a feed-forward network
// that turns a window of feature frames into per-frame log-posteriors
// over the token vocabulary, the scores the decoder's frontier expansion
// consumes as emitting-arc weights.
//
// Grounded on the teacher's acoustic.DNN (acoustic/dnn.go), generalized
// from an HMM-state output alphabet to a token-id output alphabet: the
// phoneme/state bookkeeping (PhonemeList, StateClassIndex) is dropped,
// everything else — layer shape, He/Xavier init, BLAS-backed Forward,
// batch-norm inference, gob serialization — is kept.
package scorer

import (
	"bytes"
	"encoding/gob"
	"io"
	"math"
	"math/rand"

	"github.com/sio-go/sio/internal/blas"
	"github.com/sio-go/sio/sioerr"
)

// Layer holds weights and biases for one fully-connected layer. W is
// [OutDim x InDim] row-major, B is [OutDim].
type Layer struct {
	W      []float64
	B      []float64
	InDim  int
	OutDim int
}

// BatchNorm holds one batch-normalization layer's parameters.
type BatchNorm struct {
	Gamma       []float64
	Beta        []float64
	RunningMean []float64
	RunningVar  []float64
	Dim         int
}

// Net is a feed-forward network: input -> hidden (ReLU[, BN]) x N ->
// output (log-softmax over the token vocabulary).
type Net struct {
	Layers      []Layer
	InputDim    int
	HiddenDim   int
	OutputDim   int // == the bound tokenizer's Size()
	ContextLen  int
	DropoutRate float64

	UseBatchNorm bool
	BN           []BatchNorm

	// LogPrior is an optional per-token log prior, e.g. for correcting a
	// blank-dominated training distribution; nil disables the
	// correction. Subtracted by SubtractPrior, never by Forward itself.
	LogPrior []float64
}

// NewNet creates a Net with freshly initialized weights for a vocabulary
// of size outputDim.
func NewNet(featureDim, hiddenDim, contextLen, numHiddenLayers, outputDim int, dropoutRate float64, useBatchNorm bool) *Net {
	inputDim := (2*contextLen + 1) * featureDim

	initWeights := xavierInit
	if useBatchNorm {
		initWeights = heInit
	}

	layers := make([]Layer, numHiddenLayers+1)
	prevDim := inputDim
	for i := 0; i < numHiddenLayers; i++ {
		layers[i] = Layer{
			W:      make([]float64, hiddenDim*prevDim),
			B:      make([]float64, hiddenDim),
			InDim:  prevDim,
			OutDim: hiddenDim,
		}
		initWeights(layers[i].W, prevDim, hiddenDim)
		prevDim = hiddenDim
	}
	layers[numHiddenLayers] = Layer{
		W:      make([]float64, outputDim*prevDim),
		B:      make([]float64, outputDim),
		InDim:  prevDim,
		OutDim: outputDim,
	}
	xavierInit(layers[numHiddenLayers].W, prevDim, outputDim)

	n := &Net{
		Layers:       layers,
		InputDim:     inputDim,
		HiddenDim:    hiddenDim,
		OutputDim:    outputDim,
		ContextLen:   contextLen,
		DropoutRate:  dropoutRate,
		UseBatchNorm: useBatchNorm,
	}

	if useBatchNorm {
		n.BN = make([]BatchNorm, numHiddenLayers)
		for i := 0; i < numHiddenLayers; i++ {
			dim := layers[i].OutDim
			gamma := make([]float64, dim)
			runningVar := make([]float64, dim)
			for j := range gamma {
				gamma[j] = 1.0
				runningVar[j] = 1.0
			}
			n.BN[i] = BatchNorm{
				Gamma:       gamma,
				Beta:        make([]float64, dim),
				RunningMean: make([]float64, dim),
				RunningVar:  runningVar,
				Dim:         dim,
			}
		}
	}

	return n
}

func xavierInit(w []float64, fanIn, fanOut int) {
	scale := math.Sqrt(2.0 / float64(fanIn+fanOut))
	for i := range w {
		w[i] = rand.NormFloat64() * scale
	}
}

func heInit(w []float64, fanIn, _ int) {
	scale := math.Sqrt(2.0 / float64(fanIn))
	for i := range w {
		w[i] = rand.NormFloat64() * scale
	}
}

const batchNormEps = 1e-5

// Forward computes log-softmax outputs for a batch of input vectors.
// input is flat [batchSize x InputDim] row-major; activations holds one
// scratch buffer per hidden layer; output is flat [batchSize x OutputDim].
// Runs the inference path: batch norm (if enabled) uses running stats, no
// dropout is applied.
func (n *Net) Forward(input []float64, batchSize int, activations [][]float64, output []float64) {
	nLayers := len(n.Layers)
	prevAct := input
	prevDim := n.InputDim

	for i := range n.Layers {
		layer := &n.Layers[i]
		var dst []float64
		if i < nLayers-1 {
			dst = activations[i]
		} else {
			dst = output
		}

		blas.Dgemm(false, true, batchSize, layer.OutDim, prevDim,
			1.0, prevAct, prevDim, layer.W, prevDim, 0.0, dst, layer.OutDim)

		switch {
		case i < nLayers-1 && n.UseBatchNorm:
			addBiasBNReLU(dst, layer.B, &n.BN[i], batchSize, layer.OutDim)
		case i < nLayers-1:
			addBiasReLU(dst, layer.B, batchSize, layer.OutDim)
		default:
			addBiasLogSoftmax(dst, layer.B, batchSize, layer.OutDim)
		}

		prevAct = dst
		prevDim = layer.OutDim
	}
}

func addBiasReLU(z, bias []float64, rows, cols int) {
	for i := 0; i < rows; i++ {
		off := i * cols
		for j := 0; j < cols; j++ {
			v := z[off+j] + bias[j]
			if v < 0 {
				v = 0
			}
			z[off+j] = v
		}
	}
}

// addBiasBNReLU fuses bias + batch norm (running stats) + ReLU:
// z = gamma * (z + bias - runningMean) / sqrt(runningVar + eps) + beta.
func addBiasBNReLU(z, bias []float64, bn *BatchNorm, rows, cols int) {
	scale := make([]float64, cols)
	shift := make([]float64, cols)
	for j := 0; j < cols; j++ {
		invStd := 1.0 / math.Sqrt(bn.RunningVar[j]+batchNormEps)
		scale[j] = bn.Gamma[j] * invStd
		shift[j] = bn.Beta[j] - bn.Gamma[j]*invStd*(bn.RunningMean[j]-bias[j])
	}
	for i := 0; i < rows; i++ {
		off := i * cols
		for j := 0; j < cols; j++ {
			v := z[off+j]*scale[j] + shift[j]
			if v < 0 {
				v = 0
			}
			z[off+j] = v
		}
	}
}

func addBiasLogSoftmax(z, bias []float64, rows, cols int) {
	for i := 0; i < rows; i++ {
		off := i * cols
		maxVal := math.Inf(-1)
		for j := 0; j < cols; j++ {
			z[off+j] += bias[j]
			if z[off+j] > maxVal {
				maxVal = z[off+j]
			}
		}
		sumExp := 0.0
		for j := 0; j < cols; j++ {
			sumExp += math.Exp(z[off+j] - maxVal)
		}
		logSumExp := maxVal + math.Log(sumExp)
		for j := 0; j < cols; j++ {
			z[off+j] -= logSumExp
		}
	}
}

// ForwardFrames computes log-posteriors for every frame in features,
// building each frame's context window with edge-replication padding.
// Returns [T][OutputDim].
func (n *Net) ForwardFrames(features [][]float64) [][]float64 {
	T := len(features)
	if T == 0 {
		return nil
	}

	input := make([]float64, T*n.InputDim)
	featDim := len(features[0])
	winSize := 2*n.ContextLen + 1

	for t := 0; t < T; t++ {
		off := t * n.InputDim
		for w := 0; w < winSize; w++ {
			srcT := t - n.ContextLen + w
			if srcT < 0 {
				srcT = 0
			} else if srcT >= T {
				srcT = T - 1
			}
			copy(input[off+w*featDim:off+(w+1)*featDim], features[srcT])
		}
	}

	nHidden := len(n.Layers) - 1
	activations := make([][]float64, nHidden)
	for i := 0; i < nHidden; i++ {
		activations[i] = make([]float64, T*n.Layers[i].OutDim)
	}
	outFlat := make([]float64, T*n.OutputDim)

	n.Forward(input, T, activations, outFlat)

	result := make([][]float64, T)
	for t := 0; t < T; t++ {
		result[t] = outFlat[t*n.OutputDim : (t+1)*n.OutputDim]
	}
	return result
}

// SubtractPrior converts log-posteriors to pseudo-log-likelihoods in
// place: logLike[c] = logPost[c] - LogPrior[c]. A no-op if LogPrior
// is unset.
func (n *Net) SubtractPrior(logPost []float64) {
	for i, lp := range n.LogPrior {
		logPost[i] -= lp
	}
}

type serializedLayer struct {
	W      []float64
	B      []float64
	InDim  int
	OutDim int
}

type serializedBN struct {
	Gamma       []float64
	Beta        []float64
	RunningMean []float64
	RunningVar  []float64
	Dim         int
}

type serializedNet struct {
	Version     int // = 1
	ContextLen  int
	DropoutRate float64
	Layers      []serializedLayer
	BN          []serializedBN
	LogPrior    []float64
}

// Save serializes n using gob encoding.
func (n *Net) Save(w io.Writer) error {
	layers := make([]serializedLayer, len(n.Layers))
	for i, l := range n.Layers {
		layers[i] = serializedLayer{W: l.W, B: l.B, InDim: l.InDim, OutDim: l.OutDim}
	}
	sn := serializedNet{
		Version:     1,
		ContextLen:  n.ContextLen,
		DropoutRate: n.DropoutRate,
		Layers:      layers,
		LogPrior:    n.LogPrior,
	}
	if n.UseBatchNorm {
		sn.BN = make([]serializedBN, len(n.BN))
		for i, bn := range n.BN {
			sn.BN[i] = serializedBN{
				Gamma: bn.Gamma, Beta: bn.Beta,
				RunningMean: bn.RunningMean, RunningVar: bn.RunningVar,
				Dim: bn.Dim,
			}
		}
	}
	if err := gob.NewEncoder(w).Encode(sn); err != nil {
		return sioerr.Wrap(sioerr.IoError, err, "scorer: save net")
	}
	return nil
}

// LoadNet deserializes a Net saved by Save.
func LoadNet(r io.Reader) (*Net, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, sioerr.Wrap(sioerr.IoError, err, "scorer: read net")
	}

	var sn serializedNet
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&sn); err != nil {
		return nil, sioerr.Wrap(sioerr.IoError, err, "scorer: decode net")
	}
	if len(sn.Layers) == 0 {
		return nil, sioerr.New(sioerr.MalformedGraph, "scorer: net has no layers")
	}

	layers := make([]Layer, len(sn.Layers))
	for i, sl := range sn.Layers {
		layers[i] = Layer{W: sl.W, B: sl.B, InDim: sl.InDim, OutDim: sl.OutDim}
	}
	n := &Net{
		Layers:      layers,
		InputDim:    layers[0].InDim,
		HiddenDim:   layers[0].OutDim,
		OutputDim:   layers[len(layers)-1].OutDim,
		ContextLen:  sn.ContextLen,
		DropoutRate: sn.DropoutRate,
		LogPrior:    sn.LogPrior,
	}
	if len(sn.BN) > 0 {
		n.UseBatchNorm = true
		n.BN = make([]BatchNorm, len(sn.BN))
		for i, sbn := range sn.BN {
			n.BN[i] = BatchNorm{
				Gamma: sbn.Gamma, Beta: sbn.Beta,
				RunningMean: sbn.RunningMean, RunningVar: sbn.RunningVar,
				Dim: sbn.Dim,
			}
		}
	}
	return n, nil
}
