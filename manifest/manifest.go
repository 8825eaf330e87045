// Package manifest loads a deployment's model files from a YAML
// description into an assembled stt.Package: which tokenizer vocabulary,
// which decoding graph, which scorer weights, optionally which ARPA
// language model and beam-search tuning file to use.
//
// Grounded on loqalabs-loqa-core's config package: a small YAML struct
// naming file paths, loaded once at startup and never mutated. This is
// the "where are the model files" layer, distinct from (and loaded
// before) the config package's in-process JSON tunable registration.
package manifest

import (
	"bufio"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/sio-go/sio/config"
	"github.com/sio-go/sio/decoder"
	"github.com/sio-go/sio/feature"
	"github.com/sio-go/sio/fsa"
	"github.com/sio-go/sio/lm"
	"github.com/sio-go/sio/scorer"
	"github.com/sio-go/sio/sioerr"
	"github.com/sio-go/sio/stt"
	"github.com/sio-go/sio/tokenizer"
)

// Manifest is the on-disk deployment description.
type Manifest struct {
	Tokenizer TokenizerSpec `yaml:"tokenizer"`
	Graph     GraphSpec     `yaml:"graph"`
	Scorer    string        `yaml:"scorer"`
	ArpaLM    string        `yaml:"arpa_lm,omitempty"`
	Config    string        `yaml:"config,omitempty"`
	Feature   feature.Config `yaml:"feature"`
}

// TokenizerSpec names the vocabulary file and special-token ids.
type TokenizerSpec struct {
	Vocab string `yaml:"vocab"`
	Blk   int32  `yaml:"blk"`
	Unk   int32  `yaml:"unk"`
	Bos   int32  `yaml:"bos"`
	Eos   int32  `yaml:"eos"`
}

// GraphSpec names the FST file and its on-disk format.
type GraphSpec struct {
	Path   string `yaml:"path"`
	Format string `yaml:"format"` // "binary" or "text"
}

// Load reads path as YAML, then opens and parses every file it names,
// assembling a ready-to-use stt.Package.
func Load(path string) (*stt.Package, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, sioerr.Wrapf(sioerr.IoError, err, "manifest: read %q", path)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, sioerr.Wrapf(sioerr.IoError, err, "manifest: parse %q", path)
	}

	tok, err := loadTokenizer(m.Tokenizer)
	if err != nil {
		return nil, err
	}

	graph, err := loadGraph(m.Graph)
	if err != nil {
		return nil, err
	}

	net, err := loadScorer(m.Scorer)
	if err != nil {
		return nil, err
	}

	pkg := &stt.Package{
		Tokenizer:     tok,
		Graph:         graph,
		Scorer:        net,
		FeatureConfig: m.Feature,
		DecoderConfig: decoder.DefaultConfig(),
	}

	if m.ArpaLM != "" {
		f, err := os.Open(m.ArpaLM)
		if err != nil {
			return nil, sioerr.Wrapf(sioerr.IoError, err, "manifest: open ARPA LM %q", m.ArpaLM)
		}
		defer f.Close()
		ngram, err := lm.LoadARPA(f, tok)
		if err != nil {
			return nil, err
		}
		pkg.Lms = []lm.Lm{ngram}
	}

	if m.Config != "" {
		cfgBytes, err := os.ReadFile(m.Config)
		if err != nil {
			return nil, sioerr.Wrapf(sioerr.IoError, err, "manifest: read decoder config %q", m.Config)
		}
		l := config.NewLoader()
		config.RegisterDecoderConfig(l, &pkg.DecoderConfig)
		if err := l.Load(cfgBytes); err != nil {
			return nil, err
		}
	}

	if err := pkg.Validate(); err != nil {
		return nil, err
	}
	return pkg, nil
}

// loadTokenizer reads one vocabulary entry per line, in id order.
func loadTokenizer(spec TokenizerSpec) (*tokenizer.Simple, error) {
	f, err := os.Open(spec.Vocab)
	if err != nil {
		return nil, sioerr.Wrapf(sioerr.IoError, err, "manifest: open vocab %q", spec.Vocab)
	}
	defer f.Close()

	var vocab []string
	scan := bufio.NewScanner(f)
	for scan.Scan() {
		line := strings.TrimRight(scan.Text(), "\r\n")
		if line == "" {
			continue
		}
		vocab = append(vocab, line)
	}
	if err := scan.Err(); err != nil {
		return nil, sioerr.Wrapf(sioerr.IoError, err, "manifest: scan vocab %q", spec.Vocab)
	}

	return &tokenizer.Simple{
		Vocab: vocab,
		BlkID: spec.Blk, UnkID: spec.Unk, BosID: spec.Bos, EosID: spec.Eos,
	}, nil
}

func loadGraph(spec GraphSpec) (*fsa.Fst, error) {
	f, err := os.Open(spec.Path)
	if err != nil {
		return nil, sioerr.Wrapf(sioerr.IoError, err, "manifest: open graph %q", spec.Path)
	}
	defer f.Close()

	var g fsa.Fst
	switch spec.Format {
	case "text":
		err = g.LoadText(f)
	default:
		err = g.Load(f)
	}
	if err != nil {
		return nil, err
	}
	return &g, nil
}

func loadScorer(path string) (*scorer.Net, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, sioerr.Wrapf(sioerr.IoError, err, "manifest: open scorer weights %q", path)
	}
	defer f.Close()
	return scorer.LoadNet(f)
}
