package manifest_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sio-go/sio/fsa"
	"github.com/sio-go/sio/manifest"
	"github.com/sio-go/sio/scorer"
	"github.com/sio-go/sio/tokenizer"
)

func TestLoadAssemblesPackageFromYAML(t *testing.T) {
	dir := t.TempDir()

	vocabPath := filepath.Join(dir, "vocab.txt")
	require.NoError(t, os.WriteFile(vocabPath, []byte("<blk>\n<unk>\n<bos>\n<eos>\na\n"), 0o644))

	tok := &tokenizer.Simple{
		Vocab: []string{"<blk>", "<unk>", "<bos>", "<eos>", "a"},
		BlkID: 0, UnkID: 1, BosID: 2, EosID: 3,
	}
	var g fsa.Fst
	require.NoError(t, g.BuildTokenTopology(tok))
	graphPath := filepath.Join(dir, "graph.bin")
	gf, err := os.Create(graphPath)
	require.NoError(t, err)
	require.NoError(t, g.Dump(gf))
	require.NoError(t, gf.Close())

	net := &scorer.Net{
		Layers: []scorer.Layer{{
			W: make([]float64, tok.Size()), B: make([]float64, tok.Size()),
			InDim: 1, OutDim: tok.Size(),
		}},
		InputDim: 1, OutputDim: tok.Size(),
	}
	scorerPath := filepath.Join(dir, "scorer.gob")
	sf, err := os.Create(scorerPath)
	require.NoError(t, err)
	require.NoError(t, net.Save(sf))
	require.NoError(t, sf.Close())

	yamlPath := filepath.Join(dir, "manifest.yaml")
	doc := `
tokenizer:
  vocab: ` + vocabPath + `
  blk: 0
  unk: 1
  bos: 2
  eos: 3
graph:
  path: ` + graphPath + `
  format: binary
scorer: ` + scorerPath + `
`
	require.NoError(t, os.WriteFile(yamlPath, []byte(doc), 0o644))

	pkg, err := manifest.Load(yamlPath)
	require.NoError(t, err)
	require.NotNil(t, pkg)
	require.Equal(t, tok.Size(), pkg.Scorer.OutputDim)
	require.Equal(t, int64(5), pkg.Graph.NumStates)
}

func TestLoadMissingFileFails(t *testing.T) {
	dir := t.TempDir()
	yamlPath := filepath.Join(dir, "manifest.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte("tokenizer:\n  vocab: /nonexistent\n"), 0o644))

	_, err := manifest.Load(yamlPath)
	require.Error(t, err)
}
