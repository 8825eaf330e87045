// transcribe is a command-line front end over the stt façade: it loads
// a deployment manifest and decodes one WAV file against it.
//
// Grounded on ollama's cobra root command (cmd/cmd.go's NewCLI), which
// replaces the teacher's stdlib-flag cmd/transcript for a multi-flag
// entry point with a richer usage string; the recognition call itself
// is grounded on the teacher's Recognizer.RecognizeFile.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sio-go/sio/audio"
	"github.com/sio-go/sio/manifest"
)

func newCLI() *cobra.Command {
	var manifestPath string
	var verbose bool
	var speed float64

	root := &cobra.Command{
		Use:   "transcribe WAV_FILE",
		Short: "Decode a WAV file against a deployed model",
		Args:  cobra.ExactArgs(1),
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			cmd.SilenceUsage = true
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(manifestPath, args[0], verbose, speed)
		},
	}

	root.Flags().StringVarP(&manifestPath, "manifest", "m", "", "path to the deployment manifest YAML (required)")
	root.Flags().BoolVarP(&verbose, "verbose", "v", false, "print the raw token-id sequence alongside the text")
	root.Flags().Float64Var(&speed, "speed", 1.0, "speed-perturb the input before decoding (1.0 = no perturbation); for exercising the model off-rate")
	root.MarkFlagRequired("manifest")

	return root
}

func run(manifestPath, wavPath string, verbose bool, speed float64) error {
	pkg, err := manifest.Load(manifestPath)
	if err != nil {
		return fmt.Errorf("load manifest: %w", err)
	}

	req := audio.Requirements{
		SampleRate:    uint32(pkg.FeatureConfig.SampleRate),
		BitsPerSample: 16,
		NumChannels:   1,
	}
	samples, _, err := audio.ReadWAVFile(wavPath, req)
	if err != nil {
		return fmt.Errorf("read WAV: %w", err)
	}

	if speed != 1.0 {
		samples = audio.SpeedPerturb(samples, speed)
		if samples == nil {
			return fmt.Errorf("speed perturb: factor %v produced no samples", speed)
		}
	}

	sess, err := pkg.NewSession("")
	if err != nil {
		return fmt.Errorf("init session: %w", err)
	}
	defer sess.Close()

	if err := sess.PushSamples(samples); err != nil {
		return fmt.Errorf("push samples: %w", err)
	}
	if err := sess.Flush(); err != nil {
		return fmt.Errorf("flush: %w", err)
	}

	result, err := sess.Result()
	if err != nil {
		return fmt.Errorf("result: %w", err)
	}

	fmt.Println(result.Text)
	if verbose {
		fmt.Fprintf(os.Stderr, "tokens: %v\n", result.Tokens)
	}
	return nil
}

func main() {
	if err := newCLI().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
