// Package audio decodes WAV files into the normalized float64 samples
// feature.Extract expects, and provides SpeedPerturb for building
// augmented training/test corpora.
package audio

import (
	"encoding/binary"
	"io"
	"os"

	"github.com/sio-go/sio/sioerr"
)

// WAVHeader holds the parsed RIFF/WAV header fields.
type WAVHeader struct {
	SampleRate    uint32
	BitsPerSample uint16
	NumChannels   uint16
	NumSamples    int
}

// Requirements constrains the WAV formats ReadWAV will accept. A file
// whose fmt chunk doesn't match every field is rejected rather than
// resampled or channel-mixed; resampling proper is out of scope here.
type Requirements struct {
	SampleRate    uint32
	BitsPerSample uint16
	NumChannels   uint16
}

// DefaultRequirements matches feature.DefaultConfig()'s sample rate and
// the mono 16-bit PCM this project's MFCC frontend is written for. Callers
// driving ReadWAV off a manifest should build Requirements from the
// deployed feature.Config's SampleRate instead of assuming this default.
func DefaultRequirements() Requirements {
	return Requirements{SampleRate: 16000, BitsPerSample: 16, NumChannels: 1}
}

// ReadWAV reads a WAV file and returns normalized float64 samples in
// [-1.0, 1.0]. It returns an error if the file's fmt chunk doesn't match
// req exactly.
func ReadWAV(r io.ReadSeeker, req Requirements) ([]float64, WAVHeader, error) {
	var header WAVHeader

	var riffID [4]byte
	if err := binary.Read(r, binary.LittleEndian, &riffID); err != nil {
		return nil, header, sioerr.Wrap(sioerr.IoError, err, "audio: read RIFF id")
	}
	if string(riffID[:]) != "RIFF" {
		return nil, header, sioerr.New(sioerr.InvalidArgument, "audio: not a RIFF file")
	}

	var fileSize uint32
	if err := binary.Read(r, binary.LittleEndian, &fileSize); err != nil {
		return nil, header, sioerr.Wrap(sioerr.IoError, err, "audio: read RIFF file size")
	}

	var waveID [4]byte
	if err := binary.Read(r, binary.LittleEndian, &waveID); err != nil {
		return nil, header, sioerr.Wrap(sioerr.IoError, err, "audio: read WAVE id")
	}
	if string(waveID[:]) != "WAVE" {
		return nil, header, sioerr.New(sioerr.InvalidArgument, "audio: not a WAVE file")
	}

	var fmtFound, dataFound bool
	var samples []float64

	for {
		var chunkID [4]byte
		if err := binary.Read(r, binary.LittleEndian, &chunkID); err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				break
			}
			return nil, header, sioerr.Wrap(sioerr.IoError, err, "audio: read chunk id")
		}

		var chunkSize uint32
		if err := binary.Read(r, binary.LittleEndian, &chunkSize); err != nil {
			return nil, header, sioerr.Wrap(sioerr.IoError, err, "audio: read chunk size")
		}

		switch string(chunkID[:]) {
		case "fmt ":
			if err := readFmtChunk(r, chunkSize, &header, req); err != nil {
				return nil, header, err
			}
			fmtFound = true

		case "data":
			if !fmtFound {
				return nil, header, sioerr.New(sioerr.InvalidArgument, "audio: data chunk before fmt chunk")
			}
			var err error
			samples, err = readDataChunk(r, chunkSize, &header)
			if err != nil {
				return nil, header, err
			}
			dataFound = true

		default:
			skip := int64(chunkSize)
			if chunkSize%2 != 0 {
				skip++
			}
			if _, err := r.Seek(skip, io.SeekCurrent); err != nil {
				return nil, header, sioerr.Wrapf(sioerr.IoError, err, "audio: skip chunk %q", chunkID)
			}
		}

		if fmtFound && dataFound {
			break
		}
	}

	if !fmtFound {
		return nil, header, sioerr.New(sioerr.InvalidArgument, "audio: missing fmt chunk")
	}
	if !dataFound {
		return nil, header, sioerr.New(sioerr.InvalidArgument, "audio: missing data chunk")
	}

	return samples, header, nil
}

// ReadWAVFile is a convenience wrapper that opens a file path.
func ReadWAVFile(path string, req Requirements) ([]float64, WAVHeader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, WAVHeader{}, sioerr.Wrapf(sioerr.IoError, err, "audio: open %q", path)
	}
	defer f.Close()
	return ReadWAV(f, req)
}

func readFmtChunk(r io.ReadSeeker, size uint32, h *WAVHeader, req Requirements) error {
	var audioFormat uint16
	if err := binary.Read(r, binary.LittleEndian, &audioFormat); err != nil {
		return sioerr.Wrap(sioerr.IoError, err, "audio: read audio format")
	}
	if audioFormat != 1 {
		return sioerr.Newf(sioerr.InvalidArgument, "audio: unsupported audio format %d (only PCM=1 supported)", audioFormat)
	}

	if err := binary.Read(r, binary.LittleEndian, &h.NumChannels); err != nil {
		return sioerr.Wrap(sioerr.IoError, err, "audio: read num channels")
	}
	if h.NumChannels != req.NumChannels {
		return sioerr.Newf(sioerr.InvalidArgument, "audio: channel count %d does not match required %d", h.NumChannels, req.NumChannels)
	}

	if err := binary.Read(r, binary.LittleEndian, &h.SampleRate); err != nil {
		return sioerr.Wrap(sioerr.IoError, err, "audio: read sample rate")
	}
	if h.SampleRate != req.SampleRate {
		return sioerr.Newf(sioerr.InvalidArgument, "audio: sample rate %d does not match required %d", h.SampleRate, req.SampleRate)
	}

	// byteRate (4 bytes) + blockAlign (2 bytes), neither independently checked
	if _, err := r.Seek(6, io.SeekCurrent); err != nil {
		return sioerr.Wrap(sioerr.IoError, err, "audio: skip byte rate / block align")
	}

	if err := binary.Read(r, binary.LittleEndian, &h.BitsPerSample); err != nil {
		return sioerr.Wrap(sioerr.IoError, err, "audio: read bits per sample")
	}
	if h.BitsPerSample != req.BitsPerSample {
		return sioerr.Newf(sioerr.InvalidArgument, "audio: bits per sample %d does not match required %d", h.BitsPerSample, req.BitsPerSample)
	}

	consumed := uint32(16) // audioFormat(2) + numChannels(2) + sampleRate(4) + byteRate(4) + blockAlign(2) + bitsPerSample(2)
	if size > consumed {
		if _, err := r.Seek(int64(size-consumed), io.SeekCurrent); err != nil {
			return sioerr.Wrap(sioerr.IoError, err, "audio: skip extra fmt bytes")
		}
	}

	return nil
}

func readDataChunk(r io.Reader, size uint32, h *WAVHeader) ([]float64, error) {
	bytesPerSample := int(h.BitsPerSample) / 8
	numSamples := int(size) / bytesPerSample
	h.NumSamples = numSamples

	raw := make([]int16, numSamples)
	if err := binary.Read(r, binary.LittleEndian, raw); err != nil {
		return nil, sioerr.Wrap(sioerr.IoError, err, "audio: read PCM data")
	}

	samples := make([]float64, numSamples)
	for i, s := range raw {
		samples[i] = float64(s) / 32768.0
	}

	return samples, nil
}
