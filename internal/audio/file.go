package audio

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/faiface/beep"
	"github.com/faiface/beep/flac"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/vorbis"
	"github.com/faiface/beep/wav"
	"github.com/pkg/errors"
)

// resampleQuality is beep's interpolation quality for rate conversion
const resampleQuality = 4

// ErrUnsupportedFormat indicates a file extension with no decoder
var ErrUnsupportedFormat = errors.New("unsupported audio file format")

// Decode opens an audio file by extension (.wav, .mp3, .flac, .ogg).
func Decode(path string) (beep.StreamSeekCloser, beep.Format, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, beep.Format{}, errors.Wrap(err, "open audio file")
	}

	var (
		s      beep.StreamSeekCloser
		format beep.Format
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav":
		s, format, err = wav.Decode(f)
	case ".mp3":
		s, format, err = mp3.Decode(f)
	case ".flac":
		s, format, err = flac.Decode(f)
	case ".ogg", ".oga":
		s, format, err = vorbis.Decode(f)
	default:
		f.Close()
		return nil, beep.Format{}, errors.Wrapf(ErrUnsupportedFormat, "%s", filepath.Ext(path))
	}
	if err != nil {
		f.Close()
		return nil, beep.Format{}, errors.Wrapf(err, "decode %s", filepath.Base(path))
	}
	return s, format, nil
}

// OpenSource decodes path and resamples it to sampleRate. The returned
// closer releases the file.
func OpenSource(path string, sampleRate int) (*StreamerSource, io.Closer, error) {
	s, format, err := Decode(path)
	if err != nil {
		return nil, nil, err
	}

	var streamer beep.Streamer = s
	target := beep.SampleRate(sampleRate)
	if format.SampleRate != target {
		streamer = beep.Resample(resampleQuality, format.SampleRate, target, s)
	}
	return NewStreamerSource(streamer), s, nil
}

// WriteWAV encodes samples as 16-bit mono WAV.
func WriteWAV(w io.WriteSeeker, samples []int16, sampleRate int) error {
	format := beep.Format{
		SampleRate:  beep.SampleRate(sampleRate),
		NumChannels: 1,
		Precision:   2,
	}
	return errors.Wrap(wav.Encode(w, SamplesStreamer(samples), format), "encode wav")
}
