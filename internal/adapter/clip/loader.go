// Package clip decodes sound files into clips the output device can play.
package clip

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/dhowden/tag"
	"github.com/go-audio/aiff"
	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	gomp3 "github.com/hajimehoshi/go-mp3"
	"github.com/jfreymuth/oggvorbis"
	"github.com/mewkiz/flac"

	"github.com/tejashwikalptaru/soundstage/internal/domain"
	"github.com/tejashwikalptaru/soundstage/internal/ports"
)

// decoded is the output of a format decoder: 16-bit stereo PCM at rate Hz.
type decoded struct {
	pcm  []byte
	rate int
}

type decodeFunc func(r io.ReadSeeker) (decoded, error)

// Loader reads sound files from disk and decodes them by extension.
//
// Thread-safety: Loader holds no mutable state and is safe for concurrent use.
type Loader struct {
	logger   *slog.Logger
	decoders map[string]decodeFunc
}

// NewLoader creates a loader for wav, aiff, mp3, ogg and flac files.
func NewLoader(logger *slog.Logger) *Loader {
	return &Loader{
		logger: logger,
		decoders: map[string]decodeFunc{
			".wav":  decodeWAV,
			".wave": decodeWAV,
			".aif":  decodeAIFF,
			".aiff": decodeAIFF,
			".mp3":  decodeMP3,
			".ogg":  decodeVorbis,
			".oga":  decodeVorbis,
			".flac": decodeFLAC,
		},
	}
}

// Supported reports whether path has an extension the loader can decode.
func (l *Loader) Supported(path string) bool {
	_, ok := l.decoders[strings.ToLower(filepath.Ext(path))]
	return ok
}

// Load decodes the file at path. The clip is named after the file's title tag
// when it has one, otherwise after the file name.
func (l *Loader) Load(path string) (*domain.Clip, error) {
	if path == "" {
		return nil, domain.ErrInvalidFilePath
	}

	ext := strings.ToLower(filepath.Ext(path))
	if _, ok := l.decoders[ext]; !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedFormat, ext)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", domain.ErrFileNotFound, path)
		}
		return nil, domain.NewAudioEngineError("load", path, "read file", err)
	}

	clip, err := l.Decode(displayName(path, data), ext, data)
	if err != nil {
		return nil, err
	}
	clip.Path = path

	l.logger.Debug("clip loaded",
		slog.String("path", path),
		slog.String("name", clip.Name),
		slog.Int("sample_rate", clip.SampleRate),
		slog.Duration("length", clip.Length))
	return clip, nil
}

// Decode decodes in-memory data of the given extension (".wav", ".mp3", ...).
func (l *Loader) Decode(name, ext string, data []byte) (*domain.Clip, error) {
	dec, ok := l.decoders[strings.ToLower(ext)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedFormat, ext)
	}

	out, err := dec(bytes.NewReader(data))
	if err != nil {
		return nil, domain.NewAudioEngineError("decode", name, "decode "+strings.TrimPrefix(ext, "."), err)
	}
	if out.rate <= 0 {
		return nil, domain.NewAudioEngineError("decode", name, "missing sample rate", nil)
	}

	return domain.NewClip(name, out.pcm, out.rate), nil
}

// displayName prefers the title tag and falls back to the file name without extension.
func displayName(path string, data []byte) string {
	if m, err := tag.ReadFrom(bytes.NewReader(data)); err == nil {
		if title := strings.TrimSpace(m.Title()); title != "" {
			return title
		}
	}
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// pcmDecoder is the part of the go-audio wav and aiff decoders used here.
type pcmDecoder interface {
	Format() *goaudio.Format
	PCMBuffer(buf *goaudio.IntBuffer) (int, error)
}

func readIntPCM(dec pcmDecoder, bitDepth int) (decoded, error) {
	format := dec.Format()
	if format == nil || format.NumChannels <= 0 {
		return decoded{}, errors.New("unsupported channel layout")
	}

	var samples []int
	buf := &goaudio.IntBuffer{Format: format, Data: make([]int, 4096*format.NumChannels)}
	for {
		n, err := dec.PCMBuffer(buf)
		samples = append(samples, buf.Data[:n]...)
		if err != nil && !errors.Is(err, io.EOF) {
			return decoded{}, err
		}
		if n == 0 || errors.Is(err, io.EOF) {
			break
		}
	}

	return decoded{pcm: intToStereo16(samples, format.NumChannels, bitDepth), rate: format.SampleRate}, nil
}

func decodeWAV(r io.ReadSeeker) (decoded, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return decoded{}, errors.New("not a wav file")
	}
	if err := dec.FwdToPCM(); err != nil {
		return decoded{}, err
	}
	return readIntPCM(dec, int(dec.BitDepth))
}

func decodeAIFF(r io.ReadSeeker) (decoded, error) {
	dec := aiff.NewDecoder(r)
	if !dec.IsValidFile() {
		return decoded{}, errors.New("not an aiff file")
	}
	dec.ReadInfo()
	return readIntPCM(dec, int(dec.BitDepth))
}

func decodeMP3(r io.ReadSeeker) (decoded, error) {
	dec, err := gomp3.NewDecoder(r)
	if err != nil {
		return decoded{}, err
	}
	// go-mp3 always produces 16-bit little-endian stereo
	pcm, err := io.ReadAll(dec)
	if err != nil {
		return decoded{}, err
	}
	return decoded{pcm: pcm[:len(pcm)/domain.BytesPerFrame*domain.BytesPerFrame], rate: dec.SampleRate()}, nil
}

func decodeVorbis(r io.ReadSeeker) (decoded, error) {
	samples, format, err := oggvorbis.ReadAll(r)
	if err != nil {
		return decoded{}, err
	}
	return decoded{pcm: floatToStereo16(samples, format.Channels), rate: format.SampleRate}, nil
}

func decodeFLAC(r io.ReadSeeker) (decoded, error) {
	stream, err := flac.New(r)
	if err != nil {
		return decoded{}, err
	}
	defer stream.Close()

	channels := int(stream.Info.NChannels)
	var samples []int
	for {
		f, err := stream.ParseNext()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return decoded{}, err
		}
		if len(f.Subframes) < channels {
			return decoded{}, errors.New("frame is missing subframes")
		}
		for i := 0; i < int(f.BlockSize); i++ {
			for ch := 0; ch < channels; ch++ {
				samples = append(samples, int(f.Subframes[ch].Samples[i]))
			}
		}
	}

	return decoded{
		pcm:  intToStereo16(samples, channels, int(stream.Info.BitsPerSample)),
		rate: int(stream.Info.SampleRate),
	}, nil
}

var _ ports.ClipLoader = (*Loader)(nil)
