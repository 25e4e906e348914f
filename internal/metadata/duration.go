package metadata

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-audio/wav"
	"github.com/mewkiz/flac"
	"github.com/tcolgate/mp3"
)

// assumed bitrate when no mp3 frame can be decoded
const fallbackMP3Bitrate = 192000

// Duration returns the playing time of an audio file
func Duration(path string) (time.Duration, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".mp3":
		return durationMP3(path)
	case ".flac":
		return durationFLAC(path)
	case ".wav":
		return durationWAV(path)
	case ".m4a":
		return durationM4A(path)
	default:
		return 0, fmt.Errorf("unsupported format: %s", ext)
	}
}

func durationMP3(path string) (time.Duration, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	dec := mp3.NewDecoder(f)
	var (
		total   time.Duration
		frame   mp3.Frame
		skipped int
		frames  int
	)
	for {
		if err := dec.Decode(&frame, &skipped); err != nil {
			if errors.Is(err, io.EOF) || frames > 0 {
				break
			}
			return estimateFromSize(f, fallbackMP3Bitrate)
		}
		total += frame.Duration()
		frames++
	}
	return total, nil
}

func durationFLAC(path string) (time.Duration, error) {
	stream, err := flac.ParseFile(path)
	if err != nil {
		return 0, err
	}
	defer stream.Close()

	info := stream.Info
	if info.NSamples == 0 || info.SampleRate == 0 {
		return 0, errors.New("flac stream missing sample info")
	}
	return samplesToDuration(int64(info.NSamples), int64(info.SampleRate)), nil
}

func durationWAV(path string) (time.Duration, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return 0, errors.New("invalid wav file")
	}
	frameSize := int64(dec.BitDepth/8) * int64(dec.NumChans)
	if dec.SampleRate == 0 || frameSize <= 0 {
		return 0, errors.New("invalid wav header")
	}

	st, err := f.Stat()
	if err != nil {
		return 0, err
	}
	// canonical 44 byte header
	pcm := max(st.Size()-44, 0)
	return samplesToDuration(pcm/frameSize, int64(dec.SampleRate)), nil
}

// durationM4A reads the movie header (moov/mvhd) of an MP4 container.
func durationM4A(path string) (time.Duration, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	if _, err := findAtom(f, "moov", -1); err != nil {
		return 0, err
	}
	if _, err := findAtom(f, "mvhd", -1); err != nil {
		return 0, err
	}

	var version [4]byte // version + flags
	if _, err := io.ReadFull(f, version[:]); err != nil {
		return 0, err
	}
	skip := int64(8) // creation + modification times
	if version[0] == 1 {
		skip = 16
	}
	if _, err := f.Seek(skip, io.SeekCurrent); err != nil {
		return 0, err
	}

	var timescale uint32
	if err := binary.Read(f, binary.BigEndian, &timescale); err != nil {
		return 0, err
	}
	var units uint64
	if version[0] == 1 {
		err = binary.Read(f, binary.BigEndian, &units)
	} else {
		var u32 uint32
		err = binary.Read(f, binary.BigEndian, &u32)
		units = uint64(u32)
	}
	if err != nil {
		return 0, err
	}
	if timescale == 0 {
		return 0, errors.New("invalid mvhd timescale")
	}
	return samplesToDuration(int64(units), int64(timescale)), nil
}

// findAtom advances r to the body of the next atom named name, skipping
// siblings. limit bounds the bytes scanned; -1 means unbounded.
func findAtom(r io.ReadSeeker, name string, limit int64) (int64, error) {
	var head [8]byte
	for read := int64(0); limit < 0 || read < limit; {
		if _, err := io.ReadFull(r, head[:]); err != nil {
			return 0, fmt.Errorf("atom %q not found: %w", name, err)
		}
		size := int64(binary.BigEndian.Uint32(head[:4]))
		if size < 8 {
			return 0, fmt.Errorf("invalid atom size %d", size)
		}
		if string(head[4:]) == name {
			return size - 8, nil
		}
		if _, err := r.Seek(size-8, io.SeekCurrent); err != nil {
			return 0, err
		}
		read += size
	}
	return 0, fmt.Errorf("atom %q not found", name)
}

func samplesToDuration(samples, rate int64) time.Duration {
	return time.Duration(float64(samples) / float64(rate) * float64(time.Second))
}

func estimateFromSize(f *os.File, bitrate int64) (time.Duration, error) {
	st, err := f.Stat()
	if err != nil {
		return 0, err
	}
	return time.Duration(st.Size()*8) * time.Second / time.Duration(bitrate), nil
}
