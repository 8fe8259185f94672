// SPDX-License-Identifier: EPL-2.0

package capo

import (
	"bytes"
	"path/filepath"
	"strings"
)

// Hint names a container format. The order of the constants is the order
// in which decoders are tried when the format is unknown.
type Hint int

const (
	HintUnknown Hint = iota
	HintWav
	HintMp3
	HintFlac
	HintVorbis
	HintAiff
)

// Hints lists the concrete hints in trial order.
var Hints = []Hint{HintWav, HintMp3, HintFlac, HintVorbis, HintAiff}

func (h Hint) String() string {
	switch h {
	case HintWav:
		return "wav"
	case HintMp3:
		return "mp3"
	case HintFlac:
		return "flac"
	case HintVorbis:
		return "vorbis"
	case HintAiff:
		return "aiff"
	default:
		return "unknown"
	}
}

var extensions = map[string]Hint{
	".wav":  HintWav,
	".wave": HintWav,
	".mp3":  HintMp3,
	".flac": HintFlac,
	".ogg":  HintVorbis,
	".oga":  HintVorbis,
	".aif":  HintAiff,
	".aiff": HintAiff,
}

// HintFromPath infers a hint from the file extension, case-insensitively.
func HintFromPath(path string) Hint {
	return extensions[strings.ToLower(filepath.Ext(path))]
}

// Sniff guesses the container from its leading bytes. MP3 is recognized by
// an ID3v2 tag or an MPEG frame sync.
func Sniff(data []byte) Hint {
	switch {
	case len(data) >= 12 && bytes.Equal(data[:4], []byte("RIFF")) && bytes.Equal(data[8:12], []byte("WAVE")):
		return HintWav
	case bytes.HasPrefix(data, []byte("fLaC")):
		return HintFlac
	case bytes.HasPrefix(data, []byte("OggS")):
		return HintVorbis
	case len(data) >= 12 && bytes.Equal(data[:4], []byte("FORM")) &&
		(bytes.Equal(data[8:12], []byte("AIFF")) || bytes.Equal(data[8:12], []byte("AIFC"))):
		return HintAiff
	case bytes.HasPrefix(data, []byte("ID3")):
		return HintMp3
	case len(data) >= 2 && data[0] == 0xFF && data[1]&0xE0 == 0xE0:
		return HintMp3
	}

	return HintUnknown
}
