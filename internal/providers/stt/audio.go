package stt

import (
	"errors"
	"fmt"

	speechpb "cloud.google.com/go/speech/apiv1/speechpb"
	"github.com/gabriel-vasile/mimetype"
)

var ErrUnsupportedAudio = errors.New("unsupported audio format")

// AudioFormat is the sniffed container of an uploaded answer.
type AudioFormat struct {
	MIME     string
	Encoding speechpb.RecognitionConfig_AudioEncoding
	// SampleRateHz is zero when the container header carries it.
	SampleRateHz int32
}

// DetectAudio sniffs the upload instead of trusting the client's content type.
func DetectAudio(audio []byte) (AudioFormat, error) {
	if len(audio) == 0 {
		return AudioFormat{}, fmt.Errorf("%w: empty payload", ErrUnsupportedAudio)
	}

	mt := mimetype.Detect(audio)
	switch {
	case mt.Is("audio/wav"), mt.Is("audio/x-wav"):
		return AudioFormat{MIME: mt.String(), Encoding: speechpb.RecognitionConfig_LINEAR16}, nil
	case mt.Is("audio/flac"):
		return AudioFormat{MIME: mt.String(), Encoding: speechpb.RecognitionConfig_FLAC}, nil
	case mt.Is("audio/webm"), mt.Is("video/webm"):
		return AudioFormat{MIME: mt.String(), Encoding: speechpb.RecognitionConfig_WEBM_OPUS, SampleRateHz: 48000}, nil
	case mt.Is("audio/ogg"), mt.Is("application/ogg"):
		return AudioFormat{MIME: mt.String(), Encoding: speechpb.RecognitionConfig_OGG_OPUS, SampleRateHz: 48000}, nil
	default:
		return AudioFormat{MIME: mt.String()}, fmt.Errorf("%w: %s", ErrUnsupportedAudio, mt.String())
	}
}
