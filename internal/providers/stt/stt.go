package stt

import "context"

// Provider turns a recorded spoken answer into text.
type Provider interface {
	Transcribe(ctx context.Context, audio []byte, language string) (text string, confidence float64, err error)
	Close() error
}
