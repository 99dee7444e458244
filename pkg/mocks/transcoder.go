package mocks

import (
	"context"

	"github.com/user/roicompress/pkg/ports"
)

// Transcoder is a mock implementation of ports.Transcoder.
type Transcoder struct {
	CompressBackgroundFunc func(ctx context.Context, in, out string, crf int) error
	QualityOffsetFunc      func(ctx context.Context, in, out string, opts ports.QualityOffsetOptions) error
	CopyAudioFunc          func(ctx context.Context, video, audioSource, out string) error

	// Recorded calls for verification
	BackgroundCalls []TranscodeCall
	QualityCalls    []TranscodeCall
	AudioCalls      []TranscodeCall
}

// TranscodeCall records a call to one of the Transcoder methods.
type TranscodeCall struct {
	In      string
	Out     string
	Extra   string // audio source for CopyAudio
	CRF     int
	Options ports.QualityOffsetOptions
}

func (m *Transcoder) CompressBackground(ctx context.Context, in, out string, crf int) error {
	m.BackgroundCalls = append(m.BackgroundCalls, TranscodeCall{In: in, Out: out, CRF: crf})
	if m.CompressBackgroundFunc != nil {
		return m.CompressBackgroundFunc(ctx, in, out, crf)
	}
	return nil
}

func (m *Transcoder) QualityOffset(ctx context.Context, in, out string, opts ports.QualityOffsetOptions) error {
	m.QualityCalls = append(m.QualityCalls, TranscodeCall{In: in, Out: out, CRF: opts.CRF, Options: opts})
	if m.QualityOffsetFunc != nil {
		return m.QualityOffsetFunc(ctx, in, out, opts)
	}
	return nil
}

func (m *Transcoder) CopyAudio(ctx context.Context, video, audioSource, out string) error {
	m.AudioCalls = append(m.AudioCalls, TranscodeCall{In: video, Out: out, Extra: audioSource})
	if m.CopyAudioFunc != nil {
		return m.CopyAudioFunc(ctx, video, audioSource, out)
	}
	return nil
}

var _ ports.Transcoder = (*Transcoder)(nil)
