// Package ffmpegtranscoder runs whole-file ffmpeg transcodes: the
// compressed background intermediate, the static addroi variant and the
// final audio copy.
package ffmpegtranscoder

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/ideamans/go-l10n"

	"github.com/user/roicompress/pkg/adapters/ffmpegbin"
	"github.com/user/roicompress/pkg/pipeline"
	"github.com/user/roicompress/pkg/ports"
)

// Defaults for the baseline variants.
const (
	DefaultCRF     = 51
	DefaultRegion  = "x=iw/2:y=0:w=iw/2:h=ih"
	DefaultQOffset = -1.0
	DefaultCodec   = "libx264"
)

// maxStderr bounds the diagnostics attached to errors.
const maxStderr = 4096

// Transcoder implements ports.Transcoder with an ffmpeg subprocess.
type Transcoder struct {
	logger ports.Logger
}

// New creates a new Transcoder.
func New(logger ports.Logger) *Transcoder {
	return &Transcoder{logger: logger.WithComponent("transcoder")}
}

// BackgroundArgs returns the ffmpeg arguments of CompressBackground.
func BackgroundArgs(in, out string, crf int) []string {
	if crf <= 0 {
		crf = DefaultCRF
	}
	return []string{
		"-hide_banner", "-loglevel", "error", "-nostdin", "-y",
		"-i", in,
		"-map", "0:v:0", "-an", "-sn", "-dn",
		// Same frame sequence as the decoder, so frame i pairs with frame i.
		"-fps_mode", "passthrough",
		"-c:v", DefaultCodec, "-crf", strconv.Itoa(crf), "-bf", "0",
		"-pix_fmt", pipeline.PixelFormatYUV420P,
		out,
	}
}

// QualityOffsetArgs returns the ffmpeg arguments of QualityOffset.
func QualityOffsetArgs(in, out string, opts ports.QualityOffsetOptions) []string {
	region := opts.Region
	if region == "" {
		region = DefaultRegion
	}
	crf := opts.CRF
	if crf <= 0 {
		crf = DefaultCRF
	}
	codec := opts.Codec
	if codec == "" {
		codec = DefaultCodec
	}
	filter := fmt.Sprintf("addroi=%s:qoffset=%s", region, strconv.FormatFloat(opts.QOffset, 'f', -1, 64))
	return []string{
		"-hide_banner", "-loglevel", "error", "-nostdin", "-y",
		"-i", in,
		"-vf", filter,
		"-c:v", codec, "-crf", strconv.Itoa(crf),
		"-c:a", "copy",
		out,
	}
}

// CopyAudioArgs returns the ffmpeg arguments of CopyAudio.
func CopyAudioArgs(video, audioSource, out string) []string {
	return []string{
		"-hide_banner", "-loglevel", "error", "-nostdin", "-y",
		"-i", video, "-i", audioSource,
		"-map", "0:v:0", "-map", "1:a?",
		"-c", "copy",
		out,
	}
}

// CompressBackground re-encodes the video of in at a high CRF into out.
func (t *Transcoder) CompressBackground(ctx context.Context, in, out string, crf int) error {
	t.logger.Debug(l10n.F("Compressing background of %s", in))
	return t.run(ctx, BackgroundArgs(in, out, crf))
}

// QualityOffset encodes in into out with a static region quality offset.
func (t *Transcoder) QualityOffset(ctx context.Context, in, out string, opts ports.QualityOffsetOptions) error {
	t.logger.Debug(l10n.F("Applying quality offset %.2f to %s", opts.QOffset, in))
	return t.run(ctx, QualityOffsetArgs(in, out, opts))
}

// CopyAudio muxes the video of video with the audio of audioSource into out.
func (t *Transcoder) CopyAudio(ctx context.Context, video, audioSource, out string) error {
	t.logger.Debug(l10n.F("Copying audio from %s", audioSource))
	return t.run(ctx, CopyAudioArgs(video, audioSource, out))
}

func (t *Transcoder) run(ctx context.Context, args []string) error {
	ffmpegPath, err := ffmpegbin.Find(ffmpegbin.FFmpeg)
	if err != nil {
		return fmt.Errorf("transcode: %w: %w", pipeline.ErrCodec, err)
	}

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, ffmpegPath, args...)
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		msg := strings.TrimSpace(stderr.String())
		if len(msg) > maxStderr {
			msg = msg[len(msg)-maxStderr:]
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return fmt.Errorf("ffmpeg exited with code %d: %w: %s", exitErr.ExitCode(), pipeline.ErrCodec, msg)
		}
		return fmt.Errorf("run ffmpeg: %w: %w", pipeline.ErrIO, err)
	}
	return nil
}

// Ensure Transcoder implements ports.Transcoder
var _ ports.Transcoder = (*Transcoder)(nil)
