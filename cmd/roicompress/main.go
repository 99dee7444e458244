// Package main provides the CLI entry point for roicompress.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ideamans/go-l10n"
	"github.com/urfave/cli/v2"

	"github.com/user/roicompress/pkg/adapters/ffmpegbin"
	"github.com/user/roicompress/pkg/adapters/ffmpegsource"
	"github.com/user/roicompress/pkg/adapters/ffmpegtranscoder"
	"github.com/user/roicompress/pkg/adapters/filesink"
	"github.com/user/roicompress/pkg/adapters/ggrenderer"
	"github.com/user/roicompress/pkg/adapters/h264encoder"
	"github.com/user/roicompress/pkg/adapters/logger"
	"github.com/user/roicompress/pkg/adapters/muxers"
	"github.com/user/roicompress/pkg/adapters/nullsink"
	"github.com/user/roicompress/pkg/adapters/osfilesystem"
	"github.com/user/roicompress/pkg/config"
	"github.com/user/roicompress/pkg/orchestrator"
	"github.com/user/roicompress/pkg/pipeline"
	"github.com/user/roicompress/pkg/ports"
	"github.com/user/roicompress/pkg/stages/composite"
	"github.com/user/roicompress/pkg/summarizer"
)

var version = "dev"

// Exit codes.
const (
	exitOK             = 0
	exitGeneric        = 1
	exitIO             = 2
	exitNoBoxes        = 3
	exitStreamNotFound = 4
	exitCodec          = 5
	exitInterrupted    = 130
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := newApp()
	err := app.RunContext(ctx, flagsFirst(app, os.Args))
	if err != nil {
		cli.HandleExitCoder(cli.Exit(err.Error(), exitCode(ctx, err)))
	}
}

// exitCode maps an error onto the process exit status.
func exitCode(ctx context.Context, err error) int {
	if err == nil {
		return exitOK
	}
	if ctx.Err() != nil || errors.Is(err, context.Canceled) {
		return exitInterrupted
	}
	switch pipeline.KindOf(err) {
	case pipeline.KindNoBoxes:
		return exitNoBoxes
	case pipeline.KindStreamNotFound:
		return exitStreamNotFound
	case pipeline.KindCodec:
		return exitCodec
	case pipeline.KindIO:
		return exitIO
	default:
		return exitGeneric
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:      "roicompress",
		Usage:     l10n.T("Keep a tracked region of a video and flatten everything else"),
		UsageText: "roicompress [global options] <input-path> <output-path> <boxes-path>\nroicompress addroi [options] <input-path> <output-path>",
		Description: l10n.T("roicompress decodes a video, keeps the pixels inside a per-frame bounding box " +
			"and replaces the rest with a flat or heavily compressed background before re-encoding, " +
			"so that the encoder spends its bits on the region of interest."),
		Version:         version,
		Flags:           globalFlags(),
		Action:          compressAction,
		HideHelpCommand: true,
		Commands: []*cli.Command{
			addroiCommand(),
		},
		// Exit codes are mapped in main.
		ExitErrHandler: func(*cli.Context, error) {},
	}
}

func globalFlags() []cli.Flag {
	// Translated here, after the lexicon is registered.
	var (
		catEncoding   = l10n.T("Encoding")
		catCompositor = l10n.T("Compositing")
		catTools      = l10n.T("External Tools")
		catDebug      = l10n.T("Debug")
		catLogging    = l10n.T("Logging")
	)

	return []cli.Flag{
		// Encoding
		&cli.StringFlag{Name: "fps", Category: catEncoding, Usage: l10n.T("Output frame rate as n or num/den (default: input rate)")},
		&cli.IntFlag{Name: "crf", Category: catEncoding, Usage: l10n.T("Constant rate factor 0-51, exclusive with --bitrate")},
		&cli.IntFlag{Name: "bitrate", Category: catEncoding, Usage: l10n.T("Target bit rate in bits per second (default: 1000000)")},
		&cli.StringFlag{Name: "codec", Category: catEncoding, Usage: l10n.T("Encoder name (default: libx264)")},
		&cli.StringFlag{Name: "preset", Category: catEncoding, Usage: l10n.T("Encoder preset (default: fast)")},
		&cli.StringFlag{Name: "profile", Category: catEncoding, Usage: l10n.T("H.264 profile (default: baseline)")},
		&cli.IntFlag{Name: "gop", Category: catEncoding, Usage: l10n.T("Keyframe interval in frames (default: encoder default)")},
		&cli.BoolFlag{Name: "no-audio", Category: catEncoding, Usage: l10n.T("Do not copy the input audio")},

		// Compositing
		&cli.StringFlag{Name: "chroma", Category: catCompositor, Usage: l10n.T("Chroma box policy: cosited or outward (default: cosited)")},
		&cli.StringFlag{Name: "background", Category: catCompositor, Usage: l10n.T("Background outside the box: black or compressed (default: black)")},
		&cli.IntFlag{Name: "background-crf", Category: catCompositor, Usage: l10n.T("CRF of the compressed background (default: 51)")},

		// Configuration and tools
		&cli.PathFlag{Name: "config", Aliases: []string{"c"}, Category: catTools, Usage: l10n.T("YAML configuration file")},
		&cli.PathFlag{Name: "ffmpeg", Category: catTools, Usage: l10n.T("Path to ffmpeg (falls back to FFMPEG_PATH, then PATH)")},
		&cli.PathFlag{Name: "ffprobe", Category: catTools, Usage: l10n.T("Path to ffprobe (falls back to FFPROBE_PATH, then PATH)")},

		// Debug
		&cli.BoolFlag{Name: "debug", Aliases: []string{"d"}, Category: catDebug, Usage: l10n.T("Write stream, track and preview debug output")},
		&cli.PathFlag{Name: "debug-dir", Category: catDebug, Usage: l10n.T("Directory for debug output (default: ./debug)")},
		&cli.IntFlag{Name: "preview-every", Category: catDebug, Usage: l10n.T("Save a preview PNG every n frames in debug mode")},
		&cli.PathFlag{Name: "summary", Category: catDebug, Usage: l10n.T("Write a run summary to this path (.json for JSON, otherwise Markdown)")},

		// Logging
		&cli.StringFlag{Name: "log-level", Aliases: []string{"l"}, Category: catLogging, Usage: l10n.T("Log level: debug, info, warn or error (default: info)")},
		&cli.BoolFlag{Name: "quiet", Aliases: []string{"q"}, Category: catLogging, Usage: l10n.T("Suppress all log output")},
	}
}

func addroiCommand() *cli.Command {
	return &cli.Command{
		Name:      "addroi",
		Usage:     l10n.T("Encode with a static region quality offset (ffmpeg addroi)"),
		ArgsUsage: "<input-path> <output-path>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "region", Value: ffmpegtranscoder.DefaultRegion, Usage: l10n.T("addroi region expression")},
			&cli.Float64Flag{Name: "qoffset", Value: ffmpegtranscoder.DefaultQOffset, Usage: l10n.T("Quality offset from -1 (best) to 1 (worst)")},
			&cli.IntFlag{Name: "crf", Value: ffmpegtranscoder.DefaultCRF, Usage: l10n.T("Constant rate factor 0-51")},
			&cli.StringFlag{Name: "codec", Value: ffmpegtranscoder.DefaultCodec, Usage: l10n.T("Encoder name")},
		},
		Action: addroiAction,
	}
}

// compressAction runs the region of interest pipeline.
func compressAction(c *cli.Context) error {
	if c.NArg() != 3 {
		cli.ShowAppHelp(c)
		return errors.New(l10n.T("expected <input-path> <output-path> <boxes-path>"))
	}

	cfg, err := buildConfig(c)
	if err != nil {
		return err
	}
	log := newLogger(cfg.LogLevel, c.Bool("quiet"))
	setToolPaths(cfg.FFmpegPath, cfg.FFprobePath)

	orchConfig, err := cfg.ToOrchestratorConfig()
	if err != nil {
		return err
	}

	fs := osfilesystem.New()
	renderer := ggrenderer.New()
	var sink ports.DebugSink
	if cfg.Debug {
		if err := fs.MkdirAll(cfg.DebugDir); err != nil {
			return fmt.Errorf("create debug directory: %w: %w", pipeline.ErrIO, err)
		}
		sink = filesink.New(cfg.DebugDir, fs, renderer)
	} else {
		sink = nullsink.New()
	}

	orch := orchestrator.New(
		ffmpegsource.NewOpener(log),
		composite.NewStage(orchConfig.Chroma, log),
		func(ctx context.Context) ports.VideoEncoder { return h264encoder.New(ctx, log) },
		muxers.ForPath,
		ffmpegtranscoder.New(log),
		fs,
		sink,
		renderer,
		log,
	)

	result, err := orch.Run(c.Context, orchConfig)
	if err != nil {
		return err
	}

	if cfg.Summary != "" {
		summary := buildSummary(result, orchConfig)
		w := summarizer.NewWriter(summarizer.ForPath(cfg.Summary,
			summarizer.WithTranslator(l10n.T),
			summarizer.WithVersion(version),
		), fs)
		if err := w.Write(cfg.Summary, summary); err != nil {
			log.Warn(l10n.F("Failed to write summary: %s", err))
		}
	}

	fmt.Fprintln(c.App.Writer, l10n.F("Output saved to %s", cfg.OutputPath))
	return nil
}

// addroiAction runs the static quality offset variant.
func addroiAction(c *cli.Context) error {
	if c.NArg() != 2 {
		cli.ShowSubcommandHelp(c)
		return errors.New(l10n.T("expected <input-path> <output-path>"))
	}
	in, out := c.Args().Get(0), c.Args().Get(1)

	log := newLogger(c.String("log-level"), c.Bool("quiet"))
	setToolPaths(c.Path("ffmpeg"), c.Path("ffprobe"))

	if _, err := os.Stat(in); err != nil {
		return fmt.Errorf("open input: %w: %w", pipeline.ErrIO, err)
	}

	opts := ports.QualityOffsetOptions{
		Region:  c.String("region"),
		QOffset: c.Float64("qoffset"),
		CRF:     c.Int("crf"),
		Codec:   c.String("codec"),
	}
	log.Info(l10n.F("Encoding %s with quality offset %.2f", in, opts.QOffset))
	if err := ffmpegtranscoder.New(log).QualityOffset(c.Context, in, out, opts); err != nil {
		return err
	}

	fmt.Fprintln(c.App.Writer, l10n.F("Output saved to %s", out))
	return nil
}

// buildConfig layers defaults, the YAML file and flags.
func buildConfig(c *cli.Context) (config.Config, error) {
	cfg := config.Defaults()
	if path := c.Path("config"); path != "" {
		loaded, err := config.LoadFromFile(path)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
	}

	cfg.InputPath = c.Args().Get(0)
	cfg.OutputPath = c.Args().Get(1)
	cfg.BoxesPath = c.Args().Get(2)

	if c.IsSet("crf") && c.IsSet("bitrate") {
		return cfg, errors.New(l10n.T("--crf and --bitrate are mutually exclusive"))
	}

	if c.IsSet("fps") {
		cfg.FrameRate = c.String("fps")
	}
	if c.IsSet("crf") {
		cfg.Encoder.CRF = c.Int("crf")
	}
	if c.IsSet("bitrate") {
		cfg.Encoder.BitRate = c.Int("bitrate")
		cfg.Encoder.CRF = 0
	}
	if c.IsSet("codec") {
		cfg.Encoder.Codec = c.String("codec")
	}
	if c.IsSet("preset") {
		cfg.Encoder.Preset = c.String("preset")
	}
	if c.IsSet("profile") {
		cfg.Encoder.Profile = c.String("profile")
	}
	if c.IsSet("gop") {
		cfg.Encoder.GOP = c.Int("gop")
	}
	if c.Bool("no-audio") {
		cfg.Audio = false
	}
	if c.IsSet("chroma") {
		cfg.Compositor.Chroma = c.String("chroma")
	}
	if c.IsSet("background") {
		cfg.Compositor.Background = c.String("background")
	}
	if c.IsSet("background-crf") {
		cfg.Compositor.BackgroundCRF = c.Int("background-crf")
	}
	if c.IsSet("ffmpeg") {
		cfg.FFmpegPath = c.Path("ffmpeg")
	}
	if c.IsSet("ffprobe") {
		cfg.FFprobePath = c.Path("ffprobe")
	}
	if c.Bool("debug") {
		cfg.Debug = true
	}
	if c.IsSet("debug-dir") {
		cfg.DebugDir = c.Path("debug-dir")
	}
	if c.IsSet("preview-every") {
		cfg.PreviewEvery = c.Int("preview-every")
	}
	if c.IsSet("summary") {
		cfg.Summary = c.Path("summary")
	}
	if c.IsSet("log-level") {
		cfg.LogLevel = c.String("log-level")
	}

	return cfg, cfg.Validate()
}

func newLogger(level string, quiet bool) ports.Logger {
	if quiet {
		return logger.NewNoop()
	}
	return logger.NewConsole(ports.ParseLogLevel(level))
}

func setToolPaths(ffmpegPath, ffprobePath string) {
	if ffmpegPath != "" {
		ffmpegbin.SetPath(ffmpegbin.FFmpeg, ffmpegPath)
	}
	if ffprobePath != "" {
		ffmpegbin.SetPath(ffmpegbin.FFprobe, ffprobePath)
	}
}
