package summarizer

import (
	"fmt"
	"strings"
	"time"
)

// MarkdownFormatter renders a Summary as a Markdown report.
type MarkdownFormatter struct {
	translate func(string) string
	version   string
}

// MarkdownOption configures a MarkdownFormatter.
type MarkdownOption func(*MarkdownFormatter)

// WithTranslator translates headings and labels.
func WithTranslator(t func(string) string) MarkdownOption {
	return func(f *MarkdownFormatter) {
		f.translate = t
	}
}

// WithVersion adds the tool version to the footer.
func WithVersion(version string) MarkdownOption {
	return func(f *MarkdownFormatter) {
		f.version = version
	}
}

// NewMarkdownFormatter creates a new MarkdownFormatter.
func NewMarkdownFormatter(opts ...MarkdownOption) *MarkdownFormatter {
	f := &MarkdownFormatter{translate: func(s string) string { return s }}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Format implements Formatter.
func (f *MarkdownFormatter) Format(s *Summary) string {
	t := f.translate
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", t("Compression Summary"))
	fmt.Fprintf(&b, "- %s: %s\n", t("Generated"), s.GeneratedAt.Format(time.RFC3339))
	if s.RunID != "" {
		fmt.Fprintf(&b, "- %s: `%s`\n", t("Run ID"), s.RunID)
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "## %s\n\n", t("Input"))
	f.table(&b, [][2]string{
		{t("Path"), s.Input.Path},
		{t("Codec"), s.Input.Codec},
		{t("Resolution"), fmt.Sprintf("%dx%d", s.Input.Width, s.Input.Height)},
		{t("Pixel Format"), s.Input.PixelFormat},
		{t("Frame Rate"), s.Input.FrameRate},
		{t("Sample Aspect"), s.Input.SampleAspect},
		{t("Frames (estimate)"), countOrNA(s.Input.FrameCount)},
		{t("Audio"), yesNo(t, s.Input.HasAudio)},
	})

	fmt.Fprintf(&b, "## %s\n\n", t("Box Track"))
	mismatch := t("No")
	if s.Track.Mismatch {
		mismatch = fmt.Sprintf("%s (%d / %d)", t("Yes"), s.Track.Records, s.Output.FramesDecoded)
	}
	f.table(&b, [][2]string{
		{t("Path"), s.Track.Path},
		{t("Records"), fmt.Sprintf("%d", s.Track.Records)},
		{t("Skipped Lines"), fmt.Sprintf("%d", s.Track.Skipped)},
		{t("Reused Boxes"), fmt.Sprintf("%d", s.Track.Reused)},
		{t("Empty Boxes"), fmt.Sprintf("%d", s.Track.Empty)},
		{t("Length Mismatch"), mismatch},
	})

	fmt.Fprintf(&b, "## %s\n\n", t("Settings"))
	rate := fmt.Sprintf("%s %d", t("CRF"), s.Settings.CRF)
	if s.Settings.CRF == 0 {
		rate = formatBitRate(s.Settings.BitRate)
	}
	background := s.Settings.Background
	if background == "compressed" {
		background = fmt.Sprintf("%s (CRF %d)", background, s.Settings.BackgroundCRF)
	}
	gop := t("Encoder default")
	if s.Settings.GOPSize > 0 {
		gop = fmt.Sprintf("%d", s.Settings.GOPSize)
	}
	f.table(&b, [][2]string{
		{t("Codec"), fmt.Sprintf("%s (%s, %s)", s.Settings.Codec, s.Settings.Preset, s.Settings.Profile)},
		{t("Rate Control"), rate},
		{t("GOP Size"), gop},
		{t("Chroma Policy"), s.Settings.Chroma},
		{t("Background"), background},
	})

	fmt.Fprintf(&b, "## %s\n\n", t("Output"))
	f.table(&b, [][2]string{
		{t("Path"), s.Output.Path},
		{t("Frame Rate"), s.Output.FrameRate},
		{t("Frames Written"), fmt.Sprintf("%d / %d", s.Output.FramesWritten, s.Output.FramesDecoded)},
		{t("Packets"), fmt.Sprintf("%d (%d %s)", s.Output.PacketsWritten, s.Output.Keyframes, t("keyframes"))},
		{t("File Size"), formatBytes(s.Output.FileSize)},
		{t("Audio Copied"), yesNo(t, s.Output.AudioCopied)},
	})

	fmt.Fprintf(&b, "## %s\n\n", t("Resources"))
	memory := "N/A"
	if s.Resources.RSSBytes > 0 {
		memory = formatBytes(int64(s.Resources.RSSBytes))
	}
	f.table(&b, [][2]string{
		{t("Elapsed"), s.Resources.Elapsed.Round(time.Millisecond).String()},
		{t("Speed"), fmt.Sprintf("%.1f fps", s.Resources.FramesPerSecond(s.Output.FramesWritten))},
		{t("Resident Memory"), memory},
	})

	if f.version != "" {
		fmt.Fprintf(&b, "---\n\n%s roicompress %s\n", t("Generated by"), f.version)
	}
	return b.String()
}

func (f *MarkdownFormatter) table(b *strings.Builder, rows [][2]string) {
	fmt.Fprintf(b, "| %s | %s |\n|---|---|\n", f.translate("Item"), f.translate("Value"))
	for _, r := range rows {
		fmt.Fprintf(b, "| %s | %s |\n", r[0], r[1])
	}
	b.WriteString("\n")
}

func yesNo(t func(string) string, v bool) string {
	if v {
		return t("Yes")
	}
	return t("No")
}

func countOrNA(n int) string {
	if n <= 0 {
		return "N/A"
	}
	return fmt.Sprintf("%d", n)
}

// formatBytes formats a byte count with binary units.
func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit && exp < 2; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.2f %cB", float64(n)/float64(div), "KMG"[exp])
}

// formatBitRate formats bits per second.
func formatBitRate(bps int) string {
	switch {
	case bps >= 1_000_000:
		return fmt.Sprintf("%.2f Mbps", float64(bps)/1_000_000)
	case bps >= 1_000:
		return fmt.Sprintf("%.0f kbps", float64(bps)/1_000)
	default:
		return fmt.Sprintf("%d bps", bps)
	}
}
