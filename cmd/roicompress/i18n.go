// Package main provides localization for the roicompress CLI.
package main

import (
	"github.com/ideamans/go-l10n"
)

func init() {
	// Register Japanese translations for CLI messages.
	l10n.Register("ja", l10n.LexiconMap{
		// Flag categories
		"Encoding":       "エンコード",
		"Compositing":    "合成",
		"External Tools": "外部ツール",
		"Debug":          "デバッグ",
		"Logging":        "ログ",

		// Root command
		"Keep a tracked region of a video and flatten everything else": "動画の追跡領域を残し、それ以外を平坦化",
		"roicompress decodes a video, keeps the pixels inside a per-frame bounding box " +
			"and replaces the rest with a flat or heavily compressed background before re-encoding, " +
			"so that the encoder spends its bits on the region of interest.": "roicompressは動画をデコードし、フレームごとのバウンディングボックス内の画素を残して" +
			"それ以外を平坦な背景または高圧縮の背景に置き換えてから再エンコードします。" +
			"これによりエンコーダは関心領域にビットを割り当てます。",

		// addroi command
		"Encode with a static region quality offset (ffmpeg addroi)": "固定領域の品質オフセットでエンコード（ffmpeg addroi）",
		"addroi region expression":                                   "addroiの領域式",
		"Quality offset from -1 (best) to 1 (worst)":                 "品質オフセット（-1が最高、1が最低）",
		"Constant rate factor 0-51":                                  "CRF値（0-51）",
		"Encoder name":                                               "エンコーダ名",

		// Encoding flags
		"Output frame rate as n or num/den (default: input rate)": "出力フレームレート（nまたはnum/den、デフォルト: 入力と同じ）",
		"Constant rate factor 0-51, exclusive with --bitrate":     "CRF値（0-51、--bitrateとは併用不可）",
		"Target bit rate in bits per second (default: 1000000)":   "目標ビットレート（bps、デフォルト: 1000000）",
		"Encoder name (default: libx264)":                         "エンコーダ名（デフォルト: libx264）",
		"Encoder preset (default: fast)":                          "エンコーダプリセット（デフォルト: fast）",
		"H.264 profile (default: baseline)":                       "H.264プロファイル（デフォルト: baseline）",
		"Keyframe interval in frames (default: encoder default)":  "キーフレーム間隔（フレーム数、デフォルト: エンコーダ既定値）",
		"Do not copy the input audio":                             "入力の音声をコピーしない",

		// Compositing flags
		"Chroma box policy: cosited or outward (default: cosited)":         "色差ボックスの方式: cosited または outward（デフォルト: cosited）",
		"Background outside the box: black or compressed (default: black)": "ボックス外の背景: black または compressed（デフォルト: black）",
		"CRF of the compressed background (default: 51)":                   "圧縮背景のCRF値（デフォルト: 51）",

		// Tool flags
		"YAML configuration file":                                 "YAML設定ファイル",
		"Path to ffmpeg (falls back to FFMPEG_PATH, then PATH)":   "ffmpegのパス（未指定時はFFMPEG_PATH、次にPATH）",
		"Path to ffprobe (falls back to FFPROBE_PATH, then PATH)": "ffprobeのパス（未指定時はFFPROBE_PATH、次にPATH）",

		// Debug flags
		"Write stream, track and preview debug output":                          "ストリーム、トラック、プレビューのデバッグ出力を書き出す",
		"Directory for debug output (default: ./debug)":                         "デバッグ出力先ディレクトリ（デフォルト: ./debug）",
		"Save a preview PNG every n frames in debug mode":                       "デバッグ時にnフレームごとにプレビューPNGを保存",
		"Write a run summary to this path (.json for JSON, otherwise Markdown)": "実行サマリーをこのパスに書き出す（.jsonならJSON、それ以外はMarkdown）",

		// Logging flags
		"Log level: debug, info, warn or error (default: info)": "ログレベル: debug, info, warn, error（デフォルト: info）",
		"Suppress all log output":                               "ログ出力をすべて抑制",

		// Messages
		"expected <input-path> <output-path> <boxes-path>": "<input-path> <output-path> <boxes-path> を指定してください",
		"expected <input-path> <output-path>":              "<input-path> <output-path> を指定してください",
		"--crf and --bitrate are mutually exclusive":       "--crf と --bitrate は同時に指定できません",
		"Failed to write summary: %s":                      "サマリーの書き出しに失敗しました: %s",
		"Output saved to %s":                               "出力を保存しました: %s",
		"Encoding %s with quality offset %.2f":             "%s を品質オフセット %.2f でエンコードしています",
	})
}
