package logger

import "github.com/ideamans/go-l10n"

func init() {
	l10n.Register("ja", l10n.LexiconMap{
		// Orchestration level messages (info)
		"Starting pipeline":                "パイプラインを開始します",
		"Input %dx%d %s at %s fps":         "入力 %dx%d %s、%s fps",
		"Encoding %s at %s fps":            "%s を %s fps でエンコードします",
		"Processed %d/%d frames":           "%d/%d フレームを処理しました",
		"Processed %d frames":              "%d フレームを処理しました",
		"Wrote %d frames to %s":            "%d フレームを %s に書き出しました",
		"Pipeline completed successfully":  "パイプラインが正常に完了しました",
		"Interrupted, shutting down...":    "中断されました。シャットダウン中...",
		"Compressing background at CRF %d": "CRF %d で背景を圧縮しています",
		"Copying audio":                    "音声をコピーしています",

		// Source (decoder component)
		"Selected stream #%d (%s %dx%d %s)":   "ストリーム #%d を選択しました (%s %dx%d %s)",
		"Decoder started for %s":              "%s のデコードを開始しました",
		"Decoder stopped after %d frames: %s": "%d フレーム後にデコーダが停止しました: %s",
		"Decoder stderr: %s":                  "デコーダの標準エラー出力: %s",

		// Box track
		"Loaded %d boxes from %s": "%d 個のボックスを %s から読み込みました",
		"Skipping line %d: %s":    "%d 行目をスキップします: %s",

		// Encoder component
		"Encoder started: %s": "エンコーダを開始しました: %s",

		// Transcoder component
		"Compressing background of %s":       "%s の背景を圧縮しています",
		"Applying quality offset %.2f to %s": "品質オフセット %.2f を %s に適用しています",
		"Copying audio from %s":              "%s から音声をコピーしています",

		// Warnings
		"Input pixel format %s is converted to yuv420p": "入力のピクセル形式 %s は yuv420p に変換されます",
		"Box track has %d records for %d frames":        "ボックストラックは %d 件ですがフレームは %d 枚です",
		"Background ended at frame %d, using black":     "背景がフレーム %d で終了しました。黒を使用します",
		"%s cannot carry audio, audio is dropped":       "%s は音声を格納できないため、音声を破棄します",
		"Releasing encoder: %s":                         "エンコーダの解放: %s",
		"Failed to remove %s: %s":                       "%s の削除に失敗しました: %s",
		"Failed to save debug output: %s":               "デバッグ出力の保存に失敗しました: %s",
		"Cannot stat output: %s":                        "出力の情報を取得できません: %s",

		// Errors
		"Failed to open input: %s":          "入力を開けませんでした: %s",
		"Failed to load boxes: %s":          "ボックスの読み込みに失敗しました: %s",
		"Failed to create output: %s":       "出力の作成に失敗しました: %s",
		"Failed to start encoder: %s":       "エンコーダの起動に失敗しました: %s",
		"Failed to encode video: %s":        "動画のエンコードに失敗しました: %s",
		"Decoder failed: %s":                "デコーダが失敗しました: %s",
		"Failed to compress background: %s": "背景の圧縮に失敗しました: %s",
		"Failed to copy audio: %s":          "音声のコピーに失敗しました: %s",
	})
}
