// Package main provides localization for the framescope CLI.
package main

import (
	"github.com/ideamans/go-l10n"
)

func init() {
	// Register Japanese translations for CLI messages.
	l10n.Register("ja", l10n.LexiconMap{
		// Flag categories
		"Configuration": "設定",
		"Logging":       "ログ",
		"Decoding":      "デコード",
		"Output":        "出力",
		"Position":      "位置",
		"Analysis":      "解析",
		"Serving":       "サーバー",

		// Root command
		"Frame-accurate media inspection and playback engine": "フレーム単位のメディア検査・再生エンジン",

		// Global flags
		"YAML configuration file":                      "YAML設定ファイル",
		"Log level (debug, info, warn, error)":         "ログレベル（debug, info, warn, error）",
		"Suppress all log output":                      "すべてのログ出力を抑制",
		"Path to the ffmpeg executable used for H.264": "H.264のデコードに使うffmpeg実行ファイルのパス",
		"Frame scaler (draw, imaging)":                 "フレームのスケーラー（draw, imaging）",
		"Resampling kernel of the selected scaler":     "選択したスケーラーのリサンプリングカーネル",

		// Probe command
		"List the streams of media files": "メディアファイルのストリームを一覧表示",
		"Print results as JSON":           "結果をJSONで出力",
		"Files probed in parallel":        "並列に調べるファイル数",
		"No input files":                  "入力ファイルがありません",

		// Frame command
		"Export the video frame at a position as an image":   "指定位置の映像フレームを画像として書き出す",
		"Output image path (.png or .jpg)":                   "出力画像のパス（.png または .jpg）",
		"Position in stream time base units":                 "ストリームのタイムベース単位の位置",
		"Position in seconds (overrides --position)":         "秒単位の位置（--position を上書き）",
		"Video stream index (-1 selects the default stream)": "映像ストリーム番号（-1 でデフォルト）",
		"Output width (default: original width)":             "出力幅（デフォルト: 元の幅）",
		"Output height (default: original height)":           "出力高さ（デフォルト: 元の高さ）",
		"Also export the frame into this directory":          "このディレクトリにもフレームを書き出す",
		"Exactly one input file is required":                 "入力ファイルを1つだけ指定してください",

		// Waveform command
		"Plot the loudness of an audio stream":                          "音声ストリームの音量をプロット",
		"Output directory for waveform.png and intensity.json":          "waveform.png と intensity.json の出力先ディレクトリ",
		"Window length in samples":                                      "ウィンドウ長（サンプル数）",
		"Start of the analysed range in seconds":                        "解析範囲の開始（秒）",
		"End of the analysed range in seconds (default: end of stream)": "解析範囲の終了（秒、デフォルト: ストリームの終端）",
		"Audio stream index (-1 selects the default stream)":            "音声ストリーム番号（-1 でデフォルト）",

		// Serve command
		"Run the playback engine over JSON lines on stdin and stdout": "標準入出力のJSON行で再生エンジンを実行",
		"Expose Prometheus metrics on this address (e.g. :9090)":      "このアドレスでPrometheusメトリクスを公開（例: :9090）",
		"Initial event queue capacity":                                "イベントキューの初期容量",
		"Append length-prefixed frame payloads to this file":          "長さ付きのフレームペイロードをこのファイルに追記",
		"Export every sent frame and audio block into this directory": "送信したフレームと音声ブロックをこのディレクトリに書き出す",

		// Version command
		"Show version information": "バージョン情報を表示",
		"framescope version %s":    "framescope バージョン %s",
		"H.264 (ffmpeg): %t":       "H.264 (ffmpeg): %t",
		"AV1 (libaom): %t":         "AV1 (libaom): %t",
	})
}
