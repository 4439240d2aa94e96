package logger

import "github.com/ideamans/go-l10n"

func init() {
	l10n.Register("ja", l10n.LexiconMap{
		// Sessions
		"Opened %s as session %d":      "%s をセッション %d として開きました",
		"Registered session %d for %s": "セッション %d を %s に登録しました",
		"Removed session %d":           "セッション %d を削除しました",
		"Closing session %d: %v":       "セッション %d のクローズ中にエラー: %v",
		"Closed %s":                    "%s を閉じました",

		// Streams
		"Opened %s: %d streams, %.3f s":                                            "%s を開きました: %d ストリーム, %.3f 秒",
		"Opened audio stream %d: codec=%s rate=%d channels=%d format=%s length=%d": "音声ストリーム %d を開きました: codec=%s rate=%d channels=%d format=%s length=%d",
		"Opened video stream %d: codec=%s %dx%d fps=%s length=%d format=%s":        "映像ストリーム %d を開きました: codec=%s %dx%d fps=%s length=%d format=%s",
		"Seeked %s stream %d to %d":                                                "%s ストリーム %d を %d にシークしました",
		"Precise seek to %d landed on %d after discarding %d frames":               "%[1]d への精密シークは %[3]d フレームを破棄して %[2]d に到達しました",
		"Using %s backend for %s stream %d":                                        "%[2]s ストリーム %[3]d に %[1]s バックエンドを使用します",

		// Commands and events
		"%s failed: %s":                      "%s に失敗しました: %s",
		"Notifier closed, discarded %s event": "通知は終了済みのため %s イベントを破棄しました",
		"Failed to write event: %v":          "イベントの書き込みに失敗しました: %v",

		// Exports
		"Saving frame %d: %v":           "フレーム %d の保存に失敗しました: %v",
		"Saving payload %s: %v":         "ペイロード %s の保存に失敗しました: %v",
		"Waveform saved to %s":          "波形を %s に保存しました",
		"Frame %d saved to %s":          "フレーム %d を %s に保存しました",
		"Metrics listening on %s":       "メトリクスを %s で公開しています",
		"Interrupted, shutting down...": "中断されました。シャットダウン中...",
	})
}
