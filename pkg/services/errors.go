package services

import (
	"errors"
	"fmt"
)

// ErrEmptyDataset 空のデータセットに対して統計を計算しようとした
var ErrEmptyDataset = errors.New("データセットが空です（1件以上のレコードが必要です）")

// ErrEmptyNarrative テキスト生成サービスが空の応答を返した
var ErrEmptyNarrative = errors.New("テキスト生成サービスからの応答が空です")

// ErrMailNotConfigured 送信が要求されたがメール送信手段が設定されていない
var ErrMailNotConfigured = errors.New("メール送信が設定されていません（SMTP_USERNAME / SMTP_PASSWORD を確認してください）")

// NarrativeError テキスト生成サービス呼び出しの失敗。
// パイプライン内部のエラーとは区別して扱う。
type NarrativeError struct {
	Attempts int
	Cause    error
}

func (e *NarrativeError) Error() string {
	return fmt.Sprintf("ナラティブ生成に失敗しました（試行回数: %d）: %v", e.Attempts, e.Cause)
}

func (e *NarrativeError) Unwrap() error {
	return e.Cause
}

// RenderError 1つ以上のチャート描画に失敗した
type RenderError struct {
	Failed []string
	Cause  error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("チャートの描画に失敗しました %v: %v", e.Failed, e.Cause)
}

func (e *RenderError) Unwrap() error {
	return e.Cause
}
