// Package security はアプリケーションのセキュリティ機能を提供する。
//
// InputSanitizerService はユーザー入力のテキストフィールドをサニタイズし、
// 保存されたHTMLが後段の画面で実行されるXSS攻撃を防ぐ。
// bluemondayの厳格ポリシーを使用し、すべてのHTMLタグを除去する。
package security

import "github.com/microcosm-cc/bluemonday"

// InputSanitizerService はユーザー入力テキストのサニタイズ機能のインターフェースを定義する。
// 商品・カテゴリ・注文・お知らせ等の保存前に使用される。
type InputSanitizerService interface {
	// Sanitize は入力テキストからすべてのHTMLタグを除去したテキストを返す。
	// 空文字列の入力には空文字列を返す。
	// 同一入力に対して常に同一出力を返す（冪等）。
	Sanitize(input string) string

	// SanitizeAll は文字列スライスの各要素をサニタイズした新しいスライスを返す。
	// nil入力には空スライスを返す（text[]カラムのNOT NULL制約に合わせる）。
	SanitizeAll(inputs []string) []string
}

// inputSanitizer はInputSanitizerServiceの実装。
// bluemondayの厳格ポリシーを保持し、スレッドセーフにサニタイズ処理を行う。
type inputSanitizer struct {
	policy *bluemonday.Policy
}

// NewInputSanitizer はInputSanitizerServiceの新しいインスタンスを生成する。
// 商品説明等は平文として保存する方針のため、許可タグは一切設けない。
// scriptタグ・イベント属性を含むすべてのマークアップが除去される。
func NewInputSanitizer() *inputSanitizer {
	return &inputSanitizer{
		policy: bluemonday.StrictPolicy(),
	}
}

// Sanitize は入力テキストからすべてのHTMLタグを除去したテキストを返す。
func (s *inputSanitizer) Sanitize(input string) string {
	return s.policy.Sanitize(input)
}

// SanitizeAll は文字列スライスの各要素をサニタイズした新しいスライスを返す。
// nil入力には空スライスを返す。
func (s *inputSanitizer) SanitizeAll(inputs []string) []string {
	out := make([]string, len(inputs))
	for i, in := range inputs {
		out[i] = s.policy.Sanitize(in)
	}
	return out
}
