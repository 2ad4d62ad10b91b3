package product

import (
	"strings"
	"unicode"
)

// Slugify は商品タイトルからURL用のスラグを生成する。
// 英数字以外の文字はハイフンに置換し、連続するハイフンは1つにまとめる。
// タイトルが一意であるためスラグも一意になる。
func Slugify(title string) string {
	var b strings.Builder
	prevHyphen := false
	for _, r := range strings.ToLower(strings.TrimSpace(title)) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			prevHyphen = false
		default:
			if !prevHyphen && b.Len() > 0 {
				b.WriteByte('-')
				prevHyphen = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
