package auth

import (
	"regexp"
	"unicode"
)

// emailPattern はメールアドレスの形式チェック用の正規表現。
// 空白と@を含まないローカル部・ドメイン部と、ドット付きTLDを要求する。
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidEmail はメールアドレスの形式が妥当かどうかを返す。
func ValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// ValidPassword はパスワード強度の要件を満たすかどうかを返す。
// 要件: 8文字以上、数字・大文字・記号をそれぞれ1文字以上含む。
func ValidPassword(password string) bool {
	if len(password) < 8 {
		return false
	}
	var hasDigit, hasUpper, hasSymbol bool
	for _, r := range password {
		switch {
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsUpper(r):
			hasUpper = true
		case !unicode.IsLetter(r) && !unicode.IsDigit(r):
			hasSymbol = true
		}
	}
	return hasDigit && hasUpper && hasSymbol
}

// ValidateCredentials はサインアップ時の認証情報を検証し、
// 問題があればフィールド名とメッセージのマップを返す。
func ValidateCredentials(email, password string) map[string]string {
	problems := make(map[string]string)
	if !ValidEmail(email) {
		problems["email"] = "メールアドレスの形式が正しくありません"
	}
	if !ValidPassword(password) {
		problems["password"] = "パスワードは8文字以上で、数字・大文字・記号をそれぞれ含む必要があります"
	}
	if len(problems) == 0 {
		return nil
	}
	return problems
}
