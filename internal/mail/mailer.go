// Package mail はSMTPによるメール送信を提供する。
package mail

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/smtp"
	"strings"
)

// Config はSMTPメーラーの設定。
type Config struct {
	Host     string // SMTPサーバーのホスト名
	Port     int    // SMTPサーバーのポート
	Username string // SMTP認証のユーザー名
	Password string // SMTP認証のパスワード
	From     string // 送信元アドレス
}

// sendFunc はsmtp.SendMailと同じシグネチャ。テストで差し替える。
type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPMailer はSMTP経由でメールを送信する。
type SMTPMailer struct {
	config Config
	send   sendFunc
}

// NewSMTPMailer はSMTPMailerを生成する。
func NewSMTPMailer(config Config) *SMTPMailer {
	return &SMTPMailer{
		config: config,
		send:   smtp.SendMail,
	}
}

// SendPasswordReset はパスワードリセット用のリンクをメールで送信する。
// リンクの有効期限は15分である旨を本文に含める。
func (m *SMTPMailer) SendPasswordReset(ctx context.Context, to, resetURL string) error {
	subject := "パスワード再設定のご案内"
	body := fmt.Sprintf(
		"パスワード再設定のリクエストを受け付けました。\r\n"+
			"\r\n"+
			"以下のリンクから新しいパスワードを設定してください。\r\n"+
			"リンクの有効期限は15分です。\r\n"+
			"\r\n"+
			"%s\r\n"+
			"\r\n"+
			"このメールに心当たりがない場合は破棄してください。\r\n",
		resetURL,
	)

	msg := m.buildMessage(to, subject, body)

	addr := fmt.Sprintf("%s:%d", m.config.Host, m.config.Port)
	var auth smtp.Auth
	if m.config.Username != "" {
		auth = smtp.PlainAuth("", m.config.Username, m.config.Password, m.config.Host)
	}

	// smtp.SendMailはコンテキストを受け取らないため、先にキャンセルを確認する
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("send cancelled: %w", err)
	}

	if err := m.send(addr, auth, m.config.From, []string{to}, msg); err != nil {
		return fmt.Errorf("failed to send mail: %w", err)
	}
	return nil
}

// buildMessage はRFC 5322形式のメールメッセージを構築する。
func (m *SMTPMailer) buildMessage(to, subject, body string) []byte {
	var b strings.Builder
	b.WriteString("From: " + m.config.From + "\r\n")
	b.WriteString("To: " + to + "\r\n")
	b.WriteString("Subject: " + encodeSubject(subject) + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("Content-Transfer-Encoding: 8bit\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	return []byte(b.String())
}

// encodeSubject は日本語件名をRFC 2047のBエンコード形式に変換する。
func encodeSubject(subject string) string {
	return fmt.Sprintf("=?UTF-8?B?%s?=", base64.StdEncoding.EncodeToString([]byte(subject)))
}
