// Package image は商品・カテゴリ画像の外部ストレージへのアップロードを提供する。
package image

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"
)

// Uploader は画像アップロード機能のインターフェース。
type Uploader interface {
	// Upload は画像をアップロードし、配信用URLを返す。
	Upload(ctx context.Context, filename string, file io.Reader) (string, error)
}

// Config は画像アップローダーの設定。
type Config struct {
	UploadURL string        // アップロードエンドポイントのURL
	APIKey    string        // 認証用APIキー
	Timeout   time.Duration // リクエストタイムアウト（デフォルト30秒）
}

// HTTPUploader はHTTP multipart/form-dataで外部ストレージに画像を送信する。
// 画像は500x500のカバーフィットに変換してアップロードする。
type HTTPUploader struct {
	config Config
	client *http.Client
}

// NewHTTPUploader はHTTPUploaderを生成する。
func NewHTTPUploader(config Config) *HTTPUploader {
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	return &HTTPUploader{
		config: config,
		client: &http.Client{Timeout: config.Timeout},
	}
}

// uploadResponse は外部ストレージのレスポンス。
type uploadResponse struct {
	SecureURL string `json:"secure_url"`
}

// Upload は画像をアップロードし、配信用URLを返す。
func (u *HTTPUploader) Upload(ctx context.Context, filename string, file io.Reader) (string, error) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	// リクエストボディをストリーミングで構築する
	go func() {
		defer pw.Close()

		part, err := mw.CreateFormFile("file", filename)
		if err != nil {
			pw.CloseWithError(fmt.Errorf("failed to create form file: %w", err))
			return
		}
		if _, err := io.Copy(part, file); err != nil {
			pw.CloseWithError(fmt.Errorf("failed to copy file: %w", err))
			return
		}
		// 一覧・詳細画面共通の正方形サムネイルとして保存する
		if err := mw.WriteField("transformation", "w_500,h_500,c_fill"); err != nil {
			pw.CloseWithError(fmt.Errorf("failed to write transformation field: %w", err))
			return
		}
		pw.CloseWithError(mw.Close())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.config.UploadURL, pr)
	if err != nil {
		return "", fmt.Errorf("failed to create upload request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if u.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+u.config.APIKey)
	}

	resp, err := u.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read upload response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("upload failed with status %d: %s", resp.StatusCode, string(body))
	}

	var uploadResp uploadResponse
	if err := json.Unmarshal(body, &uploadResp); err != nil {
		return "", fmt.Errorf("failed to parse upload response: %w", err)
	}
	if uploadResp.SecureURL == "" {
		return "", fmt.Errorf("empty secure_url in upload response")
	}

	return uploadResp.SecureURL, nil
}

// compile-time interface check
var _ Uploader = (*HTTPUploader)(nil)
