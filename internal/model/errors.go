// Package model はドメインモデルを定義する。
package model

import (
	"fmt"
	"strings"
)

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, catalog, order, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeValidation           = "VALIDATION_ERROR"
	ErrCodeEmailConflict        = "EMAIL_CONFLICT"
	ErrCodeInvalidCredentials   = "INVALID_CREDENTIALS"
	ErrCodeUnauthenticated      = "UNAUTHENTICATED"
	ErrCodeInvalidToken         = "INVALID_TOKEN"
	ErrCodeForbidden            = "FORBIDDEN"
	ErrCodeIdentityConflict     = "IDENTITY_CONFLICT"
	ErrCodeInvalidResetToken    = "INVALID_RESET_TOKEN"
	ErrCodeEmailDeliveryFailed  = "EMAIL_DELIVERY_FAILED"
	ErrCodeUserNotFound         = "USER_NOT_FOUND"
	ErrCodeProductNotFound      = "PRODUCT_NOT_FOUND"
	ErrCodeCategoryNotFound     = "CATEGORY_NOT_FOUND"
	ErrCodeOrderNotFound        = "ORDER_NOT_FOUND"
	ErrCodeAnnouncementNotFound = "ANNOUNCEMENT_NOT_FOUND"
	ErrCodeTitleConflict        = "TITLE_CONFLICT"
	ErrCodeCategoryNameConflict = "CATEGORY_NAME_CONFLICT"
	ErrCodeImageRequired        = "IMAGE_REQUIRED"
	ErrCodeInternal             = "INTERNAL_ERROR"
)

// NewValidationError は入力検証エラーを生成する。
// messageには違反したルールを列挙する。
func NewValidationError(rules ...string) *APIError {
	return &APIError{
		Code:     ErrCodeValidation,
		Message:  strings.Join(rules, " "),
		Category: "validation",
		Action:   "入力内容を確認してください。",
	}
}

// NewEmailConflictError はメールアドレス重複エラーを生成する。
func NewEmailConflictError() *APIError {
	return &APIError{
		Code:     ErrCodeEmailConflict,
		Message:  "このメールアドレスは既に登録されています。",
		Category: "auth",
		Action:   "別のメールアドレスを使用するか、サインインしてください。",
	}
}

// NewInvalidCredentialsError はサインイン失敗エラーを生成する。
// メールとパスワードのどちらが誤っているかは意図的に伏せる。
func NewInvalidCredentialsError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidCredentials,
		Message:  "メールアドレスまたはパスワードが正しくありません。",
		Category: "auth",
		Action:   "入力内容を確認して再度お試しください。",
	}
}

// NewUnauthenticatedError はトークン未提示エラーを生成する。
func NewUnauthenticatedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthenticated,
		Message:  "アクセスが拒否されました。トークンが提示されていません。",
		Category: "auth",
		Action:   "サインインしてください。",
	}
}

// NewInvalidTokenError はトークン検証失敗エラーを生成する。
// 署名不正・ペイロード不正・期限切れのいずれの場合にも使用する。
func NewInvalidTokenError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidToken,
		Message:  "トークンが無効です。",
		Category: "auth",
		Action:   "サインインし直してください。",
	}
}

// NewForbiddenError は認可失敗エラーを生成する。
func NewForbiddenError() *APIError {
	return &APIError{
		Code:     ErrCodeForbidden,
		Message:  "この操作を実行する権限がありません。",
		Category: "auth",
		Action:   "権限のあるアカウントでサインインしてください。",
	}
}

// NewIdentityConflictError はGoogleログインとローカルアカウントの衝突エラーを生成する。
// 同一メールのローカル登録アカウントが存在する場合、サイレントに統合せず拒否する。
func NewIdentityConflictError() *APIError {
	return &APIError{
		Code:     ErrCodeIdentityConflict,
		Message:  "このメールアドレスはメール+パスワードでのアカウント作成に使用されています。",
		Category: "auth",
		Action:   "メールアドレスとパスワードでサインインしてください。",
	}
}

// NewInvalidResetTokenError はパスワードリセットトークンの検証失敗エラーを生成する。
// 期限切れ、署名不正、およびパスワード変更済みによる失効のいずれにも使用する。
func NewInvalidResetTokenError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidResetToken,
		Message:  "リセットリンクが無効か、有効期限が切れています。",
		Category: "auth",
		Action:   "パスワードリセットを再度リクエストしてください。",
	}
}

// NewEmailDeliveryFailedError はリセットメール送信失敗エラーを生成する。
// メール送信の失敗は成功として握りつぶさず、呼び出し元に明示する。
func NewEmailDeliveryFailedError() *APIError {
	return &APIError{
		Code:     ErrCodeEmailDeliveryFailed,
		Message:  "リセットメールの送信に失敗しました。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	}
}

// NewUserNotFoundError はユーザーが見つからない場合のエラーを生成する。
func NewUserNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeUserNotFound,
		Message:  "ユーザーが見つかりません。",
		Category: "auth",
		Action:   "ユーザーIDを確認してください。",
	}
}

// NewProductNotFoundError は商品が見つからない場合のエラーを生成する。
func NewProductNotFoundError(productID string) *APIError {
	return &APIError{
		Code:     ErrCodeProductNotFound,
		Message:  fmt.Sprintf("指定された商品が見つかりません: %s", productID),
		Category: "catalog",
		Action:   "商品IDを確認してください。",
	}
}

// NewCategoryNotFoundError はカテゴリが見つからない場合のエラーを生成する。
func NewCategoryNotFoundError(categoryID string) *APIError {
	return &APIError{
		Code:     ErrCodeCategoryNotFound,
		Message:  fmt.Sprintf("指定されたカテゴリが見つかりません: %s", categoryID),
		Category: "catalog",
		Action:   "カテゴリIDを確認してください。",
	}
}

// NewOrderNotFoundError は注文が見つからない場合のエラーを生成する。
func NewOrderNotFoundError(orderID string) *APIError {
	return &APIError{
		Code:     ErrCodeOrderNotFound,
		Message:  fmt.Sprintf("指定された注文が見つかりません: %s", orderID),
		Category: "order",
		Action:   "注文IDを確認してください。",
	}
}

// NewAnnouncementNotFoundError はお知らせが見つからない場合のエラーを生成する。
func NewAnnouncementNotFoundError(announcementID string) *APIError {
	return &APIError{
		Code:     ErrCodeAnnouncementNotFound,
		Message:  fmt.Sprintf("指定されたお知らせが見つかりません: %s", announcementID),
		Category: "catalog",
		Action:   "お知らせIDを確認してください。",
	}
}

// NewTitleConflictError は商品タイトル重複エラーを生成する。
func NewTitleConflictError() *APIError {
	return &APIError{
		Code:     ErrCodeTitleConflict,
		Message:  "このタイトルの商品は既に存在します。",
		Category: "catalog",
		Action:   "別のタイトルを指定してください。",
	}
}

// NewCategoryNameConflictError はカテゴリ名重複エラーを生成する。
func NewCategoryNameConflictError() *APIError {
	return &APIError{
		Code:     ErrCodeCategoryNameConflict,
		Message:  "このカテゴリ名は既に存在します。",
		Category: "catalog",
		Action:   "別のカテゴリ名を指定してください。",
	}
}

// NewImageRequiredError は画像未添付エラーを生成する。
func NewImageRequiredError() *APIError {
	return &APIError{
		Code:     ErrCodeImageRequired,
		Message:  "画像ファイルを添付してください。",
		Category: "validation",
		Action:   "有効な画像ファイルを添付して再度お試しください。",
	}
}

// NewInternalError は内部エラーを生成する。
// 詳細はログのみに記録し、ユーザーには一般的なメッセージを返す。
func NewInternalError() *APIError {
	return &APIError{
		Code:     ErrCodeInternal,
		Message:  "内部エラーが発生しました。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	}
}
