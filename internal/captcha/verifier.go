// Package captcha は登録時のボット検証（reCAPTCHA）を提供する。
package captcha

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
)

// defaultEndpoint はreCAPTCHA検証APIのエンドポイント。
const defaultEndpoint = "https://www.google.com/recaptcha/api/siteverify"

// Verifier はボット検証トークンの検証インターフェース。
type Verifier interface {
	// Verify はトークンを検証し、人間による操作と判定できればtrueを返す。
	Verify(ctx context.Context, token string) (bool, error)
}

// RecaptchaVerifier はreCAPTCHA v3のsiteverify APIを呼び出すVerifier実装。
// スコアが閾値未満のトークンはボットとして拒否する。
type RecaptchaVerifier struct {
	httpClient *http.Client
	secret     string
	threshold  float64
	endpoint   string // テスト用にエンドポイントを差し替え可能
}

// NewRecaptchaVerifier はRecaptchaVerifierを生成する。
func NewRecaptchaVerifier(httpClient *http.Client, secret string, threshold float64) *RecaptchaVerifier {
	return &RecaptchaVerifier{
		httpClient: httpClient,
		secret:     secret,
		threshold:  threshold,
		endpoint:   defaultEndpoint,
	}
}

// siteverifyResponse はreCAPTCHA検証APIのレスポンス。
type siteverifyResponse struct {
	Success bool     `json:"success"`
	Score   float64  `json:"score"`
	Errors  []string `json:"error-codes"`
}

// Verify はトークンをsiteverify APIで検証する。
// successがfalse、またはスコアが閾値未満の場合はfalseを返す。
// APIの呼び出し自体に失敗した場合のみエラーを返す。
func (v *RecaptchaVerifier) Verify(ctx context.Context, token string) (bool, error) {
	if token == "" {
		return false, nil
	}

	data := url.Values{
		"secret":   {v.secret},
		"response": {token},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.endpoint, strings.NewReader(data.Encode()))
	if err != nil {
		return false, fmt.Errorf("検証リクエストの作成に失敗しました: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("検証APIの呼び出しに失敗しました: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("検証APIがステータス %d を返しました", resp.StatusCode)
	}

	var result siteverifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return false, fmt.Errorf("検証レスポンスの解析に失敗しました: %w", err)
	}

	if !result.Success {
		slog.Warn("captcha verification rejected",
			slog.Any("error_codes", result.Errors),
		)
		return false, nil
	}
	if result.Score < v.threshold {
		slog.Warn("captcha score below threshold",
			slog.Float64("score", result.Score),
			slog.Float64("threshold", v.threshold),
		)
		return false, nil
	}

	return true, nil
}

// compile-time interface check
var _ Verifier = (*RecaptchaVerifier)(nil)
