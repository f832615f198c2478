// Package token は署名付きセッショントークンの発行と検証を提供する。
// サーバー側にセッションストアを持たないステートレス方式。
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"github.com/uniway/atlas/internal/model"
)

// SessionClaims はセッショントークンに含めるクレーム。
type SessionClaims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// Issuer はセッショントークンの発行と検証を行う。
type Issuer struct {
	secret []byte
	maxAge time.Duration
}

// NewIssuer はIssuerを生成する。
// maxAgeはトークンの有効期間を指定する。
func NewIssuer(secret string, maxAge time.Duration) *Issuer {
	return &Issuer{
		secret: []byte(secret),
		maxAge: maxAge,
	}
}

// Issue はユーザー情報を含むセッショントークンを発行する。
func (i *Issuer) Issue(userID, email string, role model.Role) (string, error) {
	if len(i.secret) == 0 {
		return "", errors.New("署名鍵が設定されていません")
	}

	now := time.Now()
	claims := SessionClaims{
		UserID: userID,
		Email:  email,
		Role:   string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(i.maxAge)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(i.secret)
}

// Verify はトークンを検証し、セッション情報を復元する。
// 署名不一致、アルゴリズム不正、期限切れはエラーを返す。
func (i *Issuer) Verify(tokenString string) (*model.SessionInfo, error) {
	t, err := jwt.ParseWithClaims(
		tokenString,
		&SessionClaims{},
		func(t *jwt.Token) (interface{}, error) {
			// HMAC以外の署名アルゴリズムは拒否する
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("想定外の署名アルゴリズムです: %v", t.Header["alg"])
			}
			return i.secret, nil
		},
	)
	if err != nil {
		return nil, fmt.Errorf("トークンの検証に失敗しました: %w", err)
	}

	claims, ok := t.Claims.(*SessionClaims)
	if !ok || !t.Valid {
		return nil, errors.New("無効なトークンです")
	}

	return &model.SessionInfo{
		UserID: claims.UserID,
		Email:  claims.Email,
		Role:   model.Role(claims.Role),
	}, nil
}
