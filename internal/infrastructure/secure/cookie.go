package secure

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const cookieIssuer = "condaura-portal"

var ErrInvalidCookie = errors.New("invalid browser cookie")

// BrowserCookies issues and verifies the signed cookie that identifies a
// browser. The cookie names the storage scope only; it carries no identity.
type BrowserCookies struct {
	key []byte
	now func() time.Time
}

func NewBrowserCookies(key []byte) *BrowserCookies {
	return &BrowserCookies{key: key, now: time.Now}
}

// Issue mints a new browser ID and its signed token.
func (b *BrowserCookies) Issue() (browserID, token string, err error) {
	browserID = uuid.NewString()
	claims := jwt.RegisteredClaims{
		Issuer:   cookieIssuer,
		Subject:  browserID,
		IssuedAt: jwt.NewNumericDate(b.now()),
	}
	token, err = jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(b.key)
	if err != nil {
		return "", "", fmt.Errorf("sign browser cookie: %w", err)
	}
	return browserID, token, nil
}

// Parse verifies token and returns the browser ID it names.
func (b *BrowserCookies) Parse(token string) (string, error) {
	var claims jwt.RegisteredClaims
	tkn, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		return b.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(cookieIssuer),
		jwt.WithTimeFunc(b.now),
	)
	if err != nil || !tkn.Valid {
		return "", fmt.Errorf("%w: %v", ErrInvalidCookie, err)
	}
	if _, err := uuid.Parse(claims.Subject); err != nil {
		return "", fmt.Errorf("%w: subject is not a browser id", ErrInvalidCookie)
	}
	return claims.Subject, nil
}
