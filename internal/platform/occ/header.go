package occ

import (
	"time"

	"github.com/labstack/echo/v4"

	"github.com/dermclinic/dermclinic/internal/platform/apperr"
)

// SetVersionHeaders sets the ETag and Last-Modified headers on the response
// so that every mutation response carries the resource's current token.
func SetVersionHeaders(c echo.Context, token Token, lastModified time.Time) {
	c.Response().Header().Set("ETag", string(token))
	if !lastModified.IsZero() {
		c.Response().Header().Set("Last-Modified", lastModified.UTC().Format(time.RFC1123))
	}
}

// RequireIfMatch reads the If-Match header from a conditional mutation.
// A missing header is a validation error reported before any store access.
func RequireIfMatch(c echo.Context) (Token, error) {
	ifMatch := c.Request().Header.Get("If-Match")
	if ifMatch == "" {
		return "", apperr.Validation("If-Match header is required")
	}
	return Token(ifMatch), nil
}

// CheckIfNoneMatch reports whether the client's If-None-Match token matches
// the current one, in which case a 304 should be returned. A missing or
// unparseable header never matches.
func CheckIfNoneMatch(c echo.Context, current Token) bool {
	ifNoneMatch := c.Request().Header.Get("If-None-Match")
	if ifNoneMatch == "" {
		return false
	}

	clientVersion, err := ParseToken(Token(ifNoneMatch))
	if err != nil {
		return false
	}
	currentVersion, err := ParseToken(current)
	if err != nil {
		return false
	}
	return clientVersion == currentVersion
}
