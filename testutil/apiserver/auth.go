package apiserver

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// SessionCookie carries the login token for cookie-based sessions.
const SessionCookie = "R_SESS"

const tokenTTL = time.Hour

type loginRequest struct {
	Username     string `json:"username"`
	Password     string `json:"password"`
	ResponseType string `json:"responseType"`
}

// login serves POST /v3-public/localproviders/local?action=login.
func (s *Server) login(c *gin.Context) {
	if c.Query("action") != "login" {
		apiError(c, http.StatusUnprocessableEntity, "InvalidAction", "invalid action "+c.Query("action"))
		return
	}
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apiError(c, http.StatusUnprocessableEntity, "InvalidBodyContent", err.Error())
		return
	}
	if req.Username != s.cfg.Username ||
		bcrypt.CompareHashAndPassword(s.passwordHash, []byte(req.Password)) != nil {
		apiError(c, http.StatusUnauthorized, "Unauthorized", "authentication failed")
		return
	}

	token, err := s.issueToken(req.Username)
	if err != nil {
		apiError(c, http.StatusInternalServerError, "ServerError", err.Error())
		return
	}
	c.SetCookie(SessionCookie, token, int(tokenTTL.Seconds()), "/", "", false, true)
	c.JSON(http.StatusCreated, gin.H{
		"type":   "token",
		"token":  token,
		"userId": "user-" + req.Username,
	})
}

func (s *Server) issueToken(username string) (string, error) {
	now := time.Now()
	claims := gojwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Subject:   username,
		IssuedAt:  gojwt.NewNumericDate(now),
		ExpiresAt: gojwt.NewNumericDate(now.Add(tokenTTL)),
	}
	signed, err := gojwt.NewWithClaims(gojwt.SigningMethodHS256, claims).SignedString(s.jwtKey)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func (s *Server) validToken(token string) bool {
	parsed, err := gojwt.ParseWithClaims(token, &gojwt.RegisteredClaims{},
		func(*gojwt.Token) (interface{}, error) { return s.jwtKey, nil },
		gojwt.WithValidMethods([]string{gojwt.SigningMethodHS256.Alg()}),
	)
	return err == nil && parsed.Valid
}

// authenticate accepts Basic access/secret keys, a Bearer token issued by
// login, or the session cookie.
func (s *Server) authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		if user, pass, ok := c.Request.BasicAuth(); ok {
			if user == s.cfg.AccessKey && pass == s.cfg.SecretKey {
				c.Next()
				return
			}
			apiError(c, http.StatusUnauthorized, "Unauthorized", "invalid access key")
			return
		}
		if bearer, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer "); ok {
			if s.validToken(bearer) {
				c.Next()
				return
			}
			apiError(c, http.StatusUnauthorized, "Unauthorized", "invalid token")
			return
		}
		if cookie, err := c.Cookie(SessionCookie); err == nil && s.validToken(cookie) {
			c.Next()
			return
		}
		apiError(c, http.StatusUnauthorized, "Unauthorized", "must authenticate")
	}
}
