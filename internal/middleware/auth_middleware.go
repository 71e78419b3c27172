package middleware

import (
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
)

// accountIDKey — ключ контекста Gin, под которым лежит ID аккаунта
const accountIDKey = "accountID"

// AuthMiddleware проверяет Bearer-токены и извлекает ID аккаунта.
// Выпуск токенов — ответственность внешнего сервиса аутентификации;
// здесь только проверка подписи и чтение subject-клейма.
type AuthMiddleware struct {
	secret []byte
}

// NewAuthMiddleware создает middleware проверки токенов
func NewAuthMiddleware(secret string) *AuthMiddleware {
	return &AuthMiddleware{secret: []byte(secret)}
}

// RequireAuth требует валидный Bearer-токен и кладет аккаунт в контекст запроса.
// Токен также принимается в query-параметре "token" — для WebSocket-подключений,
// где установить заголовок Authorization нельзя.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := extractToken(c)
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization token required"})
			return
		}

		claims := jwt.RegisteredClaims{}
		token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return m.secret, nil
		})
		if err != nil || !token.Valid {
			log.Printf("[AuthMiddleware] Невалидный токен: %v", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}
		if claims.Subject == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Token has no subject"})
			return
		}

		c.Set(accountIDKey, claims.Subject)
		c.Next()
	}
}

// extractToken достает токен из заголовка Authorization или query-параметра
func extractToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return c.Query("token")
}

// GetAccountID возвращает ID аккаунта текущего запроса
// (пустая строка, если запрос не прошел RequireAuth)
func GetAccountID(c *gin.Context) string {
	return c.GetString(accountIDKey)
}
