package middleware

import (
	"fmt"
	"strings"
	"time"

	"garuda/config"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
)

// Session is the authenticated caller, stored in c.Locals("session") by JWTMiddleware
type Session struct {
	UserID uint
	Role   string
	Email  string
}

const sessionKey = "session"

// GenerateJWT generates a JWT token for the user
func GenerateJWT(userID uint, role, email string) (string, error) {
	ttl := 24
	if config.AppConfig != nil && config.AppConfig.JWTTTLHours > 0 {
		ttl = config.AppConfig.JWTTTLHours
	}

	claims := jwt.MapClaims{
		"userId": userID,
		"role":   role,
		"email":  email,
		"iat":    time.Now().Unix(),                                     // issued at
		"exp":    time.Now().Add(time.Duration(ttl) * time.Hour).Unix(), // expiry
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(config.AppConfig.JWTKey))
}

// ParseJWT validates tokenString and returns the session it carries
func ParseJWT(tokenString string) (*Session, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(config.AppConfig.JWTKey), nil
	})
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("invalid or expired token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("invalid token payload")
	}

	// JWT numbers decode as float64
	userID, ok := claims["userId"].(float64)
	if !ok || userID <= 0 {
		return nil, fmt.Errorf("invalid token payload")
	}
	role, _ := claims["role"].(string)
	email, _ := claims["email"].(string)

	return &Session{UserID: uint(userID), Role: role, Email: email}, nil
}

// JWTMiddleware is a middleware to check for valid JWT token in the request
func JWTMiddleware(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return JsonResponse(c, fiber.StatusUnauthorized, false, "Missing or invalid Authorization header", nil)
	}

	if !strings.HasPrefix(authHeader, "Bearer ") {
		return JsonResponse(c, fiber.StatusUnauthorized, false, "Invalid Authorization header format", nil)
	}

	session, err := ParseJWT(authHeader[len("Bearer "):])
	if err != nil {
		return JsonResponse(c, fiber.StatusUnauthorized, false, "Invalid or expired token", nil)
	}

	c.Locals(sessionKey, session)
	return c.Next()
}

// CurrentSession returns the session set by JWTMiddleware, or nil
func CurrentSession(c *fiber.Ctx) *Session {
	session, _ := c.Locals(sessionKey).(*Session)
	return session
}

// RequireRoles rejects callers whose role is not one of roles
func RequireRoles(roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		session := CurrentSession(c)
		if session == nil {
			return JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
		}
		for _, role := range roles {
			if session.Role == role {
				return c.Next()
			}
		}
		return JsonResponse(c, fiber.StatusForbidden, false, "You do not have permission to access this resource!", nil)
	}
}

func JsonResponse(c *fiber.Ctx, statusCode int, status bool, message string, data interface{}) error {
	return c.Status(statusCode).JSON(fiber.Map{
		"status":  status,
		"message": message,
		"data":    data,
	})
}

func ValidationErrorResponse(c *fiber.Ctx, errors map[string]string) error {
	return JsonResponse(c, fiber.StatusUnprocessableEntity, false, "Validation failed!", errors)
}
