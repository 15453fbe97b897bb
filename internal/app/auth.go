// internal/app/auth.go
package app

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shrimpsizemoose/trekker/logger"
)

const (
	timeFormat  = "2006-01-02 15:04:05"
	tokenPrefix = "sk-semla-"
)

type Auth struct {
	enabled     bool
	redis       *redis.Client
	keyTemplate string
	tokenHeader string
}

func NewAuth(config *Config) (*Auth, error) {
	if !config.Server.EnableAuth {
		return &Auth{enabled: false}, nil
	}

	opt, err := redis.ParseURL(config.Auth.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	client := redis.NewClient(opt)
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &Auth{
		enabled:     true,
		redis:       client,
		keyTemplate: config.Auth.TokenKeyTemplate,
		tokenHeader: config.Auth.TokenHeader,
	}, nil
}

func (a *Auth) Close() error {
	if a.redis != nil {
		return a.redis.Close()
	}
	return nil
}

func (a *Auth) key(username string) string {
	return strings.NewReplacer("{user}", username).Replace(a.keyTemplate)
}

func generateToken() (string, error) {
	randomBytes := make([]byte, 12)
	if _, err := rand.Read(randomBytes); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}

	return tokenPrefix + hex.EncodeToString(randomBytes), nil
}

// IssueToken returns the user's session token, minting one on first login
// and bumping usage stats on every later login.
func (a *Auth) IssueToken(ctx context.Context, username string) (string, error) {
	if !a.enabled {
		return "", nil
	}

	key := a.key(username)

	token, err := a.redis.HGet(ctx, key, "token").Result()
	if err != nil && err != redis.Nil {
		return "", fmt.Errorf("failed to check token: %w", err)
	}

	now := time.Now().UTC()

	if err == redis.Nil {
		token, err = generateToken()
		if err != nil {
			return "", err
		}

		pipe := a.redis.Pipeline()
		pipe.HSet(ctx, key, map[string]interface{}{
			"token":                 token,
			"request_count":         1,
			"last_request_dttm_utc": now.Format(timeFormat),
			"created_dttm_utc":      now.Format(timeFormat),
		})
		if _, err := pipe.Exec(ctx); err != nil {
			return "", fmt.Errorf("failed to create token: %w", err)
		}

		return token, nil
	}

	pipe := a.redis.Pipeline()
	pipe.HIncrBy(ctx, key, "request_count", 1)
	pipe.HSet(ctx, key, "last_request_dttm_utc", now.Format(timeFormat))
	if _, err := pipe.Exec(ctx); err != nil {
		return "", fmt.Errorf("failed to update token stats: %w", err)
	}

	return token, nil
}

func (a *Auth) ValidateToken(ctx context.Context, username, token string) error {
	if !a.enabled {
		return nil
	}

	key := a.key(username)

	fields, err := a.redis.HGetAll(ctx, key).Result()
	if err == redis.Nil {
		logger.Debug.Printf("Token not found for key: %s", key)
		return fmt.Errorf("token not found")
	}
	if err != nil {
		logger.Debug.Printf("Redis error: %v", err)
		return fmt.Errorf("redis error: %w", err)
	}

	if fields["token"] != token {
		logger.Debug.Printf("Token mismatch for user %s", username)
		return fmt.Errorf("invalid token")
	}

	return nil
}
