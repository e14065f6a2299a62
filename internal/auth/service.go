package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	log "github.com/sirupsen/logrus"

	"github.com/vukovx/fitlog/pkg"
)

const (
	DefaultTTL       = 24 * 7 * time.Hour
	sessionKeyPrefix = "fitlog-session||"
	tokensSetKey     = "fitlog-sessions"
)

var ErrWrongCredentials = errors.New("wrong credentials")

type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type usersGetter interface {
	GetByEmail(ctx context.Context, email string) (*User, error)
}

type Service struct {
	redisClient *redis.Client
	users       usersGetter
	ttl         time.Duration
	// ability to inject random string generator func for tokens (for unit and dev testing)
	RandStringFunc func(s int) (string, error)
}

func NewService(ttl time.Duration, redisClient *redis.Client, users usersGetter) *Service {
	return &Service{
		ttl:            ttl,
		redisClient:    redisClient,
		users:          users,
		RandStringFunc: pkg.GenerateRandomString,
	}
}

// Login checks the credentials against the users table and, when they match,
// creates a new session token in redis. The stored value is "<userID>:<createdAtUnix>".
func (as *Service) Login(ctx context.Context, creds Credentials, createdAt time.Time) (string, *User, error) {
	user, err := as.users.GetByEmail(ctx, creds.Email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return "", nil, ErrWrongCredentials
		}
		return "", nil, fmt.Errorf("get user: %w", err)
	}

	if !pkg.CheckPasswordHash(creds.Password, user.PasswordHash) {
		return "", nil, ErrWrongCredentials
	}

	token, err := as.RandStringFunc(35)
	if err != nil {
		return "", nil, err
	}

	sessionKey := sessionKeyPrefix + token
	sessionValue := fmt.Sprintf("%d:%d", user.ID, createdAt.Unix())
	if err := as.redisClient.Set(ctx, sessionKey, sessionValue, 0).Err(); err != nil {
		return "", nil, err
	}

	// add token to the set of sessions
	if err := as.redisClient.SAdd(ctx, tokensSetKey, token).Err(); err != nil {
		return "", nil, err
	}

	return token, user, nil
}

func (as *Service) Logout(ctx context.Context, token string) error {
	sessionKey := sessionKeyPrefix + token
	if err := as.redisClient.Get(ctx, sessionKey).Err(); err != nil {
		return err
	}

	if err := as.redisClient.Del(ctx, sessionKey).Err(); err != nil {
		return err
	}

	// remove token from the set of sessions
	return as.redisClient.SRem(ctx, tokensSetKey, token).Err()
}

// ScanAndClean will run through all sessions, check the TTL, and clean them if old
func (as *Service) ScanAndClean(ctx context.Context) {
	cmd := as.redisClient.SMembers(ctx, tokensSetKey)
	if err := cmd.Err(); err != nil {
		log.Errorf("!!! auth service, scan and clean, get sessions: %s", err)
		return
	}

	sessionTokens := cmd.Val()
	if len(sessionTokens) == 0 {
		log.Warnln("=> auth service, scan and clean abort, no sessions")
		return
	}

	log.Warnf("=> auth service, scan and clean [%d sessions] start ...", len(sessionTokens))
	var toRemove []string
	for _, token := range sessionTokens {
		sessionKey := sessionKeyPrefix + token
		cmd := as.redisClient.Get(ctx, sessionKey)
		if err := cmd.Err(); err != nil {
			log.Errorf("=> auth service, scan and clean token %s: %s", token, err)
			continue
		}

		_, createdAt, err := parseSessionValue(cmd.Val())
		if err != nil {
			log.Errorf("=> auth service, scan and clean token %s: %s", token, err)
			toRemove = append(toRemove, token)
			continue
		}

		if time.Since(createdAt) > as.ttl {
			log.Warnf("=>\twill clean the session with token: %s", token)
			toRemove = append(toRemove, token)
		}
	}

	for _, token := range toRemove {
		sessionKey := sessionKeyPrefix + token
		if err := as.redisClient.Del(ctx, sessionKey).Err(); err != nil {
			log.Errorf("=> auth service, clean token %s: %s", token, err)
			continue
		}
		if err := as.redisClient.SRem(ctx, tokensSetKey, token).Err(); err != nil {
			log.Errorf("=> auth service, clean token %s: %s", token, err)
			continue
		}
	}
}

func parseSessionValue(val string) (userID int, createdAt time.Time, err error) {
	userIDStr, createdAtStr, found := strings.Cut(val, ":")
	if !found {
		return 0, time.Time{}, fmt.Errorf("malformed session value: %s", val)
	}
	userID, err = strconv.Atoi(userIDStr)
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("malformed session user id: %w", err)
	}
	createdAtUnix, err := strconv.ParseInt(createdAtStr, 10, 64)
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("malformed session created at: %w", err)
	}
	return userID, time.Unix(createdAtUnix, 0), nil
}
