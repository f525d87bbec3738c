package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/alexedwards/argon2id"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/adanyl0v/go-task-tracker/internal/models"
)

type authServiceImpl struct {
	logger            zerolog.Logger
	users             UserRepository
	hashParams        *argon2id.Params
	jwtIssuer         string
	jwtAudience       string
	jwtSigningKey     []byte
	jwtAccessTokenTTL time.Duration
	now               func() time.Time
}

type AuthOption func(*authServiceImpl)

// WithHashParams overrides argon2id.DefaultParams.
func WithHashParams(params *argon2id.Params) AuthOption {
	return func(s *authServiceImpl) {
		s.hashParams = params
	}
}

// WithClock replaces time.Now when issuing and verifying tokens.
func WithClock(now func() time.Time) AuthOption {
	return func(s *authServiceImpl) {
		s.now = now
	}
}

func NewAuthService(
	logger zerolog.Logger,
	users UserRepository,
	jwtIssuer string,
	jwtAudience string,
	jwtSigningKey []byte,
	jwtAccessTokenTTL time.Duration,
	opts ...AuthOption,
) AuthService {
	s := &authServiceImpl{
		logger:            logger,
		users:             users,
		hashParams:        argon2id.DefaultParams,
		jwtIssuer:         jwtIssuer,
		jwtAudience:       jwtAudience,
		jwtSigningKey:     jwtSigningKey,
		jwtAccessTokenTTL: jwtAccessTokenTTL,
		now:               time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *authServiceImpl) Register(ctx context.Context, params RegisterParams) (*models.User, error) {
	username := strings.TrimSpace(params.Username)
	switch {
	case username == "":
		return nil, fmt.Errorf("%w: username must be provided", ErrInvalidUser)
	case utf8.RuneCountInString(username) > models.UsernameMaxLength:
		return nil, fmt.Errorf("%w: username must be at most %d characters", ErrInvalidUser, models.UsernameMaxLength)
	case params.Password == "":
		return nil, fmt.Errorf("%w: password must be provided", ErrInvalidUser)
	}

	// The unique index decides; this lookup only saves hashing a password
	// for a name that is already taken.
	_, err := s.users.GetUserByUsername(ctx, username)
	if err == nil {
		s.logger.Error().
			Str("username", username).
			Msg("user with this username already exists")
		return nil, ErrUserAlreadyExists
	} else if !errors.Is(err, ErrUserNotFound) {
		s.logger.Error().
			Err(err).
			Str("username", username).
			Msg("failed to select user by username")
		return nil, err
	}

	passwordHash, err := argon2id.CreateHash(params.Password, s.hashParams)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to hash password")
		return nil, err
	}

	user := &models.User{
		Username: username,
		Password: passwordHash,
	}
	err = s.users.InsertUser(ctx, user)
	if err != nil {
		if errors.Is(err, ErrUserAlreadyExists) {
			s.logger.Error().
				Str("username", username).
				Msg("user with this username already exists")
			return nil, err
		}

		s.logger.Error().
			Err(err).
			Msg("failed to insert user")
		return nil, err
	}

	s.logger.Info().
		Int64("user_id", user.ID).
		Str("username", user.Username).
		Msg("registered user")
	return user, nil
}

func (s *authServiceImpl) Login(ctx context.Context, params LoginParams) (*LoginResult, error) {
	username := strings.TrimSpace(params.Username)
	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			s.logger.Error().
				Str("username", username).
				Msg("user not found")
			return nil, ErrInvalidCredentials
		}

		s.logger.Error().
			Err(err).
			Str("username", username).
			Msg("failed to select user by username")
		return nil, err
	}
	s.logger.Debug().
		Int64("user_id", user.ID).
		Msg("selected user")

	match, err := argon2id.ComparePasswordAndHash(params.Password, user.Password)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to compare password")
		return nil, err
	} else if !match {
		s.logger.Error().
			Int64("user_id", user.ID).
			Msg("passwords do not match")
		return nil, ErrInvalidCredentials
	}

	accessToken, expiresAt, err := s.generateAccessToken(user)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to generate access token")
		return nil, err
	}

	s.logger.Info().
		Int64("user_id", user.ID).
		Time("expires_at", expiresAt).
		Msg("logged in")
	return &LoginResult{
		User:                 user,
		AccessToken:          accessToken,
		AccessTokenExpiresAt: expiresAt,
	}, nil
}

func (s *authServiceImpl) ParseAccessToken(token string) (*AccessClaims, error) {
	t, err := jwt.ParseWithClaims(
		token,
		&AccessClaims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return s.jwtSigningKey, nil
		},
		jwt.WithIssuer(s.jwtIssuer),
		jwt.WithAudience(s.jwtAudience),
		jwt.WithIssuedAt(),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	claims, ok := t.Claims.(*AccessClaims)
	if !ok || claims.UserID <= 0 {
		return nil, fmt.Errorf("%w: malformed claims", ErrInvalidToken)
	}
	return claims, nil
}

func (s *authServiceImpl) generateAccessToken(user *models.User) (string, time.Time, error) {
	tokenUUID, err := uuid.NewRandom()
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to generate id: %w", err)
	}

	now := s.now()
	// Match the precision of the exp claim.
	expiresAt := now.Add(s.jwtAccessTokenTTL).Truncate(jwt.TimePrecision)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, AccessClaims{
		UserID:   user.ID,
		Username: user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        tokenUUID.String(),
			Issuer:    s.jwtIssuer,
			Subject:   strconv.FormatInt(user.ID, 10),
			Audience:  jwt.ClaimStrings{s.jwtAudience},
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			NotBefore: jwt.NewNumericDate(now),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	})

	signed, err := token.SignedString(s.jwtSigningKey)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, expiresAt, nil
}
