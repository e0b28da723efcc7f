// Package users implements registration, login, token refresh and profile
// lookup for dashboard accounts.
package users

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/argon2"

	"github.com/veristamp/veristamp/internal/common"
	"github.com/veristamp/veristamp/internal/server/auth"
	"github.com/veristamp/veristamp/internal/server/config"
	"github.com/veristamp/veristamp/internal/server/models"
	"github.com/veristamp/veristamp/internal/server/repositories/attestations"
	"github.com/veristamp/veristamp/internal/server/repositories/refreshtokens"
	"github.com/veristamp/veristamp/internal/server/repositories/users"
)

// argon2id parameters, per the library's current recommendations.
const (
	argonTime    = 1
	argonMemory  = 64 * 1024
	argonThreads = 4
	argonKeyLen  = 32
	saltLen      = 32
)

type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// Profile is the user view returned by the /users/me surface.
type Profile struct {
	ID               string    `json:"id"`
	Email            string    `json:"email"`
	FullName         string    `json:"full_name"`
	CreatedAt        time.Time `json:"created_at"`
	AttestationCount int64     `json:"attestation_count"`
}

type Service struct {
	repo                         users.Repository
	refreshTokenRepo             refreshtokens.Repository
	attestationRepo              attestations.Repository
	jwtSecret                    []byte
	accessTokenValidityDuration  time.Duration
	refreshTokenValidityDuration time.Duration
}

func NewService(repo users.Repository, refreshTokenRepo refreshtokens.Repository,
	attestationRepo attestations.Repository, cfg *config.Config) *Service {
	return &Service{
		repo:                         repo,
		refreshTokenRepo:             refreshTokenRepo,
		attestationRepo:              attestationRepo,
		jwtSecret:                    []byte(cfg.SecretKey),
		accessTokenValidityDuration:  cfg.AccessTokenValidityDuration,
		refreshTokenValidityDuration: cfg.RefreshTokenValidityDuration,
	}
}

func hashPassword(password string, salt []byte) []byte {
	return argon2.IDKey([]byte(password), salt, argonTime, argonMemory, argonThreads, argonKeyLen)
}

// Register creates a new account. The email is stored lowercased; the
// password is hashed with argon2id under a fresh random salt.
func (s *Service) Register(ctx context.Context, email, password, fullName string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("%w: invalid email", common.ErrorIncorrectInput)
	}
	if len(password) < 8 {
		return nil, fmt.Errorf("%w: password too short", common.ErrorIncorrectInput)
	}

	salt := common.GenerateRandByteArray(saltLen)

	user := &models.User{
		Email:        email,
		FullName:     fullName,
		PasswordSalt: salt,
		PasswordHash: hashPassword(password, salt),
	}

	user, err := s.repo.Create(ctx, user)
	if err != nil {
		if errors.Is(err, common.ErrEmailTaken) {
			return nil, err
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	return user, nil
}

func (s *Service) checkPassword(user *models.User, password string) bool {
	candidate := hashPassword(password, user.PasswordSalt)
	return subtle.ConstantTimeCompare(user.PasswordHash, candidate) == 1
}

func (s *Service) generateAccessToken(user *models.User) (string, error) {
	return auth.GenerateToken(user.ID, s.jwtSecret, s.accessTokenValidityDuration)
}

func (s *Service) generateRefreshToken() (string, error) {
	return common.MakeRandHexString(32)
}

func (s *Service) issueTokenPair(ctx context.Context, user *models.User) (*TokenPair, error) {
	accessToken, err := s.generateAccessToken(user)
	if err != nil {
		return nil, common.ErrorInternal
	}

	refreshToken, err := s.generateRefreshToken()
	if err != nil {
		return nil, common.ErrorInternal
	}

	if err := s.refreshTokenRepo.Create(ctx, user.ID, refreshToken, s.refreshTokenValidityDuration); err != nil {
		return nil, common.ErrorInternal
	}

	return &TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

// Login checks credentials and issues a token pair. Unknown email and wrong
// password are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	user, err := s.repo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, common.ErrorInternal
	}

	if !s.checkPassword(user, password) {
		return nil, common.ErrorUnauthorized
	}

	return s.issueTokenPair(ctx, user)
}

// Refresh rotates a refresh token: the old token is consumed and a new pair
// is issued for its user. Consumption and minting happen in one repository
// transaction, so a token redeemed by a concurrent Refresh loses here with
// ErrorUnauthorized instead of producing a second valid pair.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	t, err := s.refreshTokenRepo.Get(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) || errors.Is(err, common.ErrRefreshTokenExpired) {
			return nil, common.ErrorUnauthorized
		}
		return nil, common.ErrorInternal
	}

	user, err := s.repo.GetByID(ctx, t.UserID)
	if err != nil {
		return nil, common.ErrorInternal
	}

	accessToken, err := s.generateAccessToken(user)
	if err != nil {
		return nil, common.ErrorInternal
	}
	newRefreshToken, err := s.generateRefreshToken()
	if err != nil {
		return nil, common.ErrorInternal
	}

	err = s.refreshTokenRepo.Replace(ctx, refreshToken, user.ID, newRefreshToken,
		s.refreshTokenValidityDuration)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, common.ErrorInternal
	}

	return &TokenPair{AccessToken: accessToken, RefreshToken: newRefreshToken}, nil
}

// Profile returns the user's public profile plus their attestation count.
func (s *Service) Profile(ctx context.Context, userID string) (*Profile, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, common.ErrorInternal
	}

	count, err := s.attestationRepo.CountByOwner(ctx, userID)
	if err != nil {
		return nil, common.ErrorInternal
	}

	return &Profile{
		ID:               user.ID,
		Email:            user.Email,
		FullName:         user.FullName,
		CreatedAt:        user.CreatedAt,
		AttestationCount: count,
	}, nil
}

// Secret exposes the JWT secret for the HTTP auth middleware.
func (s *Service) Secret() []byte {
	return s.jwtSecret
}
