package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/minewatch/minewatch-api/internal/domain/user"
	"github.com/minewatch/minewatch-api/internal/pkg/jwt"
	"github.com/minewatch/minewatch-api/internal/pkg/otp"
)

// MaxCodeAttempts is how many wrong guesses a code tolerates
const MaxCodeAttempts = 5

// Config holds sign-in tunables
type Config struct {
	CodeTTL       time.Duration
	Cooldown      time.Duration
	DefaultRegion string
}

// Service handles passwordless authentication
type Service struct {
	userRepo   user.Repository
	jwtService *jwt.Service
	store      Store
	sender     CodeSender
	cfg        Config
}

// NewService creates auth service
func NewService(userRepo user.Repository, jwtService *jwt.Service, store Store, sender CodeSender, cfg Config) *Service {
	return &Service{
		userRepo:   userRepo,
		jwtService: jwtService,
		store:      store,
		sender:     sender,
		cfg:        cfg,
	}
}

// RequestCode issues a one-time code for an email or phone identifier
func (s *Service) RequestCode(ctx context.Context, raw string) (*CodeSentResponse, error) {
	id, err := ParseIdentifier(raw, s.cfg.DefaultRegion)
	if err != nil {
		return nil, err
	}

	ok, err := s.store.AcquireCooldown(ctx, id, s.cfg.Cooldown)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrCodeRateLimited
	}

	code, err := otp.Generate()
	if err != nil {
		return nil, fmt.Errorf("generate code: %w", err)
	}
	hash, err := otp.Hash(code)
	if err != nil {
		return nil, fmt.Errorf("hash code: %w", err)
	}

	if err := s.store.SaveCode(ctx, id, hash, s.cfg.CodeTTL); err != nil {
		return nil, err
	}

	if err := s.sender.SendCode(ctx, id, code, s.cfg.CodeTTL); err != nil {
		_ = s.store.DeleteCode(ctx, id)
		return nil, err
	}

	log.Info().Str("channel", string(id.Kind)).Str("identifier", id.Masked()).Msg("Sign-in code sent")

	return &CodeSentResponse{
		Channel:   string(id.Kind),
		SentTo:    id.Masked(),
		ExpiresIn: int(s.cfg.CodeTTL.Seconds()),
	}, nil
}

// Verify checks a code and signs the user in, creating the account on first use
func (s *Service) Verify(ctx context.Context, raw, code string) (*AuthResponse, error) {
	id, err := ParseIdentifier(raw, s.cfg.DefaultRegion)
	if err != nil {
		return nil, err
	}

	// Attempts are counted before the code is compared
	attempts, err := s.store.IncrementAttempts(ctx, id)
	if err != nil {
		return nil, err
	}
	if attempts == 0 {
		return nil, ErrInvalidCode
	}
	if attempts > MaxCodeAttempts {
		_ = s.store.DeleteCode(ctx, id)
		return nil, ErrTooManyAttempts
	}

	rec, err := s.store.GetCode(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, ErrInvalidCode
	}

	if !otp.Verify(code, rec.Hash) {
		if attempts >= MaxCodeAttempts {
			_ = s.store.DeleteCode(ctx, id)
			return nil, ErrTooManyAttempts
		}
		return nil, ErrInvalidCode
	}

	// Codes are single use
	if err := s.store.DeleteCode(ctx, id); err != nil {
		return nil, err
	}

	var u *user.User
	switch id.Kind {
	case KindEmail:
		u, err = s.userRepo.FindOrCreateByEmail(ctx, id.Value)
	default:
		u, err = s.userRepo.FindOrCreateByPhone(ctx, id.Value)
	}
	if err != nil {
		return nil, err
	}

	return s.generateTokens(ctx, u)
}

// Refresh rotates a refresh token
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*AuthResponse, error) {
	if refreshToken == "" {
		return nil, ErrRefreshTokenRequired
	}

	if _, err := s.jwtService.ValidateRefreshToken(refreshToken); err != nil {
		return nil, ErrInvalidRefreshToken
	}

	refreshHash := jwt.HashRefreshToken(refreshToken)
	userID, err := s.store.GetRefresh(ctx, refreshHash)
	if err != nil {
		return nil, ErrInvalidRefreshToken
	}

	u, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrUserNotFound
	}

	_ = s.store.DeleteRefresh(ctx, refreshHash)

	return s.generateTokens(ctx, u)
}

// Logout revokes a refresh token
func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	return s.store.DeleteRefresh(ctx, jwt.HashRefreshToken(refreshToken))
}

// GetCurrentUser returns the signed-in user
func (s *Service) GetCurrentUser(ctx context.Context, userID uuid.UUID) (*UserResponse, error) {
	u, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrUserNotFound
	}
	resp := NewUserResponse(u)
	return &resp, nil
}

func (s *Service) generateTokens(ctx context.Context, u *user.User) (*AuthResponse, error) {
	accessToken, err := s.jwtService.GenerateAccessToken(u.ID, string(u.Role))
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}

	refreshToken, _, _, err := s.jwtService.GenerateRefreshToken(u.ID)
	if err != nil {
		return nil, fmt.Errorf("generate refresh token: %w", err)
	}

	if err := s.store.SaveRefresh(ctx, jwt.HashRefreshToken(refreshToken), u.ID, s.jwtService.GetRefreshTTL()); err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}

	return &AuthResponse{
		User: NewUserResponse(u),
		Tokens: TokensResponse{
			AccessToken:  accessToken,
			RefreshToken: refreshToken,
			ExpiresIn:    int(s.jwtService.GetAccessTTL().Seconds()),
			TokenType:    "Bearer",
		},
	}, nil
}
