// Package sessionservice issues token pairs at login and renews access tokens
// from refresh tokens.
package sessionservice

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-petr/pet-ledger/internal/domain"
	"github.com/go-petr/pet-ledger/pkg/configpkg"
	"github.com/go-petr/pet-ledger/pkg/tokenpkg"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Repo provides data access layer interface needed by session service layer.
//
//go:generate mockgen -source service.go -destination service_mock.go -package sessionservice
type Repo interface {
	Create(ctx context.Context, arg domain.CreateSessionParams) (domain.Session, error)
	Get(ctx context.Context, id uuid.UUID) (domain.Session, error)
	Block(ctx context.Context, id uuid.UUID) (domain.Session, error)
}

// Service facilitates session service layer logic.
type Service struct {
	repo                 Repo
	tokenMaker           tokenpkg.Maker
	accessTokenDuration  time.Duration
	refreshTokenDuration time.Duration
	now                  func() time.Time
}

// New returns session service struct.
func New(sr Repo, config configpkg.Config, tm tokenpkg.Maker) (*Service, error) {
	if config.AccessTokenDuration <= 0 || config.RefreshTokenDuration <= 0 {
		return nil, errors.New("token durations must be positive")
	}

	return &Service{
		repo:                 sr,
		tokenMaker:           tm,
		accessTokenDuration:  config.AccessTokenDuration,
		refreshTokenDuration: config.RefreshTokenDuration,
		now:                  time.Now,
	}, nil
}

// Create issues an access token and a refresh token for the principal and
// records the refresh token as a new session.
func (s *Service) Create(ctx context.Context, arg domain.LoginParams) (domain.Tokens, error) {
	role := tokenpkg.Role(arg.Role)

	accessToken, accessPayload, err := s.tokenMaker.CreateToken(arg.Subject, role, s.accessTokenDuration)
	if err != nil {
		return domain.Tokens{}, err
	}

	refreshToken, refreshPayload, err := s.tokenMaker.CreateToken(arg.Subject, role, s.refreshTokenDuration)
	if err != nil {
		return domain.Tokens{}, err
	}

	sess, err := s.repo.Create(ctx, domain.CreateSessionParams{
		ID:           refreshPayload.ID,
		Subject:      arg.Subject,
		Role:         arg.Role,
		RefreshToken: refreshToken,
		UserAgent:    arg.UserAgent,
		ClientIP:     arg.ClientIP,
		ExpiresAt:    refreshPayload.ExpiredAt,
	})
	if err != nil {
		return domain.Tokens{}, err
	}

	zerolog.Ctx(ctx).Info().
		Str("subject", arg.Subject).
		Str("role", arg.Role).
		Stringer("session", sess.ID).
		Msg("session created")

	return domain.Tokens{
		AccessToken:           accessToken,
		AccessTokenExpiresAt:  accessPayload.ExpiredAt,
		RefreshToken:          refreshToken,
		RefreshTokenExpiresAt: refreshPayload.ExpiredAt,
		Session:               sess,
	}, nil
}

// RenewAccessToken issues a new access token for the session of the given
// refresh token.
func (s *Service) RenewAccessToken(ctx context.Context, refreshToken string) (string, time.Time, error) {
	sess, err := s.session(ctx, refreshToken)
	if err != nil {
		return "", time.Time{}, err
	}

	if sess.IsBlocked {
		return "", time.Time{}, domain.ErrBlockedSession
	}

	if s.now().After(sess.ExpiresAt) {
		return "", time.Time{}, domain.ErrExpiredSession
	}

	accessToken, accessPayload, err := s.tokenMaker.CreateToken(sess.Subject, tokenpkg.Role(sess.Role), s.accessTokenDuration)
	if err != nil {
		return "", time.Time{}, err
	}

	return accessToken, accessPayload.ExpiredAt, nil
}

// Revoke blocks the session of the given refresh token.
func (s *Service) Revoke(ctx context.Context, refreshToken string) error {
	sess, err := s.session(ctx, refreshToken)
	if err != nil {
		return err
	}

	if _, err := s.repo.Block(ctx, sess.ID); err != nil {
		return err
	}

	zerolog.Ctx(ctx).Info().Stringer("session", sess.ID).Msg("session revoked")

	return nil
}

// session returns the session the refresh token was issued for.
func (s *Service) session(ctx context.Context, refreshToken string) (domain.Session, error) {
	payload, err := s.tokenMaker.VerifyToken(refreshToken)
	if err != nil {
		return domain.Session{}, fmt.Errorf("%w: %w", domain.ErrUnauthenticated, err)
	}

	sess, err := s.repo.Get(ctx, payload.ID)
	if err != nil {
		return domain.Session{}, err
	}

	if sess.Subject != payload.Username {
		return domain.Session{}, domain.ErrInvalidSessionSubject
	}

	if sess.RefreshToken != refreshToken {
		return domain.Session{}, domain.ErrMismatchedRefreshToken
	}

	return sess, nil
}
