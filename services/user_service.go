package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/coachmybody/server/models"
	"github.com/coachmybody/server/repositories"
	"github.com/coachmybody/server/utils"
)

// RegisterRequest carries the identity reported by a social login provider.
type RegisterRequest struct {
	SocialID     string `json:"social_id" binding:"required,max=128"`
	SocialType   string `json:"social_type" binding:"max=32"`
	Email        string `json:"email" binding:"omitempty,email,max=255"`
	Nickname     string `json:"nickname" binding:"max=64"`
	ProfileImage string `json:"profile_image" binding:"omitempty,url,max=512"`
}

// TokenPair is handed to the client after login or refresh.
type TokenPair struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiredAt    time.Time `json:"expired_at"`
}

// UserService owns registration and the access/refresh token lifecycle.
type UserService struct {
	store  repositories.Store
	issuer *utils.TokenIssuer
	opts   options
}

func NewUserService(store repositories.Store, issuer *utils.TokenIssuer, opts ...Option) *UserService {
	return &UserService{store: store, issuer: issuer, opts: buildOptions(opts)}
}

// Register creates a user. No token is issued.
func (s *UserService) Register(ctx context.Context, req RegisterRequest) (*models.User, error) {
	existing, err := s.store.Users().FindBySocialID(ctx, req.SocialID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("user with social id %q: %w", req.SocialID, ErrDuplicatedEntity)
	}
	user := &models.User{
		SocialID:     req.SocialID,
		SocialType:   req.SocialType,
		Email:        req.Email,
		Nickname:     utils.SanitizeText(req.Nickname),
		ProfileImage: req.ProfileImage,
	}
	if err := s.store.Users().Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			// lost a concurrent registration of the same social id
			return nil, fmt.Errorf("user with social id %q: %w", req.SocialID, ErrDuplicatedEntity)
		}
		return nil, err
	}
	s.opts.logger.Info("user registered", zap.String("user_id", user.ID.String()), zap.String("social_type", user.SocialType))
	return user, nil
}

// Login issues a fresh token pair for the user behind socialID.
func (s *UserService) Login(ctx context.Context, socialID string) (*TokenPair, error) {
	var pair *TokenPair
	err := s.store.WithTx(ctx, func(tx repositories.Store) error {
		user, err := tx.Users().FindBySocialID(ctx, socialID)
		if err != nil {
			return err
		}
		if user == nil {
			return fmt.Errorf("user with social id %q: %w", socialID, ErrNotFoundEntity)
		}
		auth, err := tx.UserAuths().FindByUserID(ctx, user.ID)
		if err != nil {
			return err
		}
		if auth == nil {
			auth = models.NewUserAuth(user.ID)
		}
		pair, err = s.rotate(ctx, tx, auth)
		return err
	})
	if err != nil {
		return nil, err
	}
	tokensIssuedCounter.WithLabelValues("login").Inc()
	return pair, nil
}

// SocialLogin registers the identity on first sight and then logs it in.
func (s *UserService) SocialLogin(ctx context.Context, req RegisterRequest) (*TokenPair, error) {
	if _, err := s.Register(ctx, req); err != nil && !errors.Is(err, ErrDuplicatedEntity) {
		return nil, err
	}
	return s.Login(ctx, req.SocialID)
}

// Refresh exchanges a refresh token for a new pair. Expired pairs are still
// accepted; only an unknown refresh token is rejected.
func (s *UserService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	var pair *TokenPair
	err := s.store.WithTx(ctx, func(tx repositories.Store) error {
		auth, err := tx.UserAuths().FindByRefreshToken(ctx, refreshToken)
		if err != nil {
			return err
		}
		if auth == nil {
			return ErrInvalidRefreshToken
		}
		pair, err = s.rotate(ctx, tx, auth)
		return err
	})
	if err != nil {
		return nil, err
	}
	tokensIssuedCounter.WithLabelValues("refresh").Inc()
	return pair, nil
}

// lookupAuth returns the stored row of accessToken, or nil when the token is
// unknown. Tokens not signed by this service are rejected without a query.
func (s *UserService) lookupAuth(ctx context.Context, accessToken string) (*models.UserAuth, error) {
	subject, err := s.issuer.Subject(accessToken)
	if err != nil {
		return nil, nil
	}
	auth, err := s.store.UserAuths().FindByAccessToken(ctx, accessToken)
	if err != nil || auth == nil {
		return nil, err
	}
	if auth.UserID.String() != subject {
		return nil, nil
	}
	return auth, nil
}

// IsValidToken reports whether accessToken is known and not yet expired.
func (s *UserService) IsValidToken(ctx context.Context, accessToken string) (bool, error) {
	auth, err := s.lookupAuth(ctx, accessToken)
	if err != nil {
		return false, err
	}
	if auth == nil {
		return false, nil
	}
	return !auth.IsExpired(s.opts.now()), nil
}

// FindByToken resolves accessToken to its user. Expiry is not checked here, a
// token stays usable for requests until it is rotated.
func (s *UserService) FindByToken(ctx context.Context, accessToken string) (*models.User, error) {
	auth, err := s.lookupAuth(ctx, accessToken)
	if err != nil {
		return nil, err
	}
	if auth == nil {
		return nil, ErrInvalidAccessToken
	}
	user, err := s.store.Users().FindByID(ctx, auth.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("user %s of token: %w", auth.UserID, ErrNotFoundEntity)
	}
	return user, nil
}

func (s *UserService) GetUsers(ctx context.Context) ([]models.User, error) {
	return s.store.Users().FindAll(ctx)
}

// FindByID loads the current profile of a user.
func (s *UserService) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.store.Users().FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("user %s: %w", id, ErrNotFoundEntity)
	}
	return user, nil
}

// rotate regenerates both tokens and the expiry of auth and persists it.
func (s *UserService) rotate(ctx context.Context, tx repositories.Store, auth *models.UserAuth) (*TokenPair, error) {
	now := s.opts.now()
	expiredAt := now.Add(s.opts.tokenTTL)
	access, err := s.issuer.AccessToken(auth.UserID.String(), now, expiredAt)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}
	auth.Refresh(access, s.issuer.RefreshToken(), expiredAt)
	if err := tx.UserAuths().Save(ctx, auth); err != nil {
		return nil, err
	}
	return &TokenPair{
		AccessToken:  auth.AccessToken,
		RefreshToken: auth.RefreshToken,
		ExpiredAt:    auth.ExpiredAt,
	}, nil
}
