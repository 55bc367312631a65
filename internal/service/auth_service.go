package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/url"
	"strings"
	"time"
	"unicode"

	"github.com/charmbracelet/log"
	"github.com/dom/watchnest/internal/config"
	"github.com/dom/watchnest/internal/domain"
	"github.com/dom/watchnest/internal/repository"
	"github.com/google/uuid"
)

const (
	msgUnauthorizedRequest = "Unauthorized request"
	msgInvalidAccessToken  = "Invalid access token"
	msgInvalidRefreshToken = "Invalid refresh token"
	msgRefreshExpiredOrUse = "Refresh token is expired or used"
	msgInvalidCredentials  = "Invalid user credentials"

	maxUserAgentLength = 255
)

type AuthService struct {
	userRepo    repository.UserRepository
	sessionRepo repository.SessionRepository
	tokens      *TokenIssuer
	passwords   PasswordHasher
	logger      *log.Logger
	now         func() time.Time
}

func NewAuthService(userRepo repository.UserRepository, sessionRepo repository.SessionRepository, cfg *config.Config, logger *log.Logger) *AuthService {
	return &AuthService{
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		tokens:      NewTokenIssuer(cfg),
		passwords:   NewPasswordHasher(cfg.BcryptCost),
		logger:      logger,
		now:         time.Now,
	}
}

// WithClock makes the service and its token issuer read time from now.
func (s *AuthService) WithClock(now func() time.Time) *AuthService {
	clone := *s
	clone.now = now
	clone.tokens = s.tokens.WithClock(now)
	return &clone
}

func (s *AuthService) Tokens() *TokenIssuer {
	return s.tokens
}

type RegisterInput struct {
	FullName   string
	Email      string
	Username   string
	Password   string
	Avatar     string
	CoverImage string
}

type LoginInput struct {
	Username  string
	Email     string
	Password  string
	UserAgent string
}

type ChangePasswordInput struct {
	OldPassword     string
	NewPassword     string
	ConfirmPassword string
}

type AuthResult struct {
	User *domain.User
	TokenPair
}

// normalizeRegistration trims every field, lower-cases email and username and
// derives a username when none is given.
func normalizeRegistration(in RegisterInput) (RegisterInput, error) {
	out := RegisterInput{
		FullName:   strings.TrimSpace(in.FullName),
		Email:      strings.ToLower(strings.TrimSpace(in.Email)),
		Username:   strings.ToLower(strings.TrimSpace(in.Username)),
		Password:   strings.TrimSpace(in.Password),
		Avatar:     strings.TrimSpace(in.Avatar),
		CoverImage: strings.TrimSpace(in.CoverImage),
	}

	if out.FullName == "" || out.Email == "" || out.Password == "" {
		return out, domain.NewValidationError("Full name, email and password are required")
	}

	if out.Username == "" {
		if local, _, ok := strings.Cut(out.Email, "@"); ok && local != "" {
			out.Username = local
		} else {
			out.Username = strings.ToLower(strings.Map(func(r rune) rune {
				if unicode.IsSpace(r) {
					return -1
				}
				return r
			}, out.FullName))
		}
	}
	if out.Username == "" {
		return out, domain.NewValidationError("Unable to generate username")
	}

	if out.Avatar == "" {
		out.Avatar = "https://ui-avatars.com/api/?name=" + url.QueryEscape(out.FullName) + "&background=random"
	}
	return out, nil
}

// PrecheckRegistration runs the validation and uniqueness checks of Register
// without writing anything, so callers can reject a request before uploading
// its images.
func (s *AuthService) PrecheckRegistration(ctx context.Context, input RegisterInput) error {
	in, err := normalizeRegistration(input)
	if err != nil {
		return err
	}
	return s.ensureAvailable(ctx, in)
}

func (s *AuthService) ensureAvailable(ctx context.Context, in RegisterInput) error {
	exists, err := s.userRepo.ExistsByUsernameOrEmail(ctx, in.Username, in.Email)
	if err != nil {
		return domain.NewInternalError("failed to check existing users", err)
	}
	if exists {
		return domain.NewConflictError("User email or username already exists")
	}
	return nil
}

func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*domain.User, error) {
	in, err := normalizeRegistration(input)
	if err != nil {
		return nil, err
	}
	if err := s.ensureAvailable(ctx, in); err != nil {
		return nil, err
	}

	hash, err := s.passwords.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		ID:           uuid.New(),
		Username:     in.Username,
		Email:        in.Email,
		FullName:     in.FullName,
		PasswordHash: hash,
		Avatar:       in.Avatar,
		CoverImage:   in.CoverImage,
		WatchHistory: []uuid.UUID{},
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil, domain.NewConflictError("User email or username already exists")
		}
		return nil, domain.NewInternalError("failed to register user", err)
	}

	return s.userRepo.GetByID(ctx, user.ID)
}

func (s *AuthService) VerifyPassword(user *domain.User, plaintext string) bool {
	return s.passwords.Verify(user.PasswordHash, plaintext)
}

func (s *AuthService) Login(ctx context.Context, input LoginInput) (*AuthResult, error) {
	username := strings.ToLower(strings.TrimSpace(input.Username))
	email := strings.ToLower(strings.TrimSpace(input.Email))
	password := strings.TrimSpace(input.Password)

	if (username == "" && email == "") || password == "" {
		return nil, domain.NewValidationError("Email or username and password are required")
	}

	user, err := s.userRepo.GetCredentialsByLogin(ctx, username, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.NewUnauthorizedError(msgInvalidCredentials)
		}
		return nil, domain.NewInternalError("failed to load user", err)
	}

	if !s.VerifyPassword(user, password) {
		return nil, domain.NewUnauthorizedError(msgInvalidCredentials)
	}

	pair, err := s.IssuePair(ctx, user.ID, input.UserAgent)
	if err != nil {
		return nil, err
	}

	user.PasswordHash = ""
	return &AuthResult{User: user, TokenPair: *pair}, nil
}

// IssuePair opens a new session for the user and returns its first token pair.
func (s *AuthService) IssuePair(ctx context.Context, userID uuid.UUID, userAgent string) (*TokenPair, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, domain.NewInternalError("Something went wrong while generating refresh and access token", err)
	}

	sessionID := uuid.New()
	refreshToken, expiresAt, err := s.tokens.IssueRefreshToken(user, sessionID)
	if err != nil {
		return nil, domain.NewInternalError("failed to sign refresh token", err)
	}
	accessToken, err := s.tokens.IssueAccessToken(user, sessionID)
	if err != nil {
		return nil, domain.NewInternalError("failed to sign access token", err)
	}

	now := s.now()
	session := &domain.UserSession{
		ID:            sessionID,
		UserID:        user.ID,
		TokenHash:     TokenDigest(refreshToken),
		UserAgent:     truncate(userAgent, maxUserAgentLength),
		ExpiresAt:     expiresAt,
		LastRotatedAt: now,
		CreatedAt:     now,
	}
	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, domain.NewInternalError("Something went wrong while generating refresh and access token", err)
	}

	return &TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

// ResolveCaller verifies an access token and loads the user it names. The
// session claim is not checked against storage.
func (s *AuthService) ResolveCaller(ctx context.Context, rawToken string) (*domain.Caller, error) {
	if rawToken == "" {
		return nil, domain.NewUnauthorizedError(msgUnauthorizedRequest)
	}

	claims, err := s.tokens.ParseAccessToken(rawToken)
	if err != nil {
		return nil, domain.NewUnauthorizedError(msgInvalidAccessToken)
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, domain.NewUnauthorizedError(msgInvalidAccessToken)
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.NewUnauthorizedError(msgInvalidAccessToken)
		}
		return nil, domain.NewInternalError("failed to load caller", err)
	}

	sessionID, _ := uuid.Parse(claims.SessionID)
	return &domain.Caller{User: user, SessionID: sessionID}, nil
}

// Refresh exchanges a refresh token for a new pair in the same session. A
// token that verifies but is not the session's current one revokes the
// session.
func (s *AuthService) Refresh(ctx context.Context, incoming string) (*AuthResult, error) {
	if incoming == "" {
		return nil, domain.NewUnauthorizedError(msgUnauthorizedRequest)
	}

	claims, err := s.tokens.ParseRefreshToken(incoming)
	if err != nil {
		return nil, domain.NewUnauthorizedError(msgInvalidRefreshToken)
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, domain.NewUnauthorizedError(msgInvalidRefreshToken)
	}
	sessionID, err := uuid.Parse(claims.SessionID)
	if err != nil {
		return nil, domain.NewUnauthorizedError(msgInvalidRefreshToken)
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.NewUnauthorizedError(msgInvalidRefreshToken)
		}
		return nil, domain.NewInternalError("failed to load user", err)
	}

	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.NewUnauthorizedError(msgRefreshExpiredOrUse)
		}
		return nil, domain.NewInternalError("failed to load session", err)
	}
	if session.UserID != user.ID {
		return nil, domain.NewUnauthorizedError(msgInvalidRefreshToken)
	}

	now := s.now()
	if session.Expired(now) {
		if err := s.sessionRepo.Delete(ctx, session.ID); err != nil {
			s.logger.Error("ERROR [service.Refresh] failed to delete expired session", "session", session.ID, "err", err)
		}
		return nil, domain.NewUnauthorizedError(msgRefreshExpiredOrUse)
	}

	digest := TokenDigest(incoming)
	if subtle.ConstantTimeCompare([]byte(digest), []byte(session.TokenHash)) != 1 {
		s.logger.Warn("refresh token reuse detected, revoking session", "user", user.ID, "session", session.ID)
		if err := s.sessionRepo.Delete(ctx, session.ID); err != nil {
			s.logger.Error("ERROR [service.Refresh] failed to revoke session", "session", session.ID, "err", err)
		}
		return nil, domain.NewUnauthorizedError(msgRefreshExpiredOrUse)
	}

	refreshToken, expiresAt, err := s.tokens.IssueRefreshToken(user, session.ID)
	if err != nil {
		return nil, domain.NewInternalError("failed to sign refresh token", err)
	}
	accessToken, err := s.tokens.IssueAccessToken(user, session.ID)
	if err != nil {
		return nil, domain.NewInternalError("failed to sign access token", err)
	}

	rotated, err := s.sessionRepo.Rotate(ctx, session.ID, session.TokenHash, TokenDigest(refreshToken), expiresAt, now)
	if err != nil {
		return nil, domain.NewInternalError("failed to rotate session", err)
	}
	if !rotated {
		return nil, domain.NewUnauthorizedError(msgRefreshExpiredOrUse)
	}

	return &AuthResult{
		User:      user,
		TokenPair: TokenPair{AccessToken: accessToken, RefreshToken: refreshToken},
	}, nil
}

// Logout revokes the caller's current session only.
func (s *AuthService) Logout(ctx context.Context, caller *domain.Caller) error {
	if caller == nil || caller.User == nil {
		return domain.NewUnauthorizedError(msgUnauthorizedRequest)
	}
	if caller.SessionID == uuid.Nil {
		return nil
	}
	if err := s.sessionRepo.DeleteForUser(ctx, caller.SessionID, caller.User.ID); err != nil {
		return domain.NewInternalError("failed to revoke session", err)
	}
	return nil
}

func (s *AuthService) LogoutAll(ctx context.Context, userID uuid.UUID) error {
	if err := s.sessionRepo.DeleteByUserID(ctx, userID); err != nil {
		return domain.NewInternalError("failed to revoke sessions", err)
	}
	return nil
}

func (s *AuthService) ListSessions(ctx context.Context, userID uuid.UUID) ([]*domain.UserSession, error) {
	sessions, err := s.sessionRepo.ListActiveByUserID(ctx, userID, s.now())
	if err != nil {
		return nil, domain.NewInternalError("failed to list sessions", err)
	}
	return sessions, nil
}

// ChangePassword re-hashes the password after checking the old one. Other
// sessions stay valid.
func (s *AuthService) ChangePassword(ctx context.Context, userID uuid.UUID, input ChangePasswordInput) error {
	user, err := s.userRepo.GetCredentialsByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.NewUnauthorizedError(msgUnauthorizedRequest)
		}
		return domain.NewInternalError("failed to load user", err)
	}

	if !s.VerifyPassword(user, strings.TrimSpace(input.OldPassword)) {
		return domain.NewUnauthorizedError("Invalid old password")
	}

	newPassword := strings.TrimSpace(input.NewPassword)
	if newPassword == "" {
		return domain.NewValidationError("New password is required")
	}
	if newPassword != strings.TrimSpace(input.ConfirmPassword) {
		return domain.NewValidationError("New password is not equal to confirm password")
	}

	hash, err := s.passwords.Hash(newPassword)
	if err != nil {
		return err
	}
	if err := s.userRepo.UpdatePasswordHash(ctx, user.ID, hash); err != nil {
		return domain.NewInternalError("failed to update password", err)
	}
	return nil
}

func (s *AuthService) GetUserByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.NewNotFoundError("User not found")
		}
		return nil, domain.NewInternalError("failed to load user", err)
	}
	return user, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return strings.ToValidUTF8(s[:n], "")
}
