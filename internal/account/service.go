// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package account is the identity provider: email and password accounts with
// verification, password reset, reauthentication for sensitive changes and
// signed session tokens.
//
// A new account cannot sign in until its email is verified. Changing the
// password or email requires the current password; deleting the account
// requires either the password or a recent sign-in.
package account

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/pdiddy/parchment/internal/logging"
	"github.com/pdiddy/parchment/pkg/types"
)

// Options configure a Service.
type Options struct {
	// Clock defaults to time.Now.
	Clock func() time.Time
	// HashCost is the bcrypt cost. Defaults to bcrypt.DefaultCost.
	HashCost int
	// OnDelete runs in the background after an account is deleted. Its
	// failure is logged and never reported to the caller.
	OnDelete func(ctx context.Context, uid string) error
}

// Service is safe for concurrent use.
type Service struct {
	repo   Repository
	mailer Mailer
	log    logging.Logger
	cfg    types.AuthConfig
	key    []byte
	now    func() time.Time
	cost   int

	onDelete func(ctx context.Context, uid string) error
	pending  sync.WaitGroup
}

// NewService returns a Service signing sessions with cfg.SigningKey.
func NewService(cfg types.AuthConfig, repo Repository, mailer Mailer, log logging.Logger, opts Options) (*Service, error) {
	if cfg.SigningKey == "" {
		return nil, errors.New("auth signing key is not configured")
	}
	if log == nil {
		log = logging.Discard()
	}
	if mailer == nil {
		mailer = LogMailer{Log: log}
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.HashCost == 0 {
		opts.HashCost = bcrypt.DefaultCost
	}
	def := types.DefaultConfig().Auth
	if cfg.MinPasswordLength <= 0 {
		cfg.MinPasswordLength = def.MinPasswordLength
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = def.SessionTTL
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = def.TokenTTL
	}
	if cfg.RecentLoginWindow <= 0 {
		cfg.RecentLoginWindow = def.RecentLoginWindow
	}
	return &Service{
		repo:     repo,
		mailer:   mailer,
		log:      log.With("component", "account"),
		cfg:      cfg,
		key:      []byte(cfg.SigningKey),
		now:      opts.Clock,
		cost:     opts.HashCost,
		onDelete: opts.OnDelete,
	}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *Service) checkPassword(password string) error {
	if len(password) < s.cfg.MinPasswordLength {
		return invalidInput(fmt.Sprintf("Password should be at least %d characters.", s.cfg.MinPasswordLength))
	}
	return nil
}

func (s *Service) hash(password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", generic("Unable to process password.", err)
	}
	return string(h), nil
}

// reauthenticate loads the session's user and checks password.
func (s *Service) reauthenticate(ctx context.Context, sess Session, password string) (User, error) {
	u, err := s.repo.UserByID(ctx, sess.UserID)
	if errors.Is(err, ErrUserNotFound) {
		return User{}, &AuthError{Kind: KindInvalidToken, Message: "No authenticated user.", Err: err}
	}
	if err != nil {
		return User{}, generic("Unable to authenticate.", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return User{}, wrongCredential("Incorrect password. Please try again.")
	}
	return u, nil
}

func (s *Service) sendCode(ctx context.Context, u User, purpose Purpose, to string) error {
	code, err := newCode()
	if err != nil {
		return fmt.Errorf("generating code: %w", err)
	}
	t := Token{Token: code, UserID: u.ID, Purpose: purpose, ExpiresAt: s.now().Add(s.cfg.TokenTTL)}
	if purpose == PurposeChangeEmail {
		t.Email = to
	}
	if err := s.repo.CreateToken(ctx, t); err != nil {
		return err
	}

	subject := map[Purpose]string{
		PurposeVerifyEmail:   "Verify your email",
		PurposeChangeEmail:   "Confirm your new email",
		PurposeResetPassword: "Reset your password",
	}[purpose]
	return s.mailer.Send(ctx, Mail{To: to, Subject: subject, Purpose: purpose, Code: code})
}

// SignUp creates an unverified account and mails a verification code. The
// user is not signed in.
func (s *Service) SignUp(ctx context.Context, email, password string) (string, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return "", invalidInput("Email and password are required.")
	}
	if !strings.Contains(email, "@") {
		return "", invalidInput("Please enter a valid email address.")
	}
	if err := s.checkPassword(password); err != nil {
		return "", err
	}
	hash, err := s.hash(password)
	if err != nil {
		return "", err
	}

	now := s.now()
	u := User{ID: uuid.NewString(), Email: email, PasswordHash: hash, CreatedAt: now, LastLoginAt: now}
	if err := s.repo.CreateUser(ctx, u); err != nil {
		if errors.Is(err, ErrEmailTaken) {
			return "", &AuthError{Kind: KindEmailInUse, Message: "An account with that email already exists.", Err: err}
		}
		return "", generic("Unable to create account.", err)
	}
	if err := s.sendCode(ctx, u, PurposeVerifyEmail, email); err != nil {
		return "", generic("Account created, but the verification email could not be sent.", err)
	}

	s.log.Info(ctx, "account created", "uid", u.ID)
	return u.ID, nil
}

// SignIn checks the credentials and returns a session. An unverified user
// is sent a fresh verification code and refused.
func (s *Service) SignIn(ctx context.Context, email, password string) (Session, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return Session{}, invalidInput("Email and password are required.")
	}

	u, err := s.repo.UserByEmail(ctx, email)
	if err != nil && !errors.Is(err, ErrUserNotFound) {
		return Session{}, generic("Unable to authenticate.", err)
	}
	if err != nil || bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return Session{}, wrongCredential("Incorrect email or password.")
	}

	if !u.EmailVerified {
		if err := s.sendCode(ctx, u, PurposeVerifyEmail, u.Email); err != nil {
			s.log.Warn(ctx, "verification email failed", "uid", u.ID, "error", err)
		}
		return Session{}, &AuthError{
			Kind:    KindEmailNotVerified,
			Message: "Please verify your email before signing in. A new verification email has been sent.",
		}
	}

	now := s.now()
	u.LastLoginAt = now
	if err := s.repo.UpdateUser(ctx, u); err != nil {
		return Session{}, generic("Unable to authenticate.", err)
	}
	sess, err := signSession(s.key, u, now, s.cfg.SessionTTL)
	if err != nil {
		return Session{}, generic("Unable to authenticate.", err)
	}
	s.log.Info(ctx, "signed in", "uid", u.ID)
	return sess, nil
}

// Authenticate validates a session token and returns its session.
func (s *Service) Authenticate(ctx context.Context, token string) (Session, error) {
	expired := func(err error) error {
		return &AuthError{Kind: KindInvalidToken, Message: "Your session has expired. Please sign in again.", Err: err}
	}
	claims, err := parseSession(s.key, token, s.now)
	if err != nil {
		return Session{}, expired(err)
	}
	u, err := s.repo.UserByID(ctx, claims.Subject)
	if err != nil {
		return Session{}, expired(err)
	}
	return Session{
		UserID:    u.ID,
		Email:     u.Email,
		Token:     token,
		AuthTime:  time.Unix(claims.AuthTime, 0),
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// VerifyEmail redeems a code from SignUp, SignIn or ChangeEmail.
func (s *Service) VerifyEmail(ctx context.Context, code string) error {
	t, err := s.consume(ctx, code, PurposeVerifyEmail, PurposeChangeEmail)
	if err != nil {
		return err
	}
	u, err := s.repo.UserByID(ctx, t.UserID)
	if err != nil {
		return generic("Unable to verify email.", err)
	}
	u.EmailVerified = true
	if t.Purpose == PurposeChangeEmail {
		u.Email = t.Email
	}
	if err := s.repo.UpdateUser(ctx, u); err != nil {
		if errors.Is(err, ErrEmailTaken) {
			return &AuthError{Kind: KindEmailInUse, Message: "An account with that email already exists.", Err: err}
		}
		return generic("Unable to verify email.", err)
	}
	s.log.Info(ctx, "email verified", "uid", u.ID, "purpose", string(t.Purpose))
	return nil
}

// ResetPassword mails a reset code. Unknown addresses succeed silently.
func (s *Service) ResetPassword(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if email == "" {
		return invalidInput("Please enter your email to reset password.")
	}
	u, err := s.repo.UserByEmail(ctx, email)
	if errors.Is(err, ErrUserNotFound) {
		s.log.Debug(ctx, "password reset for unknown email")
		return nil
	}
	if err != nil {
		return generic("Could not send reset email.", err)
	}
	if err := s.sendCode(ctx, u, PurposeResetPassword, u.Email); err != nil {
		return generic("Could not send reset email.", err)
	}
	return nil
}

// ConfirmPasswordReset sets a new password using a reset code.
func (s *Service) ConfirmPasswordReset(ctx context.Context, code, newPassword string) error {
	if err := s.checkPassword(newPassword); err != nil {
		return err
	}
	t, err := s.consume(ctx, code, PurposeResetPassword)
	if err != nil {
		return err
	}
	u, err := s.repo.UserByID(ctx, t.UserID)
	if err != nil {
		return generic("Unable to update password.", err)
	}
	if u.PasswordHash, err = s.hash(newPassword); err != nil {
		return err
	}
	if err := s.repo.UpdateUser(ctx, u); err != nil {
		return generic("Unable to update password.", err)
	}
	s.log.Info(ctx, "password reset", "uid", u.ID)
	return nil
}

// ChangePassword replaces the password after checking the current one.
func (s *Service) ChangePassword(ctx context.Context, sess Session, current, newPassword string) error {
	if strings.TrimSpace(newPassword) == "" {
		return invalidInput("New password is required.")
	}
	if err := s.checkPassword(newPassword); err != nil {
		return err
	}
	if strings.TrimSpace(current) == "" {
		return invalidInput("Current password is required to update your password.")
	}
	u, err := s.reauthenticate(ctx, sess, current)
	if err != nil {
		return err
	}
	if u.PasswordHash, err = s.hash(newPassword); err != nil {
		return err
	}
	if err := s.repo.UpdateUser(ctx, u); err != nil {
		return generic("Unable to update password.", err)
	}
	s.log.Info(ctx, "password changed", "uid", u.ID)
	return nil
}

// ChangeEmail mails a confirmation code to newEmail after checking the
// current password. The address changes only when the code is redeemed
// with VerifyEmail.
func (s *Service) ChangeEmail(ctx context.Context, sess Session, newEmail, current string) error {
	newEmail = normalizeEmail(newEmail)
	if newEmail == "" {
		return invalidInput("Email is required.")
	}
	if !strings.Contains(newEmail, "@") {
		return invalidInput("Please enter a valid email address.")
	}
	if strings.TrimSpace(current) == "" {
		return invalidInput("Current password is required to update your email.")
	}
	u, err := s.reauthenticate(ctx, sess, current)
	if err != nil {
		return err
	}
	if _, err := s.repo.UserByEmail(ctx, newEmail); err == nil {
		return &AuthError{Kind: KindEmailInUse, Message: "An account with that email already exists."}
	}
	if err := s.sendCode(ctx, u, PurposeChangeEmail, newEmail); err != nil {
		return generic("Unable to update email.", err)
	}
	return nil
}

// DeleteAccount removes the account. With a password the user is
// reauthenticated; without one the session must be recent. OnDelete then
// runs in the background.
func (s *Service) DeleteAccount(ctx context.Context, sess Session, password string) error {
	if password != "" {
		if _, err := s.reauthenticate(ctx, sess, password); err != nil {
			return err
		}
	} else if s.now().Sub(sess.AuthTime) > s.cfg.RecentLoginWindow {
		return &AuthError{
			Kind:    KindRequiresRecentLogin,
			Message: "For security, please enter your password to confirm account deletion.",
		}
	}

	if err := s.repo.DeleteUser(ctx, sess.UserID); err != nil {
		return generic("Unable to delete account.", err)
	}
	s.log.Info(ctx, "account deleted", "uid", sess.UserID)

	if s.onDelete != nil {
		s.pending.Add(1)
		go func(ctx context.Context, uid string) {
			defer s.pending.Done()
			if err := s.onDelete(ctx, uid); err != nil {
				s.log.Error(ctx, "account cleanup failed", "uid", uid, "error", err)
				return
			}
			s.log.Info(ctx, "account data removed", "uid", uid)
		}(context.WithoutCancel(ctx), sess.UserID)
	}
	return nil
}

// Wait blocks until background cleanup started by DeleteAccount finishes.
func (s *Service) Wait() {
	s.pending.Wait()
}

func (s *Service) consume(ctx context.Context, code string, purposes ...Purpose) (Token, error) {
	invalid := func(err error) error {
		return &AuthError{Kind: KindInvalidToken, Message: "This code is invalid or has expired.", Err: err}
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return Token{}, invalidInput("A code is required.")
	}
	t, err := s.repo.ConsumeToken(ctx, code)
	if errors.Is(err, ErrTokenNotFound) {
		return Token{}, invalid(err)
	}
	if err != nil {
		return Token{}, generic("Unable to redeem code.", err)
	}
	if !s.now().Before(t.ExpiresAt) {
		return Token{}, invalid(nil)
	}
	for _, p := range purposes {
		if t.Purpose == p {
			return t, nil
		}
	}
	return Token{}, invalid(nil)
}
