package main

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"
)

const (
	minPasswordLength = 8
	// bcrypt refuses input longer than 72 bytes.
	maxPasswordLength = 72
)

func validPassword(p string) error {
	switch {
	case p == "":
		return invalid("password is required")
	case len(p) < minPasswordLength:
		return invalid("password must be at least %d characters", minPasswordLength)
	case len(p) > maxPasswordLength:
		return invalid("password must be at most %d bytes", maxPasswordLength)
	}
	return nil
}

// Sessions composes the password hasher, the token issuer and the credential
// store into the login lifecycle: register, login, refresh, logout.
type Sessions struct {
	db         DB
	issuer     *TokenIssuer
	refreshTTL time.Duration
	now        func() time.Time
}

func NewSessions(db DB, issuer *TokenIssuer, refreshTTL time.Duration) *Sessions {
	return &Sessions{db: db, issuer: issuer, refreshTTL: refreshTTL, now: time.Now}
}

// RegisterInput carries the sign-up form.
type RegisterInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FName    string `json:"fname"`
	LName    string `json:"lname"`
	Phone    string `json:"phone"`
	Gender   string `json:"gender"`
	RankID   *int64 `json:"ranks_id"`
}

// LoginResult is what a successful login hands back to the transport.
type LoginResult struct {
	Account      *Account
	AccessToken  string
	RefreshToken string
}

// TokenPair is the result of a refresh; RefreshToken replaces the presented one.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func validEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == s
}

// Register creates an active account. It does not log the caller in.
func (s *Sessions) Register(ctx context.Context, in RegisterInput) (*Account, error) {
	email := normalizeEmail(in.Email)
	switch {
	case email == "":
		return nil, invalid("email is required")
	case !validEmail(email):
		return nil, invalid("email is malformed")
	}
	if err := validPassword(in.Password); err != nil {
		return nil, err
	}

	exists, err := s.db.EmailExists(ctx, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, duplicate("Email")
	}

	hash, err := hashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	a := &Account{
		Email:    email,
		Password: hash,
		FName:    strings.TrimSpace(in.FName),
		LName:    strings.TrimSpace(in.LName),
		Phone:    strings.TrimSpace(in.Phone),
		Gender:   in.Gender,
		RankID:   in.RankID,
		Status:   StatusActive,
	}
	// The unique index on email closes the window between the check and the insert.
	if err := s.db.CreateAccount(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// Login never tells an unknown email apart from a wrong password.
func (s *Sessions) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, invalid("email and password are required")
	}

	a, err := s.db.GetAccountByEmail(ctx, email)
	if errors.Is(err, ErrNotFound) {
		comparePassword(string(dummyHash), password)
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !comparePassword(a.Password, password) || a.Status != StatusActive {
		return nil, ErrInvalidCredentials
	}

	access, refresh, err := s.issue(ctx, a.No)
	if err != nil {
		return nil, err
	}
	return &LoginResult{Account: a, AccessToken: access, RefreshToken: refresh}, nil
}

// Refresh rotates the presented refresh token. A token that was already
// rotated away is treated as stolen and every session of its account is
// revoked; a token that was merely logged out just fails.
func (s *Sessions) Refresh(ctx context.Context, raw string) (*TokenPair, error) {
	if raw == "" {
		return nil, ErrSessionExpired
	}
	hash := hashToken(raw)
	rt, err := s.db.GetRefreshToken(ctx, hash)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrSessionExpired
	}
	if err != nil {
		return nil, err
	}
	if rt.Revoked {
		if rt.Rotated {
			if err := s.db.RevokeAllRefreshTokensForAccount(ctx, rt.AccountNo); err != nil {
				return nil, err
			}
		}
		return nil, ErrSessionExpired
	}
	if !rt.ExpiresAt.After(s.now()) {
		return nil, ErrSessionExpired
	}

	a, err := s.db.GetAccount(ctx, rt.AccountNo)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrSessionExpired
	}
	if err != nil {
		return nil, err
	}
	if a.Status != StatusActive {
		return nil, ErrSessionExpired
	}

	nextRaw, next, err := s.newRefreshToken(a.No)
	if err != nil {
		return nil, err
	}
	if err := s.db.RotateRefreshToken(ctx, hash, next); err != nil {
		return nil, err
	}
	access, err := s.issuer.Issue(a.No)
	if err != nil {
		return nil, fmt.Errorf("sign access: %w", err)
	}
	return &TokenPair{AccessToken: access, RefreshToken: nextRaw}, nil
}

// Logout revokes raw. Absent or already revoked sessions are not an error.
func (s *Sessions) Logout(ctx context.Context, raw string) error {
	if raw == "" {
		return nil
	}
	return s.db.RevokeRefreshToken(ctx, hashToken(raw))
}

// EmailExists backs the sign-up form's duplicate check.
func (s *Sessions) EmailExists(ctx context.Context, email string) (bool, error) {
	email = normalizeEmail(email)
	if email == "" {
		return false, invalid("email is required")
	}
	return s.db.EmailExists(ctx, email)
}

// Authenticate resolves an access token to its subject. The account must
// still exist and be active.
func (s *Sessions) Authenticate(ctx context.Context, token string) (int64, error) {
	no, err := s.issuer.Parse(token)
	if err != nil {
		return 0, err
	}
	a, err := s.db.GetAccount(ctx, no)
	if errors.Is(err, ErrNotFound) {
		return 0, ErrSessionExpired
	}
	if err != nil {
		return 0, err
	}
	if a.Status != StatusActive {
		return 0, ErrSessionExpired
	}
	return no, nil
}

func (s *Sessions) issue(ctx context.Context, accountNo int64) (access, refresh string, err error) {
	access, err = s.issuer.Issue(accountNo)
	if err != nil {
		return "", "", fmt.Errorf("sign access: %w", err)
	}
	refresh, rec, err := s.newRefreshToken(accountNo)
	if err != nil {
		return "", "", err
	}
	if err := s.db.CreateRefreshToken(ctx, rec); err != nil {
		return "", "", fmt.Errorf("save refresh: %w", err)
	}
	return access, refresh, nil
}

func (s *Sessions) newRefreshToken(accountNo int64) (string, *RefreshToken, error) {
	raw, err := genToken(32)
	if err != nil {
		return "", nil, fmt.Errorf("gen refresh: %w", err)
	}
	return raw, &RefreshToken{
		TokenHash: hashToken(raw),
		AccountNo: accountNo,
		ExpiresAt: s.now().Add(s.refreshTTL),
	}, nil
}
