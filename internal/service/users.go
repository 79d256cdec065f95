package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"commerce-service/internal/auth"
	"commerce-service/internal/models"
	"commerce-service/internal/store"
	"commerce-service/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const minUsernameLength = 3

// Unknown usernames are checked against this salt so that they cost the same
// PBKDF2 work as a wrong password.
const timingSalt = "00000000000000000000000000000000"

var verifyPassword = auth.VerifyPassword

// CreateUserParams carries an already hashed password
type CreateUserParams struct {
	Email        string
	Username     string
	PasswordHash string
	PasswordSalt string
}

// Register hashes password with a fresh salt and creates the user.
func (s *CommerceService) Register(ctx context.Context, email, username, password string) (*models.User, error) {
	digest, salt, err := auth.HashPassword(password, "")
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	return s.CreateUser(ctx, CreateUserParams{
		Email:        email,
		Username:     username,
		PasswordHash: digest,
		PasswordSalt: salt,
	})
}

// CreateUser validates and stores a new user
func (s *CommerceService) CreateUser(ctx context.Context, params CreateUserParams) (*models.User, error) {
	ctx, span := util.StartSpan(ctx, "CommerceService.CreateUser")
	defer span.End()

	if !strings.Contains(params.Email, "@") {
		return nil, s.rejectSignup("invalid_email", newValidationError("email must contain '@'"))
	}
	if utf8.RuneCountInString(params.Username) < minUsernameLength {
		return nil, s.rejectSignup("short_username",
			newValidationError("username must be at least %d characters", minUsernameLength))
	}

	unlock, err := s.lockSignup(ctx, params.Username, params.Email)
	if err != nil {
		return nil, err
	}
	defer unlock()

	existing, err := s.users.GetByUsername(ctx, params.Username)
	if err != nil {
		return nil, fmt.Errorf("failed to look up username: %w", err)
	}
	if existing != nil {
		return nil, s.rejectSignup("duplicate_username", newValidationError("username already exists"))
	}

	existing, err = s.users.GetByEmail(ctx, params.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to look up email: %w", err)
	}
	if existing != nil {
		return nil, s.rejectSignup("duplicate_email", newValidationError("email already exists"))
	}

	user := &models.User{
		ID:           uuid.New(),
		Email:        params.Email,
		Username:     params.Username,
		PasswordHash: params.PasswordHash,
		PasswordSalt: params.PasswordSalt,
		CreatedAt:    s.now(),
	}

	if err := s.users.Create(ctx, user); err != nil {
		// a concurrent signup can still win the race to the unique index
		var dup *store.DuplicateError
		if errors.As(err, &dup) {
			return nil, s.rejectSignup("duplicate_"+dup.Field, newValidationError("%s already exists", dup.Field))
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	util.UsersRegisteredTotal.Inc()
	s.logger.Info("User registered",
		zap.String("user_id", user.ID.String()),
		zap.String("username", user.Username))

	s.publishUserRegistered(ctx, user)
	return user, nil
}

// Login checks the credentials and issues a session token. It returns the
// user, the token and the token lifetime in minutes.
func (s *CommerceService) Login(ctx context.Context, username, password string) (*models.User, string, int, error) {
	ctx, span := util.StartSpan(ctx, "CommerceService.Login")
	defer span.End()

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, "", 0, fmt.Errorf("failed to look up user: %w", err)
	}
	digest, salt := "", timingSalt
	if user != nil {
		digest, salt = user.PasswordHash, user.PasswordSalt
	}
	if !verifyPassword(password, digest, salt) || user == nil {
		util.LoginsTotal.WithLabelValues("rejected").Inc()
		return nil, "", 0, errInvalidCredentials
	}

	token, _, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, "", 0, fmt.Errorf("failed to issue token: %w", err)
	}

	util.LoginsTotal.WithLabelValues("success").Inc()
	return user, token, int(s.tokens.TTL().Minutes()), nil
}

// lockSignup takes the username and email locks when a Locker is configured.
// If the locker itself fails the signup goes ahead; the unique indexes in the
// store still reject duplicates.
func (s *CommerceService) lockSignup(ctx context.Context, username, email string) (func(), error) {
	noop := func() {}
	if s.locker == nil {
		return noop, nil
	}

	keys := []string{
		"signup:username:" + username,
		"signup:email:" + strings.ToLower(email),
	}
	tokens := make([]string, 0, len(keys))

	release := func() {
		for i, token := range tokens {
			if err := s.locker.ReleaseLock(context.Background(), keys[i], token); err != nil {
				s.logger.Warn("Failed to release signup lock", zap.String("key", keys[i]), zap.Error(err))
			}
		}
	}

	for _, key := range keys {
		token, ok, err := s.locker.AcquireLock(ctx, key, s.signupLockTTL)
		if err != nil {
			s.logger.Warn("Signup lock unavailable, relying on unique constraints", zap.Error(err))
			release()
			return noop, nil
		}
		if !ok {
			release()
			return nil, s.rejectSignup("in_progress", newValidationError("signup already in progress"))
		}
		tokens = append(tokens, token)
	}

	return release, nil
}

func (s *CommerceService) rejectSignup(reason string, err error) error {
	util.SignupsRejectedTotal.WithLabelValues(reason).Inc()
	return err
}
