package service

import (
	"errors"
	"fmt"
	"net/mail"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/folio/internal/db"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
	ErrUserNotFound       = errors.New("user not found")
)

const (
	minPasswordLength = 8
	maxUsernameLength = 150
	tokenKeyLength    = 40
)

var usernamePattern = regexp.MustCompile(`^[\w.@+-]+$`)

// AuthService manages accounts and their bearer tokens.
type AuthService struct {
	db       *gorm.DB
	tokenTTL time.Duration
	now      func() time.Time
}

// RegisterInput describes a new account.
type RegisterInput struct {
	Username  string
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// ProfilePatch carries profile fields to change. Nil fields are left alone.
type ProfilePatch struct {
	Username  *string
	Email     *string
	FirstName *string
	LastName  *string
}

// NewAuthService creates an AuthService. A zero tokenTTL means tokens never expire.
func NewAuthService(gdb *gorm.DB, tokenTTL time.Duration) *AuthService {
	return &AuthService{db: gdb, tokenTTL: tokenTTL, now: time.Now}
}

// Register creates an account and issues its first token.
func (s *AuthService) Register(input RegisterInput) (*db.User, *db.Token, error) {
	verr := &ValidationError{}
	username := strings.TrimSpace(input.Username)
	email := strings.TrimSpace(input.Email)
	validateUsername(verr, username)
	validateEmail(verr, email, true)
	validatePassword(verr, "password", input.Password, username)
	if err := verr.errOrNil(); err != nil {
		return nil, nil, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, nil, fmt.Errorf("hash password: %w", err)
	}

	user := db.User{
		Username:  username,
		Email:     email,
		FirstName: strings.TrimSpace(input.FirstName),
		LastName:  strings.TrimSpace(input.LastName),
		Password:  string(hashed),
		IsActive:  true,
	}

	var token db.Token
	err = s.db.Transaction(func(tx *gorm.DB) error {
		taken, err := usernameTaken(tx, username, 0)
		if err != nil {
			return err
		}
		if taken {
			return usernameTakenError()
		}

		if err := tx.Create(&user).Error; err != nil {
			if isUniqueViolation(err) {
				return usernameTakenError()
			}
			return err
		}

		token = db.Token{Key: newTokenKey(), UserID: user.ID}
		return tx.Create(&token).Error
	})
	if err != nil {
		var validation *ValidationError
		if errors.As(err, &validation) {
			return nil, nil, err
		}
		return nil, nil, fmt.Errorf("register user: %w", err)
	}

	return &user, &token, nil
}

// Login checks credentials and returns the user's token, issuing one if needed.
func (s *AuthService) Login(username, password string) (*db.User, *db.Token, error) {
	var user db.User
	if err := s.db.Where("username = ?", strings.TrimSpace(username)).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, fmt.Errorf("find user: %w", err)
	}

	if !user.IsActive {
		return nil, nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, nil, ErrInvalidCredentials
	}

	token, err := s.getOrCreateToken(user.ID)
	if err != nil {
		return nil, nil, err
	}
	return &user, token, nil
}

// Logout revokes the user's token.
func (s *AuthService) Logout(userID uint) error {
	if err := s.db.Where("user_id = ?", userID).Delete(&db.Token{}).Error; err != nil {
		return fmt.Errorf("delete token: %w", err)
	}
	return nil
}

// Authenticate resolves a token key to its active user.
func (s *AuthService) Authenticate(key string) (*db.User, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, ErrInvalidToken
	}

	var token db.Token
	if err := s.db.Preload("User").Where(&db.Token{Key: key}).First(&token).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("find token: %w", err)
	}

	if s.expired(token) || !token.User.IsActive {
		return nil, ErrInvalidToken
	}
	return &token.User, nil
}

// Profile returns the user with the given id.
func (s *AuthService) Profile(userID uint) (*db.User, error) {
	var user db.User
	if err := s.db.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &user, nil
}

// UpdateProfile applies patch to the user's profile.
func (s *AuthService) UpdateProfile(userID uint, patch ProfilePatch) (*db.User, error) {
	user, err := s.Profile(userID)
	if err != nil {
		return nil, err
	}

	verr := &ValidationError{}
	updates := map[string]any{}
	if patch.Username != nil {
		username := strings.TrimSpace(*patch.Username)
		validateUsername(verr, username)
		if _, invalid := verr.Fields["username"]; !invalid && username != user.Username {
			taken, err := usernameTaken(s.db, username, user.ID)
			if err != nil {
				return nil, fmt.Errorf("check username: %w", err)
			}
			if taken {
				verr.Add("username", "A user with that username already exists.")
			}
		}
		updates["username"] = username
	}
	if patch.Email != nil {
		email := strings.TrimSpace(*patch.Email)
		validateEmail(verr, email, false)
		updates["email"] = email
	}
	if patch.FirstName != nil {
		updates["first_name"] = strings.TrimSpace(*patch.FirstName)
	}
	if patch.LastName != nil {
		updates["last_name"] = strings.TrimSpace(*patch.LastName)
	}
	if err := verr.errOrNil(); err != nil {
		return nil, err
	}

	if len(updates) > 0 {
		if err := s.db.Model(user).Updates(updates).Error; err != nil {
			if isUniqueViolation(err) {
				return nil, usernameTakenError()
			}
			return nil, fmt.Errorf("update profile: %w", err)
		}
	}
	return s.Profile(userID)
}

// ChangePassword replaces the password after verifying the old one.
func (s *AuthService) ChangePassword(userID uint, oldPassword, newPassword string) error {
	user, err := s.Profile(userID)
	if err != nil {
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(oldPassword)); err != nil {
		verr := &ValidationError{}
		verr.Add("old_password", "Wrong password.")
		return verr
	}

	verr := &ValidationError{}
	validatePassword(verr, "new_password", newPassword, user.Username)
	if err := verr.errOrNil(); err != nil {
		return err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.db.Model(user).Update("password", string(hashed)).Error; err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}

// CleanupExpiredTokens deletes tokens older than the configured lifetime.
func (s *AuthService) CleanupExpiredTokens(now time.Time) (int64, error) {
	if s.tokenTTL <= 0 {
		return 0, nil
	}
	result := s.db.Where("created_at < ?", now.Add(-s.tokenTTL)).Delete(&db.Token{})
	if result.Error != nil {
		return 0, fmt.Errorf("cleanup tokens: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func (s *AuthService) getOrCreateToken(userID uint) (*db.Token, error) {
	var token db.Token
	err := s.db.Where("user_id = ?", userID).First(&token).Error
	switch {
	case err == nil && !s.expired(token):
		return &token, nil
	case err == nil:
		if err := s.db.Delete(&token).Error; err != nil {
			return nil, fmt.Errorf("drop expired token: %w", err)
		}
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, fmt.Errorf("find token: %w", err)
	}

	token = db.Token{Key: newTokenKey(), UserID: userID}
	if err := s.db.Create(&token).Error; err != nil {
		return nil, fmt.Errorf("create token: %w", err)
	}
	return &token, nil
}

func (s *AuthService) expired(token db.Token) bool {
	if s.tokenTTL <= 0 {
		return false
	}
	return s.now().After(token.CreatedAt.Add(s.tokenTTL))
}

func newTokenKey() string {
	raw := strings.ReplaceAll(uuid.NewString()+uuid.NewString(), "-", "")
	return raw[:tokenKeyLength]
}

func usernameTaken(tx *gorm.DB, username string, exceptID uint) (bool, error) {
	var count int64
	query := tx.Model(&db.User{}).Where("username = ?", username)
	if exceptID != 0 {
		query = query.Where("id <> ?", exceptID)
	}
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func usernameTakenError() error {
	verr := &ValidationError{}
	verr.Add("username", "A user with that username already exists.")
	return verr
}

func validateUsername(verr *ValidationError, username string) {
	switch {
	case username == "":
		verr.Add("username", "This field may not be blank.")
	case len(username) > maxUsernameLength:
		verr.Add("username", fmt.Sprintf("Ensure this field has no more than %d characters.", maxUsernameLength))
	case !usernamePattern.MatchString(username):
		verr.Add("username", "Enter a valid username. This value may contain only letters, numbers, and @/./+/-/_ characters.")
	}
}

func validateEmail(verr *ValidationError, email string, required bool) {
	if email == "" {
		if required {
			verr.Add("email", "This field may not be blank.")
		}
		return
	}
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		verr.Add("email", "Enter a valid email address.")
	}
}

func validatePassword(verr *ValidationError, field, password, username string) {
	if len([]rune(password)) < minPasswordLength {
		verr.Add(field, fmt.Sprintf("This password is too short. It must contain at least %d characters.", minPasswordLength))
	}
	if password != "" && strings.IndexFunc(password, func(r rune) bool { return !unicode.IsDigit(r) }) == -1 {
		verr.Add(field, "This password is entirely numeric.")
	}
	if username != "" && strings.EqualFold(password, username) {
		verr.Add(field, "The password is too similar to the username.")
	}
}
