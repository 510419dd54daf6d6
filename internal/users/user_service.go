package users

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/khanghh/alumnet/internal/common"
	"github.com/khanghh/alumnet/model"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const minPasswordLength = 8

type CreateUserOptions struct {
	Name     string
	Email    string
	Password string
	Role     model.Role
}

type ProfileDetails struct {
	Batch       string
	Branch      string
	Campus      string
	Company     string
	Designation string
	Skills      []string
	LinkedIn    string
	GitHub      string
	Website     string
	Bio         string
}

type UserService struct {
	db          *gorm.DB
	userRepo    UserRepository
	profileRepo ProfileRepository
}

// NormalizeEmail lower-cases and trims an email address. Emails are stored in this form.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *UserService) GetUserByID(ctx context.Context, userID uint) (*model.User, error) {
	user, err := s.userRepo.First(ctx, "id = ?", userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	return user, err
}

func (s *UserService) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	user, err := s.userRepo.First(ctx, "email = ?", NormalizeEmail(email))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	return user, err
}

func (s *UserService) GetProfile(ctx context.Context, userID uint) (*model.Profile, error) {
	profile, err := s.profileRepo.GetByUserID(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return profile, err
}

func (s *UserService) checkUserExist(ctx context.Context, email string) error {
	count, err := s.userRepo.Count(ctx, "email = ?", email)
	if err != nil {
		return err
	}
	if count > 0 {
		return ErrEmailRegistered
	}
	return nil
}

func (s *UserService) CreateUser(ctx context.Context, opts CreateUserOptions) (*model.User, error) {
	email := NormalizeEmail(opts.Email)
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, ErrInvalidEmail
	}
	if strings.TrimSpace(opts.Name) == "" {
		return nil, ErrNameRequired
	}
	if len(opts.Password) < minPasswordLength {
		return nil, ErrPasswordTooShort
	}
	if !opts.Role.Valid() {
		return nil, ErrInvalidRole
	}
	if err := s.checkUserExist(ctx, email); err != nil {
		return nil, err
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(opts.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := model.User{
		Name:     strings.TrimSpace(opts.Name),
		Email:    email,
		Password: string(passwordHash),
		Role:     opts.Role,
	}
	if err := s.userRepo.Create(ctx, &user); err != nil {
		if common.IsDuplicateKey(err) {
			return nil, ErrEmailRegistered
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return &user, nil
}

// RegisterUser signs up a student or alumni account. Admin accounts are only
// created from the command line.
func (s *UserService) RegisterUser(ctx context.Context, opts CreateUserOptions) (*model.User, error) {
	if opts.Role == "" {
		opts.Role = model.RoleStudent
	}
	if opts.Role == model.RoleAdmin {
		return nil, ErrInvalidRole
	}
	return s.CreateUser(ctx, opts)
}

func (s *UserService) CheckPassword(user *model.User, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) == nil
}

func (s *UserService) UpdatePassword(ctx context.Context, userID uint, newPassword string) error {
	if len(newPassword) < minPasswordLength {
		return ErrPasswordTooShort
	}
	passwordHash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	updates := map[string]interface{}{
		model.ColUserPassword: string(passwordHash),
	}
	affected, err := s.userRepo.Updates(ctx, updates, "id = ?", userID)
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrUserNotFound
	}
	return nil
}

// ChangePassword replaces the password of a user who proved the current one.
func (s *UserService) ChangePassword(ctx context.Context, userID uint, currentPassword, newPassword string) error {
	user, err := s.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}
	if !s.CheckPassword(user, currentPassword) {
		return ErrWrongPassword
	}
	return s.UpdatePassword(ctx, userID, newPassword)
}

// CompleteProfile stores the user's profile and marks it completed.
func (s *UserService) CompleteProfile(ctx context.Context, userID uint, details ProfileDetails) (*model.Profile, error) {
	batch := strings.TrimSpace(details.Batch)
	branch := strings.TrimSpace(details.Branch)
	if batch == "" || branch == "" {
		return nil, ErrProfileIncomplete
	}
	profile := &model.Profile{
		UserID:      userID,
		Batch:       batch,
		Branch:      branch,
		Campus:      strings.TrimSpace(details.Campus),
		Company:     strings.TrimSpace(details.Company),
		Designation: strings.TrimSpace(details.Designation),
		Skills:      details.Skills,
		LinkedIn:    strings.TrimSpace(details.LinkedIn),
		GitHub:      strings.TrimSpace(details.GitHub),
		Website:     strings.TrimSpace(details.Website),
		Bio:         details.Bio,
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		affected, err := s.userRepo.WithTx(tx).Updates(ctx, map[string]interface{}{model.ColUserProfileCompleted: true}, "id = ?", userID)
		if err != nil {
			return err
		}
		if affected == 0 {
			return ErrUserNotFound
		}
		return s.profileRepo.WithTx(tx).Upsert(ctx, profile)
	})
	if err != nil {
		return nil, err
	}
	return s.profileRepo.GetByUserID(ctx, userID)
}

func NewUserService(db *gorm.DB, userRepo UserRepository, profileRepo ProfileRepository) *UserService {
	return &UserService{
		db:          db,
		userRepo:    userRepo,
		profileRepo: profileRepo,
	}
}
