package auth

import (
	"context"
	"errors"
	"strings"

	"club25-backend/internal/domain"
	"club25-backend/internal/infrastructure/database"
	"club25-backend/internal/pkg/constants"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const minPasswordLen = 8

// LoginInput for login request body.
type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SessionUserShape is the object stored in session and returned by /me.
type SessionUserShape struct {
	UserID   string `json:"user_id"`
	Fullname string `json:"fullname"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

// AdminFinder abstracts back-office lookup by email+password (GORM in production, doubles in tests).
type AdminFinder interface {
	FindByEmailAndPassword(email, password string) (*domain.AdminUser, error)
}

// GormAdminFinder implements AdminFinder using GORM and bcrypt.
type GormAdminFinder struct{ DB *gorm.DB }

func (g *GormAdminFinder) FindByEmailAndPassword(email, password string) (*domain.AdminUser, error) {
	return LoginAdmin(g.DB, LoginInput{Email: email, Password: password})
}

// LoginAdmin finds an admin by email and verifies the password.
func LoginAdmin(db *gorm.DB, input LoginInput) (*domain.AdminUser, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" || input.Password == "" {
		return nil, ErrEmailPasswordRequired
	}
	var u domain.AdminUser
	if err := db.Where("email = ?", email).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidEmail
		}
		return nil, err
	}
	if u.PasswordHash == "" {
		return nil, ErrInvalidEmail
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(input.Password)); err != nil {
		return nil, ErrIncorrectPassword
	}
	return &u, nil
}

// CreateAdminInput is used by the CLI to provision back-office accounts.
type CreateAdminInput struct {
	Fullname string
	Email    string
	Password string
	Role     string
}

// CreateAdmin hashes the password and stores a new back-office account.
func CreateAdmin(ctx context.Context, db *gorm.DB, in CreateAdminInput) (*domain.AdminUser, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email == "" || in.Password == "" {
		return nil, ErrEmailPasswordRequired
	}
	if len(in.Password) < minPasswordLen {
		return nil, ErrWeakPassword
	}
	role := in.Role
	if role == "" {
		role = constants.Staff
	}
	if !constants.IsValidRole(role) {
		return nil, ErrInvalidRole
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	u := domain.AdminUser{
		Fullname:     strings.TrimSpace(in.Fullname),
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
	}
	if err := db.WithContext(ctx).Create(&u).Error; err != nil {
		if database.IsUniqueViolation(err) {
			return nil, ErrAdminExists
		}
		return nil, err
	}
	return &u, nil
}

// VerifyUser validates session user and returns the shape for /me.
func VerifyUser(sessionUser interface{}) (*SessionUserShape, error) {
	if sessionUser == nil {
		return nil, ErrNotAuthenticated
	}
	m, ok := sessionUser.(map[string]interface{})
	if !ok {
		return nil, ErrNotAuthenticated
	}
	userID, _ := m["user_id"].(string)
	if userID == "" {
		return nil, ErrNotAuthenticated
	}
	return &SessionUserShape{
		UserID:   userID,
		Fullname: str(m["fullname"]),
		Email:    str(m["email"]),
		Role:     str(m["role"]),
	}, nil
}

func str(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}
