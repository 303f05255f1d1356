package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/harjot20022001/bug-tracker/internal/logging"
	"github.com/harjot20022001/bug-tracker/internal/store"
	"github.com/harjot20022001/bug-tracker/types"
	"golang.org/x/crypto/bcrypt"
)

const defaultTokenTTL = 30 * 24 * time.Hour

const (
	msgInvalidCredentials = "Invalid credentials"
	msgMissingCredentials = "Please provide an email and password"
	msgNotAuthorized      = "Not authorized to access this route"
	msgUserExists         = "User already exists"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (types.User, error)
	GetByEmail(ctx context.Context, email string) (types.User, error)
	List(ctx context.Context) ([]types.User, error)
	Create(ctx context.Context, user types.User) (types.User, error)
	Update(ctx context.Context, user types.User) (types.User, error)
	Delete(ctx context.Context, id string) error
}

// RegisterInput carries the fields accepted by Register.
type RegisterInput struct {
	Name     string     `json:"name" validate:"required"`
	Email    string     `json:"email" validate:"required,email"`
	Password string     `json:"password" validate:"required,min=6"`
	Role     types.Role `json:"role" validate:"omitempty,oneof=admin employee"`
}

// AuthResult is returned by Register and Login.
type AuthResult struct {
	Token string           `json:"token"`
	User  types.PublicUser `json:"user"`
}

type sessionClaims struct {
	ID   string     `json:"id"`
	Role types.Role `json:"role"`
	jwt.RegisteredClaims
}

// AuthService issues and resolves session tokens.
type AuthService struct {
	users    UserRepository
	secret   []byte
	tokenTTL time.Duration
	log      logging.Logger
}

func NewAuthService(users UserRepository, jwtSecret string, tokenTTL time.Duration, log logging.Logger) *AuthService {
	if tokenTTL <= 0 {
		tokenTTL = defaultTokenTTL
	}
	if log == nil {
		log = logging.Discard()
	}
	return &AuthService{
		users:    users,
		secret:   []byte(jwtSecret),
		tokenTTL: tokenTTL,
		log:      log,
	}
}

// Register creates an account and signs a token for it. Role defaults to employee.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (AuthResult, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = normalizeEmail(in.Email)
	if err := validateStruct(in); err != nil {
		return AuthResult{}, err
	}
	if in.Role == "" {
		in.Role = types.RoleEmployee
	}

	if _, err := s.users.GetByEmail(ctx, in.Email); err == nil {
		return AuthResult{}, validationError(msgUserExists)
	} else if !errors.Is(err, store.ErrNotFound) {
		return AuthResult{}, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return AuthResult{}, err
	}

	user, err := s.users.Create(ctx, types.User{
		Name:         in.Name,
		Email:        in.Email,
		Role:         in.Role,
		PasswordHash: string(hashed),
	})
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return AuthResult{}, validationError(msgUserExists)
		}
		return AuthResult{}, err
	}
	s.log.Info(ctx, "user registered", "user_id", user.ID, "role", user.Role)

	return s.result(user)
}

// Login verifies credentials. Unknown email and wrong password produce the
// same error.
func (s *AuthService) Login(ctx context.Context, email, password string) (AuthResult, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return AuthResult{}, validationError(msgMissingCredentials)
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return AuthResult{}, authError(msgInvalidCredentials)
		}
		return AuthResult{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return AuthResult{}, authError(msgInvalidCredentials)
	}

	return s.result(user)
}

// ResolveSession validates a bearer token and returns the identity it carries.
func (s *AuthService) ResolveSession(tokenString string) (types.Identity, error) {
	if strings.TrimSpace(tokenString) == "" {
		return types.Identity{}, authError(msgNotAuthorized)
	}

	claims := sessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return s.secret, nil
	})
	if err != nil {
		return types.Identity{}, &Error{Kind: KindAuth, Message: msgNotAuthorized, Err: err}
	}
	if !token.Valid || strings.TrimSpace(claims.ID) == "" || !claims.Role.Valid() {
		return types.Identity{}, authError(msgNotAuthorized)
	}
	return types.Identity{UserID: claims.ID, Role: claims.Role}, nil
}

// Me returns the caller's profile.
func (s *AuthService) Me(ctx context.Context, identity types.Identity) (types.PublicUser, error) {
	if !validID(identity.UserID) {
		return types.PublicUser{}, authError("User not found")
	}
	user, err := s.users.GetByID(ctx, identity.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.PublicUser{}, authError("User not found")
		}
		return types.PublicUser{}, err
	}
	return user.Public(), nil
}

func (s *AuthService) result(user types.User) (AuthResult, error) {
	token, err := s.issueToken(user)
	if err != nil {
		return AuthResult{}, err
	}
	return AuthResult{Token: token, User: user.Public()}, nil
}

func (s *AuthService) issueToken(user types.User) (string, error) {
	now := time.Now()
	claims := sessionClaims{
		ID:   user.ID,
		Role: user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}
