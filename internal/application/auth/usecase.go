package auth

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/Biblioteca-api/internal/application/dto"
	"github.com/jhoicas/Biblioteca-api/internal/application/ports"
	"github.com/jhoicas/Biblioteca-api/internal/domain"
	"github.com/jhoicas/Biblioteca-api/internal/domain/entity"
	"github.com/jhoicas/Biblioteca-api/internal/domain/repository"
	"github.com/jhoicas/Biblioteca-api/pkg/jwt"
)

const (
	maxCILength       = 20
	minPasswordLength = 4
	maxNameLength     = 64
)

// JWTConfig configuración para generación de tokens.
type JWTConfig struct {
	Secret     string
	ExpMinutes int
	Issuer     string
}

// AuthUseCase casos de uso de autenticación: registro, login y logout.
type AuthUseCase struct {
	userRepo repository.UserRepository
	limiter  ports.RateLimiter
	denylist ports.TokenDenylist
	cache    ports.Cache
	jwtCfg   JWTConfig
	// legacyCILogin permite entrar solo con la cédula a usuarios importados sin contraseña.
	legacyCILogin bool
}

// NewAuthUseCase construye el caso de uso de auth. cache (dashboard) puede ser nil.
func NewAuthUseCase(
	userRepo repository.UserRepository,
	limiter ports.RateLimiter,
	denylist ports.TokenDenylist,
	cache ports.Cache,
	jwtCfg JWTConfig,
	legacyCILogin bool,
) *AuthUseCase {
	return &AuthUseCase{
		userRepo:      userRepo,
		limiter:       limiter,
		denylist:      denylist,
		cache:         cache,
		jwtCfg:        jwtCfg,
		legacyCILogin: legacyCILogin,
	}
}

// Register crea un lector con rol user. Devuelve ErrCIAlreadyExists si la cédula ya existe.
func (uc *AuthUseCase) Register(ctx context.Context, in dto.RegisterRequest) (*dto.UserResponse, error) {
	ci := strings.TrimSpace(in.CI)
	if err := validateCredentials(ci, in.Password); err != nil {
		return nil, err
	}
	if in.Password != in.Confirm {
		return nil, fmt.Errorf("%w: las contraseñas no coinciden", domain.ErrInvalidInput)
	}
	if utf8.RuneCountInString(in.FirstName) > maxNameLength || utf8.RuneCountInString(in.LastName) > maxNameLength {
		return nil, fmt.Errorf("%w: nombre y apellido admiten hasta %d caracteres", domain.ErrInvalidInput, maxNameLength)
	}

	existing, err := uc.userRepo.GetByCI(ctx, ci)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrCIAlreadyExists
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	user := &entity.User{
		CI:           ci,
		PasswordHash: string(hash),
		Role:         entity.RoleUser,
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		Phone:        strings.TrimSpace(in.Phone),
		Address:      strings.TrimSpace(in.Address),
		CreatedAt:    time.Now(),
	}
	if err := uc.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	// el total de usuarios del dashboard cambia; si falla, caduca con su TTL
	_ = ports.InvalidateDashboard(ctx, uc.cache)
	return toUserResponse(user), nil
}

// Login verifica cédula/contraseña, genera JWT y retorna token + usuario.
// Los intentos se limitan por cédula; un login correcto reinicia el contador.
func (uc *AuthUseCase) Login(ctx context.Context, in dto.LoginRequest) (*dto.LoginResponse, error) {
	ci := strings.TrimSpace(in.CI)
	if ci == "" {
		return nil, fmt.Errorf("%w: la cédula es obligatoria", domain.ErrInvalidInput)
	}
	limitKey := "login:" + ci
	// Si el limitador falla (Redis caído) se deja pasar el intento.
	if ok, err := uc.limiter.Allow(ctx, limitKey); err == nil && !ok {
		return nil, domain.ErrTooManyAttempts
	}

	user, err := uc.userRepo.GetByCI(ctx, ci)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrUnauthorized
	}
	if user.HasPassword() {
		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
			return nil, domain.ErrUnauthorized
		}
	} else if !uc.legacyCILogin {
		return nil, domain.ErrUnauthorized
	}

	_ = uc.limiter.Reset(ctx, limitKey)

	token, err := jwt.Generate(uc.jwtCfg.Secret, user.ID, user.CI, user.Role.String(), uc.jwtCfg.Issuer, uc.jwtCfg.ExpMinutes)
	if err != nil {
		return nil, err
	}
	return &dto.LoginResponse{
		Token:     token,
		ExpiresAt: time.Now().Add(time.Duration(uc.jwtCfg.ExpMinutes) * time.Minute),
		User:      *toUserResponse(user),
	}, nil
}

// Logout revoca el token (por jti) hasta su expiración.
func (uc *AuthUseCase) Logout(ctx context.Context, jti string, expiresAt time.Time) error {
	if jti == "" {
		return domain.ErrUnauthorized
	}
	return uc.denylist.Revoke(ctx, jti, expiresAt)
}

// EnsureAdmin crea un administrador con la cédula dada o promueve al usuario existente
// (y le fija la contraseña). Lo usa la herramienta de línea de comandos, nunca la API.
func (uc *AuthUseCase) EnsureAdmin(ctx context.Context, ci, password string) (*dto.UserResponse, bool, error) {
	ci = strings.TrimSpace(ci)
	if err := validateCredentials(ci, password); err != nil {
		return nil, false, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, false, err
	}

	user, err := uc.userRepo.GetByCI(ctx, ci)
	if err != nil {
		return nil, false, err
	}
	if user != nil {
		if err := uc.userRepo.UpdatePassword(ctx, user.ID, string(hash)); err != nil {
			return nil, false, err
		}
		if err := uc.userRepo.UpdateRole(ctx, user.ID, entity.RoleAdmin); err != nil {
			return nil, false, err
		}
		user.PasswordHash = string(hash)
		user.Role = entity.RoleAdmin
		return toUserResponse(user), false, nil
	}

	user = &entity.User{
		CI:           ci,
		PasswordHash: string(hash),
		Role:         entity.RoleAdmin,
		CreatedAt:    time.Now(),
	}
	if err := uc.userRepo.Create(ctx, user); err != nil {
		return nil, false, err
	}
	_ = ports.InvalidateDashboard(ctx, uc.cache)
	return toUserResponse(user), true, nil
}

func validateCredentials(ci, password string) error {
	if ci == "" || utf8.RuneCountInString(ci) > maxCILength {
		return fmt.Errorf("%w: la cédula es obligatoria (máximo %d caracteres)", domain.ErrInvalidInput, maxCILength)
	}
	if utf8.RuneCountInString(password) < minPasswordLength {
		return fmt.Errorf("%w: la contraseña debe tener al menos %d caracteres", domain.ErrInvalidInput, minPasswordLength)
	}
	return nil
}

func toUserResponse(u *entity.User) *dto.UserResponse {
	if u == nil {
		return nil
	}
	return &dto.UserResponse{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		CI:        u.CI,
		Phone:     u.Phone,
		Address:   u.Address,
		Role:      u.Role.String(),
		CreatedAt: u.CreatedAt,
	}
}
