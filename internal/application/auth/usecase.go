package auth

import (
	"crypto/subtle"

	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/Tagihan-api/internal/application/dto"
	"github.com/jhoicas/Tagihan-api/internal/domain"
	"github.com/jhoicas/Tagihan-api/pkg/jwt"
)

// RoleAdmin rol del operador configurado; el único que puede borrar clientes.
const RoleAdmin = "admin"

// JWTConfig configuración para generación de tokens.
type JWTConfig struct {
	Secret     string
	ExpMinutes int
	Issuer     string
}

// AuthUseCase login del operador único definido por configuración (usuario + hash bcrypt).
type AuthUseCase struct {
	user         string
	passwordHash []byte
	jwtCfg       JWTConfig
}

// NewAuthUseCase construye el caso de uso de auth.
func NewAuthUseCase(user, passwordHash string, jwtCfg JWTConfig) *AuthUseCase {
	return &AuthUseCase{user: user, passwordHash: []byte(passwordHash), jwtCfg: jwtCfg}
}

// Login verifica usuario/password y genera el JWT. Credenciales erróneas: domain.ErrUnauthorized.
func (uc *AuthUseCase) Login(in dto.LoginRequest) (*dto.LoginResponse, error) {
	if len(uc.passwordHash) == 0 {
		return nil, domain.ErrUnauthorized
	}
	userOK := subtle.ConstantTimeCompare([]byte(in.Username), []byte(uc.user)) == 1
	// Comparar siempre el hash para no filtrar por tiempo si el usuario existe.
	passErr := bcrypt.CompareHashAndPassword(uc.passwordHash, []byte(in.Password))
	if !userOK || passErr != nil {
		return nil, domain.ErrUnauthorized
	}
	token, err := jwt.Generate(uc.jwtCfg.Secret, uc.user, RoleAdmin, uc.jwtCfg.Issuer, uc.jwtCfg.ExpMinutes)
	if err != nil {
		return nil, err
	}
	return &dto.LoginResponse{Token: token, ExpiresIn: uc.jwtCfg.ExpMinutes * 60}, nil
}
