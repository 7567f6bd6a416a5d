package session

import "errors"

var (
	ErrInvalidCredentials = errors.New("invalid login credentials")
	ErrEmailNotConfirmed  = errors.New("email not confirmed")
	ErrAlreadyRegistered  = errors.New("user already registered")
	ErrInactiveUser       = errors.New("user is inactive")
	ErrInvalidCode        = errors.New("invalid or expired verification code")
	ErrWeakPassword       = errors.New("password too short")
	ErrPasswordMismatch   = errors.New("passwords do not match")
	ErrInvalidToken       = errors.New("invalid or revoked session token")
)

// MinPasswordLength 密码最小长度
const MinPasswordLength = 6

var messages = map[error]string{
	ErrInvalidCredentials: "Email o contraseña incorrectos.",
	ErrEmailNotConfirmed:  "Email no confirmado. Por favor, revisa tu email y confirma tu cuenta antes de iniciar sesión.",
	ErrAlreadyRegistered:  "Este email ya está registrado. Inicia sesión o usa otro email.",
	ErrInactiveUser:       "Tu cuenta está desactivada. Contacta al administrador.",
	ErrInvalidCode:        "El código de verificación no es válido o ha caducado.",
	ErrWeakPassword:       "La contraseña debe tener al menos 6 caracteres.",
	ErrPasswordMismatch:   "Las contraseñas no coinciden.",
	ErrInvalidToken:       "Sesión no válida. Inicia sesión de nuevo.",
}

// Message 已知错误的用户提示；未知错误返回 false，由调用方决定是否暴露原始信息
func Message(err error) (string, bool) {
	for target, msg := range messages {
		if errors.Is(err, target) {
			return msg, true
		}
	}
	return "", false
}
