package handler

import (
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/wartactics/server/internal/net"
)

const maxLoginAttempts = 3

// HashPassword returns the bcrypt hash stored in the terminal config.
func HashPassword(raw string, cost int) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(raw), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Greet welcomes a new terminal. Without a configured password the session
// is authenticated immediately.
func Greet(sess *net.Session, deps *Deps) {
	sess.Send("WARTACTICS command terminal")
	if deps.PasswordHash == "" {
		sess.Authed = true
		sess.Send("Type 'help' for commands.")
		return
	}
	sess.Send("Password:")
}

func handleLogin(sess *net.Session, password string, deps *Deps) {
	if bcrypt.CompareHashAndPassword([]byte(deps.PasswordHash), []byte(password)) == nil {
		sess.Authed = true
		deps.Log.Info("terminal authenticated", zap.Uint64("session", sess.ID), zap.String("ip", sess.IP))
		sess.Send("Access granted. Type 'help' for commands.")
		return
	}

	sess.Attempts++
	deps.Log.Warn("terminal login failed",
		zap.Uint64("session", sess.ID),
		zap.String("ip", sess.IP),
		zap.Int("attempts", sess.Attempts))
	if sess.Attempts >= maxLoginAttempts {
		sess.Send("Access denied.")
		sess.FlushOutput()
		sess.Close()
		return
	}
	sess.Send("Access denied. Password:")
}
