// Package viewer holds the identity of the person using Lectern.
//
// The session token lives in a dotenv file (LECTERN_TOKEN=...). Lectern does
// not verify the token; the API does. The claims are only read to show a
// name and to treat an expired token as signed out.
package viewer

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/joho/godotenv"
)

// TokenEnv is the variable holding the session token, both in the session
// file and in the process environment.
const TokenEnv = "LECTERN_TOKEN"

// Claims mirrors the claims issued by the platform.
type Claims struct {
	UID   string `json:"uid"`
	Email string `json:"email"`
	Name  string `json:"name"`

	jwt.StandardClaims
}

// Viewer is the explicitly passed viewer context.
type Viewer struct {
	Token     string
	UID       string
	Name      string
	ExpiresAt time.Time
}

// Anonymous returns a viewer without a session.
func Anonymous() Viewer {
	return Viewer{}
}

// FromToken builds a viewer from a session token. Opaque (non-JWT) tokens are
// accepted as a session without claims.
func FromToken(token string) Viewer {
	token = strings.TrimSpace(token)
	if token == "" {
		return Anonymous()
	}
	v := Viewer{Token: token}

	var claims Claims
	if _, _, err := new(jwt.Parser).ParseUnverified(token, &claims); err != nil {
		return v
	}
	v.UID = claims.UID
	if v.UID == "" {
		v.UID = claims.Subject
	}
	v.Name = claims.Name
	if claims.ExpiresAt > 0 {
		v.ExpiresAt = time.Unix(claims.ExpiresAt, 0)
	}
	return v
}

// Authenticated reports whether the viewer holds a live session.
func (v Viewer) Authenticated() bool {
	return v.AuthenticatedAt(time.Now())
}

// AuthenticatedAt reports whether the viewer holds a session that is live at now.
func (v Viewer) AuthenticatedAt(now time.Time) bool {
	if v.Token == "" {
		return false
	}
	return v.ExpiresAt.IsZero() || now.Before(v.ExpiresAt)
}

// DisplayName returns something printable for the header.
func (v Viewer) DisplayName() string {
	switch {
	case !v.Authenticated():
		return "guest"
	case v.Name != "":
		return v.Name
	case v.UID != "":
		return v.UID
	default:
		return "signed in"
	}
}

// Load reads the session file at path. LECTERN_TOKEN in the environment wins
// over the file. A missing file yields an anonymous viewer.
func Load(path string) (Viewer, error) {
	if env := strings.TrimSpace(os.Getenv(TokenEnv)); env != "" {
		return FromToken(env), nil
	}
	if strings.TrimSpace(path) == "" {
		return Anonymous(), nil
	}
	values, err := godotenv.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Anonymous(), nil
		}
		return Anonymous(), fmt.Errorf("read session: %w", err)
	}
	return FromToken(values[TokenEnv]), nil
}

// Save writes token to the session file at path, creating directories as needed.
func Save(path, token string) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("session path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	content, err := godotenv.Marshal(map[string]string{TokenEnv: strings.TrimSpace(token)})
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	// CreateTemp opens the file with mode 0600.
	tmp, err := os.CreateTemp(filepath.Dir(path), ".session-*")
	if err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.WriteString(content + "\n"); err != nil {
		tmp.Close()
		return fmt.Errorf("write session: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace session: %w", err)
	}
	return nil
}
