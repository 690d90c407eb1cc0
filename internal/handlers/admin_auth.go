package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/magfest/uber/internal/config"
	"github.com/magfest/uber/internal/db"
	"github.com/magfest/uber/internal/services"
)

const adminCookieName = "admin_session"

// Admin is the logged-in admin of a request.
type Admin struct {
	AccountID string
	Name      string
	Access    map[int]bool
}

type adminKey struct{}

// AdminFrom returns the admin RequireAdmin put on ctx.
func AdminFrom(ctx context.Context) (*Admin, bool) {
	a, ok := ctx.Value(adminKey{}).(*Admin)
	return a, ok
}

func signAdminToken(accountID string, now time.Time, cfg config.AuthConfig) (string, error) {
	claims := jwt.RegisteredClaims{
		Subject:   accountID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(cfg.SessionMaxAge)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.SecretKey))
}

// parseAdminToken returns the account id a valid token was issued for.
func parseAdminToken(token string, now time.Time, cfg config.AuthConfig) (string, error) {
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(token, &claims,
		func(*jwt.Token) (any, error) { return []byte(cfg.SecretKey), nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)
	if err != nil {
		return "", err
	}
	if claims.Subject == "" {
		return "", errors.New("admin token has no subject")
	}
	return claims.Subject, nil
}

// RequireAdmin refuses requests without a valid admin cookie. Changes made
// further down the chain are recorded in the audit log under the admin's
// name.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := r.Cookie(adminCookieName)
		if err != nil {
			writeJSON(w, http.StatusUnauthorized, Flash{Kind: "error", Text: "Login required"})
			return
		}
		id, err := parseAdminToken(c.Value, config.Now(), config.Get().Auth)
		if err != nil {
			writeJSON(w, http.StatusUnauthorized, Flash{Kind: "error", Text: "Login required"})
			return
		}

		admin := &Admin{AccountID: id}
		err = db.Do(r.Context(), func(s *db.Session) error {
			a, err := services.AdminAttendee(s, id)
			if err != nil {
				return err
			}
			admin.Name = a.FullName()
			admin.Access = services.AccessSet(s, id)
			return nil
		})
		if err != nil {
			writeJSON(w, http.StatusUnauthorized, Flash{Kind: "error", Text: "Login required"})
			return
		}

		ctx := context.WithValue(r.Context(), adminKey{}, admin)
		ctx = db.ContextWithWho(ctx, admin.Name)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAccess refuses admins without the access level. It must run
// after RequireAdmin.
func RequireAccess(level int) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if a, ok := AdminFrom(r.Context()); !ok || !a.Access[level] {
				label, _ := config.AccessOpts.Label(level)
				writeJSON(w, http.StatusForbidden, Flash{Kind: "error", Text: "You do not have access to " + label})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// POST /admin/login
func AdminLoginSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		badRequest(w, err.Error())
		return
	}
	var accountID string
	err := db.Do(r.Context(), func(s *db.Session) error {
		acct, err := services.CheckPassword(s, r.FormValue("email"), r.FormValue("password"))
		if err != nil {
			return err
		}
		accountID = acct.ID
		return nil
	})
	if errors.Is(err, services.ErrBadLogin) {
		writeJSON(w, http.StatusUnauthorized, Flash{Kind: "error", Text: services.ErrBadLogin.Message})
		return
	}
	if err != nil {
		fail(w, r, err)
		return
	}

	cfg := config.Get().Auth
	now := config.Now()
	token, err := signAdminToken(accountID, now, cfg)
	if err != nil {
		fail(w, r, err)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     adminCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Expires:  now.Add(cfg.SessionMaxAge),
	})
	ok(w, "Logged in")
}

// POST /admin/logout
func AdminLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     adminCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
	})
	ok(w, "Logged out")
}
