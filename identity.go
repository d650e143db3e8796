package fitpress

import (
	"crypto/subtle"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

const (
	sessionName = "admin_session"

	// RoleAdmin is the only role the built-in identity provider grants.
	RoleAdmin = "admin"
)

// User is a signed-in account.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// adminUser derives a stable user id from the configured admin email so
// author_id survives restarts and secret rotation.
func adminUser(email string) User {
	email = strings.ToLower(strings.TrimSpace(email))
	return User{
		ID:    uuid.NewSHA1(uuid.NameSpaceURL, []byte("mailto:"+email)).String(),
		Email: email,
		Role:  RoleAdmin,
	}
}

// checkCredentials compares both fields in constant time.
func (a *App) checkCredentials(email, password string) bool {
	wantEmail := strings.ToLower(strings.TrimSpace(a.Config.AdminEmail))
	gotEmail := strings.ToLower(strings.TrimSpace(email))
	emailOK := subtle.ConstantTimeCompare([]byte(gotEmail), []byte(wantEmail))
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(a.Config.AdminPassword))
	return emailOK&passOK == 1
}

// SignIn checks the credentials and, when they match, stores the admin user
// in the session.
func (a *App) SignIn(c echo.Context, email, password string) (User, bool, error) {
	if !a.checkCredentials(email, password) {
		return User{}, false, nil
	}
	u := adminUser(a.Config.AdminEmail)
	sess, err := session.Get(sessionName, c)
	if err != nil {
		return User{}, false, err
	}
	sess.Values["user_id"] = u.ID
	sess.Values["email"] = u.Email
	sess.Values["role"] = u.Role
	if err := sess.Save(c.Request(), c.Response()); err != nil {
		return User{}, false, err
	}
	return u, true, nil
}

// SignOut expires the session cookie.
func SignOut(c echo.Context) error {
	sess, err := session.Get(sessionName, c)
	if err != nil {
		return err
	}
	sess.Values = map[any]any{}
	sess.Options.MaxAge = -1
	return sess.Save(c.Request(), c.Response())
}

// CurrentUser returns the signed-in user, if any.
func CurrentUser(c echo.Context) (User, bool) {
	sess, err := session.Get(sessionName, c)
	if err != nil {
		return User{}, false
	}
	id, _ := sess.Values["user_id"].(string)
	if id == "" {
		return User{}, false
	}
	email, _ := sess.Values["email"].(string)
	role, _ := sess.Values["role"].(string)
	return User{ID: id, Email: email, Role: role}, true
}

// IsAdmin checks if the current session belongs to an admin.
func IsAdmin(c echo.Context) bool {
	u, ok := CurrentUser(c)
	return ok && u.Role == RoleAdmin
}

// CsrfToken extracts the CSRF token from the Echo context.
func CsrfToken(c echo.Context) string {
	token, _ := c.Get(middleware.DefaultCSRFConfig.ContextKey).(string)
	return token
}
