package echoapi

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/sessions"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/access"
	"github.com/trezcool/shule/core/user"
	sessionsvc "github.com/trezcool/shule/services/session"
)

const (
	contextIdentityKey  = "identity"
	contextSessionIDKey = "sessionID"

	sessionUserIDKey = "user_id"
	sessionRoleKey   = "role"

	bearerPrefix = "Bearer "
)

// Claims represents the authorization claims transmitted via a JWT.
// The token ID (jti) names the server-side session, so the token dies with it.
type Claims struct {
	jwt.RegisteredClaims
	Role user.Role `json:"role,omitempty"`
}

type tokenManager struct {
	key    []byte
	issuer string
	ttl    time.Duration
}

func (tm tokenManager) generate(usr user.User, sessionID string) (string, error) {
	now := time.Now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tm.issuer,
			Subject:   strconv.Itoa(usr.ID),
			ID:        sessionID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tm.ttl)),
		},
		Role: usr.Role,
	}
	ss, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(tm.key)
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

func (tm tokenManager) parse(tokenStr string) (*Claims, error) {
	claims := new(Claims)
	_, err := jwt.ParseWithClaims(
		tokenStr,
		claims,
		func(*jwt.Token) (interface{}, error) { return tm.key, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tm.issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, err
	}
	return claims, nil
}

type authApi struct {
	svc        *user.Service
	sessions   *sessionsvc.MemStore
	validate   *validator.Validate
	tokens     tokenManager
	cookieName string
}

func newAuthApi(conf *core.Config, svc *user.Service, store *sessionsvc.MemStore, validate *validator.Validate) *authApi {
	return &authApi{
		svc:      svc,
		sessions: store,
		validate: validate,
		tokens: tokenManager{
			key:    []byte(conf.SecretKey),
			issuer: conf.AppName,
			ttl:    conf.Server.SessionMaxAge,
		},
		cookieName: conf.Server.SessionCookie,
	}
}

// identify resolves the caller from the bearer token, then from the session cookie.
// It never rejects a request; access checks do that.
func (api *authApi) identify(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		if id, sid, ok := api.identityFromToken(ctx.Request()); ok {
			setContextIdentity(ctx, id, sid)
		} else if id, sid, ok := api.identityFromCookie(ctx.Request()); ok {
			setContextIdentity(ctx, id, sid)
		}
		return next(ctx)
	}
}

func (api *authApi) identityFromToken(r *http.Request) (*access.Identity, string, bool) {
	header := r.Header.Get(echo.HeaderAuthorization)
	if !strings.HasPrefix(header, bearerPrefix) {
		return nil, "", false
	}
	claims, err := api.tokens.parse(strings.TrimPrefix(header, bearerPrefix))
	if err != nil || claims.ID == "" {
		return nil, "", false
	}
	values, ok := api.sessions.Load(claims.ID)
	if !ok {
		return nil, "", false
	}
	id, ok := identityFromValues(values)
	if !ok || strconv.Itoa(id.UserID) != claims.Subject {
		return nil, "", false
	}
	return id, claims.ID, true
}

func (api *authApi) identityFromCookie(r *http.Request) (*access.Identity, string, bool) {
	session, err := api.sessions.Get(r, api.cookieName)
	if err != nil || session.IsNew {
		return nil, "", false
	}
	id, ok := identityFromValues(session.Values)
	if !ok {
		return nil, "", false
	}
	return id, session.ID, true
}

func identityFromValues(values map[interface{}]interface{}) (*access.Identity, bool) {
	uid, ok := values[sessionUserIDKey].(int)
	if !ok {
		return nil, false
	}
	role, ok := values[sessionRoleKey].(string)
	if !ok {
		return nil, false
	}
	return &access.Identity{UserID: uid, Role: user.Role(role)}, true
}

func setContextIdentity(ctx echo.Context, id *access.Identity, sessionID string) {
	ctx.Set(contextIdentityKey, id)
	ctx.Set(contextSessionIDKey, sessionID)
}

func getContextIdentity(ctx echo.Context) *access.Identity {
	id, _ := ctx.Get(contextIdentityKey).(*access.Identity)
	return id
}

func getContextSessionID(ctx echo.Context) string {
	sid, _ := ctx.Get(contextSessionIDKey).(string)
	return sid
}

func (api *authApi) authenticate(ctx echo.Context, uname, pwd string) (user.User, error) {
	usr, err := api.svc.GetByUsername(ctx.Request().Context(), uname)
	if err != nil {
		if err == user.ErrNotFound {
			return user.User{}, errAuthenticationFailed
		}
		return user.User{}, errors.Wrap(err, "finding user by username")
	}
	if err = usr.CheckPassword(pwd); err != nil {
		return user.User{}, errAuthenticationFailed
	}
	return usr, nil
}

// Handlers

func (api *authApi) login(ctx echo.Context) error {
	var data LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	usr, err := api.authenticate(ctx, data.Username, data.Password)
	if err != nil {
		return err
	}

	// never reuse a session across logins
	if sid := getContextSessionID(ctx); sid != "" {
		api.sessions.Erase(sid)
	}
	session, err := api.sessions.New(ctx.Request(), api.cookieName)
	if err != nil {
		return errors.Wrap(err, "creating session")
	}
	if !session.IsNew {
		api.sessions.Erase(session.ID)
		session.ID = ""
		session.Values = make(map[interface{}]interface{})
	}
	session.Values[sessionUserIDKey] = usr.ID
	session.Values[sessionRoleKey] = string(usr.Role)
	if err = api.sessions.Save(ctx.Request(), ctx.Response(), session); err != nil {
		return errors.Wrap(err, "saving session")
	}

	token, err := api.tokens.generate(usr, session.ID)
	if err != nil {
		return errors.Wrap(err, "generating token")
	}
	return ctx.JSON(http.StatusOK, LoginResponse{Token: token, User: usr})
}

func (api *authApi) logout(ctx echo.Context) error {
	if sid := getContextSessionID(ctx); sid != "" {
		api.sessions.Erase(sid)
	}
	opts := *api.sessions.Options
	opts.MaxAge = -1
	http.SetCookie(ctx.Response(), sessions.NewCookie(api.cookieName, "", &opts))

	return ctx.JSON(http.StatusOK, SuccessResponse{Success: "logged out"})
}

func (api *authApi) currentUser(ctx echo.Context) error {
	id := getContextIdentity(ctx)
	if id == nil {
		return access.ErrUnauthenticated
	}
	usr, err := api.svc.GetByID(ctx.Request().Context(), id.UserID)
	if err != nil {
		if err == user.ErrNotFound {
			return access.ErrUnauthenticated
		}
		return errors.Wrap(err, "finding user by ID")
	}
	return ctx.JSON(http.StatusOK, usr)
}
