package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/codes"

	"github.com/vukovx/fitlog/internal/telemetry/tracing"
	"github.com/vukovx/fitlog/pkg"
)

type usersCreator interface {
	Create(ctx context.Context, email, passwordHash string) (*User, error)
}

type Handler struct {
	authService *Service
	users       usersCreator
}

func NewHandler(authService *Service, users usersCreator) *Handler {
	return &Handler{
		authService: authService,
		users:       users,
	}
}

func (handler *Handler) SetupRoutes(mainRouter *mux.Router, rateLimit mux.MiddlewareFunc) {
	authSubrouter := mainRouter.NewRoute().Subrouter()
	authSubrouter.HandleFunc("/register", handler.handleRegister).Methods("POST", "OPTIONS").Name("register")
	authSubrouter.HandleFunc("/login", handler.handleLogin).Methods("POST", "OPTIONS").Name("login")

	// rate limit register and login to slow down brute force attempts
	authSubrouter.Use(rateLimit)

	mainRouter.HandleFunc("/logout", handler.handleLogout).Methods("GET", "POST", "OPTIONS").Name("logout")
}

func (handler *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "authHandler.register")
	defer span.End()

	var creds Credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		log.Errorf("register, unmarshal json params: %s", err)
		pkg.WriteJSONError(w, "invalid request", http.StatusBadRequest)
		span.SetStatus(codes.Error, "invalid-json")
		return
	}

	if creds.Email == "" || creds.Password == "" {
		pkg.WriteJSONError(w, "email and password are required", http.StatusBadRequest)
		span.SetStatus(codes.Error, "missing-fields")
		return
	}

	passwordHash, err := pkg.HashPassword(creds.Password)
	if err != nil {
		log.Errorf("register, hash password: %s", err)
		pkg.WriteJSONError(w, "internal server error", http.StatusInternalServerError)
		span.SetStatus(codes.Error, "hash-password")
		return
	}

	user, err := handler.users.Create(ctx, creds.Email, passwordHash)
	if err != nil {
		if errors.Is(err, ErrEmailTaken) {
			pkg.WriteJSONError(w, "email already registered", http.StatusBadRequest)
			span.SetStatus(codes.Error, "email-taken")
			return
		}
		log.Errorf("register, create user: %s", err)
		pkg.WriteJSONError(w, "internal server error", http.StatusInternalServerError)
		span.SetStatus(codes.Error, "create-user")
		span.RecordError(err)
		return
	}

	log.Tracef("new user registered: %d", user.ID)

	userJson, err := json.Marshal(user)
	if err != nil {
		log.Errorf("register, marshal user: %s", err)
		pkg.WriteJSONError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	span.SetStatus(codes.Ok, "ok")
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, userJson, http.StatusCreated)
}

func (handler *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "authHandler.login")
	defer span.End()

	var creds Credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		log.Errorf("login, unmarshal json params: %s", err)
		pkg.WriteJSONError(w, "login failed", http.StatusBadRequest)
		span.SetStatus(codes.Error, "invalid-json")
		return
	}

	if creds.Email == "" || creds.Password == "" {
		pkg.WriteJSONError(w, "email and password are required", http.StatusBadRequest)
		span.SetStatus(codes.Error, "missing-fields")
		return
	}

	token, user, err := handler.authService.Login(ctx, creds, time.Now())
	if err != nil {
		if errors.Is(err, ErrWrongCredentials) {
			log.Tracef("failed login attempt for: %s", creds.Email)
			pkg.WriteJSONError(w, "wrong credentials", http.StatusBadRequest)
			span.SetStatus(codes.Error, "wrong-credentials")
			return
		}
		log.Errorf("login failed: %s", err)
		pkg.WriteJSONError(w, "internal server error", http.StatusInternalServerError)
		span.SetStatus(codes.Error, "login-err")
		span.RecordError(err)
		return
	}

	log.Tracef("new login success: %d", user.ID)

	userJson, err := json.Marshal(user)
	if err != nil {
		log.Errorf("login, marshal user: %s", err)
		pkg.WriteJSONError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	span.SetStatus(codes.Ok, "ok")
	pkg.WriteJSONResponseOK(w, fmt.Sprintf(`{"token":%q,"user":%s}`, token, userJson))
}

func (handler *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "authHandler.logout")
	defer span.End()

	token := r.Header.Get("X-FITLOG-TOKEN")
	if token == "" {
		pkg.WriteJSONError(w, "unauthorized", http.StatusUnauthorized)
		span.SetStatus(codes.Error, "missing-auth-token")
		return
	}

	if err := handler.authService.Logout(ctx, token); err != nil {
		log.Tracef("logout failed for token: %s", err)
		pkg.WriteJSONError(w, "unauthorized", http.StatusUnauthorized)
		span.SetStatus(codes.Error, "logout-err")
		return
	}

	span.SetStatus(codes.Ok, "ok")
	pkg.WriteJSONResponseOK(w, `{"message":"logged out"}`)
}
