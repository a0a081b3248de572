package main

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/crucial707/mlregistry/internal/apiclient"
	"github.com/crucial707/mlregistry/internal/config"
	"github.com/crucial707/mlregistry/internal/logging"
	"github.com/crucial707/mlregistry/internal/middleware"
	"github.com/crucial707/mlregistry/internal/session"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

//go:embed templates
var templatesFS embed.FS

const cookieName = "mlreg_token"

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "err", err)
		os.Exit(1)
	}
	logger := logging.New(cfg.LogFormat, os.Stdout)
	slog.SetDefault(logger)

	client := apiclient.New(cfg.APIURL, "")
	connect := func(token string) Gateway { return client.WithToken(token) }

	srv := &http.Server{
		Addr:              ":" + cfg.WebPort,
		Handler:           newRouter(connect, cfg.TLSCertFile != ""),
		ReadHeaderTimeout: 10 * time.Second,
		ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("web UI running", "url", "http://localhost:"+cfg.WebPort, "api", cfg.APIURL)
		var err error
		if cfg.TLSCertFile != "" {
			err = srv.ListenAndServeTLS(cfg.TLSCertFile, cfg.TLSKeyFile)
		} else {
			err = srv.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("web server failed", "err", err)
			quit <- syscall.SIGTERM
		}
	}()

	<-quit
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("shutdown failed", "err", err)
	}
}

// newRouter wires the dashboard. connect returns a Gateway acting for a token; an empty token is
// only used to log in.
func newRouter(connect Connector, secureCookie bool) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestLog(slog.Default()))
	r.Use(middleware.SecurityHeaders(middleware.CSPDashboard, secureCookie))
	r.Use(middleware.MaxBytes(middleware.DefaultMaxBodyBytes))

	// Health (no auth, no templates)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	// Public
	r.Get("/login", loginForm)
	r.Post("/login", loginSubmit(connect, secureCookie))
	r.Get("/logout", logout)

	// Protected
	r.Group(func(r chi.Router) {
		r.Use(requireAuth(connect))
		r.Get("/", redirectDashboard)
		r.Get("/dashboard", dashboard)

		r.Get("/models", modelsList)
		r.Get("/models/new", modelCreateForm)
		r.Post("/models", modelCreate)
		r.Get("/models/{id}", modelDetail)
		r.Get("/models/{id}/edit", modelEditForm)
		r.Post("/models/{id}/edit", modelUpdate)
		r.Get("/models/{id}/delete", modelDeleteConfirm)
		r.Post("/models/{id}/delete", modelDelete)

		r.Get("/deployments", deploymentsList)
		r.Get("/deployments/new", deploymentCreateForm)
		r.Post("/deployments", deploymentCreate)
		r.Get("/deployments/{id}", deploymentDetail)
		r.Get("/deployments/{id}/edit", deploymentEditForm)
		r.Post("/deployments/{id}/edit", deploymentUpdate)
		r.Post("/deployments/{id}/start", deploymentStart)
		r.Post("/deployments/{id}/stop", deploymentStop)
		r.Post("/deployments/{id}/trigger", deploymentTrigger)
		r.Get("/deployments/{id}/delete", deploymentDeleteConfirm)
		r.Post("/deployments/{id}/delete", deploymentDelete)

		r.Get("/executions", executionsList)
		r.Get("/executions/{id}", executionDetail)
		r.Post("/executions/{id}/cancel", executionCancel)

		r.Get("/users", usersList)
		r.Get("/users/new", userCreateForm)
		r.Post("/users", userCreate)
		r.Get("/users/{id}/edit", userEditForm)
		r.Post("/users/{id}/edit", userUpdate)
		r.Get("/users/{id}/delete", userDeleteConfirm)
		r.Post("/users/{id}/delete", userDelete)
	})

	return r
}

// formatDuration returns a human-readable duration (e.g. "1m30s", "45s").
func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	if d < time.Second {
		return "0s"
	}
	return d.String()
}

// ==========================
// Session
// ==========================

type gatewayKey struct{}

func gatewayOf(r *http.Request) Gateway {
	return r.Context().Value(gatewayKey{}).(Gateway)
}

// requireAuth redirects to /login if the cookie is missing or if the API rejects the token.
// Otherwise the request carries the caller's Gateway and Session.
func requireAuth(connect Connector) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := r.Cookie(cookieName)
			if err != nil || token.Value == "" {
				http.Redirect(w, r, "/login?next="+url.QueryEscape(r.URL.Path), http.StatusFound)
				return
			}
			gw := connect(token.Value)
			me, err := gw.Me(r.Context())
			if err != nil {
				if apiclient.StatusOf(err) == http.StatusUnauthorized {
					clearAuthAndRedirectToLogin(w, r)
					return
				}
				slog.ErrorContext(r.Context(), "session lookup failed", "err", err)
				renderError(w, r, http.StatusBadGateway, "The registry API is unavailable.")
				return
			}
			s := session.Session{UserID: me.ID, Username: me.Username, Role: me.Role}
			ctx := session.NewContext(r.Context(), s)
			ctx = context.WithValue(ctx, gatewayKey{}, gw)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func redirectDashboard(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/dashboard", http.StatusFound)
}

func loginForm(w http.ResponseWriter, r *http.Request) {
	if _, err := r.Cookie(cookieName); err == nil {
		http.Redirect(w, r, "/dashboard", http.StatusFound)
		return
	}
	renderTemplate(w, r, http.StatusOK, "login.html", map[string]interface{}{"Next": r.URL.Query().Get("next"), "Username": ""})
}

func loginSubmit(connect Connector, secureCookie bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "bad form", http.StatusBadRequest)
			return
		}
		username := strings.TrimSpace(r.FormValue("username"))
		password := r.FormValue("password")
		next := safeNext(r.FormValue("next"))
		data := map[string]interface{}{"Username": username, "Next": next}

		if username == "" || password == "" {
			data["Error"] = "Username and password are required"
			renderTemplate(w, r, http.StatusBadRequest, "login.html", data)
			return
		}

		out, err := connect("").Login(r.Context(), username, password)
		if err != nil {
			status := apiclient.StatusOf(err)
			switch status {
			case http.StatusUnauthorized:
				data["Error"] = "Invalid username or password"
			case http.StatusForbidden:
				data["Error"] = "This account is inactive"
			case 0:
				slog.ErrorContext(r.Context(), "login failed", "err", err)
				data["Error"] = "Cannot reach the registry API"
				status = http.StatusBadGateway
			default:
				data["Error"] = err.Error()
			}
			renderTemplate(w, r, status, "login.html", data)
			return
		}

		http.SetCookie(w, &http.Cookie{
			Name:     cookieName,
			Value:    out.Token,
			Path:     "/",
			Expires:  out.ExpiresAt,
			HttpOnly: true,
			Secure:   secureCookie,
			SameSite: http.SameSiteLaxMode,
		})
		http.Redirect(w, r, next, http.StatusFound)
	}
}

// safeNext only follows local paths after login. Browsers treat a backslash as a slash, so
// "/\host" is protocol-relative too.
func safeNext(next string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.Contains(next, `\`) {
		return "/dashboard"
	}
	u, err := url.Parse(next)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return "/dashboard"
	}
	return next
}

func logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{Name: cookieName, Value: "", Path: "/", MaxAge: -1})
	http.Redirect(w, r, "/login", http.StatusFound)
}

// clearAuthAndRedirectToLogin clears the token cookie and redirects to login with next=current path.
// Call when the API returns 401 (expired or invalid token) so the user can sign in again.
func clearAuthAndRedirectToLogin(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{Name: cookieName, Value: "", Path: "/", MaxAge: -1})
	next := r.URL.Path
	if r.URL.RawQuery != "" {
		next += "?" + r.URL.RawQuery
	}
	http.Redirect(w, r, "/login?next="+url.QueryEscape(next), http.StatusFound)
}

// ==========================
// Rendering
// ==========================

var templateFuncs = template.FuncMap{
	"fmtTime": func(t interface{}) string {
		switch v := t.(type) {
		case time.Time:
			if v.IsZero() {
				return "-"
			}
			return v.Format("2006-01-02 15:04")
		case *time.Time:
			if v == nil || v.IsZero() {
				return "-"
			}
			return v.Format("2006-01-02 15:04")
		}
		return "-"
	},
	"deref": func(s *string) string {
		if s == nil {
			return ""
		}
		return *s
	},
	"join":           func(items []string) string { return strings.Join(items, ", ") },
	"formatDuration": formatDuration,
	"title": func(s string) string {
		s = strings.ReplaceAll(s, "_", " ")
		if s == "" {
			return s
		}
		return strings.ToUpper(s[:1]) + s[1:]
	},
}

// renderTemplate executes templates/<name> inside the layout. data is extended with the caller's
// Session, the current path and the flash message carried in ?msg=.
func renderTemplate(w http.ResponseWriter, r *http.Request, status int, name string, data map[string]interface{}) {
	if data == nil {
		data = map[string]interface{}{}
	}
	data["Session"] = session.FromContext(r.Context())
	data["Path"] = r.URL.Path
	if _, ok := data["Flash"]; !ok {
		data["Flash"] = r.URL.Query().Get("msg")
	}

	t, err := template.New("layout.html").Funcs(templateFuncs).ParseFS(templatesFS, "templates/layout.html", "templates/"+name)
	if err != nil {
		slog.ErrorContext(r.Context(), "template parse", "template", name, "err", err)
		http.Error(w, "template not found", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := t.ExecuteTemplate(w, "layout.html", data); err != nil {
		slog.ErrorContext(r.Context(), "template execute", "template", name, "err", err)
	}
}

func renderError(w http.ResponseWriter, r *http.Request, status int, message string) {
	renderTemplate(w, r, status, "error.html", map[string]interface{}{
		"Title":   http.StatusText(status),
		"Status":  status,
		"Message": message,
	})
}

// apiFailure turns a Gateway error into a page: 401 goes back to login, 403 and 404 get their own
// message, anything else is logged.
func apiFailure(w http.ResponseWriter, r *http.Request, err error) {
	switch apiclient.StatusOf(err) {
	case http.StatusUnauthorized:
		clearAuthAndRedirectToLogin(w, r)
	case http.StatusForbidden:
		renderError(w, r, http.StatusForbidden, "Your role does not allow this action.")
	case http.StatusNotFound:
		renderError(w, r, http.StatusNotFound, "The requested record does not exist.")
	case http.StatusConflict:
		renderError(w, r, http.StatusConflict, apiMessage(err))
	default:
		slog.ErrorContext(r.Context(), "api call failed", "path", r.URL.Path, "err", err)
		renderError(w, r, http.StatusBadGateway, "The registry API is unavailable.")
	}
}

// isFormError reports whether err should be shown on the submitted form instead of an error page.
func isFormError(err error) bool {
	s := apiclient.StatusOf(err)
	return s == http.StatusBadRequest || s == http.StatusConflict || s == http.StatusRequestEntityTooLarge
}

func apiMessage(err error) string {
	var apiErr *apiclient.Error
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return err.Error()
}

func apiFields(err error) map[string]string {
	var apiErr *apiclient.Error
	if errors.As(err, &apiErr) {
		return apiErr.Fields
	}
	return nil
}

func redirectWithMessage(w http.ResponseWriter, r *http.Request, path, msg string) {
	http.Redirect(w, r, path+"?msg="+url.QueryEscape(msg), http.StatusFound)
}

func pathID(r *http.Request) (int, error) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", chi.URLParam(r, "id"))
	}
	return id, nil
}
