package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Simplici0/stonequote/internal/catalog"
	"github.com/Simplici0/stonequote/internal/config"
	"github.com/Simplici0/stonequote/internal/db"
	"github.com/Simplici0/stonequote/internal/document"
	"github.com/Simplici0/stonequote/internal/logging"
	"github.com/Simplici0/stonequote/internal/migrations"
	"github.com/Simplici0/stonequote/internal/order"
	"github.com/Simplici0/stonequote/internal/quote"
	"github.com/Simplici0/stonequote/internal/seed"
)

const (
	maxBodyBytes    = 1 << 20
	shutdownTimeout = 10 * time.Second
)

type server struct {
	auth      *authService
	db        *sql.DB
	logger    *zap.Logger
	catalog   *catalog.Store
	quotes    *quote.Service
	orders    *order.Store
	company   document.Company
	templates templates
	now       func() time.Time
}

func newServer(database *sql.DB, logger *zap.Logger, cfg config.Config) (*server, error) {
	tmpl, err := parseTemplates()
	if err != nil {
		return nil, err
	}
	cat := catalog.NewStore(database)
	return &server{
		auth:    newAuthService(database, cfg.SessionSecret),
		db:      database,
		logger:  logger,
		catalog: cat,
		quotes:  quote.NewService(quote.NewStore(database), cat),
		orders:  order.NewStore(database),
		company: document.Company{
			Name:    cfg.Company.Name,
			Tagline: cfg.Company.Tagline,
			Phone:   cfg.Company.Phone,
			Email:   cfg.Company.Email,
		},
		templates: tmpl,
		now:       time.Now,
	}, nil
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "server: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.Load()

	logger, err := logging.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	for _, w := range cfg.Warnings() {
		logger.Warn(w)
	}
	if cfg.SessionSecret == "" {
		// Sessions will not survive a restart.
		cfg.SessionSecret = uuid.NewString()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer database.Close()

	if cfg.IsDev() {
		applied, err := migrations.Up(ctx, database)
		if err != nil {
			return fmt.Errorf("run database migrations: %w", err)
		}
		logger.Info("migrations applied", zap.Int("count", applied))
	}

	stats, err := seed.Run(ctx, database, seed.Config{
		AdminEmail:    cfg.AdminEmail,
		AdminPassword: cfg.AdminPassword,
	})
	if err != nil {
		return fmt.Errorf("seed database: %w", err)
	}
	logger.Info("seed complete", zap.Int("inserts", stats.Inserts), zap.Int("updates", stats.Updates))

	srv, err := newServer(database, logger, cfg)
	if err != nil {
		return err
	}
	pdfLimit, err := newRateLimit(cfg.PDFRateLimit)
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.routes(pdfLimit),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", httpServer.Addr), zap.String("env", cfg.Env))
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server stopped: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func (s *server) routes(pdfLimit func(http.Handler) http.Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(requestID)
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Get("/login", s.handleLoginForm)
	r.Post("/login", s.handleLoginSubmit)
	r.Post("/logout", s.handleLogout)

	r.Group(func(r chi.Router) {
		r.Use(s.requireUser)

		r.Get("/", s.handleHome)
		r.Get("/quotes", s.handleQuotesList)
		r.Post("/quotes", s.handleQuoteCreate)
		r.With(pdfLimit).Get("/quotes/pdf", s.handleQuotePDF)
		r.With(pdfLimit).Post("/quotes/pdf", s.handleQuotePDFPreview)
		r.Get("/quotes/{id}/preview", s.handleQuotePreview)
		r.Get("/quotes/{id}/text", s.handleQuoteText)
		r.Put("/quotes/{id}/items", s.handleQuoteItemsReplace)
		r.Post("/quotes/{id}/status", s.handleQuoteStatus)
		r.Post("/quotes/{id}/convert", s.handleQuoteConvert)
		r.Delete("/quotes/{id}", s.handleQuoteDelete)

		r.Get("/catalog/products/{type}", s.handleProductsList)
		r.Get("/catalog/colors", s.handleColorsList)
		r.Get("/catalog/special-monuments", s.handleSpecialMonumentsList)

		r.Get("/orders/{id}", s.handleOrderGet)
		r.Post("/orders/{id}/status", s.handleOrderStatus)
		r.Post("/orders/items/{id}/status", s.handleOrderItemStatus)
		r.With(pdfLimit).Post("/orders/draft.pdf", s.handleDraftPDF)

		r.Route("/admin", func(r chi.Router) {
			r.Use(s.requireAdmin)
			r.Get("/products/{type}", s.handleProductsList)
			r.Post("/products/markup", s.handleGlobalMarkup)
			r.Post("/products/{type}/{id}", s.handleProductPricing)
		})
	})

	return r
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.db.PingContext(r.Context()); err != nil {
		s.logger.Error("health check failed", zap.Error(err))
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *server) handleHome(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/quotes", http.StatusSeeOther)
}

func (s *server) handleLoginForm(w http.ResponseWriter, r *http.Request) {
	if _, ok, _ := s.auth.currentUser(r); ok {
		http.Redirect(w, r, "/quotes", http.StatusSeeOther)
		return
	}
	s.renderTemplate(w, r, http.StatusOK, "login.html", loginViewData{})
}

func (s *server) handleLoginSubmit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid form")
		return
	}

	email := r.FormValue("email")
	u, err := s.auth.authenticate(r.Context(), email, r.FormValue("password"))
	if errors.Is(err, errInvalidCredentials) {
		s.renderTemplate(w, r, http.StatusUnauthorized, "login.html", loginViewData{
			baseViewData: baseViewData{ErrorMessage: "Invalid email or password."},
			Email:        email,
		})
		return
	}
	if err != nil {
		s.internalError(w, r, "authentication error", err)
		return
	}

	s.auth.setSessionCookie(w, u.Email)
	http.Redirect(w, r, "/quotes", http.StatusSeeOther)
}

func (s *server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.auth.clearSessionCookie(w)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}
