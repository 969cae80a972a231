// Package ui is the server-rendered front end for the prediction flow: the
// start page, the per-step flow screen, and the finished-flow summary. It
// reads only the derived values the flow session exposes.
package ui

import (
	"embed"
	"fmt"
	"html/template"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gomarkdown/markdown"

	"flowcast/app"
	"flowcast/ports"
)

//go:embed templates/* static/*
var embeddedFiles embed.FS

// App represents the UI application
type App struct {
	router    *chi.Mux
	flows     *app.FlowService
	posts     ports.PostRepository
	sessions  ports.FlowSessionRepository
	templates *template.Template
}

// Config holds UI application configuration
type Config struct {
	Port string
}

// NewApp creates a new UI application
func NewApp(config Config, flows *app.FlowService, posts ports.PostRepository, sessions ports.FlowSessionRepository) (*App, error) {
	funcMap := template.FuncMap{
		"add": func(a, b int) int { return a + b },
		"markdown": func(src string) template.HTML {
			if src == "" {
				return ""
			}
			return template.HTML(markdown.ToHTML([]byte(src), nil, nil))
		},
		"pct": func(v float64) string {
			return fmt.Sprintf("%.0f%%", v*100)
		},
	}
	templates, err := template.New("").Funcs(funcMap).ParseFS(embeddedFiles, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	a := &App{
		router:    chi.NewRouter(),
		flows:     flows,
		posts:     posts,
		sessions:  sessions,
		templates: templates,
	}

	a.setupMiddleware()
	a.setupRoutes()

	return a, nil
}

// setupMiddleware configures HTTP middleware
func (a *App) setupMiddleware() {
	a.router.Use(middleware.Logger)
	a.router.Use(middleware.Recoverer)
	a.router.Use(middleware.Compress(5))

	staticFS := http.FileServer(http.FS(embeddedFiles))
	a.router.Handle("/static/*", staticFS)
}

// setupRoutes configures the application routes
func (a *App) setupRoutes() {
	a.router.Get("/", a.handleIndex)

	a.router.Post("/flows", a.handleStartFlow)
	a.router.Get("/flows/{id}", a.handleFlow)
	a.router.Post("/flows/{id}/next", a.handleNext)
	a.router.Post("/flows/{id}/previous", a.handlePrevious)
	a.router.Post("/flows/{id}/select", a.handleSelectStep)
	a.router.Post("/flows/{id}/submit", a.handleSubmit)
	a.router.Post("/flows/{id}/menu", a.handleMenu)
	a.router.Post("/flows/{id}/review-skipped", a.handleReviewSkipped)
	a.router.Post("/flows/{id}/end", a.handleEndFlow)
	a.router.Get("/flows/{id}/export", a.handleExport)
}

// Start runs the HTTP server
func (a *App) Start(addr string) error {
	return http.ListenAndServe(addr, a.router)
}

// Router exposes the chi mux for tests.
func (a *App) Router() *chi.Mux {
	return a.router
}

// render executes a template and reports template errors as 500s.
func (a *App) render(w http.ResponseWriter, name string, data interface{}) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := a.templates.ExecuteTemplate(w, name, data); err != nil {
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
	}
}
