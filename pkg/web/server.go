package web

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/liut/tutoria/pkg/models/audits"
	"github.com/liut/tutoria/pkg/models/convo"
	"github.com/liut/tutoria/pkg/services/runner"
	"github.com/liut/tutoria/pkg/services/stores"
	"github.com/liut/tutoria/pkg/settings"
)

type Service interface {
	Serve(ctx context.Context) error
	Stop(ctx context.Context) error
}

// Auditor records one conversation line into durable audit storage.
type Auditor interface {
	Write(ctx context.Context, sid, role, content string) error
}

type Config struct {
	Addr  string
	Debug bool

	// optional overrides, mainly for tests
	Runner   runner.Runner
	Sessions stores.Sessions
	Auditor  Auditor
}

type server struct {
	Addr string
	cfg  Config

	ar *chi.Mux     // app router
	hs *http.Server // http server

	rn       runner.Runner
	sessions stores.Sessions
	auditor  Auditor
	preset   convo.Preset
}

// New return new web server
func New(cfg Config) Service {
	ar := chi.NewMux()
	if cfg.Debug {
		ar.Use(middleware.Logger)
	}
	ar.Use(middleware.Recoverer, middleware.RealIP)
	ar.Use(corsMw)

	s := &server{
		Addr: cfg.Addr, ar: ar,
		cfg:      cfg,
		rn:       cfg.Runner,
		sessions: cfg.Sessions,
		auditor:  cfg.Auditor,
	}

	var err error
	s.preset, err = stores.LoadPreset()
	if err == nil && s.preset.Welcome != nil {
		logger().Infow("loaded preset", "welcome", s.preset.Welcome.Content)
	}

	if s.sessions == nil {
		s.sessions = stores.NewSessions()
	}
	withPg := len(settings.Current.PgStoreDSN) > 0
	if s.auditor == nil && withPg {
		s.auditor = NewPgAuditor()
	}
	if s.rn == nil {
		rcfg := runner.Config{
			Model:        settings.Current.ChatModel,
			Instructions: s.preset.SystemPrompt,
			Temperature:  s.preset.Temperature,
			MaxTokens:    s.preset.MaxTokens,
		}
		if len(s.preset.Model) > 0 {
			rcfg.Model = s.preset.Model
		}
		if withPg {
			rcfg.Retriever = stores.Sgt().Kb()
		}
		s.rn = runner.New(rcfg, stores.NewOpenAIClient())
	}

	s.strapRouter()

	s.hs = &http.Server{
		Addr:    s.Addr,
		Handler: s.ar,
	}

	if cfg.Debug {
		logger().Infow("routes:")
		walkFunc := func(method string, route string, handler http.Handler, middlewares ...func(http.Handler) http.Handler) error {
			route = strings.Replace(route, "/*/", "/", -1)
			fmt.Fprintf(os.Stderr, "DEBUG: %-6s %-24s --> %s (%d mw)\n", method, route, nameOfFunction(handler), len(middlewares))
			return nil
		}

		if err := chi.Walk(ar, walkFunc); err != nil {
			logger().Infow("router walk fail", "err", err)
		}
	}
	return s
}

func (s *server) Serve(ctx context.Context) error {
	// Run HTTP server
	runErrChan := make(chan error)
	t := time.AfterFunc(time.Millisecond*200, func() {
		runErrChan <- s.hs.ListenAndServe()
	})

	defer t.Stop()
	logger().Infow("Listen on", "addr", s.hs.Addr)

	// Wait
	for {
		select {
		case runErr := <-runErrChan:
			if runErr != nil {
				logger().Infow("run http server failed",
					"err", runErr,
				)
				return runErr
			}
		case <-ctx.Done():
			logger().Info("http server has been stopped")
			return ctx.Err()
		}
	}
}

func (s *server) Stop(ctx context.Context) error {
	if err := s.hs.Shutdown(ctx); err != nil {
		logger().Fatalw("Server Shutdown", "err", err)
		return err
	}
	return nil
}

// NewPgAuditor writes audit lines into the chat_logs table.
func NewPgAuditor() Auditor {
	return &pgAuditor{sto: stores.Sgt()}
}

type pgAuditor struct {
	sto stores.Storage
}

func (a *pgAuditor) Write(ctx context.Context, sid, role, content string) error {
	_, err := a.sto.Audit().CreateRecord(ctx, audits.RecordBasic{
		SessionID: sid,
		Role:      role,
		Content:   content,
	})
	return err
}
