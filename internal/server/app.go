package server

import (
	_ "embed"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/trace"

	"wonderfulgo/internal/config"
	"wonderfulgo/internal/gemini"
	"wonderfulgo/internal/planner"
)

//go:embed web/index.html
var indexPage []byte

type App struct {
	cfg      config.Config
	invoker  *gemini.Invoker
	keywords planner.Keywords
	// nil means the global provider.
	tracerProvider trace.TracerProvider
}

// New wires the request processor. generator is the per-model upstream call;
// production passes *gemini.Client.
func New(cfg config.Config, generator gemini.Generator) *App {
	return &App{
		cfg:      cfg,
		invoker:  gemini.NewInvoker(generator, cfg.GeminiModels, cfg.AIRetryDelay()),
		keywords: planner.DefaultKeywords().WithOverrides(cfg.PlanningNouns, cfg.PlanningVerbs, cfg.CarMarker),
	}
}

func (a *App) WithTracerProvider(tp trace.TracerProvider) *App {
	a.tracerProvider = tp
	a.invoker.WithTracerProvider(tp)
	return a
}

func (a *App) Router() *gin.Engine {
	var otelOpts []otelgin.Option
	if a.tracerProvider != nil {
		otelOpts = append(otelOpts, otelgin.WithTracerProvider(a.tracerProvider))
	}


	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())
	router.Use(requestID())
	router.Use(otelgin.Middleware(a.cfg.AppName, otelOpts...))
	router.Use(httpMetrics())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     a.cfg.CORSAllowOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", requestIDHeader},
		ExposeHeaders:    []string{"Content-Length", requestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/", a.index)
	router.GET("/health", a.health)
	router.POST("/chat", a.chat)
	if a.cfg.MetricsPath != "" {
		router.GET(a.cfg.MetricsPath, gin.WrapH(promhttp.Handler()))
	}

	return router
}

func (a *App) index(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", indexPage)
}

func (a *App) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "wonderfulgo-api",
	})
}

func writeError(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"error": message})
}
