package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"cgiad/internal/httpapi/handlers"
	"cgiad/internal/httpkit"
	"cgiad/internal/pkg/logger"
	"cgiad/internal/pkg/middleware"
	"cgiad/internal/service"
)

type Deps struct {
	Service *service.Service
	Log     *logger.Logger
	Pool    *pgxpool.Pool
	RDB     *redis.Client

	CORSAllowedOrigins []string
	MaxUploadBytes     int64
}

func NewRouter(d Deps) http.Handler {
	log := d.Log
	if log == nil {
		log = logger.NewDefault()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logging(log))
	r.Use(middleware.Recovery(log))

	origins := d.CORSAllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(httpkit.CORS(httpkit.CORSOptions{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "HEAD", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization", middleware.RequestIDHeader},
		ExposedHeaders:   []string{"Content-Disposition", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAgeSeconds:    600,
	}))

	h := handlers.New(handlers.Deps{
		Service:        d.Service,
		Log:            log,
		Pool:           d.Pool,
		RDB:            d.RDB,
		MaxUploadBytes: d.MaxUploadBytes,
	})

	r.Get("/", h.Root)
	r.Get("/health", h.Health)

	r.Route("/api", func(r chi.Router) {
		r.Post("/upload", h.Upload)
		r.Post("/generate", h.Generate)
		r.Get("/video/{videoId}", h.GetVideo)
		r.Get("/effects", h.ListEffects)

		r.Post("/jobs", h.PostJob)
		r.Get("/jobs/{jobId}", h.GetJob)
	})

	r.Get("/outputs/{filename}", h.GetOutput)
	r.Head("/outputs/{filename}", h.GetOutput)

	return r
}
