package handlers

import (
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"cgiad/internal/httpkit"
	"cgiad/internal/pkg/logger"
	"cgiad/internal/service"
)

const defaultMaxUploadBytes = 512 << 20

type Deps struct {
	Service *service.Service
	Log     *logger.Logger
	// Pool and RDB are optional; when set they are pinged by /health?deep=true.
	Pool *pgxpool.Pool
	RDB  *redis.Client
	// MaxUploadBytes bounds the in-memory part of multipart parsing.
	MaxUploadBytes int64
}

type Handler struct {
	svc  *service.Service
	log  *logger.Logger
	pool *pgxpool.Pool
	rdb  *redis.Client

	maxUploadBytes int64
}

func New(d Deps) *Handler {
	log := d.Log
	if log == nil {
		log = logger.NewDefault()
	}
	limit := d.MaxUploadBytes
	if limit <= 0 {
		limit = defaultMaxUploadBytes
	}
	return &Handler{
		svc:            d.Service,
		log:            log.WithComponent("httpapi"),
		pool:           d.Pool,
		rdb:            d.RDB,
		maxUploadBytes: limit,
	}
}

func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	httpkit.WriteJSON(w, http.StatusOK, map[string]any{"message": "CGI Ad Generator API is running"})
}

func (h *Handler) ListEffects(w http.ResponseWriter, r *http.Request) {
	httpkit.WriteJSON(w, http.StatusOK, map[string]any{"effects": h.svc.Effects()})
}
