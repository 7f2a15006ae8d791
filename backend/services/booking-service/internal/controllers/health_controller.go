package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rikster-r/booking-calendar/backend/services/booking-service/internal/dtos"
	"github.com/rikster-r/booking-calendar/backend/shared/go-utils"
)

const healthTimeout = 3 * time.Second

type Pinger interface {
	Ping(ctx context.Context) error
}

// RedisPinger adapts a go-redis client to Pinger.
type RedisPinger struct {
	Client *redis.Client
}

func (p RedisPinger) Ping(ctx context.Context) error {
	return p.Client.Ping(ctx).Err()
}

// HealthController checks the database and, when configured, Redis.
type HealthController struct {
	db    Pinger
	redis Pinger
}

// NewHealthController accepts a nil redis when presence runs in memory.
func NewHealthController(db Pinger, redis Pinger) *HealthController {
	return &HealthController{db: db, redis: redis}
}

// HealthCheckHandler => GET /health
func (c *HealthController) HealthCheckHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	resp := dtos.HealthResponse{Status: "OK", Database: "up"}
	if err := c.db.Ping(ctx); err != nil {
		utils.RespondErrorWithCode(w, http.StatusServiceUnavailable, utils.ErrCodeInternal, "Database unreachable", nil, err)
		return
	}
	if c.redis != nil {
		if err := c.redis.Ping(ctx); err != nil {
			utils.RespondErrorWithCode(w, http.StatusServiceUnavailable, utils.ErrCodeInternal, "Redis unreachable", nil, err)
			return
		}
		resp.Redis = "up"
	}
	utils.RespondWithJSON(w, http.StatusOK, resp)
}
