package controllers

import (
	"net/http"
	"time"

	"github.com/rikster-r/booking-calendar/backend/services/booking-service/internal/services"
	"github.com/rikster-r/booking-calendar/backend/shared/go-utils"
)

type TimelineController struct {
	timelineService services.TimelineService
	now             func() time.Time
}

func NewTimelineController(timelineService services.TimelineService) *TimelineController {
	return &TimelineController{timelineService: timelineService, now: time.Now}
}

// GetTimeline => GET /api/users/{id}/timeline?start=YYYY-MM-DD&days=N
func (c *TimelineController) GetTimeline(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	start, days, err := parseTimelineQuery(r, c.now())
	if err != nil {
		utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeValidation, err.Error(), nil, err)
		return
	}

	resp, err := c.timelineService.Build(r.Context(), actor.OwnerID, start, days)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, resp)
}
