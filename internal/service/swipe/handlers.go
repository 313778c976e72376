package swipe

import (
	"net/http"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/oggyb/swipe-engine/internal/db"
	svcErr "github.com/oggyb/swipe-engine/internal/errors"
	"github.com/oggyb/swipe-engine/internal/http/middleware"
	"github.com/oggyb/swipe-engine/internal/http/response"
)

// Handler adapts the service to gin.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

type contextRequest struct {
	Source    *string  `json:"source"`
	Position  *int     `json:"position"`
	SessionID *string  `json:"sessionId"`
	TimeSpent *float64 `json:"timeSpent"`
}

type recordRequest struct {
	ProductID string          `json:"productId"`
	Action    string          `json:"action"`
	Context   *contextRequest `json:"context"`
}

// parse checks the body field by field so every problem is reported at once.
func (r recordRequest) parse() (uuid.UUID, db.Action, db.SwipeContext, error) {
	var (
		fields []svcErr.FieldError
		sc     db.SwipeContext
	)

	productID, err := uuid.Parse(strings.TrimSpace(r.ProductID))
	if err != nil {
		fields = append(fields, svcErr.FieldError{Field: "productId", Message: "Invalid product ID", Value: r.ProductID})
	}
	action := db.Action(r.Action)
	if !action.Valid() {
		fields = append(fields, svcErr.FieldError{Field: "action", Message: "Action must be one of: like, dislike, super_like, skip", Value: r.Action})
	}

	if c := r.Context; c != nil {
		if c.Source != nil {
			sc.Source = db.Source(*c.Source)
			if !sc.Source.Valid() {
				fields = append(fields, svcErr.FieldError{Field: "context.source", Message: "Invalid context source", Value: *c.Source})
			}
		}
		if c.Position != nil && *c.Position < 0 {
			fields = append(fields, svcErr.FieldError{Field: "context.position", Message: "Position must be a non-negative integer", Value: *c.Position})
		}
		if c.TimeSpent != nil && *c.TimeSpent < 0 {
			fields = append(fields, svcErr.FieldError{Field: "context.timeSpent", Message: "Time spent must be a non-negative number", Value: *c.TimeSpent})
		}
		if c.SessionID != nil && (len(*c.SessionID) < 1 || len(*c.SessionID) > 100) {
			fields = append(fields, svcErr.FieldError{Field: "context.sessionId", Message: "Session ID must be a string between 1 and 100 characters"})
		}
		sc.Position, sc.SessionID, sc.TimeSpent = c.Position, c.SessionID, c.TimeSpent
	}

	if len(fields) > 0 {
		return uuid.Nil, "", sc, svcErr.FieldErrors("Validation failed", fields)
	}
	return productID, action, sc, nil
}

// Record handles POST /api/swipes.
func (h *Handler) Record(c *gin.Context) {
	var req recordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, svcErr.InvalidArgument("Invalid request body"))
		return
	}
	productID, action, sc, err := req.parse()
	if err != nil {
		response.Fail(c, err)
		return
	}

	res, err := h.svc.RecordSwipe(c.Request.Context(), RecordInput{
		UserID:    middleware.CurrentUser(c).ID,
		ProductID: productID,
		Action:    action,
		Context:   sc,
		Device: db.DeviceInfo{
			Platform:   truncate(c.GetHeader("X-Platform"), 32),
			UserAgent:  truncate(c.Request.UserAgent(), 255),
			ScreenSize: truncate(c.GetHeader("X-Screen-Size"), 32),
		},
	})
	if err != nil {
		response.Fail(c, err)
		return
	}

	if res.IsUpdate {
		response.Message(c, http.StatusOK, "Swipe updated successfully", res)
		return
	}
	response.Message(c, http.StatusCreated, "Swipe recorded successfully", res)
}

// History handles GET /api/swipes/history.
func (h *Handler) History(c *gin.Context) {
	limit, err := queryInt(c, "limit")
	if err != nil {
		response.Fail(c, err)
		return
	}
	in := HistoryInput{UserID: middleware.CurrentUser(c).ID, Limit: limit}
	if a := c.Query("action"); a != "" {
		action := db.Action(a)
		in.Action = &action
	}
	if cur := c.Query("cursor"); cur != "" {
		in.Token = &cur
	}

	page, err := h.svc.History(c.Request.Context(), in)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, page)
}

// Stats handles GET /api/swipes/stats.
func (h *Handler) Stats(c *gin.Context) {
	period, err := queryInt(c, "period")
	if err != nil {
		response.Fail(c, err)
		return
	}
	stats, err := h.svc.Stats(c.Request.Context(), middleware.CurrentUser(c), period)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, stats)
}

// Undo handles POST /api/swipes/undo.
func (h *Handler) Undo(c *gin.Context) {
	undone, err := h.svc.UndoLastSwipe(c.Request.Context(), middleware.CurrentUser(c).ID)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Message(c, http.StatusOK, "Last swipe undone successfully", gin.H{"undoneSwipe": undone})
}

// Recommendations handles GET /api/swipes/recommendations.
func (h *Handler) Recommendations(c *gin.Context) {
	limit, err := queryInt(c, "limit")
	if err != nil {
		response.Fail(c, err)
		return
	}
	recs, err := h.svc.PersonalizedRecommendations(c.Request.Context(), middleware.CurrentUser(c), limit)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, recs)
}

// Engagement handles GET /api/swipes/product/:productId/engagement.
func (h *Handler) Engagement(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("productId"))
	if err != nil {
		response.Fail(c, svcErr.InvalidArgument("Invalid product ID"))
		return
	}
	eng, err := h.svc.ProductEngagement(c.Request.Context(), productID)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, eng)
}

// Feed handles GET /api/products/swipe.
func (h *Handler) Feed(c *gin.Context) {
	limit, err := queryInt(c, "limit")
	if err != nil {
		response.Fail(c, err)
		return
	}
	feed, err := h.svc.SwipeFeed(c.Request.Context(), middleware.CurrentUser(c), FeedInput{
		Category: c.Query("category"),
		Gender:   c.Query("gender"),
		Limit:    limit,
	})
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, feed)
}

// Trending handles GET /api/products/trending.
func (h *Handler) Trending(c *gin.Context) {
	days, err := queryInt(c, "days")
	if err != nil {
		response.Fail(c, err)
		return
	}
	limit, err := queryInt(c, "limit")
	if err != nil {
		response.Fail(c, err)
		return
	}
	out, err := h.svc.TrendingProducts(c.Request.Context(), days, limit)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, out)
}

// queryInt reads an optional integer query parameter; absent means 0.
func queryInt(c *gin.Context, name string) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n == 0 {
		return 0, svcErr.InvalidArgument(name + " must be a positive integer")
	}
	return n, nil
}

// truncate caps s at n bytes without splitting a multi-byte rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
