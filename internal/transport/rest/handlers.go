package rest

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/baechuer/club-service/internal/application/club"
	"github.com/baechuer/club-service/internal/domain"
	"github.com/baechuer/club-service/internal/infrastructure/bgg"
	appCtx "github.com/baechuer/club-service/internal/pkg/context"
	"github.com/baechuer/club-service/internal/pkg/logger"
	"github.com/baechuer/club-service/internal/transport/rest/response"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

// ClubService is the application layer as used by the handlers.
type ClubService interface {
	ListEvents(ctx context.Context) []club.EventView
	GetEvent(ctx context.Context, eventID int64) (*club.EventView, error)
	CreateEvent(ctx context.Context, creatorID int64, in club.CreateEventInput) (*club.EventView, error)
	Register(ctx context.Context, eventID, memberID int64, choice domain.Choice) (domain.Participant, error)
	Unregister(ctx context.Context, eventID, memberID int64) (domain.UnregisterResult, error)
	AutoPromote(ctx context.Context, trigger string) []domain.Promotion

	ListCatalog(ctx context.Context, view club.CatalogView) ([]club.ItemView, error)
	GetItem(ctx context.Context, itemID int64) (*club.ItemView, error)
	AddItem(ctx context.Context, actorID int64, in club.AddItemInput) (*club.ItemView, error)
	Attach(ctx context.Context, actorID, baseID, attachmentID int64) (*club.ItemView, error)
	Detach(ctx context.Context, actorID, itemID int64) (*club.ItemView, error)

	SearchBGG(ctx context.Context, query string) ([]bgg.SearchResult, error)
	ImportFromBGG(ctx context.Context, actorID int64, in club.ImportInput) (*club.ItemView, error)
}

type Handler struct {
	svc ClubService
}

func NewHandler(svc ClubService) *Handler {
	return &Handler{svc: svc}
}

// --- events ---

func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	response.Data(w, http.StatusOK, h.svc.ListEvents(r.Context()))
}

func (h *Handler) GetEvent(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "eventID")
	if !ok {
		return
	}
	ev, err := h.svc.GetEvent(r.Context(), id)
	if err != nil {
		handleErr(w, r, err)
		return
	}
	response.Data(w, http.StatusOK, ev)
}

func (h *Handler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	auth, _ := GetAuth(r.Context())

	var req createEventRequest
	if !decode(w, r, &req, false) {
		return
	}

	ev, err := h.svc.CreateEvent(r.Context(), auth.MemberID, club.CreateEventInput{
		Title:            req.Title,
		Date:             req.Date,
		Time:             req.Time,
		Description:      req.Description,
		LinkedItemID:     req.LinkedItemID,
		ExplicitCapacity: req.ExplicitCapacity,
	})
	respond(w, r, http.StatusCreated, ev, err)
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "eventID")
	if !ok {
		return
	}
	auth, _ := GetAuth(r.Context())

	var req registerRequest
	if !decode(w, r, &req, true) {
		return
	}
	choice, err := domain.ParseChoice(req.Choice)
	if err != nil {
		handleErr(w, r, err)
		return
	}

	p, err := h.svc.Register(r.Context(), id, auth.MemberID, choice)
	respond(w, r, http.StatusCreated, p, err)
}

func (h *Handler) Unregister(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "eventID")
	if !ok {
		return
	}
	auth, _ := GetAuth(r.Context())

	res, err := h.svc.Unregister(r.Context(), id, auth.MemberID)
	respond(w, r, http.StatusOK, res, err)
}

func (h *Handler) Promote(w http.ResponseWriter, r *http.Request) {
	promos := h.svc.AutoPromote(r.Context(), club.TriggerManual)
	if promos == nil {
		promos = []domain.Promotion{}
	}
	response.Data(w, http.StatusOK, promos)
}

// --- catalog ---

// ListCatalog accepts ?view=bases|with_attachments.
func (h *Handler) ListCatalog(w http.ResponseWriter, r *http.Request) {
	view := club.CatalogView(strings.TrimSpace(r.URL.Query().Get("view")))
	items, err := h.svc.ListCatalog(r.Context(), view)
	if err != nil {
		handleErr(w, r, err)
		return
	}
	response.Data(w, http.StatusOK, items)
}

func (h *Handler) GetItem(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "itemID")
	if !ok {
		return
	}
	it, err := h.svc.GetItem(r.Context(), id)
	if err != nil {
		handleErr(w, r, err)
		return
	}
	response.Data(w, http.StatusOK, it)
}

func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	auth, _ := GetAuth(r.Context())

	var req addItemRequest
	if !decode(w, r, &req, false) {
		return
	}

	it, err := h.svc.AddItem(r.Context(), auth.MemberID, club.AddItemInput{
		Name:            req.Name,
		Owner:           req.Owner,
		MinPlayers:      req.MinPlayers,
		MaxPlayers:      req.MaxPlayers,
		DurationMinutes: req.DurationMinutes,
		MinAge:          req.MinAge,
		BaseItemID:      req.BaseItemID,
	})
	respond(w, r, http.StatusCreated, it, err)
}

func (h *Handler) Attach(w http.ResponseWriter, r *http.Request) {
	baseID, ok := idParam(w, r, "itemID")
	if !ok {
		return
	}
	auth, _ := GetAuth(r.Context())

	var req attachRequest
	if !decode(w, r, &req, false) {
		return
	}

	it, err := h.svc.Attach(r.Context(), auth.MemberID, baseID, req.AttachmentID)
	respond(w, r, http.StatusOK, it, err)
}

func (h *Handler) Detach(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "itemID")
	if !ok {
		return
	}
	auth, _ := GetAuth(r.Context())

	it, err := h.svc.Detach(r.Context(), auth.MemberID, id)
	respond(w, r, http.StatusOK, it, err)
}

// --- boardgamegeek ---

func (h *Handler) SearchBGG(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		fail(w, r, http.StatusBadRequest, "request.invalid", "missing query", map[string]string{"q": "is required"})
		return
	}
	res, err := h.svc.SearchBGG(r.Context(), q)
	if err != nil {
		handleErr(w, r, err)
		return
	}
	response.Data(w, http.StatusOK, res)
}

func (h *Handler) ImportBGG(w http.ResponseWriter, r *http.Request) {
	auth, _ := GetAuth(r.Context())

	var req importRequest
	if !decode(w, r, &req, false) {
		return
	}

	it, err := h.svc.ImportFromBGG(r.Context(), auth.MemberID, club.ImportInput{
		BGGID:      req.BGGID,
		Owner:      req.Owner,
		BaseItemID: req.BaseItemID,
	})
	respond(w, r, http.StatusCreated, it, err)
}

// --- helpers ---

func idParam(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		fail(w, r, http.StatusBadRequest, "request.invalid", "invalid "+name, map[string]string{
			name: "must be a positive integer",
		})
		return 0, false
	}
	return id, true
}

// decode reads and validates a JSON body. With optional set, an empty body is
// accepted as the zero request.
func decode(w http.ResponseWriter, r *http.Request, dst any, optional bool) bool {
	if err := render.DecodeJSON(r.Body, dst); err != nil {
		if !(optional && errors.Is(err, io.EOF)) {
			fail(w, r, http.StatusBadRequest, "request.invalid", "invalid body", nil)
			return false
		}
	}
	if meta := validateRequest(dst); meta != nil {
		fail(w, r, http.StatusBadRequest, "request.invalid", "validation failed", meta)
		return false
	}
	return true
}

// respond writes payload on success, and also on a failed save: the change is
// applied and the save will be retried.
func respond(w http.ResponseWriter, r *http.Request, status int, payload any, err error) {
	switch {
	case err == nil:
		response.Data(w, status, payload)
	case errors.Is(err, domain.ErrSync):
		logger.WithCtx(r.Context()).Warn().Err(err).Msg("change applied, sync pending")
		response.Pending(w, payload)
	default:
		handleErr(w, r, err)
	}
}

func handleErr(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrAlreadyRegistered):
		fail(w, r, http.StatusConflict, "registration.exists", err.Error(), nil)
	case errors.Is(err, domain.ErrInvalidOperation):
		fail(w, r, http.StatusUnprocessableEntity, "catalog.invalid_operation", err.Error(), nil)
	case errors.Is(err, domain.ErrEventNotFound):
		fail(w, r, http.StatusNotFound, "event.not_found", err.Error(), nil)
	case errors.Is(err, domain.ErrItemNotFound):
		fail(w, r, http.StatusNotFound, "catalog.not_found", err.Error(), nil)
	case errors.Is(err, domain.ErrMemberNotFound):
		fail(w, r, http.StatusNotFound, "member.not_found", err.Error(), nil)
	case errors.Is(err, domain.ErrValidation):
		fail(w, r, http.StatusBadRequest, "request.invalid", err.Error(), nil)
	case errors.Is(err, club.ErrImportDisabled):
		fail(w, r, http.StatusServiceUnavailable, "bgg.disabled", err.Error(), nil)
	case errors.Is(err, bgg.ErrQueued):
		w.Header().Set("Retry-After", "5")
		fail(w, r, http.StatusServiceUnavailable, "bgg.queued", err.Error(), nil)
	default:
		logger.WithCtx(r.Context()).Error().Err(err).Msg("request failed")
		fail(w, r, http.StatusInternalServerError, "internal", "internal error", nil)
	}
}

func fail(w http.ResponseWriter, r *http.Request, status int, code, message string, meta map[string]string) {
	reqID := appCtx.GetRequestID(r.Context())
	if reqID == "" {
		reqID = "no-request-id"
	}
	response.Fail(w, status, code, message, meta, reqID)
}
