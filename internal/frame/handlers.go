package frame

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"strings"

	"github.com/a-h/templ"
	"github.com/gorilla/mux"

	"github.com/mykcryptodev/vrbs-vote-frame/internal/errors"
	"github.com/mykcryptodev/vrbs-vote-frame/internal/hub"
	"github.com/mykcryptodev/vrbs-vote-frame/internal/httputil"
	"github.com/mykcryptodev/vrbs-vote-frame/internal/logging"
)

const maxActionBodyBytes = 64 << 10

// ActionPayload is the body Farcaster clients POST on a button press.
type ActionPayload struct {
	UntrustedData UntrustedData `json:"untrustedData"`
	TrustedData   TrustedData   `json:"trustedData"`
}

// UntrustedData is the unsigned copy of the frame action.
type UntrustedData struct {
	FID           int64   `json:"fid"`
	URL           string  `json:"url"`
	MessageHash   string  `json:"messageHash"`
	Timestamp     int64   `json:"timestamp"`
	Network       int     `json:"network"`
	ButtonIndex   int     `json:"buttonIndex"`
	InputText     string  `json:"inputText"`
	State         string  `json:"state"`
	Address       string  `json:"address"`
	TransactionID string  `json:"transactionId"`
	CastID        *CastID `json:"castId,omitempty"`
}

// CastID identifies the cast the frame was embedded in.
type CastID struct {
	FID  int64  `json:"fid"`
	Hash string `json:"hash"`
}

// TrustedData carries the signed message bytes.
type TrustedData struct {
	MessageBytes string `json:"messageBytes"`
}

// Verifier validates signed frame messages.
type Verifier interface {
	Validate(ctx context.Context, messageBytes string) (*hub.Action, error)
}

// HandlerConfig assembles a Handler. Verifier may be nil.
type HandlerConfig struct {
	Controller  *Controller
	Verifier    Verifier
	HubRequired bool
	Logger      *logging.Logger
}

// Handler serves the frame routes.
type Handler struct {
	ctrl        *Controller
	verifier    Verifier
	hubRequired bool
	logger      *logging.Logger
}

// NewHandler creates the frame HTTP handler.
func NewHandler(cfg HandlerConfig) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Handler{
		ctrl:        cfg.Controller,
		verifier:    cfg.Verifier,
		hubRequired: cfg.HubRequired,
		logger:      logger,
	}
}

// RegisterRoutes mounts the frame routes under /api.
func (h *Handler) RegisterRoutes(router *mux.Router) {
	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("", h.handleFrame).Methods(http.MethodGet, http.MethodPost)
	api.HandleFunc("/", h.handleFrame).Methods(http.MethodGet, http.MethodPost)
	api.HandleFunc("/top", h.handleTop).Methods(http.MethodGet, http.MethodPost)
	api.HandleFunc("/vote", h.handleVoteFromState).Methods(http.MethodPost)
	api.HandleFunc("/vote/{pieceId}", h.handleVoteForPiece).Methods(http.MethodPost)
	// Keeps other methods on /vote from reaching the /{pieceId} route.
	api.HandleFunc("/vote", h.postOnly)
	api.HandleFunc("/vote/{pieceId}", h.postOnly)
	api.HandleFunc("/{pieceId}", h.handleFrame).Methods(http.MethodGet, http.MethodPost)
}

func (h *Handler) postOnly(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Allow", http.MethodPost)
	httputil.WriteError(w, r, errors.MethodNotAllowed(r.Method))
}

// action is a decoded and, when possible, verified frame action.
type action struct {
	present   bool
	state     string
	inputText string
}

func (h *Handler) handleFrame(w http.ResponseWriter, r *http.Request) {
	ctx, act, err := h.readAction(r)
	if err != nil {
		h.writeError(w, r.WithContext(ctx), err)
		return
	}

	pathID, hasPath := mux.Vars(r)["pieceId"]

	// A first render has no action and no path id.
	if !act.present && !hasPath {
		result, err := h.ctrl.Render(ctx, h.ctrl.Sessions().Initial())
		h.writeFrame(w, r.WithContext(ctx), result, err)
		return
	}

	prev, err := h.ctrl.Sessions().Decode(act.state)
	if err != nil {
		h.logger.LogSecurityEvent(ctx, "invalid_session", map[string]interface{}{"error": err.Error()})
		h.writeError(w, r.WithContext(ctx), errors.InvalidState(err))
		return
	}

	in := Input{
		Button:     ParseButton(r.URL.Query().Get("action")),
		SearchText: act.inputText,
		PathID:     pathID,
		HasPathID:  hasPath,
	}
	result, err := h.ctrl.Handle(ctx, prev, in)
	h.writeFrame(w, r.WithContext(ctx), result, err)
}

func (h *Handler) handleTop(w http.ResponseWriter, r *http.Request) {
	ctx, _, err := h.readAction(r)
	if err != nil {
		h.writeError(w, r.WithContext(ctx), err)
		return
	}
	result, err := h.ctrl.RenderTop(ctx)
	h.writeFrame(w, r.WithContext(ctx), result, err)
}

func (h *Handler) handleVoteForPiece(w http.ResponseWriter, r *http.Request) {
	ctx, _, err := h.readAction(r)
	if err != nil {
		h.writeError(w, r.WithContext(ctx), err)
		return
	}

	id, err := ParseInteger(mux.Vars(r)["pieceId"])
	if err != nil {
		h.writeError(w, r.WithContext(ctx), errors.InvalidInput("Invalid pieceId"))
		return
	}
	h.writeVote(w, r.WithContext(ctx), id)
}

func (h *Handler) handleVoteFromState(w http.ResponseWriter, r *http.Request) {
	ctx, act, err := h.readAction(r)
	if err != nil {
		h.writeError(w, r.WithContext(ctx), err)
		return
	}

	state, err := h.ctrl.Sessions().Decode(act.state)
	if err != nil {
		h.logger.LogSecurityEvent(ctx, "invalid_session", map[string]interface{}{"error": err.Error()})
		h.writeError(w, r.WithContext(ctx), errors.InvalidState(err))
		return
	}
	h.writeVote(w, r.WithContext(ctx), state.Normalized().PieceID)
}

// readAction decodes the POST body and verifies it with the hub when one is
// configured. GET requests and empty bodies carry no action.
func (h *Handler) readAction(r *http.Request) (context.Context, action, error) {
	ctx := r.Context()
	if r.Method != http.MethodPost || r.Body == nil {
		return ctx, action{}, nil
	}

	body, err := httputil.ReadAllStrict(r.Body, maxActionBodyBytes)
	if err != nil {
		return ctx, action{}, errors.InvalidInput("Frame action too large")
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		return ctx, action{}, nil
	}

	var payload ActionPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return ctx, action{}, errors.InvalidFormat("frame action", err.Error())
	}

	act := action{
		present:   true,
		state:     payload.UntrustedData.State,
		inputText: payload.UntrustedData.InputText,
	}
	return h.verify(ctx, payload, act)
}

func (h *Handler) verify(ctx context.Context, payload ActionPayload, act action) (context.Context, action, error) {
	messageBytes := strings.TrimSpace(payload.TrustedData.MessageBytes)

	if h.verifier == nil {
		return ctx, act, nil
	}
	if messageBytes == "" {
		if h.hubRequired {
			h.logger.LogSecurityEvent(ctx, "unsigned_action", map[string]interface{}{"fid": payload.UntrustedData.FID})
			return ctx, act, errors.Unauthorized("Frame message is not signed")
		}
		return ctx, act, nil
	}

	trusted, err := h.verifier.Validate(ctx, messageBytes)
	switch {
	case err == nil:
	case stderrors.Is(err, hub.ErrInvalidMessage):
		h.logger.LogSecurityEvent(ctx, "invalid_frame_message", map[string]interface{}{
			"fid":   payload.UntrustedData.FID,
			"error": err.Error(),
		})
		return ctx, act, errors.Unauthorized("Frame message failed verification")
	case h.hubRequired:
		h.logger.WithContext(ctx).WithError(err).Error("hub validation unavailable")
		return ctx, act, errors.Upstream("hub", err)
	default:
		h.logger.WithContext(ctx).WithError(err).Warn("hub validation unavailable, using untrusted payload")
		return ctx, act, nil
	}

	ctx = logging.WithFID(ctx, trusted.FID)
	act.inputText = trusted.InputText
	if trusted.State != "" {
		act.state = trusted.State
	}
	return ctx, act, nil
}

func (h *Handler) writeFrame(w http.ResponseWriter, r *http.Request, result *Result, err error) {
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	templ.Handler(Page(result.View)).ServeHTTP(w, r)
}

func (h *Handler) writeVote(w http.ResponseWriter, r *http.Request, pieceID int64) {
	call, err := h.ctrl.VoteCall(pieceID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.logger.WithContext(r.Context()).WithField("piece_id", pieceID).Info("vote transaction built")
	httputil.WriteJSON(w, http.StatusOK, call)
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	if se := errors.GetServiceError(err); se == nil || se.HTTPStatus >= http.StatusInternalServerError {
		h.logger.WithContext(r.Context()).WithError(err).Error("frame request failed")
	}
	httputil.WriteError(w, r, err)
}
