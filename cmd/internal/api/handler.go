package api

import (
	"log/slog"
	"net/http"
	"net/netip"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"walrus/cmd/identity"
	"walrus/cmd/internal/auth"
	"walrus/cmd/internal/chat"
	"walrus/cmd/internal/validate"
	"walrus/cmd/security/token"
)

const defaultMaxBodyBytes = 1 << 20

// Handler wires the HTTP surface to the auth and chat services.
type Handler struct {
	log     *slog.Logger
	auth    *auth.Service
	chats   *chat.Service
	metrics *Metrics

	maxBodyBytes int64
}

// NewHandler constructs the HTTP adapter. metrics may be nil.
func NewHandler(log *slog.Logger, authSvc *auth.Service, chatSvc *chat.Service, metrics *Metrics) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{
		log:          log,
		auth:         authSvc,
		chats:        chatSvc,
		metrics:      metrics,
		maxBodyBytes: defaultMaxBodyBytes,
	}
}

// Register wires the routes onto the provided mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /auth/login", h.handleLogin)
	mux.HandleFunc("POST /auth/refresh", h.handleRefresh)
	mux.HandleFunc("POST /auth/logout", h.handleLogout)
	mux.HandleFunc("GET /auth/whoami", h.handleWhoami)
	mux.HandleFunc("POST /users/invite", h.handleInviteUser)
	mux.HandleFunc("GET /chats", h.handleListChats)
	mux.HandleFunc("POST /chats/private", h.handleCreatePrivateChat)
	mux.HandleFunc("GET /chats/{chat_id}/messages", h.handleListMessages)
	mux.HandleFunc("POST /chats/{chat_id}/messages", h.handleSendMessage)
}

// claims is what bearer resolution yields for one request.
type claims struct {
	UserID    identity.UserID
	SessionID uuid.UUID
}

// ---- auth ----

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, h.maxBodyBytes, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	now := time.Now().UTC()
	ex, err := h.auth.Login(r.Context(), req.Alias, req.Password, h.deviceContext(r), now)
	if h.metrics != nil {
		h.metrics.Logins.WithLabelValues(outcomeLabel(err)).Inc()
	}
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTokenExchangeResponse(ex))
}

func (h *Handler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := decodeJSON(w, r, h.maxBodyBytes, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sessionID, refreshTok, err := token.Unpack(strings.TrimSpace(req.RefreshToken))
	if err != nil {
		// An undecodable refresh token is a credential failure, same as a
		// wrong one. The malformed-bearer path applies to the header only.
		if h.metrics != nil {
			h.metrics.Refreshes.WithLabelValues(outcomeLabel(auth.ErrBadCredentials)).Inc()
		}
		h.writeServiceError(w, auth.ErrBadCredentials)
		return
	}

	now := time.Now().UTC()
	ex, err := h.auth.RefreshSession(r.Context(), sessionID, refreshTok, now)
	if h.metrics != nil {
		h.metrics.Refreshes.WithLabelValues(outcomeLabel(err)).Inc()
	}
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTokenExchangeResponse(ex))
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	cl, ok := h.requireClaims(w, r)
	if !ok {
		return
	}
	if err := h.auth.Logout(r.Context(), cl.SessionID); err != nil {
		h.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleWhoami(w http.ResponseWriter, r *http.Request) {
	cl, ok := h.requireClaims(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, whoamiResponse{UserID: cl.UserID})
}

func (h *Handler) handleInviteUser(w http.ResponseWriter, r *http.Request) {
	cl, ok := h.requireClaims(w, r)
	if !ok {
		return
	}

	var req inviteUserRequest
	if err := decodeJSON(w, r, h.maxBodyBytes, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	now := time.Now().UTC()
	userID, err := h.auth.InviteUser(r.Context(), cl.UserID, req.Alias, req.DisplayName, req.Password, identity.Role(req.Role), now)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, inviteUserResponse{UserID: userID})
}

// ---- chats ----

func (h *Handler) handleListChats(w http.ResponseWriter, r *http.Request) {
	cl, ok := h.requireClaims(w, r)
	if !ok {
		return
	}

	page, pageSize, ok := h.listingQuery(w, r)
	if !ok {
		return
	}

	chats, err := h.chats.ListChats(r.Context(), cl.UserID, pageSize, page)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toListChatsResponse(chats))
}

func (h *Handler) handleCreatePrivateChat(w http.ResponseWriter, r *http.Request) {
	cl, ok := h.requireClaims(w, r)
	if !ok {
		return
	}

	var req createPrivateChatRequest
	if err := decodeJSON(w, r, h.maxBodyBytes, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	now := time.Now().UTC()
	chatID, err := h.chats.CreatePrivateChat(r.Context(), now, cl.UserID, req.RecipientAlias)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, createChatResponse{ChatID: chatID})
}

func (h *Handler) handleListMessages(w http.ResponseWriter, r *http.Request) {
	cl, ok := h.requireClaims(w, r)
	if !ok {
		return
	}
	chatID, ok := h.chatIDPath(w, r)
	if !ok {
		return
	}
	page, pageSize, ok := h.listingQuery(w, r)
	if !ok {
		return
	}

	msgs, err := h.chats.ListMessages(r.Context(), cl.UserID, chatID, pageSize, page)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toListMessagesResponse(msgs))
}

func (h *Handler) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	cl, ok := h.requireClaims(w, r)
	if !ok {
		return
	}
	chatID, ok := h.chatIDPath(w, r)
	if !ok {
		return
	}

	var req sendMessageRequest
	if err := decodeJSON(w, r, h.maxBodyBytes, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	now := time.Now().UTC()
	msgID, err := h.chats.SendMessage(r.Context(), now, cl.UserID, chatID, req.Text)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sendMessageResponse{MessageID: msgID})
}

// ---- helpers ----

// requireClaims parses the bearer header and resolves it into claims. On
// failure it has already written the response.
func (h *Handler) requireClaims(w http.ResponseWriter, r *http.Request) (claims, bool) {
	packed, ok := bearerToken(r)
	if !ok {
		writeError(w, http.StatusBadRequest, msgBadToken)
		return claims{}, false
	}
	sessionID, accessTok, err := token.Unpack(packed)
	if err != nil {
		writeError(w, http.StatusBadRequest, msgBadToken)
		return claims{}, false
	}

	now := time.Now().UTC()
	userID, err := h.auth.ResolveAccessToken(r.Context(), sessionID, accessTok, now)
	if h.metrics != nil {
		h.metrics.Resolutions.WithLabelValues(outcomeLabel(err)).Inc()
	}
	if err != nil {
		h.writeServiceError(w, err)
		return claims{}, false
	}
	return claims{UserID: userID, SessionID: sessionID}, true
}

func bearerToken(r *http.Request) (string, bool) {
	raw := strings.TrimSpace(r.Header.Get("Authorization"))
	if raw == "" {
		return "", false
	}
	parts := strings.SplitN(raw, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	return strings.TrimSpace(parts[1]), true
}

func (h *Handler) chatIDPath(w http.ResponseWriter, r *http.Request) (chat.ChatID, bool) {
	raw := r.PathValue("chat_id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		h.writeServiceError(w, validate.InvalidInputError{Value: raw, Reason: "chat id must be an integer"})
		return 0, false
	}
	return id, true
}

// listingQuery reads the optional page and page_size parameters. Absent
// values default to the first page at the default size; an oversized
// page_size is rejected downstream.
func (h *Handler) listingQuery(w http.ResponseWriter, r *http.Request) (page, pageSize int32, ok bool) {
	page, pageSize = 1, chat.DefaultListingElements

	q := r.URL.Query()
	if raw := q.Get("page"); raw != "" {
		v, err := strconv.ParseInt(raw, 10, 32)
		if err != nil || v < 1 {
			h.writeServiceError(w, validate.InvalidInputError{Value: raw, Reason: "page must be a positive integer"})
			return 0, 0, false
		}
		page = int32(v)
	}
	if raw := q.Get("page_size"); raw != "" {
		v, err := strconv.ParseInt(raw, 10, 32)
		if err != nil || v < 1 {
			h.writeServiceError(w, validate.InvalidInputError{Value: raw, Reason: "page_size must be a positive integer"})
			return 0, 0, false
		}
		pageSize = int32(v)
	}
	return page, pageSize, true
}

// deviceContext collects the audit fields a session records. The ip column
// is mandatory on the relational side, so an unparseable remote address
// falls back to the unspecified address.
func (h *Handler) deviceContext(r *http.Request) auth.DeviceContext {
	ip := netip.IPv4Unspecified()
	if addrPort, err := netip.ParseAddrPort(strings.TrimSpace(r.RemoteAddr)); err == nil {
		ip = addrPort.Addr()
	} else if addr, err := netip.ParseAddr(strings.TrimSpace(r.RemoteAddr)); err == nil {
		ip = addr
	}
	device := strings.TrimSpace(r.Header.Get("X-Device-Name"))
	if device == "" {
		device = strings.TrimSpace(r.UserAgent())
	}
	return auth.DeviceContext{
		IP:     ip,
		Device: device,
		OS:     strings.TrimSpace(r.Header.Get("X-Os-Version")),
		App:    strings.TrimSpace(r.Header.Get("X-App-Version")),
	}
}
