package tracking

import (
	"encoding/base64"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/podsight/attribution-engine/internal/domain"
)

// 1x1 transparent GIF
var pixelGIF = []byte{
	0x47, 0x49, 0x46, 0x38, 0x39, 0x61, 0x01, 0x00, 0x01, 0x00,
	0x80, 0x00, 0x00, 0xff, 0xff, 0xff, 0x00, 0x00, 0x00, 0x2c,
	0x00, 0x00, 0x00, 0x00, 0x01, 0x00, 0x01, 0x00, 0x00, 0x02,
	0x02, 0x44, 0x01, 0x00, 0x3b,
}

type Handler struct {
	pub *Publisher
}

func NewHandler(pub *Publisher) *Handler {
	return &Handler{pub: pub}
}

func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/t/pixel/{data}.gif", h.HandlePixel)
	r.Post("/t/promo", h.HandlePromo)
	r.Get("/t/utm", h.HandleUTM)
	r.Get("/health", h.HandleHealth)
	return r
}

// HandlePixel records an embedded-player pixel fire. The path segment is a
// base64url blob of "campaign_id|episode_id" baked into the player embed.
// Always serves the GIF; a broken pixel never shows an error to a listener.
func (h *Handler) HandlePixel(w http.ResponseWriter, r *http.Request) {
	encoded := chi.URLParam(r, "data")

	decoded, err := base64.URLEncoding.DecodeString(encoded)
	if err != nil {
		h.servePixel(w)
		return
	}

	parts := strings.Split(string(decoded), "|")
	if len(parts) < 1 || parts[0] == "" {
		h.servePixel(w)
		return
	}

	evt := TouchpointEvent{
		EventID:    uuid.New().String(),
		CampaignID: parts[0],
		Channel:    domain.ChannelPixel,
		OccurredAt: time.Now().UTC(),
		IPAddress:  realIP(r),
		UserAgent:  r.UserAgent(),
	}
	h.pub.Publish(r.Context(), evt)

	log.Printf("PIXEL campaign=%s", evt.CampaignID)
	h.servePixel(w)
}

type promoRequest struct {
	CampaignID string `json:"campaign_id"`
	Code       string `json:"code"`
}

// HandlePromo records a promo-code redemption forwarded by the checkout
// integration.
func (h *Handler) HandlePromo(w http.ResponseWriter, r *http.Request) {
	var req promoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	if req.CampaignID == "" || req.Code == "" {
		http.Error(w, "campaign_id and code are required", http.StatusBadRequest)
		return
	}

	evt := TouchpointEvent{
		EventID:    uuid.New().String(),
		CampaignID: req.CampaignID,
		Channel:    domain.ChannelPromoCode,
		OccurredAt: time.Now().UTC(),
		PromoCode:  req.Code,
		IPAddress:  realIP(r),
		UserAgent:  r.UserAgent(),
	}
	h.pub.Publish(r.Context(), evt)

	log.Printf("PROMO campaign=%s code=%s", evt.CampaignID, evt.PromoCode)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	w.Write([]byte(`{"status":"accepted"}`))
}

// HandleUTM records a UTM-tagged landing hit and bounces the visitor to the
// destination URL from the "to" parameter.
func (h *Handler) HandleUTM(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	campaignID := q.Get("utm_campaign")
	dest := q.Get("to")
	if campaignID == "" || dest == "" {
		http.Error(w, "bad link", http.StatusBadRequest)
		return
	}
	if !strings.HasPrefix(dest, "http://") && !strings.HasPrefix(dest, "https://") {
		http.Error(w, "bad link", http.StatusBadRequest)
		return
	}

	evt := TouchpointEvent{
		EventID:    uuid.New().String(),
		CampaignID: campaignID,
		Channel:    domain.ChannelUTM,
		OccurredAt: time.Now().UTC(),
		UTMSource:  q.Get("utm_source"),
		UTMMedium:  q.Get("utm_medium"),
		UTMContent: q.Get("utm_content"),
		IPAddress:  realIP(r),
		UserAgent:  r.UserAgent(),
	}
	h.pub.Publish(r.Context(), evt)

	log.Printf("UTM campaign=%s source=%s", evt.CampaignID, evt.UTMSource)
	http.Redirect(w, r, dest, http.StatusTemporaryRedirect)
}

func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func (h *Handler) servePixel(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "image/gif")
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.Header().Set("Pragma", "no-cache")
	w.Header().Set("Expires", "0")
	w.Write(pixelGIF)
}

func realIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if idx := strings.Index(xff, ","); idx > 0 {
			return strings.TrimSpace(xff[:idx])
		}
		return xff
	}
	if xri := r.Header.Get("X-Real-Ip"); xri != "" {
		return xri
	}
	return r.RemoteAddr
}
