package booking

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/wolfman30/consult-booking/internal/cart"
	"github.com/wolfman30/consult-booking/internal/catalog"
	"github.com/wolfman30/consult-booking/internal/notify"
	"github.com/wolfman30/consult-booking/internal/pricing"
	"github.com/wolfman30/consult-booking/internal/session"
)

type sessionResponse struct {
	SessionID      string               `json:"session_id"`
	Locale         pricing.Locale       `json:"locale"`
	LocaleResolved bool                 `json:"locale_resolved"`
	Currency       string               `json:"currency"`
	CurrencySymbol string               `json:"currency_symbol"`
	LoggedIn       bool                 `json:"logged_in"`
	Loading        bool                 `json:"loading"`
	Notification   *notify.Notification `json:"notification"`
}

type catalogResponse struct {
	catalog.Catalog
	Currency       string `json:"currency"`
	CurrencySymbol string `json:"currency_symbol"`
}

type cartResponse struct {
	cart.Snapshot
	FormattedTotal string               `json:"formatted_total"`
	Added          *bool                `json:"added,omitempty"`
	Notification   *notify.Notification `json:"notification"`
}

type selectPlanRequest struct {
	Name string `json:"name"`
}

// GetSession reports the visitor's locale, login and payment state.
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	st, ok := h.current(w, r)
	if !ok {
		return
	}
	locale := st.Locale()
	resolved := false
	select {
	case <-st.LocaleResolved():
		resolved = true
	default:
	}
	writeJSON(w, http.StatusOK, sessionResponse{
		SessionID:      st.ID(),
		Locale:         locale,
		LocaleResolved: resolved,
		Currency:       pricing.Currency(locale),
		CurrencySymbol: pricing.CurrencySymbol(locale),
		LoggedIn:       st.Token() != "",
		Loading:        st.Loading(),
		Notification:   currentNotification(st),
	})
}

// GetCatalog lists plans and add-ons at the visitor's prices.
func (h *Handler) GetCatalog(w http.ResponseWriter, r *http.Request) {
	st, ok := h.current(w, r)
	if !ok {
		return
	}
	cat := st.Catalog()
	writeJSON(w, http.StatusOK, catalogResponse{
		Catalog:        cat,
		Currency:       pricing.Currency(cat.Locale),
		CurrencySymbol: pricing.CurrencySymbol(cat.Locale),
	})
}

// GetCart renders the cart.
func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	st, ok := h.current(w, r)
	if !ok {
		return
	}
	h.writeCart(w, http.StatusOK, st, st.Cart(), nil)
}

// SelectPlan selects a plan by name.
func (h *Handler) SelectPlan(w http.ResponseWriter, r *http.Request) {
	st, ok := h.current(w, r)
	if !ok {
		return
	}
	var req selectPlanRequest
	if err := decode(r, &req); err != nil || req.Name == "" {
		writeError(w, http.StatusBadRequest, "plan name is required")
		return
	}
	snap, err := st.SelectPlan(req.Name)
	if err != nil {
		h.cartError(w, st, err)
		return
	}
	h.writeCart(w, http.StatusOK, st, snap, nil)
}

// ToggleAddon adds or removes an add-on.
func (h *Handler) ToggleAddon(w http.ResponseWriter, r *http.Request) {
	st, ok := h.current(w, r)
	if !ok {
		return
	}
	snap, added, err := st.ToggleAddon(chi.URLParam(r, "name"))
	if err != nil {
		h.cartError(w, st, err)
		return
	}
	h.writeCart(w, http.StatusOK, st, snap, &added)
}

// RemoveItem drops a cart line.
func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	st, ok := h.current(w, r)
	if !ok {
		return
	}
	snap, err := st.RemoveItem(chi.URLParam(r, "name"))
	if err != nil {
		h.cartError(w, st, err)
		return
	}
	h.writeCart(w, http.StatusOK, st, snap, nil)
}

// ClearCart empties the cart.
func (h *Handler) ClearCart(w http.ResponseWriter, r *http.Request) {
	st, ok := h.current(w, r)
	if !ok {
		return
	}
	h.writeCart(w, http.StatusOK, st, st.ClearCart(), nil)
}

func (h *Handler) writeCart(w http.ResponseWriter, status int, st *session.State, snap cart.Snapshot, added *bool) {
	writeJSON(w, status, cartResponse{
		Snapshot:       snap,
		FormattedTotal: pricing.FormatPrice(st.Locale(), snap.Total),
		Added:          added,
		Notification:   currentNotification(st),
	})
}

func (h *Handler) cartError(w http.ResponseWriter, st *session.State, err error) {
	switch {
	case errors.Is(err, cart.ErrNoPlanSelected):
		writeError(w, http.StatusConflict, cart.MsgSelectPlanFirst)
	case errors.Is(err, session.ErrUnknownPlan), errors.Is(err, session.ErrUnknownAddon), errors.Is(err, cart.ErrItemNotInCart):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		h.logger.Error("cart update failed", "session_id", st.ID(), "error", err)
		writeError(w, http.StatusInternalServerError, "cart update failed")
	}
}

func currentNotification(st *session.State) *notify.Notification {
	if n, ok := st.Board().Current(); ok {
		return &n
	}
	return nil
}
