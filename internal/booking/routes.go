package booking

import "github.com/go-chi/chi/v5"

// Routes returns the booking API, mounted under /api.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/session", h.GetSession)
	r.Get("/catalog", h.GetCatalog)

	r.Route("/doctors", func(r chi.Router) {
		r.Get("/", h.ListDoctors)
		r.Get("/{docID}", h.GetDoctor)
	})

	r.Route("/cart", func(r chi.Router) {
		r.Get("/", h.GetCart)
		r.Delete("/", h.ClearCart)
		r.Post("/plan", h.SelectPlan)
		r.Post("/addons/{name}/toggle", h.ToggleAddon)
		r.Delete("/items/{name}", h.RemoveItem)
	})

	r.Route("/checkout", func(r chi.Router) {
		r.Post("/razorpay/verify", h.VerifyRazorpay)
		r.Post("/{method}", h.Checkout)
	})

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", h.Register)
		r.Post("/login", h.Login)
		r.Post("/logout", h.Logout)
		r.Post("/forgot-password/request-otp", h.RequestOTP)
		r.Post("/forgot-password/verify-otp", h.VerifyOTP)
		r.Post("/forgot-password/reset", h.ResetPassword)
		r.Post("/reset-password/validate", h.ValidateResetToken)
		r.Post("/reset-password", h.ResetPasswordWithToken)
	})

	r.Get("/notifications/ws", h.Notifications)
	return r
}
