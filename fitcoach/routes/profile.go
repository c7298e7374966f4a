package routes

import (
	"encoding/json"
	"net/http"

	"fitcoach/fitcoach/config"
	"fitcoach/fitcoach/controllers"
	"fitcoach/fitcoach/middlewares"
	"fitcoach/fitcoach/types"

	"github.com/go-chi/chi/v5"
)

func ProfileRoutes(ctrl *controllers.ProfileController, cfg config.Config) chi.Router {
	r := chi.NewRouter()
	r.Use(middlewares.AuthMiddleware(cfg))

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		caller, ok := callerFromRequest(r)
		if !ok {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		profile, err := ctrl.GetProfile(r.Context(), caller)
		if err != nil {
			http.Error(w, "Failed to get profile", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		// null when the profile has never been saved
		json.NewEncoder(w).Encode(profile)
	})

	r.Post("/", func(w http.ResponseWriter, r *http.Request) {
		caller, ok := callerFromRequest(r)
		if !ok {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		var req types.ProfileRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if _, err := ctrl.SaveProfile(r.Context(), caller, req); err != nil {
			http.Error(w, "Failed to save profile", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]bool{"success": true})
	})

	return r
}
