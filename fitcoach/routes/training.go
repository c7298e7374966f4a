package routes

import (
	"encoding/json"
	"errors"
	"net/http"

	"fitcoach/fitcoach/config"
	"fitcoach/fitcoach/controllers"
	"fitcoach/fitcoach/middlewares"
	"fitcoach/fitcoach/types"

	"github.com/go-chi/chi/v5"
)

func TrainingRoutes(ctrl *controllers.TrainingController, cfg config.Config) chi.Router {
	r := chi.NewRouter()
	r.Use(middlewares.AuthMiddleware(cfg))

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		caller, ok := callerFromRequest(r)
		if !ok {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		menu, err := ctrl.GetTrainingMenu(r.Context(), caller)
		if err != nil {
			// An unreadable menu degrades to an empty one, matching the
			// composer's behavior of rendering it as not set.
			menu = types.TrainingMenuResponse{TrainingDays: []types.TrainingDayView{}}
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(menu)
	})

	r.Post("/", func(w http.ResponseWriter, r *http.Request) {
		caller, ok := callerFromRequest(r)
		if !ok {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		var req types.SaveTrainingMenuRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err := ctrl.SaveTrainingMenu(r.Context(), caller, req); err != nil {
			if errors.Is(err, controllers.ErrInvalidTrainingDays) {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			http.Error(w, "Failed to save training menu", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]bool{"success": true})
	})

	return r
}
