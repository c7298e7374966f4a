package routes

import (
	"encoding/json"
	"net/http"

	"fitcoach/fitcoach/config"
	"fitcoach/fitcoach/controllers"
	"fitcoach/fitcoach/middlewares"

	"github.com/go-chi/chi/v5"
)

const maxUploadBytes = 10 << 20 // 10 MB

func FileRoutes(ctrl *controllers.AttachmentController, cfg config.Config) chi.Router {
	r := chi.NewRouter()
	r.Use(middlewares.AuthMiddleware(cfg))

	// POST /files/upload : multipart file -> attachment reference
	r.Post("/upload", func(w http.ResponseWriter, r *http.Request) {
		if _, ok := callerFromRequest(r); !ok {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			http.Error(w, "invalid multipart form", http.StatusBadRequest)
			return
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			http.Error(w, "file field is required", http.StatusBadRequest)
			return
		}
		defer file.Close()

		contentType := header.Header.Get("Content-Type")
		attachment, err := ctrl.Upload(r.Context(), header.Filename, contentType, file, header.Size)
		if err != nil {
			http.Error(w, "upload failed", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(attachment)
	})

	return r
}
