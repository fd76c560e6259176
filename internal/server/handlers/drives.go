package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/3leaps/godrives/pkg/gateway"
)

// DrivesHandler serves drive discovery, mount lifecycle, and content
// operations over the gateway.
type DrivesHandler struct {
	gw     *gateway.Gateway
	logger *zap.Logger
}

// NewDrivesHandler creates the handler set for a gateway.
func NewDrivesHandler(gw *gateway.Gateway, logger *zap.Logger) *DrivesHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DrivesHandler{gw: gw, logger: logger}
}

// Routes mounts the drive API onto a chi router.
func (h *DrivesHandler) Routes(r chi.Router) {
	r.Get("/drives", h.ListDrives)
	r.Route("/drives/{drive}", func(r chi.Router) {
		r.Post("/mount", h.Mount)
		r.Post("/unmount", h.Unmount)
		r.Post("/copy", h.Copy)
		r.Route("/contents", func(r chi.Router) {
			// Root listing without a path segment.
			r.Get("/", h.GetContents)
			r.Get("/*", h.GetContents)
			r.Post("/*", h.NewFile)
			r.Put("/*", h.SaveFile)
			r.Patch("/*", h.RenameFile)
			r.Delete("/*", h.DeleteFile)
			r.Head("/*", h.CheckFile)
		})
	})
}

// dataEnvelope wraps every successful response body.
type dataEnvelope struct {
	Data any `json:"data"`
}

func writeData(w http.ResponseWriter, status int, v any) {
	writeJSON(w, status, dataEnvelope{Data: v})
}

type mountRequest struct {
	Provider string `json:"provider"`
	Region   string `json:"region"`
}

type newFileRequest struct {
	IsDir bool `json:"is_dir"`
}

type saveFileRequest struct {
	Content       any    `json:"content"`
	OptionsFormat string `json:"options_format"`
	ContentFormat string `json:"content_format"`
	ContentType   string `json:"content_type"`
}

type renameRequest struct {
	NewPath string `json:"new_path"`
}

type copyRequest struct {
	Path   string `json:"path"`
	ToPath string `json:"to_path"`
}

// ListDrives serves GET /drives with an optional ?filter= glob.
func (h *DrivesHandler) ListDrives(w http.ResponseWriter, r *http.Request) {
	drives, err := h.gw.ListDrives(r.Context(), r.URL.Query().Get("filter"))
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, drives)
}

// Mount serves POST /drives/{drive}/mount. The body is optional; an empty
// one mounts with the default provider and a discovered region.
func (h *DrivesHandler) Mount(w http.ResponseWriter, r *http.Request) {
	drive := chi.URLParam(r, "drive")
	var req mountRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondWithError(w, r, fmt.Errorf("decoding mount request: %w", err))
			return
		}
	}
	if err := h.gw.MountDrive(r.Context(), drive, req.Provider, req.Region); err != nil {
		respondWithError(w, r, err)
		return
	}
	h.logger.Info("drive mounted", zap.String("drive", drive))
	w.WriteHeader(http.StatusNoContent)
}

// Unmount serves POST /drives/{drive}/unmount.
func (h *DrivesHandler) Unmount(w http.ResponseWriter, r *http.Request) {
	drive := chi.URLParam(r, "drive")
	if err := h.gw.UnmountDrive(drive); err != nil {
		respondWithError(w, r, err)
		return
	}
	h.logger.Info("drive unmounted", zap.String("drive", drive))
	w.WriteHeader(http.StatusNoContent)
}

// GetContents serves GET /drives/{drive}/contents/{path}.
func (h *DrivesHandler) GetContents(w http.ResponseWriter, r *http.Request) {
	contents, err := h.gw.GetContents(r.Context(), chi.URLParam(r, "drive"), chi.URLParam(r, "*"))
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, contents.Payload())
}

// NewFile serves POST /drives/{drive}/contents/{path}.
func (h *DrivesHandler) NewFile(w http.ResponseWriter, r *http.Request) {
	var req newFileRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondWithError(w, r, fmt.Errorf("decoding new file request: %w", err))
			return
		}
	}
	file, err := h.gw.NewFile(r.Context(), chi.URLParam(r, "drive"), chi.URLParam(r, "*"), req.IsDir)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, file)
}

// SaveFile serves PUT /drives/{drive}/contents/{path}.
func (h *DrivesHandler) SaveFile(w http.ResponseWriter, r *http.Request) {
	var req saveFileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, r, fmt.Errorf("decoding save request: %w", err))
		return
	}
	file, err := h.gw.SaveFile(r.Context(), chi.URLParam(r, "drive"), chi.URLParam(r, "*"),
		req.Content, req.OptionsFormat, req.ContentFormat, req.ContentType)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, file)
}

// RenameFile serves PATCH /drives/{drive}/contents/{path}.
func (h *DrivesHandler) RenameFile(w http.ResponseWriter, r *http.Request) {
	var req renameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, r, fmt.Errorf("decoding rename request: %w", err))
		return
	}
	if req.NewPath == "" {
		respondWithError(w, r, fmt.Errorf("rename request: new_path is required"))
		return
	}
	file, err := h.gw.RenameFile(r.Context(), chi.URLParam(r, "drive"), chi.URLParam(r, "*"), req.NewPath)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, file)
}

// DeleteFile serves DELETE /drives/{drive}/contents/{path}.
func (h *DrivesHandler) DeleteFile(w http.ResponseWriter, r *http.Request) {
	if err := h.gw.DeleteFile(r.Context(), chi.URLParam(r, "drive"), chi.URLParam(r, "*")); err != nil {
		respondWithError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CheckFile serves HEAD /drives/{drive}/contents/{path}; existence is the
// entire response.
func (h *DrivesHandler) CheckFile(w http.ResponseWriter, r *http.Request) {
	if err := h.gw.CheckFile(r.Context(), chi.URLParam(r, "drive"), chi.URLParam(r, "*")); err != nil {
		status, _ := classifyForHead(err)
		w.WriteHeader(status)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// Copy serves POST /drives/{drive}/copy.
func (h *DrivesHandler) Copy(w http.ResponseWriter, r *http.Request) {
	var req copyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, r, fmt.Errorf("decoding copy request: %w", err))
		return
	}
	if req.Path == "" || req.ToPath == "" {
		respondWithError(w, r, fmt.Errorf("copy request: path and to_path are required"))
		return
	}
	file, err := h.gw.CopyFile(r.Context(), chi.URLParam(r, "drive"), req.Path, req.ToPath)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, file)
}
