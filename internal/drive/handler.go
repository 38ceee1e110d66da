package drive

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/promo-dispatch/internal/domain"
	"github.com/andresuchdata/promo-dispatch/internal/service"
)

type fileService interface {
	ListFiles(ctx context.Context, folderID string) ([]*File, error)
	FindFolderByPath(ctx context.Context, path string) (string, error)
	GetFile(ctx context.Context, fileID string) (*File, error)
	DownloadFile(ctx context.Context, file *File, w io.Writer) error
}

type analyzer interface {
	AnalyzeDrive(ctx context.Context, inventoryID, targetsID string, in service.ParamsInput) (*domain.AnalysisReport, error)
}

type Handler struct {
	files    fileService
	analysis analyzer
}

func NewHandler(files *Service, analysis *service.AnalysisService) *Handler {
	return &Handler{
		files:    files,
		analysis: analysis,
	}
}

func (h *Handler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/drive/files", h.ListFiles).Methods("GET")
	router.HandleFunc("/api/drive/files/download", h.DownloadFile).Methods("GET")
	router.HandleFunc("/api/drive/analysis", h.Analyze).Methods("POST")
}

func (h *Handler) ListFiles(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := r.URL.Query()
	folderID := query.Get("folderId")
	folderPath := query.Get("path")

	var err error
	if folderPath != "" {
		// Find folder by path
		folderID, err = h.files.FindFolderByPath(ctx, folderPath)
		if err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
	}

	files, err := h.files.ListFiles(ctx, folderID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if query.Get("spreadsheets") == "true" {
		filtered := files[:0]
		for _, f := range files {
			if f.IsSpreadsheet() {
				filtered = append(filtered, f)
			}
		}
		files = filtered
	}

	writeJSON(w, http.StatusOK, files)
}

func (h *Handler) DownloadFile(w http.ResponseWriter, r *http.Request) {
	fileID := r.URL.Query().Get("fileId")
	if fileID == "" {
		http.Error(w, "fileId parameter is required", http.StatusBadRequest)
		return
	}

	file, err := h.files.GetFile(r.Context(), fileID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	contentType := file.MimeType
	if file.MimeType == spreadsheetMimeType {
		contentType = xlsxMimeType
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.LocalName()))

	if err := h.files.DownloadFile(r.Context(), file, w); err != nil {
		log.Error().Err(err).Str("file_id", fileID).Msg("drive download failed")
	}
}

// Analyze runs an analysis over two Drive files: fileA (inventory) and fileB (targets).
func (h *Handler) Analyze(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	fileA, fileB := query.Get("fileA"), query.Get("fileB")
	if fileA == "" || fileB == "" {
		http.Error(w, "fileA and fileB parameters are required", http.StatusBadRequest)
		return
	}

	in, err := service.ParseParams(query.Get("lead_time"), query.Get("current_day"), query.Get("strategy"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, service.ErrorBody(err))
		return
	}

	report, err := h.analysis.AnalyzeDrive(r.Context(), fileA, fileB, in)
	if err != nil {
		log.Error().Err(err).Str("fileA", fileA).Str("fileB", fileB).Msg("drive analysis failed")
		writeJSON(w, service.ErrorStatus(err), service.ErrorBody(err))
		return
	}

	writeJSON(w, http.StatusOK, report.Overview())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
