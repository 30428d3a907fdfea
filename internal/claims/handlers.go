package claims

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"image"
	_ "image/gif"  // Register GIF decoder
	_ "image/jpeg" // Register JPEG decoder
	_ "image/png"  // Register PNG decoder
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
)

const sessionCookieName = "claim_session"

// maxUploadSize caps a single voucher upload. Phone photos rarely exceed it.
const maxUploadSize = int64(10 << 20) // 10MB

// corsError writes an error response with CORS headers set
func corsError(w http.ResponseWriter, message string, code int) {
	setCORSHeaders(w)
	http.Error(w, message, code)
}

// jsonError writes a JSON error body with CORS headers set
func jsonError(w http.ResponseWriter, message string, code int) {
	setCORSHeaders(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{
		"error": message,
	})
}

// setCORSHeaders sets CORS headers on a response
func setCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
	w.Header().Set("Access-Control-Max-Age", "3600")
}

func (s *Server) writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// sessionID returns the session ID from the request cookie, minting a new
// cookie when none is present. Lazy creation keeps initialization idempotent
// across page loads.
func (s *Server) sessionID(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(sessionCookieName); err == nil && c.Value != "" {
		return c.Value
	}

	id := s.service.NewSessionID()
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}

// slotIndices parses the group and slot path values
func slotIndices(r *http.Request) (int, int, error) {
	groupIdx, err := strconv.Atoi(r.PathValue("group"))
	if err != nil {
		return 0, 0, err
	}
	slotIdx, err := strconv.Atoi(r.PathValue("slot"))
	if err != nil {
		return 0, 0, err
	}
	return groupIdx, slotIdx, nil
}

// handleIndex serves the HTML interface
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	setCORSHeaders(w)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(indexHTML)
}

// handleHealthcheck reports liveness
func (s *Server) handleHealthcheck(w http.ResponseWriter, r *http.Request) {
	if _, err := w.Write([]byte("OK")); err != nil {
		slog.Error("Unable to write healthcheck", "error", err)
	}
}

// handleGetSession returns the current session, creating it on first touch
func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	session := s.service.Initialize(s.sessionID(w, r))
	s.writeJSON(w, session)
}

// handleAddGroup appends an empty claim group to the session
func (s *Server) handleAddGroup(w http.ResponseWriter, r *http.Request) {
	session := s.service.AddGroup(s.sessionID(w, r))

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(session); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// handleSetClaimant records the claimant ID for a group
func (s *Server) handleSetClaimant(w http.ResponseWriter, r *http.Request) {
	groupIdx, err := strconv.Atoi(r.PathValue("group"))
	if err != nil {
		corsError(w, "Invalid group index", http.StatusBadRequest)
		return
	}

	var req struct {
		ClaimantID string `json:"claimant_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		corsError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	id := s.sessionID(w, r)
	if err := s.service.SetClaimant(id, groupIdx, req.ClaimantID); err != nil {
		corsError(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.writeJSON(w, s.service.Initialize(id))
}

// allowedUploadExt mirrors the picker's accepted extensions. HEIC is
// tolerated because phone pickers hand it over regardless.
func allowedUploadExt(ext string) bool {
	switch ext {
	case ".jpg", ".jpeg", ".png", ".heic":
		return true
	default:
		return false
	}
}

// handleUploadSlot places an uploaded file into a voucher slot, replacing
// whatever the slot held
func (s *Server) handleUploadSlot(w http.ResponseWriter, r *http.Request) {
	groupIdx, slotIdx, err := slotIndices(r)
	if err != nil {
		corsError(w, "Invalid group or slot index", http.StatusBadRequest)
		return
	}

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		slog.Error("Error parsing multipart form", "error", err)
		jsonError(w, "Error parsing form", http.StatusBadRequest)
		return
	}

	f, header, err := r.FormFile("file")
	if err != nil {
		slog.Error("Error getting file from form", "error", err)
		jsonError(w, "No file was selected. Please choose a file to upload.", http.StatusBadRequest)
		return
	}
	defer f.Close()

	if header.Size > maxUploadSize {
		jsonError(w, "File is too large. Maximum size is 10MB.", http.StatusBadRequest)
		return
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !allowedUploadExt(ext) {
		jsonError(w, "Unsupported file type. Please upload a jpg, jpeg or png image.", http.StatusBadRequest)
		return
	}

	data, err := io.ReadAll(io.LimitReader(f, maxUploadSize))
	if err != nil {
		slog.Error("Error reading file data", "error", err, "filename", header.Filename)
		jsonError(w, "Error reading file. Please try again.", http.StatusInternalServerError)
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = contentTypeForFilename(header.Filename)
	}
	contentType = strings.ToLower(strings.TrimSpace(contentType))

	img := &UploadedImage{
		Filename:    header.Filename,
		ContentType: contentType,
		Data:        data,
		UploadedAt:  s.service.timeSource.Now(),
	}
	img.Width, img.Height = probeDimensions(data)

	id := s.sessionID(w, r)
	if err := s.service.SetSlotImage(id, groupIdx, slotIdx, img); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if docType := r.FormValue("doc_type"); docType != "" {
		if err := s.service.SetSlotDocType(id, groupIdx, slotIdx, docType); err != nil {
			jsonError(w, err.Error(), http.StatusBadRequest)
			return
		}
	}

	slog.Info("Voucher uploaded", "session_id", id, "group", groupIdx, "slot", slotIdx, "filename", header.Filename)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(s.service.Initialize(id)); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// probeDimensions reads the image header for width/height. Failures are
// tolerated: dimensions are cosmetic.
func probeDimensions(data []byte) (int, int) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		slog.Warn("Failed to read image dimensions", "error", err)
		return 0, 0
	}
	return cfg.Width, cfg.Height
}

// handleClearSlot empties a voucher slot
func (s *Server) handleClearSlot(w http.ResponseWriter, r *http.Request) {
	groupIdx, slotIdx, err := slotIndices(r)
	if err != nil {
		corsError(w, "Invalid group or slot index", http.StatusBadRequest)
		return
	}

	if err := s.service.ClearSlotImage(s.sessionID(w, r), groupIdx, slotIdx); err != nil {
		corsError(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleSubmit runs extraction over the session and returns the labeled
// result tables
func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	results, err := s.service.Submit(s.sessionID(w, r))
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadGateway)
		return
	}

	s.writeJSON(w, results)
}

// handleResultsCSV renders the submission pass as a CSV download
func (s *Server) handleResultsCSV(w http.ResponseWriter, r *http.Request) {
	results, err := s.service.Submit(s.sessionID(w, r))
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="claim_extraction.csv"`)

	cw := csv.NewWriter(w)
	record := []string{"Claim Group", "Voucher", "Claimant ID", "Document Type", "Filename", "Field", "Value"}
	if err := cw.Write(record); err != nil {
		slog.Error("Error writing CSV", "error", err)
		return
	}
	for _, result := range results {
		for _, field := range result.Fields {
			record = []string{
				result.GroupLabel,
				result.VoucherLabel,
				result.ClaimantID,
				result.DocType,
				result.Filename,
				field.Name,
				field.Value,
			}
			if err := cw.Write(record); err != nil {
				slog.Error("Error writing CSV", "error", err)
				return
			}
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		slog.Error("Error flushing CSV", "error", err)
	}
}

// handleArchive persists a submission snapshot of the current session
func (s *Server) handleArchive(w http.ResponseWriter, r *http.Request) {
	submission, err := s.service.Archive(s.sessionID(w, r))
	if err != nil {
		slog.Error("Error archiving submission", "error", err)
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(submission); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// handleListSubmissions returns all archived submissions
func (s *Server) handleListSubmissions(w http.ResponseWriter, r *http.Request) {
	submissions, err := s.service.ListSubmissions()
	if err != nil {
		slog.Error("Error listing submissions", "error", err)
		corsError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	s.writeJSON(w, submissions)
}

// handleGetSubmission returns a single archived submission
func (s *Server) handleGetSubmission(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		corsError(w, "Submission ID required", http.StatusBadRequest)
		return
	}
	submission, err := s.service.GetSubmission(id)
	if err != nil {
		corsError(w, "Submission not found", http.StatusNotFound)
		return
	}

	s.writeJSON(w, submission)
}

// handleGetSubmissionFile returns a stored voucher file
func (s *Server) handleGetSubmissionFile(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	filename := r.PathValue("filename")
	if id == "" || filename == "" {
		corsError(w, "Submission ID and filename required", http.StatusBadRequest)
		return
	}

	data, contentType, err := s.service.GetSubmissionFile(id, filename)
	if err != nil {
		corsError(w, "File not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Write(data)
}

// handleStaticCSS serves the CSS file
func (s *Server) handleStaticCSS(w http.ResponseWriter, r *http.Request) {
	setCORSHeaders(w)
	w.Header().Set("Content-Type", "text/css")
	w.Write(appCSS)
}

// handleStaticJS serves the JavaScript file
func (s *Server) handleStaticJS(w http.ResponseWriter, r *http.Request) {
	setCORSHeaders(w)
	w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
	w.Write(appJS)
}
