package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
)

// Request limits accepted by the search and listing endpoints
const (
	maxSearchTopK       = domain.MaxTopK
	maxPerDocumentLimit = 20
	defaultListLimit    = 50
	maxListLimit        = 200
)

// ErrorResponse represents an API error response
// @Description API error response
type ErrorResponse struct {
	Error string `json:"error" example:"invalid request body"`
}

// StatusResponse represents a simple status response
// @Description Simple status response
type StatusResponse struct {
	Status string `json:"status" example:"ok"`
}

// VersionResponse represents the API version response
// @Description API version response
type VersionResponse struct {
	Version string `json:"version" example:"1.0.0"`
}

// Health endpoints

// handleHealth godoc
// @Summary      Health check
// @Description  Returns the health status of the API
// @Tags         Health
// @Produce      json
// @Success      200  {object}  StatusResponse
// @Router       /health [get]
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, StatusResponse{Status: "ok"})
}

// handleReady godoc
// @Summary      Readiness check
// @Description  Pings the document store and, when configured, the search cache
// @Tags         Health
// @Produce      json
// @Success      200  {object}  StatusResponse
// @Failure      503  {object}  ErrorResponse  "Dependency unavailable"
// @Router       /ready [get]
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.db != nil {
		if err := s.db.Ping(r.Context()); err != nil {
			s.logger.Warn("readiness check failed", "dependency", "database", "error", err)
			writeError(w, http.StatusServiceUnavailable, "database unavailable")
			return
		}
	}
	if s.redisClient != nil {
		if err := s.redisClient.Ping(r.Context()); err != nil {
			s.logger.Warn("readiness check failed", "dependency", "redis", "error", err)
			writeError(w, http.StatusServiceUnavailable, "cache unavailable")
			return
		}
	}
	writeJSON(w, http.StatusOK, StatusResponse{Status: "ready"})
}

// handleVersion godoc
// @Summary      Get API version
// @Description  Returns the current API version
// @Tags         Health
// @Produce      json
// @Success      200  {object}  VersionResponse
// @Router       /version [get]
func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, VersionResponse{Version: s.version})
}

// Search endpoints

// searchRequest is the body of a search call. Omitted fields fall back to
// the policy profile or the configured defaults; an explicit empty list is
// kept as an override.
type searchRequest struct {
	Query                 string   `json:"query" example:"liquidity risk"`
	TopK                  *int     `json:"top_k,omitempty" example:"5"`
	Mode                  string   `json:"mode,omitempty" example:"hybrid" enums:"fts,vector,hybrid"`
	PolicyProfile         string   `json:"policy_profile,omitempty" enums:"strict,balanced,recall"`
	MinScore              *float64 `json:"min_score,omitempty"`
	MaxPerDocument        *int     `json:"max_per_document,omitempty"`
	AllowFallback         *bool    `json:"allow_fallback,omitempty"`
	AllowedSourceTypes    []string `json:"allowed_source_types,omitempty"`
	BlockedSourceKeywords []string `json:"blocked_source_keywords,omitempty"`
	PreferredSourceTypes  []string `json:"preferred_source_types,omitempty"`
	RecencyHalfLifeDays   *int     `json:"recency_half_life_days,omitempty"`
}

// toDomain validates the request and converts it to a domain.SearchRequest
func (req *searchRequest) toDomain() (domain.SearchRequest, error) {
	if req.Query == "" {
		return domain.SearchRequest{}, errors.New("query is required")
	}

	topK := domain.DefaultTopK
	if req.TopK != nil {
		if *req.TopK < 1 || *req.TopK > maxSearchTopK {
			return domain.SearchRequest{}, fmt.Errorf("top_k must be between 1 and %d", maxSearchTopK)
		}
		topK = *req.TopK
	}

	mode, err := domain.ParseSearchMode(req.Mode)
	if err != nil || (req.Mode != "" && string(mode) != req.Mode) {
		return domain.SearchRequest{}, errors.New("mode must be one of fts, vector, hybrid")
	}

	switch req.PolicyProfile {
	case "", domain.PolicyStrict, domain.PolicyBalanced, domain.PolicyRecall:
	default:
		return domain.SearchRequest{}, errors.New("policy_profile must be one of strict, balanced, recall")
	}

	if req.MinScore != nil && (*req.MinScore < 0 || *req.MinScore > 1) {
		return domain.SearchRequest{}, errors.New("min_score must be between 0 and 1")
	}
	if req.MaxPerDocument != nil && (*req.MaxPerDocument < 1 || *req.MaxPerDocument > maxPerDocumentLimit) {
		return domain.SearchRequest{}, fmt.Errorf("max_per_document must be between 1 and %d", maxPerDocumentLimit)
	}

	return domain.SearchRequest{
		Query:                 req.Query,
		TopK:                  topK,
		Mode:                  mode,
		PolicyProfile:         req.PolicyProfile,
		MinScore:              req.MinScore,
		MaxPerDocument:        req.MaxPerDocument,
		AllowFallback:         req.AllowFallback,
		AllowedSourceTypes:    req.AllowedSourceTypes,
		BlockedSourceKeywords: req.BlockedSourceKeywords,
		PreferredSourceTypes:  req.PreferredSourceTypes,
		RecencyHalfLifeDays:   req.RecencyHalfLifeDays,
	}, nil
}

// handleSearch godoc
// @Summary      Search the knowledge base
// @Description  Governed retrieval over ingested chunks. Hits are scored by the selected mode, filtered by the policy profile and returned with citations.
// @Tags         Search
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      searchRequest  true  "Search query"
// @Success      200      {object}  domain.SearchResult
// @Failure      400      {object}  ErrorResponse  "Invalid request"
// @Failure      401      {object}  ErrorResponse  "Unauthorized"
// @Failure      500      {object}  ErrorResponse  "Search failed"
// @Router       /kb/search [post]
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	searchReq, err := req.toDomain()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := s.searchService.Search(r.Context(), searchReq)
	if err != nil {
		s.writeServiceError(w, err, "search failed")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleListPolicies godoc
// @Summary      List governance policies
// @Description  Returns the built-in policy profiles
// @Tags         Search
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   domain.GovernancePolicy
// @Router       /kb/policies [get]
func (s *Server) handleListPolicies(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.searchService.Policies())
}

// Document endpoints

// handleListDocuments godoc
// @Summary      List documents
// @Description  Newest documents first. The total count is returned in X-Total-Count.
// @Tags         Documents
// @Produce      json
// @Security     BearerAuth
// @Param        limit  query     int  false  "Page size (1-200)"  default(50)
// @Success      200    {array}   domain.Document
// @Failure      400    {object}  ErrorResponse  "Invalid limit"
// @Failure      500    {object}  ErrorResponse  "Internal server error"
// @Router       /kb/documents [get]
func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	limit := defaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxListLimit {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("limit must be between 1 and %d", maxListLimit))
			return
		}
		limit = n
	}

	docs, err := s.docService.List(r.Context(), limit)
	if err != nil {
		s.writeServiceError(w, err, "failed to list documents")
		return
	}

	if total, err := s.docService.Count(r.Context()); err == nil {
		w.Header().Set("X-Total-Count", strconv.Itoa(total))
	}

	if docs == nil {
		docs = []*domain.Document{}
	}
	writeJSON(w, http.StatusOK, docs)
}

// handleGetDocument godoc
// @Summary      Get document
// @Description  Returns a document with its chunks
// @Tags         Documents
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Document ID"
// @Success      200  {object}  domain.DocumentWithChunks
// @Failure      404  {object}  ErrorResponse  "Document not found"
// @Router       /kb/documents/{id} [get]
func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing document id")
		return
	}

	doc, err := s.docService.GetWithChunks(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, err, "failed to get document")
		return
	}

	writeJSON(w, http.StatusOK, doc)
}

// Ingestion endpoints

// ingestTextRequest is the JSON form of an ingest-text call
type ingestTextRequest struct {
	SourceName string         `json:"source_name"`
	SourceType string         `json:"source_type,omitempty" example:"txt"`
	Content    string         `json:"content"`
	Title      string         `json:"title,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// handleIngestText godoc
// @Summary      Ingest raw text
// @Description  Chunks, embeds and stores text. Accepts JSON or form fields; the form field metadata is a JSON object.
// @Tags         Ingestion
// @Accept       json,mpfd,x-www-form-urlencoded
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      ingestTextRequest  true  "Text to ingest"
// @Success      201      {object}  domain.IngestResult
// @Failure      400      {object}  ErrorResponse  "Invalid input"
// @Failure      403      {object}  ErrorResponse  "Forbidden - admin only"
// @Failure      413      {object}  ErrorResponse  "Body exceeds the upload limit"
// @Router       /kb/ingest-text [post]
func (s *Server) handleIngestText(w http.ResponseWriter, r *http.Request) {
	var req ingestTextRequest

	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
				return
			}
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	} else {
		if err := r.ParseMultipartForm(s.maxUpload); err != nil && !errors.Is(err, http.ErrNotMultipart) {
			writeError(w, http.StatusBadRequest, "invalid form body")
			return
		}
		meta, err := parseMetadata(r.FormValue("metadata"))
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		req = ingestTextRequest{
			SourceName: r.FormValue("source_name"),
			SourceType: r.FormValue("source_type"),
			Content:    r.FormValue("content"),
			Title:      r.FormValue("title"),
			Metadata:   meta,
		}
	}

	if req.SourceType == "" {
		req.SourceType = string(domain.SourceTypeTXT)
	}

	result, err := s.docService.IngestText(r.Context(), domain.IngestRequest{
		SourceName: req.SourceName,
		SourceType: domain.NormalizeSourceType(req.SourceType),
		Content:    req.Content,
		Title:      req.Title,
		Metadata:   req.Metadata,
	})
	if err != nil {
		s.writeServiceError(w, err, "ingestion failed")
		return
	}

	writeJSON(w, http.StatusCreated, result)
}

// handleIngestFile godoc
// @Summary      Upload a document
// @Description  Stores the uploaded file under a timestamped name and ingests its text. The source type is inferred from the extension unless given.
// @Tags         Ingestion
// @Accept       mpfd
// @Produce      json
// @Security     BearerAuth
// @Param        file         formData  file    true   "Document (txt or json)"
// @Param        source_type  formData  string  false  "Source type override"
// @Param        title        formData  string  false  "Title"
// @Param        metadata     formData  string  false  "Metadata JSON object"
// @Success      201          {object}  domain.IngestResult
// @Failure      400          {object}  ErrorResponse  "Invalid input or unsupported type"
// @Failure      403          {object}  ErrorResponse  "Forbidden - admin only"
// @Router       /kb/ingest [post]
func (s *Server) handleIngestFile(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	if err := r.ParseMultipartForm(s.maxUpload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart body")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	name := filepath.Base(header.Filename)
	if name == "." || name == string(filepath.Separator) || name == "" {
		name = "upload"
	}

	sourceType, err := domain.InferSourceType(name, r.FormValue("source_type"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "unsupported file type; use pdf/txt/json")
		return
	}

	meta, err := parseMetadata(r.FormValue("metadata"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	path, err := s.saveUpload(file, name)
	if err != nil {
		s.logger.Error("failed to store upload", "name", name, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to store upload")
		return
	}

	result, err := s.docService.IngestFile(r.Context(), path, string(sourceType), r.FormValue("title"), meta)
	if err != nil {
		_ = os.Remove(path)
		s.writeServiceError(w, err, "ingestion failed")
		return
	}

	writeJSON(w, http.StatusCreated, result)
}

// saveUpload writes the upload as {YYYYMMDDHHMMSS}_{name} in the upload dir
func (s *Server) saveUpload(src io.Reader, name string) (string, error) {
	if err := os.MkdirAll(s.uploadDir, 0o755); err != nil {
		return "", err
	}

	path := filepath.Join(s.uploadDir, s.now().Format("20060102150405")+"_"+name)
	dst, err := os.Create(path)
	if err != nil {
		return "", err
	}

	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(path)
		return "", err
	}
	return path, dst.Close()
}

// parseMetadata decodes the optional metadata form field
func parseMetadata(raw string) (map[string]any, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var meta map[string]any
	if err := json.Unmarshal([]byte(raw), &meta); err != nil {
		return nil, fmt.Errorf("invalid metadata JSON: %v", err)
	}
	return meta, nil
}

// writeServiceError maps domain errors to HTTP status codes
func (s *Server) writeServiceError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrInvalidMode),
		errors.Is(err, domain.ErrUnsupportedSourceType):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, domain.ErrUnauthorized),
		errors.Is(err, domain.ErrTokenExpired),
		errors.Is(err, domain.ErrTokenInvalid):
		writeError(w, http.StatusUnauthorized, "unauthorized")
	case errors.Is(err, domain.ErrForbidden):
		writeError(w, http.StatusForbidden, "forbidden")
	default:
		s.logger.Error(fallback, "error", err)
		writeError(w, http.StatusInternalServerError, fallback)
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}
