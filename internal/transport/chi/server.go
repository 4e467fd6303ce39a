// Package chi exposes the HTTP API over a go-chi router.
package chi

import (
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/sbomdex/sbomdex/internal/domain"
	"github.com/sbomdex/sbomdex/internal/domain/sbom"
	catalogrepo "github.com/sbomdex/sbomdex/internal/repository/catalog"
	analysisuc "github.com/sbomdex/sbomdex/internal/usecase/analysis"
	cataloguc "github.com/sbomdex/sbomdex/internal/usecase/catalog"
	generateuc "github.com/sbomdex/sbomdex/internal/usecase/generate"
	healthuc "github.com/sbomdex/sbomdex/internal/usecase/health"
)

const (
	// maxSBOMBytes bounds one uploaded SBOM document.
	maxSBOMBytes = 32 << 20
	// maxExecutableBytes bounds one uploaded executable for generation.
	maxExecutableBytes = 256 << 20
)

// Error response codes.
const (
	codeBadRequest        = "bad_request"
	codeValidationFailed  = "validation_failed"
	codeNotFound          = "not_found"
	codeAlreadyExists     = "already_exists"
	codeMalformedDocument = "malformed_document"
	codeGeneratorFailed   = "generator_failed"
	codeInternalError     = "internal_error"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server holds the HTTP handlers for the SBOM API.
type Server struct {
	catalog       *cataloguc.Service
	analysis      *analysisuc.Service
	generate      *generateuc.Service
	health        *healthuc.Service
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	catalog *cataloguc.Service,
	analysis *analysisuc.Service,
	generate *generateuc.Service,
	health *healthuc.Service,
	logger *zap.Logger,
) *Server {
	s := &Server{
		catalog:  catalog,
		analysis: analysis,
		generate: generate,
		health:   health,
		logger:   logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, codeNotFound),
		sentinelHandler(domain.ErrAlreadyExists, http.StatusConflict, codeAlreadyExists),
		sentinelHandler(domain.ErrInvalidInput, http.StatusBadRequest, codeValidationFailed),
		sentinelHandler(domain.ErrMalformedDocument, http.StatusBadRequest, codeMalformedDocument),
		sentinelHandler(domain.ErrGeneratorFailed, http.StatusBadGateway, codeGeneratorFailed),
	}
	return s
}

// Routes mounts everything the server handles on the given router.
func (s *Server) Routes(r chi.Router) {
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)

	r.Route("/api", func(r chi.Router) {
		r.Get("/sboms", s.ListSBOMs)
		r.Get("/sboms/autocomplete", s.Autocomplete)
		r.Get("/sboms/facets", s.Facets)
		r.Post("/upload", s.Upload)
		r.Post("/generate", s.Generate)
		r.Get("/sbom/{filename}", s.GetDocument)
		r.Get("/sbom/{filename}/stats", s.DocumentStats)
		r.Delete("/sbom/{filename}", s.DeleteSBOM)
		r.Post("/search", s.Search)
		r.Post("/compare", s.Compare)
		r.Post("/compare-terms", s.CompareTerms)
		r.Get("/statistics", s.Statistics)
	})
}

// --- Catalog handlers ---

// ListSBOMs handles GET /api/sboms.
func (s *Server) ListSBOMs(w http.ResponseWriter, r *http.Request) {
	q := catalogrepo.Query{
		Keyword:         r.URL.Query().Get("q"),
		Category:        r.URL.Query().Get("category"),
		OperatingSystem: r.URL.Query().Get("operating_system"),
		AppBinaryType:   r.URL.Query().Get("app_binary_type"),
		Supplier:        r.URL.Query().Get("supplier"),
		Limit:           queryInt(r, "limit"),
		Offset:          queryInt(r, "offset"),
	}

	records, err := s.catalog.List(r.Context(), q)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	items := make([]sbomResponse, len(records))
	for i, rec := range records {
		items[i] = recordToResponse(rec)
	}
	writeJSON(w, http.StatusOK, sbomListResponse{Items: items, Total: len(items)})
}

// Autocomplete handles GET /api/sboms/autocomplete.
func (s *Server) Autocomplete(w http.ResponseWriter, r *http.Request) {
	prefix := r.URL.Query().Get("prefix")
	names, err := s.catalog.Autocomplete(r.Context(), prefix, queryInt(r, "limit"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	if names == nil {
		names = []string{}
	}
	writeJSON(w, http.StatusOK, autocompleteResponse{Suggestions: names})
}

// Facets handles GET /api/sboms/facets.
func (s *Server) Facets(w http.ResponseWriter, r *http.Request) {
	facets, err := s.catalog.Facets(r.Context())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, facetsResponse{
		Categories:       emptyIfNil(facets.Categories),
		OperatingSystems: emptyIfNil(facets.OperatingSystems),
		AppBinaryTypes:   emptyIfNil(facets.AppBinaryTypes),
		Suppliers:        emptyIfNil(facets.Suppliers),
	})
}

// Upload handles POST /api/upload.
func (s *Server) Upload(w http.ResponseWriter, r *http.Request) {
	filename, data, user, ok := s.readUploadForm(w, r, maxSBOMBytes)
	if !ok {
		return
	}

	rec, err := s.catalog.Upload(r.Context(), filename, data, user)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, recordToResponse(rec))
}

// Generate handles POST /api/generate.
func (s *Server) Generate(w http.ResponseWriter, r *http.Request) {
	filename, data, user, ok := s.readUploadForm(w, r, maxExecutableBytes)
	if !ok {
		return
	}

	rec, err := s.generate.Generate(r.Context(), filename, data, user)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, recordToResponse(rec))
}

// GetDocument handles GET /api/sbom/{filename} and serves the raw document.
func (s *Server) GetDocument(w http.ResponseWriter, r *http.Request) {
	filename := chi.URLParam(r, "filename")
	data, err := s.catalog.Document(r.Context(), filename)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// DeleteSBOM handles DELETE /api/sbom/{filename}.
func (s *Server) DeleteSBOM(w http.ResponseWriter, r *http.Request) {
	filename := chi.URLParam(r, "filename")
	if err := s.catalog.Delete(r.Context(), filename); err != nil {
		s.handleDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- Analysis handlers ---

// DocumentStats handles GET /api/sbom/{filename}/stats.
func (s *Server) DocumentStats(w http.ResponseWriter, r *http.Request) {
	filename := chi.URLParam(r, "filename")
	stats, err := s.analysis.DocumentStats(r.Context(), filename)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// Search handles POST /api/search.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.SBOMFile == "" {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "sbom_file is required")
		return
	}

	components, err := s.analysis.Search(r.Context(), req.SBOMFile, req.Keyword)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	if components == nil {
		components = []sbom.Component{}
	}
	writeJSON(w, http.StatusOK, searchResponse{
		SBOMFile: req.SBOMFile,
		Keyword:  req.Keyword,
		Results:  components,
		Total:    len(components),
	})
}

// Compare handles POST /api/compare.
func (s *Server) Compare(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeCompareRequest(w, r)
	if !ok {
		return
	}

	result, err := s.analysis.Compare(r.Context(), req.SBOM1, req.SBOM2)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// CompareTerms handles POST /api/compare-terms.
func (s *Server) CompareTerms(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeCompareRequest(w, r)
	if !ok {
		return
	}

	result, err := s.analysis.CompareTerms(r.Context(), req.SBOM1, req.SBOM2)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Statistics handles GET /api/statistics.
func (s *Server) Statistics(w http.ResponseWriter, r *http.Request) {
	stats, err := s.analysis.CorpusStats(r.Context())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// --- Infrastructure handlers ---

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}
	writeJSON(w, httpStatus, healthResponse{
		Status: string(report.Status),
		Checks: checksToStrings(report.Checks),
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// --- Helpers ---

// readUploadForm parses a multipart upload: the document under the "file"
// field plus the optional metadata form fields. On failure it writes the
// error response itself and returns ok=false.
func (s *Server) readUploadForm(
	w http.ResponseWriter, r *http.Request, maxBytes int64,
) (string, []byte, cataloguc.UserMetadata, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid multipart form: "+err.Error())
		return "", nil, cataloguc.UserMetadata{}, false
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "A file field is required")
		return "", nil, cataloguc.UserMetadata{}, false
	}
	data, err := readAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Failed to read uploaded file: "+err.Error())
		return "", nil, cataloguc.UserMetadata{}, false
	}

	cost, _ := strconv.ParseFloat(r.FormValue("cost"), 64)
	user := cataloguc.UserMetadata{
		AppName:         r.FormValue("app_name"),
		Category:        r.FormValue("category"),
		OperatingSystem: r.FormValue("operating_system"),
		AppBinaryType:   r.FormValue("app_binary_type"),
		Supplier:        r.FormValue("supplier"),
		Version:         r.FormValue("version"),
		Cost:            cost,
		Description:     r.FormValue("description"),
	}
	return header.Filename, data, user, true
}

func readAll(f multipart.File) ([]byte, error) {
	defer func() { _ = f.Close() }()
	return io.ReadAll(f)
}

func decodeCompareRequest(w http.ResponseWriter, r *http.Request) (compareRequest, bool) {
	var req compareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return compareRequest{}, false
	}
	if req.SBOM1 == "" || req.SBOM2 == "" {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "sbom1 and sbom2 are required")
		return compareRequest{}, false
	}
	return req, true
}

func queryInt(r *http.Request, name string) int {
	v, _ := strconv.Atoi(r.URL.Query().Get(name))
	return v
}

func emptyIfNil(ss []string) []string {
	if ss == nil {
		return []string{}
	}
	return ss
}

func checksToStrings(checks map[string]healthuc.CheckResult) map[string]string {
	out := make(map[string]string, len(checks))
	for k, v := range checks {
		out[k] = string(v)
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}

// safeDomainMessage returns a sentinel error message for the client without
// exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrNotFound,
		domain.ErrAlreadyExists,
		domain.ErrInvalidInput,
		domain.ErrMalformedDocument,
		domain.ErrGeneratorFailed,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}
