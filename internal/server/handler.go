package server

import (
	"errors"
	"net/http"

	"github.com/emrgen/ingest/internal/content"
	"github.com/emrgen/ingest/internal/editor"
	"github.com/emrgen/ingest/internal/intake"
	"github.com/emrgen/ingest/internal/model"
	"github.com/emrgen/ingest/internal/module"
	"github.com/emrgen/ingest/internal/preview"
	"github.com/emrgen/ingest/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"golang.org/x/time/rate"
)

// maxUploadMemory bounds the part of a multipart upload kept in memory.
const maxUploadMemory = 32 << 20

// Handler serves the library over http.
type Handler struct {
	library  *service.LibraryService
	previews preview.Channel
	verifier module.TokenVerifier
	limiter  *rate.Limiter
	gatherer prometheus.Gatherer
}

type HandlerOption func(*Handler)

// WithTokenVerifier requires a bearer token on every /v1 route.
func WithTokenVerifier(verifier module.TokenVerifier) HandlerOption {
	return func(h *Handler) {
		h.verifier = verifier
	}
}

// WithUploadLimit limits how often uploads are accepted.
func WithUploadLimit(rps float64, burst int) HandlerOption {
	return func(h *Handler) {
		h.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithGatherer serves metrics from gatherer instead of the default registry.
func WithGatherer(gatherer prometheus.Gatherer) HandlerOption {
	return func(h *Handler) {
		h.gatherer = gatherer
	}
}

func NewHandler(library *service.LibraryService, previews preview.Channel, opts ...HandlerOption) *Handler {
	h := &Handler{
		library:  library,
		previews: previews,
		verifier: module.NullTokenVerifier{},
		limiter:  rate.NewLimiter(rate.Inf, 0),
		gatherer: prometheus.DefaultGatherer,
	}
	for _, opt := range opts {
		opt(h)
	}

	return h
}

// Router builds the http routes.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(RequestTimeMiddleware)

	r.Handle("/metrics", promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{}))

	r.Route("/v1", func(r chi.Router) {
		r.Get("/health", h.health)

		r.Group(func(r chi.Router) {
			r.Use(module.HTTPAuthTokenMiddleware(h.verifier, writeError))

			r.Get("/samples/{kind}", h.sample)
			r.Post("/validate", h.validate)

			r.Route("/records", func(r chi.Router) {
				r.Get("/", h.listRecords)
				r.With(RateLimitMiddleware(h.limiter, "upload")).Post("/", h.uploadRecord)
				r.With(RateLimitMiddleware(h.limiter, "upload")).Post("/upload", h.uploadFiles)

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", h.getRecord)
					r.Get("/versions", h.listVersions)
					r.Post("/versions", h.saveVersion)
					r.Get("/fields", h.fields)
					r.Post("/edit", h.edit)
				})
			})

			r.Post("/previews", h.openPreview)
			r.Get("/previews/{token}", h.takePreview)
		})
	})

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"}, // All origins are allowed
		AllowedMethods:   []string{"GET", "POST"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	})

	return c.Handler(r)
}

// RecordView is a record as returned by the api.
type RecordView struct {
	*model.Record
	// VersionOf is the name of the record this one is a version of.
	VersionOf string `json:"versionOf,omitempty"`
}

func (h *Handler) view(r *http.Request, record *model.Record) RecordView {
	return RecordView{Record: record, VersionOf: h.library.VersionOf(r.Context(), record)}
}

func (h *Handler) views(r *http.Request, records []*model.Record) []RecordView {
	views := make([]RecordView, len(records))
	for i, record := range records {
		views[i] = h.view(r, record)
	}

	return views
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type SampleResponse struct {
	Kind    model.Kind `json:"kind"`
	Content string     `json:"content"`
}

func (h *Handler) sample(w http.ResponseWriter, r *http.Request) {
	kind, err := model.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		writeError(w, err)
		return
	}

	sample, err := content.Sample(kind)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, SampleResponse{Kind: kind, Content: sample})
}

type ValidateRequest struct {
	Kind    model.Kind `json:"kind"`
	Content string     `json:"content"`
}

type ValidateResponse struct {
	Kind   model.Kind `json:"kind"`
	Valid  bool       `json:"valid"`
	Reason string     `json:"reason,omitempty"`
}

// validate always answers 200; an invalid document is a result, not a failure.
func (h *Handler) validate(w http.ResponseWriter, r *http.Request) {
	var req ValidateRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	res := h.library.Validate(req.Kind, req.Content)
	writeJSON(w, http.StatusOK, ValidateResponse{Kind: res.Kind, Valid: res.Valid, Reason: res.Reason})
}

type RecordsResponse struct {
	Records []RecordView `json:"records"`
}

func (h *Handler) listRecords(w http.ResponseWriter, r *http.Request) {
	var kind model.Kind
	if name := r.URL.Query().Get("kind"); name != "" {
		parsed, err := model.ParseKind(name)
		if err != nil {
			writeError(w, err)
			return
		}
		kind = parsed
	}

	records, err := h.library.ListRecords(r.Context(), kind)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, RecordsResponse{Records: h.views(r, records)})
}

type UploadRequest struct {
	Name     string     `json:"name"`
	Uploader string     `json:"uploader"`
	Kind     model.Kind `json:"kind"`
	Content  string     `json:"content"`
}

func (h *Handler) uploadRecord(w http.ResponseWriter, r *http.Request) {
	var req UploadRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	record, err := h.library.Upload(r.Context(), service.UploadRequest(req))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, h.view(r, record))
}

type FileResult struct {
	Name     string        `json:"name"`
	Accepted bool          `json:"accepted"`
	Record   *model.Record `json:"record,omitempty"`
	Error    string        `json:"error,omitempty"`
}

type UploadFilesResponse struct {
	Results []FileResult `json:"results"`
}

// uploadFiles takes a multipart form with "kind", an optional "uploader" and up to
// intake.MaxBatchSize "files".
func (h *Handler) uploadFiles(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		writeError(w, badRequest{err: err})
		return
	}
	defer r.MultipartForm.RemoveAll()

	kind, err := model.ParseKind(r.FormValue("kind"))
	if err != nil {
		writeError(w, err)
		return
	}

	files, err := intake.ReadMultipart(r.Context(), r.MultipartForm.File["files"])
	if err != nil {
		writeError(w, err)
		return
	}

	outcomes, err := h.library.UploadFiles(r.Context(), r.FormValue("uploader"), kind, files)
	if err != nil {
		writeError(w, err)
		return
	}

	results := make([]FileResult, len(outcomes))
	for i, o := range outcomes {
		results[i] = FileResult{Name: o.Name, Accepted: o.Accepted(), Record: o.Record}
		if o.Err != nil {
			results[i].Error = o.Err.Error()
		}
	}

	writeJSON(w, http.StatusOK, UploadFilesResponse{Results: results})
}

func (h *Handler) getRecord(w http.ResponseWriter, r *http.Request) {
	record, err := h.library.GetRecord(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, h.view(r, record))
}

func (h *Handler) listVersions(w http.ResponseWriter, r *http.Request) {
	records, err := h.library.ListVersions(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, RecordsResponse{Records: h.views(r, records)})
}

type SaveVersionRequest struct {
	Content  string     `json:"content"`
	Kind     model.Kind `json:"kind,omitempty"`
	Uploader string     `json:"uploader,omitempty"`
}

func (h *Handler) saveVersion(w http.ResponseWriter, r *http.Request) {
	var req SaveVersionRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	record, err := h.library.SaveNewVersion(r.Context(), chi.URLParam(r, "id"), req.Content, req.Kind, req.Uploader)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, h.view(r, record))
}

type FieldsResponse struct {
	Fields []editor.Field `json:"fields"`
	Error  string         `json:"error,omitempty"`
}

// fields projects a record into its editable fields. Content that does not parse is
// reported inline with no fields.
func (h *Handler) fields(w http.ResponseWriter, r *http.Request) {
	record, err := h.library.GetRecord(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	session := editor.NewSession(record.Kind)
	if err := session.Load(record.Content); err != nil {
		writeJSON(w, http.StatusOK, FieldsResponse{Fields: []editor.Field{}, Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, FieldsResponse{Fields: session.Fields()})
}

type Edit struct {
	Path  string `json:"path"`
	Value string `json:"value"`
}

type EditRequest struct {
	Edits []Edit `json:"edits"`
	// NewVersion saves the edited document as the next version of the record;
	// otherwise it is saved as a new original.
	NewVersion bool   `json:"newVersion"`
	Uploader   string `json:"uploader,omitempty"`
}

func (h *Handler) edit(w http.ResponseWriter, r *http.Request) {
	var req EditRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	record, err := h.library.GetRecord(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	session := editor.NewSession(record.Kind)
	if err := session.Load(record.Content); err != nil {
		writeError(w, err)
		return
	}
	for _, e := range req.Edits {
		if err := session.Apply(e.Path, e.Value); err != nil {
			writeError(w, err)
			return
		}
	}

	draft, err := session.Save(req.NewVersion)
	if err != nil {
		writeError(w, err)
		return
	}

	save := service.SaveRequest{Content: draft.Content, Kind: draft.Kind, Uploader: req.Uploader}
	if draft.NewVersion {
		save.VersionOf = record.ID
	}

	saved, err := h.library.Prepare(save).Confirm(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, h.view(r, saved))
}

type PreviewRequest struct {
	RecordID string     `json:"recordId,omitempty"`
	Kind     model.Kind `json:"kind,omitempty"`
	Content  string     `json:"content,omitempty"`
}

type PreviewToken struct {
	Token string `json:"token"`
}

// openPreview hands a document to the preview page. A record id takes the record's content.
func (h *Handler) openPreview(w http.ResponseWriter, r *http.Request) {
	var req PreviewRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	handoff := preview.Handoff{RecordID: req.RecordID, Kind: req.Kind, Content: req.Content}
	if req.RecordID != "" {
		record, err := h.library.GetRecord(r.Context(), req.RecordID)
		if err != nil {
			writeError(w, err)
			return
		}
		handoff.Kind = record.Kind
		handoff.Content = record.Content
	}

	token, err := h.previews.Put(r.Context(), handoff)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, PreviewToken{Token: token})
}

type PreviewResponse struct {
	Handoff preview.Handoff `json:"handoff"`
	View    *preview.View   `json:"view,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// takePreview consumes a hand-off and renders it. Render failures are shown inline.
func (h *Handler) takePreview(w http.ResponseWriter, r *http.Request) {
	handoff, err := h.previews.Take(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		writeError(w, err)
		return
	}

	resp := PreviewResponse{Handoff: handoff}
	view, err := preview.Render(handoff.Content)
	if err != nil {
		if !errors.Is(err, content.ErrInvalidJSON) && !errors.Is(err, preview.ErrUnknownContentType) && !errors.Is(err, content.ErrShapeMismatch) {
			writeError(w, err)
			return
		}
		resp.Error = err.Error()
	}
	resp.View = view

	writeJSON(w, http.StatusOK, resp)
}
