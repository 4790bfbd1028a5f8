package update

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	domain "github.com/oshokin/swupdate-httpd/internal/domain/update"
	"github.com/oshokin/swupdate-httpd/internal/metrics"
)

const (
	// ImagesPrefix is the URL path under which artifact files are served.
	ImagesPrefix = "/images"
	// ambiguousMessage prefixes the diagnostic for ambiguous catalogs.
	ambiguousMessage = "More than one matching update image"
	// catalogErrorMessage is sent when the images directory cannot be read.
	catalogErrorMessage = "Unable to read update images"
)

// Service abstracts the resolution operations the transport depends on.
type Service interface {
	Resolve(ctx context.Context, req domain.Request) (domain.Resolution, error)
	Ready(ctx context.Context) error
}

// Server exposes the update endpoint and the artifact files over HTTP.
type Server struct {
	// service resolves update requests.
	service Service
	// imagesDirectory is served verbatim under ImagesPrefix.
	imagesDirectory string
	// metrics records request counters; nil disables them.
	metrics *metrics.Metrics
}

// NewServer wires the provided service into an HTTP handler set.
func NewServer(service Service, imagesDirectory string, m *metrics.Metrics) *Server {
	return &Server{
		service:         service,
		imagesDirectory: imagesDirectory,
		metrics:         m,
	}
}

// Handler returns a router with every route and middleware registered.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(requestID)
	r.Use(s.accessLog)
	r.Use(middleware.Recoverer)

	s.RegisterRoutes(r)

	return r
}

// RegisterRoutes registers the update, artifact, health and metrics routes.
func (s *Server) RegisterRoutes(r chi.Router) {
	r.Get("/", s.CheckForUpdate)

	files := http.StripPrefix(ImagesPrefix+"/", http.FileServer(http.Dir(s.imagesDirectory)))
	r.Get(ImagesPrefix, http.RedirectHandler(ImagesPrefix+"/", http.StatusMovedPermanently).ServeHTTP)
	r.Get(ImagesPrefix+"/*", files.ServeHTTP)
	r.Head(ImagesPrefix+"/*", files.ServeHTTP)

	r.Get("/healthz", s.Healthz)

	if s.metrics != nil {
		r.Handle("/metrics", s.metrics.Handler())
	}
}

// CheckForUpdate answers whether an update exists for the queried image, device and version.
func (s *Server) CheckForUpdate(w http.ResponseWriter, r *http.Request) {
	req, err := requestFromQuery(r.URL.Query())
	if err != nil {
		if s.metrics != nil {
			s.metrics.Resolutions.WithLabelValues(metrics.OutcomeBadRequest).Inc()
		}

		w.Header().Set(domain.ErrorHeader, err.Error())
		w.WriteHeader(http.StatusBadRequest)

		return
	}

	resolution, err := s.service.Resolve(r.Context(), req)
	if err != nil {
		writeResolveError(w, err)
		return
	}

	if resolution.Outcome != domain.UpdateAvailable {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	w.Header().Set("Location", ImageLocation(resolution.ArtifactName))
	w.WriteHeader(http.StatusFound)
}

// Healthz reports whether the images directory can be listed.
func (s *Server) Healthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	if err := s.service.Ready(r.Context()); err != nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("unavailable\n"))

		return
	}

	_, _ = w.Write([]byte("ok\n"))
}

// ImageLocation returns the URL path under which the named artifact is served.
func ImageLocation(name string) string {
	return ImagesPrefix + "/" + url.PathEscape(name)
}

// requestFromQuery builds a domain request, requiring every parameter to be present.
// A present but empty value is accepted.
func requestFromQuery(query url.Values) (domain.Request, error) {
	var missing []string

	for _, name := range []string{domain.ParamImage, domain.ParamDevice, domain.ParamCurrentVersion} {
		if !query.Has(name) {
			missing = append(missing, name)
		}
	}

	if len(missing) > 0 {
		return domain.Request{}, &missingParamsError{names: missing}
	}

	return domain.Request{
		Image:          query.Get(domain.ParamImage),
		Device:         query.Get(domain.ParamDevice),
		CurrentVersion: query.Get(domain.ParamCurrentVersion),
	}, nil
}

// writeResolveError maps resolver failures to 500 responses with a diagnostic header.
func writeResolveError(w http.ResponseWriter, err error) {
	var ambiguous *domain.AmbiguousCatalogError

	switch {
	case errors.As(err, &ambiguous):
		w.Header().Set(domain.ErrorHeader, ambiguousMessage+": "+strings.Join(ambiguous.ArtifactNames, ", "))
	case errors.Is(err, domain.ErrAmbiguousCatalog):
		w.Header().Set(domain.ErrorHeader, ambiguousMessage+".")
	default:
		w.Header().Set(domain.ErrorHeader, catalogErrorMessage+".")
	}

	w.WriteHeader(http.StatusInternalServerError)
}

// missingParamsError lists absent query parameters.
type missingParamsError struct {
	names []string
}

// Error implements the error interface.
func (e *missingParamsError) Error() string {
	return "missing query parameters: " + strings.Join(e.names, ", ")
}

// Unwrap lets errors.Is match domain.ErrMalformedRequest.
func (e *missingParamsError) Unwrap() error {
	return domain.ErrMalformedRequest
}
