package api

import (
	_ "embed"
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	customerrors "github.com/axellelanca/linkshorter/internal/errors"
	"github.com/axellelanca/linkshorter/internal/services"
)

//go:embed index.html
var indexPage []byte

// Options configures the routes.
type Options struct {
	// Scheme is prepended to the request host to build returned links.
	Scheme string
}

// NewRouter returns a gin engine with middleware and every route installed.
func NewRouter(shorterService *services.ShorterService, opts Options) *gin.Engine {
	router := gin.New()
	if err := router.SetTrustedProxies(nil); err != nil {
		slog.Warn("failed to reset trusted proxies", "error", err)
	}
	router.Use(gin.Recovery(), RequestID(), AccessLog(slog.Default()))
	SetupRoutes(router, shorterService, opts)
	return router
}

// SetupRoutes registers the landing page, the write API and the resolver.
func SetupRoutes(router *gin.Engine, shorterService *services.ShorterService, opts Options) {
	if opts.Scheme == "" {
		opts.Scheme = "http"
	}

	router.GET("/", IndexHandler)
	router.GET("/api/health", HealthCheckHandler)

	router.PUT("/api", CreateShorterHandler(shorterService, opts.Scheme, binding.Query))
	router.POST("/api", CreateShorterHandler(shorterService, opts.Scheme, binding.Form))

	router.GET("/:path", ResolveHandler(shorterService))
}

// IndexHandler serves the static landing page.
func IndexHandler(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", indexPage)
}

// HealthCheckHandler reports that the process is serving.
func HealthCheckHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// createShorterParams are the write parameters. seconds and ttl are aliases;
// seconds wins when both are present.
type createShorterParams struct {
	Token   string `form:"token"`
	Path    string `form:"path"`
	URL     string `form:"url"`
	Seconds *int64 `form:"seconds"`
	TTL     *int64 `form:"ttl"`
}

// CreateShorterHandler stores a mapping and answers with its absolute link as
// plain text.
// Parameters:
//   - shorterService: the service performing the token check and the insert
//   - scheme: scheme of the returned link ("http" or "https")
//   - b: where parameters are read from (binding.Query for PUT, binding.Form for POST)
//
// Responses: 200 with the link, 400 bad host or parameters, 401 unknown or
// expired token, 503 no free generated path, 500 storage failure.
func CreateShorterHandler(shorterService *services.ShorterService, scheme string, b binding.Binding) gin.HandlerFunc {
	return func(c *gin.Context) {
		// The returned link is built from the Host the caller used
		base, err := extractHost(c.Request, scheme)
		if err != nil {
			abortWithError(c, err)
			return
		}

		var params createShorterParams
		if err := c.ShouldBindWith(&params, b); err != nil {
			abortWithError(c, customerrors.ErrInvalidInput{Field: "parameters", Reason: err.Error()})
			return
		}
		// seconds and ttl are aliases, seconds wins when both are sent
		seconds := params.Seconds
		if seconds == nil {
			seconds = params.TTL
		}

		path, err := shorterService.CreateShorter(c.Request.Context(), services.CreateRequest{
			Token:   params.Token,
			Path:    params.Path,
			URL:     params.URL,
			Seconds: seconds,
		})
		if err != nil {
			abortWithError(c, err)
			return
		}

		// Join the stored path onto "<scheme>://<host>/"
		link := base.ResolveReference(&url.URL{Path: path})
		c.String(http.StatusOK, link.String())
	}
}

// ResolveHandler redirects to the target of a live mapping.
// Unknown and expired paths both answer 404 with {"error":"no such shorter"}.
func ResolveHandler(shorterService *services.ShorterService) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Param("path")
		slog.DebugContext(c.Request.Context(), "resolving path", "path", path)

		shorter, err := shorterService.GetShorter(c.Request.Context(), path)
		if err != nil {
			abortWithError(c, err)
			return
		}
		// Location carries the stored target verbatim; c.Redirect would
		// rewrite relative targets against the request path.
		c.Header("Location", shorter.URL)
		c.Status(http.StatusFound)
	}
}

// extractHost builds "<scheme>://<host>/" from the request Host.
func extractHost(r *http.Request, scheme string) (*url.URL, error) {
	host := r.Host
	if host == "" {
		host = r.Header.Get("Host")
	}
	if host == "" {
		return nil, customerrors.ErrInvalidInput{Field: "host", Reason: "missing"}
	}
	base, err := url.Parse(scheme + "://" + host + "/")
	if err != nil || base.Host == "" || base.User != nil || base.Path != "/" || base.RawQuery != "" || base.Fragment != "" {
		return nil, customerrors.ErrInvalidInput{Field: "host", Reason: "cannot parse " + host}
	}
	return base, nil
}

// abortWithError maps err onto a status code. Storage details are logged and
// never sent to the caller.
func abortWithError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, customerrors.ErrBadInput):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, customerrors.ErrUnauthorized):
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
	case errors.Is(err, customerrors.ErrNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": customerrors.ErrNotFound.Error()})
	case errors.Is(err, customerrors.ErrPathGenerationFailed):
		slog.WarnContext(c.Request.Context(), "path generation failed", "request_id", c.GetString(requestIDKey))
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "unable to generate a unique path, please retry"})
	default:
		slog.ErrorContext(c.Request.Context(), "request failed", "error", err, "request_id", c.GetString(requestIDKey))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
