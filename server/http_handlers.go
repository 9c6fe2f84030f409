package server

import (
	"bufio"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/jeffrom/greedyhisto/binning"
	"github.com/jeffrom/greedyhisto/config"
	"github.com/jeffrom/greedyhisto/display"
	"github.com/jeffrom/greedyhisto/internal"
	"github.com/jeffrom/greedyhisto/stats"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	contentTypeJSON = "application/json"
	contentTypeText = "text/plain"
)

var defaultContentType = contentTypeJSON

var availableContentTypes = []string{
	contentTypeJSON,
	contentTypeText,
}

var errNotAcceptable = errors.New("not acceptable")

func negotiateContentType(header string) (string, error) {
	if header == "" || header == "*/*" {
		return defaultContentType, nil
	}

	cts := make(map[string]bool)
	parts := strings.Split(header, ",")
	for _, part := range parts {
		mt, _, err := mime.ParseMediaType(part)
		if err == nil {
			cts[mt] = true
		}
	}
	if cts["*/*"] {
		return defaultContentType, nil
	}

	for _, avail := range availableContentTypes {
		if ok := cts[avail]; ok {
			return avail, nil
		}
	}

	return "", errNotAcceptable
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func (s *Http) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, req *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: rw, status: http.StatusOK}
		next.ServeHTTP(sw, req)

		stats.TotalRequests.Add(req.URL.Path, 1)
		if sw.status >= 400 {
			stats.TotalErrors.Add(req.URL.Path, 1)
		}
		stats.Timing(stats.LatencyVar, start)

		if s.conf.Verbose {
			internal.Logger().WithFields(logrus.Fields{
				"method":  req.Method,
				"path":    req.URL.Path,
				"status":  sw.status,
				"elapsed": stats.PrettyTime(float64(time.Since(start).Nanoseconds())),
				"remote":  req.RemoteAddr,
			}).Info("request")
		}
	})
}

// httpError writes err with a status derived from its cause.
func httpError(rw http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case binning.IsInvalidArgument(err):
		status = http.StatusBadRequest
	case errors.Cause(err) == errNotAcceptable:
		status = http.StatusNotAcceptable
	}
	http.Error(rw, err.Error(), status)
}

func allowMethods(rw http.ResponseWriter, req *http.Request, methods ...string) bool {
	for _, m := range methods {
		if req.Method == m {
			return true
		}
	}
	rw.Header().Set("Allow", strings.Join(methods, ", "))
	http.Error(rw, "method not allowed", http.StatusMethodNotAllowed)
	return false
}

// respond writes v as json, or calls text to write a plain text body,
// depending on the request's Accept header.
func respond(rw http.ResponseWriter, req *http.Request, v interface{}, text func(w io.Writer) error) {
	ct, err := negotiateContentType(req.Header.Get("Accept"))
	if err != nil {
		httpError(rw, err)
		return
	}

	rw.Header().Set("Content-Type", ct)
	switch ct {
	case contentTypeText:
		err = text(rw)
	default:
		err = json.NewEncoder(rw).Encode(v)
	}
	internal.IgnoreError(err)
}

func queryInt(req *http.Request, key string, def int) (int, error) {
	s := req.URL.Query().Get(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, errors.Wrapf(binning.ErrInvalidArgument, "%s: %v", key, err)
	}
	return n, nil
}

type ingestResponse struct {
	Ingested int `json:"ingested"`
	Total    int `json:"total"`
}

// ingestHandler reads whitespace separated samples from the request body.
type ingestHandler struct {
	conf   *config.Config
	engine *binning.Engine
}

func (h *ingestHandler) ServeHTTP(rw http.ResponseWriter, req *http.Request) {
	if !allowMethods(rw, req, http.MethodPost) {
		return
	}
	if _, err := negotiateContentType(req.Header.Get("Accept")); err != nil {
		httpError(rw, err)
		return
	}

	n, err := h.readSamples(req.Body)
	internal.Debugf(h.conf, "ingested %d samples from %s", n, req.RemoteAddr)
	if err != nil {
		httpError(rw, errors.Wrapf(err, "after %d samples", n))
		return
	}

	resp := ingestResponse{Ingested: n, Total: h.engine.Total()}
	respond(rw, req, resp, func(w io.Writer) error {
		_, err := fmt.Fprintf(w, "OK %d\n", resp.Ingested)
		return err
	})
}

func (h *ingestHandler) readSamples(r io.Reader) (int, error) {
	scanner := bufio.NewScanner(r)
	scanner.Split(bufio.ScanWords)

	n := 0
	for scanner.Scan() {
		v, err := strconv.ParseFloat(scanner.Text(), 64)
		if err != nil {
			return n, errors.Wrapf(binning.ErrInvalidArgument, "parsing sample %q", scanner.Text())
		}
		if err := h.engine.Ingest(v); err != nil {
			return n, err
		}
		n++
	}
	return n, errors.Wrap(scanner.Err(), "reading samples")
}

type binsHandler struct {
	conf   *config.Config
	engine *binning.Engine
}

func (h *binsHandler) ServeHTTP(rw http.ResponseWriter, req *http.Request) {
	if !allowMethods(rw, req, http.MethodGet, http.MethodDelete) {
		return
	}

	if req.Method == http.MethodDelete {
		internal.Debugf(h.conf, "resetting engine")
		h.engine.Reset()
		rw.WriteHeader(http.StatusNoContent)
		return
	}

	writeBins(rw, req, h.engine.Snapshot(), 60)
}

func writeBins(rw http.ResponseWriter, req *http.Request, bins []binning.Bin, width int) {
	if bins == nil {
		bins = []binning.Bin{}
	}
	respond(rw, req, bins, func(w io.Writer) error {
		return display.Render(w, bins, width)
	})
}

type displayHandler struct {
	conf   *config.Config
	engine *binning.Engine
}

func (h *displayHandler) ServeHTTP(rw http.ResponseWriter, req *http.Request) {
	if !allowMethods(rw, req, http.MethodGet) {
		return
	}

	target, err := queryInt(req, "bins", h.conf.DisplayBins)
	if err != nil {
		httpError(rw, err)
		return
	}
	minStep, err := queryInt(req, "min_step", h.conf.DisplayMinStep)
	if err != nil {
		httpError(rw, err)
		return
	}

	normalize := display.Normalize
	if all, _ := strconv.ParseBool(req.URL.Query().Get("all")); all {
		normalize = display.Rebin
	}

	bins, err := normalize(h.engine.Snapshot(), target, minStep)
	if err != nil {
		httpError(rw, err)
		return
	}
	writeBins(rw, req, bins, 60)
}

type quantileResponse struct {
	Quantile float64 `json:"quantile"`
	Value    float64 `json:"value"`
}

type quantileHandler struct {
	conf   *config.Config
	engine *binning.Engine
}

func (h *quantileHandler) ServeHTTP(rw http.ResponseWriter, req *http.Request) {
	if !allowMethods(rw, req, http.MethodGet) {
		return
	}

	qs := h.conf.Quantiles
	if raw := req.URL.Query()["q"]; len(raw) > 0 {
		qs = make([]float64, len(raw))
		for i, s := range raw {
			q, err := strconv.ParseFloat(s, 64)
			if err != nil {
				httpError(rw, errors.Wrapf(binning.ErrInvalidArgument, "parsing quantile %q", s))
				return
			}
			qs[i] = q
		}
	}

	values, err := h.engine.Quantiles(qs...)
	if err != nil {
		httpError(rw, err)
		return
	}

	resp := make([]quantileResponse, len(qs))
	for i, q := range qs {
		resp[i] = quantileResponse{Quantile: q, Value: values[i]}
	}
	respond(rw, req, resp, func(w io.Writer) error {
		for _, r := range resp {
			if _, err := fmt.Fprintf(w, "%g\t%.2f\n", r.Quantile, r.Value); err != nil {
				return err
			}
		}
		return nil
	})
}

type capacityResponse struct {
	Capacity int `json:"capacity"`
	Bins     int `json:"bins"`
}

type capacityHandler struct {
	conf   *config.Config
	engine *binning.Engine
}

func (h *capacityHandler) ServeHTTP(rw http.ResponseWriter, req *http.Request) {
	if !allowMethods(rw, req, http.MethodGet, http.MethodPost, http.MethodPut) {
		return
	}

	if req.Method != http.MethodGet {
		n, err := queryInt(req, "n", 0)
		if err != nil {
			httpError(rw, err)
			return
		}
		if err := h.engine.SetCapacity(n); err != nil {
			httpError(rw, err)
			return
		}
	}

	resp := capacityResponse{Capacity: h.engine.Capacity(), Bins: h.engine.Len()}
	respond(rw, req, resp, func(w io.Writer) error {
		_, err := fmt.Fprintf(w, "capacity: %d\r\nbins: %d\r\n", resp.Capacity, resp.Bins)
		return err
	})
}

type statsHandler struct {
	stats *internal.Stats
}

func (h *statsHandler) ServeHTTP(rw http.ResponseWriter, req *http.Request) {
	if !allowMethods(rw, req, http.MethodGet) {
		return
	}

	respond(rw, req, h.stats.Map(), func(w io.Writer) error {
		_, err := w.Write(h.stats.Bytes())
		return err
	})
}
