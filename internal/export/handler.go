package export

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/celestialsphere/celestialsphere/backend-go/internal/document"
	"github.com/celestialsphere/celestialsphere/backend-go/internal/sphere"
	"github.com/celestialsphere/celestialsphere/backend-go/internal/typeid"
)

var ErrInvalidOption = errors.New("invalid export option")

// Handler serves diagram exports of a posted document.
type Handler struct {
	maxBytes int64
}

func NewHandler(maxBytes int64) *Handler {
	return &Handler{maxBytes: maxBytes}
}

func (h *Handler) ExportSVG(w http.ResponseWriter, r *http.Request) {
	h.export(w, r, "svg", "image/svg+xml", SVG)
}

func (h *Handler) ExportPNG(w http.ResponseWriter, r *http.Request) {
	h.export(w, r, "png", "image/png", PNG)
}

type renderFunc func(io.Writer, *document.Document, Options) error

func (h *Handler) export(w http.ResponseWriter, r *http.Request, format, contentType string, render renderFunc) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)
	data, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "request too large", http.StatusRequestEntityTooLarge)
		return
	}

	doc, err := document.Parse(data)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	opts, err := ParseOptions(r.URL.Query())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	exportID := typeid.NewExportID()
	var buf bytes.Buffer
	if err := render(&buf, doc, opts); err != nil {
		slog.Error("render export", "export", exportID, "format", format, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	name := sanitizeName(r.URL.Query().Get("name"))
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.%s"`, name, format))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.Header().Set("X-Export-Id", exportID)
	buf.WriteTo(w)

	slog.Info("export complete", "export", exportID, "format", format, "points", len(doc.Points), "size", buf.Len())
}

// ParseOptions reads yaw, pitch and roll (degrees) and grid from a query.
func ParseOptions(q url.Values) (Options, error) {
	var angles [3]float64
	for i, key := range []string{"yaw", "pitch", "roll"} {
		s := q.Get(key)
		if s == "" {
			continue
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return Options{}, fmt.Errorf("%w: %s=%q", ErrInvalidOption, key, s)
		}
		angles[i] = v
	}

	opts := Options{Rotation: sphere.FromEuler(angles[0], angles[1], angles[2])}
	if s := q.Get("grid"); s != "" {
		grid, err := strconv.ParseBool(s)
		if err != nil {
			return Options{}, fmt.Errorf("%w: grid=%q", ErrInvalidOption, s)
		}
		opts.Grid = grid
	}
	return opts, nil
}

func sanitizeName(name string) string {
	if name == "" {
		return "celestial_sphere"
	}
	return strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			return r
		}
		return '-'
	}, name)
}
