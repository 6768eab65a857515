// Package asset stores uploaded images on disk and hands back image
// components ready to drop onto the artboard.
package asset

import (
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/inamate/artboard/internal/component"
	"github.com/inamate/artboard/internal/geometry"
	"github.com/inamate/artboard/internal/httpx"
	"github.com/inamate/artboard/internal/typeid"
)

const maxUploadSize = 10 << 20 // 10MB

var ErrNotFound = errors.New("asset not found")

type Asset struct {
	ID     string `json:"id"`
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Name   string `json:"name"`
}

// UploadResponse pairs the stored asset with an image component that
// references it, sized to the image.
type UploadResponse struct {
	Asset     Asset          `json:"asset"`
	Component component.Node `json:"component"`
}

type Handler struct {
	dir string
}

func NewHandler(dir string) *Handler {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		slog.Error("create asset dir", "error", err, "dir", dir)
	}
	return &Handler{dir: dir}
}

// Upload handles POST /assets/upload (multipart form with a "file" field).
// JPEGs are re-encoded as PNG.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "file too large (max 10MB)")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/png") && !strings.HasPrefix(contentType, "image/jpeg") {
		httpx.WriteError(w, http.StatusBadRequest, "only PNG and JPEG images are supported")
		return
	}

	img, _, err := image.Decode(file)
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid image: "+err.Error())
		return
	}

	a, err := h.store(img, header.Filename)
	if err != nil {
		httpx.Internal(w, "store asset", err)
		return
	}
	slog.Info("asset stored", "id", a.ID, "width", a.Width, "height", a.Height)

	httpx.WriteJSON(w, http.StatusCreated, UploadResponse{
		Asset:     *a,
		Component: ImageComponent(*a),
	})
}

func (h *Handler) store(img image.Image, name string) (*Asset, error) {
	id := typeid.NewAssetID()
	filename := id + ".png"
	path := filepath.Join(h.dir, filename)

	out, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create asset file: %w", err)
	}
	if err := png.Encode(out, img); err != nil {
		out.Close()
		os.Remove(path)
		return nil, fmt.Errorf("encode png: %w", err)
	}
	if err := out.Close(); err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("close asset file: %w", err)
	}

	b := img.Bounds()
	return &Asset{
		ID:     id,
		URL:    "/assets/" + filename,
		Width:  b.Dx(),
		Height: b.Dy(),
		Name:   name,
	}, nil
}

// ImageComponent builds an image node at the origin showing a.
func ImageComponent(a Asset) component.Node {
	alt := strings.TrimSuffix(a.Name, filepath.Ext(a.Name))
	return component.NewNode(component.TypeImage,
		component.WithProps(component.Props{
			component.PropSrc: component.String(a.URL),
			component.PropAlt: component.String(alt),
		}),
		component.WithSize(geometry.Size{Width: float64(a.Width), Height: float64(a.Height)}),
	)
}

// Serve returns a handler for stored files. Asset ids are never reused, so
// responses are cached indefinitely.
func (h *Handler) Serve() http.Handler {
	fs := http.FileServer(http.Dir(h.dir))
	return http.StripPrefix("/assets/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
		fs.ServeHTTP(w, r)
	}))
}

// Delete removes a stored asset file.
func (h *Handler) Delete(assetID string) error {
	if err := typeid.Validate(assetID, typeid.PrefixAsset); err != nil {
		return fmt.Errorf("delete asset: %w", err)
	}
	err := os.Remove(filepath.Join(h.dir, assetID+".png"))
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrNotFound, assetID)
	}
	return err
}
