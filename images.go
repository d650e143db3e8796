package fitpress

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/Laisky/errors/v2"
	"github.com/labstack/echo/v4"
	"golang.org/x/image/draw"

	"github.com/eringen/fitpress/content"
)

const (
	maxImageWidth = 1200
	jpegQuality   = 82
	maxUploadSize = 10 << 20 // 10MB
	uploadsSubdir = "uploads"
)

// UploadedImage describes a stored featured image.
type UploadedImage struct {
	URL      string `json:"url"`
	Filename string `json:"filename"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	Size     int    `json:"size"`
}

// processImage decodes an image from src, downsizes it to maxImageWidth
// when wider, and encodes it as JPEG.
func processImage(src io.Reader) (w, h int, data []byte, err error) {
	img, _, err := image.Decode(src)
	if err != nil {
		return 0, 0, nil, errors.Wrap(err, "decode image")
	}

	bounds := img.Bounds()
	w, h = bounds.Dx(), bounds.Dy()

	if w > maxImageWidth {
		newH := h * maxImageWidth / w
		dst := image.NewRGBA(image.Rect(0, 0, maxImageWidth, newH))
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
		img = dst
		w, h = maxImageWidth, newH
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return 0, 0, nil, errors.Wrap(err, "encode jpeg")
	}
	return w, h, buf.Bytes(), nil
}

// imageBaseName turns an uploaded filename into a slug without extension.
func imageBaseName(name string) string {
	base := content.NormalizeSlug(strings.TrimSuffix(name, filepath.Ext(name)))
	if base == "" {
		base = "image"
	}
	return base
}

// writeUnique creates base.jpg in dir, or base-2.jpg, base-3.jpg and so on
// when taken, and returns the name it wrote. O_EXCL keeps concurrent uploads
// of the same name from overwriting each other.
func writeUnique(dir, base string, data []byte) (string, error) {
	candidate := base + ".jpg"
	for counter := 2; ; counter++ {
		f, err := os.OpenFile(filepath.Join(dir, candidate), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		switch {
		case errors.Is(err, os.ErrExist):
			candidate = fmt.Sprintf("%s-%d.jpg", base, counter)
			continue
		case err != nil:
			return "", errors.Wrap(err, "create image")
		}
		_, err = f.Write(data)
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			_ = os.Remove(f.Name())
			return "", errors.Wrap(err, "write image")
		}
		return candidate, nil
	}
}

// handleImageUpload stores a featured image under StaticDir/uploads and,
// when post_id is given, sets it as that post's featured image.
func (a *App) handleImageUpload(c echo.Context) error {
	if !IsAdmin(c) {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}

	file, err := c.FormFile("image")
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "No image file provided"})
	}
	if file.Size > maxUploadSize {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "File too large (max 10MB)"})
	}

	src, err := file.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	w, h, data, err := processImage(src)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid image"})
	}

	ctx := c.Request().Context()
	postID := strings.TrimSpace(c.FormValue("post_id"))
	if postID != "" {
		if _, err := a.Store.GetPost(ctx, postID); err != nil {
			return a.writeAPIError(c, err)
		}
	}

	dir := filepath.Join(a.Config.StaticDir, uploadsSubdir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(err, "create uploads dir")
	}
	filename, err := writeUnique(dir, imageBaseName(file.Filename), data)
	if err != nil {
		return err
	}

	img := UploadedImage{
		URL:      path.Join("/public", uploadsSubdir, filename),
		Filename: filename,
		Width:    w,
		Height:   h,
		Size:     len(data),
	}

	if postID != "" {
		if _, err := a.Store.UpdatePost(ctx, postID,
			content.PostPatch{FeaturedImage: &img.URL}); err != nil {
			_ = os.Remove(filepath.Join(dir, filename))
			return a.writeAPIError(c, err)
		}
		a.invalidate()
	}

	return c.JSON(http.StatusCreated, img)
}
