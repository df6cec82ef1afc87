package render

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"

	"codeberg.org/go-pdf/fpdf"
	"github.com/gabriel-vasile/mimetype"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	"golang.org/x/image/webp"
)

// ErrImageNotFound is returned when no candidate path for a reference exists
var ErrImageNotFound = errors.New("image not found")

type imageInfo struct {
	name   string
	opts   fpdf.ImageOptions
	width  float64
	height float64
}

type imageStore struct {
	root       string
	registered map[string]imageInfo
	failed     map[string]error
}

func newImageStore(root string) *imageStore {
	return &imageStore{
		root:       root,
		registered: make(map[string]imageInfo),
		failed:     make(map[string]error),
	}
}

// resolve returns the first existing file for ref: <root>/images/<ref>,
// <root>/<ref>, then ref itself
func (s *imageStore) resolve(ref string) (string, error) {
	if ref == "" {
		return "", ErrImageNotFound
	}
	var candidates []string
	if s.root != "" && !filepath.IsAbs(ref) {
		candidates = append(candidates,
			filepath.Join(s.root, "images", ref),
			filepath.Join(s.root, ref))
	}
	candidates = append(candidates, ref)

	for _, p := range candidates {
		if fi, err := os.Stat(p); err == nil && fi.Mode().IsRegular() {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrImageNotFound, ref)
}

// register adds the image to the document once and returns its info
func (c *Canvas) register(ref string) (imageInfo, error) {
	s := c.images
	if info, ok := s.registered[ref]; ok {
		return info, nil
	}
	if err, ok := s.failed[ref]; ok {
		return imageInfo{}, err
	}

	info, err := c.registerFile(ref)
	if err != nil {
		s.failed[ref] = err
		return imageInfo{}, err
	}
	s.registered[ref] = info
	return info, nil
}

func (c *Canvas) registerFile(ref string) (imageInfo, error) {
	path, err := c.images.resolve(ref)
	if err != nil {
		return imageInfo{}, err
	}

	mtype, err := mimetype.DetectFile(path)
	if err != nil {
		return imageInfo{}, fmt.Errorf("failed to detect image type of %s: %w", path, err)
	}

	var info *fpdf.ImageInfoType
	opts := fpdf.ImageOptions{ReadDpi: false}
	switch {
	case mtype.Is("image/jpeg"):
		opts.ImageType = "JPG"
		info = c.pdf.RegisterImageOptions(path, opts)
	case mtype.Is("image/png"):
		opts.ImageType = "PNG"
		info = c.pdf.RegisterImageOptions(path, opts)
	case mtype.Is("image/gif"):
		opts.ImageType = "GIF"
		info = c.pdf.RegisterImageOptions(path, opts)
	case mtype.Is("image/tiff"), mtype.Is("image/bmp"), mtype.Is("image/webp"):
		data, err := transcodePNG(path, mtype.String())
		if err != nil {
			return imageInfo{}, err
		}
		opts.ImageType = "PNG"
		info = c.pdf.RegisterImageOptionsReader(path, opts, bytes.NewReader(data))
	default:
		return imageInfo{}, fmt.Errorf("unsupported image type %s for %s", mtype.String(), path)
	}

	if c.pdf.Err() {
		err := c.pdf.Error()
		c.pdf.ClearError()
		return imageInfo{}, fmt.Errorf("failed to register image %s: %w", path, err)
	}
	if info == nil || info.Width() <= 0 || info.Height() <= 0 {
		return imageInfo{}, fmt.Errorf("image %s has no dimensions", path)
	}
	return imageInfo{name: path, opts: opts, width: info.Width(), height: info.Height()}, nil
}

// transcodePNG converts scan formats fpdf cannot embed into PNG
func transcodePNG(path, mime string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var img image.Image
	switch mime {
	case "image/tiff":
		img, err = tiff.Decode(f)
	case "image/bmp":
		img, err = bmp.Decode(f)
	default:
		img, err = webp.Decode(f)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to transcode %s: %w", path, err)
	}
	return buf.Bytes(), nil
}

// CheckImage returns why ref cannot be drawn, or nil. A reference without a
// file wraps ErrImageNotFound.
func (c *Canvas) CheckImage(ref string) error {
	_, err := c.register(ref)
	return err
}

// reportMissingImage logs why ref is replaced by a placeholder and notifies
// the observer
func reportMissingImage(c *Canvas, ref string, err error) {
	if errors.Is(err, ErrImageNotFound) {
		c.Logger().Warn().Str("image", ref).Msg("image file not found, using placeholder")
	} else {
		c.Logger().Warn().Str("image", ref).Err(err).Msg("image unreadable, using placeholder")
	}
	c.Observer().ImageMissing()
}

// DrawImage fits the image into the box preserving its aspect ratio. The
// image is anchored to the bottom-left corner of the box, top measured from
// the top of the page.
func (c *Canvas) DrawImage(ref string, x, top, w, h float64) error {
	info, err := c.register(ref)
	if err != nil {
		return err
	}
	fw, fh := fit(info.width, info.height, w, h)
	c.pdf.ImageOptions(info.name, x, top+h-fh, fw, fh, false, info.opts, 0, "")
	return nil
}

// ImagePlaceholder is the caption drawn in place of a missing image
func ImagePlaceholder(ref string) string {
	name := filepath.Base(ref)
	if ref == "" {
		name = "missing"
	}
	return fmt.Sprintf("[Image: %s]", name)
}

// fit scales (iw, ih) to the largest size inside (w, h) with the same ratio
func fit(iw, ih, w, h float64) (float64, float64) {
	if iw <= 0 || ih <= 0 || w <= 0 || h <= 0 {
		return w, h
	}
	scale := w / iw
	if ih*scale > h {
		scale = h / ih
	}
	return iw * scale, ih * scale
}
