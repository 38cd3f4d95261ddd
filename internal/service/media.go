package service

import (
	"bytes"
	"fmt"
	"image"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/chai2010/webp"
	xdraw "golang.org/x/image/draw"
)

// MediaStore keeps uploaded files on local disk below a root directory.
// Paths handed out are slash separated and relative to the root.
type MediaStore struct {
	root string
}

func NewMediaStore(root string) *MediaStore {
	return &MediaStore{root: root}
}

func (m *MediaStore) Root() string {
	return m.root
}

// Save writes data to dir/name and returns the relative path.
func (m *MediaStore) Save(dir, name string, data []byte) (string, error) {
	if strings.ContainsAny(name, `/\`) || name == "" || name == "." || name == ".." {
		return "", fmt.Errorf("invalid media name %q", name)
	}
	rel := path.Join(dir, name)
	full := m.abs(rel)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", err
	}

	tmp := full + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return "", err
	}
	if err := os.Rename(tmp, full); err != nil {
		_ = os.Remove(tmp)
		return "", err
	}
	return rel, nil
}

// Remove deletes stored files, ignoring empty and missing paths.
func (m *MediaStore) Remove(rels ...string) {
	for _, rel := range rels {
		if rel == "" {
			continue
		}
		_ = os.Remove(m.abs(rel))
	}
}

// Exists reports whether rel is a stored file.
func (m *MediaStore) Exists(rel string) bool {
	info, err := os.Stat(m.abs(rel))
	return err == nil && !info.IsDir()
}

func (m *MediaStore) abs(rel string) string {
	return filepath.Join(m.root, filepath.FromSlash(path.Clean("/"+rel)))
}

func resizeToFit(src image.Image, maxWidth, maxHeight int) image.Image {
	bounds := src.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()
	if w <= 0 || h <= 0 {
		return src
	}
	if w <= maxWidth && h <= maxHeight {
		return src
	}

	scale := float64(maxWidth) / float64(w)
	if s := float64(maxHeight) / float64(h); s < scale {
		scale = s
	}
	newW := max(int(float64(w)*scale), 1)
	newH := max(int(float64(h)*scale), 1)

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, xdraw.Over, nil)
	return dst
}

func encodeWebP(img image.Image, quality int) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	if err := webp.Encode(buf, img, &webp.Options{Quality: float32(quality)}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
