package storage

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/draw"

	"microblog/internal/model"
)

// avatarSize is the bounding box profile pictures are scaled down to.
const avatarSize = 125

// ErrUnsupportedImage is returned for uploads that are not jpg/png/gif.
var ErrUnsupportedImage = errors.New("unsupported image type")

// AvatarStore saves resized profile pictures under a single directory.
type AvatarStore struct {
	root string
}

// NewAvatarStore creates the upload directory if needed.
func NewAvatarStore(root string) (*AvatarStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &AvatarStore{root: root}, nil
}

// Save decodes the uploaded image, scales it to fit within 125x125 and writes
// it under a random filename. The stored filename is returned.
func (s *AvatarStore) Save(fh *multipart.FileHeader) (string, error) {
	ext := strings.ToLower(filepath.Ext(fh.Filename))
	switch ext {
	case ".jpg", ".jpeg", ".png", ".gif":
	default:
		return "", ErrUnsupportedImage
	}

	src, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	img, _, err := image.Decode(src)
	if err != nil {
		return "", ErrUnsupportedImage
	}

	name := randomHex(16) + ext
	out, err := os.Create(filepath.Join(s.root, name))
	if err != nil {
		return "", fmt.Errorf("create avatar file: %w", err)
	}
	defer out.Close()

	thumb := downscale(img)
	switch ext {
	case ".png":
		err = png.Encode(out, thumb)
	case ".gif":
		err = gif.Encode(out, thumb, nil)
	default:
		err = jpeg.Encode(out, thumb, &jpeg.Options{Quality: 85})
	}
	if err != nil {
		return "", fmt.Errorf("encode avatar: %w", err)
	}
	return name, nil
}

// Remove deletes a previously stored avatar. The shared default image and
// already-missing files are left alone.
func (s *AvatarStore) Remove(name string) error {
	if name == "" || name == model.DefaultAvatar {
		return nil
	}
	err := os.Remove(filepath.Join(s.root, name))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Path returns the on-disk location of a stored avatar.
func (s *AvatarStore) Path(name string) string {
	return filepath.Join(s.root, name)
}

// downscale fits img into the avatar bounding box, preserving aspect ratio.
// Images already small enough pass through unchanged.
func downscale(img image.Image) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= avatarSize && h <= avatarSize {
		return img
	}

	scale := float64(avatarSize) / float64(w)
	if h > w {
		scale = float64(avatarSize) / float64(h)
	}
	dw := int(float64(w) * scale)
	dh := int(float64(h) * scale)
	if dw < 1 {
		dw = 1
	}
	if dh < 1 {
		dh = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, dw, dh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	return dst
}

func randomHex(n int) string {
	buf := make([]byte, n/2)
	if _, err := rand.Read(buf); err != nil {
		panic(err) // crypto/rand never fails on supported platforms
	}
	return hex.EncodeToString(buf)
}
