package frames

import (
	"context"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/nfnt/resize"
	"github.com/rs/zerolog/log"
)

// DirSource replays the images of a directory in name order, resized to
// width×height and reduced to 8-bit luma. Frame IDs count up from zero.
type DirSource struct {
	files    []string
	width    int
	height   int
	interval time.Duration
	next     int
	last     time.Time
	buf      []byte
}

func NewDirSource(dir string, width, height int, interval time.Duration) (*DirSource, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list frame dir: %w", err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".png", ".jpg", ".jpeg":
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no images in %s", dir)
	}
	sort.Strings(files)

	return &DirSource{
		files:    files,
		width:    width,
		height:   height,
		interval: interval,
		buf:      make([]byte, width*height),
	}, nil
}

func (s *DirSource) Len() int {
	return len(s.files)
}

func (s *DirSource) Receive(ctx context.Context) (*Frame, error) {
	if s.next >= len(s.files) {
		return nil, ErrExhausted
	}
	if err := s.pace(ctx); err != nil {
		return nil, err
	}

	path := s.files[s.next]
	id := uint32(s.next)
	s.next++
	if err := s.load(path); err != nil {
		return nil, err
	}
	return &Frame{ID: id, Data: s.buf, ReceivedAt: time.Now()}, nil
}

func (s *DirSource) pace(ctx context.Context) error {
	if s.interval <= 0 || s.last.IsZero() {
		s.last = time.Now()
		return nil
	}
	wait := time.Until(s.last.Add(s.interval))
	if wait > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
	s.last = time.Now()
	return nil
}

func (s *DirSource) load(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open frame: %w", err)
	}
	defer f.Close()

	img, format, err := image.Decode(f)
	if err != nil {
		return fmt.Errorf("failed to decode %s: %w", path, err)
	}
	log.Debug().Str("file", path).Str("format", format).
		Int("width", img.Bounds().Dx()).Int("height", img.Bounds().Dy()).Msg("Decoded frame")

	resized := resize.Resize(uint(s.width), uint(s.height), img, resize.Bilinear)
	bounds := resized.Bounds()
	for y := 0; y < s.height; y++ {
		for x := 0; x < s.width; x++ {
			c := color.GrayModel.Convert(resized.At(bounds.Min.X+x, bounds.Min.Y+y)).(color.Gray)
			s.buf[y*s.width+x] = c.Y
		}
	}
	return nil
}
