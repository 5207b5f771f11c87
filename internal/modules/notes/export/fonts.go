package export

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomediumitalic"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/yungbote/lecturenotes-backend/internal/modules/notes/render"
)

type faceKey struct {
	role render.FontRole
	size float64
}

// fontSet parses each typeface once and caches faces per role and pixel size.
type fontSet struct {
	mu    sync.Mutex
	fonts map[render.FontRole]*truetype.Font
	faces map[faceKey]font.Face
}

// newFontSet loads the Go fonts. regularPath, when set, replaces the regular face with a TTF
// from disk.
func newFontSet(regularPath string) (*fontSet, error) {
	sources := map[render.FontRole][]byte{
		render.FontRegular: goregular.TTF,
		render.FontBold:    gobold.TTF,
		render.FontItalic:  goitalic.TTF,
		render.FontHand:    gomediumitalic.TTF,
	}
	if p := strings.TrimSpace(regularPath); p != "" {
		raw, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("failed to read font file: %w", err)
		}
		sources[render.FontRegular] = raw
	}

	fs := &fontSet{
		fonts: make(map[render.FontRole]*truetype.Font, len(sources)),
		faces: map[faceKey]font.Face{},
	}
	for role, raw := range sources {
		f, err := truetype.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("failed to parse TTF for %s: %w", role, err)
		}
		fs.fonts[role] = f
	}
	return fs, nil
}

func (fs *fontSet) face(role render.FontRole, size float64) font.Face {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	f, ok := fs.fonts[role]
	if !ok {
		role = render.FontRegular
		f = fs.fonts[role]
	}
	k := faceKey{role: role, size: size}
	if face, ok := fs.faces[k]; ok {
		return face
	}
	face := truetype.NewFace(f, &truetype.Options{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingNone,
	})
	fs.faces[k] = face
	return face
}
