package render

import (
	"embed"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/lecturenotes-backend/internal/modules/notes/theme"
	"github.com/yungbote/lecturenotes-backend/internal/platform/logger"
)

const palettesEnv = "NOTES_PALETTES_YAML"

//go:embed palettes.yaml
var palettesFS embed.FS

// Role names a colour slot. Nodes reference roles; palettes give them colours per theme.
type Role string

const (
	RolePage        Role = "page"
	RoleSheet       Role = "sheet"
	RoleTitle       Role = "title"
	RoleMuted       Role = "muted"
	RoleSummary     Role = "summary"
	RoleHeading     Role = "heading"
	RoleBody        Role = "body"
	RoleMarker      Role = "marker"
	RoleTopic       Role = "topic"
	RolePlaceholder Role = "placeholder"
	RoleImageFrame  Role = "image_frame"
	RoleChart       Role = "chart"
	RoleStep        Role = "step"
	RoleConnector   Role = "connector"
	RoleBar         Role = "bar"
	RoleHandSheet   Role = "hand_sheet"
	RoleDiagram     Role = "diagram"
)

var cardRoles = [4]Role{"card_0", "card_1", "card_2", "card_3"}

func requiredRoles() []Role {
	roles := []Role{
		RolePage, RoleSheet, RoleTitle, RoleMuted, RoleSummary, RoleHeading, RoleBody, RoleMarker,
		RoleTopic, RolePlaceholder, RoleImageFrame, RoleChart, RoleStep, RoleConnector, RoleBar,
		RoleHandSheet, RoleDiagram,
	}
	return append(roles, cardRoles[:]...)
}

type Swatch struct {
	FG     string `yaml:"fg" json:"fg,omitempty"`
	BG     string `yaml:"bg" json:"bg,omitempty"`
	Border string `yaml:"border" json:"border,omitempty"`
}

type Palette map[Role]Swatch

// Palettes holds one palette per theme.
type Palettes struct {
	themes map[theme.Theme]Palette
}

func (p *Palettes) For(t theme.Theme) Palette {
	if pal, ok := p.themes[t]; ok {
		return pal
	}
	return p.themes[theme.Default]
}

type yamlPalettes struct {
	Version int                          `yaml:"version"`
	Themes  map[string]map[string]Swatch `yaml:"themes"`
}

// ParsePalettes decodes and validates a palettes document.
func ParsePalettes(raw []byte) (*Palettes, error) {
	var spec yamlPalettes
	if err := yaml.Unmarshal(raw, &spec); err != nil {
		return nil, fmt.Errorf("decode palettes: %w", err)
	}
	out := &Palettes{themes: map[theme.Theme]Palette{}}
	for name, roles := range spec.Themes {
		t, ok := theme.Parse(name)
		if !ok {
			return nil, fmt.Errorf("palettes: unknown theme %q", name)
		}
		pal := Palette{}
		for role, sw := range roles {
			pal[Role(strings.TrimSpace(role))] = sw
		}
		out.themes[t] = pal
	}
	var missing []string
	for _, t := range []theme.Theme{theme.Light, theme.Dark} {
		pal, ok := out.themes[t]
		if !ok {
			missing = append(missing, string(t))
			continue
		}
		for _, r := range requiredRoles() {
			if _, ok := pal[r]; !ok {
				missing = append(missing, string(t)+"."+string(r))
			}
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, fmt.Errorf("palettes: missing %s", strings.Join(missing, ", "))
	}
	return out, nil
}

var (
	palettesOnce sync.Once
	palettes     *Palettes
)

// DefaultPalettes loads NOTES_PALETTES_YAML when set, falling back to the embedded file.
func DefaultPalettes(log *logger.Logger) *Palettes {
	palettesOnce.Do(func() {
		if path := strings.TrimSpace(os.Getenv(palettesEnv)); path != "" {
			raw, err := os.ReadFile(path)
			if err == nil {
				palettes, err = ParsePalettes(raw)
			}
			if err == nil {
				return
			}
			if log != nil {
				log.Warn("render: palette override load failed; using embedded palettes", "path", path, "error", err)
			}
		}
		palettes = mustEmbedded()
	})
	return palettes
}

func mustEmbedded() *Palettes {
	raw, err := palettesFS.ReadFile("palettes.yaml")
	if err != nil {
		panic(err)
	}
	p, err := ParsePalettes(raw)
	if err != nil {
		panic(err)
	}
	return p
}
