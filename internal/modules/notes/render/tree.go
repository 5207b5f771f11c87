package render

import (
	"github.com/yungbote/lecturenotes-backend/internal/domain/notes"
	"github.com/yungbote/lecturenotes-backend/internal/modules/notes/theme"
)

type NodeKind string

const (
	KindDocument    NodeKind = "document"
	KindSheet       NodeKind = "sheet"
	KindHeader      NodeKind = "header"
	KindTitle       NodeKind = "title"
	KindDate        NodeKind = "date"
	KindSummary     NodeKind = "summary"
	KindSection     NodeKind = "section"
	KindHeading     NodeKind = "heading"
	KindTopic       NodeKind = "topic"
	KindBullet      NodeKind = "bullet"
	KindParagraph   NodeKind = "paragraph"
	KindPlaceholder NodeKind = "image_placeholder"
	KindImage       NodeKind = "image"
	KindLabel       NodeKind = "label"
	KindCaption     NodeKind = "caption"
	KindChart       NodeKind = "chart"
	KindFlowchart   NodeKind = "flowchart"
	KindStep        NodeKind = "step"
	KindConnector   NodeKind = "connector"
	KindBarChart    NodeKind = "bar_chart"
	KindBar         NodeKind = "bar"
	KindCardGrid    NodeKind = "card_grid"
	KindCard        NodeKind = "card"
	KindDiagram     NodeKind = "diagram_idea"
)

type FontRole string

const (
	FontRegular FontRole = "regular"
	FontBold    FontRole = "bold"
	FontItalic  FontRole = "italic"
	FontHand    FontRole = "hand"
)

type Align string

const (
	AlignLeft   Align = "left"
	AlignCenter Align = "center"
)

// Style is everything a capturer needs to paint a node. Only the colours depend on the theme.
type Style struct {
	Role     Role     `json:"role,omitempty"`
	Colors   Swatch   `json:"colors"`
	Font     FontRole `json:"font,omitempty"`
	Size     float64  `json:"size,omitempty"`
	Align    Align    `json:"align,omitempty"`
	Dashed   bool     `json:"dashed,omitempty"`
	Rotation float64  `json:"rotation,omitempty"`
	Columns  int      `json:"columns,omitempty"`
}

type Bar struct {
	Label    string  `json:"label"`
	Value    float64 `json:"value"`
	Fraction float64 `json:"fraction"`
}

type Node struct {
	Kind     NodeKind `json:"kind"`
	Text     string   `json:"text,omitempty"`
	Marker   string   `json:"marker,omitempty"`
	Level    int      `json:"level,omitempty"`
	ImageURL string   `json:"imageUrl,omitempty"`
	Bar      *Bar     `json:"bar,omitempty"`
	Style    Style    `json:"style"`
	Children []Node   `json:"children,omitempty"`
}

// VisualTree is the renderer's output: a pure function of document, theme and options.
type VisualTree struct {
	Mode  notes.Mode  `json:"mode"`
	Theme theme.Theme `json:"theme"`
	Title string      `json:"title"`
	Root  Node        `json:"root"`
}

// Walk visits n and its descendants depth first. Returning false skips the children.
func Walk(n *Node, fn func(*Node) bool) {
	if !fn(n) {
		return
	}
	for i := range n.Children {
		Walk(&n.Children[i], fn)
	}
}
