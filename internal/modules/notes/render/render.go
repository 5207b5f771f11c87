package render

import (
	"fmt"
	"math"
	"time"

	"github.com/yungbote/lecturenotes-backend/internal/domain/notes"
	"github.com/yungbote/lecturenotes-backend/internal/modules/notes/theme"
)

const (
	SectionKeyTopics  = "Key Topics"
	SectionVisuals    = "Visuals & Charts"
	SectionQuestions  = "Practice Questions"
	ImageIdeaLabel    = "Image Idea"
	DrawingIdeaSuffix = " (Drawing Idea)"

	BulletMarker = "•"
	PointMarker  = "→"
	DateLayout   = "January 2, 2006"
)

// Question cards cycle through four colour/tilt pairs.
var cardRotations = [4]float64{-1, 2, -2, 1}

type options struct {
	date     time.Time
	palettes *Palettes
}

type Option func(*options)

// WithDate adds the header date line to digital notes.
func WithDate(t time.Time) Option {
	return func(o *options) { o.date = t }
}

func WithPalettes(p *Palettes) Option {
	return func(o *options) { o.palettes = p }
}

type builder struct {
	pal Palette
}

func (b builder) style(role Role, font FontRole, size float64) Style {
	return Style{Role: role, Colors: b.pal[role], Font: font, Size: size}
}

// Render builds the visual tree for doc. It does not mutate doc and has no side effects.
func Render(doc notes.Document, th theme.Theme, opts ...Option) VisualTree {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.palettes == nil {
		o.palettes = DefaultPalettes(nil)
	}
	if _, ok := theme.Parse(string(th)); !ok {
		th = theme.Default
	}
	b := builder{pal: o.palettes.For(th)}

	tree := VisualTree{Theme: th}
	switch d := doc.(type) {
	case notes.DigitalNotes:
		tree.Mode, tree.Title = notes.ModeDigital, d.Title
		tree.Root = b.digital(d, o.date)
	case *notes.DigitalNotes:
		tree.Mode, tree.Title = notes.ModeDigital, d.Title
		tree.Root = b.digital(*d, o.date)
	case notes.PhysicalNotes:
		tree.Mode, tree.Title = notes.ModePhysical, d.Title
		tree.Root = b.physical(d)
	case *notes.PhysicalNotes:
		tree.Mode, tree.Title = notes.ModePhysical, d.Title
		tree.Root = b.physical(*d)
	default:
		tree.Root = Node{Kind: KindDocument, Style: b.style(RolePage, FontRegular, 16)}
	}
	return tree
}

func (b builder) digital(d notes.DigitalNotes, date time.Time) Node {
	header := Node{Kind: KindHeader, Children: []Node{
		{Kind: KindTitle, Text: d.Title, Level: 1, Style: b.style(RoleTitle, FontBold, 40)},
	}}
	if !date.IsZero() {
		header.Children = append(header.Children, Node{Kind: KindDate, Text: date.Format(DateLayout), Style: b.style(RoleMuted, FontRegular, 16)})
	}

	sheet := Node{Kind: KindSheet, Style: b.style(RoleSheet, FontRegular, 16)}
	sheet.Children = append(sheet.Children,
		header,
		Node{Kind: KindSummary, Text: d.Summary, Style: b.style(RoleSummary, FontItalic, 18)},
		b.keyTopics(d.KeyTopics),
	)
	if len(d.ChartsAndGraphs) > 0 {
		sheet.Children = append(sheet.Children, b.charts(d.ChartsAndGraphs))
	}
	sheet.Children = append(sheet.Children, b.questions(d.PracticeQuestions))

	return Node{Kind: KindDocument, Style: b.style(RolePage, FontRegular, 16), Children: []Node{sheet}}
}

func (b builder) sectionHeading(text string) Node {
	return Node{Kind: KindHeading, Text: text, Level: 2, Style: b.style(RoleHeading, FontBold, 30)}
}

func (b builder) keyTopics(topics []notes.Topic) Node {
	sec := Node{Kind: KindSection, Children: []Node{b.sectionHeading(SectionKeyTopics)}}
	for _, t := range topics {
		topic := Node{Kind: KindTopic, Style: b.style(RoleTopic, FontRegular, 16), Children: []Node{
			{Kind: KindHeading, Text: t.TopicTitle, Level: 3, Style: b.style(RoleHeading, FontBold, 24)},
		}}
		for _, item := range t.Content {
			if n, ok := b.contentItem(item); ok {
				topic.Children = append(topic.Children, n)
			}
		}
		sec.Children = append(sec.Children, topic)
	}
	return sec
}

func (b builder) contentItem(item notes.ContentItem) (Node, bool) {
	switch it := item.(type) {
	case notes.Bullet:
		return Node{Kind: KindBullet, Text: it.Point, Marker: BulletMarker, Style: b.style(RoleBody, FontRegular, 16)}, true
	case notes.Paragraph:
		return Node{Kind: KindParagraph, Text: it.Text, Style: b.style(RoleSummary, FontRegular, 16)}, true
	case notes.ImageIdea:
		if it.Description == "" {
			return Node{}, false
		}
		st := b.style(RolePlaceholder, FontRegular, 14)
		st.Dashed = true
		st.Rotation = -2
		st.Align = AlignCenter
		return Node{Kind: KindPlaceholder, Style: st, Children: []Node{
			{Kind: KindLabel, Text: ImageIdeaLabel, Style: b.style(RolePlaceholder, FontBold, 14)},
			{Kind: KindCaption, Text: it.Description, Style: b.style(RoleMuted, FontItalic, 12)},
		}}, true
	case notes.GeneratedImage:
		if it.ImageURL == "" {
			return Node{}, false
		}
		st := b.style(RoleImageFrame, FontRegular, 12)
		st.Rotation = -2
		st.Align = AlignCenter
		n := Node{Kind: KindImage, ImageURL: it.ImageURL, Text: it.Description, Style: st}
		if it.Description != "" {
			n.Children = []Node{{Kind: KindCaption, Text: it.Description, Style: b.style(RoleImageFrame, FontItalic, 12)}}
		}
		return n, true
	default:
		return Node{}, false
	}
}

func (b builder) charts(charts []notes.Chart) Node {
	sec := Node{Kind: KindSection, Children: []Node{b.sectionHeading(SectionVisuals)}}
	for _, c := range charts {
		st := b.style(RoleChart, FontRegular, 14)
		st.Align = AlignCenter
		chart := Node{Kind: KindChart, Style: st, Children: []Node{
			{Kind: KindHeading, Text: c.Title, Level: 4, Style: b.style(RoleHeading, FontBold, 18)},
			{Kind: KindParagraph, Text: c.Description, Style: b.style(RoleMuted, FontRegular, 14)},
		}}
		switch data := c.Data.(type) {
		case notes.FlowchartData:
			chart.Children = append(chart.Children, b.flowchart(data.Steps))
		case notes.BarChartData:
			chart.Children = append(chart.Children, b.barChart(data.Bars))
		}
		sec.Children = append(sec.Children, chart)
	}
	return sec
}

// flowchart alternates steps and connectors: n steps give 2n-1 children.
func (b builder) flowchart(steps []string) Node {
	n := Node{Kind: KindFlowchart, Style: Style{Align: AlignCenter}}
	for i, s := range steps {
		st := b.style(RoleStep, FontRegular, 14)
		st.Align = AlignCenter
		n.Children = append(n.Children, Node{Kind: KindStep, Text: s, Style: st})
		if i < len(steps)-1 {
			n.Children = append(n.Children, Node{Kind: KindConnector, Style: b.style(RoleConnector, FontRegular, 14)})
		}
	}
	return n
}

func (b builder) barChart(bars []notes.BarDatum) Node {
	n := Node{Kind: KindBarChart, Style: b.style(RoleBar, FontRegular, 12)}
	for i, f := range BarFractions(bars) {
		n.Children = append(n.Children, Node{
			Kind:  KindBar,
			Text:  bars[i].Label,
			Bar:   &Bar{Label: bars[i].Label, Value: bars[i].Value, Fraction: f},
			Style: b.style(RoleBar, FontRegular, 12),
		})
	}
	return n
}

// BarFractions scales each value by the largest value. When that maximum is not positive
// every fraction is 0. Results are clamped to [0, 1].
func BarFractions(bars []notes.BarDatum) []float64 {
	out := make([]float64, len(bars))
	maxV := 0.0
	for _, d := range bars {
		if d.Value > maxV {
			maxV = d.Value
		}
	}
	if maxV <= 0 || math.IsInf(maxV, 0) || math.IsNaN(maxV) {
		return out
	}
	for i, d := range bars {
		out[i] = math.Max(0, math.Min(1, d.Value/maxV))
	}
	return out
}

func (b builder) questions(qs []notes.Question) Node {
	sec := Node{Kind: KindSection, Children: []Node{b.sectionHeading(SectionQuestions)}}
	grid := Node{Kind: KindCardGrid, Style: Style{Columns: 2}}
	for i, q := range qs {
		grid.Children = append(grid.Children, b.card(i, q))
	}
	sec.Children = append(sec.Children, grid)
	return sec
}

// CardRole and CardRotation give the colour and tilt of question card i.
func CardRole(i int) Role        { return cardRoles[cycle(i)] }
func CardRotation(i int) float64 { return cardRotations[cycle(i)] }
func cycle(i int) int            { return ((i % 4) + 4) % 4 }

func (b builder) card(i int, q notes.Question) Node {
	st := b.style(CardRole(i), FontHand, 18)
	st.Rotation = CardRotation(i)
	return Node{Kind: KindCard, Text: q.Question, Style: st}
}

func (b builder) physical(p notes.PhysicalNotes) Node {
	sheetStyle := b.style(RoleHandSheet, FontHand, 20)
	sheetStyle.Dashed = true
	titleStyle := b.style(RoleTitle, FontHand, 48)
	titleStyle.Align = AlignCenter
	summaryStyle := b.style(RoleMuted, FontHand, 20)
	summaryStyle.Align = AlignCenter

	sheet := Node{Kind: KindSheet, Style: sheetStyle, Children: []Node{
		{Kind: KindHeader, Children: []Node{
			{Kind: KindTitle, Text: p.Title, Level: 1, Style: titleStyle},
			{Kind: KindSummary, Text: p.MainSummary, Style: summaryStyle},
		}},
	}}
	for _, s := range p.Sections {
		sec := Node{Kind: KindSection, Children: []Node{
			{Kind: KindHeading, Text: s.Heading, Level: 2, Style: b.style(RoleHeading, FontHand, 36)},
		}}
		for _, pt := range s.Points {
			sec.Children = append(sec.Children, Node{Kind: KindBullet, Text: pt, Marker: PointMarker, Style: b.style(RoleBody, FontHand, 24)})
		}
		if s.DiagramIdea != nil {
			st := b.style(RoleDiagram, FontHand, 20)
			st.Rotation = -2
			sec.Children = append(sec.Children, Node{Kind: KindDiagram, Style: st, Children: []Node{
				{Kind: KindHeading, Text: DrawingIdeaTitle(s.DiagramIdea.Title), Level: 3, Style: b.style(RoleDiagram, FontHand, 24)},
				{Kind: KindParagraph, Text: s.DiagramIdea.Description, Style: b.style(RoleDiagram, FontHand, 20)},
			}})
		}
		sheet.Children = append(sheet.Children, sec)
	}
	return Node{Kind: KindDocument, Style: b.style(RoleHandSheet, FontHand, 20), Children: []Node{sheet}}
}

func DrawingIdeaTitle(title string) string {
	return fmt.Sprintf("%s%s", title, DrawingIdeaSuffix)
}

// Recolor returns a copy of tree painted with the palette for th. Structure and content are
// unchanged; nodes without a role keep their colours.
func Recolor(tree VisualTree, th theme.Theme, p *Palettes) VisualTree {
	if p == nil {
		p = DefaultPalettes(nil)
	}
	pal := p.For(th)
	out := tree
	out.Theme = th
	out.Root = recolorNode(tree.Root, pal)
	return out
}

func recolorNode(n Node, pal Palette) Node {
	if n.Style.Role != "" {
		if sw, ok := pal[n.Style.Role]; ok {
			n.Style.Colors = sw
		}
	}
	if n.Bar != nil {
		bar := *n.Bar
		n.Bar = &bar
	}
	if n.Children != nil {
		kids := make([]Node, len(n.Children))
		for i, c := range n.Children {
			kids[i] = recolorNode(c, pal)
		}
		n.Children = kids
	}
	return n
}
