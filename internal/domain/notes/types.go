package notes

import "strings"

// Mode selects which document variant a generation cycle produces.
type Mode string

const (
	ModeDigital  Mode = "digital"
	ModePhysical Mode = "physical"
)

func ParseMode(raw string) (Mode, bool) {
	switch Mode(strings.ToLower(strings.TrimSpace(raw))) {
	case ModeDigital:
		return ModeDigital, true
	case ModePhysical:
		return ModePhysical, true
	default:
		return "", false
	}
}

// Document is either DigitalNotes or PhysicalNotes.
type Document interface {
	Mode() Mode
	DocumentTitle() string
	isDocument()
}

type DigitalNotes struct {
	Title             string     `json:"title"`
	Summary           string     `json:"summary"`
	KeyTopics         []Topic    `json:"keyTopics"`
	ChartsAndGraphs   []Chart    `json:"chartsAndGraphs"`
	PracticeQuestions []Question `json:"practiceQuestions"`
}

func (DigitalNotes) Mode() Mode              { return ModeDigital }
func (d DigitalNotes) DocumentTitle() string { return d.Title }
func (DigitalNotes) isDocument()             {}

type PhysicalNotes struct {
	Title       string    `json:"title"`
	MainSummary string    `json:"mainSummary"`
	Sections    []Section `json:"sections"`
}

func (PhysicalNotes) Mode() Mode              { return ModePhysical }
func (p PhysicalNotes) DocumentTitle() string { return p.Title }
func (PhysicalNotes) isDocument()             {}

type Topic struct {
	TopicTitle string        `json:"topicTitle"`
	Content    []ContentItem `json:"content"`
}

type ContentKind string

const (
	ContentBullet         ContentKind = "bullet"
	ContentParagraph      ContentKind = "paragraph"
	ContentImageIdea      ContentKind = "image_idea"
	ContentGeneratedImage ContentKind = "generated_image"
)

// ContentItem is one renderable unit inside a topic.
type ContentItem interface {
	Kind() ContentKind
}

type Bullet struct {
	Point string
}

type Paragraph struct {
	Text string
}

// ImageIdea is an unresolved illustration placeholder.
type ImageIdea struct {
	Description string
}

// GeneratedImage keeps the placeholder's description for captioning.
type GeneratedImage struct {
	Description string
	ImageURL    string
}

func (Bullet) Kind() ContentKind         { return ContentBullet }
func (Paragraph) Kind() ContentKind      { return ContentParagraph }
func (ImageIdea) Kind() ContentKind      { return ContentImageIdea }
func (GeneratedImage) Kind() ContentKind { return ContentGeneratedImage }

type ChartType string

const (
	ChartFlowchart ChartType = "flowchart"
	ChartBar       ChartType = "bar_chart"
)

// Chart's type is derived from its data so the two cannot disagree.
type Chart struct {
	Title       string
	Description string
	Data        ChartData
}

func (c Chart) Type() ChartType {
	if c.Data == nil {
		return ""
	}
	return c.Data.ChartType()
}

type ChartData interface {
	ChartType() ChartType
}

type FlowchartData struct {
	Steps []string
}

type BarChartData struct {
	Bars []BarDatum
}

type BarDatum struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

func (FlowchartData) ChartType() ChartType { return ChartFlowchart }
func (BarChartData) ChartType() ChartType  { return ChartBar }

type Question struct {
	Question string `json:"question"`
	Type     string `json:"type"`
}

type Section struct {
	Heading     string       `json:"heading"`
	Points      []string     `json:"points"`
	DiagramIdea *DiagramIdea `json:"diagramIdea,omitempty"`
}

type DiagramIdea struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Clone returns a copy that shares no slices with d. Content items are values, so
// copying the slices is enough.
func (d DigitalNotes) Clone() DigitalNotes {
	out := d
	if d.KeyTopics != nil {
		out.KeyTopics = make([]Topic, len(d.KeyTopics))
		for i, t := range d.KeyTopics {
			out.KeyTopics[i] = Topic{TopicTitle: t.TopicTitle}
			out.KeyTopics[i].Content = cloneSlice(t.Content)
		}
	}
	if d.ChartsAndGraphs != nil {
		out.ChartsAndGraphs = make([]Chart, len(d.ChartsAndGraphs))
		for i, c := range d.ChartsAndGraphs {
			out.ChartsAndGraphs[i] = c
			switch data := c.Data.(type) {
			case FlowchartData:
				out.ChartsAndGraphs[i].Data = FlowchartData{Steps: cloneSlice(data.Steps)}
			case BarChartData:
				out.ChartsAndGraphs[i].Data = BarChartData{Bars: cloneSlice(data.Bars)}
			}
		}
	}
	out.PracticeQuestions = cloneSlice(d.PracticeQuestions)
	return out
}

// cloneSlice keeps nil and empty distinct.
func cloneSlice[T any](in []T) []T {
	if in == nil {
		return nil
	}
	out := make([]T, len(in))
	copy(out, in)
	return out
}
