package notes

import "encoding/json"

// Wire form mirrors what the generator emits: every variant carries its "type" tag.

func (b Bullet) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type  ContentKind `json:"type"`
		Point string      `json:"point"`
	}{ContentBullet, b.Point})
}

func (p Paragraph) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type ContentKind `json:"type"`
		Text string      `json:"text"`
	}{ContentParagraph, p.Text})
}

func (i ImageIdea) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type        ContentKind `json:"type"`
		Description string      `json:"description"`
	}{ContentImageIdea, i.Description})
}

func (g GeneratedImage) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type        ContentKind `json:"type"`
		Description string      `json:"description"`
		ImageURL    string      `json:"imageUrl"`
	}{ContentGeneratedImage, g.Description, g.ImageURL})
}

func (c Chart) MarshalJSON() ([]byte, error) {
	var data any = []any{}
	switch d := c.Data.(type) {
	case FlowchartData:
		if d.Steps != nil {
			data = d.Steps
		}
	case BarChartData:
		if d.Bars != nil {
			data = d.Bars
		}
	}
	return json.Marshal(struct {
		Title       string    `json:"title"`
		Type        ChartType `json:"type"`
		Data        any       `json:"data"`
		Description string    `json:"description"`
	}{c.Title, c.Type(), data, c.Description})
}
