package schema

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/yungbote/lecturenotes-backend/internal/domain/notes"
)

// Validate checks a decoded JSON value against the document shape for mode and returns the
// typed document. raw may also be []byte, string or json.RawMessage, which are decoded first.
// Every issue found is reported, not just the first.
func Validate(raw any, mode notes.Mode) (notes.Document, error) {
	value, err := decodeRaw(raw)
	if err != nil {
		return nil, &notes.Error{Kind: notes.KindSchema, Message: "notes document is not valid JSON", Err: err}
	}
	obj, ok := value.(map[string]any)
	if !ok {
		return nil, &notes.Error{Kind: notes.KindSchema, Message: "invalid notes document", Issues: []string{"$: expected object, got " + typeName(value)}}
	}

	v := &validator{}
	var doc notes.Document
	switch mode {
	case notes.ModeDigital:
		doc = v.digital(obj)
	case notes.ModePhysical:
		doc = v.physical(obj)
	default:
		return nil, &notes.Error{Kind: notes.KindSchema, Message: "invalid notes document", Issues: []string{fmt.Sprintf("$: unknown mode %q", mode)}}
	}
	if len(v.issues) > 0 {
		return nil, &notes.Error{Kind: notes.KindSchema, Message: "invalid notes document", Issues: v.issues}
	}
	return doc, nil
}

// DecodeDocument validates a JSON payload. Used for documents read from disk or request bodies.
func DecodeDocument(data []byte, mode notes.Mode) (notes.Document, error) {
	return Validate(data, mode)
}

func decodeRaw(raw any) (any, error) {
	var data []byte
	switch t := raw.(type) {
	case []byte:
		data = t
	case json.RawMessage:
		data = t
	case string:
		data = []byte(t)
	default:
		return raw, nil
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

type validator struct {
	issues []string
}

func (v *validator) addf(path, format string, args ...any) {
	v.issues = append(v.issues, path+": "+fmt.Sprintf(format, args...))
}

func (v *validator) digital(obj map[string]any) notes.DigitalNotes {
	out := notes.DigitalNotes{
		Title:   v.str(obj, "title", "title"),
		Summary: v.str(obj, "summary", "summary"),
	}
	for i, item := range v.arr(obj, "keyTopics", "keyTopics") {
		out.KeyTopics = append(out.KeyTopics, v.topic(item, fmt.Sprintf("keyTopics[%d]", i)))
	}
	for i, item := range v.arr(obj, "chartsAndGraphs", "chartsAndGraphs") {
		out.ChartsAndGraphs = append(out.ChartsAndGraphs, v.chart(item, fmt.Sprintf("chartsAndGraphs[%d]", i)))
	}
	for i, item := range v.arr(obj, "practiceQuestions", "practiceQuestions") {
		path := fmt.Sprintf("practiceQuestions[%d]", i)
		q, ok := v.object(item, path)
		if !ok {
			continue
		}
		out.PracticeQuestions = append(out.PracticeQuestions, notes.Question{
			Question: v.str(q, "question", path+".question"),
			Type:     v.str(q, "type", path+".type"),
		})
	}
	ensureSlices(&out)
	return out
}

func ensureSlices(d *notes.DigitalNotes) {
	if d.KeyTopics == nil {
		d.KeyTopics = []notes.Topic{}
	}
	if d.ChartsAndGraphs == nil {
		d.ChartsAndGraphs = []notes.Chart{}
	}
	if d.PracticeQuestions == nil {
		d.PracticeQuestions = []notes.Question{}
	}
}

func (v *validator) topic(raw any, path string) notes.Topic {
	obj, ok := v.object(raw, path)
	if !ok {
		return notes.Topic{}
	}
	t := notes.Topic{TopicTitle: v.str(obj, "topicTitle", path+".topicTitle"), Content: []notes.ContentItem{}}
	for i, item := range v.arr(obj, "content", path+".content") {
		if c := v.contentItem(item, fmt.Sprintf("%s.content[%d]", path, i)); c != nil {
			t.Content = append(t.Content, c)
		}
	}
	return t
}

func (v *validator) contentItem(raw any, path string) notes.ContentItem {
	obj, ok := v.object(raw, path)
	if !ok {
		return nil
	}
	kind, ok := v.discriminant(obj, path)
	if !ok {
		return nil
	}
	switch notes.ContentKind(kind) {
	case notes.ContentBullet:
		return notes.Bullet{Point: v.str(obj, "point", path+".point")}
	case notes.ContentParagraph:
		return notes.Paragraph{Text: v.str(obj, "text", path+".text")}
	case notes.ContentImageIdea:
		return notes.ImageIdea{Description: v.str(obj, "description", path+".description")}
	case notes.ContentGeneratedImage:
		return notes.GeneratedImage{
			Description: v.str(obj, "description", path+".description"),
			ImageURL:    v.str(obj, "imageUrl", path+".imageUrl"),
		}
	default:
		v.addf(path+".type", "unrecognized %q", kind)
		return nil
	}
}

func (v *validator) chart(raw any, path string) notes.Chart {
	obj, ok := v.object(raw, path)
	if !ok {
		return notes.Chart{}
	}
	c := notes.Chart{
		Title:       v.str(obj, "title", path+".title"),
		Description: v.str(obj, "description", path+".description"),
	}
	kind, ok := v.discriminant(obj, path)
	if !ok {
		return c
	}
	items := v.arr(obj, "data", path+".data")
	switch notes.ChartType(kind) {
	case notes.ChartFlowchart:
		steps := make([]string, 0, len(items))
		for i, item := range items {
			s, ok := item.(string)
			if !ok {
				v.addf(fmt.Sprintf("%s.data[%d]", path, i), "flowchart step must be a string, got %s", typeName(item))
				continue
			}
			steps = append(steps, strings.TrimSpace(s))
		}
		c.Data = notes.FlowchartData{Steps: steps}
	case notes.ChartBar:
		bars := make([]notes.BarDatum, 0, len(items))
		for i, item := range items {
			ip := fmt.Sprintf("%s.data[%d]", path, i)
			bar, ok := item.(map[string]any)
			if !ok {
				v.addf(ip, "bar_chart datum must be an object with label and value, got %s", typeName(item))
				continue
			}
			bars = append(bars, notes.BarDatum{
				Label: v.str(bar, "label", ip+".label"),
				Value: v.num(bar, "value", ip+".value"),
			})
		}
		c.Data = notes.BarChartData{Bars: bars}
	default:
		v.addf(path+".type", "unrecognized %q", kind)
	}
	return c
}

func (v *validator) physical(obj map[string]any) notes.PhysicalNotes {
	out := notes.PhysicalNotes{
		Title:       v.str(obj, "title", "title"),
		MainSummary: v.str(obj, "mainSummary", "mainSummary"),
		Sections:    []notes.Section{},
	}
	for i, item := range v.arr(obj, "sections", "sections") {
		path := fmt.Sprintf("sections[%d]", i)
		sec, ok := v.object(item, path)
		if !ok {
			continue
		}
		s := notes.Section{Heading: v.str(sec, "heading", path+".heading"), Points: []string{}}
		for j, p := range v.arr(sec, "points", path+".points") {
			str, ok := p.(string)
			if !ok {
				v.addf(fmt.Sprintf("%s.points[%d]", path, j), "expected string, got %s", typeName(p))
				continue
			}
			s.Points = append(s.Points, strings.TrimSpace(str))
		}
		if rawIdea, present := sec["diagramIdea"]; present && rawIdea != nil {
			ip := path + ".diagramIdea"
			if idea, ok := v.object(rawIdea, ip); ok {
				s.DiagramIdea = &notes.DiagramIdea{
					Title:       v.str(idea, "title", ip+".title"),
					Description: v.str(idea, "description", ip+".description"),
				}
			}
		}
		out.Sections = append(out.Sections, s)
	}
	return out
}

func (v *validator) discriminant(obj map[string]any, path string) (string, bool) {
	raw, ok := obj["type"]
	if !ok {
		v.addf(path+".type", "required")
		return "", false
	}
	s, ok := raw.(string)
	if !ok {
		v.addf(path+".type", "expected string, got %s", typeName(raw))
		return "", false
	}
	return strings.TrimSpace(s), true
}

func (v *validator) object(raw any, path string) (map[string]any, bool) {
	obj, ok := raw.(map[string]any)
	if !ok {
		v.addf(path, "expected object, got %s", typeName(raw))
	}
	return obj, ok
}

func (v *validator) str(obj map[string]any, key, path string) string {
	raw, ok := obj[key]
	if !ok || raw == nil {
		v.addf(path, "required")
		return ""
	}
	s, ok := raw.(string)
	if !ok {
		v.addf(path, "expected string, got %s", typeName(raw))
		return ""
	}
	return strings.TrimSpace(s)
}

func (v *validator) num(obj map[string]any, key, path string) float64 {
	raw, ok := obj[key]
	if !ok || raw == nil {
		v.addf(path, "required")
		return 0
	}
	var f float64
	switch n := raw.(type) {
	case float64:
		f = n
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			v.addf(path, "expected number, got %q", n.String())
			return 0
		}
		f = parsed
	case int:
		f = float64(n)
	default:
		v.addf(path, "expected number, got %s", typeName(raw))
		return 0
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		v.addf(path, "expected finite number")
		return 0
	}
	return f
}

func (v *validator) arr(obj map[string]any, key, path string) []any {
	raw, ok := obj[key]
	if !ok || raw == nil {
		v.addf(path, "required")
		return nil
	}
	a, ok := raw.([]any)
	if !ok {
		v.addf(path, "expected array, got %s", typeName(raw))
		return nil
	}
	return a
}

func typeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case float64, json.Number, int:
		return "number"
	case bool:
		return "boolean"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	default:
		return fmt.Sprintf("%T", v)
	}
}
