package render

import (
	"bytes"
	"image/png"
	"testing"

	"github.com/codezs3/edusight-ai-new-sub001/internal/domain/assessment"
)

func sampleSet() assessment.GraphDescriptorSet {
	labels := []string{"Mathematics", "Science", "English"}
	return assessment.GraphDescriptorSet{
		Radar: assessment.GraphDescriptor{Kind: assessment.ChartRadar, Title: "Radar", Labels: labels,
			Datasets: []assessment.Dataset{{Label: "Student", Data: []float64{88, 91, 79}, Color: "#2563EB"}}},
		TrendLine: assessment.GraphDescriptor{Kind: assessment.ChartTrendLine, Title: "Trend", Labels: labels,
			Datasets: []assessment.Dataset{{Label: "Current", Data: []float64{88, 91, 79}, Color: "#2563EB"}}},
		Distribution: assessment.GraphDescriptor{Kind: assessment.ChartDistribution, Title: "Distribution", Labels: assessment.ClassBuckets,
			Datasets: []assessment.Dataset{{Label: "Share", Data: []float64{25, 50, 25, 0}, Color: "#2563EB"}}},
		Heatmap: assessment.GraphDescriptor{Kind: assessment.ChartHeatmap, Title: "Heatmap", Labels: labels,
			Matrix: [][]float64{{1, 0.5, -0.2}, {0.5, 1, 0}, {-0.2, 0, 1}}},
		PredictionArea: assessment.GraphDescriptor{Kind: assessment.ChartPredictionArea, Title: "Area", Labels: []string{"Period 1", "Predicted"},
			Datasets: []assessment.Dataset{{Label: "Mathematics", Data: []float64{85, 87}, Color: "#16A34A"}}},
	}
}

func TestRenderAll(t *testing.T) {
	r, err := New("")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	r.Width, r.Height = 320, 240
	out, err := r.RenderAll(sampleSet())
	if err != nil {
		t.Fatalf("RenderAll: %v", err)
	}
	if len(out) != len(assessment.ChartKinds) {
		t.Fatalf("charts: want=%d got=%d", len(assessment.ChartKinds), len(out))
	}
	for kind, raw := range out {
		img, err := png.Decode(bytes.NewReader(raw))
		if err != nil {
			t.Fatalf("%s: decode: %v", kind, err)
		}
		if b := img.Bounds(); b.Dx() != 320 || b.Dy() != 240 {
			t.Fatalf("%s: size: got=%dx%d", kind, b.Dx(), b.Dy())
		}
	}
}

func TestRenderUnknownKind(t *testing.T) {
	r, err := New("")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := r.Render(assessment.GraphDescriptor{Kind: "pie"}); err == nil {
		t.Fatalf("want error for unknown kind")
	}
}

func TestRenderEmptyDescriptors(t *testing.T) {
	r, err := New("")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	for _, kind := range assessment.ChartKinds {
		if _, err := r.Render(assessment.GraphDescriptor{Kind: kind}); err != nil {
			t.Fatalf("%s: %v", kind, err)
		}
	}
}

func TestThumbnail(t *testing.T) {
	r, err := New("")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	raw, err := r.Render(sampleSet().Radar)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	small, err := Thumbnail(raw, 240)
	if err != nil {
		t.Fatalf("Thumbnail: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(small))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 240 || b.Dy() != 160 {
		t.Fatalf("size: want=240x160 got=%dx%d", b.Dx(), b.Dy())
	}
}

func TestDivergingColor(t *testing.T) {
	if c := divergingColor(1); c.B != 235 {
		t.Fatalf("positive: got=%v", c)
	}
	if c := divergingColor(-1); c.R != 220 {
		t.Fatalf("negative: got=%v", c)
	}
	if c := hexColor("nope", 255); c.R != 107 {
		t.Fatalf("fallback: got=%v", c)
	}
}
