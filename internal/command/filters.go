package command

import (
	"fmt"
	"strings"
)

// Target canvas for the 9:16 reframe.
const (
	reframeWidth  = 1080
	reframeHeight = 1920
)

const (
	watermarkFontSize = 28
	watermarkMargin   = 24
)

// Stage is one node in an ffmpeg filter graph. Labels are bare names; the
// serializer adds brackets. Input label "0:v" refers to the source video
// stream.
type Stage struct {
	Inputs  []string
	Filter  string
	Outputs []string
}

// Graph is an ordered filter stage list rendered by a single serializer, so
// separator bookkeeping cannot go wrong stage by stage.
type Graph struct {
	stages []Stage
}

// Append adds a stage to the end of the graph.
func (g *Graph) Append(stage Stage) {
	g.stages = append(g.stages, stage)
}

// Empty reports whether the graph has no stages.
func (g *Graph) Empty() bool {
	return len(g.stages) == 0
}

// OutputLabel returns the bracketed label the final stage produces, suitable
// for -map.
func (g *Graph) OutputLabel() string {
	if g.Empty() {
		return "0:v"
	}
	outputs := g.stages[len(g.stages)-1].Outputs
	return "[" + outputs[len(outputs)-1] + "]"
}

// Render serializes the graph into the -filter_complex descriptor string.
func (g *Graph) Render() string {
	parts := make([]string, 0, len(g.stages))
	for _, stage := range g.stages {
		var sb strings.Builder
		for _, in := range stage.Inputs {
			sb.WriteString("[")
			sb.WriteString(in)
			sb.WriteString("]")
		}
		sb.WriteString(stage.Filter)
		for _, out := range stage.Outputs {
			sb.WriteString("[")
			sb.WriteString(out)
			sb.WriteString("]")
		}
		parts = append(parts, sb.String())
	}
	return strings.Join(parts, ";")
}

// videoGraph assembles the video filter stages for the active transforms in
// fixed order: reframe first, watermark second consuming whichever label is
// current. No active video transform yields an empty graph.
func videoGraph(transforms Transforms) *Graph {
	graph := &Graph{}
	last := "0:v"

	if transforms.ReframeTo916 {
		graph.Append(Stage{
			Inputs:  []string{last},
			Filter:  "split=2",
			Outputs: []string{"bgsrc", "fgsrc"},
		})
		graph.Append(Stage{
			Inputs: []string{"bgsrc"},
			Filter: fmt.Sprintf(
				"scale=%d:%d:force_original_aspect_ratio=increase,crop=%d:%d,boxblur=luma_radius=32:luma_power=2",
				reframeWidth, reframeHeight, reframeWidth, reframeHeight,
			),
			Outputs: []string{"bg"},
		})
		graph.Append(Stage{
			Inputs: []string{"fgsrc"},
			Filter: fmt.Sprintf(
				"scale=%d:%d:force_original_aspect_ratio=decrease",
				reframeWidth, reframeHeight,
			),
			Outputs: []string{"fg"},
		})
		graph.Append(Stage{
			Inputs:  []string{"bg", "fg"},
			Filter:  "overlay=(W-w)/2:(H-h)/2",
			Outputs: []string{"framed"},
		})
		last = "framed"
	}

	if text := strings.TrimSpace(transforms.WatermarkText); text != "" {
		graph.Append(Stage{
			Inputs: []string{last},
			Filter: fmt.Sprintf(
				"drawtext=text='%s':fontcolor=white:fontsize=%d:borderw=2:bordercolor=black:x=w-tw-%d:y=h-th-%d",
				escapeDrawtext(text), watermarkFontSize, watermarkMargin, watermarkMargin,
			),
			Outputs: []string{"marked"},
		})
	}

	return graph
}

// escapeDrawtext protects characters the drawtext filter parser treats
// specially.
func escapeDrawtext(text string) string {
	replacer := strings.NewReplacer(
		`\`, `\\`,
		`:`, `\:`,
		`'`, `\\\'`,
		`%`, `\%`,
	)
	return replacer.Replace(text)
}
