package composer

import (
	"fmt"
	"strings"
)

// InputKind classifies a render input.
type InputKind int

const (
	InputVideo InputKind = iota
	InputImage
	InputAudio
	InputColor
)

// Input is one typed entry in the render command. Serialization to ffmpeg
// argument syntax happens only in Graph.Args.
type Input struct {
	Kind     InputKind
	Path     string
	Duration float64 // hold time for images and the color base
	Offset   float64 // presentation offset for video clips
	Color    string
	Width    int
	Height   int
}

// Filter is one node of the filter graph, referencing labeled pads.
type Filter struct {
	Inputs  []string
	Expr    string
	Outputs []string
}

// Graph is a structured multi-input render command. Input ordering and
// filter pad references are assembled as data so they can be verified
// independently of the textual ffmpeg syntax.
type Graph struct {
	inputs     []Input
	filters    []Filter
	videoLabel string
	audioLabel string
}

func NewGraph() *Graph {
	return &Graph{}
}

// AddInput appends an input and returns its ffmpeg input index.
func (g *Graph) AddInput(in Input) int {
	g.inputs = append(g.inputs, in)
	return len(g.inputs) - 1
}

func (g *Graph) AddFilter(f Filter) {
	g.filters = append(g.filters, f)
}

// MapVideo selects the labeled pad to encode as the output video stream.
func (g *Graph) MapVideo(label string) {
	g.videoLabel = label
}

// MapAudio selects the labeled pad to encode as the output audio stream.
func (g *Graph) MapAudio(label string) {
	g.audioLabel = label
}

func (g *Graph) Inputs() []Input {
	return g.inputs
}

func (g *Graph) Filters() []Filter {
	return g.filters
}

// FilterComplex serializes the filter nodes to ffmpeg's textual syntax.
func (g *Graph) FilterComplex() string {
	parts := make([]string, 0, len(g.filters))
	for _, f := range g.filters {
		var sb strings.Builder
		for _, in := range f.Inputs {
			fmt.Fprintf(&sb, "[%s]", in)
		}
		sb.WriteString(f.Expr)
		for _, out := range f.Outputs {
			fmt.Fprintf(&sb, "[%s]", out)
		}
		parts = append(parts, sb.String())
	}
	return strings.Join(parts, ";")
}

// Args serializes the whole graph to an ffmpeg argument list writing to
// outputPath. Output uses H.264/AAC with yuv420p, duration clamped to the
// shortest mapped stream.
func (g *Graph) Args(outputPath string) []string {
	args := []string{"-y"}

	for _, in := range g.inputs {
		args = append(args, in.args()...)
	}

	if fc := g.FilterComplex(); fc != "" {
		args = append(args, "-filter_complex", fc)
	}
	if g.videoLabel != "" {
		args = append(args, "-map", g.mapRef(g.videoLabel))
	}
	if g.audioLabel != "" {
		args = append(args, "-map", g.mapRef(g.audioLabel))
	}

	args = append(args,
		"-c:v", "libx264",
		"-c:a", "aac",
		"-pix_fmt", "yuv420p",
		"-ar", "44100",
		"-preset", "fast",
		"-movflags", "+faststart",
		"-shortest",
		outputPath,
	)
	return args
}

// mapRef renders a -map target: raw stream specifiers (e.g. "1:a") pass
// through, filter pad labels are bracketed.
func (g *Graph) mapRef(label string) string {
	if strings.Contains(label, ":") {
		return label
	}
	return "[" + label + "]"
}

func (in Input) args() []string {
	switch in.Kind {
	case InputImage:
		return []string{"-loop", "1", "-t", formatSeconds(in.Duration), "-i", in.Path}
	case InputColor:
		color := in.Color
		if color == "" {
			color = "black"
		}
		src := fmt.Sprintf("color=c=%s:s=%dx%d:r=30:d=%s", color, in.Width, in.Height, formatSeconds(in.Duration))
		return []string{"-f", "lavfi", "-i", src}
	case InputVideo:
		if in.Offset > 0 {
			return []string{"-itsoffset", formatSeconds(in.Offset), "-i", in.Path}
		}
		return []string{"-i", in.Path}
	default:
		return []string{"-i", in.Path}
	}
}

func formatSeconds(v float64) string {
	return fmt.Sprintf("%.2f", v)
}
