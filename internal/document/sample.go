package document

import (
	"github.com/inamate/artboard/internal/component"
	"github.com/inamate/artboard/internal/geometry"
)

// NewSampleState builds a small landing-card artboard used by the playground
// project and by the wasm host when no document is supplied.
func NewSampleState() *State {
	title := component.NewNode(component.TypeText,
		component.WithPosition(geometry.Point{X: 20, Y: 20}),
		component.WithSize(geometry.Size{Width: 280, Height: 40}),
		component.WithProps(component.Props{component.PropText: component.String("Welcome aboard")}),
		component.WithStyles(component.NewStyles(map[string]string{
			component.StyleFontSize:   "24px",
			component.StyleFontWeight: "600",
		}).WithOverride(component.BreakpointMD, component.StyleFontSize, "32px")),
	)
	body := component.NewNode(component.TypeText,
		component.WithPosition(geometry.Point{X: 20, Y: 80}),
		component.WithSize(geometry.Size{Width: 280, Height: 60}),
		component.WithProps(component.Props{component.PropText: component.String("Drag, resize and rotate anything on this card.")}),
	)
	cta := component.NewNode(component.TypeButton,
		component.WithPosition(geometry.Point{X: 20, Y: 160}),
		component.WithSize(geometry.Size{Width: 120, Height: 40}),
		component.WithProps(component.DefaultProps(component.TypeButton).Merge(component.Props{
			component.PropLabel: component.String("Get started"),
		})),
		component.WithStyles(component.NewStyles(map[string]string{
			component.StyleBackgroundColor: "#4f46e5",
			component.StyleColor:           "#ffffff",
			component.StyleBorderRadius:    "8px",
		})),
	)
	card := component.NewNode(component.TypeContainer,
		component.WithPosition(geometry.Point{X: 40, Y: 40}),
		component.WithSize(geometry.Size{Width: 320, Height: 220}),
		component.WithStyles(component.NewStyles(map[string]string{
			component.StyleBackgroundColor: "#1a1a2e",
			component.StyleBorderRadius:    "12px",
			component.StylePadding:         "20px",
		})),
		component.WithChildren(title, body, cta),
	)
	chart := component.NewNode(component.TypeChart,
		component.WithPosition(geometry.Point{X: 400, Y: 40}),
		component.WithSize(geometry.Size{Width: 240, Height: 160}),
		component.WithProps(component.Props{
			component.PropChartType: component.String("bar"),
			component.PropData: component.List(
				component.Number(3), component.Number(7), component.Number(4), component.Number(9),
			),
		}),
	)

	s := NewEmptyState()
	s.Components = []component.Node{card, chart}
	return s
}
