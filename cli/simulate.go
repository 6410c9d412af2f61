package cli

import (
	"encoding/json"
	"fmt"

	"airflow/model"
	"airflow/service"

	"github.com/spf13/cobra"
)

func (a *app) newSimulateCmd() *cobra.Command {
	var (
		req      model.LayoutRequest
		shape    string
		asJSON   bool
		mapWidth int
	)
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Evaluate one fan layout and print its metrics",
		Example: `  airflow simulate --width 30 --length 40 --height 5 --fan "Wall Mount Fan" --count 4
  airflow simulate --shape l_shape --cutout-width 12 --cutout-length 16 --count 6`,
		RunE: func(cmd *cobra.Command, args []string) error {
			req.Shape.Kind = model.ShapeKind(shape)
			cat, err := a.loadCatalog()
			if err != nil {
				return err
			}
			svc, err := service.New(a.cfg, cat, nil, nil)
			if err != nil {
				return err
			}
			ev, err := svc.Evaluate(cmd.Context(), req)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(ev)
			}
			fmt.Fprintln(out, renderReport(ev))
			fmt.Fprintln(out, renderHeatmap(ev, mapWidth))
			return nil
		},
	}

	f := cmd.Flags()
	f.Float64Var(&req.Room.Width, "width", 30, "bounding box width (m)")
	f.Float64Var(&req.Room.Length, "length", 40, "bounding box length (m)")
	f.Float64Var(&req.Room.Height, "height", 5, "ceiling height (m)")
	f.StringVar(&req.FanName, "fan", "HVLS (High Volume Low Speed)", "fan model name from the catalog")
	f.IntVarP(&req.FanCount, "count", "n", 6, "number of fans")
	f.StringVar(&req.Application, "application", "", "application profile, e.g. \"Hawker Center\"")
	f.StringVar(&shape, "shape", string(model.ShapeRectangular), "floor shape: rectangular, l_shape or composite")
	f.Float64Var(&req.Shape.CutoutWidth, "cutout-width", 0, "l_shape cutout width (m)")
	f.Float64Var(&req.Shape.CutoutLength, "cutout-length", 0, "l_shape cutout length (m)")
	f.Float64Var(&req.Shape.RectWidth, "rect-width", 0, "composite rectangle width (m)")
	f.Float64Var(&req.Shape.RectLength, "rect-length", 0, "composite rectangle length (m)")
	f.Float64Var(&req.Shape.TriBase, "tri-base", 0, "composite triangle base (m)")
	f.Float64Var(&req.Shape.TriHeight, "tri-height", 0, "composite triangle height (m)")
	f.Float64Var(&req.Shape.CircleRadius, "circle-radius", 0, "composite semicircle radius (m)")
	f.Float64Var(&req.HoursPerDay, "hours", 0, "operating hours per day, 0 uses the config")
	f.Float64Var(&req.DaysPerMonth, "days", 0, "operating days per month, 0 uses the config")
	f.BoolVar(&asJSON, "output-json", false, "print the full evaluation as JSON")
	f.IntVar(&mapWidth, "map-width", 60, "heatmap width in characters")
	return cmd
}
