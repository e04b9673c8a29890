package storage

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"

	"github.com/san-kum/safecar/internal/sweep"
)

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// WriteCSV writes one row per grid point, speed-major. Infeasible
// intervals keep the -1 marker in both edge columns.
func WriteCSV(w io.Writer, surf *sweep.Surface) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(boundsHeader); err != nil {
		return err
	}

	for i, v := range surf.Speeds {
		for j, d := range surf.Deltas {
			next, worst := surf.Next[i][j], surf.Worst[i][j]
			row := []string{
				formatFloat(v), formatFloat(d),
				formatFloat(next.Max), formatFloat(next.Min), strconv.FormatBool(next.Feasible()),
				formatFloat(worst.Max), formatFloat(worst.Min), strconv.FormatBool(worst.Feasible()),
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
	}

	cw.Flush()
	return cw.Error()
}

type ExportData struct {
	Meta   RunMetadata `json:"meta"`
	Speeds []float64   `json:"speeds"`
	Deltas []float64   `json:"deltas"`
	// [speed][delta][max, min]; infeasible points are null.
	Next  [][]*[2]float64 `json:"next_step"`
	Worst [][]*[2]float64 `json:"worst_case"`
}

func WriteJSON(w io.Writer, meta RunMetadata, surf *sweep.Surface) error {
	data := ExportData{
		Meta:   meta,
		Speeds: surf.Speeds,
		Deltas: surf.Deltas,
		Next:   pairs(surf, sweep.NextStep),
		Worst:  pairs(surf, sweep.WorstCase),
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

func pairs(surf *sweep.Surface, k sweep.Kind) [][]*[2]float64 {
	rows := surf.Rows(k)
	out := make([][]*[2]float64, len(rows))
	for i, row := range rows {
		out[i] = make([]*[2]float64, len(row))
		for j, iv := range row {
			if iv.Feasible() {
				out[i][j] = &[2]float64{iv.Max, iv.Min}
			}
		}
	}
	return out
}
