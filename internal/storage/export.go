package storage

import (
	"encoding/csv"
	"encoding/json"
	"io"

	"github.com/san-kum/episim/internal/dynamo"
)

type ExportData struct {
	RunMetadata
	Steps  int         `json:"steps"`
	Times  []float64   `json:"times"`
	States [][]float64 `json:"states"`
}

// ExportJSON writes the metadata and every sample of a run to w.
func ExportJSON(w io.Writer, meta RunMetadata, result *dynamo.Result) error {
	data := ExportData{
		RunMetadata: meta,
		Steps:       len(result.Times),
		Times:       result.Times,
		States:      make([][]float64, len(result.States)),
	}
	for i, s := range result.States {
		data.States[i] = s
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// ExportCSV writes a time,<compartments> table of result to w.
func ExportCSV(w io.Writer, result *dynamo.Result) error {
	cw := csv.NewWriter(w)
	header := append([]string{"time"}, result.Compartments...)
	if err := cw.Write(header); err != nil {
		return err
	}
	for i, x := range result.States {
		row := []string{formatFloat(result.Times[i])}
		for _, v := range x {
			row = append(row, formatFloat(v))
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
