package render

import (
	"encoding/json"
	"io"

	"github.com/wonny/screener/backend/internal/screen"
)

// jsonModel is the output shape for JSONRenderer
type jsonModel struct {
	State   screen.State        `json:"state"`
	Error   string              `json:"error,omitempty"`
	Columns []screen.Column     `json:"columns"`
	Rows    []map[string]string `json:"rows"`
	Total   int                 `json:"total"`
	Sort    screen.SortState    `json:"sort"`
	Filters map[string]float64  `json:"filters"`
}

// JSONRenderer prints results as formatted cells keyed by column
type JSONRenderer struct {
	Pretty bool
}

func (r *JSONRenderer) Render(w io.Writer, res screen.Result) error {
	out := jsonModel{
		State:   res.State,
		Error:   res.Error,
		Columns: res.Columns,
		Rows:    Cells(res),
		Total:   res.Total,
		Sort:    res.Sort,
		Filters: res.Filters,
	}

	enc := json.NewEncoder(w)
	if r.Pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(out)
}
