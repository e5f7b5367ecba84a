// File path: internal/api/types.go
package api

import (
	"github.com/querypilot/querypilot/internal/sqlgen"
)

type generateRequest struct {
	Question          string `json:"question"`
	IncludeSampleData bool   `json:"include_sample_data"`
	SampleRows        int    `json:"sample_rows"`
	Execute           bool   `json:"execute"`
	Explain           bool   `json:"explain"`
}

type explainRequest struct {
	SQL string `json:"sql"`
}

type executeRequest struct {
	SQL string `json:"sql"`
}

type indexRequest struct {
	Force bool `json:"force"`
}

type suggestionsResponse struct {
	Suggestions []string `json:"suggestions"`
}

type explainResponse struct {
	Success     bool                `json:"success"`
	Explanation *sqlgen.Explanation `json:"explanation,omitempty"`
	Err         string              `json:"error,omitempty"`
}
