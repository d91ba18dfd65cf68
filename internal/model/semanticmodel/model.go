package semanticmodel

// Model describes a semantic model file the analyst can answer against.
// Path is the stage location passed to the analyst as semantic_model_file.
type Model struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Path        string `json:"path"`
	Description string `json:"description,omitempty"`
}

// Seed provides the default semantic models exposed to the frontend.
func Seed() []Model {
	return []Model{
		{
			ID:          "revenue-timeseries",
			Name:        "Revenue Timeseries",
			Path:        "DAMPIERMIKE.REVENUE_TIMESERIES.RAW_DATA/revenue_timeseries.yaml",
			Description: "Daily revenue, COGS and forecast figures by product line and region.",
		},
	}
}
