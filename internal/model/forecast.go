package model

import "time"

// Forecast is the final output of one run.
type Forecast struct {
	RunID     string          `json:"run_id"`
	Symbol    string          `json:"symbol"`
	LastClose float64         `json:"last_close"`
	Predicted float64         `json:"predicted"`
	Change    float64         `json:"change"`
	ChangePct float64         `json:"change_pct"`
	Epochs    int             `json:"epochs"`
	FinalLoss float64         `json:"final_loss"`
	Summary   Summary         `json:"summary"`
	Display   []DisplayRecord `json:"display,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// Progress is emitted once per completed training epoch. Epoch counts
// completed epochs, starting at 1.
type Progress struct {
	RunID   string  `json:"run_id"`
	Symbol  string  `json:"symbol"`
	Epoch   int     `json:"epoch"`
	Epochs  int     `json:"epochs"`
	Percent int     `json:"percent"`
	Loss    float64 `json:"loss"`
}
