package model

// Common Response structure for all API calls
type Response struct {
	Success bool   `json:"success" example:"true"`
	Message string `json:"message" example:"Fetch Success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// RealtimeRequest carries the host-facing arguments of a realtime quote call.
type RealtimeRequest struct {
	Ticker   string `form:"ticker" json:"ticker"`
	Datacode string `form:"datacode" json:"datacode"`
	Source   string `form:"source" json:"source"`
}

// HistoricRequest carries the host-facing arguments of a historic quote call.
type HistoricRequest struct {
	Ticker   string `form:"ticker" json:"ticker"`
	Datacode string `form:"datacode" json:"datacode"`
	Date     string `form:"date" json:"date"`
	Source   string `form:"source" json:"source"`
}
