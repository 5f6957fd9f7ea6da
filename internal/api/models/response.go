package models

import "mm-backtest/internal/backtest"

// BacktestResponse is the result of one run.
type BacktestResponse struct {
	ID     string           `json:"id"`
	Status string           `json:"status"`
	Result *backtest.Result `json:"result"`
}

// SweepResponse lists ranked results, best total PnL first.
type SweepResponse struct {
	ID      string             `json:"id"`
	Status  string             `json:"status"`
	Count   int                `json:"count"`
	Results []*backtest.Result `json:"results"`
}

// ErrorResponse is the uniform error envelope.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail carries a stable machine code plus a human message.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
