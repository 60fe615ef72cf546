package models

// Requests for forecasting HTTP endpoints.

type PredictRequest struct {
	Symbol      string `param:"symbol" json:"symbol" validate:"required,max=16,ticker"`
	TimeStep    int    `query:"time_step" json:"time_step" default:"100" validate:"gte=1,lte=1000"`
	Epochs      int    `query:"epochs" json:"epochs" default:"50" validate:"gte=1,lte=500"`
	FutureSteps int    `query:"future_steps" json:"future_steps" default:"50" validate:"gte=1,lte=365"`
	Seed        uint64 `query:"seed" json:"seed"`
}

type SymbolRequest struct {
	Symbol string `param:"symbol" json:"symbol" validate:"required,max=16,ticker"`
}

type RunsRequest struct {
	Symbol string `param:"symbol" json:"symbol" validate:"required,max=16,ticker"`
	Limit  int    `query:"limit" json:"limit" default:"20" validate:"gte=1,lte=200"`
}
