package models

// HTTP request shapes for the on-demand API. Binding and validation
// happen in pkg/http; handlers receive populated structs.

// SalesRequest asks for one day's aggregate figures for a store.
type SalesRequest struct {
	Store string `query:"store" validate:"required,oneof=GS25 CU SEVEN"`
	Date  string `query:"date" validate:"required,datetime=2006-01-02"`
}

// ForecastRequest asks for a next-day projection for a store.
type ForecastRequest struct {
	Store string `query:"store" validate:"required,oneof=GS25 CU SEVEN"`
	Date  string `query:"date" validate:"required,datetime=2006-01-02"`
}

// AnomalyRequest asks for the anomaly classification of one day.
type AnomalyRequest struct {
	Date string `query:"date" validate:"required,datetime=2006-01-02"`
}

// LinksRequest asks for the link preview for a (date, store) pair.
type LinksRequest struct {
	Store string `query:"store" validate:"required,oneof=GS25 CU SEVEN"`
	Date  string `query:"date" validate:"required,datetime=2006-01-02"`
	Kind  string `query:"kind" default:"news" validate:"oneof=news video"`
}

// MoreRequest expands a continuation token from a previous preview.
type MoreRequest struct {
	Token string `query:"token" validate:"required"`
	Kind  string `query:"kind" default:"news" validate:"oneof=news video"`
}
