package transport

import (
	"time"

	"github.com/google/uuid"
)

type ListEntriesRequest struct {
	Search    string `form:"search" validate:"omitempty,max=100"`
	BatchID   string `form:"batchId" validate:"omitempty,uuid"`
	From      string `form:"from" validate:"omitempty,datetime=2006-01-02"`
	To        string `form:"to" validate:"omitempty,datetime=2006-01-02"`
	SortBy    string `form:"sortBy" validate:"omitempty,oneof=wsn createdAt"`
	SortOrder string `form:"sortOrder" validate:"omitempty,oneof=asc desc"`
	Page      int    `form:"page" validate:"omitempty,min=1"`
	PageSize  int    `form:"pageSize" validate:"omitempty,min=1,max=100"`
}

type CreateEntryRequest struct {
	WSN          string            `json:"wsn" validate:"required,wsn"`
	Fields       map[string]string `json:"fields" validate:"omitempty,max=50"`
	Product      map[string]string `json:"product" validate:"omitempty,max=50"`
	CommonFields map[string]string `json:"commonFields" validate:"omitempty,max=20"`
}

type BatchRowRequest struct {
	WSN     string            `json:"wsn" validate:"required,wsn"`
	Fields  map[string]string `json:"fields" validate:"omitempty,max=50"`
	Product map[string]string `json:"product" validate:"omitempty,max=50"`
}

type SubmitBatchRequest struct {
	Rows         []BatchRowRequest `json:"rows" validate:"required,min=1,max=5000,dive"`
	CommonFields map[string]string `json:"commonFields" validate:"omitempty,max=20"`
}

type ListBatchesRequest struct {
	Page     int `form:"page" validate:"omitempty,min=1"`
	PageSize int `form:"pageSize" validate:"omitempty,min=1,max=100"`
}

type EntryResponse struct {
	ID           uuid.UUID         `json:"id"`
	Kind         string            `json:"kind"`
	WSN          string            `json:"wsn"`
	WarehouseID  int64             `json:"warehouseId"`
	BatchID      *uuid.UUID        `json:"batchId,omitempty"`
	Fields       map[string]string `json:"fields"`
	Product      map[string]string `json:"product"`
	CommonFields map[string]string `json:"commonFields"`
	CreatedBy    string            `json:"createdBy,omitempty"`
	CreatedAt    time.Time         `json:"createdAt"`
}

type EntryListResponse struct {
	Items      []EntryResponse `json:"items"`
	Total      int             `json:"total"`
	Page       int             `json:"page"`
	PageSize   int             `json:"pageSize"`
	TotalPages int             `json:"totalPages"`
}

type OwnerResponse struct {
	WSN              string `json:"wsn"`
	Found            bool   `json:"found"`
	OwnerWarehouseID *int64 `json:"warehouseId,omitempty"`
	Status           string `json:"status"`
}

type RowResult struct {
	WSN   string `json:"wsn"`
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

type SubmitBatchResponse struct {
	SuccessCount int         `json:"successCount"`
	BatchID      uuid.UUID   `json:"batchId"`
	Results      []RowResult `json:"results"`
}

type BatchResponse struct {
	ID          uuid.UUID `json:"id"`
	Kind        string    `json:"kind"`
	WarehouseID int64     `json:"warehouseId"`
	Source      string    `json:"source"`
	RowCount    int       `json:"rowCount"`
	UploadKey   *string   `json:"uploadKey,omitempty"`
	CreatedBy   string    `json:"createdBy,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

type BatchListResponse struct {
	Items      []BatchResponse `json:"items"`
	Total      int             `json:"total"`
	Page       int             `json:"page"`
	PageSize   int             `json:"pageSize"`
	TotalPages int             `json:"totalPages"`
}

type DeleteBatchResponse struct {
	BatchID        uuid.UUID `json:"batchId"`
	DeletedEntries int       `json:"deletedEntries"`
}
