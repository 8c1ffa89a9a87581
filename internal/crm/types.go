// Package crm defines the typed CRM records exported by the body-shop
// system (customers, quotes, work history), their deterministic text
// rendering, and the JSON source loader.
package crm

import (
	"encoding/json"
	"fmt"
)

// DataType discriminates the three record shapes. The set is closed: any
// other value is rejected at parse time rather than falling through.
type DataType string

const (
	DataTypeCustomer    DataType = "customer"
	DataTypeQuote       DataType = "quote"
	DataTypeWorkHistory DataType = "work_history"
)

func ParseDataType(s string) (DataType, error) {
	switch DataType(s) {
	case DataTypeCustomer, DataTypeQuote, DataTypeWorkHistory:
		return DataType(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedKind, s)
}

// SourceType declares the format of a data source. Only JSON is
// implemented; the other members exist so that unimplemented formats are
// rejected explicitly instead of silently ignored.
type SourceType string

const (
	SourceTypeJSON  SourceType = "json"
	SourceTypeCSV   SourceType = "csv"
	SourceTypeExcel SourceType = "excel"
)

// DataSource declares where one batch of records comes from.
type DataSource struct {
	Type SourceType `json:"type"`
	Path string     `json:"path"`
}

// Record is the closed union over the three CRM record shapes.
type Record interface {
	RecordID() string
	Kind() DataType
}

// Customer is one CRM customer. Amounts are integer yen.
type Customer struct {
	CustomerID   string `json:"customerId"`
	Name         string `json:"name"`
	Phone        string `json:"phone"`
	Email        string `json:"email,omitempty"`
	Address      string `json:"address,omitempty"`
	TotalSales   int64  `json:"totalSales"`
	VisitCount   int    `json:"visitCount"`
	RegisteredAt string `json:"registeredAt"`
	Notes        string `json:"notes,omitempty"`
}

func (c Customer) RecordID() string { return c.CustomerID }
func (c Customer) Kind() DataType   { return DataTypeCustomer }

// QuoteItem is one line item on a quote. TotalPrice = UnitPrice * Quantity.
type QuoteItem struct {
	Description string `json:"description"`
	UnitPrice   int64  `json:"unitPrice"`
	Quantity    int    `json:"quantity"`
	TotalPrice  int64  `json:"totalPrice"`
}

// Quote is one repair estimate. TotalAmount is the sum of item totals.
type Quote struct {
	QuoteID     string      `json:"quoteId"`
	CustomerID  string      `json:"customerId"`
	VehicleInfo string      `json:"vehicleInfo"`
	Items       []QuoteItem `json:"items"`
	TotalAmount int64       `json:"totalAmount"`
	Status      string      `json:"status"`
	QuoteDate   string      `json:"quoteDate"`
	Notes       string      `json:"notes,omitempty"`
}

func (q Quote) RecordID() string { return q.QuoteID }
func (q Quote) Kind() DataType   { return DataTypeQuote }

// PartUsed is one part consumed during a job.
type PartUsed struct {
	PartName   string `json:"partName"`
	Quantity   int    `json:"quantity"`
	UnitPrice  int64  `json:"unitPrice"`
	TotalPrice int64  `json:"totalPrice"`
}

// WorkHistory is one completed job. TotalCost = LaborCost + PartsCost.
type WorkHistory struct {
	WorkID      string     `json:"workId"`
	CustomerID  string     `json:"customerId"`
	VehicleInfo string     `json:"vehicleInfo"`
	WorkType    string     `json:"workType"`
	Description string     `json:"description"`
	Technician  string     `json:"technician"`
	WorkDate    string     `json:"workDate"`
	PartsUsed   []PartUsed `json:"partsUsed"`
	LaborCost   int64      `json:"laborCost"`
	PartsCost   int64      `json:"partsCost"`
	TotalCost   int64      `json:"totalCost"`
	Rating      int        `json:"rating"`
	Notes       string     `json:"notes,omitempty"`
}

func (w WorkHistory) RecordID() string { return w.WorkID }
func (w WorkHistory) Kind() DataType   { return DataTypeWorkHistory }

// DecodeRecord parses one raw source record into its typed shape and
// validates the minimal required fields. A record missing its identifier or
// name-equivalent field fails with ErrRecordInvalid so the caller can skip
// it without aborting the batch.
func DecodeRecord(raw json.RawMessage, dt DataType) (Record, error) {
	switch dt {
	case DataTypeCustomer:
		var c Customer
		if err := json.Unmarshal(raw, &c); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrRecordInvalid, err)
		}
		if c.CustomerID == "" || c.Name == "" {
			return nil, fmt.Errorf("%w: customer requires customerId and name", ErrRecordInvalid)
		}
		return c, nil
	case DataTypeQuote:
		var q Quote
		if err := json.Unmarshal(raw, &q); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrRecordInvalid, err)
		}
		if q.QuoteID == "" || q.CustomerID == "" {
			return nil, fmt.Errorf("%w: quote requires quoteId and customerId", ErrRecordInvalid)
		}
		return q, nil
	case DataTypeWorkHistory:
		var w WorkHistory
		if err := json.Unmarshal(raw, &w); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrRecordInvalid, err)
		}
		if w.WorkID == "" || w.CustomerID == "" {
			return nil, fmt.Errorf("%w: work history requires workId and customerId", ErrRecordInvalid)
		}
		return w, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedKind, dt)
}
