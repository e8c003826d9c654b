package httpapi

import (
	"bytes"
	"encoding/json"

	"github.com/MarkoPoloResearchLab/moneyflow/pkg/finance"
	"github.com/shopspring/decimal"
)

// amountJSON renders cents as a JSON number with two decimals.
type amountJSON finance.AmountCents

func (amount amountJSON) MarshalJSON() ([]byte, error) {
	return []byte(finance.AmountCents(amount).String()), nil
}

// optionalString records whether a JSON field was present, including an explicit null.
type optionalString struct {
	Set   bool
	Value *string
}

func (field *optionalString) UnmarshalJSON(raw []byte) error {
	field.Set = true
	if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		field.Value = nil
		return nil
	}
	var value string
	if err := json.Unmarshal(raw, &value); err != nil {
		return err
	}
	field.Value = &value
	return nil
}

type categoryCreateRequest struct {
	Name  string `json:"name" binding:"required,min=1,max=100"`
	Type  string `json:"type" binding:"omitempty,oneof=expense income"`
	Color string `json:"color" binding:"omitempty,len=7"`
}

type categoryUpdateRequest struct {
	Name  *string `json:"name" binding:"omitempty,min=1,max=100"`
	Type  *string `json:"type" binding:"omitempty,oneof=expense income"`
	Color *string `json:"color" binding:"omitempty,len=7"`
}

type categoryResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Type  string `json:"type"`
	Color string `json:"color"`
}

func newCategoryResponse(category finance.Category) categoryResponse {
	return categoryResponse{
		ID:    category.ID.String(),
		Name:  category.Name,
		Type:  string(category.Type),
		Color: category.Color,
	}
}

func newCategoryResponses(categories []finance.Category) []categoryResponse {
	responses := make([]categoryResponse, 0, len(categories))
	for _, category := range categories {
		responses = append(responses, newCategoryResponse(category))
	}
	return responses
}

type utcOffsetRequest struct {
	UTCOffset string `json:"utcOffset" binding:"required,min=1,max=32"`
}

type utcOffsetResponse struct {
	UTCOffset string `json:"utcOffset"`
}

type transactionCreateRequest struct {
	CategoryID  string           `json:"categoryId" binding:"required,uuid"`
	Amount      *decimal.Decimal `json:"amount" binding:"required"`
	Date        string           `json:"date" binding:"required"`
	Description *string          `json:"description" binding:"omitempty,max=255"`
}

type transactionUpdateRequest struct {
	CategoryID  *string          `json:"categoryId" binding:"omitempty,uuid"`
	Amount      *decimal.Decimal `json:"amount"`
	Date        *string          `json:"date"`
	Description *string          `json:"description" binding:"omitempty,max=255"`
}

type transactionListQuery struct {
	From       string `form:"from"`
	To         string `form:"to"`
	CategoryID string `form:"categoryId" binding:"omitempty,uuid"`
	Source     string `form:"source"`
	Offset     int    `form:"offset" binding:"omitempty,min=0"`
	Limit      int    `form:"limit" binding:"omitempty,min=1,max=500"`
}

type transactionResponse struct {
	ID             string     `json:"id"`
	Source         string     `json:"source"`
	IdempotencyKey *string    `json:"idempotencyKey"`
	CategoryID     string     `json:"categoryId"`
	Amount         amountJSON `json:"amount"`
	Date           string     `json:"date"`
	Description    *string    `json:"description"`
}

func newTransactionResponse(transaction finance.Transaction) transactionResponse {
	response := transactionResponse{
		ID:          transaction.ID.String(),
		Source:      string(transaction.Source),
		CategoryID:  transaction.CategoryID.String(),
		Amount:      amountJSON(transaction.AmountCents),
		Date:        transaction.Date.String(),
		Description: transaction.Description,
	}
	if !transaction.IdempotencyKey.IsZero() {
		key := transaction.IdempotencyKey.String()
		response.IdempotencyKey = &key
	}
	return response
}

type recurringCreateRequest struct {
	CategoryID  string           `json:"categoryId" binding:"required,uuid"`
	Amount      *decimal.Decimal `json:"amount" binding:"required"`
	DayOfMonth  int              `json:"dayOfMonth" binding:"required,min=1,max=31"`
	Date        string           `json:"date" binding:"required"`
	Description *string          `json:"description" binding:"omitempty,max=255"`
}

type recurringListQuery struct {
	Month string `form:"month"`
}

type recurringResponse struct {
	ID          string     `json:"id"`
	CategoryID  string     `json:"categoryId"`
	Amount      amountJSON `json:"amount"`
	DayOfMonth  int        `json:"dayOfMonth"`
	Date        string     `json:"date"`
	Description *string    `json:"description"`
}

func newRecurringResponse(template finance.RecurringTemplate) recurringResponse {
	return recurringResponse{
		ID:          template.ID.String(),
		CategoryID:  template.CategoryID.String(),
		Amount:      amountJSON(template.AmountCents),
		DayOfMonth:  template.DayOfMonth,
		Date:        template.AnchorDate.String(),
		Description: template.Description,
	}
}

type occurrenceResponse struct {
	recurringResponse
	ScheduledDate string `json:"scheduledDate"`
	Committed     bool   `json:"committed"`
}

func newOccurrenceResponses(occurrences []finance.Occurrence) []occurrenceResponse {
	responses := make([]occurrenceResponse, 0, len(occurrences))
	for _, occurrence := range occurrences {
		responses = append(responses, occurrenceResponse{
			recurringResponse: newRecurringResponse(occurrence.Template),
			ScheduledDate:     occurrence.ScheduledDate.String(),
			Committed:         occurrence.Committed,
		})
	}
	return responses
}

type importRequest struct {
	Transactions []importItemRequest `json:"transactions" binding:"required,min=1,dive"`
}

type importItemRequest struct {
	IdempotencyKey string           `json:"idempotencyKey" binding:"required,min=1,max=255"`
	Amount         *decimal.Decimal `json:"amount" binding:"required"`
	Date           string           `json:"date" binding:"required"`
	CategoryName   string           `json:"categoryName" binding:"required,min=1,max=100"`
	Description    optionalString   `json:"description"`
}

type importResultResponse struct {
	IdempotencyKey string              `json:"idempotencyKey"`
	Action         string              `json:"action"`
	Transaction    transactionResponse `json:"transaction"`
	Category       categoryResponse    `json:"category"`
}

type importResponse struct {
	Results []importResultResponse `json:"results"`
}

func newImportResponse(results []finance.ImportResult) importResponse {
	response := importResponse{Results: make([]importResultResponse, 0, len(results))}
	for _, result := range results {
		response.Results = append(response.Results, importResultResponse{
			IdempotencyKey: result.IdempotencyKey.String(),
			Action:         string(result.Action),
			Transaction:    newTransactionResponse(result.Transaction),
			Category:       newCategoryResponse(result.Category),
		})
	}
	return response
}
