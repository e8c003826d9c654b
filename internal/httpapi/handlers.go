package httpapi

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/MarkoPoloResearchLab/moneyflow/pkg/finance"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	headerTotalCount = "X-Total-Count"
	contentTypeGzip  = "application/gzip"
	messageInvalidID = "id must be a UUID"
	messageNoBackups = "SQLite backups are not available for this database"
	messageNotReady  = "database unavailable"
	paramID          = "id"
	paramAgentKey    = "idempotencyKey"
	statusOK         = "ok"
)

func (handler *httpHandler) handleHealth(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"status": statusOK})
}

func (handler *httpHandler) handleReady(ctx *gin.Context) {
	if err := handler.services.Database.Ping(ctx.Request.Context()); err != nil {
		handler.logger.Warn("readiness check failed", zap.Error(err))
		ctx.JSON(http.StatusServiceUnavailable, errorResponse(errorCodeUnavailable, messageNotReady))
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"status": statusOK})
}

// pathUUID reads a UUID path parameter, rendering a 400 when it is malformed.
func pathUUID(ctx *gin.Context) (string, bool) {
	raw := strings.TrimSpace(ctx.Param(paramID))
	if _, err := uuid.Parse(raw); err != nil {
		ctx.AbortWithStatusJSON(http.StatusBadRequest, errorResponse(errorCodeInvalidRequest, messageInvalidID))
		return "", false
	}
	return raw, true
}

func (handler *httpHandler) handleListCategories(ctx *gin.Context) {
	categories, err := handler.services.Categories.List(ctx.Request.Context())
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, newCategoryResponses(categories))
}

func (handler *httpHandler) handleAgentListCategories(ctx *gin.Context) {
	categories, err := handler.services.Imports.ListCategories(ctx.Request.Context())
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, newCategoryResponses(categories))
}

func (handler *httpHandler) handleCreateCategory(ctx *gin.Context) {
	var request categoryCreateRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		handler.respondBindError(ctx, err)
		return
	}
	input, err := finance.NewCategoryInput(request.Name, request.Type, request.Color)
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	category, err := handler.services.Categories.Create(ctx.Request.Context(), input)
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, newCategoryResponse(category))
}

func (handler *httpHandler) handleUpdateCategory(ctx *gin.Context) {
	rawID, ok := pathUUID(ctx)
	if !ok {
		return
	}
	var request categoryUpdateRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		handler.respondBindError(ctx, err)
		return
	}
	categoryID, err := finance.NewCategoryID(rawID)
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	patch, err := finance.NewCategoryPatch(request.Name, request.Type, request.Color)
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	category, err := handler.services.Categories.Update(ctx.Request.Context(), categoryID, patch)
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, newCategoryResponse(category))
}

func (handler *httpHandler) handleRemoveCategory(ctx *gin.Context) {
	rawID, ok := pathUUID(ctx)
	if !ok {
		return
	}
	categoryID, err := finance.NewCategoryID(rawID)
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	if err := handler.services.Categories.Remove(ctx.Request.Context(), categoryID); err != nil {
		handler.respondError(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}

func (handler *httpHandler) handleGetTimezone(ctx *gin.Context) {
	offset, err := handler.services.Settings.UTCOffset(ctx.Request.Context())
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, utcOffsetResponse{UTCOffset: offset.String()})
}

func (handler *httpHandler) handleUpdateTimezone(ctx *gin.Context) {
	var request utcOffsetRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		handler.respondBindError(ctx, err)
		return
	}
	offset, err := handler.services.Settings.UpdateUTCOffset(ctx.Request.Context(), request.UTCOffset)
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, utcOffsetResponse{UTCOffset: offset.String()})
}

func (handler *httpHandler) handleListTransactions(ctx *gin.Context) {
	var query transactionListQuery
	if err := ctx.ShouldBindQuery(&query); err != nil {
		handler.respondBindError(ctx, err)
		return
	}
	filter, err := buildTransactionFilter(query)
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	page, err := handler.services.Transactions.List(ctx.Request.Context(), filter)
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	items := make([]transactionResponse, 0, len(page.Items))
	for _, transaction := range page.Items {
		items = append(items, newTransactionResponse(transaction))
	}
	ctx.Header(headerTotalCount, strconv.FormatInt(page.Total, 10))
	ctx.JSON(http.StatusOK, items)
}

func buildTransactionFilter(query transactionListQuery) (finance.TransactionFilter, error) {
	var from, to *finance.Date
	if strings.TrimSpace(query.From) != "" {
		parsed, err := finance.ParseDate(query.From)
		if err != nil {
			return finance.TransactionFilter{}, err
		}
		from = &parsed
	}
	if strings.TrimSpace(query.To) != "" {
		parsed, err := finance.ParseDate(query.To)
		if err != nil {
			return finance.TransactionFilter{}, err
		}
		to = &parsed
	}
	var categoryID *finance.CategoryID
	if strings.TrimSpace(query.CategoryID) != "" {
		parsed, err := finance.NewCategoryID(query.CategoryID)
		if err != nil {
			return finance.TransactionFilter{}, err
		}
		categoryID = &parsed
	}
	var source *finance.Source
	if strings.TrimSpace(query.Source) != "" {
		parsed, err := finance.ParseSource(query.Source)
		if err != nil {
			return finance.TransactionFilter{}, err
		}
		source = &parsed
	}
	return finance.NewTransactionFilter(from, to, categoryID, source, query.Offset, query.Limit)
}

func (handler *httpHandler) handleCreateTransaction(ctx *gin.Context) {
	var request transactionCreateRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		handler.respondBindError(ctx, err)
		return
	}
	categoryID, err := finance.NewCategoryID(request.CategoryID)
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	amount, err := finance.AmountCentsFromDecimal(*request.Amount)
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	date, err := finance.ParseDate(request.Date)
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	transaction, err := handler.services.Transactions.Create(ctx.Request.Context(), categoryID, amount, date, request.Description)
	if err != nil {
		handler.respondCategoryReferenceError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, newTransactionResponse(transaction))
}

func (handler *httpHandler) handleUpdateTransaction(ctx *gin.Context) {
	rawID, ok := pathUUID(ctx)
	if !ok {
		return
	}
	var request transactionUpdateRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		handler.respondBindError(ctx, err)
		return
	}
	transactionID, err := finance.NewTransactionID(rawID)
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	patch, err := buildTransactionPatch(request)
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	transaction, err := handler.services.Transactions.Update(ctx.Request.Context(), transactionID, patch)
	if err != nil {
		if patch.CategoryID != nil {
			handler.respondCategoryReferenceError(ctx, err)
			return
		}
		handler.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, newTransactionResponse(transaction))
}

func buildTransactionPatch(request transactionUpdateRequest) (finance.TransactionPatch, error) {
	var categoryID *finance.CategoryID
	if request.CategoryID != nil {
		parsed, err := finance.NewCategoryID(*request.CategoryID)
		if err != nil {
			return finance.TransactionPatch{}, err
		}
		categoryID = &parsed
	}
	var amount *finance.AmountCents
	if request.Amount != nil {
		parsed, err := finance.AmountCentsFromDecimal(*request.Amount)
		if err != nil {
			return finance.TransactionPatch{}, err
		}
		amount = &parsed
	}
	var date *finance.Date
	if request.Date != nil {
		parsed, err := finance.ParseDate(*request.Date)
		if err != nil {
			return finance.TransactionPatch{}, err
		}
		date = &parsed
	}
	return finance.NewTransactionPatch(categoryID, amount, date, request.Description, false)
}

func (handler *httpHandler) handleRemoveTransaction(ctx *gin.Context) {
	rawID, ok := pathUUID(ctx)
	if !ok {
		return
	}
	transactionID, err := finance.NewTransactionID(rawID)
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	if err := handler.services.Transactions.Remove(ctx.Request.Context(), transactionID); err != nil {
		handler.respondError(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}

func (handler *httpHandler) handleListRecurring(ctx *gin.Context) {
	var query recurringListQuery
	if err := ctx.ShouldBindQuery(&query); err != nil {
		handler.respondBindError(ctx, err)
		return
	}
	var month *finance.YearMonth
	if strings.TrimSpace(query.Month) != "" {
		parsed, err := finance.ParseYearMonth(query.Month)
		if err != nil {
			handler.respondError(ctx, err)
			return
		}
		month = &parsed
	}
	occurrences, err := handler.services.Recurring.ListForMonth(ctx.Request.Context(), month)
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, newOccurrenceResponses(occurrences))
}

func (handler *httpHandler) handleCreateRecurring(ctx *gin.Context) {
	var request recurringCreateRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		handler.respondBindError(ctx, err)
		return
	}
	categoryID, err := finance.NewCategoryID(request.CategoryID)
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	amount, err := finance.AmountCentsFromDecimal(*request.Amount)
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	anchor, err := finance.ParseDate(request.Date)
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	description, err := finance.NormalizeDescription(request.Description)
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	input, err := finance.NewRecurringTemplateInput(categoryID, amount, request.DayOfMonth, anchor, description)
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	template, err := handler.services.Recurring.Create(ctx.Request.Context(), input)
	if err != nil {
		handler.respondCategoryReferenceError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, newRecurringResponse(template))
}

func (handler *httpHandler) handleRemoveRecurring(ctx *gin.Context) {
	rawID, ok := pathUUID(ctx)
	if !ok {
		return
	}
	templateID, err := finance.NewTemplateID(rawID)
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	if err := handler.services.Recurring.Remove(ctx.Request.Context(), templateID); err != nil {
		handler.respondError(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}

func (handler *httpHandler) handleImport(ctx *gin.Context) {
	var request importRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		handler.respondBindError(ctx, err)
		return
	}
	items := make([]finance.ImportItem, 0, len(request.Transactions))
	for index, entry := range request.Transactions {
		amount, err := finance.AmountCentsFromDecimal(*entry.Amount)
		if err != nil {
			handler.respondError(ctx, fmt.Errorf("transactions[%d]: %w", index, err))
			return
		}
		date, err := finance.ParseDate(entry.Date)
		if err != nil {
			handler.respondError(ctx, fmt.Errorf("transactions[%d]: %w", index, err))
			return
		}
		items = append(items, finance.ImportItem{
			IdempotencyKey: entry.IdempotencyKey,
			AmountCents:    amount,
			Date:           date,
			CategoryName:   entry.CategoryName,
			Description:    entry.Description.Value,
			HasDescription: entry.Description.Set,
		})
	}
	results, err := handler.services.Imports.Import(ctx.Request.Context(), items)
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, newImportResponse(results))
}

func (handler *httpHandler) handleAgentGetTransaction(ctx *gin.Context) {
	transaction, err := handler.services.Imports.Get(ctx.Request.Context(), ctx.Param(paramAgentKey))
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, newTransactionResponse(transaction))
}

func (handler *httpHandler) handleAgentRemoveTransaction(ctx *gin.Context) {
	if err := handler.services.Imports.Remove(ctx.Request.Context(), ctx.Param(paramAgentKey)); err != nil {
		handler.respondError(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}

func (handler *httpHandler) handleDownloadBackup(ctx *gin.Context) {
	if handler.services.Backups == nil {
		ctx.JSON(http.StatusServiceUnavailable, errorResponse(errorCodeUnavailable, messageNoBackups))
		return
	}
	result, err := handler.services.Backups.Create(ctx.Request.Context())
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	ctx.Header("Content-Type", contentTypeGzip)
	ctx.FileAttachment(result.Path, result.Name)
}
