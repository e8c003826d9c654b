package finance

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

var (
	yearMonthPattern     = regexp.MustCompile(`^(\d{4})-(\d{2})$`)
	categoryColorPattern = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)
	whitespaceRun        = regexp.MustCompile(`\s+`)
)

// CategoryID identifies a category.
type CategoryID struct {
	value string
}

// TemplateID identifies a recurring expense template.
type TemplateID struct {
	value string
}

// TransactionID identifies a stored transaction.
type TransactionID struct {
	value string
}

// IdempotencyKey scopes duplicate detection within a Source.
type IdempotencyKey struct {
	value string
}

// NewCategoryID validates and normalizes a category id.
func NewCategoryID(raw string) (CategoryID, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return CategoryID{}, fmt.Errorf("%w: empty value", ErrInvalidCategoryID)
	}
	return CategoryID{value: trimmed}, nil
}

// String returns the normalized identifier.
func (id CategoryID) String() string {
	return id.value
}

// NewTemplateID validates and normalizes a template id.
func NewTemplateID(raw string) (TemplateID, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return TemplateID{}, fmt.Errorf("%w: empty value", ErrInvalidTemplateID)
	}
	return TemplateID{value: trimmed}, nil
}

// String returns the normalized identifier.
func (id TemplateID) String() string {
	return id.value
}

// NewTransactionID validates and normalizes a transaction id.
func NewTransactionID(raw string) (TransactionID, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return TransactionID{}, fmt.Errorf("%w: empty value", ErrInvalidTransactionID)
	}
	return TransactionID{value: trimmed}, nil
}

// String returns the normalized identifier.
func (id TransactionID) String() string {
	return id.value
}

// NewIdempotencyKey validates and normalizes an idempotency key.
func NewIdempotencyKey(raw string) (IdempotencyKey, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return IdempotencyKey{}, fmt.Errorf("%w: empty value", ErrInvalidIdempotencyKey)
	}
	if utf8.RuneCountInString(trimmed) > maxIdempotencyKeyLen {
		return IdempotencyKey{}, fmt.Errorf("%w: longer than %d characters", ErrInvalidIdempotencyKey, maxIdempotencyKeyLen)
	}
	return IdempotencyKey{value: trimmed}, nil
}

// String returns the normalized key.
func (key IdempotencyKey) String() string {
	return key.value
}

// IsZero reports whether the key is unset.
func (key IdempotencyKey) IsZero() bool {
	return key.value == ""
}

// Source tags the producer of a transaction.
type Source string

const (
	SourceManual    Source = "manual"
	SourceOpenClaw  Source = "openclaw"
	SourceRecurring Source = "recurring"
)

// ParseSource validates a transaction source.
func ParseSource(raw string) (Source, error) {
	switch source := Source(strings.TrimSpace(raw)); source {
	case SourceManual, SourceOpenClaw, SourceRecurring:
		return source, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidSource, raw)
	}
}

// Date is a calendar day without a time zone.
type Date struct {
	value time.Time
}

// ParseDate parses a strict YYYY-MM-DD value.
func ParseDate(raw string) (Date, error) {
	parsed, err := time.Parse(dateLayout, strings.TrimSpace(raw))
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, raw)
	}
	return Date{value: parsed}, nil
}

// NewDate builds a Date, normalizing overflowing components the way time.Date does.
func NewDate(year int, month time.Month, day int) Date {
	return Date{value: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf returns the calendar day of instant in its own location.
func DateOf(instant time.Time) Date {
	return NewDate(instant.Year(), instant.Month(), instant.Day())
}

// String formats the date as YYYY-MM-DD.
func (date Date) String() string {
	return date.value.Format(dateLayout)
}

// IsZero reports whether the date is unset.
func (date Date) IsZero() bool {
	return date.value.IsZero()
}

// AddDays shifts the date by days.
func (date Date) AddDays(days int) Date {
	return Date{value: date.value.AddDate(0, 0, days)}
}

// Before reports whether date is strictly earlier than other.
func (date Date) Before(other Date) bool {
	return date.value.Before(other.value)
}

// After reports whether date is strictly later than other.
func (date Date) After(other Date) bool {
	return date.value.After(other.value)
}

// Day returns the day of month.
func (date Date) Day() int {
	return date.value.Day()
}

// YearMonth returns the month containing date.
func (date Date) YearMonth() YearMonth {
	return YearMonth{year: date.value.Year(), month: date.value.Month()}
}

// IsLastDayOfMonth reports whether date is the final day of its month.
func (date Date) IsLastDayOfMonth() bool {
	return date.AddDays(1).Day() == 1
}

// YearMonth is a calendar month.
type YearMonth struct {
	year  int
	month time.Month
}

// ParseYearMonth parses a strict YYYY-MM value.
func ParseYearMonth(raw string) (YearMonth, error) {
	match := yearMonthPattern.FindStringSubmatch(strings.TrimSpace(raw))
	if match == nil {
		return YearMonth{}, fmt.Errorf("%w: %q must be YYYY-MM", ErrInvalidMonth, raw)
	}
	year, _ := strconv.Atoi(match[1])
	month, _ := strconv.Atoi(match[2])
	if month < 1 || month > 12 {
		return YearMonth{}, fmt.Errorf("%w: %q must be YYYY-MM", ErrInvalidMonth, raw)
	}
	return YearMonth{year: year, month: time.Month(month)}, nil
}

// String formats the month as YYYY-MM.
func (yearMonth YearMonth) String() string {
	return yearMonth.first().value.Format(yearMonthLayout)
}

// LastDay returns the number of days in the month.
func (yearMonth YearMonth) LastDay() int {
	return NewDate(yearMonth.year, yearMonth.month+1, 0).Day()
}

// ClampedDate returns the date for day, clamped to the month's last day.
func (yearMonth YearMonth) ClampedDate(day int) Date {
	return NewDate(yearMonth.year, yearMonth.month, min(day, yearMonth.LastDay()))
}

func (yearMonth YearMonth) first() Date {
	return NewDate(yearMonth.year, yearMonth.month, 1)
}

// CategoryType classifies a category.
type CategoryType string

const (
	CategoryTypeExpense CategoryType = "expense"
	CategoryTypeIncome  CategoryType = "income"
)

// ParseCategoryType validates a category type; empty input yields expense.
func ParseCategoryType(raw string) (CategoryType, error) {
	switch categoryType := CategoryType(strings.TrimSpace(raw)); categoryType {
	case "":
		return CategoryTypeExpense, nil
	case CategoryTypeExpense, CategoryTypeIncome:
		return categoryType, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidCategoryType, raw)
	}
}

// NormalizeCategoryName trims and validates a category name.
func NormalizeCategoryName(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", fmt.Errorf("%w: empty value", ErrInvalidCategoryName)
	}
	if utf8.RuneCountInString(trimmed) > maxCategoryNameLength {
		return "", fmt.Errorf("%w: longer than %d characters", ErrInvalidCategoryName, maxCategoryNameLength)
	}
	return trimmed, nil
}

// CollapseCategoryName trims and collapses inner whitespace runs to one space.
func CollapseCategoryName(raw string) (string, error) {
	return NormalizeCategoryName(whitespaceRun.ReplaceAllString(strings.TrimSpace(raw), " "))
}

// NormalizeCategoryColor validates a #RRGGBB color; empty input yields the default color.
func NormalizeCategoryColor(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return defaultCategoryColor, nil
	}
	if !categoryColorPattern.MatchString(trimmed) {
		return "", fmt.Errorf("%w: %q must be #RRGGBB", ErrInvalidCategoryColor, raw)
	}
	return trimmed, nil
}

// NormalizeDescription trims an optional description. Blank values become nil.
func NormalizeDescription(raw *string) (*string, error) {
	if raw == nil {
		return nil, nil
	}
	trimmed := strings.TrimSpace(*raw)
	if trimmed == "" {
		return nil, nil
	}
	if utf8.RuneCountInString(trimmed) > maxDescriptionLength {
		return nil, fmt.Errorf("%w: longer than %d characters", ErrInvalidDescription, maxDescriptionLength)
	}
	return &trimmed, nil
}

// Category groups transactions.
type Category struct {
	ID    CategoryID
	Name  string
	Type  CategoryType
	Color string
}

// CategoryInput carries a validated new category.
type CategoryInput struct {
	Name  string
	Type  CategoryType
	Color string
}

// NewCategoryInput validates a new category.
func NewCategoryInput(name string, categoryType string, color string) (CategoryInput, error) {
	normalizedName, err := NormalizeCategoryName(name)
	if err != nil {
		return CategoryInput{}, err
	}
	parsedType, err := ParseCategoryType(categoryType)
	if err != nil {
		return CategoryInput{}, err
	}
	normalizedColor, err := NormalizeCategoryColor(color)
	if err != nil {
		return CategoryInput{}, err
	}
	return CategoryInput{Name: normalizedName, Type: parsedType, Color: normalizedColor}, nil
}

// CategoryPatch carries optional category field updates.
type CategoryPatch struct {
	Name  *string
	Type  *CategoryType
	Color *string
}

// NewCategoryPatch validates every provided field.
func NewCategoryPatch(name *string, categoryType *string, color *string) (CategoryPatch, error) {
	var patch CategoryPatch
	if name != nil {
		normalizedName, err := NormalizeCategoryName(*name)
		if err != nil {
			return CategoryPatch{}, err
		}
		patch.Name = &normalizedName
	}
	if categoryType != nil {
		parsedType, err := ParseCategoryType(*categoryType)
		if err != nil {
			return CategoryPatch{}, err
		}
		patch.Type = &parsedType
	}
	if color != nil {
		normalizedColor, err := NormalizeCategoryColor(*color)
		if err != nil {
			return CategoryPatch{}, err
		}
		patch.Color = &normalizedColor
	}
	return patch, nil
}

// RecurringTemplate is a monthly expense rule.
type RecurringTemplate struct {
	ID          TemplateID
	CategoryID  CategoryID
	AmountCents AmountCents
	DayOfMonth  int
	AnchorDate  Date
	Description *string
}

// RecurringTemplateInput carries a validated new template.
type RecurringTemplateInput struct {
	CategoryID  CategoryID
	AmountCents AmountCents
	DayOfMonth  int
	AnchorDate  Date
	Description *string
}

// NewRecurringTemplateInput validates a template; dayOfMonth must equal the anchor's day.
func NewRecurringTemplateInput(categoryID CategoryID, amount AmountCents, dayOfMonth int, anchorDate Date, description *string) (RecurringTemplateInput, error) {
	if categoryID.String() == "" {
		return RecurringTemplateInput{}, fmt.Errorf("%w: empty value", ErrInvalidCategoryID)
	}
	if dayOfMonth < 1 || dayOfMonth > 31 {
		return RecurringTemplateInput{}, fmt.Errorf("%w: %d must be within 1..31", ErrInvalidDayOfMonth, dayOfMonth)
	}
	if anchorDate.IsZero() {
		return RecurringTemplateInput{}, fmt.Errorf("%w: anchor date is required", ErrInvalidDate)
	}
	if anchorDate.Day() != dayOfMonth {
		return RecurringTemplateInput{}, fmt.Errorf("%w: %d vs %s", ErrDayOfMonthMismatch, dayOfMonth, anchorDate)
	}
	if err := amount.Validate(); err != nil {
		return RecurringTemplateInput{}, err
	}
	normalizedDescription, err := NormalizeDescription(description)
	if err != nil {
		return RecurringTemplateInput{}, err
	}
	return RecurringTemplateInput{
		CategoryID:  categoryID,
		AmountCents: amount,
		DayOfMonth:  dayOfMonth,
		AnchorDate:  anchorDate,
		Description: normalizedDescription,
	}, nil
}

// Transaction is a single money movement.
type Transaction struct {
	ID             TransactionID
	Source         Source
	IdempotencyKey IdempotencyKey
	CategoryID     CategoryID
	AmountCents    AmountCents
	Date           Date
	Description    *string
}

// TransactionInput carries a validated new transaction.
type TransactionInput struct {
	Source         Source
	IdempotencyKey IdempotencyKey
	CategoryID     CategoryID
	AmountCents    AmountCents
	Date           Date
	Description    *string
}

// NewTransactionInput validates a transaction. Manual rows carry no idempotency key; other sources require one.
func NewTransactionInput(source Source, key IdempotencyKey, categoryID CategoryID, amount AmountCents, date Date, description *string) (TransactionInput, error) {
	if _, err := ParseSource(string(source)); err != nil {
		return TransactionInput{}, err
	}
	if source == SourceManual && !key.IsZero() {
		return TransactionInput{}, fmt.Errorf("%w: manual transactions carry no key", ErrInvalidIdempotencyKey)
	}
	if source != SourceManual && key.IsZero() {
		return TransactionInput{}, fmt.Errorf("%w: %s transactions require a key", ErrInvalidIdempotencyKey, source)
	}
	if categoryID.String() == "" {
		return TransactionInput{}, fmt.Errorf("%w: empty value", ErrInvalidCategoryID)
	}
	if date.IsZero() {
		return TransactionInput{}, fmt.Errorf("%w: date is required", ErrInvalidDate)
	}
	if err := amount.Validate(); err != nil {
		return TransactionInput{}, err
	}
	normalizedDescription, err := NormalizeDescription(description)
	if err != nil {
		return TransactionInput{}, err
	}
	return TransactionInput{
		Source:         source,
		IdempotencyKey: key,
		CategoryID:     categoryID,
		AmountCents:    amount,
		Date:           date,
		Description:    normalizedDescription,
	}, nil
}

// TransactionPatch carries optional transaction field updates.
// ClearDescription distinguishes an explicit null from an absent field.
type TransactionPatch struct {
	CategoryID       *CategoryID
	AmountCents      *AmountCents
	Date             *Date
	Description      *string
	ClearDescription bool
}

// NewTransactionPatch validates every provided field.
func NewTransactionPatch(categoryID *CategoryID, amount *AmountCents, date *Date, description *string, clearDescription bool) (TransactionPatch, error) {
	patch := TransactionPatch{CategoryID: categoryID, Date: date}
	if categoryID != nil && categoryID.String() == "" {
		return TransactionPatch{}, fmt.Errorf("%w: empty value", ErrInvalidCategoryID)
	}
	if date != nil && date.IsZero() {
		return TransactionPatch{}, fmt.Errorf("%w: date is required", ErrInvalidDate)
	}
	if amount != nil {
		if err := amount.Validate(); err != nil {
			return TransactionPatch{}, err
		}
		patch.AmountCents = amount
	}
	if clearDescription {
		patch.ClearDescription = true
		return patch, nil
	}
	normalizedDescription, err := NormalizeDescription(description)
	if err != nil {
		return TransactionPatch{}, err
	}
	if description != nil && normalizedDescription == nil {
		patch.ClearDescription = true
	}
	patch.Description = normalizedDescription
	return patch, nil
}

// IsEmpty reports whether the patch changes nothing.
func (patch TransactionPatch) IsEmpty() bool {
	return patch.CategoryID == nil && patch.AmountCents == nil && patch.Date == nil && patch.Description == nil && !patch.ClearDescription
}

// TransactionFilter narrows a transaction listing.
type TransactionFilter struct {
	From       *Date
	To         *Date
	CategoryID *CategoryID
	Source     *Source
	Offset     int
	Limit      int
}

// NewTransactionFilter validates a listing filter; limit 0 selects the default page size.
func NewTransactionFilter(from *Date, to *Date, categoryID *CategoryID, source *Source, offset int, limit int) (TransactionFilter, error) {
	if from != nil && to != nil && from.After(*to) {
		return TransactionFilter{}, fmt.Errorf("%w: from %s is after to %s", ErrInvalidDateRange, from, to)
	}
	if offset < 0 {
		return TransactionFilter{}, fmt.Errorf("%w: offset must be >= 0", ErrInvalidPagination)
	}
	if limit == 0 {
		limit = defaultTransactionPage
	}
	if limit < 1 || limit > maxTransactionPage {
		return TransactionFilter{}, fmt.Errorf("%w: limit must be within 1..%d", ErrInvalidPagination, maxTransactionPage)
	}
	if source != nil {
		if _, err := ParseSource(string(*source)); err != nil {
			return TransactionFilter{}, err
		}
	}
	return TransactionFilter{From: from, To: to, CategoryID: categoryID, Source: source, Offset: offset, Limit: limit}, nil
}

// TransactionPage is one page of a listing with the unpaginated total.
type TransactionPage struct {
	Items []Transaction
	Total int64
}

// Occurrence is a template projected onto a month.
type Occurrence struct {
	Template       RecurringTemplate
	ScheduledDate  Date
	IdempotencyKey IdempotencyKey
	Committed      bool
}
