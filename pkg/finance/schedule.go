package finance

import "time"

// RecurringIdempotencyKey derives the key under which a template's occurrence is committed.
func RecurringIdempotencyKey(templateID TemplateID, occurrenceDate Date) IdempotencyKey {
	return IdempotencyKey{value: recurringKeyPrefix + idempotencyKeyDelimiter + templateID.String() + idempotencyKeyDelimiter + occurrenceDate.String()}
}

// ScheduledDate returns the template's occurrence within month, clamped to the month's
// last day. The second result is false when the occurrence precedes the anchor date.
func ScheduledDate(template RecurringTemplate, month YearMonth) (Date, bool) {
	scheduled := month.ClampedDate(template.DayOfMonth)
	if scheduled.Before(template.AnchorDate) {
		return Date{}, false
	}
	return scheduled, true
}

// DueQuery selects the templates whose occurrence falls on Date.
type DueQuery struct {
	Date       Date
	DayOfMonth int
	// IncludeLaterDays is set on the last day of a month so that templates for
	// days the month lacks are committed on its final day.
	IncludeLaterDays bool
}

// DueQueryFor builds the selection for a single processing date.
func DueQueryFor(date Date) DueQuery {
	return DueQuery{
		Date:             date,
		DayOfMonth:       date.Day(),
		IncludeLaterDays: date.IsLastDayOfMonth(),
	}
}

// Matches reports whether template is due on the query date.
func (query DueQuery) Matches(template RecurringTemplate) bool {
	if template.AnchorDate.After(query.Date) {
		return false
	}
	if query.IncludeLaterDays {
		return template.DayOfMonth >= query.DayOfMonth
	}
	return template.DayOfMonth == query.DayOfMonth
}

// HorizonDate returns the latest date the materializer may commit given the local wall
// clock: today once the clock reaches cutoff, otherwise yesterday.
func HorizonDate(localNow time.Time, cutoff time.Duration) Date {
	today := DateOf(localNow)
	midnight := time.Date(localNow.Year(), localNow.Month(), localNow.Day(), 0, 0, 0, 0, localNow.Location())
	if localNow.Sub(midnight) >= cutoff {
		return today
	}
	return today.AddDays(-1)
}

// DateRange lists every date from start through end inclusive.
func DateRange(start Date, end Date) []Date {
	var dates []Date
	for current := start; !current.After(end); current = current.AddDays(1) {
		dates = append(dates, current)
	}
	return dates
}
