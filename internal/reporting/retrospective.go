// Package reporting summarizes classified connector outcomes, e.g. from a
// fixture replay.
package reporting

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"
)

// Record is one classified call. Exactly one of the outcome fields (Status or
// RefundStatus) or Fault is set.
type Record struct {
	Timestamp    time.Time `json:"timestamp"`
	Connector    string    `json:"connector"`
	Operation    string    `json:"operation"`
	Status       string    `json:"status,omitempty"`
	RefundStatus string    `json:"refund_status,omitempty"`
	Declined     bool      `json:"declined,omitempty"`
	DeclineCode  string    `json:"decline_code,omitempty"`
	// TransactionID is the connector transaction id of a payment outcome.
	TransactionID string `json:"transaction_id,omitempty"`
	// Fault is the error kind when no outcome could be produced.
	Fault          string `json:"fault,omitempty"`
	AmountCaptured int64  `json:"amount_captured,omitempty"`
	Currency       string `json:"currency,omitempty"`
}

// Summary aggregates a set of records.
type Summary struct {
	TotalCalls int
	Outcomes   int
	Declines   int
	Faults     int
	// Transactions counts distinct connector transaction ids.
	Transactions    int
	AttemptStatuses map[string]int
	RefundStatuses  map[string]int
	DeclineCodes    map[string]int
	FaultKinds      map[string]int
	ConnectorUsage  map[string]int
	OperationUsage  map[string]int
	// AmountCaptured sums captured minor units per currency.
	AmountCaptured     map[string]int64
	DateFrom           time.Time
	DateTo             time.Time
	ProcessingDuration time.Duration
}

func newSummary() *Summary {
	return &Summary{
		AttemptStatuses: make(map[string]int),
		RefundStatuses:  make(map[string]int),
		DeclineCodes:    make(map[string]int),
		FaultKinds:      make(map[string]int),
		ConnectorUsage:  make(map[string]int),
		OperationUsage:  make(map[string]int),
		AmountCaptured:  make(map[string]int64),
	}
}

// Summarize aggregates records. Zero timestamps are ignored for the date
// range.
func Summarize(records []Record) *Summary {
	s := newSummary()
	seen := make(map[string]struct{})
	for _, r := range records {
		s.TotalCalls++
		if r.Connector != "" {
			s.ConnectorUsage[r.Connector]++
		}
		if r.Operation != "" {
			s.OperationUsage[r.Operation]++
		}
		s.observe(r.Timestamp)

		if r.Fault != "" {
			s.Faults++
			s.FaultKinds[r.Fault]++
			continue
		}

		s.Outcomes++
		if r.TransactionID != "" {
			seen[r.Connector+"/"+r.TransactionID] = struct{}{}
		}
		if r.Status != "" {
			s.AttemptStatuses[r.Status]++
		}
		if r.RefundStatus != "" {
			s.RefundStatuses[r.RefundStatus]++
		}
		if r.Declined {
			s.Declines++
			code := r.DeclineCode
			if code == "" {
				code = "unknown"
			}
			s.DeclineCodes[code]++
		}
		if r.AmountCaptured > 0 && r.Currency != "" {
			s.AmountCaptured[r.Currency] += r.AmountCaptured
		}
	}
	s.Transactions = len(seen)
	if !s.DateFrom.IsZero() {
		s.ProcessingDuration = s.DateTo.Sub(s.DateFrom)
	}
	return s
}

func (s *Summary) observe(ts time.Time) {
	if ts.IsZero() {
		return
	}
	if s.DateFrom.IsZero() || ts.Before(s.DateFrom) {
		s.DateFrom = ts
	}
	if ts.After(s.DateTo) {
		s.DateTo = ts
	}
}

// DeclineRate is declines over classified outcomes.
func (s *Summary) DeclineRate() float64 {
	if s.Outcomes == 0 {
		return 0
	}
	return float64(s.Declines) / float64(s.Outcomes)
}

// WriteText renders the summary with stable key ordering.
func (s *Summary) WriteText(w io.Writer) error {
	var b strings.Builder
	fmt.Fprintf(&b, "calls: %d  outcomes: %d  declines: %d (%.1f%%)  faults: %d\n",
		s.TotalCalls, s.Outcomes, s.Declines, s.DeclineRate()*100, s.Faults)
	if s.Transactions > 0 {
		fmt.Fprintf(&b, "transactions: %d\n", s.Transactions)
	}
	writeCounts(&b, "connectors", s.ConnectorUsage)
	writeCounts(&b, "operations", s.OperationUsage)
	writeCounts(&b, "attempt statuses", s.AttemptStatuses)
	writeCounts(&b, "refund statuses", s.RefundStatuses)
	writeCounts(&b, "decline codes", s.DeclineCodes)
	writeCounts(&b, "faults", s.FaultKinds)
	if len(s.AmountCaptured) > 0 {
		b.WriteString("amount captured:\n")
		for _, k := range sortedKeys(s.AmountCaptured) {
			fmt.Fprintf(&b, "  %s: %d\n", k, s.AmountCaptured[k])
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func writeCounts(b *strings.Builder, title string, m map[string]int) {
	if len(m) == 0 {
		return
	}
	fmt.Fprintf(b, "%s:\n", title)
	for _, k := range sortedKeys(m) {
		fmt.Fprintf(b, "  %s: %d\n", k, m[k])
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
