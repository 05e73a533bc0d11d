package http

import (
	"net/http"

	"tracker/internal/analytics"
	"tracker/internal/core"
	applog "tracker/internal/log"
)

type categoryView struct {
	Name  string
	Color string
	Icon  string
}

type breakdownRow struct {
	Name   string
	Color  string
	Icon   string
	Amount string
	Width  int
}

type dayBar struct {
	Weekday string
	Date    string
	Amount  string
	Height  int
}

type summaryView struct {
	Total       string
	MonthToDate string
	Count       int
	Breakdown   []breakdownRow
	Days        []dayBar
}

type expenseRow struct {
	ID          int64
	Description string
	Category    string
	Color       string
	Icon        string
	Date        string
	Amount      string
}

type sortOption struct {
	Value string
	Label string
}

type formView struct {
	Description string
	Amount      string
	Category    string
	Date        string
}

type ledgerView struct {
	Filter     string
	Sort       string
	Categories []categoryView
	Sorts      []sortOption
	Expenses   []expenseRow
}

type dashboardView struct {
	Summary    summaryView
	Ledger     ledgerView
	Categories []categoryView
	Form       formView
	Error      string
	ErrorField string
}

var sortOptions = []sortOption{
	{Value: string(analytics.SortDate), Label: "Date (Newest)"},
	{Value: string(analytics.SortAmount), Label: "Amount (Highest)"},
	{Value: string(analytics.SortName), Label: "Name (A-Z)"},
}

// handleIndex renders the dashboard page
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	filter, key, err := listParams(r.URL.Query())
	if err != nil {
		s.logger.WarnContext(r.Context(), "Invalid sort key, using default",
			applog.FieldQuery, r.URL.RawQuery, applog.FieldError, err)
	}
	data := s.dashboard(r, filter, key)
	s.render(w, r, http.StatusOK, "index.html", data)
}

// handleSummaryPartial returns the statistics cards and charts.
func (s *Server) handleSummaryPartial(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "summary", s.summaryView(r))
}

// handleLedgerPartial returns the filtered expense list.
func (s *Server) handleLedgerPartial(w http.ResponseWriter, r *http.Request) {
	filter, key, err := listParams(r.URL.Query())
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	s.render(w, r, http.StatusOK, "ledger", s.ledgerView(filter, key))
}

func (s *Server) dashboard(r *http.Request, filter string, key analytics.SortKey) dashboardView {
	cats := s.categoryViews()
	form := formView{Date: core.DateOf(s.now()).String()}
	if len(cats) > 0 {
		form.Category = cats[0].Name
	}
	return dashboardView{
		Summary:    s.summaryView(r),
		Ledger:     s.ledgerView(filter, key),
		Categories: cats,
		Form:       form,
	}
}

func (s *Server) categoryViews() []categoryView {
	cats := s.svc.Categories()
	out := make([]categoryView, len(cats))
	for i, c := range cats {
		out[i] = categoryView{Name: c.Name, Color: c.Color, Icon: c.Icon}
	}
	return out
}

func (s *Server) summaryView(r *http.Request) summaryView {
	sum := s.svc.Summary(r.Context())
	v := summaryView{
		Total:       formatDollars(s.printer, sum.Total),
		MonthToDate: formatDollars(s.printer, sum.MonthToDate),
		Count:       sum.Count,
	}

	var maxCategory int64
	for _, c := range sum.ByCategory {
		maxCategory = max(maxCategory, c.Total.Cents)
	}
	for _, c := range sum.ByCategory {
		v.Breakdown = append(v.Breakdown, breakdownRow{
			Name:   c.Category,
			Color:  c.Color,
			Icon:   c.Icon,
			Amount: formatDollars(s.printer, c.Total),
			Width:  scaledPercent(c.Total.Cents, maxCategory),
		})
	}

	var maxDay int64
	for _, d := range sum.TrailingDays {
		maxDay = max(maxDay, d.Total.Cents)
	}
	for _, d := range sum.TrailingDays {
		v.Days = append(v.Days, dayBar{
			Weekday: d.Weekday,
			Date:    d.Date.String(),
			Amount:  formatDollars(s.printer, d.Total),
			Height:  scaledPercent(d.Total.Cents, maxDay),
		})
	}
	return v
}

func (s *Server) ledgerView(filter string, key analytics.SortKey) ledgerView {
	cats := s.svc.Categories()
	items := s.svc.Query(filter, key)
	rows := make([]expenseRow, len(items))
	for i, e := range items {
		c, _ := cats.Lookup(e.Category)
		rows[i] = expenseRow{
			ID:          e.ID,
			Description: e.Description,
			Category:    e.Category,
			Color:       c.Color,
			Icon:        c.Icon,
			Date:        e.Date.Format("Jan 2, 2006"),
			Amount:      formatDollars(s.printer, e.Amount),
		}
	}
	return ledgerView{
		Filter:     filter,
		Sort:       string(key),
		Categories: s.categoryViews(),
		Sorts:      sortOptions,
		Expenses:   rows,
	}
}

// scaledPercent returns v as a rounded percentage of max, at least 2 so
// small non-zero values stay visible.
func scaledPercent(v, max int64) int {
	if max <= 0 || v <= 0 {
		return 0
	}
	width := int((v*100 + max/2) / max)
	if width < 2 {
		width = 2
	}
	if width > 100 {
		width = 100
	}
	return width
}
