package journal

import (
	"io"
	"text/template"

	"github.com/shopspring/decimal"
)

var orgFuncs = template.FuncMap{
	"fixed": func(d decimal.Decimal) string { return d.StringFixed(2) },
	"pf": func(d *decimal.Decimal) string {
		if d == nil {
			return "(undefined)"
		}
		return d.StringFixed(2)
	},
}

var orgTemplate = template.Must(template.New("run").Funcs(orgFuncs).Parse(RunOrgTemplate))

// WriteOrg renders r as an Org-mode entry.
func WriteOrg(w io.Writer, r Run) error {
	return orgTemplate.Execute(w, r)
}

const RunOrgTemplate = `* BACKTEST: {{.Strategy}} {{.Symbol}}
:PROPERTIES:
:RUN_ID:      {{.ID}}
:STRATEGY:    {{.Strategy}}
:SYMBOL:      {{.Symbol}}
:DATASET:     {{if .Dataset}}{{.Dataset}}{{else}}(dataset?){{end}}
:PARAMS:      {{.Params}}
:BARS:        {{.BarsProcessed}}
:START_CASH:  {{fixed .StartingCash}}
:END_EQUITY:  {{fixed .Metrics.FinalEquity}}
:RETURN_PCT:  {{fixed .Metrics.TotalReturnPct}}
:MAX_DD_PCT:  {{fixed .Metrics.MaxDrawdownPct}}
:ROUND_TRIPS: {{.Metrics.RoundTrips}}
:WINS:        {{.Metrics.Wins}}
:WIN_RATE:    {{fixed .Metrics.WinRatePct}}
:PROFIT_FAC:  {{pf .Metrics.ProfitFactor}}
:CREATED:     [{{.Created.Format "2006-01-02 Mon 15:04"}}]
:END:

** Performance Summary
- Return:           *{{fixed .Metrics.TotalReturnPct}}%*
- Buy & Hold:       *{{fixed .Metrics.BuyAndHoldPct}}%*
- Max Drawdown:     *{{fixed .Metrics.MaxDrawdownPct}}%*
- Win Rate:         *{{fixed .Metrics.WinRatePct}}%*
- Profit Factor:    *{{pf .Metrics.ProfitFactor}}*
- Fees:             *{{fixed .Metrics.TotalFees}}*
{{- if .Trades}}

** Trades
| # | Side | Qty | Price | Fee |
|---+------+-----+-------+-----|
{{- range $i, $t := .Trades}}
| {{$i}} | {{$t.Side}} | {{$t.Quantity}} | {{$t.Price}} | {{$t.Fee}} |
{{- end}}
{{- end}}
{{- if .Notes}}

** Observations
{{- range .Notes}}
- {{.}}
{{- end}}
{{- end}}
`
