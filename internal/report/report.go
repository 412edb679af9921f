// Package report renders a comparison outcome for the terminal or as JSON.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"sjsage522/dealpicker/internal/deal"
	"sjsage522/dealpicker/internal/history"
	"sjsage522/dealpicker/internal/model"
	"sjsage522/dealpicker/internal/pipeline"
	"sjsage522/dealpicker/internal/platform"
)

var arrows = map[history.Direction]string{
	history.DirectionUp:   "↑",
	history.DirectionDown: "↓",
	history.DirectionFlat: "→",
}

// NamePlatform resolves platform display names
type NamePlatform interface {
	PlatformName(id platform.ID) string
}

// Render writes the text report for outcome
func Render(w io.Writer, names NamePlatform, outcome *pipeline.Outcome) error {
	var b strings.Builder

	fmt.Fprintf(&b, "%s\n%s\n\n", outcome.Product.Name, outcome.Product.OriginalURL)

	b.WriteString("Price comparison\n")
	tw := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "  \tPLATFORM\tPRICE\tSOURCE\tTREND\tLINK")
	trends := trendsByPlatform(outcome.Trends)
	for _, q := range sortedQuotes(outcome.Quotes) {
		marker := ""
		if q.ID == outcome.Cheapest.ID && q.Platform == outcome.Cheapest.Platform {
			marker = "*"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			marker, names.PlatformName(q.Platform), FormatPrice(q.Price), q.Source, trendCell(trends, q.Platform), q.PurchaseURL())
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	b.WriteString("\nBest deal\n")
	writeDeal(&b, outcome.Best)

	if len(outcome.Recommendations) > 0 {
		fmt.Fprintf(&b, "\nCards for %s at %s\n", names.PlatformName(outcome.Cheapest.Platform), FormatPrice(outcome.Cheapest.Price))
		writeCards(&b, outcome.Recommendations)
	}

	if len(outcome.Warnings) > 0 {
		b.WriteString("\nWarnings\n")
		for _, warning := range outcome.Warnings {
			fmt.Fprintf(&b, "  ! %s\n", warning)
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// RenderCards writes a card recommendation table
func RenderCards(w io.Writer, cards []deal.CardBenefit) error {
	var b strings.Builder
	if len(cards) == 0 {
		b.WriteString("No applicable cards\n")
	} else {
		writeCards(&b, cards)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// RenderSearches writes the recent search list
func RenderSearches(w io.Writer, names NamePlatform, searches []history.Search) error {
	if len(searches) == 0 {
		_, err := io.WriteString(w, "No recent searches\n")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "WHEN\tPLATFORM\tPRODUCT\tLINK")
	for _, s := range searches {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
			s.At.Local().Format("2006-01-02 15:04"), names.PlatformName(s.Product.SourcePlatform), s.Product.Name, s.Product.OriginalURL)
	}
	return tw.Flush()
}

// RenderJSON writes v as indented JSON
func RenderJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

func writeDeal(b *strings.Builder, d deal.Deal) {
	fmt.Fprintf(b, "  %s  %s", d.PlatformName, FormatPrice(d.FinalPrice))
	if d.Card != nil {
		fmt.Fprintf(b, " with %s %s (save %s from %s)", d.Card.Bank, d.Card.Name, FormatPrice(d.Savings), FormatPrice(d.OriginalPrice))
	}
	fmt.Fprintf(b, "\n  %s\n", d.PurchaseURL)
}

func writeCards(b *strings.Builder, cards []deal.CardBenefit) {
	tw := tabwriter.NewWriter(b, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "  #\tCARD\tBANK\tRATE\tCASHBACK\tPAY")
	for i, cb := range cards {
		fmt.Fprintf(tw, "  %d\t%s\t%s\t%s%%\t%s\t%s\n",
			i+1, cb.Card.Name, cb.Card.Bank,
			strconv.FormatFloat(cb.Result.Rate, 'f', -1, 64),
			FormatPrice(cb.Result.Amount), FormatPrice(cb.Result.FinalPrice))
	}
	tw.Flush()
}

// FormatPrice renders whole-unit prices as NT$ with thousands separators
func FormatPrice(price int) string {
	sign := ""
	if price < 0 {
		sign = "-"
		price = -price
	}
	digits := strconv.Itoa(price)
	var out strings.Builder
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			out.WriteByte(',')
		}
		out.WriteRune(r)
	}
	return sign + "NT$" + out.String()
}

func sortedQuotes(quotes []model.PriceQuote) []model.PriceQuote {
	out := append([]model.PriceQuote(nil), quotes...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Price < out[j].Price })
	return out
}

func trendsByPlatform(trends []history.Trend) map[platform.ID]history.Trend {
	out := make(map[platform.ID]history.Trend, len(trends))
	for _, t := range trends {
		out[t.Platform] = t
	}
	return out
}

func trendCell(trends map[platform.ID]history.Trend, id platform.ID) string {
	t, ok := trends[id]
	if !ok || t.Points < 2 {
		return "-"
	}
	return fmt.Sprintf("%s %s~%s", arrows[t.Direction], FormatPrice(t.Min), FormatPrice(t.Max))
}
