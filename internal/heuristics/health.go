// Package heuristics turns an enriched record into sales recommendations.
package heuristics

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/salgsmotor/internal/model"
)

// Key-figure labels in priority order.
var (
	revenueAliases = []string{"Sum driftsinntekter", "Driftsinntekter", "Omsetning"}
	profitAliases  = []string{"Resultat før skatt", "Årsresultat"}
)

// Figures are reported in thousands of NOK.
const figureScale = 1000

const lowRevenueLimit = 1_000_000

var figureCleaner = strings.NewReplacer(" ", "", "\u00a0", "", "\u202f", "", ",", "", "NOK", "")

// AssessFinancialHealth derives the financial verdict from scraped key
// figures.
func AssessFinancialHealth(fin model.Section[model.Financial]) model.FinancialHealth {
	f, ok := fin.Get()
	if !ok || f.KeyFigures == nil {
		return model.FinancialHealth{Status: model.StatusNoKeyFigures}
	}

	var flags []model.Flag
	revenue, err := parseRevenue(pick(f.KeyFigures, revenueAliases))
	if err == nil && revenue < lowRevenueLimit {
		flags = append(flags, model.Flag{
			Name:   model.FlagRevenueConcern,
			Detail: fmt.Sprintf("Low revenue (%.1fM NOK).", float64(revenue)/1e6),
		})
	}
	if err == nil {
		var profit int64
		profit, err = parseProfit(pick(f.KeyFigures, profitAliases))
		if err == nil && profit < 0 {
			flags = append(flags, model.Flag{
				Name:   model.FlagProfitabilityConcern,
				Detail: fmt.Sprintf("Company is not currently profitable (%.1fM NOK loss).", float64(profit)/1e6),
			})
		}
	}
	if err != nil {
		zap.L().Debug("could not parse financial figures", zap.Error(err))
		return model.FinancialHealth{Flags: []model.Flag{{
			Name:   model.FlagDataQuality,
			Detail: "Could not parse financial figures.",
		}}}
	}
	if len(flags) == 0 {
		return model.FinancialHealth{Status: model.StatusStable}
	}
	return model.FinancialHealth{Flags: flags}
}

// pick returns the first non-empty alias value, or "0".
func pick(figures map[string]string, aliases []string) string {
	for _, a := range aliases {
		if v := figures[a]; v != "" {
			return v
		}
	}
	return "0"
}

// parseRevenue clamps negative revenue to zero.
func parseRevenue(raw string) (int64, error) {
	s := strings.TrimSpace(figureCleaner.Replace(raw))
	if strings.HasPrefix(s, "-") {
		return 0, nil
	}
	n, err := parseDigits(s)
	if err != nil {
		return 0, eris.Wrapf(err, "heuristics: invalid revenue %q", raw)
	}
	return n * figureScale, nil
}

func parseProfit(raw string) (int64, error) {
	s := strings.TrimSpace(figureCleaner.Replace(raw))
	negative := strings.HasPrefix(s, "-")
	n, err := parseDigits(strings.TrimLeft(s, "-"))
	if err != nil {
		return 0, eris.Wrapf(err, "heuristics: invalid result %q", raw)
	}
	n *= figureScale
	if negative {
		n = -n
	}
	return n, nil
}

// parseDigits accepts only ASCII digits whose value still fits in an int64
// once scaled by figureScale.
func parseDigits(s string) (int64, error) {
	if s == "" {
		return 0, eris.New("empty")
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, eris.Errorf("non-digit %q", r)
		}
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, eris.Wrap(err, "parse")
	}
	if n > math.MaxInt64/figureScale {
		return 0, eris.Errorf("%d thousand is out of range", n)
	}
	return n, nil
}
