package main

import (
	"errors"
	"fmt"
	"io"

	"frizo/amm_risk_engine/internal/common"
	"frizo/amm_risk_engine/internal/config"
	"frizo/amm_risk_engine/internal/fixed"
	"frizo/amm_risk_engine/internal/liquidation"
	"frizo/amm_risk_engine/internal/logger"
	"frizo/amm_risk_engine/internal/margin"
	"frizo/amm_risk_engine/internal/perp"
	"frizo/amm_risk_engine/internal/pricing"
	"frizo/amm_risk_engine/internal/riskfund"
	"frizo/amm_risk_engine/internal/tradesize"
)

// request is what the user asked to evaluate.
type request struct {
	Trade         fixed.Fixed
	Leverage      fixed.Fixed
	MaxIterations int
}

// sideLimits trade limits for one side.
type sideLimits struct {
	Side        perp.Side
	MaxTrade    fixed.Fixed
	MaxPosition fixed.Fixed
	Converged   bool
}

// report is one evaluated snapshot.
type report struct {
	RunID  string
	Regime string

	Mid   fixed.Fixed
	KStar fixed.Fixed
	Quote pricing.Quote
	Depth []pricing.DepthPoint

	Balance            margin.Balance
	RequiredCollateral fixed.Fixed
	Liquidation        *liquidation.Result // nil when no liquidation price exists

	FundingRate fixed.Fixed

	AMMFund     riskfund.FundTargets
	DefaultFund fixed.Fixed

	Limits []sideLimits
}

// evaluate runs every engine over the snapshot.
func evaluate(s *config.Snapshot, req request, runID string, log *logger.Logger) (*report, error) {
	p := s.Params
	pricer := pricing.New(p)
	margins := margin.New(p, pricer)
	liq := liquidation.New(p, pricer)
	sizer := tradesize.New(p, pricer, tradesize.WithMaxIterations(req.MaxIterations))

	r := &report{RunID: runID, Regime: p.Regime.Name()}
	step := func(op string) *logger.Logger {
		return log.WithFields(map[string]interface{}{"run_id": runID, "eval_id": common.NewEvalID(runID, op), "op": op})
	}

	var err error
	if r.Mid, err = pricer.MidPrice(s.AMM); err != nil {
		return nil, fmt.Errorf("mid price: %w", err)
	}
	if r.KStar, err = pricer.OptimalTradeSize(s.AMM); err != nil {
		return nil, fmt.Errorf("optimal trade size: %w", err)
	}
	if r.Quote, err = pricer.Quote(s.AMM, req.Trade); err != nil {
		return nil, fmt.Errorf("quote: %w", err)
	}
	step("price").Debug("quoted", "size", req.Trade, "price", r.Quote.Price, "pd", r.Quote.PD)

	for pt, err := range pricer.DepthMatrix(s.AMM) {
		if err != nil {
			return nil, fmt.Errorf("depth: %w", err)
		}
		r.Depth = append(r.Depth, pt)
	}

	if r.Balance, err = margins.Balance(s.AMM, s.Trader); err != nil {
		return nil, fmt.Errorf("balance: %w", err)
	}
	target, err := s.Trader.Position.Add(req.Trade)
	if err != nil {
		return nil, err
	}
	r.RequiredCollateral, err = margins.RequiredCollateral(s.AMM, s.Trader, margin.Request{
		Leverage:           req.Leverage,
		TargetPosition:     target,
		AccountForMargin:   true,
		AccountForPosition: true,
	})
	if err != nil {
		return nil, fmt.Errorf("required collateral: %w", err)
	}
	step("margin").Debug("required collateral", "target_position", target, "collateral", r.RequiredCollateral)

	res, err := liq.ApproximateLiquidationPrice(s.AMM, s.Trader, req.Trade, r.RequiredCollateral)
	switch {
	case errors.Is(err, liquidation.ErrNoPosition), errors.Is(err, liquidation.ErrNotLiquidatable):
		step("liquidation").Debug("no liquidation price", "reason", err)
	case err != nil:
		return nil, fmt.Errorf("liquidation price: %w", err)
	default:
		r.Liquidation = &res
	}

	if r.FundingRate, err = perp.FundingRate(s.AMM.PremiumRate, p.FundingRateClamp); err != nil {
		return nil, fmt.Errorf("funding rate: %w", err)
	}
	if r.AMMFund, err = riskfund.AMMFundTargets(p, s.AMM); err != nil {
		return nil, fmt.Errorf("amm fund target: %w", err)
	}
	if r.DefaultFund, err = riskfund.DefaultFundTarget(p, riskfund.DFInputFrom(s.AMM, s.ActiveAccounts)); err != nil {
		return nil, fmt.Errorf("default fund target: %w", err)
	}

	for _, side := range []perp.Side{perp.Buy, perp.Sell} {
		l := sideLimits{Side: side, Converged: true}
		if l.MaxTrade, err = sizer.MaximalTradeSize(s.AMM, s.Pool, s.Trader.Position, side); err != nil {
			return nil, fmt.Errorf("maximal trade size %s: %w", side, err)
		}
		l.MaxPosition, err = sizer.SignedMaxAbsPosition(s.AMM, s.Pool, s.Trader, side)
		var ce *tradesize.ConvergenceError
		switch {
		case errors.As(err, &ce):
			l.Converged = false
			step("position").Warn("position solver stopped at its cap", "side", side, "iterations", ce.Iterations, "fallback", ce.Fallback)
		case err != nil:
			return nil, fmt.Errorf("max position %s: %w", side, err)
		}
		r.Limits = append(r.Limits, l)
	}
	return r, nil
}

// print writes the human readable report.
func (r *report) print(w io.Writer) {
	fmt.Fprintf(w, "run %s (%s collateral)\n\n", r.RunID, r.Regime)

	fmt.Fprintf(w, "mid price            %s\n", r.Mid)
	fmt.Fprintf(w, "optimal trade k*     %s\n", r.KStar)
	fmt.Fprintf(w, "quote %-14s %s (pd %s, spread %s)\n", r.Quote.Size.String(), r.Quote.Price, r.Quote.PD, r.Quote.Spread)

	fmt.Fprintln(w, "\ndepth")
	for _, pt := range r.Depth {
		fmt.Fprintf(w, "  %6s%%  %-24s %s\n", pt.Percent, pt.Price, pt.Size)
	}

	fmt.Fprintln(w, "\nmargin")
	for _, k := range []string{"cash", "unrealized_pnl", "margin_balance", "initial_margin", "maintenance_margin", "available_margin"} {
		fmt.Fprintf(w, "  %-20s %v\n", k, r.Balance.Summary()[k])
	}
	fmt.Fprintf(w, "  %-20s %s\n", "required_collateral", r.RequiredCollateral)
	if r.Liquidation != nil {
		exact := ""
		if !r.Liquidation.Exact {
			exact = " (approx.)"
		}
		fmt.Fprintf(w, "  %-20s %s%s, penalty %s\n", "liquidation_price", r.Liquidation.Price, exact, r.Liquidation.Penalty)
	} else {
		fmt.Fprintf(w, "  %-20s none\n", "liquidation_price")
	}

	fmt.Fprintln(w, "\nfunds")
	fmt.Fprintf(w, "  funding rate         %s\n", r.FundingRate)
	fmt.Fprintf(w, "  amm baseline         %s\n", r.AMMFund.Baseline)
	fmt.Fprintf(w, "  amm stress           %s\n", r.AMMFund.Stress)
	fmt.Fprintf(w, "  default fund         %s\n", r.DefaultFund)

	fmt.Fprintln(w, "\nlimits")
	for _, l := range r.Limits {
		note := ""
		if !l.Converged {
			note = " (not converged)"
		}
		fmt.Fprintf(w, "  %-4s max trade %-22s max position %s%s\n", l.Side, l.MaxTrade, l.MaxPosition, note)
	}
}
