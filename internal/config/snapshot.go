package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"frizo/amm_risk_engine/internal/fixed"
	"frizo/amm_risk_engine/internal/perp"
)

// Snapshot is one market state to evaluate.
type Snapshot struct {
	Params         perp.PerpParameters
	AMM            perp.AMMState
	Trader         perp.TraderState
	Pool           perp.LiqPoolState
	ActiveAccounts int64
}

// snapshotFile is the YAML layout. Numbers are decoded as decimals so no
// value passes through a float.
type snapshotFile struct {
	Regime string `yaml:"regime"` // quote, base or quanto
	Quanto struct {
		Sigma3         decimal.Decimal    `yaml:"sigma3"`
		Rho23          decimal.Decimal    `yaml:"rho23"`
		StressReturnS3 [2]decimal.Decimal `yaml:"stress_return_s3"`
	} `yaml:"quanto"`

	Params struct {
		InitialMarginRateAlpha     decimal.Decimal `yaml:"initial_margin_rate_alpha"`
		MarginRateBeta             decimal.Decimal `yaml:"margin_rate_beta"`
		InitialMarginRateCap       decimal.Decimal `yaml:"initial_margin_rate_cap"`
		MaintenanceMarginRateAlpha decimal.Decimal `yaml:"maintenance_margin_rate_alpha"`

		TreasuryFeeRate        decimal.Decimal `yaml:"treasury_fee_rate"`
		PnLPartRate            decimal.Decimal `yaml:"pnl_part_rate"`
		ReferralRebateCC       decimal.Decimal `yaml:"referral_rebate_cc"`
		LiquidationPenaltyRate decimal.Decimal `yaml:"liquidation_penalty_rate"`

		MinimalSpread         decimal.Decimal `yaml:"minimal_spread"`
		MinimalSpreadInStress decimal.Decimal `yaml:"minimal_spread_in_stress"`
		LotSizeBC             decimal.Decimal `yaml:"lot_size_bc"`

		FundingRateClamp   decimal.Decimal `yaml:"funding_rate_clamp"`
		MarkPriceEMALambda decimal.Decimal `yaml:"mark_price_ema_lambda"`
		Sigma2             decimal.Decimal `yaml:"sigma2"`

		StressReturnS2           [2]decimal.Decimal `yaml:"stress_return_s2"`
		DFCoverNRate             decimal.Decimal    `yaml:"df_cover_n_rate"`
		DFLambda                 [2]decimal.Decimal `yaml:"df_lambda"`
		AMMTargetDD              [2]decimal.Decimal `yaml:"amm_target_dd"`
		AMMMinSizeCC             decimal.Decimal    `yaml:"amm_min_size_cc"`
		MinimalTraderExposureEMA decimal.Decimal    `yaml:"minimal_trader_exposure_ema"`
		MinimalAMMExposureEMA    decimal.Decimal    `yaml:"minimal_amm_exposure_ema"`
		MaximalTradeSizeBumpUp   decimal.Decimal    `yaml:"maximal_trade_size_bump_up"`

		CurrentFundingRate     decimal.Decimal `yaml:"current_funding_rate"`
		UnitAccumulatedFunding decimal.Decimal `yaml:"unit_accumulated_funding"`
		OpenInterest           decimal.Decimal `yaml:"open_interest"`
	} `yaml:"params"`

	AMM struct {
		K2                      decimal.Decimal    `yaml:"k2"`
		L1                      decimal.Decimal    `yaml:"l1"`
		M                       decimal.Decimal    `yaml:"m"`
		TraderExposureEMA       decimal.Decimal    `yaml:"trader_exposure_ema"`
		AMMExposureEMA          [2]decimal.Decimal `yaml:"amm_exposure_ema"`
		IndexS2                 decimal.Decimal    `yaml:"index_s2"`
		OracleS2                decimal.Decimal    `yaml:"oracle_s2"`
		IndexS3                 decimal.Decimal    `yaml:"index_s3"`
		OracleS3                decimal.Decimal    `yaml:"oracle_s3"`
		MarkPremiumRate         decimal.Decimal    `yaml:"mark_premium_rate"`
		PremiumRate             decimal.Decimal    `yaml:"premium_rate"`
		DefaultFundFundingRatio *decimal.Decimal   `yaml:"default_fund_funding_ratio"`
	} `yaml:"amm"`

	Trader struct {
		MarginBalance     decimal.Decimal `yaml:"margin_balance"`
		AvailableMargin   decimal.Decimal `yaml:"available_margin"`
		AvailableCash     decimal.Decimal `yaml:"available_cash"`
		Cash              decimal.Decimal `yaml:"cash"`
		Position          decimal.Decimal `yaml:"position"`
		LockedInValue     decimal.Decimal `yaml:"locked_in_value"`
		FundingIndexStart decimal.Decimal `yaml:"funding_index_start"`
	} `yaml:"trader"`

	Pool struct {
		ParticipantCash   decimal.Decimal `yaml:"participant_cash"`
		AMMFundCash       decimal.Decimal `yaml:"amm_fund_cash"`
		DefaultFundCash   decimal.Decimal `yaml:"default_fund_cash"`
		TargetAMMFundSize decimal.Decimal `yaml:"target_amm_fund_size"`
		TargetDFSize      decimal.Decimal `yaml:"target_df_size"`
		Running           bool            `yaml:"running"`
	} `yaml:"pool"`

	ActiveAccounts int64 `yaml:"active_accounts"`
}

// LoadSnapshot reads and validates a YAML market snapshot. ORACLE_S2 and
// ORACLE_S3 override the oracle prices in the file.
func LoadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ConfigError{Field: "SNAPSHOT_FILE", Err: err}
	}
	return ParseSnapshot(data)
}

// ParseSnapshot decodes a YAML market snapshot.
func ParseSnapshot(data []byte) (*Snapshot, error) {
	var f snapshotFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, &ConfigError{Field: "snapshot", Err: err}
	}
	if err := overrideWithEnv(&f); err != nil {
		return nil, err
	}

	s, err := f.convert()
	if err != nil {
		return nil, err
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("invalid snapshot: %w", err)
	}
	return s, nil
}

// Validate checks parameters and state.
func (s *Snapshot) Validate() error {
	if err := s.Params.Validate(); err != nil {
		return err
	}
	if !s.AMM.OracleS2.IsPos() {
		return &ConfigError{Field: "amm.oracle_s2", Err: fmt.Errorf("%w: must be positive", ErrInvalidConfig)}
	}
	if s.ActiveAccounts < 0 {
		return &ConfigError{Field: "active_accounts", Err: fmt.Errorf("%w: negative", ErrInvalidConfig)}
	}
	return nil
}

// overrideWithEnv replaces the oracle prices with ORACLE_S2 / ORACLE_S3.
func overrideWithEnv(f *snapshotFile) error {
	for _, o := range []struct {
		key string
		dst *decimal.Decimal
	}{
		{"ORACLE_S2", &f.AMM.OracleS2},
		{"ORACLE_S3", &f.AMM.OracleS3},
	} {
		v := os.Getenv(o.key)
		if v == "" {
			continue
		}
		d, err := decimal.NewFromString(v)
		if err != nil {
			return &ConfigError{Field: o.key, Err: err}
		}
		*o.dst = d
	}
	return nil
}

// converter turns decimals into fixed point, keeping the first failure.
type converter struct {
	err error
}

func (c *converter) fx(field string, d decimal.Decimal) fixed.Fixed {
	if c.err != nil {
		return fixed.Zero
	}
	v, err := fixed.FromDecimal(d)
	if err != nil {
		c.err = &ConfigError{Field: field, Err: err}
	}
	return v
}

func (c *converter) pair(field string, d [2]decimal.Decimal) [2]fixed.Fixed {
	return [2]fixed.Fixed{c.fx(field+"[0]", d[0]), c.fx(field+"[1]", d[1])}
}

func (f *snapshotFile) convert() (*Snapshot, error) {
	var c converter

	regime, err := f.regime(&c)
	if err != nil {
		return nil, err
	}

	pf := &f.Params
	params := perp.PerpParameters{
		InitialMarginRateAlpha:     c.fx("params.initial_margin_rate_alpha", pf.InitialMarginRateAlpha),
		MarginRateBeta:             c.fx("params.margin_rate_beta", pf.MarginRateBeta),
		InitialMarginRateCap:       c.fx("params.initial_margin_rate_cap", pf.InitialMarginRateCap),
		MaintenanceMarginRateAlpha: c.fx("params.maintenance_margin_rate_alpha", pf.MaintenanceMarginRateAlpha),
		TreasuryFeeRate:            c.fx("params.treasury_fee_rate", pf.TreasuryFeeRate),
		PnLPartRate:                c.fx("params.pnl_part_rate", pf.PnLPartRate),
		ReferralRebateCC:           c.fx("params.referral_rebate_cc", pf.ReferralRebateCC),
		LiquidationPenaltyRate:     c.fx("params.liquidation_penalty_rate", pf.LiquidationPenaltyRate),
		MinimalSpread:              c.fx("params.minimal_spread", pf.MinimalSpread),
		MinimalSpreadInStress:      c.fx("params.minimal_spread_in_stress", pf.MinimalSpreadInStress),
		LotSizeBC:                  c.fx("params.lot_size_bc", pf.LotSizeBC),
		FundingRateClamp:           c.fx("params.funding_rate_clamp", pf.FundingRateClamp),
		MarkPriceEMALambda:         c.fx("params.mark_price_ema_lambda", pf.MarkPriceEMALambda),
		Sigma2:                     c.fx("params.sigma2", pf.Sigma2),
		StressReturnS2:             c.pair("params.stress_return_s2", pf.StressReturnS2),
		DFCoverNRate:               c.fx("params.df_cover_n_rate", pf.DFCoverNRate),
		DFLambda:                   c.pair("params.df_lambda", pf.DFLambda),
		AMMTargetDD:                c.pair("params.amm_target_dd", pf.AMMTargetDD),
		AMMMinSizeCC:               c.fx("params.amm_min_size_cc", pf.AMMMinSizeCC),
		MinimalTraderExposureEMA:   c.fx("params.minimal_trader_exposure_ema", pf.MinimalTraderExposureEMA),
		MinimalAMMExposureEMA:      c.fx("params.minimal_amm_exposure_ema", pf.MinimalAMMExposureEMA),
		MaximalTradeSizeBumpUp:     c.fx("params.maximal_trade_size_bump_up", pf.MaximalTradeSizeBumpUp),
		CurrentFundingRate:         c.fx("params.current_funding_rate", pf.CurrentFundingRate),
		UnitAccumulatedFunding:     c.fx("params.unit_accumulated_funding", pf.UnitAccumulatedFunding),
		OpenInterest:               c.fx("params.open_interest", pf.OpenInterest),
		Regime:                     regime,
	}

	af := &f.AMM
	amm := perp.AMMState{
		K2:                      c.fx("amm.k2", af.K2),
		L1:                      c.fx("amm.l1", af.L1),
		M:                       c.fx("amm.m", af.M),
		TraderExposureEMA:       c.fx("amm.trader_exposure_ema", af.TraderExposureEMA),
		AMMExposureEMA:          c.pair("amm.amm_exposure_ema", af.AMMExposureEMA),
		IndexS2:                 c.fx("amm.index_s2", af.IndexS2),
		OracleS2:                c.fx("amm.oracle_s2", af.OracleS2),
		IndexS3:                 c.fx("amm.index_s3", af.IndexS3),
		OracleS3:                c.fx("amm.oracle_s3", af.OracleS3),
		MarkPremiumRate:         c.fx("amm.mark_premium_rate", af.MarkPremiumRate),
		PremiumRate:             c.fx("amm.premium_rate", af.PremiumRate),
	}

	tf := &f.Trader
	trader := perp.TraderState{
		MarginBalance:     c.fx("trader.margin_balance", tf.MarginBalance),
		AvailableMargin:   c.fx("trader.available_margin", tf.AvailableMargin),
		AvailableCash:     c.fx("trader.available_cash", tf.AvailableCash),
		Cash:              c.fx("trader.cash", tf.Cash),
		Position:          c.fx("trader.position", tf.Position),
		LockedInValue:     c.fx("trader.locked_in_value", tf.LockedInValue),
		FundingIndexStart: c.fx("trader.funding_index_start", tf.FundingIndexStart),
	}

	lf := &f.Pool
	pool := perp.LiqPoolState{
		ParticipantCash:   c.fx("pool.participant_cash", lf.ParticipantCash),
		AMMFundCash:       c.fx("pool.amm_fund_cash", lf.AMMFundCash),
		DefaultFundCash:   c.fx("pool.default_fund_cash", lf.DefaultFundCash),
		TargetAMMFundSize: c.fx("pool.target_amm_fund_size", lf.TargetAMMFundSize),
		TargetDFSize:      c.fx("pool.target_df_size", lf.TargetDFSize),
		Running:           lf.Running,
	}

	// one ratio drives both the stress spread and the trade size bump
	amm.DefaultFundFundingRatio = pool.FundingRatio()
	if af.DefaultFundFundingRatio != nil {
		amm.DefaultFundFundingRatio = c.fx("amm.default_fund_funding_ratio", *af.DefaultFundFundingRatio)
	}

	if c.err != nil {
		return nil, c.err
	}
	return &Snapshot{Params: params, AMM: amm, Trader: trader, Pool: pool, ActiveAccounts: f.ActiveAccounts}, nil
}

// regime builds the collateral regime; quanto reads the quanto block.
func (f *snapshotFile) regime(c *converter) (perp.CollateralRegime, error) {
	if r, ok := perp.RegimeByName(f.Regime); ok {
		return r, nil
	}
	if f.Regime != "quanto" {
		return nil, &ConfigError{Field: "regime", Err: fmt.Errorf("%w: unknown regime %q", ErrInvalidConfig, f.Regime)}
	}
	q := perp.QuantoCollateral{
		Sigma3:         c.fx("quanto.sigma3", f.Quanto.Sigma3),
		Rho23:          c.fx("quanto.rho23", f.Quanto.Rho23),
		StressReturnS3: c.pair("quanto.stress_return_s3", f.Quanto.StressReturnS3),
	}
	if c.err != nil {
		return nil, c.err
	}
	return q, nil
}

// IsConfigError reports whether err came from loading configuration.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}
