package analytics

import (
	"github.com/shopspring/decimal"

	"github.com/warp/carbon-engine/generic"
)

// =============================================================================
// FORECAST - Least-squares extrapolation of monthly buckets
// =============================================================================

const (
	DefaultHistoryMonths  = 6
	DefaultForecastMonths = 3
)

var (
	confidenceLowFactor  = generic.MustParseDecimal("0.85")
	confidenceHighFactor = generic.MustParseDecimal("1.15")
)

// ForecastPoint is one predicted month.
type ForecastPoint struct {
	Key               string
	Label             string
	Date              generic.TimePoint // first day of the month
	PredictedAIKwh    decimal.Decimal
	PredictedAICo2eKg decimal.Decimal
	PredictedAICost   decimal.Decimal
	ConfidenceLow     decimal.Decimal // PredictedAIKwh × 0.85
	ConfidenceHigh    decimal.Decimal // PredictedAIKwh × 1.15
}

// Forecast fits a straight line through each AI metric of buckets and
// extends it monthsAhead months past the last bucket. Predictions never go
// below zero. Fewer than two buckets yields no forecast.
func Forecast(buckets []MonthlyBucket, monthsAhead int) []ForecastPoint {
	if len(buckets) < 2 || monthsAhead <= 0 {
		return nil
	}

	kwh := fit(buckets, func(b MonthlyBucket) decimal.Decimal { return b.AIKwh })
	co2 := fit(buckets, func(b MonthlyBucket) decimal.Decimal { return b.AICo2eKg })
	cost := fit(buckets, func(b MonthlyBucket) decimal.Decimal { return b.AICost })

	last := buckets[len(buckets)-1].Period.Start
	n := len(buckets)
	points := make([]ForecastPoint, 0, monthsAhead)
	for k := 1; k <= monthsAhead; k++ {
		x := decimal.NewFromInt(int64(n - 1 + k))
		month := last.AddMonths(k)
		predicted := generic.NonNegative(kwh.at(x))
		points = append(points, ForecastPoint{
			Key:               month.MonthKey(),
			Label:             month.MonthLabel(),
			Date:              month,
			PredictedAIKwh:    predicted,
			PredictedAICo2eKg: generic.NonNegative(co2.at(x)),
			PredictedAICost:   generic.NonNegative(cost.at(x)),
			ConfidenceLow:     predicted.Mul(confidenceLowFactor),
			ConfidenceHigh:    predicted.Mul(confidenceHighFactor),
		})
	}
	return points
}

// line is y = intercept + slope·x.
type line struct {
	intercept decimal.Decimal
	slope     decimal.Decimal
}

func (l line) at(x decimal.Decimal) decimal.Decimal {
	return l.intercept.Add(l.slope.Mul(x))
}

// fit is ordinary least squares over x = 0..n-1.
func fit(buckets []MonthlyBucket, y func(MonthlyBucket) decimal.Decimal) line {
	n := decimal.NewFromInt(int64(len(buckets)))

	sumY := decimal.Zero
	for _, b := range buckets {
		sumY = sumY.Add(y(b))
	}
	meanX := decimal.NewFromInt(int64(len(buckets) - 1)).Div(decimal.NewFromInt(2))
	meanY := sumY.Div(n)

	num, den := decimal.Zero, decimal.Zero
	for i, b := range buckets {
		dx := decimal.NewFromInt(int64(i)).Sub(meanX)
		num = num.Add(dx.Mul(y(b).Sub(meanY)))
		den = den.Add(dx.Mul(dx))
	}
	if den.IsZero() {
		return line{intercept: meanY}
	}
	slope := num.Div(den)
	return line{intercept: meanY.Sub(slope.Mul(meanX)), slope: slope}
}
