package service

import (
	"math"

	"github.com/ndewijer/Forecast-Paper-Trader-Backend/internal/model"
	"gonum.org/v1/gonum/stat"
)

const (
	tradingDaysPerYear = 252
	// DefaultMetricsWindow is the number of most recent snapshots metrics are computed over.
	DefaultMetricsWindow = 30
)

// snapshotReturns converts consecutive snapshot values into percent returns.
// A non-positive previous value yields a zero return.
func snapshotReturns(values []float64) []float64 {
	if len(values) < 2 {
		return []float64{}
	}

	returns := make([]float64, len(values)-1)
	for i := 1; i < len(values); i++ {
		if values[i-1] > 0 {
			returns[i-1] = (values[i] - values[i-1]) / values[i-1] * 100
		}
	}
	return returns
}

// volatility is the population standard deviation of returns.
func volatility(returns []float64) float64 {
	if len(returns) < 2 {
		return 0
	}
	_, std := stat.PopMeanStdDev(returns, nil)
	return std
}

// sharpeRatio annualizes percent returns over 252 trading days against an
// annual risk-free rate given as a fraction (0.02 = 2%).
func sharpeRatio(returns []float64, riskFreeRate float64) float64 {
	if len(returns) < 2 {
		return 0
	}

	mean, std := stat.PopMeanStdDev(returns, nil)
	if std == 0 || math.IsNaN(std) {
		return 0
	}

	annualReturn := mean * tradingDaysPerYear
	annualStd := std * math.Sqrt(tradingDaysPerYear)
	return (annualReturn - riskFreeRate*100) / annualStd
}

// maxDrawdown is the largest decline from a running peak, in percent of that peak.
func maxDrawdown(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}

	peak := values[0]
	maxDD := 0.0
	for _, v := range values {
		if v > peak {
			peak = v
		}
		if peak > 0 {
			if dd := (peak - v) / peak * 100; dd > maxDD {
				maxDD = dd
			}
		}
	}
	return maxDD
}

// performanceMetrics derives the risk metrics from a window of snapshots, oldest first.
func performanceMetrics(snapshots []model.PerformanceSnapshot, riskFreeRate float64) model.PerformanceMetrics {
	values := make([]float64, len(snapshots))
	for i, s := range snapshots {
		values[i] = s.TotalValue
	}

	returns := snapshotReturns(values)
	return model.PerformanceMetrics{
		Volatility:  volatility(returns),
		SharpeRatio: sharpeRatio(returns, riskFreeRate),
		MaxDrawdown: maxDrawdown(values),
	}
}
