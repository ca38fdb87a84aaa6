package formulas

// SharpeRatio calculates the annualized Sharpe ratio from a mean daily return
// and a daily volatility. riskFree is an annualized rate.
func SharpeRatio(meanDailyReturn, dailyVolatility, riskFree float64) float64 {
	vol := AnnualizeVolatility(dailyVolatility)
	if vol == 0 {
		return 0
	}
	return (AnnualizeReturn(meanDailyReturn) - riskFree) / vol
}
