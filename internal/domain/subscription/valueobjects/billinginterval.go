package valueobjects

type BillingInterval string

const (
	IntervalDaily   BillingInterval = "DIARIO"
	IntervalWeekly  BillingInterval = "SEMANAL"
	IntervalMonthly BillingInterval = "MENSUAL"
	IntervalYearly  BillingInterval = "ANUAL"
)

func (b BillingInterval) String() string {
	return string(b)
}

func (b BillingInterval) IsValid() bool {
	switch b {
	case IntervalDaily, IntervalWeekly, IntervalMonthly, IntervalYearly:
		return true
	}
	return false
}
