package domain

// AccountType classifies an account by the leading digit of its code.
type AccountType string

const (
	AccountAsset     AccountType = "ASSET"
	AccountLiability AccountType = "LIABILITY"
	AccountEquity    AccountType = "EQUITY"
	AccountRevenue   AccountType = "REVENUE"
	AccountExpense   AccountType = "EXPENSE"
)

// AccountTypeFromCode derives the account type from the account code's
// leading digit: 1 asset, 2 liability, 3 equity, 4 revenue, 5 expense.
// Unrecognized codes default to expense.
func AccountTypeFromCode(code string) AccountType {
	if code == "" {
		return AccountExpense
	}
	switch code[0] {
	case '1':
		return AccountAsset
	case '2':
		return AccountLiability
	case '3':
		return AccountEquity
	case '4':
		return AccountRevenue
	case '5':
		return AccountExpense
	default:
		return AccountExpense
	}
}

// PropertyMaturity reflects how much financial history a property has.
type PropertyMaturity string

const (
	MaturityNew         PropertyMaturity = "NEW"
	MaturityEstablished PropertyMaturity = "ESTABLISHED"
)

// maturityThresholdMs is two years in milliseconds (365-day years).
const maturityThresholdMs = 2 * 365 * 24 * 60 * 60 * 1000

// MaturityFromSpan classifies a property by the span of its data history.
// A property with less than two years of history is NEW.
func MaturityFromSpan(firstMs, lastMs int64) PropertyMaturity {
	if lastMs-firstMs < maturityThresholdMs {
		return MaturityNew
	}
	return MaturityEstablished
}
