package core

var monthNames = [12]string{
	"January", "February", "March", "April", "May", "June",
	"July", "August", "September", "October", "November", "December",
}

// MonthName returns the English name for a zero-based month index.
// Out of range indexes yield "".
func MonthName(index int) string {
	if index < 0 || index > 11 {
		return ""
	}
	return monthNames[index]
}

// MonthLabel is the three letter form used on chart axes ("Jan").
func MonthLabel(index int) string {
	name := MonthName(index)
	if len(name) < 3 {
		return name
	}
	return name[:3]
}

// DefaultTaxonomy is the category list a fresh install starts with.
func DefaultTaxonomy() Taxonomy {
	return Taxonomy{
		Income:  {"Salary", "Freelance", "Investment", "Gift", "Other"},
		Bill:    {"Rent/Mortgage", "Utilities", "Internet", "Phone", "Subscription"},
		Expense: {"Groceries", "Dining", "Transport", "Shopping", "Entertainment", "Health"},
		Saving:  {"Emergency Fund", "Retirement", "Travel Fund", "General Savings"},
		Debt:    {"Credit Card", "Personal Loan", "Student Loan", "Car Loan"},
	}
}

func demo(id string, y, m, d int, cents int64, t Type, category, description string) Transaction {
	return Transaction{
		ID:          id,
		Date:        NewDate(y, m, d),
		Amount:      Money{Cents: cents},
		Type:        t,
		Category:    category,
		Description: description,
	}
}

// DemoTransactions returns three months of sample data, most recent first.
// Used to seed an empty store.
func DemoTransactions() []Transaction {
	return []Transaction{
		demo("m1", 2024, 3, 1, 480000, Income, "Salary", "Tech Corp Monthly"),
		demo("m2", 2024, 3, 1, 150000, Bill, "Rent/Mortgage", "Apartment Rent"),
		demo("m3", 2024, 3, 5, 8000, Bill, "Utilities", "City Power & Water"),
		demo("m4", 2024, 3, 10, 60000, Saving, "Retirement", "401k Contribution"),
		demo("m5", 2024, 3, 12, 14550, Expense, "Groceries", "Whole Foods Market"),
		demo("m6", 2024, 3, 15, 35000, Debt, "Personal Loan", "Bank Loan Payment"),
		demo("m7", 2024, 3, 18, 22000, Expense, "Dining", "Sushi Dinner"),
		demo("m8", 2024, 3, 22, 9000, Expense, "Transport", "Uber Rides"),

		demo("f1", 2024, 2, 1, 480000, Income, "Salary", "Tech Corp Monthly"),
		demo("f2", 2024, 2, 1, 150000, Bill, "Rent/Mortgage", "Apartment Rent"),
		demo("f3", 2024, 2, 5, 11000, Bill, "Utilities", "City Power & Water"),
		demo("f4", 2024, 2, 10, 50000, Saving, "Retirement", "401k Contribution"),
		demo("f5", 2024, 2, 12, 18020, Expense, "Groceries", "Traders Joes"),
		demo("f6", 2024, 2, 15, 35000, Debt, "Personal Loan", "Bank Loan Payment"),
		demo("f7", 2024, 2, 20, 120000, Expense, "Shopping", "New Laptop"),

		demo("j1", 2024, 1, 1, 480000, Income, "Salary", "Tech Corp Monthly"),
		demo("j2", 2024, 1, 1, 150000, Bill, "Rent/Mortgage", "Apartment Rent"),
		demo("j3", 2024, 1, 5, 7500, Bill, "Utilities", "City Power & Water"),
		demo("j4", 2024, 1, 10, 100000, Saving, "Emergency Fund", "Initial Savings"),
		demo("j5", 2024, 1, 15, 35000, Debt, "Personal Loan", "Bank Loan Payment"),
		demo("j6", 2024, 1, 20, 30000, Expense, "Health", "Gym Membership Annual"),
	}
}
