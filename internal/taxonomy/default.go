package taxonomy

// DefaultConfig returns the built-in rule configuration.
func DefaultConfig() Config {
	return Config{
		Weights: Weights{
			Merchant: DefaultMerchantWeight,
			Semantic: DefaultSemanticWeight,
			Rule:     DefaultRuleWeight,
		},
		SemanticThreshold: DefaultSemanticThreshold,
		NoiseChars:        DefaultNoiseChars,
		MCC:               defaultMCC(),
		Keywords:          defaultKeywords(),
	}
}

// Default returns the built-in rule set.
func Default() *RuleSet {
	return MustNew(DefaultConfig())
}

func defaultMCC() map[string]string {
	return map[string]string{
		// Shopping
		"5942": "Shopping > Online Marketplace",
		"5311": "Shopping > General Retail",
		"5732": "Shopping > Electronics",
		"5651": "Shopping > Apparel",
		"5712": "Shopping > Home & Furniture",

		// Food & Drink
		"5812": "Food & Drink > Restaurant",
		"5814": "Food & Drink > Fast Food",
		"5811": "Food & Drink > Coffee Shop",
		"5411": "Food & Drink > Grocery",

		// Transport
		"4121": "Transport > Rideshare",
		"4111": "Transport > Public Transit",
		"5541": "Transport > Fuel",

		// Subscriptions
		"4899": "Subscriptions > Digital Services",
		"5734": "Subscriptions > Software",
		"7841": "Subscriptions > Streaming",

		// Bills & Utilities
		"4900": "Bills & Utilities > Electricity",
		"4931": "Bills & Utilities > Water",
		"4814": "Bills & Utilities > Internet/Mobile",

		// Cash & ATM
		"6011": "Cash & ATM > Withdrawal",
		"6010": "Cash & ATM > Deposit",

		// Transfers
		"4829": "Transfers > External",
		"6012": "Transfers > Internal",

		// Fees & Charges
		"6013": "Fees & Charges > Bank Fee",
		"7995": "Fees & Charges > Interest",

		// Travel
		"4511": "Travel > Airline",
		"7011": "Travel > Hotel",
		"6513": "Travel > Short-term Rental",

		// Healthcare
		"5912": "Healthcare > Pharmacy",
		"8062": "Healthcare > Medical Services",
	}
}

func defaultKeywords() []KeywordRule {
	return []KeywordRule{
		// Transport
		{Keyword: "uber", Category: "Transport > Rideshare", Reason: "Keyword rule: 'uber'"},
		{Keyword: "lyft", Category: "Transport > Rideshare", Reason: "Keyword rule: 'lyft'"},

		// Food & Drink
		{Keyword: "starbucks", Category: "Food & Drink > Coffee Shop", Reason: "Keyword rule: 'starbucks'"},
		{Keyword: "mcdonald", Category: "Food & Drink > Fast Food", Reason: "Keyword rule: 'mcdonald'"},
		{Keyword: "kfc", Category: "Food & Drink > Fast Food", Reason: "Keyword rule: 'kfc'"},

		// Shopping
		{Keyword: "bestbuy", Category: "Shopping > Electronics", Reason: "Keyword rule: 'bestbuy'"},
		{Keyword: "apple store", Category: "Shopping > Electronics", Reason: "Keyword rule: 'apple store'"},
		{Keyword: "gap", Category: "Shopping > Apparel", Reason: "Keyword rule: 'gap'"},
		{Keyword: "ikea", Category: "Shopping > Home & Furniture", Reason: "Keyword rule: 'ikea'"},
		{Keyword: "walmart", Category: "Shopping > General Retail", Reason: "Keyword rule: 'walmart'"},
		{Keyword: "target", Category: "Shopping > General Retail", Reason: "Keyword rule: 'target'"},

		// Subscriptions
		{Keyword: "prime", Category: "Subscriptions > Streaming", Reason: "Keyword rule: 'prime'"},
		{Keyword: "netflix", Category: "Subscriptions > Streaming", Reason: "Keyword rule: 'netflix'"},
		{Keyword: "spotify", Category: "Subscriptions > Streaming", Reason: "Keyword rule: 'spotify'"},
		{Keyword: "office365", Category: "Subscriptions > Software", Reason: "Keyword rule: 'office365'"},

		// Travel
		{Keyword: "airbnb", Category: "Travel > Short-term Rental", Reason: "Keyword rule: 'airbnb'"},
		{Keyword: "marriott", Category: "Travel > Hotel", Reason: "Keyword rule: 'marriott'"},
		{Keyword: "hilton", Category: "Travel > Hotel", Reason: "Keyword rule: 'hilton'"},
		{Keyword: "delta", Category: "Travel > Airline", Reason: "Keyword rule: 'delta airline'"},
		{Keyword: "united", Category: "Travel > Airline", Reason: "Keyword rule: 'united airline'"},

		// Bills & Utilities
		{Keyword: "verizon", Category: "Bills & Utilities > Internet/Mobile", Reason: "Keyword rule: 'verizon'"},
		{Keyword: "att", Category: "Bills & Utilities > Internet/Mobile", Reason: "Keyword rule: 'att'"},
		{Keyword: "comcast", Category: "Bills & Utilities > Internet/Mobile", Reason: "Keyword rule: 'comcast'"},
		{Keyword: "coned", Category: "Bills & Utilities > Electricity", Reason: "Keyword rule: 'coned'"},
		{Keyword: "pg&e", Category: "Bills & Utilities > Electricity", Reason: "Keyword rule: 'pg&e'"},
		{Keyword: "water bill", Category: "Bills & Utilities > Water", Reason: "Keyword rule: 'water bill'"},
		{Keyword: "utility", Category: "Bills & Utilities > Electricity", Reason: "Keyword rule: 'utility'"},
		{Keyword: "electric bill", Category: "Bills & Utilities > Electricity", Reason: "Keyword rule: 'electric bill'"},

		// Cash & ATM
		{Keyword: "atm withdrawal", Category: "Cash & ATM > Withdrawal", Reason: "Keyword rule: 'atm withdrawal'"},
		{Keyword: "cash wd", Category: "Cash & ATM > Withdrawal", Reason: "Keyword rule: 'cash wd'"},
		{Keyword: "atm deposit", Category: "Cash & ATM > Deposit", Reason: "Keyword rule: 'atm deposit'"},

		// Transfers
		{Keyword: "internal transfer", Category: "Transfers > Internal", Reason: "Keyword rule: 'internal transfer'"},
		{Keyword: "external transfer", Category: "Transfers > External", Reason: "Keyword rule: 'external transfer'"},
		{Keyword: "zelle", Category: "Transfers > External", Reason: "Keyword rule: 'zelle transfer'"},
		{Keyword: "venmo", Category: "Transfers > External", Reason: "Keyword rule: 'venmo transfer'"},
		{Keyword: "paypal", Category: "Transfers > External", Reason: "Keyword rule: 'paypal transfer'"},

		// Fees & Charges
		{Keyword: "bank fee", Category: "Fees & Charges > Bank Fee", Reason: "Keyword rule: 'bank fee'"},
		{Keyword: "monthly fee", Category: "Fees & Charges > Bank Fee", Reason: "Keyword rule: 'monthly fee'"},
		{Keyword: "overdraft", Category: "Fees & Charges > Bank Fee", Reason: "Keyword rule: 'overdraft fee'"},
		{Keyword: "charge", Category: "Fees & Charges > Bank Fee", Reason: "Keyword rule: 'charge'"},
		{Keyword: "interest charge", Category: "Fees & Charges > Interest", Reason: "Keyword rule: 'interest charge'"},

		// Healthcare
		{Keyword: "pharmacy", Category: "Healthcare > Pharmacy", Reason: "Keyword rule: 'pharmacy'"},
	}
}
