package tools

import (
	"sort"
	"strings"
)

// bankingInfo is the static reference data served by get_banking_info.
var bankingInfo = map[string]map[string]any{
	"interest_rates": {
		"savings_account":  "3.5% AER",
		"current_account":  "0.1% AER",
		"premium_savings":  "4.2% AER (min £10,000)",
		"fixed_term_1year": "4.8% AER",
		"fixed_term_2year": "5.0% AER",
		"overdraft":        "19.9% EAR",
		"personal_loan":    "6.9% - 29.9% APR (based on credit score)",
		"last_updated":     "December 2025",
	},
	"fees": {
		"account_maintenance":          "Free for all accounts",
		"atm_withdrawal_uk":            "Free at all UK ATMs",
		"atm_withdrawal_international": "£1.50 + 2.75% conversion",
		"bank_transfer_uk":             "Free (Faster Payments)",
		"international_transfer":       "£5 - £25",
		"failed_payment":               "£10 per failed Direct Debit",
		"replacement_card":             "Free (standard), £10 (express)",
	},
	"limits": {
		"daily_atm_withdrawal": "£500",
		"daily_card_spending":  "£10,000",
		"single_transfer":      "£25,000",
		"daily_transfer":       "£50,000",
		"contactless":          "£100 per transaction",
		"overdraft":            "Up to £5,000 (subject to approval)",
	},
	"services": {
		"accounts": []string{"Current", "Savings", "Premium Savings", "Joint", "Business"},
		"cards":    []string{"Visa Debit", "Mastercard Credit", "Premium Metal"},
		"digital":  []string{"Mobile App", "Online Banking", "AI Assistant", "Apple Pay", "Google Pay"},
		"support":  []string{"24/7 AI", "Phone Support", "In-branch", "Video Banking"},
	},
	"hours": {
		"online_banking": "24/7",
		"ai_assistant":   "24/7",
		"phone_support":  "8am-10pm (Mon-Fri), 9am-6pm (Sat-Sun)",
		"branches":       "9am-5pm (Mon-Fri), 9am-1pm (Sat)",
		"emergency":      "24/7",
	},
	"security": {
		"encryption":       "256-bit SSL",
		"authentication":   "2FA mandatory",
		"biometrics":       "Fingerprint & Face ID",
		"fraud_protection": "24/7 monitoring",
		"fscs_protection":  "Up to £85,000",
	},
	"opening_account": {
		"requirements":  []string{"UK photo ID", "Proof of address", "UK phone", "Email"},
		"eligibility":   "UK resident, 18+",
		"time_to_open":  "5-10 minutes online",
		"card_delivery": "3-5 working days",
	},
	"contact": {
		"customer_service": "0800 123 4567",
		"lost_card":        "0800 123 4568 (24/7)",
		"fraud":            "0800 123 4569 (24/7)",
		"email":            "support@eaglebank.com",
	},
	"international": {
		"currencies":    "150+",
		"exchange_rate": "Mid-market, no markup",
		"transfer_time": "1-3 business days",
		"receiving":     "Free",
	},
	"mortgage": {
		"status":   "Coming Q2 2026",
		"types":    []string{"Fixed Rate", "Tracker", "Offset", "Buy-to-Let"},
		"register": "mortgage@eaglebank.com",
	},
}

var topicAliases = map[string]string{
	"rate":           "interest_rates",
	"rates":          "interest_rates",
	"interest":       "interest_rates",
	"fee":            "fees",
	"charges":        "fees",
	"cost":           "fees",
	"limit":          "limits",
	"maximum":        "limits",
	"service":        "services",
	"product":        "services",
	"products":       "services",
	"hour":           "hours",
	"time":           "hours",
	"open":           "hours",
	"opening":        "hours",
	"secure":         "security",
	"safety":         "security",
	"protection":     "security",
	"phone":          "contact",
	"email":          "contact",
	"call":           "contact",
	"open_account":   "opening_account",
	"new_account":    "opening_account",
	"create_account": "opening_account",
	"requirements":   "opening_account",
	"abroad":         "international",
	"foreign":        "international",
	"overseas":       "international",
	"currency":       "international",
	"home_loan":      "mortgage",
	"house":          "mortgage",
}

// BankingTopics lists the topics get_banking_info can answer, sorted.
func BankingTopics() []string {
	topics := make([]string, 0, len(bankingInfo))
	for k := range bankingInfo {
		topics = append(topics, k)
	}
	sort.Strings(topics)
	return topics
}

// LookupBankingInfo resolves a free-form topic ("Interest", "new-account")
// to its canonical key and data.
func LookupBankingInfo(query string) (string, map[string]any, bool) {
	key := strings.ToLower(strings.TrimSpace(query))
	key = strings.NewReplacer(" ", "_", "-", "_").Replace(key)
	if alias, ok := topicAliases[key]; ok {
		key = alias
	}
	info, ok := bankingInfo[key]
	return key, info, ok
}
