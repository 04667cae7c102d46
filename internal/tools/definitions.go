package tools

// Parameter describes one tool argument in JSON-schema terms.
type Parameter struct {
	Type        string `json:"type"`
	Description string `json:"description"`
}

// Definition is what an intent extractor needs to build a function
// declaration for a tool.
type Definition struct {
	Name        string               `json:"name"`
	Description string               `json:"description"`
	Parameters  map[string]Parameter `json:"parameters"`
	Required    []string             `json:"required"`
}

const (
	ToolGetAccount       = "get_account"
	ToolDeposit          = "deposit"
	ToolWithdraw         = "withdraw"
	ToolTransfer         = "transfer"
	ToolListTransactions = "list_transactions"
	ToolGetBankingInfo   = "get_banking_info"
)

// aliases maps tool names used by earlier agents to canonical names.
var aliases = map[string]string{
	"get_account_tool":      ToolGetAccount,
	"topup_account_tool":    ToolDeposit,
	"topup":                 ToolDeposit,
	"withdraw_account_tool": ToolWithdraw,
	"transfer_tool":         ToolTransfer,
	"get_banking_info_tool": ToolGetBankingInfo,
}

var accountNoParam = Parameter{Type: "integer", Description: "The account number"}

var definitions = []Definition{
	{
		Name:        ToolGetAccount,
		Description: "Get account info (balance, name). Use when the user asks about a balance or an account.",
		Parameters:  map[string]Parameter{"account_no": accountNoParam},
		Required:    []string{"account_no"},
	},
	{
		Name:        ToolDeposit,
		Description: "Deposit money into an account.",
		Parameters: map[string]Parameter{
			"account_no":  accountNoParam,
			"amount":      {Type: "number", Description: "Amount to deposit in GBP"},
			"description": {Type: "string", Description: "Optional note for the statement"},
		},
		Required: []string{"account_no", "amount"},
	},
	{
		Name:        ToolWithdraw,
		Description: "Withdraw money from an account.",
		Parameters: map[string]Parameter{
			"account_no":  accountNoParam,
			"amount":      {Type: "number", Description: "Amount to withdraw in GBP"},
			"description": {Type: "string", Description: "Optional note for the statement"},
		},
		Required: []string{"account_no", "amount"},
	},
	{
		Name:        ToolTransfer,
		Description: "Transfer money between two accounts. Recipient name and sort code are checked against the destination when given.",
		Parameters: map[string]Parameter{
			"from_account_no": {Type: "integer", Description: "The account to debit"},
			"to_account_no":   {Type: "integer", Description: "The account to credit"},
			"amount":          {Type: "number", Description: "Amount to transfer in GBP"},
			"to_name":         {Type: "string", Description: "Recipient name as given by the user"},
			"to_sort_code":    {Type: "string", Description: "Recipient sort code, e.g. 11-11-11"},
			"description":     {Type: "string", Description: "Optional payment reference"},
		},
		Required: []string{"from_account_no", "to_account_no", "amount"},
	},
	{
		Name:        ToolListTransactions,
		Description: "List recent transactions for an account, newest first.",
		Parameters: map[string]Parameter{
			"account_no": accountNoParam,
			"limit":      {Type: "integer", Description: "Maximum number of transactions to return"},
		},
		Required: []string{"account_no"},
	},
	{
		Name: ToolGetBankingInfo,
		Description: "Get general banking info (interest_rates, fees, limits, services, hours, " +
			"security, opening_account, contact, international, mortgage).",
		Parameters: map[string]Parameter{"query_type": {Type: "string", Description: "Type of info requested"}},
		Required:   []string{"query_type"},
	},
}

// Definitions returns the tool catalogue.
func Definitions() []Definition {
	out := make([]Definition, len(definitions))
	copy(out, definitions)
	return out
}

// CanonicalName resolves aliases; unknown names are returned unchanged.
func CanonicalName(name string) string {
	if c, ok := aliases[name]; ok {
		return c
	}
	return name
}
