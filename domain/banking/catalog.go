package banking

import (
	"github.com/hupe1980/deskflow/store"
	"github.com/hupe1980/deskflow/tool"
)

// Intent names supported by the banking catalog.
const (
	IntentUpdateAddress           = "update_address"
	IntentWithdrawRetirementFunds = "withdraw_retirement_funds"
)

// NewCatalog builds the banking intent catalog against a set of customer
// records. The records back the info tools and the withdrawal processor.
func NewCatalog(records []store.CustomerRecord) *tool.Catalog {
	catalog := tool.NewCatalog(Domain)

	catalog.MustRegister(&tool.IntentConfig{
		Intent:  IntentUpdateAddress,
		Routine: UpdateAddressRoutine,
		ExecutionTools: []tool.Tool{
			NewValidateAddressTool(),
			NewApplyAddressHoldTool(),
			NewUpdateAddressTool(),
			tool.NewCompleteCaseTool(),
		},
		InfoTools:  []tool.InfoTool{NewAccountTypeInfo(records)},
		ExtraTools: []tool.Tool{NewGetAccountTypeExtraTool(records)},
	})

	catalog.MustRegister(&tool.IntentConfig{
		Intent:  IntentWithdrawRetirementFunds,
		Routine: WithdrawRetirementFundsRoutine,
		ExecutionTools: []tool.Tool{
			NewProcessRetirementWithdrawalTool(records),
			tool.NewCompleteCaseTool(),
		},
		InfoTools:  []tool.InfoTool{NewWithdrawalEligibilityInfo(records)},
		ExtraTools: []tool.Tool{NewCheckWithdrawalEligibilityExtraTool(records)},
	})

	return catalog
}
