package banking

import (
	"fmt"

	"github.com/hupe1980/deskflow/core"
	"github.com/hupe1980/deskflow/store"
	"github.com/hupe1980/deskflow/tool"
)

// accountTypeInfo looks up account type and client level for the customer
// bound to the tool context. It runs in the background at intent time, never
// through the model.
type accountTypeInfo struct {
	records []store.CustomerRecord
}

// NewAccountTypeInfo creates the get_account_type info tool.
func NewAccountTypeInfo(records []store.CustomerRecord) tool.InfoTool {
	return &accountTypeInfo{records: records}
}

func (i *accountTypeInfo) Name() string { return "get_account_type" }

func (i *accountTypeInfo) Gather(toolCtx *core.ToolContext) (map[string]any, error) {
	rec, ok := findRecord(i.records, toolCtx.CustomerID())
	if !ok {
		return nil, fmt.Errorf("no account found for customer %s", toolCtx.CustomerID())
	}

	return map[string]any{
		"account_type": rec["account_type"],
		"client_level": rec["client_level"],
	}, nil
}

// withdrawalEligibilityInfo checks whether the bound customer's account type
// permits retirement withdrawals.
type withdrawalEligibilityInfo struct {
	records []store.CustomerRecord
}

// NewWithdrawalEligibilityInfo creates the check_withdrawal_eligibility info
// tool.
func NewWithdrawalEligibilityInfo(records []store.CustomerRecord) tool.InfoTool {
	return &withdrawalEligibilityInfo{records: records}
}

func (i *withdrawalEligibilityInfo) Name() string { return "check_withdrawal_eligibility" }

func (i *withdrawalEligibilityInfo) Gather(toolCtx *core.ToolContext) (map[string]any, error) {
	rec, ok := findRecord(i.records, toolCtx.CustomerID())
	if !ok {
		return nil, fmt.Errorf("no account found for customer %s", toolCtx.CustomerID())
	}

	return map[string]any{"isEligible": isEligible(rec)}, nil
}

// NewGetAccountTypeExtraTool is the model-callable variant of
// get_account_type, used when the info pass did not run.
func NewGetAccountTypeExtraTool(records []store.CustomerRecord) tool.Tool {
	return tool.NewFunctionToolFromStruct(
		"get_account_type_extra",
		"Get account type and ownership information.",
		customerIDArgs{},
		func(toolCtx *core.ToolContext, args map[string]any) (any, error) {
			rec, ok := findRecord(records, argString(args["customer_id"]))
			if !ok {
				return map[string]any{"account_type": map[string]any{}}, nil
			}

			return map[string]any{
				"account_type": rec["account_type"],
				"client_level": rec["client_level"],
			}, nil
		},
	)
}

// NewCheckWithdrawalEligibilityExtraTool is the model-callable variant of
// check_withdrawal_eligibility.
func NewCheckWithdrawalEligibilityExtraTool(records []store.CustomerRecord) tool.Tool {
	return tool.NewFunctionToolFromStruct(
		"check_withdrawal_eligibility_extra",
		"Checks if withdrawal is allowed for the given customer.",
		customerIDArgs{},
		func(toolCtx *core.ToolContext, args map[string]any) (any, error) {
			rec, ok := findRecord(records, argString(args["customer_id"]))
			if !ok {
				return map[string]any{"isEligible": false}, nil
			}

			return map[string]any{"isEligible": isEligible(rec)}, nil
		},
	)
}

func isEligible(rec store.CustomerRecord) bool {
	accountType, _ := rec["account_type"].(string)
	for _, t := range eligibleAccountTypes {
		if accountType == t {
			return true
		}
	}
	return false
}
