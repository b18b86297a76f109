// Package banking provides the banking intent catalog: workflow routines,
// execution tools and info-gathering tools operating on customer records.
package banking

import (
	"fmt"
	"strings"

	"github.com/hupe1980/deskflow/core"
	"github.com/hupe1980/deskflow/store"
	"github.com/hupe1980/deskflow/tool"
)

// Domain is the record-file domain this catalog serves.
const Domain = "banking"

// eligibleAccountTypes may withdraw retirement funds.
var eligibleAccountTypes = []string{"ROTH_IRA", "TRADITIONAL_IRA"}

type validateAddressArgs struct {
	Street  string `json:"street" description:"Street address"`
	City    string `json:"city" description:"City name"`
	State   string `json:"state" description:"State code"`
	ZipCode string `json:"zip_code" description:"ZIP code"`
	Country string `json:"country" description:"Country code"`
}

// NewValidateAddressTool validates and standardizes an address. The simulated
// backend accepts everything and upper-cases the fields.
func NewValidateAddressTool() tool.Tool {
	return tool.NewFunctionToolFromStruct(
		"validate_address",
		"Validates and standardizes the input address.",
		validateAddressArgs{},
		func(toolCtx *core.ToolContext, args map[string]any) (any, error) {
			return map[string]any{
				"isValid": true,
				"standardizedAddress": map[string]any{
					"street":   strings.ToUpper(argString(args["street"])),
					"city":     strings.ToUpper(argString(args["city"])),
					"state":    strings.ToUpper(argString(args["state"])),
					"zipCode":  argString(args["zip_code"]),
					"country":  strings.ToUpper(argString(args["country"])),
					"zipPlus4": "0000",
				},
				"addressId": "addr789",
			}, nil
		},
	)
}

type updateAddressArgs struct {
	// Models echo the record's id as either a string or a bare number, so
	// the field stays untyped and argString coerces.
	CustomerID any `json:"customer_id" description:"ID of the customer"`
	Street     string `json:"street" description:"Street address"`
	City       string `json:"city" description:"City name"`
	State      string `json:"state" description:"State code"`
	ZipCode    string `json:"zip_code" description:"ZIP code"`
	Country    string `json:"country" description:"Country code"`
}

// NewUpdateAddressTool updates the customer's address in the system.
func NewUpdateAddressTool() tool.Tool {
	return tool.NewFunctionToolFromStruct(
		"update_address",
		"Updates the client's address in the system.",
		updateAddressArgs{},
		func(toolCtx *core.ToolContext, args map[string]any) (any, error) {
			return map[string]any{
				"success":     true,
				"message":     "Address updated successfully",
				"customer_id": argString(args["customer_id"]),
				"updated_address": map[string]any{
					"street":  strings.ToUpper(argString(args["street"])),
					"city":    strings.ToUpper(argString(args["city"])),
					"state":   strings.ToUpper(argString(args["state"])),
					"zipCode": argString(args["zip_code"]),
					"country": strings.ToUpper(argString(args["country"])),
				},
			}, nil
		},
	)
}

type customerIDArgs struct {
	CustomerID any `json:"customer_id" description:"ID of the customer"`
}

// NewApplyAddressHoldTool applies the post-change hold period to an account.
func NewApplyAddressHoldTool() tool.Tool {
	return tool.NewFunctionToolFromStruct(
		"apply_address_hold",
		"Applies a hold period to the account after an address change.",
		customerIDArgs{},
		func(toolCtx *core.ToolContext, args map[string]any) (any, error) {
			return map[string]any{
				"success":     true,
				"message":     "Address hold applied successfully",
				"customer_id": argString(args["customer_id"]),
			}, nil
		},
	)
}

type withdrawalArgs struct {
	CustomerID       any     `json:"customer_id" description:"The customer ID"`
	WithdrawalAmount float64 `json:"withdrawal_amount" description:"The amount to be withdrawn"`
}

// NewProcessRetirementWithdrawalTool processes a withdrawal against the
// customer's recorded account balance.
func NewProcessRetirementWithdrawalTool(records []store.CustomerRecord) tool.Tool {
	return tool.NewFunctionToolFromStruct(
		"process_retirement_withdrawal",
		"Processes the retirement account withdrawal.",
		withdrawalArgs{},
		func(toolCtx *core.ToolContext, args map[string]any) (any, error) {
			rec, ok := findRecord(records, argString(args["customer_id"]))
			if !ok {
				return nil, &tool.ToolError{
					Tool:    "process_retirement_withdrawal",
					Message: fmt.Sprintf("no account found for customer %s", argString(args["customer_id"])),
					Code:    "EXECUTION_ERROR",
				}
			}

			amount, _ := args["withdrawal_amount"].(float64)

			return map[string]any{
				"status":           "Success",
				"remainingBalance": numeric(rec["account_balance"]) - amount,
			}, nil
		},
	)
}

// argString renders an argument value as a plain string. Numeric ids arrive
// as float64 after JSON decoding and must not pick up an exponent.
func argString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		if val == float64(int64(val)) {
			return fmt.Sprintf("%d", int64(val))
		}
		return fmt.Sprintf("%v", val)
	default:
		return fmt.Sprintf("%v", val)
	}
}

func numeric(v any) float64 {
	switch val := v.(type) {
	case float64:
		return val
	case int:
		return float64(val)
	case int64:
		return float64(val)
	default:
		return 0
	}
}

func findRecord(records []store.CustomerRecord, customerID string) (store.CustomerRecord, bool) {
	for _, rec := range records {
		if rec.ID() == customerID {
			return rec, true
		}
	}
	return nil, false
}
