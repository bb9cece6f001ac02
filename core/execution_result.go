package core

import "github.com/lumenforge/execlayer/core/types"

// ExecutionResult holds the outcome of applying a single transaction.
type ExecutionResult struct {
	UsedGas         uint64
	Err             error
	ReturnData      []byte
	ContractAddress types.Address // set for contract-creation transactions
}

// Failed reports whether execution ended in an error.
func (r *ExecutionResult) Failed() bool { return r.Err != nil }

// Return returns the return data of a successful execution, or nil.
func (r *ExecutionResult) Return() []byte {
	if r.Failed() {
		return nil
	}
	return r.ReturnData
}

// Revert returns the return data of a reverted execution, or nil.
func (r *ExecutionResult) Revert() []byte {
	if r.Failed() {
		return r.ReturnData
	}
	return nil
}
