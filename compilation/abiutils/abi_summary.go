package abiutils

import (
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"github.com/crytic/medusa-geth/accounts/abi"
)

// MethodSummary describes a single callable entry of a contract ABI.
type MethodSummary struct {
	// Name describes the method name.
	Name string

	// Signature describes the canonical signature, e.g. "transfer(address,uint256)".
	Signature string

	// Selector describes the hex-encoded 4-byte function selector.
	Selector string

	// StateMutability describes the mutability of the method (pure, view, nonpayable, payable).
	StateMutability string
}

// EventSummary describes a single event of a contract ABI.
type EventSummary struct {
	// Name describes the event name.
	Name string

	// Signature describes the canonical signature, e.g. "Transfer(address,address,uint256)".
	Signature string

	// Topic describes the hex-encoded event topic (keccak256 of the signature).
	Topic string

	// Anonymous indicates whether the event is anonymous (no topic is emitted for its signature).
	Anonymous bool
}

// ABISummary describes the public surface of a contract ABI, sorted by name so the output is deterministic.
type ABISummary struct {
	// Constructor describes the constructor signature, or an empty string if there is no explicit constructor.
	Constructor string

	// Methods describes the callable functions of the contract, including public state variable getters.
	Methods []MethodSummary

	// Events describes the events declared by the contract.
	Events []EventSummary

	// Errors describes the signatures of custom errors declared by the contract.
	Errors []string

	// HasFallback indicates whether the contract defines a fallback function.
	HasFallback bool

	// HasReceive indicates whether the contract defines a receive function.
	HasReceive bool
}

// Summarize creates an ABISummary for the provided contract ABI.
func Summarize(contractAbi abi.ABI) ABISummary {
	summary := ABISummary{
		Methods:     make([]MethodSummary, 0, len(contractAbi.Methods)),
		Events:      make([]EventSummary, 0, len(contractAbi.Events)),
		Errors:      make([]string, 0, len(contractAbi.Errors)),
		HasFallback: contractAbi.HasFallback(),
		HasReceive:  contractAbi.HasReceive(),
	}

	// An implicit constructor has no ABI entry, which leaves the parsed constructor without a mutability
	if contractAbi.Constructor.StateMutability != "" {
		summary.Constructor = constructorSignature(contractAbi.Constructor)
	}

	for _, method := range contractAbi.Methods {
		summary.Methods = append(summary.Methods, MethodSummary{
			Name:            method.RawName,
			Signature:       method.Sig,
			Selector:        hex.EncodeToString(method.ID),
			StateMutability: method.StateMutability,
		})
	}
	sort.Slice(summary.Methods, func(i, j int) bool {
		return summary.Methods[i].Signature < summary.Methods[j].Signature
	})

	for _, event := range contractAbi.Events {
		summary.Events = append(summary.Events, EventSummary{
			Name:      event.RawName,
			Signature: event.Sig,
			Topic:     event.ID.Hex(),
			Anonymous: event.Anonymous,
		})
	}
	sort.Slice(summary.Events, func(i, j int) bool {
		return summary.Events[i].Signature < summary.Events[j].Signature
	})

	for _, customError := range contractAbi.Errors {
		summary.Errors = append(summary.Errors, customError.Sig)
	}
	sort.Strings(summary.Errors)

	return summary
}

// MethodNames returns the names of all methods in the summary.
func (s ABISummary) MethodNames() []string {
	names := make([]string, len(s.Methods))
	for i, method := range s.Methods {
		names[i] = method.Name
	}
	return names
}

// EventNames returns the names of all events in the summary.
func (s ABISummary) EventNames() []string {
	names := make([]string, len(s.Events))
	for i, event := range s.Events {
		names[i] = event.Name
	}
	return names
}

// constructorSignature renders the constructor's argument types, e.g. "constructor(uint256)".
func constructorSignature(constructor abi.Method) string {
	types := make([]string, len(constructor.Inputs))
	for i, input := range constructor.Inputs {
		types[i] = input.Type.String()
	}
	return fmt.Sprintf("constructor(%s)", strings.Join(types, ","))
}
