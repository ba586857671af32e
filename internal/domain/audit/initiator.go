// Package audit records who changed what: the initiator attached to every
// run and the per-attribute change records written alongside object writes.
package audit

import "fmt"

// InitiatorKind distinguishes scheduled engine activity from operator
// actions and connector callbacks.
type InitiatorKind string

const (
	InitiatorKindScheduler InitiatorKind = "scheduler"
	InitiatorKindOperator  InitiatorKind = "operator"
	InitiatorKindSystem    InitiatorKind = "system"
)

// Initiator identifies the actor behind a run or a manual correction.
type Initiator struct {
	Kind        InitiatorKind `json:"kind"`
	ID          string        `json:"id,omitempty"`
	DisplayName string        `json:"display_name,omitempty"`
}

// SchedulerInitiator is the actor for unattended scheduled runs.
func SchedulerInitiator() Initiator {
	return Initiator{Kind: InitiatorKindScheduler, DisplayName: "scheduler"}
}

// OperatorInitiator identifies a human operator.
func OperatorInitiator(operatorID, displayName string) (Initiator, error) {
	if operatorID == "" {
		return Initiator{}, fmt.Errorf("operator ID is required")
	}
	return Initiator{Kind: InitiatorKindOperator, ID: operatorID, DisplayName: displayName}, nil
}

func (i Initiator) String() string {
	if i.DisplayName != "" {
		return fmt.Sprintf("%s(%s)", i.Kind, i.DisplayName)
	}
	return string(i.Kind)
}
