// Package quotation holds the cotação draft: its status workflow, the
// immutable edit reducer, wire records, bulk import transforms and the
// service that moves drafts between the pricing engine and storage.
package quotation

import (
	"errors"
	"fmt"
	"time"
)

// Status is the quotation lifecycle state.
type Status string

const (
	StatusPending       Status = "pendente"
	StatusApproved      Status = "aprovada"
	StatusRejected      Status = "reprovada"
	StatusRenegotiation Status = "renegociacao"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusRenegotiation:
		return true
	}
	return false
}

// Editable reports whether line items may be mutated in this status.
func (s Status) Editable() bool {
	return s == StatusPending || s == StatusRenegotiation
}

// Action is a reviewer or buyer decision that moves the status.
type Action string

const (
	ActionApprove     Action = "approve"
	ActionReject      Action = "reject"
	ActionRenegotiate Action = "renegotiate"
	ActionResubmit    Action = "resubmit"
)

var transitions = map[Status]map[Action]Status{
	StatusPending: {
		ActionApprove:     StatusApproved,
		ActionReject:      StatusRejected,
		ActionRenegotiate: StatusRenegotiation,
	},
	StatusRenegotiation: {
		ActionResubmit: StatusPending,
	},
}

// Next returns the status reached by applying action to s.
func (s Status) Next(action Action) (Status, error) {
	if next, ok := transitions[s][action]; ok {
		return next, nil
	}
	return s, &InvalidStateError{Status: s, Op: string(action)}
}

var (
	// ErrInvalidState occurs when an operation is not allowed in the current status.
	ErrInvalidState = errors.New("quotation: invalid state")
	// ErrNotFound indicates the quotation does not exist.
	ErrNotFound = errors.New("quotation: not found")
	// ErrValidation indicates invalid input.
	ErrValidation = errors.New("quotation: invalid input")
	// ErrSupplierNotFound indicates an unknown supplier quote.
	ErrSupplierNotFound = errors.New("quotation: supplier not found")
	// ErrLineNotFound indicates an unknown line item.
	ErrLineNotFound = errors.New("quotation: line item not found")
	// ErrDuplicateSupplier indicates a supplier quote id already in use.
	ErrDuplicateSupplier = errors.New("quotation: duplicate supplier")
	// ErrDuplicateImport indicates an import key that was already processed.
	ErrDuplicateImport = errors.New("quotation: duplicate import")
)

// InvalidStateError reports a mutation or transition attempted against a
// quotation whose status does not allow it.
type InvalidStateError struct {
	Status Status
	Op     string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("quotation: %s not allowed in status %q", e.Op, e.Status)
}

// Is lets errors.Is(err, ErrInvalidState) match.
func (e *InvalidStateError) Is(target error) bool {
	return target == ErrInvalidState
}

// Header is the quotation-level data (the "cotacao" record).
type Header struct {
	ID        string    `json:"id"`
	Number    string    `json:"numero"`
	Title     string    `json:"titulo,omitempty"`
	Status    Status    `json:"status"`
	Round     int       `json:"rodada"`
	Version   int64     `json:"versao"`
	Note      string    `json:"observacao,omitempty"`
	CreatedBy int64     `json:"criado_por,omitempty"`
	CreatedAt time.Time `json:"criado_em"`
	UpdatedAt time.Time `json:"atualizado_em"`
}
