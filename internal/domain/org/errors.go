package org

import (
	"fmt"

	"github.com/google/uuid"
)

// ErrAreaNotFound indicates missing area
type ErrAreaNotFound struct {
	AreaID uuid.UUID
}

func (e ErrAreaNotFound) Error() string {
	return "area not found: " + e.AreaID.String()
}

// ErrDepartmentNotFound indicates missing department
type ErrDepartmentNotFound struct {
	DepartmentID uuid.UUID
}

func (e ErrDepartmentNotFound) Error() string {
	return "department not found: " + e.DepartmentID.String()
}

// ErrBankAccountNotFound indicates missing or soft-deleted bank account
type ErrBankAccountNotFound struct {
	BankAccountID uuid.UUID
}

func (e ErrBankAccountNotFound) Error() string {
	return "bank account not found: " + e.BankAccountID.String()
}

// ErrDepartmentAreaMismatch indicates a department used outside its own area
type ErrDepartmentAreaMismatch struct {
	DepartmentID uuid.UUID
	AreaID       uuid.UUID
}

func (e ErrDepartmentAreaMismatch) Error() string {
	return fmt.Sprintf("department %s does not belong to area %s", e.DepartmentID, e.AreaID)
}

// ErrEntityInUse blocks deleting a record that financial history still references
type ErrEntityInUse struct {
	Entity string
	ID     uuid.UUID
	Reason string
}

func (e ErrEntityInUse) Error() string {
	return fmt.Sprintf("%s %s cannot be deleted: %s", e.Entity, e.ID, e.Reason)
}
