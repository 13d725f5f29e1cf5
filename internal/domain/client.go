package domain

import "time"

type ClientStatus string

const (
	ClientStatusPending ClientStatus = "pending"
	ClientStatusPaid    ClientStatus = "paid"
)

// Client is a debtor tracked by one operator account.
type Client struct {
	ID         string
	OperatorID int64

	Name  string
	Phone string

	DebtAmount float64
	DueDate    time.Time
	Status     ClientStatus

	CreatedAt *time.Time
	UpdatedAt *time.Time
}

// DaysLate returns how many days past due the client is at the given date.
// Zero or negative means not yet late.
func (c Client) DaysLate(now time.Time) int {
	due := time.Date(c.DueDate.Year(), c.DueDate.Month(), c.DueDate.Day(), 0, 0, 0, 0, time.UTC)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return int(today.Sub(due).Hours() / 24)
}
