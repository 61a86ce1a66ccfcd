package database

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const checkIn = `
INSERT INTO attendance (user_id, work_date, check_in)
VALUES ($1, $2, now())
ON CONFLICT (user_id, work_date) DO NOTHING
RETURNING id, user_id, work_date, check_in, check_out
`

type CheckInParams struct {
	UserID   uuid.UUID
	WorkDate time.Time
}

// CheckIn records the first check-in of the day. pgx.ErrNoRows means the
// user already checked in for that work date.
func (q *Queries) CheckIn(ctx context.Context, arg CheckInParams) (Attendance, error) {
	row := q.db.QueryRow(ctx, checkIn, arg.UserID, arg.WorkDate)
	var a Attendance
	err := row.Scan(&a.ID, &a.UserID, &a.WorkDate, &a.CheckIn, &a.CheckOut)
	return a, err
}

const checkOut = `
UPDATE attendance
SET check_out = now()
WHERE user_id = $1 AND work_date = $2 AND check_out IS NULL
RETURNING id, user_id, work_date, check_in, check_out
`

type CheckOutParams struct {
	UserID   uuid.UUID
	WorkDate time.Time
}

func (q *Queries) CheckOut(ctx context.Context, arg CheckOutParams) (Attendance, error) {
	row := q.db.QueryRow(ctx, checkOut, arg.UserID, arg.WorkDate)
	var a Attendance
	err := row.Scan(&a.ID, &a.UserID, &a.WorkDate, &a.CheckIn, &a.CheckOut)
	return a, err
}

const listAttendance = `
SELECT id, user_id, work_date, check_in, check_out
FROM attendance
WHERE work_date >= $1 AND work_date <= $2
ORDER BY work_date DESC, check_in
`

type ListAttendanceParams struct {
	StartDate time.Time
	EndDate   time.Time
}

func (q *Queries) ListAttendance(ctx context.Context, arg ListAttendanceParams) ([]Attendance, error) {
	rows, err := q.db.Query(ctx, listAttendance, arg.StartDate, arg.EndDate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Attendance
	for rows.Next() {
		var a Attendance
		if err := rows.Scan(&a.ID, &a.UserID, &a.WorkDate, &a.CheckIn, &a.CheckOut); err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	return items, rows.Err()
}
