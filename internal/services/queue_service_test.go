package services

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"testing"
)

// noDBConnector fails every connection attempt, so a test can tell whether a
// call was rejected before or after it reached the database.
type noDBConnector struct{}

func (noDBConnector) Connect(context.Context) (driver.Conn, error) {
	return nil, errors.New("no database configured")
}

func (noDBConnector) Driver() driver.Driver { return nil }

func TestJoinGroupSizeGate(t *testing.T) {
	svc := &queueService{db: sql.OpenDB(noDBConnector{})}

	lead := JoinRequest{
		CustomerName:  "Pai",
		CustomerPhone: "11999990001",
		ServiceIDs:    []int64{1},
	}
	companion := GroupMember{CustomerName: "Filho", ServiceIDs: []int64{1}}

	sixCompanions := make([]GroupMember, 6)
	for i := range sixCompanions {
		sixCompanions[i] = companion
	}
	if _, err := svc.JoinGroup(GroupJoinRequest{Lead: lead, Members: sixCompanions}); !errors.Is(err, ErrGroupJoinFailed) {
		t.Fatalf("expected ErrGroupJoinFailed for a seven-person group, got %v", err)
	}

	// Five companions plus the lead is the largest allowed group; the call
	// must pass the size gate and fail only on the missing database.
	fiveCompanions := sixCompanions[:5]
	if _, err := svc.JoinGroup(GroupJoinRequest{Lead: lead, Members: fiveCompanions}); errors.Is(err, ErrGroupJoinFailed) {
		t.Fatalf("expected a six-person group to pass the size gate, got %v", err)
	}
}
