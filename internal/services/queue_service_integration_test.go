package services

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"barbershop_backend/internal/models"
	"barbershop_backend/internal/notify"
	"barbershop_backend/internal/repositories"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// setupQueueService wires a real QueueService against a throwaway schema in
// the database named by QUEUE_TEST_DATABASE_URL. Skipped when unset.
func setupQueueService(t *testing.T) (QueueService, *sql.DB) {
	t.Helper()
	dsn := os.Getenv("QUEUE_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("QUEUE_TEST_DATABASE_URL is required for integration tests")
	}

	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		parsed, err := pq.ParseURL(dsn)
		if err != nil {
			t.Fatalf("parse dsn: %v", err)
		}
		dsn = parsed
	}

	schema := "test_" + strings.ReplaceAll(uuid.NewString(), "-", "")

	admin, err := sql.Open("postgres", dsn)
	if err != nil {
		t.Fatalf("open admin connection: %v", err)
	}
	if _, err := admin.Exec("CREATE SCHEMA " + schema); err != nil {
		admin.Close()
		t.Fatalf("create schema: %v", err)
	}

	db, err := sql.Open("postgres", dsn+" options='-csearch_path="+schema+"'")
	if err != nil {
		t.Fatalf("open test connection: %v", err)
	}

	ddl, err := os.ReadFile(filepath.Join("..", "..", "db_schema.sql"))
	if err != nil {
		t.Fatalf("read schema file: %v", err)
	}
	if _, err := db.Exec(string(ddl)); err != nil {
		t.Fatalf("apply schema: %v", err)
	}

	t.Cleanup(func() {
		db.Close()
		if _, err := admin.Exec("DROP SCHEMA " + schema + " CASCADE"); err != nil {
			t.Logf("drop schema: %v", err)
		}
		admin.Close()
	})

	svc := NewQueueService(
		repositories.NewTicketRepository(db),
		repositories.NewServiceRepository(db),
		repositories.NewBarberRepository(db),
		repositories.NewSettingsRepository(db),
		repositories.NewTransferRepository(db),
		repositories.NewAttendanceRepository(db),
		repositories.NewOutboxRepository(db),
		notify.NopDispatcher{},
		db,
	)
	return svc, db
}

func seedCatalogService(t *testing.T, db *sql.DB, name string, price float64) int64 {
	t.Helper()
	serviceRepo := repositories.NewServiceRepository(db)
	id, err := serviceRepo.CreateService(db, &models.Service{
		Name:            name,
		Price:           price,
		DurationMinutes: 30,
		Active:          true,
	})
	if err != nil {
		t.Fatalf("create service: %v", err)
	}
	return id
}

func TestJoinRejectsDuplicatePhone(t *testing.T) {
	svc, db := setupQueueService(t)
	serviceID := seedCatalogService(t, db, "Corte", 50)

	first, err := svc.Join(JoinRequest{
		CustomerName:  "Joao",
		CustomerPhone: "(11) 99999-0001",
		Origin:        models.OriginWalkin,
		ServiceIDs:    []int64{serviceID},
	})
	if err != nil {
		t.Fatalf("first join: %v", err)
	}
	if first.Position != 1 {
		t.Fatalf("expected position 1, got %d", first.Position)
	}

	// Same phone written with different punctuation.
	_, err = svc.Join(JoinRequest{
		CustomerName:  "Joao again",
		CustomerPhone: "11999990001",
		Origin:        models.OriginWalkin,
		ServiceIDs:    []int64{serviceID},
	})
	if !errors.Is(err, ErrDuplicateActiveTicket) {
		t.Fatalf("expected ErrDuplicateActiveTicket, got %v", err)
	}
}

func TestJoinGroupRollsBackOnBadMember(t *testing.T) {
	svc, db := setupQueueService(t)
	serviceID := seedCatalogService(t, db, "Corte", 50)

	_, err := svc.JoinGroup(GroupJoinRequest{
		Lead: JoinRequest{
			CustomerName:  "Pai",
			CustomerPhone: "11999990002",
			Origin:        models.OriginWalkin,
			ServiceIDs:    []int64{serviceID},
		},
		Members: []GroupMember{
			{
				CustomerName: "Filho",
				ServiceIDs:   []int64{999999},
			},
		},
	})
	if !errors.Is(err, ErrGroupJoinFailed) {
		t.Fatalf("expected ErrGroupJoinFailed, got %v", err)
	}

	waiting, err := svc.ListWaiting()
	if err != nil {
		t.Fatalf("list waiting: %v", err)
	}
	if len(waiting) != 0 {
		t.Fatalf("expected empty queue after rollback, got %d tickets", len(waiting))
	}
}

func seedQueueBarber(t *testing.T, db *sql.DB, name string) int64 {
	t.Helper()
	barberRepo := repositories.NewBarberRepository(db)
	id, err := barberRepo.CreateBarber(db, &models.Barber{
		DisplayName:          name,
		Available:            true,
		Status:               models.BarberStatusOnline,
		CommissionPercentage: 50,
	})
	if err != nil {
		t.Fatalf("create barber: %v", err)
	}
	return id
}

func TestJoinGroupSharesGroupID(t *testing.T) {
	svc, db := setupQueueService(t)
	serviceID := seedCatalogService(t, db, "Corte", 50)
	barberID := seedQueueBarber(t, db, "Carlos")

	positions, err := svc.JoinGroup(GroupJoinRequest{
		Lead: JoinRequest{
			CustomerName:  "Pai",
			CustomerPhone: "11999990004",
			Origin:        models.OriginWalkin,
			ServiceIDs:    []int64{serviceID},
			BarberID:      &barberID,
		},
		Members: []GroupMember{
			{
				CustomerName: "Filho",
				ServiceIDs:   []int64{serviceID},
			},
		},
	})
	if err != nil {
		t.Fatalf("group join: %v", err)
	}
	if len(positions) != 2 {
		t.Fatalf("expected 2 positions, got %d", len(positions))
	}

	lead, member := positions[0].Ticket, positions[1].Ticket
	if lead.GroupID == nil || member.GroupID == nil {
		t.Fatal("expected group IDs on both tickets")
	}
	if *lead.GroupID != *member.GroupID {
		t.Fatalf("expected shared group ID, got %s and %s", *lead.GroupID, *member.GroupID)
	}
	if positions[0].Position+1 != positions[1].Position {
		t.Fatalf("expected consecutive positions, got %d and %d", positions[0].Position, positions[1].Position)
	}

	// The companion rides on the lead's contact and inherits their barber.
	if member.CustomerPhone != lead.CustomerPhone {
		t.Fatalf("expected shared phone, got %s and %s", lead.CustomerPhone, member.CustomerPhone)
	}
	if member.BarberID == nil || *member.BarberID != barberID {
		t.Fatalf("expected companion bound to barber %d, got %v", barberID, member.BarberID)
	}
}

func TestJoinGroupCompanionPicksOwnBarber(t *testing.T) {
	svc, db := setupQueueService(t)
	serviceID := seedCatalogService(t, db, "Corte", 50)
	leadBarber := seedQueueBarber(t, db, "Carlos")
	memberBarber := seedQueueBarber(t, db, "Miguel")

	positions, err := svc.JoinGroup(GroupJoinRequest{
		Lead: JoinRequest{
			CustomerName:  "Pai",
			CustomerPhone: "11999990009",
			Origin:        models.OriginWalkin,
			ServiceIDs:    []int64{serviceID},
			BarberID:      &leadBarber,
		},
		Members: []GroupMember{
			{
				CustomerName: "Filho",
				ServiceIDs:   []int64{serviceID},
				BarberID:     &memberBarber,
			},
		},
	})
	if err != nil {
		t.Fatalf("group join: %v", err)
	}

	member := positions[1].Ticket
	if member.BarberID == nil || *member.BarberID != memberBarber {
		t.Fatalf("expected companion bound to barber %d, got %v", memberBarber, member.BarberID)
	}
}

func TestJoinGroupAllowsFiveCompanions(t *testing.T) {
	svc, db := setupQueueService(t)
	serviceID := seedCatalogService(t, db, "Corte", 50)

	members := make([]GroupMember, 5)
	for i := range members {
		members[i] = GroupMember{
			CustomerName: fmt.Sprintf("Filho %d", i+1),
			ServiceIDs:   []int64{serviceID},
		}
	}

	positions, err := svc.JoinGroup(GroupJoinRequest{
		Lead: JoinRequest{
			CustomerName:  "Pai",
			CustomerPhone: "11999990010",
			Origin:        models.OriginWalkin,
			ServiceIDs:    []int64{serviceID},
		},
		Members: members,
	})
	if err != nil {
		t.Fatalf("group join with five companions: %v", err)
	}
	if len(positions) != 6 {
		t.Fatalf("expected 6 tickets, got %d", len(positions))
	}
}

func TestJoinRespectsCapacity(t *testing.T) {
	svc, db := setupQueueService(t)
	serviceID := seedCatalogService(t, db, "Corte", 50)

	if _, err := db.Exec("UPDATE queue_settings SET max_queue_size = 1 WHERE id = 1"); err != nil {
		t.Fatalf("shrink queue: %v", err)
	}

	if _, err := svc.Join(JoinRequest{
		CustomerName:  "Joao",
		CustomerPhone: "11999990006",
		Origin:        models.OriginWalkin,
		ServiceIDs:    []int64{serviceID},
	}); err != nil {
		t.Fatalf("first join: %v", err)
	}

	_, err := svc.Join(JoinRequest{
		CustomerName:  "Maria",
		CustomerPhone: "11999990007",
		Origin:        models.OriginWalkin,
		ServiceIDs:    []int64{serviceID},
	})
	if !errors.Is(err, ErrCapacityExceeded) {
		t.Fatalf("expected ErrCapacityExceeded, got %v", err)
	}
}

func TestJoinRejectsClosedGate(t *testing.T) {
	svc, db := setupQueueService(t)
	serviceID := seedCatalogService(t, db, "Corte", 50)

	if _, err := db.Exec("UPDATE queue_settings SET active = FALSE WHERE id = 1"); err != nil {
		t.Fatalf("close gate: %v", err)
	}

	// The panic switch blocks walk-ins too, not only online joins.
	_, err := svc.Join(JoinRequest{
		CustomerName:  "Joao",
		CustomerPhone: "11999990008",
		Origin:        models.OriginWalkin,
		ServiceIDs:    []int64{serviceID},
	})
	if !errors.Is(err, ErrQueueClosed) {
		t.Fatalf("expected ErrQueueClosed, got %v", err)
	}
}
