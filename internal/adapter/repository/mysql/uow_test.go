package mysql

import (
	"context"
	"errors"
	"testing"

	"mini-los/internal/domain/loan"
	"mini-los/internal/sandbox"
)

func TestGormUoW_WithinTx_Commit(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	guow := NewGormUoW(db)
	u := seedUser(t, db, "c@example.com")

	var id uint64
	err := guow.WithinTx(ctx, func(r sandbox.Repos) error {
		a := makeApplication(u.ID, "ABCDE1234F", loan.StatusDraft)
		if err := r.Applications.Create(ctx, a); err != nil {
			return err
		}
		id = a.ID
		return r.Results.SaveKYC(ctx, &sandbox.KYCRecord{ApplicationID: a.ID, Status: "PENDING"})
	})
	if err != nil {
		t.Fatalf("WithinTx commit err: %v", err)
	}

	repos := NewRepos(db)
	if _, err := repos.Applications.GetByID(ctx, id); err != nil {
		t.Fatalf("application not visible after commit: %v", err)
	}
	if res, err := repos.Results.Load(ctx, id); err != nil || res.KYC == nil {
		t.Fatalf("kyc not visible after commit: %+v, %v", res, err)
	}
}

func TestGormUoW_WithinTx_Rollback(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	guow := NewGormUoW(db)
	u := seedUser(t, db, "rb@example.com")

	sentinel := errors.New("boom")
	var id uint64
	err := guow.WithinTx(ctx, func(r sandbox.Repos) error {
		a := makeApplication(u.ID, "ABCDE1234F", loan.StatusDraft)
		if err := r.Applications.Create(ctx, a); err != nil {
			return err
		}
		id = a.ID
		return sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("err = %v", err)
	}
	if _, err := NewApplicationRepository(db).GetByID(ctx, id); !errors.Is(err, sandbox.ErrNotFound) {
		t.Fatalf("expected application gone after rollback, got %v", err)
	}
}

func TestGormUoW_WithinApplicationTx(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	guow := NewGormUoW(db)
	u := seedUser(t, db, "lk@example.com")
	repo := NewApplicationRepository(db)

	seed := makeApplication(u.ID, "ABCDE1234F", loan.StatusDraft)
	if err := repo.Create(ctx, seed); err != nil {
		t.Fatalf("seed: %v", err)
	}

	err := guow.WithinApplicationTx(ctx, seed.ID, func(r sandbox.Repos, a *sandbox.Application) error {
		if a.ID != seed.ID || a.Status != "DRAFT" {
			t.Fatalf("locked row mismatch: %+v", a)
		}
		a.Status = loan.StatusKYCPending.String()
		return r.Applications.Save(ctx, a)
	})
	if err != nil {
		t.Fatalf("WithinApplicationTx: %v", err)
	}
	got, _ := repo.GetByID(ctx, seed.ID)
	if got.Status != "KYC_PENDING" {
		t.Fatalf("status = %s", got.Status)
	}

	// a failing callback leaves the row untouched
	_ = guow.WithinApplicationTx(ctx, seed.ID, func(r sandbox.Repos, a *sandbox.Application) error {
		a.Status = loan.StatusNotEligible.String()
		if err := r.Applications.Save(ctx, a); err != nil {
			return err
		}
		return errors.New("abort")
	})
	got, _ = repo.GetByID(ctx, seed.ID)
	if got.Status != "KYC_PENDING" {
		t.Fatalf("rolled back status = %s", got.Status)
	}

	called := false
	err = guow.WithinApplicationTx(ctx, 999, func(sandbox.Repos, *sandbox.Application) error {
		called = true
		return nil
	})
	if !errors.Is(err, sandbox.ErrNotFound) || called {
		t.Fatalf("missing application: err=%v called=%v", err, called)
	}
}
