package db

import (
	"testing"

	"github.com/fastfish-data/merch.report/internal/merch"
)

func TestSaveRecommendations(t *testing.T) {
	db := setupTestDB(t)

	run := sampleRun()
	if err := db.SaveClusterRun(run, nil); err != nil {
		t.Fatal(err)
	}

	recs := []merch.Recommendation{
		{StoreCode: "S001", SPUCode: "M25S-TS-0001", Action: merch.ActionAdd, Rule: "missing-category", Reason: "peers carry it", Score: 0.8},
		{StoreCode: "S002", SPUCode: "M25S-PT-0002", Action: merch.ActionRemove, Rule: "overcapacity", Reason: "over capacity", Score: 0.95},
	}
	if err := db.SaveRecommendations(run.ID, recs); err != nil {
		t.Fatalf("SaveRecommendations failed: %v", err)
	}

	got, err := db.GetRecommendations(run.ID)
	if err != nil {
		t.Fatalf("GetRecommendations failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d recommendations, want 2", len(got))
	}
	// Highest score first.
	if got[0].StoreCode != "S002" || got[0].Action != merch.ActionRemove {
		t.Errorf("first recommendation = %+v", got[0])
	}
	if got[1].Rule != "missing-category" || got[1].Score != 0.8 {
		t.Errorf("second recommendation = %+v", got[1])
	}
}

func TestSaveRecommendations_Replaces(t *testing.T) {
	db := setupTestDB(t)

	run := sampleRun()
	if err := db.SaveClusterRun(run, nil); err != nil {
		t.Fatal(err)
	}

	first := []merch.Recommendation{
		{StoreCode: "S001", SPUCode: "M25S-TS-0001", Action: merch.ActionAdd, Rule: "missing-category", Reason: "x", Score: 0.5},
	}
	if err := db.SaveRecommendations(run.ID, first); err != nil {
		t.Fatal(err)
	}

	// Re-running allocation replaces, not appends.
	second := []merch.Recommendation{
		{StoreCode: "S009", SPUCode: "M25S-JK-0004", Action: merch.ActionSwap, Rule: "performance-gap", Reason: "y", Score: 0.7},
	}
	if err := db.SaveRecommendations(run.ID, second); err != nil {
		t.Fatal(err)
	}

	got, err := db.GetRecommendations(run.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].StoreCode != "S009" {
		t.Errorf("replacement failed, got %+v", got)
	}
}

func TestGetRecommendations_EmptyRun(t *testing.T) {
	db := setupTestDB(t)
	got, err := db.GetRecommendations("missing")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected no recommendations, got %d", len(got))
	}
}
