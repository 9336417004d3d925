package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"

	"github.com/hazyhaar/vetmap/classify"
	"github.com/hazyhaar/vetmap/dbopen"
	"github.com/hazyhaar/vetmap/people"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	d, err := New(dbopen.OpenMemory(t))
	if err != nil {
		t.Fatal(err)
	}
	return d
}

func TestUpsertAndReadClinic(t *testing.T) {
	d := testDB(t)
	ctx := context.Background()

	c := Clinic{
		Name:           "Tierklinik Muster",
		Website:        "https://muster.ch",
		ClinicStatus:   classify.StatusYes,
		Specialization: "small animals, horses",
		Reason:         classify.ReasonMatch,
		Staff:          &people.Counts{FemaleDoctors: 2, MaleDoctors: 1},
		RunID:          "run-1",
	}
	if err := d.UpsertClinic(ctx, c); err != nil {
		t.Fatal(err)
	}

	got, ok, err := d.Clinic(ctx, "Tierklinik Muster")
	if err != nil || !ok {
		t.Fatalf("Clinic: ok=%v err=%v", ok, err)
	}
	if got.ClinicStatus != classify.StatusYes || got.Specialization != "small animals, horses" {
		t.Errorf("row = %+v", got)
	}
	if got.Staff == nil || got.Staff.FemaleDoctors != 2 {
		t.Errorf("staff = %+v", got.Staff)
	}

	flags := got.Flags()
	if !flags.SmallAnimals || flags.LargeAnimals || !flags.Horses {
		t.Errorf("flags = %+v, want small animals and horses", flags)
	}
}

func TestUpsertOverwrites(t *testing.T) {
	d := testDB(t)
	ctx := context.Background()

	first := Clinic{Name: "X", ClinicStatus: classify.StatusUncertain, Reason: classify.ReasonSkipped}
	if err := d.UpsertClinic(ctx, first); err != nil {
		t.Fatal(err)
	}
	second := Clinic{Name: "X", ClinicStatus: classify.StatusYes, Specialization: "horses", Reason: classify.ReasonMatch}
	if err := d.UpsertClinic(ctx, second); err != nil {
		t.Fatal(err)
	}

	got, ok, err := d.Clinic(ctx, "X")
	if err != nil || !ok {
		t.Fatal(err)
	}
	if got.ClinicStatus != classify.StatusYes || got.Specialization != "horses" {
		t.Errorf("row after overwrite = %+v", got)
	}
}

func TestAlreadyClassified(t *testing.T) {
	d := testDB(t)
	ctx := context.Background()

	rows := []Clinic{
		{Name: "Yes", ClinicStatus: classify.StatusYes},
		{Name: "No", ClinicStatus: classify.StatusNo},
		{Name: "Maybe", ClinicStatus: classify.StatusUncertain},
	}
	if err := d.SaveBatch(ctx, rows); err != nil {
		t.Fatal(err)
	}

	cases := map[string]bool{"Yes": true, "No": true, "Maybe": false, "Unknown": false}
	for name, want := range cases {
		got, err := d.AlreadyClassified(ctx, name)
		if err != nil {
			t.Fatal(err)
		}
		if got != want {
			t.Errorf("AlreadyClassified(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestStatusCounts(t *testing.T) {
	d := testDB(t)
	ctx := context.Background()

	rows := []Clinic{
		{Name: "A", ClinicStatus: classify.StatusYes},
		{Name: "B", ClinicStatus: classify.StatusYes},
		{Name: "C", ClinicStatus: classify.StatusUncertain},
	}
	if err := d.SaveBatch(ctx, rows); err != nil {
		t.Fatal(err)
	}
	counts, err := d.StatusCounts(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if counts[classify.StatusYes] != 2 || counts[classify.StatusUncertain] != 1 {
		t.Errorf("counts = %v", counts)
	}
}

func TestContentStore(t *testing.T) {
	cs, err := NewContentStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	name := "Tierklinik Dr. Müller & Partner"
	if cs.HasArtifact(name) {
		t.Fatal("fresh store should have no artifacts")
	}
	if err := cs.SaveText(name, "combined team text"); err != nil {
		t.Fatal(err)
	}
	if !cs.HasArtifact(name) {
		t.Error("text artifact not detected")
	}

	data, err := os.ReadFile(cs.TextPath(name))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "combined team text" {
		t.Errorf("text = %q", data)
	}

	if err := cs.SaveFailed(name, `no json here`); err != nil {
		t.Fatal(err)
	}
	failed := filepath.Join(filepath.Dir(cs.TextPath(name)), "failed")
	entries, err := os.ReadDir(failed)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("failed dir entries = %d, want 1", len(entries))
	}
}

func TestLoadClinicsCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clinics.csv")
	csvData := "Name,Website,Clinic\nPraxis A,https://a.ch,yes\nPraxis B,https://b.ch,\n,https://headless.ch,\n"
	if err := os.WriteFile(path, []byte(csvData), 0o644); err != nil {
		t.Fatal(err)
	}

	clinics, err := LoadClinicsCSV(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(clinics) != 2 {
		t.Fatalf("got %d clinics, want 2 (nameless row dropped)", len(clinics))
	}
	if clinics[0].Name != "Praxis A" || clinics[0].ClinicStatus != classify.StatusYes {
		t.Errorf("first clinic = %+v", clinics[0])
	}
}

func TestLoadClinicsCSVHeaderVariants(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clinics.csv")
	csvData := " NAME ,Website:,clinic\nPraxis A,https://a.ch,yes\n"
	if err := os.WriteFile(path, []byte(csvData), 0o644); err != nil {
		t.Fatal(err)
	}

	clinics, err := LoadClinicsCSV(path)
	if err != nil {
		t.Fatalf("LoadClinicsCSV: %v", err)
	}
	if len(clinics) != 1 {
		t.Fatalf("got %d clinics, want 1", len(clinics))
	}
	got := clinics[0]
	if got.Name != "Praxis A" || got.Website != "https://a.ch" || got.ClinicStatus != classify.StatusYes {
		t.Errorf("clinic = %+v", got)
	}
}

func TestLoadClinicsCSVMissingColumn(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.csv")
	if err := os.WriteFile(path, []byte("Name,URL\nA,x\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadClinicsCSV(path); err == nil {
		t.Fatal("expected an error for a missing Website column")
	}
}
