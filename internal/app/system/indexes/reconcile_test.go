package indexes_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	indexstore "github.com/dalemusser/sentinelboot/internal/app/store/indexes"
	"github.com/dalemusser/sentinelboot/internal/app/system/indexes"
	"github.com/dalemusser/sentinelboot/internal/domain/models"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestPlan_OrderIndependentMatch(t *testing.T) {
	tests := []struct {
		name     string
		required []string
		existing [][]string
		want     models.Action
	}{
		{"no indexes", []string{"A", "B"}, nil, models.Created},
		{"same order", []string{"A", "B"}, [][]string{{"A", "B"}}, models.AlreadyPresent},
		{"reversed order", []string{"B", "A"}, [][]string{{"A", "B"}}, models.AlreadyPresent},
		{"prefix only", []string{"A", "B"}, [][]string{{"A"}}, models.Created},
		{"wider index", []string{"A"}, [][]string{{"A", "B"}}, models.Created},
		{"among others", []string{"annotMd5"}, [][]string{{"_id"}, {"annotMd5"}}, models.AlreadyPresent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := models.NewIndexRequirement("c", "", true, tt.required...)
			var existing []models.ExistingIndex
			for _, fields := range tt.existing {
				existing = append(existing, models.ExistingIndex{Keys: models.NewFieldSet(fields...)})
			}
			if got := indexes.Plan(req, existing); got != tt.want {
				t.Errorf("Plan(%v, %v) = %q, want %q", tt.required, tt.existing, got, tt.want)
			}
		})
	}
}

func TestPlan_IgnoresUniquenessOfExisting(t *testing.T) {
	req := models.NewIndexRequirement("annotations", "", true, "annotMd5")
	existing := []models.ExistingIndex{{Name: "annotMd5_1", Keys: models.NewFieldSet("annotMd5"), Unique: false}}
	if got := indexes.Plan(req, existing); got != models.AlreadyPresent {
		t.Errorf("Plan = %q, want %q", got, models.AlreadyPresent)
	}
}

func TestRequired_Table(t *testing.T) {
	reqs := indexes.Required()
	want := []struct {
		coll   string
		fields []string
	}{
		{"fs.files", []string{"md5", "metadata.uploader"}},
		{"annotations", []string{"annotMd5"}},
		{"references", []string{"combinedMd5"}},
	}
	if len(reqs) != len(want) {
		t.Fatalf("Required() has %d entries, want %d", len(reqs), len(want))
	}
	for i, w := range want {
		if reqs[i].Collection != w.coll {
			t.Errorf("reqs[%d].Collection = %q, want %q", i, reqs[i].Collection, w.coll)
		}
		if !reqs[i].Keys.Equal(models.NewFieldSet(w.fields...)) {
			t.Errorf("reqs[%d].Keys = %v, want %v", i, reqs[i].Keys, w.fields)
		}
		if !reqs[i].Unique {
			t.Errorf("reqs[%d] must be unique", i)
		}
	}
}

func TestEnsure_CreatesMissing(t *testing.T) {
	cat := newMemCatalog()
	req := models.NewIndexRequirement("annotations", "uniq_annotations_annotmd5", true, "annotMd5")

	res, err := indexes.Ensure(context.Background(), cat, req, zap.NewNop())
	if err != nil {
		t.Fatalf("Ensure failed: %v", err)
	}
	if res.Action != models.Created {
		t.Errorf("Action = %q, want %q", res.Action, models.Created)
	}
	if res.IndexName != "uniq_annotations_annotmd5" {
		t.Errorf("IndexName = %q", res.IndexName)
	}
	if len(cat.created) != 1 || !cat.created[0].Unique {
		t.Errorf("expected one unique create, got %+v", cat.created)
	}
}

func TestEnsure_ReversedExistingIsReused(t *testing.T) {
	cat := newMemCatalog()
	cat.add("fs.files", "metadata.uploader_1_md5_1", true, "metadata.uploader", "md5")

	req := models.NewIndexRequirement("fs.files", "uniq_fsfiles_md5_uploader", true, "md5", "metadata.uploader")
	res, err := indexes.Ensure(context.Background(), cat, req, zap.NewNop())
	if err != nil {
		t.Fatalf("Ensure failed: %v", err)
	}
	if res.Action != models.AlreadyPresent {
		t.Errorf("Action = %q, want %q", res.Action, models.AlreadyPresent)
	}
	if res.IndexName != "metadata.uploader_1_md5_1" {
		t.Errorf("IndexName = %q, want the existing index", res.IndexName)
	}
	if len(cat.created) != 0 {
		t.Errorf("expected no create, got %d", len(cat.created))
	}
}

func TestEnsureAll_PartialStateRecovery(t *testing.T) {
	cat := newMemCatalog()
	cat.add("fs.files", "md5_1_metadata.uploader_1", true, "md5", "metadata.uploader")

	results, err := indexes.EnsureAll(context.Background(), cat, indexes.Required(), zap.NewNop())
	if err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	if len(cat.created) != 2 {
		t.Fatalf("expected exactly 2 creates, got %d", len(cat.created))
	}
	if cat.created[0].Collection != "annotations" || cat.created[1].Collection != "references" {
		t.Errorf("created on %q and %q, want annotations and references",
			cat.created[0].Collection, cat.created[1].Collection)
	}
	if got := len(cat.byColl["fs.files"]); got != 1 {
		t.Errorf("fs.files has %d indexes, want 1 (left untouched)", got)
	}

	want := []models.Action{models.AlreadyPresent, models.Created, models.Created}
	for i, w := range want {
		if results[i].Action != w {
			t.Errorf("results[%d].Action = %q, want %q", i, results[i].Action, w)
		}
	}
}

func TestEnsureAll_Idempotent(t *testing.T) {
	cat := newMemCatalog()

	if _, err := indexes.EnsureAll(context.Background(), cat, indexes.Required(), zap.NewNop()); err != nil {
		t.Fatalf("first EnsureAll failed: %v", err)
	}
	firstCreates := len(cat.created)

	results, err := indexes.EnsureAll(context.Background(), cat, indexes.Required(), zap.NewNop())
	if err != nil {
		t.Fatalf("second EnsureAll failed: %v", err)
	}
	if len(cat.created) != firstCreates {
		t.Errorf("second run created %d indexes, want 0", len(cat.created)-firstCreates)
	}
	for _, r := range results {
		if r.Action != models.AlreadyPresent {
			t.Errorf("%s: Action = %q on second run", r.Requirement.Collection, r.Action)
		}
	}
}

func TestEnsure_UniqueViolationIsFatalWithContext(t *testing.T) {
	cat := newMemCatalog()
	cat.createErr = func(models.IndexRequirement) error {
		return indexstore.ErrUniqueViolation
	}

	req := models.NewIndexRequirement("fs.files", "uniq_fsfiles_md5_uploader", true, "md5", "metadata.uploader")
	_, err := indexes.Ensure(context.Background(), cat, req, zap.NewNop())
	if !errors.Is(err, indexstore.ErrUniqueViolation) {
		t.Fatalf("expected ErrUniqueViolation, got %v", err)
	}
	msg := err.Error()
	for _, want := range []string{"fs.files", "md5", "metadata.uploader", "$group"} {
		if !strings.Contains(msg, want) {
			t.Errorf("error %q should mention %q", msg, want)
		}
	}
}

func TestEnsureAll_StopsAtFirstError(t *testing.T) {
	cat := newMemCatalog()
	boom := errors.New("not authorized on sentinel to execute command")
	cat.createErr = func(req models.IndexRequirement) error {
		if req.Collection == "annotations" {
			return boom
		}
		return nil
	}

	results, err := indexes.EnsureAll(context.Background(), cat, indexes.Required(), zap.NewNop())
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped error, got %v", err)
	}
	if len(results) != 1 {
		t.Errorf("expected 1 completed result before failure, got %d", len(results))
	}
	for _, req := range cat.created {
		if req.Collection == "references" {
			t.Error("references index must not be attempted after a fatal error")
		}
	}
}

func TestEnsure_ListErrorPropagates(t *testing.T) {
	cat := newMemCatalog()
	cat.listErr = context.DeadlineExceeded

	req := models.NewIndexRequirement("annotations", "", true, "annotMd5")
	_, err := indexes.Ensure(context.Background(), cat, req, zap.NewNop())
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected DeadlineExceeded, got %v", err)
	}
}

func TestEnsure_RaceWithConcurrentCreator(t *testing.T) {
	cat := newMemCatalog()
	cat.beforeCreate = func(c *memCatalog, req models.IndexRequirement) {
		// Another bootstrap run creates the same fields under its own name.
		c.add(req.Collection, "combinedMd5_1", true, "combinedMd5")
	}
	cat.createErr = func(models.IndexRequirement) error {
		return indexstore.ErrOptionsConflict
	}

	req := models.NewIndexRequirement("references", "uniq_references_combinedmd5", true, "combinedMd5")
	res, err := indexes.Ensure(context.Background(), cat, req, zap.NewNop())
	if err != nil {
		t.Fatalf("Ensure failed: %v", err)
	}
	if res.Action != models.AlreadyPresent || res.IndexName != "combinedMd5_1" {
		t.Errorf("got %+v, want AlreadyPresent on combinedMd5_1", res)
	}
}

func TestEnsure_ChangedKeySetDoesNotClashOnName(t *testing.T) {
	cat := newMemCatalog()
	earlier := models.NewIndexRequirement("fs.files", "", true, "md5", "uploader")
	cat.add(earlier.Collection, earlier.Name, true, "md5", "uploader")
	// The server rejects a second index under an existing name.
	cat.createErr = func(req models.IndexRequirement) error {
		for _, ex := range cat.byColl[req.Collection] {
			if ex.Name == req.Name {
				return indexstore.ErrOptionsConflict
			}
		}
		return nil
	}

	res, err := indexes.Ensure(context.Background(), cat, indexes.Required()[0], zap.NewNop())
	if err != nil {
		t.Fatalf("Ensure failed: %v", err)
	}
	if res.Action != models.Created {
		t.Errorf("Action = %q, want %q", res.Action, models.Created)
	}
	if res.IndexName == earlier.Name {
		t.Errorf("new index reused the name %q of a different key set", earlier.Name)
	}
	if len(cat.byColl["fs.files"]) != 2 {
		t.Errorf("expected earlier and new index side by side, got %d", len(cat.byColl["fs.files"]))
	}
}

func TestEnsure_UnresolvedConflictIsFatal(t *testing.T) {
	cat := newMemCatalog()
	cat.createErr = func(models.IndexRequirement) error {
		return indexstore.ErrOptionsConflict
	}

	req := models.NewIndexRequirement("references", "uniq_references_combinedmd5", true, "combinedMd5")
	_, err := indexes.Ensure(context.Background(), cat, req, zap.NewNop())
	if !errors.Is(err, indexes.ErrIndexConflict) {
		t.Errorf("expected ErrIndexConflict, got %v", err)
	}
}

func TestEnsure_RejectsEmptyKeys(t *testing.T) {
	cat := newMemCatalog()
	_, err := indexes.Ensure(context.Background(), cat, models.IndexRequirement{Collection: "annotations"}, zap.NewNop())
	if err == nil {
		t.Fatal("expected error for empty key set")
	}
	if cat.listN != 0 {
		t.Error("catalog must not be queried for an invalid requirement")
	}
}

func TestCheckAll_DoesNotWrite(t *testing.T) {
	cat := newMemCatalog()
	cat.add("annotations", "annotMd5_1", true, "annotMd5")

	results, err := indexes.CheckAll(context.Background(), cat, indexes.Required())
	if err != nil {
		t.Fatalf("CheckAll failed: %v", err)
	}
	if len(cat.created) != 0 {
		t.Errorf("CheckAll created %d indexes", len(cat.created))
	}
	want := []models.Action{models.Created, models.AlreadyPresent, models.Created}
	for i, w := range want {
		if results[i].Action != w {
			t.Errorf("results[%d].Action = %q, want %q", i, results[i].Action, w)
		}
	}
}

func TestEnsure_LogsReuse(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	cat := newMemCatalog()
	cat.add("annotations", "annotMd5_1", true, "annotMd5")

	req := models.NewIndexRequirement("annotations", "uniq_annotations_annotmd5", true, "annotMd5")
	if _, err := indexes.Ensure(context.Background(), cat, req, zap.New(core)); err != nil {
		t.Fatalf("Ensure failed: %v", err)
	}

	if n := logs.FilterMessage("reusing existing index").Len(); n != 1 {
		t.Errorf("expected 1 reuse log entry, got %d", n)
	}
	if n := logs.FilterMessage("index ensured").Len(); n != 0 {
		t.Errorf("expected no create log entry, got %d", n)
	}
}

func TestDuplicateFinder(t *testing.T) {
	req := models.NewIndexRequirement("fs.files", "", true, "md5", "metadata.uploader")
	got := indexes.DuplicateFinder(req)
	for _, want := range []string{`db.getCollection("fs.files")`, `md5: "$md5"`, `metadata_uploader: "$metadata.uploader"`} {
		if !strings.Contains(got, want) {
			t.Errorf("DuplicateFinder() = %s, missing %s", got, want)
		}
	}
}
