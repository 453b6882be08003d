package domain

import "testing"

func TestExercise_PrimaryFile(t *testing.T) {
	tests := []struct {
		name  string
		files []File
		want  string
	}{
		{
			name:  "first editable file",
			files: []File{{Name: "readme.cql", ReadOnly: true}, {Name: "main.cql"}},
			want:  "main.cql",
		},
		{
			name:  "all read-only falls back to first",
			files: []File{{Name: "a.cql", ReadOnly: true}, {Name: "b.cql", ReadOnly: true}},
			want:  "a.cql",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ex := &Exercise{Files: tt.files}
			f := ex.PrimaryFile()
			if f == nil || f.Name != tt.want {
				t.Errorf("PrimaryFile() = %v, want %q", f, tt.want)
			}
		})
	}

	t.Run("no files", func(t *testing.T) {
		ex := &Exercise{}
		if f := ex.PrimaryFile(); f != nil {
			t.Errorf("PrimaryFile() = %v, want nil", f)
		}
	})
}

func TestExercise_Solution(t *testing.T) {
	solution := `define "X": 1`
	ex := &Exercise{Files: []File{{Name: "main.cql", Solution: &solution}}}

	got, ok := ex.Solution()
	if !ok || got != solution {
		t.Errorf("Solution() = %q, %v; want %q, true", got, ok, solution)
	}

	bare := &Exercise{Files: []File{{Name: "main.cql"}}}
	if _, ok := bare.Solution(); ok {
		t.Error("Solution() should report false without a solution")
	}
}

func TestExercise_HintForLevel(t *testing.T) {
	ex := &Exercise{Hints: []Hint{
		{Level: 1, Text: "first"},
		{Level: 2, Text: "second"},
	}}

	if h := ex.HintForLevel(2); h == nil || h.Text != "second" {
		t.Errorf("HintForLevel(2) = %v", h)
	}
	if h := ex.HintForLevel(5); h != nil {
		t.Errorf("HintForLevel(5) = %v, want nil", h)
	}
}

func TestExercise_HasConcept(t *testing.T) {
	ex := &Exercise{Concepts: []string{"intervals", "operators"}}

	if !ex.HasConcept("intervals") {
		t.Error("HasConcept should find a tagged concept")
	}
	if ex.HasConcept("filtering") {
		t.Error("HasConcept should not find an untagged concept")
	}
}
