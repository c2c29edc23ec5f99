package get

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/edgarcoime/cthulhu-cli/internal/cthulhu/client"
	"github.com/edgarcoime/cthulhu-cli/internal/models"
	"github.com/edgarcoime/cthulhu-cli/internal/utils"
)

func TestPick(t *testing.T) {
	files := []models.SessionFile{
		{Name: "a.txt", Filename: "1_0_a.txt"},
		{Name: "b.txt", Filename: "1_1_b.txt"},
		{Name: "c.txt", Filename: "1_2_c.txt"},
	}

	tests := []struct {
		names []string
		want  []string
	}{
		{nil, []string{"a.txt", "b.txt", "c.txt"}},
		{[]string{"b.txt"}, []string{"b.txt"}},
		{[]string{"1_2_c.txt", "a.txt"}, []string{"a.txt", "c.txt"}},
		{[]string{"missing"}, []string{}},
	}

	for _, tt := range tests {
		got := pick(files, tt.names)
		if len(got) != len(tt.want) {
			t.Errorf("pick(%q) returned %d files; want %d", tt.names, len(got), len(tt.want))
			continue
		}
		for i := range got {
			if got[i].Name != tt.want[i] {
				t.Errorf("pick(%q)[%d] = %q; want %q", tt.names, i, got[i].Name, tt.want[i])
			}
		}
	}
}

func TestDestNames(t *testing.T) {
	tests := []struct {
		name  string
		files []models.SessionFile
		want  []string
	}{
		{
			name: "distinct names kept",
			files: []models.SessionFile{
				{Name: "a.txt", Filename: "1_0_a.txt"},
				{Name: "b.txt", Filename: "1_1_b.txt"},
			},
			want: []string{"a.txt", "b.txt"},
		},
		{
			name: "shared name uses stored name",
			files: []models.SessionFile{
				{Name: "a.txt", Filename: "1_0_a.txt"},
				{Name: "a.txt", Filename: "1_1_a.txt"},
				{Name: "b.txt", Filename: "1_2_b.txt"},
			},
			want: []string{"1_0_a.txt", "1_1_a.txt", "b.txt"},
		},
		{
			name: "shared name without stored name gets suffix",
			files: []models.SessionFile{
				{Name: "a.txt"},
				{Name: "a.txt"},
			},
			want: []string{"a.txt", "a (1).txt"},
		},
		{
			name: "path components stripped",
			files: []models.SessionFile{
				{Name: "../../etc/passwd", Filename: "1_0_passwd"},
				{Name: "", Filename: "1_1_x"},
				{Name: "..", Filename: ""},
			},
			want: []string{"passwd", "1_1_x", "file"},
		},
	}

	for _, tt := range tests {
		got := destNames(tt.files)
		if len(got) != len(tt.want) {
			t.Errorf("%s: destNames returned %d names; want %d", tt.name, len(got), len(tt.want))
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("%s: destNames[%d] = %q; want %q", tt.name, i, got[i], tt.want[i])
			}
		}
	}
}

func TestFetchSameNameKeepsBoth(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /files/s/abc123defg/d/{filename}", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("content of " + r.PathValue("filename")))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c, err := client.New(srv.URL)
	if err != nil {
		t.Fatal(err)
	}

	files := []models.SessionFile{
		{Name: "a.txt", Filename: "1_0_a.txt", URL: "/files/s/abc123defg/d/1_0_a.txt"},
		{Name: "a.txt", Filename: "1_1_a.txt", URL: "/files/s/abc123defg/d/1_1_a.txt"},
	}
	dir := t.TempDir()
	names := destNames(files)

	errs := utils.ForEachAsync([]int{0, 1}, 2, func(i int) error {
		return fetch(context.Background(), c, files[i], filepath.Join(dir, names[i]))
	})
	for i, err := range errs {
		if err != nil {
			t.Fatalf("fetch(%q): %v", files[i].Filename, err)
		}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Fatalf("files on disk = %d; want 2", len(entries))
	}

	for _, f := range files {
		b, err := os.ReadFile(filepath.Join(dir, f.Filename))
		if err != nil {
			t.Fatalf("read %s: %v", f.Filename, err)
		}
		if got, want := string(b), "content of "+f.Filename; got != want {
			t.Errorf("%s = %q; want %q", f.Filename, got, want)
		}
	}
}
