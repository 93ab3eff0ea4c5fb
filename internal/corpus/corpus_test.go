package corpus_test

import (
	"bytes"
	"errors"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"testing"

	"github.com/JaimeStill/moodmap/internal/corpus"
	"github.com/JaimeStill/moodmap/pkg/query"
	"github.com/JaimeStill/moodmap/pkg/vector"
)

func TestReadCSV(t *testing.T) {
	input := strings.Join([]string{
		"username,tweets_time,tweets,likes",
		"ana,2024-03-01 10:00,What a lovely morning,3",
		"ben,2024-03-01 10:05,   ,0",
		"cy,2024-03-01 10:07,What a lovely morning,1",
		`dee,2024-03-01 10:09,"Stuck in traffic, again",7`,
	}, "\n")

	res, err := corpus.ReadCSV(strings.NewReader(input), corpus.CSVOptions{Collection: "tweets"})
	if err != nil {
		t.Fatalf("ReadCSV() error = %v", err)
	}

	if res.Rows != 4 || res.Dropped != 2 {
		t.Errorf("rows=%d dropped=%d, want 4 and 2", res.Rows, res.Dropped)
	}
	if len(res.Documents) != 2 {
		t.Fatalf("documents = %d, want 2", len(res.Documents))
	}

	want := corpus.NewDocument{
		Collection: "tweets",
		Author:     "dee",
		Timestamp:  "2024-03-01 10:09",
		Text:       "Stuck in traffic, again",
	}
	if res.Documents[1] != want {
		t.Errorf("document = %+v, want %+v", res.Documents[1], want)
	}
}

func TestReadCSVLatin1(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteString("tweets_time,username,tweets\n")
	buf.WriteString("2024-03-02,jos")
	buf.WriteByte(0xE9) // é in ISO-8859-1
	buf.WriteString(",caf")
	buf.WriteByte(0xE9)
	buf.WriteString(" time\n")

	res, err := corpus.ReadCSV(&buf, corpus.CSVOptions{Collection: "tweets", Encoding: "latin1"})
	if err != nil {
		t.Fatalf("ReadCSV() error = %v", err)
	}
	if got := res.Documents[0].Author; got != "josé" {
		t.Errorf("author = %q, want josé", got)
	}
	if got := res.Documents[0].Text; got != "café time" {
		t.Errorf("text = %q, want café time", got)
	}
}

func TestReadCSVErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		opts  corpus.CSVOptions
	}{
		{"empty", "", corpus.CSVOptions{}},
		{"missing column", "tweets_time,tweets\n2024,hello", corpus.CSVOptions{}},
		{"unknown encoding", "tweets_time,username,tweets\n", corpus.CSVOptions{Encoding: "ebcdic"}},
		{"bad quoting", "tweets_time,username,tweets\n2024,ana,\"unterminated", corpus.CSVOptions{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := corpus.ReadCSV(strings.NewReader(tt.input), tt.opts)
			if !errors.Is(err, corpus.ErrInvalidCSV) {
				t.Errorf("ReadCSV() error = %v, want ErrInvalidCSV", err)
			}
		})
	}
}

func TestFiltersFromQuery(t *testing.T) {
	values := url.Values{
		"collection": {"tweets"},
		"author":     {"ana"},
		"label":      {"4"},
		"labeled":    {"true"},
		"embedded":   {"false"},
	}

	f := corpus.FiltersFromQuery(values)

	if f.Collection == nil || *f.Collection != "tweets" {
		t.Errorf("collection = %v", f.Collection)
	}
	if f.Author == nil || *f.Author != "ana" {
		t.Errorf("author = %v", f.Author)
	}
	if f.Label == nil || *f.Label != 4 {
		t.Errorf("label = %v", f.Label)
	}
	if f.Labeled == nil || !*f.Labeled {
		t.Errorf("labeled = %v", f.Labeled)
	}
	if f.Embedded == nil || *f.Embedded {
		t.Errorf("embedded = %v", f.Embedded)
	}

	empty := corpus.FiltersFromQuery(url.Values{"label": {"x"}, "labeled": {"maybe"}})
	if empty.Label != nil || empty.Labeled != nil {
		t.Error("unparseable values should be ignored")
	}
}

func TestFiltersApply(t *testing.T) {
	projection := query.NewProjectionMap("public", "documents", "d").
		Project("id", "ID").
		Project("collection", "Collection").
		Project("embedding", "Embedding").
		Join("public", "labels", "l", "LEFT JOIN", "l.document_id = d.id").
		Project("category_id", "Label")

	collection := "tweets"
	labeled := false
	embedded := true
	f := corpus.Filters{Collection: &collection, Labeled: &labeled, Embedded: &embedded}

	sql, args := f.Apply(query.NewBuilder(projection)).BuildCount()

	want := "SELECT COUNT(*) FROM public.documents d LEFT JOIN public.labels l ON l.document_id = d.id " +
		"WHERE d.collection = $1 AND l.category_id IS NULL AND d.embedding IS NOT NULL"
	if sql != want {
		t.Errorf("sql = %q, want %q", sql, want)
	}
	if len(args) != 1 {
		t.Errorf("args = %v, want 1 arg", args)
	}
}

func TestDocumentHasEmbedding(t *testing.T) {
	if (corpus.Document{}).HasEmbedding() {
		t.Error("empty document should not report an embedding")
	}
	if !(corpus.Document{Embedding: []float32{0.1}}).HasEmbedding() {
		t.Error("document with vector should report an embedding")
	}
}

func TestMapHTTPStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{corpus.ErrNotFound, http.StatusNotFound},
		{corpus.ErrDuplicate, http.StatusConflict},
		{corpus.ErrInvalidID, http.StatusBadRequest},
		{corpus.ErrUnknownCategory, http.StatusBadRequest},
		{corpus.ErrInvalidLabel, http.StatusBadRequest},
		{corpus.ErrInvalidCSV, http.StatusBadRequest},
		{corpus.ErrNoCollection, http.StatusBadRequest},
		{corpus.ErrFileTooLarge, http.StatusRequestEntityTooLarge},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		if got := corpus.MapHTTPStatus(tt.err); got != tt.want {
			t.Errorf("MapHTTPStatus(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestDecodeEmbedding(t *testing.T) {
	v := []float32{0.5, -0.25, 1}
	if got := corpus.DecodeEmbedding(vector.Encode(v)); !slices.Equal(got, v) {
		t.Errorf("DecodeEmbedding = %v, want %v", got, v)
	}

	for _, raw := range [][]byte{nil, {0x01, 0x02, 0x03}} {
		got := corpus.DecodeEmbedding(raw)
		if got != nil {
			t.Errorf("DecodeEmbedding(%v) = %v, want nil", raw, got)
		}
		if (corpus.Document{Embedding: got}).HasEmbedding() {
			t.Errorf("malformed %v should read as missing", raw)
		}
	}
}
