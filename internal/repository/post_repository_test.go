package repository

import (
	"errors"
	"reflect"
	"testing"

	"quill-blog-server/internal/domain"
)

func TestPostSelector(t *testing.T) {
	tests := []struct {
		name   string
		filter PostFilter
		want   map[string]interface{}
	}{
		{
			name:   "no filter keeps only the post discriminator",
			filter: PostFilter{},
			want: map[string]interface{}{
				"title": map[string]interface{}{"$exists": true},
			},
		},
		{
			name:   "tag filter adds elemMatch",
			filter: PostFilter{Tag: "golang"},
			want: map[string]interface{}{
				"title": map[string]interface{}{"$exists": true},
				"tags": map[string]interface{}{
					"$elemMatch": map[string]interface{}{"$eq": "golang"},
				},
			},
		},
		{
			name:   "author filter adds author_id",
			filter: PostFilter{AuthorID: "user-1"},
			want: map[string]interface{}{
				"title":     map[string]interface{}{"$exists": true},
				"author_id": "user-1",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := postSelector(tt.filter); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("postSelector() = %v, want %v", got, tt.want)
			}
		})
	}
}

// fakePageCounter hands out page sizes and records the skip/limit of every
// fetch, standing in for the per-page count queries.
type fakePageCounter struct {
	pages []int
	calls [][2]int
	err   error
}

func (f *fakePageCounter) fetch(skip, limit int) (int, error) {
	f.calls = append(f.calls, [2]int{skip, limit})
	if f.err != nil {
		return 0, f.err
	}
	if len(f.pages) == 0 {
		return 0, nil
	}
	n := f.pages[0]
	f.pages = f.pages[1:]
	return n, nil
}

func TestSumPages(t *testing.T) {
	tests := []struct {
		name      string
		pages     []int
		want      int
		wantCalls int
	}{
		{
			name:      "single short page",
			pages:     []int{7},
			want:      7,
			wantCalls: 1,
		},
		{
			name:      "totals beyond one page",
			pages:     []int{1000, 1000, 7},
			want:      2007,
			wantCalls: 3,
		},
		{
			name:      "exact page boundary needs one more fetch",
			pages:     []int{1000},
			want:      1000,
			wantCalls: 2,
		},
		{
			name:      "no matches",
			pages:     nil,
			want:      0,
			wantCalls: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			counter := &fakePageCounter{pages: tt.pages}
			got, err := sumPages(1000, counter.fetch)
			if err != nil {
				t.Fatalf("sumPages() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("sumPages() = %d, want %d", got, tt.want)
			}
			if len(counter.calls) != tt.wantCalls {
				t.Errorf("fetch calls = %d, want %d", len(counter.calls), tt.wantCalls)
			}
			for i, call := range counter.calls {
				if call[0] != i*1000 || call[1] != 1000 {
					t.Errorf("call %d = skip %d limit %d, want skip %d limit 1000",
						i, call[0], call[1], i*1000)
				}
			}
		})
	}
}

func TestSumPagesPropagatesError(t *testing.T) {
	counter := &fakePageCounter{err: errors.New("connection refused")}
	if _, err := sumPages(1000, counter.fetch); err == nil {
		t.Fatal("sumPages() expected error, got nil")
	}
}

// fakeResultSet replays canned documents and can fail mid-iteration.
type fakeResultSet struct {
	docs    []*domain.Post
	pos     int
	scanErr error
	iterErr error
}

func (f *fakeResultSet) Next() bool {
	if f.pos >= len(f.docs) {
		return false
	}
	f.pos++
	return true
}

func (f *fakeResultSet) ScanDoc(dest interface{}) error {
	if f.scanErr != nil && f.pos == 2 {
		return f.scanErr
	}
	*dest.(*domain.Post) = *f.docs[f.pos-1]
	return nil
}

func (f *fakeResultSet) Err() error {
	return f.iterErr
}

func TestScanPosts(t *testing.T) {
	docs := []*domain.Post{
		{ID: "post-1", Title: "First"},
		{ID: "post-2", Title: "Second"},
	}

	posts, err := scanPosts(&fakeResultSet{docs: docs})
	if err != nil {
		t.Fatalf("scanPosts() error = %v", err)
	}
	if len(posts) != 2 {
		t.Fatalf("scanPosts() returned %d posts, want 2", len(posts))
	}
	if posts[0].ID != "post-1" || posts[1].ID != "post-2" {
		t.Errorf("scanPosts() order = %s, %s", posts[0].ID, posts[1].ID)
	}
}

func TestScanPostsFailsOnBadDocument(t *testing.T) {
	rows := &fakeResultSet{
		docs: []*domain.Post{
			{ID: "post-1", Title: "First"},
			{ID: "post-2", Title: "Second"},
		},
		scanErr: errors.New("json: cannot unmarshal"),
	}

	posts, err := scanPosts(rows)
	if err == nil {
		t.Fatal("scanPosts() expected error for unscannable document, got nil")
	}
	if posts != nil {
		t.Errorf("scanPosts() = %v, want nil on error", posts)
	}
}

func TestScanPostsPropagatesIterationError(t *testing.T) {
	rows := &fakeResultSet{iterErr: errors.New("stream reset")}
	if _, err := scanPosts(rows); err == nil {
		t.Fatal("scanPosts() expected error, got nil")
	}
}
