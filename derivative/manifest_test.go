package derivative

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testManifest builds a small tree:
//
//	svf (guid g1, role graphics)
//	├── view-3d (guid g2, role 3d)
//	│   └── geometry (guid g3, role 3d)
//	└── view-2d (guid g4, role 2d)
//	thumbnail (guid g5, role thumbnail)
func testManifest() *Manifest {
	return &Manifest{
		Status: "success",
		Derivatives: []Derivative{
			{
				GUID: "g1", Type: "derivative", Role: "graphics", Name: "svf",
				Children: []Derivative{
					{
						GUID: "g2", Type: "geometry", Role: "3d", Name: "view-3d",
						Children: []Derivative{
							{GUID: "g3", Type: "resource", Role: "3d", Name: "geometry"},
						},
					},
					{GUID: "g4", Type: "geometry", Role: "2d", Name: "view-2d"},
				},
			},
			{GUID: "g5", Type: "resource", Role: "thumbnail", Name: "thumbnail"},
		},
	}
}

func TestWalk_PreOrder(t *testing.T) {
	var visited []string

	testManifest().Walk(func(d *Derivative) bool {
		visited = append(visited, d.GUID)
		return true
	})

	assert.Equal(t, []string{"g1", "g2", "g3", "g4", "g5"}, visited)
}

func TestWalk_FalsePrunesSubtree(t *testing.T) {
	var visited []string

	testManifest().Walk(func(d *Derivative) bool {
		visited = append(visited, d.GUID)
		// Do not descend into the 3d view: g3 must be skipped.
		return d.GUID != "g2"
	})

	assert.Equal(t, []string{"g1", "g2", "g4", "g5"}, visited)
}

func TestSearch_ByRole(t *testing.T) {
	matches := testManifest().Search(SearchQuery{Role: "3d"})

	require.Len(t, matches, 2)
	assert.Equal(t, "g2", matches[0].GUID)
	assert.Equal(t, "g3", matches[1].GUID)
}

func TestSearch_CombinedFilters(t *testing.T) {
	matches := testManifest().Search(SearchQuery{Role: "3d", Type: "resource"})

	require.Len(t, matches, 1)
	assert.Equal(t, "g3", matches[0].GUID)
}

func TestSearch_EmptyQueryMatchesAll(t *testing.T) {
	matches := testManifest().Search(SearchQuery{})

	assert.Len(t, matches, 5)
}

func TestSearch_ByGUID(t *testing.T) {
	matches := testManifest().Search(SearchQuery{GUID: "g4"})

	require.Len(t, matches, 1)
	assert.Equal(t, "view-2d", matches[0].Name)
}

func TestSearch_NoMatches(t *testing.T) {
	assert.Empty(t, testManifest().Search(SearchQuery{Role: "nonexistent"}))
}

func TestGetManifest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/modelderivative/v2/designdata/dXJu/manifest", r.URL.Path)

		fmt.Fprint(w, `{
			"type": "manifest",
			"status": "inprogress",
			"progress": "42% complete",
			"urn": "dXJu",
			"derivatives": [
				{"guid": "g1", "status": "inprogress", "outputType": "svf",
				 "children": [{"guid": "g2", "role": "3d", "type": "geometry"}]}
			]
		}`)
	}))
	defer srv.Close()

	client, _ := newTestClient(t, srv.URL)

	m, err := client.GetManifest(context.Background(), "dXJu")
	require.NoError(t, err)
	assert.Equal(t, "inprogress", m.Status)
	assert.Equal(t, "42% complete", m.Progress)
	require.Len(t, m.Derivatives, 1)
	require.Len(t, m.Derivatives[0].Children, 1)
	assert.Equal(t, "3d", m.Derivatives[0].Children[0].Role)
}

func TestDeleteManifest(t *testing.T) {
	var gotMethod string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		fmt.Fprint(w, `{"result":"success"}`)
	}))
	defer srv.Close()

	client, _ := newTestClient(t, srv.URL)

	require.NoError(t, client.DeleteManifest(context.Background(), "dXJu"))
	assert.Equal(t, http.MethodDelete, gotMethod)
}
